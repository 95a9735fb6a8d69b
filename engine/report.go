package engine

import (
	"fmt"
	"strings"
)

// Rename records one applied rename.
type Rename struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Merge records several members consolidated into one target.
type Merge struct {
	Target  string   `json:"target"`
	Sources []string `json:"sources"`
}

// Failure records a step the host rejected; the operation carried on.
type Failure struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Reason string `json:"reason"`
}

// Report summarizes one operation on one container.
type Report struct {
	Renamed []Rename  `json:"renamed,omitempty"`
	Merged  []Merge   `json:"merged,omitempty"`
	Failed  []Failure `json:"failed,omitempty"`
}

// Empty reports whether nothing happened.
func (r Report) Empty() bool {
	return len(r.Renamed) == 0 && len(r.Merged) == 0 && len(r.Failed) == 0
}

// ObjectReport ties a Report to the object it ran on. Via names the
// selected object that pulled this one in through linkage; Prefix is the
// rule prefix the object resolved to.
type ObjectReport struct {
	Object string `json:"object"`
	Via    string `json:"via,omitempty"`
	Prefix string `json:"prefix,omitempty"`
	Report Report `json:"report"`
}

// BatchReport collects the reports of one batch in application order.
type BatchReport struct {
	Results []ObjectReport `json:"results"`
}

// Counts sums renames, merges, and failures across the batch.
func (b BatchReport) Counts() (renamed, merged, failed int) {
	for _, r := range b.Results {
		renamed += len(r.Report.Renamed)
		merged += len(r.Report.Merged)
		failed += len(r.Report.Failed)
	}
	return
}

// AmbiguousLinkError rejects a synchronized batch in which at least one
// selected object is linked to more than one counterpart. Nothing has
// been modified when it is returned.
type AmbiguousLinkError struct {
	Objects []string
}

func (e *AmbiguousLinkError) Error() string {
	return fmt.Sprintf("objects linked to multiple counterparts: %s", strings.Join(e.Objects, ", "))
}
