package engine

import "strings"

// Mirror side tokens. These are case-sensitive literals; "l_arm" is not a
// left member.
const (
	leftPrefix  = "L_"
	rightPrefix = "R_"
)

// Mirror swaps every L_/R_ member pair in c. A member is paired when the
// counterpart with the opposite prefix exists; unpaired members are left
// alone. The swap runs in three phases through transient names so the two
// sides never collide, and member data travels with the renames.
func Mirror(c Container) Report {
	var rep Report

	names := c.Members()
	has := make(map[string]bool, len(names))
	for _, n := range names {
		has[n] = true
	}

	type pair struct{ left, right string }
	var pairs []pair
	for _, n := range names {
		if !strings.HasPrefix(n, leftPrefix) {
			continue
		}
		r := rightPrefix + strings.TrimPrefix(n, leftPrefix)
		if has[r] {
			pairs = append(pairs, pair{left: n, right: r})
		}
	}

	// Phase 1: park every left member under a transient name.
	parked := make(map[int]string, len(pairs))
	for i, p := range pairs {
		tmp := transientName(c, "__swap_"+p.right+"__")
		if err := c.Rename(p.left, tmp); err != nil {
			rep.Failed = append(rep.Failed, Failure{From: p.left, To: tmp, Reason: err.Error()})
			continue
		}
		parked[i] = tmp
	}
	// Phase 2: move right members onto the freed left names.
	for i, p := range pairs {
		if _, ok := parked[i]; !ok {
			continue
		}
		if err := c.Rename(p.right, p.left); err != nil {
			rep.Failed = append(rep.Failed, Failure{From: p.right, To: p.left, Reason: err.Error()})
			continue
		}
		rep.Renamed = append(rep.Renamed, Rename{From: p.right, To: p.left})
	}
	// Phase 3: land the parked members on the right names.
	for i, p := range pairs {
		tmp, ok := parked[i]
		if !ok {
			continue
		}
		if err := c.Rename(tmp, p.right); err != nil {
			rep.Failed = append(rep.Failed, Failure{From: tmp, To: p.right, Reason: err.Error()})
			continue
		}
		rep.Renamed = append(rep.Renamed, Rename{From: p.left, To: p.right})
	}
	return rep
}
