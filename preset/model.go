package preset

import "errors"

// DefaultPreset always exists and cannot be deleted.
const DefaultPreset = "Default"

// Rule maps one old member name to its replacement. Several rules sharing
// the same New value merge their sources into a single member.
type Rule struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// RuleSet is an ordered list of rules applied to objects whose name starts
// with Prefix. The empty prefix is the catch-all.
type RuleSet struct {
	Prefix string `json:"prefix"`
	Rules  []Rule `json:"rules"`
}

// Preset is a named, ordered collection of rulesets.
type Preset struct {
	Name     string     `json:"name"`
	RuleSets []*RuleSet `json:"rulesets"`
}

// Store is the full persistent state: every preset in creation order.
type Store struct {
	Presets []*Preset `json:"presets"`
}

var ErrNotFound = errors.New("preset not found")
var ErrDuplicateName = errors.New("name already in use")
var ErrProtectedName = errors.New("preset is protected")

// ErrPersist marks a failed store write. The in-memory change it follows
// has already been applied and is not rolled back.
var ErrPersist = errors.New("preset store not persisted")

func (r *RuleSet) clone() *RuleSet {
	cp := &RuleSet{Prefix: r.Prefix, Rules: make([]Rule, len(r.Rules))}
	copy(cp.Rules, r.Rules)
	return cp
}

func (p *Preset) clone() *Preset {
	cp := &Preset{Name: p.Name, RuleSets: make([]*RuleSet, len(p.RuleSets))}
	for i, rs := range p.RuleSets {
		cp.RuleSets[i] = rs.clone()
	}
	return cp
}

func (s *Store) clone() *Store {
	cp := &Store{Presets: make([]*Preset, len(s.Presets))}
	for i, p := range s.Presets {
		cp.Presets[i] = p.clone()
	}
	return cp
}
