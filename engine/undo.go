package engine

import "rigrename/preset"

// Undo renames members carrying a rule's new name back to that rule's old
// name. The inverse map is built in rule order with later rules winning a
// shared target, matching the one name a merge would have kept. Merges are
// not split apart: weights combined by Apply stay combined, and only the
// rename is reversed.
func Undo(c Container, rs *preset.RuleSet) Report {
	var rep Report

	inverse := make(map[string]string, len(rs.Rules))
	for _, r := range rs.Rules {
		inverse[r.New] = r.Old
	}

	for _, name := range c.Members() {
		old, ok := inverse[name]
		if !ok || old == name {
			continue
		}
		if err := c.Rename(name, old); err != nil {
			rep.Failed = append(rep.Failed, Failure{From: name, To: old, Reason: err.Error()})
			continue
		}
		rep.Renamed = append(rep.Renamed, Rename{From: name, To: old})
	}
	return rep
}
