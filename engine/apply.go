package engine

import "rigrename/preset"

// Apply runs a ruleset against one container. Members are visited in
// container order, so bucket processing and the first source of a merge
// follow the container rather than the rule list. Rules whose old name
// is absent are skipped. Sources with a unique target are renamed in
// place; sources sharing a target are merged into it. Host rejections
// land in Report.Failed and the remaining steps still run; nothing is
// rolled back.
func Apply(c Container, rs *preset.RuleSet) Report {
	var rep Report

	targets := make(map[string]string, len(rs.Rules))
	for _, r := range rs.Rules {
		targets[r.Old] = r.New
	}

	// Bucket members by target, walking the container so the buckets
	// carry container order, not rule order.
	var order []string
	buckets := make(map[string][]string)
	for _, name := range c.Members() {
		to, ok := targets[name]
		if !ok {
			continue
		}
		if _, seen := buckets[to]; !seen {
			order = append(order, to)
		}
		buckets[to] = append(buckets[to], name)
	}

	merged := false
	for _, to := range order {
		sources := buckets[to]
		if len(sources) == 1 {
			from := sources[0]
			if from == to {
				continue
			}
			if err := c.Rename(from, to); err != nil {
				rep.Failed = append(rep.Failed, Failure{From: from, To: to, Reason: err.Error()})
				continue
			}
			rep.Renamed = append(rep.Renamed, Rename{From: from, To: to})
			continue
		}
		merge(c, to, sources, &rep)
		merged = true
	}

	// Combined weights may push an element past full influence. One pass
	// at the end, never one per merge.
	if merged {
		if wc, ok := c.(WeightedContainer); ok {
			renormalize(wc, &rep)
		}
	}
	return rep
}

// merge consolidates sources into a single member named to. Data moves
// through a transient member, so a source that is itself named to needs no
// special case. Weighted members combine additively per element; posed
// members adopt the pose of the first source; bare members keep membership
// only.
func merge(c Container, to string, sources []string, rep *Report) {
	tmp := transientName(c, "__merge_"+to+"__")
	if err := c.Add(tmp); err != nil {
		rep.Failed = append(rep.Failed, Failure{From: sources[0], To: to, Reason: err.Error()})
		return
	}

	switch tc := c.(type) {
	case WeightedContainer:
		combineWeights(tc, tmp, sources, rep)
	case PosedContainer:
		if p, ok := tc.Pose(sources[0]); ok {
			if err := tc.SetPose(tmp, p); err != nil {
				rep.Failed = append(rep.Failed, Failure{From: sources[0], To: tmp, Reason: err.Error()})
			}
		}
	}

	for _, s := range sources {
		if err := c.Remove(s); err != nil {
			rep.Failed = append(rep.Failed, Failure{From: s, To: to, Reason: err.Error()})
		}
	}
	if err := c.Rename(tmp, to); err != nil {
		// The transient member stays behind; the host state is still valid.
		rep.Failed = append(rep.Failed, Failure{From: tmp, To: to, Reason: err.Error()})
		return
	}
	rep.Merged = append(rep.Merged, Merge{Target: to, Sources: sources})
}

// combineWeights sums the sources' weights element by element onto dst.
// A source without a weight on an element contributes zero. The sum is
// stored on every element, so dst carries an explicit 0.0 where no source
// held a weight.
func combineWeights(c WeightedContainer, dst string, sources []string, rep *Report) {
	for elem := 0; elem < c.Elements(); elem++ {
		total := 0.0
		for _, s := range sources {
			if w, ok := c.Weight(s, elem); ok {
				total += w
			}
		}
		if err := c.SetWeight(dst, elem, total); err != nil {
			rep.Failed = append(rep.Failed, Failure{From: dst, To: dst, Reason: err.Error()})
			return
		}
	}
}

// renormalize rescales every element whose total stored weight exceeds 1.0
// so it sums to exactly 1.0. Totals at or below 1.0, including exactly
// 1.0, are left untouched.
func renormalize(c WeightedContainer, rep *Report) {
	members := c.Members()
	for elem := 0; elem < c.Elements(); elem++ {
		total := 0.0
		for _, m := range members {
			if w, ok := c.Weight(m, elem); ok {
				total += w
			}
		}
		if total <= 1.0 {
			continue
		}
		for _, m := range members {
			if w, ok := c.Weight(m, elem); ok {
				if err := c.SetWeight(m, elem, w/total); err != nil {
					rep.Failed = append(rep.Failed, Failure{From: m, To: m, Reason: err.Error()})
				}
			}
		}
	}
}
