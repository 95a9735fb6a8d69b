package engine

import "rigrename/preset"

// Object pairs a display name with the container the engine operates on.
// Rule prefixes resolve against the name.
type Object struct {
	Name      string
	Container Container
}

// Linkage looks up the counterpart objects of a named object: the
// skeletons deforming a mesh, or the meshes a skeleton deforms.
type Linkage func(name string) []Object

// Coordinator runs engine operations over a selection, optionally in
// lock-step with each object's linked counterpart.
type Coordinator struct {
	counterparts Linkage
}

// NewCoordinator returns a Coordinator using the given linkage. A nil
// linkage resolves every lookup to no counterparts.
func NewCoordinator(counterparts Linkage) *Coordinator {
	if counterparts == nil {
		counterparts = func(string) []Object { return nil }
	}
	return &Coordinator{counterparts: counterparts}
}

// Apply resolves p's rulesets object by object and applies them in
// selection order. Objects matching no ruleset are skipped. With sync, the
// ruleset resolved for an object — by that object's own name — is also
// applied to its single counterpart. A selection in which any object has
// more than one counterpart is rejected whole, before anything is touched.
func (co *Coordinator) Apply(p *preset.Preset, sel []Object, sync bool) (BatchReport, error) {
	return co.run(p, sel, sync, Apply)
}

// Undo is the inverse pass over the same rules; see Undo.
func (co *Coordinator) Undo(p *preset.Preset, sel []Object, sync bool) (BatchReport, error) {
	return co.run(p, sel, sync, Undo)
}

func (co *Coordinator) run(p *preset.Preset, sel []Object, sync bool, op func(Container, *preset.RuleSet) Report) (BatchReport, error) {
	var batch BatchReport

	links, err := co.resolveLinks(sel, sync)
	if err != nil {
		return batch, err
	}

	for _, obj := range sel {
		rs := preset.Resolve(obj.Name, p.RuleSets)
		if rs == nil {
			continue
		}
		batch.Results = append(batch.Results, ObjectReport{
			Object: obj.Name,
			Prefix: rs.Prefix,
			Report: op(obj.Container, rs),
		})
		for _, cp := range links[obj.Name] {
			batch.Results = append(batch.Results, ObjectReport{
				Object: cp.Name,
				Via:    obj.Name,
				Prefix: rs.Prefix,
				Report: op(cp.Container, rs),
			})
		}
	}
	return batch, nil
}

// Mirror swaps L_/R_ pairs on every selected object. With sync, each
// distinct counterpart is mirrored exactly once however many selected
// objects link to it: a second pass would swap everything back.
func (co *Coordinator) Mirror(sel []Object, sync bool) (BatchReport, error) {
	var batch BatchReport

	links, err := co.resolveLinks(sel, sync)
	if err != nil {
		return batch, err
	}

	for _, obj := range sel {
		batch.Results = append(batch.Results, ObjectReport{
			Object: obj.Name,
			Report: Mirror(obj.Container),
		})
	}
	done := make(map[string]bool, len(sel))
	for _, obj := range sel {
		done[obj.Name] = true
	}
	for _, obj := range sel {
		for _, cp := range links[obj.Name] {
			if done[cp.Name] {
				continue
			}
			done[cp.Name] = true
			batch.Results = append(batch.Results, ObjectReport{
				Object: cp.Name,
				Via:    obj.Name,
				Report: Mirror(cp.Container),
			})
		}
	}
	return batch, nil
}

// resolveLinks gathers counterparts for the whole selection and rejects
// the batch if any object has more than one, naming every offender in
// selection order. Without sync the map is empty.
func (co *Coordinator) resolveLinks(sel []Object, sync bool) (map[string][]Object, error) {
	links := make(map[string][]Object, len(sel))
	if !sync {
		return links, nil
	}
	var ambiguous []string
	for _, obj := range sel {
		cps := co.counterparts(obj.Name)
		if len(cps) > 1 {
			ambiguous = append(ambiguous, obj.Name)
		}
		links[obj.Name] = cps
	}
	if len(ambiguous) > 0 {
		return nil, &AmbiguousLinkError{Objects: ambiguous}
	}
	return links, nil
}
