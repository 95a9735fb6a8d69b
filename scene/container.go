package scene

import (
	"fmt"

	"rigrename/engine"
)

// Mesh exposes its groups as an engine.WeightedContainer; Skeleton exposes
// its joints as an engine.PosedContainer.
var _ engine.WeightedContainer = (*Mesh)(nil)
var _ engine.PosedContainer = (*Skeleton)(nil)

func (m *Mesh) Members() []string {
	names := make([]string, len(m.Groups))
	for i, g := range m.Groups {
		names[i] = g.Name
	}
	return names
}

func (m *Mesh) Has(name string) bool {
	return m.group(name) != nil
}

func (m *Mesh) Add(name string) error {
	if m.group(name) != nil {
		return fmt.Errorf("group %q: %w", name, ErrNameTaken)
	}
	m.Groups = append(m.Groups, &WeightGroup{Name: name, Weights: map[int]float64{}})
	return nil
}

func (m *Mesh) Remove(name string) error {
	for i, g := range m.Groups {
		if g.Name == name {
			m.Groups = append(m.Groups[:i], m.Groups[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("group %q: %w", name, ErrNotFound)
}

func (m *Mesh) Rename(old, new string) error {
	g := m.group(old)
	if g == nil {
		return fmt.Errorf("group %q: %w", old, ErrNotFound)
	}
	if new != old && m.group(new) != nil {
		return fmt.Errorf("group %q: %w", new, ErrNameTaken)
	}
	g.Name = new
	return nil
}

func (m *Mesh) Elements() int { return m.Vertices }

func (m *Mesh) Weight(member string, elem int) (float64, bool) {
	g := m.group(member)
	if g == nil {
		return 0, false
	}
	w, ok := g.Weights[elem]
	return w, ok
}

func (m *Mesh) SetWeight(member string, elem int, w float64) error {
	g := m.group(member)
	if g == nil {
		return fmt.Errorf("group %q: %w", member, ErrNotFound)
	}
	if elem < 0 || elem >= m.Vertices {
		return fmt.Errorf("vertex %d of mesh %q: %w", elem, m.Name, ErrNotFound)
	}
	if g.Weights == nil {
		g.Weights = map[int]float64{}
	}
	g.Weights[elem] = w
	return nil
}

func (m *Mesh) group(name string) *WeightGroup {
	for _, g := range m.Groups {
		if g.Name == name {
			return g
		}
	}
	return nil
}

func (s *Skeleton) Members() []string {
	names := make([]string, len(s.Joints))
	for i, j := range s.Joints {
		names[i] = j.Name
	}
	return names
}

func (s *Skeleton) Has(name string) bool {
	return s.joint(name) != nil
}

func (s *Skeleton) Add(name string) error {
	if s.joint(name) != nil {
		return fmt.Errorf("joint %q: %w", name, ErrNameTaken)
	}
	s.Joints = append(s.Joints, &Joint{Name: name})
	return nil
}

func (s *Skeleton) Remove(name string) error {
	for i, j := range s.Joints {
		if j.Name == name {
			s.Joints = append(s.Joints[:i], s.Joints[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("joint %q: %w", name, ErrNotFound)
}

func (s *Skeleton) Rename(old, new string) error {
	j := s.joint(old)
	if j == nil {
		return fmt.Errorf("joint %q: %w", old, ErrNotFound)
	}
	if new != old && s.joint(new) != nil {
		return fmt.Errorf("joint %q: %w", new, ErrNameTaken)
	}
	j.Name = new
	return nil
}

func (s *Skeleton) Pose(member string) (engine.Pose, bool) {
	j := s.joint(member)
	if j == nil {
		return engine.Pose{}, false
	}
	return engine.Pose{Head: j.Head, Tail: j.Tail, Roll: j.Roll}, true
}

func (s *Skeleton) SetPose(member string, p engine.Pose) error {
	j := s.joint(member)
	if j == nil {
		return fmt.Errorf("joint %q: %w", member, ErrNotFound)
	}
	j.Head, j.Tail, j.Roll = p.Head, p.Tail, p.Roll
	return nil
}

func (s *Skeleton) joint(name string) *Joint {
	for _, j := range s.Joints {
		if j.Name == name {
			return j
		}
	}
	return nil
}

// Mesh returns the named mesh.
func (sc *Scene) Mesh(name string) (*Mesh, bool) {
	for _, m := range sc.Meshes {
		if m.Name == name {
			return m, true
		}
	}
	return nil, false
}

// Skeleton returns the named skeleton.
func (sc *Scene) Skeleton(name string) (*Skeleton, bool) {
	for _, s := range sc.Skeletons {
		if s.Name == name {
			return s, true
		}
	}
	return nil, false
}

// SkeletonsOf resolves the skeletons deforming the named mesh. References
// to skeletons absent from the scene are skipped.
func (sc *Scene) SkeletonsOf(meshName string) []*Skeleton {
	m, ok := sc.Mesh(meshName)
	if !ok {
		return nil
	}
	var out []*Skeleton
	for _, ref := range m.Skeletons {
		if s, ok := sc.Skeleton(ref); ok {
			out = append(out, s)
		}
	}
	return out
}

// MeshesOf returns the meshes the named skeleton deforms.
func (sc *Scene) MeshesOf(skeletonName string) []*Mesh {
	var out []*Mesh
	for _, m := range sc.Meshes {
		for _, ref := range m.Skeletons {
			if ref == skeletonName {
				out = append(out, m)
				break
			}
		}
	}
	return out
}
