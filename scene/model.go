// Package scene holds the in-memory asset document the engines operate on:
// meshes with weight groups, skeletons with joints, and the linkage between
// them.
package scene

import (
	"errors"
	"fmt"
)

var ErrNameTaken = errors.New("name already in use")
var ErrNotFound = errors.New("not found")

// Scene is a full document: every object of both kinds, order preserved.
type Scene struct {
	Meshes    []*Mesh     `json:"meshes"`
	Skeletons []*Skeleton `json:"skeletons"`
}

// Mesh is a weighted object: a fixed number of vertices and an ordered set
// of uniquely named weight groups. Skeletons lists the names of the
// skeletons deforming this mesh.
type Mesh struct {
	Name      string         `json:"name"`
	Vertices  int            `json:"vertices"`
	Skeletons []string       `json:"skeletons,omitempty"`
	Groups    []*WeightGroup `json:"groups"`
}

// WeightGroup holds sparse per-vertex weights: a vertex missing from the
// map carries no weight in this group at all.
type WeightGroup struct {
	Name    string          `json:"name"`
	Weights map[int]float64 `json:"weights,omitempty"`
}

// Skeleton is a posed object: an ordered set of uniquely named joints.
type Skeleton struct {
	Name   string   `json:"name"`
	Joints []*Joint `json:"joints"`
}

// Joint is one named bone with its rest pose.
type Joint struct {
	Name string     `json:"name"`
	Head [3]float64 `json:"head"`
	Tail [3]float64 `json:"tail"`
	Roll float64    `json:"roll"`
}

// Validate checks document invariants: object names unique per kind and
// non-empty, member names unique per object and non-empty, vertex indexes
// in range, weights within [0,1]. Skeleton references are not checked;
// linkage lookups skip names that resolve to nothing.
func (sc *Scene) Validate() error {
	meshNames := map[string]bool{}
	for _, m := range sc.Meshes {
		if m.Name == "" {
			return errors.New("mesh with empty name")
		}
		if meshNames[m.Name] {
			return fmt.Errorf("duplicate mesh %q", m.Name)
		}
		meshNames[m.Name] = true
		if m.Vertices < 0 {
			return fmt.Errorf("mesh %q: negative vertex count", m.Name)
		}
		groups := map[string]bool{}
		for _, g := range m.Groups {
			if g.Name == "" {
				return fmt.Errorf("mesh %q: group with empty name", m.Name)
			}
			if groups[g.Name] {
				return fmt.Errorf("mesh %q: duplicate group %q", m.Name, g.Name)
			}
			groups[g.Name] = true
			for v, w := range g.Weights {
				if v < 0 || v >= m.Vertices {
					return fmt.Errorf("mesh %q group %q: vertex %d out of range", m.Name, g.Name, v)
				}
				if w < 0 || w > 1 {
					return fmt.Errorf("mesh %q group %q: weight %v out of range", m.Name, g.Name, w)
				}
			}
		}
	}

	skelNames := map[string]bool{}
	for _, s := range sc.Skeletons {
		if s.Name == "" {
			return errors.New("skeleton with empty name")
		}
		if skelNames[s.Name] {
			return fmt.Errorf("duplicate skeleton %q", s.Name)
		}
		skelNames[s.Name] = true
		joints := map[string]bool{}
		for _, j := range s.Joints {
			if j.Name == "" {
				return fmt.Errorf("skeleton %q: joint with empty name", s.Name)
			}
			if joints[j.Name] {
				return fmt.Errorf("skeleton %q: duplicate joint %q", s.Name, j.Name)
			}
			joints[j.Name] = true
		}
	}
	return nil
}

func (sc *Scene) clone() *Scene {
	cp := &Scene{
		Meshes:    make([]*Mesh, len(sc.Meshes)),
		Skeletons: make([]*Skeleton, len(sc.Skeletons)),
	}
	for i, m := range sc.Meshes {
		groups := make([]*WeightGroup, len(m.Groups))
		for j, g := range m.Groups {
			w := make(map[int]float64, len(g.Weights))
			for k, v := range g.Weights {
				w[k] = v
			}
			groups[j] = &WeightGroup{Name: g.Name, Weights: w}
		}
		cp.Meshes[i] = &Mesh{
			Name:      m.Name,
			Vertices:  m.Vertices,
			Skeletons: append([]string(nil), m.Skeletons...),
			Groups:    groups,
		}
	}
	for i, s := range sc.Skeletons {
		joints := make([]*Joint, len(s.Joints))
		for j, jt := range s.Joints {
			c := *jt
			joints[j] = &c
		}
		cp.Skeletons[i] = &Skeleton{Name: s.Name, Joints: joints}
	}
	return cp
}
