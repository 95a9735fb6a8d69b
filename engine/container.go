// Package engine applies prefix-scoped rename rules to named member
// containers: consolidation (rename and merge), mirroring, undo, and
// lock-step synchronization between linked containers.
package engine

import "fmt"

// Container is the minimal host surface: an ordered set of uniquely named
// members. Mutations return the host's error on a name collision or a
// missing member; the engine surfaces those instead of pre-checking.
type Container interface {
	// Members returns the current member names in storage order.
	Members() []string
	// Has reports whether a member exists.
	Has(name string) bool
	// Add creates a new empty member.
	Add(name string) error
	// Remove deletes a member.
	Remove(name string) error
	// Rename changes a member's name in place.
	Rename(old, new string) error
}

// WeightedContainer carries a scalar weight per member per element. The
// weights are sparse: a member may hold no weight at all on an element.
type WeightedContainer interface {
	Container
	// Elements returns the number of weightable elements.
	Elements() int
	// Weight returns a member's weight on one element and whether the
	// member holds a weight there at all.
	Weight(member string, elem int) (float64, bool)
	// SetWeight stores a member's weight on one element.
	SetWeight(member string, elem int, w float64) error
}

// Pose is the spatial data a posed member carries.
type Pose struct {
	Head [3]float64 `json:"head"`
	Tail [3]float64 `json:"tail"`
	Roll float64    `json:"roll"`
}

// PosedContainer carries a pose per member.
type PosedContainer interface {
	Container
	// Pose returns a member's pose and whether the member exists.
	Pose(member string) (Pose, bool)
	// SetPose stores a member's pose.
	SetPose(member string, p Pose) error
}

// transientName returns a name not taken in c, derived from base.
func transientName(c Container, base string) string {
	name := base
	for i := 2; c.Has(name); i++ {
		name = fmt.Sprintf("%s%d", base, i)
	}
	return name
}
