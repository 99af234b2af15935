package volume

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/dwhswenson/annotated-trajectories/internal/trajectory"
)

// #region volume
// Volume is a membership test over a single frame.
type Volume interface {
	Contains(s trajectory.Snapshot) bool
}

// Func adapts a plain function to a Volume.
type Func func(trajectory.Snapshot) bool

// Contains reports f(s).
func (f Func) Contains(s trajectory.Snapshot) bool {
	return f(s)
}

// Empty contains no frames.
type Empty struct{}

// Contains always reports false.
func (Empty) Contains(trajectory.Snapshot) bool {
	return false
}

// #endregion volume

// #region collective-variable
// CollectiveVariable maps a frame to a scalar.
type CollectiveVariable struct {
	Name string
	Fn   func(trajectory.Snapshot) float64
}

// Coordinate returns a CV reading coordinate dim (0=x, 1=y, 2=z) of one atom.
// Frames must hold at least atom+1 atoms; see Definitions.Check.
func Coordinate(name string, atom, dim int) CollectiveVariable {
	return CollectiveVariable{
		Name: name,
		Fn: func(s trajectory.Snapshot) float64 {
			return s.Coordinates[atom][dim]
		},
	}
}

// Eval evaluates the CV on one frame.
func (cv CollectiveVariable) Eval(s trajectory.Snapshot) float64 {
	return cv.Fn(s)
}

// EvalTrajectory evaluates the CV on every frame, in order.
func (cv CollectiveVariable) EvalTrajectory(t *trajectory.Trajectory) []float64 {
	out := make([]float64, t.Len())
	for i := range out {
		out[i] = cv.Fn(t.At(i))
	}
	return out
}

// #endregion collective-variable

// #region cv-range
// CVRange contains frames whose CV value lies in [Min, Max).
type CVRange struct {
	CV  CollectiveVariable
	Min float64
	Max float64
}

// Contains reports Min <= cv(s) < Max.
func (v CVRange) Contains(s trajectory.Snapshot) bool {
	x := v.CV.Eval(s)
	return v.Min <= x && x < v.Max
}

// #endregion cv-range

// #region membership
// Membership contains exactly the snapshots whose IDs were marked in-state.
// It is the volume built from a precomputed per-frame classification.
type Membership struct {
	ids map[uuid.UUID]struct{}
}

// FromMask builds a Membership from one boolean per frame of t.
func FromMask(t *trajectory.Trajectory, mask []bool) (*Membership, error) {
	if len(mask) != t.Len() {
		return nil, fmt.Errorf("mask has %d entries for %d frames", len(mask), t.Len())
	}
	m := &Membership{ids: make(map[uuid.UUID]struct{})}
	for i, in := range mask {
		if in {
			m.ids[t.At(i).ID] = struct{}{}
		}
	}
	return m, nil
}

// Contains reports whether s was marked in-state. A nil Membership contains
// nothing.
func (m *Membership) Contains(s trajectory.Snapshot) bool {
	if m == nil {
		return false
	}
	_, ok := m.ids[s.ID]
	return ok
}

// Len returns the number of in-state snapshots.
func (m *Membership) Len() int {
	if m == nil {
		return 0
	}
	return len(m.ids)
}

// #endregion membership
