package trajectory

import (
	"fmt"

	"github.com/google/uuid"
)

// #region snapshot
// Snapshot is a single frame: per-atom coordinates and velocities.
type Snapshot struct {
	ID          uuid.UUID
	Coordinates [][3]float64
	Velocities  [][3]float64
}

// NewSnapshot creates a snapshot with a fresh ID.
func NewSnapshot(coords, vels [][3]float64) Snapshot {
	return Snapshot{
		ID:          uuid.New(),
		Coordinates: coords,
		Velocities:  vels,
	}
}

// NAtoms returns the number of atoms in the snapshot.
func (s Snapshot) NAtoms() int {
	return len(s.Coordinates)
}

// #endregion snapshot

// #region trajectory
// Trajectory is an ordered, read-only sequence of snapshots.
// The zero value is an empty trajectory.
type Trajectory struct {
	id     uuid.UUID
	frames []Snapshot
}

// New creates a trajectory over the given frames. The slice is copied.
func New(frames []Snapshot) *Trajectory {
	return newWithID(uuid.New(), frames)
}

func newWithID(id uuid.UUID, frames []Snapshot) *Trajectory {
	cp := make([]Snapshot, len(frames))
	copy(cp, frames)
	return &Trajectory{id: id, frames: cp}
}

// Empty returns a trajectory with no frames, the identity for Concat.
func Empty() *Trajectory {
	return &Trajectory{id: uuid.New()}
}

// ID returns the trajectory's identity, used as its storage key.
func (t *Trajectory) ID() uuid.UUID {
	return t.id
}

// Len returns the number of frames.
func (t *Trajectory) Len() int {
	if t == nil {
		return 0
	}
	return len(t.frames)
}

// At returns the frame at index i. It panics if i is out of range, like a slice index.
func (t *Trajectory) At(i int) Snapshot {
	return t.frames[i]
}

// NAtoms returns the smallest atom count of any frame, 0 for an empty trajectory.
func (t *Trajectory) NAtoms() int {
	if t.Len() == 0 {
		return 0
	}
	n := t.frames[0].NAtoms()
	for _, s := range t.frames[1:] {
		n = min(n, s.NAtoms())
	}
	return n
}

// Frames returns a copy of the frames.
func (t *Trajectory) Frames() []Snapshot {
	cp := make([]Snapshot, len(t.frames))
	copy(cp, t.frames)
	return cp
}

// Slice returns the sub-trajectory covering [begin, end], both inclusive.
func (t *Trajectory) Slice(begin, end int) (*Trajectory, error) {
	if begin < 0 || end >= t.Len() || end < begin {
		return nil, fmt.Errorf("slice [%d, %d] of trajectory with %d frames: out of range", begin, end, t.Len())
	}
	return New(t.frames[begin : end+1]), nil
}

// Concat joins trajectories in order into a new flattened trajectory.
func Concat(parts ...*Trajectory) *Trajectory {
	n := 0
	for _, p := range parts {
		n += p.Len()
	}
	frames := make([]Snapshot, 0, n)
	for _, p := range parts {
		if p == nil {
			continue
		}
		frames = append(frames, p.frames...)
	}
	return &Trajectory{id: uuid.New(), frames: frames}
}

// #endregion trajectory

// #region one-d
// OneD builds a single-atom trajectory whose x coordinate follows positions.
// Velocities are all 1.0 along x.
func OneD(positions []float64) *Trajectory {
	frames := make([]Snapshot, len(positions))
	for i, x := range positions {
		frames[i] = NewSnapshot(
			[][3]float64{{x, 0, 0}},
			[][3]float64{{1.0, 0, 0}},
		)
	}
	return New(frames)
}

// #endregion one-d
