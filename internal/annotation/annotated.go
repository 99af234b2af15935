package annotation

import (
	"fmt"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/dwhswenson/annotated-trajectories/internal/trajectory"
)

// Unassigned is the label of a frame no annotation covers.
const Unassigned = ""

// #region annotated-trajectory
// AnnotatedTrajectory holds a trajectory together with the annotations made on it.
// Every frame belongs to at most one label. The trajectory is shared and never modified.
//
// An AnnotatedTrajectory is not safe for concurrent mutation; queries may run
// concurrently with each other once annotation is finished.
type AnnotatedTrajectory struct {
	traj        *trajectory.Trajectory
	annotations map[Annotation]struct{}

	frameMap []string
	assigned *roaring.Bitmap
	segments map[string][]Range
	// labels in the order they were first annotated
	order []string
}

// New creates an AnnotatedTrajectory over traj and adds any initial annotations.
func New(traj *trajectory.Trajectory, anns ...Annotation) (*AnnotatedTrajectory, error) {
	if traj == nil {
		traj = trajectory.Empty()
	}
	at := &AnnotatedTrajectory{
		traj:        traj,
		annotations: make(map[Annotation]struct{}),
		frameMap:    make([]string, traj.Len()),
		assigned:    roaring.New(),
		segments:    make(map[string][]Range),
	}
	if len(anns) > 0 {
		if err := at.AddAnnotations(anns...); err != nil {
			return nil, err
		}
	}
	return at, nil
}

// #endregion annotated-trajectory

// #region add-annotations
// AddAnnotations assigns each annotation's frames to its state.
//
// The whole batch is checked before anything is applied: if any frame is
// already assigned (by an earlier call or by another annotation in the batch,
// including an identical annotation) an *OverlapError is returned and the
// store is left unchanged.
func (at *AnnotatedTrajectory) AddAnnotations(anns ...Annotation) error {
	n := at.traj.Len()
	claimed := make(map[int]string)
	for _, a := range anns {
		if err := a.Validate(n); err != nil {
			return err
		}
		for i := a.Begin; i <= a.End; i++ {
			if at.assigned.Contains(uint32(i)) {
				return &OverlapError{Frame: i, Existing: at.frameMap[i], Label: a.State}
			}
			if existing, ok := claimed[i]; ok {
				return &OverlapError{Frame: i, Existing: existing, Label: a.State}
			}
			claimed[i] = a.State
		}
	}

	for _, a := range anns {
		for i := a.Begin; i <= a.End; i++ {
			at.frameMap[i] = a.State
		}
		at.assigned.AddRange(uint64(a.Begin), uint64(a.End)+1)
		at.annotations[a] = struct{}{}
		if _, ok := at.segments[a.State]; !ok {
			at.order = append(at.order, a.State)
		}
		at.segments[a.State] = append(at.segments[a.State], Range{Begin: a.Begin, End: a.End})
	}
	return nil
}

// #endregion add-annotations

// #region accessors
// Trajectory returns the annotated trajectory.
func (at *AnnotatedTrajectory) Trajectory() *trajectory.Trajectory {
	return at.traj
}

// Len returns the number of frames.
func (at *AnnotatedTrajectory) Len() int {
	return len(at.frameMap)
}

// Annotations returns the distinct annotations sorted by begin frame.
func (at *AnnotatedTrajectory) Annotations() []Annotation {
	out := make([]Annotation, 0, len(at.annotations))
	for a := range at.annotations {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Begin != out[j].Begin {
			return out[i].Begin < out[j].Begin
		}
		if out[i].End != out[j].End {
			return out[i].End < out[j].End
		}
		return out[i].State < out[j].State
	})
	return out
}

// LabelForFrame returns the label of frame idx, or Unassigned.
func (at *AnnotatedTrajectory) LabelForFrame(idx int) (string, error) {
	if idx < 0 || idx >= len(at.frameMap) {
		return Unassigned, fmt.Errorf("%w: frame %d of %d", ErrFrameOutOfRange, idx, len(at.frameMap))
	}
	return at.frameMap[idx], nil
}

// StateNames returns the annotated labels in the order they were first added.
func (at *AnnotatedTrajectory) StateNames() []string {
	out := make([]string, len(at.order))
	copy(out, at.order)
	return out
}

// Ranges returns the ranges annotated with label, in insertion order.
func (at *AnnotatedTrajectory) Ranges(label string) []Range {
	rs := at.segments[label]
	out := make([]Range, len(rs))
	copy(out, rs)
	return out
}

// #endregion accessors
