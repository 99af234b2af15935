package annotation

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/dwhswenson/annotated-trajectories/internal/trajectory"
)

// #region segment-idxs
// SegmentIdxs returns the frame indices of each segment annotated with label,
// one list per annotation in insertion order. Unknown labels give an empty result.
func (at *AnnotatedTrajectory) SegmentIdxs(label string) [][]int {
	ranges := at.segments[label]
	out := make([][]int, 0, len(ranges))
	for _, r := range ranges {
		out = append(out, r.Idxs())
	}
	return out
}

// #endregion segment-idxs

// #region segments
// Segments returns the sub-trajectory of each segment annotated with label,
// parallel to SegmentIdxs.
func (at *AnnotatedTrajectory) Segments(label string) []*trajectory.Trajectory {
	ranges := at.segments[label]
	out := make([]*trajectory.Trajectory, 0, len(ranges))
	for _, r := range ranges {
		out = append(out, trajectory.New(at.frames(r.Idxs())))
	}
	return out
}

// AllFrames returns every frame annotated with label as one flattened trajectory.
func (at *AnnotatedTrajectory) AllFrames(label string) *trajectory.Trajectory {
	return trajectory.Concat(at.Segments(label)...)
}

// #endregion segments

// #region unassigned
// Unassigned returns the indices of frames no annotation covers, ascending.
func (at *AnnotatedTrajectory) Unassigned() []int {
	return toInts(roaring.Flip(at.assigned, 0, uint64(at.Len())))
}

// #endregion unassigned
