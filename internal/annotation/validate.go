package annotation

import (
	"sort"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/dwhswenson/annotated-trajectories/internal/trajectory"
	"github.com/dwhswenson/annotated-trajectories/internal/volume"
)

// #region validate-states
// ValidateStates compares proposed state volumes against the annotations.
//
// The labels of volumes must be exactly the annotated labels; otherwise a
// *LabelMismatchError is returned before any frame is evaluated. A nil
// interface value counts as missing. A typed nil is called like any other
// volume, so it must be safe to call (volume.Membership is).
//
// For each label it returns the correct, false positive and false negative
// frames, and the conflicts: false positive frames that carry a different
// annotated label (as opposed to unassigned frames).
func (at *AnnotatedTrajectory) ValidateStates(volumes map[string]volume.Volume) (map[string]ValidationResult, map[string][]int, error) {
	if err := at.checkLabels(volumes); err != nil {
		return nil, nil, err
	}

	results := make(map[string]ValidationResult, len(at.order))
	conflicts := make(map[string][]int, len(at.order))
	for _, label := range at.order {
		correct, falsePos, falseNeg := at.validationIdxs(volumes[label], at.segments[label])

		res := ValidationResult{
			CorrectIdxs:       toInts(correct),
			FalsePositiveIdxs: toInts(falsePos),
			FalseNegativeIdxs: toInts(falseNeg),
		}
		res.Correct = at.frames(res.CorrectIdxs)
		res.FalsePositive = at.frames(res.FalsePositiveIdxs)
		res.FalseNegative = at.frames(res.FalseNegativeIdxs)
		results[label] = res

		conflicted := make([]int, 0)
		for _, i := range res.FalsePositiveIdxs {
			if at.frameMap[i] != Unassigned {
				conflicted = append(conflicted, i)
			}
		}
		conflicts[label] = conflicted
	}
	return results, conflicts, nil
}

// checkLabels requires the proposed labels to equal the annotated labels.
func (at *AnnotatedTrajectory) checkLabels(volumes map[string]volume.Volume) error {
	var missing, unexpected []string
	for _, label := range at.order {
		if v, ok := volumes[label]; !ok || v == nil {
			missing = append(missing, label)
		}
	}
	for label := range volumes {
		if _, ok := at.segments[label]; !ok {
			unexpected = append(unexpected, label)
		}
	}
	if len(missing) > 0 {
		return &LabelMismatchError{Kind: MissingProposed, Labels: missing}
	}
	if len(unexpected) > 0 {
		sort.Strings(unexpected)
		return &LabelMismatchError{Kind: UnexpectedProposed, Labels: unexpected}
	}
	return nil
}

// #endregion validate-states

// #region validation-idxs
// validationIdxs returns the correct, false positive and false negative frame
// sets for one proposed volume against the ranges annotated for its state.
func (at *AnnotatedTrajectory) validationIdxs(vol volume.Volume, ranges []Range) (correct, falsePos, falseNeg *roaring.Bitmap) {
	expected := roaring.New()
	for _, r := range ranges {
		expected.AddRange(uint64(r.Begin), uint64(r.End)+1)
	}

	observed := roaring.New()
	for i := 0; i < at.traj.Len(); i++ {
		if vol.Contains(at.traj.At(i)) {
			observed.Add(uint32(i))
		}
	}

	correct = roaring.And(expected, observed)
	falsePos = roaring.AndNot(observed, expected)
	falseNeg = roaring.AndNot(expected, observed)
	return correct, falsePos, falseNeg
}

func toInts(bm *roaring.Bitmap) []int {
	out := make([]int, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		out = append(out, int(it.Next()))
	}
	return out
}

func (at *AnnotatedTrajectory) frames(idxs []int) []trajectory.Snapshot {
	out := make([]trajectory.Snapshot, len(idxs))
	for k, i := range idxs {
		out[k] = at.traj.At(i)
	}
	return out
}

// #endregion validation-idxs
