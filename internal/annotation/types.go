package annotation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dwhswenson/annotated-trajectories/internal/trajectory"
)

// #region annotation
// Annotation labels the frames [Begin, End] (inclusive) of one trajectory as State.
// Annotations compare by value and can be used as map keys.
type Annotation struct {
	State string
	Begin int
	End   int
}

// Validate checks the annotation against a trajectory of n frames.
func (a Annotation) Validate(n int) error {
	if a.State == Unassigned {
		return fmt.Errorf("%w: empty state label", ErrInvalidAnnotation)
	}
	if a.Begin < 0 || a.End < a.Begin {
		return fmt.Errorf("%w: %s has begin %d, end %d", ErrInvalidAnnotation, a, a.Begin, a.End)
	}
	if a.End >= n {
		return fmt.Errorf("%w: %s ends at frame %d of %d", ErrFrameOutOfRange, a, a.End, n)
	}
	return nil
}

// Len returns the number of frames covered.
func (a Annotation) Len() int {
	return a.End - a.Begin + 1
}

func (a Annotation) String() string {
	return fmt.Sprintf("%s[%d:%d]", a.State, a.Begin, a.End)
}

// MarshalJSON encodes the annotation as a [state, begin, end] triple.
func (a Annotation) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{a.State, a.Begin, a.End})
}

// UnmarshalJSON decodes a [state, begin, end] triple.
func (a *Annotation) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("annotation: %w", err)
	}
	if len(raw) != 3 {
		return fmt.Errorf("annotation: expected [state, begin, end], got %d elements", len(raw))
	}
	var out Annotation
	if err := json.Unmarshal(raw[0], &out.State); err != nil {
		return fmt.Errorf("annotation state: %w", err)
	}
	if err := json.Unmarshal(raw[1], &out.Begin); err != nil {
		return fmt.Errorf("annotation begin: %w", err)
	}
	if err := json.Unmarshal(raw[2], &out.End); err != nil {
		return fmt.Errorf("annotation end: %w", err)
	}
	*a = out
	return nil
}

// #endregion annotation

// #region range
// Range is an inclusive [Begin, End] frame range contributed by one annotation.
type Range struct {
	Begin int `json:"begin"`
	End   int `json:"end"`
}

// Idxs expands the range into its frame indices.
func (r Range) Idxs() []int {
	out := make([]int, 0, r.End-r.Begin+1)
	for i := r.Begin; i <= r.End; i++ {
		out = append(out, i)
	}
	return out
}

// #endregion range

// #region validation-result
// ValidationResult compares one proposed state against the annotations.
// Frames and indices are in ascending frame order.
type ValidationResult struct {
	// Correct frames are in the state according to both the annotations and the volume.
	Correct []trajectory.Snapshot
	// FalsePositive frames are in the volume but not annotated with the state.
	FalsePositive []trajectory.Snapshot
	// FalseNegative frames are annotated with the state but not in the volume.
	FalseNegative []trajectory.Snapshot

	CorrectIdxs       []int
	FalsePositiveIdxs []int
	FalseNegativeIdxs []int
}

func (r ValidationResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Correct: %d\n", len(r.Correct))
	fmt.Fprintf(&b, "False positive: %d\n", len(r.FalsePositive))
	fmt.Fprintf(&b, "False negative: %d", len(r.FalseNegative))
	return b.String()
}

// #endregion validation-result
