package annotation

import (
	"errors"
	"fmt"
	"strings"
)

// #region sentinels
var (
	// ErrOverlap matches any OverlapError.
	ErrOverlap = errors.New("frame already assigned")
	// ErrLabelMismatch matches any LabelMismatchError.
	ErrLabelMismatch = errors.New("proposed states do not match annotated states")
	// ErrFrameOutOfRange is returned for frame indices outside the trajectory.
	ErrFrameOutOfRange = errors.New("frame index out of range")
	// ErrInvalidAnnotation is returned for malformed annotations.
	ErrInvalidAnnotation = errors.New("invalid annotation")
)

// #endregion sentinels

// #region overlap-error
// OverlapError reports an attempt to assign a frame that already carries a label.
type OverlapError struct {
	Frame    int
	Existing string
	Label    string
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("cannot assign frame %d to %q: already assigned to %q", e.Frame, e.Label, e.Existing)
}

// Is makes errors.Is(err, ErrOverlap) true.
func (e *OverlapError) Is(target error) bool {
	return target == ErrOverlap
}

// #endregion overlap-error

// #region label-mismatch-error
// MismatchKind says which side of the label comparison failed.
type MismatchKind int

const (
	// MissingProposed: annotated labels with no proposed state.
	MissingProposed MismatchKind = iota
	// UnexpectedProposed: proposed states with no annotations.
	UnexpectedProposed
)

// LabelMismatchError reports labels present on only one side of a validation.
type LabelMismatchError struct {
	Kind   MismatchKind
	Labels []string
}

func (e *LabelMismatchError) Error() string {
	quoted := make([]string, len(e.Labels))
	for i, l := range e.Labels {
		quoted[i] = fmt.Sprintf("%q", l)
	}
	list := strings.Join(quoted, ", ")
	if e.Kind == MissingProposed {
		return "annotation labels have no proposed state: " + list
	}
	return "proposed states have no annotations: " + list
}

// Is makes errors.Is(err, ErrLabelMismatch) true.
func (e *LabelMismatchError) Is(target error) bool {
	return target == ErrLabelMismatch
}

// #endregion label-mismatch-error
