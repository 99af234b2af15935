package scenario

import (
	"errors"
	"fmt"
	"slices"

	"github.com/dwhswenson/annotated-trajectories/internal/annotation"
	"github.com/dwhswenson/annotated-trajectories/internal/eval"
)

// #region types
// Outcome is what running a fixture through annotation and validation produced.
type Outcome struct {
	Err        error
	Store      *annotation.AnnotatedTrajectory
	Results    map[string]annotation.ValidationResult
	Conflicts  map[string][]int
	Unassigned []int
	Eval       *eval.EvalResult
}

// Mismatch is one difference between a fixture's expectation and its outcome.
type Mismatch struct {
	Label string // empty for fixture-wide fields
	Field string
	Want  string
	Got   string
}

func (m Mismatch) String() string {
	if m.Label == "" {
		return fmt.Sprintf("%s: want %s, got %s", m.Field, m.Want, m.Got)
	}
	return fmt.Sprintf("%s %s: want %s, got %s", m.Label, m.Field, m.Want, m.Got)
}

// Summary provides aggregate stats from a scenario run.
type Summary struct {
	Labels     int
	Correct    int
	FalsePos   int
	FalseNeg   int
	Conflicts  int
	Mismatches int
	Passed     bool
}

// #endregion types

// #region run
// Run builds the annotated trajectory from f, validates its states, and
// scores the result. Building or validation errors end up in Outcome.Err.
func Run(f *Fixture) Outcome {
	at, err := annotation.New(f.Trajectory(), f.Annotations...)
	if err != nil {
		return Outcome{Err: err}
	}
	out := Outcome{Store: at, Unassigned: at.Unassigned()}

	results, conflicts, err := at.ValidateStates(f.Volumes())
	if err != nil {
		out.Err = err
		return out
	}
	out.Results = results
	out.Conflicts = conflicts

	r := eval.NewEvalHarness(f.ToEvalConfig()).Run(results, conflicts)
	out.Eval = &r
	return out
}

// Compare lists every way out differs from what f expects.
func Compare(f *Fixture, out Outcome) []Mismatch {
	var diffs []Mismatch

	if got := errorKind(out.Err); got != f.ExpectedError {
		diffs = append(diffs, Mismatch{Field: "error", Want: quoted(f.ExpectedError), Got: describeErr(out.Err)})
	}
	if out.Err != nil {
		return diffs
	}

	if !slices.Equal(f.Unassigned, out.Unassigned) {
		diffs = append(diffs, Mismatch{Field: "unassigned", Want: fmt.Sprint(f.Unassigned), Got: fmt.Sprint(out.Unassigned)})
	}

	for _, label := range f.Labels() {
		want := f.Expected[label]
		got, ok := out.Results[label]
		if !ok {
			diffs = append(diffs, Mismatch{Label: label, Field: "result", Want: "present", Got: "missing"})
			continue
		}
		diffs = appendIdxs(diffs, label, "correct", want.Correct, got.CorrectIdxs)
		diffs = appendIdxs(diffs, label, "false_positive", want.FalsePositive, got.FalsePositiveIdxs)
		diffs = appendIdxs(diffs, label, "false_negative", want.FalseNegative, got.FalseNegativeIdxs)
		diffs = appendIdxs(diffs, label, "conflicts", want.Conflicts, out.Conflicts[label])

		if want.Passed != nil && out.Eval != nil && out.Eval.Labels[label] != *want.Passed {
			diffs = append(diffs, Mismatch{
				Label: label,
				Field: "passed",
				Want:  fmt.Sprint(*want.Passed),
				Got:   fmt.Sprint(out.Eval.Labels[label]),
			})
		}
	}
	return diffs
}

// Summarize computes aggregate stats from an outcome and its mismatches.
func Summarize(out Outcome, diffs []Mismatch) Summary {
	s := Summary{
		Labels:     len(out.Results),
		Mismatches: len(diffs),
		Passed:     len(diffs) == 0,
	}
	for label, r := range out.Results {
		s.Correct += len(r.CorrectIdxs)
		s.FalsePos += len(r.FalsePositiveIdxs)
		s.FalseNeg += len(r.FalseNegativeIdxs)
		s.Conflicts += len(out.Conflicts[label])
	}
	return s
}

// #endregion run

// #region helpers
func appendIdxs(diffs []Mismatch, label, field string, want, got []int) []Mismatch {
	if slices.Equal(want, got) {
		return diffs
	}
	return append(diffs, Mismatch{Label: label, Field: field, Want: fmt.Sprint(want), Got: fmt.Sprint(got)})
}

func errorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, annotation.ErrOverlap):
		return "overlap"
	case errors.Is(err, annotation.ErrLabelMismatch):
		return "label_mismatch"
	default:
		return "other"
	}
}

func describeErr(err error) string {
	if err == nil {
		return `""`
	}
	return fmt.Sprintf("%q (%v)", errorKind(err), err)
}

func quoted(s string) string {
	return fmt.Sprintf("%q", s)
}

// #endregion helpers
