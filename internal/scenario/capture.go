package scenario

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dwhswenson/annotated-trajectories/internal/annotation"
	"github.com/dwhswenson/annotated-trajectories/internal/eval"
)

// #region capture

// Capture turns a single-atom annotated trajectory and a set of x-range states
// into a fixture whose expectations are whatever validating them produces
// today. The result is a regression baseline: replaying it passes until the
// annotation or validation behavior changes.
func Capture(description string, at *annotation.AnnotatedTrajectory, states map[string]FixtureState, config eval.EvalConfig) (*Fixture, error) {
	traj := at.Trajectory()
	positions := make([]float64, traj.Len())
	for i := range positions {
		s := traj.At(i)
		if s.NAtoms() != 1 {
			return nil, fmt.Errorf("capture: frame %d has %d atoms, fixtures hold 1-D single-atom trajectories", i, s.NAtoms())
		}
		positions[i] = s.Coordinates[0][0]
	}

	f := &Fixture{
		Description: description,
		Positions:   positions,
		Annotations: at.Annotations(),
		States:      states,
		EvalConfig: &FixtureEvalConfig{
			MinPrecision: config.MinPrecision,
			MinRecall:    config.MinRecall,
			MaxConflicts: config.MaxConflicts,
		},
		Expected: map[string]FixtureExpected{},
	}

	out := Run(f)
	f.ExpectedError = errorKind(out.Err)
	if f.ExpectedError == "other" {
		return nil, fmt.Errorf("capture: %w", out.Err)
	}
	if out.Err != nil {
		return f, nil
	}

	f.Unassigned = out.Unassigned
	for label, r := range out.Results {
		passed := out.Eval.Labels[label]
		f.Expected[label] = FixtureExpected{
			Correct:       r.CorrectIdxs,
			FalsePositive: r.FalsePositiveIdxs,
			FalseNegative: r.FalseNegativeIdxs,
			Conflicts:     out.Conflicts[label],
			Passed:        &passed,
		}
	}
	return f, nil
}

// WriteFixture writes f as indented JSON.
func WriteFixture(f *Fixture, path string) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// #endregion capture
