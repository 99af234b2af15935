package scenario

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/dwhswenson/annotated-trajectories/internal/annotation"
	"github.com/dwhswenson/annotated-trajectories/internal/eval"
	"github.com/dwhswenson/annotated-trajectories/internal/trajectory"
	"github.com/dwhswenson/annotated-trajectories/internal/volume"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a scenario fixture: a 1-D
// trajectory, its annotations, proposed state ranges on x, and what
// validating them should produce.
type Fixture struct {
	Description   string                     `json:"description"`
	Positions     []float64                  `json:"positions"`
	Annotations   []annotation.Annotation    `json:"annotations"`
	States        map[string]FixtureState    `json:"states"`
	EvalConfig    *FixtureEvalConfig         `json:"eval_config,omitempty"`
	Expected      map[string]FixtureExpected `json:"expected"`
	Unassigned    []int                      `json:"unassigned"`
	ExpectedError string                     `json:"expected_error,omitempty"` // "" | "overlap" | "label_mismatch"
}

// FixtureState is a proposed state as a half-open range on the x coordinate.
// A state with Empty set never contains any frame.
type FixtureState struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Empty bool    `json:"empty,omitempty"`
}

// FixtureExpected holds the expected frame indices for one label.
type FixtureExpected struct {
	Correct       []int `json:"correct"`
	FalsePositive []int `json:"false_positive"`
	FalseNegative []int `json:"false_negative"`
	Conflicts     []int `json:"conflicts"`
	Passed        *bool `json:"passed,omitempty"`
}

// FixtureEvalConfig mirrors eval.EvalConfig with JSON tags.
type FixtureEvalConfig struct {
	MinPrecision float64 `json:"min_precision"`
	MinRecall    float64 `json:"min_recall"`
	MaxConflicts int     `json:"max_conflicts"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// Trajectory builds the fixture's 1-D trajectory.
func (f *Fixture) Trajectory() *trajectory.Trajectory {
	return trajectory.OneD(f.Positions)
}

// Volumes converts the fixture states to volumes on the x coordinate of atom 0.
func (f *Fixture) Volumes() map[string]volume.Volume {
	x := volume.Coordinate("x", 0, 0)
	out := make(map[string]volume.Volume, len(f.States))
	for label, s := range f.States {
		if s.Empty {
			out[label] = volume.Empty{}
			continue
		}
		out[label] = volume.CVRange{CV: x, Min: s.Min, Max: s.Max}
	}
	return out
}

// ToEvalConfig returns the fixture thresholds, or the defaults when the
// fixture has none.
func (f *Fixture) ToEvalConfig() eval.EvalConfig {
	if f.EvalConfig == nil {
		return eval.DefaultEvalConfig()
	}
	return eval.EvalConfig{
		MinPrecision: f.EvalConfig.MinPrecision,
		MinRecall:    f.EvalConfig.MinRecall,
		MaxConflicts: f.EvalConfig.MaxConflicts,
	}
}

// Labels returns the expected labels in sorted order.
func (f *Fixture) Labels() []string {
	labels := make([]string, 0, len(f.Expected))
	for l := range f.Expected {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}

// #endregion fixture-loader
