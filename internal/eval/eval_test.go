package eval

import (
	"strings"
	"testing"

	"github.com/dwhswenson/annotated-trajectories/internal/annotation"
)

// digitResults mirrors validating the digit-count states after frame 5 was
// annotated 1-digit: 1-digit misses frame 5, 2-digit picks it up as a conflict.
func digitResults() (map[string]annotation.ValidationResult, map[string][]int) {
	results := map[string]annotation.ValidationResult{
		"1-digit": {CorrectIdxs: []int{1, 2, 3, 4}, FalseNegativeIdxs: []int{5}},
		"2-digit": {CorrectIdxs: []int{6, 7, 8, 11, 12}, FalsePositiveIdxs: []int{5}},
		"3-digit": {CorrectIdxs: []int{10}, FalsePositiveIdxs: []int{9}},
	}
	conflicts := map[string][]int{"1-digit": {}, "2-digit": {5}, "3-digit": {}}
	return results, conflicts
}

func metric(t *testing.T, r EvalResult, label, name string) EvalMetric {
	t.Helper()
	for _, m := range r.Metrics {
		if m.Label == label && m.Name == name {
			return m
		}
	}
	t.Fatalf("no %s metric for %s", name, label)
	return EvalMetric{}
}

func TestEvalPassesWithoutThresholds(t *testing.T) {
	config := DefaultEvalConfig()
	config.MaxConflicts = -1
	h := NewEvalHarness(config)

	results, conflicts := digitResults()
	r := h.Run(results, conflicts)

	if !r.Passed {
		t.Fatalf("expected pass, got fail: %s", r.Reason)
	}
	if r.Reason != "all checks passed" {
		t.Fatalf("unexpected reason %q", r.Reason)
	}
}

func TestEvalMetricCount(t *testing.T) {
	h := NewEvalHarness(DefaultEvalConfig())
	results, conflicts := digitResults()

	r := h.Run(results, conflicts)

	// precision + recall + conflicts per label
	if len(r.Metrics) != 9 {
		t.Fatalf("expected 9 metrics, got %d", len(r.Metrics))
	}
	if r.Metrics[0].Label != "1-digit" {
		t.Fatalf("expected labels in sorted order, first is %s", r.Metrics[0].Label)
	}
}

func TestEvalMetricValues(t *testing.T) {
	h := NewEvalHarness(DefaultEvalConfig())
	results, conflicts := digitResults()

	r := h.Run(results, conflicts)

	if m := metric(t, r, "1-digit", "recall"); m.Value != 0.8 {
		t.Errorf("expected 1-digit recall 0.8, got %f", m.Value)
	}
	if m := metric(t, r, "1-digit", "precision"); m.Value != 1 {
		t.Errorf("expected 1-digit precision 1, got %f", m.Value)
	}
	if m := metric(t, r, "3-digit", "precision"); m.Value != 0.5 {
		t.Errorf("expected 3-digit precision 0.5, got %f", m.Value)
	}
	if m := metric(t, r, "2-digit", "conflicts"); m.Value != 1 || m.Pass {
		t.Errorf("expected failing 2-digit conflict metric of 1, got %+v", m)
	}
}

func TestEvalFailsOnConflicts(t *testing.T) {
	h := NewEvalHarness(DefaultEvalConfig())
	results, conflicts := digitResults()

	r := h.Run(results, conflicts)

	if r.Passed {
		t.Fatal("expected fail on conflicting frame")
	}
	if r.Labels["2-digit"] {
		t.Error("expected 2-digit to fail")
	}
	if !r.Labels["1-digit"] || !r.Labels["3-digit"] {
		t.Errorf("expected other labels to pass: %v", r.Labels)
	}
	if !strings.Contains(r.Reason, "2-digit has 1 conflicting frames") {
		t.Errorf("unexpected reason %q", r.Reason)
	}
}

func TestEvalFailsOnPrecisionAndRecall(t *testing.T) {
	h := NewEvalHarness(EvalConfig{MinPrecision: 0.9, MinRecall: 0.9, MaxConflicts: -1})
	results, conflicts := digitResults()

	r := h.Run(results, conflicts)

	if r.Passed {
		t.Fatal("expected fail")
	}
	// 1-digit recall 0.8, 2-digit precision 5/6, 3-digit precision 0.5
	if !strings.HasPrefix(r.Reason, "eval failed: 3 checks:") {
		t.Errorf("unexpected reason %q", r.Reason)
	}
}

func TestEvalEmptyResults(t *testing.T) {
	h := NewEvalHarness(DefaultEvalConfig())

	r := h.Run(nil, nil)

	if !r.Passed || len(r.Metrics) != 0 {
		t.Fatalf("expected empty pass, got %+v", r)
	}
}

func TestRatioNothingToMeasure(t *testing.T) {
	if ratio(0, 0) != 1 {
		t.Fatal("expected ratio of empty sets to be 1")
	}
}
