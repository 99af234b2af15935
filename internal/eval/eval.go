package eval

import (
	"fmt"
	"sort"

	"github.com/dwhswenson/annotated-trajectories/internal/annotation"
)

// #region eval-harness
// EvalHarness decides whether validated state definitions are good enough to use.
type EvalHarness struct {
	config EvalConfig
}

// NewEvalHarness creates an eval harness with the given configuration.
func NewEvalHarness(config EvalConfig) *EvalHarness {
	return &EvalHarness{config: config}
}

// Run scores every label in results. Labels are checked in sorted order.
func (h *EvalHarness) Run(results map[string]annotation.ValidationResult, conflicts map[string][]int) EvalResult {
	labels := make([]string, 0, len(results))
	for l := range results {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	var metrics []EvalMetric
	var failReasons []string
	perLabel := make(map[string]bool, len(labels))

	for _, label := range labels {
		r := results[label]
		correct := len(r.CorrectIdxs)
		labelPass := true

		// 1. Precision: how much of the volume is annotated with the label
		precision := ratio(correct, correct+len(r.FalsePositiveIdxs))
		precisionPass := precision >= h.config.MinPrecision
		metrics = append(metrics, EvalMetric{Label: label, Name: "precision", Value: precision, Pass: precisionPass})
		if !precisionPass {
			labelPass = false
			failReasons = append(failReasons, fmt.Sprintf("%s precision %.4f below %.4f", label, precision, h.config.MinPrecision))
		}

		// 2. Recall: how much of the annotation the volume finds
		recall := ratio(correct, correct+len(r.FalseNegativeIdxs))
		recallPass := recall >= h.config.MinRecall
		metrics = append(metrics, EvalMetric{Label: label, Name: "recall", Value: recall, Pass: recallPass})
		if !recallPass {
			labelPass = false
			failReasons = append(failReasons, fmt.Sprintf("%s recall %.4f below %.4f", label, recall, h.config.MinRecall))
		}

		// 3. Conflicts with frames annotated as another state
		n := len(conflicts[label])
		conflictPass := h.config.MaxConflicts < 0 || n <= h.config.MaxConflicts
		metrics = append(metrics, EvalMetric{Label: label, Name: "conflicts", Value: float64(n), Pass: conflictPass})
		if !conflictPass {
			labelPass = false
			failReasons = append(failReasons, fmt.Sprintf("%s has %d conflicting frames, max %d", label, n, h.config.MaxConflicts))
		}

		perLabel[label] = labelPass
	}

	reason := "all checks passed"
	if len(failReasons) == 1 {
		reason = fmt.Sprintf("eval failed: %s", failReasons[0])
	} else if len(failReasons) > 1 {
		reason = fmt.Sprintf("eval failed: %d checks: %s", len(failReasons), failReasons[0])
	}

	return EvalResult{
		Passed:  len(failReasons) == 0,
		Labels:  perLabel,
		Metrics: metrics,
		Reason:  reason,
	}
}

// #endregion eval-harness

// #region helpers
// ratio returns num/den, or 1 when there is nothing to measure.
func ratio(num, den int) float64 {
	if den == 0 {
		return 1
	}
	return float64(num) / float64(den)
}

// #endregion helpers
