package eval

// #region eval-config
// EvalConfig holds acceptance thresholds for a proposed state definition.
type EvalConfig struct {
	MinPrecision float64 // fail if correct/(correct+false positive) is lower
	MinRecall    float64 // fail if correct/(correct+false negative) is lower
	MaxConflicts int     // fail if more frames conflict with another label; negative disables
}

// DefaultEvalConfig accepts any definition without conflicts.
func DefaultEvalConfig() EvalConfig {
	return EvalConfig{
		MinPrecision: 0,
		MinRecall:    0,
		MaxConflicts: 0,
	}
}

// #endregion eval-config

// #region eval-metric
// EvalMetric captures a single check on one label.
type EvalMetric struct {
	Label string
	Name  string
	Value float64
	Pass  bool
}

// #endregion eval-metric

// #region eval-result
// EvalResult is the outcome of checking every label of one validation.
type EvalResult struct {
	Passed  bool
	Labels  map[string]bool
	Metrics []EvalMetric
	Reason  string
}

// #endregion eval-result
