package logging

import "time"

// #region validation-entry
// ValidationEntry is a single row in the validation_log table: the outcome
// of validating one proposed state during one run.
type ValidationEntry struct {
	RunID          string    `json:"run_id"`
	Tag            string    `json:"tag"`
	Label          string    `json:"label"`
	Correct        int       `json:"correct"`
	FalsePositive  int       `json:"false_positive"`
	FalseNegative  int       `json:"false_negative"`
	Conflicts      int       `json:"conflicts"`
	ConflictFrames []int     `json:"conflict_frames,omitempty"`
	Passed         bool      `json:"passed"`
	CreatedAt      time.Time `json:"created_at"`
}

// #endregion validation-entry
