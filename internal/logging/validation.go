package logging

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/dwhswenson/annotated-trajectories/internal/annotation"
)

// #region log-validation
// LogValidation writes one entry to the validation_log table.
func LogValidation(db *sql.DB, entry ValidationEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	var frames interface{}
	if len(entry.ConflictFrames) > 0 {
		data, err := json.Marshal(entry.ConflictFrames)
		if err != nil {
			return fmt.Errorf("marshal conflict frames: %w", err)
		}
		frames = string(data)
	}

	_, err := db.Exec(
		`INSERT INTO validation_log (run_id, tag, label, correct, false_positive, false_negative, conflicts, conflict_frames, passed, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.RunID,
		entry.Tag,
		entry.Label,
		entry.Correct,
		entry.FalsePositive,
		entry.FalseNegative,
		entry.Conflicts,
		frames,
		boolToInt(entry.Passed),
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log validation: %w", err)
	}
	return nil
}

// LogRun writes one entry per label for a validation run and returns the run ID.
// passed maps label to its acceptance outcome; labels absent from it are logged as passed.
func LogRun(db *sql.DB, tag string, results map[string]annotation.ValidationResult, conflicts map[string][]int, passed map[string]bool) (string, error) {
	runID := uuid.New().String()
	now := time.Now().UTC()

	labels := make([]string, 0, len(results))
	for l := range results {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	for _, label := range labels {
		r := results[label]
		ok, found := passed[label]
		if !found {
			ok = true
		}
		err := LogValidation(db, ValidationEntry{
			RunID:          runID,
			Tag:            tag,
			Label:          label,
			Correct:        len(r.CorrectIdxs),
			FalsePositive:  len(r.FalsePositiveIdxs),
			FalseNegative:  len(r.FalseNegativeIdxs),
			Conflicts:      len(conflicts[label]),
			ConflictFrames: conflicts[label],
			Passed:         ok,
			CreatedAt:      now,
		})
		if err != nil {
			return "", err
		}
	}
	return runID, nil
}

// #endregion log-validation

// #region history
// History returns the most recent validation entries for tag, newest first.
func History(db *sql.DB, tag string, limit int) ([]ValidationEntry, error) {
	rows, err := db.Query(
		`SELECT run_id, tag, label, correct, false_positive, false_negative, conflicts, conflict_frames, passed, created_at
		 FROM validation_log WHERE tag = ? ORDER BY id DESC LIMIT ?`, tag, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []ValidationEntry
	for rows.Next() {
		var e ValidationEntry
		var frames sql.NullString
		var passed int
		var createdStr string
		if err := rows.Scan(&e.RunID, &e.Tag, &e.Label, &e.Correct, &e.FalsePositive, &e.FalseNegative,
			&e.Conflicts, &frames, &passed, &createdStr); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if frames.Valid {
			if err := json.Unmarshal([]byte(frames.String), &e.ConflictFrames); err != nil {
				return nil, fmt.Errorf("unmarshal conflict frames: %w", err)
			}
		}
		e.Passed = passed != 0
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// #endregion history

// #region helpers
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// #endregion helpers
