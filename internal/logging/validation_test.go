package logging

import (
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/dwhswenson/annotated-trajectories/internal/annotation"
)

// #region helpers
func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	_, err = db.Exec(`CREATE TABLE validation_log (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id          TEXT NOT NULL,
		tag             TEXT NOT NULL,
		label           TEXT NOT NULL,
		correct         INTEGER NOT NULL,
		false_positive  INTEGER NOT NULL,
		false_negative  INTEGER NOT NULL,
		conflicts       INTEGER NOT NULL,
		conflict_frames TEXT,
		passed          INTEGER NOT NULL,
		created_at      TEXT NOT NULL
	)`)
	if err != nil {
		t.Fatalf("create table: %v", err)
	}
	return db
}

// #endregion helpers

// #region log-validation-tests
func TestLogValidation_Success(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	entry := ValidationEntry{
		RunID:          "run-1",
		Tag:            "traj1",
		Label:          "2-digit",
		Correct:        5,
		FalsePositive:  1,
		Conflicts:      1,
		ConflictFrames: []int{5},
		Passed:         false,
		CreatedAt:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := LogValidation(db, entry); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var count int
	db.QueryRow("SELECT COUNT(*) FROM validation_log").Scan(&count)
	if count != 1 {
		t.Errorf("expected 1 row, got %d", count)
	}

	var label, frames string
	var passed int
	db.QueryRow("SELECT label, conflict_frames, passed FROM validation_log").Scan(&label, &frames, &passed)
	if label != "2-digit" {
		t.Errorf("expected label '2-digit', got %q", label)
	}
	if frames != "[5]" {
		t.Errorf("expected conflict_frames '[5]', got %q", frames)
	}
	if passed != 0 {
		t.Errorf("expected passed 0, got %d", passed)
	}
}

func TestLogValidation_NoConflictsIsNull(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	if err := LogValidation(db, ValidationEntry{RunID: "r", Tag: "t", Label: "l", Passed: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var frames sql.NullString
	var createdStr string
	db.QueryRow("SELECT conflict_frames, created_at FROM validation_log").Scan(&frames, &createdStr)
	if frames.Valid {
		t.Error("expected NULL conflict_frames")
	}
	if _, err := time.Parse(time.RFC3339Nano, createdStr); err != nil {
		t.Errorf("expected auto-filled created_at, got %q", createdStr)
	}
}

func TestLogValidation_Error(t *testing.T) {
	db := setupDB(t)
	db.Close()

	if err := LogValidation(db, ValidationEntry{RunID: "r", Tag: "t", Label: "l"}); err == nil {
		t.Fatal("expected error on closed db")
	}
}

// #endregion log-validation-tests

// #region run-tests
func TestLogRunAndHistory(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	results := map[string]annotation.ValidationResult{
		"1-digit": {CorrectIdxs: []int{1, 2, 3, 4}, FalseNegativeIdxs: []int{5}},
		"2-digit": {CorrectIdxs: []int{6, 7, 8, 11, 12}, FalsePositiveIdxs: []int{5}},
	}
	conflicts := map[string][]int{"1-digit": {}, "2-digit": {5}}

	runID, err := LogRun(db, "traj1", results, conflicts, map[string]bool{"2-digit": false})
	if err != nil {
		t.Fatalf("LogRun: %v", err)
	}
	if runID == "" {
		t.Fatal("expected run ID")
	}

	entries, err := History(db, "traj1", 10)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	// newest first: labels are written sorted, so 2-digit is last written
	e := entries[0]
	if e.Label != "2-digit" || e.RunID != runID {
		t.Fatalf("unexpected first entry: %+v", e)
	}
	if e.Passed {
		t.Error("expected 2-digit to be logged as failed")
	}
	if len(e.ConflictFrames) != 1 || e.ConflictFrames[0] != 5 {
		t.Errorf("expected conflict frames [5], got %v", e.ConflictFrames)
	}
	if e.Correct != 5 || e.FalsePositive != 1 || e.Conflicts != 1 {
		t.Errorf("unexpected counts: %+v", e)
	}

	if !entries[1].Passed {
		t.Error("expected 1-digit without an outcome to be logged as passed")
	}
	if entries[1].FalseNegative != 1 {
		t.Errorf("expected 1 false negative, got %d", entries[1].FalseNegative)
	}

	other, err := History(db, "other", 10)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("expected no entries for other tag, got %d", len(other))
	}
}

func TestLogRun_Error(t *testing.T) {
	db := setupDB(t)
	db.Close()

	results := map[string]annotation.ValidationResult{"a": {}}
	if _, err := LogRun(db, "t", results, nil, nil); err == nil {
		t.Fatal("expected error on closed db")
	}
}

func TestHistory_BadConflictFrames(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	db.Exec(`INSERT INTO validation_log (run_id, tag, label, correct, false_positive, false_negative, conflicts, conflict_frames, passed, created_at)
		VALUES ('r', 't', 'l', 0, 0, 0, 0, 'not-json', 1, '2026-01-01T00:00:00Z')`)

	if _, err := History(db, "t", 10); err == nil {
		t.Fatal("expected unmarshal error")
	}
}

func TestHistory_Error(t *testing.T) {
	db := setupDB(t)
	db.Close()

	if _, err := History(db, "t", 10); err == nil {
		t.Fatal("expected error on closed db")
	}
}

func TestBoolToInt(t *testing.T) {
	if boolToInt(true) != 1 || boolToInt(false) != 0 {
		t.Fatal("unexpected boolToInt result")
	}
}

// #endregion run-tests
