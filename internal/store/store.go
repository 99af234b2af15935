package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/dwhswenson/annotated-trajectories/internal/annotation"
	"github.com/dwhswenson/annotated-trajectories/internal/trajectory"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS trajectories (
	trajectory_id TEXT PRIMARY KEY,
	n_frames      INTEGER NOT NULL,
	frames        BLOB NOT NULL,
	created_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS annotated_trajectories (
	annotated_id  TEXT PRIMARY KEY,
	trajectory_id TEXT NOT NULL,
	created_at    TEXT NOT NULL,
	FOREIGN KEY (trajectory_id) REFERENCES trajectories(trajectory_id)
);

CREATE TABLE IF NOT EXISTS annotations (
	annotated_id  TEXT NOT NULL,
	state         TEXT NOT NULL,
	begin_frame   INTEGER NOT NULL,
	end_frame     INTEGER NOT NULL,
	PRIMARY KEY (annotated_id, state, begin_frame, end_frame),
	FOREIGN KEY (annotated_id) REFERENCES annotated_trajectories(annotated_id)
);

CREATE TABLE IF NOT EXISTS tags (
	name          TEXT PRIMARY KEY,
	annotated_id  TEXT NOT NULL,
	created_at    TEXT NOT NULL,
	FOREIGN KEY (annotated_id) REFERENCES annotated_trajectories(annotated_id)
);

CREATE TABLE IF NOT EXISTS validation_log (
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
);
`

// #endregion schema

// #region errors
var (
	// ErrTagExists is returned when saving under a tag that is already taken.
	ErrTagExists = errors.New("tag already exists")
	// ErrTagNotFound is returned when loading a tag that was never saved.
	ErrTagNotFound = errors.New("tag not found")
)

// #endregion errors

// #region store-struct
// Store persists annotated trajectories in SQLite under string tags.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db, logger: slog.Default()}, nil
}

// NewStoreWithDB wraps an already-open database. The schema is not created.
func NewStoreWithDB(db *sql.DB) *Store {
	return &Store{db: db, logger: slog.Default()}
}

// WithLogger sets the logger used for store events.
func (s *Store) WithLogger(l *slog.Logger) *Store {
	if l != nil {
		s.logger = l
	}
	return s
}

// #endregion constructor

// #region close
// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use by other packages (e.g. logging).
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion close

// #region save-tag
// SaveTag stores at under name. The trajectory is stored once per trajectory ID,
// so several tags may share it. Annotations must not be added to at afterwards
// if the stored copy is meant to match.
func (s *Store) SaveTag(name string, at *annotation.AnnotatedTrajectory) error {
	if name == "" {
		return fmt.Errorf("save tag: empty name")
	}
	return s.writeTag(name, at, false)
}

// UpdateTag points an existing tag at a new snapshot of at. Earlier snapshots
// stay in the database; only the tag moves.
func (s *Store) UpdateTag(name string, at *annotation.AnnotatedTrajectory) error {
	return s.writeTag(name, at, true)
}

func (s *Store) writeTag(name string, at *annotation.AnnotatedTrajectory, update bool) error {
	traj := at.Trajectory()
	blob, err := trajectory.Encode(traj)
	if err != nil {
		return fmt.Errorf("encode trajectory: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	annotatedID := uuid.New().String()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM tags WHERE name = ?`, name).Scan(&exists); err != nil {
		return fmt.Errorf("check tag: %w", err)
	}
	if !update && exists > 0 {
		return fmt.Errorf("save tag %q: %w", name, ErrTagExists)
	}
	if update && exists == 0 {
		return fmt.Errorf("update tag %q: %w", name, ErrTagNotFound)
	}

	_, err = tx.Exec(
		`INSERT OR IGNORE INTO trajectories (trajectory_id, n_frames, frames, created_at)
		 VALUES (?, ?, ?, ?)`,
		traj.ID().String(), traj.Len(), blob, now,
	)
	if err != nil {
		return fmt.Errorf("insert trajectory: %w", err)
	}

	_, err = tx.Exec(
		`INSERT INTO annotated_trajectories (annotated_id, trajectory_id, created_at)
		 VALUES (?, ?, ?)`,
		annotatedID, traj.ID().String(), now,
	)
	if err != nil {
		return fmt.Errorf("insert annotated trajectory: %w", err)
	}

	for _, a := range at.Annotations() {
		_, err = tx.Exec(
			`INSERT INTO annotations (annotated_id, state, begin_frame, end_frame)
			 VALUES (?, ?, ?, ?)`,
			annotatedID, a.State, a.Begin, a.End,
		)
		if err != nil {
			return fmt.Errorf("insert annotation %s: %w", a, err)
		}
	}

	if update {
		_, err = tx.Exec(`UPDATE tags SET annotated_id = ?, created_at = ? WHERE name = ?`, annotatedID, now, name)
	} else {
		_, err = tx.Exec(
			`INSERT INTO tags (name, annotated_id, created_at) VALUES (?, ?, ?)`,
			name, annotatedID, now,
		)
	}
	if err != nil {
		return fmt.Errorf("write tag: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.logger.Debug("saved annotated trajectory", "tag", name, "update", update, "frames", traj.Len(), "annotations", len(at.Annotations()))
	return nil
}

// #endregion save-tag

// #region load-tag
// LoadTag reads the annotated trajectory saved under name. The annotations are
// re-added through annotation.New, so the rebuilt indices obey the same rules
// as a freshly annotated trajectory.
func (s *Store) LoadTag(name string) (*annotation.AnnotatedTrajectory, error) {
	var annotatedID string
	var blob []byte
	err := s.db.QueryRow(
		`SELECT a.annotated_id, t.frames
		 FROM tags g
		 JOIN annotated_trajectories a ON a.annotated_id = g.annotated_id
		 JOIN trajectories t ON t.trajectory_id = a.trajectory_id
		 WHERE g.name = ?`, name,
	).Scan(&annotatedID, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load tag %q: %w", name, ErrTagNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load tag %q: %w", name, err)
	}

	traj, err := trajectory.Decode(blob)
	if err != nil {
		return nil, fmt.Errorf("decode trajectory for %q: %w", name, err)
	}

	anns, err := s.annotationsFor(annotatedID)
	if err != nil {
		return nil, err
	}

	at, err := annotation.New(traj, anns...)
	if err != nil {
		return nil, fmt.Errorf("rebuild %q: %w", name, err)
	}
	return at, nil
}

func (s *Store) annotationsFor(annotatedID string) ([]annotation.Annotation, error) {
	rows, err := s.db.Query(
		`SELECT state, begin_frame, end_frame FROM annotations
		 WHERE annotated_id = ? ORDER BY begin_frame, end_frame, state`, annotatedID,
	)
	if err != nil {
		return nil, fmt.Errorf("query annotations: %w", err)
	}
	defer rows.Close()

	var anns []annotation.Annotation
	for rows.Next() {
		var a annotation.Annotation
		if err := rows.Scan(&a.State, &a.Begin, &a.End); err != nil {
			return nil, fmt.Errorf("scan annotation: %w", err)
		}
		anns = append(anns, a)
	}
	return anns, rows.Err()
}

// #endregion load-tag

// #region list-tags
// TagInfo summarizes one saved tag.
type TagInfo struct {
	Name         string
	AnnotatedID  string
	TrajectoryID string
	NFrames      int
	NAnnotations int
	CreatedAt    time.Time
}

// ListTags returns all tags, most recent first.
func (s *Store) ListTags() ([]TagInfo, error) {
	rows, err := s.db.Query(
		`SELECT g.name, g.annotated_id, a.trajectory_id, t.n_frames, g.created_at,
		        (SELECT COUNT(*) FROM annotations n WHERE n.annotated_id = g.annotated_id)
		 FROM tags g
		 JOIN annotated_trajectories a ON a.annotated_id = g.annotated_id
		 JOIN trajectories t ON t.trajectory_id = a.trajectory_id
		 ORDER BY g.created_at DESC, g.name`,
	)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	var tags []TagInfo
	for rows.Next() {
		var ti TagInfo
		var createdStr string
		if err := rows.Scan(&ti.Name, &ti.AnnotatedID, &ti.TrajectoryID, &ti.NFrames, &createdStr, &ti.NAnnotations); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		ti.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		tags = append(tags, ti)
	}
	return tags, rows.Err()
}

// #endregion list-tags
