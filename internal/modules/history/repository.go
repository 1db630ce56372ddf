// Package history stores the optimization traces of folding runs in a
// dedicated SQLite database, kept separate from run metadata so large
// traces never slow down run listings.
package history

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // CGo SQLite driver for the append-heavy history store
	"github.com/rs/zerolog"
)

const schema = `
CREATE TABLE IF NOT EXISTS iterations (
	run_id     TEXT NOT NULL,
	iteration  INTEGER NOT NULL,
	energy     REAL NOT NULL,
	created_at INTEGER NOT NULL,
	PRIMARY KEY (run_id, iteration)
);

CREATE INDEX IF NOT EXISTS idx_iterations_run ON iterations(run_id);
`

// Point is one recorded objective evaluation.
type Point struct {
	Iteration int     `json:"iteration"`
	Energy    float64 `json:"energy"`
}

// Repository handles iteration history persistence in history.db.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository opens (or creates) the history database at path.
func NewRepository(path string, log zerolog.Logger) (*Repository, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply history schema: %w", err)
	}

	return &Repository{
		db:  db,
		log: log.With().Str("repository", "history").Logger(),
	}, nil
}

// Close closes the underlying database.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Append records one iteration of a run's trace.
func (r *Repository) Append(runID string, p Point) error {
	_, err := r.db.Exec(`
		INSERT OR REPLACE INTO iterations (run_id, iteration, energy, created_at)
		VALUES (?, ?, ?, ?)
	`, runID, p.Iteration, p.Energy, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to append iteration %d for run %s: %w", p.Iteration, runID, err)
	}
	return nil
}

// AppendBatch records a whole trace in one transaction.
func (r *Repository) AppendBatch(runID string, points []Point) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin history transaction: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO iterations (run_id, iteration, energy, created_at)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to prepare history insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for _, p := range points {
		if _, err := stmt.Exec(runID, p.Iteration, p.Energy, now); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to insert iteration %d for run %s: %w", p.Iteration, runID, err)
		}
	}
	return tx.Commit()
}

// Trace returns a run's iterations in order.
func (r *Repository) Trace(runID string) ([]Point, error) {
	rows, err := r.db.Query(`
		SELECT iteration, energy FROM iterations WHERE run_id = ? ORDER BY iteration
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to load trace for run %s: %w", runID, err)
	}
	defer rows.Close()

	var points []Point
	for rows.Next() {
		var p Point
		if err := rows.Scan(&p.Iteration, &p.Energy); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// DeleteRun removes a run's trace.
func (r *Repository) DeleteRun(runID string) error {
	if _, err := r.db.Exec(`DELETE FROM iterations WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("failed to delete trace for run %s: %w", runID, err)
	}
	return nil
}

// Checkpoint truncates the write-ahead log.
func (r *Repository) Checkpoint() error {
	if _, err := r.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return fmt.Errorf("failed to checkpoint history database: %w", err)
	}
	return nil
}

// Backup writes a consistent snapshot of the database to destPath.
func (r *Repository) Backup(destPath string) error {
	if _, err := r.db.Exec("VACUUM INTO ?", destPath); err != nil {
		return fmt.Errorf("failed to back up history database: %w", err)
	}
	return nil
}

// DeleteOlderThan prunes traces recorded before the cutoff.
func (r *Repository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	res, err := r.db.Exec(`DELETE FROM iterations WHERE created_at < ?`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to prune iteration history: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
