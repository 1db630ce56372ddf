package runs

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/qfold/qfold/internal/database"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id               TEXT PRIMARY KEY,
	main_chain       TEXT NOT NULL,
	side_chain       TEXT NOT NULL,
	encoding         TEXT NOT NULL,
	interaction      TEXT NOT NULL,
	optimizer        TEXT NOT NULL,
	backend          TEXT NOT NULL,
	status           TEXT NOT NULL,
	error            TEXT NOT NULL DEFAULT '',
	directory        TEXT NOT NULL DEFAULT '',
	num_qubits       INTEGER NOT NULL DEFAULT 0,
	optimal_value    REAL NOT NULL DEFAULT 0,
	best_bitstring   TEXT NOT NULL DEFAULT '',
	best_energy      REAL NOT NULL DEFAULT 0,
	best_probability REAL NOT NULL DEFAULT 0,
	turns            TEXT NOT NULL DEFAULT '[]',
	contacts         TEXT NOT NULL DEFAULT '[]',
	distribution     BLOB,
	elapsed_seconds  REAL NOT NULL DEFAULT 0,
	created_at       INTEGER NOT NULL,
	finished_at      INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
`

// Repository handles run persistence in runs.db.
type Repository struct {
	db  *database.DB
	log zerolog.Logger
}

// NewRepository applies the runs schema and returns the repository.
func NewRepository(db *database.DB, log zerolog.Logger) (*Repository, error) {
	if err := db.Migrate(schema); err != nil {
		return nil, err
	}
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "runs").Logger(),
	}, nil
}

// Create inserts a new pending run.
func (r *Repository) Create(run *Run) error {
	_, err := r.db.Exec(`
		INSERT INTO runs (id, main_chain, side_chain, encoding, interaction, optimizer, backend, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.MainChain, run.SideChain, run.Encoding, run.Interaction,
		run.Optimizer, run.Backend, run.Status, run.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to create run %s: %w", run.ID, err)
	}
	return nil
}

// MarkRunning flips a run to the running status.
func (r *Repository) MarkRunning(id string) error {
	_, err := r.db.Exec(`UPDATE runs SET status = ? WHERE id = ?`, StatusRunning, id)
	if err != nil {
		return fmt.Errorf("failed to mark run %s running: %w", id, err)
	}
	return nil
}

// Complete records a finished run's outcome.
func (r *Repository) Complete(id string, outcome *Outcome) error {
	turns, err := json.Marshal(outcome.Turns)
	if err != nil {
		return fmt.Errorf("failed to encode turns for run %s: %w", id, err)
	}
	contacts, err := json.Marshal(outcome.Contacts)
	if err != nil {
		return fmt.Errorf("failed to encode contacts for run %s: %w", id, err)
	}
	dist, err := msgpack.Marshal(outcome.Distribution)
	if err != nil {
		return fmt.Errorf("failed to encode distribution for run %s: %w", id, err)
	}

	_, err = r.db.Exec(`
		UPDATE runs SET
			status = ?, directory = ?, num_qubits = ?, optimal_value = ?,
			best_bitstring = ?, best_energy = ?, best_probability = ?,
			turns = ?, contacts = ?, distribution = ?, elapsed_seconds = ?,
			finished_at = ?
		WHERE id = ?
	`, StatusCompleted, outcome.Directory, outcome.NumQubits, outcome.OptimalValue,
		outcome.BestBitstring, outcome.BestEnergy, outcome.BestProbability,
		string(turns), string(contacts), dist, outcome.ElapsedSeconds,
		time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to complete run %s: %w", id, err)
	}
	return nil
}

// Fail records a failed run.
func (r *Repository) Fail(id string, cause error) error {
	_, err := r.db.Exec(`
		UPDATE runs SET status = ?, error = ?, finished_at = ? WHERE id = ?
	`, StatusFailed, cause.Error(), time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to mark run %s failed: %w", id, err)
	}
	return nil
}

// Get returns a run by ID, or nil if it does not exist.
func (r *Repository) Get(id string) (*Run, error) {
	row := r.db.QueryRow(`
		SELECT id, main_chain, side_chain, encoding, interaction, optimizer, backend,
			status, error, directory, num_qubits, optimal_value, best_bitstring,
			best_energy, best_probability, turns, contacts, elapsed_seconds,
			created_at, finished_at
		FROM runs WHERE id = ?
	`, id)

	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", id, err)
	}
	return run, nil
}

// List returns runs ordered newest first.
func (r *Repository) List(limit, offset int) ([]*Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(`
		SELECT id, main_chain, side_chain, encoding, interaction, optimizer, backend,
			status, error, directory, num_qubits, optimal_value, best_bitstring,
			best_energy, best_probability, turns, contacts, elapsed_seconds,
			created_at, finished_at
		FROM runs ORDER BY created_at DESC, id LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var result []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			r.log.Warn().Err(err).Msg("Failed to scan run row")
			continue
		}
		result = append(result, run)
	}
	return result, rows.Err()
}

// CountByStatus returns the number of runs per status.
func (r *Repository) CountByStatus() (map[string]int, error) {
	rows, err := r.db.Query(`SELECT status, COUNT(*) FROM runs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count runs: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// Distribution returns the stored measurement distribution of a run.
func (r *Repository) Distribution(id string) (map[string]float64, error) {
	var blob []byte
	err := r.db.QueryRow(`SELECT distribution FROM runs WHERE id = ?`, id).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get distribution for run %s: %w", id, err)
	}
	if len(blob) == 0 {
		return nil, nil
	}

	var dist map[string]float64
	if err := msgpack.Unmarshal(blob, &dist); err != nil {
		return nil, fmt.Errorf("failed to decode distribution for run %s: %w", id, err)
	}
	return dist, nil
}

// DeleteOlderThan removes runs created before the cutoff and returns
// their artifact directories so the caller can prune them from disk.
func (r *Repository) DeleteOlderThan(cutoff time.Time) ([]string, error) {
	rows, err := r.db.Query(`
		SELECT directory FROM runs WHERE created_at < ? AND directory != ''
	`, cutoff.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to find expired runs: %w", err)
	}
	defer rows.Close()

	var dirs []string
	for rows.Next() {
		var dir string
		if err := rows.Scan(&dir); err != nil {
			return nil, err
		}
		dirs = append(dirs, dir)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if _, err := r.db.Exec(`DELETE FROM runs WHERE created_at < ?`, cutoff.Unix()); err != nil {
		return nil, fmt.Errorf("failed to delete expired runs: %w", err)
	}
	return dirs, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*Run, error) {
	var (
		run                   Run
		turns, contacts       string
		createdAt, finishedAt int64
	)
	err := row.Scan(&run.ID, &run.MainChain, &run.SideChain, &run.Encoding,
		&run.Interaction, &run.Optimizer, &run.Backend, &run.Status, &run.Error,
		&run.Directory, &run.NumQubits, &run.OptimalValue, &run.BestBitstring,
		&run.BestEnergy, &run.BestProbability, &turns, &contacts,
		&run.ElapsedSeconds, &createdAt, &finishedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(turns), &run.Turns); err != nil {
		return nil, fmt.Errorf("failed to decode turns: %w", err)
	}
	if err := json.Unmarshal([]byte(contacts), &run.Contacts); err != nil {
		return nil, fmt.Errorf("failed to decode contacts: %w", err)
	}

	run.CreatedAt = time.Unix(createdAt, 0).UTC()
	if finishedAt > 0 {
		run.FinishedAt = time.Unix(finishedAt, 0).UTC()
	}
	return &run, nil
}
