// Package storage persists simulation runs in SQLite.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/san-kum/parallelphysics/internal/dynamo"
	"github.com/san-kum/parallelphysics/internal/sim"
)

// ErrNotFound is returned for unknown run IDs.
var ErrNotFound = errors.New("storage: run not found")

// Store wraps a SQLite connection holding runs and their frames.
type Store struct {
	conn *sqlx.DB
}

// RunMetadata describes one stored run.
type RunMetadata struct {
	ID        string             `db:"id" json:"id"`
	Name      string             `db:"name" json:"name"`
	Objects   int                `db:"objects" json:"objects"`
	Workers   int                `db:"workers" json:"workers"`
	Frames    int                `db:"frames" json:"frames"`
	Dt        float64            `db:"dt" json:"dt"`
	Seed      int64              `db:"seed" json:"seed"`
	Failures  int                `db:"failures" json:"failures"`
	CreatedNs int64              `db:"created_at" json:"-"`
	ElapsedNs int64              `db:"elapsed_ns" json:"-"`
	RawMetric string             `db:"metrics_json" json:"-"`
	Metrics   map[string]float64 `db:"-" json:"metrics"`
	Timestamp time.Time          `db:"-" json:"timestamp"`
	Elapsed   time.Duration      `db:"-" json:"elapsed"`
}

type frameRow struct {
	RunID  string  `db:"run_id"`
	Frame  int     `db:"frame"`
	Time   float64 `db:"time"`
	Object int     `db:"object"`
	Mass   float64 `db:"mass"`
	Energy float64 `db:"energy"`
	X      float64 `db:"x"`
	Y      float64 `db:"y"`
	Z      float64 `db:"z"`
	State  string  `db:"state_json"`
}

// Open opens or creates the database at path, creating parent directories.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}

	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		objects INTEGER NOT NULL,
		workers INTEGER NOT NULL,
		frames INTEGER NOT NULL,
		dt REAL NOT NULL,
		seed INTEGER NOT NULL,
		failures INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		elapsed_ns INTEGER NOT NULL,
		metrics_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS frames (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		frame INTEGER NOT NULL,
		time REAL NOT NULL,
		object INTEGER NOT NULL,
		mass REAL NOT NULL,
		energy REAL NOT NULL,
		x REAL NOT NULL,
		y REAL NOT NULL,
		z REAL NOT NULL,
		state_json TEXT NOT NULL,
		PRIMARY KEY (run_id, frame, object)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
	`
	_, err := s.conn.Exec(schema)
	return err
}

// Save stores a run and every recorded frame, returning the new run ID.
func (s *Store) Save(ctx context.Context, name string, cfg sim.RunConfig, result *sim.Result) (string, error) {
	id := uuid.NewString()

	metricsJSON, err := json.Marshal(finiteMetrics(result.Metrics))
	if err != nil {
		return "", fmt.Errorf("encode metrics: %w", err)
	}

	tx, err := s.conn.BeginTxx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO runs
		(id, name, objects, workers, frames, dt, seed, failures, created_at, elapsed_ns, metrics_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, name, cfg.Objects, result.WorkerPool, result.FramesRun, cfg.Dt, cfg.Seed,
		len(result.Errors), time.Now().UnixNano(), int64(result.Elapsed), string(metricsJSON),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PreparexContext(ctx, `INSERT INTO frames
		(run_id, frame, time, object, mass, energy, x, y, z, state_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer stmt.Close()

	for _, rec := range result.Records {
		for i, o := range rec.Objects {
			stateJSON, err := json.Marshal([]float64(o.State))
			if err != nil {
				return "", fmt.Errorf("encode state frame %d object %d: %w", rec.Frame, i, err)
			}
			_, err = stmt.ExecContext(ctx, id, rec.Frame, rec.Time, i, o.Mass, o.Energy,
				o.Position[0], o.Position[1], o.Position[2], string(stateJSON))
			if err != nil {
				return "", fmt.Errorf("insert frame %d object %d: %w", rec.Frame, i, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return id, nil
}

// List returns every run, newest first.
func (s *Store) List(ctx context.Context) ([]RunMetadata, error) {
	var runs []RunMetadata
	if err := s.conn.SelectContext(ctx, &runs, `SELECT * FROM runs ORDER BY created_at DESC`); err != nil {
		return nil, err
	}
	for i := range runs {
		if err := runs[i].decode(); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

// Load returns a run by ID or by unique ID prefix.
func (s *Store) Load(ctx context.Context, id string) (*RunMetadata, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty id", ErrNotFound)
	}
	var runs []RunMetadata
	err := s.conn.SelectContext(ctx, &runs,
		`SELECT * FROM runs WHERE substr(id, 1, length(?)) = ? LIMIT 2`, id, id)
	if err != nil {
		return nil, err
	}
	switch len(runs) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	case 1:
	default:
		return nil, fmt.Errorf("storage: run id prefix %q is ambiguous", id)
	}

	meta := runs[0]
	if err := meta.decode(); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadFrames rebuilds the recorded frames of a run in frame order.
func (s *Store) LoadFrames(ctx context.Context, id string) ([]sim.FrameRecord, error) {
	var rows []frameRow
	err := s.conn.SelectContext(ctx, &rows,
		`SELECT * FROM frames WHERE run_id = ? ORDER BY frame, object`, id)
	if err != nil {
		return nil, err
	}

	records := make([]sim.FrameRecord, 0)
	for _, r := range rows {
		if len(records) == 0 || records[len(records)-1].Frame != r.Frame {
			records = append(records, sim.FrameRecord{Frame: r.Frame, Time: r.Time})
		}
		var state []float64
		if err := json.Unmarshal([]byte(r.State), &state); err != nil {
			return nil, fmt.Errorf("decode state frame %d object %d: %w", r.Frame, r.Object, err)
		}
		rec := &records[len(records)-1]
		rec.Objects = append(rec.Objects, dynamo.Snapshot{
			Mass:     r.Mass,
			Energy:   r.Energy,
			State:    state,
			Position: dynamo.Vec3{r.X, r.Y, r.Z},
		})
	}
	return records, nil
}

// Delete removes a run and its frames.
func (s *Store) Delete(ctx context.Context, id string) error {
	tx, err := s.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM frames WHERE run_id = ?`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return tx.Commit()
}

func (m *RunMetadata) decode() error {
	m.Timestamp = time.Unix(0, m.CreatedNs)
	m.Elapsed = time.Duration(m.ElapsedNs)
	m.Metrics = map[string]float64{}
	if m.RawMetric == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(m.RawMetric), &m.Metrics); err != nil {
		return fmt.Errorf("decode metrics of %s: %w", m.ID, err)
	}
	return nil
}

// finiteMetrics drops values JSON cannot encode.
func finiteMetrics(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		if dynamo.IsFinite(v) {
			out[k] = v
		}
	}
	return out
}
