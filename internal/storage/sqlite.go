package storage

import (
	"database/sql"
	"time"

	// Register sqlite3 driver
	_ "github.com/mattn/go-sqlite3"
)

type DB interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	Close() error
}

// Store is the admin upload ledger.
type Store struct{ db DB }

func OpenSQLite(dsn string) (DB, error) {
	return sql.Open("sqlite3", dsn)
}

func InitSchema(db DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS upload_runs(
		id TEXT PRIMARY KEY,
		indicator_slug TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL,
		total_added INTEGER NOT NULL DEFAULT 0,
		partial INTEGER NOT NULL DEFAULT 0,
		aborted INTEGER NOT NULL DEFAULT 0,
		reconciled INTEGER NOT NULL DEFAULT 0
	)`); err != nil {
		return err
	}
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS upload_tasks(
		run_id TEXT NOT NULL REFERENCES upload_runs(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		kind TEXT NOT NULL,
		series_type TEXT NOT NULL,
		file_name TEXT NOT NULL,
		added INTEGER NOT NULL DEFAULT 0,
		updated INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT '',
		PRIMARY KEY(run_id, position)
	)`)
	return err
}

func NewStore(db DB) *Store { return &Store{db: db} }

// RunRecord is one executed upload plan.
type RunRecord struct {
	ID            string
	IndicatorSlug string
	StartedAt     time.Time
	FinishedAt    time.Time
	TotalAdded    int
	Partial       bool
	Aborted       bool
	Reconciled    bool
	Tasks         []TaskRecord
}

// TaskRecord is the outcome of one step of a run. Error is empty on success.
type TaskRecord struct {
	Position   int
	Kind       string
	SeriesType string
	FileName   string
	Added      int
	Updated    int
	Error      string
}

func (s *Store) SaveRun(r RunRecord) error {
	if _, err := s.db.Exec(`INSERT INTO upload_runs(id,indicator_slug,started_at,finished_at,total_added,partial,aborted,reconciled)
		VALUES(?,?,?,?,?,?,?,?)`,
		r.ID, r.IndicatorSlug, r.StartedAt.Unix(), r.FinishedAt.Unix(), r.TotalAdded,
		boolInt(r.Partial), boolInt(r.Aborted), boolInt(r.Reconciled)); err != nil {
		return err
	}
	for _, t := range r.Tasks {
		if _, err := s.db.Exec(`INSERT INTO upload_tasks(run_id,position,kind,series_type,file_name,added,updated,error)
			VALUES(?,?,?,?,?,?,?,?)`,
			r.ID, t.Position, t.Kind, t.SeriesType, t.FileName, t.Added, t.Updated, t.Error); err != nil {
			return err
		}
	}
	return nil
}

// RecentRuns returns the newest runs first, with their tasks.
func (s *Store) RecentRuns(limit int) ([]RunRecord, error) {
	return s.queryRuns(`SELECT id,indicator_slug,started_at,finished_at,total_added,partial,aborted,reconciled
		FROM upload_runs ORDER BY started_at DESC, id LIMIT ?`, limit)
}

// UnreconciledRuns returns partial runs nobody has signed off yet.
func (s *Store) UnreconciledRuns() ([]RunRecord, error) {
	return s.queryRuns(`SELECT id,indicator_slug,started_at,finished_at,total_added,partial,aborted,reconciled
		FROM upload_runs WHERE partial=1 AND reconciled=0 ORDER BY started_at DESC, id`)
}

func (s *Store) MarkReconciled(id string) error {
	_, err := s.db.Exec(`UPDATE upload_runs SET reconciled=1 WHERE id=?`, id)
	return err
}

func (s *Store) queryRuns(query string, args ...any) ([]RunRecord, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	var out []RunRecord
	for rows.Next() {
		var r RunRecord
		var started, finished int64
		var partial, aborted, reconciled int
		if err := rows.Scan(&r.ID, &r.IndicatorSlug, &started, &finished, &r.TotalAdded, &partial, &aborted, &reconciled); err != nil {
			rows.Close()
			return nil, err
		}
		r.StartedAt = time.Unix(started, 0).UTC()
		r.FinishedAt = time.Unix(finished, 0).UTC()
		r.Partial, r.Aborted, r.Reconciled = partial == 1, aborted == 1, reconciled == 1
		out = append(out, r)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, err
	}
	for i := range out {
		tasks, err := s.tasks(out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Tasks = tasks
	}
	return out, nil
}

func (s *Store) tasks(runID string) ([]TaskRecord, error) {
	rows, err := s.db.Query(`SELECT position,kind,series_type,file_name,added,updated,error
		FROM upload_tasks WHERE run_id=? ORDER BY position ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TaskRecord
	for rows.Next() {
		var t TaskRecord
		if err := rows.Scan(&t.Position, &t.Kind, &t.SeriesType, &t.FileName, &t.Added, &t.Updated, &t.Error); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
