package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/ramyacp14/Task-09-Syracuse-Open-Data-Civic-Project/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	status      TEXT NOT NULL DEFAULT 'running',
	incidents   INTEGER,
	tracts      INTEGER,
	metric      TEXT,
	correlation REAL,
	summary     TEXT,
	output_file TEXT,
	error       TEXT,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS tract_counts (
	run_id      TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	geoid       TEXT NOT NULL,
	latitude    REAL NOT NULL,
	longitude   REAL NOT NULL,
	poverty_pct REAL,
	crime_count INTEGER NOT NULL,
	PRIMARY KEY (run_id, geoid)
);

CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, status, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		id, string(model.RunStatusRunning), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}
	return &model.Run{ID: id, Status: model.RunStatusRunning, CreatedAt: now, UpdatedAt: now}, nil
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string, sum model.RunSummary) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, incidents = ?, tracts = ?, metric = ?, correlation = ?, summary = ?, output_file = ?, updated_at = ?
		 WHERE id = ?`,
		string(model.RunStatusComplete), sum.Incidents, sum.Tracts, sum.Metric, nullable(sum.Correlation),
		sum.Summary, sum.OutputFile, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) FailRun(ctx context.Context, runID string, runErr error) error {
	msg := ""
	if runErr != nil {
		msg = runErr.Error()
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, error = ?, updated_at = ? WHERE id = ?`,
		string(model.RunStatusFailed), msg, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

const sqliteRunColumns = `id, status, incidents, tracts, metric, correlation, summary, output_file, error, created_at, updated_at`

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sqliteRunColumns+` FROM runs WHERE id = ?`, runID)
	r, err := scanSQLiteRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: get run %s", runID)
	}
	return r, err
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]model.Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sqliteRunColumns+` FROM runs ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		listLimit(limit),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []model.Run
	for rows.Next() {
		r, err := scanSQLiteRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) SaveTractCounts(ctx context.Context, runID string, tracts []model.Tract) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tract counts")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO tract_counts (run_id, geoid, latitude, longitude, poverty_pct, crime_count) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare tract counts")
	}
	defer stmt.Close() //nolint:errcheck

	for _, t := range tracts {
		if _, err := stmt.ExecContext(ctx, runID, t.GEOID, t.Latitude, t.Longitude, nullable(t.PovertyPct), t.CrimeCount); err != nil {
			return eris.Wrapf(err, "sqlite: insert tract count %s", t.GEOID)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit tract counts")
}

func (s *SQLiteStore) GetTractCount(ctx context.Context, runID, geoid string) (*model.Tract, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT geoid, latitude, longitude, poverty_pct, crime_count FROM tract_counts WHERE run_id = ? AND geoid = ?`,
		runID, geoid,
	)
	t, err := scanSQLiteTract(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: tract %s in run %s", geoid, runID)
	}
	return t, err
}

func (s *SQLiteStore) ListTractCounts(ctx context.Context, runID string) ([]model.Tract, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT geoid, latitude, longitude, poverty_pct, crime_count FROM tract_counts WHERE run_id = ? ORDER BY geoid`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list tract counts")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Tract
	for rows.Next() {
		t, err := scanSQLiteTract(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list tract counts iterate")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "%s %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanSQLiteRun(row scannable) (*model.Run, error) {
	var (
		r                                 model.Run
		incidents, tracts                 sql.NullInt64
		metric, summary, output, errorMsg sql.NullString
		corr                              sql.NullFloat64
	)
	err := row.Scan(&r.ID, &r.Status, &incidents, &tracts, &metric, &corr, &summary, &output, &errorMsg, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}
	r.Error = errorMsg.String
	if r.Status == model.RunStatusComplete {
		c := fromNullable(nil)
		if corr.Valid {
			c = corr.Float64
		}
		r.Summary = &model.RunSummary{
			Incidents:   int(incidents.Int64),
			Tracts:      int(tracts.Int64),
			Metric:      metric.String,
			Correlation: c,
			Summary:     summary.String,
			OutputFile:  output.String,
		}
	}
	return &r, nil
}

func scanSQLiteTract(row scannable) (*model.Tract, error) {
	var t model.Tract
	var pov sql.NullFloat64
	err := row.Scan(&t.GEOID, &t.Latitude, &t.Longitude, &pov, &t.CrimeCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan tract count")
	}
	t.PovertyPct = fromNullable(nil)
	if pov.Valid {
		t.PovertyPct = pov.Float64
	}
	return &t, nil
}
