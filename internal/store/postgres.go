package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
	"go.uber.org/zap"

	"github.com/ramyacp14/Task-09-Syracuse-Open-Data-Civic-Project/internal/db"
	"github.com/ramyacp14/Task-09-Syracuse-Open-Data-Civic-Project/internal/model"
)

// PostgresStore implements Store using pgxpool. Tract geometry is stored as
// PostGIS points so counts can be mapped directly.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

const pgRunColumns = `id, status, incidents, tracts, metric, correlation, summary, output_file, error, created_at, updated_at`

// preparedStatements are prepared on each new connection.
var preparedStatements = map[string]string{
	"insert_run":      `INSERT INTO runs (id, status, created_at, updated_at) VALUES ($1, $2, $3, $4)`,
	"get_run":         `SELECT ` + pgRunColumns + ` FROM runs WHERE id = $1`,
	"get_tract_count": `SELECT geoid, latitude, longitude, poverty_pct, crime_count FROM tract_counts WHERE run_id = $1 AND geoid = $2`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	pgxCfg.MaxConns = 4
	pgxCfg.MinConns = 1
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			pgxCfg.MaxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			pgxCfg.MinConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				// Tables may not exist before the first Migrate.
				zap.L().Debug("postgres: skip prepare", zap.String("statement", name), zap.Error(err))
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE EXTENSION IF NOT EXISTS postgis;

CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	status      TEXT NOT NULL DEFAULT 'running',
	incidents   INTEGER,
	tracts      INTEGER,
	metric      TEXT,
	correlation DOUBLE PRECISION,
	summary     TEXT,
	output_file TEXT,
	error       TEXT,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS tracts (
	geoid       TEXT PRIMARY KEY,
	poverty_pct DOUBLE PRECISION,
	geom        geometry(Point, 4326) NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS tract_counts (
	run_id      TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	geoid       TEXT NOT NULL,
	latitude    DOUBLE PRECISION NOT NULL,
	longitude   DOUBLE PRECISION NOT NULL,
	poverty_pct DOUBLE PRECISION,
	crime_count BIGINT NOT NULL,
	geom        geometry(Point, 4326) NOT NULL,
	PRIMARY KEY (run_id, geoid)
);

CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_tracts_geom ON tracts USING GIST (geom);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, status, created_at, updated_at) VALUES ($1, $2, $3, $4)`,
		id, string(model.RunStatusRunning), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}
	return &model.Run{ID: id, Status: model.RunStatusRunning, CreatedAt: now, UpdatedAt: now}, nil
}

func (s *PostgresStore) CompleteRun(ctx context.Context, runID string, sum model.RunSummary) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, incidents = $2, tracts = $3, metric = $4, correlation = $5, summary = $6, output_file = $7, updated_at = $8
		 WHERE id = $9`,
		string(model.RunStatusComplete), sum.Incidents, sum.Tracts, sum.Metric, nullable(sum.Correlation),
		sum.Summary, sum.OutputFile, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "run %s", runID)
	}
	return nil
}

func (s *PostgresStore) FailRun(ctx context.Context, runID string, runErr error) error {
	msg := ""
	if runErr != nil {
		msg = runErr.Error()
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, error = $2, updated_at = $3 WHERE id = $4`,
		string(model.RunStatusFailed), msg, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: fail run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "run %s", runID)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	r, err := scanPgRun(s.pool.QueryRow(ctx, `SELECT `+pgRunColumns+` FROM runs WHERE id = $1`, runID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: get run %s", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	return r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, limit int) ([]model.Run, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+pgRunColumns+` FROM runs ORDER BY created_at DESC LIMIT $1`,
		listLimit(limit),
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanPgRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

var (
	tractCountColumns = []string{"run_id", "geoid", "latitude", "longitude", "poverty_pct", "crime_count", "geom"}
	tractColumns      = []string{"geoid", "poverty_pct", "geom"}
)

// SaveTractCounts bulk-loads the run's counts with COPY and refreshes the
// shared tract reference table.
func (s *PostgresStore) SaveTractCounts(ctx context.Context, runID string, tracts []model.Tract) error {
	counts := make([][]any, 0, len(tracts))
	refs := make([][]any, 0, len(tracts))
	for _, t := range tracts {
		pt, err := EncodePoint(t.Latitude, t.Longitude)
		if err != nil {
			return eris.Wrapf(err, "postgres: encode tract %s", t.GEOID)
		}
		pov := nullable(t.PovertyPct)
		counts = append(counts, []any{runID, t.GEOID, t.Latitude, t.Longitude, pov, t.CrimeCount, pt})
		refs = append(refs, []any{t.GEOID, pov, pt})
	}

	n, err := db.CopyFrom(ctx, s.pool, "tract_counts", tractCountColumns, counts)
	if err != nil {
		return eris.Wrapf(err, "postgres: save tract counts for run %s", runID)
	}
	if _, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "tracts",
		Columns:      tractColumns,
		ConflictKeys: []string{"geoid"},
	}, refs); err != nil {
		return eris.Wrap(err, "postgres: upsert tracts")
	}

	zap.L().Debug("postgres: saved tract counts", zap.String("run_id", runID), zap.Int64("rows", n))
	return nil
}

func (s *PostgresStore) GetTractCount(ctx context.Context, runID, geoid string) (*model.Tract, error) {
	t, err := scanPgTract(s.pool.QueryRow(ctx,
		`SELECT geoid, latitude, longitude, poverty_pct, crime_count FROM tract_counts WHERE run_id = $1 AND geoid = $2`,
		runID, geoid,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: tract %s in run %s", geoid, runID)
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get tract count")
	}
	return t, nil
}

func (s *PostgresStore) ListTractCounts(ctx context.Context, runID string) ([]model.Tract, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT geoid, latitude, longitude, poverty_pct, crime_count FROM tract_counts WHERE run_id = $1 ORDER BY geoid`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list tract counts")
	}
	defer rows.Close()

	var out []model.Tract
	for rows.Next() {
		t, err := scanPgTract(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan tract count")
		}
		out = append(out, *t)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list tract counts iterate")
}

// EncodePoint returns an EWKB point (SRID 4326) for lat/lng.
func EncodePoint(lat, lng float64) ([]byte, error) {
	p := geom.NewPointFlat(geom.XY, []float64{lng, lat}).SetSRID(4326)
	b, err := ewkb.Marshal(p, ewkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal ewkb point")
	}
	return b, nil
}

func scanPgRun(row pgx.Row) (*model.Run, error) {
	var (
		r                       model.Run
		status                  string
		incidents, tracts       *int64
		metric, summary, output *string
		errorMsg                *string
		corr                    *float64
	)
	if err := row.Scan(&r.ID, &status, &incidents, &tracts, &metric, &corr, &summary, &output, &errorMsg, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.Status = model.RunStatus(status)
	r.Error = deref(errorMsg)
	if r.Status == model.RunStatusComplete {
		r.Summary = &model.RunSummary{
			Metric:      deref(metric),
			Correlation: fromNullable(corr),
			Summary:     deref(summary),
			OutputFile:  deref(output),
		}
		if incidents != nil {
			r.Summary.Incidents = int(*incidents)
		}
		if tracts != nil {
			r.Summary.Tracts = int(*tracts)
		}
	}
	return &r, nil
}

func scanPgTract(row pgx.Row) (*model.Tract, error) {
	var t model.Tract
	var pov *float64
	if err := row.Scan(&t.GEOID, &t.Latitude, &t.Longitude, &pov, &t.CrimeCount); err != nil {
		return nil, err
	}
	t.PovertyPct = fromNullable(pov)
	return &t, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
