package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/metal-lca/internal/model"
)

// pool is the subset of *pgxpool.Pool the store uses. pgxmock satisfies it.
type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	p, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: p, closeFn: p.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS projects (
	id                          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	name                        TEXT NOT NULL,
	metal_type                  TEXT NOT NULL,
	processing_mode             TEXT NOT NULL,
	functional_unit_mass_tonnes DOUBLE PRECISION NOT NULL,
	created_at                  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS stage_records (
	project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	stage      TEXT NOT NULL,
	record     JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (project_id, stage)
);

CREATE TABLE IF NOT EXISTS scenarios (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	stage      TEXT NOT NULL,
	name       TEXT NOT NULL,
	scenario   JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_scenarios_project_stage ON scenarios(project_id, stage);
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

// --- Projects ---

func (s *PostgresStore) CreateProject(ctx context.Context, p *model.Project) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO projects (id, name, metal_type, processing_mode, functional_unit_mass_tonnes, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.Name, string(p.MetalType), string(p.ProcessingMode), p.FunctionalUnitMassTonnes, p.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: insert project %s", p.ID)
}

func (s *PostgresStore) GetProject(ctx context.Context, id string) (*model.Project, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, name, metal_type, processing_mode, functional_unit_mass_tonnes, created_at
		 FROM projects WHERE id = $1`, id)
	p, err := scanProject(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("project", id)
		}
		return nil, eris.Wrapf(err, "postgres: get project %s", id)
	}
	return p, nil
}

func (s *PostgresStore) ListProjects(ctx context.Context) ([]model.Project, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, metal_type, processing_mode, functional_unit_mass_tonnes, created_at
		 FROM projects ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list projects")
	}
	defer rows.Close()

	var out []model.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan project")
		}
		out = append(out, *p)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list projects iterate")
}

func (s *PostgresStore) DeleteProject(ctx context.Context, id string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin delete project")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for _, q := range []string{
		`DELETE FROM scenarios WHERE project_id = $1`,
		`DELETE FROM stage_records WHERE project_id = $1`,
	} {
		if _, err := tx.Exec(ctx, q, id); err != nil {
			return eris.Wrapf(err, "postgres: cascade delete project %s", id)
		}
	}
	tag, err := tx.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete project %s", id)
	}
	if tag.RowsAffected() == 0 {
		return notFound("project", id)
	}
	return eris.Wrap(tx.Commit(ctx), "postgres: commit delete project")
}

// --- Stage records ---

func (s *PostgresStore) SaveStageRecord(ctx context.Context, rec *model.StageRecord) error {
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}
	doc, err := json.Marshal(rec)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal stage record")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO stage_records (project_id, stage, record, updated_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (project_id, stage) DO UPDATE SET record = EXCLUDED.record, updated_at = EXCLUDED.updated_at`,
		rec.ProjectID, string(rec.Stage), doc, rec.UpdatedAt,
	)
	return eris.Wrapf(err, "postgres: save stage record %s/%s", rec.ProjectID, rec.Stage)
}

func (s *PostgresStore) GetStageRecord(ctx context.Context, projectID string, stage model.StageName) (*model.StageRecord, error) {
	var doc []byte
	err := s.pool.QueryRow(ctx,
		`SELECT record FROM stage_records WHERE project_id = $1 AND stage = $2`,
		projectID, string(stage),
	).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("stage record", projectID+"/"+string(stage))
		}
		return nil, eris.Wrap(err, "postgres: get stage record")
	}
	var rec model.StageRecord
	if err := json.Unmarshal(doc, &rec); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal stage record")
	}
	return &rec, nil
}

func (s *PostgresStore) ListStageRecords(ctx context.Context, projectID string) ([]model.StageRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT record FROM stage_records WHERE project_id = $1`, projectID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list stage records")
	}
	defer rows.Close()

	var out []model.StageRecord
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, eris.Wrap(err, "postgres: scan stage record")
		}
		var rec model.StageRecord
		if err := json.Unmarshal(doc, &rec); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal stage record")
		}
		out = append(out, rec)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list stage records iterate")
}

// --- Scenarios ---

func (s *PostgresStore) CreateScenario(ctx context.Context, sc *model.Scenario) error {
	if sc.ID == "" {
		sc.ID = uuid.New().String()
	}
	if sc.CreatedAt.IsZero() {
		sc.CreatedAt = time.Now().UTC()
	}
	doc, err := json.Marshal(sc)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal scenario")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO scenarios (id, project_id, stage, name, scenario, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		sc.ID, sc.ProjectID, string(sc.Stage), sc.Name, doc, sc.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: insert scenario %s", sc.ID)
}

func (s *PostgresStore) GetScenario(ctx context.Context, projectID, scenarioID string) (*model.Scenario, error) {
	var doc []byte
	err := s.pool.QueryRow(ctx,
		`SELECT scenario FROM scenarios WHERE project_id = $1 AND id = $2`,
		projectID, scenarioID,
	).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("scenario", scenarioID)
		}
		return nil, eris.Wrap(err, "postgres: get scenario")
	}
	var sc model.Scenario
	if err := json.Unmarshal(doc, &sc); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal scenario")
	}
	return &sc, nil
}

func (s *PostgresStore) ListScenarios(ctx context.Context, projectID string, stage model.StageName) ([]model.Scenario, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT scenario FROM scenarios WHERE project_id = $1 AND stage = $2 ORDER BY created_at, id`,
		projectID, string(stage))
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list scenarios")
	}
	defer rows.Close()

	var out []model.Scenario
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, eris.Wrap(err, "postgres: scan scenario")
		}
		var sc model.Scenario
		if err := json.Unmarshal(doc, &sc); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal scenario")
		}
		out = append(out, sc)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list scenarios iterate")
}

func (s *PostgresStore) DeleteScenario(ctx context.Context, projectID, scenarioID string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM scenarios WHERE project_id = $1 AND id = $2`, projectID, scenarioID)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete scenario %s", scenarioID)
	}
	if tag.RowsAffected() == 0 {
		return notFound("scenario", scenarioID)
	}
	return nil
}
