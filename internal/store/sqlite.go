package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/metal-lca/internal/model"
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
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS projects (
	id                          TEXT PRIMARY KEY,
	name                        TEXT NOT NULL,
	metal_type                  TEXT NOT NULL,
	processing_mode             TEXT NOT NULL,
	functional_unit_mass_tonnes REAL NOT NULL,
	created_at                  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS stage_records (
	project_id TEXT NOT NULL REFERENCES projects(id),
	stage      TEXT NOT NULL,
	record     TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (project_id, stage)
);

CREATE TABLE IF NOT EXISTS scenarios (
	id         TEXT PRIMARY KEY,
	project_id TEXT NOT NULL REFERENCES projects(id),
	stage      TEXT NOT NULL,
	name       TEXT NOT NULL,
	scenario   TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_scenarios_project_stage ON scenarios(project_id, stage);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Projects ---

func (s *SQLiteStore) CreateProject(ctx context.Context, p *model.Project) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (id, name, metal_type, processing_mode, functional_unit_mass_tonnes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, string(p.MetalType), string(p.ProcessingMode), p.FunctionalUnitMassTonnes, p.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: insert project %s", p.ID)
}

func (s *SQLiteStore) GetProject(ctx context.Context, id string) (*model.Project, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, metal_type, processing_mode, functional_unit_mass_tonnes, created_at
		 FROM projects WHERE id = ?`, id)
	p, err := scanProject(row)
	if err == sql.ErrNoRows {
		return nil, notFound("project", id)
	}
	return p, eris.Wrapf(err, "sqlite: get project %s", id)
}

func (s *SQLiteStore) ListProjects(ctx context.Context) ([]model.Project, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, metal_type, processing_mode, functional_unit_mass_tonnes, created_at
		 FROM projects ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list projects")
	}
	defer rows.Close()

	var out []model.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan project")
		}
		out = append(out, *p)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list projects iterate")
}

func (s *SQLiteStore) DeleteProject(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin delete project")
	}
	defer tx.Rollback() //nolint:errcheck

	for _, q := range []string{
		`DELETE FROM scenarios WHERE project_id = ?`,
		`DELETE FROM stage_records WHERE project_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return eris.Wrapf(err, "sqlite: cascade delete project %s", id)
		}
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete project %s", id)
	}
	if err := checkRowsAffected(res, "project", id); err != nil {
		return err
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit delete project")
}

// --- Stage records ---

func (s *SQLiteStore) SaveStageRecord(ctx context.Context, rec *model.StageRecord) error {
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}
	doc, err := json.Marshal(rec)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal stage record")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO stage_records (project_id, stage, record, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (project_id, stage) DO UPDATE SET record = excluded.record, updated_at = excluded.updated_at`,
		rec.ProjectID, string(rec.Stage), string(doc), rec.UpdatedAt,
	)
	return eris.Wrapf(err, "sqlite: save stage record %s/%s", rec.ProjectID, rec.Stage)
}

func (s *SQLiteStore) GetStageRecord(ctx context.Context, projectID string, stage model.StageName) (*model.StageRecord, error) {
	var doc string
	err := s.db.QueryRowContext(ctx,
		`SELECT record FROM stage_records WHERE project_id = ? AND stage = ?`,
		projectID, string(stage),
	).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, notFound("stage record", projectID+"/"+string(stage))
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get stage record")
	}
	var rec model.StageRecord
	if err := json.Unmarshal([]byte(doc), &rec); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal stage record")
	}
	return &rec, nil
}

func (s *SQLiteStore) ListStageRecords(ctx context.Context, projectID string) ([]model.StageRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT record FROM stage_records WHERE project_id = ?`, projectID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list stage records")
	}
	defer rows.Close()

	var out []model.StageRecord
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan stage record")
		}
		var rec model.StageRecord
		if err := json.Unmarshal([]byte(doc), &rec); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal stage record")
		}
		out = append(out, rec)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list stage records iterate")
}

// --- Scenarios ---

func (s *SQLiteStore) CreateScenario(ctx context.Context, sc *model.Scenario) error {
	if sc.ID == "" {
		sc.ID = uuid.New().String()
	}
	if sc.CreatedAt.IsZero() {
		sc.CreatedAt = time.Now().UTC()
	}
	doc, err := json.Marshal(sc)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal scenario")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO scenarios (id, project_id, stage, name, scenario, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		sc.ID, sc.ProjectID, string(sc.Stage), sc.Name, string(doc), sc.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: insert scenario %s", sc.ID)
}

func (s *SQLiteStore) GetScenario(ctx context.Context, projectID, scenarioID string) (*model.Scenario, error) {
	var doc string
	err := s.db.QueryRowContext(ctx,
		`SELECT scenario FROM scenarios WHERE project_id = ? AND id = ?`,
		projectID, scenarioID,
	).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, notFound("scenario", scenarioID)
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get scenario")
	}
	var sc model.Scenario
	if err := json.Unmarshal([]byte(doc), &sc); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal scenario")
	}
	return &sc, nil
}

func (s *SQLiteStore) ListScenarios(ctx context.Context, projectID string, stage model.StageName) ([]model.Scenario, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT scenario FROM scenarios WHERE project_id = ? AND stage = ? ORDER BY created_at, id`,
		projectID, string(stage))
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list scenarios")
	}
	defer rows.Close()

	var out []model.Scenario
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan scenario")
		}
		var sc model.Scenario
		if err := json.Unmarshal([]byte(doc), &sc); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal scenario")
		}
		out = append(out, sc)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list scenarios iterate")
}

func (s *SQLiteStore) DeleteScenario(ctx context.Context, projectID, scenarioID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM scenarios WHERE project_id = ? AND id = ?`, projectID, scenarioID)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete scenario %s", scenarioID)
	}
	return checkRowsAffected(res, "scenario", scenarioID)
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return notFound(entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanProject(row scannable) (*model.Project, error) {
	var p model.Project
	var metal, mode string
	if err := row.Scan(&p.ID, &p.Name, &metal, &mode, &p.FunctionalUnitMassTonnes, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.MetalType = model.MetalType(metal)
	p.ProcessingMode = model.ProcessingMode(mode)
	return &p, nil
}
