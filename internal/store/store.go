// Package store persists projects, stage records and what-if scenarios.
// Stage records are full-replace documents keyed by (project, stage);
// scenarios are immutable documents keyed by id.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/metal-lca/internal/model"
)

// ProjectStore is the read/write project collection.
type ProjectStore interface {
	CreateProject(ctx context.Context, p *model.Project) error
	GetProject(ctx context.Context, id string) (*model.Project, error)
	ListProjects(ctx context.Context) ([]model.Project, error)
	// DeleteProject removes the project with its stage records and scenarios.
	DeleteProject(ctx context.Context, id string) error
}

// StageRecordStore holds the canonical record per (project, stage).
type StageRecordStore interface {
	// SaveStageRecord inserts or fully replaces the record for its (project, stage).
	SaveStageRecord(ctx context.Context, rec *model.StageRecord) error
	GetStageRecord(ctx context.Context, projectID string, stage model.StageName) (*model.StageRecord, error)
	ListStageRecords(ctx context.Context, projectID string) ([]model.StageRecord, error)
}

// ScenarioStore holds what-if scenarios. Scenarios are never updated.
type ScenarioStore interface {
	CreateScenario(ctx context.Context, sc *model.Scenario) error
	GetScenario(ctx context.Context, projectID, scenarioID string) (*model.Scenario, error)
	ListScenarios(ctx context.Context, projectID string, stage model.StageName) ([]model.Scenario, error)
	DeleteScenario(ctx context.Context, projectID, scenarioID string) error
}

// Store is the full persistence interface.
type Store interface {
	ProjectStore
	StageRecordStore
	ScenarioStore

	Migrate(ctx context.Context) error
	Close() error
}

// Open creates a store for the given driver ("sqlite" or "postgres").
func Open(ctx context.Context, driver, dsn string, poolCfg *PoolConfig) (Store, error) {
	switch driver {
	case "", "sqlite":
		return NewSQLite(dsn)
	case "postgres":
		return NewPostgres(ctx, dsn, poolCfg)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
}

func notFound(entity, id string) error {
	return eris.Wrapf(model.ErrNotFound, "%s %s", entity, id)
}
