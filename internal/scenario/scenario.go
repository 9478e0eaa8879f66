// Package scenario evaluates what-if variants of a stage. A scenario runs the
// same resolve/compute/classify chain as a stage submission but is stored as
// its own immutable document and never touches the stage record.
package scenario

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/metal-lca/internal/model"
	"github.com/sells-group/metal-lca/internal/pipeline"
	"github.com/sells-group/metal-lca/internal/stage"
	"github.com/sells-group/metal-lca/internal/store"
)

// Service creates, lists and deletes scenarios.
type Service struct {
	catalog   *stage.Catalog
	eval      *pipeline.Evaluator
	projects  store.ProjectStore
	scenarios store.ScenarioStore
	now       func() time.Time
}

// New creates a scenario Service.
func New(catalog *stage.Catalog, eval *pipeline.Evaluator, projects store.ProjectStore, scenarios store.ScenarioStore) *Service {
	return &Service{
		catalog:   catalog,
		eval:      eval,
		projects:  projects,
		scenarios: scenarios,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create evaluates hypothetical inputs for one stage and stores the result.
// Omitted fields are resolved exactly as in a stage submission.
func (s *Service) Create(ctx context.Context, projectID string, st model.StageName, name string, raw map[string]any) (*model.Scenario, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &model.ValidationError{Fields: map[string]string{"name": "scenario name is required"}}
	}
	def, ok := s.catalog.Get(st)
	if !ok {
		return nil, &model.ValidationError{Fields: map[string]string{"stage": fmt.Sprintf("unknown stage '%s'", st)}}
	}
	project, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		return nil, eris.Wrap(err, "scenario: load project")
	}

	inputs, warnings, err := def.ValidateInputs(raw)
	if err != nil {
		return nil, err
	}

	ev, err := s.eval.Evaluate(ctx, def, *project, inputs)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "scenario: cancelled before save")
	}

	sc := &model.Scenario{
		ID:             uuid.New().String(),
		ProjectID:      project.ID,
		Stage:          st,
		Name:           name,
		Inputs:         ev.Fields,
		Outputs:        ev.Outputs,
		Classification: ev.Classification,
		Warnings:       append(warnings, ev.Warnings...),
		CreatedAt:      s.now(),
	}
	if sc.Warnings == nil {
		sc.Warnings = []string{}
	}
	if err := s.scenarios.CreateScenario(ctx, sc); err != nil {
		return nil, eris.Wrap(err, "scenario: save")
	}

	zap.L().Info("scenario created",
		zap.String("project_id", project.ID),
		zap.String("stage", string(st)),
		zap.String("scenario_id", sc.ID),
		zap.Int("warnings", len(sc.Warnings)),
	)
	return sc, nil
}

// List returns the project's scenarios for one stage, oldest first.
func (s *Service) List(ctx context.Context, projectID string, st model.StageName) ([]model.Scenario, error) {
	if _, ok := s.catalog.Get(st); !ok {
		return nil, &model.ValidationError{Fields: map[string]string{"stage": fmt.Sprintf("unknown stage '%s'", st)}}
	}
	list, err := s.scenarios.ListScenarios(ctx, projectID, st)
	if err != nil {
		return nil, eris.Wrap(err, "scenario: list")
	}
	if list == nil {
		list = []model.Scenario{}
	}
	return list, nil
}

// Get returns one scenario.
func (s *Service) Get(ctx context.Context, projectID, scenarioID string) (*model.Scenario, error) {
	sc, err := s.scenarios.GetScenario(ctx, projectID, scenarioID)
	if err != nil {
		return nil, eris.Wrap(err, "scenario: get")
	}
	return sc, nil
}

// Delete removes one scenario by id.
func (s *Service) Delete(ctx context.Context, projectID, scenarioID string) error {
	if err := s.scenarios.DeleteScenario(ctx, projectID, scenarioID); err != nil {
		return eris.Wrap(err, "scenario: delete")
	}
	zap.L().Info("scenario deleted", zap.String("project_id", projectID), zap.String("scenario_id", scenarioID))
	return nil
}
