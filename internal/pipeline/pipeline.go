package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/metal-lca/internal/model"
	"github.com/sells-group/metal-lca/internal/stage"
	"github.com/sells-group/metal-lca/internal/store"
)

// Pipeline exposes computeStage and getStage over the stores.
type Pipeline struct {
	catalog  *stage.Catalog
	eval     *Evaluator
	projects store.ProjectStore
	records  store.StageRecordStore
	now      func() time.Time
}

// New creates a Pipeline.
func New(catalog *stage.Catalog, eval *Evaluator, projects store.ProjectStore, records store.StageRecordStore) *Pipeline {
	return &Pipeline{
		catalog:  catalog,
		eval:     eval,
		projects: projects,
		records:  records,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Definition returns the stage definition for name, or a validation error.
func (p *Pipeline) Definition(name model.StageName) (*stage.Definition, error) {
	def, ok := p.catalog.Get(name)
	if !ok {
		return nil, &model.ValidationError{Fields: map[string]string{"stage": fmt.Sprintf("unknown stage '%s'", name)}}
	}
	return def, nil
}

// ComputeStage validates raw inputs, evaluates the stage and replaces the
// stored record for (projectID, st). Nothing is written unless the whole
// evaluation completes and ctx is still live.
func (p *Pipeline) ComputeStage(ctx context.Context, projectID string, st model.StageName, raw map[string]any) (*model.StageRecord, error) {
	def, err := p.Definition(st)
	if err != nil {
		return nil, err
	}
	project, err := p.projects.GetProject(ctx, projectID)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load project")
	}

	inputs, warnings, err := def.ValidateInputs(raw)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, scopeWarnings(project, st)...)

	ev, err := p.eval.Evaluate(ctx, def, *project, inputs)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "pipeline: submission cancelled before save")
	}

	now := p.now()
	rec := &model.StageRecord{
		ProjectID:      project.ID,
		Stage:          st,
		Inputs:         make(map[string]float64, len(ev.Fields)),
		FieldSources:   make(map[string]model.Provenance, len(ev.Fields)),
		Outputs:        ev.Outputs,
		Classification: ev.Classification,
		Warnings:       append(warnings, ev.Warnings...),
		Metadata:       metadata(now, project, p.eval.FactorVersion(), ev.Fields),
		UpdatedAt:      now,
	}
	for name, fv := range ev.Fields {
		rec.Inputs[name] = fv.Value
		rec.FieldSources[name] = fv.Provenance
	}
	if rec.Warnings == nil {
		rec.Warnings = []string{}
	}

	if err := p.records.SaveStageRecord(ctx, rec); err != nil {
		return nil, eris.Wrap(err, "pipeline: save stage record")
	}

	zap.L().Info("stage computed",
		zap.String("project_id", project.ID),
		zap.String("stage", string(st)),
		zap.Int("user_fields", rec.Metadata.UserFields),
		zap.Int("predicted_fields", rec.Metadata.PredictedFields),
		zap.Int("fallback_fields", rec.Metadata.FallbackFields),
		zap.Int("warnings", len(rec.Warnings)),
	)
	return rec, nil
}

// GetStage returns the stored record for (projectID, st).
func (p *Pipeline) GetStage(ctx context.Context, projectID string, st model.StageName) (*model.StageRecord, error) {
	if _, err := p.Definition(st); err != nil {
		return nil, err
	}
	rec, err := p.records.GetStageRecord(ctx, projectID, st)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: get stage")
	}
	return rec, nil
}

// scopeWarnings notes a stage the project's processing mode does not aggregate.
func scopeWarnings(project *model.Project, st model.StageName) []string {
	for _, in := range project.ProcessingMode.Stages() {
		if in == st {
			return nil
		}
	}
	return []string{fmt.Sprintf("Stage '%s' is outside the %s pipeline and is excluded from aggregation", st, project.ProcessingMode)}
}

func metadata(now time.Time, project *model.Project, factorVersion string, fields map[string]model.FieldValue) model.ComputationMetadata {
	md := model.ComputationMetadata{
		ComputedAt:               now,
		MetalType:                project.MetalType,
		ProcessingMode:           project.ProcessingMode,
		FunctionalUnitMassTonnes: project.FunctionalUnitMassTonnes,
		FactorTableVersion:       factorVersion,
		Confidence:               make(map[string]float64, len(fields)),
	}
	for name, fv := range fields {
		md.Confidence[name] = fv.ConfidencePercent
		switch fv.Provenance {
		case model.ProvenanceUser:
			md.UserFields++
		case model.ProvenanceAIPredicted:
			md.PredictedFields++
		default:
			md.FallbackFields++
		}
	}
	return md
}
