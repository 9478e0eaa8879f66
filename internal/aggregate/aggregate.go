// Package aggregate sums footprint outputs across a project's stored stage
// records in pipeline order. Missing data never aborts the traversal; it is
// reported as warnings.
package aggregate

import (
	"context"
	"fmt"
	"math"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/metal-lca/internal/model"
	"github.com/sells-group/metal-lca/internal/store"
)

// Aggregator reads stage records and derives an AggregateResult.
type Aggregator struct {
	projects store.ProjectStore
	records  store.StageRecordStore
	locator  Locator
}

// New creates an Aggregator using the name-contains locator.
func New(projects store.ProjectStore, records store.StageRecordStore) *Aggregator {
	return &Aggregator{projects: projects, records: records, locator: ContainsLocator{}}
}

// WithLocator replaces the output key locator.
func (a *Aggregator) WithLocator(l Locator) *Aggregator {
	a.locator = l
	return a
}

// Aggregate reads each in-scope stage of the project and totals the carbon
// and energy footprints. Only storage failures are returned as errors.
func (a *Aggregator) Aggregate(ctx context.Context, projectID string) (*model.AggregateResult, error) {
	project, err := a.projects.GetProject(ctx, projectID)
	if err != nil {
		return nil, eris.Wrap(err, "aggregate: load project")
	}

	var warnings []string
	if _, known := project.ProcessingMode.StageCount(); !known {
		warnings = append(warnings, fmt.Sprintf("Processing mode '%s' is not recognised; treating as %s", project.ProcessingMode, model.ProcessingLinear))
	}

	stages := project.ProcessingMode.Stages()
	records := make(map[model.StageName]*model.StageRecord, len(stages))
	for _, st := range stages {
		rec, err := a.records.GetStageRecord(ctx, projectID, st)
		if err != nil {
			if eris.Is(err, model.ErrNotFound) {
				continue
			}
			return nil, eris.Wrapf(err, "aggregate: read %s", st)
		}
		records[st] = rec
	}

	res := Summarize(projectID, stages, records, a.locator)
	res.Warnings = append(warnings, res.Warnings...)

	zap.L().Info("project aggregated",
		zap.String("project_id", projectID),
		zap.Int("stages_present", len(records)),
		zap.Int("stages_expected", len(stages)),
		zap.Float64("carbon_footprint", res.CarbonFootprint),
		zap.Float64("energy_footprint", res.EnergyFootprint),
	)
	return res, nil
}

// Summarize folds already-loaded records in the given stage order.
func Summarize(projectID string, stages []model.StageName, records map[model.StageName]*model.StageRecord, locator Locator) *model.AggregateResult {
	if locator == nil {
		locator = ContainsLocator{}
	}
	res := &model.AggregateResult{
		ProjectID: projectID,
		Stages:    make(map[model.StageName]model.StageSummary, len(records)),
		Warnings:  []string{},
	}

	for _, st := range stages {
		rec, ok := records[st]
		if !ok || rec == nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("Data for stage '%s' is missing", st))
			continue
		}

		res.Stages[st] = model.StageSummary{Inputs: rec.Inputs, Outputs: rec.Outputs}
		if len(rec.Outputs) == 0 {
			res.Warnings = append(res.Warnings, fmt.Sprintf("Stage '%s' has no outputs", st))
			continue
		}

		if v, ok := footprint(rec.Outputs, KindCarbon, locator); ok {
			res.CarbonFootprint += v
		} else {
			res.Warnings = append(res.Warnings, fmt.Sprintf("Stage '%s' has no carbon footprint output", st))
		}
		if v, ok := footprint(rec.Outputs, KindEnergy, locator); ok {
			res.EnergyFootprint += v
		} else {
			res.Warnings = append(res.Warnings, fmt.Sprintf("Stage '%s' has no energy footprint output", st))
		}
	}
	return res
}

func footprint(outputs map[string]float64, kind Kind, locator Locator) (float64, bool) {
	key, ok := locator.Locate(outputs, kind)
	if !ok {
		return 0, false
	}
	v := outputs[key]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
