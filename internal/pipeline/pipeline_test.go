package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/metal-lca/internal/compute"
	"github.com/sells-group/metal-lca/internal/factors"
	"github.com/sells-group/metal-lca/internal/model"
	"github.com/sells-group/metal-lca/internal/predict"
	"github.com/sells-group/metal-lca/internal/resolver"
	"github.com/sells-group/metal-lca/internal/stage"
	"github.com/sells-group/metal-lca/internal/store"
	"github.com/sells-group/metal-lca/internal/threshold"
)

// stubPredictor answers every requested field with a fixed value, or fails.
type stubPredictor struct {
	value      float64
	confidence *float64
	err        error
	calls      int
}

func (s *stubPredictor) PredictFields(_ context.Context, req predict.Request) (*predict.Result, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	preds := make(map[string]predict.Prediction, len(req.Missing))
	for _, f := range req.Missing {
		v := s.value
		if v > f.Max {
			v = f.Max
		}
		if v < f.Min {
			v = f.Min
		}
		preds[f.Name] = predict.Prediction{Value: v, ConfidencePercent: s.confidence}
	}
	return &predict.Result{Success: true, Predictions: preds}, nil
}

type fixture struct {
	pipeline *Pipeline
	store    store.Store
	project  *model.Project
}

func newFixture(t *testing.T, p predict.Predictor, mode model.ProcessingMode) *fixture {
	t.Helper()

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "lca.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	project := &model.Project{
		Name:                     "Test smelter",
		MetalType:                model.MetalCopper,
		ProcessingMode:           mode,
		FunctionalUnitMassTonnes: 1,
	}
	require.NoError(t, st.CreateProject(context.Background(), project))

	return &fixture{
		pipeline: New(stage.Default(), newEvaluator(t, p), st, st),
		store:    st,
		project:  project,
	}
}

func newEvaluator(t *testing.T, p predict.Predictor) *Evaluator {
	t.Helper()
	ft, err := factors.Default()
	require.NoError(t, err)
	engine, err := compute.NewEngine(ft)
	require.NoError(t, err)
	tt, err := threshold.Default()
	require.NoError(t, err)
	return NewEvaluator(resolver.NewDefault(p, time.Second, 0, 0), engine, threshold.NewClassifier(tt))
}

func miningInputs() map[string]any {
	return map[string]any{
		"OreGradePercent":                        1.5,
		"DieselUseLitresPerTonneOre":             2.0,
		"ElectricityUseKilowattHoursPerTonneOre": 250,
		"ExplosivesUseKilogramsPerTonneOre":      0.3,
		"WaterUseCubicMetersPerTonneOre":         "0.8",
		"TransportDistanceKilometersMining":      120,
	}
}

func TestComputeStage_AllUserSupplied(t *testing.T) {
	t.Parallel()
	f := newFixture(t, &stubPredictor{err: errors.New("unused")}, model.ProcessingLinear)

	rec, err := f.pipeline.ComputeStage(context.Background(), f.project.ID, model.StageMining, miningInputs())
	require.NoError(t, err)

	for name := range miningInputs() {
		assert.Equal(t, model.ProvenanceUser, rec.FieldSources[name], name)
		assert.Equal(t, 100.0, rec.Metadata.Confidence[name], name)
	}
	assert.Equal(t, 6, rec.Metadata.UserFields)
	assert.Equal(t, "2024.1", rec.Metadata.FactorTableVersion)
	assert.Equal(t, 0.8, rec.Inputs["WaterUseCubicMetersPerTonneOre"])

	assert.Equal(t, model.SeverityMedium, rec.Classification["OreGradePercent"])
	assert.Equal(t, model.SeverityVeryHigh, rec.Classification["ElectricityUseKilowattHoursPerTonneOre"])
	assert.Contains(t, rec.Warnings, "Field 'ElectricityUseKilowattHoursPerTonneOre' is classified as Very High")
	assert.Len(t, rec.Outputs, 4)

	stored, err := f.pipeline.GetStage(context.Background(), f.project.ID, model.StageMining)
	require.NoError(t, err)
	assert.Equal(t, rec.Outputs, stored.Outputs)
	assert.Equal(t, rec.FieldSources, stored.FieldSources)
}

func TestComputeStage_AIPredicted(t *testing.T) {
	t.Parallel()
	c := 77.0
	p := &stubPredictor{value: 40, confidence: &c}
	f := newFixture(t, p, model.ProcessingLinear)

	rec, err := f.pipeline.ComputeStage(context.Background(), f.project.ID, model.StageConcentration, map[string]any{
		"ConcentrateRecoveryPercent": 90,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, p.calls)

	assert.Equal(t, model.ProvenanceUser, rec.FieldSources["ConcentrateRecoveryPercent"])
	for _, name := range []string{
		"GrindingEnergyKilowattHoursPerTonneConcentrate",
		"FlotationReagentKilogramsPerTonneConcentrate",
		"ProcessWaterCubicMetersPerTonneConcentrate",
		"TailingsTonnesPerTonneConcentrate",
	} {
		assert.Equal(t, model.ProvenanceAIPredicted, rec.FieldSources[name], name)
		assert.Equal(t, 77.0, rec.Metadata.Confidence[name], name)
	}
	assert.Equal(t, 4, rec.Metadata.PredictedFields)
}

func TestComputeStage_PredictorFailureFallsBack(t *testing.T) {
	t.Parallel()
	f := newFixture(t, &stubPredictor{err: errors.New("timeout")}, model.ProcessingLinear)

	rec, err := f.pipeline.ComputeStage(context.Background(), f.project.ID, model.StageFabrication, map[string]any{})
	require.NoError(t, err)

	for name, src := range rec.FieldSources {
		assert.Equal(t, model.ProvenanceFallback, src, name)
		assert.Equal(t, resolver.DefaultFallbackConfidence, rec.Metadata.Confidence[name], name)
	}
	assert.Len(t, rec.Outputs, 4)
	assert.Equal(t, 5, rec.Metadata.FallbackFields)
	assert.NotEmpty(t, rec.Warnings)
}

func TestComputeStage_Idempotent(t *testing.T) {
	t.Parallel()
	c := 65.0
	f := newFixture(t, &stubPredictor{value: 3, confidence: &c}, model.ProcessingLinear)
	ctx := context.Background()

	inputs := map[string]any{"SmeltEnergyKilowattHoursPerTonneMetal": 3500, "SmelterMetalYieldPercent": 96.5}
	first, err := f.pipeline.ComputeStage(ctx, f.project.ID, model.StageSmelting, inputs)
	require.NoError(t, err)
	second, err := f.pipeline.ComputeStage(ctx, f.project.ID, model.StageSmelting, inputs)
	require.NoError(t, err)
	assert.Equal(t, first.Outputs, second.Outputs)

	recs, err := f.store.ListStageRecords(ctx, f.project.ID)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestComputeStage_ValidationErrorWritesNothing(t *testing.T) {
	t.Parallel()
	f := newFixture(t, predict.Disabled{}, model.ProcessingLinear)
	ctx := context.Background()

	_, err := f.pipeline.ComputeStage(ctx, f.project.ID, model.StageMining, map[string]any{
		"OreGradePercent":            500,
		"DieselUseLitresPerTonneOre": "lots",
	})
	require.Error(t, err)
	var vErr *model.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Len(t, vErr.Fields, 2)

	_, err = f.pipeline.GetStage(ctx, f.project.ID, model.StageMining)
	assert.True(t, eris.Is(err, model.ErrNotFound))
}

func TestComputeStage_CancelledWritesNothing(t *testing.T) {
	t.Parallel()
	f := newFixture(t, predict.Disabled{}, model.ProcessingLinear)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.pipeline.ComputeStage(ctx, f.project.ID, model.StageMining, miningInputs())
	require.Error(t, err)

	_, err = f.pipeline.GetStage(context.Background(), f.project.ID, model.StageMining)
	assert.True(t, eris.Is(err, model.ErrNotFound))
}

func TestComputeStage_UnknownProjectAndStage(t *testing.T) {
	t.Parallel()
	f := newFixture(t, predict.Disabled{}, model.ProcessingLinear)
	ctx := context.Background()

	_, err := f.pipeline.ComputeStage(ctx, "missing", model.StageMining, miningInputs())
	assert.True(t, eris.Is(err, model.ErrNotFound))

	_, err = f.pipeline.ComputeStage(ctx, f.project.ID, "Refining", miningInputs())
	var vErr *model.ValidationError
	assert.True(t, errors.As(err, &vErr))
}

func TestComputeStage_UnknownFieldAndScopeWarnings(t *testing.T) {
	t.Parallel()
	f := newFixture(t, predict.Disabled{}, model.ProcessingLinear)

	rec, err := f.pipeline.ComputeStage(context.Background(), f.project.ID, model.StageEndOfLife, map[string]any{
		"CollectionRatePercent": 90,
		"Colour":                "red",
	})
	require.NoError(t, err)

	joined := strings.Join(rec.Warnings, "\n")
	assert.Contains(t, joined, "Field 'Colour' is not an input of stage 'EndOfLife'")
	assert.Contains(t, joined, "outside the Linear pipeline")
	_, ok := rec.Inputs["Colour"]
	assert.False(t, ok)
}

func TestSeverityWarnings_Sorted(t *testing.T) {
	t.Parallel()

	got := severityWarnings(model.Classification{
		"B": model.SeverityVeryHigh,
		"A": model.SeverityHigh,
		"C": model.SeverityMedium,
		"D": model.SeveritySafe,
	})
	assert.Equal(t, []string{
		"Field 'A' is classified as High",
		"Field 'B' is classified as Very High",
	}, got)
}
