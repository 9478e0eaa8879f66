package aggregate

import (
	"context"
	"errors"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/metal-lca/internal/model"
)

type memStore struct {
	project *model.Project
	records map[model.StageName]*model.StageRecord
	readErr error
}

func (m *memStore) CreateProject(_ context.Context, p *model.Project) error {
	m.project = p
	return nil
}

func (m *memStore) GetProject(_ context.Context, id string) (*model.Project, error) {
	if m.project == nil || m.project.ID != id {
		return nil, eris.Wrap(model.ErrNotFound, "project")
	}
	return m.project, nil
}

func (m *memStore) ListProjects(_ context.Context) ([]model.Project, error) {
	return []model.Project{*m.project}, nil
}

func (m *memStore) DeleteProject(_ context.Context, _ string) error { return nil }

func (m *memStore) SaveStageRecord(_ context.Context, rec *model.StageRecord) error {
	m.records[rec.Stage] = rec
	return nil
}

func (m *memStore) GetStageRecord(_ context.Context, _ string, st model.StageName) (*model.StageRecord, error) {
	if m.readErr != nil {
		return nil, m.readErr
	}
	rec, ok := m.records[st]
	if !ok {
		return nil, eris.Wrapf(model.ErrNotFound, "stage record %s", st)
	}
	return rec, nil
}

func (m *memStore) ListStageRecords(_ context.Context, _ string) ([]model.StageRecord, error) {
	return nil, nil
}

func newMem(mode model.ProcessingMode) *memStore {
	return &memStore{
		project: &model.Project{ID: "p1", MetalType: model.MetalSteel, ProcessingMode: mode, FunctionalUnitMassTonnes: 1},
		records: map[model.StageName]*model.StageRecord{},
	}
}

func record(st model.StageName, outputs map[string]float64) *model.StageRecord {
	return &model.StageRecord{
		ProjectID: "p1",
		Stage:     st,
		Inputs:    map[string]float64{"X": 1},
		Outputs:   outputs,
	}
}

func TestAggregate_NoRecords(t *testing.T) {
	t.Parallel()

	m := newMem(model.ProcessingLinear)
	res, err := New(m, m).Aggregate(context.Background(), "p1")
	require.NoError(t, err)

	assert.Equal(t, 0.0, res.CarbonFootprint)
	assert.Equal(t, 0.0, res.EnergyFootprint)
	assert.Empty(t, res.Stages)
	require.Len(t, res.Warnings, 5)
	for i, st := range model.PipelineOrder[:5] {
		assert.Equal(t, "Data for stage '"+string(st)+"' is missing", res.Warnings[i])
	}
}

func TestAggregate_CircularPartialPipeline(t *testing.T) {
	t.Parallel()

	m := newMem(model.ProcessingCircular)
	m.records[model.StageMining] = record(model.StageMining, map[string]float64{
		"CarbonFootprintMiningKgCO2e":     100,
		"EnergyFootprintMiningMegajoules": 1000,
		"WaterFootprintMiningCubicMeters": 7,
	})
	m.records[model.StageSmelting] = record(model.StageSmelting, map[string]float64{
		"CarbonFootprintSmeltingKgCO2e":     250.5,
		"EnergyFootprintSmeltingMegajoules": 3000,
	})
	m.records[model.StageEndOfLife] = record(model.StageEndOfLife, map[string]float64{
		"CarbonFootprintEndOfLifeKgCO2e":     10,
		"EnergyFootprintEndOfLifeMegajoules": 20,
		"RecyclingCreditKgCO2e":              900,
	})
	m.records[model.StageUsePhase] = record(model.StageUsePhase, nil)

	res, err := New(m, m).Aggregate(context.Background(), "p1")
	require.NoError(t, err)

	assert.InDelta(t, 360.5, res.CarbonFootprint, 1e-9)
	assert.InDelta(t, 4020, res.EnergyFootprint, 1e-9)
	assert.Equal(t, []string{
		"Data for stage 'Concentration' is missing",
		"Data for stage 'Fabrication' is missing",
		"Stage 'UsePhase' has no outputs",
	}, res.Warnings)

	require.Contains(t, res.Stages, model.StageUsePhase)
	assert.Equal(t, 1.0, res.Stages[model.StageUsePhase].Inputs["X"])
	assert.Len(t, res.Stages, 4)
}

func TestAggregate_LinearIgnoresEndOfLife(t *testing.T) {
	t.Parallel()

	m := newMem(model.ProcessingLinear)
	m.records[model.StageEndOfLife] = record(model.StageEndOfLife, map[string]float64{"CarbonFootprintEndOfLifeKgCO2e": 10})

	res, err := New(m, m).Aggregate(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.CarbonFootprint)
	assert.NotContains(t, res.Stages, model.StageEndOfLife)
}

func TestAggregate_UnknownModeTreatedAsLinear(t *testing.T) {
	t.Parallel()

	m := newMem("Spiral")
	res, err := New(m, m).Aggregate(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, res.Warnings, 6)
	assert.Contains(t, res.Warnings[0], "'Spiral' is not recognised")
}

func TestAggregate_StorageErrorPropagates(t *testing.T) {
	t.Parallel()

	m := newMem(model.ProcessingLinear)
	m.readErr = errors.New("disk on fire")
	_, err := New(m, m).Aggregate(context.Background(), "p1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk on fire")
}

func TestAggregate_UnknownProject(t *testing.T) {
	t.Parallel()

	m := newMem(model.ProcessingLinear)
	_, err := New(m, m).Aggregate(context.Background(), "nope")
	assert.True(t, eris.Is(err, model.ErrNotFound))
}

func TestSummarize_MissingFootprintKeysWarn(t *testing.T) {
	t.Parallel()

	res := Summarize("p1", []model.StageName{model.StageMining}, map[model.StageName]*model.StageRecord{
		model.StageMining: record(model.StageMining, map[string]float64{"WaterFootprintMiningCubicMeters": 3}),
	}, nil)
	assert.Equal(t, []string{
		"Stage 'Mining' has no carbon footprint output",
		"Stage 'Mining' has no energy footprint output",
	}, res.Warnings)
}

func TestContainsLocator_CaseInsensitiveSortedFirst(t *testing.T) {
	t.Parallel()

	outputs := map[string]float64{
		"zCARBONtail":   1,
		"Carbon_direct": 2,
		"energy":        3,
	}
	key, ok := ContainsLocator{}.Locate(outputs, KindCarbon)
	require.True(t, ok)
	assert.Equal(t, "Carbon_direct", key)

	key, ok = ContainsLocator{}.Locate(outputs, KindEnergy)
	require.True(t, ok)
	assert.Equal(t, "energy", key)

	_, ok = ContainsLocator{}.Locate(map[string]float64{"Water": 1}, KindCarbon)
	assert.False(t, ok)
}

func TestAggregate_RegistryLocator(t *testing.T) {
	t.Parallel()

	m := newMem(model.ProcessingLinear)
	m.records[model.StageMining] = record(model.StageMining, map[string]float64{
		"CO2e": 42,
		"MJ":   7,
	})

	agg := New(m, m).WithLocator(RegistryLocator{
		KindCarbon: {"CO2e"},
		KindEnergy: {"MJ"},
	})
	res, err := agg.Aggregate(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 42.0, res.CarbonFootprint)
	assert.Equal(t, 7.0, res.EnergyFootprint)
}
