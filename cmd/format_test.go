package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/metal-lca/internal/model"
)

func TestParseInputs_Pairs(t *testing.T) {
	got, err := parseInputs([]string{"OreGradePercent=1.2", " DieselUseLitresPerTonneOre = 3 "}, "")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"OreGradePercent":            "1.2",
		"DieselUseLitresPerTonneOre": "3",
	}, got)
}

func TestParseInputs_FileThenPairs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inputs.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"OreGradePercent": 0.8, "WaterUseCubicMetersPerTonneOre": 1}`), 0o644))

	got, err := parseInputs([]string{"OreGradePercent=2"}, path)
	require.NoError(t, err)
	assert.Equal(t, "2", got["OreGradePercent"])
	assert.Equal(t, 1.0, got["WaterUseCubicMetersPerTonneOre"])
}

func TestParseInputs_Errors(t *testing.T) {
	_, err := parseInputs([]string{"OreGradePercent"}, "")
	assert.Error(t, err)

	_, err = parseInputs([]string{"=3"}, "")
	assert.Error(t, err)

	_, err = parseInputs(nil, filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestFormatProjects(t *testing.T) {
	var buf bytes.Buffer
	formatProjects(&buf, []model.Project{{
		ID:                       "0123456789abcdef",
		Name:                     "Rod mill",
		MetalType:                model.MetalCopper,
		ProcessingMode:           model.ProcessingCircular,
		FunctionalUnitMassTonnes: 2.5,
		CreatedAt:                time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
	}})

	out := buf.String()
	assert.Contains(t, out, "01234567")
	assert.NotContains(t, out, "0123456789abcdef")
	assert.Contains(t, out, "Rod mill")
	assert.Contains(t, out, "Circular")
	assert.Contains(t, out, "2.5")
	assert.Contains(t, out, "2026-03-01 09:30")
}

func TestFormatStageRecord(t *testing.T) {
	var buf bytes.Buffer
	formatStageRecord(&buf, &model.StageRecord{
		ProjectID:      "p1",
		Stage:          model.StageMining,
		Inputs:         map[string]float64{"OreGradePercent": 0.5},
		FieldSources:   map[string]model.Provenance{"OreGradePercent": model.ProvenanceUser},
		Outputs:        map[string]float64{"CarbonFootprintMiningKgCO2e": 1057.5},
		Classification: model.Classification{"OreGradePercent": model.SeverityHigh},
		Warnings:       []string{"Field 'OreGradePercent' is classified as High"},
		Metadata:       model.ComputationMetadata{Confidence: map[string]float64{"OreGradePercent": 100}},
	})

	out := buf.String()
	assert.Contains(t, out, "Mining")
	assert.Contains(t, out, "OreGradePercent")
	assert.Contains(t, out, "user")
	assert.Contains(t, out, "1057.5")
	assert.Contains(t, out, "Warnings:")
	assert.Contains(t, out, "  - Field 'OreGradePercent' is classified as High")
}

func TestFormatAggregate(t *testing.T) {
	var buf bytes.Buffer
	formatAggregate(&buf, &model.AggregateResult{
		ProjectID:       "p1",
		CarbonFootprint: 1200,
		EnergyFootprint: 9000,
		Stages:          map[model.StageName]model.StageSummary{model.StageMining: {}},
		Warnings:        []string{"Data for stage 'Smelting' is missing"},
	})

	out := buf.String()
	assert.Contains(t, out, "1200")
	assert.Contains(t, out, "9000")
	assert.Regexp(t, `Mining\s+true`, out)
	assert.Regexp(t, `Smelting\s+false`, out)
	assert.Contains(t, out, "Data for stage 'Smelting' is missing")
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "abc", truncateID("abc"))
	assert.Equal(t, "12345678", truncateID("123456789"))
}
