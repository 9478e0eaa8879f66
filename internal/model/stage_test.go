package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStageName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want StageName
		ok   bool
	}{
		{"Mining", StageMining, true},
		{"smelting", StageSmelting, true},
		{"use-phase", StageUsePhase, true},
		{"Use Phase", StageUsePhase, true},
		{"end_of_life", StageEndOfLife, true},
		{" Concentration ", StageConcentration, true},
		{"refining", "", false},
		{"", "", false},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			t.Parallel()
			got, ok := ParseStageName(tc.in)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestProcessingMode_Stages(t *testing.T) {
	t.Parallel()

	linear := ProcessingLinear.Stages()
	assert.Len(t, linear, 5)
	assert.Equal(t, StageUsePhase, linear[4])

	circular := ProcessingCircular.Stages()
	assert.Len(t, circular, 6)
	assert.Equal(t, StageEndOfLife, circular[5])

	n, ok := ProcessingMode("Spiral").StageCount()
	assert.False(t, ok)
	assert.Equal(t, 5, n)
}

func TestProcessingMode_StagesAppendLeavesOrder(t *testing.T) {
	extended := append(ProcessingLinear.Stages(), StageName("Refining"))
	assert.Len(t, extended, 6)
	assert.Equal(t, StageEndOfLife, PipelineOrder[5])
}

func TestSeverity_Rank(t *testing.T) {
	t.Parallel()

	assert.Less(t, SeveritySafe.Rank(), SeverityMedium.Rank())
	assert.Less(t, SeverityMedium.Rank(), SeverityHigh.Rank())
	assert.Less(t, SeverityHigh.Rank(), SeverityVeryHigh.Rank())
	assert.Equal(t, -1, Severity("Extreme").Rank())
}

func TestClampConfidence(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.0, ClampConfidence(-5))
	assert.Equal(t, 100.0, ClampConfidence(140))
	assert.Equal(t, 72.5, ClampConfidence(72.5))
}

func TestValidationError_Message(t *testing.T) {
	t.Parallel()

	err := &ValidationError{Fields: map[string]string{
		"b": "out of range",
		"a": "not a number",
	}}
	assert.Equal(t, "validation failed: a: not a number; b: out of range", err.Error())
}
