package model

import "strings"

// StageName identifies one phase of the metal life cycle.
type StageName string

const (
	StageMining        StageName = "Mining"
	StageConcentration StageName = "Concentration"
	StageSmelting      StageName = "Smelting"
	StageFabrication   StageName = "Fabrication"
	StageUsePhase      StageName = "UsePhase"
	StageEndOfLife     StageName = "EndOfLife"
)

// PipelineOrder is the fixed order in which stages are read and reported.
var PipelineOrder = []StageName{
	StageMining,
	StageConcentration,
	StageSmelting,
	StageFabrication,
	StageUsePhase,
	StageEndOfLife,
}

// ParseStageName matches a stage name case-insensitively. Hyphens, spaces and
// underscores are ignored so "end-of-life" and "Use Phase" both resolve.
func ParseStageName(s string) (StageName, bool) {
	norm := normalizeStageKey(s)
	for _, st := range PipelineOrder {
		if normalizeStageKey(string(st)) == norm {
			return st, true
		}
	}
	return "", false
}

func normalizeStageKey(s string) string {
	r := strings.NewReplacer("-", "", "_", "", " ", "")
	return strings.ToLower(r.Replace(strings.TrimSpace(s)))
}

// ProcessingMode selects how many stages a project's pipeline covers.
type ProcessingMode string

const (
	ProcessingLinear   ProcessingMode = "Linear"
	ProcessingCircular ProcessingMode = "Circular"
)

// StageCount returns 5 for Linear and 6 for Circular. The second return is
// false for an unrecognised mode, in which case the Linear count is returned.
func (m ProcessingMode) StageCount() (int, bool) {
	switch ProcessingMode(strings.TrimSpace(string(m))) {
	case ProcessingCircular:
		return 6, true
	case ProcessingLinear:
		return 5, true
	default:
		return 5, false
	}
}

// Stages returns the in-scope stages for the mode in pipeline order.
func (m ProcessingMode) Stages() []StageName {
	n, _ := m.StageCount()
	return PipelineOrder[:n:n]
}

// MetalType names the metal a project produces. Fallback constants are keyed on it.
type MetalType string

const (
	MetalCopper    MetalType = "Copper"
	MetalAluminium MetalType = "Aluminium"
	MetalSteel     MetalType = "Steel"
)
