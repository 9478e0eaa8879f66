package model

import "time"

// Project is the read-only context a stage computation runs against.
type Project struct {
	ID                       string         `json:"id"`
	Name                     string         `json:"name"`
	MetalType                MetalType      `json:"metal_type"`
	ProcessingMode           ProcessingMode `json:"processing_mode"`
	FunctionalUnitMassTonnes float64        `json:"functional_unit_mass_tonnes"`
	CreatedAt                time.Time      `json:"created_at"`
}

// ComputationMetadata records how a stage record's values were produced.
type ComputationMetadata struct {
	ComputedAt               time.Time          `json:"computed_at"`
	MetalType                MetalType          `json:"metal_type"`
	ProcessingMode           ProcessingMode     `json:"processing_mode"`
	FunctionalUnitMassTonnes float64            `json:"functional_unit_mass_tonnes"`
	FactorTableVersion       string             `json:"factor_table_version,omitempty"`
	Confidence               map[string]float64 `json:"confidence"`
	UserFields               int                `json:"user_fields"`
	PredictedFields          int                `json:"predicted_fields"`
	FallbackFields           int                `json:"fallback_fields"`
}

// StageRecord is the canonical, idempotently replaced result for one
// (project, stage) pair.
type StageRecord struct {
	ProjectID      string                `json:"project_id"`
	Stage          StageName             `json:"stage"`
	Inputs         map[string]float64    `json:"inputs"`
	FieldSources   map[string]Provenance `json:"field_sources"`
	Outputs        map[string]float64    `json:"outputs"`
	Classification Classification        `json:"classification,omitempty"`
	Warnings       []string              `json:"warnings"`
	Metadata       ComputationMetadata   `json:"computation_metadata"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

// Scenario is an immutable what-if recomputation of one stage.
type Scenario struct {
	ID             string                `json:"id"`
	ProjectID      string                `json:"project_id"`
	Stage          StageName             `json:"stage"`
	Name           string                `json:"name"`
	Inputs         map[string]FieldValue `json:"inputs"`
	Outputs        map[string]float64    `json:"outputs"`
	Classification Classification        `json:"classification,omitempty"`
	Warnings       []string              `json:"warnings"`
	CreatedAt      time.Time             `json:"created_at"`
}

// StageSummary is the per-stage slice of an aggregate.
type StageSummary struct {
	Inputs  map[string]float64 `json:"inputs,omitempty"`
	Outputs map[string]float64 `json:"outputs,omitempty"`
}

// AggregateResult is derived on read from the stored stage records.
type AggregateResult struct {
	ProjectID       string                     `json:"project_id"`
	CarbonFootprint float64                    `json:"carbon_footprint"`
	EnergyFootprint float64                    `json:"energy_footprint"`
	Stages          map[StageName]StageSummary `json:"stages"`
	Warnings        []string                   `json:"warnings"`
}
