// Package predict is the AI prediction collaborator consumed by the field
// resolver. Implementations estimate missing stage fields from the project
// context and the fields the caller already supplied.
package predict

import (
	"context"

	"github.com/sells-group/metal-lca/internal/model"
)

// ProjectContext is the project information passed along with every request.
type ProjectContext struct {
	MetalType                model.MetalType      `json:"metal_type"`
	ProcessingMode           model.ProcessingMode `json:"processing_mode"`
	FunctionalUnitMassTonnes float64              `json:"functional_unit_mass_tonnes"`
}

// FieldRequest names one field to predict, with its unit and valid range.
type FieldRequest struct {
	Name string  `json:"name"`
	Unit string  `json:"unit"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

// Request asks for predictions of every missing field of one stage.
type Request struct {
	Stage    model.StageName    `json:"stage"`
	Project  ProjectContext     `json:"project"`
	Provided map[string]float64 `json:"provided"`
	Missing  []FieldRequest     `json:"missing"`
}

// MissingNames returns the names of the requested fields.
func (r Request) MissingNames() []string {
	names := make([]string, len(r.Missing))
	for i, f := range r.Missing {
		names[i] = f.Name
	}
	return names
}

// Prediction is one predicted field. Value is whatever the collaborator
// returned and may be non-numeric; ConfidencePercent is nil when omitted.
type Prediction struct {
	Value             any      `json:"value"`
	ConfidencePercent *float64 `json:"confidence_percent,omitempty"`
}

// Result is the outcome of one prediction call. Predictions may cover only a
// subset of the requested fields.
type Result struct {
	Success     bool                  `json:"success"`
	Predictions map[string]Prediction `json:"predictions,omitempty"`
	Error       string                `json:"error,omitempty"`
}

// Predictor predicts missing stage fields. Callers treat a returned error and
// a Result with Success=false the same way.
type Predictor interface {
	PredictFields(ctx context.Context, req Request) (*Result, error)
}

// Disabled is the Predictor used when no prediction service is configured.
type Disabled struct{}

// PredictFields always reports failure so resolution goes straight to fallback.
func (Disabled) PredictFields(_ context.Context, _ Request) (*Result, error) {
	return &Result{Success: false, Error: "AI prediction is not configured"}, nil
}
