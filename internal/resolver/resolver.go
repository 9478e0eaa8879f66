// Package resolver resolves every required field of a stage to a value with
// provenance and confidence. Strategies are tried in order (user supplied,
// AI predicted, static fallback); each field takes the first value produced.
package resolver

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/metal-lca/internal/model"
	"github.com/sells-group/metal-lca/internal/predict"
	"github.com/sells-group/metal-lca/internal/stage"
)

// Request is one resolution job for a stage.
type Request struct {
	Definition *stage.Definition
	Project    model.Project
	// Inputs are validated caller-supplied values; absent keys are missing.
	Inputs map[string]float64
}

// Result holds one FieldValue per required field plus any degradation warnings.
type Result struct {
	Fields   map[string]model.FieldValue
	Warnings []string
}

// Values returns the bare numeric value of every resolved field.
func (r *Result) Values() map[string]float64 {
	out := make(map[string]float64, len(r.Fields))
	for name, fv := range r.Fields {
		out[name] = fv.Value
	}
	return out
}

// Sources returns the provenance of every resolved field.
func (r *Result) Sources() map[string]model.Provenance {
	out := make(map[string]model.Provenance, len(r.Fields))
	for name, fv := range r.Fields {
		out[name] = fv.Provenance
	}
	return out
}

// Strategy is one resolution tier. Resolve returns values for whichever of
// the pending fields it can satisfy; resolved holds the fields settled by
// earlier tiers. A strategy never fails; problems become warnings.
type Strategy interface {
	Provenance() model.Provenance
	Resolve(ctx context.Context, req Request, resolved map[string]model.FieldValue, pending []stage.FieldSpec) (map[string]model.FieldValue, []string)
}

// Resolver walks an ordered strategy list until every field has a value.
type Resolver struct {
	strategies []Strategy
}

// New creates a resolver over the given strategies, tried in order.
func New(strategies ...Strategy) *Resolver {
	return &Resolver{strategies: strategies}
}

// NewDefault creates the standard three-tier resolver.
func NewDefault(p predict.Predictor, timeout time.Duration, aiConfidence, fallbackConfidence float64) *Resolver {
	return New(
		UserSupplied{},
		AIPredicted{Predictor: p, Timeout: timeout, DefaultConfidence: aiConfidence},
		StaticFallback{Confidence: fallbackConfidence},
	)
}

// Resolve produces a FieldValue for every field of req.Definition. Fields no
// strategy could resolve get the sentinel value 0 with a warning.
func (r *Resolver) Resolve(ctx context.Context, req Request) *Result {
	res := &Result{Fields: make(map[string]model.FieldValue, len(req.Definition.Fields))}
	pending := append([]stage.FieldSpec(nil), req.Definition.Fields...)

	for _, s := range r.strategies {
		if len(pending) == 0 {
			break
		}
		got, warnings := s.Resolve(ctx, req, res.Fields, pending)
		res.Warnings = append(res.Warnings, warnings...)
		zap.L().Debug("resolution tier finished",
			zap.String("stage", string(req.Definition.Name)),
			zap.String("provenance", string(s.Provenance())),
			zap.Int("resolved", len(got)),
		)

		remaining := pending[:0]
		for _, f := range pending {
			fv, ok := got[f.Name]
			if !ok {
				remaining = append(remaining, f)
				continue
			}
			res.Fields[f.Name] = fv
		}
		pending = remaining
	}

	for _, f := range pending {
		res.Fields[f.Name] = model.FieldValue{Value: SentinelValue, Provenance: model.ProvenanceFallback, ConfidencePercent: 0}
		res.Warnings = append(res.Warnings, sentinelWarning(f.Name, req.Project.MetalType))
	}

	if len(res.Warnings) > 0 {
		zap.L().Warn("stage resolved with degraded fields",
			zap.String("project_id", req.Project.ID),
			zap.String("stage", string(req.Definition.Name)),
			zap.Int("warnings", len(res.Warnings)),
		)
	}
	return res
}
