package resolver

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/metal-lca/internal/model"
	"github.com/sells-group/metal-lca/internal/predict"
	"github.com/sells-group/metal-lca/internal/stage"
)

const (
	// DefaultAIConfidence applies when the predictor omits a confidence.
	DefaultAIConfidence = 60.0
	// DefaultFallbackConfidence is attached to every static fallback value.
	DefaultFallbackConfidence = 50.0
	// SentinelValue is used when a field has no fallback for the metal type.
	SentinelValue = 0.0
)

// UserSupplied takes validated caller inputs at full confidence.
type UserSupplied struct{}

func (UserSupplied) Provenance() model.Provenance { return model.ProvenanceUser }

func (UserSupplied) Resolve(_ context.Context, req Request, _ map[string]model.FieldValue, pending []stage.FieldSpec) (map[string]model.FieldValue, []string) {
	out := make(map[string]model.FieldValue)
	for _, f := range pending {
		v, ok := req.Inputs[f.Name]
		if !ok || !f.ValidRange.Contains(v) {
			continue
		}
		out[f.Name] = model.FieldValue{
			Value:             v,
			Provenance:        model.ProvenanceUser,
			ConfidencePercent: model.UserConfidencePercent,
		}
	}
	return out, nil
}

// AIPredicted asks the predictor for every pending field in one call bounded
// by Timeout. Errors, timeouts, panics and unusable values leave the field
// pending for the next tier.
type AIPredicted struct {
	Predictor         predict.Predictor
	Timeout           time.Duration
	DefaultConfidence float64
}

func (AIPredicted) Provenance() model.Provenance { return model.ProvenanceAIPredicted }

func (s AIPredicted) Resolve(ctx context.Context, req Request, resolved map[string]model.FieldValue, pending []stage.FieldSpec) (map[string]model.FieldValue, []string) {
	if s.Predictor == nil {
		return nil, nil
	}

	preq := predict.Request{
		Stage: req.Definition.Name,
		Project: predict.ProjectContext{
			MetalType:                req.Project.MetalType,
			ProcessingMode:           req.Project.ProcessingMode,
			FunctionalUnitMassTonnes: req.Project.FunctionalUnitMassTonnes,
		},
		Provided: make(map[string]float64, len(resolved)),
		Missing:  make([]predict.FieldRequest, len(pending)),
	}
	for name, fv := range resolved {
		if fv.Provenance == model.ProvenanceUser {
			preq.Provided[name] = fv.Value
		}
	}
	for i, f := range pending {
		preq.Missing[i] = predict.FieldRequest{Name: f.Name, Unit: f.Unit, Min: f.ValidRange.Min, Max: f.ValidRange.Max}
	}

	res, err := s.call(ctx, preq)
	if err != nil {
		return nil, []string{fmt.Sprintf("AI prediction unavailable for stage '%s': %v", req.Definition.Name, err)}
	}
	if res == nil || !res.Success {
		reason := "no result"
		if res != nil && res.Error != "" {
			reason = res.Error
		}
		return nil, []string{fmt.Sprintf("AI prediction unavailable for stage '%s': %s", req.Definition.Name, reason)}
	}

	defConf := s.DefaultConfidence
	if defConf <= 0 {
		defConf = DefaultAIConfidence
	}

	out := make(map[string]model.FieldValue)
	var warnings []string
	for _, f := range pending {
		p, ok := res.Predictions[f.Name]
		if !ok {
			continue
		}
		v, numeric := stage.ToFloat(p.Value)
		if !numeric {
			warnings = append(warnings, fmt.Sprintf("AI prediction for field '%s' was not numeric and was discarded", f.Name))
			continue
		}
		if !f.ValidRange.Contains(v) {
			warnings = append(warnings, fmt.Sprintf("AI prediction %g for field '%s' is outside [%g, %g] and was discarded", v, f.Name, f.ValidRange.Min, f.ValidRange.Max))
			continue
		}
		conf := defConf
		if p.ConfidencePercent != nil {
			conf = *p.ConfidencePercent
		}
		out[f.Name] = model.FieldValue{
			Value:             v,
			Provenance:        model.ProvenanceAIPredicted,
			ConfidencePercent: model.ClampConfidence(conf),
		}
	}
	return out, warnings
}

type callResult struct {
	res *predict.Result
	err error
}

// call runs the predictor in its own goroutine so a collaborator that ignores
// ctx still cannot hold the stage past the timeout.
func (s AIPredicted) call(ctx context.Context, req predict.Request) (*predict.Result, error) {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	done := make(chan callResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- callResult{err: eris.Errorf("predictor panicked: %v", r)}
			}
		}()
		res, err := s.Predictor.PredictFields(ctx, req)
		done <- callResult{res: res, err: err}
	}()

	select {
	case out := <-done:
		return out.res, out.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// StaticFallback uses the metal-specific constant, else the metal-agnostic default.
type StaticFallback struct {
	Confidence float64
}

func (StaticFallback) Provenance() model.Provenance { return model.ProvenanceFallback }

func (s StaticFallback) Resolve(_ context.Context, req Request, _ map[string]model.FieldValue, pending []stage.FieldSpec) (map[string]model.FieldValue, []string) {
	conf := s.Confidence
	if conf <= 0 {
		conf = DefaultFallbackConfidence
	}

	out := make(map[string]model.FieldValue)
	var warnings []string
	for _, f := range pending {
		v, ok := f.Fallback(req.Project.MetalType)
		if !ok {
			continue
		}
		out[f.Name] = model.FieldValue{
			Value:             v,
			Provenance:        model.ProvenanceFallback,
			ConfidencePercent: model.ClampConfidence(conf),
		}
		warnings = append(warnings, fmt.Sprintf("Field '%s' was not supplied or predicted; using static fallback %g", f.Name, v))
	}
	return out, warnings
}

func sentinelWarning(field string, metal model.MetalType) string {
	return fmt.Sprintf("Field '%s' has no fallback for metal type '%s'; using sentinel value %g", field, metal, SentinelValue)
}
