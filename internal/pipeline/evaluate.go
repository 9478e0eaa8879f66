// Package pipeline runs a stage submission through resolution, computation
// and classification, and persists the canonical stage record.
package pipeline

import (
	"context"
	"fmt"
	"sort"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/metal-lca/internal/compute"
	"github.com/sells-group/metal-lca/internal/model"
	"github.com/sells-group/metal-lca/internal/resolver"
	"github.com/sells-group/metal-lca/internal/stage"
	"github.com/sells-group/metal-lca/internal/threshold"
)

// Evaluation is the in-memory result of one resolve/compute/classify run.
type Evaluation struct {
	Fields         map[string]model.FieldValue
	Outputs        map[string]float64
	Classification model.Classification
	Warnings       []string
}

// Evaluator chains the field resolver, the computation engine and the
// threshold classifier. It holds no per-request state.
type Evaluator struct {
	resolver   *resolver.Resolver
	engine     *compute.Engine
	classifier *threshold.Classifier
}

// NewEvaluator creates an Evaluator.
func NewEvaluator(r *resolver.Resolver, e *compute.Engine, c *threshold.Classifier) *Evaluator {
	return &Evaluator{resolver: r, engine: e, classifier: c}
}

// FactorVersion returns the version of the emission factor table in use.
func (ev *Evaluator) FactorVersion() string {
	return ev.engine.FactorVersion()
}

// Evaluate resolves every field of def, then computes outputs and classifies
// the resolved inputs concurrently. Outputs are classified once computed.
// The only error returned is a configuration error from the engine.
func (ev *Evaluator) Evaluate(ctx context.Context, def *stage.Definition, project model.Project, inputs map[string]float64) (*Evaluation, error) {
	res := ev.resolver.Resolve(ctx, resolver.Request{
		Definition: def,
		Project:    project,
		Inputs:     inputs,
	})
	values := res.Values()

	var (
		outputs         map[string]float64
		computeWarnings []string
		inputClass      model.Classification
	)
	g := new(errgroup.Group)
	g.Go(func() error {
		var err error
		outputs, computeWarnings, err = ev.engine.Compute(def.Name, values, project.FunctionalUnitMassTonnes)
		return err
	})
	g.Go(func() error {
		inputClass = ev.classifier.ClassifyAll(values)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, eris.Wrapf(err, "pipeline: compute %s", def.Name)
	}

	classification := ev.classifier.ClassifyAll(outputs)
	for k, v := range inputClass {
		classification[k] = v
	}

	warnings := append([]string(nil), res.Warnings...)
	warnings = append(warnings, computeWarnings...)
	warnings = append(warnings, severityWarnings(classification)...)

	return &Evaluation{
		Fields:         res.Fields,
		Outputs:        outputs,
		Classification: classification,
		Warnings:       warnings,
	}, nil
}

// severityWarnings flags every High or Very High field, in name order.
func severityWarnings(c model.Classification) []string {
	names := make([]string, 0, len(c))
	for name, sev := range c {
		if sev.Rank() >= model.SeverityHigh.Rank() {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	out := make([]string, len(names))
	for i, name := range names {
		out[i] = fmt.Sprintf("Field '%s' is classified as %s", name, c[name])
	}
	return out
}
