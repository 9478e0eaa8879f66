// Package compute holds the deterministic stage formulas. Each formula turns
// resolved per-tonne inputs into footprints per functional unit using the
// emission factor table. Formulas never look at provenance.
package compute

import (
	"fmt"
	"math"
	"sort"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"

	"github.com/sells-group/metal-lca/internal/factors"
	"github.com/sells-group/metal-lca/internal/model"
)

// outputPlaces is the rounding applied to every output.
const outputPlaces = 4

// Engine computes stage outputs against one emission factor table.
type Engine struct {
	factors  *factors.Table
	formulas map[model.StageName]formula
}

// NewEngine binds the stage formulas to a factor table. It returns a
// *model.ConfigError if the table lacks any factor a formula references.
func NewEngine(table *factors.Table) (*Engine, error) {
	if table == nil {
		return nil, eris.New("compute: nil factor table")
	}
	e := &Engine{factors: table, formulas: formulas()}
	if err := table.Require(AllRequiredFactors()); err != nil {
		return nil, err
	}
	return e, nil
}

// FactorVersion returns the version label of the bound factor table.
func (e *Engine) FactorVersion() string {
	return e.factors.Version()
}

// Compute evaluates the formula for st. Negative or non-finite results are
// clamped to zero with a warning. A factor missing at evaluation time is a
// *model.ConfigError and is never defaulted.
func (e *Engine) Compute(st model.StageName, inputs map[string]float64, functionalUnitTonnes float64) (map[string]float64, []string, error) {
	f, ok := e.formulas[st]
	if !ok {
		return nil, nil, eris.Errorf("compute: no formula for stage %s", st)
	}

	in := &inputReader{values: inputs}
	fr := &factorReader{table: e.factors}
	raw := f.fn(in, fr, functionalUnitTonnes)
	if len(fr.missing) > 0 {
		return nil, nil, &model.ConfigError{Missing: sortedKeys(fr.missing)}
	}

	warnings := in.warnings
	out := make(map[string]float64, len(raw))
	for _, name := range sortedKeys(raw) {
		v := raw[name]
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			warnings = append(warnings, fmt.Sprintf("Output '%s' of stage '%s' evaluated to %v and was clamped to 0", name, st, v))
			v = 0
		}
		out[name] = round(v)
	}
	return out, warnings, nil
}

// RequiredFactors returns the factor names the formula for st references.
func RequiredFactors(st model.StageName) []string {
	f, ok := formulas()[st]
	if !ok {
		return nil
	}
	return append([]string(nil), f.factors...)
}

// AllRequiredFactors returns every factor any stage formula references, sorted.
func AllRequiredFactors() []string {
	set := make(map[string]bool)
	for _, f := range formulas() {
		for _, name := range f.factors {
			set[name] = true
		}
	}
	return sortedKeys(set)
}

func round(v float64) float64 {
	r, _ := decimal.NewFromFloat(v).Round(outputPlaces).Float64()
	return r
}

type inputReader struct {
	values   map[string]float64
	warnings []string
}

// get returns an input, treating a missing or non-finite value as 0 with a warning.
func (r *inputReader) get(name string) float64 {
	v, ok := r.values[name]
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		r.warnings = append(r.warnings, fmt.Sprintf("Input '%s' was unavailable to the computation and was treated as 0", name))
		return 0
	}
	return v
}

// fraction reads a percentage input as a 0..1 fraction.
func (r *inputReader) fraction(name string) float64 {
	return r.get(name) / 100
}

type factorReader struct {
	table   *factors.Table
	missing map[string]bool
}

func (r *factorReader) get(name string) float64 {
	v, ok := r.table.Lookup(name)
	if !ok {
		if r.missing == nil {
			r.missing = make(map[string]bool)
		}
		r.missing[name] = true
	}
	return v
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
