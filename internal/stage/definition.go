// Package stage declares the static stage definitions: the fields each life
// cycle stage needs, their units and valid ranges, the static fallbacks used
// when a value is neither supplied nor predicted, and the outputs produced.
package stage

import (
	"sort"

	"github.com/rotisserie/eris"

	"github.com/sells-group/metal-lca/internal/model"
)

// Range is an inclusive valid range for a field value.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether v lies within the range.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// FieldSpec describes one required input field.
type FieldSpec struct {
	Name       string                      `json:"name"`
	Unit       string                      `json:"unit"`
	ValidRange Range                       `json:"valid_range"`
	Fallbacks  map[model.MetalType]float64 `json:"fallbacks,omitempty"`
	Default    *float64                    `json:"default,omitempty"`
}

// Fallback returns the static value for a metal type, falling back to the
// metal-agnostic default. The second return is false when neither exists.
func (f FieldSpec) Fallback(metal model.MetalType) (float64, bool) {
	if v, ok := f.Fallbacks[metal]; ok {
		return v, true
	}
	if f.Default != nil {
		return *f.Default, true
	}
	return 0, false
}

// OutputSpec describes one computed output.
type OutputSpec struct {
	Name string `json:"name"`
	Unit string `json:"unit"`
}

// Definition is the static description of one stage.
type Definition struct {
	Name    model.StageName `json:"name"`
	Basis   string          `json:"basis"`
	Fields  []FieldSpec     `json:"fields"`
	Outputs []OutputSpec    `json:"outputs"`

	byName map[string]*FieldSpec
}

// Field returns the FieldSpec for a name, or nil.
func (d *Definition) Field(name string) *FieldSpec {
	return d.byName[name]
}

// FieldNames returns the required field names in declaration order.
func (d *Definition) FieldNames() []string {
	names := make([]string, len(d.Fields))
	for i, f := range d.Fields {
		names[i] = f.Name
	}
	return names
}

// Catalog is an indexed set of stage definitions.
type Catalog struct {
	defs  map[model.StageName]*Definition
	owner map[string]model.StageName
}

// NewCatalog indexes definitions and enforces that every field and output
// name is unique across all stages, since thresholds and resolution key on
// the bare name.
func NewCatalog(defs []Definition) (*Catalog, error) {
	c := &Catalog{
		defs:  make(map[model.StageName]*Definition, len(defs)),
		owner: make(map[string]model.StageName),
	}
	for i := range defs {
		d := defs[i]
		if _, dup := c.defs[d.Name]; dup {
			return nil, eris.Errorf("stage: duplicate definition for %s", d.Name)
		}
		d.byName = make(map[string]*FieldSpec, len(d.Fields))
		for j := range d.Fields {
			f := &d.Fields[j]
			if prev, dup := c.owner[f.Name]; dup {
				return nil, eris.Errorf("stage: field %s declared by both %s and %s", f.Name, prev, d.Name)
			}
			if f.ValidRange.Min > f.ValidRange.Max {
				return nil, eris.Errorf("stage: field %s has min > max", f.Name)
			}
			c.owner[f.Name] = d.Name
			d.byName[f.Name] = f
		}
		for _, o := range d.Outputs {
			if prev, dup := c.owner[o.Name]; dup {
				return nil, eris.Errorf("stage: output %s declared by both %s and %s", o.Name, prev, d.Name)
			}
			c.owner[o.Name] = d.Name
		}
		c.defs[d.Name] = &d
	}
	return c, nil
}

// Get returns the definition for a stage.
func (c *Catalog) Get(name model.StageName) (*Definition, bool) {
	d, ok := c.defs[name]
	return d, ok
}

// Definitions returns every definition, in pipeline order first and then by
// name for any stage outside the standard order.
func (c *Catalog) Definitions() []*Definition {
	rank := make(map[model.StageName]int, len(model.PipelineOrder))
	for i, s := range model.PipelineOrder {
		rank[s] = i
	}
	out := make([]*Definition, 0, len(c.defs))
	for _, d := range c.defs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		ri, iok := rank[out[i].Name]
		rj, jok := rank[out[j].Name]
		switch {
		case iok && jok:
			return ri < rj
		case iok != jok:
			return iok
		default:
			return out[i].Name < out[j].Name
		}
	})
	return out
}
