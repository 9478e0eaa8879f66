// Package factors holds the read-only emission and energy factor table used
// by stage computations.
package factors

import (
	_ "embed"
	"os"
	"sort"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/metal-lca/internal/model"
)

//go:embed factors.yaml
var defaultFactorsYAML []byte

// Table maps a process constant name to its numeric factor.
type Table struct {
	version string
	factors map[string]float64
}

// Default parses the embedded factor table.
func Default() (*Table, error) {
	return Parse(defaultFactorsYAML)
}

// Load reads a factor table from a YAML file.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "factors: read table %s", path)
	}
	return Parse(data)
}

// Parse decodes a YAML factor table.
func Parse(data []byte) (*Table, error) {
	var doc struct {
		Version string             `yaml:"version"`
		Factors map[string]float64 `yaml:"factors"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrap(err, "factors: parse table")
	}
	return New(doc.Version, doc.Factors)
}

// New builds a Table from an in-memory map. Negative factors are rejected.
func New(version string, factors map[string]float64) (*Table, error) {
	t := &Table{version: version, factors: make(map[string]float64, len(factors))}
	for name, v := range factors {
		if v < 0 {
			return nil, eris.Errorf("factors: %s is negative (%v)", name, v)
		}
		t.factors[name] = v
	}
	return t, nil
}

// Version returns the table's version label.
func (t *Table) Version() string {
	return t.version
}

// Lookup returns a factor and whether it exists.
func (t *Table) Lookup(name string) (float64, bool) {
	v, ok := t.factors[name]
	return v, ok
}

// Require returns a *model.ConfigError naming every factor in names that the
// table lacks.
func (t *Table) Require(names []string) error {
	var missing []string
	seen := make(map[string]bool)
	for _, n := range names {
		if _, ok := t.factors[n]; ok || seen[n] {
			continue
		}
		seen[n] = true
		missing = append(missing, n)
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return &model.ConfigError{Missing: missing}
}

// All returns a copy of the factor map.
func (t *Table) All() map[string]float64 {
	out := make(map[string]float64, len(t.factors))
	for k, v := range t.factors {
		out[k] = v
	}
	return out
}
