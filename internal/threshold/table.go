// Package threshold holds the severity cut points per field and classifies
// resolved values against them.
package threshold

import (
	_ "embed"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed thresholds.yaml
var defaultThresholdsYAML []byte

// Polarity says whether higher or lower values are worse.
type Polarity string

const (
	// PolarityNormal means higher is worse.
	PolarityNormal Polarity = "normal"
	// PolarityInverse means lower is worse (yields, recovery and recycling rates).
	PolarityInverse Polarity = "inverse"
)

// Threshold holds the three cut points for a field. For inverse fields the
// numbers descend: VeryHigh < High < Medium.
type Threshold struct {
	Medium   float64  `yaml:"medium" json:"medium"`
	High     float64  `yaml:"high" json:"high"`
	VeryHigh float64  `yaml:"very_high" json:"very_high"`
	Polarity Polarity `yaml:"polarity,omitempty" json:"polarity"`
}

// Table is the read-only threshold lookup, keyed on bare field name.
type Table struct {
	fields map[string]Threshold
}

// Default parses the embedded threshold table.
func Default() (*Table, error) {
	return Parse(defaultThresholdsYAML)
}

// Load reads a threshold table from a YAML file.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "threshold: read table %s", path)
	}
	return Parse(data)
}

// Parse decodes a YAML threshold table with a top-level "thresholds" key and
// checks that every entry's cut points are ordered for its polarity.
func Parse(data []byte) (*Table, error) {
	var wrapper struct {
		Thresholds map[string]Threshold `yaml:"thresholds"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "threshold: parse table")
	}
	return New(wrapper.Thresholds)
}

// New builds a Table from an in-memory map. Empty polarity means normal.
func New(fields map[string]Threshold) (*Table, error) {
	t := &Table{fields: make(map[string]Threshold, len(fields))}
	for name, th := range fields {
		if th.Polarity == "" {
			th.Polarity = PolarityNormal
		}
		switch th.Polarity {
		case PolarityNormal:
			if th.Medium > th.High || th.High > th.VeryHigh {
				return nil, eris.Errorf("threshold: %s: normal polarity requires medium <= high <= very_high", name)
			}
		case PolarityInverse:
			if th.VeryHigh > th.High || th.High > th.Medium {
				return nil, eris.Errorf("threshold: %s: inverse polarity requires very_high <= high <= medium", name)
			}
		default:
			return nil, eris.Errorf("threshold: %s: unknown polarity %q", name, th.Polarity)
		}
		t.fields[name] = th
	}
	return t, nil
}

// Get returns the threshold for a field and whether one is defined.
func (t *Table) Get(field string) (Threshold, bool) {
	th, ok := t.fields[field]
	return th, ok
}

// Fields returns a copy of every entry.
func (t *Table) Fields() map[string]Threshold {
	out := make(map[string]Threshold, len(t.fields))
	for k, v := range t.fields {
		out[k] = v
	}
	return out
}
