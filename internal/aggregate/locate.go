package aggregate

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// Kind is a footprint category the aggregator totals.
type Kind string

const (
	KindCarbon Kind = "carbon"
	KindEnergy Kind = "energy"
)

// Locator finds the output key holding a footprint of the given kind.
type Locator interface {
	Locate(outputs map[string]float64, kind Kind) (string, bool)
}

// ContainsLocator picks the first key, in sorted order, whose case-folded
// name contains the kind.
type ContainsLocator struct{}

func (ContainsLocator) Locate(outputs map[string]float64, kind Kind) (string, bool) {
	fold := cases.Fold()
	needle := fold.String(string(kind))

	keys := make([]string, 0, len(outputs))
	for k := range outputs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if strings.Contains(fold.String(k), needle) {
			return k, true
		}
	}
	return "", false
}

// RegistryLocator maps each stage's outputs explicitly by key.
type RegistryLocator map[Kind][]string

func (r RegistryLocator) Locate(outputs map[string]float64, kind Kind) (string, bool) {
	for _, k := range r[kind] {
		if _, ok := outputs[k]; ok {
			return k, true
		}
	}
	return "", false
}
