package stage

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/sells-group/metal-lca/internal/model"
)

// ValidateInputs checks a caller's partial input map against the definition.
// Nil values are treated as omitted. Keys that are not fields of the stage are
// dropped with a warning. Non-numeric or out-of-range values fail with a
// *model.ValidationError before any resolution happens.
func (d *Definition) ValidateInputs(raw map[string]any) (map[string]float64, []string, error) {
	clean := make(map[string]float64, len(raw))
	var warnings []string
	bad := make(map[string]string)

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, name := range keys {
		v := raw[name]
		spec := d.Field(name)
		if spec == nil {
			warnings = append(warnings, fmt.Sprintf("Field '%s' is not an input of stage '%s' and was ignored", name, d.Name))
			continue
		}
		if v == nil {
			continue
		}
		f, ok := ToFloat(v)
		if !ok {
			bad[name] = fmt.Sprintf("expected a number, got %T", v)
			continue
		}
		if !spec.ValidRange.Contains(f) {
			bad[name] = fmt.Sprintf("%v %s is outside [%v, %v]", f, spec.Unit, spec.ValidRange.Min, spec.ValidRange.Max)
			continue
		}
		clean[name] = f
	}

	if len(bad) > 0 {
		return nil, warnings, &model.ValidationError{Fields: bad}
	}
	return clean, warnings, nil
}

// ToFloat converts JSON-decoded numbers and numeric strings to a finite float64.
func ToFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
