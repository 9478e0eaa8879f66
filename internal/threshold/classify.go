package threshold

import "github.com/sells-group/metal-lca/internal/model"

// Classifier maps field values to severity tiers using a Table.
type Classifier struct {
	table *Table
}

// NewClassifier creates a Classifier backed by table.
func NewClassifier(table *Table) *Classifier {
	return &Classifier{table: table}
}

// Classify returns the severity of one field value. Fields without a
// threshold entry are Safe.
func (c *Classifier) Classify(field string, value float64) model.Severity {
	th, ok := c.table.Get(field)
	if !ok {
		return model.SeveritySafe
	}
	return th.Classify(value)
}

// ClassifyAll classifies every entry of each map into one Classification.
func (c *Classifier) ClassifyAll(values ...map[string]float64) model.Classification {
	out := make(model.Classification)
	for _, m := range values {
		for field, v := range m {
			out[field] = c.Classify(field, v)
		}
	}
	return out
}

// Classify applies the cut points according to polarity.
func (th Threshold) Classify(value float64) model.Severity {
	if th.Polarity == PolarityInverse {
		switch {
		case value <= th.VeryHigh:
			return model.SeverityVeryHigh
		case value <= th.High:
			return model.SeverityHigh
		case value <= th.Medium:
			return model.SeverityMedium
		default:
			return model.SeveritySafe
		}
	}
	switch {
	case value >= th.VeryHigh:
		return model.SeverityVeryHigh
	case value >= th.High:
		return model.SeverityHigh
	case value >= th.Medium:
		return model.SeverityMedium
	default:
		return model.SeveritySafe
	}
}
