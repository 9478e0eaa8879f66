package model

// Provenance is the tier a resolved field value came from.
type Provenance string

const (
	ProvenanceUser        Provenance = "user"
	ProvenanceAIPredicted Provenance = "ai-predicted"
	ProvenanceFallback    Provenance = "fallback"
)

// UserConfidencePercent is the confidence attached to every user-supplied value.
const UserConfidencePercent = 100.0

// FieldValue is a resolved field with its provenance and confidence.
type FieldValue struct {
	Value             float64    `json:"value"`
	Provenance        Provenance `json:"provenance"`
	ConfidencePercent float64    `json:"confidence_percent"`
}

// ClampConfidence bounds a confidence percentage to [0, 100].
func ClampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}
