package model

// Severity is the environmental severity tier of a classified field.
type Severity string

const (
	SeveritySafe     Severity = "Safe"
	SeverityMedium   Severity = "Medium"
	SeverityHigh     Severity = "High"
	SeverityVeryHigh Severity = "Very High"
)

// Rank orders severities from Safe (0) to Very High (3). Unknown values rank -1.
func (s Severity) Rank() int {
	switch s {
	case SeveritySafe:
		return 0
	case SeverityMedium:
		return 1
	case SeverityHigh:
		return 2
	case SeverityVeryHigh:
		return 3
	default:
		return -1
	}
}

// Classification maps field names to their severity tier.
type Classification map[string]Severity
