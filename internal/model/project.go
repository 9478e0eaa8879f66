package model

import (
	"math"
	"strings"
)

// Validate checks the fields a new project must carry. Known processing modes
// are normalised to their canonical spelling; unknown ones are kept and treated
// as Linear when aggregated.
func (p *Project) Validate() error {
	fields := map[string]string{}

	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		fields["name"] = "is required"
	}
	p.MetalType = MetalType(strings.TrimSpace(string(p.MetalType)))
	if p.MetalType == "" {
		fields["metal_type"] = "is required"
	}
	mode := strings.TrimSpace(string(p.ProcessingMode))
	switch {
	case mode == "":
		fields["processing_mode"] = "is required"
	case strings.EqualFold(mode, string(ProcessingLinear)):
		p.ProcessingMode = ProcessingLinear
	case strings.EqualFold(mode, string(ProcessingCircular)):
		p.ProcessingMode = ProcessingCircular
	default:
		p.ProcessingMode = ProcessingMode(mode)
	}
	fu := p.FunctionalUnitMassTonnes
	if math.IsNaN(fu) || math.IsInf(fu, 0) || fu <= 0 {
		fields["functional_unit_mass_tonnes"] = "must be greater than 0"
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
