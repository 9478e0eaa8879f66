package model

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
)

// ErrNotFound is returned when a project, stage record or scenario does not exist.
var ErrNotFound = eris.New("not found")

// ValidationError reports caller-supplied fields that are out of range or of
// the wrong type. It is raised before field resolution starts.
type ValidationError struct {
	Fields map[string]string `json:"fields"`
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %s", k, e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ConfigError reports emission factors a stage formula needs but the loaded
// table lacks. It is a deployment defect and is never recovered.
type ConfigError struct {
	Missing []string
}

func (e *ConfigError) Error() string {
	return "emission factor table missing: " + strings.Join(e.Missing, ", ")
}
