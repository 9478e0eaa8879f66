package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"

	"github.com/sells-group/metal-lca/internal/model"
)

// printJSON writes v as indented JSON.
func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// parseInputs merges an optional JSON object file with Field=Value pairs.
// Pairs win over the file. Values are left as strings; stage validation
// parses them.
func parseInputs(pairs []string, file string) (map[string]any, error) {
	inputs := make(map[string]any)

	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, eris.Wrapf(err, "read inputs file %s", file)
		}
		if err := json.Unmarshal(data, &inputs); err != nil {
			return nil, eris.Wrapf(err, "parse inputs file %s", file)
		}
	}

	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, eris.Errorf("invalid input %q, expected Field=Value", pair)
		}
		inputs[k] = strings.TrimSpace(v)
	}
	return inputs, nil
}

// formatProjects writes a tabular project list to out.
func formatProjects(out io.Writer, projects []model.Project) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tMETAL\tMODE\tFU (t)\tCREATED")
	_, _ = fmt.Fprintln(w, "--\t----\t-----\t----\t------\t-------")
	for _, p := range projects {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%g\t%s\n",
			truncateID(p.ID),
			p.Name,
			p.MetalType,
			p.ProcessingMode,
			p.FunctionalUnitMassTonnes,
			p.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}

// formatStageRecord writes resolved inputs, outputs and warnings to out.
func formatStageRecord(out io.Writer, rec *model.StageRecord) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Stage:\t%s\n", rec.Stage)
	_, _ = fmt.Fprintf(w, "Project:\t%s\n", rec.ProjectID)
	_, _ = fmt.Fprintln(w)

	_, _ = fmt.Fprintln(w, "INPUT\tVALUE\tSOURCE\tCONFIDENCE\tSEVERITY")
	for _, name := range sortedKeys(rec.Inputs) {
		_, _ = fmt.Fprintf(w, "%s\t%g\t%s\t%g\t%s\n",
			name,
			rec.Inputs[name],
			rec.FieldSources[name],
			rec.Metadata.Confidence[name],
			rec.Classification[name],
		)
	}
	_, _ = fmt.Fprintln(w)

	_, _ = fmt.Fprintln(w, "OUTPUT\tVALUE\tSEVERITY")
	for _, name := range sortedKeys(rec.Outputs) {
		_, _ = fmt.Fprintf(w, "%s\t%g\t%s\n", name, rec.Outputs[name], rec.Classification[name])
	}
	_ = w.Flush()

	formatWarnings(out, rec.Warnings)
}

// formatAggregate writes project totals and per-stage presence to out.
func formatAggregate(out io.Writer, res *model.AggregateResult) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Carbon footprint (kg CO2e):\t%g\n", res.CarbonFootprint)
	_, _ = fmt.Fprintf(w, "Energy footprint (MJ):\t%g\n", res.EnergyFootprint)
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "STAGE\tPRESENT")
	for _, st := range model.PipelineOrder {
		_, ok := res.Stages[st]
		_, _ = fmt.Fprintf(w, "%s\t%t\n", st, ok)
	}
	_ = w.Flush()

	formatWarnings(out, res.Warnings)
}

func formatWarnings(out io.Writer, warnings []string) {
	if len(warnings) == 0 {
		return
	}
	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprintln(out, "Warnings:")
	for _, wrn := range warnings {
		_, _ = fmt.Fprintf(out, "  - %s\n", wrn)
	}
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
