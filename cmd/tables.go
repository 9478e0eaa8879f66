package main

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/metal-lca/internal/factors"
	"github.com/sells-group/metal-lca/internal/stage"
	"github.com/sells-group/metal-lca/internal/threshold"
)

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "Inspect the stage catalog and lookup tables",
}

var tablesShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print stage fields, severity thresholds and emission factors",
	RunE: func(cmd *cobra.Command, _ []string) error {
		tbl, err := loadTables()
		if err != nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"stages":         stage.Default().Definitions(),
				"thresholds":     tbl.Thresholds.Fields(),
				"factor_version": tbl.Factors.Version(),
				"factors":        tbl.Factors.All(),
			})
		}

		out := cmd.OutOrStdout()
		formatCatalog(out, stage.Default())
		_, _ = fmt.Fprintln(out)
		formatThresholds(out, tbl.Thresholds)
		_, _ = fmt.Fprintln(out)
		formatFactors(out, tbl.Factors)
		return nil
	},
}

func formatCatalog(out io.Writer, catalog *stage.Catalog) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "STAGE\tFIELD\tUNIT\tMIN\tMAX")
	for _, def := range catalog.Definitions() {
		for _, f := range def.Fields {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%g\t%g\n", def.Name, f.Name, f.Unit, f.ValidRange.Min, f.ValidRange.Max)
		}
	}
	_ = w.Flush()
}

func formatThresholds(out io.Writer, tt *threshold.Table) {
	fields := tt.Fields()
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	title := cases.Title(language.English)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "FIELD\tPOLARITY\tMEDIUM\tHIGH\tVERY HIGH")
	for _, name := range names {
		th := fields[name]
		_, _ = fmt.Fprintf(w, "%s\t%s\t%g\t%g\t%g\n", name, title.String(string(th.Polarity)), th.Medium, th.High, th.VeryHigh)
	}
	_ = w.Flush()
}

func formatFactors(out io.Writer, ft *factors.Table) {
	all := ft.All()
	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Emission factors (version %s)\n", ft.Version())
	_, _ = fmt.Fprintln(w, "FACTOR\tVALUE")
	for _, name := range names {
		_, _ = fmt.Fprintf(w, "%s\t%g\n", name, all[name])
	}
	_ = w.Flush()
}

func init() {
	tablesShowCmd.Flags().Bool("json", false, "print as JSON")
	tablesCmd.AddCommand(tablesShowCmd)
	rootCmd.AddCommand(tablesCmd)
}
