package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/metal-lca/internal/model"
)

var scenarioCmd = &cobra.Command{
	Use:   "scenario",
	Short: "Run and manage what-if scenarios",
	Long:  "Scenarios recompute one stage with hypothetical inputs and are stored separately from the stage record.",
}

// -- scenario create --

var scenarioCreateCmd = &cobra.Command{
	Use:   "create <project-id> <stage>",
	Short: "Evaluate hypothetical inputs for a stage",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := parseStageArg(args[1])
		if err != nil {
			return err
		}
		name, _ := cmd.Flags().GetString("name")
		pairs, _ := cmd.Flags().GetStringArray("set")
		file, _ := cmd.Flags().GetString("file")
		inputs, err := parseInputs(pairs, file)
		if err != nil {
			return err
		}

		env, err := initApp(ctx, "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		sc, err := env.Scenarios.Create(ctx, args[0], st, name, inputs)
		if err != nil {
			return eris.Wrap(err, "scenario create")
		}
		return printJSON(cmd.OutOrStdout(), sc)
	},
}

// -- scenario list --

var scenarioListCmd = &cobra.Command{
	Use:   "list <project-id> <stage>",
	Short: "List scenarios for a stage",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := parseStageArg(args[1])
		if err != nil {
			return err
		}

		env, err := initApp(ctx, "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		list, err := env.Scenarios.List(ctx, args[0], st)
		if err != nil {
			return eris.Wrap(err, "scenario list")
		}
		if len(list) == 0 {
			fmt.Fprintln(os.Stderr, "No scenarios found.")
			return nil
		}

		formatScenarios(cmd.OutOrStdout(), list)
		return nil
	},
}

// -- scenario delete --

var scenarioDeleteCmd = &cobra.Command{
	Use:   "delete <project-id> <scenario-id>",
	Short: "Delete a scenario",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initApp(ctx, "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.Scenarios.Delete(ctx, args[0], args[1]); err != nil {
			return eris.Wrap(err, "scenario delete")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted scenario %s.\n", args[1])
		return nil
	},
}

// formatScenarios writes a tabular scenario list to out.
func formatScenarios(out io.Writer, list []model.Scenario) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tSTAGE\tWARNINGS\tCREATED")
	_, _ = fmt.Fprintln(w, "--\t----\t-----\t--------\t-------")
	for _, sc := range list {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			sc.ID,
			sc.Name,
			sc.Stage,
			len(sc.Warnings),
			sc.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}

func init() {
	scenarioCreateCmd.Flags().String("name", "", "scenario name (required)")
	scenarioCreateCmd.Flags().StringArray("set", nil, "hypothetical input as Field=Value (repeatable)")
	scenarioCreateCmd.Flags().String("file", "", "JSON object of hypothetical inputs")

	scenarioCmd.AddCommand(scenarioCreateCmd)
	scenarioCmd.AddCommand(scenarioListCmd)
	scenarioCmd.AddCommand(scenarioDeleteCmd)
	rootCmd.AddCommand(scenarioCmd)
}
