package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/metal-lca/internal/model"
)

var stageCmd = &cobra.Command{
	Use:   "stage",
	Short: "Compute and inspect stage records",
}

// -- stage compute --

var stageComputeCmd = &cobra.Command{
	Use:   "compute <project-id> <stage>",
	Short: "Resolve inputs, compute outputs and store the stage record",
	Long: "Fields given with --set (or in --file) are user-supplied. Missing fields are " +
		"AI-predicted when an Anthropic key is configured, otherwise filled from static fallbacks.",
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := parseStageArg(args[1])
		if err != nil {
			return err
		}
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

		rec, err := env.Pipeline.ComputeStage(ctx, args[0], st, inputs)
		if err != nil {
			return eris.Wrap(err, "stage compute")
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(cmd.OutOrStdout(), rec)
		}
		formatStageRecord(cmd.OutOrStdout(), rec)
		return nil
	},
}

// -- stage show --

var stageShowCmd = &cobra.Command{
	Use:   "show <project-id> <stage>",
	Short: "Show the stored record for a stage",
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

		rec, err := env.Pipeline.GetStage(ctx, args[0], st)
		if err != nil {
			return eris.Wrap(err, "stage show")
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(cmd.OutOrStdout(), rec)
		}
		formatStageRecord(cmd.OutOrStdout(), rec)
		return nil
	},
}

func parseStageArg(s string) (model.StageName, error) {
	st, ok := model.ParseStageName(s)
	if !ok {
		return "", &model.ValidationError{Fields: map[string]string{"stage": fmt.Sprintf("unknown stage '%s'", s)}}
	}
	return st, nil
}

func init() {
	stageComputeCmd.Flags().StringArray("set", nil, "user-supplied input as Field=Value (repeatable)")
	stageComputeCmd.Flags().String("file", "", "JSON object of user-supplied inputs")
	stageComputeCmd.Flags().Bool("json", false, "print the stage record as JSON")
	stageShowCmd.Flags().Bool("json", false, "print the stage record as JSON")

	stageCmd.AddCommand(stageComputeCmd)
	stageCmd.AddCommand(stageShowCmd)
	rootCmd.AddCommand(stageCmd)
}
