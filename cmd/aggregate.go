package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var aggregateCmd = &cobra.Command{
	Use:   "aggregate <project-id>",
	Short: "Total carbon and energy footprints across the project's stages",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initApp(ctx, "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Aggregator.Aggregate(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "aggregate")
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(cmd.OutOrStdout(), res)
		}
		formatAggregate(cmd.OutOrStdout(), res)
		return nil
	},
}

func init() {
	aggregateCmd.Flags().Bool("json", false, "print the aggregate as JSON")
	rootCmd.AddCommand(aggregateCmd)
}
