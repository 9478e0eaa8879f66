package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/metal-lca/internal/report"
)

var exportCmd = &cobra.Command{
	Use:   "export <project-id>",
	Short: "Write the project aggregate to an XLSX workbook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		out, _ := cmd.Flags().GetString("out")
		if out == "" {
			out = args[0] + "-aggregate.xlsx"
		}

		env, err := initApp(ctx, "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		project, err := env.Store.GetProject(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "export")
		}
		res, err := env.Aggregator.Aggregate(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "export")
		}

		if err := report.Save(out, project, res); err != nil {
			return err
		}

		zap.L().Info("aggregate exported", zap.String("project_id", project.ID), zap.String("path", out))
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s.\n", out)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringP("out", "o", "", "output path (default <project-id>-aggregate.xlsx)")
	rootCmd.AddCommand(exportCmd)
}
