package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/metal-lca/internal/model"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage LCA projects",
	Long:  "Commands for creating, listing, viewing and deleting projects.",
}

// -- project create --

var projectCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a project",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		name, _ := cmd.Flags().GetString("name")
		metal, _ := cmd.Flags().GetString("metal")
		mode, _ := cmd.Flags().GetString("mode")
		fu, _ := cmd.Flags().GetFloat64("fu")

		p := &model.Project{
			Name:                     name,
			MetalType:                model.MetalType(metal),
			ProcessingMode:           model.ProcessingMode(mode),
			FunctionalUnitMassTonnes: fu,
		}
		if err := p.Validate(); err != nil {
			return err
		}

		if err := cfg.Validate("store"); err != nil {
			return err
		}
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		if err := st.CreateProject(ctx, p); err != nil {
			return eris.Wrap(err, "project create")
		}
		return printJSON(cmd.OutOrStdout(), p)
	},
}

// -- project list --

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("store"); err != nil {
			return err
		}
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		projects, err := st.ListProjects(ctx)
		if err != nil {
			return eris.Wrap(err, "project list")
		}
		if len(projects) == 0 {
			fmt.Fprintln(os.Stderr, "No projects found.")
			return nil
		}

		formatProjects(cmd.OutOrStdout(), projects)
		return nil
	},
}

// -- project show --

var projectShowCmd = &cobra.Command{
	Use:   "show <project-id>",
	Short: "Show a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("store"); err != nil {
			return err
		}
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		p, err := st.GetProject(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "project show")
		}
		return printJSON(cmd.OutOrStdout(), p)
	},
}

// -- project delete --

var projectDeleteCmd = &cobra.Command{
	Use:   "delete <project-id>",
	Short: "Delete a project with its stage records and scenarios",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("store"); err != nil {
			return err
		}
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		if err := st.DeleteProject(ctx, args[0]); err != nil {
			return eris.Wrap(err, "project delete")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted project %s.\n", args[0])
		return nil
	},
}

func init() {
	projectCreateCmd.Flags().String("name", "", "project name")
	projectCreateCmd.Flags().String("metal", string(model.MetalCopper), "metal type (Copper, Aluminium, Steel, ...)")
	projectCreateCmd.Flags().String("mode", string(model.ProcessingLinear), "processing mode (Linear or Circular)")
	projectCreateCmd.Flags().Float64("fu", 1, "functional unit mass in tonnes")

	projectCmd.AddCommand(projectCreateCmd)
	projectCmd.AddCommand(projectListCmd)
	projectCmd.AddCommand(projectShowCmd)
	projectCmd.AddCommand(projectDeleteCmd)
	rootCmd.AddCommand(projectCmd)
}
