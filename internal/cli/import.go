package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newImportCmd(flags *rootFlags) *cobra.Command {
	var (
		projectPath string
		analyze     bool
	)

	cmd := &cobra.Command{
		Use:   "import <file>...",
		Short: "Import one or more image files into a project",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd.OutOrStdout(), flags.jsonOutput)
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx := cmd.Context()
			imported, err := rt.importer.ImportFiles(ctx, projectPath, args)
			if err != nil {
				return err
			}

			if analyze {
				orchestrator, err := rt.newOrchestrator(ctx)
				if err != nil {
					return err
				}
				for _, info := range imported {
					if _, err := orchestrator.Analyze(ctx, projectPath, info.Path, info.Filename, nil); err != nil {
						rt.printer.PrintError(fmt.Errorf("analyze %s: %w", info.Filename, err))
					}
				}
			}

			return rt.printer.Result(imported, func() {
				for _, info := range imported {
					rt.printer.Printf("imported %-30s -> %s\n", info.Filename, info.Path)
				}
			})
		},
	}

	cmd.Flags().StringVar(&projectPath, "project", "", "project directory (required)")
	cmd.Flags().BoolVar(&analyze, "analyze", false, "run AI analysis on each imported image")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}
