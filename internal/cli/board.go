package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"
)

func newDeleteCmd(flags *rootFlags) *cobra.Command {
	var projectPath string

	cmd := &cobra.Command{
		Use:   "delete <filename>",
		Short: "Delete an image from a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd.OutOrStdout(), flags.jsonOutput)
			if err != nil {
				return err
			}
			defer rt.Close()

			filename := args[0]
			imagePath := filepath.Join(projectPath, "images", filename)
			if err := rt.importer.Delete(cmd.Context(), projectPath, imagePath); err != nil {
				return err
			}

			return rt.printer.Result(map[string]bool{"deleted": true}, func() {
				rt.printer.Printf("deleted %s\n", filename)
			})
		},
	}

	cmd.Flags().StringVar(&projectPath, "project", "", "project directory (required)")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func newMoveCmd(flags *rootFlags) *cobra.Command {
	var (
		projectPath string
		x, y        float64
	)

	cmd := &cobra.Command{
		Use:   "move <filename>",
		Short: "Move a board item to a new position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd.OutOrStdout(), flags.jsonOutput)
			if err != nil {
				return err
			}
			defer rt.Close()

			filename := args[0]
			if err := rt.storage.MoveBoardItem(cmd.Context(), projectPath, filename, x, y); err != nil {
				return err
			}

			return rt.printer.Result(map[string]bool{"moved": true}, func() {
				rt.printer.Printf("moved %s to (%.1f, %.1f)\n", filename, x, y)
			})
		},
	}

	cmd.Flags().StringVar(&projectPath, "project", "", "project directory (required)")
	cmd.Flags().Float64Var(&x, "x", 0, "new x coordinate")
	cmd.Flags().Float64Var(&y, "y", 0, "new y coordinate")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}
