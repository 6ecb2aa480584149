package cli

import (
	"github.com/spf13/cobra"
)

type infoResult struct {
	Summary string `json:"summary,omitempty"`
	Image   any    `json:"image,omitempty"`
}

// newInfoCmd shows either one image's full metadata row, or — with no
// filename — a tag-distribution summary of the whole project, the same
// presentation helper the AI orchestrator uses to describe a project before
// clustering.
func newInfoCmd(flags *rootFlags) *cobra.Command {
	var projectPath string

	cmd := &cobra.Command{
		Use:   "info [filename]",
		Short: "Show an image's metadata, or a project tag-distribution summary",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd.OutOrStdout(), flags.jsonOutput)
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx := cmd.Context()

			if len(args) == 1 {
				img, err := rt.storage.QueryImageRow(ctx, projectPath, args[0])
				if err != nil {
					return err
				}
				return rt.printer.Result(infoResult{Image: img}, func() {
					rt.printer.Printf("%s: %s\n", img.Path, img.Name)
					rt.printer.Printf("  description: %s\n", img.Description)
					rt.printer.Printf("  tags:        %v\n", img.Tags)
					rt.printer.Printf("  style:       %v\n", img.Style)
					rt.printer.Printf("  mood:        %v\n", img.Mood)
					rt.printer.Printf("  era:         %s\n", img.Era)
				})
			}

			orchestrator, err := rt.newOrchestrator(ctx)
			if err != nil {
				return err
			}
			summary, err := orchestrator.DescribeForClustering(ctx, projectPath)
			if err != nil {
				return err
			}
			return rt.printer.Result(infoResult{Summary: summary}, func() {
				rt.printer.Println(summary)
			})
		},
	}

	cmd.Flags().StringVar(&projectPath, "project", "", "project directory (required)")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}
