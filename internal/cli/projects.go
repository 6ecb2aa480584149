package cli

import (
	"github.com/spf13/cobra"
)

type projectSummary struct {
	Name       string `json:"name"`
	Path       string `json:"path"`
	ImageCount int    `json:"imageCount"`
}

func newProjectsCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List recently opened projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd.OutOrStdout(), flags.jsonOutput)
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx := cmd.Context()
			recents, err := rt.storage.ListRecent(ctx)
			if err != nil {
				return err
			}

			summaries := make([]projectSummary, 0, len(recents))
			for _, r := range recents {
				count := 0
				if meta, err := rt.storage.ReadProjectMetadata(ctx, r.Path); err == nil && meta != nil {
					count = meta.ImageCount
				}
				summaries = append(summaries, projectSummary{Name: r.Name, Path: r.Path, ImageCount: count})
			}

			return rt.printer.Result(summaries, func() {
				for _, s := range summaries {
					rt.printer.Printf("%-24s %-40s %d images\n", s.Name, s.Path, s.ImageCount)
				}
			})
		},
	}
}

func newListCmd(flags *rootFlags) *cobra.Command {
	var projectPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the images in a project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd.OutOrStdout(), flags.jsonOutput)
			if err != nil {
				return err
			}
			defer rt.Close()

			paths, err := rt.storage.ListImagePaths(cmd.Context(), projectPath)
			if err != nil {
				return err
			}

			return rt.printer.Result(paths, func() {
				for _, p := range paths {
					rt.printer.Println(p)
				}
			})
		},
	}

	cmd.Flags().StringVar(&projectPath, "project", "", "project directory (required)")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}
