package cli

import (
	"github.com/spf13/cobra"

	"github.com/deco-run/deco-core/internal/domain"
)

func newUpdateCmd(flags *rootFlags) *cobra.Command {
	var (
		projectPath string
		title       string
		description string
		era         string
		tags        []string
		styles      []string
		moods       []string
	)

	cmd := &cobra.Command{
		Use:   "update <filename>",
		Short: "Merge-update an image's metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd.OutOrStdout(), flags.jsonOutput)
			if err != nil {
				return err
			}
			defer rt.Close()

			patch := domain.ImagePatch{}
			if cmd.Flags().Changed("title") {
				patch.Name = &title
			}
			if cmd.Flags().Changed("description") {
				patch.Description = &description
			}
			if cmd.Flags().Changed("era") {
				patch.Era = &era
			}
			if cmd.Flags().Changed("tag") {
				patch.Tags = tags
			}
			if cmd.Flags().Changed("style") {
				patch.Style = styles
			}
			if cmd.Flags().Changed("mood") {
				patch.Mood = moods
			}

			filename := args[0]
			updated, err := rt.storage.UpdateImageMetadata(cmd.Context(), projectPath, filename, patch)
			if err != nil {
				return err
			}

			return rt.printer.Result(updated, func() {
				rt.printer.Printf("%s: %s\n", updated.Path, updated.Name)
				rt.printer.Printf("  description: %s\n", updated.Description)
				rt.printer.Printf("  tags:        %v\n", updated.Tags)
			})
		},
	}

	cmd.Flags().StringVar(&projectPath, "project", "", "project directory (required)")
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	cmd.Flags().StringVar(&era, "era", "", "new era")
	cmd.Flags().StringArrayVar(&tags, "tag", nil, "replace tags (repeatable)")
	cmd.Flags().StringArrayVar(&styles, "style", nil, "replace styles (repeatable)")
	cmd.Flags().StringArrayVar(&moods, "mood", nil, "replace moods (repeatable)")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}
