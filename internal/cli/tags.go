package cli

import (
	"github.com/spf13/cobra"
)

func newTagsCmd(flags *rootFlags) *cobra.Command {
	var projectPath string

	cmd := &cobra.Command{
		Use:   "tags",
		Short: "List every tag in a project with its usage count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd.OutOrStdout(), flags.jsonOutput)
			if err != nil {
				return err
			}
			defer rt.Close()

			tags, err := rt.storage.GetAllTags(cmd.Context(), projectPath)
			if err != nil {
				return err
			}

			return rt.printer.Result(tags, func() {
				for _, t := range tags {
					rt.printer.Printf("%-24s %d\n", t.Tag, t.Count)
				}
			})
		},
	}

	cmd.Flags().StringVar(&projectPath, "project", "", "project directory (required)")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}
