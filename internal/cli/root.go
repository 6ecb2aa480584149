package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"
)

type rootFlags struct {
	jsonOutput bool
}

// NewRootCmd builds the full deco command surface.
func NewRootCmd() *cobra.Command {
	var flags rootFlags

	cmd := &cobra.Command{
		Use:           "deco",
		Short:         "deco - local-first visual reference collector",
		Long:          "deco indexes, embeds, and searches a local image collection without a server round trip.",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.PersistentFlags().BoolVar(&flags.jsonOutput, "json", false, "print machine-readable JSON output")

	cmd.AddCommand(
		newStatusCmd(&flags),
		newListCmd(&flags),
		newProjectsCmd(&flags),
		newImportCmd(&flags),
		newDeleteCmd(&flags),
		newMoveCmd(&flags),
		newUpdateCmd(&flags),
		newTagsCmd(&flags),
		newInfoCmd(&flags),
		newEmbedCmd(&flags),
		newSimilarCmd(&flags),
		newSearchCmd(&flags),
		newSemanticCmd(&flags),
		newClusterCmd(&flags),
	)

	return cmd
}

// Execute runs the deco command surface against args.
func Execute(ctx context.Context, stdout, stderr io.Writer, args []string) error {
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd.ExecuteContext(ctx)
}
