package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

const defaultLimit = 10
const defaultClusterThreshold = 0.7

func newEmbedCmd(flags *rootFlags) *cobra.Command {
	var (
		projectPath string
		all         bool
	)

	cmd := &cobra.Command{
		Use:   "embed [filename]",
		Short: "Compute and store an embedding for one image, or the whole project with --all",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd.OutOrStdout(), flags.jsonOutput)
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx := cmd.Context()

			var paths []string
			if !all {
				if len(args) != 1 {
					return fmt.Errorf("embed requires a filename, or --all to embed the whole project")
				}
				paths = []string{args[0]}
			}

			embedded, err := rt.storage.EmbedProject(ctx, projectPath, paths)
			if err != nil {
				return err
			}

			return rt.printer.Result(map[string]int{"embedded": embedded}, func() {
				rt.printer.Printf("embedded %d image(s)\n", embedded)
			})
		},
	}

	cmd.Flags().StringVar(&projectPath, "project", "", "project directory (required)")
	cmd.Flags().BoolVar(&all, "all", false, "embed every un-embedded image in the project")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func newSimilarCmd(flags *rootFlags) *cobra.Command {
	var (
		projectPath string
		limit       int
	)

	cmd := &cobra.Command{
		Use:   "similar <filename>",
		Short: "Find images visually similar to the given one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd.OutOrStdout(), flags.jsonOutput)
			if err != nil {
				return err
			}
			defer rt.Close()

			if limit <= 0 {
				limit = defaultLimit
			}

			results, err := rt.storage.FindSimilar(cmd.Context(), projectPath, args[0], limit)
			if err != nil {
				return err
			}

			return rt.printer.Result(results, func() {
				for _, r := range results {
					rt.printer.Printf("%.4f  %s\n", r.Score, r.Path)
				}
			})
		},
	}

	cmd.Flags().StringVar(&projectPath, "project", "", "project directory (required)")
	cmd.Flags().IntVar(&limit, "limit", defaultLimit, "max results")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

// newSearchCmd is a full-text query over name/description/tags. It delegates
// to the same FTS5 search as "semantic" — the two commands are aliases at
// the storage layer, kept as separate cobra commands for discoverability.
func newSearchCmd(flags *rootFlags) *cobra.Command {
	var (
		projectPath string
		limit       int
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Full-text search over name, description, and tags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd.OutOrStdout(), flags.jsonOutput)
			if err != nil {
				return err
			}
			defer rt.Close()

			if limit <= 0 {
				limit = defaultLimit
			}

			results, err := rt.storage.SearchText(cmd.Context(), projectPath, args[0], limit)
			if err != nil {
				return err
			}

			return rt.printer.Result(results, func() {
				for _, r := range results {
					rt.printer.Printf("%.4f  %-30s %s\n", r.Score, r.Name, r.Path)
				}
			})
		},
	}

	cmd.Flags().StringVar(&projectPath, "project", "", "project directory (required)")
	cmd.Flags().IntVar(&limit, "limit", defaultLimit, "max results")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

// newSemanticCmd currently delegates to the same FTS5 search as "search"
// (spec.md Open Question #2 permits a future text-CLIP swap without a
// wire-visible change here).
func newSemanticCmd(flags *rootFlags) *cobra.Command {
	var (
		projectPath string
		limit       int
	)

	cmd := &cobra.Command{
		Use:   "semantic <query>",
		Short: "Full-text search over name, description, and tags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd.OutOrStdout(), flags.jsonOutput)
			if err != nil {
				return err
			}
			defer rt.Close()

			if limit <= 0 {
				limit = defaultLimit
			}

			results, err := rt.storage.SearchText(cmd.Context(), projectPath, args[0], limit)
			if err != nil {
				return err
			}

			return rt.printer.Result(results, func() {
				for _, r := range results {
					rt.printer.Printf("%.4f  %-30s %s\n", r.Score, r.Name, r.Path)
				}
			})
		},
	}

	cmd.Flags().StringVar(&projectPath, "project", "", "project directory (required)")
	cmd.Flags().IntVar(&limit, "limit", defaultLimit, "max results")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func newClusterCmd(flags *rootFlags) *cobra.Command {
	var (
		projectPath string
		threshold   float64
	)

	cmd := &cobra.Command{
		Use:   "cluster",
		Short: "Group a project's images by embedding similarity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd.OutOrStdout(), flags.jsonOutput)
			if err != nil {
				return err
			}
			defer rt.Close()

			if threshold <= 0 {
				threshold = defaultClusterThreshold
			}

			clusters, ungrouped, err := rt.storage.Cluster(cmd.Context(), projectPath, threshold)
			if err != nil {
				return err
			}

			type result struct {
				ClusterCount int        `json:"clusterCount"`
				Ungrouped    int        `json:"ungrouped"`
				Clusters     [][]string `json:"clusters"`
			}
			res := result{ClusterCount: len(clusters), Ungrouped: ungrouped}
			for _, c := range clusters {
				res.Clusters = append(res.Clusters, c.Members)
			}

			return rt.printer.Result(res, func() {
				rt.printer.Printf("%d clusters, %d ungrouped\n", res.ClusterCount, res.Ungrouped)
				for i, c := range clusters {
					rt.printer.Printf("  [%d] %v\n", i, c.Members)
				}
			})
		},
	}

	cmd.Flags().StringVar(&projectPath, "project", "", "project directory (required)")
	cmd.Flags().Float64Var(&threshold, "threshold", defaultClusterThreshold, "cosine similarity threshold")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}
