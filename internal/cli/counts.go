package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// countsCommand creates the counts command.
func (c *CLI) countsCommand() *cobra.Command {
	var f viewFlags

	cmd := &cobra.Command{
		Use:   "counts [table.tsv]",
		Short: "Average abundance per taxonomy category",
		Long: `Average abundance per taxonomy category.

Every positive cell of a taxon column counts towards the mean of the taxon's
category at --rank. Categories without any positive cell are written as null.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f.src.Table = args[0]
			return c.runCounts(cmd.Context(), cmd, &f)
		},
	}

	f.addTaxonomyFlags(cmd)
	f.addCommonFlags(cmd, "output file (default: <table>.counts.json)")

	return cmd
}

func (c *CLI) runCounts(ctx context.Context, cmd *cobra.Command, f *viewFlags) error {
	s, err := c.prepare(ctx, cmd, f)
	if err != nil {
		return err
	}
	defer s.Close()

	in, err := c.load(ctx, s, f)
	if err != nil {
		return err
	}

	counts, cacheHit, err := s.runner.CountsWithCacheInfo(ctx, in.Table, in.Taxonomy, f.opts)
	if err != nil {
		return fmt.Errorf("counts: %w", err)
	}

	printSuccess("Counts complete")
	if err := writeJSON(counts, outputPath(f.src.Table, f.output, ".counts.json")); err != nil {
		return err
	}
	printStats(cacheHit, count(len(counts.Index), "category", "categories"))
	return nil
}
