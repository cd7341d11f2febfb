package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/metavis/pkg/errors"
	"github.com/matzehuels/metavis/pkg/hierarchy"
)

// kronaCommand creates the krona command.
func (c *CLI) kronaCommand() *cobra.Command {
	var f viewFlags

	cmd := &cobra.Command{
		Use:   "krona [table.tsv]",
		Short: "Fold taxa into a taxonomy sunburst tree",
		Long: `Fold taxa into a taxonomy sunburst tree.

Each taxon's lineage at --levels is looked up in the reference database
(--db is required) and the taxa are folded into a tree. Leaves carry the
taxon's mean abundance and its share of the total; inner nodes carry the sum
of their children's shares. Taxa without a lineage at a level end up as
"Unclassified" branches.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f.src.Table = args[0]
			return c.runKrona(cmd.Context(), cmd, &f)
		},
	}

	cmd.Flags().StringSliceVar(&f.opts.Levels, "levels", hierarchy.DefaultLevels, "ranks of the tree, broadest first")
	cmd.Flags().StringVar(&f.opts.Filter.Rank, "filter-rank", "", "only consider taxa within this rank's --filter-name clade")
	cmd.Flags().StringVar(&f.opts.Filter.Name, "filter-name", "", "clade name for --filter-rank")
	f.addCommonFlags(cmd, "output file (default: <table>.tree.json)")

	return cmd
}

func (c *CLI) runKrona(ctx context.Context, cmd *cobra.Command, f *viewFlags) error {
	s, err := c.prepare(ctx, cmd, f)
	if err != nil {
		return err
	}
	defer s.Close()
	if s.db == nil {
		return errors.New(errors.ErrCodeInvalidInput, "krona needs a reference database (--db)")
	}

	in, err := c.load(ctx, s, f)
	if err != nil {
		return err
	}
	if len(in.Records) == 0 {
		printWarning("No taxa of the table were found in the reference database")
	}

	tree, cacheHit, err := s.runner.TreeWithCacheInfo(ctx, in.Table, in.Records, f.opts)
	if err != nil {
		return fmt.Errorf("tree: %w", err)
	}

	printSuccess("Taxonomy tree complete")
	if err := writeJSON(tree, outputPath(f.src.Table, f.output, ".tree.json")); err != nil {
		return err
	}
	printStats(cacheHit, count(len(in.Records), "taxon", "taxa"), count(len(tree.Children), "branch", "branches"))
	return nil
}
