package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// chordCommand creates the chord command.
func (c *CLI) chordCommand() *cobra.Command {
	var f viewFlags

	cmd := &cobra.Command{
		Use:   "chord [table.tsv]",
		Short: "Compute chord matrices linking pathways and taxa",
		Long: `Compute chord matrices linking pathways and taxa.

Each enzyme's abundance is attributed to its pathway category (from
--annotations, or the reference database's pathway or superpathway names,
see --annotation-level) and to each taxon's category at --rank (from
--taxonomy, or the reference database). The output
holds an outer matrix over categories and an inner matrix over individual
enzymes and taxa, with colours for every entry.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f.src.Table = args[0]
			return c.runChord(cmd.Context(), cmd, &f)
		},
	}

	f.addAnnotationFlags(cmd)
	f.addTaxonomyFlags(cmd)
	f.addCommonFlags(cmd, "output file (default: <table>.chord.json)")

	return cmd
}

func (c *CLI) runChord(ctx context.Context, cmd *cobra.Command, f *viewFlags) error {
	s, err := c.prepare(ctx, cmd, f)
	if err != nil {
		return err
	}
	defer s.Close()

	in, err := c.load(ctx, s, f)
	if err != nil {
		return err
	}
	if len(in.Annotations) == 0 {
		printWarning("No annotation categories: pass --annotations or --db")
	}

	res, cacheHit, err := s.runner.ChordWithCacheInfo(ctx, in.Table, in.Annotations, in.Taxonomy, f.opts)
	if err != nil {
		return fmt.Errorf("chord: %w", err)
	}

	printSuccess("Chord matrices complete")
	if err := writeJSON(res, outputPath(f.src.Table, f.output, ".chord.json")); err != nil {
		return err
	}
	printStats(cacheHit,
		fmt.Sprintf("%d outer entries", len(res.OuterIndex)),
		fmt.Sprintf("%d inner entries", len(res.InnerIndex)))
	return nil
}
