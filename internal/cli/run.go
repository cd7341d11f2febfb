package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/metavis/pkg/hierarchy"
	"github.com/matzehuels/metavis/pkg/pipeline"
)

// runCommand creates the run command, which produces every view at once.
func (c *CLI) runCommand() *cobra.Command {
	var (
		f          viewFlags
		formatsStr string
	)

	cmd := &cobra.Command{
		Use:   "run [table.tsv]",
		Short: "Compute every view of a table into one directory",
		Long: `Compute every view of a table into one directory.

Writes chord.json and counts.json, tree.json when a reference database is
given (--db), and network.<format> when --edges or --pathway is given. A
network that cannot be laid out is reported and skipped; the other views are
still written.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f.src.Table = args[0]
			f.opts.Formats = parseFormats(formatsStr)
			return c.runAll(cmd.Context(), cmd, &f)
		},
	}

	addRunFlags(cmd, &f, &formatsStr)
	return cmd
}

func addRunFlags(cmd *cobra.Command, f *viewFlags, formatsStr *string) {
	f.addAnnotationFlags(cmd)
	f.addTaxonomyFlags(cmd)
	cmd.Flags().StringSliceVar(&f.opts.Levels, "levels", hierarchy.DefaultLevels, "ranks of the taxonomy tree, broadest first")
	f.addNetworkFlags(cmd, formatsStr)
	f.addCommonFlags(cmd, "output directory (default: <table>.metavis)")
}

func (c *CLI) runAll(ctx context.Context, cmd *cobra.Command, f *viewFlags) error {
	s, err := c.prepare(ctx, cmd, f)
	if err != nil {
		return err
	}
	defer s.Close()

	res, err := c.executeOnce(ctx, s, f)
	if err != nil {
		return err
	}
	printStats(allCached(res.CacheInfo, res),
		fmt.Sprintf("%d taxa", res.Stats.Taxa),
		count(res.Stats.Annotations, "enzyme", "enzymes"),
		count(res.Stats.Nodes, "network node", "network nodes"))
	printNewline()
	printNextStep("Rerun on changes", appName+" watch "+f.src.Table)
	return nil
}

// executeOnce loads the inputs, computes every view and writes the results.
func (c *CLI) executeOnce(ctx context.Context, s *session, f *viewFlags) (*pipeline.Result, error) {
	in, err := c.load(ctx, s, f)
	if err != nil {
		return nil, err
	}

	spinner := newSpinnerWithContext(ctx, "Computing views...")
	spinner.Start()
	res, err := s.runner.Execute(ctx, in, f.opts)
	if err != nil {
		spinner.StopWithError("Computation failed")
		return nil, err
	}
	spinner.Stop()

	if in.NetworkErr != nil {
		printWarning("Network skipped: %v", in.NetworkErr)
	} else if in.Network != nil && res.Network == nil {
		printWarning("Network layout failed; run with -v for details")
	}

	dir := outputPath(f.src.Table, f.output, ".metavis")
	if err := writeResult(res, dir, f.opts.Formats); err != nil {
		return nil, err
	}
	c.Logger.Debug("wrote results", "run", res.RunID, "dir", dir)
	return res, nil
}

// writeResult writes every view of res into dir.
func writeResult(res *pipeline.Result, dir string, formats []string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	printSuccess("Views complete")
	views := []struct {
		name string
		v    any
		ok   bool
	}{
		{"chord.json", res.Chord, res.Chord != nil},
		{"counts.json", res.Counts, res.Counts != nil},
		{"tree.json", res.Tree, res.Tree != nil},
	}
	for _, view := range views {
		if !view.ok {
			continue
		}
		if err := writeJSON(view.v, filepath.Join(dir, view.name)); err != nil {
			return err
		}
	}
	if res.Network != nil {
		if _, err := writeArtifacts(res.Artifacts, formats, filepath.Join(dir, "network"), ""); err != nil {
			return err
		}
	}
	return nil
}

// allCached reports whether every produced view came from the cache.
func allCached(ci pipeline.CacheInfo, res *pipeline.Result) bool {
	if !ci.ChordHit || !ci.CountsHit {
		return false
	}
	if res.Tree != nil && !ci.TreeHit {
		return false
	}
	if res.Network != nil && !(ci.NetworkHit && ci.RenderHit) {
		return false
	}
	return true
}
