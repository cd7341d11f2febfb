package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/matzehuels/metavis/pkg/errors"
	metaio "github.com/matzehuels/metavis/pkg/io"
)

// networkCommand creates the network command.
func (c *CLI) networkCommand() *cobra.Command {
	var (
		f          viewFlags
		formatsStr string
	)

	cmd := &cobra.Command{
		Use:   "network [table.tsv]",
		Short: "Lay out a pathway network of the table's enzymes",
		Long: `Lay out a pathway network of the table's enzymes.

Edges come from --edges (a pathway map edge file) or from --pathway in the
reference database. Only edges between enzymes of the table (or --nodes) are
kept; enzymes are grouped by the sub-pathway of their edges and each group is
placed on a shared grid. Without --edges or --pathway, a pathway can be picked
interactively from the reference database.

Output formats: json (grid coordinates), dot (Graphviz with pinned positions),
svg (rendered with neato).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f.src.Table = args[0]
			f.opts.Formats = parseFormats(formatsStr)
			return c.runNetwork(cmd.Context(), cmd, &f)
		},
	}

	f.addNetworkFlags(cmd, &formatsStr)
	f.addCommonFlags(cmd, "output file (single format) or base path (multiple)")

	return cmd
}

func (c *CLI) runNetwork(ctx context.Context, cmd *cobra.Command, f *viewFlags) error {
	s, err := c.prepare(ctx, cmd, f)
	if err != nil {
		return err
	}
	defer s.Close()

	if !f.src.HasNetwork() {
		id, err := c.choosePathway(ctx, s, f)
		if err != nil || id == 0 {
			return err
		}
		f.src.Pathway = id
	}

	in, err := c.load(ctx, s, f)
	if err != nil {
		return err
	}
	if in.NetworkErr != nil {
		return fmt.Errorf("load network: %w", in.NetworkErr)
	}

	spinner := newSpinnerWithContext(ctx, "Placing network...")
	spinner.Start()
	l, cacheHit := s.runner.NetworkWithCacheInfo(ctx, *in.Network, f.opts)
	if l == nil {
		spinner.StopWithError("Layout failed")
		return errors.New(errors.ErrCodeInternal, "network layout failed (run with -v for details)")
	}
	spinner.Stop()

	artifacts, renderHit, err := s.runner.RenderWithCacheInfo(ctx, l, f.opts)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}

	printSuccess("Network complete")
	base := outputPath(f.src.Table, strings.TrimSuffix(f.output, filepath.Ext(f.output)), ".network")
	if _, err := writeArtifacts(artifacts, f.opts.Formats, base, f.output); err != nil {
		return err
	}
	printStats(cacheHit && renderHit,
		count(len(l.Coordinates()), "node", "nodes"),
		count(len(l.Groups), "group", "groups"),
		fmt.Sprintf("height %d", l.Height))
	return nil
}

// choosePathway asks for a pathway when running on a terminal with a
// reference database.
func (c *CLI) choosePathway(ctx context.Context, s *session, f *viewFlags) (int, error) {
	if s.db == nil || !term.IsTerminal(int(os.Stdin.Fd())) {
		return 0, errors.New(errors.ErrCodeInvalidInput, "no pathway given: pass --edges, or --pathway with --db")
	}

	t, err := metaio.ImportTable(f.src.Table)
	if err != nil {
		return 0, err
	}
	present := make(map[string]bool)
	for _, k := range t.Keys() {
		present[k] = true
	}
	ms, err := s.db.Superpathways(ctx)
	if err != nil {
		return 0, err
	}
	choices := pathwayChoices(ms, present)
	if len(choices) == 0 {
		return 0, errors.New(errors.ErrCodeNotFound, "reference database lists no pathways")
	}

	printInfo("%d pathways, %d with enzymes of %s", len(choices), countPresent(choices), filepath.Base(f.src.Table))
	printNewline()
	id, err := pickPathway(choices)
	if err != nil {
		return 0, err
	}
	if id == 0 {
		printDetail("No selection made")
	}
	return id, nil
}

func countPresent(choices []pathwayChoice) int {
	n := 0
	for _, p := range choices {
		if p.Present > 0 {
			n++
		}
	}
	return n
}
