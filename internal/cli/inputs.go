package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	metaio "github.com/matzehuels/metavis/pkg/io"
	"github.com/matzehuels/metavis/pkg/pipeline"
	"github.com/matzehuels/metavis/pkg/refdata"
)

// viewFlags are the flags shared by every command that reads a table.
type viewFlags struct {
	src     pipeline.Sources
	opts    pipeline.Options
	output  string
	noCache bool
	refresh bool
}

func (f *viewFlags) addAnnotationFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.src.Annotations, "annotations", "", "EC number → pathway category file (default: look up in --db)")
	cmd.Flags().StringVar(&f.opts.AnnotationLevel, "annotation-level", pipeline.DefaultAnnotationLevel, "reference database grouping of enzymes: pathway or superpathway")
}

func (f *viewFlags) addTaxonomyFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.src.Taxonomy, "taxonomy", "", "taxon → category file (default: look up in --db)")
	cmd.Flags().StringVar(&f.opts.Rank, "rank", pipeline.DefaultRank, "taxonomy rank taxa are grouped by")
	cmd.Flags().StringVar(&f.opts.Filter.Rank, "filter-rank", "", "only consider taxa within this rank's --filter-name clade")
	cmd.Flags().StringVar(&f.opts.Filter.Name, "filter-name", "", "clade name for --filter-rank")
}

func (f *viewFlags) addCommonFlags(cmd *cobra.Command, outputHelp string) {
	cmd.Flags().StringVarP(&f.output, "output", "o", "", outputHelp)
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "recompute even when cached")
}

func (f *viewFlags) addNetworkFlags(cmd *cobra.Command, formatsStr *string) {
	cmd.Flags().StringVar(&f.src.Edges, "edges", "", "pathway edge file (source,target,pathway_number)")
	cmd.Flags().StringVar(&f.src.Manifest, "manifest", "", "pathway names file (number,name)")
	cmd.Flags().StringVar(&f.src.Nodes, "nodes", "", "node list, one EC number per line (default: the table's enzymes)")
	cmd.Flags().IntVar(&f.src.Pathway, "pathway", 0, "reference database pathway id (instead of --edges)")
	cmd.Flags().StringVarP(formatsStr, "format", "f", "", "output format(s): json (default), dot, svg (comma-separated)")
	cmd.Flags().Float64Var(&f.opts.Scale, "scale", pipeline.DefaultScale, "grid spacing in points")
	cmd.Flags().BoolVar(&f.opts.Detailed, "detailed", false, "add pathway names to node labels")
}

// session is an open database and runner for one command invocation.
type session struct {
	db     *refdata.DB
	runner *pipeline.Runner
}

func (s *session) Close() {
	if s.db != nil {
		s.db.Close()
	}
	s.runner.Close()
}

// prepare merges the config file into f, validates the options and opens the
// reference database and runner.
func (c *CLI) prepare(ctx context.Context, cmd *cobra.Command, f *viewFlags) (*session, error) {
	c.config.apply(cmd, &f.opts)
	if f.src.Manifest == "" && c.config != nil {
		f.src.Manifest = c.config.Network.Manifest
	}
	f.opts.Refresh = f.refresh
	f.opts.Logger = c.Logger
	if err := f.opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	db, err := c.openDB()
	if err != nil {
		return nil, err
	}
	runner, err := c.newRunner(ctx, f.noCache)
	if err != nil {
		if db != nil {
			db.Close()
		}
		return nil, fmt.Errorf("initialize runner: %w", err)
	}
	return &session{db: db, runner: runner}, nil
}

// load reads the inputs of f behind a spinner.
func (c *CLI) load(ctx context.Context, s *session, f *viewFlags) (*pipeline.Input, error) {
	spinner := newSpinnerWithContext(ctx, "Loading "+filepath.Base(f.src.Table)+"...")
	spinner.Start()
	in, err := pipeline.Load(ctx, f.src, s.db, f.opts)
	if err != nil {
		spinner.StopWithError("Loading failed")
		return nil, err
	}
	spinner.Stop()

	c.Logger.Debug("loaded inputs",
		"rows", len(in.Table.Rows),
		"taxa", len(in.Table.Measurements()),
		"annotations", len(in.Annotations),
		"taxonomy", len(in.Taxonomy),
		"records", len(in.Records))
	return in, nil
}

// writeJSON writes v to path and reports it.
func writeJSON(v any, path string) error {
	if err := metaio.ExportJSON(v, path); err != nil {
		return fmt.Errorf("write output %s: %w", path, err)
	}
	printFile(path)
	return nil
}

// writeArtifacts writes rendered network artifacts. A single format goes to
// output if given; otherwise each format is written next to base with its
// format as extension.
func writeArtifacts(artifacts map[string][]byte, formats []string, base, output string) ([]string, error) {
	var paths []string
	for _, format := range formats {
		data, ok := artifacts[format]
		if !ok {
			continue
		}
		path := base + "." + format
		if output != "" && len(formats) == 1 {
			path = output
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	slices.Sort(paths)
	for _, p := range paths {
		printFile(p)
	}
	return paths, nil
}
