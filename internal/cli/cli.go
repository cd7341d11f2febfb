package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/metavis/pkg/buildinfo"
	"github.com/matzehuels/metavis/pkg/cache"
	"github.com/matzehuels/metavis/pkg/observability"
	"github.com/matzehuels/metavis/pkg/pipeline"
	"github.com/matzehuels/metavis/pkg/refdata"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "metavis"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Set by persistent flags, possibly filled in from the config file.
	configPath  string
	dbPath      string
	cacheURL    string
	metricsFile string

	config  *Config
	metrics *metrics
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "metavis visualizes metagenomic abundance tables",
		Long: `metavis turns a metagenomic abundance table (enzymes by taxa) into
visualization data: chord diagrams linking pathways and taxa, per-category
mean counts, taxonomy sunbursts and laid-out pathway networks.`,
		Version:           buildinfo.Version,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return c.flushMetrics()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	pf := root.PersistentFlags()
	pf.StringVar(&c.configPath, "config", "", "config file (default: ./metavis.toml, .yaml or .yml if present)")
	pf.StringVar(&c.dbPath, "db", "", "reference database (SQLite) for taxonomy and pathway lookups")
	pf.StringVar(&c.cacheURL, "cache-url", "", "share results through redis (redis://host:port/db) instead of the local cache")
	pf.StringVar(&c.metricsFile, "metrics-file", "", "write prometheus metrics to this file on exit")

	root.AddCommand(c.chordCommand())
	root.AddCommand(c.countsCommand())
	root.AddCommand(c.kronaCommand())
	root.AddCommand(c.networkCommand())
	root.AddCommand(c.runCommand())
	root.AddCommand(c.watchCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// setup loads the config file and installs metrics hooks.
func (c *CLI) setup(cmd *cobra.Command, args []string) error {
	cfg, err := LoadConfig(c.configPath)
	if err != nil {
		return err
	}
	c.config = cfg
	if c.dbPath == "" {
		c.dbPath = cfg.DB
	}
	if c.cacheURL == "" {
		c.cacheURL = cfg.CacheURL
	}
	if c.metricsFile == "" {
		c.metricsFile = cfg.MetricsFile
	}

	if c.metricsFile != "" {
		c.metrics = newMetrics()
		observability.SetPipelineHooks(c.metrics)
		observability.SetCacheHooks(c.metrics)
	}
	return nil
}

func (c *CLI) flushMetrics() error {
	if c.metrics == nil {
		return nil
	}
	if err := c.metrics.writeTextfile(c.metricsFile); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	c.Logger.Debug("wrote metrics", "path", c.metricsFile)
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	store, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	var keyer cache.Keyer
	if c.cacheURL != "" && !noCache {
		keyer = cache.NewScopedKeyer(nil, appName+":"+buildinfo.Version+":")
	}
	return pipeline.NewRunner(store, keyer, c.Logger), nil
}

func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	if c.cacheURL != "" {
		rc, err := cache.NewRedisCache(ctx, c.cacheURL)
		if err != nil {
			return nil, fmt.Errorf("connect cache: %w", err)
		}
		return rc, nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// openDB opens the reference database, or returns nil when none is configured.
func (c *CLI) openDB() (*refdata.DB, error) {
	if c.dbPath == "" {
		return nil, nil
	}
	db, err := refdata.Open(c.dbPath)
	if err != nil {
		return nil, fmt.Errorf("open reference database: %w", err)
	}
	c.Logger.Debug("opened reference database", "path", c.dbPath)
	return db, nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/metavis/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// outputPath returns output, or input with its extension replaced by suffix.
func outputPath(input, output, suffix string) string {
	if output != "" {
		return output
	}
	return strings.TrimSuffix(input, filepath.Ext(input)) + suffix
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatJSON}
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
