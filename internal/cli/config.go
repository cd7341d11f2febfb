package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/metavis/pkg/errors"
	"github.com/matzehuels/metavis/pkg/pipeline"
)

// configNames are the config files looked up in the working directory.
var configNames = []string{"metavis.toml", "metavis.yaml", "metavis.yml"}

// Config is the optional metavis config file. Flags override its values.
type Config struct {
	DB          string `toml:"db" yaml:"db"`
	CacheURL    string `toml:"cache_url" yaml:"cache_url"`
	MetricsFile string `toml:"metrics_file" yaml:"metrics_file"`

	Rank            string   `toml:"rank" yaml:"rank"`
	AnnotationLevel string   `toml:"annotation_level" yaml:"annotation_level"`
	Levels          []string `toml:"levels" yaml:"levels"`
	Filter          struct {
		Rank string `toml:"rank" yaml:"rank"`
		Name string `toml:"name" yaml:"name"`
	} `toml:"filter" yaml:"filter"`

	Network struct {
		Formats  []string `toml:"formats" yaml:"formats"`
		Scale    float64  `toml:"scale" yaml:"scale"`
		Detailed bool     `toml:"detailed" yaml:"detailed"`
		Manifest string   `toml:"manifest" yaml:"manifest"`
	} `toml:"network" yaml:"network"`
}

// LoadConfig reads the config at path. With an empty path the working
// directory is searched; finding nothing there yields an empty config.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		for _, name := range configNames {
			if _, err := os.Stat(name); err == nil {
				path = name
				break
			}
		}
		if path == "" {
			return &Config{}, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "read config %s", path)
	}

	var cfg Config
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = toml.Unmarshal(data, &cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "config %s: unsupported extension %q (want .toml, .yaml or .yml)", path, ext)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse config %s", path)
	}
	return &cfg, nil
}

// apply copies config values into opts for every option whose flag was not
// set on the command line.
func (cfg *Config) apply(cmd *cobra.Command, opts *pipeline.Options) {
	if cfg == nil {
		return
	}
	changed := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		return f != nil && f.Changed
	}

	if !changed("rank") && cfg.Rank != "" {
		opts.Rank = cfg.Rank
	}
	if !changed("annotation-level") && cfg.AnnotationLevel != "" {
		opts.AnnotationLevel = cfg.AnnotationLevel
	}
	if !changed("levels") && len(cfg.Levels) > 0 {
		opts.Levels = cfg.Levels
	}
	if !changed("filter-rank") && !changed("filter-name") && cfg.Filter.Rank != "" {
		opts.Filter.Rank = cfg.Filter.Rank
		opts.Filter.Name = cfg.Filter.Name
	}
	if !changed("format") && len(cfg.Network.Formats) > 0 {
		opts.Formats = cfg.Network.Formats
	}
	if !changed("scale") && cfg.Network.Scale > 0 {
		opts.Scale = cfg.Network.Scale
	}
	if !changed("detailed") && cfg.Network.Detailed {
		opts.Detailed = true
	}
}
