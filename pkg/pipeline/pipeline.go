// Package pipeline turns loaded inputs into every metavis visualization.
//
// The CLI (and anything else embedding metavis) goes through a [Runner],
// which adds result caching, logging and observability hooks around the pure
// computations in chord, hierarchy, pathway and layout:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	in, err := pipeline.Load(ctx, pipeline.Sources{Table: "ecs.tsv", Taxonomy: "tax.tsv"}, nil, opts)
//	res, err := runner.Execute(ctx, in, opts)
//
// Individual views are available as separate methods ([Runner.Chord],
// [Runner.Counts], [Runner.Tree], [Runner.Network]). Network layout failures
// never fail a run: they are logged and the network view is left empty.
package pipeline

import (
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/metavis/pkg/chord"
	"github.com/matzehuels/metavis/pkg/errors"
	"github.com/matzehuels/metavis/pkg/hierarchy"
	"github.com/matzehuels/metavis/pkg/pathway"
	"github.com/matzehuels/metavis/pkg/refdata"
	"github.com/matzehuels/metavis/pkg/render/network"
)

// DefaultRank is the taxonomy rank used to categorize taxa.
const DefaultRank = "phylum"

// DefaultAnnotationLevel groups enzymes by pathway in the chord view when
// annotations come from the reference database.
const DefaultAnnotationLevel = refdata.LevelPathway

// DefaultScale is the network grid spacing in points.
const DefaultScale = network.DefaultScale

// Output formats for network artifacts.
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
)

// ValidFormats is the set of supported network output formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatDOT:  true,
	FormatSVG:  true,
}

// Options configures a pipeline run. It is loaded from config files and
// flags, hence the JSON tags.
type Options struct {
	// Rank is the taxonomy rank taxa are grouped by in the chord and counts views.
	Rank string `json:"rank,omitempty"`
	// Filter restricts taxonomy lookups to one clade.
	Filter refdata.Filter `json:"filter,omitempty"`
	// AnnotationLevel picks the reference database name enzymes are grouped
	// by: refdata.LevelPathway or refdata.LevelSuperpathway.
	AnnotationLevel string `json:"annotation_level,omitempty"`
	// Levels are the sunburst ranks, broadest first.
	Levels []string `json:"levels,omitempty"`

	// Formats lists the network artifacts to render.
	Formats []string `json:"formats,omitempty"`
	// Scale is the network grid spacing in points.
	Scale float64 `json:"scale,omitempty"`
	// Detailed adds group names to network node labels.
	Detailed bool `json:"detailed,omitempty"`

	// Refresh recomputes results even when cached.
	Refresh bool `json:"refresh,omitempty"`

	Logger *log.Logger `json:"-"`

	validated bool
}

// ValidateFormat checks that format is a supported network format.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format %q (must be one of: json, dot, svg)", format)
	}
	return nil
}

// ValidateFormats checks every format.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateAnnotationLevel checks that level is pathway or superpathway.
func ValidateAnnotationLevel(level string) error {
	switch level {
	case refdata.LevelPathway, refdata.LevelSuperpathway:
		return nil
	}
	return errors.New(errors.ErrCodeInvalidInput, "invalid annotation level %q (must be pathway or superpathway)", level)
}

// ValidateAndSetDefaults checks o and fills in defaults. It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	o.SetDefaults()
	if err := errors.ValidateRank(o.Rank); err != nil {
		return err
	}
	if err := ValidateAnnotationLevel(o.AnnotationLevel); err != nil {
		return err
	}
	for _, l := range o.Levels {
		if err := errors.ValidateRank(l); err != nil {
			return fmt.Errorf("levels: %w", err)
		}
	}
	if !o.Filter.IsZero() {
		if err := errors.ValidateRank(o.Filter.Rank); err != nil {
			return fmt.Errorf("filter: %w", err)
		}
		if o.Filter.Name == "" {
			return errors.New(errors.ErrCodeInvalidInput, "filter name is required with a filter rank")
		}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// SetDefaults fills in zero fields.
func (o *Options) SetDefaults() {
	if o.Rank == "" {
		o.Rank = DefaultRank
	}
	if o.AnnotationLevel == "" {
		o.AnnotationLevel = DefaultAnnotationLevel
	}
	if len(o.Levels) == 0 {
		o.Levels = slices.Clone(hierarchy.DefaultLevels)
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatJSON}
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Result holds every view produced by [Runner.Execute]. Views whose inputs
// were missing are nil.
type Result struct {
	// RunID identifies the run in logs and metrics.
	RunID string `json:"run_id"`

	Chord   *chord.Result     `json:"chord,omitempty"`
	Counts  *hierarchy.Counts `json:"counts,omitempty"`
	Tree    *hierarchy.Node   `json:"tree,omitempty"`
	Network *pathway.Layout   `json:"network,omitempty"`

	// Artifacts are the rendered network outputs keyed by format.
	Artifacts map[string][]byte `json:"-"`

	Stats     Stats     `json:"-"`
	CacheInfo CacheInfo `json:"-"`
}

// Stats records sizes and timings of a run.
type Stats struct {
	Rows        int
	Taxa        int
	Annotations int
	Nodes       int
	Groups      int

	ChordTime   time.Duration
	CountsTime  time.Duration
	TreeTime    time.Duration
	NetworkTime time.Duration
	RenderTime  time.Duration
}

// CacheInfo records which stages were served from the cache.
type CacheInfo struct {
	ChordHit   bool
	CountsHit  bool
	TreeHit    bool
	NetworkHit bool
	RenderHit  bool
}
