package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/matzehuels/metavis/pkg/abundance"
	"github.com/matzehuels/metavis/pkg/cache"
	"github.com/matzehuels/metavis/pkg/chord"
	"github.com/matzehuels/metavis/pkg/hierarchy"
	"github.com/matzehuels/metavis/pkg/observability"
	"github.com/matzehuels/metavis/pkg/pathway"
)

// Runner computes visualizations with caching.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely use the same Runner with different inputs.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Execute computes every view the input supports. The chord and counts views
// are always produced; the tree needs lineage records and the network needs
// network inputs. A failed network layout leaves Result.Network nil.
func (r *Runner) Execute(ctx context.Context, in *Input, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	res := &Result{
		RunID:     uuid.NewString(),
		Artifacts: make(map[string][]byte),
	}
	logger := opts.Logger.With("run", res.RunID[:8])
	res.Stats.Rows = len(in.Table.Rows)
	res.Stats.Taxa = len(in.Table.Measurements())
	res.Stats.Annotations = len(in.Table.Keys())

	start := time.Now()
	ch, hit, err := r.ChordWithCacheInfo(ctx, in.Table, in.Annotations, in.Taxonomy, opts)
	if err != nil {
		return nil, fmt.Errorf("chord: %w", err)
	}
	res.Chord, res.CacheInfo.ChordHit = &ch, hit
	res.Stats.ChordTime = time.Since(start)
	logger.Info("built chord matrices",
		"outer", len(ch.OuterIndex),
		"inner", len(ch.InnerIndex),
		"cached", hit,
		"duration", res.Stats.ChordTime)

	start = time.Now()
	counts, hit, err := r.CountsWithCacheInfo(ctx, in.Table, in.Taxonomy, opts)
	if err != nil {
		return nil, fmt.Errorf("counts: %w", err)
	}
	res.Counts, res.CacheInfo.CountsHit = &counts, hit
	res.Stats.CountsTime = time.Since(start)
	logger.Info("averaged counts",
		"categories", len(counts.Index),
		"cached", hit,
		"duration", res.Stats.CountsTime)

	if len(in.Records) > 0 {
		start = time.Now()
		tree, hit, err := r.TreeWithCacheInfo(ctx, in.Table, in.Records, opts)
		if err != nil {
			return nil, fmt.Errorf("tree: %w", err)
		}
		res.Tree, res.CacheInfo.TreeHit = tree, hit
		res.Stats.TreeTime = time.Since(start)
		logger.Info("folded taxonomy tree",
			"records", len(in.Records),
			"cached", hit,
			"duration", res.Stats.TreeTime)
	}

	switch {
	case in.NetworkErr != nil:
		logger.Warn("skipping network", "error", in.NetworkErr)
	case in.Network != nil:
		start = time.Now()
		l, hit := r.NetworkWithCacheInfo(ctx, *in.Network, opts)
		res.Stats.NetworkTime = time.Since(start)
		if l == nil {
			break
		}
		res.Network, res.CacheInfo.NetworkHit = l, hit
		res.Stats.Nodes = len(l.Coordinates())
		res.Stats.Groups = len(l.Groups)
		logger.Info("placed network",
			"nodes", res.Stats.Nodes,
			"groups", res.Stats.Groups,
			"height", l.Height,
			"cached", hit,
			"duration", res.Stats.NetworkTime)

		start = time.Now()
		artifacts, hit, err := r.RenderWithCacheInfo(ctx, l, opts)
		if err != nil {
			return nil, fmt.Errorf("render: %w", err)
		}
		res.Artifacts, res.CacheInfo.RenderHit = artifacts, hit
		res.Stats.RenderTime = time.Since(start)
		logger.Info("rendered network",
			"formats", opts.Formats,
			"cached", hit,
			"duration", res.Stats.RenderTime)
	}

	return res, nil
}

// ChordWithCacheInfo builds the chord matrices and reports whether they came
// from the cache.
func (r *Runner) ChordWithCacheInfo(ctx context.Context, t abundance.Table, annotations, taxonomy map[string]string, opts Options) (chord.Result, bool, error) {
	tableHash, err := cache.HashJSON(t)
	if err != nil {
		return chord.Result{}, false, err
	}
	annHash, _ := cache.HashJSON(annotations)
	taxHash, _ := cache.HashJSON(taxonomy)
	key := r.Keyer.ChordKey(tableHash, cache.ChordKeyOpts{AnnotationHash: annHash, TaxonomyHash: taxHash})

	snap, hit, err := cached(ctx, r, cacheEntry{
		keyType: cache.KeyTypeChord,
		key:     key,
		ttl:     cache.TTLChord,
		refresh: opts.Refresh,
		stage:   observability.StageChord,
	}, func() (chord.Snapshot, int, error) {
		res := chord.Build(t, annotations, taxonomy)
		return res.Snapshot(), len(res.OuterIndex), nil
	})
	if err != nil {
		return chord.Result{}, false, err
	}
	return snap.Result(), hit, nil
}

// Chord is ChordWithCacheInfo without the cache hit info.
func (r *Runner) Chord(ctx context.Context, t abundance.Table, annotations, taxonomy map[string]string, opts Options) (chord.Result, error) {
	res, _, err := r.ChordWithCacheInfo(ctx, t, annotations, taxonomy, opts)
	return res, err
}

// CountsWithCacheInfo averages the table per category of categoryOf.
func (r *Runner) CountsWithCacheInfo(ctx context.Context, t abundance.Table, categoryOf map[string]string, opts Options) (hierarchy.Counts, bool, error) {
	tableHash, err := cache.HashJSON(t)
	if err != nil {
		return hierarchy.Counts{}, false, err
	}
	catHash, _ := cache.HashJSON(categoryOf)
	key := r.Keyer.CountsKey(tableHash, cache.CountsKeyOpts{CategoryHash: catHash})

	return cached(ctx, r, cacheEntry{
		keyType: cache.KeyTypeCounts,
		key:     key,
		ttl:     cache.TTLCounts,
		refresh: opts.Refresh,
		stage:   observability.StageCounts,
	}, func() (hierarchy.Counts, int, error) {
		c := hierarchy.MeanCounts(t, categoryOf)
		return c, len(c.Index), nil
	})
}

// Counts is CountsWithCacheInfo without the cache hit info.
func (r *Runner) Counts(ctx context.Context, t abundance.Table, categoryOf map[string]string, opts Options) (hierarchy.Counts, error) {
	c, _, err := r.CountsWithCacheInfo(ctx, t, categoryOf, opts)
	return c, err
}

// TreeWithCacheInfo folds records into the sunburst tree at opts.Levels.
func (r *Runner) TreeWithCacheInfo(ctx context.Context, t abundance.Table, records []hierarchy.Record, opts Options) (*hierarchy.Node, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}
	tableHash, err := cache.HashJSON(t)
	if err != nil {
		return nil, false, err
	}
	recHash, _ := cache.HashJSON(records)
	key := r.Keyer.TreeKey(tableHash, cache.TreeKeyOpts{RecordsHash: recHash, Levels: opts.Levels})

	return cached(ctx, r, cacheEntry{
		keyType: cache.KeyTypeTree,
		key:     key,
		ttl:     cache.TTLTree,
		refresh: opts.Refresh,
		stage:   observability.StageTree,
	}, func() (*hierarchy.Node, int, error) {
		n := hierarchy.BuildTree(t, records, opts.Levels)
		return n, countLeaves(n), nil
	})
}

// Tree is TreeWithCacheInfo without the cache hit info.
func (r *Runner) Tree(ctx context.Context, t abundance.Table, records []hierarchy.Record, opts Options) (*hierarchy.Node, error) {
	n, _, err := r.TreeWithCacheInfo(ctx, t, records, opts)
	return n, err
}

// NetworkWithCacheInfo places the pathway network. Placement errors are
// logged and reported as a nil layout, so a bad edge file never takes the
// other views down with it.
func (r *Runner) NetworkWithCacheInfo(ctx context.Context, in NetworkInput, opts Options) (*pathway.Layout, bool) {
	nodesHash, _ := cache.HashJSON(in.Nodes)
	edgesHash, _ := cache.HashJSON(in.Edges)
	namesHash, _ := cache.HashJSON(in.Names)
	key := r.Keyer.LayoutKey(cache.LayoutKeyOpts{NodesHash: nodesHash, EdgesHash: edgesHash, NamesHash: namesHash})

	l, hit, err := cached(ctx, r, cacheEntry{
		keyType: cache.KeyTypeLayout,
		key:     key,
		ttl:     cache.TTLLayout,
		refresh: opts.Refresh,
		stage:   observability.StageLayout,
	}, func() (*pathway.Layout, int, error) {
		l, err := pathway.Place(in.Nodes, in.Edges, in.Names)
		if err != nil {
			return nil, 0, err
		}
		return l, len(l.Coordinates()), nil
	})
	if err != nil {
		r.Logger.Error("network layout failed", "nodes", len(in.Nodes), "edges", len(in.Edges), "error", err)
		return nil, false
	}
	return l, hit
}

// Network is NetworkWithCacheInfo without the cache hit info.
func (r *Runner) Network(ctx context.Context, in NetworkInput, opts Options) *pathway.Layout {
	l, _ := r.NetworkWithCacheInfo(ctx, in, opts)
	return l
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

type cacheEntry struct {
	keyType string
	key     string
	ttl     time.Duration
	refresh bool
	stage   string
}

// cached returns the value stored under e.key, or computes, stores and
// returns it. Undecodable entries are recomputed. compute also returns the
// stage size reported to the pipeline hooks.
func cached[T any](ctx context.Context, r *Runner, e cacheEntry, compute func() (T, int, error)) (T, bool, error) {
	hooks := observability.Cache()
	if !e.refresh {
		if data, hit, err := r.Cache.Get(ctx, e.key); err == nil && hit {
			var v T
			if err := json.Unmarshal(data, &v); err == nil {
				hooks.OnCacheHit(ctx, e.keyType)
				return v, true, nil
			}
			r.Logger.Debug("discarding undecodable cache entry", "key", e.key)
		} else if err != nil {
			r.Logger.Debug("cache read failed", "key", e.key, "error", err)
		}
		hooks.OnCacheMiss(ctx, e.keyType)
	}

	stages := observability.Pipeline()
	stages.OnStageStart(ctx, e.stage)
	start := time.Now()
	v, size, err := compute()
	stages.OnStageComplete(ctx, e.stage, size, time.Since(start), err)
	if err != nil {
		var zero T
		return zero, false, err
	}

	if data, err := json.Marshal(v); err == nil {
		if err := r.Cache.Set(ctx, e.key, data, e.ttl); err != nil {
			r.Logger.Debug("cache write failed", "key", e.key, "error", err)
		} else {
			hooks.OnCacheSet(ctx, e.keyType, len(data))
		}
	}
	return v, false, nil
}

func countLeaves(n *hierarchy.Node) int {
	if n == nil {
		return 0
	}
	if n.IsLeaf() {
		return 1
	}
	total := 0
	for _, c := range n.Children {
		total += countLeaves(c)
	}
	return total
}
