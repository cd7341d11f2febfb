package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/matzehuels/metavis/pkg/cache"
	metaio "github.com/matzehuels/metavis/pkg/io"
	"github.com/matzehuels/metavis/pkg/observability"
	"github.com/matzehuels/metavis/pkg/pathway"
	"github.com/matzehuels/metavis/pkg/render/network"
)

// RenderNetwork renders l in every format of opts.Formats.
func RenderNetwork(ctx context.Context, l *pathway.Layout, opts Options) (map[string][]byte, error) {
	if l == nil {
		return nil, fmt.Errorf("no network layout to render")
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	var dot string
	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatJSON:
			var buf bytes.Buffer
			err = metaio.WriteJSON(l, &buf)
			data = buf.Bytes()
		case FormatDOT, FormatSVG:
			if dot == "" {
				dot = network.ToDOT(l, network.Options{Scale: opts.Scale, Detailed: opts.Detailed})
			}
			if format == FormatDOT {
				data = []byte(dot)
			} else {
				data, err = network.RenderSVG(ctx, dot)
			}
		default:
			err = ValidateFormat(format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

// RenderWithCacheInfo renders l with caching. Artifacts are served from the
// cache only when every requested format is present.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, l *pathway.Layout, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}
	layoutHash, err := cache.HashJSON(struct {
		Layout   *pathway.Layout
		Scale    float64
		Detailed bool
	}{l, opts.Scale, opts.Detailed})
	if err != nil {
		return nil, false, fmt.Errorf("hash layout: %w", err)
	}

	hooks := observability.Cache()
	if !opts.Refresh {
		artifacts := make(map[string][]byte, len(opts.Formats))
		for _, format := range opts.Formats {
			data, hit, err := r.Cache.Get(ctx, r.Keyer.ArtifactKey(layoutHash, format))
			if err != nil || !hit {
				break
			}
			artifacts[format] = data
		}
		if len(artifacts) == len(opts.Formats) {
			hooks.OnCacheHit(ctx, cache.KeyTypeArtifact)
			return artifacts, true, nil
		}
		hooks.OnCacheMiss(ctx, cache.KeyTypeArtifact)
	}

	stages := observability.Pipeline()
	stages.OnStageStart(ctx, observability.StageRender)
	start := time.Now()
	rendered, err := RenderNetwork(ctx, l, opts)
	stages.OnStageComplete(ctx, observability.StageRender, len(rendered), time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		if err := r.Cache.Set(ctx, r.Keyer.ArtifactKey(layoutHash, format), data, cache.TTLArtifact); err == nil {
			hooks.OnCacheSet(ctx, cache.KeyTypeArtifact, len(data))
		}
	}
	return rendered, false, nil
}

// Render is RenderWithCacheInfo without the cache hit info.
func (r *Runner) Render(ctx context.Context, l *pathway.Layout, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, l, opts)
	return artifacts, err
}
