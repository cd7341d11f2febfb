// Package observability lets the application observe pipeline runs without
// the library packages depending on a metrics backend.
//
// Hooks are registered once at startup, typically by the CLI:
//
//	observability.SetPipelineHooks(metrics)
//	observability.SetCacheHooks(metrics)
//
// The pipeline then reports each stage it runs:
//
//	observability.Pipeline().OnStageStart(ctx, observability.StageLayout)
//	// ... place nodes ...
//	observability.Pipeline().OnStageComplete(ctx, observability.StageLayout, nodes, time.Since(start), err)
package observability

import (
	"context"
	"sync"
	"time"
)

// Pipeline stages.
const (
	StageChord  = "chord"
	StageCounts = "counts"
	StageTree   = "tree"
	StageLayout = "layout"
	StageRender = "render"
)

// PipelineHooks receives pipeline stage events.
type PipelineHooks interface {
	OnStageStart(ctx context.Context, stage string)
	// OnStageComplete reports the outcome of a stage. size is the number of
	// items produced (matrix rows, categories, tree leaves, placed nodes).
	OnStageComplete(ctx context.Context, stage string, size int, duration time.Duration, err error)
}

// CacheHooks receives cache events. keyType is one of the cache.KeyType*
// constants.
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// NoopPipelineHooks ignores all events.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnStageStart(context.Context, string) {}
func (NoopPipelineHooks) OnStageComplete(context.Context, string, int, time.Duration, error) {
}

// NoopCacheHooks ignores all events.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

var (
	hooksMu       sync.RWMutex
	pipelineHooks PipelineHooks = NoopPipelineHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
)

// SetPipelineHooks registers h. A nil h is ignored.
func SetPipelineHooks(h PipelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pipelineHooks = h
	}
}

// SetCacheHooks registers h. A nil h is ignored.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pipelineHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores the no-op hooks.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	pipelineHooks = NoopPipelineHooks{}
	cacheHooks = NoopCacheHooks{}
}
