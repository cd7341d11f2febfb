package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/metavis/pkg/cache"
	"github.com/matzehuels/metavis/pkg/observability"
)

func TestMetricsTextfile(t *testing.T) {
	ctx := context.Background()
	m := newMetrics()

	m.OnStageStart(ctx, observability.StageChord)
	m.OnStageComplete(ctx, observability.StageChord, 12, 3*time.Millisecond, nil)
	m.OnStageComplete(ctx, observability.StageLayout, 0, time.Millisecond, errors.New("boom"))
	m.OnCacheHit(ctx, cache.KeyTypeChord)
	m.OnCacheMiss(ctx, cache.KeyTypeLayout)
	m.OnCacheSet(ctx, cache.KeyTypeLayout, 512)

	path := filepath.Join(t.TempDir(), "metavis.prom")
	if err := m.writeTextfile(path); err != nil {
		t.Fatalf("writeTextfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)

	for _, want := range []string{
		`metavis_stage_started_total{stage="chord"} 1`,
		`metavis_stage_completed_total{stage="chord",status="ok"} 1`,
		`metavis_stage_completed_total{stage="layout",status="error"} 1`,
		`metavis_stage_output_size{stage="chord"} 12`,
		`metavis_cache_hits_total{type="chord"} 1`,
		`metavis_cache_misses_total{type="layout"} 1`,
		`metavis_cache_written_bytes_total{type="layout"} 512`,
		`metavis_stage_duration_ms_count{stage="chord"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("textfile missing %q\n%s", want, out)
		}
	}
}

func TestMetricsIndependentRegistries(t *testing.T) {
	// Each invocation gets its own registry, so creating twice must not panic
	// with a duplicate registration.
	newMetrics()
	newMetrics()
}
