package pipeline

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/metavis/pkg/abundance"
	"github.com/matzehuels/metavis/pkg/cache"
	"github.com/matzehuels/metavis/pkg/errors"
	"github.com/matzehuels/metavis/pkg/hierarchy"
	"github.com/matzehuels/metavis/pkg/layout"
	"github.com/matzehuels/metavis/pkg/observability"
	"github.com/matzehuels/metavis/pkg/refdata"
)

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"json", false},
		{"dot", false},
		{"svg", false},
		{"png", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"svg", "dot"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}
	if err := ValidateFormats([]string{"svg", "invalid"}); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("Invalid format error = %v, want INVALID_FORMAT", err)
	}
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestOptionsDefaults(t *testing.T) {
	var opts Options
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults: %v", err)
	}
	if opts.Rank != DefaultRank {
		t.Errorf("Rank = %q, want %q", opts.Rank, DefaultRank)
	}
	if !slices.Equal(opts.Levels, hierarchy.DefaultLevels) {
		t.Errorf("Levels = %v, want %v", opts.Levels, hierarchy.DefaultLevels)
	}
	if !slices.Equal(opts.Formats, []string{FormatJSON}) {
		t.Errorf("Formats = %v", opts.Formats)
	}
	if opts.AnnotationLevel != refdata.LevelPathway {
		t.Errorf("AnnotationLevel = %q, want pathway", opts.AnnotationLevel)
	}
	if opts.Scale != DefaultScale {
		t.Errorf("Scale = %v, want %v", opts.Scale, DefaultScale)
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a discarding logger")
	}

	opts.Levels[0] = "class"
	if hierarchy.DefaultLevels[0] != "phylum" {
		t.Error("defaults must not alias hierarchy.DefaultLevels")
	}
}

func TestOptionsValidation(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"bad rank", Options{Rank: "domain"}, errors.ErrCodeInvalidRank},
		{"bad level", Options{Levels: []string{"phylum", "strain"}}, errors.ErrCodeInvalidRank},
		{"bad filter rank", Options{Filter: refdata.Filter{Rank: "x", Name: "y"}}, errors.ErrCodeInvalidRank},
		{"filter without name", Options{Filter: refdata.Filter{Rank: "class"}}, errors.ErrCodeInvalidInput},
		{"bad format", Options{Formats: []string{"pdf"}}, errors.ErrCodeInvalidFormat},
		{"bad annotation level", Options{AnnotationLevel: "module"}, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want %s", err, tt.code)
			}
		})
	}
}

func sampleTable() abundance.Table {
	return abundance.New(
		[]string{"EC#", "s1", "s2", "s3"},
		[]abundance.Row{
			{"EC#": "1.1.1.1", "s1": "2", "s2": "4", "s3": "0"},
			{"EC#": "2.2.2.2", "s1": "6", "s2": "", "s3": "1"},
		},
	)
}

var (
	sampleAnnotations = map[string]string{"1.1.1.1": "Glycolysis", "2.2.2.2": "TCA cycle"}
	sampleTaxonomy    = map[string]string{"s1": "Firmicutes", "s2": "Firmicutes", "s3": "Proteobacteria"}
)

func newFileRunner(t *testing.T) *Runner {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	return NewRunner(c, nil, nil)
}

func TestRunnerChordCaches(t *testing.T) {
	ctx := context.Background()
	r := newFileRunner(t)
	tbl := sampleTable()

	first, hit, err := r.ChordWithCacheInfo(ctx, tbl, sampleAnnotations, sampleTaxonomy, Options{})
	if err != nil {
		t.Fatalf("Chord: %v", err)
	}
	if hit {
		t.Error("first call should miss")
	}

	second, hit, err := r.ChordWithCacheInfo(ctx, tbl, sampleAnnotations, sampleTaxonomy, Options{})
	if err != nil {
		t.Fatalf("Chord: %v", err)
	}
	if !hit {
		t.Error("second call should hit")
	}
	if !slices.Equal(first.OuterIndex.Labels(), second.OuterIndex.Labels()) {
		t.Errorf("cached index = %v, want %v", second.OuterIndex.Labels(), first.OuterIndex.Labels())
	}

	_, hit, _ = r.ChordWithCacheInfo(ctx, tbl, sampleAnnotations, sampleTaxonomy, Options{Refresh: true})
	if hit {
		t.Error("refresh should bypass the cache")
	}

	other := map[string]string{"s1": "Bacteroidetes"}
	_, hit, _ = r.ChordWithCacheInfo(ctx, tbl, sampleAnnotations, other, Options{})
	if hit {
		t.Error("different taxonomy must not share a cache entry")
	}
}

func TestRunnerChordCacheKeepsGapNamedCategories(t *testing.T) {
	ctx := context.Background()
	r := newFileRunner(t)
	tbl := sampleTable()
	taxonomy := map[string]string{"s1": "gap_2", "s2": "gap_2", "s3": "Proteobacteria"}

	first, hit, err := r.ChordWithCacheInfo(ctx, tbl, sampleAnnotations, taxonomy, Options{})
	if err != nil || hit {
		t.Fatalf("first call: hit=%v err=%v", hit, err)
	}
	second, hit, err := r.ChordWithCacheInfo(ctx, tbl, sampleAnnotations, taxonomy, Options{})
	if err != nil || !hit {
		t.Fatalf("second call: hit=%v err=%v", hit, err)
	}

	want := first.OuterIndex.Position("gap_2")
	if want < 0 {
		t.Fatal("category gap_2 missing from the computed index")
	}
	if got := second.OuterIndex.Position("gap_2"); got != want {
		t.Errorf("cached Position(gap_2) = %d, want %d", got, want)
	}
	if !slices.Equal(second.OuterIndex, first.OuterIndex) {
		t.Errorf("cached index = %+v, want %+v", second.OuterIndex, first.OuterIndex)
	}
}

func TestRunnerCounts(t *testing.T) {
	ctx := context.Background()
	r := newFileRunner(t)

	c, err := r.Counts(ctx, sampleTable(), sampleTaxonomy, Options{})
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	// Firmicutes: 2, 4, 6 (the blank s2 cell is skipped); Proteobacteria: 1.
	if v, ok := c.Lookup("Firmicutes"); !ok || v != 4 {
		t.Errorf("Firmicutes = %v, %v; want 4", v, ok)
	}

	cached, hit, err := r.CountsWithCacheInfo(ctx, sampleTable(), sampleTaxonomy, Options{})
	if err != nil || !hit {
		t.Fatalf("second call: hit=%v err=%v", hit, err)
	}
	if v, _ := cached.Lookup("Proteobacteria"); v != 1 {
		t.Errorf("cached Proteobacteria = %v, want 1", v)
	}
}

func TestRunnerTree(t *testing.T) {
	records := []hierarchy.Record{
		{ID: "s1", Levels: map[string]string{"phylum": "P1", "genus": "G1", "species": "s1"}},
		{ID: "s3", Levels: map[string]string{"phylum": "P2", "genus": "G2", "species": "s3"}},
	}
	tree, err := NewRunner(nil, nil, nil).Tree(context.Background(), sampleTable(), records, Options{})
	if err != nil {
		t.Fatalf("Tree: %v", err)
	}
	if tree.ID != "root" || len(tree.Children) != 2 {
		t.Fatalf("root = %q with %d children", tree.ID, len(tree.Children))
	}
	if n := countLeaves(tree); n != 2 {
		t.Errorf("countLeaves = %d, want 2", n)
	}
}

func sampleNetwork() NetworkInput {
	return NetworkInput{
		Nodes: []string{"1.1.1.1", "2.2.2.2", "3.3.3.3"},
		Edges: []layout.Edge{
			{Source: "1.1.1.1", Target: "2.2.2.2", Group: "00010"},
			{Source: "2.2.2.2", Target: "9.9.9.9", Group: "00020"},
		},
		Names: map[string]string{"00010": "Glycolysis"},
	}
}

func TestRunnerNetwork(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	l := r.Network(context.Background(), sampleNetwork(), Options{})
	if l == nil {
		t.Fatal("Network returned nil")
	}
	if len(l.Edges) != 1 {
		t.Errorf("edges = %v, want only the edge between selected nodes", l.Edges)
	}
	if len(l.Coordinates()) != 3 {
		t.Errorf("placed %d nodes, want 3", len(l.Coordinates()))
	}
	if l.Groups[0].Name != "Glycolysis" || l.Groups[len(l.Groups)-1].Key != layout.UnknownGroup {
		t.Errorf("groups = %+v", l.Groups)
	}
}

func TestRunnerNetworkSwallowsErrors(t *testing.T) {
	in := NetworkInput{Nodes: []string{"1.1.1.1", ""}}
	if l := NewRunner(nil, nil, nil).Network(context.Background(), in, Options{}); l != nil {
		t.Errorf("Network = %+v, want nil for invalid node ids", l)
	}
}

func TestRenderNetwork(t *testing.T) {
	l := NewRunner(nil, nil, nil).Network(context.Background(), sampleNetwork(), Options{})
	artifacts, err := RenderNetwork(context.Background(), l, Options{Formats: []string{FormatJSON, FormatDOT}})
	if err != nil {
		t.Fatalf("RenderNetwork: %v", err)
	}
	if !strings.Contains(string(artifacts[FormatJSON]), `"groups"`) {
		t.Errorf("json artifact = %s", artifacts[FormatJSON])
	}
	if !strings.HasPrefix(string(artifacts[FormatDOT]), "graph G {") {
		t.Errorf("dot artifact = %s", artifacts[FormatDOT])
	}

	if _, err := RenderNetwork(context.Background(), nil, Options{}); err == nil {
		t.Error("nil layout should fail")
	}
}

func TestRunnerRenderCaches(t *testing.T) {
	ctx := context.Background()
	r := newFileRunner(t)
	l := r.Network(ctx, sampleNetwork(), Options{})
	opts := Options{Formats: []string{FormatDOT}}

	if _, hit, err := r.RenderWithCacheInfo(ctx, l, opts); err != nil || hit {
		t.Fatalf("first render: hit=%v err=%v", hit, err)
	}
	if _, hit, err := r.RenderWithCacheInfo(ctx, l, opts); err != nil || !hit {
		t.Fatalf("second render: hit=%v err=%v", hit, err)
	}
	if _, hit, _ := r.RenderWithCacheInfo(ctx, l, Options{Formats: []string{FormatDOT, FormatJSON}}); hit {
		t.Error("a missing format should re-render")
	}
}

type stageRecorder struct {
	mu     sync.Mutex
	stages []string
}

func (s *stageRecorder) OnStageStart(context.Context, string) {}

func (s *stageRecorder) OnStageComplete(_ context.Context, stage string, _ int, _ time.Duration, _ error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stages = append(s.stages, stage)
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAndExecute(t *testing.T) {
	rec := &stageRecorder{}
	observability.SetPipelineHooks(rec)
	t.Cleanup(observability.Reset)

	dir := t.TempDir()
	src := Sources{
		Table:       writeFile(t, dir, "ecs.tsv", "EC#\ts1\ts2\n1.1.1.1\t2\t4\n2.2.2.2\t6\t0\n3.3.3.3\t1\t1\n"),
		Annotations: writeFile(t, dir, "ann.tsv", "1.1.1.1\tGlycolysis\n2.2.2.2\tTCA cycle\n"),
		Taxonomy:    writeFile(t, dir, "tax.tsv", "id\tcategory\ns1\tFirmicutes\ns2\tProteobacteria\n"),
		Edges:       writeFile(t, dir, "global.csv", "source,target,pathway_number\n1.1.1.1,2.2.2.2,00010\n2.2.2.2,3.3.3.3,00010\n"),
		Manifest:    writeFile(t, dir, "manifest.csv", "number,name\n00010,Glycolysis\n"),
	}
	opts := Options{Formats: []string{FormatJSON, FormatDOT}}

	in, err := Load(context.Background(), src, nil, opts)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if in.NetworkErr != nil || in.Network == nil {
		t.Fatalf("network inputs: %v", in.NetworkErr)
	}
	if !slices.Equal(in.Network.Nodes, []string{"1.1.1.1", "2.2.2.2", "3.3.3.3"}) {
		t.Errorf("nodes default to row keys, got %v", in.Network.Nodes)
	}

	res, err := NewRunner(nil, nil, nil).Execute(context.Background(), in, opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.RunID == "" {
		t.Error("RunID should be set")
	}
	if res.Chord == nil || res.Counts == nil || res.Network == nil {
		t.Fatalf("missing views: %+v", res)
	}
	if res.Tree != nil {
		t.Error("tree needs lineage records")
	}
	if res.Stats.Rows != 3 || res.Stats.Taxa != 2 || res.Stats.Nodes != 3 || res.Stats.Groups != 1 {
		t.Errorf("stats = %+v", res.Stats)
	}
	if len(res.Artifacts) != 2 {
		t.Errorf("artifacts = %d, want 2", len(res.Artifacts))
	}

	want := []string{observability.StageChord, observability.StageCounts, observability.StageLayout, observability.StageRender}
	if !slices.Equal(rec.stages, want) {
		t.Errorf("stages = %v, want %v", rec.stages, want)
	}
}

func TestLoadNetworkFailureIsNotFatal(t *testing.T) {
	dir := t.TempDir()
	src := Sources{
		Table: writeFile(t, dir, "ecs.tsv", "EC#\ts1\n1.1.1.1\t2\n"),
		Edges: filepath.Join(dir, "missing.csv"),
	}
	in, err := Load(context.Background(), src, nil, Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !errors.Is(in.NetworkErr, errors.ErrCodeFileNotFound) {
		t.Errorf("NetworkErr = %v, want FILE_NOT_FOUND", in.NetworkErr)
	}

	res, err := NewRunner(nil, nil, nil).Execute(context.Background(), in, Options{})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Network != nil {
		t.Error("network should be skipped")
	}
}

func TestLoadPathwayWithoutDatabase(t *testing.T) {
	dir := t.TempDir()
	src := Sources{Table: writeFile(t, dir, "ecs.tsv", "EC#\ts1\n1.1.1.1\t2\n"), Pathway: 10}
	in, err := Load(context.Background(), src, nil, Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !errors.Is(in.NetworkErr, errors.ErrCodeInvalidInput) {
		t.Errorf("NetworkErr = %v, want INVALID_INPUT", in.NetworkErr)
	}
}

func TestLoadMissingTable(t *testing.T) {
	_, err := Load(context.Background(), Sources{Table: filepath.Join(t.TempDir(), "nope.tsv")}, nil, Options{})
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("error = %v, want FILE_NOT_FOUND", err)
	}
}

const referenceSchema = `
CREATE TABLE names (tax_id INTEGER PRIMARY KEY, name TEXT);
CREATE TABLE parents (
	tax_id INTEGER PRIMARY KEY,
	t_realm INTEGER, t_kingdom INTEGER, t_phylum INTEGER, t_class INTEGER,
	t_order INTEGER, t_family INTEGER, t_genus INTEGER, t_species INTEGER
);
CREATE TABLE pathway_nodes (id INTEGER PRIMARY KEY, name TEXT, x REAL, y REAL, type TEXT, pathway INTEGER);
CREATE TABLE pathway_edges (source INTEGER, target INTEGER, pathway INTEGER);
CREATE TABLE pathway_superpathways (id INTEGER PRIMARY KEY, name TEXT, superpathway INTEGER);
CREATE TABLE superpathways (id INTEGER PRIMARY KEY, name TEXT);

INSERT INTO superpathways VALUES (1, 'Carbohydrate metabolism');
INSERT INTO pathway_superpathways VALUES (10, 'Glycolysis', 1), (20, 'Citrate cycle', 1);
INSERT INTO pathway_nodes VALUES
	(1, '1.1.1.1', 0, 0, 'enzyme', 10),
	(2, '2.2.2.2', 10, 5, 'enzyme', 20);
`

func openReference(t *testing.T) *refdata.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reference.db")
	rw, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("create reference: %v", err)
	}
	if _, err := rw.Exec(referenceSchema); err != nil {
		t.Fatalf("load reference: %v", err)
	}
	rw.Close()

	db, err := refdata.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestLoadAnnotationLevel(t *testing.T) {
	db := openReference(t)
	dir := t.TempDir()
	src := Sources{
		Table:    writeFile(t, dir, "ecs.tsv", "EC#\ts1\ts2\n1.1.1.1\t2\t4\n2.2.2.2\t6\t1\n"),
		Taxonomy: writeFile(t, dir, "tax.tsv", "s1\tFirmicutes\ns2\tProteobacteria\n"),
	}

	tests := []struct {
		level string
		want  []string
	}{
		{"", []string{"gap_1", "Glycolysis", "Citrate cycle", "gap_2", "Firmicutes", "Proteobacteria", "gap_3"}},
		{refdata.LevelPathway, []string{"gap_1", "Glycolysis", "Citrate cycle", "gap_2", "Firmicutes", "Proteobacteria", "gap_3"}},
		{refdata.LevelSuperpathway, []string{"gap_1", "Carbohydrate metabolism", "gap_2", "Firmicutes", "Proteobacteria", "gap_3"}},
	}
	for _, tt := range tests {
		t.Run("level="+tt.level, func(t *testing.T) {
			opts := Options{AnnotationLevel: tt.level}
			in, err := Load(context.Background(), src, db, opts)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			res, err := NewRunner(nil, nil, nil).Chord(context.Background(), in.Table, in.Annotations, in.Taxonomy, opts)
			if err != nil {
				t.Fatalf("Chord: %v", err)
			}
			if got := res.OuterIndex.Labels(); !slices.Equal(got, tt.want) {
				t.Errorf("outer index = %v, want %v", got, tt.want)
			}
		})
	}
}
