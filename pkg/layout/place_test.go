package layout

import (
	"fmt"
	"testing"

	"pgregory.net/rapid"

	"github.com/matzehuels/metavis/pkg/errors"
)

func TestPlaceChain(t *testing.T) {
	tests := []struct {
		name  string
		edges []Edge
		want  map[string]Point
	}{
		{
			name:  "path",
			edges: []Edge{{Source: "n1", Target: "n2"}, {Source: "n2", Target: "n3"}},
			want:  map[string]Point{"n1": {0, 0}, "n2": {0, 1}, "n3": {0, 2}},
		},
		{
			name:  "isolated node fills the first free row",
			edges: []Edge{{Source: "n1", Target: "n2"}},
			want:  map[string]Point{"n1": {0, 0}, "n2": {0, 1}, "n3": {0, 2}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Place(Request{Nodes: []string{"n1", "n2", "n3"}, Edges: tt.edges})
			if err != nil {
				t.Fatalf("Place: %v", err)
			}
			if res.Height != 3 {
				t.Errorf("Height = %d, want 3", res.Height)
			}
			got := res.Coordinates()
			if len(got) != len(tt.want) {
				t.Fatalf("placed %d nodes, want %d", len(got), len(tt.want))
			}
			for id, p := range tt.want {
				if got[id] != p {
					t.Errorf("%s at %v, want %v", id, got[id], p)
				}
			}
			if len(res.Groups) != 1 || res.Groups[0].Key != UnknownGroup {
				t.Errorf("groups = %+v", res.Groups)
			}
		})
	}
}

func TestPlaceGroups(t *testing.T) {
	res, err := Place(Request{
		Nodes:   []string{"n1", "n4", "n2", "n3", "n5"},
		GroupOf: map[string]string{"n1": "P2", "n2": "P2", "n3": "P1"},
	})
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	var keys []string
	for _, g := range res.Groups {
		keys = append(keys, g.Key)
	}
	if fmt.Sprint(keys) != "[P2 P1 unknown]" {
		t.Errorf("group order = %v", keys)
	}
	if res.Height != 7 {
		t.Errorf("Height = %d, want 7", res.Height)
	}
	want := map[string]Point{
		"n1": {0, 0}, "n2": {0, 1},
		"n3": {1, 0},
		"n4": {2, 0}, "n5": {2, 1},
	}
	got := res.Coordinates()
	for id, p := range want {
		if got[id] != p {
			t.Errorf("%s at %v, want %v", id, got[id], p)
		}
	}
	if res.Width() != 3 {
		t.Errorf("Width = %d, want 3", res.Width())
	}
}

func TestPlaceInvalid(t *testing.T) {
	tests := []struct {
		name string
		req  Request
	}{
		{"no nodes", Request{}},
		{"duplicate node", Request{Nodes: []string{"a", "a"}}},
		{"empty node id", Request{Nodes: []string{"a", ""}}},
		{"unknown source", Request{Nodes: []string{"a"}, Edges: []Edge{{Source: "x", Target: "a"}}}},
		{"unknown target", Request{Nodes: []string{"a"}, Edges: []Edge{{Source: "a", Target: "x"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Place(tt.req)
			if res != nil {
				t.Errorf("got partial result %+v", res)
			}
			if !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("error = %v, want INVALID_INPUT", err)
			}
		})
	}
}

func TestApplyOffset(t *testing.T) {
	in := []GroupLayout{
		{Key: "a", Nodes: []Placement{{ID: "a1", Point: Point{0, 0}}, {ID: "a2", Point: Point{1, 2}}}},
		{Key: "b", Nodes: []Placement{{ID: "b1", Point: Point{0, 1}}}},
		{Key: "c", Nodes: []Placement{{ID: "c1", Point: Point{2, 0}}}},
	}
	out := ApplyOffset(in)

	want := [][]Point{{{0, 0}, {1, 2}}, {{2, 1}}, {{5, 0}}}
	for i, g := range out {
		for j, p := range g.Nodes {
			if p.Point != want[i][j] {
				t.Errorf("group %s node %s at %v, want %v", g.Key, p.ID, p.Point, want[i][j])
			}
		}
	}
	if in[1].Nodes[0].X != 0 || in[2].Nodes[0].X != 2 {
		t.Error("ApplyOffset modified its input")
	}
}

func TestPlaceProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 25).Draw(t, "n")
		nodes := make([]string, n)
		for i := range nodes {
			nodes[i] = fmt.Sprintf("n%d", i)
		}
		pick := rapid.SampledFrom(nodes)
		var edges []Edge
		for range rapid.IntRange(0, 2*n).Draw(t, "edges") {
			edges = append(edges, Edge{Source: pick.Draw(t, "src"), Target: pick.Draw(t, "dst")})
		}
		groupOf := map[string]string{}
		for _, id := range nodes {
			if g := rapid.IntRange(0, 3).Draw(t, "group"); g > 0 {
				groupOf[id] = fmt.Sprintf("P%d", g)
			}
		}

		res, err := Place(Request{Nodes: nodes, Edges: edges, GroupOf: groupOf})
		if err != nil {
			t.Fatalf("Place: %v", err)
		}

		seen := map[Point]string{}
		total := 0
		prevMax := -1
		for _, g := range res.Groups {
			if len(g.Nodes) == 0 {
				t.Fatalf("empty group %q", g.Key)
			}
			minX, maxX := g.Nodes[0].X, g.Nodes[0].X
			for _, p := range g.Nodes {
				if other, dup := seen[p.Point]; dup {
					t.Fatalf("%s and %s share %v", p.ID, other, p.Point)
				}
				seen[p.Point] = p.ID
				if p.Y < 0 || p.Y >= res.Height {
					t.Fatalf("%s at row %d outside height %d", p.ID, p.Y, res.Height)
				}
				minX, maxX = min(minX, p.X), max(maxX, p.X)
				total++
			}
			if minX <= prevMax {
				t.Fatalf("group %q starts at x=%d, overlapping previous max %d", g.Key, minX, prevMax)
			}
			prevMax = maxX
		}
		if total != n {
			t.Fatalf("placed %d of %d nodes", total, n)
		}
	})
}
