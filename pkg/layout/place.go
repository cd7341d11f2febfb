package layout

import (
	"github.com/matzehuels/metavis/pkg/errors"
)

// UnknownGroup holds nodes that Request.GroupOf does not assign.
const UnknownGroup = "unknown"

// Edge is an undirected connection between two nodes. Group optionally
// carries the pathway the edge belongs to; Place itself ignores it.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Group  string `json:"group,omitempty"`
}

// Request is the input of [Place].
type Request struct {
	// Nodes is the node universe in placement order.
	Nodes []string
	// Edges may only reference ids in Nodes.
	Edges []Edge
	// GroupOf assigns nodes to groups. Unassigned nodes go to [UnknownGroup].
	GroupOf map[string]string
}

// GroupLayout is one packed group.
type GroupLayout struct {
	Key   string      `json:"key"`
	Nodes []Placement `json:"nodes"`
}

// Result is a complete layout.
type Result struct {
	Height int           `json:"height"`
	Groups []GroupLayout `json:"groups"`
}

// Coordinates returns every node's final cell.
func (r *Result) Coordinates() map[string]Point {
	out := make(map[string]Point)
	for _, g := range r.Groups {
		for _, p := range g.Nodes {
			out[p.ID] = p.Point
		}
	}
	return out
}

// Width is the number of grid columns the layout uses.
func (r *Result) Width() int {
	w := 0
	for _, g := range r.Groups {
		for _, p := range g.Nodes {
			w = max(w, p.X+1)
		}
	}
	return w
}

// Place lays out every group of req on a shared-height grid and packs the
// groups left to right.
//
// Groups appear in the order their first node appears in req.Nodes, with
// [UnknownGroup] always last. An empty node set, a duplicate node or an edge
// endpoint outside the node set is an [errors.ErrCodeInvalidInput] error.
func Place(req Request) (*Result, error) {
	if len(req.Nodes) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no nodes to lay out")
	}
	known := make(map[string]bool, len(req.Nodes))
	for _, n := range req.Nodes {
		if err := errors.ValidateNodeID(n); err != nil {
			return nil, err
		}
		if known[n] {
			return nil, errors.New(errors.ErrCodeInvalidInput, "duplicate node %q", n)
		}
		known[n] = true
	}
	for _, e := range req.Edges {
		for _, end := range []string{e.Source, e.Target} {
			if !known[end] {
				return nil, errors.New(errors.ErrCodeInvalidInput, "edge %s-%s references unknown node %q", e.Source, e.Target, end)
			}
		}
	}

	keys, members := partition(req.Nodes, req.GroupOf)
	sizes := make([]int, len(keys))
	for i, k := range keys {
		sizes[i] = len(members[k])
	}
	height, err := EstimateHeight(sizes)
	if err != nil {
		return nil, err
	}

	adj := NewAdjacency(req.Edges)
	groups := make([]GroupLayout, 0, len(keys))
	for _, k := range keys {
		nodes, err := LayoutGroup(members[k], adj, height)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "lay out group %q", k)
		}
		groups = append(groups, GroupLayout{Key: k, Nodes: nodes})
	}
	return &Result{Height: height, Groups: ApplyOffset(groups)}, nil
}

func partition(nodes []string, groupOf map[string]string) ([]string, map[string][]string) {
	members := make(map[string][]string)
	var keys []string
	var unknown []string
	for _, n := range nodes {
		k, ok := groupOf[n]
		if !ok || k == "" || k == UnknownGroup {
			unknown = append(unknown, n)
			continue
		}
		if _, seen := members[k]; !seen {
			keys = append(keys, k)
		}
		members[k] = append(members[k], n)
	}
	if len(unknown) > 0 {
		keys = append(keys, UnknownGroup)
		members[UnknownGroup] = unknown
	}
	return keys, members
}
