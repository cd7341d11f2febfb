package layout

import (
	"fmt"
	"slices"
)

// Adjacency lists the neighbours of each node in insertion order.
type Adjacency map[string][]string

// NewAdjacency builds the undirected adjacency of edges. Each edge adds the
// target to the source's list and the source to the target's list.
func NewAdjacency(edges []Edge) Adjacency {
	adj := make(Adjacency)
	for _, e := range edges {
		adj[e.Source] = append(adj[e.Source], e.Target)
		adj[e.Target] = append(adj[e.Target], e.Source)
	}
	return adj
}

// Placement is a node and its cell.
type Placement struct {
	ID string `json:"id"`
	Point
}

// LayoutGroup places nodes on a grid of the given height, walking from the
// first node along adjacency.
//
// A node with a placed neighbour goes directly below the first such
// neighbour, or one column to its right when the neighbour is on the bottom
// row, and then slides right past occupied cells. A node without placed
// neighbours takes the first free row of the leftmost column that is not yet
// full. Neighbours outside nodes are ignored.
func LayoutGroup(nodes []string, adj Adjacency, height int) ([]Placement, error) {
	if len(nodes) == 0 {
		return nil, nil
	}
	if height <= 0 {
		return nil, fmt.Errorf("grid height must be positive, got %d", height)
	}

	member := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		member[n] = true
	}
	inGroup := func(id string) []string {
		var out []string
		for _, nb := range adj[id] {
			if member[nb] {
				out = append(out, nb)
			}
		}
		return out
	}

	g := newGrid(height)
	placed := make(map[string]Point, len(nodes))
	out := make([]Placement, 0, len(nodes))

	current := nodes[0]
	for {
		p := position(g, placed, inGroup(current), len(out) == 0)
		g.mark(p)
		placed[current] = p
		out = append(out, Placement{ID: current, Point: p})

		next, ok := nextNode(nodes, inGroup(current), placed)
		if !ok {
			break
		}
		current = next
	}
	return out, nil
}

func position(g *grid, placed map[string]Point, neighbours []string, first bool) Point {
	if first {
		return Point{}
	}
	for _, nb := range neighbours {
		at, ok := placed[nb]
		if !ok {
			continue
		}
		if at.Y+1 < g.height {
			return g.slideRight(Point{X: at.X, Y: at.Y + 1})
		}
		return g.slideRight(Point{X: at.X + 1, Y: at.Y})
	}
	return g.firstFree()
}

// nextNode picks the first unplaced neighbour that sits after the head of
// nodes, or else the first unplaced node overall.
func nextNode(nodes, neighbours []string, placed map[string]Point) (string, bool) {
	for _, nb := range neighbours {
		if _, ok := placed[nb]; ok {
			continue
		}
		if slices.Index(nodes, nb) > 0 {
			return nb, true
		}
	}
	i := slices.IndexFunc(nodes, func(n string) bool {
		_, ok := placed[n]
		return !ok
	})
	if i < 0 {
		return "", false
	}
	return nodes[i], true
}
