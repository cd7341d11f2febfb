// Package pathway lays out the enzymes of a metabolic pathway map.
//
// It restricts a pathway's edge list to the enzymes found in a sample, groups
// the enzymes by the sub-pathway their edges belong to and hands the result to
// [layout.Place].
package pathway

import "github.com/matzehuels/metavis/pkg/layout"

// Group is a laid-out sub-pathway.
type Group struct {
	// Key is the pathway number, or [layout.UnknownGroup].
	Key   string             `json:"key"`
	Name  string             `json:"name"`
	Nodes []layout.Placement `json:"nodes"`
}

// Layout is a placed pathway map.
type Layout struct {
	Height int           `json:"height"`
	Groups []Group       `json:"groups"`
	Edges  []layout.Edge `json:"edges"`
}

// Coordinates returns every node's cell.
func (l *Layout) Coordinates() map[string]layout.Point {
	out := make(map[string]layout.Point)
	for _, g := range l.Groups {
		for _, p := range g.Nodes {
			out[p.ID] = p.Point
		}
	}
	return out
}

// Filter keeps the edges whose endpoints are both in nodes.
func Filter(edges []layout.Edge, nodes []string) []layout.Edge {
	keep := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		keep[n] = true
	}
	var out []layout.Edge
	for _, e := range edges {
		if keep[e.Source] && keep[e.Target] {
			out = append(out, e)
		}
	}
	return out
}

// Assign maps each edge endpoint to the edge's pathway number. A node on
// several edges keeps the number of the last one.
func Assign(edges []layout.Edge) map[string]string {
	out := make(map[string]string)
	for _, e := range edges {
		out[e.Source] = e.Group
		out[e.Target] = e.Group
	}
	return out
}

// Place lays out nodes using the pathway edges among them. names maps pathway
// numbers to display names; unlisted numbers are named "unknown".
func Place(nodes []string, edges []layout.Edge, names map[string]string) (*Layout, error) {
	kept := Filter(edges, nodes)
	res, err := layout.Place(layout.Request{
		Nodes:   nodes,
		Edges:   kept,
		GroupOf: Assign(kept),
	})
	if err != nil {
		return nil, err
	}

	out := &Layout{Height: res.Height, Groups: make([]Group, 0, len(res.Groups)), Edges: kept}
	for _, g := range res.Groups {
		name, ok := names[g.Key]
		if !ok {
			name = layout.UnknownGroup
		}
		out.Groups = append(out.Groups, Group{Key: g.Key, Name: name, Nodes: g.Nodes})
	}
	return out, nil
}
