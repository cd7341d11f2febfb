// Package layout places pathway nodes on an integer grid.
//
// Nodes are split into groups (one per pathway). Every group is laid out
// independently on a grid whose height is shared by all groups, then the
// groups are packed left to right so that their columns never overlap.
//
// The placement is a greedy walk: each node tries to sit directly below an
// already placed neighbour, which keeps short connected chains in a column and
// makes edges between them short and vertical.
//
//	req := layout.Request{
//	    Nodes: []string{"n1", "n2", "n3"},
//	    Edges: []layout.Edge{{Source: "n1", Target: "n2"}, {Source: "n2", Target: "n3"}},
//	}
//	res, err := layout.Place(req)
//	// res.Height == 3; n1 (0,0), n2 (0,1), n3 (0,2)
package layout
