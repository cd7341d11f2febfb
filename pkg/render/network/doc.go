// Package network draws a placed pathway map with Graphviz.
//
// The grid coordinates computed by [layout.Place] are pinned as node
// positions, so Graphviz only routes the edges:
//
//	dot := network.ToDOT(l, network.Options{})
//	svg, err := network.RenderSVG(ctx, dot)
//
// The DOT source is useful on its own for external Graphviz tooling
// (neato -n2). Nodes are filled with the colour of their pathway group.
//
// [layout.Place]: github.com/matzehuels/metavis/pkg/layout.Place
package network
