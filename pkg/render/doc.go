// Package render groups the metavis renderers.
//
// The core packages (chord, hierarchy, layout, pathway) only produce data:
// matrices, trees and grid coordinates. Turning that data into something
// drawable happens here, one subpackage per view:
//
//   - [github.com/matzehuels/metavis/pkg/render/network]: pathway networks as
//     Graphviz DOT with pinned positions, rendered to SVG by neato.
//
// The chord, counts and sunburst views are drawn client-side from their JSON.
package render
