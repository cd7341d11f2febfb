package network

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/metavis/pkg/palette"
	"github.com/matzehuels/metavis/pkg/pathway"
)

// DefaultScale is the distance between grid cells in points.
const DefaultScale = 90.0

// Options configures DOT generation.
type Options struct {
	// Scale is the distance between grid cells in points; zero means DefaultScale.
	Scale float64
	// Detailed appends the group name to each node label.
	Detailed bool
}

// ToDOT converts a pathway layout to an undirected Graphviz graph with pinned
// node positions. Row 0 is drawn at the top.
func ToDOT(l *pathway.Layout, opts Options) string {
	scale := opts.Scale
	if scale <= 0 {
		scale = DefaultScale
	}

	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  splines=true;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fontsize=12, width=1, height=0.4, fixedsize=true];\n")
	buf.WriteString("\n")

	for i, g := range l.Groups {
		color := palette.Color(i, len(l.Groups))
		fmt.Fprintf(&buf, "  // %s\n", g.Name)
		for _, n := range g.Nodes {
			label := n.ID
			if opts.Detailed {
				label = n.ID + "\n" + g.Name
			}
			fmt.Fprintf(&buf, "  %q [label=%q, fillcolor=%q, pos=\"%s,%s!\"];\n",
				n.ID, label, color, coord(float64(n.X)*scale), coord(float64(-n.Y)*scale))
		}
	}

	buf.WriteString("\n")
	for _, e := range l.Edges {
		fmt.Fprintf(&buf, "  %q -- %q;\n", e.Source, e.Target)
	}
	buf.WriteString("}\n")
	return buf.String()
}

func coord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// RenderSVG lays out dot with neato and returns the SVG.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's svg element with one whose viewBox
// starts at the origin and whose size matches it, so the drawing scales
// cleanly when embedded.
func normalizeViewBox(svg []byte) []byte {
	m := viewBoxRe.FindSubmatch(svg)
	if m == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(m[3]), 64)
	h, _ := strconv.ParseFloat(string(m[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
