package refdata

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/matzehuels/metavis/pkg/errors"
	"github.com/matzehuels/metavis/pkg/layout"
)

// Node is a node of a reference pathway map with its drawing position.
type Node struct {
	ID    string  `json:"id"`
	Label string  `json:"label"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Type  string  `json:"type"`
}

// Edge joins two pathway nodes.
type Edge struct {
	Source      string `json:"source"`
	SourceLabel string `json:"source_label"`
	Target      string `json:"target"`
	TargetLabel string `json:"target_label"`
}

// Pathway is the node and edge set of one pathway map.
type Pathway struct {
	ID    int    `json:"id"`
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// LayoutEdges converts the pathway's edges into layout edges between node
// labels (EC numbers), tagged with the pathway id.
func (p *Pathway) LayoutEdges() []layout.Edge {
	out := make([]layout.Edge, 0, len(p.Edges))
	for _, e := range p.Edges {
		if e.SourceLabel == "" || e.TargetLabel == "" {
			continue
		}
		out = append(out, layout.Edge{Source: e.SourceLabel, Target: e.TargetLabel, Group: fmt.Sprint(p.ID)})
	}
	return out
}

// Membership is one EC number's pathway and superpathway.
type Membership struct {
	EC           string `json:"ec"`
	PathwayID    int64  `json:"pathway_id"`
	PathwayName  string `json:"pathway_name"`
	Superpathway string `json:"superpathway"`
}

// PathwayInfo returns the nodes and edges of pathway id. An id with no nodes
// is an [errors.ErrCodeNotFound] error.
func (d *DB) PathwayInfo(ctx context.Context, id int) (*Pathway, error) {
	p := &Pathway{ID: id}

	rows, err := d.db.QueryContext(ctx, `
		SELECT id, name, x, y, type
		FROM pathway_nodes
		WHERE pathway = ?
		ORDER BY rowid
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query pathway nodes: %w", err)
	}
	for rows.Next() {
		var (
			n           Node
			label, kind sql.NullString
			x, y        sql.NullFloat64
		)
		if err := rows.Scan(&n.ID, &label, &x, &y, &kind); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan pathway node: %w", err)
		}
		n.Label, n.Type, n.X, n.Y = label.String, kind.String, x.Float64, y.Float64
		p.Nodes = append(p.Nodes, n)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("read pathway nodes: %w", err)
	}
	if len(p.Nodes) == 0 {
		return nil, errors.New(errors.ErrCodeNotFound, "pathway %d has no nodes", id)
	}

	rows, err = d.db.QueryContext(ctx, `
		SELECT
			n_source.id, n_source.name,
			n_target.id, n_target.name
		FROM pathway_edges edge
		LEFT JOIN pathway_nodes n_source ON n_source.id = edge.source
		LEFT JOIN pathway_nodes n_target ON n_target.id = edge.target
		WHERE edge.pathway = ?
		ORDER BY edge.rowid
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query pathway edges: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var src, srcLabel, dst, dstLabel sql.NullString
		if err := rows.Scan(&src, &srcLabel, &dst, &dstLabel); err != nil {
			return nil, fmt.Errorf("scan pathway edge: %w", err)
		}
		p.Edges = append(p.Edges, Edge{
			Source: src.String, SourceLabel: srcLabel.String,
			Target: dst.String, TargetLabel: dstLabel.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read pathway edges: %w", err)
	}
	return p, nil
}

// Superpathways lists the pathway and superpathway of every pathway node.
func (d *DB) Superpathways(ctx context.Context) ([]Membership, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT
			node.name,
			psp.id,
			psp.name,
			sp.name
		FROM pathway_nodes node
		LEFT JOIN pathway_superpathways psp ON psp.id = node.pathway
		LEFT JOIN superpathways sp ON psp.superpathway = sp.id
		ORDER BY node.rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("query superpathways: %w", err)
	}
	defer rows.Close()

	var out []Membership
	for rows.Next() {
		var (
			ec, name, super sql.NullString
			id              sql.NullInt64
		)
		if err := rows.Scan(&ec, &id, &name, &super); err != nil {
			return nil, fmt.Errorf("scan superpathway: %w", err)
		}
		out = append(out, Membership{EC: ec.String, PathwayID: id.Int64, PathwayName: name.String, Superpathway: super.String})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read superpathways: %w", err)
	}
	return out, nil
}

// Annotation levels of the chord view's outer ring.
const (
	LevelPathway      = "pathway"
	LevelSuperpathway = "superpathway"
)

// AnnotationMap groups EC numbers by pathway name, or by superpathway name
// when level is [LevelSuperpathway]. Nodes without a name at level are left
// out.
func AnnotationMap(ms []Membership, level string) map[string]string {
	out := make(map[string]string, len(ms))
	for _, m := range ms {
		name := m.PathwayName
		if level == LevelSuperpathway {
			name = m.Superpathway
		}
		if m.EC != "" && name != "" {
			out[m.EC] = name
		}
	}
	return out
}
