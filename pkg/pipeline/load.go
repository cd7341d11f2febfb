package pipeline

import (
	"context"
	"fmt"
	"strconv"

	"github.com/matzehuels/metavis/pkg/abundance"
	"github.com/matzehuels/metavis/pkg/errors"
	"github.com/matzehuels/metavis/pkg/hierarchy"
	metaio "github.com/matzehuels/metavis/pkg/io"
	"github.com/matzehuels/metavis/pkg/layout"
	"github.com/matzehuels/metavis/pkg/pathway"
	"github.com/matzehuels/metavis/pkg/refdata"
)

// Sources names the files a run reads. Only Table is required.
type Sources struct {
	// Table is the abundance table (TSV, or CSV by extension).
	Table string `json:"table"`
	// Annotations maps row keys (EC numbers) to categories. Without it the
	// reference database's pathway or superpathway names are used, per
	// Options.AnnotationLevel, if one is open.
	Annotations string `json:"annotations,omitempty"`
	// Taxonomy maps taxa to categories. Without it categories are looked up
	// in the reference database at Options.Rank.
	Taxonomy string `json:"taxonomy,omitempty"`

	// Nodes lists the network nodes; defaults to the table's row keys.
	Nodes string `json:"nodes,omitempty"`
	// Edges is a pathway edge file. Without it, Pathway is read from the
	// reference database.
	Edges string `json:"edges,omitempty"`
	// Manifest maps pathway numbers to names.
	Manifest string `json:"manifest,omitempty"`
	// Pathway is a reference database pathway id.
	Pathway int `json:"pathway,omitempty"`
}

// HasNetwork reports whether any network source is configured.
func (s Sources) HasNetwork() bool {
	return s.Edges != "" || s.Pathway != 0
}

// Input is everything a run computes from.
type Input struct {
	Table       abundance.Table
	Annotations map[string]string
	Taxonomy    map[string]string
	Records     []hierarchy.Record

	Network *NetworkInput
	// NetworkErr is why the network inputs could not be loaded, if they were
	// configured but failed.
	NetworkErr error
}

// NetworkInput is the data behind a network layout.
type NetworkInput struct {
	Nodes []string
	Edges []layout.Edge
	Names map[string]string
}

// Load reads src, filling missing category maps from db when it is non-nil.
// Failures loading network inputs are recorded in Input.NetworkErr rather
// than returned.
func Load(ctx context.Context, src Sources, db *refdata.DB, opts Options) (*Input, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	t, err := metaio.ImportTable(src.Table)
	if err != nil {
		return nil, fmt.Errorf("load table: %w", err)
	}
	in := &Input{Table: t}
	taxa := t.Measurements()

	switch {
	case src.Annotations != "":
		if in.Annotations, err = metaio.ImportCategoryMap(src.Annotations); err != nil {
			return nil, fmt.Errorf("load annotations: %w", err)
		}
	case db != nil:
		ms, err := db.Superpathways(ctx)
		if err != nil {
			return nil, fmt.Errorf("load pathway names: %w", err)
		}
		in.Annotations = refdata.AnnotationMap(ms, opts.AnnotationLevel)
	default:
		in.Annotations = map[string]string{}
	}

	switch {
	case src.Taxonomy != "":
		if in.Taxonomy, err = metaio.ImportCategoryMap(src.Taxonomy); err != nil {
			return nil, fmt.Errorf("load taxonomy: %w", err)
		}
	case db != nil:
		if in.Taxonomy, err = db.Categories(ctx, taxa, opts.Rank, opts.Filter); err != nil {
			return nil, fmt.Errorf("resolve taxonomy: %w", err)
		}
	default:
		in.Taxonomy = map[string]string{}
	}

	if db != nil {
		if in.Records, err = db.TreeRecords(ctx, taxa, opts.Levels, opts.Filter); err != nil {
			return nil, fmt.Errorf("resolve lineages: %w", err)
		}
	}

	if src.HasNetwork() {
		in.Network, in.NetworkErr = LoadNetwork(ctx, src, t, db)
	}
	return in, nil
}

// LoadNetwork reads the network inputs of src. Nodes default to the row keys
// of t.
func LoadNetwork(ctx context.Context, src Sources, t abundance.Table, db *refdata.DB) (*NetworkInput, error) {
	in := &NetworkInput{Nodes: t.Keys(), Names: map[string]string{}}
	var err error
	if src.Nodes != "" {
		if in.Nodes, err = metaio.ImportNodeList(src.Nodes); err != nil {
			return nil, err
		}
	}

	switch {
	case src.Edges != "":
		if in.Edges, err = metaio.ImportEdges(src.Edges); err != nil {
			return nil, err
		}
	case src.Pathway != 0 && db != nil:
		p, err := db.PathwayInfo(ctx, src.Pathway)
		if err != nil {
			return nil, err
		}
		in.Edges = p.LayoutEdges()
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "pathway %d requested without a reference database", src.Pathway)
	}

	if src.Manifest != "" {
		if in.Names, err = metaio.ImportManifest(src.Manifest); err != nil {
			return nil, err
		}
	} else if db != nil {
		ms, err := db.Superpathways(ctx)
		if err != nil {
			return nil, err
		}
		for _, m := range ms {
			if m.PathwayName != "" {
				in.Names[strconv.FormatInt(m.PathwayID, 10)] = m.PathwayName
			}
		}
	}
	in.Edges = pathway.Filter(in.Edges, in.Nodes)
	return in, nil
}
