package refdata

import (
	"context"
	"database/sql"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/metavis/pkg/errors"
	"github.com/matzehuels/metavis/pkg/hierarchy"
)

// Filter restricts taxonomy lookups to names under one category, for example
// every genus within the phylum Proteobacteria.
type Filter struct {
	Rank string `json:"rank"`
	Name string `json:"name"`
}

// IsZero reports whether f filters nothing.
func (f Filter) IsZero() bool { return f.Rank == "" && f.Name == "" }

// ParentsAtLevel maps each known name to the name of its ancestor at rank.
//
// Names that are themselves at rank (e.g. "Bacteria" for kingdom) have no
// ancestor there; they map to themselves when another name in the request
// has them as its ancestor. Unknown names and names without an ancestor at
// rank are left out.
func (d *DB) ParentsAtLevel(ctx context.Context, names []string, rank string) (map[string]string, error) {
	if err := errors.ValidateRank(rank); err != nil {
		return nil, err
	}
	type row struct {
		child  string
		parent sql.NullString
	}
	var rows []row
	for _, chunk := range chunks(names) {
		q := fmt.Sprintf(`
			WITH nsq AS (
				SELECT tax_id, name FROM names
				WHERE name IN (%s)
			)
			SELECT nsq.name, np.name
			FROM nsq
			LEFT JOIN parents ON nsq.tax_id = parents.tax_id
			LEFT JOIN names np ON np.tax_id = parents.t_%s
		`, placeholders(len(chunk)), rank)

		res, err := d.db.QueryContext(ctx, q, args(chunk)...)
		if err != nil {
			return nil, fmt.Errorf("query parents at %s: %w", rank, err)
		}
		for res.Next() {
			var r row
			if err := res.Scan(&r.child, &r.parent); err != nil {
				res.Close()
				return nil, fmt.Errorf("scan parent: %w", err)
			}
			rows = append(rows, r)
		}
		err = res.Err()
		res.Close()
		if err != nil {
			return nil, fmt.Errorf("read parents: %w", err)
		}
	}

	parents := make(map[string]bool)
	for _, r := range rows {
		if r.parent.Valid && r.parent.String != "" {
			parents[r.parent.String] = true
		}
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		switch {
		case r.parent.Valid && r.parent.String != "":
			out[r.child] = r.parent.String
		case parents[r.child]:
			out[r.child] = r.child
		}
	}
	return out, nil
}

// maxConcurrentRanks bounds the per-rank queries ParentsMultilevel runs at once.
const maxConcurrentRanks = 4

// ParentsMultilevel returns one record per name, in input order, holding its
// ancestor at every rank that has one.
func (d *DB) ParentsMultilevel(ctx context.Context, names, ranks []string) ([]hierarchy.Record, error) {
	byRank := make([]map[string]string, len(ranks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentRanks)
	for i, rank := range ranks {
		g.Go(func() error {
			m, err := d.ParentsAtLevel(gctx, names, rank)
			if err != nil {
				return err
			}
			byRank[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]hierarchy.Record, 0, len(names))
	for _, name := range names {
		rec := hierarchy.Record{ID: name, Levels: make(map[string]string, len(ranks))}
		for i, rank := range ranks {
			if p, ok := byRank[i][name]; ok {
				rec.Levels[rank] = p
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

// Categories maps each name to its category at rank. With a non-zero filter
// only names whose filter.Rank ancestor is filter.Name are kept.
func (d *DB) Categories(ctx context.Context, names []string, rank string, filter Filter) (map[string]string, error) {
	if filter.IsZero() {
		return d.ParentsAtLevel(ctx, names, rank)
	}
	records, err := d.ParentsMultilevel(ctx, names, []string{filter.Rank, rank})
	if err != nil {
		return nil, err
	}
	out := make(map[string]string)
	for _, r := range records {
		within, _ := r.At(filter.Rank)
		cat, ok := r.At(rank)
		if within == filter.Name && ok {
			out[r.ID] = cat
		}
	}
	return out, nil
}

// TreeRecords returns the hierarchy records of names at levels, restricted by
// filter when it is non-zero. The filter rank is not added to the records
// unless it is one of levels.
func (d *DB) TreeRecords(ctx context.Context, names, levels []string, filter Filter) ([]hierarchy.Record, error) {
	if filter.IsZero() {
		return d.ParentsMultilevel(ctx, names, levels)
	}
	ranks := levels
	extra := !slices.Contains(levels, filter.Rank)
	if extra {
		ranks = append(slices.Clone(levels), filter.Rank)
	}
	records, err := d.ParentsMultilevel(ctx, names, ranks)
	if err != nil {
		return nil, err
	}
	var out []hierarchy.Record
	for _, r := range records {
		if v, _ := r.At(filter.Rank); v != filter.Name {
			continue
		}
		if extra {
			delete(r.Levels, filter.Rank)
		}
		out = append(out, r)
	}
	return out, nil
}
