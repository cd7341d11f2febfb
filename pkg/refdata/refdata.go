// Package refdata reads the taxonomy and pathway reference database.
//
// The database is a read-only SQLite file shipped alongside the application
// with these tables:
//
//	names(tax_id, name)
//	parents(tax_id, t_realm, t_kingdom, t_phylum, t_class, t_order, t_family, t_genus, t_species)
//	pathway_nodes(id, name, x, y, type, pathway)
//	pathway_edges(source, target, pathway)
//	pathway_superpathways(id, name, superpathway)
//	superpathways(id, name)
//
// metavis never writes to it.
package refdata

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/matzehuels/metavis/pkg/errors"
)

// maxParams bounds the number of bound parameters per query.
const maxParams = 900

// DB is a read-only handle on the reference database.
type DB struct {
	db   *sql.DB
	path string
}

// Open opens the database at path read-only.
func Open(path string) (*DB, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?mode=ro&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open reference database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(errors.ErrCodeNotFound, err, "reference database %s", path)
	}
	return &DB{db: db, path: path}, nil
}

// Path returns the file the database was opened from.
func (d *DB) Path() string { return d.path }

// Close releases the database.
func (d *DB) Close() error {
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func args(names []string) []any {
	out := make([]any, len(names))
	for i, n := range names {
		out[i] = n
	}
	return out
}

// chunks splits names into slices of at most maxParams.
func chunks(names []string) [][]string {
	var out [][]string
	for len(names) > maxParams {
		out = append(out, names[:maxParams])
		names = names[maxParams:]
	}
	if len(names) > 0 {
		out = append(out, names)
	}
	return out
}
