// Package abundance holds the in-memory shape of an abundance table: one row
// per annotation (EC number) with a handful of metadata columns and one
// measurement column per taxon.
//
// Values are kept as the raw strings read from the file. Consumers ask for a
// measurement with [Row.Positive], which applies the lenient rule used by every
// aggregation: non-numeric, zero and negative values count as "not detected".
package abundance

import (
	"math"
	"slices"
	"strconv"
	"strings"
)

// ECColumn is the default key column: the EC number of the row.
const ECColumn = "EC#"

// KeyColumns are the metadata columns of an EC/RPKM table. Every other column
// is a measurement keyed by taxon name.
var KeyColumns = []string{ECColumn, "GeneID", "Length", "Reads", "RPKM"}

// IsKeyColumn reports whether col is one of [KeyColumns].
func IsKeyColumn(col string) bool {
	return slices.Contains(KeyColumns, col)
}

// Row maps column name to the raw cell value.
type Row map[string]string

// Positive returns the numeric value of col if it parses as a number greater
// than zero. Missing cells, blanks, text and non-positive numbers report false.
func (r Row) Positive(col string) (float64, bool) {
	raw, ok := r[col]
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || v <= 0 {
		return 0, false
	}
	return v, true
}

// Table is an ordered set of rows sharing a header.
//
// Columns fixes iteration order so that every aggregation over the table sums
// values in the same order and is therefore bit-for-bit reproducible.
type Table struct {
	Columns []string
	Rows    []Row

	// Key names the column holding each row's annotation id.
	// Empty means [ECColumn].
	Key string
}

// KeyColumn returns the column holding the row key.
func (t Table) KeyColumn() string {
	if t.Key == "" {
		return ECColumn
	}
	return t.Key
}

// Measurements returns the measurement column names in header order.
func (t Table) Measurements() []string {
	out := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		if IsKeyColumn(c) || c == t.KeyColumn() {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Keys returns the distinct row keys in first-seen order.
func (t Table) Keys() []string {
	seen := make(map[string]bool, len(t.Rows))
	var out []string
	for _, r := range t.Rows {
		k := r[t.KeyColumn()]
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}

// New builds a table from rows, deriving the header from the union of row
// keys (sorted) when columns is nil.
func New(columns []string, rows []Row) Table {
	if columns == nil {
		set := make(map[string]bool)
		for _, r := range rows {
			for k := range r {
				set[k] = true
			}
		}
		for k := range set {
			columns = append(columns, k)
		}
		slices.Sort(columns)
	}
	return Table{Columns: columns, Rows: rows}
}
