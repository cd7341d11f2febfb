package chord

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Gap identifies one of the three separator entries of an [Index].
// The zero value means "not a gap".
type Gap int

const (
	NoGap Gap = iota
	Gap1
	Gap2
	Gap3
)

// Gaps lists the separators in index order.
var Gaps = []Gap{Gap1, Gap2, Gap3}

// Key returns the display key of the gap ("gap_1", ...).
func (g Gap) Key() string {
	if g == NoGap {
		return ""
	}
	return fmt.Sprintf("gap_%d", int(g))
}

// divisor is the share of the total assigned to the gap's filler cell.
func (g Gap) divisor() float64 {
	if g == Gap2 {
		return 2
	}
	return 4
}

// Entry is one row/column of a matrix: either a category or a gap.
type Entry struct {
	Key string `json:"key,omitempty"`
	Gap Gap    `json:"gap,omitempty"`
}

// IsGap reports whether e is a separator.
func (e Entry) IsGap() bool { return e.Gap != NoGap }

// Label returns the key the renderer sees.
func (e Entry) Label() string {
	if e.IsGap() {
		return e.Gap.Key()
	}
	return e.Key
}

// Category returns a category entry.
func Category(key string) Entry { return Entry{Key: key} }

// GapEntry returns a separator entry.
func GapEntry(g Gap) Entry { return Entry{Gap: g} }

// Index is the ordered identity of matrix rows and columns.
type Index []Entry

// NewIndex lays out gap_1, annotations, gap_2, taxa, gap_3.
func NewIndex(annotations, taxa []string) Index {
	ix := make(Index, 0, len(annotations)+len(taxa)+3)
	ix = append(ix, GapEntry(Gap1))
	for _, a := range annotations {
		ix = append(ix, Category(a))
	}
	ix = append(ix, GapEntry(Gap2))
	for _, t := range taxa {
		ix = append(ix, Category(t))
	}
	return append(ix, GapEntry(Gap3))
}

// Labels returns the display keys in order.
func (ix Index) Labels() []string {
	out := make([]string, len(ix))
	for i, e := range ix {
		out[i] = e.Label()
	}
	return out
}

// Position returns the position of category key, or -1. Gap entries never match.
func (ix Index) Position(key string) int {
	for i, e := range ix {
		if !e.IsGap() && e.Key == key {
			return i
		}
	}
	return -1
}

// GapPosition returns the position of separator g, or -1.
func (ix Index) GapPosition(g Gap) int {
	for i, e := range ix {
		if e.Gap == g {
			return i
		}
	}
	return -1
}

// positions maps each category key to its first position.
func (ix Index) positions() map[string]int {
	m := make(map[string]int, len(ix))
	for i, e := range ix {
		if e.IsGap() {
			continue
		}
		if _, dup := m[e.Key]; !dup {
			m[e.Key] = i
		}
	}
	return m
}

// MarshalJSON encodes the index as its display keys.
func (ix Index) MarshalJSON() ([]byte, error) {
	return json.Marshal(ix.Labels())
}

// UnmarshalJSON decodes display keys, treating "gap_1".."gap_3" as separators.
// Categories named like a gap do not survive; use [Snapshot] to store results.
func (ix *Index) UnmarshalJSON(data []byte) error {
	var keys []string
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	out := make(Index, len(keys))
	for i, k := range keys {
		out[i] = Category(k)
		for _, g := range Gaps {
			if k == g.Key() {
				out[i] = GapEntry(g)
			}
		}
	}
	*ix = out
	return nil
}
