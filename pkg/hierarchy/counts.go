// Package hierarchy folds per-sample abundance measurements into category
// totals and nested taxonomy trees (the data behind the sunburst view).
package hierarchy

import (
	"math"
	"slices"

	"github.com/goccy/go-json"
	"gonum.org/v1/gonum/stat"

	"github.com/matzehuels/metavis/pkg/abundance"
)

// Counts is a one-dimensional tally aligned to Index.
//
// A NaN value means "no data": no positive measurement was recorded for the
// category. It is distinct from a genuine zero and encodes as JSON null.
type Counts struct {
	Index  []string
	Values []float64
}

// IsNoData reports whether v is the "no data" sentinel.
func IsNoData(v float64) bool { return math.IsNaN(v) }

// Lookup returns the value of category, and false if it is not indexed.
func (c Counts) Lookup(category string) (float64, bool) {
	i := slices.Index(c.Index, category)
	if i < 0 {
		return 0, false
	}
	return c.Values[i], true
}

// MarshalJSON encodes the counts as {"counts_idx": [...], "counts": [...]}.
func (c Counts) MarshalJSON() ([]byte, error) {
	vals := make([]*float64, len(c.Values))
	for i := range c.Values {
		vals[i] = nullable(c.Values[i])
	}
	return json.Marshal(struct {
		Index  []string   `json:"counts_idx"`
		Values []*float64 `json:"counts"`
	}{c.Index, vals})
}

// UnmarshalJSON decodes the form written by MarshalJSON, reading null as NaN.
func (c *Counts) UnmarshalJSON(data []byte) error {
	var in struct {
		Index  []string   `json:"counts_idx"`
		Values []*float64 `json:"counts"`
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	c.Index = in.Index
	c.Values = make([]float64, len(in.Values))
	for i, v := range in.Values {
		c.Values[i] = orNaN(v)
	}
	return nil
}

// MeanCounts averages, per category, every positive measurement recorded
// under an identifier that categoryOf maps to that category.
//
// Categories come out sorted. Zero, negative and non-numeric cells are left out
// of the mean entirely; a category with no qualifying cell gets NaN.
func MeanCounts(t abundance.Table, categoryOf map[string]string) Counts {
	ids := make([]string, 0, len(categoryOf))
	var cats []string
	for id, cat := range categoryOf {
		ids = append(ids, id)
		if cat != "" {
			cats = append(cats, cat)
		}
	}
	slices.Sort(ids)
	slices.Sort(cats)
	cats = slices.Compact(cats)

	samples := make(map[string][]float64, len(cats))
	for _, row := range t.Rows {
		for _, id := range ids {
			cat := categoryOf[id]
			if cat == "" {
				continue
			}
			if v, ok := row.Positive(id); ok {
				samples[cat] = append(samples[cat], v)
			}
		}
	}

	out := Counts{Index: make([]string, 0, len(cats)), Values: make([]float64, 0, len(cats))}
	for _, cat := range cats {
		out.Index = append(out.Index, cat)
		out.Values = append(out.Values, mean(samples[cat]))
	}
	return out
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	return stat.Mean(xs, nil)
}

// nanSum adds xs, skipping NaN values.
func nanSum(xs ...float64) float64 {
	var s float64
	for _, x := range xs {
		if !math.IsNaN(x) {
			s += x
		}
	}
	return s
}

func nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func nan() float64 { return math.NaN() }

func orNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
