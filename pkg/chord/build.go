package chord

import (
	"cmp"
	"slices"

	"github.com/matzehuels/metavis/pkg/abundance"
	"github.com/matzehuels/metavis/pkg/palette"
)

// Result is everything the chord renderer needs for both rings.
type Result struct {
	// Inner ring: individual annotations and taxa, trimmed to non-empty rows.
	Inner      Matrix `json:"inner_count_matrix"`
	InnerIndex Index  `json:"inner_matrix_index"`

	// Outer ring: annotation and taxonomic categories.
	Outer      Matrix `json:"outer_count_matrix"`
	OuterIndex Index  `json:"outer_matrix_index"`

	// Colors maps categories and members to "#rrggbb".
	Colors map[string]string `json:"colors"`

	TaxMap        map[string]string `json:"tax_map"`
	AnnotationMap map[string]string `json:"ann_map"`
}

// SortByCategory orders a before b by category position first and name second.
// catIdx returns the category position of a name.
func SortByCategory(a, b string, catIdx func(string) int) int {
	ca, cb := catIdx(a), catIdx(b)
	if ca != cb {
		return cmp.Compare(ca, cb)
	}
	return cmp.Compare(a, b)
}

// Build computes the inner and outer chord matrices for t.
//
// annotationMap maps EC number to annotation category; taxMap maps taxon
// (measurement column) to taxonomic category. Annotation categories keep
// first-seen order over the sorted EC numbers, taxonomic categories are
// sorted. Members of both axes are sorted by category, then name.
func Build(t abundance.Table, annotationMap, taxMap map[string]string) Result {
	taxCats := sortedUnique(taxMap)
	allTaxa := membersByCategory(taxMap, taxCats)

	annCats := firstSeenValues(annotationMap)
	allAnns := membersByCategory(annotationMap, annCats)

	outerIndex := NewIndex(annCats, taxCats)
	outer := MakeCountMatrix(t, outerIndex, FromMap(taxMap), FromMap(annotationMap))

	innerIndex := NewIndex(allAnns, allTaxa)
	inner, innerIndex := trim(MakeCountMatrix(t, innerIndex, nil, nil), innerIndex)

	return Result{
		Inner:         inner,
		InnerIndex:    innerIndex,
		Outer:         outer,
		OuterIndex:    outerIndex,
		Colors:        colors(annCats, taxCats, allAnns, allTaxa, annotationMap, taxMap),
		TaxMap:        taxMap,
		AnnotationMap: annotationMap,
	}
}

// trim drops every row/column whose row sum is zero.
func trim(m Matrix, index Index) (Matrix, Index) {
	var keep []int
	for i := range m {
		if m.RowSum(i) > 0 {
			keep = append(keep, i)
		}
	}
	out := NewMatrix(len(keep))
	outIdx := make(Index, len(keep))
	for a, i := range keep {
		outIdx[a] = index[i]
		for b, j := range keep {
			out[a][b] = m[i][j]
		}
	}
	return out, outIdx
}

func colors(annCats, taxCats, allAnns, allTaxa []string, annotationMap, taxMap map[string]string) map[string]string {
	out := make(map[string]string, len(annCats)+len(taxCats)+len(allAnns)+len(allTaxa))
	for i, c := range annCats {
		out[c] = palette.Color(i, len(annCats))
	}
	for i, c := range taxCats {
		out[c] = palette.Color(i, len(taxCats))
	}

	cats := make(map[string]string, len(out))
	for k, v := range out {
		cats[k] = v
	}
	for _, a := range allAnns {
		out[a] = palette.SubColor(cats[annotationMap[a]], a)
	}
	for _, t := range allTaxa {
		out[t] = palette.SubColor(cats[taxMap[t]], t)
	}
	return out
}

func sortedUnique(m map[string]string) []string {
	var out []string
	for _, v := range m {
		if v != "" {
			out = append(out, v)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func firstSeenValues(m map[string]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, k := range sortedKeys(m) {
		v := m[k]
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func membersByCategory(m map[string]string, cats []string) []string {
	pos := make(map[string]int, len(cats))
	for i, c := range cats {
		pos[c] = i
	}
	catIdx := func(name string) int {
		if i, ok := pos[m[name]]; ok {
			return i
		}
		return -1
	}
	members := sortedKeys(m)
	slices.SortStableFunc(members, func(a, b string) int {
		return SortByCategory(a, b, catIdx)
	})
	return members
}

func sortedKeys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
