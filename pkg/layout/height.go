package layout

import (
	"slices"

	"github.com/matzehuels/metavis/pkg/errors"
)

// EstimateHeight returns the shared grid height for groups of the given sizes.
//
// It is the smallest h, starting from the smallest group, for which
// h > k + Σ ceil(size/h) where k is the number of groups: the rows exceed the
// columns the groups need once packed side by side, which keeps the combined
// layout roughly square.
func EstimateHeight(sizes []int) (int, error) {
	if len(sizes) == 0 {
		return 0, errors.New(errors.ErrCodeInvalidInput, "no groups to lay out")
	}
	total := 0
	for i, s := range sizes {
		if s <= 0 {
			return 0, errors.New(errors.ErrCodeInvalidInput, "group %d is empty", i)
		}
		total += s
	}

	k := len(sizes)
	limit := k + total + 1
	for h := slices.Min(sizes); h <= limit; h++ {
		if h > k+columns(sizes, h) {
			return h, nil
		}
	}
	return 0, errors.New(errors.ErrCodeSearchExhausted, "no grid height up to %d fits %d groups", limit, k)
}

// columns is the number of columns the groups occupy at height h.
func columns(sizes []int, h int) int {
	n := 0
	for _, s := range sizes {
		n += (s + h - 1) / h
	}
	return n
}
