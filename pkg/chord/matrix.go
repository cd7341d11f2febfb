package chord

import (
	"github.com/matzehuels/metavis/pkg/abundance"
)

// Matrix is a square count matrix aligned to an [Index].
type Matrix [][]float64

// NewMatrix returns an n×n zero matrix.
func NewMatrix(n int) Matrix {
	m := make(Matrix, n)
	for i := range m {
		m[i] = make([]float64, n)
	}
	return m
}

// Sum adds every cell in row-major order.
func (m Matrix) Sum() float64 {
	var s float64
	for _, row := range m {
		for _, v := range row {
			s += v
		}
	}
	return s
}

// RowSum adds the cells of row i.
func (m Matrix) RowSum(i int) float64 {
	var s float64
	for _, v := range m[i] {
		s += v
	}
	return s
}

// MakeCountMatrix accumulates the positive measurements of t into a matrix
// over index.
//
// Measurement column keys go through primary, the row key through secondary.
// When both land on a category of index the value is added at [i][j] and
// [j][i]. Nil mappers act as [Identity]. Finally each gap's diagonal receives
// its share of the accumulated total (see package documentation).
func MakeCountMatrix(t abundance.Table, index Index, primary, secondary Mapper) Matrix {
	if primary == nil {
		primary = Identity
	}
	if secondary == nil {
		secondary = Identity
	}

	m := NewMatrix(len(index))
	pos := index.positions()
	lookup := func(mapper Mapper, id string) int {
		cat, ok := mapper(id)
		if !ok {
			return -1
		}
		if i, ok := pos[cat]; ok {
			return i
		}
		return -1
	}

	cols := t.Measurements()
	keyCol := t.KeyColumn()
	for _, row := range t.Rows {
		j := lookup(secondary, row[keyCol])
		if j < 0 {
			continue
		}
		for _, col := range cols {
			v, ok := row.Positive(col)
			if !ok {
				continue
			}
			i := lookup(primary, col)
			if i < 0 {
				continue
			}
			m[i][j] += v
			m[j][i] += v
		}
	}

	addFiller(m, index)
	return m
}

func addFiller(m Matrix, index Index) {
	total := m.Sum()
	for _, g := range Gaps {
		i := index.GapPosition(g)
		if i < 0 {
			continue
		}
		m[i][i] = total / g.divisor()
	}
}
