// Package chord builds the count matrices behind the two-ring chord diagram.
//
// A chord matrix is square and indexed by an [Index]: annotation categories
// (superpathways, pathways or EC numbers) on one side, taxonomic categories
// (phyla, genera or species) on the other, separated by three gap entries.
// Every positive measurement in the abundance table links the row's
// annotation to the column's taxon, so the matrix accumulates mapped magnitude
// symmetrically.
//
// # Gaps
//
// The gap entries are not categories. They never match a lookup, even when a
// real category carries the same display key, and their diagonal cells hold
// filler mass proportional to the total so the renderer can leave empty arcs
// between the two halves of the ring:
//
//	gap_1 = S/4    gap_2 = S/2    gap_3 = S/4
//
// where S is the sum of all accumulated cells.
//
// # Usage
//
//	idx := chord.NewIndex([]string{"Glycolysis"}, []string{"Firmicutes"})
//	m := chord.MakeCountMatrix(table, idx, chord.FromMap(taxMap), chord.FromMap(ecMap))
//
// [Build] produces both rings at once together with colour keys.
//
// All functions are pure and safe for concurrent use.
package chord
