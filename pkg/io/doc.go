// Package io reads the delimited files metavis works from and writes its
// results as JSON.
//
// # Inputs
//
// Abundance tables are tab- or comma-separated with a header row. Columns are
// matched by name, so their order does not matter:
//
//	EC#	GeneID	Length	Reads	RPKM	Escherichia coli	Bacillus subtilis
//	1.1.1.1	g1	900	12	3.2	4.5	0
//
// Pathway edge files carry source, target and pathway_number columns. The
// pathway manifest maps pathway numbers to names with number and name columns.
// Category maps have exactly two columns (id, category), with or without a
// header. Node lists have one id per line; a leading "ec:" is dropped.
//
// Use the Import* functions for paths and the Read* functions for any
// io.Reader. Files ending in .csv are comma-separated; everything else is read
// as tab-separated.
//
// # Outputs
//
// [WriteJSON] and [ExportJSON] encode any result type (chord data, counts,
// trees, layouts) as indented JSON.
package io
