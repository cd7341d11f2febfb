// Package pkg provides the core libraries for metavis.
//
// # Overview
//
// metavis turns a metagenomic abundance table (enzymes as rows, taxa as
// columns) into visualization data. The pkg directory is organized into:
//
//  1. Input: [abundance] (the table model), [io] (TSV/CSV readers, JSON
//     export) and [refdata] (the read-only taxonomy and pathway database)
//  2. Views: [chord] (pathway × taxon matrices), [hierarchy] (category means
//     and the taxonomy sunburst), [layout] and [pathway] (grid placement of
//     pathway networks)
//  3. Output: [palette] (category colours) and [render] (DOT/SVG)
//  4. Orchestration: [pipeline] (load → compute → render, with [cache] and
//     [observability] hooks)
//  5. Support: [errors] (coded errors and validation) and [buildinfo]
//
// # Data flow
//
//	abundance table + category maps (files or refdata)
//	         ↓
//	   pipeline.Load
//	         ↓
//	chord.Build · hierarchy.MeanCounts · hierarchy.BuildTree · pathway.Place
//	         ↓
//	   JSON / DOT / SVG
//
// The view packages are pure and do not log; the pipeline adds caching,
// logging and hooks around them.
package pkg
