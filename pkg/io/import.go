package io

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/metavis/pkg/abundance"
	"github.com/matzehuels/metavis/pkg/errors"
	"github.com/matzehuels/metavis/pkg/layout"
)

// Delimiter returns the field separator for path: ',' for .csv files and tab
// otherwise.
func Delimiter(path string) rune {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return ','
	}
	return '\t'
}

// ReadTable decodes a delimited abundance table with a header row.
//
// Short rows are accepted; their missing cells are absent from the row and
// read as "not detected". Duplicate header names are an error.
func ReadTable(r io.Reader, delim rune) (abundance.Table, error) {
	header, records, err := readAll(r, delim)
	if err != nil {
		return abundance.Table{}, err
	}
	if header == nil {
		return abundance.Table{}, errors.New(errors.ErrCodeInvalidFormat, "table has no header row")
	}
	seen := make(map[string]bool, len(header))
	for _, h := range header {
		if seen[h] {
			return abundance.Table{}, errors.New(errors.ErrCodeInvalidFormat, "duplicate column %q", h)
		}
		seen[h] = true
	}

	rows := make([]abundance.Row, 0, len(records))
	for _, rec := range records {
		row := make(abundance.Row, len(header))
		for i, v := range rec {
			if i < len(header) {
				row[header[i]] = v
			}
		}
		rows = append(rows, row)
	}
	return abundance.New(header, rows), nil
}

// ImportTable reads the abundance table at path.
func ImportTable(path string) (abundance.Table, error) {
	var t abundance.Table
	err := withFile(path, func(f io.Reader) (err error) {
		t, err = ReadTable(f, Delimiter(path))
		return err
	})
	return t, err
}

// ReadEdges decodes a pathway edge file. Each edge's Group is its
// pathway_number.
func ReadEdges(r io.Reader, delim rune) ([]layout.Edge, error) {
	header, records, err := readAll(r, delim)
	if err != nil {
		return nil, err
	}
	cols, err := columnIndex(header, "source", "target", "pathway_number")
	if err != nil {
		return nil, err
	}
	edges := make([]layout.Edge, 0, len(records))
	for _, rec := range records {
		edges = append(edges, layout.Edge{
			Source: field(rec, cols[0]),
			Target: field(rec, cols[1]),
			Group:  field(rec, cols[2]),
		})
	}
	return edges, nil
}

// ImportEdges reads the pathway edge file at path.
func ImportEdges(path string) ([]layout.Edge, error) {
	var edges []layout.Edge
	err := withFile(path, func(f io.Reader) (err error) {
		edges, err = ReadEdges(f, Delimiter(path))
		return err
	})
	return edges, err
}

// ReadManifest decodes a pathway manifest into a number → name map.
func ReadManifest(r io.Reader, delim rune) (map[string]string, error) {
	header, records, err := readAll(r, delim)
	if err != nil {
		return nil, err
	}
	cols, err := columnIndex(header, "number", "name")
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(records))
	for _, rec := range records {
		out[field(rec, cols[0])] = field(rec, cols[1])
	}
	return out, nil
}

// ImportManifest reads the pathway manifest at path.
func ImportManifest(path string) (map[string]string, error) {
	var m map[string]string
	err := withFile(path, func(f io.Reader) (err error) {
		m, err = ReadManifest(f, Delimiter(path))
		return err
	})
	return m, err
}

// ReadCategoryMap decodes a two-column id → category file. A first row of
// "id" and "category" is treated as a header and skipped. Later rows win on
// duplicate ids.
func ReadCategoryMap(r io.Reader, delim rune) (map[string]string, error) {
	cr := newReader(r, delim)
	out := make(map[string]string)
	line := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "read category map")
		}
		line++
		if len(rec) < 2 {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "line %d: want 2 columns, got %d", line, len(rec))
		}
		if line == 1 && strings.EqualFold(rec[0], "id") && strings.EqualFold(rec[1], "category") {
			continue
		}
		out[strings.TrimSpace(rec[0])] = strings.TrimSpace(rec[1])
	}
}

// ImportCategoryMap reads the category map at path.
func ImportCategoryMap(path string) (map[string]string, error) {
	var m map[string]string
	err := withFile(path, func(f io.Reader) (err error) {
		m, err = ReadCategoryMap(f, Delimiter(path))
		return err
	})
	return m, err
}

// ReadNodeList reads one node id per line, skipping blank lines and removing
// an "ec:" prefix.
func ReadNodeList(r io.Reader) ([]string, error) {
	var ids []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		ids = append(ids, strings.TrimPrefix(line, "ec:"))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read node list: %w", err)
	}
	return ids, nil
}

// ImportNodeList reads the node list at path.
func ImportNodeList(path string) ([]string, error) {
	var ids []string
	err := withFile(path, func(f io.Reader) (err error) {
		ids, err = ReadNodeList(f)
		return err
	})
	return ids, err
}

func withFile(path string, fn func(io.Reader) error) error {
	if err := errors.ValidatePath(path); err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	if err := fn(f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func newReader(r io.Reader, delim rune) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return cr
}

// readAll returns the header and the non-empty data records of r.
func readAll(r io.Reader, delim rune) ([]string, [][]string, error) {
	all, err := newReader(r, delim).ReadAll()
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse delimited input")
	}
	if len(all) == 0 {
		return nil, nil, nil
	}
	header := make([]string, len(all[0]))
	for i, h := range all[0] {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	records := all[1:]
	return header, records, nil
}

func columnIndex(header []string, names ...string) ([]int, error) {
	out := make([]int, len(names))
	for i, name := range names {
		out[i] = -1
		for j, h := range header {
			if h == name {
				out[i] = j
				break
			}
		}
		if out[i] < 0 {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "missing column %q", name)
		}
	}
	return out, nil
}

func field(rec []string, i int) string {
	if i < len(rec) {
		return strings.TrimSpace(rec[i])
	}
	return ""
}
