package io

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
)

// WriteJSON encodes v as indented JSON and writes it to w.
func WriteJSON(v any, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportJSON writes v as JSON to the file at path, replacing it.
func ExportJSON(v any, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteJSON(v, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
