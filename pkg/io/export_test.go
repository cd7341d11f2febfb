package io

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/metavis/pkg/layout"
)

func TestWriteJSON(t *testing.T) {
	res := &layout.Result{
		Height: 3,
		Groups: []layout.GroupLayout{{Key: "P1", Nodes: []layout.Placement{{ID: "n1", Point: layout.Point{X: 0, Y: 1}}}}},
	}
	var buf bytes.Buffer
	if err := WriteJSON(res, &buf); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	out := buf.String()
	for _, want := range []string{`"height": 3`, `"key": "P1"`, `"id": "n1"`, `"y": 1`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s:\n%s", want, out)
		}
	}
}

func TestExportJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	if err := ExportJSON(map[string]int{"a": 1}, path); err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"a": 1`) {
		t.Errorf("file content = %s", data)
	}
}
