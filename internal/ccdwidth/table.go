package ccdwidth

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed ccd_widths.yml
var defaultTable []byte

// Entry is one camera in the table.
type Entry struct {
	Camera  string
	WidthMM float64
}

// Table maps "Make Model" strings to sensor widths in millimetres.
type Table struct {
	widths map[string]float64
}

// New builds a table from an in-memory mapping. The map is copied.
func New(widths map[string]float64) *Table {
	copied := make(map[string]float64, len(widths))
	for k, v := range widths {
		copied[k] = v
	}
	return &Table{widths: copied}
}

// Default parses the embedded reference table.
func Default() (*Table, error) {
	table, err := Parse(bytes.NewReader(defaultTable))
	if err != nil {
		return nil, fmt.Errorf("embedded ccd width table: %w", err)
	}
	return table, nil
}

// Load reads the table at path, or the embedded default when path is empty.
func Load(path string) (*Table, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Default()
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ccd width table: %w", err)
	}
	defer file.Close()

	table, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("ccd width table %s: %w", path, err)
	}
	return table, nil
}

// Parse decodes a YAML mapping of camera name to width in millimetres.
// Duplicate keys and non-finite or negative widths are rejected.
func Parse(r io.Reader) (*Table, error) {
	widths := map[string]float64{}
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&widths); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse: %w", err)
	}
	for camera, width := range widths {
		if math.IsNaN(width) || math.IsInf(width, 0) || width < 0 {
			return nil, fmt.Errorf("camera %q: invalid width %v", camera, width)
		}
	}
	return &Table{widths: widths}, nil
}

// Key builds the lookup key for an EXIF make and model.
func Key(make, model string) string {
	return strings.TrimSpace(make + " " + model)
}

// Lookup returns the sensor width for the camera. Matching is exact on the
// trimmed "Make Model" string.
func (t *Table) Lookup(make, model string) (float64, bool) {
	if t == nil {
		return 0, false
	}
	width, ok := t.widths[Key(make, model)]
	return width, ok
}

// Len reports the number of cameras in the table.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.widths)
}

// Entries returns every camera sorted with English collation rules.
func (t *Table) Entries() []Entry {
	return t.Search("")
}

// Search returns the cameras whose name contains query, ignoring case,
// sorted with English collation rules. An empty query matches everything.
func (t *Table) Search(query string) []Entry {
	if t == nil {
		return nil
	}
	fold := cases.Fold()
	needle := fold.String(strings.TrimSpace(query))

	names := make([]string, 0, len(t.widths))
	for camera := range t.widths {
		if needle != "" && !strings.Contains(fold.String(camera), needle) {
			continue
		}
		names = append(names, camera)
	}
	collate.New(language.English).SortStrings(names)

	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		entries = append(entries, Entry{Camera: name, WidthMM: t.widths[name]})
	}
	return entries
}
