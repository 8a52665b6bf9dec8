package ccdwidth_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"sfmbundle/internal/ccdwidth"
)

func TestDefaultTableContainsKnownCameras(t *testing.T) {
	table, err := ccdwidth.Default()
	if err != nil {
		t.Fatalf("Default returned error: %v", err)
	}
	if table.Len() == 0 {
		t.Fatal("expected embedded table to have entries")
	}
	width, ok := table.Lookup("Canon", "EOS R5")
	if !ok {
		t.Fatal("expected Canon EOS R5 in embedded table")
	}
	if width != 36.0 {
		t.Fatalf("unexpected width: %v", width)
	}
}

func TestLookupIsExactOnTrimmedKey(t *testing.T) {
	table := ccdwidth.New(map[string]float64{"Canon EOS R5": 36.0})

	cases := []struct {
		make, model string
		want        bool
	}{
		{"Canon", "EOS R5", true},
		{"", "Canon EOS R5", true},
		{"Canon EOS R5", "", true},
		{"canon", "EOS R5", false},
		{"Canon", "EOS R5 ", true},
		{"Canon ", "EOS R5", false},
		{"Nikon", "D800", false},
	}
	for _, tc := range cases {
		_, ok := table.Lookup(tc.make, tc.model)
		if ok != tc.want {
			t.Fatalf("Lookup(%q, %q) ok=%v, want %v", tc.make, tc.model, ok, tc.want)
		}
	}
}

func TestKeyTrimsSurroundingWhitespace(t *testing.T) {
	if got := ccdwidth.Key("", ""); got != "" {
		t.Fatalf("expected empty key, got %q", got)
	}
	if got := ccdwidth.Key("  NIKON", "D70  "); got != "NIKON D70" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestLoadOverrideReplacesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "widths.yml")
	data := "\"Acme Cam 1\": 6.17\n\"Acme Cam 2\": 23.5\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write table: %v", err)
	}
	table, err := ccdwidth.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if table.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", table.Len())
	}
	if _, ok := table.Lookup("Canon", "EOS R5"); ok {
		t.Fatal("override should not include embedded entries")
	}
}

func TestLoadEmptyPathUsesDefault(t *testing.T) {
	table, err := ccdwidth.Load("  ")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if _, ok := table.Lookup("Canon", "EOS R5"); !ok {
		t.Fatal("expected embedded entries")
	}
}

func TestParseRejectsBadTables(t *testing.T) {
	cases := map[string]string{
		"negative":  "\"Acme Cam\": -1\n",
		"duplicate": "\"Acme Cam\": 1\n\"Acme Cam\": 2\n",
		"not a map": "- 1\n- 2\n",
		"nan":       "\"Acme Cam\": .nan\n",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ccdwidth.Parse(strings.NewReader(data)); err == nil {
				t.Fatal("expected parse error")
			}
		})
	}
}

func TestParseEmptyInput(t *testing.T) {
	table, err := ccdwidth.Parse(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if table.Len() != 0 {
		t.Fatalf("expected empty table, got %d", table.Len())
	}
}

func TestSearchFoldsCaseAndSorts(t *testing.T) {
	table := ccdwidth.New(map[string]float64{
		"NIKON D70":    23.7,
		"Canon EOS R5": 36.0,
		"Nikon Z 6":    35.9,
		"SONY ILCE-7":  35.8,
	})

	got := table.Search("nikon")
	want := []ccdwidth.Entry{
		{Camera: "NIKON D70", WidthMM: 23.7},
		{Camera: "Nikon Z 6", WidthMM: 35.9},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("search mismatch (-want +got):\n%s", diff)
	}

	all := table.Entries()
	if len(all) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(all))
	}
	if all[0].Camera != "Canon EOS R5" || all[3].Camera != "SONY ILCE-7" {
		t.Fatalf("unexpected ordering: %+v", all)
	}
}

func TestNilTableIsEmpty(t *testing.T) {
	var table *ccdwidth.Table
	if _, ok := table.Lookup("Canon", "EOS R5"); ok {
		t.Fatal("nil table should not match")
	}
	if table.Len() != 0 || table.Entries() != nil {
		t.Fatal("nil table should be empty")
	}
}
