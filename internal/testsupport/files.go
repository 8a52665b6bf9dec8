package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// WriteFile writes contents to path, creating parent directories.
func WriteFile(t testing.TB, path, contents string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// ReadFile returns the contents of path or fails the test.
func ReadFile(t testing.TB, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

// RawKeyTokens returns the 132 tokens of synthetic feature i. Every token is
// distinct across features so reordering bugs show up in comparisons.
func RawKeyTokens(i int) []string {
	tokens := make([]string, 132)
	tokens[0] = fmt.Sprintf("%d.25", 100+i)
	tokens[1] = fmt.Sprintf("%d.75", 200+i)
	tokens[2] = fmt.Sprintf("1.%d", i)
	tokens[3] = fmt.Sprintf("-0.%d", i+1)
	for j := 4; j < len(tokens); j++ {
		tokens[j] = strconv.Itoa((i*131 + j) % 256)
	}
	return tokens
}

// RawKeyText builds extractor output with n features, one per line.
func RawKeyText(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteString(strings.Join(RawKeyTokens(i), " "))
		b.WriteByte('\n')
	}
	return b.String()
}
