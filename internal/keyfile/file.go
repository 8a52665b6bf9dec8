package keyfile

import (
	"fmt"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// CompressedExt is appended to raw key file names to form the retained artifact.
const CompressedExt = ".gz"

// CompressedPath returns the artifact path for a raw key file.
func CompressedPath(rawPath string) string {
	return rawPath + CompressedExt
}

// CompressFile compacts the raw key file at rawPath into a gzip stream at
// rawPath+".gz" and deletes the raw file. The uncompressed compacted text is
// never written to disk. On failure the partial output is removed and the
// raw file is kept.
func CompressFile(rawPath string) (int, error) {
	raw, err := os.Open(rawPath)
	if err != nil {
		return 0, fmt.Errorf("open raw keys: %w", err)
	}
	defer raw.Close()

	target := CompressedPath(rawPath)
	out, err := os.Create(target)
	if err != nil {
		return 0, fmt.Errorf("create key file: %w", err)
	}

	count, err := writeCompressed(raw, out)
	if err != nil {
		_ = os.Remove(target)
		return 0, err
	}
	if err := raw.Close(); err != nil {
		return 0, fmt.Errorf("close raw keys: %w", err)
	}
	if err := os.Remove(rawPath); err != nil {
		return 0, fmt.Errorf("remove raw keys: %w", err)
	}
	return count, nil
}

func writeCompressed(raw *os.File, out *os.File) (int, error) {
	zw := gzip.NewWriter(out)
	count, err := Compact(raw, zw)
	if err != nil {
		_ = zw.Close()
		_ = out.Close()
		return 0, fmt.Errorf("compact keys: %w", err)
	}
	if err := zw.Close(); err != nil {
		_ = out.Close()
		return 0, fmt.Errorf("finish gzip stream: %w", err)
	}
	if err := out.Sync(); err != nil {
		_ = out.Close()
		return 0, fmt.Errorf("sync key file: %w", err)
	}
	if err := out.Close(); err != nil {
		return 0, fmt.Errorf("close key file: %w", err)
	}
	return count, nil
}

// ReadFile decompresses and decodes a compacted key file. Paths without the
// ".gz" suffix are read as plain text.
func ReadFile(path string) ([]Feature, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open key file: %w", err)
	}
	defer file.Close()

	if !strings.HasSuffix(path, CompressedExt) {
		return Decode(file)
	}
	zr, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("open gzip stream: %w", err)
	}
	defer zr.Close()

	return Decode(zr)
}

