package testsupport

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"sfmbundle/internal/config"
)

// ConfigOption adjusts a config produced by NewConfig.
type ConfigOption func(t testing.TB, base string, cfg *config.Config)

// NewConfig returns the default config with every directory moved under a
// per-test temp dir (bin, lib, state, logs) and the built-in camera table.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths = config.Paths{
		BinDir:   filepath.Join(base, "bin"),
		LibDir:   filepath.Join(base, "lib"),
		StateDir: filepath.Join(base, "state"),
		LogDir:   filepath.Join(base, "logs"),
	}
	for _, opt := range opts {
		opt(t, base, &cfg)
	}
	return &cfg
}

// WithSerialExtraction turns off parallel feature extraction.
func WithSerialExtraction() ConfigOption {
	return func(_ testing.TB, _ string, cfg *config.Config) {
		cfg.Extraction.Parallel = false
	}
}

// WithCCDWidths writes a YAML camera table and points paths.ccd_widths at it.
func WithCCDWidths(yaml string) ConfigOption {
	return func(t testing.TB, base string, cfg *config.Config) {
		path := filepath.Join(base, "ccd_widths.yml")
		if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
			t.Fatalf("write ccd widths: %v", err)
		}
		cfg.Paths.CCDWidths = path
	}
}

// WithStubbedBinaries places executables that exit 0 in the bin directory,
// named for the running platform. With no names all three tools are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(t testing.TB, _ string, cfg *config.Config) {
		if len(names) == 0 {
			for _, tool := range []config.Tool{config.ToolSift, config.ToolKeyMatch, config.ToolBundler} {
				names = append(names, config.ExecutableName(runtime.GOOS, tool))
			}
		}
		if err := os.MkdirAll(cfg.Paths.BinDir, 0o755); err != nil {
			t.Fatalf("mkdir bin dir: %v", err)
		}
		for _, name := range names {
			if err := os.WriteFile(filepath.Join(cfg.Paths.BinDir, name), []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
				t.Fatalf("write stub %s: %v", name, err)
			}
		}
	}
}

// BaseDir returns the temp directory NewConfig placed everything under.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
