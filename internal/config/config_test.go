package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pelletier/go-toml/v2"

	"sfmbundle/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("SFMBUNDLE_BIN_DIR", "")
	t.Setenv("SFMBUNDLE_LIB_DIR", "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantState := filepath.Join(tempHome, ".local", "share", "sfmbundle")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if cfg.LedgerPath() != filepath.Join(wantState, "runs.db") {
		t.Fatalf("unexpected ledger path: %q", cfg.LedgerPath())
	}
	if !cfg.Extraction.Parallel {
		t.Fatal("expected parallel extraction by default")
	}
	if cfg.Extraction.FocalScale != 1.0 {
		t.Fatalf("unexpected focal scale: %v", cfg.Extraction.FocalScale)
	}
	if diff := cmp.Diff([]string{".jpg"}, cfg.Extraction.ImageExtensions); diff != "" {
		t.Fatalf("image extensions mismatch (-want +got):\n%s", diff)
	}
	if cfg.Bundler.ConstrainFocalWeight != 0.0001 {
		t.Fatalf("unexpected constrain focal weight: %v", cfg.Bundler.ConstrainFocalWeight)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StateDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "sfmbundle.toml")

	type payload struct {
		Paths struct {
			BinDir string `toml:"bin_dir"`
		} `toml:"paths"`
		Extraction struct {
			Workers         int      `toml:"workers"`
			ImageExtensions []string `toml:"image_extensions"`
		} `toml:"extraction"`
		Bundler struct {
			UseCeres bool `toml:"use_ceres"`
		} `toml:"bundler"`
	}
	custom := payload{}
	custom.Paths.BinDir = filepath.Join(tempDir, "bin")
	custom.Extraction.Workers = 3
	custom.Extraction.ImageExtensions = []string{"JPG", ".jpeg", ".jpg", " "}
	custom.Bundler.UseCeres = false

	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("SFMBUNDLE_BIN_DIR", "")

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected custom config to be used, got resolved=%q exists=%v", resolved, exists)
	}
	if cfg.Paths.BinDir != filepath.Join(tempDir, "bin") {
		t.Fatalf("unexpected bin dir: %q", cfg.Paths.BinDir)
	}
	if cfg.Extraction.Workers != 3 {
		t.Fatalf("unexpected workers: %d", cfg.Extraction.Workers)
	}
	if diff := cmp.Diff([]string{".jpg", ".jpeg"}, cfg.Extraction.ImageExtensions); diff != "" {
		t.Fatalf("image extensions mismatch (-want +got):\n%s", diff)
	}
	if cfg.Bundler.UseCeres {
		t.Fatal("expected use_ceres override to be applied")
	}
	if !cfg.Bundler.RunBundle {
		t.Fatal("expected unspecified bundler options to keep defaults")
	}
}

func TestLoadHonoursBinDirEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	binDir := filepath.Join(t.TempDir(), "tools")
	t.Setenv("SFMBUNDLE_BIN_DIR", binDir)

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.BinDir != binDir {
		t.Fatalf("expected bin dir from env, got %q", cfg.Paths.BinDir)
	}
}

func TestValidateRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"negative workers", func(c *config.Config) { c.Extraction.Workers = -1 }, "extraction.workers"},
		{"zero scale", func(c *config.Config) { c.Extraction.FocalScale = 0 }, "extraction.focal_scale"},
		{"nested list file", func(c *config.Config) { c.Extraction.ListFile = "out/list.txt" }, "extraction.list_file"},
		{"negative weight", func(c *config.Config) { c.Bundler.ConstrainFocalWeight = -1 }, "constrain_focal_weight"},
		{"absolute output", func(c *config.Config) { c.Bundler.OutputDir = "/tmp/bundle" }, "bundler.output_dir"},
		{"bad format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"bad level", func(c *config.Config) { c.Logging.Level = "trace" }, "logging.level"},
		{"empty bin dir", func(c *config.Config) { c.Paths.BinDir = " " }, "paths.bin_dir"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestExecutableNameByPlatform(t *testing.T) {
	cases := []struct {
		goos string
		tool config.Tool
		want string
	}{
		{"linux", config.ToolSift, "sift"},
		{"darwin", config.ToolKeyMatch, "KeyMatchFull"},
		{"linux", config.ToolBundler, "bundler"},
		{"windows", config.ToolSift, "siftWin32.exe"},
		{"windows", config.ToolKeyMatch, "KeyMatchFull.exe"},
		{"windows", config.ToolBundler, "Bundler.exe"},
	}
	for _, tc := range cases {
		if got := config.ExecutableName(tc.goos, tc.tool); got != tc.want {
			t.Fatalf("ExecutableName(%q, %v) = %q, want %q", tc.goos, tc.tool, got, tc.want)
		}
	}
}

func TestResolveToolsForJoinsBinDir(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.BinDir = "/opt/bundler/bin"
	cfg.Paths.LibDir = "/opt/bundler/lib"

	got := config.ResolveToolsFor(&cfg, "windows")
	want := config.Tools{
		Sift:     filepath.Join("/opt/bundler/bin", "siftWin32.exe"),
		KeyMatch: filepath.Join("/opt/bundler/bin", "KeyMatchFull.exe"),
		Bundler:  filepath.Join("/opt/bundler/bin", "Bundler.exe"),
		LibDir:   "/opt/bundler/lib",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("tools mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateSampleWritesLoadableConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SFMBUNDLE_BIN_DIR", "")
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	if cfg.Matching.MatchesFile != "matches.init.txt" {
		t.Fatalf("unexpected matches file: %q", cfg.Matching.MatchesFile)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	t.Setenv("SFMBUNDLE_BIN_DIR", "")
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[bundler]\nuse_cere = false\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, _, _, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), "use_cere") {
		t.Fatalf("expected unknown key error naming use_cere, got %v", err)
	}
}

func TestExpandPathResolvesHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	got, err := config.ExpandPath("~/bundler/bin")
	if err != nil {
		t.Fatalf("ExpandPath: %v", err)
	}
	if want := filepath.Join(home, "bundler", "bin"); got != want {
		t.Fatalf("ExpandPath = %q, want %q", got, want)
	}
	if got, _ := config.ExpandPath(""); got != "" {
		t.Fatalf("expected empty path to stay empty, got %q", got)
	}
}
