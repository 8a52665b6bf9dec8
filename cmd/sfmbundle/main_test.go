package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"sfmbundle/internal/config"
	"sfmbundle/internal/keyfile"
	"sfmbundle/internal/ledger"
	"sfmbundle/internal/services"
	"sfmbundle/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	workDir    string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SFMBUNDLE_BIN_DIR", "")
	t.Setenv("SFMBUNDLE_LIB_DIR", "")

	cfg := testsupport.NewConfig(t, opts...)
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return &cliTestEnv{cfg: cfg, configPath: configPath, workDir: t.TempDir()}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}

func writeImages(t *testing.T, dir string) {
	t.Helper()
	testsupport.WriteJPEG(t, filepath.Join(dir, "a.jpg"), 8, 6, &testsupport.EXIF{
		Make: "Acme", Model: "One", FocalLength: [2]uint32{35, 1}, PixelX: 4000, PixelY: 3000,
		FocalPlaneXResolution: [2]uint32{4000, 1},
	})
	testsupport.WriteJPEG(t, filepath.Join(dir, "b.jpg"), 8, 6, nil)
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, filepath.Join(env.cfg.Paths.BinDir, "KeyMatchFull"))

	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected init to refuse overwriting without --overwrite")
	}
}

func TestVersionFlag(t *testing.T) {
	out, _, err := runCLI(t, []string{"--version"}, "")
	if err != nil {
		t.Fatalf("--version: %v", err)
	}
	requireContains(t, out, version)
}

func TestCamerasFiltersBuiltInTable(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"cameras", "ixus 40"}, env.configPath)
	if err != nil {
		t.Fatalf("cameras: %v", err)
	}
	requireContains(t, out, "Canon Canon DIGITAL IXUS 40")
	requireContains(t, out, "5.75")

	out, _, err = runCLI(t, []string{"cameras", "no such camera"}, env.configPath)
	if err != nil {
		t.Fatalf("cameras: %v", err)
	}
	requireContains(t, out, "No cameras match")
}

func TestCamerasUsesConfiguredTable(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithCCDWidths("\"Acme One\": 6.17\n"))
	out, _, err := runCLI(t, []string{"cameras"}, env.configPath)
	if err != nil {
		t.Fatalf("cameras: %v", err)
	}
	requireContains(t, out, "Acme One")
	requireContains(t, out, "1 of 1 cameras")
}

func TestExtractFocalCommandWritesListAndHistory(t *testing.T) {
	env := setupCLITestEnv(t)
	writeImages(t, env.workDir)

	out, _, err := runCLI(t, []string{"-C", env.workDir, "extract-focal"}, env.configPath)
	if err != nil {
		t.Fatalf("extract-focal: %v", err)
	}
	requireContains(t, out, "Focal length determined for 1 of 2 images")
	requireContains(t, out, "Acme One")

	list := testsupport.ReadFile(t, filepath.Join(env.workDir, "list.txt"))
	if !strings.HasPrefix(list, "./a.jpg 0 ") || !strings.HasSuffix(list, "\n./b.jpg\n") {
		t.Fatalf("unexpected list file %q", list)
	}

	out, _, err = runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, string(ledger.ModeExtractFocal))
	requireContains(t, out, string(ledger.StatusSucceeded))

	store, err := ledger.OpenPath(env.cfg.LedgerPath())
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	runs, err := store.ListRuns(context.Background(), 1)
	_ = store.Close()
	if err != nil || len(runs) != 1 {
		t.Fatalf("ListRuns: runs=%v err=%v", runs, err)
	}

	out, _, err = runCLI(t, []string{"history", runs[0].ID[:8]}, env.configPath)
	if err != nil {
		t.Fatalf("history detail: %v", err)
	}
	requireContains(t, out, runs[0].ID)
	requireContains(t, out, "./b.jpg")

	out, _, err = runCLI(t, []string{"logs", "--run", runs[0].ID[:8]}, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, "run started")
	requireContains(t, out, "run completed")

	out, _, err = runCLI(t, []string{"history", "--delete", runs[0].ID[:8]}, env.configPath)
	if err != nil {
		t.Fatalf("history --delete: %v", err)
	}
	requireContains(t, out, "Removed run")
	out, _, err = runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "No runs recorded")
}

func TestRootExtractFocalFlag(t *testing.T) {
	env := setupCLITestEnv(t)
	writeImages(t, env.workDir)

	out, _, err := runCLI(t, []string{"--extract-focal", "-C", env.workDir}, env.configPath)
	if err != nil {
		t.Fatalf("--extract-focal: %v", err)
	}
	requireContains(t, out, "list.txt")
	if _, err := os.Stat(filepath.Join(env.workDir, "list.txt")); err != nil {
		t.Fatalf("expected list file: %v", err)
	}
}

func TestRunWithoutImagesFails(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubbedBinaries())
	_, _, err := runCLI(t, []string{"run", "-C", env.workDir}, env.configPath)
	if !errors.Is(err, services.ErrNoImages) {
		t.Fatalf("expected ErrNoImages, got %v", err)
	}
}

func TestDoctorReportsMissingTools(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"doctor", "-C", env.workDir}, env.configPath)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	requireContains(t, out, "fail  KeyMatchFull")
	requireContains(t, out, "checks failed")
}

func TestDoctorPassesWithToolsInstalled(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubbedBinaries())
	if err := os.MkdirAll(env.cfg.Paths.LibDir, 0o755); err != nil {
		t.Fatalf("mkdir lib dir: %v", err)
	}
	out, _, err := runCLI(t, []string{"doctor", "-C", env.workDir}, env.configPath)
	if err != nil {
		t.Fatalf("doctor: %v\n%s", err, out)
	}
	if strings.Contains(out, "fail ") || strings.Contains(out, "checks failed") {
		t.Fatalf("unexpected failures:\n%s", out)
	}
}

func TestKeysInspect(t *testing.T) {
	dir := t.TempDir()
	raw := filepath.Join(dir, "a.key")
	testsupport.WriteFile(t, raw, testsupport.RawKeyText(3))
	if _, err := keyfile.CompressFile(raw); err != nil {
		t.Fatalf("CompressFile: %v", err)
	}

	out, _, err := runCLI(t, []string{"keys", "inspect", keyfile.CompressedPath(raw)}, "")
	if err != nil {
		t.Fatalf("keys inspect: %v", err)
	}
	requireContains(t, out, "3 x 128")
	requireContains(t, out, "Scale:")
}

func TestResizeCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteJPEG(t, filepath.Join(env.workDir, "big.JPG"), 40, 20, nil)
	testsupport.WriteJPEG(t, filepath.Join(env.workDir, "small.jpg"), 8, 4, nil)

	out, _, err := runCLI(t, []string{"resize", "10", "-C", env.workDir}, env.configPath)
	if err != nil {
		t.Fatalf("resize: %v", err)
	}
	requireContains(t, out, "Resized 1 of 2 images")
	requireContains(t, out, "10x5")
	if _, err := os.Stat(filepath.Join(env.workDir, "big.jpg")); err != nil {
		t.Fatalf("expected renamed image: %v", err)
	}

	if _, _, err := runCLI(t, []string{"resize", "zero", "-C", env.workDir}, env.configPath); err == nil {
		t.Fatal("expected invalid max size to fail")
	}
}
