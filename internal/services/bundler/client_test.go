package bundler_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"sfmbundle/internal/focal"
	"sfmbundle/internal/services"
	"sfmbundle/internal/services/bundler"
	"sfmbundle/internal/testsupport"
)

type recordingExecutor struct {
	err      error
	cmd      services.Command
	listBody string
}

func (r *recordingExecutor) Run(_ context.Context, cmd services.Command) error {
	r.cmd = cmd
	list := cmd.Args[0]
	if !filepath.IsAbs(list) {
		list = filepath.Join(cmd.Dir, list)
	}
	data, err := os.ReadFile(list)
	if err != nil {
		return err
	}
	r.listBody = string(data)
	if cmd.Stdout != nil {
		fmt.Fprintln(cmd.Stdout, "bundle adjustment complete")
	}
	return r.err
}

func TestRunWithResultsWritesListOptionsAndStdout(t *testing.T) {
	workDir := t.TempDir()
	tempDir := t.TempDir()
	exec := &recordingExecutor{}
	client, err := bundler.New("/opt/bin/bundler", "/opt/lib",
		bundler.WithExecutor(exec),
		bundler.WithTempDir(tempDir),
		bundler.WithEnv([]string{"HOME=/root"}),
	)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	results := focal.NewResults([]focal.Result{
		{Image: "./a.jpg", Pixels: 3888.5, Known: true},
		{Image: "./b.jpg"},
	})
	if err := client.RunWithResults(context.Background(), workDir, results, defaultOptions(), "options.txt"); err != nil {
		t.Fatalf("RunWithResults returned error: %v", err)
	}

	if exec.listBody != "./a.jpg 0 3888.5\n./b.jpg\n" {
		t.Fatalf("unexpected image list %q", exec.listBody)
	}
	if diff := cmp.Diff([]string{"--options_file", "options.txt"}, exec.cmd.Args[1:]); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"HOME=/root", "LD_LIBRARY_PATH=/opt/lib"}, exec.cmd.Env); diff != "" {
		t.Fatalf("env mismatch (-want +got):\n%s", diff)
	}

	options := testsupport.ReadFile(t, filepath.Join(workDir, "options.txt"))
	if options[:len("\n--match_table matches.init.txt\n")] != "\n--match_table matches.init.txt\n" {
		t.Fatalf("unexpected options file %q", options)
	}
	if got := testsupport.ReadFile(t, filepath.Join(workDir, "bundle", bundler.StdoutFile)); got != "bundle adjustment complete\n" {
		t.Fatalf("unexpected stdout capture %q", got)
	}
	entries, _ := os.ReadDir(tempDir)
	if len(entries) != 0 {
		t.Fatal("expected temporary image list to be removed")
	}
}

func TestRunWithListPassesFlagsInline(t *testing.T) {
	workDir := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(workDir, "list.txt"), "./a.jpg\n")
	exec := &recordingExecutor{}
	client, err := bundler.New("bundler", "", bundler.WithExecutor(exec))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	opts := defaultOptions()
	if err := client.RunWithList(context.Background(), workDir, "list.txt", opts, ""); err != nil {
		t.Fatalf("RunWithList returned error: %v", err)
	}
	want := append([]string{"list.txt"}, opts.Args()...)
	if diff := cmp.Diff(want, exec.cmd.Args); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
	if _, err := os.Stat(filepath.Join(workDir, "list.txt")); err != nil {
		t.Fatalf("expected caller's list to remain: %v", err)
	}
	if _, err := os.Stat(filepath.Join(workDir, "options.txt")); !os.IsNotExist(err) {
		t.Fatal("no options file expected without a name")
	}
}

func TestRunFailureIsExternalError(t *testing.T) {
	workDir := t.TempDir()
	client, err := bundler.New("bundler", "",
		bundler.WithExecutor(&recordingExecutor{err: errors.New("exit status 1")}),
		bundler.WithTempDir(t.TempDir()),
	)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	err = client.RunWithResults(context.Background(), workDir, focal.NewResults(nil), defaultOptions(), "options.txt")
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if got := testsupport.ReadFile(t, filepath.Join(workDir, "bundle", bundler.StdoutFile)); got != "bundle adjustment complete\n" {
		t.Fatalf("expected bundler output kept after a failed run, got %q", got)
	}
}

func TestRunRejectsInvalidOptions(t *testing.T) {
	exec := &recordingExecutor{}
	client, err := bundler.New("bundler", "", bundler.WithExecutor(exec))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	opts := defaultOptions()
	opts.MatchTable = ""
	if err := client.RunWithList(context.Background(), t.TempDir(), "list.txt", opts, ""); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := client.RunWithList(context.Background(), t.TempDir(), "", defaultOptions(), ""); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for empty list, got %v", err)
	}
}
