package logs_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"sfmbundle/internal/logs"
)

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sfmbundle.log")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	return path
}

func appendLog(t *testing.T, path, content string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	defer f.Close()
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("append log: %v", err)
	}
}

func TestLastReturnsTrailingLines(t *testing.T) {
	path := writeLog(t, "a\nb\nc\n")

	lines, offset, err := logs.Last(path, 2, nil)
	if err != nil {
		t.Fatalf("Last returned error: %v", err)
	}
	if diff := cmp.Diff([]string{"b", "c"}, lines); diff != "" {
		t.Fatalf("lines mismatch (-want +got):\n%s", diff)
	}
	if offset != 6 {
		t.Fatalf("expected offset 6, got %d", offset)
	}

	lines, _, err = logs.Last(path, 10, nil)
	if err != nil {
		t.Fatalf("Last returned error: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, lines); diff != "" {
		t.Fatalf("lines mismatch (-want +got):\n%s", diff)
	}
}

func TestLastMissingFile(t *testing.T) {
	lines, offset, err := logs.Last(filepath.Join(t.TempDir(), "missing.log"), 5, nil)
	if err != nil || lines != nil || offset != 0 {
		t.Fatalf("unexpected result: lines=%v offset=%d err=%v", lines, offset, err)
	}
}

func TestRunFilterMatchesBothFormats(t *testing.T) {
	path := writeLog(t, ""+
		"2026-01-02 10:00:00 INFO [pipeline] – run started run_id=abc123 mode=full\n"+
		"2026-01-02 10:00:00 INFO [pipeline] – run started run_id=def456 mode=full\n"+
		`{"level":"INFO","msg":"stage started","run_id":"abc123","stage":"focal"}`+"\n")

	lines, _, err := logs.Last(path, 10, logs.RunFilter("abc"))
	if err != nil {
		t.Fatalf("Last returned error: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("expected two lines for run abc, got %q", lines)
	}
	if logs.RunFilter("  ") != nil {
		t.Fatal("expected empty run id to disable filtering")
	}
}

func TestReadFromLeavesPartialLine(t *testing.T) {
	path := writeLog(t, "one\ntwo")

	lines, offset, err := logs.ReadFrom(path, 0, nil)
	if err != nil {
		t.Fatalf("ReadFrom returned error: %v", err)
	}
	if diff := cmp.Diff([]string{"one"}, lines); diff != "" {
		t.Fatalf("lines mismatch (-want +got):\n%s", diff)
	}
	appendLog(t, path, "\n")
	lines, _, err = logs.ReadFrom(path, offset, nil)
	if err != nil {
		t.Fatalf("ReadFrom returned error: %v", err)
	}
	if diff := cmp.Diff([]string{"two"}, lines); diff != "" {
		t.Fatalf("lines mismatch (-want +got):\n%s", diff)
	}
}

func TestReadFromRestartsAfterTruncation(t *testing.T) {
	path := writeLog(t, "x\n")
	lines, _, err := logs.ReadFrom(path, 100, nil)
	if err != nil {
		t.Fatalf("ReadFrom returned error: %v", err)
	}
	if diff := cmp.Diff([]string{"x"}, lines); diff != "" {
		t.Fatalf("lines mismatch (-want +got):\n%s", diff)
	}
}

func TestFollowEmitsAppendedLines(t *testing.T) {
	path := writeLog(t, "start\n")
	_, offset, err := logs.Last(path, 1, nil)
	if err != nil {
		t.Fatalf("Last returned error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var got []string
	done := make(chan error, 1)
	go func() {
		done <- logs.Follow(ctx, path, offset, 10*time.Millisecond, nil, func(line string) {
			mu.Lock()
			got = append(got, line)
			mu.Unlock()
		})
	}()

	appendLog(t, path, "next\n")
	deadline := time.After(2 * time.Second)
	for {
		mu.Lock()
		n := len(got)
		mu.Unlock()
		if n > 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for followed line")
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Follow returned error: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if diff := cmp.Diff([]string{"next"}, got); diff != "" {
		t.Fatalf("followed lines mismatch (-want +got):\n%s", diff)
	}
}
