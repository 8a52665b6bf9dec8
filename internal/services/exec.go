package services

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strings"
)

// Command describes a single external tool invocation.
type Command struct {
	Binary string
	Args   []string
	// Dir is the working directory; empty means the current directory.
	Dir string
	// Env is the full environment; nil inherits the parent environment.
	Env    []string
	Stdout io.Writer
	Stderr io.Writer
}

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, cmd Command) error
}

// CommandExecutor runs commands with os/exec and waits for them to finish.
type CommandExecutor struct{}

// Run starts the command and blocks until it exits. A non-zero exit status is
// reported as an error.
func (CommandExecutor) Run(ctx context.Context, c Command) error {
	binary := strings.TrimSpace(c.Binary)
	if binary == "" {
		return fmt.Errorf("%w: empty binary", ErrConfiguration)
	}
	cmd := exec.CommandContext(ctx, binary, c.Args...) //nolint:gosec
	cmd.Dir = c.Dir
	cmd.Env = c.Env
	cmd.Stdout = c.Stdout
	cmd.Stderr = c.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("run %s: %w", filepath.Base(binary), err)
	}
	return nil
}

const libraryPathVar = "LD_LIBRARY_PATH"

// ToolEnv returns a copy of base with libDir appended to LD_LIBRARY_PATH.
// When the variable is absent it is set to libDir alone.
func ToolEnv(base []string, libDir string) []string {
	env := make([]string, 0, len(base)+1)
	libDir = strings.TrimSpace(libDir)
	found := false
	prefix := libraryPathVar + "="
	for _, entry := range base {
		if libDir != "" && strings.HasPrefix(entry, prefix) {
			found = true
			current := strings.TrimPrefix(entry, prefix)
			if current == "" {
				entry = prefix + libDir
			} else {
				entry = prefix + current + ":" + libDir
			}
		}
		env = append(env, entry)
	}
	if libDir != "" && !found {
		env = append(env, prefix+libDir)
	}
	return env
}
