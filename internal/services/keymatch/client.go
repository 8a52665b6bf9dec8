package keymatch

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"sfmbundle/internal/logging"
	"sfmbundle/internal/services"
)

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec services.Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// WithOutput forwards matcher stdout to w. Output is discarded by default.
func WithOutput(w io.Writer) Option {
	return func(c *Client) {
		c.output = w
	}
}

// WithEnv replaces the base environment handed to the matcher.
func WithEnv(env []string) Option {
	return func(c *Client) {
		c.env = env
	}
}

// WithTempDir sets the directory used for the key list file.
func WithTempDir(dir string) Option {
	return func(c *Client) {
		c.tempDir = dir
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// Client wraps matcher invocations.
type Client struct {
	binary  string
	libDir  string
	output  io.Writer
	env     []string
	tempDir string
	exec    services.Executor
	logger  *slog.Logger
}

// New constructs a matcher client.
func New(binary, libDir string, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("KeyMatchFull binary required")
	}
	client := &Client{
		binary: binary,
		libDir: libDir,
		env:    os.Environ(),
		exec:   services.CommandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	client.logger = logging.NewComponentLogger(client.logger, "keymatch")
	return client, nil
}

// Match writes keyFiles to a temporary list and runs the matcher in dir,
// producing matchesFile. The list file is removed afterwards.
func (c *Client) Match(ctx context.Context, dir string, keyFiles []string, matchesFile string) error {
	if strings.TrimSpace(matchesFile) == "" {
		return services.Wrap(services.ErrValidation, "match", "KeyMatchFull", "matches file required", nil)
	}
	listPath, err := writeKeyList(c.tempDir, keyFiles)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "match", "write key list", "", err)
	}
	defer func() {
		if err := os.Remove(listPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			c.logger.Debug("failed to remove key list", logging.String("path", listPath), logging.Error(err))
		}
	}()

	cmd := services.Command{
		Binary: c.binary,
		Args:   []string{listPath, matchesFile},
		Dir:    dir,
		Env:    services.ToolEnv(c.env, c.libDir),
		Stdout: c.output,
	}
	c.logger.Debug("running matcher",
		logging.Int("keys", len(keyFiles)),
		logging.String("matches", matchesFile),
	)
	if err := c.exec.Run(ctx, cmd); err != nil {
		return services.Wrap(services.ErrExternalTool, "match", "KeyMatchFull", "", err)
	}
	return nil
}

func writeKeyList(dir string, keyFiles []string) (string, error) {
	file, err := os.CreateTemp(dir, "sfmbundle-keys-*.txt")
	if err != nil {
		return "", err
	}
	out := bufio.NewWriter(file)
	for _, key := range keyFiles {
		if _, err := fmt.Fprintln(out, key); err != nil {
			_ = file.Close()
			_ = os.Remove(file.Name())
			return "", err
		}
	}
	if err := out.Flush(); err != nil {
		_ = file.Close()
		_ = os.Remove(file.Name())
		return "", err
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(file.Name())
		return "", err
	}
	return file.Name(), nil
}
