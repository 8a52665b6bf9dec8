package sift

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"sfmbundle/internal/imaging"
	"sfmbundle/internal/keyfile"
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

// WithVerbose passes -v to the extractor.
func WithVerbose(verbose bool) Option {
	return func(c *Client) {
		c.verbose = verbose
	}
}

// WithOutput forwards extractor stdout and stderr to w. Output is discarded
// by default.
func WithOutput(w io.Writer) Option {
	return func(c *Client) {
		c.output = w
	}
}

// WithEnv replaces the base environment handed to the extractor.
func WithEnv(env []string) Option {
	return func(c *Client) {
		c.env = env
	}
}

// WithLogger sets the logger used for per-image diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// Client wraps extractor invocations.
type Client struct {
	binary  string
	libDir  string
	verbose bool
	output  io.Writer
	env     []string
	exec    services.Executor
	logger  *slog.Logger
}

// Result describes the key file produced for one image.
type Result struct {
	Image string
	// KeyFile is the raw key name handed to the matcher; the file on disk is
	// KeyFile+".gz".
	KeyFile  string
	Features int
}

// New constructs an extractor client.
func New(binary, libDir string, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("sift binary required")
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
	client.logger = logging.NewComponentLogger(client.logger, "sift")
	return client, nil
}

// Stem strips the final extension from an image path.
func Stem(image string) string {
	return strings.TrimSuffix(image, filepath.Ext(image))
}

// Args returns the extractor arguments for the given file names.
func (c *Client) Args(keyFile, pgmFile string) []string {
	args := make([]string, 0, 4)
	if c.verbose {
		args = append(args, "-v")
	}
	return append(args, "-o", keyFile, pgmFile)
}

// Extract runs the extractor for image, a path relative to dir, and leaves
// the compacted key file next to it.
func (c *Client) Extract(ctx context.Context, dir, image string) (Result, error) {
	stem := Stem(image)
	pgmFile := stem + ".pgm"
	keyFile := stem + ".key"
	pgmPath := filepath.Join(dir, pgmFile)
	keyPath := filepath.Join(dir, keyFile)

	if err := imaging.ConvertToPGM(filepath.Join(dir, image), pgmPath); err != nil {
		return Result{}, services.Wrap(services.ErrValidation, "extract", "convert to pgm", image, err)
	}
	defer func() {
		if err := os.Remove(pgmPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			logging.WarnWithContext(c.logger, "failed to remove pgm", "pgm_cleanup_failed",
				logging.Image(image),
				logging.Error(err),
				logging.Impact("temporary grayscale image left on disk"),
			)
		}
	}()

	cmd := services.Command{
		Binary: c.binary,
		Args:   c.Args(keyFile, pgmFile),
		Dir:    dir,
		Env:    services.ToolEnv(c.env, c.libDir),
		Stdout: c.output,
		Stderr: c.output,
	}
	c.logger.Debug("running extractor",
		logging.Image(image),
		logging.String("args", strings.Join(cmd.Args, " ")),
	)
	if err := c.exec.Run(ctx, cmd); err != nil {
		return Result{}, services.Wrap(services.ErrExternalTool, "extract", "sift", image, err)
	}

	count, err := keyfile.CompressFile(keyPath)
	if err != nil {
		return Result{}, services.Wrap(services.ErrValidation, "extract", "compress keys", image, err)
	}
	c.logger.Debug("keys compacted",
		logging.Image(image),
		logging.Int("features", count),
	)
	return Result{Image: image, KeyFile: keyFile, Features: count}, nil
}
