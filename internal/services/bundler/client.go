package bundler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"sfmbundle/internal/focal"
	"sfmbundle/internal/logging"
	"sfmbundle/internal/services"
)

// StdoutFile is the file inside the output directory that receives the
// tool's standard output.
const StdoutFile = "out"

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

// WithEnv replaces the base environment handed to the tool.
func WithEnv(env []string) Option {
	return func(c *Client) {
		c.env = env
	}
}

// WithTempDir sets the directory used for generated image lists.
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

// Client wraps bundle adjustment invocations.
type Client struct {
	binary  string
	libDir  string
	env     []string
	tempDir string
	exec    services.Executor
	logger  *slog.Logger
}

// New constructs a bundler client.
func New(binary, libDir string, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("bundler binary required")
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
	client.logger = logging.NewComponentLogger(client.logger, "bundler")
	return client, nil
}

// RunWithResults writes results to a temporary image list (bare image names
// for undetermined focal lengths, "image 0 focal" otherwise), runs the tool
// and removes the list.
func (c *Client) RunWithResults(ctx context.Context, dir string, results focal.Results, opts Options, optionsFile string) error {
	file, err := os.CreateTemp(c.tempDir, "sfmbundle-list-*.txt")
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "bundle", "create image list", "", err)
	}
	listPath := file.Name()
	_ = file.Close()
	defer func() {
		if err := os.Remove(listPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			c.logger.Debug("failed to remove image list", logging.String("path", listPath), logging.Error(err))
		}
	}()

	if err := focal.WriteListFile(listPath, results); err != nil {
		return services.Wrap(services.ErrConfiguration, "bundle", "write image list", "", err)
	}
	return c.run(ctx, dir, listPath, opts, optionsFile)
}

// RunWithList runs the tool against an existing image list file. The file is
// left in place.
func (c *Client) RunWithList(ctx context.Context, dir, listFile string, opts Options, optionsFile string) error {
	if strings.TrimSpace(listFile) == "" {
		return services.Wrap(services.ErrValidation, "bundle", "image list", "list file required", nil)
	}
	return c.run(ctx, dir, listFile, opts, optionsFile)
}

// run invokes the tool. With an options file the flags are written there and
// passed as --options_file; otherwise they go on the command line.
func (c *Client) run(ctx context.Context, dir, listFile string, opts Options, optionsFile string) (err error) {
	if err := opts.Validate(); err != nil {
		return err
	}
	args := opts.Args()

	cmdArgs := []string{listFile}
	if optionsFile != "" {
		if err := WriteOptionsFile(filepath.Join(dir, optionsFile), args); err != nil {
			return services.Wrap(services.ErrConfiguration, "bundle", "options file", optionsFile, err)
		}
		cmdArgs = append(cmdArgs, "--options_file", optionsFile)
	} else {
		cmdArgs = append(cmdArgs, args...)
	}

	outputDir := filepath.Join(dir, opts.OutputDir)
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, "bundle", "create output dir", opts.OutputDir, err)
	}
	stdout, err := os.Create(filepath.Join(outputDir, StdoutFile))
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "bundle", "create stdout file", "", err)
	}
	defer func() {
		if closeErr := stdout.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close bundler output: %w", closeErr)
		}
	}()

	cmd := services.Command{
		Binary: c.binary,
		Args:   cmdArgs,
		Dir:    dir,
		Env:    services.ToolEnv(c.env, c.libDir),
		Stdout: stdout,
	}
	c.logger.Debug("running bundle adjustment",
		logging.String("list", listFile),
		logging.String("args", strings.Join(cmdArgs, " ")),
	)
	if err := c.exec.Run(ctx, cmd); err != nil {
		return services.Wrap(services.ErrExternalTool, "bundle", "bundler", "", err)
	}
	return nil
}
