package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"sfmbundle/internal/ccdwidth"
	"sfmbundle/internal/config"
	"sfmbundle/internal/logging"
)

type commandContext struct {
	configFlag  *string
	workDirFlag *string
	verbose     *bool
	noParallel  *bool

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag, workDirFlag *string, verbose, noParallel *bool) *commandContext {
	return &commandContext{
		configFlag:  configFlag,
		workDirFlag: workDirFlag,
		verbose:     verbose,
		noParallel:  noParallel,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		if c.noParallel != nil && *c.noParallel {
			cfg.Extraction.Parallel = false
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

func (c *commandContext) isVerbose() bool {
	return c.verbose != nil && *c.verbose
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, err := logging.NewFromConfig(cfg, c.isVerbose())
		if err != nil {
			c.loggerErr = fmt.Errorf("init logger: %w", err)
			return
		}
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

// workDir resolves -C, defaulting to the current directory.
func (c *commandContext) workDir() (string, error) {
	dir := "."
	if c.workDirFlag != nil && strings.TrimSpace(*c.workDirFlag) != "" {
		dir = strings.TrimSpace(*c.workDirFlag)
	}
	expanded, err := config.ExpandPath(dir)
	if err != nil {
		return "", fmt.Errorf("resolve working directory: %w", err)
	}
	info, err := os.Stat(expanded)
	if err != nil {
		return "", fmt.Errorf("working directory: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("working directory %s is not a directory", expanded)
	}
	return filepath.Clean(expanded), nil
}

func (c *commandContext) cameraTable() (*ccdwidth.Table, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	table, err := ccdwidth.Load(cfg.Paths.CCDWidths)
	if err != nil {
		return nil, fmt.Errorf("load camera table: %w", err)
	}
	return table, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
