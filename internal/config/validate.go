package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateExtraction(); err != nil {
		return err
	}
	if err := c.validateBundler(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.BinDir) == "" {
		return errors.New("paths.bin_dir must be set (or export SFMBUNDLE_BIN_DIR)")
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		return errors.New("paths.state_dir must be set")
	}
	return nil
}

func (c *Config) validateExtraction() error {
	if c.Extraction.Workers < 0 {
		return errors.New("extraction.workers must be zero (one per CPU) or positive")
	}
	if c.Extraction.FocalScale <= 0 {
		return errors.New("extraction.focal_scale must be positive")
	}
	if err := ensureBareFileName("extraction.list_file", c.Extraction.ListFile); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateBundler() error {
	if c.Bundler.ConstrainFocalWeight < 0 {
		return errors.New("bundler.constrain_focal_weight must not be negative")
	}
	if filepath.IsAbs(c.Bundler.OutputDir) {
		return fmt.Errorf("bundler.output_dir must be relative to the working directory, got %q", c.Bundler.OutputDir)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
	return nil
}

func ensureBareFileName(field, value string) error {
	if value == "" {
		return fmt.Errorf("%s must be set", field)
	}
	if filepath.Base(value) != value {
		return fmt.Errorf("%s must be a file name inside the working directory, got %q", field, value)
	}
	return nil
}
