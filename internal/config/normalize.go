package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeExtraction()
	c.normalizeMatching()
	c.normalizeBundler()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv("SFMBUNDLE_BIN_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.BinDir = strings.TrimSpace(value)
	}
	if value, ok := os.LookupEnv("SFMBUNDLE_LIB_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.LibDir = strings.TrimSpace(value)
	}

	var err error
	if c.Paths.BinDir, err = ExpandPath(strings.TrimSpace(c.Paths.BinDir)); err != nil {
		return fmt.Errorf("paths.bin_dir: %w", err)
	}
	if c.Paths.LibDir, err = ExpandPath(strings.TrimSpace(c.Paths.LibDir)); err != nil {
		return fmt.Errorf("paths.lib_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = ExpandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = ExpandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.CCDWidths, err = ExpandPath(strings.TrimSpace(c.Paths.CCDWidths)); err != nil {
		return fmt.Errorf("paths.ccd_widths: %w", err)
	}
	return nil
}

func (c *Config) normalizeExtraction() {
	exts := make([]string, 0, len(c.Extraction.ImageExtensions))
	seen := make(map[string]struct{}, len(c.Extraction.ImageExtensions))
	for _, ext := range c.Extraction.ImageExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if _, ok := seen[ext]; ok {
			continue
		}
		seen[ext] = struct{}{}
		exts = append(exts, ext)
	}
	if len(exts) == 0 {
		exts = append(exts, defaultImageExtensions...)
	}
	c.Extraction.ImageExtensions = exts
	if c.Extraction.FocalScale == 0 {
		c.Extraction.FocalScale = defaultFocalScale
	}
	c.Extraction.ListFile = strings.TrimSpace(c.Extraction.ListFile)
	if c.Extraction.ListFile == "" {
		c.Extraction.ListFile = defaultListFile
	}
}

func (c *Config) normalizeMatching() {
	c.Matching.MatchesFile = strings.TrimSpace(c.Matching.MatchesFile)
	if c.Matching.MatchesFile == "" {
		c.Matching.MatchesFile = defaultMatchesFile
	}
}

func (c *Config) normalizeBundler() {
	c.Bundler.OptionsFile = strings.TrimSpace(c.Bundler.OptionsFile)
	c.Bundler.OutputDir = strings.TrimSpace(c.Bundler.OutputDir)
	if c.Bundler.OutputDir == "" {
		c.Bundler.OutputDir = defaultBundleOutputDir
	}
	c.Bundler.Output = strings.TrimSpace(c.Bundler.Output)
	c.Bundler.OutputAll = strings.TrimSpace(c.Bundler.OutputAll)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
