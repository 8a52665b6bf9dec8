package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	BinDir    string `toml:"bin_dir"`
	LibDir    string `toml:"lib_dir"`
	StateDir  string `toml:"state_dir"`
	LogDir    string `toml:"log_dir"`
	CCDWidths string `toml:"ccd_widths"`
}

// Extraction contains configuration for focal length and feature extraction.
type Extraction struct {
	Parallel        bool     `toml:"parallel"`
	Workers         int      `toml:"workers"`
	ImageExtensions []string `toml:"image_extensions"`
	FocalScale      float64  `toml:"focal_scale"`
	ListFile        string   `toml:"list_file"`
}

// Matching contains configuration for the key matcher.
type Matching struct {
	MatchesFile string `toml:"matches_file"`
}

// Bundler contains the option set handed to the bundle adjuster.
type Bundler struct {
	OptionsFile          string  `toml:"options_file"`
	OutputDir            string  `toml:"output_dir"`
	Output               string  `toml:"output"`
	OutputAll            string  `toml:"output_all"`
	VariableFocalLength  bool    `toml:"variable_focal_length"`
	UseFocalEstimate     bool    `toml:"use_focal_estimate"`
	ConstrainFocal       bool    `toml:"constrain_focal"`
	ConstrainFocalWeight float64 `toml:"constrain_focal_weight"`
	EstimateDistortion   bool    `toml:"estimate_distortion"`
	RunBundle            bool    `toml:"run_bundle"`
	UseCeres             bool    `toml:"use_ceres"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for sfmbundle.
//
// Configuration sections by subsystem:
//   - Paths: external tool directories, state and log directories
//   - Extraction: worker count, discovered extensions, focal scale
//   - Matching: match table location
//   - Bundler: bundle adjustment options and output layout
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Extraction Extraction `toml:"extraction"`
	Matching   Matching   `toml:"matching"`
	Bundler    Bundler    `toml:"bundler"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath is ~/.config/sfmbundle/config.toml, expanded.
func DefaultConfigPath() (string, error) {
	return ExpandPath("~/.config/sfmbundle/config.toml")
}

// Load reads the configuration at path, or the first existing file among
// the default path and ./sfmbundle.toml when path is empty. A missing file
// yields defaults. It returns the config, the path it settled on and whether
// that file existed. Unknown keys are rejected so a misspelt option does not
// silently fall back to its default.
func Load(path string) (*Config, string, bool, error) {
	resolved, exists, err := locate(path)
	if err != nil {
		return nil, "", false, err
	}

	cfg := Default()
	if exists {
		data, err := os.ReadFile(resolved)
		if err != nil {
			return nil, "", false, fmt.Errorf("read config: %w", err)
		}
		dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			var strict *toml.StrictMissingError
			if errors.As(err, &strict) {
				return nil, "", false, fmt.Errorf("parse config %s: unknown keys:\n%s", resolved, strict.String())
			}
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolved, err)
		}
	}
	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolved, exists, nil
}

func locate(path string) (string, bool, error) {
	if path != "" {
		expanded, err := ExpandPath(path)
		if err != nil {
			return "", false, err
		}
		switch _, err := os.Stat(expanded); {
		case err == nil:
			return expanded, true, nil
		case errors.Is(err, fs.ErrNotExist):
			return expanded, false, nil
		default:
			return "", false, fmt.Errorf("stat config: %w", err)
		}
	}

	home, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	local, err := filepath.Abs("sfmbundle.toml")
	if err != nil {
		return "", false, err
	}
	for _, candidate := range []string{home, local} {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true, nil
		}
	}
	return home, false, nil
}

// EnsureDirectories creates the state and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LedgerPath returns the location of the run history database.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.Paths.StateDir, "runs.db")
}

// LogPath returns the location of the persistent log file.
func (c *Config) LogPath() string {
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return ""
	}
	return filepath.Join(c.Paths.LogDir, "sfmbundle.log")
}

// ExpandPath resolves a leading ~ to the home directory and returns an
// absolute, cleaned path. The empty string is returned unchanged.
func ExpandPath(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	if p == "~" || strings.HasPrefix(p, "~/") || strings.HasPrefix(p, `~\`) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		p = filepath.Join(home, p[1:])
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", p, err)
	}
	return abs, nil
}

// CreateSample writes the commented sample configuration to path, creating
// parent directories.
func CreateSample(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
