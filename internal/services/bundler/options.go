package bundler

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"sfmbundle/internal/config"
	"sfmbundle/internal/services"
)

// Options is the set of named bundler options. String options are emitted as
// "--name value" when non-empty, boolean options as a bare "--name" when
// true, and ConstrainFocalWeight as "--constrain_focal_weight value" when
// positive.
type Options struct {
	MatchTable           string
	Output               string
	OutputAll            string
	OutputDir            string
	VariableFocalLength  bool
	UseFocalEstimate     bool
	ConstrainFocal       bool
	ConstrainFocalWeight float64
	EstimateDistortion   bool
	RunBundle            bool
	UseCeres             bool
}

// OptionsFromConfig builds the option set for a run using matchTable as the
// match table produced by the matcher.
func OptionsFromConfig(cfg config.Bundler, matchTable string) Options {
	return Options{
		MatchTable:           matchTable,
		Output:               cfg.Output,
		OutputAll:            cfg.OutputAll,
		OutputDir:            cfg.OutputDir,
		VariableFocalLength:  cfg.VariableFocalLength,
		UseFocalEstimate:     cfg.UseFocalEstimate,
		ConstrainFocal:       cfg.ConstrainFocal,
		ConstrainFocalWeight: cfg.ConstrainFocalWeight,
		EstimateDistortion:   cfg.EstimateDistortion,
		RunBundle:            cfg.RunBundle,
		UseCeres:             cfg.UseCeres,
	}
}

// Validate checks the options required for a run.
func (o Options) Validate() error {
	if strings.TrimSpace(o.MatchTable) == "" {
		return fmt.Errorf("%w: bundler match_table required", services.ErrValidation)
	}
	if strings.TrimSpace(o.OutputDir) == "" {
		return fmt.Errorf("%w: bundler output_dir required", services.ErrValidation)
	}
	if filepath.IsAbs(o.OutputDir) {
		return fmt.Errorf("%w: bundler output_dir must be relative, got %q", services.ErrValidation, o.OutputDir)
	}
	if o.ConstrainFocalWeight < 0 {
		return fmt.Errorf("%w: constrain_focal_weight must not be negative", services.ErrValidation)
	}
	return nil
}

// Args renders the options as command-line arguments in a fixed order.
func (o Options) Args() []string {
	var args []string
	str := func(name, value string) {
		if value != "" {
			args = append(args, "--"+name, value)
		}
	}
	flag := func(name string, set bool) {
		if set {
			args = append(args, "--"+name)
		}
	}

	str("match_table", o.MatchTable)
	str("output", o.Output)
	str("output_all", o.OutputAll)
	str("output_dir", o.OutputDir)
	flag("variable_focal_length", o.VariableFocalLength)
	flag("use_focal_estimate", o.UseFocalEstimate)
	flag("constrain_focal", o.ConstrainFocal)
	if o.ConstrainFocalWeight > 0 {
		args = append(args, "--constrain_focal_weight", strconv.FormatFloat(o.ConstrainFocalWeight, 'g', -1, 64))
	}
	flag("estimate_distortion", o.EstimateDistortion)
	flag("run_bundle", o.RunBundle)
	flag("use_ceres", o.UseCeres)
	return args
}

// WriteOptions writes args in options file layout: every "--flag" starts a
// new line and values follow their flag after a single space.
func WriteOptions(w io.Writer, args []string) error {
	out := bufio.NewWriter(w)
	for _, arg := range args {
		sep := byte(' ')
		if strings.HasPrefix(arg, "--") {
			sep = '\n'
		}
		if err := out.WriteByte(sep); err != nil {
			return err
		}
		if _, err := out.WriteString(arg); err != nil {
			return err
		}
	}
	return out.Flush()
}

// WriteOptionsFile writes args to path in options file layout.
func WriteOptionsFile(path string, args []string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create options file: %w", err)
	}
	if err := WriteOptions(file, args); err != nil {
		_ = file.Close()
		return fmt.Errorf("write options file: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close options file: %w", err)
	}
	return nil
}
