package config

const (
	defaultBinDir               = "/usr/local/lib/bundler/bin"
	defaultLibDir               = "/usr/local/lib/bundler/lib"
	defaultStateDir             = "~/.local/share/sfmbundle"
	defaultLogDir               = "~/.local/share/sfmbundle/logs"
	defaultListFile             = "list.txt"
	defaultFocalScale           = 1.0
	defaultMatchesFile          = "matches.init.txt"
	defaultOptionsFile          = "options.txt"
	defaultBundleOutputDir      = "bundle"
	defaultBundleOutput         = "bundle.out"
	defaultBundleOutputAll      = "bundle_"
	defaultConstrainFocalWeight = 0.0001
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

var defaultImageExtensions = []string{".jpg"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			BinDir:   defaultBinDir,
			LibDir:   defaultLibDir,
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Extraction: Extraction{
			Parallel:        true,
			ImageExtensions: append([]string(nil), defaultImageExtensions...),
			FocalScale:      defaultFocalScale,
			ListFile:        defaultListFile,
		},
		Matching: Matching{
			MatchesFile: defaultMatchesFile,
		},
		Bundler: Bundler{
			OptionsFile:          defaultOptionsFile,
			OutputDir:            defaultBundleOutputDir,
			Output:               defaultBundleOutput,
			OutputAll:            defaultBundleOutputAll,
			VariableFocalLength:  true,
			UseFocalEstimate:     true,
			ConstrainFocal:       true,
			ConstrainFocalWeight: defaultConstrainFocalWeight,
			EstimateDistortion:   true,
			RunBundle:            true,
			UseCeres:             true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
