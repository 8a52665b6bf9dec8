package main

import (
	"github.com/spf13/cobra"
)

// version is replaced at build time with -ldflags "-X main.version=...".
var version = "dev"

func newRootCommand() *cobra.Command {
	var configFlag string
	var workDirFlag string
	var verbose bool
	var noParallel bool
	var extractFocal bool

	ctx := newCommandContext(&configFlag, &workDirFlag, &verbose, &noParallel)

	rootCmd := &cobra.Command{
		Use:   "sfmbundle",
		Short: "Structure-from-motion driver for sift, KeyMatchFull and bundler",
		Long: "Run in a directory of JPEG photographs to estimate focal lengths, extract\n" +
			"and match features, and run bundle adjustment.",
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if extractFocal {
				return runExtractFocal(cmd, ctx)
			}
			return runPipeline(cmd, ctx, "")
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVarP(&workDirFlag, "workdir", "C", "", "Directory holding the images (default: current directory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging and verbose tool output")
	rootCmd.PersistentFlags().BoolVar(&noParallel, "no-parallel", false, "Extract features one image at a time")
	rootCmd.Flags().BoolVar(&extractFocal, "extract-focal", false, "Only estimate focal lengths and write the image list")

	rootCmd.AddCommand(newRunCommand(ctx))
	rootCmd.AddCommand(newExtractFocalCommand(ctx))
	rootCmd.AddCommand(newCamerasCommand(ctx))
	rootCmd.AddCommand(newDoctorCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newKeysCommand())
	rootCmd.AddCommand(newResizeCommand(ctx))
	rootCmd.AddCommand(newLogsCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}
