package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"sfmbundle/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check external tools, directories and the camera table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			workDir, err := ctx.workDir()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			results := preflight.RunAll(cfg, workDir)
			fmt.Fprintln(out, renderSectionHeader("sfmbundle "+version, colorize))
			if ctx.configPath != "" {
				fmt.Fprintln(out, renderStatusLine("Config", statusInfo, ctx.configPath, colorize))
			}
			for _, result := range results {
				fmt.Fprintln(out, renderStatusLine(result.Name, resultKind(result), result.Detail, colorize))
			}
			if failed := preflight.Failed(results); len(failed) > 0 {
				fmt.Fprintf(out, "\n%d of %d checks failed\n", len(failed), len(results))
			}
			return preflight.Err(results)
		},
	}
}

func resultKind(result preflight.Result) statusKind {
	switch {
	case !result.Passed:
		return statusError
	case strings.HasPrefix(result.Detail, "optional"):
		return statusWarn
	default:
		return statusOK
	}
}
