package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"sfmbundle/internal/focal"
	"sfmbundle/internal/ledger"
	"sfmbundle/internal/logging"
	"sfmbundle/internal/pipeline"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var listFile string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Estimate focal lengths, extract and match features, run bundle adjustment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd, ctx, listFile)
		},
	}
	cmd.Flags().StringVar(&listFile, "list", "", "Hand an existing image list in the working directory to the bundler")
	return cmd
}

func newExtractFocalCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "extract-focal",
		Short: "Estimate focal lengths and write the image list without running any tool",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtractFocal(cmd, ctx)
		},
	}
}

func runPipeline(cmd *cobra.Command, ctx *commandContext, listFile string) error {
	runner, closeLedger, err := buildRunner(cmd, ctx, pipeline.WithImageList(listFile))
	if err != nil {
		return err
	}
	defer closeLedger()

	report, err := runner.Run(cmd.Context())
	out := cmd.OutOrStdout()
	if report != nil && report.Focal.Len() > 0 {
		printFocalReport(out, report.Focal)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\nExtracted %d features from %d images\n", report.Features(), len(report.Images))
	fmt.Fprintf(out, "Matches: %s\n", report.MatchesFile)
	fmt.Fprintf(out, "Bundle output: %s\n", filepath.Join(report.WorkDir, report.OutputDir))
	fmt.Fprintf(out, "Run %s finished in %s\n", report.RunID, formatDuration(report.Duration))
	return nil
}

func runExtractFocal(cmd *cobra.Command, ctx *commandContext) error {
	runner, closeLedger, err := buildRunner(cmd, ctx)
	if err != nil {
		return err
	}
	defer closeLedger()

	report, err := runner.ExtractFocal(cmd.Context())
	out := cmd.OutOrStdout()
	if report != nil && report.Focal.Len() > 0 {
		printFocalReport(out, report.Focal)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\nWrote %s\n", filepath.Join(report.WorkDir, report.ListFile))
	return nil
}

// buildRunner wires config, logging, the camera table and the run ledger
// into a pipeline runner. The returned func closes the ledger.
func buildRunner(cmd *cobra.Command, ctx *commandContext, extra ...pipeline.Option) (*pipeline.Runner, func(), error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return nil, nil, err
	}
	workDir, err := ctx.workDir()
	if err != nil {
		return nil, nil, err
	}
	table, err := ctx.cameraTable()
	if err != nil {
		return nil, nil, err
	}

	opts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithVerbose(ctx.isVerbose()),
	}
	if ctx.isVerbose() {
		opts = append(opts, pipeline.WithToolOutput(cmd.ErrOrStderr()))
	}

	closeLedger := func() {}
	store, err := ledger.Open(cfg)
	if err != nil {
		logging.WarnWithContext(logger, "run ledger unavailable", "ledger_open_failed",
			logging.String("path", cfg.LedgerPath()),
			logging.Error(err),
			logging.Impact("this run will not appear in history"),
		)
	} else {
		opts = append(opts, pipeline.WithRecorder(store))
		closeLedger = func() { _ = store.Close() }
	}
	opts = append(opts, extra...)

	runner, err := pipeline.New(cfg, workDir, table, opts...)
	if err != nil {
		closeLedger()
		return nil, nil, err
	}
	return runner, closeLedger, nil
}

func printFocalReport(out io.Writer, results focal.Results) {
	rows := make([][]string, 0, results.Len())
	for _, result := range results.All() {
		focalPx, sensor := "-", "-"
		if result.Known {
			focalPx = strconv.FormatFloat(result.Pixels, 'f', 2, 64)
		}
		if result.SensorMM > 0 {
			sensor = strconv.FormatFloat(result.SensorMM, 'f', 2, 64)
		}
		camera := result.Camera
		if camera == "" {
			camera = "-"
		}
		rows = append(rows, []string{result.Image, camera, sensor, focalPx})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Image", "Camera", "Sensor (mm)", "Focal (px)"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight},
	))

	summary := focal.Summarize(results)
	fmt.Fprintf(out, "Focal length determined for %d of %d images", summary.Known, summary.Images)
	if summary.Known > 0 {
		fmt.Fprintf(out, " (mean %.1f px, median %.1f px, range %.1f-%.1f px)",
			summary.Mean, summary.Median, summary.Min, summary.Max)
	}
	fmt.Fprintln(out)
}
