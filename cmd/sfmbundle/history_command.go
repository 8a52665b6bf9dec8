package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"sfmbundle/internal/ledger"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var (
		limit  int
		remove bool
	)
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recent runs, or the per-image details of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := ledger.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			if remove {
				if len(args) != 1 {
					return errors.New("--delete needs a run id")
				}
				return deleteRun(cmd, store, args[0])
			}
			if len(args) == 1 {
				return showRun(cmd, store, args[0])
			}
			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					shortID(run.ID),
					run.StartedAt.Local().Format("2006-01-02 15:04:05"),
					string(run.Mode),
					string(run.Status),
					strconv.Itoa(run.Images),
					strconv.Itoa(run.FocalKnown),
					strconv.Itoa(run.Features),
					formatDuration(run.Duration()),
					run.WorkDir,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Started", "Mode", "Status", "Images", "Focal", "Features", "Duration", "Directory"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to list")
	cmd.Flags().BoolVar(&remove, "delete", false, "Remove the given run from history")
	return cmd
}

func deleteRun(cmd *cobra.Command, store *ledger.Store, id string) error {
	run, err := store.GetRun(cmd.Context(), id)
	if errors.Is(err, ledger.ErrNotFound) {
		return fmt.Errorf("no run matches %q", id)
	}
	if err != nil {
		return err
	}
	if err := store.DeleteRun(cmd.Context(), run.ID); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed run %s\n", shortID(run.ID))
	return nil
}

func showRun(cmd *cobra.Command, store *ledger.Store, id string) error {
	run, err := store.GetRun(cmd.Context(), id)
	if errors.Is(err, ledger.ErrNotFound) {
		return fmt.Errorf("no run matches %q", id)
	}
	if err != nil {
		return err
	}
	images, err := store.RunImages(cmd.Context(), run.ID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	writeField(out, "Run", run.ID)
	writeField(out, "Directory", run.WorkDir)
	writeField(out, "Mode", string(run.Mode))
	writeField(out, "Status", string(run.Status))
	writeField(out, "Started", run.StartedAt.Local().Format(time.RFC3339))
	writeField(out, "Duration", formatDuration(run.Duration()))
	writeField(out, "Images", strconv.Itoa(run.Images))
	writeField(out, "Focal known", strconv.Itoa(run.FocalKnown))
	writeField(out, "Features", strconv.Itoa(run.Features))
	if run.ErrorMessage != "" {
		writeField(out, "Error", fmt.Sprintf("%s (%s)", run.ErrorMessage, run.ErrorKind))
	}
	if len(images) == 0 {
		return nil
	}

	rows := make([][]string, 0, len(images))
	for _, image := range images {
		focalPx := "-"
		if image.FocalKnown {
			focalPx = strconv.FormatFloat(image.FocalPx, 'f', 2, 64)
		}
		features := "-"
		if image.Features >= 0 {
			features = strconv.Itoa(image.Features)
		}
		camera := image.Camera
		if camera == "" {
			camera = "-"
		}
		rows = append(rows, []string{image.Image, camera, focalPx, features})
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, renderTable(
		[]string{"Image", "Camera", "Focal (px)", "Features"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight},
	))
	return nil
}

func writeField(out io.Writer, label, value string) {
	fmt.Fprintf(out, "%-12s %s\n", label+":", value)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return d.Round(time.Millisecond).String()
}
