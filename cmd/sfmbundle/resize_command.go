package main

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"sfmbundle/internal/imaging"
)

func newResizeCommand(ctx *commandContext) *cobra.Command {
	var quality int
	cmd := &cobra.Command{
		Use:   "resize <max_size>",
		Short: "Rename *.JPG to *.jpg and shrink images to fit max_size pixels",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			maxSize, err := strconv.Atoi(args[0])
			if err != nil || maxSize <= 0 {
				return fmt.Errorf("max_size must be a positive integer, got %q", args[0])
			}
			if quality < 1 || quality > 100 {
				return fmt.Errorf("quality must be between 1 and 100, got %d", quality)
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			workDir, err := ctx.workDir()
			if err != nil {
				return err
			}
			workers := cfg.Extraction.Workers
			if !cfg.Extraction.Parallel {
				workers = 1
			}

			results, err := imaging.ResizeDir(cmd.Context(), workDir, imaging.ResizeOptions{
				MaxSize: maxSize,
				Quality: quality,
				Workers: workers,
				Logger:  logger,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(results) == 0 {
				fmt.Fprintln(out, "No JPEG images found")
				return nil
			}
			rows := make([][]string, 0, len(results))
			resized := 0
			for _, result := range results {
				if result.Resized {
					resized++
				}
				rows = append(rows, []string{
					filepath.Base(result.Path),
					fmt.Sprintf("%dx%d", result.Width, result.Height),
					yesNo(result.Resized),
					yesNo(result.Renamed),
					yesNo(result.KeptEXIF),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Image", "Size", "Resized", "Renamed", "EXIF"},
				rows,
				[]columnAlignment{alignLeft, alignRight},
			))
			fmt.Fprintf(out, "Resized %d of %d images\n", resized, len(results))
			return nil
		},
	}
	cmd.Flags().IntVar(&quality, "quality", imaging.DefaultQuality, "JPEG quality for resized images")
	return cmd
}
