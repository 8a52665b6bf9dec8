package pipeline

import (
	"context"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"sfmbundle/internal/logging"
	"sfmbundle/internal/services"
	"sfmbundle/internal/services/sift"
)

// Workers reports how many extractor processes run at once.
func (r *Runner) Workers() int {
	if !r.cfg.Extraction.Parallel {
		return 1
	}
	if r.cfg.Extraction.Workers > 0 {
		return r.cfg.Extraction.Workers
	}
	return runtime.NumCPU()
}

// extractFeatures runs the extractor once per image. The first failure stops
// new extractions from starting; extractor processes already running are
// left to finish and the first error is returned. Results keep image order.
func (r *Runner) extractFeatures(ctx context.Context, logger *slog.Logger, images []string) ([]sift.Result, error) {
	results := make([]sift.Result, len(images))
	runID, _ := services.RunIDFromContext(ctx)

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(r.Workers())
	logger.Debug("extracting features", logging.Int("images", len(images)), logging.Int("workers", r.Workers()))
	for i, image := range images {
		if gctx.Err() != nil {
			break
		}
		group.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			imageCtx := services.WithImage(ctx, image)
			result, err := r.sift.Extract(imageCtx, r.workDir, image)
			if err != nil {
				return err
			}
			results[i] = result
			logging.WithContext(imageCtx, r.logger).Info("features extracted",
				logging.Int("features", result.Features),
				logging.String("key_file", result.KeyFile),
			)
			r.recordFeatures(ctx, runID, image, result.Features)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
