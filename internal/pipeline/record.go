package pipeline

import (
	"context"

	"sfmbundle/internal/focal"
	"sfmbundle/internal/logging"
)

// Ledger writes never fail a run; they are logged and dropped.

func (r *Runner) startRun(ctx context.Context, report *Report) {
	if r.recorder == nil {
		return
	}
	if _, err := r.recorder.StartRun(ctx, report.RunID, r.workDir, report.Mode); err != nil {
		r.ledgerWarning(ctx, "start run", err)
	}
}

func (r *Runner) recordFocal(ctx context.Context, runID string, results focal.Results) {
	if r.recorder == nil {
		return
	}
	if err := r.recorder.RecordFocal(ctx, runID, results); err != nil {
		r.ledgerWarning(ctx, "record focal lengths", err)
	}
}

func (r *Runner) recordFeatures(ctx context.Context, runID, image string, features int) {
	if r.recorder == nil {
		return
	}
	if err := r.recorder.RecordFeatures(ctx, runID, image, features); err != nil {
		r.ledgerWarning(ctx, "record features", err)
	}
}

func (r *Runner) finishRun(ctx context.Context, runID string, runErr error) {
	if r.recorder == nil {
		return
	}
	// The run context may already be cancelled; the outcome still gets written.
	if err := r.recorder.FinishRun(context.WithoutCancel(ctx), runID, runErr); err != nil {
		r.ledgerWarning(ctx, "finish run", err)
	}
}

func (r *Runner) ledgerWarning(ctx context.Context, op string, err error) {
	logging.WarnWithContext(logging.WithContext(ctx, r.logger), "run ledger write failed", "ledger_write_failed",
		logging.String("operation", op),
		logging.Error(err),
		logging.Impact("run history will be incomplete"),
	)
}
