package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"sfmbundle/internal/focal"
	"sfmbundle/internal/services"
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Mode identifies what a run did.
type Mode string

const (
	ModeFull         Mode = "full"
	ModeExtractFocal Mode = "extract_focal"
)

// Status is the lifecycle state of a run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Run is one pipeline invocation.
type Run struct {
	ID           string
	WorkDir      string
	Mode         Mode
	Status       Status
	Images       int
	FocalKnown   int
	Features     int
	ErrorKind    string
	ErrorMessage string
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Duration returns the elapsed run time, zero while running.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Image is the per-image record of a run.
type Image struct {
	Image      string
	Camera     string
	FocalKnown bool
	FocalPx    float64
	SensorMM   float64
	// Features is -1 until keys were extracted for the image.
	Features int
}

// StartRun inserts a running entry.
func (s *Store) StartRun(ctx context.Context, id, workDir string, mode Mode) (*Run, error) {
	now := time.Now().UTC()
	if _, err := s.exec(ctx,
		`INSERT INTO runs (id, work_dir, mode, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		id, workDir, string(mode), string(StatusRunning), now.Format(timeLayout),
	); err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return &Run{ID: id, WorkDir: workDir, Mode: mode, Status: StatusRunning, StartedAt: now}, nil
}

// RecordFocal stores one row per image with its focal length outcome,
// replacing rows written earlier for the run.
func (s *Store) RecordFocal(ctx context.Context, runID string, results focal.Results) error {
	ctx = orBackground(ctx)
	return withBusyRetry(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx, `DELETE FROM run_images WHERE run_id = ?`, runID); err != nil {
			return fmt.Errorf("clear run images: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO run_images (run_id, position, image, camera, focal_px, sensor_mm) VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare run image insert: %w", err)
		}
		defer stmt.Close()

		for i, result := range results.All() {
			var focalPx, sensor sql.NullFloat64
			if result.Known {
				focalPx = sql.NullFloat64{Float64: result.Pixels, Valid: true}
				sensor = sql.NullFloat64{Float64: result.SensorMM, Valid: true}
			}
			if _, err := stmt.ExecContext(ctx, runID, i, result.Image, result.Camera, focalPx, sensor); err != nil {
				return fmt.Errorf("insert run image %s: %w", result.Image, err)
			}
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE runs SET images = ?, focal_known = ? WHERE id = ?`,
			results.Len(), results.Known(), runID,
		); err != nil {
			return fmt.Errorf("update run counts: %w", err)
		}
		return tx.Commit()
	})
}

// RecordFeatures stores the extracted feature count for image.
func (s *Store) RecordFeatures(ctx context.Context, runID, image string, features int) error {
	if _, err := s.exec(ctx,
		`UPDATE run_images SET features = ? WHERE run_id = ? AND image = ?`,
		features, runID, image,
	); err != nil {
		return fmt.Errorf("update run image features: %w", err)
	}
	return nil
}

// FinishRun marks the run as succeeded, or failed when runErr is non-nil,
// and totals the recorded feature counts.
func (s *Store) FinishRun(ctx context.Context, runID string, runErr error) error {
	status := StatusSucceeded
	kind, message := "", ""
	if runErr != nil {
		status = StatusFailed
		kind = services.Kind(runErr)
		message = runErr.Error()
	}
	res, err := s.exec(ctx,
		`UPDATE runs SET status = ?, error_kind = ?, error_message = ?, finished_at = ?,
            features = (SELECT COALESCE(SUM(features), 0) FROM run_images WHERE run_id = ?)
         WHERE id = ?`,
		string(status), kind, message, time.Now().UTC().Format(timeLayout), runID, runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, runID)
	}
	return nil
}

const runColumns = `id, work_dir, mode, status, images, focal_known, features,
    error_kind, error_message, started_at, finished_at`

// ListRuns returns the most recent runs first. A non-positive limit returns
// every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	ctx = orBackground(ctx)
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// GetRun returns the run whose ID equals or starts with id. Ambiguous
// prefixes are rejected.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	ctx = orBackground(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE id = ? OR id LIKE ? ESCAPE '\' ORDER BY id LIMIT 2`,
		id, escapeLike(id)+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	defer rows.Close()

	var found []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		if run.ID == id {
			return &run, nil
		}
		found = append(found, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	switch len(found) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	case 1:
		return &found[0], nil
	default:
		return nil, fmt.Errorf("run prefix %q is ambiguous", id)
	}
}

// RunImages returns the per-image records of a run in input order.
func (s *Store) RunImages(ctx context.Context, runID string) ([]Image, error) {
	ctx = orBackground(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT image, camera, focal_px, sensor_mm, features FROM run_images WHERE run_id = ? ORDER BY position`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list run images: %w", err)
	}
	defer rows.Close()

	var images []Image
	for rows.Next() {
		var (
			img      Image
			focalPx  sql.NullFloat64
			sensor   sql.NullFloat64
			features sql.NullInt64
		)
		if err := rows.Scan(&img.Image, &img.Camera, &focalPx, &sensor, &features); err != nil {
			return nil, fmt.Errorf("scan run image: %w", err)
		}
		img.FocalKnown = focalPx.Valid
		img.FocalPx = focalPx.Float64
		img.SensorMM = sensor.Float64
		img.Features = -1
		if features.Valid {
			img.Features = int(features.Int64)
		}
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run images: %w", err)
	}
	return images, nil
}

// DeleteRun removes a run and its image rows.
func (s *Store) DeleteRun(ctx context.Context, runID string) error {
	res, err := s.exec(ctx, `DELETE FROM runs WHERE id = ?`, runID)
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, runID)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run        Run
		mode       string
		status     string
		startedAt  string
		finishedAt sql.NullString
	)
	if err := row.Scan(&run.ID, &run.WorkDir, &mode, &status, &run.Images, &run.FocalKnown,
		&run.Features, &run.ErrorKind, &run.ErrorMessage, &startedAt, &finishedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, ErrNotFound
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.Mode = Mode(mode)
	run.Status = Status(status)
	run.StartedAt = parseTime(startedAt)
	if finishedAt.Valid {
		run.FinishedAt = parseTime(finishedAt.String)
	}
	return run, nil
}

func parseTime(value string) time.Time {
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

func escapeLike(value string) string {
	var out []rune
	for _, r := range value {
		if r == '%' || r == '_' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}
