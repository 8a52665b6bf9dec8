package imaging

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"

	"sfmbundle/internal/logging"
)

// DefaultQuality is the JPEG quality used when re-encoding resized images.
const DefaultQuality = 75

// ResizeOptions controls a directory resize.
type ResizeOptions struct {
	// MaxSize bounds both width and height of the output.
	MaxSize int
	Quality int
	Workers int
	Logger  *slog.Logger
}

// ResizeResult reports what happened to one file.
type ResizeResult struct {
	Path     string
	Renamed  bool
	Resized  bool
	KeptEXIF bool
	Width    int
	Height   int
}

// FitWithin returns the largest size with the same aspect ratio as
// width x height that fits inside a maxSize square. Images that already fit
// are returned unchanged.
func FitWithin(width, height, maxSize int) (int, int) {
	if width <= maxSize && height <= maxSize {
		return width, height
	}
	if width >= height {
		scaled := (height*maxSize + width/2) / width
		return maxSize, max(scaled, 1)
	}
	scaled := (width*maxSize + height/2) / height
	return max(scaled, 1), maxSize
}

// NormalizeExtensions renames every "*.JPG" file in dir to "*.jpg" and
// returns the new paths.
func NormalizeExtensions(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.JPG"))
	if err != nil {
		return nil, err
	}
	renamed := make([]string, 0, len(matches))
	for _, match := range matches {
		target := strings.TrimSuffix(match, ".JPG") + ".jpg"
		if err := os.Rename(match, target); err != nil {
			return renamed, fmt.Errorf("rename %s: %w", filepath.Base(match), err)
		}
		renamed = append(renamed, target)
	}
	return renamed, nil
}

// ResizeDir normalizes extensions and shrinks every "*.jpg" in dir so its
// longest side is at most opts.MaxSize. Results are sorted by path.
func ResizeDir(ctx context.Context, dir string, opts ResizeOptions) ([]ResizeResult, error) {
	if opts.MaxSize <= 0 {
		return nil, fmt.Errorf("max size must be positive, got %d", opts.MaxSize)
	}
	logger := logging.NewComponentLogger(opts.Logger, "resize")

	renamed, err := NormalizeExtensions(dir)
	if err != nil {
		return nil, err
	}
	wasRenamed := make(map[string]bool, len(renamed))
	for _, path := range renamed {
		wasRenamed[path] = true
	}

	paths, err := filepath.Glob(filepath.Join(dir, "*.jpg"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	results := make([]ResizeResult, len(paths))
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(workers)
	for i, path := range paths {
		group.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			result, err := ResizeFile(path, opts.MaxSize, opts.Quality)
			if err != nil {
				return err
			}
			result.Renamed = wasRenamed[path]
			results[i] = result
			logger.Debug("image resized",
				logging.Image(filepath.Base(path)),
				logging.Bool("resized", result.Resized),
				logging.Bool("exif", result.KeptEXIF),
				logging.Int("width", result.Width),
				logging.Int("height", result.Height),
			)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// ResizeFile shrinks the JPEG at path in place so that neither side exceeds
// maxSize, re-inserting the original EXIF segment. Files that already fit are
// left untouched.
func ResizeFile(path string, maxSize, quality int) (ResizeResult, error) {
	result := ResizeResult{Path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		return result, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	src, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return result, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	bounds := src.Bounds()
	width, height := FitWithin(bounds.Dx(), bounds.Dy(), maxSize)
	result.Width, result.Height = width, height
	exifSegment, err := EXIFSegment(data)
	if err != nil {
		return result, fmt.Errorf("scan %s: %w", filepath.Base(path), err)
	}
	result.KeptEXIF = exifSegment != nil
	if width == bounds.Dx() && height == bounds.Dy() {
		return result, nil
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Src, nil)

	if quality <= 0 {
		quality = DefaultQuality
	}
	var encoded bytes.Buffer
	if err := jpeg.Encode(&encoded, dst, &jpeg.Options{Quality: quality}); err != nil {
		return result, fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	output := encoded.Bytes()
	if exifSegment != nil {
		output, err = InsertSegment(output, exifSegment)
		if err != nil {
			return result, err
		}
	}
	if err := replaceFile(path, output); err != nil {
		return result, err
	}
	result.Resized = true
	return result, nil
}

func replaceFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", filepath.Base(path), err)
	}
	if info, err := os.Stat(path); err == nil {
		_ = os.Chmod(tmpName, info.Mode().Perm())
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
