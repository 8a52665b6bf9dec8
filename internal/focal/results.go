package focal

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"sfmbundle/internal/ccdwidth"
	"sfmbundle/internal/exifmeta"
	"sfmbundle/internal/logging"
	"sfmbundle/internal/services"
)

// Result is the focal length outcome for one image.
type Result struct {
	Image string
	// Pixels is the pixel focal length; only meaningful when Known is true.
	Pixels float64
	Known  bool
	Camera string
	// SensorMM is the sensor width used, zero when undetermined.
	SensorMM float64
}

// Results holds one Result per image in input order and indexes them by path.
type Results struct {
	items []Result
	index map[string]int
}

// NewResults builds Results from items. A later duplicate image replaces
// the earlier entry in the index but both remain in order.
func NewResults(items []Result) Results {
	index := make(map[string]int, len(items))
	for i, item := range items {
		index[item.Image] = i
	}
	return Results{items: items, index: index}
}

// All returns the results in input order.
func (r Results) All() []Result {
	return r.items
}

// Len returns the number of images.
func (r Results) Len() int {
	return len(r.items)
}

// Lookup returns the result recorded for image.
func (r Results) Lookup(image string) (Result, bool) {
	i, ok := r.index[image]
	if !ok {
		return Result{}, false
	}
	return r.items[i], true
}

// Images returns the image paths in input order.
func (r Results) Images() []string {
	images := make([]string, len(r.items))
	for i, item := range r.items {
		images[i] = item.Image
	}
	return images
}

// Known returns the number of images with a determined focal length.
func (r Results) Known() int {
	count := 0
	for _, item := range r.items {
		if item.Known {
			count++
		}
	}
	return count
}

// Extract reads the EXIF tags of every image and estimates its focal
// length. Image paths are resolved against dir. Images without usable EXIF
// data produce undetermined results; an image that cannot be opened or
// decoded fails the batch.
func Extract(ctx context.Context, dir string, images []string, table *ccdwidth.Table, scale float64, logger *slog.Logger) (Results, error) {
	logger = logging.NewComponentLogger(logger, "focal")
	items := make([]Result, 0, len(images))
	for _, image := range images {
		if err := ctx.Err(); err != nil {
			return Results{}, err
		}
		tags, err := exifmeta.ReadFile(resolve(dir, image))
		if err != nil {
			return Results{}, services.Wrap(services.ErrValidation, "focal", "read exif", image, err)
		}
		result := evaluate(image, tags, table, scale)
		logFields := []logging.Attr{
			logging.Image(image),
			logging.String("camera", result.Camera),
			logging.Bool("exif", tags.Present),
			logging.Float64("focal_mm", tags.FocalLength.Float()),
			logging.Float64("sensor_mm", result.SensorMM),
			logging.Int("width", tags.ExifImageWidth),
			logging.Int("height", tags.ExifImageHeight),
		}
		if result.Known {
			logFields = append(logFields, logging.Float64("focal_px", result.Pixels))
			logger.Debug("focal length determined", logging.Args(logFields...)...)
		} else {
			logger.Debug("focal length undetermined", logging.Args(logFields...)...)
		}
		items = append(items, result)
	}
	return NewResults(items), nil
}

func evaluate(image string, tags exifmeta.Tags, table *ccdwidth.Table, scale float64) Result {
	result := Result{Image: image, Camera: ccdwidth.Key(tags.Make, tags.Model)}
	pixels, ok := Estimate(tags, table, scale)
	if !ok {
		return result
	}
	width := max(tags.ExifImageWidth, tags.ExifImageHeight)
	result.Pixels = pixels
	result.Known = true
	result.SensorMM = SensorWidth(tags, table, width)
	return result
}

func resolve(dir, image string) string {
	if dir == "" || filepath.IsAbs(image) {
		return image
	}
	return filepath.Join(dir, image)
}

// FormatLine renders one image list line: the bare image path when the
// focal length is undetermined, otherwise "image 0 focal".
func FormatLine(result Result) string {
	if !result.Known {
		return result.Image
	}
	return result.Image + " 0 " + strconv.FormatFloat(result.Pixels, 'f', -1, 64)
}

// WriteList writes one line per result in input order.
func WriteList(w io.Writer, results Results) error {
	buffered := bufio.NewWriter(w)
	for _, result := range results.All() {
		if _, err := buffered.WriteString(FormatLine(result) + "\n"); err != nil {
			return err
		}
	}
	return buffered.Flush()
}

// WriteListFile writes the image list to path, replacing any existing file.
func WriteListFile(path string, results Results) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create image list: %w", err)
	}
	if err := WriteList(file, results); err != nil {
		_ = file.Close()
		return fmt.Errorf("write image list: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close image list: %w", err)
	}
	return nil
}
