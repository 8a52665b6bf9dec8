package focal

import (
	"sfmbundle/internal/ccdwidth"
	"sfmbundle/internal/exifmeta"
)

const mmPerInch = 25.4

// SensorWidth returns the sensor width in millimetres for the image
// described by tags, or zero when it cannot be determined. imageWidth is the
// landscape-normalized pixel width.
func SensorWidth(tags exifmeta.Tags, table *ccdwidth.Table, imageWidth int) float64 {
	if width, ok := table.Lookup(tags.Make, tags.Model); ok {
		return width
	}
	res := tags.FocalPlaneXResolution
	if res.Num != 0 {
		return mmPerInch * float64(imageWidth) * float64(res.Den) / float64(res.Num)
	}
	return 0
}

// Estimate computes the pixel focal length for one image. The boolean is
// false when the EXIF data is insufficient; the returned value is then zero
// and must not be used.
//
// Width and height are swapped when the image reports portrait dimensions,
// so the focal length is always measured against the long side.
func Estimate(tags exifmeta.Tags, table *ccdwidth.Table, scale float64) (float64, bool) {
	width, height := tags.ExifImageWidth, tags.ExifImageHeight
	if width < height {
		width, height = height, width
	}

	focal := tags.FocalLength
	sensor := SensorWidth(tags, table, width)
	if width <= 0 || height <= 0 || focal.Num == 0 || focal.Den == 0 || sensor <= 0 {
		return 0, false
	}

	focalMM := float64(focal.Num) / float64(focal.Den)
	pixels := float64(width) * (focalMM / sensor) * scale
	if pixels <= 0 {
		return 0, false
	}
	return pixels, true
}
