package exifmeta

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

// Rational is an unsigned EXIF rational value.
type Rational struct {
	Num int64
	Den int64
}

// Float returns Num/Den, or zero when the denominator is zero.
func (r Rational) Float() float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

// Tags is the subset of EXIF attributes used to derive a focal length.
type Tags struct {
	FocalLength           Rational
	ExifImageWidth        int
	ExifImageHeight       int
	Make                  string
	Model                 string
	FocalPlaneXResolution Rational
	// Present reports whether the file carried an EXIF block.
	Present bool
}

// ErrUnreadableImage marks files that are not decodable images.
var ErrUnreadableImage = errors.New("unreadable image")

// ReadFile opens path and decodes its EXIF tags.
func ReadFile(path string) (Tags, error) {
	file, err := os.Open(path)
	if err != nil {
		return Tags{}, fmt.Errorf("open image: %w", err)
	}
	defer file.Close()

	return Read(file)
}

// Read verifies that r holds a decodable image and returns its EXIF tags.
func Read(r io.ReadSeeker) (Tags, error) {
	if _, _, err := image.DecodeConfig(r); err != nil {
		return Tags{}, fmt.Errorf("%w: %v", ErrUnreadableImage, err)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return Tags{}, fmt.Errorf("rewind image: %w", err)
	}

	x, err := exif.Decode(r)
	if err != nil {
		if x == nil || exif.IsCriticalError(err) {
			return Tags{}, nil
		}
	}
	return fromExif(x), nil
}

func fromExif(x *exif.Exif) Tags {
	tags := Tags{Present: true}
	tags.FocalLength = rationalTag(x, exif.FocalLength)
	tags.ExifImageWidth = intTag(x, exif.PixelXDimension)
	tags.ExifImageHeight = intTag(x, exif.PixelYDimension)
	tags.Make = stringTag(x, exif.Make)
	tags.Model = stringTag(x, exif.Model)
	tags.FocalPlaneXResolution = rationalTag(x, exif.FocalPlaneXResolution)
	if tags.FocalLength.Num == 0 && tags.FocalLength.Den == 0 {
		tags.FocalLength.Den = 1
	}
	return tags
}

func lookup(x *exif.Exif, name exif.FieldName) *tiff.Tag {
	tag, err := x.Get(name)
	if err != nil {
		return nil
	}
	return tag
}

func rationalTag(x *exif.Exif, name exif.FieldName) Rational {
	tag := lookup(x, name)
	if tag == nil {
		return Rational{}
	}
	num, den, err := tag.Rat2(0)
	if err != nil {
		return Rational{}
	}
	return Rational{Num: num, Den: den}
}

func intTag(x *exif.Exif, name exif.FieldName) int {
	tag := lookup(x, name)
	if tag == nil {
		return 0
	}
	value, err := tag.Int(0)
	if err != nil || value < 0 {
		return 0
	}
	return value
}

func stringTag(x *exif.Exif, name exif.FieldName) string {
	tag := lookup(x, name)
	if tag == nil {
		return ""
	}
	value, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return strings.TrimRight(value, "\x00")
}
