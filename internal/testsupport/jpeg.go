package testsupport

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
)

// EXIF describes the camera tags embedded into synthetic test images. Zero
// values leave the corresponding tag out.
type EXIF struct {
	Make        string
	Model       string
	FocalLength [2]uint32
	PixelX      uint32
	PixelY      uint32
	// FocalPlaneXResolution is stored as numerator, denominator.
	FocalPlaneXResolution [2]uint32
}

const (
	tiffASCII    = 2
	tiffLong     = 4
	tiffRational = 5

	tagMake                  = 0x010F
	tagModel                 = 0x0110
	tagExifIFD               = 0x8769
	tagFocalLength           = 0x920A
	tagPixelXDimension       = 0xA002
	tagPixelYDimension       = 0xA003
	tagFocalPlaneXResolution = 0xA20E
)

type ifdEntry struct {
	tag   uint16
	typ   uint16
	count uint32
	data  []byte
}

// EXIFSegment returns a complete APP1 segment (marker included) carrying a
// little-endian TIFF structure with the requested tags.
func EXIFSegment(tags EXIF) []byte {
	le := binary.LittleEndian

	var ifd0 []ifdEntry
	if tags.Make != "" {
		ifd0 = append(ifd0, asciiEntry(tagMake, tags.Make))
	}
	if tags.Model != "" {
		ifd0 = append(ifd0, asciiEntry(tagModel, tags.Model))
	}

	var sub []ifdEntry
	if tags.FocalLength != [2]uint32{} {
		sub = append(sub, rationalEntry(tagFocalLength, tags.FocalLength))
	}
	if tags.PixelX != 0 {
		sub = append(sub, longEntry(tagPixelXDimension, tags.PixelX))
	}
	if tags.PixelY != 0 {
		sub = append(sub, longEntry(tagPixelYDimension, tags.PixelY))
	}
	if tags.FocalPlaneXResolution != [2]uint32{} {
		sub = append(sub, rationalEntry(tagFocalPlaneXResolution, tags.FocalPlaneXResolution))
	}

	const headerLen = 8
	var tiff []byte
	if len(sub) == 0 {
		tiff = encodeIFD(ifd0, headerLen)
	} else {
		withPointer := append(ifd0, longEntry(tagExifIFD, 0))
		first := encodeIFD(withPointer, headerLen)
		subOffset := uint32(headerLen + len(first))
		withPointer[len(withPointer)-1] = longEntry(tagExifIFD, subOffset)
		tiff = append(encodeIFD(withPointer, headerLen), encodeIFD(sub, subOffset)...)
	}

	header := []byte{'I', 'I', 42, 0, 0, 0, 0, 0}
	le.PutUint32(header[4:], headerLen)

	payload := append([]byte("Exif\x00\x00"), header...)
	payload = append(payload, tiff...)

	segment := []byte{0xFF, 0xE1, 0, 0}
	binary.BigEndian.PutUint16(segment[2:], uint16(len(payload)+2))
	return append(segment, payload...)
}

func encodeIFD(entries []ifdEntry, offset uint32) []byte {
	le := binary.LittleEndian
	size := 2 + 12*len(entries) + 4
	table := make([]byte, size)
	var extra []byte

	le.PutUint16(table[0:], uint16(len(entries)))
	for i, entry := range entries {
		pos := 2 + 12*i
		le.PutUint16(table[pos:], entry.tag)
		le.PutUint16(table[pos+2:], entry.typ)
		le.PutUint32(table[pos+4:], entry.count)
		if len(entry.data) <= 4 {
			copy(table[pos+8:pos+12], entry.data)
			continue
		}
		le.PutUint32(table[pos+8:], offset+uint32(size+len(extra)))
		extra = append(extra, entry.data...)
		if len(extra)%2 == 1 {
			extra = append(extra, 0)
		}
	}
	return append(table, extra...)
}

func asciiEntry(tag uint16, value string) ifdEntry {
	data := append([]byte(value), 0)
	return ifdEntry{tag: tag, typ: tiffASCII, count: uint32(len(data)), data: data}
}

func longEntry(tag uint16, value uint32) ifdEntry {
	data := make([]byte, 4)
	binary.LittleEndian.PutUint32(data, value)
	return ifdEntry{tag: tag, typ: tiffLong, count: 1, data: data}
}

func rationalEntry(tag uint16, value [2]uint32) ifdEntry {
	data := make([]byte, 8)
	binary.LittleEndian.PutUint32(data, value[0])
	binary.LittleEndian.PutUint32(data[4:], value[1])
	return ifdEntry{tag: tag, typ: tiffRational, count: 1, data: data}
}

// JPEGBytes encodes a width x height gradient. When tags is non-nil an EXIF
// APP1 segment is inserted directly after the SOI marker.
func JPEGBytes(t testing.TB, width, height int, tags *EXIF) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 255 / max(width, 1)), G: uint8(y * 255 / max(height, 1)), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	data := buf.Bytes()
	if tags == nil {
		return data
	}
	out := make([]byte, 0, len(data)+256)
	out = append(out, data[:2]...)
	out = append(out, EXIFSegment(*tags)...)
	return append(out, data[2:]...)
}

// WriteJPEG writes a synthetic JPEG to path, creating parent directories.
func WriteJPEG(t testing.TB, path string, width, height int, tags *EXIF) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, JPEGBytes(t, width, height, tags), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
