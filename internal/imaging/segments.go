package imaging

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	markerPrefix = 0xFF
	markerSOI    = 0xD8
	markerEOI    = 0xD9
	markerSOS    = 0xDA
	markerAPP1   = 0xE1
)

var exifHeader = []byte("Exif\x00\x00")

// ErrNotJPEG is returned when data does not start with a JPEG SOI marker.
var ErrNotJPEG = errors.New("not a jpeg stream")

// EXIFSegment returns the first EXIF APP1 segment of a JPEG stream,
// marker and length included, or nil when there is none.
func EXIFSegment(data []byte) ([]byte, error) {
	if len(data) < 2 || data[0] != markerPrefix || data[1] != markerSOI {
		return nil, ErrNotJPEG
	}
	pos := 2
	for pos+4 <= len(data) {
		if data[pos] != markerPrefix {
			return nil, fmt.Errorf("jpeg: expected marker at offset %d", pos)
		}
		marker := data[pos+1]
		switch {
		case marker == markerPrefix:
			pos++
			continue
		case marker == markerSOS || marker == markerEOI:
			return nil, nil
		case marker == 0x01 || (marker >= 0xD0 && marker <= 0xD7):
			pos += 2
			continue
		}
		length := int(binary.BigEndian.Uint16(data[pos+2:]))
		end := pos + 2 + length
		if length < 2 || end > len(data) {
			return nil, fmt.Errorf("jpeg: segment at offset %d overruns stream", pos)
		}
		if marker == markerAPP1 && bytes.HasPrefix(data[pos+4:end], exifHeader) {
			return data[pos:end], nil
		}
		pos = end
	}
	return nil, nil
}

// InsertSegment returns a copy of the JPEG stream with segment placed
// directly after the SOI marker.
func InsertSegment(data, segment []byte) ([]byte, error) {
	if len(data) < 2 || data[0] != markerPrefix || data[1] != markerSOI {
		return nil, ErrNotJPEG
	}
	out := make([]byte, 0, len(data)+len(segment))
	out = append(out, data[:2]...)
	out = append(out, segment...)
	return append(out, data[2:]...), nil
}
