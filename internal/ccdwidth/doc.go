// Package ccdwidth holds the camera sensor width reference table used to turn
// an EXIF focal length in millimetres into a pixel focal length.
//
// The table maps the trimmed "<Make> <Model>" EXIF strings to a sensor width
// in millimetres. A default table is embedded in the binary; an override file
// in the same YAML format replaces it entirely. Tables are immutable once
// loaded and safe for concurrent lookups.
package ccdwidth
