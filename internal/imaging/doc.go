// Package imaging holds the pixel-level helpers around the external tools:
// grayscale PGM conversion for the feature extractor and JPEG downscaling
// that keeps the original EXIF block intact.
package imaging
