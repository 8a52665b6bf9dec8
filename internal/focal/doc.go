// Package focal derives pixel focal lengths from EXIF metadata.
//
// Estimate is the pure core: EXIF tags, a sensor width table and a scale in,
// a pixel focal length or "undetermined" out. Extract applies it to a batch
// of images, WriteList renders the bundler image list, and Summarize reports
// statistics for the determined values.
package focal
