// Package pipeline sequences a structure-from-motion run over one working
// directory: image discovery, EXIF focal length estimation, parallel feature
// extraction, pairwise matching and bundle adjustment.
//
// Each stage starts only after the previous one completed for every image.
// A failure in any stage aborts the run; nothing is retried. Runs hold an
// advisory lock on the working directory and are recorded in the run ledger
// when one is attached.
package pipeline
