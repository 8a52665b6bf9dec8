// Package sift drives the external SIFT feature extractor.
//
// For each image it writes a transient grayscale PGM next to the source,
// runs the extractor to produce a raw key file, removes the PGM and compacts
// the raw keys into the retained "<stem>.key.gz" artifact.
package sift
