// Package services defines shared utilities consumed by the pipeline stages
// and the external tool clients.
//
// Key responsibilities:
//   - Context helpers that stamp run identifiers, stage names, and image paths
//     for logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     (missing input, external tool, validation, configuration).
//   - The Executor abstraction and tool environment helpers that make
//     invoking sift, KeyMatchFull, and bundler testable.
//
// Use these helpers when wiring new tool clients so error handling and
// observability stay uniform across the pipeline.
package services
