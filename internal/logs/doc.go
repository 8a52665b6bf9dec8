// Package logs reads the sfmbundle log file for the CLI: the last N lines,
// optionally narrowed to one run, and a follow mode that polls for lines
// appended by a run in progress elsewhere.
//
// Memory stays bounded by the requested line count regardless of file size.
// Follow mode ends when the caller's context is cancelled.
package logs
