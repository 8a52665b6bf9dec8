// Package bundler drives the external bundle adjustment executable.
//
// Command-line flags come from the typed Options struct rather than free-form
// strings: every field has one fixed formatting rule, so an unknown or
// misspelled option cannot reach the tool. Options are written to an options
// file which the tool reads via --options_file.
package bundler
