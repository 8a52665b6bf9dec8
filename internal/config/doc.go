// Package config loads, normalizes, and validates sfmbundle configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// SFMBUNDLE_BIN_DIR. The Config type centralizes every knob the pipeline and
// CLI need, and Tools resolves the external executables once so callers never
// re-derive binary paths.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths and clear validation errors.
package config
