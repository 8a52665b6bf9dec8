// Package keymatch drives the external KeyMatchFull pairwise matcher.
package keymatch
