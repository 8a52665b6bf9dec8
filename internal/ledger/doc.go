// Package ledger persists pipeline run history in SQLite.
//
// Each run records its working directory, mode, final status and error class
// plus one row per image with the estimated focal length and extracted
// feature count. The ledger is advisory: the pipeline keeps running when it
// cannot be written.
package ledger
