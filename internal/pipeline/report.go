package pipeline

import (
	"time"

	"sfmbundle/internal/focal"
	"sfmbundle/internal/ledger"
	"sfmbundle/internal/services/sift"
)

// Report summarizes one run. Fields for stages that did not run stay zero.
type Report struct {
	RunID   string
	Mode    ledger.Mode
	WorkDir string
	Images  []string
	Focal   focal.Results
	Keys    []sift.Result
	// ListFile is the image list written (extract-focal) or read (bundle).
	ListFile    string
	MatchesFile string
	OutputDir   string
	Duration    time.Duration
}

// KeyFiles returns the key file names in image order.
func (r *Report) KeyFiles() []string {
	files := make([]string, 0, len(r.Keys))
	for _, key := range r.Keys {
		files = append(files, key.KeyFile)
	}
	return files
}

// Features returns the total feature count across all key files.
func (r *Report) Features() int {
	total := 0
	for _, key := range r.Keys {
		total += key.Features
	}
	return total
}
