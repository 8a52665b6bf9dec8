package deps

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// Requirement names one external executable and where it is expected.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status is the outcome of probing a Requirement. Detail explains an
// unavailable entry and is empty otherwise.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// CheckBinaries probes every requirement in order. Commands with a directory
// component must be executable files at that path; bare names are searched
// on PATH.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, len(requirements))
	for i, req := range requirements {
		command := strings.TrimSpace(req.Command)
		results[i] = Status{
			Name:        req.Name,
			Command:     command,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		results[i].Available, results[i].Detail = probe(command)
	}
	return results
}

func probe(command string) (bool, string) {
	switch {
	case command == "":
		return false, "command not configured"
	case filepath.Base(command) != command:
		if !IsExecutableFile(command) {
			return false, fmt.Sprintf("%q is missing or not executable", command)
		}
		return true, ""
	default:
		if _, err := exec.LookPath(command); err != nil {
			return false, fmt.Sprintf("binary %q not found on PATH", command)
		}
		return true, ""
	}
}
