package deps

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"sfmbundle/internal/config"
)

// ToolRequirements lists the three pipeline executables.
func ToolRequirements(tools config.Tools) []Requirement {
	return []Requirement{
		{Name: "sift", Command: tools.Sift, Description: "Feature extraction"},
		{Name: "KeyMatchFull", Command: tools.KeyMatch, Description: "Pairwise key matching"},
		{Name: "bundler", Command: tools.Bundler, Description: "Bundle adjustment"},
	}
}

// CheckToolchain reports the executables plus the shared library directory.
// The library directory is optional: statically linked builds run without it.
func CheckToolchain(tools config.Tools) []Status {
	results := CheckBinaries(ToolRequirements(tools))
	return append(results, checkLibDir(tools.LibDir))
}

func checkLibDir(dir string) Status {
	status := Status{
		Name:        "libraries",
		Command:     strings.TrimSpace(dir),
		Description: "Appended to LD_LIBRARY_PATH",
		Optional:    true,
	}
	if status.Command == "" {
		status.Detail = "library directory not configured"
		return status
	}
	info, err := os.Stat(status.Command)
	switch {
	case err != nil:
		status.Detail = fmt.Sprintf("library directory %q not found", status.Command)
	case !info.IsDir():
		status.Detail = fmt.Sprintf("%q is not a directory", status.Command)
	default:
		status.Available = true
	}
	return status
}

func isExecutable(info os.FileInfo) bool {
	if info == nil {
		return false
	}
	if info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}

// IsExecutableFile reports whether path names an executable regular file.
func IsExecutableFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return isExecutable(info)
}
