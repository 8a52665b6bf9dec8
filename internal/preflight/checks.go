package preflight

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"sfmbundle/internal/ccdwidth"
	"sfmbundle/internal/config"
	"sfmbundle/internal/deps"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckTools reports one result per external executable plus the library
// directory. A missing optional entry still passes, with a note.
func CheckTools(tools config.Tools) []Result {
	statuses := deps.CheckToolchain(tools)
	results := make([]Result, 0, len(statuses))
	for _, status := range statuses {
		result := Result{Name: status.Name}
		switch {
		case status.Available:
			result.Passed = true
			result.Detail = status.Command
		case status.Optional:
			result.Passed = true
			result.Detail = "optional, " + status.Detail
		default:
			result.Detail = status.Detail
		}
		results = append(results, result)
	}
	return results
}

// CheckCCDTable verifies that the camera sensor table loads.
func CheckCCDTable(path string) Result {
	const name = "CCD width table"
	table, err := ccdwidth.Load(path)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	source := "built-in"
	if path != "" {
		source = path
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%d cameras (%s)", table.Len(), source)}
}
