package config

import (
	"path/filepath"
	"runtime"
)

// Tool identifies one of the external executables the pipeline drives.
type Tool int

const (
	ToolSift Tool = iota
	ToolKeyMatch
	ToolBundler
)

func (t Tool) String() string {
	switch t {
	case ToolSift:
		return "sift"
	case ToolKeyMatch:
		return "KeyMatchFull"
	case ToolBundler:
		return "bundler"
	default:
		return "unknown"
	}
}

// ExecutableName maps a platform tag (a GOOS value) to the executable file
// name shipped for the tool on that platform.
func ExecutableName(goos string, tool Tool) string {
	windows := goos == "windows"
	switch tool {
	case ToolSift:
		if windows {
			return "siftWin32.exe"
		}
		return "sift"
	case ToolKeyMatch:
		if windows {
			return "KeyMatchFull.exe"
		}
		return "KeyMatchFull"
	case ToolBundler:
		if windows {
			return "Bundler.exe"
		}
		return "bundler"
	default:
		return ""
	}
}

// Tools holds the resolved executable paths and the shared library directory
// handed to every tool invocation.
type Tools struct {
	Sift     string
	KeyMatch string
	Bundler  string
	LibDir   string
}

// ResolveTools builds the tool set for the running platform.
func ResolveTools(c *Config) Tools {
	return ResolveToolsFor(c, runtime.GOOS)
}

// ResolveToolsFor builds the tool set for an explicit platform tag.
func ResolveToolsFor(c *Config, goos string) Tools {
	return Tools{
		Sift:     filepath.Join(c.Paths.BinDir, ExecutableName(goos, ToolSift)),
		KeyMatch: filepath.Join(c.Paths.BinDir, ExecutableName(goos, ToolKeyMatch)),
		Bundler:  filepath.Join(c.Paths.BinDir, ExecutableName(goos, ToolBundler)),
		LibDir:   c.Paths.LibDir,
	}
}
