package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

var statusStyles = map[statusKind]struct {
	tag   string
	color string
}{
	statusInfo:  {"info", "\x1b[34m"},
	statusOK:    {"ok", "\x1b[32m"},
	statusWarn:  {"warn", "\x1b[33m"},
	statusError: {"fail", "\x1b[31m"},
}

const ansiReset = "\x1b[0m"

// doctor rows line up on this column.
const statusLabelWidth = 18

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	style := statusStyles[kind]
	tag := fmt.Sprintf("%-4s", style.tag)
	if colorize {
		tag = style.color + tag + ansiReset
	}
	line := fmt.Sprintf("%s  %-*s", tag, statusLabelWidth, label)
	if message != "" {
		line += " " + message
	}
	return strings.TrimRight(line, " ")
}

func renderSectionHeader(title string, colorize bool) string {
	title = strings.TrimSpace(title)
	if colorize {
		return "\x1b[1m" + title + ansiReset
	}
	return title
}

func shouldColorize(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
