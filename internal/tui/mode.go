package tui

import (
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/mattn/go-isatty"
)

// OutputMode describes how batch progress is presented.
type OutputMode int

const (
	// ModeTUI redraws a live table with bubbletea.
	ModeTUI OutputMode = iota
	// ModePlain prints one table once the batch is over.
	ModePlain
	// ModeJSON prints machine-readable results only.
	ModeJSON
)

func (m OutputMode) String() string {
	switch m {
	case ModeTUI:
		return "tui"
	case ModePlain:
		return "plain"
	case ModeJSON:
		return "json"
	default:
		return "unknown"
	}
}

// DetectMode picks the mode for out. JSON wins over everything; the live
// view additionally needs out to be a terminal that can redraw.
func DetectMode(out io.Writer, noProgress, jsonOutput bool) OutputMode {
	switch {
	case jsonOutput:
		return ModeJSON
	case noProgress:
		return ModePlain
	case isInteractive(out, os.LookupEnv):
		return ModeTUI
	default:
		return ModePlain
	}
}

func isInteractive(out io.Writer, lookup func(string) (string, bool)) bool {
	file, ok := out.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		return false
	}
	if v, ok := lookup("CI"); ok && v != "" && v != "false" {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	term, _ := lookup("TERM")
	return term != "" && !strings.EqualFold(term, "dumb")
}
