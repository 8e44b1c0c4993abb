package ui

import (
	"io"
	"os"

	"golang.org/x/term"
)

// IsTTY checks if the given file descriptor is a terminal
func IsTTY(fd uintptr) bool {
	return term.IsTerminal(int(fd))
}

// isTerminal reports whether w writes to a terminal
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && IsTTY(f.Fd())
}

// TerminalWidth returns the width of w, or 80 if it is not a terminal
func TerminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok {
		return 80
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width < 40 {
		return 80
	}
	return width
}

// ColorEnabled returns true if color output should be enabled for w
func ColorEnabled(w io.Writer, noColor bool) bool {
	if noColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isTerminal(w)
}
