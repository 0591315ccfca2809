package ui

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"
)

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// EnterSingleView switches out to the alternate screen buffer and hides the
// cursor so batch frames redraw in place. It returns the restore function.
// Nothing happens when out is not a terminal.
func EnterSingleView(out, in *os.File, logger *slog.Logger) func() {
	if !IsTerminal(out) {
		return func() {}
	}

	writeSeq(out, "\033[?1049h") // switch to alternate buffer
	writeSeq(out, "\033[?25l")   // hide cursor

	var restore []func()
	if IsTerminal(in) {
		if undoEcho, err := disableInputEcho(int(in.Fd())); err != nil {
			logger.Warn("unable to suppress stdin echo", "error", err)
		} else if undoEcho != nil {
			restore = append(restore, undoEcho)
		}
	}

	return func() {
		for i := len(restore) - 1; i >= 0; i-- {
			restore[i]()
		}
		writeSeq(out, "\033[?25h")   // show cursor
		writeSeq(out, "\033[?1049l") // restore main buffer
	}
}

func writeSeq(w io.Writer, seq string) {
	_, _ = fmt.Fprint(w, seq)
}
