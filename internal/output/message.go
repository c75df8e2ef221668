package output

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// messageWriter receives advisory messages. They always go to stderr:
// stdout belongs to the formatter, so JSON output stays machine-readable
// even when the CLI warns mid-command.
//
//nolint:gochecknoglobals // Swapped out in tests
var messageWriter io.Writer = os.Stderr

// Info prints an advisory message.
func Info(msg string) {
	advise("ℹ️  ", msg)
}

// Infof prints a formatted advisory message.
func Infof(format string, args ...any) {
	Info(fmt.Sprintf(format, args...))
}

// Warn prints a warning.
func Warn(msg string) {
	advise("⚠️  ", msg)
}

// Warnf prints a formatted warning.
func Warnf(format string, args ...any) {
	Warn(fmt.Sprintf(format, args...))
}

// advise writes one message line. The emoji prefix is kept for terminals
// and dropped when stderr is redirected, so logs stay grep-friendly.
func advise(prefix, msg string) {
	if f, ok := messageWriter.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		prefix = ""
	}
	_, _ = fmt.Fprintln(messageWriter, prefix+msg)
}
