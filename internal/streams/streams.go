// Package streams correlates operation output with the executor and schema
// that produced it.
package streams

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))

// Streams is the output/error pair handed to an operation.
type Streams struct {
	Out io.Writer
	Err io.Writer
}

// Prefix renders the correlation tag for one executor/schema pair.
func Prefix(executor, schemaName string) string {
	return fmt.Sprintf("[%s:%s] ", noticeStyle.Render(executor), noticeStyle.Render(schemaName))
}

// Correlate wraps both streams so every line carries the executor and schema
// tag. Each stream keeps its own last-write state; partial lines on one do
// not suppress prefixes on the other.
func Correlate(s Streams, executor, schemaName string) Streams {
	return Streams{
		Out: NewPrefixWriter(s.Out, executor, schemaName),
		Err: NewPrefixWriter(s.Err, executor, schemaName),
	}
}

// PrefixWriter prepends the correlation tag to a write whenever the previous
// write ended a line. A write continuing a partial line passes through
// untouched so wrapped output stays readable.
type PrefixWriter struct {
	dst     io.Writer
	prefix  string
	last    string
	hasLast bool
}

func NewPrefixWriter(dst io.Writer, executor, schemaName string) *PrefixWriter {
	return &PrefixWriter{dst: dst, prefix: Prefix(executor, schemaName)}
}

func (w *PrefixWriter) Write(p []byte) (int, error) {
	message := string(p)
	prefixed := !w.hasLast || strings.HasSuffix(w.last, "\n")
	w.last = message
	w.hasLast = true

	if prefixed {
		if _, err := io.WriteString(w.dst, w.prefix); err != nil {
			return 0, err
		}
	}
	return w.dst.Write(p)
}
