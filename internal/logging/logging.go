package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/enerkit/gridprep/internal/ui"
)

// Logger is a tiny opt-in logger used across internal packages.
// When Writer is nil, logging is disabled.
//
// The output format is:
//
//	<ColoredPrefix> network=<name> <formattedMessage>\n
//
// where <name> is trimmed and defaults to "(unknown)".
type Logger struct {
	Writer io.Writer

	PrefixText  string
	PrefixColor string

	// OmitNetwork controls whether the network name field is written.
	// When false (default), output includes: "network=<name>".
	OmitNetwork bool
}

func (l *Logger) SetWriter(w io.Writer) { l.Writer = w }

func (l *Logger) Enabled() bool { return l != nil && l.Writer != nil }

func (l *Logger) Logf(network string, format string, args ...any) {
	if l == nil || l.Writer == nil {
		return
	}
	prefix := l.PrefixText
	if prefix == "" {
		prefix = "Log:"
	}
	if l.PrefixColor != "" {
		prefix = ui.Color(prefix, l.PrefixColor)
	}
	msg := fmt.Sprintf(format, args...)
	if l.OmitNetwork {
		fmt.Fprintf(l.Writer, "%s %s\n", prefix, msg)
		return
	}

	n := strings.TrimSpace(network)
	if n == "" {
		n = "(unknown)"
	}
	fmt.Fprintf(l.Writer, "%s network=%s %s\n", prefix, n, msg)
}
