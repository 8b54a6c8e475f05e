package prepare

import (
	"io"

	"github.com/enerkit/gridprep/internal/logging"
	"github.com/enerkit/gridprep/internal/ui"
)

var logger = &logging.Logger{PrefixText: "Preparer:", PrefixColor: ui.FgCyan}

// SetLogger sets an optional destination for modifier logs.
func SetLogger(w io.Writer) { logger.SetWriter(w) }

func logf(network string, format string, args ...any) {
	logger.Logf(network, format, args...)
}
