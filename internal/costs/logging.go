package costs

import (
	"io"

	"github.com/enerkit/gridprep/internal/logging"
	"github.com/enerkit/gridprep/internal/ui"
)

var logger = &logging.Logger{PrefixText: "Costs:", PrefixColor: ui.FgMagenta, OmitNetwork: true}

// SetLogger sets an optional destination for cost table logs.
func SetLogger(w io.Writer) { logger.SetWriter(w) }

func logf(format string, args ...any) {
	logger.Logf("", format, args...)
}
