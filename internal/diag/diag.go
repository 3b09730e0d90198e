// Package diag wires the parser's recoverable-condition reporting to an
// optional logrus logger. The parser never changes behavior based on
// whether a logger is attached — this is purely an observability seam
// for hosts that want to know why a stream degraded to literal text
// instead of being silently best-effort about it.
package diag

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Logger returns l if non-nil, otherwise a logrus logger whose output
// is discarded, so callers never need to nil-check Options.Logger.
func Logger(l logrus.FieldLogger) logrus.FieldLogger {
	if l != nil {
		return l
	}
	silent := logrus.New()
	silent.SetOutput(io.Discard)
	return silent
}
