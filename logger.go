package gsgrey

import (
	"log/slog"
	"sync/atomic"

	"periph.io/x/conn/v3"
)

func newNopLogger() *slog.Logger { return slog.New(slog.DiscardHandler) }

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger sets the logger used by gsgrey. By default nothing is logged.
// Pass nil to disable logging again.
//
// Devices created after the call hand the logger on to their connection
// when it accepts one, as gssim.Sim does.
//
// Log levels used:
//   - [slog.LevelDebug]: every submission and every tile
//   - [slog.LevelInfo]: device setup
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the current logger.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// loggerSetter is implemented by connections that accept a logger.
type loggerSetter interface {
	SetLogger(*slog.Logger)
}

func propagateLogger(c conn.Conn, l *slog.Logger) {
	if ls, ok := c.(loggerSetter); ok {
		ls.SetLogger(l)
	}
}
