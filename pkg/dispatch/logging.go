package dispatch

import (
	"sync/atomic"

	"github.com/rs/zerolog"
)

// zlog is the package logger. The core is silent until SetLogger is called.
var zlog atomic.Pointer[zerolog.Logger]

func init() {
	nop := zerolog.Nop()
	zlog.Store(&nop)
}

// SetLogger installs the structured logger used by listeners and handlers
// that were not given one in their config.
func SetLogger(l zerolog.Logger) { zlog.Store(&l) }

func loggerOr(l *zerolog.Logger) zerolog.Logger {
	if l != nil {
		return *l
	}
	return *zlog.Load()
}
