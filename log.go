package tdauth

import (
	"os"

	"github.com/rusq/dlog"
)

// Logger is the minimal logging interface the authentication flows write to.
type Logger interface {
	Print(...any)
	Printf(string, ...any)
	Println(...any)
	Debug(...any)
	Debugf(string, ...any)
	Debugln(...any)
}

// Log is the package logger. The default writes to stderr with debug output
// suppressed, downstreams that bring their own logging can swap it.
var Log Logger = dlog.New(os.Stderr, "", 0, false)
