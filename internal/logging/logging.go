// Package logging holds the process-wide slog logger. Drivers fetch it
// through L so a late Configure call is picked up everywhere.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
)

// Options controls the handler built by Configure. A zero value means
// text output at info level on stderr.
type Options struct {
	Level  string // debug|info|warn|error
	JSON   bool
	Output io.Writer
}

// FromEnv reads CONDUIT_LOG_LEVEL and CONDUIT_LOG_JSON.
func FromEnv() Options {
	var o Options
	o.Level = os.Getenv("CONDUIT_LOG_LEVEL")
	if b, err := strconv.ParseBool(strings.TrimSpace(os.Getenv("CONDUIT_LOG_JSON"))); err == nil {
		o.JSON = b
	}
	return o
}

var def atomic.Pointer[slog.Logger]

func init() {
	Configure(Options{})
}

// Configure replaces the process logger.
func Configure(opts Options) {
	w := opts.Output
	if w == nil {
		w = os.Stderr
	}
	hopts := &slog.HandlerOptions{Level: parseLevel(opts.Level)}
	var h slog.Handler
	if opts.JSON {
		h = slog.NewJSONHandler(w, hopts)
	} else {
		h = slog.NewTextHandler(w, hopts)
	}
	def.Store(slog.New(h))
}

// L returns the current process logger.
func L() *slog.Logger {
	return def.Load()
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
