package httpapi

import (
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// zlog is the structured logger used by the HTTP layer.
var zlog = zerolog.New(os.Stderr).With().Timestamp().Logger()

// SetLogger installs a structured logger used by the HTTP layer.
func SetLogger(l zerolog.Logger) { zlog = l }

// LogLevel controls per-request logging behavior.
type LogLevel int

const (
	LevelOff LogLevel = iota
	LevelError
	LevelInfo
	LevelDebug
)

func parseLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "":
		return LevelOff
	case "error":
		return LevelError
	case "info":
		return LevelInfo
	case "debug":
		return LevelDebug
	default:
		return LevelInfo
	}
}

// defaultLogLevel applies when a request carries no override.
var defaultLogLevel = parseLevel(os.Getenv("CHATD_LOG_REQUESTS"))

// SetRequestLogLevel sets the default per-request log level
// ("off", "error", "info", "debug").
func SetRequestLogLevel(s string) { defaultLogLevel = parseLevel(s) }

func requestLogLevel(r *http.Request) LogLevel {
	if v := r.URL.Query().Get("log"); v != "" {
		if v == "1" {
			return LevelDebug
		}
		return parseLevel(v)
	}
	if v := r.Header.Get("X-Log-Level"); v != "" {
		return parseLevel(v)
	}
	return defaultLogLevel
}

// requestLogger returns zlog annotated with the request id and path.
func requestLogger(r *http.Request) zerolog.Logger {
	c := zlog.With().Str("method", r.Method).Str("path", r.URL.Path)
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		c = c.Str("request_id", rid)
	}
	return c.Logger()
}

// logEnd writes the closing line of a request at the level chosen for it.
// Failures log at LevelError and above, successes at LevelInfo and above.
func logEnd(r *http.Request, lvl LogLevel, status int, err error, fields func(*zerolog.Event)) {
	if lvl == LevelOff || (err == nil && lvl < LevelInfo) {
		return
	}
	l := requestLogger(r)
	ev := l.Info()
	if err != nil {
		ev = l.Warn().Err(err)
		if status >= http.StatusInternalServerError {
			ev = l.Error().Err(err)
		}
	}
	ev = ev.Int("status", status)
	if fields != nil {
		fields(ev)
	}
	ev.Msg("request end")
}
