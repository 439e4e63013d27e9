package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// RequestLogger logs one structured line per request through slog.
func RequestLogger() func(http.Handler) http.Handler {
	return middleware.RequestLogger(slogFormatter{})
}

type slogFormatter struct{}

func (slogFormatter) NewLogEntry(r *http.Request) middleware.LogEntry {
	return &slogEntry{r: r}
}

type slogEntry struct {
	r *http.Request
}

func (e *slogEntry) Write(status, bytes int, _ http.Header, elapsed time.Duration, _ interface{}) {
	level := slog.LevelInfo
	switch {
	case status >= http.StatusInternalServerError:
		level = slog.LevelError
	case status >= http.StatusBadRequest:
		level = slog.LevelWarn
	}
	slog.LogAttrs(e.r.Context(), level, "request",
		slog.String("method", e.r.Method),
		slog.String("path", e.r.URL.Path),
		slog.Int("status", status),
		slog.Int("bytes", bytes),
		slog.Duration("elapsed", elapsed),
		slog.String("remote_addr", e.r.RemoteAddr),
		slog.String("request_id", middleware.GetReqID(e.r.Context())),
	)
}

func (e *slogEntry) Panic(v interface{}, stack []byte) {
	slog.ErrorContext(e.r.Context(), "request panic",
		"panic", v,
		"path", e.r.URL.Path,
		"stack", string(stack),
	)
}
