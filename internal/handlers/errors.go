package handlers

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/chi/v5/middleware"
)

// Recoverer turns a handler panic into a logged 500 with a JSON body so one
// bad request never takes down the server.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			slog.ErrorContext(r.Context(), "unhandled panic",
				"panic", rec,
				"method", r.Method,
				"path", r.URL.Path,
				"request_id", middleware.GetReqID(r.Context()),
				"stack", string(debug.Stack()),
			)
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{
				Error:   "An unexpected error occurred",
				Message: "Please try again later.",
			})
		}()
		next.ServeHTTP(w, r)
	})
}

// NotFound answers unknown routes.
func NotFound(w http.ResponseWriter, r *http.Request) {
	slog.WarnContext(r.Context(), "route not found", "method", r.Method, "path", r.URL.Path)
	writeJSON(w, http.StatusNotFound, ErrorResponse{
		Error:   "Resource Not Found",
		Message: "The requested URL was not found on the server.",
	})
}

// MethodNotAllowed answers known routes hit with the wrong verb.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	slog.WarnContext(r.Context(), "method not allowed", "method", r.Method, "path", r.URL.Path)
	writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{
		Error:   "Method Not Allowed",
		Message: "The method is not allowed for the requested URL.",
	})
}

// Health reports that the process is serving.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Server is running",
	})
}
