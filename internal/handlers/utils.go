package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jjudge-oj/usersvc/types"
)

const maxBodyBytes = 1 << 20

type contextKey string

const contextIdentityKey contextKey = "identity"

var (
	errBodyTooLarge = errors.New("request body too large")
	errInvalidID    = errors.New("invalid user id")
	errIDOutOfRange = errors.New("user id out of range")
)

// ErrorResponse is the JSON body of every error.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Message string   `json:"message,omitempty"`
	Details string   `json:"details,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

// MessageResponse acknowledges a write.
type MessageResponse struct {
	Message string      `json:"message"`
	User    *types.User `json:"user,omitempty"`
}

// IdentityFromContext returns the caller set by RequireAuth.
func IdentityFromContext(ctx context.Context) (types.Identity, bool) {
	identity, ok := ctx.Value(contextIdentityKey).(types.Identity)
	return identity, ok
}

func withIdentity(ctx context.Context, identity types.Identity) context.Context {
	return context.WithValue(ctx, contextIdentityKey, identity)
}

func callerEmail(r *http.Request) string {
	identity, _ := IdentityFromContext(r.Context())
	return identity.Email
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Bad Request", Message: message})
}

func writeValidation(w http.ResponseWriter, problems []string) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Validation failed", Errors: problems})
}

// writeInternal logs err in full and sends the client a generic body.
func writeInternal(w http.ResponseWriter, r *http.Request, message string, err error) {
	slog.ErrorContext(r.Context(), message,
		"error", err,
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", middleware.GetReqID(r.Context()),
	)
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   message,
		Details: "An internal server error occurred.",
	})
}

// decodeJSON reads a single JSON document of at most maxBodyBytes into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return errBodyTooLarge
		case errors.Is(err, io.EOF):
			return errors.New("request body is empty")
		default:
			return fmt.Errorf("request body is not valid JSON: %w", err)
		}
	}
	if dec.More() {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

// writeDecodeError maps a decodeJSON failure to 400 or 413.
func writeDecodeError(w http.ResponseWriter, err error) {
	if errors.Is(err, errBodyTooLarge) {
		writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{
			Error:   "Request Entity Too Large",
			Message: fmt.Sprintf("request body exceeds %d bytes", maxBodyBytes),
		})
		return
	}
	writeBadRequest(w, err.Error())
}

// parseUserID reads the {userID} path parameter. Ids are stored as int4, so
// integers outside that range can never match a row.
func parseUserID(r *http.Request) (int, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 32)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, errIDOutOfRange
		}
		return 0, errInvalidID
	}
	return int(id), nil
}
