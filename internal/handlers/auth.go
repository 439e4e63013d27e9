package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jjudge-oj/usersvc/internal/services"
	"github.com/jjudge-oj/usersvc/internal/validation"
)

const (
	msgMissingToken    = "Authentication Token is missing!"
	msgMalformedHeader = "Malformed Authorization header"
	msgTokenExpired    = "Token has expired"
	msgTokenInvalid    = "Invalid token"
	msgBadCredentials  = "Invalid credentials"
)

var (
	errMissingAuthorization   = errors.New("missing authorization")
	errMalformedAuthorization = errors.New("malformed authorization")
)

// AuthHandler provides the login endpoint.
type AuthHandler struct {
	userService *services.UserService
}

func NewAuthHandler(userService *services.UserService) *AuthHandler {
	return &AuthHandler{userService: userService}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, userService *services.UserService) {
	handler := NewAuthHandler(userService)

	r.Post("/login", handler.Login)
}

// RequireAuth verifies the bearer token and injects the caller identity
// into the request context.
func RequireAuth(tokens *services.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := bearerToken(r)
			if err != nil {
				if errors.Is(err, errMissingAuthorization) {
					slog.WarnContext(r.Context(), "authentication token missing", "remote_addr", r.RemoteAddr)
					writeError(w, http.StatusUnauthorized, msgMissingToken)
					return
				}
				slog.WarnContext(r.Context(), "malformed authorization header", "remote_addr", r.RemoteAddr)
				writeError(w, http.StatusUnauthorized, msgMalformedHeader)
				return
			}

			identity, err := tokens.Parse(tokenString)
			if err != nil {
				if errors.Is(err, services.ErrTokenExpired) {
					slog.WarnContext(r.Context(), "expired token", "remote_addr", r.RemoteAddr)
					writeError(w, http.StatusUnauthorized, msgTokenExpired)
					return
				}
				slog.WarnContext(r.Context(), "invalid token", "remote_addr", r.RemoteAddr, "error", err)
				writeError(w, http.StatusUnauthorized, msgTokenInvalid)
				return
			}

			next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), identity)))
		})
	}
}

type LoginResponse struct {
	Token string `json:"token"`
}

// Login verifies credentials and returns a JWT. Unknown emails and wrong
// passwords get the same 401 body.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req validation.Login
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	if problems := validation.ValidateLogin(req); len(problems) > 0 {
		writeError(w, http.StatusBadRequest, problems[0])
		return
	}

	token, ok, err := h.userService.Login(r.Context(), *req.Email, *req.Password)
	if err != nil {
		writeInternal(w, r, "Login failed", err)
		return
	}
	if !ok {
		slog.WarnContext(r.Context(), "failed login attempt", "email", *req.Email)
		writeError(w, http.StatusUnauthorized, msgBadCredentials)
		return
	}

	slog.InfoContext(r.Context(), "user logged in", "email", *req.Email)
	writeJSON(w, http.StatusOK, LoginResponse{Token: token})
}

func bearerToken(r *http.Request) (string, error) {
	auth := r.Header.Get("Authorization")
	if strings.TrimSpace(auth) == "" {
		return "", errMissingAuthorization
	}
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok {
		return "", errMalformedAuthorization
	}
	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", errMalformedAuthorization
	}
	return token, nil
}
