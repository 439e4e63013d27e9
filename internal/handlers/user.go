package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jjudge-oj/usersvc/internal/services"
	"github.com/jjudge-oj/usersvc/internal/store"
	"github.com/jjudge-oj/usersvc/internal/validation"
)

const (
	msgInvalidID         = "Invalid user ID format. Must be an integer."
	msgUserNotFound      = "User not found"
	msgNotFoundForUpdate = "User not found for update"
	msgNotFoundForDelete = "User not found for deletion"
)

// UserHandler provides HTTP handlers for users.
type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// UserRouter registers user routes. Everything except registration sits
// behind authMiddleware.
func UserRouter(r chi.Router, userService *services.UserService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewUserHandler(userService)

	r.Post("/users", handler.CreateUser)
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/users", handler.ListUsers)
		r.Get("/search", handler.SearchUsers)
		r.Route("/user/{userID}", func(r chi.Router) {
			r.Get("/", handler.GetUser)
			r.Put("/", handler.UpdateUser)
			r.Delete("/", handler.DeleteUser)
		})
	})
}

func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	slog.InfoContext(r.Context(), "listing users", "caller", callerEmail(r))

	users, err := h.userService.ListUsers(r.Context())
	if err != nil {
		writeInternal(w, r, "Failed to retrieve users", err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r, msgUserNotFound)
	if !ok {
		return
	}

	user, err := h.userService.GetUser(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, msgUserNotFound)
			return
		}
		writeInternal(w, r, "Failed to retrieve user", err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var payload validation.Payload
	if err := decodeJSON(w, r, &payload); err != nil {
		writeDecodeError(w, err)
		return
	}
	if problems := validation.Validate(payload, validation.ModeCreate); len(problems) > 0 {
		writeValidation(w, problems)
		return
	}

	user, err := h.userService.CreateUser(r.Context(), *payload.Name, *payload.Email, *payload.Password)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrConflict):
			slog.WarnContext(r.Context(), "duplicate email on create", "email", *payload.Email)
			writeError(w, http.StatusConflict, "User with this email already exists")
		case errors.Is(err, services.ErrValidation):
			writeBadRequest(w, "name, email and password are required")
		default:
			writeInternal(w, r, "Failed to create user", err)
		}
		return
	}

	slog.InfoContext(r.Context(), "user created", "user_id", user.ID)
	writeJSON(w, http.StatusCreated, MessageResponse{Message: "User created successfully", User: &user})
}

func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r, msgNotFoundForUpdate)
	if !ok {
		return
	}

	var payload validation.Payload
	if err := decodeJSON(w, r, &payload); err != nil {
		writeDecodeError(w, err)
		return
	}
	if problems := validation.Validate(payload, validation.ModeUpdate); len(problems) > 0 {
		writeValidation(w, problems)
		return
	}

	update := services.UserUpdate{Name: payload.Name, Email: payload.Email, Password: payload.Password}
	if isBlank(update.Name) && isBlank(update.Email) && isBlank(update.Password) {
		writeError(w, http.StatusBadRequest, "No fields provided for update")
		return
	}

	if _, err := h.userService.GetUser(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, msgNotFoundForUpdate)
			return
		}
		writeInternal(w, r, "Failed to update user", err)
		return
	}

	user, err := h.userService.UpdateUser(r.Context(), id, update)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrConflict):
			slog.WarnContext(r.Context(), "duplicate email on update", "user_id", id)
			writeError(w, http.StatusConflict, "Email already exists for another user")
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, msgNotFoundForUpdate)
		case errors.Is(err, services.ErrValidation):
			writeError(w, http.StatusBadRequest, "No fields provided for update")
		default:
			writeInternal(w, r, "Failed to update user", err)
		}
		return
	}

	slog.InfoContext(r.Context(), "user updated", "user_id", id, "caller", callerEmail(r))
	writeJSON(w, http.StatusOK, MessageResponse{Message: "User updated successfully", User: &user})
}

func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r, msgNotFoundForDelete)
	if !ok {
		return
	}

	if _, err := h.userService.GetUser(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, msgNotFoundForDelete)
			return
		}
		writeInternal(w, r, "Failed to delete user", err)
		return
	}

	if err := h.userService.DeleteUser(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, msgNotFoundForDelete)
			return
		}
		writeInternal(w, r, "Failed to delete user", err)
		return
	}

	slog.InfoContext(r.Context(), "user deleted", "user_id", id, "caller", callerEmail(r))
	writeJSON(w, http.StatusOK, MessageResponse{Message: "User deleted successfully"})
}

func (h *UserHandler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if strings.TrimSpace(name) == "" {
		writeError(w, http.StatusBadRequest, `Search term "name" query parameter is required`)
		return
	}

	users, err := h.userService.SearchUsers(r.Context(), name)
	if err != nil {
		writeInternal(w, r, "Failed to search users", err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// userID parses the path id, answering 400 for non-integers and 404 for
// integers no row can carry.
func userID(w http.ResponseWriter, r *http.Request, notFound string) (int, bool) {
	id, err := parseUserID(r)
	switch {
	case errors.Is(err, errIDOutOfRange):
		writeError(w, http.StatusNotFound, notFound)
		return 0, false
	case err != nil:
		writeError(w, http.StatusBadRequest, msgInvalidID)
		return 0, false
	}
	return id, true
}

func isBlank(value *string) bool {
	return value == nil || *value == ""
}
