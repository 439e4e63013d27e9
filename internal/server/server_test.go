package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jjudge-oj/usersvc/config"
	"github.com/jjudge-oj/usersvc/internal/services"
	"github.com/jjudge-oj/usersvc/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:        "server-test-secret",
		TokenTTL:         time.Hour,
		PasswordHash:     services.HashPBKDF2,
		PBKDF2Iterations: 1000,
	}
}

func TestNewUserServiceRequiresSecret(t *testing.T) {
	cfg := testAuthConfig()
	cfg.JWTSecret = ""

	_, _, err := NewUserService(cfg, testutils.NewUserRepository())
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestNewUserServiceRejectsUnknownHash(t *testing.T) {
	cfg := testAuthConfig()
	cfg.PasswordHash = "md5"

	_, _, err := NewUserService(cfg, testutils.NewUserRepository())
	assert.Error(t, err)
}

func TestRouterServesHealthAndUsers(t *testing.T) {
	users, tokens, err := NewUserService(testAuthConfig(), testutils.NewUserRepository())
	require.NoError(t, err)
	router := NewRouter(users, tokens)

	for _, path := range []string{"/", "/healthz"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"success","message":"Server is running"}`, rec.Body.String())
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/users",
		strings.NewReader(`{"name":"John Doe","email":"john@example.com","password":"password123"}`))
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Resource Not Found")
}
