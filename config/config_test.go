package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{"SERVER_PORT", "DB_HOST", "JWT_SECRET", "JWT_TTL", "PASSWORD_HASH", "MQ_BACKEND", "STORAGE_BACKEND"} {
		t.Setenv(key, "")
	}
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("JWT_TTL", "not-a-duration")
	t.Setenv("PASSWORD_HASH", "BCRYPT")
	t.Setenv("DB_USE_SSL", "true")

	cfg := LoadConfig()

	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "bcrypt", cfg.Auth.PasswordHash)
	assert.True(t, cfg.Database.UseSSL)
	assert.Empty(t, cfg.MQ.Backend)
	assert.Equal(t, "user-events", cfg.MQ.UserEventsChannel)
}

func TestGetEnvIntFallsBackOnGarbage(t *testing.T) {
	t.Setenv("USERSVC_TEST_INT", "abc")
	assert.Equal(t, 7, getEnvInt("USERSVC_TEST_INT", 7))

	t.Setenv("USERSVC_TEST_INT", "42")
	assert.Equal(t, 42, getEnvInt("USERSVC_TEST_INT", 7))
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("USERSVC_TEST_TTL", "15m")
	assert.Equal(t, 15*time.Minute, getEnvDuration("USERSVC_TEST_TTL", time.Hour))

	t.Setenv("USERSVC_TEST_TTL", "-1s")
	assert.Equal(t, time.Hour, getEnvDuration("USERSVC_TEST_TTL", time.Hour))
}
