package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envOf(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(envOf(nil))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StorageDriverPostgres, cfg.StorageDriver)
	assert.Equal(t, "dev_secret_change_me", cfg.JWTSecret)
	assert.Equal(t, 2*time.Hour, cfg.CartSessionIdleTTL)
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, "host=localhost port=5432 user=postgres password=postgres dbname=lifeline sslmode=disable", cfg.DSN())
}

func TestFromEnv_Overrides(t *testing.T) {
	cfg, err := FromEnv(envOf(map[string]string{
		"PORT":                  "9000",
		"DATABASE_URL":          "postgres://u:p@db:5432/x",
		"STORAGE_DRIVER":        "MEMORY",
		"COOKIE_SECURE":         "false",
		"CART_SESSION_IDLE_TTL": "30m",
		"ADMIN_EMAIL":           " admin@lifeline.org ",
		"ADMIN_PASSWORD":        "secret-pass",
	}))
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "postgres://u:p@db:5432/x", cfg.DSN())
	assert.Equal(t, StorageDriverMemory, cfg.StorageDriver)
	assert.False(t, cfg.CookieSecure)
	assert.Equal(t, 30*time.Minute, cfg.CartSessionIdleTTL)
	assert.Equal(t, "admin@lifeline.org", cfg.AdminEmail)
}

func TestFromEnv_Errors(t *testing.T) {
	cases := map[string]map[string]string{
		"bad port":         {"POSTGRES_PORT": "x"},
		"bad duration":     {"JWT_TTL": "soon"},
		"bad driver":       {"STORAGE_DRIVER": "mongo"},
		"prod no secret":   {"GO_ENV": "prod"},
		"prod weak secret": {"GO_ENV": "prod", "JWT_SECRET": "short"},
		"admin half set":   {"ADMIN_EMAIL": "a@b.c"},
		"zero sweep":       {"CART_SWEEP_INTERVAL": "0s"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := FromEnv(envOf(env))
			assert.Error(t, err)
		})
	}
}

func TestConfig_Addr(t *testing.T) {
	assert.Equal(t, ":8080", Config{Port: "8080"}.Addr())
	assert.Equal(t, ":9000", Config{Port: ":9000"}.Addr())
}
