package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	for k, v := range map[string]string{
		"APP_ENV":                "test",
		"APP_PORT":               "8080",
		"DB_USER":                "park",
		"DB_HOST":                "127.0.0.1",
		"DB_PORT":                "3306",
		"DB_NAME":                "parking",
		"JWT_SECRET":             "secret",
		"ACCESS_TOKEN_TTL_MIN":   "15",
		"REFRESH_TOKEN_TTL_DAYS": "7",
	} {
		t.Setenv(k, v)
	}
}

func TestFromEnv(t *testing.T) {
	setRequired(t)
	t.Setenv("DB_PASS", "pw")
	t.Setenv("DB_AUTO_MIGRATE", "yes")

	cfg, err := FromEnv()
	require.NoError(t, err)
	require.Equal(t, 15*time.Minute, cfg.AccessTTL())
	require.Equal(t, 7*24*time.Hour, cfg.RefreshTTL())
	require.True(t, cfg.AutoMigrate)
	require.Equal(t, "parking.events", cfg.EventQueue)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, "park:pw@tcp(127.0.0.1:3306)/parking?charset=utf8mb4&parseTime=true&loc=UTC", cfg.MySQLDSN())
}

func TestFromEnvReportsAllMissing(t *testing.T) {
	setRequired(t)
	t.Setenv("JWT_SECRET", "")
	t.Setenv("ACCESS_TOKEN_TTL_MIN", "soon")

	_, err := FromEnv()
	require.Error(t, err)
	require.Contains(t, err.Error(), "JWT_SECRET")
	require.Contains(t, err.Error(), "ACCESS_TOKEN_TTL_MIN")
}

func TestLoadDotEnvDoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("PARK_TEST_A=from-file\nPARK_TEST_B=from-file\n"), 0o600))
	t.Setenv("PARK_TEST_A", "from-env")
	t.Setenv("PARK_TEST_B", "")
	os.Unsetenv("PARK_TEST_B")

	LoadDotEnv(path, filepath.Join(dir, "missing.env"))
	require.Equal(t, "from-env", os.Getenv("PARK_TEST_A"))
	require.Equal(t, "from-file", os.Getenv("PARK_TEST_B"))
}

func TestRateLimitDefaults(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	cfg := LoadRateLimitConfig()
	require.Equal(t, 1, cfg.Capacity)
	require.Equal(t, 10*time.Second, cfg.TTL)
}

func TestCacheMethods(t *testing.T) {
	t.Setenv("CACHE_METHODS", " get, head ,")
	cfg := LoadCacheConfig()
	require.Equal(t, map[string]bool{"GET": true, "HEAD": true}, cfg.Methods)
}

func TestDatabaseFromEnv(t *testing.T) {
	t.Setenv("DB_USER", "park")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "3306")
	t.Setenv("DB_NAME", "parking")
	t.Setenv("DB_PASS", "")
	t.Setenv("JWT_SECRET", "")

	cfg, err := DatabaseFromEnv()
	require.NoError(t, err)
	require.Equal(t, "park@tcp(db:3306)/parking?charset=utf8mb4&parseTime=true&loc=UTC", cfg.MySQLDSN())

	t.Setenv("DB_HOST", "")
	_, err = DatabaseFromEnv()
	require.ErrorContains(t, err, "DB_HOST")
}
