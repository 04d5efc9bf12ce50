package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, key := range []string{"APP_ENV", "PORT", "DB_PATH", "LOG_LEVEL", "GENAI_MODEL", "CURRENCY", "ADMIN_EMAIL"} {
		unsetEnv(t, key)
	}

	cfg := Load()

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "./dev.db", cfg.DBPath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "USD", cfg.Currency)
	assert.True(t, cfg.IsDev())
	assert.Contains(t, cfg.Warnings(), "ADMIN_EMAIL is not set")
}

func TestLoad_DotEnvDoesNotOverrideEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("PORT", "9090")
	unsetEnv(t, "DB_PATH")
	unsetEnv(t, "APP_ENV")

	content := []byte("# local settings\nPORT=7070\nexport DB_PATH=\"/tmp/jobs.db\"\nAPP_ENV=production\n")
	if err := os.WriteFile(filepath.Join(dir, ".env"), content, 0o600); err != nil {
		t.Fatalf("write dotenv: %v", err)
	}

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "/tmp/jobs.db", cfg.DBPath)
	assert.Equal(t, "production", cfg.Env)
	assert.False(t, cfg.IsDev())
}

// unsetEnv removes key for the duration of the test. godotenv treats a key
// set to the empty string as already present.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("unset %s: %v", key, err)
	}
}
