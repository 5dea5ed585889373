package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("LISTEN_ADDR", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DATA_DIR", "")
	t.Setenv("RETRY_ATTEMPTS", "")
	t.Setenv("REQUEST_TIMEOUT_SECONDS", "")
	t.Setenv("DEBUG", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Listen)
	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, 3, cfg.RetryAttempts)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.False(t, cfg.Debug)
}

func TestLoadOverridesFromEnv(t *testing.T) {
	t.Setenv("LISTEN_ADDR", ":9191")
	t.Setenv("DATABASE_URL", "postgres://localhost/bulletin")
	t.Setenv("RETRY_ATTEMPTS", "5")
	t.Setenv("RETRY_DELAY_SECONDS", "2")
	t.Setenv("DEBUG", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9191", cfg.Listen)
	assert.Equal(t, "postgres://localhost/bulletin", cfg.DatabaseURL)
	assert.Equal(t, 5, cfg.RetryAttempts)
	assert.Equal(t, 2*time.Second, cfg.RetryDelay)
	assert.True(t, cfg.Debug)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := &Config{Listen: ":8080", DataDir: "data", RetryAttempts: 0}
	assert.Error(t, cfg.Validate())

	cfg = &Config{Listen: "", DataDir: "data", RetryAttempts: 1}
	assert.Error(t, cfg.Validate())

	cfg = &Config{Listen: ":8080", DataDir: "data", RetryAttempts: 1}
	assert.NoError(t, cfg.Validate())
}

func TestLoadSources(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	doc := `sources:
  - name: announcements
    cron: "0 * * * *"
    policy: upsert
  - name: athletics
    url: https://example.org/athletics
    policy: replace
  - name: calendar
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	srcs, err := LoadSources(path)
	require.NoError(t, err)
	require.Len(t, srcs, 3)

	assert.Equal(t, "0 * * * *", srcs[0].Cron)
	assert.Equal(t, "replace", srcs[1].Policy)
	assert.Equal(t, "https://example.org/athletics", srcs[1].URL)

	// Defaults fill in for the sparse entry.
	assert.Equal(t, "@hourly", srcs[2].Cron)
	assert.Equal(t, "upsert", srcs[2].Policy)
}

func TestLoadSourcesRequiresName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sources:\n  - cron: \"@hourly\"\n"), 0o644))

	_, err := LoadSources(path)
	assert.Error(t, err)
}
