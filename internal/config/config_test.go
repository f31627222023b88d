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
	t.Setenv("NUDGE_AUTH__JWT_SECRET", "s3cret")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "nudge_notify.db", cfg.Database.DSN)
	assert.Equal(t, 60, cfg.Scan.IntervalSeconds)
	assert.Equal(t, time.Minute, cfg.ScanInterval())
	assert.Equal(t, time.Minute, cfg.ScanLookahead())
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	os.Unsetenv("NUDGE_AUTH__JWT_SECRET")

	_, err := Load("")
	assert.Error(t, err)
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  addr: ":9090"
auth:
  jwt_secret: from-file
scan:
  secret: file-secret
`), 0o644))

	t.Setenv("NUDGE_SCAN__SECRET", "env-secret")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, "from-file", cfg.Auth.JWTSecret)
	assert.Equal(t, "env-secret", cfg.Scan.Secret)
}

func TestValidateRejectsNarrowLookahead(t *testing.T) {
	cfg := Config{
		Auth: AuthConfig{JWTSecret: "x"},
		Scan: ScanConfig{IntervalSeconds: 60, LookaheadSeconds: 30},
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lookahead")
}
