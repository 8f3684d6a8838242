package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson(t *testing.T) {
	dir := t.TempDir()
	path := writeTempJSON(t, dir, "flag.json", map[string]any{
		"api_base_url":       "https://incidents.example/api",
		"request_timeout":    "15s",
		"otp_resend_timeout": float64(time.Minute),
	})

	t.Run("loads from -config", func(t *testing.T) {
		cfg := defaults()
		require.NoError(t, parseJson(&cfg, []string{"-config", path}))

		assert.Equal(t, "https://incidents.example/api", cfg.APIBaseURL)
		assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
		assert.Equal(t, time.Minute, cfg.OTPResendTimeout)
		assert.Equal(t, "incidentauth.db", cfg.DBFile, "absent fields keep their value")
	})

	t.Run("short flag", func(t *testing.T) {
		cfg := defaults()
		require.NoError(t, parseJson(&cfg, []string{"-c", path}))
		assert.Equal(t, "https://incidents.example/api", cfg.APIBaseURL)
	})

	t.Run("no flag, no changes", func(t *testing.T) {
		cfg := defaults()
		require.NoError(t, parseJson(&cfg, []string{"-a", "x"}))
		assert.Equal(t, defaults(), cfg)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		cfg := defaults()
		require.Error(t, parseJson(&cfg, []string{"-config", bad}))
	})

	t.Run("missing file", func(t *testing.T) {
		cfg := defaults()
		require.Error(t, parseJson(&cfg, []string{"-c", filepath.Join(dir, "nope.json")}))
	})
}
