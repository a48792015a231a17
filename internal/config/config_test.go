package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Backend.Concurrent = true
	cfg.Backend.Timeout = 3 * time.Second
	cfg.Agent.BaseURL = "https://agent.example.com"

	path := filepath.Join(t.TempDir(), "fidash.yaml")
	err := Save(path, cfg)
	require.NoError(t, err)

	got, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, cfg.Backend.BaseURL, got.Backend.BaseURL)
	assert.Equal(t, cfg.Backend.LoginSessionID, got.Backend.LoginSessionID)
	assert.Equal(t, 3*time.Second, got.Backend.Timeout)
	assert.True(t, got.Backend.Concurrent)
	assert.Equal(t, "https://agent.example.com", got.Agent.BaseURL)
	assert.Equal(t, cfg.Agent.Timeout, got.Agent.Timeout)
	assert.Equal(t, cfg.State.Path, got.State.Path)
	assert.Equal(t, cfg.Server.Addr, got.Server.Addr)
}

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "http://localhost:8080", cfg.Backend.BaseURL)
	assert.Equal(t, "temp1", cfg.Backend.LoginSessionID)
	assert.Equal(t, 10*time.Second, cfg.Backend.Timeout)
	assert.False(t, cfg.Backend.Concurrent)
	assert.Equal(t, "http://127.0.0.1:5001", cfg.Agent.BaseURL)
	assert.Equal(t, "fidash.db", cfg.State.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, ":8090", cfg.Server.Addr)
	require.NoError(t, cfg.Validate())
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fidash.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend:\n  base_url: http://backend:9000\n  timeout: 2s\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://backend:9000", cfg.Backend.BaseURL)
	assert.Equal(t, 2*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, "temp1", cfg.Backend.LoginSessionID)
	assert.Equal(t, "http://127.0.0.1:5001", cfg.Agent.BaseURL)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fidash.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend: [unclosed"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config")
}

func TestYAMLFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fidash.yaml")
	require.NoError(t, Save(path, Default()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "base_url: http://localhost:8080")
	assert.Contains(t, contents, "login_session_id: temp1")
	assert.Contains(t, contents, "timeout: 10s")
	assert.Contains(t, contents, "path: fidash.db")
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvBackendURL: "http://other:8080",
		EnvAgentURL:   "",
		EnvStatePath:  "/tmp/state.db",
		EnvLogLevel:   "debug",
	}
	cfg := Default()
	cfg.ApplyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})

	assert.Equal(t, "http://other:8080", cfg.Backend.BaseURL)
	assert.Equal(t, "http://127.0.0.1:5001", cfg.Agent.BaseURL, "empty values do not override")
	assert.Equal(t, "/tmp/state.db", cfg.State.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, ":8090", cfg.Server.Addr)
}

func TestResolveMissingFileUsesDefaults(t *testing.T) {
	t.Setenv(EnvBackendURL, "http://from-env:8080")
	t.Chdir(t.TempDir())

	cfg, err := Resolve("missing.yaml")
	require.NoError(t, err)
	assert.Equal(t, "http://from-env:8080", cfg.Backend.BaseURL)
}

func TestResolveReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("FIDASH_STATE_PATH=from-dotenv.db\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv(EnvStatePath) })

	cfg, err := Resolve("missing.yaml")
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv.db", cfg.State.Path)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"empty backend", func(c *Config) { c.Backend.BaseURL = "" }, "backend.base_url is required"},
		{"bad scheme", func(c *Config) { c.Agent.BaseURL = "ftp://x" }, "scheme must be http or https"},
		{"no host", func(c *Config) { c.Backend.BaseURL = "http://" }, "missing host"},
		{"zero timeout", func(c *Config) { c.Backend.Timeout = 0 }, "backend.timeout must be positive"},
		{"negative agent timeout", func(c *Config) { c.Agent.Timeout = -time.Second }, "agent.timeout must be positive"},
		{"no placeholder", func(c *Config) { c.Backend.LoginSessionID = "" }, "login_session_id"},
		{"no state path", func(c *Config) { c.State.Path = "" }, "state.path"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
