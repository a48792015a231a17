package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where commands look for the config file.
const DefaultPath = "fidash.yaml"

// Config represents the top-level fidash.yaml configuration.
type Config struct {
	Backend BackendConfig `yaml:"backend"`
	Agent   AgentConfig   `yaml:"agent"`
	State   StateConfig   `yaml:"state"`
	Log     LogConfig     `yaml:"log"`
	Server  ServerConfig  `yaml:"server"`
}

// BackendConfig points at the financial data backend serving /check-session and /tool.
type BackendConfig struct {
	BaseURL        string        `yaml:"base_url"`
	LoginSessionID string        `yaml:"login_session_id"` // placeholder carried by the login redirect
	Timeout        time.Duration `yaml:"timeout"`
	Concurrent     bool          `yaml:"concurrent"` // fetch the six tools in parallel
}

// AgentConfig points at the chat agent.
type AgentConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// StateConfig locates the local state database.
type StateConfig struct {
	Path string `yaml:"path"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// ServerConfig controls the JSON API.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Environment variables that override the file.
const (
	EnvBackendURL = "FIDASH_BACKEND_URL"
	EnvAgentURL   = "FIDASH_AGENT_URL"
	EnvStatePath  = "FIDASH_STATE_PATH"
	EnvLogLevel   = "FIDASH_LOG_LEVEL"
	EnvServerAddr = "FIDASH_SERVER_ADDR"
)

// Load reads a fidash.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Resolve loads path if it exists (defaults otherwise), applies .env and environment
// overrides, and validates the result.
func Resolve(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg = Default()
	} else if err != nil {
		return nil, err
	}

	// .env is optional; variables already set in the environment win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	cfg.ApplyEnv(os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from the environment.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvBackendURL); ok && v != "" {
		c.Backend.BaseURL = v
	}
	if v, ok := lookup(EnvAgentURL); ok && v != "" {
		c.Agent.BaseURL = v
	}
	if v, ok := lookup(EnvStatePath); ok && v != "" {
		c.State.Path = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Log.Level = v
	}
	if v, ok := lookup(EnvServerAddr); ok && v != "" {
		c.Server.Addr = v
	}
}

// Validate rejects configurations the clients cannot work with.
func (c *Config) Validate() error {
	if err := validateURL("backend.base_url", c.Backend.BaseURL); err != nil {
		return err
	}
	if err := validateURL("agent.base_url", c.Agent.BaseURL); err != nil {
		return err
	}
	if c.Backend.Timeout <= 0 {
		return fmt.Errorf("backend.timeout must be positive, got %s", c.Backend.Timeout)
	}
	if c.Agent.Timeout <= 0 {
		return fmt.Errorf("agent.timeout must be positive, got %s", c.Agent.Timeout)
	}
	if c.Backend.LoginSessionID == "" {
		return errors.New("backend.login_session_id is required")
	}
	if c.State.Path == "" {
		return errors.New("state.path is required")
	}
	return nil
}

func validateURL(field, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", field)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s: scheme must be http or https, got %q", field, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%s: missing host", field)
	}
	return nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config pointing at a local mock backend and agent.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			BaseURL:        "http://localhost:8080",
			LoginSessionID: "temp1",
			Timeout:        10 * time.Second,
		},
		Agent: AgentConfig{
			BaseURL: "http://127.0.0.1:5001",
			Timeout: 60 * time.Second,
		},
		State: StateConfig{
			Path: "fidash.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		Server: ServerConfig{
			Addr: ":8090",
		},
	}
}
