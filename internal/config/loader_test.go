package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("STACKBRIDGE_BASE_URL", "https://soe.example.com/api")
	t.Setenv("STACKBRIDGE_SESSION_SECRET", testSecret)

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 7007, cfg.Server.Port)
	assert.Equal(t, "v3", cfg.StackOverflow.APIVersion)
	assert.Equal(t, DefaultClientPageSize, cfg.Cache.ClientPageSize)
	assert.Equal(t, DefaultServerPageSize, cfg.Cache.ServerPageSize)
	assert.Equal(t, 5*time.Minute, cfg.Cache.EntryTTL.Std())
}

func TestLoadConfig_FileValues(t *testing.T) {
	path := writeConfigFile(t, `
server:
  host: 0.0.0.0
  port: 9090
  readTimeout: 5s
stackoverflow:
  baseUrl: https://soe.example.com/api
  teamName: platform
auth:
  clientId: "12345"
  redirectUri: https://portal.example.com/stack-overflow-teams
  sessionSecret: `+testSecret+`
cache:
  clientPageSize: 10
  serverPageSize: 30
  entryTTL: 2m
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout.Std())
	assert.Equal(t, "platform", cfg.StackOverflow.TeamName)
	assert.Equal(t, 10, cfg.Cache.ClientPageSize)
	assert.Equal(t, 2*time.Minute, cfg.Cache.EntryTTL.Std())
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, `
stackoverflow:
  baseUrl: https://file.example.com/api
auth:
  sessionSecret: ` + testSecret + `
`)
	t.Setenv("STACKBRIDGE_BASE_URL", "https://env.example.com/api")
	t.Setenv("STACKBRIDGE_PORT", "8123")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "https://env.example.com/api", cfg.StackOverflow.BaseURL)
	assert.Equal(t, 8123, cfg.Server.Port)
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	path := writeConfigFile(t, "server: [not a mapping")

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error loading config")
}

func TestLoadConfig_InvalidDuration(t *testing.T) {
	path := writeConfigFile(t, `
server:
  readTimeout: fast
stackoverflow:
  baseUrl: https://soe.example.com/api
auth:
  sessionSecret: ` + testSecret + `
`)

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid duration")
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		cfg := GetDefaultConfig()
		cfg.StackOverflow.BaseURL = "https://soe.example.com/api"
		cfg.Auth.SessionSecret = testSecret
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults are valid", func(c *Config) {}, ""},
		{"missing base url", func(c *Config) { c.StackOverflow.BaseURL = "" }, "BaseURL"},
		{"short session secret", func(c *Config) { c.Auth.SessionSecret = "tooshort" }, "SessionSecret"},
		{"client id without redirect", func(c *Config) { c.Auth.ClientID = "12345" }, "must be set together"},
		{"redirect without client id", func(c *Config) { c.Auth.RedirectURI = "https://p.example.com/cb" }, "must be set together"},
		{"team name on v2.3", func(c *Config) {
			c.StackOverflow.TeamName = "platform"
			c.StackOverflow.APIVersion = "v2.3"
		}, "requires apiVersion v3"},
		{"client page larger than server page", func(c *Config) {
			c.Cache.ClientPageSize = 50
			c.Cache.ServerPageSize = 30
		}, "exceeds"},
		{"indivisible page sizes", func(c *Config) {
			c.Cache.ClientPageSize = 7
			c.Cache.ServerPageSize = 30
		}, "not a multiple"},
		{"bad api version", func(c *Config) { c.StackOverflow.APIVersion = "v4" }, "APIVersion"},
		{"out of range port", func(c *Config) { c.Server.Port = 70000 }, "Port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tt.wantErr), "error %q should mention %q", err, tt.wantErr)
		})
	}
}
