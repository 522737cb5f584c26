package config

import (
	"fmt"
	"time"
)

// Config is the top-level configuration structure for stackbridge.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	StackOverflow StackOverflowConfig `yaml:"stackoverflow"`
	Auth          AuthConfig          `yaml:"auth"`
	Cache         CacheConfig         `yaml:"cache"`
}

// ServerConfig defines the HTTP listener.
type ServerConfig struct {
	Host            string   `yaml:"host,omitempty" validate:"required"`
	Port            int      `yaml:"port,omitempty" validate:"required,min=1,max=65535"`
	ReadTimeout     Duration `yaml:"readTimeout,omitempty"`
	WriteTimeout    Duration `yaml:"writeTimeout,omitempty"`
	ShutdownTimeout Duration `yaml:"shutdownTimeout,omitempty"`
}

// StackOverflowConfig identifies the upstream Stack Overflow for Teams
// instance.
type StackOverflowConfig struct {
	// BaseURL is the API root, e.g. "https://soe.example.com/api".
	BaseURL string `yaml:"baseUrl" validate:"required,url"`

	// TeamName is set for hosted (non-enterprise) teams. It prefixes every
	// API path with /teams/{name} and requires API v3.
	TeamName string `yaml:"teamName,omitempty"`

	// APIVersion selects the upstream API generation (default: v3).
	APIVersion string `yaml:"apiVersion,omitempty" validate:"omitempty,oneof=v3 v2.3"`

	// RequestTimeout bounds each upstream API call (default: 30s).
	RequestTimeout Duration `yaml:"requestTimeout,omitempty"`
}

// AuthConfig defines the authentication lifecycle. ClientID and RedirectURI
// enable the OAuth flow; without them only the manual-token path works.
type AuthConfig struct {
	ClientID     string   `yaml:"clientId,omitempty"`
	RedirectURI  string   `yaml:"redirectUri,omitempty" validate:"omitempty,url"`
	Scope        string   `yaml:"scope,omitempty"`
	CallbackPath string   `yaml:"callbackPath,omitempty"`
	SessionTTL   Duration `yaml:"sessionTTL,omitempty"`

	// SessionSecret signs session cookies. Never set it in a config file
	// checked into version control; STACKBRIDGE_SESSION_SECRET overrides.
	SessionSecret string `yaml:"sessionSecret,omitempty" validate:"required,min=32"`

	// SecureCookies marks cookies Secure. Enable everywhere except local
	// development over plain HTTP.
	SecureCookies bool `yaml:"secureCookies,omitempty"`
}

// CacheConfig defines the page cache used by list endpoints.
type CacheConfig struct {
	ClientPageSize int      `yaml:"clientPageSize,omitempty" validate:"required,min=1"`
	ServerPageSize int      `yaml:"serverPageSize,omitempty" validate:"required,min=1"`
	EntryTTL       Duration `yaml:"entryTTL,omitempty"`
}

// Duration wraps time.Duration so yaml files can say "30s" or "5m".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}
