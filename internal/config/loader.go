package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"stackbridge/pkg/logging"
)

// LoadConfig loads configuration from the given file path. A missing file is
// not an error; defaults plus environment overrides still apply, so a
// container can run on environment variables alone.
func LoadConfig(configPath string) (Config, error) {
	config := GetDefaultConfig()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Info("ConfigLoader", "No config file found at %s, using defaults", configPath)
		} else {
			return Config{}, fmt.Errorf("error reading config from %s: %w", configPath, err)
		}
	} else {
		if err := yaml.Unmarshal(data, &config); err != nil {
			return Config{}, fmt.Errorf("error loading config from %s: %w", configPath, err)
		}
		logging.Info("ConfigLoader", "Loaded configuration from %s", configPath)
	}

	applyEnvOverrides(&config)

	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

// applyEnvOverrides layers STACKBRIDGE_* environment variables over the file
// values. Secrets in particular should arrive this way.
func applyEnvOverrides(config *Config) {
	setString := func(key string, target *string) {
		if v := os.Getenv(key); v != "" {
			*target = v
		}
	}

	setString("STACKBRIDGE_BASE_URL", &config.StackOverflow.BaseURL)
	setString("STACKBRIDGE_TEAM_NAME", &config.StackOverflow.TeamName)
	setString("STACKBRIDGE_API_VERSION", &config.StackOverflow.APIVersion)
	setString("STACKBRIDGE_CLIENT_ID", &config.Auth.ClientID)
	setString("STACKBRIDGE_REDIRECT_URI", &config.Auth.RedirectURI)
	setString("STACKBRIDGE_SESSION_SECRET", &config.Auth.SessionSecret)
	setString("STACKBRIDGE_HOST", &config.Server.Host)

	if v := os.Getenv("STACKBRIDGE_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			logging.Warn("ConfigLoader", "Ignoring invalid STACKBRIDGE_PORT=%q", v)
		} else {
			config.Server.Port = port
		}
	}

	if v := os.Getenv("STACKBRIDGE_SECURE_COOKIES"); v != "" {
		secure, err := strconv.ParseBool(v)
		if err != nil {
			logging.Warn("ConfigLoader", "Ignoring invalid STACKBRIDGE_SECURE_COOKIES=%q", v)
		} else {
			config.Auth.SecureCookies = secure
		}
	}
}
