package config

import "time"

const (
	// DefaultCallbackPath is where the browser returns after authorization.
	DefaultCallbackPath = "/callback"

	// DefaultClientPageSize matches the page size the frontend renders.
	DefaultClientPageSize = 5

	// DefaultServerPageSize matches the upstream API page size.
	DefaultServerPageSize = 30
)

// GetDefaultConfig returns the default configuration.
func GetDefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Host:            "localhost",
			Port:            7007,
			ReadTimeout:     Duration(15 * time.Second),
			WriteTimeout:    Duration(30 * time.Second),
			ShutdownTimeout: Duration(10 * time.Second),
		},
		StackOverflow: StackOverflowConfig{
			APIVersion:     "v3",
			RequestTimeout: Duration(30 * time.Second),
		},
		Auth: AuthConfig{
			CallbackPath: DefaultCallbackPath,
			SessionTTL:   Duration(24 * time.Hour),
		},
		Cache: CacheConfig{
			ClientPageSize: DefaultClientPageSize,
			ServerPageSize: DefaultServerPageSize,
			EntryTTL:       Duration(5 * time.Minute),
		},
	}
}
