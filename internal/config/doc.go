// Package config loads and validates the stackbridge configuration.
//
// Configuration is layered: compiled-in defaults, then an optional YAML
// file, then STACKBRIDGE_* environment variables. Validation runs after all
// layers are applied, so an environment variable can both supply a missing
// required value and break an otherwise valid file.
package config
