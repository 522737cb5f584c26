// Package logging provides structured logging for stackbridge on top of the
// standard slog package.
//
// All log entries carry a subsystem identifier as their first argument, which
// keeps output filterable by component:
//
//	logging.Init(logging.LevelInfo, os.Stderr)
//	logging.Info("OAuth", "authorization URL generated")
//	logging.Error("Upstream", err, "request to %s failed", url)
//
// Subsystems used across the codebase: Bootstrap, Config, OAuth, Session,
// Upstream, PageCache, API.
//
// Secrets policy: access tokens, code verifiers and CSRF state values are
// never logged at any level. Upstream error bodies are logged at debug level
// only.
package logging
