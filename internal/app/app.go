package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"stackbridge/internal/api"
	"stackbridge/internal/config"
	"stackbridge/internal/oauth"
	"stackbridge/internal/stackoverflow"
	"stackbridge/pkg/logging"
)

// Options control application startup. They come from the serve command's
// flags.
type Options struct {
	// ConfigPath is the path to the config file.
	ConfigPath string

	// Debug enables debug-level logging.
	Debug bool
}

// Application bootstraps and runs the stackbridge server.
//
// Initialization is two-phase: NewApplication loads configuration,
// initializes logging and wires all components; Run starts the HTTP server
// and blocks until a shutdown signal arrives.
type Application struct {
	cfg    config.Config
	server *api.Server
}

// NewApplication performs the bootstrap sequence: logging, configuration,
// upstream client, auth manager and HTTP surface.
func NewApplication(opts Options) (*Application, error) {
	level := logging.LevelInfo
	if opts.Debug {
		level = logging.LevelDebug
	}
	logging.Init(level, os.Stdout)

	cfg, err := config.LoadConfig(opts.ConfigPath)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to load configuration")
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	client, err := stackoverflow.NewClient(stackoverflow.Config{
		BaseURL:    cfg.StackOverflow.BaseURL,
		TeamName:   cfg.StackOverflow.TeamName,
		APIVersion: cfg.StackOverflow.APIVersion,
		Timeout:    cfg.StackOverflow.RequestTimeout.Std(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Stack Overflow client: %w", err)
	}

	sessions, err := oauth.NewSessionStore(cfg.Auth.SessionSecret, cfg.Auth.SecureCookies, cfg.Auth.CallbackPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create session store: %w", err)
	}

	exchanger := oauth.NewExchanger(oauth.ExchangeConfig{
		BaseURL:     instanceRoot(cfg.StackOverflow.BaseURL),
		ClientID:    cfg.Auth.ClientID,
		RedirectURI: cfg.Auth.RedirectURI,
		Scope:       cfg.Auth.Scope,
		Timeout:     cfg.StackOverflow.RequestTimeout.Std(),
	})
	if exchanger.Configured() {
		logging.Info("Bootstrap", "OAuth flow enabled")
	} else {
		logging.Info("Bootstrap", "OAuth app not configured, manual token entry only")
	}

	manager := oauth.NewManager(sessions, exchanger, client)

	server, err := api.NewServer(cfg, manager, client)
	if err != nil {
		return nil, fmt.Errorf("failed to create API server: %w", err)
	}

	return &Application{cfg: cfg, server: server}, nil
}

// Run starts the HTTP server and blocks until the context is cancelled or a
// SIGINT/SIGTERM arrives, then shuts down gracefully within the configured
// timeout.
func (a *Application) Run(ctx context.Context) error {
	defer a.server.Close()

	addr := net.JoinHostPort(a.cfg.Server.Host, strconv.Itoa(a.cfg.Server.Port))
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      a.server,
		ReadTimeout:  a.cfg.Server.ReadTimeout.Std(),
		WriteTimeout: a.cfg.Server.WriteTimeout.Std(),
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info("App", "Listening on http://%s", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case err := <-errCh:
		logging.Error("App", err, "HTTP server failed")
		return err
	case sig := <-sigCh:
		logging.Info("App", "Received %s, shutting down", sig)
	case <-ctx.Done():
		logging.Info("App", "Context cancelled, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout.Std())
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logging.Error("App", err, "Graceful shutdown failed")
		return err
	}

	logging.Info("App", "Shutdown complete")
	return nil
}

// instanceRoot strips a trailing /api style suffix so OAuth endpoints, which
// live at the instance root rather than under the API root, resolve
// correctly. A base URL without such a suffix is returned unchanged.
func instanceRoot(baseURL string) string {
	baseURL = strings.TrimSuffix(baseURL, "/")
	for _, suffix := range []string{"/api/v3", "/api"} {
		if trimmed := strings.TrimSuffix(baseURL, suffix); trimmed != baseURL && trimmed != "" {
			return trimmed
		}
	}
	return baseURL
}
