package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration for structural problems and for cross
// field constraints the tag language cannot express.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			first := verrs[0]
			return fmt.Errorf("invalid configuration: field %s failed %q validation", first.Namespace(), first.Tag())
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// OAuth needs both halves of the app registration or neither.
	hasClientID := c.Auth.ClientID != ""
	hasRedirect := c.Auth.RedirectURI != ""
	if hasClientID != hasRedirect {
		return fmt.Errorf("invalid configuration: auth.clientId and auth.redirectUri must be set together")
	}

	// The /teams/{name} path layout only exists on API v3.
	if c.StackOverflow.TeamName != "" && c.StackOverflow.APIVersion != "v3" {
		return fmt.Errorf("invalid configuration: stackoverflow.teamName requires apiVersion v3, got %q", c.StackOverflow.APIVersion)
	}

	if c.Cache.ClientPageSize > c.Cache.ServerPageSize {
		return fmt.Errorf("invalid configuration: cache.clientPageSize %d exceeds cache.serverPageSize %d", c.Cache.ClientPageSize, c.Cache.ServerPageSize)
	}
	if c.Cache.ServerPageSize%c.Cache.ClientPageSize != 0 {
		return fmt.Errorf("invalid configuration: cache.serverPageSize %d is not a multiple of cache.clientPageSize %d", c.Cache.ServerPageSize, c.Cache.ClientPageSize)
	}

	return nil
}
