// Package auth authenticates API callers. Two modes: disabled (every
// request passes with an anonymous identity) and oidc (bearer tokens
// verified against an OIDC issuer).
package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/foldline-labs/foldline-go/internal/platform/env"
)

const (
	ModeDisabled = "disabled"
	ModeOIDC     = "oidc"
)

type Config struct {
	Mode          string
	OIDCIssuerURL string
	OIDCClientID  string
	EmailClaim    string
	RolesClaim    string
}

func ConfigFromEnv() (Config, error) {
	cfg := Config{
		Mode:          strings.TrimSpace(env.String("FOLDLINE_AUTH_MODE", ModeDisabled)),
		OIDCIssuerURL: strings.TrimSpace(env.String("FOLDLINE_AUTH_OIDC_ISSUER_URL", "")),
		OIDCClientID:  strings.TrimSpace(env.String("FOLDLINE_AUTH_OIDC_CLIENT_ID", "")),
		EmailClaim:    strings.TrimSpace(env.String("FOLDLINE_AUTH_EMAIL_CLAIM", "email")),
		RolesClaim:    strings.TrimSpace(env.String("FOLDLINE_AUTH_ROLES_CLAIM", "roles")),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Mode {
	case ModeDisabled:
		return nil
	case ModeOIDC:
		if c.OIDCIssuerURL == "" {
			return errors.New("FOLDLINE_AUTH_OIDC_ISSUER_URL is required in oidc mode")
		}
		if c.OIDCClientID == "" {
			return errors.New("FOLDLINE_AUTH_OIDC_CLIENT_ID is required in oidc mode")
		}
		return nil
	default:
		return fmt.Errorf("unknown auth mode %q", c.Mode)
	}
}
