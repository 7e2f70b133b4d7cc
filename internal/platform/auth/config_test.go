package auth

import "testing"

func TestConfigDisabledByDefault(t *testing.T) {
	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv() err=%v", err)
	}
	if cfg.Mode != ModeDisabled {
		t.Fatalf("expected disabled mode by default, got %q", cfg.Mode)
	}
}

func TestConfigOIDCRequiresIssuerAndClient(t *testing.T) {
	t.Setenv("FOLDLINE_AUTH_MODE", ModeOIDC)

	if _, err := ConfigFromEnv(); err == nil {
		t.Fatalf("expected error without issuer and client id")
	}

	t.Setenv("FOLDLINE_AUTH_OIDC_ISSUER_URL", "https://issuer.example.com")
	t.Setenv("FOLDLINE_AUTH_OIDC_CLIENT_ID", "foldline")
	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv() err=%v", err)
	}
	if cfg.Mode != ModeOIDC {
		t.Fatalf("expected oidc mode, got %q", cfg.Mode)
	}
}

func TestConfigRejectsUnknownMode(t *testing.T) {
	t.Setenv("FOLDLINE_AUTH_MODE", "basic")

	if _, err := ConfigFromEnv(); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}
