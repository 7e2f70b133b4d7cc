package postgres

import "testing"

func TestConfigFromEnvDefaults(t *testing.T) {
	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv() err=%v", err)
	}
	if cfg.URL == "" {
		t.Fatalf("expected default database url")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() err=%v", err)
	}
}

func TestConfigFromEnvOverrides(t *testing.T) {
	t.Setenv("FOLDLINE_DATABASE_URL", "postgres://u:p@db:5432/foldline")
	t.Setenv("FOLDLINE_DATABASE_MAX_OPEN_CONNS", "20")

	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv() err=%v", err)
	}
	if cfg.URL != "postgres://u:p@db:5432/foldline" {
		t.Fatalf("unexpected url %q", cfg.URL)
	}
	if cfg.MaxOpenConns != 20 {
		t.Fatalf("unexpected max open conns %d", cfg.MaxOpenConns)
	}
}

func TestConfigValidateRejectsIdleAboveOpen(t *testing.T) {
	t.Setenv("FOLDLINE_DATABASE_MAX_OPEN_CONNS", "2")
	t.Setenv("FOLDLINE_DATABASE_MAX_IDLE_CONNS", "5")

	if _, err := ConfigFromEnv(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestConfigFromEnvRejectsMalformedDuration(t *testing.T) {
	t.Setenv("FOLDLINE_DATABASE_PING_TIMEOUT", "soon")

	if _, err := ConfigFromEnv(); err == nil {
		t.Fatalf("expected parse error")
	}
}
