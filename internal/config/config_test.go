package config

import (
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("CANVA_CLIENT_ID", "test-client")
	t.Setenv("CANVA_CLIENT_SECRET", "test-secret")
	t.Setenv("CANVA_REDIRECT_URI", "http://localhost:8080/oauth/redirect")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Default port: got %d, want 8080", cfg.Port)
	}
	if cfg.Addr() != "0.0.0.0:8080" {
		t.Errorf("Addr: got %s", cfg.Addr())
	}
	if cfg.PendingTTL != 10*time.Minute {
		t.Errorf("Default pending TTL: got %v, want 10m", cfg.PendingTTL)
	}
	if cfg.PendingStore != "memory" {
		t.Errorf("Default pending store: got %s, want memory", cfg.PendingStore)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Errorf("Default session TTL: got %v, want 24h", cfg.SessionTTL)
	}
	if cfg.CanvaAuthURL == "" || cfg.CanvaTokenURL == "" {
		t.Error("Provider endpoints should have defaults")
	}
}

func TestLoadMissingCredentials(t *testing.T) {
	cases := []struct {
		name string
		omit string
	}{
		{"missing client id", "CANVA_CLIENT_ID"},
		{"missing client secret", "CANVA_CLIENT_SECRET"},
		{"missing redirect uri", "CANVA_REDIRECT_URI"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tc.omit, "")

			if _, err := Load(); err == nil {
				t.Errorf("Load should fail when %s is absent", tc.omit)
			}
		})
	}
}

func TestLoadGeneratesSessionSecret(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SESSION_SECRET", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.SessionSecret == "" {
		t.Error("Session secret should be generated when unset")
	}
	if !cfg.SessionSecretGenerated {
		t.Error("SessionSecretGenerated flag should be set")
	}
}

func TestLoadExplicitSessionSecret(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SESSION_SECRET", "configured-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.SessionSecret != "configured-secret" {
		t.Errorf("Session secret: got %q", cfg.SessionSecret)
	}
	if cfg.SessionSecretGenerated {
		t.Error("SessionSecretGenerated flag should not be set")
	}
}

func TestLoadInvalidPendingStore(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PENDING_STORE", "etcd")

	if _, err := Load(); err == nil {
		t.Error("Load should reject an unknown pending store backend")
	}
}
