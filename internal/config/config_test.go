package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAppliesEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("GANGLION_CONFIG_DIR", dir)
	t.Setenv("GANGLION_HUB_URL", "wss://example.test/ws")
	t.Setenv("GANGLION_API_KEY", "")
	t.Setenv("GANGLION_IDLE_EXIT_SECONDS", "120")
	t.Setenv("GANGLION_DEBUG", "1")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HubURL != "wss://example.test/ws" {
		t.Fatalf("got %q", cfg.HubURL)
	}
	if cfg.IdleExitSeconds != 120 {
		t.Fatalf("got %d", cfg.IdleExitSeconds)
	}
	if !cfg.Debug {
		t.Fatal("expected debug enabled")
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("GANGLION_CONFIG_DIR", dir)

	cfg := DefaultConfig()
	cfg.HubURL = "wss://saved.test/ws"
	if err := cfg.Save(); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(filepath.Join(dir, "config.json")); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if loaded.HubURL != "wss://saved.test/ws" {
		t.Fatalf("got %q", loaded.HubURL)
	}
}

func TestHasToken(t *testing.T) {
	cfg := &Config{}
	if cfg.HasToken() {
		t.Fatal("expected no token")
	}
	cfg.Token = "abc"
	if !cfg.HasToken() {
		t.Fatal("expected token present")
	}
}
