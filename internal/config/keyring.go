package config

import (
	"github.com/zalando/go-keyring"
)

const (
	keyringService = "ganglion-bridge"
	keyringUser    = "default"
)

// SaveToken persists the API token to the OS keyring, falling back to the
// config file when no keyring backend is available (containers, headless
// CI), mirroring the teacher's own token-storage dual path.
func SaveToken(token string) error {
	if err := keyring.Set(keyringService, keyringUser, token); err == nil {
		return nil
	}
	cfg, err := Load()
	if err != nil {
		return err
	}
	cfg.Token = token
	return cfg.Save()
}

// loadToken reads the token from the keyring if present; callers fall back
// silently to whatever the config file already holds.
func loadToken() (string, error) {
	return keyring.Get(keyringService, keyringUser)
}

// ClearToken removes the token from the keyring and the config file.
func ClearToken() error {
	_ = keyring.Delete(keyringService, keyringUser)
	cfg, err := Load()
	if err != nil {
		return err
	}
	cfg.Token = ""
	return cfg.Save()
}
