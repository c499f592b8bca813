// Package config loads Justletic configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
)

// DefaultAddr is the address the server listens on when JUSTLETIC_ADDR is unset.
const DefaultAddr = "127.0.0.1:8000"

// Sentinel errors.
var (
	// ErrMissingDatabaseURL is returned when DATABASE_URL is not set.
	ErrMissingDatabaseURL = errors.New("missing DATABASE_URL environment variable")

	// ErrMissingProviderConfig is returned when a provider's OAuth settings are incomplete.
	ErrMissingProviderConfig = errors.New("missing provider OAuth configuration")
)

// ProviderConfig holds the OAuth2 settings for one external service.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// Config holds the full application configuration.
type Config struct {
	Addr        string
	DatabaseURL string
	Strava      ProviderConfig
	Spotify     ProviderConfig
}

// Load reads configuration from the process environment.
// Secrets are never hard-coded; both providers must be fully configured.
func Load() (*Config, error) {
	cfg := &Config{
		Addr:        os.Getenv("JUSTLETIC_ADDR"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Strava: ProviderConfig{
			ClientID:     os.Getenv("STRAVA_CLIENT_ID"),
			ClientSecret: os.Getenv("STRAVA_CLIENT_SECRET"),
			RedirectURI:  os.Getenv("STRAVA_REDIRECT_URI"),
		},
		Spotify: ProviderConfig{
			ClientID:     os.Getenv("SPOTIFY_ID"),
			ClientSecret: os.Getenv("SPOTIFY_SECRET"),
			RedirectURI:  os.Getenv("SPOTIFY_REDIRECT_URI"),
		},
	}

	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}

	if cfg.DatabaseURL == "" {
		return nil, ErrMissingDatabaseURL
	}

	if err := cfg.Strava.validate("Strava"); err != nil {
		return nil, err
	}
	if err := cfg.Spotify.validate("Spotify"); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (p ProviderConfig) validate(name string) error {
	if p.ClientID == "" || p.ClientSecret == "" || p.RedirectURI == "" {
		return fmt.Errorf("%w: %s", ErrMissingProviderConfig, name)
	}
	return nil
}
