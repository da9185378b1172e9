// Package config loads application configuration from file and
// environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	// Address the HTTP server listens on
	Addr string

	// Market passed to the top-tracks endpoint (ISO 3166-1 country code)
	Market string

	// Data directory for the session database
	DataDir string

	// Spotify application credentials
	Spotify SpotifyConfig
}

// SpotifyConfig holds Spotify API credentials and optional endpoint
// overrides (used in tests).
type SpotifyConfig struct {
	ClientID     string
	ClientSecret string
	BaseURL      string
	TokenURL     string
}

// Load reads configuration from file and environment
func Load() (*Config, error) {
	// A local .env is a development convenience; absence is fine.
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Config file locations (in order of precedence)
	configDir := getConfigDir()
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	// Set defaults
	v.SetDefault("addr", ":8080")
	v.SetDefault("market", "BR")
	v.SetDefault("data_dir", defaultDataDir())

	// Read config file (optional - don't fail if missing)
	_ = v.ReadInConfig()

	// Read from environment variables: DESCOBRE_SPOTIFY_CLIENT_ID etc.
	v.SetEnvPrefix("DESCOBRE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		Addr:    v.GetString("addr"),
		Market:  v.GetString("market"),
		DataDir: v.GetString("data_dir"),
		Spotify: SpotifyConfig{
			ClientID:     firstNonEmpty(v.GetString("spotify.client_id"), v.GetString("spotify_client_id")),
			ClientSecret: firstNonEmpty(v.GetString("spotify.client_secret"), v.GetString("spotify_client_secret")),
			BaseURL:      v.GetString("spotify.base_url"),
			TokenURL:     v.GetString("spotify.token_url"),
		},
	}

	return cfg, nil
}

// Validate checks that required settings are present.
func (c *Config) Validate() error {
	if c.Spotify.ClientID == "" || c.Spotify.ClientSecret == "" {
		return fmt.Errorf("spotify credentials not configured (set DESCOBRE_SPOTIFY_CLIENT_ID and DESCOBRE_SPOTIFY_CLIENT_SECRET)")
	}
	return nil
}

// getConfigDir returns the configuration directory path
// Creates the directory if it doesn't exist
func getConfigDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	configDir := filepath.Join(homeDir, ".config", "descobre")

	_ = os.MkdirAll(configDir, 0755)

	return configDir
}

func defaultDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(homeDir, ".local", "share", "descobre")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
