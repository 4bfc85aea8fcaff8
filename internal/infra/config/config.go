// Package config provides configuration loading from YAML files.
package config

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Store      StoreConfig               `yaml:"store"`
	Analytics  AnalyticsConfig           `yaml:"analytics"`
	Discovery  DiscoveryConfig           `yaml:"discovery"`
	Planner    PlannerConfig             `yaml:"planner"`
	Spotify    SpotifyConfig             `yaml:"spotify"`
	LastFM     LastFMConfig              `yaml:"lastfm"`
	Messages   MessagesConfig            `yaml:"messages"`
	Activities map[string]ActivityConfig `yaml:"activities"`
}

// StoreConfig represents the listening-event store configuration.
type StoreConfig struct {
	Path string `yaml:"path" default:"./tunebox.db"`
}

// AnalyticsConfig represents profile-building configuration.
type AnalyticsConfig struct {
	DefaultWindowDays int `yaml:"default_window_days" default:"30" validate:"gte=1,lte=3650"`
}

// DiscoveryConfig represents discovery-engine configuration.
type DiscoveryConfig struct {
	Categories []string `yaml:"categories"`
}

// PlannerConfig represents playlist-planner configuration.
type PlannerConfig struct {
	DefaultLength int `yaml:"default_length" default:"20" validate:"gte=1,lte=50"`
}

// ActivityConfig overrides one canonical activity profile.
type ActivityConfig struct {
	Enabled  bool           `yaml:"enabled"`
	Settings map[string]any `yaml:"settings,omitempty"`
}

// SpotifyConfig represents Spotify API configuration.
type SpotifyConfig struct {
	ClientID     string `yaml:"client_id" validate:"required"`
	ClientSecret string `yaml:"client_secret" validate:"required"`
	RefreshToken string `yaml:"refresh_token" validate:"required"`
	Market       string `yaml:"market" validate:"omitempty,len=2" default:"BR"`
}

// LastFMConfig represents Last.fm API configuration.
type LastFMConfig struct {
	APIKey string `yaml:"api_key"`
}

// MessagesConfig represents user-facing reply texts for defined
// non-fatal outcomes.
type MessagesConfig struct {
	Unhandled           string `yaml:"unhandled" default:"I can't help with that one yet."`
	DefaultError        string `yaml:"default_error" default:"Something went wrong on my side, try again in a bit."`
	InvalidWindow       string `yaml:"invalid_window" default:"That lookback window doesn't make sense. Pick between 1 and 3650 days."`
	NoSeedData          string `yaml:"no_seed_data" default:"I don't know your taste yet. Play some music first and ask me again!"`
	UnknownActivity     string `yaml:"unknown_activity" default:"I don't have a playlist recipe for that activity."`
	InsufficientCatalog string `yaml:"insufficient_catalog" default:"The catalog came up short for that one, sorry."`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values for secrets.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	cfg.overrideFromEnv()

	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("SPOTIFY_CLIENT_ID"); v != "" {
		c.Spotify.ClientID = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_SECRET"); v != "" {
		c.Spotify.ClientSecret = v
	}
	if v := os.Getenv("SPOTIFY_REFRESH_TOKEN"); v != "" {
		c.Spotify.RefreshToken = v
	}
	if v := os.Getenv("LASTFM_API_KEY"); v != "" {
		c.LastFM.APIKey = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return err
	}
	return nil
}
