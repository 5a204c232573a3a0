//
// Date: 2026-10-18
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2025 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: Configuration loading from defaults, an optional TOML file,
// a .env file and the process environment.
//

package spotify

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	DefaultHost          = "127.0.0.1"
	DefaultPort          = "3000"
	DefaultRedirectURI   = "http://127.0.0.1:3000/callback"
	DefaultStaticDir     = "public"
	DefaultDashboardPath = "/dashboard.html"
	DefaultConfigFile    = "config.toml"
	DefaultTimeout       = 10 * time.Second
	DefaultRate          = 5.0
)

// Config holds everything the server needs to run.
type Config struct {
	Spotify SpotifyConfig `toml:"spotify"`
	Server  ServerConfig  `toml:"server"`
}

// SpotifyConfig contains the Spotify app credentials.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
}

// ServerConfig contains the local HTTP server settings.
type ServerConfig struct {
	Host           string        `toml:"host"`
	Port           string        `toml:"port"`
	StaticDir      string        `toml:"static_dir"`
	DashboardPath  string        `toml:"dashboard_path"`
	DebugEndpoints bool          `toml:"debug_endpoints"`
	Timeout        time.Duration `toml:"-"`
	TimeoutString  string        `toml:"upstream_timeout"`
	Rate           float64       `toml:"upstream_rate"`
	LogLevel       string        `toml:"log_level"`
}

// DefaultConfig returns a Config populated with the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Spotify: SpotifyConfig{
			RedirectURI: DefaultRedirectURI,
		},
		Server: ServerConfig{
			Host:          DefaultHost,
			Port:          DefaultPort,
			StaticDir:     DefaultStaticDir,
			DashboardPath: DefaultDashboardPath,
			Timeout:       DefaultTimeout,
			Rate:          DefaultRate,
			LogLevel:      "info",
		},
	}
}

// LoadConfig builds the configuration. Values are layered in this order, each
// overriding the previous: defaults, the TOML file at path, a .env file in the
// working directory, then the environment. A missing TOML or .env file is
// not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile merges a TOML file into the config.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if _, err := toml.Decode(string(data), c); err != nil {
		return fmt.Errorf("%w: failed to parse %s: %v", ErrInvalidConfig, path, err)
	}

	if c.Server.TimeoutString != "" {
		d, err := time.ParseDuration(c.Server.TimeoutString)
		if err != nil || d <= 0 {
			return fmt.Errorf("%w: upstream_timeout %q", ErrInvalidConfig, c.Server.TimeoutString)
		}
		c.Server.Timeout = d
	}

	return nil
}

// loadEnv applies environment overrides.
func (c *Config) loadEnv() error {
	setString := func(dst *string, keys ...string) {
		for _, key := range keys {
			if v := strings.TrimSpace(os.Getenv(key)); v != "" {
				*dst = v
				return
			}
		}
	}

	setString(&c.Spotify.ClientID, "SPOTIFY_CLIENT_ID")
	setString(&c.Spotify.ClientSecret, "SPOTIFY_CLIENT_SECRET")
	setString(&c.Spotify.RedirectURI, "REDIRECT_URI", "SPOTIFY_REDIRECT_URI")
	setString(&c.Server.Host, "HOST")
	setString(&c.Server.Port, "PORT")
	setString(&c.Server.StaticDir, "STATIC_DIR")
	setString(&c.Server.LogLevel, "LOG_LEVEL")

	if v := strings.TrimSpace(os.Getenv("DEBUG_ENDPOINTS")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: DEBUG_ENDPOINTS %q", ErrInvalidConfig, v)
		}
		c.Server.DebugEndpoints = b
	}

	if v := strings.TrimSpace(os.Getenv("UPSTREAM_TIMEOUT")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return fmt.Errorf("%w: UPSTREAM_TIMEOUT %q", ErrInvalidConfig, v)
		}
		c.Server.Timeout = d
	}

	if v := strings.TrimSpace(os.Getenv("UPSTREAM_RATE")); v != "" {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil || r <= 0 {
			return fmt.Errorf("%w: UPSTREAM_RATE %q", ErrInvalidConfig, v)
		}
		c.Server.Rate = r
	}

	return nil
}

// Validate checks that the config can drive the OAuth flow.
func (c *Config) Validate() error {
	if c.Spotify.ClientID == "" || c.Spotify.ClientSecret == "" {
		return fmt.Errorf("%w: SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET are required", ErrMissingCredentials)
	}

	u, err := url.Parse(c.Spotify.RedirectURI)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: redirect URI %q", ErrInvalidConfig, c.Spotify.RedirectURI)
	}

	if _, err := strconv.Atoi(c.Server.Port); err != nil {
		return fmt.Errorf("%w: port %q", ErrInvalidConfig, c.Server.Port)
	}

	if c.Server.Timeout <= 0 {
		return fmt.Errorf("%w: upstream timeout must be positive", ErrInvalidConfig)
	}

	return nil
}

// Addr returns the host:port the server listens on.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, c.Server.Port)
}

// BaseURL returns the URL a local client uses to reach the server.
func (c *Config) BaseURL() string {
	return "http://" + c.Addr()
}
