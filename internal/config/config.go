// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New returns a Config populated with defaults.
// - Load layers file, .env and environment values on top of New.
// - Errors returned by Load wrap ErrLoadConfig or ErrInvalidConfig.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr is an explicit listen address such as "127.0.0.1:8080". When empty
	// the server listens on all interfaces at Port.
	Addr string `koanf:"addr"`
	Port int    `koanf:"port"`

	// Username is served when a request carries no username parameter.
	Username string `koanf:"username"`

	// OwnerToken is the credential of the configured Username.
	OwnerToken string `koanf:"github_token"`

	// FallbackToken is used for every other username.
	FallbackToken string `koanf:"github_fallback_token"`

	// ShareOwnerToken lets requests for other users borrow OwnerToken when
	// no FallbackToken is set.
	ShareOwnerToken bool `koanf:"share_owner_token"`

	// GraphQLURL and RESTURL locate the upstream APIs.
	GraphQLURL string `koanf:"graphql_url"`
	RESTURL    string `koanf:"rest_url"`

	// FetchTimeout bounds every upstream fetch.
	FetchTimeout time.Duration `koanf:"fetch_timeout"`

	// RepoLimit is how many recently pushed repositories are inspected.
	RepoLimit int `koanf:"repo_limit"`

	// LanguageWindowDays is the look-back window for the recent language.
	LanguageWindowDays int `koanf:"language_window_days"`

	// CacheMaxAge is the public cache lifetime in seconds; 0 disables caching.
	CacheMaxAge int `koanf:"cache_max_age"`

	// TemplatePaths are tried in order; "embed:card.svg" is the built-in card.
	TemplatePaths []string `koanf:"template_paths"`

	// StrictRegions fails rendering when a template region is missing.
	StrictRegions bool `koanf:"strict_regions"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		Port:               3000,
		GraphQLURL:         "https://api.github.com/graphql",
		RESTURL:            "https://api.github.com/",
		FetchTimeout:       8 * time.Second,
		RepoLimit:          10,
		LanguageWindowDays: 30,
		CacheMaxAge:        300,
		TemplatePaths:      []string{"assets/card.svg", "/etc/statuscard/card.svg", "embed:card.svg"},
	}
}

// ListenAddr returns the address the HTTP server binds to.
func (c *Config) ListenAddr() string {
	if c.Addr != "" {
		return c.Addr
	}
	return fmt.Sprintf(":%d", c.Port)
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "" && (c.Port <= 0 || c.Port > 65535):
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Port)
	case strings.TrimSpace(c.GraphQLURL) == "":
		return fmt.Errorf("%w: graphql_url must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.RESTURL) == "":
		return fmt.Errorf("%w: rest_url must not be empty", ErrInvalidConfig)
	case c.FetchTimeout <= 0:
		return fmt.Errorf("%w: fetch_timeout must be positive", ErrInvalidConfig)
	case c.RepoLimit <= 0 || c.RepoLimit > 100:
		return fmt.Errorf("%w: repo_limit must be within 1..100", ErrInvalidConfig)
	case c.LanguageWindowDays <= 0:
		return fmt.Errorf("%w: language_window_days must be positive", ErrInvalidConfig)
	case c.CacheMaxAge < 0:
		return fmt.Errorf("%w: cache_max_age must not be negative", ErrInvalidConfig)
	case len(c.TemplatePaths) == 0:
		return fmt.Errorf("%w: template_paths must not be empty", ErrInvalidConfig)
	}
	return nil
}

// TokenFor picks the credential used to fetch username. An empty result
// selects the unauthenticated REST path.
func (c *Config) TokenFor(username string) string {
	if c.Username != "" && strings.EqualFold(username, c.Username) && c.OwnerToken != "" {
		return c.OwnerToken
	}
	if c.FallbackToken != "" {
		return c.FallbackToken
	}
	if c.ShareOwnerToken {
		return c.OwnerToken
	}
	return ""
}
