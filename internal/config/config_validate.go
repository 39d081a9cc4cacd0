// RetroVue - Linear Broadcast Scheduling and Playout Automation
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slbailey/retrovue

package config

import (
	"fmt"
	"strings"
	"time"
)

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	if err := c.validateChannels(); err != nil {
		return err
	}
	if err := c.validateHorizon(); err != nil {
		return err
	}
	if err := c.validateNATS(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	return c.validateLogging()
}

// validateChannels ensures every declared channel has the identity and
// grid fields the scheduling engine needs to resolve anything against it.
func (c *Config) validateChannels() error {
	seen := make(map[string]bool, len(c.Channels.Channels))
	for _, ch := range c.Channels.Channels {
		if ch.ID == "" {
			return fmt.Errorf("channels: every channel must have a non-empty id")
		}
		if seen[ch.ID] {
			return fmt.Errorf("channels: duplicate channel id %q", ch.ID)
		}
		seen[ch.ID] = true
		if ch.Timezone == "" {
			return fmt.Errorf("channels: channel %q must have a timezone", ch.ID)
		}
		if ch.ProgrammingDayStartH < 0 || ch.ProgrammingDayStartH > 23 {
			return fmt.Errorf("channels: channel %q programming_day_start_hour must be 0-23", ch.ID)
		}
		if ch.GridMinutes <= 0 {
			return fmt.Errorf("channels: channel %q grid_minutes must be positive", ch.ID)
		}
	}
	return nil
}

// validateHorizon validates the Horizon Manager's evaluation tuning.
func (c *Config) validateHorizon() error {
	if c.Horizon.MinEPGDays <= 0 {
		return fmt.Errorf("HORIZON_MIN_EPG_DAYS must be positive")
	}
	if c.Horizon.MinExecutionHours <= 0 {
		return fmt.Errorf("HORIZON_MIN_EXECUTION_HOURS must be positive")
	}
	if c.Horizon.EvaluationInterval <= 0 {
		return fmt.Errorf("HORIZON_EVALUATION_INTERVAL must be positive")
	}
	if c.Horizon.LockedWindow < 0 {
		return fmt.Errorf("HORIZON_LOCKED_WINDOW must not be negative")
	}
	return nil
}

// validateNATS validates the horizon audit bus configuration (only
// meaningful when enabled).
func (c *Config) validateNATS() error {
	if !c.NATS.Enabled {
		return nil
	}
	if c.NATS.URL == "" {
		return fmt.Errorf("NATS_URL is required when NATS_ENABLED=true")
	}
	if c.NATS.EmbeddedServer && c.NATS.StoreDir == "" {
		return fmt.Errorf("NATS_STORE_DIR is required when NATS_EMBEDDED=true")
	}
	if c.NATS.StreamRetentionDays <= 0 {
		return fmt.Errorf("NATS_RETENTION_DAYS must be positive")
	}
	if c.NATS.BatchSize <= 0 {
		return fmt.Errorf("NATS_BATCH_SIZE must be positive")
	}
	if c.NATS.FlushInterval <= 0 {
		return fmt.Errorf("NATS_FLUSH_INTERVAL must be positive")
	}
	return nil
}

// validateServer validates HTTP server configuration.
func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	return nil
}

// validateSecurity validates authentication and authorization settings.
func (c *Config) validateSecurity() error {
	if err := c.validateAuthMode(); err != nil {
		return err
	}
	if err := c.validateCORS(); err != nil {
		return err
	}
	return c.validateRateLimits()
}

// validAuthModes defines the allowed authentication modes.
var validAuthModes = map[string]bool{
	"none":  true,
	"jwt":   true,
	"basic": true,
}

// validateAuthMode checks if auth mode is valid and appropriate for the
// running environment.
func (c *Config) validateAuthMode() error {
	if !validAuthModes[c.Security.AuthMode] {
		return fmt.Errorf("AUTH_MODE must be one of: none, jwt, basic")
	}

	// Refuse to start with AUTH_MODE=none in production — this prevents
	// accidental deployment of an unauthenticated operator API.
	if c.Security.AuthMode == "none" && c.IsProduction() {
		return fmt.Errorf("AUTH_MODE=none is not allowed when ENVIRONMENT=production; " +
			"set AUTH_MODE to jwt or basic, or use ENVIRONMENT=development for testing")
	}

	switch c.Security.AuthMode {
	case "jwt":
		return c.validateJWTSecret()
	case "basic":
		return c.validateAdminCredentials()
	}
	return nil
}

// validateJWTSecret validates the JWT signing secret.
func (c *Config) validateJWTSecret() error {
	if c.Security.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required when AUTH_MODE=jwt")
	}
	if len(c.Security.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	if containsPlaceholder(c.Security.JWTSecret) {
		return fmt.Errorf("JWT_SECRET appears to be a placeholder value; set a real secret")
	}
	return nil
}

// validateAdminCredentials validates basic-auth admin credentials.
func (c *Config) validateAdminCredentials() error {
	if c.Security.AdminUsername == "" {
		return fmt.Errorf("ADMIN_USERNAME is required when AUTH_MODE=basic")
	}
	if len(c.Security.AdminPassword) < 8 {
		return fmt.Errorf("ADMIN_PASSWORD must be at least 8 characters")
	}
	if containsPlaceholder(c.Security.AdminPassword) {
		return fmt.Errorf("ADMIN_PASSWORD appears to be a placeholder value; set a real password")
	}
	return nil
}

// validateCORS rejects wildcard CORS in production when auth is enabled,
// since wildcard CORS plus authentication lets any origin replay stolen
// credentials.
func (c *Config) validateCORS() error {
	if c.Security.AuthMode != "none" && c.hasWildcardCORS() && c.IsProduction() {
		return fmt.Errorf("CORS_ORIGINS=* (wildcard) is not allowed in production with authentication enabled; " +
			"set specific origins or use ENVIRONMENT=development for testing")
	}
	return nil
}

func (c *Config) hasWildcardCORS() bool {
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}

// ShouldWarnAboutCORS returns true if CORS configuration has security
// concerns that should be logged at startup.
func (c *Config) ShouldWarnAboutCORS() bool {
	return c.Security.AuthMode != "none" && c.hasWildcardCORS()
}

const (
	minRateLimitRequests = 1
	maxRateLimitRequests = 100000
	minRateLimitWindow   = time.Second
	maxRateLimitWindow   = time.Hour
)

// validateRateLimits validates rate-limiting configuration bounds.
func (c *Config) validateRateLimits() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < minRateLimitRequests || c.Security.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.RateLimitWindow < minRateLimitWindow || c.Security.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

// IsProduction returns true if the application is running in production mode.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Server.Environment)
	return env == "production" || env == "prod"
}

// IsDevelopment returns true if the application is running in development mode.
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Server.Environment)
	return env == "" || env == "development" || env == "dev"
}

var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "error": true,
}

var validLogFormats = map[string]bool{
	"json": true, "console": true,
}

// validateLogging validates logging configuration.
func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

// placeholderPatterns are common placeholder strings that indicate the
// operator forgot to set a real secret.
var placeholderPatterns = []string{
	"REPLACE", "CHANGEME", "CHANGE_ME", "YOUR_SECRET", "YOUR_PASSWORD",
	"PLACEHOLDER", "TODO", "FIXME", "XXX", "EXAMPLE",
}

func containsPlaceholder(value string) bool {
	upperValue := strings.ToUpper(value)
	for _, pattern := range placeholderPatterns {
		if strings.Contains(upperValue, pattern) {
			return true
		}
	}
	return false
}
