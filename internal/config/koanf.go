// RetroVue - Linear Broadcast Scheduling and Playout Automation
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slbailey/retrovue

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found is used. The channel roster
// (timezone, grid, offsets per channel) is realistically only ever set
// via this file — there is no sane env var encoding for a list of
// structs — so a deployment with more than one channel needs one of
// these present.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/retrovue/config.yaml",
	"/etc/retrovue/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the
// config file path.
const ConfigPathEnvVar = "RETROVUE_CONFIG_PATH"

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and
// env vars.
func defaultConfig() *Config {
	return &Config{
		Horizon: HorizonConfig{
			MinEPGDays:               14,
			MinExecutionHours:        6,
			EvaluationInterval:       5 * time.Minute,
			LockedWindow:             2 * time.Hour,
			ProactiveExtendThreshold: 4 * time.Hour,
		},
		Playlog: PlaylogConfig{
			EvaluationInterval: time.Minute,
			TargetHours:        4,
		},
		Database: DatabaseConfig{
			Path:                   "/data/retrovue.duckdb",
			MaxMemory:              "2GB",
			Threads:                0, // 0 = use runtime.NumCPU()
			PreserveInsertionOrder: true,
			SeedMockData:           false,
		},
		WAL: WALConfig{
			Path:       "/data/wal/sequence-state",
			SyncWrites: true,
		},
		Evidence: EvidenceConfig{
			BindAddress:   "0.0.0.0:8420",
			AsRunDir:      "/data/asrun",
			AckDir:        "/data/evidence-ack",
			ReadDeadline:  60 * time.Second,
			WriteDeadline: 10 * time.Second,
		},
		NATS: NATSConfig{
			Enabled:             true,
			URL:                 "nats://127.0.0.1:4222",
			EmbeddedServer:      true,
			StoreDir:            "/data/nats/jetstream",
			MaxMemory:           1 << 30,  // 1GB
			MaxStore:            10 << 30, // 10GB
			StreamRetentionDays: 30,
			BatchSize:           100,
			FlushInterval:       5 * time.Second,
			SubscribersCount:    2,
			DurableName:         "horizon-audit",
			QueueGroup:          "horizon-audit-consumers",

			RouterRetryCount:           3,
			RouterRetryInitialInterval: 100 * time.Millisecond,
			RouterPoisonQueueEnabled:   true,
			RouterPoisonQueueTopic:     "horizon.audit.poison",
			RouterCloseTimeout:         30 * time.Second,
		},
		Server: ServerConfig{
			Port:        3857,
			Host:        "0.0.0.0",
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		API: APIConfig{
			DefaultPageSize: 20,
			MaxPageSize:     100,
		},
		Security: SecurityConfig{
			AuthMode:          "jwt",
			JWTSecret:         "",
			SessionTimeout:    24 * time.Hour,
			AdminUsername:     "",
			AdminPassword:     "",
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
			CORSOrigins:       []string{"*"},
			TrustedProxies:    []string{},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: built-in sensible defaults
//  2. Config File: optional YAML config file (if exists) — the only
//     practical way to declare the channel roster
//  3. Environment Variables: override any setting
//
// This function provides type-safe configuration unmarshaling with clear
// precedence: ENV > File > Defaults.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Environment variable names to koanf paths:
	// RETROVUE_SERVER_PORT -> server.port
	envProvider := env.Provider("RETROVUE_", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as
// comma-separated slices when they arrive as a single environment
// variable string.
var sliceConfigPaths = []string{
	"security.cors_origins",
	"security.trusted_proxies",
}

// processSliceFields converts comma-separated string values to slices for
// known slice fields. Necessary because env vars arrive as strings, but
// the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}
		if strVal, ok := val.(string); ok {
			if strVal == "" {
				continue
			}
			parts := strings.Split(strVal, ",")
			trimmed := make([]string, 0, len(parts))
			for _, p := range parts {
				p = strings.TrimSpace(p)
				if p != "" {
					trimmed = append(trimmed, p)
				}
			}
			if len(trimmed) > 0 {
				if err := k.Set(path, trimmed); err != nil {
					return fmt.Errorf("failed to set %s: %w", path, err)
				}
			}
		}
	}
	return nil
}

// envTransformFunc transforms RETROVUE_-prefixed environment variable
// names to koanf config paths, e.g. RETROVUE_SERVER_PORT -> server.port,
// RETROVUE_HORIZON_MIN_EPG_DAYS -> horizon.min_epg_days.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Horizon
		"horizon_min_epg_days":                "horizon.min_epg_days",
		"horizon_min_execution_hours":         "horizon.min_execution_hours",
		"horizon_evaluation_interval":         "horizon.evaluation_interval",
		"horizon_locked_window":               "horizon.locked_window",
		"horizon_proactive_extend_threshold":  "horizon.proactive_extend_threshold",

		// Playlog
		"playlog_evaluation_interval": "playlog.evaluation_interval",
		"playlog_target_hours":        "playlog.target_hours",

		// Database
		"duckdb_path":                      "database.path",
		"duckdb_max_memory":                "database.max_memory",
		"duckdb_threads":                   "database.threads",
		"duckdb_preserve_insertion_order":  "database.preserve_insertion_order",
		"seed_mock_data":                   "database.seed_mock_data",
		"duckdb_skip_indexes":              "database.skip_indexes",

		// WAL
		"wal_path":        "wal.path",
		"wal_sync_writes": "wal.sync_writes",

		// Evidence
		"evidence_bind_address":   "evidence.bind_address",
		"evidence_asrun_dir":      "evidence.asrun_dir",
		"evidence_ack_dir":        "evidence.ack_dir",
		"evidence_read_deadline":  "evidence.read_deadline",
		"evidence_write_deadline": "evidence.write_deadline",

		// NATS (horizon audit bus)
		"nats_enabled":               "nats.enabled",
		"nats_url":                   "nats.url",
		"nats_embedded":              "nats.embedded_server",
		"nats_store_dir":             "nats.store_dir",
		"nats_max_memory":            "nats.max_memory",
		"nats_max_store":             "nats.max_store",
		"nats_retention_days":        "nats.stream_retention_days",
		"nats_batch_size":            "nats.batch_size",
		"nats_flush_interval":        "nats.flush_interval",
		"nats_subscribers":           "nats.subscribers_count",
		"nats_durable_name":          "nats.durable_name",
		"nats_queue_group":           "nats.queue_group",
		"nats_router_retry_count":    "nats.router_retry_count",
		"nats_router_retry_interval": "nats.router_retry_initial_interval",
		"nats_router_poison_enabled": "nats.router_poison_queue_enabled",
		"nats_router_poison_topic":   "nats.router_poison_queue_topic",
		"nats_router_close_timeout":  "nats.router_close_timeout",

		// Server
		"http_port":   "server.port",
		"http_host":   "server.host",
		"http_timeout": "server.timeout",
		"environment": "server.environment",

		// API
		"api_default_page_size": "api.default_page_size",
		"api_max_page_size":     "api.max_page_size",

		// Security
		"auth_mode":           "security.auth_mode",
		"jwt_secret":          "security.jwt_secret",
		"session_timeout":     "security.session_timeout",
		"admin_username":      "security.admin_username",
		"admin_password":      "security.admin_password",
		"rate_limit_requests": "security.rate_limit_reqs",
		"rate_limit_window":   "security.rate_limit_window",
		"disable_rate_limit":  "security.rate_limit_disabled",
		"cors_origins":        "security.cors_origins",
		"trusted_proxies":     "security.trusted_proxies",

		// Logging
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	return ""
}

// GetKoanfInstance returns a new Koanf instance for advanced usage
// (hot-reload, custom sources, testing with mock configurations).
func GetKoanfInstance() *koanf.Koanf {
	return koanf.New(".")
}

// WatchConfigFile sets up a file watcher for hot-reload capability. The
// caller is responsible for mutex protection when accessing configuration
// during reloads.
func WatchConfigFile(path string, callback func()) error {
	provider := file.Provider(path)
	return provider.Watch(func(event interface{}, err error) {
		if err != nil {
			return
		}
		callback()
	})
}
