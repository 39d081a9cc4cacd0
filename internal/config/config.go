// RetroVue - Linear Broadcast Scheduling and Playout Automation
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slbailey/retrovue

package config

import (
	"time"

	"github.com/slbailey/retrovue/internal/models"
)

// Config holds all application configuration loaded from environment
// variables and config files. It mirrors the teacher's layered-Koanf
// shape: defaults -> YAML file -> environment -> a handful of CLI flags
// for operator overrides.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: built-in sensible defaults for all optional settings
//  2. Config File: optional YAML config file (config.yaml)
//  3. Environment Variables: RETROVUE_-prefixed, override any setting
//
// Thread Safety:
// Config is immutable after Load() and safe for concurrent read access
// from multiple goroutines.
type Config struct {
	Channels ChannelsConfig `koanf:"channels"`
	Horizon  HorizonConfig  `koanf:"horizon"`
	Playlog  PlaylogConfig  `koanf:"playlog"`
	Database DatabaseConfig `koanf:"database"`
	WAL      WALConfig      `koanf:"wal"`
	Evidence EvidenceConfig `koanf:"evidence"`
	NATS     NATSConfig     `koanf:"nats"`
	Server   ServerConfig   `koanf:"server"`
	API      APIConfig      `koanf:"api"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ChannelsConfig holds the statically-configured channel roster. Channels
// are declared here rather than discovered from the database because a
// channel's identity, timezone, and grid must exist before the scheduling
// tables that reference it can be populated.
type ChannelsConfig struct {
	Channels []models.Channel `koanf:"channels"`
}

// HorizonConfig tunes the Horizon Manager (C6): how far ahead the EPG and
// execution horizons must reach, how often the evaluator runs, and the
// locked window inside which proactive extension is forbidden.
type HorizonConfig struct {
	MinEPGDays               int           `koanf:"min_epg_days"`
	MinExecutionHours        int           `koanf:"min_execution_hours"`
	EvaluationInterval       time.Duration `koanf:"evaluation_interval"`
	LockedWindow             time.Duration `koanf:"locked_window"`
	ProactiveExtendThreshold time.Duration `koanf:"proactive_extend_threshold"`
}

// PlaylogConfig tunes the per-channel Playlog Horizon Daemon (C5): how
// often it evaluates Tier-1 coverage and how many hours of Tier-2
// transmission log it tries to keep materialized ahead of now.
type PlaylogConfig struct {
	EvaluationInterval time.Duration `koanf:"evaluation_interval"`
	TargetHours        int           `koanf:"target_hours"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	Path                   string `koanf:"path"`
	MaxMemory              string `koanf:"max_memory"`
	Threads                int    `koanf:"threads"`                  // Number of DuckDB threads (0 = use NumCPU)
	PreserveInsertionOrder bool   `koanf:"preserve_insertion_order"` // Whether to preserve insertion order (default true)
	SeedMockData           bool   `koanf:"seed_mock_data"`           // Enable mock data seeding for local/dev setup
	SkipIndexes            bool   `koanf:"skip_indexes"`             // Skip index creation (for fast test setup)
}

// WALConfig holds BadgerDB settings for the schedule sequence-state
// store's write-ahead log (the monotonic per-slot position counters the
// scheduling engine must never replay or skip on restart).
type WALConfig struct {
	Path     string `koanf:"path"`
	SyncWrites bool `koanf:"sync_writes"`
}

// EvidenceConfig holds the evidence stream server's settings: where
// .asrun files and the durable ack file are written, and what address the
// websocket endpoint binds.
type EvidenceConfig struct {
	BindAddress   string        `koanf:"bind_address"`
	AsRunDir      string        `koanf:"asrun_dir"`
	AckDir        string        `koanf:"ack_dir"`
	ReadDeadline  time.Duration `koanf:"read_deadline"`
	WriteDeadline time.Duration `koanf:"write_deadline"`
}

// NATSConfig holds NATS JetStream configuration for the Horizon Manager's
// ExtensionAttempt/SeamViolation audit bus. The evaluator publishes audit
// events to an embedded JetStream stream; a Watermill subscriber drains
// them into the DuckDB horizon_audit_log table.
type NATSConfig struct {
	// Enabled controls whether the audit bus is active. When false,
	// ExtensionAttempt/SeamViolation events are logged only, not
	// durably recorded.
	Enabled bool `koanf:"enabled"`

	// URL is the NATS server connection URL.
	URL string `koanf:"url"`

	// EmbeddedServer enables an embedded NATS server. If false, expects
	// an external NATS server at URL.
	EmbeddedServer bool `koanf:"embedded_server"`

	// StoreDir is the JetStream storage directory.
	StoreDir string `koanf:"store_dir"`

	// MaxMemory is the maximum memory for JetStream in bytes.
	MaxMemory int64 `koanf:"max_memory"`

	// MaxStore is the maximum disk storage for JetStream in bytes.
	MaxStore int64 `koanf:"max_store"`

	// StreamRetentionDays is how long to keep audit events.
	StreamRetentionDays int `koanf:"stream_retention_days"`

	// BatchSize is the number of events to batch before writing to DuckDB.
	BatchSize int `koanf:"batch_size"`

	// FlushInterval is the maximum time between DuckDB flushes.
	FlushInterval time.Duration `koanf:"flush_interval"`

	// SubscribersCount is the number of concurrent message processors.
	SubscribersCount int `koanf:"subscribers_count"`

	// DurableName is the consumer durable name for message tracking.
	DurableName string `koanf:"durable_name"`

	// QueueGroup is the queue group for load balancing.
	QueueGroup string `koanf:"queue_group"`

	// Router configuration (Watermill Router middleware stack).
	RouterRetryCount           int           `koanf:"router_retry_count"`
	RouterRetryInitialInterval time.Duration `koanf:"router_retry_initial_interval"`
	RouterPoisonQueueEnabled   bool          `koanf:"router_poison_queue_enabled"`
	RouterPoisonQueueTopic     string        `koanf:"router_poison_queue_topic"`
	RouterCloseTimeout         time.Duration `koanf:"router_close_timeout"`
}

// ServerConfig holds HTTP server settings for the operator API.
type ServerConfig struct {
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"` // "development", "staging", "production"
}

// APIConfig holds API pagination and response settings.
type APIConfig struct {
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`
}

// SecurityConfig holds authentication and authorization settings for the
// operator API (`/api/v1/channels/*`, `/api/v1/schedule/*`).
type SecurityConfig struct {
	AuthMode          string        `koanf:"auth_mode"` // "none", "jwt", "basic"
	JWTSecret         string        `koanf:"jwt_secret"`
	SessionTimeout    time.Duration `koanf:"session_timeout"`
	AdminUsername     string        `koanf:"admin_username"`
	AdminPassword     string        `koanf:"admin_password"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	TrustedProxies    []string      `koanf:"trusted_proxies"`
}

// LoggingConfig holds zerolog output settings.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	Level string `koanf:"level"`

	// Format is the output format: json or console. JSON is recommended
	// for production; console is human-readable for development.
	Format string `koanf:"format"`

	// Caller includes caller file and line number in logs.
	Caller bool `koanf:"caller"`
}
