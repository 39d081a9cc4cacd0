// RetroVue - Linear Broadcast Scheduling and Playout Automation
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slbailey/retrovue

/*
Package config provides centralized configuration management for RetroVue.

It loads, validates, and parses configuration for every long-running
component: the channel roster, the Horizon Manager, the Playlog Horizon
Daemons, the DuckDB system of record, the BadgerDB sequence-state WAL,
the evidence stream server, the NATS-backed horizon audit bus, the
operator HTTP API, and logging.

# Configuration Sources

The package reads configuration from, in increasing precedence:
  - Built-in defaults (defaultConfig)
  - An optional YAML config file (config.yaml, or RETROVUE_CONFIG_PATH)
  - RETROVUE_-prefixed environment variables

# Configuration Structure

  - ChannelsConfig: the declared channel roster (id, timezone, grid,
    allowed offsets, programming-day-start-hour)
  - HorizonConfig: Horizon Manager evaluation tuning (minimum EPG/execution
    horizons, evaluation interval, locked window)
  - PlaylogConfig: per-channel Playlog Horizon Daemon tuning
  - DatabaseConfig: DuckDB connection and performance tuning
  - WALConfig: BadgerDB path for the sequence-state store
  - EvidenceConfig: evidence websocket bind address, .asrun/ack directories
  - NATSConfig: embedded JetStream settings for the horizon audit bus
  - ServerConfig: operator HTTP API bind address and environment
  - APIConfig: pagination defaults
  - SecurityConfig: JWT/basic auth, rate limiting, CORS
  - LoggingConfig: zerolog level/format/caller settings

# Usage Example

	cfg, err := config.LoadWithKoanf()
	if err != nil {
	    log.Fatalf("Failed to load config: %v", err)
	}
	db, err := database.New(&cfg.Database)

# Validation

Config.Validate() checks, among other things:
  - Every declared channel has a unique id, timezone, and positive grid
  - HORIZON_MIN_EPG_DAYS / HORIZON_MIN_EXECUTION_HOURS are positive
  - JWT_SECRET is set and >=32 chars when AUTH_MODE=jwt
  - AUTH_MODE=none is rejected when ENVIRONMENT=production
  - Wildcard CORS is rejected in production when auth is enabled

# Thread Safety

Config is immutable after LoadWithKoanf() returns, making it safe for
concurrent access from multiple goroutines without synchronization.
*/
package config
