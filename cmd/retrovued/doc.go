// RetroVue - Linear Broadcast Scheduling and Playout Automation
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slbailey/retrovue

/*
Package main is the entry point for retrovued, the RetroVue daemon.

retrovued runs a 24x7 linear broadcast channel lineup: resolving EPG days
from declarative schedule plans, compiling them into segment-level program
logs, late-binding traffic fill into an execution-ready transmission log,
and keeping every configured channel's execution horizon extended far
enough ahead that playout never runs dry.

# Application Architecture

The daemon runs a layered Suture v4 supervisor tree, with one
supervisor.ChannelSupervisor entry per configured channel:

	SupervisorTree ("retrovued")
	├── DataSupervisor ("data-layer")
	├── MessagingSupervisor ("messaging-layer")
	│   └── horizon audit bus consumer (optional, -tags nats)
	├── APISupervisor ("api-layer")
	│   └── HTTP server (operator API + evidence stream)
	└── ChannelSupervisor ("channels")
	    └── one group per channel:
	        ├── Horizon Manager (C6): ExtensionAttempt/SeamViolation evaluation
	        ├── Playlog Horizon Daemon (C5): Tier-1 coverage, Tier-2 fill
	        └── Channel Manager (C-channel): playout command delivery

Component initialization order in cmd/retrovued/main.go:

 1. Configuration: koanf v2, defaults -> YAML file -> RETROVUE_ env vars
 2. Logging: zerolog, JSON or console
 3. Database: DuckDB system of record (schedule plans, compiled logs,
    transmission log, traffic history, horizon audit trail)
 4. Schedule sequence store: BadgerDB-backed per-slot position cursors
 5. Security audit trail: internal/audit, DuckDB-backed
 6. Supervisor tree and channel supervisor
 7. Horizon audit bus (optional, -tags nats): embedded JetStream server,
    stream provisioning, publisher, and DuckDB consumer
 8. Per-channel wiring: one extend.Channel, horizon/manager.Manager,
    horizon/playlog.Daemon, and channel.Manager per entry in
    cfg.Channels.Channels, registered with the channel supervisor
 9. Evidence stream server: .asrun durability and ack tracking
 10. Operator HTTP API: chi router, JWT bearer auth, Prometheus metrics

# Configuration

Configuration is loaded via koanf v2 with layered sources (highest
priority wins):

	Priority: RETROVUE_ environment variables > YAML config file > defaults

See internal/config for the full Config struct and section-by-section
defaults (channels, horizon, playlog, database, WAL, evidence, NATS,
server, API, security, logging).

# Build Tags

	go build ./cmd/retrovued                  # standard build
	go build -tags wal ./cmd/retrovued        # BadgerDB playback-event WAL
	go build -tags nats ./cmd/retrovued       # horizon audit bus over NATS JetStream
	go build -tags "wal,nats" ./cmd/retrovued # both

Without -tags nats, ExtensionAttempt and SeamViolation events are still
evaluated and logged by each channel's Horizon Manager; they are just not
durably recorded to horizon_audit_log, and channels fall back to a no-op
playout command engine instead of publishing over NATS.

# Signal Handling

retrovued handles graceful shutdown on SIGINT and SIGTERM:

 1. Stops accepting new HTTP connections
 2. Cancels the root context, which stops every channel's Horizon
    Manager, Playlog Horizon Daemon, and Channel Manager
 3. Waits up to 30s for the supervisor tree to drain
 4. Reports any services that failed to stop cleanly
 5. Closes the database and BadgerDB sequence store

# See Also

  - internal/config: configuration management
  - internal/supervisor: process supervision, channel supervisor
  - internal/horizon/manager: the Horizon Manager (C6)
  - internal/horizon/playlog: the Playlog Horizon Daemon (C5)
  - internal/api: operator HTTP API handlers and routing
  - cmd/retrovuectl: the operator CLI for this daemon
*/
package main
