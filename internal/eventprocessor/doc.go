// RetroVue - Linear Broadcast Scheduling and Playout Automation
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slbailey/retrovue

// Package eventprocessor distributes horizon audit events (ExtensionAttempt
// and SeamViolation) from the Horizon Manager to durable storage and any
// other interested consumer, using Watermill over NATS JetStream with a
// DuckDB-backed sink.
//
// # Architecture
//
// The Horizon Manager publishes one HorizonAuditEvent per extension attempt
// or seam violation it records. Events flow through a JetStream stream
// (subjects "horizon.<channel_id>.<event_type>") so that the publisher and
// the durable writer can run at different paces without losing events:
//
//	┌────────────────┐   publish    ┌─────────────────┐   consume    ┌──────────────┐
//	│ Horizon Manager │ ───────────► │  NATS JetStream  │ ───────────► │ DuckDBConsumer│
//	│ (ExtensionAttempt│             │ (HORIZON_AUDIT)  │              │  / Appender  │
//	│  / SeamViolation)│             └─────────────────┘              └──────┬───────┘
//	└────────────────┘                                                       │
//	                                                                          ▼
//	                                                                   horizon_audit_log
//
// # Key Components
//
//   - EmbeddedServer: Optional embedded NATS JetStream server for single-instance deployments
//   - Publisher: Watermill publisher with circuit breaker and reconnection handling
//   - Subscriber: Durable JetStream consumer with exactly-once delivery
//   - DuckDBConsumer: Event consumer with EventID deduplication
//   - Appender: Batch appender for high-throughput writes to horizon_audit_log
//   - Router: Watermill Router with retry, panic recovery, and poison queue middleware
//
// # Usage Example
//
//	server, err := eventprocessor.NewEmbeddedServer(eventprocessor.DefaultServerConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer server.Shutdown(ctx)
//
//	pub, err := eventprocessor.NewPublisher(
//	    eventprocessor.DefaultPublisherConfig(server.ClientURL()),
//	    nil, // logger
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer pub.Close()
//
//	event := eventprocessor.NewExtensionAttemptEvent("ch1", "2026-08-01", frontierMS, "NO_CONTENT", nil)
//	pub.PublishEvent(ctx, event)
//
// # Configuration
//
// The package uses configuration structs with sensible defaults:
//
//	cfg := eventprocessor.DefaultNATSConfig()
//	cfg.StoreDir = "/data/nats/jetstream"
//	cfg.MaxMemory = 1 << 30 // 1GB
//
// # Relationship to internal/audit
//
// This package is unrelated to internal/audit: internal/audit is a local
// security/admin audit trail persisted to its own audit_events table;
// eventprocessor distributes the Horizon Manager's own extension and seam
// events and persists them to horizon_audit_log.
package eventprocessor
