// RetroVue - Linear Broadcast Scheduling and Playout Automation
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slbailey/retrovue

// Package database provides the DuckDB-backed system of record for
// RetroVue's scheduling, playout, and reconciliation tables.
//
// # Architecture
//
//   - database.go: connection lifecycle (open, extension preload, close, checkpoint)
//   - schema.go: table/index DDL and extension installation
//   - migrations.go: versioned post-release schema migrations
//   - store.go: typed CRUD and the domain interfaces other packages consume
//     (ResolvedScheduleStore, Tier1Source, Tier2Store, SegmentLookup,
//     TransmissionSource, EpisodeCatalog, AssetLibrary)
//   - query_builder.go / query_helpers.go: parameterized WHERE-clause and
//     row-scan helpers shared across store.go's queries
//   - database_connection.go: connection pool configuration and
//     connection-error classification
//   - errors.go: best-effort resource-close helpers
//
// # Database technology
//
// DuckDB (github.com/duckdb/duckdb-go/v2) via database/sql, chosen for its
// embedded, single-file operation and native JSON column support — the
// segmented-block and resolved-slot columns below are stored as JSON
// rather than normalized, since they are read and written whole by their
// owning component and never queried column-by-column.
//
// # Tables
//
// sources, collections, assets, enrichers: the ingest/enrichment catalog.
// schedule_plans, programs, plan_labels: declarative recurring programming.
// resolved_schedule_days: Tier 0 (EPG), one row per (channel, programming day).
// compiled_program_logs: Tier 1, one row per (channel, broadcast day).
// transmission_log: Tier 2, one row per compiled block — the only table
// the channel manager reads at feed time.
// playlog_events: per-occurrence schedule audit trail.
// traffic_play_log: late-bound ad/interstitial play history for cooldowns.
// horizon_audit_log: sink for the Horizon Manager's ExtensionAttempt/
// SeamViolation audit bus.
package database
