// RetroVue - Linear Broadcast Scheduling and Playout Automation
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slbailey/retrovue

package database

import (
	"os"
	"path/filepath"
)

// isExtensionInstalledLocally checks the DuckDB extension cache directory
// rather than attempting a network install, so preload never blocks on
// connectivity in an offline deployment.
func isExtensionInstalledLocally(name string) bool {
	home, err := os.UserHomeDir()
	if err != nil {
		return false
	}
	candidates := []string{
		filepath.Join(home, ".duckdb", "extensions"),
	}
	for _, base := range candidates {
		matches, _ := filepath.Glob(filepath.Join(base, "*", "*", name+".duckdb_extension"))
		if len(matches) > 0 {
			return true
		}
	}
	return false
}

// installExtensions loads the extensions RetroVue's schema depends on:
// ICU for TIMESTAMPTZ defaults and timezone-aware comparisons, JSON for
// the JSON-typed config/segment columns below.
func (db *DB) installExtensions() error {
	ctx, cancel := schemaContext()
	defer cancel()
	for _, ext := range []string{"icu", "json"} {
		if _, err := db.conn.ExecContext(ctx, "INSTALL "+ext+";"); err != nil {
			continue // offline environments rely on preloadExtensions' local cache
		}
		if _, err := db.conn.ExecContext(ctx, "LOAD "+ext+";"); err != nil {
			continue
		}
	}
	return nil
}

const createTablesSQL = `
CREATE TABLE IF NOT EXISTS sources (
	id TEXT PRIMARY KEY,
	type TEXT NOT NULL,
	name TEXT NOT NULL,
	config JSON NOT NULL,
	enricher_ids JSON
);

CREATE TABLE IF NOT EXISTS collections (
	id TEXT PRIMARY KEY,
	source_id TEXT NOT NULL REFERENCES sources(id),
	name TEXT NOT NULL,
	sync_enabled BOOLEAN NOT NULL DEFAULT true,
	ingestible BOOLEAN NOT NULL DEFAULT true
);

CREATE TABLE IF NOT EXISTS assets (
	id TEXT PRIMARY KEY,
	canonical_key TEXT NOT NULL,
	sha256_hex TEXT NOT NULL,
	state TEXT NOT NULL,
	approved_for_broadcast BOOLEAN NOT NULL DEFAULT false,
	is_deleted BOOLEAN NOT NULL DEFAULT false,
	deleted_at TIMESTAMPTZ,
	duration_ms BIGINT NOT NULL DEFAULT 0,
	markers JSON,
	collection_id TEXT REFERENCES collections(id)
);

CREATE TABLE IF NOT EXISTS enrichers (
	id TEXT PRIMARY KEY,
	type TEXT NOT NULL,
	scope TEXT NOT NULL,
	name TEXT NOT NULL,
	config JSON NOT NULL
);

CREATE TABLE IF NOT EXISTS schedule_plans (
	id TEXT PRIMARY KEY,
	channel_id TEXT NOT NULL,
	name TEXT NOT NULL,
	priority INTEGER NOT NULL DEFAULT 0,
	recurrence JSON NOT NULL
);

CREATE TABLE IF NOT EXISTS programs (
	plan_id TEXT NOT NULL REFERENCES schedule_plans(id),
	ordinal INTEGER NOT NULL,
	start_minutes INTEGER NOT NULL,
	duration_minutes INTEGER NOT NULL,
	content_type TEXT NOT NULL,
	content_ref TEXT NOT NULL,
	label TEXT,
	play_mode TEXT,
	PRIMARY KEY (plan_id, ordinal)
);

CREATE TABLE IF NOT EXISTS plan_labels (
	plan_id TEXT NOT NULL REFERENCES schedule_plans(id),
	name TEXT NOT NULL,
	ref TEXT NOT NULL,
	PRIMARY KEY (plan_id, name)
);

CREATE TABLE IF NOT EXISTS resolved_schedule_days (
	channel_id TEXT NOT NULL,
	programming_day_date DATE NOT NULL,
	resolved_slots JSON NOT NULL,
	plan_id TEXT,
	is_manual_override BOOLEAN NOT NULL DEFAULT false,
	supersedes_id TEXT,
	resolved_at_utc TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
	sequence_snapshot JSON,
	PRIMARY KEY (channel_id, programming_day_date)
);

CREATE TABLE IF NOT EXISTS compiled_program_logs (
	channel_id TEXT NOT NULL,
	broadcast_day DATE NOT NULL,
	locked BOOLEAN NOT NULL DEFAULT false,
	segmented_blocks JSON NOT NULL,
	compiled_at_utc TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (channel_id, broadcast_day)
);

CREATE TABLE IF NOT EXISTS transmission_log (
	block_id TEXT PRIMARY KEY,
	channel_slug TEXT NOT NULL,
	broadcast_day DATE NOT NULL,
	start_utc_ms BIGINT NOT NULL,
	end_utc_ms BIGINT NOT NULL,
	segments JSON NOT NULL
);

CREATE TABLE IF NOT EXISTS playlog_events (
	uuid TEXT PRIMARY KEY,
	channel_id TEXT NOT NULL,
	schedule_day_id TEXT NOT NULL,
	asset_uuid TEXT NOT NULL,
	start_utc TIMESTAMPTZ NOT NULL,
	end_utc TIMESTAMPTZ NOT NULL,
	broadcast_day TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS traffic_play_log (
	asset_uri TEXT NOT NULL,
	channel_id TEXT NOT NULL,
	played_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
	block_id TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS horizon_audit_log (
	id BIGINT PRIMARY KEY DEFAULT nextval('horizon_audit_log_seq'),
	channel_id TEXT NOT NULL,
	event_type TEXT NOT NULL,
	broadcast_day DATE,
	frontier_utc_ms BIGINT,
	reason_code TEXT,
	detail JSON,
	recorded_at_utc TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()
	if _, err := db.conn.ExecContext(ctx, "CREATE SEQUENCE IF NOT EXISTS horizon_audit_log_seq;"); err != nil {
		return err
	}
	_, err := db.conn.ExecContext(ctx, createTablesSQL)
	return err
}

const createIndexesSQL = `
CREATE INDEX IF NOT EXISTS idx_collections_source ON collections(source_id);
CREATE INDEX IF NOT EXISTS idx_assets_collection ON assets(collection_id);
CREATE INDEX IF NOT EXISTS idx_assets_canonical_key ON assets(canonical_key);
CREATE INDEX IF NOT EXISTS idx_schedule_plans_channel ON schedule_plans(channel_id);
CREATE INDEX IF NOT EXISTS idx_resolved_days_channel ON resolved_schedule_days(channel_id);
CREATE INDEX IF NOT EXISTS idx_compiled_logs_channel ON compiled_program_logs(channel_id);
CREATE INDEX IF NOT EXISTS idx_transmission_log_channel ON transmission_log(channel_slug, start_utc_ms);
CREATE INDEX IF NOT EXISTS idx_playlog_events_channel ON playlog_events(channel_id, start_utc);
CREATE INDEX IF NOT EXISTS idx_traffic_play_log_asset ON traffic_play_log(channel_id, asset_uri, played_at);
CREATE INDEX IF NOT EXISTS idx_horizon_audit_channel ON horizon_audit_log(channel_id, recorded_at_utc);
`

func (db *DB) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()
	_, err := db.conn.ExecContext(ctx, createIndexesSQL)
	return err
}
