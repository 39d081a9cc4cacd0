// RetroVue - Linear Broadcast Scheduling and Playout Automation
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slbailey/retrovue

//go:build integration

package database

import (
	"context"
	"testing"
	"time"

	"github.com/slbailey/retrovue/internal/config"
	"github.com/slbailey/retrovue/internal/models"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(&config.DatabaseConfig{
		Path:                   ":memory:",
		MaxMemory:              "512MB",
		Threads:                1,
		PreserveInsertionOrder: true,
	})
	if err != nil {
		t.Fatalf("open in-memory database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestChannelCompiledLogStore_LoadBlocks(t *testing.T) {
	db := openTestDB(t)
	store := NewCompiledLogStore(db)
	channelView := store.ForChannel("ch1")

	day := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	if _, ok := channelView.LoadBlocks(day); ok {
		t.Fatal("expected no compiled log before it is written")
	}

	log := models.CompiledProgramLog{
		ChannelID:    "ch1",
		BroadcastDay: day,
		Locked:       true,
		SegmentedBlocks: []models.ScheduledBlock{
			{
				BlockID:    "ch1-0600",
				ChannelID:  "ch1",
				StartUTCMS: 1000,
				EndUTCMS:   2000,
				Segments: []models.ScheduledSegment{
					{SegmentType: models.SegmentContent, AssetURI: "asset://ep1", SegmentDurationMS: 1000},
				},
			},
		},
		CompiledAtUTC: time.Now().UTC(),
	}
	if err := store.WriteCompiledLog(log); err != nil {
		t.Fatalf("write compiled log: %v", err)
	}

	blocks, ok := channelView.LoadBlocks(day)
	if !ok {
		t.Fatal("expected compiled log after it is written")
	}
	if len(blocks) != 1 || blocks[0].BlockID != "ch1-0600" {
		t.Fatalf("unexpected blocks: %+v", blocks)
	}
	if blocks[0].Segments[0].AssetURI != "asset://ep1" {
		t.Fatalf("unexpected segment: %+v", blocks[0].Segments[0])
	}

	// A second write with the same (channel_id, broadcast_day) replaces the row.
	log.SegmentedBlocks[0].Segments[0].AssetURI = "asset://ep2"
	if err := store.WriteCompiledLog(log); err != nil {
		t.Fatalf("overwrite compiled log: %v", err)
	}
	blocks, ok = channelView.LoadBlocks(day)
	if !ok || blocks[0].Segments[0].AssetURI != "asset://ep2" {
		t.Fatalf("expected overwrite to replace segment, got: %+v", blocks)
	}
}

func TestHorizonAuditStore_InsertHorizonAuditRow(t *testing.T) {
	db := openTestDB(t)
	store := NewHorizonAuditStore(db)

	row := models.HorizonAuditRow{
		ChannelID:     "ch1",
		EventType:     "ExtensionAttempt",
		BroadcastDay:  "2026-08-01",
		FrontierUTCMS: 123456789,
		ReasonCode:    "min_execution_hours",
		Detail:        []byte(`{"extended_hours":6}`),
	}
	if err := store.InsertHorizonAuditRow(row); err != nil {
		t.Fatalf("insert row: %v", err)
	}

	var count int
	if err := db.Conn().QueryRow(
		`SELECT COUNT(*) FROM horizon_audit_log WHERE channel_id = ? AND event_type = ?`,
		"ch1", "ExtensionAttempt").Scan(&count); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 row, got %d", count)
	}
}

func TestHorizonAuditStore_InsertHorizonAuditRowsBatch(t *testing.T) {
	db := openTestDB(t)
	store := NewHorizonAuditStore(db)
	ctx := context.Background()

	rows := []models.HorizonAuditRow{
		{ChannelID: "ch1", EventType: "ExtensionAttempt", ReasonCode: "min_execution_hours"},
		{ChannelID: "ch1", EventType: "SeamViolation", ReasonCode: "gap_at_frontier"},
		{ChannelID: "ch2", EventType: "ExtensionAttempt", ReasonCode: "min_epg_days"},
	}

	inserted, err := store.InsertHorizonAuditRowsBatch(ctx, rows)
	if err != nil {
		t.Fatalf("insert batch: %v", err)
	}
	if inserted != len(rows) {
		t.Fatalf("expected %d inserted, got %d", len(rows), inserted)
	}

	var count int
	if err := db.Conn().QueryRowContext(ctx, `SELECT COUNT(*) FROM horizon_audit_log`).Scan(&count); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if count != len(rows) {
		t.Fatalf("expected %d rows, got %d", len(rows), count)
	}
}

func TestHorizonAuditStore_InsertHorizonAuditRowsBatch_Empty(t *testing.T) {
	db := openTestDB(t)
	store := NewHorizonAuditStore(db)

	inserted, err := store.InsertHorizonAuditRowsBatch(context.Background(), nil)
	if err != nil {
		t.Fatalf("insert empty batch: %v", err)
	}
	if inserted != 0 {
		t.Fatalf("expected 0 inserted for empty batch, got %d", inserted)
	}
}
