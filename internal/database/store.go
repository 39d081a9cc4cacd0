// RetroVue - Linear Broadcast Scheduling and Playout Automation
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slbailey/retrovue

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/slbailey/retrovue/internal/compiler"
	"github.com/slbailey/retrovue/internal/models"
	"github.com/slbailey/retrovue/internal/schedule"
	"github.com/slbailey/retrovue/internal/traffic"
)

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ResolvedScheduleDayStore is the DuckDB-backed schedule.ResolvedScheduleStore.
// It durably persists what schedule.MemoryStore holds in memory; the two
// are composed by the supervisor (memory store for read-hot-path lookups,
// this store for durability and restart recovery), not layered.
type ResolvedScheduleDayStore struct {
	db *DB
}

func NewResolvedScheduleDayStore(db *DB) *ResolvedScheduleDayStore {
	return &ResolvedScheduleDayStore{db: db}
}

var _ schedule.ResolvedScheduleStore = (*ResolvedScheduleDayStore)(nil)

func (s *ResolvedScheduleDayStore) scanDay(row *sql.Row) (*models.ResolvedScheduleDay, error) {
	var d models.ResolvedScheduleDay
	var slotsJSON, snapshotJSON []byte
	var planID, supersedesID sql.NullString
	if err := row.Scan(&d.ChannelID, &d.ProgrammingDayDate, &slotsJSON, &planID,
		&d.IsManualOverride, &supersedesID, &d.ResolvedAtUTC, &snapshotJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	d.PlanID = planID.String
	d.SupersedesID = supersedesID.String
	if err := json.Unmarshal(slotsJSON, &d.ResolvedSlots); err != nil {
		return nil, fmt.Errorf("unmarshal resolved_slots: %w", err)
	}
	if len(snapshotJSON) > 0 {
		if err := json.Unmarshal(snapshotJSON, &d.SequenceSnapshot); err != nil {
			return nil, fmt.Errorf("unmarshal sequence_snapshot: %w", err)
		}
	}
	return &d, nil
}

func (s *ResolvedScheduleDayStore) Get(channelID string, date time.Time) (*models.ResolvedScheduleDay, error) {
	ctx, cancel := schemaContext()
	defer cancel()
	row := s.db.conn.QueryRowContext(ctx,
		`SELECT channel_id, programming_day_date, resolved_slots, plan_id, is_manual_override,
		        supersedes_id, resolved_at_utc, sequence_snapshot
		 FROM resolved_schedule_days WHERE channel_id = ? AND programming_day_date = ?`,
		channelID, dateOnly(date))
	return s.scanDay(row)
}

func (s *ResolvedScheduleDayStore) Exists(channelID string, date time.Time) bool {
	d, err := s.Get(channelID, date)
	return err == nil && d != nil
}

func (s *ResolvedScheduleDayStore) insertOrReplace(channelID string, day models.ResolvedScheduleDay, replace bool) error {
	slotsJSON, err := json.Marshal(day.ResolvedSlots)
	if err != nil {
		return fmt.Errorf("marshal resolved_slots: %w", err)
	}
	var snapshotJSON []byte
	if day.SequenceSnapshot != nil {
		snapshotJSON, err = json.Marshal(day.SequenceSnapshot)
		if err != nil {
			return fmt.Errorf("marshal sequence_snapshot: %w", err)
		}
	}

	ctx, cancel := schemaContext()
	defer cancel()

	if !replace {
		if s.Exists(channelID, day.ProgrammingDayDate) {
			return schedule.ErrAlreadyExists
		}
	} else if !s.Exists(channelID, day.ProgrammingDayDate) {
		return schedule.ErrNotFound
	}

	_, err = s.db.conn.ExecContext(ctx,
		`INSERT INTO resolved_schedule_days
		   (channel_id, programming_day_date, resolved_slots, plan_id, is_manual_override,
		    supersedes_id, resolved_at_utc, sequence_snapshot)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (channel_id, programming_day_date) DO UPDATE SET
		   resolved_slots = excluded.resolved_slots,
		   plan_id = excluded.plan_id,
		   is_manual_override = excluded.is_manual_override,
		   supersedes_id = excluded.supersedes_id,
		   resolved_at_utc = excluded.resolved_at_utc,
		   sequence_snapshot = excluded.sequence_snapshot`,
		channelID, dateOnly(day.ProgrammingDayDate), slotsJSON, nullableString(day.PlanID),
		day.IsManualOverride, nullableString(day.SupersedesID), day.ResolvedAtUTC, snapshotJSON)
	return err
}

func (s *ResolvedScheduleDayStore) Store(channelID string, day models.ResolvedScheduleDay) error {
	return s.insertOrReplace(channelID, day, false)
}

func (s *ResolvedScheduleDayStore) ForceReplace(channelID string, day models.ResolvedScheduleDay) error {
	return s.insertOrReplace(channelID, day, true)
}

// Update is unconditionally forbidden: INV-SCHEDULEDAY-IMMUTABLE-001.
func (s *ResolvedScheduleDayStore) Update(channelID string, date time.Time, fields map[string]any) error {
	return schedule.ErrImmutable
}

func (s *ResolvedScheduleDayStore) OperatorOverride(channelID string, day models.ResolvedScheduleDay) (models.ResolvedScheduleDay, error) {
	existing, err := s.Get(channelID, day.ProgrammingDayDate)
	if err != nil {
		return models.ResolvedScheduleDay{}, err
	}
	day.IsManualOverride = true
	if existing != nil {
		day.SupersedesID = fmt.Sprintf("%s/%s", channelID, existing.ProgrammingDayDate.Format("2006-01-02"))
		if err := s.ForceReplace(channelID, day); err != nil {
			return models.ResolvedScheduleDay{}, err
		}
		return day, nil
	}
	if err := s.Store(channelID, day); err != nil {
		return models.ResolvedScheduleDay{}, err
	}
	return day, nil
}

func (s *ResolvedScheduleDayStore) Delete(channelID string, date time.Time) error {
	ctx, cancel := schemaContext()
	defer cancel()
	_, err := s.db.conn.ExecContext(ctx,
		`DELETE FROM resolved_schedule_days WHERE channel_id = ? AND programming_day_date = ?`,
		channelID, dateOnly(date))
	return err
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// CompiledLogStore is the DuckDB-backed Tier-1 source: the Playlog Horizon
// Daemon's view of compiled_program_logs.
type CompiledLogStore struct {
	db *DB
}

func NewCompiledLogStore(db *DB) *CompiledLogStore { return &CompiledLogStore{db: db} }

// ForChannel binds channelID, returning a playlog.Tier1Source scoped to
// that channel. The Playlog Horizon Daemon is per-channel and has no
// reason to carry a channel ID on every call.
func (s *CompiledLogStore) ForChannel(channelID string) *ChannelCompiledLogStore {
	return &ChannelCompiledLogStore{store: s, channelID: channelID}
}

// ChannelCompiledLogStore implements playlog.Tier1Source for one channel.
type ChannelCompiledLogStore struct {
	store     *CompiledLogStore
	channelID string
}

// LoadBlocks implements playlog.Tier1Source.
func (c *ChannelCompiledLogStore) LoadBlocks(broadcastDay time.Time) ([]models.ScheduledBlock, bool) {
	return c.store.LoadBlocks(c.channelID, broadcastDay)
}

// LoadBlocks loads one channel's locked Tier 1 row for broadcastDay.
func (s *CompiledLogStore) LoadBlocks(channelID string, broadcastDay time.Time) ([]models.ScheduledBlock, bool) {
	ctx, cancel := schemaContext()
	defer cancel()
	var blocksJSON []byte
	err := s.db.conn.QueryRowContext(ctx,
		`SELECT segmented_blocks FROM compiled_program_logs WHERE channel_id = ? AND broadcast_day = ?`,
		channelID, dateOnly(broadcastDay)).Scan(&blocksJSON)
	if err != nil {
		return nil, false
	}
	var blocks []models.ScheduledBlock
	if err := json.Unmarshal(blocksJSON, &blocks); err != nil {
		return nil, false
	}
	return blocks, true
}

// WriteCompiledLog persists a Tier-1 compiler run's output, called by the
// Tier-1 compiler (C3) once a broadcast day's blocks are finalized.
func (s *CompiledLogStore) WriteCompiledLog(log models.CompiledProgramLog) error {
	blocksJSON, err := json.Marshal(log.SegmentedBlocks)
	if err != nil {
		return fmt.Errorf("marshal segmented_blocks: %w", err)
	}
	ctx, cancel := schemaContext()
	defer cancel()
	_, err = s.db.conn.ExecContext(ctx,
		`INSERT INTO compiled_program_logs (channel_id, broadcast_day, locked, segmented_blocks, compiled_at_utc)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (channel_id, broadcast_day) DO UPDATE SET
		   locked = excluded.locked, segmented_blocks = excluded.segmented_blocks,
		   compiled_at_utc = excluded.compiled_at_utc`,
		log.ChannelID, dateOnly(log.BroadcastDay), log.Locked, blocksJSON, log.CompiledAtUTC)
	return err
}

// TransmissionLogStore is the DuckDB-backed Tier-2 store, read at feed
// time by the channel manager (INV-CHANNEL-NO-COMPILE-001) and written by
// the Playlog Horizon Daemon's late-bound fill.
type TransmissionLogStore struct {
	db *DB
}

func NewTransmissionLogStore(db *DB) *TransmissionLogStore { return &TransmissionLogStore{db: db} }

func (s *TransmissionLogStore) scanRow(rows interface {
	Scan(dest ...any) error
}) (models.TransmissionLog, error) {
	var row models.TransmissionLog
	var segmentsJSON []byte
	if err := rows.Scan(&row.BlockID, &row.ChannelSlug, &row.BroadcastDay,
		&row.StartUTCMS, &row.EndUTCMS, &segmentsJSON); err != nil {
		return row, err
	}
	if err := json.Unmarshal(segmentsJSON, &row.Segments); err != nil {
		return row, fmt.Errorf("unmarshal segments: %w", err)
	}
	return row, nil
}

// BlockExists implements playlog.Tier2Store.
func (s *TransmissionLogStore) BlockExists(blockID string) bool {
	ctx, cancel := schemaContext()
	defer cancel()
	var exists bool
	err := s.db.conn.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM transmission_log WHERE block_id = ?)`, blockID).Scan(&exists)
	return err == nil && exists
}

// RowCoversNow implements playlog.Tier2Store.
func (s *TransmissionLogStore) RowCoversNow(channelID string, nowMS int64) bool {
	ctx, cancel := schemaContext()
	defer cancel()
	var exists bool
	err := s.db.conn.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM transmission_log
		  WHERE channel_slug = ? AND start_utc_ms <= ? AND end_utc_ms > ?)`,
		channelID, nowMS, nowMS).Scan(&exists)
	return err == nil && exists
}

// Write implements playlog.Tier2Store.
func (s *TransmissionLogStore) Write(row models.TransmissionLog) error {
	segmentsJSON, err := json.Marshal(row.Segments)
	if err != nil {
		return fmt.Errorf("marshal segments: %w", err)
	}
	ctx, cancel := schemaContext()
	defer cancel()
	_, err = s.db.conn.ExecContext(ctx,
		`INSERT INTO transmission_log (block_id, channel_slug, broadcast_day, start_utc_ms, end_utc_ms, segments)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (block_id) DO UPDATE SET
		   channel_slug = excluded.channel_slug, broadcast_day = excluded.broadcast_day,
		   start_utc_ms = excluded.start_utc_ms, end_utc_ms = excluded.end_utc_ms,
		   segments = excluded.segments`,
		row.BlockID, row.ChannelSlug, dateOnly(row.BroadcastDay), row.StartUTCMS, row.EndUTCMS, segmentsJSON)
	return err
}

// ListEntries returns every transmission_log row for channelID ordered by
// start_utc_ms, for seeding the Horizon Manager's in-memory execution
// window on startup.
func (s *TransmissionLogStore) ListEntries(channelID string) ([]models.TransmissionLog, error) {
	ctx, cancel := schemaContext()
	defer cancel()
	rows, err := s.db.conn.QueryContext(ctx,
		`SELECT block_id, channel_slug, broadcast_day, start_utc_ms, end_utc_ms, segments
		 FROM transmission_log WHERE channel_slug = ? ORDER BY start_utc_ms ASC`, channelID)
	if err != nil {
		return nil, fmt.Errorf("list transmission_log for channel %s: %w", channelID, err)
	}
	defer rows.Close()

	var entries []models.TransmissionLog
	for rows.Next() {
		tl, err := s.scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transmission_log for channel %s: %w", channelID, err)
		}
		entries = append(entries, tl)
	}
	return entries, rows.Err()
}

// DeleteRange removes every transmission_log row for channelID whose
// start_utc_ms falls in [rangeStartMS, rangeEndMS), for an atomic
// regeneration replace.
func (s *TransmissionLogStore) DeleteRange(channelID string, rangeStartMS, rangeEndMS int64) error {
	ctx, cancel := schemaContext()
	defer cancel()
	_, err := s.db.conn.ExecContext(ctx,
		`DELETE FROM transmission_log WHERE channel_slug = ? AND start_utc_ms >= ? AND start_utc_ms < ?`,
		channelID, rangeStartMS, rangeEndMS)
	return err
}

// RowAt implements channel.TransmissionSource: the single row whose
// [start_utc_ms, end_utc_ms) window contains nowMS.
func (s *TransmissionLogStore) RowAt(channelID string, nowMS int64) (models.TransmissionLog, bool) {
	ctx, cancel := schemaContext()
	defer cancel()
	row := s.db.conn.QueryRowContext(ctx,
		`SELECT block_id, channel_slug, broadcast_day, start_utc_ms, end_utc_ms, segments
		 FROM transmission_log WHERE channel_slug = ? AND start_utc_ms <= ? AND end_utc_ms > ?
		 ORDER BY start_utc_ms DESC LIMIT 1`,
		channelID, nowMS, nowMS)
	tl, err := s.scanRow(row)
	if err != nil {
		return models.TransmissionLog{}, false
	}
	return tl, true
}

// LookupSegment implements evidence.SegmentLookup: the compile-time
// segment metadata (type/asset/title) an evidence segment_end enriches
// itself with, since the wire message only carries frame/timing data.
func (s *TransmissionLogStore) LookupSegment(blockID string, index int) (models.ScheduledSegment, bool) {
	ctx, cancel := schemaContext()
	defer cancel()
	var segmentsJSON []byte
	err := s.db.conn.QueryRowContext(ctx,
		`SELECT segments FROM transmission_log WHERE block_id = ?`, blockID).Scan(&segmentsJSON)
	if err != nil {
		return models.ScheduledSegment{}, false
	}
	var segments []models.ScheduledSegment
	if err := json.Unmarshal(segmentsJSON, &segments); err != nil {
		return models.ScheduledSegment{}, false
	}
	if index < 0 || index >= len(segments) {
		return models.ScheduledSegment{}, false
	}
	return segments[index], true
}

// AssetStore is the DuckDB-backed asset catalog: the traffic manager's
// AssetLibrary and the schedule manager's EpisodeCatalog both draw
// candidates from the assets table.
type AssetStore struct {
	db *DB
}

func NewAssetStore(db *DB) *AssetStore { return &AssetStore{db: db} }

// GetFillerAssets implements traffic.AssetLibrary: up to count
// schedulable assets no longer than maxDurationMS, shortest first so the
// traffic manager's break-filling greedy pass converges quickly.
func (s *AssetStore) GetFillerAssets(maxDurationMS int64, count int) []traffic.FillerAsset {
	ctx, cancel := schemaContext()
	defer cancel()
	rows, err := s.db.conn.QueryContext(ctx,
		`SELECT canonical_key, duration_ms, state FROM assets
		 WHERE state = 'ready' AND approved_for_broadcast = true AND is_deleted = false
		   AND duration_ms > 0 AND duration_ms <= ?
		 ORDER BY duration_ms ASC LIMIT ?`,
		maxDurationMS, count)
	if err != nil {
		return nil
	}
	defer rows.Close()

	var candidates []traffic.FillerAsset
	for rows.Next() {
		var uri string
		var durationMS int64
		var state string
		if err := rows.Scan(&uri, &durationMS, &state); err != nil {
			continue
		}
		candidates = append(candidates, traffic.FillerAsset{AssetURI: uri, DurationMS: durationMS})
	}
	return candidates
}

// Episodes implements schedule.EpisodeCatalog for ContentAsset references
// (a single-element slice) and ContentSeries references (every ready
// asset in the named collection, in canonical_key order).
func (s *AssetStore) Episodes(contentRef string) ([]string, error) {
	ctx, cancel := schemaContext()
	defer cancel()

	var isCollection bool
	if err := s.db.conn.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM collections WHERE id = ?)`, contentRef).Scan(&isCollection); err != nil {
		return nil, err
	}
	if !isCollection {
		return []string{contentRef}, nil
	}

	rows, err := s.db.conn.QueryContext(ctx,
		`SELECT canonical_key FROM assets
		 WHERE collection_id = ? AND state = 'ready' AND is_deleted = false
		 ORDER BY canonical_key ASC`, contentRef)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var episodes []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		episodes = append(episodes, key)
	}
	return episodes, rows.Err()
}

// GetEpisode resolves ref (a canonical_key) into a compiler.AssetEpisode:
// the duration and break markers the Tier-1 compiler needs to lay out a
// slot's segments. Used as the episodeLookup passed to
// compiler.CompileScheduleDay.
func (s *AssetStore) GetEpisode(ref string) (compiler.AssetEpisode, bool) {
	ctx, cancel := schemaContext()
	defer cancel()
	var durationMS int64
	var markersJSON []byte
	err := s.db.conn.QueryRowContext(ctx,
		`SELECT duration_ms, markers FROM assets
		 WHERE canonical_key = ? AND state = 'ready' AND is_deleted = false`, ref).Scan(&durationMS, &markersJSON)
	if err != nil {
		return compiler.AssetEpisode{}, false
	}
	var markers []int64
	if len(markersJSON) > 0 {
		if err := json.Unmarshal(markersJSON, &markers); err != nil {
			return compiler.AssetEpisode{}, false
		}
	}
	return compiler.AssetEpisode{AssetURI: ref, DurationMS: durationMS, BreakMarkersMS: markers}, true
}

// PlaylogEventStore records and queries the per-occurrence schedule audit
// trail used by operator reconciliation tooling.
type PlaylogEventStore struct {
	db *DB
}

func NewPlaylogEventStore(db *DB) *PlaylogEventStore { return &PlaylogEventStore{db: db} }

func (s *PlaylogEventStore) Insert(ctx context.Context, e models.PlaylogEvent) error {
	_, err := s.db.conn.ExecContext(ctx,
		`INSERT INTO playlog_events (uuid, channel_id, schedule_day_id, asset_uuid, start_utc, end_utc, broadcast_day)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.UUID, e.ChannelID, e.ScheduleDayID, e.AssetUUID, e.StartUTC, e.EndUTC, e.BroadcastDay)
	return err
}

func (s *PlaylogEventStore) Query(ctx context.Context, filter PlaylogEventFilter) ([]models.PlaylogEvent, error) {
	qb := newQueryBuilder(`SELECT uuid, channel_id, schedule_day_id, asset_uuid, start_utc, end_utc, broadcast_day
	                        FROM playlog_events WHERE 1=1`)
	qb.addStandardFilters(filter)
	query, args := qb.build("ORDER BY start_utc ASC")

	return queryAndScan(ctx, s.db.conn, query, args, func(rows *sql.Rows) (models.PlaylogEvent, error) {
		var e models.PlaylogEvent
		err := rows.Scan(&e.UUID, &e.ChannelID, &e.ScheduleDayID, &e.AssetUUID, &e.StartUTC, &e.EndUTC, &e.BroadcastDay)
		return e, err
	})
}

// TrafficPlayLogStore is the DuckDB-backed traffic.CooldownChecker: it
// records each late-bound fill's actual air time and answers whether an
// asset is still within its cooldown window for a channel.
type TrafficPlayLogStore struct {
	db            *DB
	cooldownSince time.Duration
}

func NewTrafficPlayLogStore(db *DB, cooldownSince time.Duration) *TrafficPlayLogStore {
	return &TrafficPlayLogStore{db: db, cooldownSince: cooldownSince}
}

var _ traffic.CooldownChecker = (*TrafficPlayLogStore)(nil)

// RecordPlay persists one traffic.RecordPlay result.
func (s *TrafficPlayLogStore) RecordPlay(ctx context.Context, play models.TrafficPlayLog) error {
	playedAt := play.PlayedAt
	if playedAt.IsZero() {
		playedAt = time.Now().UTC()
	}
	_, err := s.db.conn.ExecContext(ctx,
		`INSERT INTO traffic_play_log (asset_uri, channel_id, played_at, block_id) VALUES (?, ?, ?, ?)`,
		play.AssetURI, play.ChannelID, playedAt, play.BlockID)
	return err
}

// InCooldown implements traffic.CooldownChecker.
func (s *TrafficPlayLogStore) InCooldown(channelID, assetURI string) bool {
	ctx, cancel := schemaContext()
	defer cancel()
	var exists bool
	err := s.db.conn.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM traffic_play_log
		  WHERE channel_id = ? AND asset_uri = ? AND played_at >= ?)`,
		channelID, assetURI, time.Now().UTC().Add(-s.cooldownSince)).Scan(&exists)
	return err == nil && exists
}

// HorizonAuditStore is the DuckDB-backed sink for horizon_audit_log: the
// durable record of ExtensionAttempt and SeamViolation events consumed off
// the horizon audit bus (internal/eventprocessor). It satisfies
// eventprocessor.HorizonAuditInserter and eventprocessor.BatchHorizonAuditInserter
// structurally; eventprocessor is built under the "nats" tag and this package
// is not, so the relationship is duck-typed rather than a compile-time
// assertion to avoid forcing the build tag onto internal/database.
type HorizonAuditStore struct {
	db *DB
}

func NewHorizonAuditStore(db *DB) *HorizonAuditStore { return &HorizonAuditStore{db: db} }

// InsertHorizonAuditRow inserts a single horizon audit row.
func (s *HorizonAuditStore) InsertHorizonAuditRow(row models.HorizonAuditRow) error {
	ctx, cancel := schemaContext()
	defer cancel()
	return s.insertRow(ctx, s.db.conn, row)
}

// InsertHorizonAuditRowsBatch atomically inserts a batch of rows in a single
// transaction; either all rows land or none do.
func (s *HorizonAuditStore) InsertHorizonAuditRowsBatch(ctx context.Context, rows []models.HorizonAuditRow) (inserted int, err error) {
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := s.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() // no-op after Commit

	for i, row := range rows {
		if err := s.insertRow(ctx, tx, row); err != nil {
			return 0, fmt.Errorf("insert row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	return len(rows), nil
}

type sqlExecer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func (s *HorizonAuditStore) insertRow(ctx context.Context, execer sqlExecer, row models.HorizonAuditRow) error {
	recordedAt := row.RecordedAtUTC
	if recordedAt.IsZero() {
		recordedAt = time.Now().UTC()
	}
	_, err := execer.ExecContext(ctx,
		`INSERT INTO horizon_audit_log (channel_id, event_type, broadcast_day, frontier_utc_ms, reason_code, detail, recorded_at_utc)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		row.ChannelID, row.EventType, nullableDate(row.BroadcastDay), row.FrontierUTCMS, row.ReasonCode, []byte(row.Detail), recordedAt)
	return err
}

// nullableDate converts an empty YYYY-MM-DD string to nil so the column
// stores SQL NULL instead of DuckDB rejecting an empty date literal.
func nullableDate(broadcastDay string) interface{} {
	if broadcastDay == "" {
		return nil
	}
	return broadcastDay
}
