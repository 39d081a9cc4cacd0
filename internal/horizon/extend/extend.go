// RetroVue - Linear Broadcast Scheduling and Playout Automation
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slbailey/retrovue

// Package extend composes the EPG resolution pipeline (C1 schedule.Manager),
// the Tier-1 compiler (C3), and late-bound traffic fill (C4) behind the
// three narrow interfaces the Horizon Manager (C6) depends on:
// manager.ScheduleExtender, manager.ExecutionExtender, and
// manager.ExecutionWindowStore. Grounded on original_source's
// horizon_manager.py, whose ScheduleExtender/ExecutionExtender Protocols
// document this exact seam ("Concrete adapters wrap ScheduleManager /
// run_planning_pipeline behind this interface") but leave
// run_planning_pipeline itself undefined in the reference implementation;
// this package is that adapter, one instance per channel.
package extend

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/slbailey/retrovue/internal/compiler"
	"github.com/slbailey/retrovue/internal/horizon/manager"
	"github.com/slbailey/retrovue/internal/models"
	"github.com/slbailey/retrovue/internal/schedule"
	"github.com/slbailey/retrovue/internal/traffic"
)

// PlanCatalog is the declarative programming source a Channel's extender
// consults to pick which SchedulePlan governs a broadcast date. Satisfied
// by *database.SchedulePlanStore.
type PlanCatalog interface {
	ListByChannel(channelID string) ([]models.SchedulePlan, error)
}

// EpisodeLookup resolves a resolved slot's asset reference to the
// duration/break-marker metadata the Tier-1 compiler needs. Satisfied by
// (*database.AssetStore).GetEpisode.
type EpisodeLookup func(ref string) (compiler.AssetEpisode, bool)

// DurableTransmissionStore is the subset of database.TransmissionLogStore
// a Channel needs for write-through durability of its execution window.
type DurableTransmissionStore interface {
	ListEntries(channelID string) ([]models.TransmissionLog, error)
	Write(row models.TransmissionLog) error
	DeleteRange(channelID string, rangeStartMS, rangeEndMS int64) error
}

// CompiledLogWriter persists one Tier-1 compile run's output. Satisfied by
// *database.CompiledLogStore.
type CompiledLogWriter interface {
	WriteCompiledLog(log models.CompiledProgramLog) error
}

// Config tunes one channel's Channel adapter.
type Config struct {
	DayStartHour           int
	StaticFillerURI        string
	StaticFillerDurationMS int64
}

// Channel is one channel's manager.ScheduleExtender, manager.
// ExecutionExtender, and manager.ExecutionWindowStore: it resolves EPG
// days, compiles and late-binds them into Tier-2 rows, and keeps an
// in-memory, write-through view of that channel's execution horizon for
// the Horizon Manager's frequent seam/coverage checks.
//
// ExtendExecutionDay computes rows but does not persist them; they are
// held in a pending buffer keyed by block ID until PublishAtomicReplace
// (called by the Horizon Manager immediately afterward) durably writes
// them in the same operation that clears the superseded range. This
// avoids a window where freshly computed rows exist only to be deleted by
// the range replace that was meant to publish them.
type Channel struct {
	channelID string
	cfg       Config

	plans    PlanCatalog
	schedule *schedule.Manager
	resolved schedule.ResolvedScheduleStore

	compiledLogs  CompiledLogWriter
	transmissions DurableTransmissionStore
	episodes      EpisodeLookup
	library       traffic.AssetLibrary // nil means v1 static-filler behavior

	log zerolog.Logger

	mu      sync.Mutex
	entries []manager.ExecutionEntry
	pending map[string]models.TransmissionLog
}

// New constructs one channel's extension adapter, seeding its in-memory
// execution window from transmissions' existing rows. library may be nil,
// in which case every break plays cfg.StaticFillerURI.
func New(channelID string, cfg Config, plans PlanCatalog, scheduleMgr *schedule.Manager, resolved schedule.ResolvedScheduleStore,
	compiledLogs CompiledLogWriter, transmissions DurableTransmissionStore, episodes EpisodeLookup, library traffic.AssetLibrary, log zerolog.Logger) (*Channel, error) {
	rows, err := transmissions.ListEntries(channelID)
	if err != nil {
		return nil, fmt.Errorf("seed execution window for channel %s: %w", channelID, err)
	}
	entries := make([]manager.ExecutionEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, manager.ExecutionEntry{BlockID: row.BlockID, StartUTCMS: row.StartUTCMS, EndUTCMS: row.EndUTCMS})
	}

	return &Channel{
		channelID:     channelID,
		cfg:           cfg,
		plans:         plans,
		schedule:      scheduleMgr,
		resolved:      resolved,
		compiledLogs:  compiledLogs,
		transmissions: transmissions,
		episodes:      episodes,
		library:       library,
		log:           log,
		entries:       entries,
		pending:       make(map[string]models.TransmissionLog),
	}, nil
}

var (
	_ manager.ScheduleExtender     = (*Channel)(nil)
	_ manager.ExecutionExtender    = (*Channel)(nil)
	_ manager.ExecutionWindowStore = (*Channel)(nil)
)

// EPGDayExists implements manager.ScheduleExtender.
func (c *Channel) EPGDayExists(broadcastDate time.Time) bool {
	return c.resolved.Exists(c.channelID, broadcastDate)
}

// ExtendEPGDay implements manager.ScheduleExtender: pick the governing
// plan, render its Programs into slots anchored at broadcastDate, and
// resolve them through schedule.Manager.
func (c *Channel) ExtendEPGDay(broadcastDate time.Time) error {
	plans, err := c.plans.ListByChannel(c.channelID)
	if err != nil {
		return fmt.Errorf("list schedule plans for channel %s: %w", c.channelID, err)
	}

	plan, ok := schedule.SelectGoverningPlan(plans, broadcastDate)
	if !ok {
		return fmt.Errorf("no schedule plan governs channel %s on %s", c.channelID, broadcastDate.Format("2006-01-02"))
	}

	slots := schedule.RenderSlots(*plan, broadcastDate, c.cfg.DayStartHour)
	day, err := c.schedule.ResolveDay(c.channelID, broadcastDate, slots, plan.ID)
	if err != nil {
		return fmt.Errorf("resolve schedule day for channel %s on %s: %w", c.channelID, broadcastDate.Format("2006-01-02"), err)
	}

	if err := c.resolved.Store(c.channelID, day); err != nil {
		return fmt.Errorf("store resolved schedule day for channel %s on %s: %w", c.channelID, broadcastDate.Format("2006-01-02"), err)
	}
	return nil
}

// ExtendExecutionDay implements manager.ExecutionExtender: compile the
// already-resolved EPG day into Tier-1 blocks and late-bind every break
// through traffic fill. The resulting rows are held pending until
// PublishAtomicReplace durably writes them.
func (c *Channel) ExtendExecutionDay(broadcastDate time.Time) (manager.ExecutionResult, error) {
	day, err := c.resolved.Get(c.channelID, broadcastDate)
	if err != nil {
		return manager.ExecutionResult{}, fmt.Errorf("get resolved schedule day for channel %s on %s: %w", c.channelID, broadcastDate.Format("2006-01-02"), err)
	}
	if day == nil {
		return manager.ExecutionResult{}, fmt.Errorf("no resolved schedule day for channel %s on %s, ExtendEPGDay must run first", c.channelID, broadcastDate.Format("2006-01-02"))
	}

	compiled := compiler.CompileScheduleDay(*day, c.cfg.DayStartHour, func(ref string) (compiler.AssetEpisode, bool) {
		return c.episodes(ref)
	})
	compiled.CompiledAtUTC = time.Now().UTC()

	if err := c.compiledLogs.WriteCompiledLog(compiled); err != nil {
		return manager.ExecutionResult{}, fmt.Errorf("write compiled log for channel %s on %s: %w", c.channelID, broadcastDate.Format("2006-01-02"), err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entries := make([]manager.ExecutionEntry, 0, len(compiled.SegmentedBlocks))
	var windowEndMS int64
	for _, block := range compiled.SegmentedBlocks {
		filled := traffic.FillAdBlocks(block, c.cfg.StaticFillerURI, c.cfg.StaticFillerDurationMS, c.library)

		c.pending[filled.BlockID] = models.TransmissionLog{
			BlockID:      filled.BlockID,
			ChannelSlug:  c.channelID,
			BroadcastDay: day.ProgrammingDayDate,
			StartUTCMS:   filled.StartUTCMS,
			EndUTCMS:     filled.EndUTCMS,
			Segments:     filled.Segments,
		}
		entries = append(entries, manager.ExecutionEntry{BlockID: filled.BlockID, StartUTCMS: filled.StartUTCMS, EndUTCMS: filled.EndUTCMS})
		if filled.EndUTCMS > windowEndMS {
			windowEndMS = filled.EndUTCMS
		}
	}

	c.log.Info().Str("channel_id", c.channelID).Str("broadcast_day", broadcastDate.Format("2006-01-02")).
		Int("blocks", len(entries)).Msg("extend: execution day compiled and filled, pending publish")

	return manager.ExecutionResult{EndUTCMS: windowEndMS, Entries: entries}, nil
}

// GetEntryAt implements manager.ExecutionWindowStore.
func (c *Channel) GetEntryAt(nowMS int64) *manager.ExecutionEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.entries {
		if c.entries[i].StartUTCMS <= nowMS && nowMS < c.entries[i].EndUTCMS {
			e := c.entries[i]
			return &e
		}
	}
	return nil
}

// GetAllEntries implements manager.ExecutionWindowStore, sorted by
// StartUTCMS.
func (c *Channel) GetAllEntries() []manager.ExecutionEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]manager.ExecutionEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

// AddEntries implements manager.ExecutionWindowStore by durably writing
// any of entries still held pending from ExtendExecutionDay, then
// refreshing the in-memory view.
func (c *Channel) AddEntries(entries []manager.ExecutionEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flushPendingLocked(entries)
	c.entries = append(c.entries, entries...)
	sort.Slice(c.entries, func(i, j int) bool { return c.entries[i].StartUTCMS < c.entries[j].StartUTCMS })
}

// PublishAtomicReplace implements manager.ExecutionWindowStore: durably
// writes newEntries' pending rows, deletes every durable and in-memory
// entry in [rangeStartMS, rangeEndMS) that newEntries didn't just
// replace, and splices newEntries into the in-memory view.
func (c *Channel) PublishAtomicReplace(rangeStartMS, rangeEndMS int64, newEntries []manager.ExecutionEntry, generationID int64, reasonCode string) manager.PublishResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	published := make(map[string]bool, len(newEntries))
	for _, e := range newEntries {
		published[e.BlockID] = true
	}

	if err := c.transmissions.DeleteRange(c.channelID, rangeStartMS, rangeEndMS); err != nil {
		return manager.PublishResult{OK: false, ErrorCode: "DELETE_RANGE_FAILED"}
	}
	c.flushPendingLocked(newEntries)

	kept := c.entries[:0:0]
	for _, e := range c.entries {
		if e.StartUTCMS < rangeStartMS || e.StartUTCMS >= rangeEndMS || published[e.BlockID] {
			kept = append(kept, e)
		}
	}
	c.entries = append(kept, newEntries...)
	sort.Slice(c.entries, func(i, j int) bool { return c.entries[i].StartUTCMS < c.entries[j].StartUTCMS })

	c.log.Info().Str("channel_id", c.channelID).Int64("generation_id", generationID).Str("reason_code", reasonCode).
		Int64("range_start_ms", rangeStartMS).Int64("range_end_ms", rangeEndMS).Msg("extend: execution window published")

	return manager.PublishResult{OK: true}
}

// flushPendingLocked durably writes any of entries' rows still held in
// c.pending and removes them from the buffer. Entries already durable
// (not found in pending, e.g. pre-existing rows passed through AddEntries
// at startup) are left untouched. c.mu must be held.
func (c *Channel) flushPendingLocked(entries []manager.ExecutionEntry) {
	for _, e := range entries {
		row, ok := c.pending[e.BlockID]
		if !ok {
			continue
		}
		if err := c.transmissions.Write(row); err != nil {
			c.log.Error().Err(err).Str("block_id", e.BlockID).Msg("extend: failed to durably write transmission log row")
			continue
		}
		delete(c.pending, e.BlockID)
	}
}
