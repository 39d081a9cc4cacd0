// RetroVue - Linear Broadcast Scheduling and Playout Automation
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slbailey/retrovue

// Package playlog implements C5: the Playlog Horizon Daemon, a per-channel
// background worker that keeps Tier 2 (TransmissionLog) filled far enough
// ahead of "now" by pulling locked Tier 1 (CompiledProgramLog) blocks and
// late-binding their breaks through internal/traffic. Grounded on
// original_source's playlog_horizon_daemon.py, translated from its
// threading.Thread loop into a suture.Service.
package playlog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/slbailey/retrovue/internal/clock"
	"github.com/slbailey/retrovue/internal/models"
	"github.com/slbailey/retrovue/internal/traffic"
)

// Tier1Source loads the locked, segmented blocks compiled for a broadcast
// day. ok is false when no locked Tier 1 row exists yet for that day (the
// compiler hasn't run) or the cached row predates segmented-block support.
type Tier1Source interface {
	LoadBlocks(broadcastDay time.Time) (blocks []models.ScheduledBlock, ok bool)
}

// Tier2Store is the TransmissionLog surface the daemon reads and writes.
type Tier2Store interface {
	BlockExists(blockID string) bool
	RowCoversNow(channelID string, nowMS int64) bool
	Write(row models.TransmissionLog) error
}

// Config tunes one channel's Playlog Horizon Daemon.
type Config struct {
	ChannelID               string
	MinHours                float64
	EvaluationInterval      time.Duration
	ProgrammingDayStartHour int
	Timezone                *time.Location
	StaticFillerURI         string
	StaticFillerDurationMS  int64
}

// HealthReport is a point-in-time snapshot for observability endpoints.
type HealthReport struct {
	ChannelID           string
	DepthHours          float64
	MinHours            float64
	FarthestEndUTCMS    int64
	LastEvaluationUTCMS int64
	LastFillBlockID     string
	BlocksFilled        int64
	FillErrors          int64
	IsHealthy           bool
}

// Daemon is the Playlog Horizon Daemon for one channel.
type Daemon struct {
	tier1   Tier1Source
	tier2   Tier2Store
	library traffic.AssetLibrary
	clock   clock.Clock
	cfg     Config
	log     zerolog.Logger

	mu                  sync.Mutex
	farthestEndUTCMS    int64
	lastEvaluationMS    int64
	lastFillBlockID     string
	blocksFilled        int64
	fillErrors          int64
}

// New constructs a Playlog Horizon Daemon. library may be nil, in which
// case every break is filled with the channel's static filler loop.
func New(tier1 Tier1Source, tier2 Tier2Store, library traffic.AssetLibrary, c clock.Clock, cfg Config, log zerolog.Logger) *Daemon {
	if cfg.Timezone == nil {
		cfg.Timezone = time.UTC
	}
	return &Daemon{
		tier1:   tier1,
		tier2:   tier2,
		library: library,
		clock:   c,
		cfg:     cfg,
		log:     log.With().Str("component", "playlog_horizon").Str("channel_id", cfg.ChannelID).Logger(),
	}
}

func (d *Daemon) broadcastDateFor(t time.Time) time.Time {
	return clock.BroadcastDay(t, d.cfg.Timezone, d.cfg.ProgrammingDayStartHour)
}

// FarthestEndUTCMS is the end of the farthest block written to Tier 2.
func (d *Daemon) FarthestEndUTCMS() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.farthestEndUTCMS
}

func (d *Daemon) depthHours(nowMS int64) float64 {
	end := d.FarthestEndUTCMS()
	if end <= nowMS {
		return 0
	}
	return float64(end-nowMS) / 3_600_000.0
}

// GetHealthReport builds a point-in-time health snapshot.
func (d *Daemon) GetHealthReport() HealthReport {
	nowMS := d.clock.NowUTC().UnixMilli()
	depth := d.depthHours(nowMS)

	d.mu.Lock()
	defer d.mu.Unlock()
	return HealthReport{
		ChannelID:           d.cfg.ChannelID,
		DepthHours:          round2(depth),
		MinHours:            d.cfg.MinHours,
		FarthestEndUTCMS:    d.farthestEndUTCMS,
		LastEvaluationUTCMS: d.lastEvaluationMS,
		LastFillBlockID:     d.lastFillBlockID,
		BlocksFilled:        d.blocksFilled,
		FillErrors:          d.fillErrors,
		IsHealthy:           depth >= d.cfg.MinHours,
	}
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

// EvaluateOnce backfills coverage for "now" if missing, then extends Tier 2
// forward until it reaches the configured minimum horizon.
func (d *Daemon) EvaluateOnce() {
	now := d.clock.NowUTC()
	nowMS := now.UnixMilli()
	d.mu.Lock()
	d.lastEvaluationMS = nowMS
	d.mu.Unlock()

	backfilled := d.ensureTier2CoversNow(nowMS)

	targetMS := int64(d.cfg.MinHours * 3_600_000)
	filled := d.extendToTarget(nowMS, targetMS)

	depth := d.depthHours(nowMS)
	if filled == 0 && backfilled == 0 && depth < d.cfg.MinHours {
		d.log.Warn().
			Float64("depth_hours", round2(depth)).Float64("min_hours", d.cfg.MinHours).
			Msg("INV-PLAYLOG-HORIZON-002: zero blocks filled this evaluation while below target depth")
	}

	d.log.Debug().
		Int("backfilled", backfilled).Int("filled", filled).
		Float64("depth_hours", round2(depth)).
		Msg("playlog horizon evaluated")
}

// ensureTier2CoversNow backfills the Tier-1 block containing now_ms if
// Tier 2 has no row covering it (INV-PLAYLOG-COVERAGE-HOLE-001), e.g. the
// daemon started late or Tier 2 was empty. Backfill is refused for a block
// that has already fully elapsed. Returns 1 if a block was filled.
func (d *Daemon) ensureTier2CoversNow(nowMS int64) int {
	if d.tier2.RowCoversNow(d.cfg.ChannelID, nowMS) {
		return 0
	}

	block, ok := d.getTier1BlockContaining(nowMS)
	if !ok {
		return 0
	}
	if nowMS >= block.EndUTCMS {
		return 0
	}

	d.log.Warn().
		Int64("now_ms", nowMS).Str("block_id", block.BlockID).
		Msg("INV-PLAYLOG-COVERAGE-HOLE-001: missing Tier 2 coverage for now, backfilling")

	broadcastDay := d.broadcastDateFor(time.UnixMilli(block.StartUTCMS).UTC())
	if err := d.fillAndWrite(block, broadcastDay); err != nil {
		d.recordFillError(block.BlockID, err)
		return 0
	}
	return 1
}

// getTier1BlockContaining returns the Tier-1 block whose window contains
// now_ms, checking both the current broadcast day and the prior one so
// blocks spanning the broadcast-day boundary are found.
func (d *Daemon) getTier1BlockContaining(nowMS int64) (models.ScheduledBlock, bool) {
	nowDT := time.UnixMilli(nowMS).UTC()
	bd := d.broadcastDateFor(nowDT)
	for _, scanDate := range []time.Time{bd.AddDate(0, 0, -1), bd} {
		blocks, ok := d.tier1.LoadBlocks(scanDate)
		if !ok {
			continue
		}
		for _, b := range blocks {
			if b.StartUTCMS <= nowMS && nowMS < b.EndUTCMS {
				return b, true
			}
		}
	}
	return models.ScheduledBlock{}, false
}

// extendToTarget fills blocks from Tier 1 until Tier 2's farthest end
// reaches now_ms + target_ms. Scanning starts one broadcast day before the
// current frontier's day (INV-PLAYLOG-HORIZON-TZ-001): a block compiled
// for "yesterday" can still end after today's day boundary, so starting
// exactly on the frontier's own day would skip it.
func (d *Daemon) extendToTarget(nowMS, targetMS int64) int {
	targetEndMS := nowMS + targetMS
	blocksFilled := 0

	cursorMS := d.FarthestEndUTCMS()
	if cursorMS < nowMS {
		cursorMS = nowMS
	}

	cursorDT := time.UnixMilli(cursorMS).UTC()
	targetDT := time.UnixMilli(targetEndMS).UTC()
	scanDate := d.broadcastDateFor(cursorDT).AddDate(0, 0, -1)
	endDate := d.broadcastDateFor(targetDT).AddDate(0, 0, 1)

	for !scanDate.After(endDate) && cursorMS < targetEndMS {
		blocks, ok := d.tier1.LoadBlocks(scanDate)
		if !ok {
			d.log.Warn().Time("broadcast_day", scanDate).Msg("no Tier 1 data for broadcast day, cannot extend")
			scanDate = scanDate.AddDate(0, 0, 1)
			continue
		}

		for _, block := range blocks {
			if block.EndUTCMS <= cursorMS {
				continue
			}
			if block.StartUTCMS >= targetEndMS {
				break
			}

			if d.tier2.BlockExists(block.BlockID) {
				if block.EndUTCMS > cursorMS {
					cursorMS = block.EndUTCMS
					d.setFarthest(cursorMS)
				}
				continue
			}

			if err := d.fillAndWrite(block, scanDate); err != nil {
				d.recordFillError(block.BlockID, err)
				continue
			}

			if block.EndUTCMS > cursorMS {
				cursorMS = block.EndUTCMS
			}
			blocksFilled++
			d.log.Debug().Str("block_id", block.BlockID).Int("segments", len(block.Segments)).Msg("filled block")
		}

		scanDate = scanDate.AddDate(0, 0, 1)
	}

	return blocksFilled
}

func (d *Daemon) fillAndWrite(block models.ScheduledBlock, broadcastDay time.Time) error {
	filled := traffic.FillAdBlocks(block, d.cfg.StaticFillerURI, d.cfg.StaticFillerDurationMS, d.library)

	row := models.TransmissionLog{
		BlockID:      filled.BlockID,
		ChannelSlug:  d.cfg.ChannelID,
		BroadcastDay: broadcastDay,
		StartUTCMS:   filled.StartUTCMS,
		EndUTCMS:     filled.EndUTCMS,
		Segments:     filled.Segments,
	}
	if err := d.tier2.Write(row); err != nil {
		return fmt.Errorf("write txlog row for block %s: %w", filled.BlockID, err)
	}

	d.mu.Lock()
	d.lastFillBlockID = filled.BlockID
	d.blocksFilled++
	d.mu.Unlock()
	d.setFarthest(filled.EndUTCMS)
	return nil
}

func (d *Daemon) setFarthest(endUTCMS int64) {
	d.mu.Lock()
	if endUTCMS > d.farthestEndUTCMS {
		d.farthestEndUTCMS = endUTCMS
	}
	d.mu.Unlock()
}

func (d *Daemon) recordFillError(blockID string, err error) {
	d.mu.Lock()
	d.fillErrors++
	d.mu.Unlock()
	d.log.Error().Err(err).Str("block_id", blockID).Msg("failed to fill block")
}

// Serve implements suture.Service: evaluate, then sleep for the configured
// interval, until ctx is cancelled.
func (d *Daemon) Serve(ctx context.Context) error {
	interval := d.cfg.EvaluationInterval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	d.log.Info().Dur("interval", interval).Msg("playlog horizon daemon started")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	d.EvaluateOnce()
	for {
		select {
		case <-ctx.Done():
			d.log.Info().Msg("playlog horizon daemon stopped")
			return ctx.Err()
		case <-ticker.C:
			d.EvaluateOnce()
		}
	}
}
