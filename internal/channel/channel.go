// RetroVue - Linear Broadcast Scheduling and Playout Automation
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slbailey/retrovue

// Package channel implements C7: the per-channel playout driver state
// machine. It reads TransmissionLog only — INV-CHANNEL-NO-COMPILE-001
// forbids any compile-or-fill call at feed time — and issues PlayoutRequest
// commands to a playout engine as boundaries approach. Grounded on
// original_source's test_channel_manager_teardown.py, the only surviving
// artifact of channel_manager.py (the module itself was not included in
// the retrieval pack).
package channel

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/slbailey/retrovue/internal/clock"
	"github.com/slbailey/retrovue/internal/models"
)

// BoundaryState is one node of the channel's playout state machine.
type BoundaryState string

const (
	StateNone            BoundaryState = "NONE"
	StatePlanned         BoundaryState = "PLANNED"
	StatePreloadIssued   BoundaryState = "PRELOAD_ISSUED"
	StateSwitchScheduled BoundaryState = "SWITCH_SCHEDULED"
	StateSwitchIssued    BoundaryState = "SWITCH_ISSUED"
	StateLive            BoundaryState = "LIVE"
	StateFailedTerminal  BoundaryState = "FAILED_TERMINAL"
)

// teardownGraceTimeout is the window a disconnect request waits for the
// boundary state to become stable before the session is forced terminal.
const teardownGraceTimeout = 10 * time.Second

// legalTransitions is the boundary state machine's edge set. FAILED_TERMINAL
// is reachable from any state (illegal-transition fallback) and is terminal
// itself — it has no outgoing edges.
var legalTransitions = map[BoundaryState]map[BoundaryState]bool{
	StateNone:            {StatePlanned: true},
	StatePlanned:         {StatePreloadIssued: true},
	StatePreloadIssued:   {StateSwitchScheduled: true},
	StateSwitchScheduled: {StateSwitchIssued: true},
	StateSwitchIssued:    {StateLive: true},
	StateLive:            {StatePlanned: true, StateNone: true},
	StateFailedTerminal:  {},
}

func isStable(s BoundaryState) bool {
	return s == StateNone || s == StateLive || s == StateFailedTerminal
}

// PlayoutRequest is what the channel manager issues to the playout engine
// for a segment boundary.
type PlayoutRequest struct {
	AssetPath    string            `json:"asset_path"`
	StartPTSMS   int64             `json:"start_pts_ms"`
	DurationSec  float64           `json:"duration_sec"`
	StartTimeUTC time.Time         `json:"start_time_utc"`
	EndTimeUTC   time.Time         `json:"end_time_utc"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// PlayoutEngine is what the channel manager drives. LoadPreview primes the
// upcoming segment; SwitchToLive cuts to it.
type PlayoutEngine interface {
	LoadPreview(req PlayoutRequest) error
	SwitchToLive(req PlayoutRequest) error
}

// TransmissionSource is the read-only Tier-2 surface the channel manager
// feeds from. It never compiles or fills — only reads rows already
// materialized by the Tier-1 compiler and the Playlog Horizon Daemon.
type TransmissionSource interface {
	// RowAt returns the TransmissionLog row covering nowMS, if any.
	RowAt(channelID string, nowMS int64) (models.TransmissionLog, bool)
}

// Manager drives one channel's playout state machine.
type Manager struct {
	channelID   string
	preloadLead time.Duration
	source      TransmissionSource
	engine      PlayoutEngine
	clock       clock.Clock
	log         zerolog.Logger

	boundaryState    BoundaryState
	activeBlockID    string
	activeSegIndex   int
	segmentEndUTCMS  int64

	teardownPending  bool
	teardownDeadline time.Time
	teardownReason   string

	pendingFatal error

	deferredTeardownFired bool
}

// New constructs a channel manager starting in NONE.
func New(channelID string, preloadLead time.Duration, source TransmissionSource, engine PlayoutEngine, c clock.Clock, log zerolog.Logger) *Manager {
	return &Manager{
		channelID:     channelID,
		preloadLead:   preloadLead,
		source:        source,
		engine:        engine,
		clock:         c,
		log:           log.With().Str("component", "channel_manager").Str("channel_id", channelID).Logger(),
		boundaryState: StateNone,
	}
}

// BoundaryState returns the current state.
func (m *Manager) BoundaryState() BoundaryState { return m.boundaryState }

// IsLive is true iff the boundary state is LIVE (INV-LIVE-SESSION-AUTHORITY-001).
func (m *Manager) IsLive() bool { return m.boundaryState == StateLive }

// PendingFatal returns the reason FAILED_TERMINAL was entered, if any.
func (m *Manager) PendingFatal() error { return m.pendingFatal }

// DeferredTeardownTriggered reports whether a deferred teardown has fired
// since the manager entered its current run (tests consult this instead of
// a channel/callback).
func (m *Manager) DeferredTeardownTriggered() bool { return m.deferredTeardownFired }

// transitionBoundaryState moves to next if legal; an illegal transition
// forces FAILED_TERMINAL (INV-TERMINAL-TIMER-CLEARED-001,
// INV-TERMINAL-SCHEDULER-HALT-001). Executes any deferred teardown on entry
// to a stable state.
func (m *Manager) transitionBoundaryState(next BoundaryState) {
	if next != StateFailedTerminal && !legalTransitions[m.boundaryState][next] {
		m.forceFailedTerminal(fmt.Errorf("illegal transition %s -> %s", m.boundaryState, next))
		return
	}
	m.boundaryState = next
	if isStable(next) && m.teardownPending {
		m.executeDeferredTeardown()
	}
}

func (m *Manager) forceFailedTerminal(reason error) {
	m.pendingFatal = reason
	m.boundaryState = StateFailedTerminal
	m.log.Warn().Err(reason).Msg("channel forced to FAILED_TERMINAL")
	if m.teardownPending {
		m.executeDeferredTeardown()
	}
}

func (m *Manager) executeDeferredTeardown() {
	m.teardownPending = false
	m.teardownDeadline = time.Time{}
	m.teardownReason = ""
	m.deferredTeardownFired = true
	m.log.Info().Msg("deferred teardown executed")
}

// RequestTeardown handles a viewer-disconnect (advisory,
// INV-VIEWER-COUNT-ADVISORY-001). In a stable state it proceeds immediately
// and returns true. In a transient state it defers: pending is set and the
// deadline starts now, unless already pending (idempotent — the deadline is
// never reset by a repeated request).
func (m *Manager) RequestTeardown(reason string) bool {
	if isStable(m.boundaryState) {
		return true
	}
	if !m.teardownPending {
		m.teardownPending = true
		m.teardownDeadline = m.clock.NowUTC().Add(teardownGraceTimeout)
		m.teardownReason = reason
	}
	return false
}

// Tick drives the feed loop: teardown grace check, then (unless teardown is
// pending) boundary work — reading the active TransmissionLog row,
// preloading the next segment, and switching to live on schedule.
// INV-TEARDOWN-NO-NEW-WORK-001: while teardown is pending, no new boundary
// work is issued.
func (m *Manager) Tick() {
	if m.boundaryState == StateFailedTerminal {
		return
	}

	if m.teardownPending {
		if m.clock.NowUTC().After(m.teardownDeadline) {
			m.forceFailedTerminal(fmt.Errorf("teardown grace timeout: %s", m.teardownReason))
		}
		return
	}

	now := m.clock.NowUTC()
	nowMS := now.UnixMilli()

	row, ok := m.source.RowAt(m.channelID, nowMS)
	if !ok {
		return
	}

	switch m.boundaryState {
	case StateNone:
		m.beginBlock(row, nowMS)
	case StatePlanned:
		m.maybePreload(row, now)
	case StatePreloadIssued:
		m.maybeScheduleSwitch(row, now)
	case StateSwitchScheduled:
		m.maybeSwitch(row, now)
	case StateLive:
		if row.BlockID != m.activeBlockID {
			m.transitionBoundaryState(StatePlanned)
			m.beginBlock(row, nowMS)
		}
	}
}

func (m *Manager) beginBlock(row models.TransmissionLog, nowMS int64) {
	idx, seg, ok := activeSegment(row, nowMS)
	if !ok {
		return
	}
	m.activeBlockID = row.BlockID
	m.activeSegIndex = idx
	m.segmentEndUTCMS = row.StartUTCMS + segmentOffsetMS(row, idx) + seg.SegmentDurationMS
	if m.boundaryState == StateNone {
		m.transitionBoundaryState(StatePlanned)
	}
}

func (m *Manager) maybePreload(row models.TransmissionLog, now time.Time) {
	nowMS := now.UnixMilli()
	if m.segmentEndUTCMS-nowMS > m.preloadLead.Milliseconds() {
		return
	}
	req := m.buildRequest(row, now)
	if err := m.engine.LoadPreview(req); err != nil {
		m.log.Warn().Err(err).Msg("LoadPreview failed")
		return
	}
	m.transitionBoundaryState(StatePreloadIssued)
}

func (m *Manager) maybeScheduleSwitch(row models.TransmissionLog, now time.Time) {
	m.transitionBoundaryState(StateSwitchScheduled)
}

func (m *Manager) maybeSwitch(row models.TransmissionLog, now time.Time) {
	nowMS := now.UnixMilli()
	if nowMS < m.segmentEndUTCMS {
		return
	}
	req := m.buildRequest(row, now)
	if err := m.engine.SwitchToLive(req); err != nil {
		m.log.Warn().Err(err).Msg("SwitchToLive failed")
		return
	}
	m.transitionBoundaryState(StateSwitchIssued)
	m.transitionBoundaryState(StateLive)
}

// buildRequest maps the active segment to a PlayoutRequest, computing the
// effective seek offset base_seek + max(0, now - segment_start).
func (m *Manager) buildRequest(row models.TransmissionLog, now time.Time) PlayoutRequest {
	idx, seg, ok := activeSegment(row, now.UnixMilli())
	if !ok {
		return PlayoutRequest{}
	}
	segStartMS := row.StartUTCMS + segmentOffsetMS(row, idx)
	elapsed := now.UnixMilli() - segStartMS
	if elapsed < 0 {
		elapsed = 0
	}
	startPTS := seg.AssetStartOffsetMS + elapsed

	return PlayoutRequest{
		AssetPath:    seg.AssetURI,
		StartPTSMS:   startPTS,
		DurationSec:  float64(seg.SegmentDurationMS) / 1000.0,
		StartTimeUTC: time.UnixMilli(segStartMS).UTC(),
		EndTimeUTC:   time.UnixMilli(segStartMS + seg.SegmentDurationMS).UTC(),
	}
}

// activeSegment finds the segment within row covering nowMS, returning its
// index and value.
func activeSegment(row models.TransmissionLog, nowMS int64) (int, models.ScheduledSegment, bool) {
	cursor := row.StartUTCMS
	for i, seg := range row.Segments {
		end := cursor + seg.SegmentDurationMS
		if cursor <= nowMS && nowMS < end {
			return i, seg, true
		}
		cursor = end
	}
	return 0, models.ScheduledSegment{}, false
}

func segmentOffsetMS(row models.TransmissionLog, index int) int64 {
	var offset int64
	for i := 0; i < index; i++ {
		offset += row.Segments[i].SegmentDurationMS
	}
	return offset
}

// Serve implements suture.Service: tick at 1 Hz until ctx is cancelled.
func (m *Manager) Serve(ctx context.Context) error {
	m.log.Info().Msg("channel manager started")
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			m.log.Info().Msg("channel manager stopped")
			return ctx.Err()
		case <-ticker.C:
			m.Tick()
		}
	}
}
