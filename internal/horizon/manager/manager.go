// RetroVue - Linear Broadcast Scheduling and Playout Automation
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slbailey/retrovue

// Package manager implements C6: the Horizon Manager, a wall-clock-driven
// policy enforcer that keeps the EPG and execution horizons ahead of "now"
// by triggering schedule resolution and Tier-2 generation, and that audits
// seam contiguity and next-block readiness across the execution store.
// Grounded on original_source's horizon_manager.py, translated from its
// threading.Thread background-loop design into a suture.Service.
package manager

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/slbailey/retrovue/internal/clock"
)

// maxExtensionDays is a safety valve: a single evaluation never extends
// more than this many broadcast days, preventing a misconfigured minimum
// horizon from spinning the pipeline indefinitely.
const maxExtensionDays = 30

// ScheduleExtender is what the Horizon Manager needs from the EPG layer.
// It never talks to internal/schedule directly.
type ScheduleExtender interface {
	EPGDayExists(broadcastDate time.Time) bool
	ExtendEPGDay(broadcastDate time.Time) error
}

// ExecutionResult is what a successful execution-day extension produced:
// the new frontier and (optionally) the Tier-2 entries generated, so the
// caller can ingest them into the execution store under one atomic publish.
type ExecutionResult struct {
	EndUTCMS int64
	Entries  []ExecutionEntry
}

// ExecutionEntry is the minimal shape the Horizon Manager needs from a
// Tier-2 TransmissionLog row to check seam contiguity and next-block
// readiness, without importing the full transmission-log model.
type ExecutionEntry struct {
	BlockID    string
	StartUTCMS int64
	EndUTCMS   int64
}

// ExecutionExtender is what the Horizon Manager needs from the planning
// pipeline (Tier-1 compiler + Tier-2 traffic fill, chained).
type ExecutionExtender interface {
	ExtendExecutionDay(broadcastDate time.Time) (ExecutionResult, error)
}

// PublishResult reports whether an atomic range replace into the execution
// store succeeded.
type PublishResult struct {
	OK        bool
	ErrorCode string
}

// ExecutionWindowStore is the Tier-2 store the Horizon Manager audits and
// extends into.
type ExecutionWindowStore interface {
	GetEntryAt(nowMS int64) *ExecutionEntry
	GetAllEntries() []ExecutionEntry // sorted by StartUTCMS
	AddEntries(entries []ExecutionEntry)
	PublishAtomicReplace(rangeStartMS, rangeEndMS int64, newEntries []ExecutionEntry, generationID int64, reasonCode string) PublishResult
}

// HealthReport is a point-in-time snapshot for observability endpoints and
// structured logging.
type HealthReport struct {
	EPGDepthHours             float64
	ExecutionDepthHours       float64
	MinEPGDays                int
	MinExecutionHours         int
	EPGFarthestDate           string
	ExecutionWindowEndUTCMS   int64
	LastEvaluationUTCMS       int64
	IsHealthy                 bool
	EPGCompliant              bool
	ExecutionCompliant        bool
	NextBlockCompliant        bool
	CoverageCompliant         bool
	ProactiveExtensionTrigger bool
	EvaluationIntervalSeconds int
	StoreEntryCount           int
}

// AuditSink receives horizon audit events as they happen, for distribution
// over the horizon audit bus (internal/eventprocessor). Optional: a Manager
// with no sink configured just keeps attemptLog/seamViolations in memory for
// ExtensionAttemptLog/SeamViolations and pays no publish cost.
type AuditSink interface {
	PublishExtensionAttempt(channelID string, a ExtensionAttempt)
	PublishSeamViolation(channelID string, v SeamViolation)
}

// ExtensionAttempt records one execution-horizon extension attempt for the
// audit bus (internal/eventprocessor's HorizonAuditEvent stream).
type ExtensionAttempt struct {
	AttemptID         string
	NowUTCMS          int64
	WindowEndBeforeMS int64
	WindowEndAfterMS  int64
	ReasonCode        string // "REASON_TIME_THRESHOLD" | "DAILY_ROLL" | "REASON_OPERATOR_OVERRIDE"
	TriggeredBy       string // "SCHED_MGR_POLICY"
	Success           bool
	ErrorCode         string
}

// SeamViolation records a contiguity break between two adjacent Tier-2
// entries. DeltaMS > 0 is a gap, < 0 is an overlap.
type SeamViolation struct {
	LeftBlockID      string
	LeftEndUTCMS     int64
	RightBlockID     string
	RightStartUTCMS  int64
	DeltaMS          int64
}

// Config tunes a Manager's policy thresholds.
type Config struct {
	MinEPGDays               int
	MinExecutionHours        int
	EvaluationInterval       time.Duration
	ProgrammingDayStartHour  int
	LockedWindow             time.Duration
	ProactiveExtendThreshold time.Duration
}

// Manager is the Horizon Manager. All mutable state is guarded by mu so
// EvaluateOnce can be invoked from a supervised background loop and from
// ad-hoc CLI/API health checks concurrently.
type Manager struct {
	schedule  ScheduleExtender
	execution ExecutionExtender
	store     ExecutionWindowStore
	clock     clock.Clock
	cfg       Config
	log       zerolog.Logger

	channelID string
	sink      AuditSink

	mu                  sync.Mutex
	epgFarthestDate     *time.Time
	executionWindowEnd  int64
	lastEvaluationMS    int64
	nextBlockCompliant  bool
	coverageCompliant   bool
	seamViolations      []SeamViolation
	proactiveTriggered  bool
	nextGenerationID    int64
	attemptCount        int64
	successCount        int64
	forbiddenTrigger    int64
	attemptLog          []ExtensionAttempt
}

// New constructs a Horizon Manager. store may be nil, in which case
// next-block-readiness and seam-contiguity checks are skipped (matching
// original_source's optional execution_store).
func New(schedule ScheduleExtender, execution ExecutionExtender, store ExecutionWindowStore, c clock.Clock, cfg Config, log zerolog.Logger) *Manager {
	return &Manager{
		schedule:           schedule,
		execution:          execution,
		store:              store,
		clock:              c,
		cfg:                cfg,
		log:                log.With().Str("component", "horizon_manager").Logger(),
		nextBlockCompliant: true,
		coverageCompliant:  true,
	}
}

// SetAuditSink configures where ExtensionAttempt/SeamViolation events are
// published as they occur. channelID identifies this Manager's channel on
// the audit bus (see HorizonAuditEvent.Topic). Call before Serve/EvaluateOnce
// starts running; not safe to change concurrently with evaluation.
func (m *Manager) SetAuditSink(channelID string, sink AuditSink) {
	m.channelID = channelID
	m.sink = sink
}

func (m *Manager) broadcastDateFor(t time.Time) time.Time {
	return clock.BroadcastDay(t, time.UTC, m.cfg.ProgrammingDayStartHour)
}

func (m *Manager) dayEndUTCMS(broadcastDate time.Time) int64 {
	y, mo, d := broadcastDate.Date()
	end := time.Date(y, mo, d, m.cfg.ProgrammingDayStartHour, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	return end.UnixMilli()
}

// EPGWindowEndUTCMS is the end of the farthest resolved broadcast day.
func (m *Manager) EPGWindowEndUTCMS() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.epgFarthestDate == nil {
		return 0
	}
	return m.dayEndUTCMS(*m.epgFarthestDate)
}

// ExecutionWindowEndUTCMS is the end of the farthest generated Tier-2 entry.
func (m *Manager) ExecutionWindowEndUTCMS() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.executionWindowEnd
}

func (m *Manager) epgDepthHours(nowMS int64) float64 {
	end := m.EPGWindowEndUTCMS()
	if end <= nowMS {
		return 0
	}
	return float64(end-nowMS) / 3_600_000.0
}

func (m *Manager) executionDepthHours(nowMS int64) float64 {
	m.mu.Lock()
	end := m.executionWindowEnd
	m.mu.Unlock()
	if end <= nowMS {
		return 0
	}
	return float64(end-nowMS) / 3_600_000.0
}

// IsHealthy reports whether both horizons currently meet their configured
// minimums.
func (m *Manager) IsHealthy() bool {
	nowMS := m.clock.NowUTC().UnixMilli()
	return m.epgDepthHours(nowMS) >= float64(m.cfg.MinEPGDays)*24.0 &&
		m.executionDepthHours(nowMS) >= float64(m.cfg.MinExecutionHours)
}

// GetHealthReport builds a point-in-time health snapshot.
func (m *Manager) GetHealthReport() HealthReport {
	nowMS := m.clock.NowUTC().UnixMilli()
	epgH := m.epgDepthHours(nowMS)
	execH := m.executionDepthHours(nowMS)

	m.mu.Lock()
	defer m.mu.Unlock()

	farthest := ""
	if m.epgFarthestDate != nil {
		farthest = m.epgFarthestDate.Format("2006-01-02")
	}
	storeCount := 0
	if m.store != nil {
		storeCount = len(m.store.GetAllEntries())
	}

	epgCompliant := epgH >= float64(m.cfg.MinEPGDays)*24.0
	execCompliant := execH >= float64(m.cfg.MinExecutionHours)

	return HealthReport{
		EPGDepthHours:             round2(epgH),
		ExecutionDepthHours:       round2(execH),
		MinEPGDays:                m.cfg.MinEPGDays,
		MinExecutionHours:         m.cfg.MinExecutionHours,
		EPGFarthestDate:           farthest,
		ExecutionWindowEndUTCMS:   m.executionWindowEnd,
		LastEvaluationUTCMS:       m.lastEvaluationMS,
		IsHealthy:                 epgCompliant && execCompliant,
		EPGCompliant:              epgCompliant,
		ExecutionCompliant:        execCompliant,
		NextBlockCompliant:        m.nextBlockCompliant,
		CoverageCompliant:         m.coverageCompliant,
		ProactiveExtensionTrigger: m.proactiveTriggered,
		EvaluationIntervalSeconds: int(m.cfg.EvaluationInterval.Seconds()),
		StoreEntryCount:           storeCount,
	}
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

// ExtensionAttemptLog returns a copy of every extension attempt recorded
// since construction, for the audit bus and for tests.
func (m *Manager) ExtensionAttemptLog() []ExtensionAttempt {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ExtensionAttempt, len(m.attemptLog))
	copy(out, m.attemptLog)
	return out
}

// SeamViolations returns the violations found during the most recent
// evaluation.
func (m *Manager) SeamViolations() []SeamViolation {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SeamViolation, len(m.seamViolations))
	copy(out, m.seamViolations)
	return out
}

func (m *Manager) recordAttempt(a ExtensionAttempt) {
	m.mu.Lock()
	m.attemptLog = append(m.attemptLog, a)
	m.mu.Unlock()

	if m.sink != nil {
		m.sink.PublishExtensionAttempt(m.channelID, a)
	}
}

func (m *Manager) nextAttemptID() string {
	m.mu.Lock()
	m.attemptCount++
	id := m.attemptCount
	m.mu.Unlock()
	return fmt.Sprintf("ext-%d", id)
}

// EvaluateOnce evaluates horizon depths and extends if below policy
// thresholds. Safe to call concurrently with Serve's background loop.
func (m *Manager) EvaluateOnce() {
	now := m.clock.NowUTC()
	nowMS := now.UnixMilli()
	m.mu.Lock()
	m.lastEvaluationMS = nowMS
	m.proactiveTriggered = false
	m.mu.Unlock()

	currentBD := m.broadcastDateFor(now)

	epgDepthH := m.epgDepthHours(nowMS)
	extended := false
	if epgDepthH < float64(m.cfg.MinEPGDays)*24.0 {
		m.extendEPG(currentBD, nowMS)
		extended = true
	}

	execDepthH := m.executionDepthHours(nowMS)
	if execDepthH < float64(m.cfg.MinExecutionHours) {
		m.extendExecution(currentBD, nowMS)
		extended = true
	}

	if m.store != nil {
		m.checkNextBlockReady(nowMS, currentBD)
		m.checkSeamContiguity()
	}

	m.checkProactiveExtend(nowMS, currentBD)

	report := m.GetHealthReport()
	switch {
	case !report.IsHealthy:
		m.log.Warn().Interface("report", report).Bool("extended", extended).Msg("horizon unhealthy")
	case extended:
		m.log.Info().Interface("report", report).Msg("horizon extended")
	default:
		m.log.Debug().Interface("report", report).Msg("horizon steady state")
	}
}

func (m *Manager) extendEPG(currentBD time.Time, nowMS int64) {
	targetEndMS := nowMS + int64(m.cfg.MinEPGDays)*24*3_600_000

	m.mu.Lock()
	var nextDate time.Time
	if m.epgFarthestDate != nil {
		nextDate = m.epgFarthestDate.AddDate(0, 0, 1)
	} else {
		nextDate = currentBD
	}
	m.mu.Unlock()

	for i := 0; i < maxExtensionDays && m.EPGWindowEndUTCMS() < targetEndMS; i++ {
		if !m.schedule.EPGDayExists(nextDate) {
			m.log.Info().Time("broadcast_date", nextDate).Msg("extending EPG")
			if err := m.schedule.ExtendEPGDay(nextDate); err != nil {
				m.log.Warn().Err(err).Time("broadcast_date", nextDate).Msg("EPG extension failed")
			}
		}
		m.mu.Lock()
		m.epgFarthestDate = &nextDate
		m.mu.Unlock()
		nextDate = nextDate.AddDate(0, 0, 1)
	}
}

func (m *Manager) nextExecutionExtensionDate(currentBD time.Time) time.Time {
	m.mu.Lock()
	end := m.executionWindowEnd
	m.mu.Unlock()
	if end <= 0 {
		return currentBD
	}
	endDT := time.UnixMilli(end).UTC()
	next := m.broadcastDateFor(endDT)
	if m.dayEndUTCMS(next) <= end {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func (m *Manager) extendExecution(currentBD time.Time, nowMS int64) {
	targetEndMS := nowMS + int64(m.cfg.MinExecutionHours)*3_600_000
	nextDate := m.nextExecutionExtensionDate(currentBD)

	for i := 0; i < maxExtensionDays; i++ {
		m.mu.Lock()
		windowEndBefore := m.executionWindowEnd
		m.mu.Unlock()
		if windowEndBefore >= targetEndMS {
			return
		}

		attemptID := m.nextAttemptID()
		m.log.Info().Time("broadcast_date", nextDate).Msg("extending execution")

		result, err := m.execution.ExtendExecutionDay(nextDate)
		if err != nil {
			m.recordAttempt(ExtensionAttempt{
				AttemptID: attemptID, NowUTCMS: nowMS,
				WindowEndBeforeMS: windowEndBefore, WindowEndAfterMS: windowEndBefore,
				ReasonCode: "REASON_TIME_THRESHOLD", TriggeredBy: "SCHED_MGR_POLICY",
				Success: false, ErrorCode: err.Error(),
			})
			m.log.Warn().Err(err).Time("broadcast_date", nextDate).Msg("execution extension failed")
			return
		}

		m.ingestExecutionResult(result)

		m.mu.Lock()
		m.successCount++
		windowEndAfter := m.executionWindowEnd
		m.mu.Unlock()
		m.recordAttempt(ExtensionAttempt{
			AttemptID: attemptID, NowUTCMS: nowMS,
			WindowEndBeforeMS: windowEndBefore, WindowEndAfterMS: windowEndAfter,
			ReasonCode: "REASON_TIME_THRESHOLD", TriggeredBy: "SCHED_MGR_POLICY",
			Success: true,
		})

		nextDate = nextDate.AddDate(0, 0, 1)
	}
}

func (m *Manager) ingestExecutionResult(result ExecutionResult) {
	if m.store != nil && len(result.Entries) > 0 {
		m.store.AddEntries(result.Entries)
	}
	m.mu.Lock()
	if result.EndUTCMS > m.executionWindowEnd {
		m.executionWindowEnd = result.EndUTCMS
	}
	m.mu.Unlock()
}

// checkNextBlockReady verifies a block covering "now" exists
// (INV-HORIZON-NEXT-BLOCK-READY-001). A gap inside the locked window is
// INV-HORIZON-LOCKED-IMMUTABLE-001 and cannot be filled; a gap outside it
// triggers an on-demand pipeline fill.
func (m *Manager) checkNextBlockReady(nowMS int64, currentBD time.Time) {
	if m.store.GetEntryAt(nowMS) != nil {
		m.mu.Lock()
		m.nextBlockCompliant = true
		m.mu.Unlock()
		return
	}

	if m.cfg.LockedWindow > 0 {
		attemptID := m.nextAttemptID()
		m.mu.Lock()
		windowEndBefore := m.executionWindowEnd
		m.forbiddenTrigger++
		m.nextBlockCompliant = false
		m.mu.Unlock()
		m.recordAttempt(ExtensionAttempt{
			AttemptID: attemptID, NowUTCMS: nowMS,
			WindowEndBeforeMS: windowEndBefore, WindowEndAfterMS: windowEndBefore,
			ReasonCode: "REASON_TIME_THRESHOLD", TriggeredBy: "SCHED_MGR_POLICY",
			Success: false, ErrorCode: "INV-HORIZON-LOCKED-IMMUTABLE-001-VIOLATED",
		})
		m.log.Warn().Int64("now_ms", nowMS).Msg("next-block gap inside locked window, cannot fill")
		return
	}

	attemptID := m.nextAttemptID()
	m.mu.Lock()
	windowEndBefore := m.executionWindowEnd
	m.mu.Unlock()

	result, err := m.execution.ExtendExecutionDay(currentBD)
	if err != nil {
		m.mu.Lock()
		m.nextBlockCompliant = false
		m.mu.Unlock()
		m.recordAttempt(ExtensionAttempt{
			AttemptID: attemptID, NowUTCMS: nowMS,
			WindowEndBeforeMS: windowEndBefore, WindowEndAfterMS: windowEndBefore,
			ReasonCode: "REASON_TIME_THRESHOLD", TriggeredBy: "SCHED_MGR_POLICY",
			Success: false, ErrorCode: "PIPELINE_EXHAUSTED",
		})
		m.log.Warn().Err(err).Msg("next-block fill failed")
		return
	}
	m.ingestExecutionResult(result)

	m.mu.Lock()
	windowEndAfter := m.executionWindowEnd
	m.mu.Unlock()

	if m.store.GetEntryAt(nowMS) != nil {
		m.mu.Lock()
		m.successCount++
		m.nextBlockCompliant = true
		m.mu.Unlock()
		m.recordAttempt(ExtensionAttempt{
			AttemptID: attemptID, NowUTCMS: nowMS,
			WindowEndBeforeMS: windowEndBefore, WindowEndAfterMS: windowEndAfter,
			ReasonCode: "REASON_TIME_THRESHOLD", TriggeredBy: "SCHED_MGR_POLICY",
			Success: true,
		})
		return
	}
	m.mu.Lock()
	m.nextBlockCompliant = false
	m.mu.Unlock()
	m.recordAttempt(ExtensionAttempt{
		AttemptID: attemptID, NowUTCMS: nowMS,
		WindowEndBeforeMS: windowEndBefore, WindowEndAfterMS: windowEndAfter,
		ReasonCode: "REASON_TIME_THRESHOLD", TriggeredBy: "SCHED_MGR_POLICY",
		Success: false, ErrorCode: "PIPELINE_EXHAUSTED",
	})
}

// checkSeamContiguity validates every adjacent pair of Tier-2 entries is
// contiguous (INV-HORIZON-CONTINUOUS-COVERAGE-001).
func (m *Manager) checkSeamContiguity() {
	entries := m.store.GetAllEntries()
	if len(entries) < 2 {
		m.mu.Lock()
		m.coverageCompliant = true
		m.seamViolations = nil
		m.mu.Unlock()
		return
	}

	var violations []SeamViolation
	for i := 0; i < len(entries)-1; i++ {
		left, right := entries[i], entries[i+1]
		delta := right.StartUTCMS - left.EndUTCMS
		if delta != 0 {
			violations = append(violations, SeamViolation{
				LeftBlockID: left.BlockID, LeftEndUTCMS: left.EndUTCMS,
				RightBlockID: right.BlockID, RightStartUTCMS: right.StartUTCMS,
				DeltaMS: delta,
			})
			kind := "gap"
			if delta < 0 {
				kind = "overlap"
			}
			m.log.Warn().
				Str("kind", kind).Int64("delta_ms", abs64(delta)).
				Str("left_block", left.BlockID).Str("right_block", right.BlockID).
				Msg("INV-HORIZON-CONTINUOUS-COVERAGE-001-VIOLATED")
		}
	}
	m.mu.Lock()
	m.seamViolations = violations
	m.coverageCompliant = len(violations) == 0
	m.mu.Unlock()

	if m.sink != nil {
		for _, v := range violations {
			m.sink.PublishSeamViolation(m.channelID, v)
		}
	}
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// checkProactiveExtend implements INV-HORIZON-PROACTIVE-EXTEND-001: when
// remaining execution horizon drops to or below ProactiveExtendThreshold,
// trigger one extension and publish it atomically so the execution store
// never observes a torn write. A zero threshold disables the check.
func (m *Manager) checkProactiveExtend(nowMS int64, currentBD time.Time) {
	if m.cfg.ProactiveExtendThreshold <= 0 {
		return
	}
	m.mu.Lock()
	remainingMS := m.executionWindowEnd - nowMS
	thresholdMS := m.cfg.ProactiveExtendThreshold.Milliseconds()
	m.mu.Unlock()
	if remainingMS > thresholdMS {
		return
	}

	m.mu.Lock()
	m.proactiveTriggered = true
	m.mu.Unlock()

	nextDate := m.nextExecutionExtensionDate(currentBD)
	attemptID := m.nextAttemptID()
	m.mu.Lock()
	windowEndBefore := m.executionWindowEnd
	m.mu.Unlock()

	m.log.Info().Time("broadcast_date", nextDate).Int64("remaining_ms", remainingMS).Msg("proactive extension")

	result, err := m.execution.ExtendExecutionDay(nextDate)
	if err != nil {
		m.recordAttempt(ExtensionAttempt{
			AttemptID: attemptID, NowUTCMS: nowMS,
			WindowEndBeforeMS: windowEndBefore, WindowEndAfterMS: windowEndBefore,
			ReasonCode: "REASON_TIME_THRESHOLD", TriggeredBy: "SCHED_MGR_POLICY",
			Success: false, ErrorCode: err.Error(),
		})
		m.log.Warn().Err(err).Msg("proactive extension failed")
		return
	}

	if m.store != nil && len(result.Entries) > 0 {
		m.mu.Lock()
		m.nextGenerationID++
		genID := m.nextGenerationID
		m.mu.Unlock()
		pub := m.store.PublishAtomicReplace(result.Entries[0].StartUTCMS, result.EndUTCMS, result.Entries, genID, "REASON_TIME_THRESHOLD")
		if !pub.OK {
			m.recordAttempt(ExtensionAttempt{
				AttemptID: attemptID, NowUTCMS: nowMS,
				WindowEndBeforeMS: windowEndBefore, WindowEndAfterMS: windowEndBefore,
				ReasonCode: "REASON_TIME_THRESHOLD", TriggeredBy: "SCHED_MGR_POLICY",
				Success: false, ErrorCode: pub.ErrorCode,
			})
			m.log.Warn().Str("error_code", pub.ErrorCode).Msg("proactive atomic publish rejected")
			return
		}
	}

	m.mu.Lock()
	if result.EndUTCMS > m.executionWindowEnd {
		m.executionWindowEnd = result.EndUTCMS
	}
	m.successCount++
	windowEndAfter := m.executionWindowEnd
	m.mu.Unlock()

	m.recordAttempt(ExtensionAttempt{
		AttemptID: attemptID, NowUTCMS: nowMS,
		WindowEndBeforeMS: windowEndBefore, WindowEndAfterMS: windowEndAfter,
		ReasonCode: "REASON_TIME_THRESHOLD", TriggeredBy: "SCHED_MGR_POLICY",
		Success: true,
	})
}

// Serve implements suture.Service: evaluate, then sleep for the configured
// interval, until ctx is cancelled.
func (m *Manager) Serve(ctx context.Context) error {
	interval := m.cfg.EvaluationInterval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	m.log.Info().Dur("interval", interval).Msg("horizon manager started")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.EvaluateOnce()
	for {
		select {
		case <-ctx.Done():
			m.log.Info().Msg("horizon manager stopped")
			return ctx.Err()
		case <-ticker.C:
			m.EvaluateOnce()
		}
	}
}
