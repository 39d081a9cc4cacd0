// RetroVue - Linear Broadcast Scheduling and Playout Automation
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slbailey/retrovue

package manager

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/slbailey/retrovue/internal/clock"
)

type fakeSchedule struct {
	resolved map[string]bool
}

func newFakeSchedule() *fakeSchedule { return &fakeSchedule{resolved: map[string]bool{}} }

func (f *fakeSchedule) EPGDayExists(d time.Time) bool { return f.resolved[d.Format("2006-01-02")] }
func (f *fakeSchedule) ExtendEPGDay(d time.Time) error {
	f.resolved[d.Format("2006-01-02")] = true
	return nil
}

type fakeExecution struct {
	blockDurationMS int64
	calls           int
}

func (f *fakeExecution) ExtendExecutionDay(d time.Time) (ExecutionResult, error) {
	f.calls++
	start := clock.BroadcastDay(d, time.UTC, 6).Add(6 * time.Hour).UnixMilli()
	end := start + f.blockDurationMS
	return ExecutionResult{
		EndUTCMS: end,
		Entries:  []ExecutionEntry{{BlockID: d.Format("2006-01-02"), StartUTCMS: start, EndUTCMS: end}},
	}, nil
}

type fakeStore struct {
	entries []ExecutionEntry
}

func (s *fakeStore) GetEntryAt(nowMS int64) *ExecutionEntry {
	for i := range s.entries {
		if s.entries[i].StartUTCMS <= nowMS && nowMS < s.entries[i].EndUTCMS {
			return &s.entries[i]
		}
	}
	return nil
}
func (s *fakeStore) GetAllEntries() []ExecutionEntry { return s.entries }
func (s *fakeStore) AddEntries(entries []ExecutionEntry) {
	s.entries = append(s.entries, entries...)
}
func (s *fakeStore) PublishAtomicReplace(rangeStartMS, rangeEndMS int64, newEntries []ExecutionEntry, generationID int64, reasonCode string) PublishResult {
	s.entries = append(s.entries, newEntries...)
	return PublishResult{OK: true}
}

func TestEvaluateOnce_ExtendsEPGAndExecutionWhenBelowThreshold(t *testing.T) {
	fc := clock.NewFake(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	sched := newFakeSchedule()
	exec := &fakeExecution{blockDurationMS: 24 * 3600 * 1000}
	store := &fakeStore{}

	m := New(sched, exec, store, fc, Config{
		MinEPGDays: 2, MinExecutionHours: 12, EvaluationInterval: time.Second,
		ProgrammingDayStartHour: 6,
	}, zerolog.Nop())

	m.EvaluateOnce()

	require.True(t, m.EPGWindowEndUTCMS() > 0)
	require.True(t, m.ExecutionWindowEndUTCMS() > fc.NowUTC().UnixMilli())
	require.NotEmpty(t, sched.resolved)
}

func TestCheckSeamContiguity_DetectsGapAndOverlap(t *testing.T) {
	fc := clock.NewFake(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	m := New(newFakeSchedule(), &fakeExecution{}, &fakeStore{}, fc, Config{ProgrammingDayStartHour: 6}, zerolog.Nop())

	m.store = &fakeStore{entries: []ExecutionEntry{
		{BlockID: "a", StartUTCMS: 0, EndUTCMS: 1000},
		{BlockID: "b", StartUTCMS: 1500, EndUTCMS: 2000}, // gap of 500ms
	}}
	m.checkSeamContiguity()

	violations := m.SeamViolations()
	require.Len(t, violations, 1)
	require.Equal(t, int64(500), violations[0].DeltaMS)
	require.False(t, m.coverageCompliant)
}

func TestCheckNextBlockReady_LockedWindowBlocksFill(t *testing.T) {
	fc := clock.NewFake(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	exec := &fakeExecution{blockDurationMS: 3600_000}
	store := &fakeStore{} // empty: no block at now
	m := New(newFakeSchedule(), exec, store, fc, Config{
		ProgrammingDayStartHour: 6, LockedWindow: 5 * time.Minute,
	}, zerolog.Nop())
	m.store = store

	m.checkNextBlockReady(fc.NowUTC().UnixMilli(), clock.BroadcastDay(fc.NowUTC(), time.UTC, 6))

	require.False(t, m.nextBlockCompliant)
	require.Equal(t, 0, exec.calls, "locked window must not attempt a pipeline fill")
	attempts := m.ExtensionAttemptLog()
	require.Len(t, attempts, 1)
	require.Equal(t, "INV-HORIZON-LOCKED-IMMUTABLE-001-VIOLATED", attempts[0].ErrorCode)
}

func TestCheckNextBlockReady_FillsOutsideLockedWindow(t *testing.T) {
	fc := clock.NewFake(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	exec := &fakeExecution{blockDurationMS: 24 * 3600 * 1000}
	store := &fakeStore{}
	m := New(newFakeSchedule(), exec, store, fc, Config{ProgrammingDayStartHour: 6}, zerolog.Nop())
	m.store = store

	bd := clock.BroadcastDay(fc.NowUTC(), time.UTC, 6)
	m.checkNextBlockReady(fc.NowUTC().UnixMilli(), bd)

	require.Equal(t, 1, exec.calls)
	require.True(t, m.nextBlockCompliant)
}
