// RetroVue - Linear Broadcast Scheduling and Playout Automation
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slbailey/retrovue

// Package schedule implements C2: ScheduleManager resolves a SchedulePlan's
// slots into a ResolvedScheduleDay, and ResolvedScheduleStore enforces the
// one-per-date, immutable, derivation-traceable storage contract. Grounded
// on original_source's schedule_manager_service.py InMemoryResolvedStore.
package schedule

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/slbailey/retrovue/internal/models"
	"github.com/slbailey/retrovue/internal/scheduling"
)

// ErrAlreadyExists is returned by Store when a record already exists for
// (channel, date); use ForceReplace for atomic regeneration.
var ErrAlreadyExists = errors.New("schedule: resolved schedule day already exists for channel/date")

// ErrNotFound is returned by ForceReplace/Delete/Get when no record exists.
var ErrNotFound = errors.New("schedule: no resolved schedule day for channel/date")

// ErrAnchorProtected is returned by Delete when an ExecutionWindowStore
// reports downstream artifacts still reference the anchor.
var ErrAnchorProtected = errors.New("schedule: resolved schedule day has downstream execution entries, delete refused")

// ErrImmutable is returned unconditionally by Update.
var ErrImmutable = errors.New("schedule: in-place update of resolved schedule day is unconditionally prohibited")

// ExecutionAnchorChecker reports whether downstream execution artifacts
// still reference a (channel, date) anchor, gating Delete.
type ExecutionAnchorChecker interface {
	HasEntriesFor(channelID string, date time.Time) bool
}

// ResolvedScheduleStore is the persistence contract for ResolvedScheduleDay,
// per spec.md §4.2.
type ResolvedScheduleStore interface {
	Get(channelID string, date time.Time) (*models.ResolvedScheduleDay, error)
	Exists(channelID string, date time.Time) bool
	Store(channelID string, day models.ResolvedScheduleDay) error
	ForceReplace(channelID string, day models.ResolvedScheduleDay) error
	Update(channelID string, date time.Time, fields map[string]any) error
	OperatorOverride(channelID string, day models.ResolvedScheduleDay) (models.ResolvedScheduleDay, error)
	Delete(channelID string, date time.Time) error
}

// MemoryStore is an in-process ResolvedScheduleStore, suitable for tests and
// as the cache layer in front of the DuckDB-backed store in production.
// Mutual exclusion is a single mutex guarding the whole map, matching
// spec.md §5's "per-store lock" concurrency discipline.
type MemoryStore struct {
	mu               sync.Mutex
	days             map[string]map[time.Time]models.ResolvedScheduleDay
	dayStartHour     int
	anchorChecker    ExecutionAnchorChecker
	enforceDerivation bool
}

// NewMemoryStore constructs a store that validates seam/contiguity against
// dayStartHour on every Store/ForceReplace call.
func NewMemoryStore(dayStartHour int, anchorChecker ExecutionAnchorChecker) *MemoryStore {
	return &MemoryStore{
		days:             make(map[string]map[time.Time]models.ResolvedScheduleDay),
		dayStartHour:     dayStartHour,
		anchorChecker:    anchorChecker,
		enforceDerivation: true,
	}
}

func dateKey(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func (s *MemoryStore) enforceTraceability(day models.ResolvedScheduleDay) error {
	if !s.enforceDerivation {
		return nil
	}
	if !day.IsManualOverride && day.PlanID == "" {
		return fmt.Errorf("SCHEDULEDAY-DERIVATION-TRACEABLE-VIOLATED: day for %s has no plan_id and is_manual_override=false", day.ProgrammingDayDate)
	}
	return nil
}

func (s *MemoryStore) Get(channelID string, date time.Time) (*models.ResolvedScheduleDay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	channelDays, ok := s.days[channelID]
	if !ok {
		return nil, nil
	}
	d, ok := channelDays[dateKey(date)]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (s *MemoryStore) Exists(channelID string, date time.Time) bool {
	d, _ := s.Get(channelID, date)
	return d != nil
}

func (s *MemoryStore) validateSeamAndContiguity(channelID string, day models.ResolvedScheduleDay, excludeSelf bool) error {
	channelDays := s.days[channelID]
	prevDate := dateKey(day.ProgrammingDayDate).AddDate(0, 0, -1)
	var preceding *models.ResolvedScheduleDay
	if p, ok := channelDays[prevDate]; ok {
		preceding = &p
	}
	if err := scheduling.ValidateSeam(day, preceding, s.dayStartHour); err != nil {
		return err
	}
	effStart := scheduling.EffectiveStart(preceding, day.ProgrammingDayDate, s.dayStartHour)
	return scheduling.ValidateContiguity(day, s.dayStartHour, effStart)
}

// Store inserts a new ResolvedScheduleDay. INV-SCHEDULEDAY-ONE-PER-DATE-001:
// fails with ErrAlreadyExists if a record already exists for this date.
func (s *MemoryStore) Store(channelID string, day models.ResolvedScheduleDay) error {
	if err := s.enforceTraceability(day); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.days[channelID] == nil {
		s.days[channelID] = make(map[time.Time]models.ResolvedScheduleDay)
	}
	key := dateKey(day.ProgrammingDayDate)
	if _, exists := s.days[channelID][key]; exists {
		return ErrAlreadyExists
	}
	if err := s.validateSeamAndContiguity(channelID, day, false); err != nil {
		return err
	}
	s.days[channelID][key] = day
	return nil
}

// ForceReplace atomically swaps an existing record for a new one. The
// critical section guarantees no reader observes zero records mid-swap.
func (s *MemoryStore) ForceReplace(channelID string, day models.ResolvedScheduleDay) error {
	if err := s.enforceTraceability(day); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	channelDays := s.days[channelID]
	key := dateKey(day.ProgrammingDayDate)
	if channelDays == nil {
		return ErrNotFound
	}
	if _, exists := channelDays[key]; !exists {
		return ErrNotFound
	}
	if err := s.validateSeamAndContiguity(channelID, day, true); err != nil {
		return err
	}
	channelDays[key] = day
	return nil
}

// Update is unconditionally forbidden: INV-SCHEDULEDAY-IMMUTABLE-001.
func (s *MemoryStore) Update(channelID string, date time.Time, fields map[string]any) error {
	return ErrImmutable
}

// OperatorOverride creates a new record with is_manual_override=true and
// supersedes_id pointing at the original, atomically swapping it in.
func (s *MemoryStore) OperatorOverride(channelID string, day models.ResolvedScheduleDay) (models.ResolvedScheduleDay, error) {
	s.mu.Lock()
	key := dateKey(day.ProgrammingDayDate)
	existing, hadExisting := s.days[channelID][key]
	s.mu.Unlock()

	day.IsManualOverride = true
	if hadExisting {
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

// Delete refuses to remove a record while downstream execution artifacts
// reference it (INV-DERIVATION-ANCHOR-PROTECTED-001).
func (s *MemoryStore) Delete(channelID string, date time.Time) error {
	if s.anchorChecker != nil && s.anchorChecker.HasEntriesFor(channelID, date) {
		return ErrAnchorProtected
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.days[channelID] != nil {
		delete(s.days[channelID], dateKey(date))
	}
	return nil
}

// CheckLeadTime enforces INV-SCHEDULEDAY-LEAD-TIME-001: a ScheduleDay for
// date D must exist no later than D - minLeadDays.
func CheckLeadTime(store ResolvedScheduleStore, channelID string, target time.Time, nowUTC time.Time, minLeadDays, dayStartHour int) error {
	deadline := time.Date(
		target.Year(), target.Month(), target.Day()-minLeadDays,
		dayStartHour, 0, 0, 0, target.Location(),
	)
	if !nowUTC.After(deadline) {
		return nil
	}
	if store.Exists(channelID, target) {
		return nil
	}
	return fmt.Errorf("SCHEDULEDAY-LEAD-TIME-VIOLATED: no schedule day for channel=%s date=%s, deadline was %s, now is %s",
		channelID, target.Format("2006-01-02"), deadline, nowUTC)
}
