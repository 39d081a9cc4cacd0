// RetroVue - Linear Broadcast Scheduling and Playout Automation
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slbailey/retrovue

package models

import "time"

// Label resolves a named reference used by Programs within one SchedulePlan.
type Label struct {
	Name string `json:"name"`
	Ref  string `json:"ref"`
}

// Program is one block assignment within a SchedulePlan: a start time (as
// minutes since schedule-time 00:00), a duration, and a content reference.
type Program struct {
	StartMinutes int         `json:"start_minutes"`
	DurationMin  int         `json:"duration_minutes"`
	ContentType  ContentType `json:"content_type"`
	ContentRef   string      `json:"content_ref"`
	Label        string      `json:"label,omitempty"`
	PlayMode     PlayMode    `json:"play_mode,omitempty"`
}

// Recurrence is a minimal cron-like date matcher: which broadcast dates a
// SchedulePlan governs. Carried from original_source, not named by
// spec.md's distillation but required to pick "which plan governs this
// broadcast date" during resolution.
type Recurrence struct {
	// DaysOfWeek lists time.Weekday values this plan is active on. Empty
	// means every day.
	DaysOfWeek []time.Weekday `json:"days_of_week,omitempty"`
	// StartDate/EndDate bound the plan's validity window (inclusive).
	// Zero value means unbounded in that direction.
	StartDate time.Time `json:"start_date,omitempty"`
	EndDate   time.Time `json:"end_date,omitempty"`
}

// Matches reports whether the recurrence governs broadcast date d (a
// midnight-truncated date in the channel's local timezone).
func (r Recurrence) Matches(d time.Time) bool {
	if !r.StartDate.IsZero() && d.Before(truncateDate(r.StartDate)) {
		return false
	}
	if !r.EndDate.IsZero() && d.After(truncateDate(r.EndDate)) {
		return false
	}
	if len(r.DaysOfWeek) == 0 {
		return true
	}
	for _, w := range r.DaysOfWeek {
		if w == d.Weekday() {
			return true
		}
	}
	return false
}

func truncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SchedulePlan is a declarative, recurring programming spec anchored at
// schedule-time 00:00.
type SchedulePlan struct {
	ID         string     `json:"id"`
	ChannelID  string     `json:"channel_id"`
	Name       string     `json:"name"`
	Priority   int        `json:"priority"`
	Recurrence Recurrence `json:"recurrence"`
	Programs   []Program  `json:"programs"`
	Labels     []Label    `json:"labels,omitempty"`
}

// ScheduleSlot is one plan-rendering-for-a-day entry passed into
// ScheduleManager: a Program resolved to an absolute slot_time, still
// content-reference-unresolved.
type ScheduleSlot struct {
	SlotTime        time.Time   `json:"slot_time"`
	DurationSeconds int         `json:"duration_seconds"`
	ContentType     ContentType `json:"content_type"`
	ContentRef      string      `json:"content_ref"`
	Label           string      `json:"label,omitempty"`
	PlayMode        PlayMode    `json:"play_mode,omitempty"`
}

// ResolvedSlot is a ScheduleSlot after content resolution: the concrete
// episode/asset reference ScheduleManager picked.
type ResolvedSlot struct {
	ScheduleSlot
	ResolvedAssetRef string `json:"resolved_asset_ref"`
	EpisodeIndex     int    `json:"episode_index,omitempty"`
}

// ResolvedScheduleDay is the immutable per-(channel, programming_day_date)
// materialization of a SchedulePlan (or an operator override).
type ResolvedScheduleDay struct {
	ChannelID          string         `json:"channel_id"`
	ProgrammingDayDate time.Time      `json:"programming_day_date"`
	ResolvedSlots      []ResolvedSlot `json:"resolved_slots"`
	PlanID             string         `json:"plan_id,omitempty"`
	IsManualOverride   bool           `json:"is_manual_override"`
	SupersedesID       string         `json:"supersedes_id,omitempty"`
	ResolvedAtUTC      time.Time      `json:"resolved_at_utc"`
	// SequenceSnapshot captures the SequenceStateStore positions consumed
	// while resolving this day, for audit/replay.
	SequenceSnapshot map[string]int `json:"sequence_snapshot,omitempty"`
}
