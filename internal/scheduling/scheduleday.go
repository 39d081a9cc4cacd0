// RetroVue - Linear Broadcast Scheduling and Playout Automation
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slbailey/retrovue

package scheduling

import (
	"fmt"
	"sort"
	"time"

	"github.com/slbailey/retrovue/internal/models"
)

// VirtualAssetToleranceMS is the configurable tolerance between a
// VirtualAsset package's declared total runtime and the sum of its expanded
// events. Fixed at 2s per spec.md §9's open-question resolution.
const VirtualAssetToleranceMS = 2000

func slotAbsoluteInterval(day time.Time, dayStartHour int, slot models.ResolvedSlot) (time.Time, time.Time) {
	start := slot.SlotTime
	if start.Hour() < dayStartHour {
		start = start.AddDate(0, 0, 1)
	}
	end := start.Add(time.Duration(slot.DurationSeconds) * time.Second)
	return start, end
}

// ValidateScheduleDay checks that a ResolvedScheduleDay's slots are sorted
// and non-overlapping, and that schedule_day_id consistency holds for any
// associated PlaylogEvents supplied by the caller.
func ValidateScheduleDay(day models.ResolvedScheduleDay, dayStartHour int) error {
	var violations []string

	if len(day.ResolvedSlots) == 0 {
		violations = append(violations, "no resolved slots")
		return newValidationError("SCHEDULEDAY", violations)
	}

	type interval struct {
		start, end time.Time
		idx        int
	}
	intervals := make([]interval, len(day.ResolvedSlots))
	for i, s := range day.ResolvedSlots {
		start, end := slotAbsoluteInterval(day.ProgrammingDayDate, dayStartHour, s)
		intervals[i] = interval{start: start, end: end, idx: i}
	}
	sort.Slice(intervals, func(i, j int) bool { return intervals[i].start.Before(intervals[j].start) })

	for i := 0; i < len(intervals)-1; i++ {
		a, b := intervals[i], intervals[i+1]
		if a.start.Before(b.end) && a.end.After(b.start) {
			violations = append(violations, fmt.Sprintf("slot[%d] overlaps slot[%d]", a.idx, b.idx))
		}
	}

	return newValidationError("SCHEDULEDAY", violations)
}

// ValidateContiguity enforces INV-SCHEDULEDAY-NO-GAPS-001 / the testable
// "Contiguity" property: slots tile [effectiveStart, boundary+24h) with no
// gaps or overlaps, where effectiveStart defaults to the broadcast-day
// boundary unless a carry-in from the preceding day pushes it later.
func ValidateContiguity(day models.ResolvedScheduleDay, dayStartHour int, effectiveStart *time.Time) error {
	var violations []string

	if len(day.ResolvedSlots) == 0 {
		return newValidationError("SCHEDULEDAY-NO-GAPS", []string{"no slots: broadcast day entirely uncovered"})
	}

	loc := day.ProgrammingDayDate.Location()
	boundary := time.Date(
		day.ProgrammingDayDate.Year(), day.ProgrammingDayDate.Month(), day.ProgrammingDayDate.Day(),
		dayStartHour, 0, 0, 0, loc,
	)
	dayEnd := boundary.Add(24 * time.Hour)
	start := boundary
	if effectiveStart != nil {
		start = *effectiveStart
	}

	type interval struct {
		start, end time.Time
		idx        int
	}
	intervals := make([]interval, len(day.ResolvedSlots))
	for i, s := range day.ResolvedSlots {
		st, en := slotAbsoluteInterval(day.ProgrammingDayDate, dayStartHour, s)
		intervals[i] = interval{start: st, end: en, idx: i}
	}
	sort.Slice(intervals, func(i, j int) bool { return intervals[i].start.Before(intervals[j].start) })

	if !intervals[0].start.Equal(start) {
		violations = append(violations, fmt.Sprintf("first slot starts at %s, expected %s", intervals[0].start, start))
	}

	for i := 0; i < len(intervals)-1; i++ {
		cur, next := intervals[i], intervals[i+1]
		if cur.end.Before(next.start) {
			violations = append(violations, fmt.Sprintf("gap between slot[%d] end %s and slot[%d] start %s", cur.idx, cur.end, next.idx, next.start))
		} else if cur.end.After(next.start) {
			violations = append(violations, fmt.Sprintf("overlap between slot[%d] and slot[%d]", cur.idx, next.idx))
		}
	}

	if last := intervals[len(intervals)-1]; last.end.Before(dayEnd) {
		violations = append(violations, fmt.Sprintf("last slot ends at %s, broadcast day ends at %s", last.end, dayEnd))
	}

	return newValidationError("SCHEDULEDAY-NO-GAPS", violations)
}

// ValidateSeam enforces INV-SCHEDULEDAY-SEAM-NO-OVERLAP-001: if the
// preceding day's last slot carries past the broadcast-day boundary, the
// new day's first slot must not start before that carry-in end.
func ValidateSeam(newDay models.ResolvedScheduleDay, preceding *models.ResolvedScheduleDay, dayStartHour int) error {
	if preceding == nil || len(preceding.ResolvedSlots) == 0 || len(newDay.ResolvedSlots) == 0 {
		return nil
	}

	loc := newDay.ProgrammingDayDate.Location()
	boundary := time.Date(
		newDay.ProgrammingDayDate.Year(), newDay.ProgrammingDayDate.Month(), newDay.ProgrammingDayDate.Day(),
		dayStartHour, 0, 0, 0, loc,
	)

	prevSlots := append([]models.ResolvedSlot(nil), preceding.ResolvedSlots...)
	sort.Slice(prevSlots, func(i, j int) bool { return prevSlots[i].SlotTime.Before(prevSlots[j].SlotTime) })
	_, carryInEnd := slotAbsoluteInterval(preceding.ProgrammingDayDate, dayStartHour, prevSlots[len(prevSlots)-1])

	if !carryInEnd.After(boundary) {
		return nil
	}

	newSlots := append([]models.ResolvedSlot(nil), newDay.ResolvedSlots...)
	sort.Slice(newSlots, func(i, j int) bool { return newSlots[i].SlotTime.Before(newSlots[j].SlotTime) })
	firstStart, _ := slotAbsoluteInterval(newDay.ProgrammingDayDate, dayStartHour, newSlots[0])

	if firstStart.Before(carryInEnd) {
		return newValidationError("SCHEDULEDAY-SEAM-NO-OVERLAP", []string{
			fmt.Sprintf("preceding day carries in until %s, new day first slot starts at %s", carryInEnd, firstStart),
		})
	}
	return nil
}

// EffectiveStart computes the new day's effective coverage start given an
// optional preceding day: the carry-in end if it pushes past the boundary,
// otherwise nil (use the nominal boundary).
func EffectiveStart(preceding *models.ResolvedScheduleDay, newDayDate time.Time, dayStartHour int) *time.Time {
	if preceding == nil || len(preceding.ResolvedSlots) == 0 {
		return nil
	}
	loc := newDayDate.Location()
	boundary := time.Date(newDayDate.Year(), newDayDate.Month(), newDayDate.Day(), dayStartHour, 0, 0, 0, loc)

	prevSlots := append([]models.ResolvedSlot(nil), preceding.ResolvedSlots...)
	sort.Slice(prevSlots, func(i, j int) bool { return prevSlots[i].SlotTime.Before(prevSlots[j].SlotTime) })
	_, carryInEnd := slotAbsoluteInterval(preceding.ProgrammingDayDate, dayStartHour, prevSlots[len(prevSlots)-1])

	if carryInEnd.After(boundary) {
		return &carryInEnd
	}
	return nil
}

// ValidatePlaylogEvent enforces the PlaylogEvent invariants: start < end,
// asset UUID present, broadcast_day matches YYYY-MM-DD.
func ValidatePlaylogEvent(e models.PlaylogEvent) error {
	var violations []string
	if !e.StartUTC.Before(e.EndUTC) {
		violations = append(violations, "start_utc must be before end_utc")
	}
	if e.AssetUUID == "" {
		violations = append(violations, "asset_uuid is required")
	}
	if _, err := time.Parse("2006-01-02", e.BroadcastDay); err != nil {
		violations = append(violations, "broadcast_day must match YYYY-MM-DD")
	}
	return newValidationError("PLAYLOGEVENT", violations)
}

// ValidateNoOverlappingEvents checks that no two PlaylogEvents in the same
// ScheduleDay overlap.
func ValidateNoOverlappingEvents(events []models.PlaylogEvent) error {
	var violations []string
	sorted := append([]models.PlaylogEvent(nil), events...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].StartUTC.Before(sorted[j].StartUTC) })
	for i := 0; i < len(sorted)-1; i++ {
		a, b := sorted[i], sorted[i+1]
		if a.StartUTC.Before(b.EndUTC) && a.EndUTC.After(b.StartUTC) {
			violations = append(violations, fmt.Sprintf("event %s overlaps event %s", a.UUID, b.UUID))
		}
	}
	return newValidationError("PLAYLOGEVENT-OVERLAP", violations)
}
