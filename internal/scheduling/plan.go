// RetroVue - Linear Broadcast Scheduling and Playout Automation
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slbailey/retrovue

package scheduling

import (
	"fmt"
	"sort"

	"github.com/slbailey/retrovue/internal/models"
)

// GridConfig describes a channel's grid alignment rule: duration and start
// offsets must be multiples of GridMinutes, with start additionally allowed
// to land on one of AllowedOffsetsMinutes.
type GridConfig struct {
	GridMinutes          int
	AllowedOffsetsMinutes []int
}

// DefaultGrid is the spec's default: 30-minute grid, offset 0 only.
func DefaultGrid() GridConfig {
	return GridConfig{GridMinutes: 30, AllowedOffsetsMinutes: []int{0}}
}

const minutesPerDay = 24 * 60

// ValidateSchedulePlan checks a SchedulePlan against every structural
// invariant from spec.md §4.1: per-program validity, non-overlap (scan-line
// on sorted start times), ascending order, total duration <= 24h, and label
// reference resolution. All violations are collected before returning.
func ValidateSchedulePlan(plan models.SchedulePlan, grid GridConfig) error {
	var violations []string

	labelSet := make(map[string]bool, len(plan.Labels))
	for _, l := range plan.Labels {
		labelSet[l.Name] = true
	}

	for i, p := range plan.Programs {
		if err := ValidateProgram(p, grid); err != nil {
			violations = append(violations, fmt.Sprintf("program[%d]: %v", i, err))
		}
		if p.Label != "" && !labelSet[p.Label] {
			violations = append(violations, fmt.Sprintf("program[%d]: label %q does not resolve in plan label set", i, p.Label))
		}
	}

	type interval struct {
		start, end int
		idx        int
	}
	intervals := make([]interval, len(plan.Programs))
	total := 0
	for i, p := range plan.Programs {
		intervals[i] = interval{start: p.StartMinutes, end: p.StartMinutes + p.DurationMin, idx: i}
		total += p.DurationMin
	}

	sorted := append([]interval(nil), intervals...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].start < sorted[j].start })

	for i := 0; i < len(sorted)-1; i++ {
		a, b := sorted[i], sorted[i+1]
		// Two intervals overlap iff s1 < e2 && e1 > s2.
		if a.start < b.end && a.end > b.start {
			violations = append(violations, fmt.Sprintf("program[%d] overlaps program[%d]", a.idx, b.idx))
		}
	}

	for i := 0; i < len(sorted)-1; i++ {
		if sorted[i].start > sorted[i+1].start {
			violations = append(violations, "programs are not in ascending start-time order")
			break
		}
	}

	if total > minutesPerDay {
		violations = append(violations, fmt.Sprintf("total program duration %dmin exceeds 24h", total))
	}

	return newValidationError("SCHEDULEPLAN", violations)
}

// ValidateProgram checks a single Program's structural validity: positive
// duration, start within [0, 1440) minutes, and grid alignment.
func ValidateProgram(p models.Program, grid GridConfig) error {
	var violations []string

	if p.DurationMin <= 0 {
		violations = append(violations, "duration must be positive")
	}
	if p.StartMinutes < 0 || p.StartMinutes >= minutesPerDay {
		violations = append(violations, "start_minutes must be in [0, 1440)")
	}
	switch p.ContentType {
	case models.ContentSeries, models.ContentAsset, models.ContentRule, models.ContentRandom, models.ContentVirtualPackage:
	default:
		violations = append(violations, fmt.Sprintf("unknown content_type %q", p.ContentType))
	}
	if p.ContentRef == "" {
		violations = append(violations, "content_ref is required")
	}

	if grid.GridMinutes > 0 {
		if p.DurationMin%grid.GridMinutes != 0 {
			violations = append(violations, fmt.Sprintf("duration %dmin is not a multiple of grid %dmin", p.DurationMin, grid.GridMinutes))
		}
		aligned := false
		offsets := grid.AllowedOffsetsMinutes
		if len(offsets) == 0 {
			offsets = []int{0}
		}
		for _, o := range offsets {
			if mod(p.StartMinutes-o, grid.GridMinutes) == 0 {
				aligned = true
				break
			}
		}
		if !aligned {
			violations = append(violations, fmt.Sprintf("start_minutes %d is not grid-aligned to any allowed offset", p.StartMinutes))
		}
	}

	return newValidationError("PROGRAM", violations)
}

func mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
