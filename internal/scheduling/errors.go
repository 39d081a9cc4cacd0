// RetroVue - Linear Broadcast Scheduling and Playout Automation
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slbailey/retrovue

// Package scheduling implements the structural invariants of spec.md §4.1:
// SchedulePlan, Program, ResolvedScheduleDay, and PlaylogEvent validation.
// Every entry point collects all violations before failing, grounded on
// original_source's contracts.py, which never raises on the first error.
package scheduling

import "strings"

// ValidationError aggregates every violation found during one validation
// pass, ported from original_source's SchedulePlanValidationError /
// BlockAssignmentValidationError pattern.
type ValidationError struct {
	Kind       string
	Violations []string
}

func (e *ValidationError) Error() string {
	return e.Kind + "-VIOLATED: " + strings.Join(e.Violations, "; ")
}

func newValidationError(kind string, violations []string) error {
	if len(violations) == 0 {
		return nil
	}
	return &ValidationError{Kind: kind, Violations: violations}
}
