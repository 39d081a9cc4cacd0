// RetroVue - Linear Broadcast Scheduling and Playout Automation
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slbailey/retrovue

package database

import (
	"fmt"
	"strings"
	"time"
)

// buildInClause creates a parameterized IN clause for SQL queries.
// Returns the placeholder string and the arguments slice.
//
// Example:
//
//	placeholders, args := buildInClause([]string{"chan1", "chan2"})
//	// placeholders = "?,?"
//	// args = []interface{}{"chan1", "chan2"}
func buildInClause(items []string) (string, []interface{}) {
	placeholders := make([]string, len(items))
	args := make([]interface{}, len(items))
	for i, item := range items {
		placeholders[i] = "?"
		args[i] = item
	}
	return strings.Join(placeholders, ","), args
}

// PlaylogEventFilter narrows a playlog_events query by channel and
// broadcast-start-time range, the two axes both the operator CLI's audit
// queries and evidence reconciliation tooling need.
type PlaylogEventFilter struct {
	ChannelIDs []string
	StartDate  *time.Time
	EndDate    *time.Time
}

// buildFilterConditions builds WHERE clause conditions for
// PlaylogEventFilter (channel IN clause plus a start_utc date range).
//
// Returns SQL conditions (without the WHERE keyword) and corresponding
// arguments. The base query should already have "WHERE 1=1" to which
// these conditions are appended.
func (f *PlaylogEventFilter) buildFilterConditions() (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if len(f.ChannelIDs) > 0 {
		placeholders, channelArgs := buildInClause(f.ChannelIDs)
		conditions = append(conditions, fmt.Sprintf("channel_id IN (%s)", placeholders))
		args = append(args, channelArgs...)
	}

	if f.StartDate != nil {
		conditions = append(conditions, "start_utc >= ?")
		args = append(args, *f.StartDate)
	}

	if f.EndDate != nil {
		conditions = append(conditions, "start_utc <= ?")
		args = append(args, *f.EndDate)
	}

	if len(conditions) > 0 {
		return " AND " + strings.Join(conditions, " AND "), args
	}
	return "", args
}
