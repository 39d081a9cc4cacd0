// RetroVue - Linear Broadcast Scheduling and Playout Automation
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slbailey/retrovue

package database

import (
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/goccy/go-json"

	"github.com/slbailey/retrovue/internal/models"
)

// SchedulePlanStore is the DuckDB-backed read side of schedule_plans,
// programs, and plan_labels: the declarative recurring programming the
// Horizon Manager's ScheduleExtender consults to pick which plan governs a
// given broadcast date.
type SchedulePlanStore struct {
	db *DB
}

func NewSchedulePlanStore(db *DB) *SchedulePlanStore { return &SchedulePlanStore{db: db} }

type recurrenceRow struct {
	DaysOfWeek []time.Weekday `json:"days_of_week,omitempty"`
	StartDate  time.Time      `json:"start_date,omitempty"`
	EndDate    time.Time      `json:"end_date,omitempty"`
}

// ListByChannel returns every SchedulePlan governing channelID, each with
// its Programs ordered by ordinal and Labels attached.
func (s *SchedulePlanStore) ListByChannel(channelID string) ([]models.SchedulePlan, error) {
	ctx, cancel := schemaContext()
	defer cancel()

	rows, err := s.db.conn.QueryContext(ctx,
		`SELECT id, channel_id, name, priority, recurrence
		 FROM schedule_plans WHERE channel_id = ? ORDER BY priority DESC`, channelID)
	if err != nil {
		return nil, fmt.Errorf("list schedule_plans: %w", err)
	}
	defer rows.Close()

	var plans []models.SchedulePlan
	for rows.Next() {
		var p models.SchedulePlan
		var recurrenceJSON []byte
		if err := rows.Scan(&p.ID, &p.ChannelID, &p.Name, &p.Priority, &recurrenceJSON); err != nil {
			return nil, fmt.Errorf("scan schedule_plans: %w", err)
		}
		var rec recurrenceRow
		if len(recurrenceJSON) > 0 {
			if err := json.Unmarshal(recurrenceJSON, &rec); err != nil {
				return nil, fmt.Errorf("unmarshal recurrence for plan %s: %w", p.ID, err)
			}
		}
		p.Recurrence = models.Recurrence{DaysOfWeek: rec.DaysOfWeek, StartDate: rec.StartDate, EndDate: rec.EndDate}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range plans {
		programs, err := s.programsFor(plans[i].ID)
		if err != nil {
			return nil, err
		}
		plans[i].Programs = programs

		labels, err := s.labelsFor(plans[i].ID)
		if err != nil {
			return nil, err
		}
		plans[i].Labels = labels
	}
	return plans, nil
}

func (s *SchedulePlanStore) programsFor(planID string) ([]models.Program, error) {
	ctx, cancel := schemaContext()
	defer cancel()
	rows, err := s.db.conn.QueryContext(ctx,
		`SELECT start_minutes, duration_minutes, content_type, content_ref, label, play_mode
		 FROM programs WHERE plan_id = ? ORDER BY ordinal ASC`, planID)
	if err != nil {
		return nil, fmt.Errorf("list programs for plan %s: %w", planID, err)
	}
	defer rows.Close()

	var programs []models.Program
	for rows.Next() {
		var p models.Program
		var label, playMode sql.NullString
		if err := rows.Scan(&p.StartMinutes, &p.DurationMin, &p.ContentType, &p.ContentRef, &label, &playMode); err != nil {
			return nil, fmt.Errorf("scan program for plan %s: %w", planID, err)
		}
		p.Label = label.String
		p.PlayMode = models.PlayMode(playMode.String)
		programs = append(programs, p)
	}
	return programs, rows.Err()
}

func (s *SchedulePlanStore) labelsFor(planID string) ([]models.Label, error) {
	ctx, cancel := schemaContext()
	defer cancel()
	rows, err := s.db.conn.QueryContext(ctx,
		`SELECT name, ref FROM plan_labels WHERE plan_id = ? ORDER BY name ASC`, planID)
	if err != nil {
		return nil, fmt.Errorf("list plan_labels for plan %s: %w", planID, err)
	}
	defer rows.Close()

	var labels []models.Label
	for rows.Next() {
		var l models.Label
		if err := rows.Scan(&l.Name, &l.Ref); err != nil {
			return nil, fmt.Errorf("scan plan_labels for plan %s: %w", planID, err)
		}
		labels = append(labels, l)
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i].Name < labels[j].Name })
	return labels, rows.Err()
}
