// RetroVue - Linear Broadcast Scheduling and Playout Automation
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slbailey/retrovue

package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/slbailey/retrovue/internal/models"
)

type fakeCatalog struct {
	episodes map[string][]string
}

func (f fakeCatalog) Episodes(ref string) ([]string, error) {
	return f.episodes[ref], nil
}

type memSeq struct{ pos map[string]int }

func newMemSeq() *memSeq { return &memSeq{pos: map[string]int{}} }

func (m *memSeq) GetPosition(channelID, programID string) int {
	return m.pos[channelID+"/"+programID]
}

func (m *memSeq) SetPosition(channelID, programID string, index int) {
	m.pos[channelID+"/"+programID] = index
}

func TestManager_SequentialAdvancesAndWraps(t *testing.T) {
	catalog := fakeCatalog{episodes: map[string][]string{"show-1": {"ep1", "ep2", "ep3"}}}
	seq := newMemSeq()
	m := NewManager(catalog, seq)

	loc := time.UTC
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, loc)
	slot := models.ScheduleSlot{
		SlotTime: time.Date(2025, 6, 1, 6, 0, 0, 0, loc), DurationSeconds: 1320,
		ContentType: models.ContentSeries, ContentRef: "show-1", PlayMode: models.PlayModeSequential,
	}

	for i, want := range []string{"ep1", "ep2", "ep3", "ep1"} {
		resolved, err := m.ResolveDay("retro1", day, []models.ScheduleSlot{slot}, "plan-1")
		require.NoError(t, err)
		require.Len(t, resolved.ResolvedSlots, 1)
		require.Equal(t, want, resolved.ResolvedSlots[0].ResolvedAssetRef, "iteration %d", i)
	}
}

func TestRenderSlots_MidnightAnchoredRollsToNextDate(t *testing.T) {
	loc := time.UTC
	plan := models.SchedulePlan{
		Programs: []models.Program{
			{StartMinutes: 0, DurationMin: 60, ContentType: models.ContentAsset, ContentRef: "overnight"},
		},
	}
	broadcastDay := time.Date(2025, 6, 1, 0, 0, 0, 0, loc)
	slots := RenderSlots(plan, broadcastDay, 6)
	require.Len(t, slots, 1)
	require.Equal(t, 0, slots[0].SlotTime.Hour())
	require.Equal(t, 1, slots[0].SlotTime.Day())
}

func TestSelectGoverningPlan_PrefersHigherPriority(t *testing.T) {
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) // Sunday
	low := models.SchedulePlan{ID: "low", Priority: 1}
	high := models.SchedulePlan{ID: "high", Priority: 5}
	plan, ok := SelectGoverningPlan([]models.SchedulePlan{low, high}, day)
	require.True(t, ok)
	require.Equal(t, "high", plan.ID)
}

func TestSelectGoverningPlan_RecurrenceFilters(t *testing.T) {
	sunday := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	weekdayOnly := models.SchedulePlan{
		ID: "weekday", Priority: 10,
		Recurrence: models.Recurrence{DaysOfWeek: []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}},
	}
	weekendPlan := models.SchedulePlan{
		ID: "weekend", Priority: 1,
		Recurrence: models.Recurrence{DaysOfWeek: []time.Weekday{time.Saturday, time.Sunday}},
	}
	plan, ok := SelectGoverningPlan([]models.SchedulePlan{weekdayOnly, weekendPlan}, sunday)
	require.True(t, ok)
	require.Equal(t, "weekend", plan.ID)
}
