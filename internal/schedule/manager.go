// RetroVue - Linear Broadcast Scheduling and Playout Automation
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slbailey/retrovue

package schedule

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/slbailey/retrovue/internal/models"
)

// SequenceStateStore tracks per-channel, per-program episode position for
// sequential content resolution. Positions must survive process restart
// when backed persistently (internal/wal's BadgerDB-backed implementation).
type SequenceStateStore interface {
	GetPosition(channelID, programID string) int
	SetPosition(channelID, programID string, index int)
}

// EpisodeCatalog resolves a content_ref into the episodes available for
// sequential/random selection, mirroring original_source's ProgramCatalog.
type EpisodeCatalog interface {
	// Episodes returns the ordered episode refs for a content_ref. For
	// ContentAsset references this returns a single-element slice.
	Episodes(contentRef string) ([]string, error)
}

// Manager resolves ScheduleSlots into a ResolvedScheduleDay, consulting an
// EpisodeCatalog for content and a SequenceStateStore for sequential
// program cursors. Resolution is deterministic given its inputs.
type Manager struct {
	catalog EpisodeCatalog
	seq     SequenceStateStore
}

// NewManager constructs a ScheduleManager.
func NewManager(catalog EpisodeCatalog, seq SequenceStateStore) *Manager {
	return &Manager{catalog: catalog, seq: seq}
}

// ResolveDay resolves every slot in slots for (channelID, broadcastDay),
// advancing sequential sequence cursors in slot order. Random picks use a
// seed derived from (channelID, broadcastDay, slotTime) so a given day's
// resolution is reproducible even though it draws pseudo-randomly.
func (m *Manager) ResolveDay(channelID string, broadcastDay time.Time, slots []models.ScheduleSlot, planID string) (models.ResolvedScheduleDay, error) {
	resolved := make([]models.ResolvedSlot, 0, len(slots))
	snapshot := make(map[string]int)

	for _, slot := range slots {
		rs, err := m.resolveSlot(channelID, broadcastDay, slot)
		if err != nil {
			return models.ResolvedScheduleDay{}, fmt.Errorf("resolving slot at %s: %w", slot.SlotTime, err)
		}
		resolved = append(resolved, rs)
		if slot.PlayMode == models.PlayModeSequential {
			snapshot[slot.ContentRef] = m.seq.GetPosition(channelID, slot.ContentRef)
		}
	}

	return models.ResolvedScheduleDay{
		ChannelID:          channelID,
		ProgrammingDayDate: broadcastDay,
		ResolvedSlots:      resolved,
		PlanID:             planID,
		SequenceSnapshot:   snapshot,
	}, nil
}

func (m *Manager) resolveSlot(channelID string, broadcastDay time.Time, slot models.ScheduleSlot) (models.ResolvedSlot, error) {
	switch slot.ContentType {
	case models.ContentAsset:
		return models.ResolvedSlot{ScheduleSlot: slot, ResolvedAssetRef: slot.ContentRef}, nil

	case models.ContentSeries:
		episodes, err := m.catalog.Episodes(slot.ContentRef)
		if err != nil {
			return models.ResolvedSlot{}, err
		}
		if len(episodes) == 0 {
			return models.ResolvedSlot{}, fmt.Errorf("series %q has no episodes", slot.ContentRef)
		}
		switch slot.PlayMode {
		case models.PlayModeRandom:
			idx := seededIndex(channelID, broadcastDay, slot.SlotTime, len(episodes))
			return models.ResolvedSlot{ScheduleSlot: slot, ResolvedAssetRef: episodes[idx], EpisodeIndex: idx}, nil
		default: // sequential is the default play mode for series
			idx := m.seq.GetPosition(channelID, slot.ContentRef) % len(episodes)
			m.seq.SetPosition(channelID, slot.ContentRef, (idx+1)%len(episodes))
			return models.ResolvedSlot{ScheduleSlot: slot, ResolvedAssetRef: episodes[idx], EpisodeIndex: idx}, nil
		}

	case models.ContentRandom:
		episodes, err := m.catalog.Episodes(slot.ContentRef)
		if err != nil {
			return models.ResolvedSlot{}, err
		}
		if len(episodes) == 0 {
			return models.ResolvedSlot{}, fmt.Errorf("pool %q has no candidates", slot.ContentRef)
		}
		idx := seededIndex(channelID, broadcastDay, slot.SlotTime, len(episodes))
		return models.ResolvedSlot{ScheduleSlot: slot, ResolvedAssetRef: episodes[idx], EpisodeIndex: idx}, nil

	case models.ContentRule, models.ContentVirtualPackage:
		// Rule evaluation and virtual-package expansion are external
		// collaborators (asset ingest / rule engine); resolution here
		// just carries the reference forward for the compiler to expand.
		return models.ResolvedSlot{ScheduleSlot: slot, ResolvedAssetRef: slot.ContentRef}, nil

	default:
		return models.ResolvedSlot{}, fmt.Errorf("unknown content_type %q", slot.ContentType)
	}
}

// seededIndex derives a reproducible pick in [0, n) from
// (channelID, broadcastDay, slotTime), per spec.md §4.2.
func seededIndex(channelID string, broadcastDay, slotTime time.Time, n int) int {
	seed := int64(0)
	for _, b := range []byte(channelID) {
		seed = seed*31 + int64(b)
	}
	seed ^= broadcastDay.Unix()
	seed ^= slotTime.Unix() << 1
	r := rand.New(rand.NewSource(seed))
	return r.Intn(n)
}

// SelectGoverningPlan picks which SchedulePlan governs broadcastDay among
// candidates, preferring the highest-priority plan whose recurrence
// matches, breaking ties by plan ID for determinism.
func SelectGoverningPlan(candidates []models.SchedulePlan, broadcastDay time.Time) (*models.SchedulePlan, bool) {
	var best *models.SchedulePlan
	for i := range candidates {
		p := &candidates[i]
		if !p.Recurrence.Matches(broadcastDay) {
			continue
		}
		if best == nil || p.Priority > best.Priority || (p.Priority == best.Priority && p.ID < best.ID) {
			best = p
		}
	}
	if best == nil {
		return nil, false
	}
	return best, true
}

// RenderSlots turns a SchedulePlan's Programs into absolute ScheduleSlots
// for broadcastDay. Program.StartMinutes is midnight-anchored (schedule-time
// 00:00, per spec.md §3): a slot whose clock hour falls before the
// channel's day-start hour belongs to the tail of this broadcast day, on
// the following calendar date. scheduling.slotAbsoluteInterval performs
// that same rollover when validating contiguity, so the two must agree.
func RenderSlots(plan models.SchedulePlan, broadcastDay time.Time, dayStartHour int) []models.ScheduleSlot {
	loc := broadcastDay.Location()
	midnight := time.Date(broadcastDay.Year(), broadcastDay.Month(), broadcastDay.Day(), 0, 0, 0, 0, loc)

	slots := make([]models.ScheduleSlot, 0, len(plan.Programs))
	for _, p := range plan.Programs {
		slotTime := midnight.Add(time.Duration(p.StartMinutes) * time.Minute)
		slots = append(slots, models.ScheduleSlot{
			SlotTime:        slotTime,
			DurationSeconds: p.DurationMin * 60,
			ContentType:     p.ContentType,
			ContentRef:      p.ContentRef,
			Label:           p.Label,
			PlayMode:        p.PlayMode,
		})
	}
	return slots
}
