// RetroVue - Linear Broadcast Scheduling and Playout Automation
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slbailey/retrovue

package models

import (
	"time"

	"github.com/goccy/go-json"
)

// CompiledProgramLog is Tier 1: the per-(channel, broadcast_day) cached
// expansion of a ResolvedScheduleDay into segmented blocks, with empty
// filler placeholders still in place.
type CompiledProgramLog struct {
	ChannelID      string           `json:"channel_id"`
	BroadcastDay   time.Time        `json:"broadcast_day"`
	Locked         bool             `json:"locked"`
	SegmentedBlocks []ScheduledBlock `json:"segmented_blocks"`
	CompiledAtUTC  time.Time        `json:"compiled_at_utc"`
}

// TransmissionLog is Tier 2: the per-block materialized, fully late-bound
// playout row. This is the only table the channel manager reads at feed
// time (INV-CHANNEL-NO-COMPILE-001).
type TransmissionLog struct {
	BlockID      string             `json:"block_id"`
	ChannelSlug  string             `json:"channel_slug"`
	BroadcastDay time.Time          `json:"broadcast_day"`
	StartUTCMS   int64              `json:"start_utc_ms"`
	EndUTCMS     int64              `json:"end_utc_ms"`
	Segments     []ScheduledSegment `json:"segments"`
}

// PlaylogEvent records one aired/scheduled occurrence traceable to a
// Program within a ResolvedScheduleDay.
type PlaylogEvent struct {
	UUID         string    `json:"uuid"`
	ChannelID    string    `json:"channel_id"`
	ScheduleDayID string   `json:"schedule_day_id"`
	AssetUUID    string    `json:"asset_uuid"`
	StartUTC     time.Time `json:"start_utc"`
	EndUTC       time.Time `json:"end_utc"`
	BroadcastDay string    `json:"broadcast_day"` // YYYY-MM-DD
}

// TrafficPlayLog records one actual on-air play of an interstitial/ad asset,
// used by the traffic manager to evaluate cooldowns at the next fill.
type TrafficPlayLog struct {
	AssetURI  string    `json:"asset_uri"`
	ChannelID string    `json:"channel_id"`
	PlayedAt  time.Time `json:"played_at"`
	BlockID   string    `json:"block_id"`
}

// HorizonAuditRow is one row of horizon_audit_log: a durable record of an
// ExtensionAttempt or SeamViolation raised by the Horizon Manager, consumed
// off the horizon audit bus (internal/eventprocessor).
type HorizonAuditRow struct {
	ID            int64           `json:"id,omitempty"`
	ChannelID     string          `json:"channel_id"`
	EventType     string          `json:"event_type"`
	BroadcastDay  string          `json:"broadcast_day,omitempty"` // YYYY-MM-DD
	FrontierUTCMS int64           `json:"frontier_utc_ms,omitempty"`
	ReasonCode    string          `json:"reason_code,omitempty"`
	Detail        json.RawMessage `json:"detail,omitempty"`
	RecordedAtUTC time.Time       `json:"recorded_at_utc"`
}
