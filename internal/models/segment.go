// RetroVue - Linear Broadcast Scheduling and Playout Automation
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slbailey/retrovue

package models

// SegmentType enumerates the kinds of material a ScheduledSegment can carry.
type SegmentType string

const (
	SegmentContent    SegmentType = "content"
	SegmentFiller     SegmentType = "filler"
	SegmentCommercial SegmentType = "commercial"
	SegmentPromo      SegmentType = "promo"
	SegmentIdent      SegmentType = "ident"
	SegmentPSA        SegmentType = "psa"
	SegmentPad        SegmentType = "pad"
)

// TransitionKind describes an optional transition applied at a segment
// boundary. TransitionNone is the zero value and is never serialized.
type TransitionKind string

const (
	TransitionNone TransitionKind = "TRANSITION_NONE"
)

// ScheduledSegment is one piece of a ScheduledBlock: either resolved content,
// an unfilled break placeholder (AssetURI == ""), or a zero-duration pad.
type ScheduledSegment struct {
	SegmentType            SegmentType    `json:"segment_type"`
	AssetURI               string         `json:"asset_uri"`
	AssetStartOffsetMS     int64          `json:"asset_start_offset_ms"`
	SegmentDurationMS      int64          `json:"segment_duration_ms"`
	TransitionIn           TransitionKind `json:"transition_in,omitempty"`
	TransitionInDurationMS int64          `json:"transition_in_duration_ms,omitempty"`
	TransitionOut          TransitionKind `json:"transition_out,omitempty"`
	TransitionOutDurationMS int64         `json:"transition_out_duration_ms,omitempty"`
	Title                  string         `json:"title,omitempty"`
}

// IsUnfilledPlaceholder is true for a Tier-1 break awaiting late-bound fill.
// INV-TRAFFIC-LATE-BIND-001: only the Tier-2 writer may turn this false.
func (s ScheduledSegment) IsUnfilledPlaceholder() bool {
	return s.SegmentType == SegmentFiller && s.AssetURI == ""
}

// ScheduledBlock is one slot's worth of segments with absolute timing,
// shared by the Tier-1 compiler's output and the traffic manager's input.
type ScheduledBlock struct {
	BlockID      string             `json:"block_id"`
	ChannelID    string             `json:"channel_id"`
	StartUTCMS   int64              `json:"start_utc_ms"`
	EndUTCMS     int64              `json:"end_utc_ms"`
	Segments     []ScheduledSegment `json:"segments"`
}

// Duration returns the block's total span in milliseconds.
func (b ScheduledBlock) Duration() int64 { return b.EndUTCMS - b.StartUTCMS }
