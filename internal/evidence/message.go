// RetroVue - Linear Broadcast Scheduling and Playout Automation
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slbailey/retrovue

// Package evidence implements C8: the evidence server. A playout session
// streams evidence of what actually aired; the server maps each message to
// as-run artifacts, durably writes them, and only then acknowledges — ACK
// implies durability. Grounded on original_source's evidence_server.py.
// Redesigned onto a gorilla/websocket bidirectional stream (no example repo
// in the retrieval pack implements gRPC; internal/websocket already
// supplies the teacher's websocket stack).
package evidence

// PayloadKind is the evidence message's tagged variant.
type PayloadKind string

const (
	PayloadHello             PayloadKind = "hello"
	PayloadBlockStart        PayloadKind = "block_start"
	PayloadSegmentStart      PayloadKind = "segment_start"
	PayloadSegmentEnd        PayloadKind = "segment_end"
	PayloadBlockFence        PayloadKind = "block_fence"
	PayloadChannelTerminated PayloadKind = "channel_terminated"
)

type BlockStart struct {
	BlockID          string `json:"block_id"`
	ActualStartUTCMS int64  `json:"actual_start_utc_ms"`
	SwapTick         int64  `json:"swap_tick"`
	FenceTick        int64  `json:"fence_tick"`
}

type SegmentStart struct {
	BlockID             string `json:"block_id"`
	EventID             string `json:"event_id"`
	SegmentIndex        int    `json:"segment_index"`
	ActualStartUTCMS    int64  `json:"actual_start_utc_ms"`
	AssetStartFrame     int64  `json:"asset_start_frame"`
	ScheduledDurationMS int64  `json:"scheduled_duration_ms"`
	JoinInProgress      bool   `json:"join_in_progress"`
}

type SegmentEnd struct {
	BlockID                string `json:"block_id"`
	EventIDRef             string `json:"event_id_ref"`
	ActualStartUTCMS       int64  `json:"actual_start_utc_ms"`
	ActualEndUTCMS         int64  `json:"actual_end_utc_ms"`
	ComputedDurationMS     int64  `json:"computed_duration_ms"`
	ComputedDurationFrames int64  `json:"computed_duration_frames"`
	AssetStartFrame        int64  `json:"asset_start_frame"`
	AssetEndFrame          int64  `json:"asset_end_frame"`
	Status                 string `json:"status"` // "AIRED" | "TRUNCATED" | ""
	Reason                 string `json:"reason"`
	FallbackFramesUsed     bool   `json:"fallback_frames_used"`
}

type BlockFence struct {
	BlockID            string `json:"block_id"`
	ActualEndUTCMS     int64  `json:"actual_end_utc_ms"`
	SwapTick           int64  `json:"swap_tick"`
	FenceTick          int64  `json:"fence_tick"`
	TotalFramesEmitted int64  `json:"total_frames_emitted"`
	PrimedSuccess      bool   `json:"primed_success"`
	TruncatedByFence   bool   `json:"truncated_by_fence"`
	EarlyExhaustion    bool   `json:"early_exhaustion"`
}

type ChannelTerminated struct {
	TerminationUTCMS int64  `json:"termination_utc_ms"`
	Reason           string `json:"reason"`
	Detail           string `json:"detail"`
}

// Message is one evidence event from a playout session.
type Message struct {
	Sequence          int64              `json:"sequence"`
	EventUUID         string             `json:"event_uuid"`
	ChannelID         string             `json:"channel_id"`
	PlayoutSessionID  string             `json:"playout_session_id"`
	Payload           PayloadKind        `json:"payload"`
	BlockStart        *BlockStart        `json:"block_start,omitempty"`
	SegmentStart      *SegmentStart      `json:"segment_start,omitempty"`
	SegmentEnd        *SegmentEnd        `json:"segment_end,omitempty"`
	BlockFence        *BlockFence        `json:"block_fence,omitempty"`
	ChannelTerminated *ChannelTerminated `json:"channel_terminated,omitempty"`
}

// Ack is the server's response to one evidence message. It is only sent
// after the corresponding as-run lines are flushed and fsynced.
type Ack struct {
	ChannelID        string `json:"channel_id"`
	PlayoutSessionID string `json:"playout_session_id"`
	AckedSequence    int64  `json:"acked_sequence"`
}
