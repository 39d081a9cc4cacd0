// RetroVue - Linear Broadcast Scheduling and Playout Automation
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slbailey/retrovue

package evidence

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/slbailey/retrovue/internal/clock"
	"github.com/slbailey/retrovue/internal/models"
	"github.com/slbailey/retrovue/internal/traffic"
)

// PlayRecorder persists a play for cooldown accounting, consulted by
// traffic.CooldownFilteredLibrary on the next fill. Satisfied by
// internal/database.TrafficPlayLogStore.
type PlayRecorder interface {
	RecordPlay(ctx context.Context, play models.TrafficPlayLog) error
}

// SegmentLookup resolves a ScheduledSegment for enrichment of an
// otherwise bare segment_end event — the segment's type, asset URI and
// title are known at compile time, not carried on every evidence message.
type SegmentLookup interface {
	LookupSegment(blockID string, segmentIndex int) (models.ScheduledSegment, bool)
}

type segmentEnrichment struct {
	segType models.SegmentType
	assetURI string
	title   string
}

// streamState is the per-connection bookkeeping for one evidence stream.
// A Processor is shared across all connections; streamState is not.
type streamState struct {
	channelID string
	sessionID string

	writer        *AsRunWriter
	durableAckSeq int64

	seenUUIDs map[string]struct{}

	currentBlockID  string
	lastSegmentIndex int
	enrichByEventID map[string]segmentEnrichment
	joinInProgress  map[string]bool
	lastAssetEndFrame map[string]int64 // keyed by block_id
	emittedTerminals  map[string]bool  // keyed by event_id|segment_index, AR-ART-008

	terminated bool
}

func newStreamState(channelID, sessionID string, durableAckSeq int64) *streamState {
	return &streamState{
		channelID:         channelID,
		sessionID:         sessionID,
		durableAckSeq:     durableAckSeq,
		lastSegmentIndex:  -1,
		seenUUIDs:         map[string]struct{}{},
		enrichByEventID:   map[string]segmentEnrichment{},
		joinInProgress:    map[string]bool{},
		lastAssetEndFrame: map[string]int64{},
		emittedTerminals:  map[string]bool{},
	}
}

// Processor applies evidence messages to durable as-run artifacts. One
// Processor is shared by every connected playout session; it owns no
// per-connection state itself (see streamState), only the shared stores.
type Processor struct {
	acks     AckStore
	segments SegmentLookup
	asrunDir string
	clock    clock.Clock
	log      zerolog.Logger

	plays PlayRecorder // optional; set via SetPlayRecorder
}

func NewProcessor(acks AckStore, segments SegmentLookup, asrunDir string, c clock.Clock, log zerolog.Logger) *Processor {
	return &Processor{acks: acks, segments: segments, asrunDir: asrunDir, clock: c, log: log}
}

// SetPlayRecorder wires a play recorder for cooldown accounting. Optional:
// a Processor with no play recorder still writes as-run artifacts, it just
// never feeds cooldown history. Separate from NewProcessor so that tests
// constructing a Processor without a database-backed store are unaffected.
func (p *Processor) SetPlayRecorder(plays PlayRecorder) {
	p.plays = plays
}

// NewStream starts tracking one connection, seeding its durable high-water
// mark from the ack store so cross-stream replay (a session reconnecting
// after a crash) is rejected without rewriting already-durable lines.
func (p *Processor) NewStream(channelID, sessionID string) *streamState {
	return newStreamState(channelID, sessionID, p.acks.Get(channelID, sessionID))
}

// Close releases a stream's open writer, if any.
func (p *Processor) Close(ss *streamState) error {
	if ss.writer == nil {
		return nil
	}
	return ss.writer.Close()
}

// Process applies one message to the stream and returns the Ack to send
// back, or an error if the message could not be durably applied. Per
// ACK-implies-durability, the Ack is only returned once the corresponding
// write (if any) has been flushed and fsynced.
func (p *Processor) Process(ss *streamState, msg Message) (Ack, error) {
	ack := Ack{ChannelID: ss.channelID, PlayoutSessionID: ss.sessionID, AckedSequence: msg.Sequence}

	if msg.EventUUID != "" {
		if _, dup := ss.seenUUIDs[msg.EventUUID]; dup {
			return ack, nil
		}
	}
	if msg.Sequence <= ss.durableAckSeq {
		p.log.Debug().Str("channel_id", ss.channelID).Int64("sequence", msg.Sequence).
			Int64("durable_ack_seq", ss.durableAckSeq).Msg("evidence: replayed sequence already durable, skipping")
		return ack, nil
	}

	if ss.writer == nil && msg.Payload != PayloadHello {
		w, err := NewAsRunWriter(ss.channelID, p.asrunDir, p.clock.NowUTC())
		if err != nil {
			return Ack{}, fmt.Errorf("open as-run writer: %w", err)
		}
		ss.writer = w
	}

	var err error
	switch msg.Payload {
	case PayloadHello:
		// no-op: connection handshake only.
	case PayloadBlockStart:
		err = p.handleBlockStart(ss, msg)
	case PayloadSegmentStart:
		err = p.handleSegmentStart(ss, msg)
	case PayloadSegmentEnd:
		err = p.handleSegmentEnd(ss, msg)
	case PayloadBlockFence:
		err = p.handleBlockFence(ss, msg)
	case PayloadChannelTerminated:
		err = p.handleChannelTerminated(ss, msg)
	default:
		p.log.Warn().Str("payload", string(msg.Payload)).Msg("evidence: unrecognized payload kind")
	}
	if err != nil {
		return Ack{}, err
	}

	if msg.EventUUID != "" {
		ss.seenUUIDs[msg.EventUUID] = struct{}{}
	}
	ss.durableAckSeq = msg.Sequence
	p.acks.Update(ss.channelID, ss.sessionID, msg.Sequence)
	return ack, nil
}

// normalizeTick implements AR-ART-003: swap_tick and fence_tick should
// agree; when they disagree, fence_tick is authoritative, since the fence
// is the hard boundary actually enforced by the playout engine.
func (p *Processor) normalizeTick(blockID string, swapTick, fenceTick int64) int64 {
	if fenceTick != 0 && swapTick != fenceTick {
		p.log.Warn().Str("block_id", blockID).Int64("swap_tick", swapTick).Int64("fence_tick", fenceTick).
			Msg("AR-ART-003: swap_tick/fence_tick mismatch, fence_tick is authoritative")
	}
	if fenceTick != 0 {
		return fenceTick
	}
	return swapTick
}

func (p *Processor) handleBlockStart(ss *streamState, msg Message) error {
	b := msg.BlockStart
	p.normalizeTick(b.BlockID, b.SwapTick, b.FenceTick)
	ss.currentBlockID = b.BlockID
	ss.lastSegmentIndex = -1
	if _, ok := ss.lastAssetEndFrame[b.BlockID]; !ok {
		ss.lastAssetEndFrame[b.BlockID] = -1
	}
	return nil
}

func (p *Processor) handleSegmentStart(ss *streamState, msg Message) error {
	s := msg.SegmentStart
	ss.lastSegmentIndex = s.SegmentIndex
	ss.joinInProgress[s.EventID] = s.JoinInProgress

	enrichment := segmentEnrichment{segType: models.SegmentContent}
	if p.segments != nil {
		if seg, ok := p.segments.LookupSegment(s.BlockID, s.SegmentIndex); ok {
			enrichment = segmentEnrichment{segType: seg.SegmentType, assetURI: seg.AssetURI, title: seg.Title}
		}
	}
	ss.enrichByEventID[s.EventID] = enrichment
	return nil
}

func (p *Processor) handleSegmentEnd(ss *streamState, msg Message) error {
	e := msg.SegmentEnd

	// AR-ART-008: reject a zero-frame AIRED/TRUNCATED claim outright; it
	// cannot represent real air time and would corrupt reconciliation.
	if (e.Status == "AIRED" || e.Status == "TRUNCATED") && e.ComputedDurationFrames == 0 {
		p.log.Warn().Str("event_id_ref", e.EventIDRef).Str("status", e.Status).
			Msg("AR-ART-008: rejecting zero-frame terminal segment_end")
		return nil
	}

	// AR-ART-008: a (event_id, segment_index) pair may only produce one
	// as-run line. A duplicate terminal for the same segment is dropped.
	key := fmt.Sprintf("%s|%d", e.EventIDRef, ss.lastSegmentIndex)
	if ss.emittedTerminals[key] {
		p.log.Debug().Str("key", key).Msg("AR-ART-008: duplicate terminal suppressed")
		return nil
	}

	if prevEnd, ok := ss.lastAssetEndFrame[e.BlockID]; ok && prevEnd >= 0 {
		joining := ss.joinInProgress[e.EventIDRef]
		if !joining && prevEnd+1 != e.AssetStartFrame {
			p.log.Warn().Str("block_id", e.BlockID).Int64("prev_asset_end_frame", prevEnd).
				Int64("asset_start_frame", e.AssetStartFrame).Msg("evidence: asset frame contiguity gap")
		}
	}

	enrichment := ss.enrichByEventID[e.EventIDRef]
	status := e.Status
	if status == "" {
		status = "AIRED"
	}

	line := formatAsRunLine(
		ss.writer.DisplayTime(e.ActualStartUTCMS),
		msToHHMMSS(e.ComputedDurationMS),
		status,
		traffic.AsRunTypeFor(enrichment.segType),
		e.EventIDRef,
		traffic.AsRunNotes(enrichment.title),
	)
	record := map[string]any{
		"event_id_ref":             e.EventIDRef,
		"block_id":                 e.BlockID,
		"segment_index":            ss.lastSegmentIndex,
		"actual_start_utc_ms":      e.ActualStartUTCMS,
		"actual_end_utc_ms":        e.ActualEndUTCMS,
		"computed_duration_ms":     e.ComputedDurationMS,
		"computed_duration_frames": e.ComputedDurationFrames,
		"asset_start_frame":        e.AssetStartFrame,
		"asset_end_frame":          e.AssetEndFrame,
		"status":                   status,
		"reason":                   e.Reason,
		"fallback_frames_used":     e.FallbackFramesUsed,
		"segment_type":             enrichment.segType,
		"asset_uri":                enrichment.assetURI,
		"title":                    enrichment.title,
	}
	if err := ss.writer.WriteAndFlush(line, record); err != nil {
		return err
	}

	ss.emittedTerminals[key] = true
	ss.lastAssetEndFrame[e.BlockID] = e.AssetEndFrame

	if p.plays != nil && (status == "AIRED" || status == "TRUNCATED") && enrichment.assetURI != "" {
		play := traffic.RecordPlay(enrichment.assetURI, ss.channelID, e.BlockID)
		if err := p.plays.RecordPlay(context.Background(), play); err != nil {
			p.log.Error().Err(err).Str("asset_uri", enrichment.assetURI).Str("block_id", e.BlockID).
				Msg("evidence: failed to record play for cooldown accounting")
		}
	}

	return nil
}

func (p *Processor) handleBlockFence(ss *streamState, msg Message) error {
	f := msg.BlockFence
	p.normalizeTick(f.BlockID, f.SwapTick, f.FenceTick)
	if f.TruncatedByFence {
		p.log.Warn().Str("block_id", f.BlockID).Int64("total_frames_emitted", f.TotalFramesEmitted).
			Msg("evidence: block truncated by fence")
	}
	if f.EarlyExhaustion {
		p.log.Warn().Str("block_id", f.BlockID).Msg("evidence: block exhausted before fence")
	}
	return nil
}

func (p *Processor) handleChannelTerminated(ss *streamState, msg Message) error {
	ss.terminated = true
	t := msg.ChannelTerminated
	p.log.Info().Str("channel_id", ss.channelID).Str("reason", t.Reason).
		Str("detail", t.Detail).Msg("evidence: channel terminated")

	notes := t.Reason
	if t.Detail != "" {
		notes += ": " + t.Detail
	}
	line := formatAsRunLine(
		ss.writer.DisplayTime(t.TerminationUTCMS),
		msToHHMMSS(0),
		"TERMINATED",
		"SYSTEM",
		msg.EventUUID,
		traffic.AsRunNotes(notes),
	)
	record := map[string]any{
		"event_uuid":         msg.EventUUID,
		"channel_id":         ss.channelID,
		"termination_utc_ms": t.TerminationUTCMS,
		"status":             "TERMINATED",
		"reason":             t.Reason,
		"detail":             t.Detail,
	}
	return ss.writer.WriteAndFlush(line, record)
}
