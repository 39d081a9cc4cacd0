// RetroVue - Linear Broadcast Scheduling and Playout Automation
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slbailey/retrovue

package evidence

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/slbailey/retrovue/internal/clock"
	"github.com/slbailey/retrovue/internal/models"
)

type fakeSegmentLookup struct {
	segments map[string]models.ScheduledSegment // keyed by "blockID|index"
}

func (f *fakeSegmentLookup) LookupSegment(blockID string, index int) (models.ScheduledSegment, bool) {
	seg, ok := f.segments[fmt.Sprintf("%s|%d", blockID, index)]
	return seg, ok
}

func newTestProcessor(t *testing.T) (*Processor, *streamState, string) {
	t.Helper()
	dir := t.TempDir()
	acks := NewFileAckStore(filepath.Join(dir, "acks"))
	lookup := &fakeSegmentLookup{segments: map[string]models.ScheduledSegment{
		"blk-1|0": {SegmentType: models.SegmentContent, AssetURI: "/shows/ep1.mp4", Title: "Episode 1"},
	}}
	fc := clock.NewFake(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	p := NewProcessor(acks, lookup, filepath.Join(dir, "asrun"), fc, zerolog.Nop())
	ss := p.NewStream("retro1", "session-a")
	return p, ss, dir
}

func segStart(seq int64) Message {
	return Message{
		Sequence: seq, EventUUID: "uuid-seg-start", ChannelID: "retro1", PlayoutSessionID: "session-a",
		Payload: PayloadSegmentStart,
		SegmentStart: &SegmentStart{
			BlockID: "blk-1", EventID: "evt-1", SegmentIndex: 0,
			ActualStartUTCMS: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC).UnixMilli(),
			AssetStartFrame:  0, ScheduledDurationMS: 30_000,
		},
	}
}

func segEnd(seq int64, status string, frames, assetEndFrame int64) Message {
	return Message{
		Sequence: seq, EventUUID: "uuid-seg-end", ChannelID: "retro1", PlayoutSessionID: "session-a",
		Payload: PayloadSegmentEnd,
		SegmentEnd: &SegmentEnd{
			BlockID: "blk-1", EventIDRef: "evt-1",
			ActualStartUTCMS: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC).UnixMilli(),
			ActualEndUTCMS:   time.Date(2025, 6, 1, 12, 0, 30, 0, time.UTC).UnixMilli(),
			ComputedDurationMS: 30_000, ComputedDurationFrames: frames,
			AssetStartFrame: 0, AssetEndFrame: assetEndFrame, Status: status,
		},
	}
}

func TestProcess_SegmentEndWritesEnrichedAsRunLine(t *testing.T) {
	p, ss, dir := newTestProcessor(t)

	_, err := p.Process(ss, segStart(1))
	require.NoError(t, err)
	ack, err := p.Process(ss, segEnd(2, "AIRED", 900, 899))
	require.NoError(t, err)
	require.Equal(t, int64(2), ack.AckedSequence)

	body, err := os.ReadFile(filepath.Join(dir, "asrun", "retro1", "2025-06-01.asrun"))
	require.NoError(t, err)
	require.Contains(t, string(body), "AIRED")
	require.Contains(t, string(body), "PROGRAM")
	require.Contains(t, string(body), "evt-1")
	require.Contains(t, string(body), "[Episode 1]")
}

type fakePlayRecorder struct {
	plays []models.TrafficPlayLog
}

func (f *fakePlayRecorder) RecordPlay(ctx context.Context, play models.TrafficPlayLog) error {
	f.plays = append(f.plays, play)
	return nil
}

func TestProcess_SegmentEndRecordsPlayForCooldownAccounting(t *testing.T) {
	p, ss, _ := newTestProcessor(t)
	recorder := &fakePlayRecorder{}
	p.SetPlayRecorder(recorder)

	_, err := p.Process(ss, segStart(1))
	require.NoError(t, err)
	_, err = p.Process(ss, segEnd(2, "AIRED", 900, 899))
	require.NoError(t, err)

	require.Len(t, recorder.plays, 1)
	require.Equal(t, "/shows/ep1.mp4", recorder.plays[0].AssetURI)
	require.Equal(t, "retro1", recorder.plays[0].ChannelID)
	require.Equal(t, "blk-1", recorder.plays[0].BlockID)
}

func TestProcess_NoPlayRecorderConfiguredDoesNotPanic(t *testing.T) {
	p, ss, _ := newTestProcessor(t)

	_, err := p.Process(ss, segStart(1))
	require.NoError(t, err)
	_, err = p.Process(ss, segEnd(2, "AIRED", 900, 899))
	require.NoError(t, err)
}

func TestProcess_ZeroFrameTerminalRejected(t *testing.T) {
	p, ss, dir := newTestProcessor(t)

	_, err := p.Process(ss, segStart(1))
	require.NoError(t, err)
	_, err = p.Process(ss, segEnd(2, "AIRED", 0, 0))
	require.NoError(t, err)

	body, err := os.ReadFile(filepath.Join(dir, "asrun", "retro1", "2025-06-01.asrun"))
	require.NoError(t, err)
	require.NotContains(t, string(body), "AIRED")
}

func TestProcess_DuplicateTerminalSuppressed(t *testing.T) {
	p, ss, dir := newTestProcessor(t)

	_, err := p.Process(ss, segStart(1))
	require.NoError(t, err)
	first := segEnd(2, "AIRED", 900, 899)
	_, err = p.Process(ss, first)
	require.NoError(t, err)

	second := segEnd(3, "AIRED", 900, 899)
	second.EventUUID = "uuid-seg-end-retry" // distinct uuid, same (event_id, segment_index)
	_, err = p.Process(ss, second)
	require.NoError(t, err)

	body, err := os.ReadFile(filepath.Join(dir, "asrun", "retro1", "2025-06-01.asrun"))
	require.NoError(t, err)
	count := 0
	for _, line := range strings.Split(string(body), "\n") {
		if strings.Contains(line, "evt-1") {
			count++
		}
	}
	require.Equal(t, 1, count)
}

func TestProcess_IntraStreamDedupByEventUUID(t *testing.T) {
	p, ss, _ := newTestProcessor(t)

	msg := segStart(1)
	_, err := p.Process(ss, msg)
	require.NoError(t, err)

	replay := msg // identical event_uuid, identical sequence
	ack, err := p.Process(ss, replay)
	require.NoError(t, err)
	require.Equal(t, int64(1), ack.AckedSequence)
	require.Len(t, ss.enrichByEventID, 1) // handler did not run twice
}

func TestProcess_CrossStreamReplayBelowDurableAckSkipped(t *testing.T) {
	dir := t.TempDir()
	acks := NewFileAckStore(filepath.Join(dir, "acks"))
	acks.Update("retro1", "session-a", 5)

	fc := clock.NewFake(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	p := NewProcessor(acks, nil, filepath.Join(dir, "asrun"), fc, zerolog.Nop())
	ss := p.NewStream("retro1", "session-a")
	require.Equal(t, int64(5), ss.durableAckSeq)

	msg := segStart(3) // sequence 3 <= durable_ack_seq 5: a reconnect replay
	ack, err := p.Process(ss, msg)
	require.NoError(t, err)
	require.Equal(t, int64(3), ack.AckedSequence)
	require.Empty(t, ss.enrichByEventID) // never dispatched
}

func TestProcess_ChannelTerminatedWritesTerminatedLine(t *testing.T) {
	p, ss, dir := newTestProcessor(t)

	msg := Message{
		Sequence: 1, EventUUID: "uuid-terminated", ChannelID: "retro1", PlayoutSessionID: "session-a",
		Payload: PayloadChannelTerminated,
		ChannelTerminated: &ChannelTerminated{
			TerminationUTCMS: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC).UnixMilli(),
			Reason:           "operator_stop",
			Detail:           "requested via CLI",
		},
	}
	ack, err := p.Process(ss, msg)
	require.NoError(t, err)
	require.Equal(t, int64(1), ack.AckedSequence)
	require.True(t, ss.terminated)

	body, err := os.ReadFile(filepath.Join(dir, "asrun", "retro1", "2025-06-01.asrun"))
	require.NoError(t, err)
	require.Contains(t, string(body), "TERMINATED")
	require.Contains(t, string(body), "SYSTEM")
	require.Contains(t, string(body), "operator_stop: requested via CLI")

	jsonl, err := os.ReadFile(filepath.Join(dir, "asrun", "retro1", "2025-06-01.asrun.jsonl"))
	require.NoError(t, err)
	require.Contains(t, string(jsonl), `"status":"TERMINATED"`)
}

func TestProcess_FenceTickAuthoritativeOverSwapTickMismatch(t *testing.T) {
	p, ss, _ := newTestProcessor(t)
	msg := Message{
		Sequence: 1, EventUUID: "uuid-block-start", ChannelID: "retro1", PlayoutSessionID: "session-a",
		Payload: PayloadBlockStart,
		BlockStart: &BlockStart{
			BlockID: "blk-1", ActualStartUTCMS: time.Now().UnixMilli(), SwapTick: 100, FenceTick: 104,
		},
	}
	_, err := p.Process(ss, msg)
	require.NoError(t, err)
	require.Equal(t, "blk-1", ss.currentBlockID)
}
