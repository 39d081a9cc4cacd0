// RetroVue - Linear Broadcast Scheduling and Playout Automation
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slbailey/retrovue

// Package compiler implements C3: expanding a ResolvedScheduleDay's slots
// into CompiledProgramLog blocks of segmented content plus unfilled break
// placeholders, grounded on original_source's expand_program_block /
// playout_log_expander contract. Compiled blocks never carry real
// commercial/filler URIs: INV-TRAFFIC-LATE-BIND-001 requires fill_ad_blocks
// (internal/traffic) to resolve breaks just before air, not at compile time.
package compiler

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/slbailey/retrovue/internal/models"
)

// BlockIDSeed derives a stable block_id from (channelID, slotStartUTC), so
// recompiling the same schedule day produces identical block identities and
// downstream consumers (Tier-2 horizon, evidence server) can correlate
// across regenerations.
func BlockIDSeed(channelID string, slotStartUTC time.Time) string {
	h := sha1.New()
	fmt.Fprintf(h, "%s|%d", channelID, slotStartUTC.UTC().UnixMilli())
	return "block-" + hex.EncodeToString(h.Sum(nil))[:16]
}

// AssetEpisode carries what the compiler needs to know about a resolved
// episode/asset to lay out its segments: duration and any chapter-style
// break markers expressed as millisecond offsets from the start of the
// asset. Break markers partition an asset into content segments separated
// by break placeholders, mirroring a syndicated program's internal break
// structure.
type AssetEpisode struct {
	AssetURI       string
	DurationMS     int64
	BreakMarkersMS []int64
}

// CompileSlot expands one resolved slot into a ScheduledBlock: content
// segments for each run of the asset between break markers, an empty
// filler placeholder (asset_uri="") for each break, a trailing filler
// placeholder for any slot time left over once the episode and its breaks
// are laid out, and a zero-duration BLACK pad that anchors the block to the
// slot's exact end.
//
// Grounded on expand_program_block: asset content is the authoritative
// timeline, breaks are inserted at its markers, and every gap the episode
// itself doesn't cover — between markers or after the final run — is a
// filler placeholder, never a pad, so traffic.FillAdBlocks
// (INV-TRAFFIC-LATE-BIND-001) sees it and replaces it at fill time. The pad
// trailer only ever anchors the boundary; it carries no fillable time.
func CompileSlot(channelID string, slotStartUTC time.Time, slotDurationMS int64, episode AssetEpisode) models.ScheduledBlock {
	var segments []models.ScheduledSegment
	cursor := int64(0)

	var markers []int64
	for _, marker := range episode.BreakMarkersMS {
		if marker <= cursor || marker > episode.DurationMS {
			continue
		}
		markers = append(markers, marker)
		cursor = marker
	}

	// slackMS is the slot time left once the episode's own runtime is
	// accounted for. It is carved evenly across the episode's break
	// markers so content + breaks tile the slot exactly; a slot with no
	// markers carries all of it into the trailing filler below instead
	// (Scenario A: episode shorter than slot, no chapter breaks).
	slackMS := slotDurationMS - episode.DurationMS
	if slackMS < 0 {
		slackMS = 0
	}
	var breakDurationMS, breakRemainderMS int64
	if n := int64(len(markers)); n > 0 {
		breakDurationMS = slackMS / n
		breakRemainderMS = slackMS % n
	}

	cursor = 0
	for i, marker := range markers {
		segments = append(segments, models.ScheduledSegment{
			SegmentType:        models.SegmentContent,
			AssetURI:           episode.AssetURI,
			AssetStartOffsetMS: cursor,
			SegmentDurationMS:  marker - cursor,
		})
		dur := breakDurationMS
		if i == len(markers)-1 {
			dur += breakRemainderMS // integer-division remainder lands on the last break
		}
		segments = append(segments, models.ScheduledSegment{
			SegmentType:       models.SegmentFiller,
			AssetURI:          "", // INV-TRAFFIC-LATE-BIND-001: unfilled until fill time
			SegmentDurationMS: dur,
		})
		cursor = marker
	}

	// Final content run, from the last marker (or start) to the episode's end.
	if cursor < episode.DurationMS {
		segments = append(segments, models.ScheduledSegment{
			SegmentType:        models.SegmentContent,
			AssetURI:           episode.AssetURI,
			AssetStartOffsetMS: cursor,
			SegmentDurationMS:  episode.DurationMS - cursor,
		})
	}

	contentAndBreaksMS := int64(0)
	for _, s := range segments {
		contentAndBreaksMS += s.SegmentDurationMS
	}
	remainder := slotDurationMS - contentAndBreaksMS
	if remainder < 0 {
		remainder = 0
	}
	if remainder > 0 {
		segments = append(segments, models.ScheduledSegment{
			SegmentType:       models.SegmentFiller,
			AssetURI:          "", // INV-TRAFFIC-LATE-BIND-001: unfilled until fill time
			SegmentDurationMS: remainder,
		})
	}
	segments = append(segments, models.ScheduledSegment{
		SegmentType:       models.SegmentPad,
		AssetURI:          "",
		SegmentDurationMS: 0,
		Title:             "BLACK",
	})

	return models.ScheduledBlock{
		BlockID:    BlockIDSeed(channelID, slotStartUTC),
		ChannelID:  channelID,
		StartUTCMS: slotStartUTC.UTC().UnixMilli(),
		EndUTCMS:   slotStartUTC.UTC().UnixMilli() + slotDurationMS,
		Segments:   segments,
	}
}

// CompileScheduleDay expands every resolved slot in day into a
// CompiledProgramLog. episodeLookup resolves a ResolvedSlot's asset
// reference to episode metadata (duration, break markers); slots whose
// content_type is asset/series/random go through the lookup, while
// rule/virtual_package slots (ResolvedAssetRef carrying a reference the
// compiler cannot expand without its own collaborators) are left as a
// single full-duration content segment pointing at the resolved reference,
// letting a specialised expander replace it in a later compile pass.
func CompileScheduleDay(day models.ResolvedScheduleDay, dayStartHour int, episodeLookup func(ref string) (AssetEpisode, bool)) models.CompiledProgramLog {
	var blocks []models.ScheduledBlock
	for _, slot := range day.ResolvedSlots {
		slotDurationMS := int64(slot.DurationSeconds) * 1000
		episode, ok := episodeLookup(slot.ResolvedAssetRef)
		if !ok {
			blocks = append(blocks, models.ScheduledBlock{
				BlockID:    BlockIDSeed(day.ChannelID, slot.SlotTime),
				ChannelID:  day.ChannelID,
				StartUTCMS: slot.SlotTime.UTC().UnixMilli(),
				EndUTCMS:   slot.SlotTime.UTC().UnixMilli() + slotDurationMS,
				Segments: []models.ScheduledSegment{{
					SegmentType:       models.SegmentContent,
					AssetURI:          slot.ResolvedAssetRef,
					SegmentDurationMS: slotDurationMS,
				}},
			})
			continue
		}
		blocks = append(blocks, CompileSlot(day.ChannelID, slot.SlotTime, slotDurationMS, episode))
	}

	return models.CompiledProgramLog{
		ChannelID:       day.ChannelID,
		BroadcastDay:    day.ProgrammingDayDate,
		Locked:          false,
		SegmentedBlocks: blocks,
		CompiledAtUTC:   time.Time{}, // stamped by the caller at persist time
	}
}
