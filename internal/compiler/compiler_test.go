// RetroVue - Linear Broadcast Scheduling and Playout Automation
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slbailey/retrovue

package compiler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/slbailey/retrovue/internal/models"
)

func TestCompileSlot_FillerPlaceholdersAreEmpty(t *testing.T) {
	episode := AssetEpisode{
		AssetURI:       "/media/shows/ep1.mp4",
		DurationMS:     1_320_000,
		BreakMarkersMS: []int64{330_000, 660_000, 990_000},
	}
	start := time.Unix(1_739_800_000, 0).UTC()
	block := CompileSlot("retro1", start, 1_800_000, episode)

	for _, seg := range block.Segments {
		if seg.SegmentType == models.SegmentFiller {
			require.Equal(t, "", seg.AssetURI, "compile-time filler must be an unfilled placeholder")
		}
		if seg.SegmentType == models.SegmentContent {
			require.NotEmpty(t, seg.AssetURI, "content segments must always carry a real URI")
		}
	}
}

func TestCompileSlot_TrailingRemainderIsFillerNotPad(t *testing.T) {
	episode := AssetEpisode{AssetURI: "/media/shows/ep1.mp4", DurationMS: 1_320_000}
	start := time.Unix(1_739_800_000, 0).UTC()
	block := CompileSlot("retro1", start, 1_800_000, episode)

	require.Equal(t, int64(1_800_000), block.Duration())
	require.Len(t, block.Segments, 3, "content + trailing filler + zero pad")

	filler := block.Segments[1]
	require.Equal(t, models.SegmentFiller, filler.SegmentType)
	require.Equal(t, "", filler.AssetURI)
	require.Equal(t, int64(480_000), filler.SegmentDurationMS)
	require.True(t, filler.IsUnfilledPlaceholder(), "trailing remainder must be fillable by traffic.FillAdBlocks")

	last := block.Segments[len(block.Segments)-1]
	require.Equal(t, models.SegmentPad, last.SegmentType)
	require.Equal(t, "BLACK", last.Title)
	require.Equal(t, int64(0), last.SegmentDurationMS, "the pad trailer only anchors the boundary")

	total := int64(0)
	for _, s := range block.Segments {
		total += s.SegmentDurationMS
	}
	require.Equal(t, int64(1_800_000), total)
}

func TestCompileSlot_NoResidualWhenEpisodeFillsSlotExactly(t *testing.T) {
	episode := AssetEpisode{AssetURI: "/media/shows/ep1.mp4", DurationMS: 1_800_000}
	start := time.Unix(1_739_800_000, 0).UTC()
	block := CompileSlot("retro1", start, 1_800_000, episode)

	last := block.Segments[len(block.Segments)-1]
	require.Equal(t, int64(0), last.SegmentDurationMS)
}

func TestBlockIDSeed_StableAcrossRecompilation(t *testing.T) {
	start := time.Unix(1_739_800_000, 0).UTC()
	a := BlockIDSeed("retro1", start)
	b := BlockIDSeed("retro1", start)
	require.Equal(t, a, b)

	c := BlockIDSeed("retro1", start.Add(time.Minute))
	require.NotEqual(t, a, c)
}

func TestCompileScheduleDay_UnresolvableRefPassesThrough(t *testing.T) {
	day := models.ResolvedScheduleDay{
		ChannelID:          "retro1",
		ProgrammingDayDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		ResolvedSlots: []models.ResolvedSlot{
			{
				ScheduleSlot:     models.ScheduleSlot{SlotTime: time.Date(2025, 6, 1, 6, 0, 0, 0, time.UTC), DurationSeconds: 1800},
				ResolvedAssetRef: "virtual:holiday-marathon",
			},
		},
	}
	log := CompileScheduleDay(day, 6, func(ref string) (AssetEpisode, bool) { return AssetEpisode{}, false })
	require.Len(t, log.SegmentedBlocks, 1)
	require.Equal(t, "virtual:holiday-marathon", log.SegmentedBlocks[0].Segments[0].AssetURI)
}
