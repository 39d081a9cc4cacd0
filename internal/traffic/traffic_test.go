// RetroVue - Linear Broadcast Scheduling and Playout Automation
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slbailey/retrovue

package traffic

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/slbailey/retrovue/internal/models"
)

func blockWithEmptyFiller(breakDurationMS int64) models.ScheduledBlock {
	return models.ScheduledBlock{
		BlockID: "block-test",
		Segments: []models.ScheduledSegment{
			{SegmentType: models.SegmentContent, AssetURI: "/media/shows/ep1.mp4", SegmentDurationMS: 600_000},
			{SegmentType: models.SegmentFiller, AssetURI: "", SegmentDurationMS: breakDurationMS},
			{SegmentType: models.SegmentPad, AssetURI: "", SegmentDurationMS: 0},
		},
	}
}

type fixedLibrary struct {
	calls int
	pages [][]FillerAsset
}

func (f *fixedLibrary) GetFillerAssets(maxDurationMS int64, count int) []FillerAsset {
	if f.calls >= len(f.pages) {
		return nil
	}
	page := f.pages[f.calls]
	f.calls++
	return page
}

func TestFillAdBlocks_NilLibraryUsesStaticFiller(t *testing.T) {
	block := blockWithEmptyFiller(30_000)
	filled := FillAdBlocks(block, "/ads/static-filler.mp4", 60_000, nil)

	var fillers []models.ScheduledSegment
	for _, s := range filled.Segments {
		if s.SegmentType == models.SegmentFiller {
			fillers = append(fillers, s)
		}
	}
	require.Len(t, fillers, 1)
	require.Equal(t, "/ads/static-filler.mp4", fillers[0].AssetURI)
	require.Equal(t, int64(30_000), fillers[0].SegmentDurationMS)
}

func TestFillAdBlocks_BreakDurationExactWithLibrary(t *testing.T) {
	breakDurationMS := int64(90_000)
	block := blockWithEmptyFiller(breakDurationMS)
	lib := &fixedLibrary{pages: [][]FillerAsset{
		{{AssetURI: "/ads/spot-a.mp4", DurationMS: 30_000, AssetType: "commercial"}},
		{{AssetURI: "/ads/spot-b.mp4", DurationMS: 30_000, AssetType: "commercial"}},
		{},
	}}

	filled := FillAdBlocks(block, "/ads/filler.mp4", breakDurationMS, lib)

	var total int64
	sawContent := false
	for _, s := range filled.Segments {
		if s.SegmentType == models.SegmentContent {
			sawContent = true
			continue
		}
		if sawContent && s.SegmentDurationMS > 0 {
			total += s.SegmentDurationMS
		}
	}
	// one pad remains for the unfilled trailing placeholder (duration 0), so
	// just assert the break's own segments (commercial spots + its pad) sum
	// to the original allocation.
	require.Equal(t, breakDurationMS, total)
}

func TestFillAdBlocks_DistributesLeftoverAsPad(t *testing.T) {
	breakDurationMS := int64(62_000)
	block := blockWithEmptyFiller(breakDurationMS)
	lib := &fixedLibrary{pages: [][]FillerAsset{
		{{AssetURI: "/ads/spot-a.mp4", DurationMS: 30_000, AssetType: "commercial"}},
		{{AssetURI: "/ads/spot-b.mp4", DurationMS: 30_000, AssetType: "commercial"}},
		{},
	}}

	filled := FillAdBlocks(block, "/ads/filler.mp4", breakDurationMS, lib)

	var totalPad int64
	padCount := 0
	for _, s := range filled.Segments {
		if s.SegmentType == models.SegmentPad && s.SegmentDurationMS > 0 {
			totalPad += s.SegmentDurationMS
			padCount++
		}
	}
	require.GreaterOrEqual(t, padCount, 1)
	require.Equal(t, int64(2_000), totalPad)
}

func TestFillAdBlocks_EmptyLibraryResultFallsBackToStatic(t *testing.T) {
	block := blockWithEmptyFiller(30_000)
	lib := &fixedLibrary{pages: [][]FillerAsset{{}}}

	filled := FillAdBlocks(block, "/ads/static-filler.mp4", 60_000, lib)
	var fillers []models.ScheduledSegment
	for _, s := range filled.Segments {
		if s.SegmentType == models.SegmentFiller {
			fillers = append(fillers, s)
		}
	}
	require.Len(t, fillers, 1)
	require.Equal(t, "/ads/static-filler.mp4", fillers[0].AssetURI)
}

type fixedCooldown struct {
	inCooldown map[string]bool
}

func (c *fixedCooldown) InCooldown(channelID, assetURI string) bool {
	return c.inCooldown[channelID+"|"+assetURI]
}

func TestCooldownFilteredLibrary_ExcludesAssetsInCooldown(t *testing.T) {
	lib := &fixedLibrary{pages: [][]FillerAsset{
		{
			{AssetURI: "/ads/a.mp4", DurationMS: 15_000},
			{AssetURI: "/ads/b.mp4", DurationMS: 15_000},
			{AssetURI: "/ads/c.mp4", DurationMS: 15_000},
		},
	}}
	cooldown := &fixedCooldown{inCooldown: map[string]bool{"ch1|/ads/a.mp4": true}}

	filtered := NewCooldownFilteredLibrary("ch1", lib, cooldown)
	got := filtered.GetFillerAssets(30_000, 2)

	require.Len(t, got, 2)
	require.Equal(t, "/ads/b.mp4", got[0].AssetURI)
	require.Equal(t, "/ads/c.mp4", got[1].AssetURI)
}

func TestCooldownFilteredLibrary_NilCooldownPassesThrough(t *testing.T) {
	lib := &fixedLibrary{pages: [][]FillerAsset{{{AssetURI: "/ads/a.mp4", DurationMS: 15_000}}}}
	filtered := NewCooldownFilteredLibrary("ch1", lib, nil)

	got := filtered.GetFillerAssets(30_000, 1)
	require.Len(t, got, 1)
	require.Equal(t, "/ads/a.mp4", got[0].AssetURI)
}

func TestAsRunTypeFor_MapsAllKnownTypes(t *testing.T) {
	cases := map[models.SegmentType]string{
		models.SegmentContent:    "PROGRAM",
		models.SegmentCommercial: "COMMERCL",
		models.SegmentPromo:      "PROMO",
		models.SegmentIdent:      "IDENT",
		models.SegmentPSA:        "PSA",
		models.SegmentFiller:     "FILLER",
		models.SegmentPad:        "PAD",
	}
	for segType, want := range cases {
		require.Equal(t, want, AsRunTypeFor(segType))
	}
	require.Equal(t, "PROGRAM", AsRunTypeFor(models.SegmentType("unknown_future_type")))
}

func TestAsRunNotes_BracketsTitle(t *testing.T) {
	require.Equal(t, "[brand-ad-30s]", AsRunNotes("brand-ad-30s"))
	require.Equal(t, "", AsRunNotes(""))
}

func TestTitleFromURI_StripsInterstitialPrefix(t *testing.T) {
	seg := spotSegment(FillerAsset{AssetURI: "/ads/Interstitial - Commercial - brand-30s.mp4", DurationMS: 30_000, AssetType: "commercial"})
	require.Equal(t, "brand-30s", seg.Title)
}
