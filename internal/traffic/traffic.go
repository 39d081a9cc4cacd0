// RetroVue - Linear Broadcast Scheduling and Playout Automation
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slbailey/retrovue

// Package traffic implements C4: late-bound ad/interstitial fill.
// INV-TRAFFIC-LATE-BIND-001 requires every break to be resolved at fill
// time, immediately before a block reaches the execution horizon, so that
// cooldowns and inventory reflect plays that happened after the block was
// compiled. Grounded on original_source's traffic_manager.fill_ad_blocks,
// reconstructed from pkg/core/tests/test_traffic_late_bind.py (the
// executable contract for this module).
package traffic

import (
	"fmt"
	"path"
	"strings"

	"github.com/slbailey/retrovue/internal/models"
)

// FillerAsset is one candidate interstitial/ad/promo the asset library can
// offer for a break.
type FillerAsset struct {
	AssetURI   string
	DurationMS int64
	AssetType  string // "commercial", "promo", "ident", "psa"
}

// AssetLibrary selects filler candidates for a break, applying whatever
// cooldown/rotation policy it implements. A nil AssetLibrary means v1
// static-filler behavior: every break plays the channel's single filler
// loop rather than drawing from inventory.
type AssetLibrary interface {
	// GetFillerAssets returns up to count candidates no longer than
	// maxDurationMS, ordered by the library's own selection policy.
	GetFillerAssets(maxDurationMS int64, count int) []FillerAsset
}

// interstitialPrefixes strips known compile-time naming conventions when
// deriving a human-readable title from an asset URI, matching the
// evidence server's as-run title derivation.
var interstitialPrefixes = []string{
	"Interstitial - Commercial - ",
	"Interstitial - Promo - ",
	"Interstitial - ",
}

func titleFromURI(uri string) string {
	base := strings.TrimSuffix(path.Base(uri), path.Ext(uri))
	for _, p := range interstitialPrefixes {
		base = strings.TrimPrefix(base, p)
	}
	return base
}

func segmentTypeForAssetType(assetType string) models.SegmentType {
	switch assetType {
	case "promo":
		return models.SegmentPromo
	case "ident":
		return models.SegmentIdent
	case "psa":
		return models.SegmentPSA
	default:
		return models.SegmentCommercial
	}
}

// FillAdBlocks replaces every unfilled filler placeholder in block with
// either static filler (library == nil) or asset-library-selected spots
// packed greedily by duration, with any residual time distributed as pad
// segments between spots (INV-BREAK-PAD-DISTRIBUTED-001). The summed
// duration of each break's replacement segments always equals the original
// placeholder's duration exactly (INV-BREAK-PAD-EXACT-001): packing never
// rounds, truncates, or drops remainder time.
func FillAdBlocks(block models.ScheduledBlock, staticFillerURI string, staticFillerDurationMS int64, library AssetLibrary) models.ScheduledBlock {
	out := make([]models.ScheduledSegment, 0, len(block.Segments))
	for _, seg := range block.Segments {
		if !seg.IsUnfilledPlaceholder() {
			out = append(out, seg)
			continue
		}
		out = append(out, fillBreak(seg.SegmentDurationMS, staticFillerURI, library)...)
	}
	block.Segments = out
	return block
}

func fillBreak(breakDurationMS int64, staticFillerURI string, library AssetLibrary) []models.ScheduledSegment {
	if library == nil {
		return []models.ScheduledSegment{staticFillerSegment(breakDurationMS, staticFillerURI)}
	}

	var spots []FillerAsset
	remaining := breakDurationMS
	for remaining > 0 {
		candidates := library.GetFillerAssets(remaining, 1)
		if len(candidates) == 0 {
			break
		}
		accepted := false
		for _, c := range candidates {
			if c.DurationMS > 0 && c.DurationMS <= remaining {
				spots = append(spots, c)
				remaining -= c.DurationMS
				accepted = true
			}
		}
		if !accepted {
			break
		}
	}

	if len(spots) == 0 {
		return []models.ScheduledSegment{staticFillerSegment(breakDurationMS, staticFillerURI)}
	}

	return distributeWithPad(spots, remaining)
}

func staticFillerSegment(durationMS int64, uri string) models.ScheduledSegment {
	return models.ScheduledSegment{
		SegmentType:       models.SegmentFiller,
		AssetURI:          uri,
		SegmentDurationMS: durationMS,
		Title:             titleFromURI(uri),
	}
}

// distributeWithPad lays out each accepted spot followed by its share of
// leftoverMS, so the leftover is spread between spots instead of collapsed
// into one trailing block. Any remainder from integer division is added to
// the final pad so the total is exact.
func distributeWithPad(spots []FillerAsset, leftoverMS int64) []models.ScheduledSegment {
	segments := make([]models.ScheduledSegment, 0, len(spots)*2)
	if leftoverMS <= 0 {
		for _, s := range spots {
			segments = append(segments, spotSegment(s))
		}
		return segments
	}

	each := leftoverMS / int64(len(spots))
	remainder := leftoverMS - each*int64(len(spots))

	for i, s := range spots {
		segments = append(segments, spotSegment(s))
		pad := each
		if i == len(spots)-1 {
			pad += remainder
		}
		if pad > 0 {
			segments = append(segments, models.ScheduledSegment{
				SegmentType:       models.SegmentPad,
				AssetURI:          "",
				SegmentDurationMS: pad,
				Title:             "BLACK",
			})
		}
	}
	return segments
}

func spotSegment(s FillerAsset) models.ScheduledSegment {
	return models.ScheduledSegment{
		SegmentType:       segmentTypeForAssetType(s.AssetType),
		AssetURI:          s.AssetURI,
		SegmentDurationMS: s.DurationMS,
		Title:             titleFromURI(s.AssetURI),
	}
}

// CooldownChecker reports whether asset URI uri is still within its
// cooldown window on channelID, consulting TrafficPlayLog history.
// Concrete AssetLibrary implementations (internal/database) use this to
// exclude recently played assets from GetFillerAssets.
type CooldownChecker interface {
	InCooldown(channelID, assetURI string) bool
}

// cooldownOverfetch is how many extra candidates CooldownFilteredLibrary
// requests from the underlying library per spot it still needs, to absorb
// candidates the cooldown check rejects without having to re-query.
const cooldownOverfetch = 4

// CooldownFilteredLibrary wraps an AssetLibrary so that GetFillerAssets
// never returns a candidate still within cooldown on channelID. An
// AssetLibrary alone (internal/database.AssetStore) has no notion of
// channel or play history; composing it with a CooldownChecker here is
// what makes INV-TRAFFIC-LATE-BIND-001 actually hold at fill time instead
// of just at the interface level.
type CooldownFilteredLibrary struct {
	channelID string
	library   AssetLibrary
	cooldown  CooldownChecker
}

// NewCooldownFilteredLibrary returns an AssetLibrary that filters
// library's candidates through cooldown for channelID. If cooldown is
// nil, it behaves identically to library (no filtering).
func NewCooldownFilteredLibrary(channelID string, library AssetLibrary, cooldown CooldownChecker) *CooldownFilteredLibrary {
	return &CooldownFilteredLibrary{channelID: channelID, library: library, cooldown: cooldown}
}

// GetFillerAssets returns up to count candidates no longer than
// maxDurationMS, excluding any asset still in cooldown on channelID.
// Implementations of AssetLibrary order candidates deterministically
// (internal/database.AssetStore orders shortest-first), so a single
// over-fetch against a widened limit is enough to absorb whatever
// fraction cooldown rejects without re-querying.
func (l *CooldownFilteredLibrary) GetFillerAssets(maxDurationMS int64, count int) []FillerAsset {
	if l.library == nil {
		return nil
	}
	if l.cooldown == nil {
		return l.library.GetFillerAssets(maxDurationMS, count)
	}

	candidates := l.library.GetFillerAssets(maxDurationMS, count*cooldownOverfetch)
	out := make([]FillerAsset, 0, count)
	for _, c := range candidates {
		if l.cooldown.InCooldown(l.channelID, c.AssetURI) {
			continue
		}
		out = append(out, c)
		if len(out) == count {
			break
		}
	}
	return out
}

// RecordPlay appends a play record for cooldown accounting. Called by the
// channel manager immediately after a filled segment airs, per
// INV-TRAFFIC-LATE-BIND-001's requirement that cooldowns reflect plays
// observed after compile time.
func RecordPlay(assetURI, channelID, blockID string) models.TrafficPlayLog {
	return models.TrafficPlayLog{
		AssetURI:  assetURI,
		ChannelID: channelID,
		BlockID:   blockID,
	}
}

// AsRunTypeFor maps a segment_type to its four-to-eight character .asrun
// type abbreviation. Unknown segment types degrade gracefully to PROGRAM
// rather than producing a malformed as-run line.
func AsRunTypeFor(segType models.SegmentType) string {
	switch segType {
	case models.SegmentContent:
		return "PROGRAM"
	case models.SegmentCommercial:
		return "COMMERCL"
	case models.SegmentPromo:
		return "PROMO"
	case models.SegmentIdent:
		return "IDENT"
	case models.SegmentPSA:
		return "PSA"
	case models.SegmentFiller:
		return "FILLER"
	case models.SegmentPad:
		return "PAD"
	default:
		return "PROGRAM"
	}
}

// AsRunNotes formats the bracketed title shown in an .asrun line's notes
// column, empty when the segment has no title.
func AsRunNotes(title string) string {
	if title == "" {
		return ""
	}
	return fmt.Sprintf("[%s]", title)
}
