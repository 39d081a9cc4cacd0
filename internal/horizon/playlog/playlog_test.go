// RetroVue - Linear Broadcast Scheduling and Playout Automation
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slbailey/retrovue

package playlog

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/slbailey/retrovue/internal/clock"
	"github.com/slbailey/retrovue/internal/models"
)

type fakeTier1 struct {
	blocks map[string][]models.ScheduledBlock
}

func newFakeTier1() *fakeTier1 { return &fakeTier1{blocks: map[string][]models.ScheduledBlock{}} }

func (f *fakeTier1) put(day time.Time, blocks []models.ScheduledBlock) {
	f.blocks[day.Format("2006-01-02")] = blocks
}

func (f *fakeTier1) LoadBlocks(day time.Time) ([]models.ScheduledBlock, bool) {
	b, ok := f.blocks[day.Format("2006-01-02")]
	return b, ok
}

type fakeTier2 struct {
	rows map[string]models.TransmissionLog
}

func newFakeTier2() *fakeTier2 { return &fakeTier2{rows: map[string]models.TransmissionLog{}} }

func (f *fakeTier2) BlockExists(blockID string) bool {
	_, ok := f.rows[blockID]
	return ok
}

func (f *fakeTier2) RowCoversNow(channelID string, nowMS int64) bool {
	for _, r := range f.rows {
		if r.ChannelSlug == channelID && r.StartUTCMS <= nowMS && nowMS < r.EndUTCMS {
			return true
		}
	}
	return false
}

func (f *fakeTier2) Write(row models.TransmissionLog) error {
	f.rows[row.BlockID] = row
	return nil
}

func breakBlock(id string, startMS, durationMS int64) models.ScheduledBlock {
	return models.ScheduledBlock{
		BlockID:    id,
		ChannelID:  "wxyz",
		StartUTCMS: startMS,
		EndUTCMS:   startMS + durationMS,
		Segments: []models.ScheduledSegment{
			{SegmentType: models.SegmentContent, AssetURI: "/media/ep.mp4", SegmentDurationMS: durationMS - 60_000},
			{SegmentType: models.SegmentFiller, AssetURI: "", SegmentDurationMS: 60_000},
		},
	}
}

func newDaemon(t1 *fakeTier1, t2 *fakeTier2, fc *clock.Fake, minHours float64) *Daemon {
	return New(t1, t2, nil, fc, Config{
		ChannelID:               "wxyz",
		MinHours:                minHours,
		ProgrammingDayStartHour: 6,
		Timezone:                time.UTC,
		StaticFillerURI:         "/ads/static-filler.mp4",
		StaticFillerDurationMS:  60_000,
	}, zerolog.Nop())
}

func TestEvaluateOnce_ExtendsUntilMinHoursReached(t *testing.T) {
	day := time.Date(2025, 6, 1, 6, 0, 0, 0, time.UTC)
	fc := clock.NewFake(day)
	t1 := newFakeTier1()

	// three 1-hour blocks covering the whole day from the broadcast start.
	blocks := []models.ScheduledBlock{
		breakBlock("b1", day.UnixMilli(), 3_600_000),
		breakBlock("b2", day.UnixMilli()+3_600_000, 3_600_000),
		breakBlock("b3", day.UnixMilli()+2*3_600_000, 3_600_000),
	}
	t1.put(day, blocks)
	t2 := newFakeTier2()

	d := newDaemon(t1, t2, fc, 2)
	d.EvaluateOnce()

	require.True(t, t2.BlockExists("b1"))
	require.True(t, t2.BlockExists("b2"))
	require.GreaterOrEqual(t, d.FarthestEndUTCMS(), day.UnixMilli()+2*3_600_000)

	report := d.GetHealthReport()
	require.True(t, report.IsHealthy)
	require.Equal(t, int64(0), report.FillErrors)
}

func TestFillAndWrite_ResolvesFillerPlaceholder(t *testing.T) {
	day := time.Date(2025, 6, 1, 6, 0, 0, 0, time.UTC)
	fc := clock.NewFake(day)
	t1 := newFakeTier1()
	t1.put(day, []models.ScheduledBlock{breakBlock("only", day.UnixMilli(), 3_600_000)})
	t2 := newFakeTier2()

	d := newDaemon(t1, t2, fc, 1)
	d.EvaluateOnce()

	row, ok := t2.rows["only"]
	require.True(t, ok)
	for _, s := range row.Segments {
		if s.SegmentType == models.SegmentFiller {
			require.Equal(t, "/ads/static-filler.mp4", s.AssetURI)
		}
	}
}

func TestEnsureTier2CoversNow_BackfillsMissingCoverage(t *testing.T) {
	day := time.Date(2025, 6, 1, 6, 0, 0, 0, time.UTC)
	now := day.Add(30 * time.Minute)
	fc := clock.NewFake(now)
	t1 := newFakeTier1()
	t1.put(day, []models.ScheduledBlock{breakBlock("current", day.UnixMilli(), 3_600_000)})
	t2 := newFakeTier2()

	d := newDaemon(t1, t2, fc, 0)
	got := d.ensureTier2CoversNow(now.UnixMilli())

	require.Equal(t, 1, got)
	require.True(t, t2.BlockExists("current"))
}

func TestEnsureTier2CoversNow_NoBackfillWhenNoBlockContainsNow(t *testing.T) {
	day := time.Date(2025, 6, 1, 6, 0, 0, 0, time.UTC)
	fc := clock.NewFake(day)
	t1 := newFakeTier1()
	pastBlock := breakBlock("past", day.UnixMilli()-3_600_000, 3_600_000)
	t1.put(day.AddDate(0, 0, -1), []models.ScheduledBlock{pastBlock})
	t2 := newFakeTier2()

	d := newDaemon(t1, t2, fc, 0)
	got := d.ensureTier2CoversNow(day.UnixMilli())

	require.Equal(t, 0, got)
	require.False(t, t2.BlockExists("past"))
}

func TestEvaluateOnce_NoTier1DataLogsWarningAndFillsNothing(t *testing.T) {
	fc := clock.NewFake(time.Date(2025, 6, 1, 6, 0, 0, 0, time.UTC))
	t1 := newFakeTier1()
	t2 := newFakeTier2()

	d := newDaemon(t1, t2, fc, 4)
	d.EvaluateOnce()

	report := d.GetHealthReport()
	require.False(t, report.IsHealthy)
	require.Equal(t, int64(0), report.BlocksFilled)
}

func TestExtendToTarget_SkipsBlocksAlreadyInTxlog(t *testing.T) {
	day := time.Date(2025, 6, 1, 6, 0, 0, 0, time.UTC)
	fc := clock.NewFake(day)
	t1 := newFakeTier1()
	b1 := breakBlock("b1", day.UnixMilli(), 3_600_000)
	t1.put(day, []models.ScheduledBlock{b1})
	t2 := newFakeTier2()
	t2.rows["b1"] = models.TransmissionLog{BlockID: "b1", ChannelSlug: "wxyz", StartUTCMS: b1.StartUTCMS, EndUTCMS: b1.EndUTCMS}

	d := newDaemon(t1, t2, fc, 1)
	filled := d.extendToTarget(day.UnixMilli(), int64(1*3_600_000))

	require.Equal(t, 0, filled)
	require.Equal(t, b1.EndUTCMS, d.FarthestEndUTCMS())
}
