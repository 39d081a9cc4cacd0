// RetroVue - Linear Broadcast Scheduling and Playout Automation
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slbailey/retrovue

package models

// Channel identifies a broadcast feed and the grid it programs against.
type Channel struct {
	ID                  string   `json:"id"`
	Name                string   `json:"name"`
	Timezone            string   `json:"timezone"`
	ProgrammingDayStartH int     `json:"programming_day_start_hour"`
	GridMinutes         int      `json:"grid_minutes"`
	AllowedOffsetsMin   []int    `json:"allowed_offsets_minutes"`
	FillerURI           string   `json:"filler_uri"`
	FillerDurationMS    int64    `json:"filler_duration_ms"`
}

// ContentType is the tagged variant for a Program's content reference:
// a fixed series/asset, a rule-based pick, a random pick, or a virtual
// package assembled from several of the above.
type ContentType string

const (
	ContentSeries         ContentType = "series"
	ContentAsset          ContentType = "asset"
	ContentRule           ContentType = "rule"
	ContentRandom         ContentType = "random"
	ContentVirtualPackage ContentType = "virtual_package"
)

// PlayMode governs how ScheduleManager resolves a recurring Program's
// content reference into an episode pick.
type PlayMode string

const (
	PlayModeSequential PlayMode = "sequential"
	PlayModeRandom     PlayMode = "random"
)
