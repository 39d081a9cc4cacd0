// RetroVue - Linear Broadcast Scheduling and Playout Automation
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slbailey/retrovue

/*
Package models defines the data structures shared across RetroVue's
scheduling pipeline, the DuckDB system of record, and the operator API.

Key Components:

  - Channel: a configured linear channel (content type, play mode, day start hour)
  - Asset: catalog entries (episodes, movies, shorts, interstitials) with
    Markers for segment/break boundaries
  - SchedulePlan, Program, Recurrence, ScheduleSlot: the declarative EPG
    input a channel's schedule.Manager resolves into a broadcast day
  - ResolvedScheduleDay, ResolvedSlot: one broadcast day's EPG output (Tier 0)
  - ScheduledBlock, ScheduledSegment: the compiler's Tier 1 output, a
    channel's programming broken into play/break segments
  - CompiledProgramLog, TransmissionLog: the durable Tier 1 (compiled) and
    Tier 2 (late-bound, execution-ready) logs written to DuckDB
  - PlaylogEvent, TrafficPlayLog, HorizonAuditRow: append-only event and
    audit rows (playout events, traffic fill history, horizon audit trail)
  - APIResponse, APIError, Metadata, PaginationInfo: the operator API's
    response envelope

Usage Example - API Response:

	import "github.com/slbailey/retrovue/internal/models"

	response := models.APIResponse{
	    Status: "success",
	    Data:   channels,
	    Metadata: &models.Metadata{
	        Timestamp:   time.Now(),
	        QueryTimeMs: 12,
	    },
	}
	json.NewEncoder(w).Encode(response)

See Also:

  - internal/database: persistence for these models
  - internal/schedule, internal/compiler, internal/traffic: the pipeline
    stages that produce ResolvedScheduleDay, ScheduledBlock, and the
    traffic-filled TransmissionLog rows
  - internal/api: API handlers returning these models
*/
package models
