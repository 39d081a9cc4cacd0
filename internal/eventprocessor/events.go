// RetroVue - Linear Broadcast Scheduling and Playout Automation
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slbailey/retrovue

package eventprocessor

import (
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// SchemaVersion is the current event schema version.
// Increment this when making breaking changes to HorizonAuditEvent.
const SchemaVersion = 1

// HorizonAuditEvent is the wire format for the horizon audit bus: the NATS
// subject the Horizon Manager (internal/horizon/manager) publishes
// ExtensionAttempt and SeamViolation records to, for any process that wants
// to observe horizon activity without querying DuckDB directly (e.g. a
// separate fleet-wide monitoring consumer). The consumer side persists these
// into the horizon_audit_log table; see duckdb_store.go.
type HorizonAuditEvent struct {
	SchemaVersion int `json:"schema_version,omitempty"`

	EventID   string `json:"event_id"`
	ChannelID string `json:"channel_id"`

	// EventType is one of the EventType* constants below.
	EventType string `json:"event_type"`

	// BroadcastDay is YYYY-MM-DD, empty for events not tied to a specific
	// programming day (most seam violations).
	BroadcastDay string `json:"broadcast_day,omitempty"`

	// FrontierUTCMS is the execution-horizon frontier at the time of the
	// event, where applicable (extension attempts).
	FrontierUTCMS int64 `json:"frontier_utc_ms,omitempty"`

	ReasonCode string `json:"reason_code,omitempty"`

	// Detail carries the type-specific payload: the marshaled
	// manager.ExtensionAttempt or manager.SeamViolation.
	Detail json.RawMessage `json:"detail,omitempty"`

	RecordedAtUTC time.Time `json:"recorded_at_utc"`
}

// EventType constants for horizon_audit_log.event_type / NATS subjects.
const (
	EventTypeExtensionAttempt = "extension_attempt"
	EventTypeSeamViolation    = "seam_violation"
)

// NewHorizonAuditEvent creates an event with a unique ID, timestamp, and
// schema version already populated.
func NewHorizonAuditEvent(channelID, eventType string) *HorizonAuditEvent {
	return &HorizonAuditEvent{
		SchemaVersion: SchemaVersion,
		EventID:       uuid.New().String(),
		ChannelID:     channelID,
		EventType:     eventType,
		RecordedAtUTC: time.Now().UTC(),
	}
}

// NewExtensionAttemptEvent builds an audit event from one horizon extension
// attempt. broadcastDay is the day string the attempt's window extension
// targeted, or "" if the attempt was not day-scoped.
func NewExtensionAttemptEvent(channelID, broadcastDay string, frontierUTCMS int64, reasonCode string, detail json.RawMessage) *HorizonAuditEvent {
	e := NewHorizonAuditEvent(channelID, EventTypeExtensionAttempt)
	e.BroadcastDay = broadcastDay
	e.FrontierUTCMS = frontierUTCMS
	e.ReasonCode = reasonCode
	e.Detail = detail
	return e
}

// NewSeamViolationEvent builds an audit event from one contiguity break
// between adjacent Tier-2 entries.
func NewSeamViolationEvent(channelID string, detail json.RawMessage) *HorizonAuditEvent {
	e := NewHorizonAuditEvent(channelID, EventTypeSeamViolation)
	e.Detail = detail
	return e
}

// GetSchemaVersion returns the schema version, defaulting to 1 for legacy events.
func (e *HorizonAuditEvent) GetSchemaVersion() int {
	if e.SchemaVersion == 0 {
		return 1
	}
	return e.SchemaVersion
}

// EnsureSchemaVersion sets the schema version if not already set.
func (e *HorizonAuditEvent) EnsureSchemaVersion() {
	if e.SchemaVersion == 0 {
		e.SchemaVersion = SchemaVersion
	}
}

// Validate checks required fields and returns an error if validation fails.
func (e *HorizonAuditEvent) Validate() error {
	if e.EventID == "" {
		return &ValidationError{Field: "event_id", Message: "required"}
	}
	if e.ChannelID == "" {
		return &ValidationError{Field: "channel_id", Message: "required"}
	}
	if e.EventType == "" {
		return &ValidationError{Field: "event_type", Message: "required"}
	}
	return nil
}

// Topic returns the NATS subject for this event.
// Format: horizon.<channel_id>.<event_type>
// Example: horizon.retro1.extension_attempt
func (e *HorizonAuditEvent) Topic() string {
	return "horizon." + e.ChannelID + "." + e.EventType
}

// ValidationError represents a field validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
