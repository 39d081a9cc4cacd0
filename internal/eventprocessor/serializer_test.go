// RetroVue - Linear Broadcast Scheduling and Playout Automation
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slbailey/retrovue

package eventprocessor

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func TestSerializer_Marshal(t *testing.T) {
	serializer := NewSerializer()

	t.Run("valid event", func(t *testing.T) {
		event := NewExtensionAttemptEvent("ch1", "2026-08-01", 1000, "NO_CONTENT", nil)

		data, err := serializer.Marshal(event)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if len(data) == 0 {
			t.Error("Expected non-empty data")
		}

		var decoded map[string]interface{}
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("Invalid JSON: %v", err)
		}
		if decoded["channel_id"] != "ch1" {
			t.Errorf("Expected channel_id=ch1, got %v", decoded["channel_id"])
		}
		if decoded["event_type"] != EventTypeExtensionAttempt {
			t.Errorf("Expected event_type=%s, got %v", EventTypeExtensionAttempt, decoded["event_type"])
		}
	})

	t.Run("invalid event - missing required field", func(t *testing.T) {
		event := &HorizonAuditEvent{}

		_, err := serializer.Marshal(event)
		if err == nil {
			t.Error("Expected validation error")
		}
	})
}

func TestSerializer_Unmarshal(t *testing.T) {
	serializer := NewSerializer()

	t.Run("valid JSON", func(t *testing.T) {
		data := []byte(`{
			"event_id": "test-id",
			"channel_id": "ch1",
			"event_type": "extension_attempt",
			"broadcast_day": "2026-08-01",
			"frontier_utc_ms": 1000,
			"reason_code": "NO_CONTENT",
			"recorded_at_utc": "2026-08-01T12:00:00Z"
		}`)

		event, err := serializer.Unmarshal(data)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if event.EventID != "test-id" {
			t.Errorf("Expected EventID=test-id, got %s", event.EventID)
		}
		if event.ChannelID != "ch1" {
			t.Errorf("Expected ChannelID=ch1, got %s", event.ChannelID)
		}
		if event.FrontierUTCMS != 1000 {
			t.Errorf("Expected FrontierUTCMS=1000, got %d", event.FrontierUTCMS)
		}
	})

	t.Run("invalid JSON", func(t *testing.T) {
		data := []byte(`{invalid json}`)

		_, err := serializer.Unmarshal(data)
		if err == nil {
			t.Error("Expected error for invalid JSON")
		}
	})

	t.Run("detail payload preserved raw", func(t *testing.T) {
		data := []byte(`{
			"event_id": "test-id",
			"channel_id": "ch1",
			"event_type": "seam_violation",
			"detail": {"left_block_id": "b1", "delta_ms": 250}
		}`)

		event, err := serializer.Unmarshal(data)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		var detail map[string]interface{}
		if err := json.Unmarshal(event.Detail, &detail); err != nil {
			t.Fatalf("Detail should be valid JSON: %v", err)
		}
		if detail["left_block_id"] != "b1" {
			t.Errorf("Expected left_block_id=b1, got %v", detail["left_block_id"])
		}
	})
}

func TestSerializeEvent(t *testing.T) {
	event := NewSeamViolationEvent("ch1", nil)

	data, err := SerializeEvent(event)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(data) == 0 {
		t.Error("Expected non-empty data")
	}
}

func TestDeserializeEvent(t *testing.T) {
	data := []byte(`{
		"event_id": "test-id",
		"channel_id": "ch1",
		"event_type": "seam_violation"
	}`)

	event, err := DeserializeEvent(data)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if event.EventID != "test-id" {
		t.Errorf("Expected EventID=test-id, got %s", event.EventID)
	}
}

func TestRoundTrip(t *testing.T) {
	serializer := NewSerializer()

	now := time.Now().UTC().Truncate(time.Second)
	detail, err := json.Marshal(map[string]interface{}{"delta_ms": 500})
	if err != nil {
		t.Fatalf("marshal detail: %v", err)
	}

	original := NewExtensionAttemptEvent("ch2", "2026-08-01", 123456, "NO_CONTENT", detail)
	original.RecordedAtUTC = now

	data, err := serializer.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}

	decoded, err := serializer.Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}

	if decoded.EventID != original.EventID {
		t.Errorf("EventID mismatch: %s != %s", decoded.EventID, original.EventID)
	}
	if decoded.ChannelID != original.ChannelID {
		t.Errorf("ChannelID mismatch: %s != %s", decoded.ChannelID, original.ChannelID)
	}
	if decoded.EventType != original.EventType {
		t.Errorf("EventType mismatch: %s != %s", decoded.EventType, original.EventType)
	}
	if decoded.BroadcastDay != original.BroadcastDay {
		t.Errorf("BroadcastDay mismatch: %s != %s", decoded.BroadcastDay, original.BroadcastDay)
	}
	if decoded.FrontierUTCMS != original.FrontierUTCMS {
		t.Errorf("FrontierUTCMS mismatch: %d != %d", decoded.FrontierUTCMS, original.FrontierUTCMS)
	}
	if decoded.ReasonCode != original.ReasonCode {
		t.Errorf("ReasonCode mismatch: %s != %s", decoded.ReasonCode, original.ReasonCode)
	}
	if !decoded.RecordedAtUTC.Equal(original.RecordedAtUTC) {
		t.Errorf("RecordedAtUTC mismatch: %v != %v", decoded.RecordedAtUTC, original.RecordedAtUTC)
	}
}
