package mqtt

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sweeney/pulse-sensor/internal/logic"
)

func TestFormatPayload(t *testing.T) {
	r := Reading{
		Timestamp: time.Date(2026, 1, 3, 22, 15, 12, 0, time.UTC),
		Report:    logic.Report{Window: 42, Count: 50, DeciHertz: 500},
	}

	payload, err := FormatPayload(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed Payload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Pulse.Timestamp != "2026-01-03T22:15:12Z" {
		t.Errorf("unexpected timestamp: %s", parsed.Pulse.Timestamp)
	}
	if parsed.Pulse.Window != 42 {
		t.Errorf("expected window 42, got %d", parsed.Pulse.Window)
	}
	if parsed.Pulse.Count != 50 {
		t.Errorf("expected count 50, got %d", parsed.Pulse.Count)
	}
	if parsed.Pulse.FrequencyHz != 50 {
		t.Errorf("expected 50 Hz, got %v", parsed.Pulse.FrequencyHz)
	}
}

func TestFormatPayloadExactJSON(t *testing.T) {
	r := Reading{
		Timestamp: time.Date(2026, 2, 10, 8, 30, 0, 0, time.UTC),
		Report:    logic.Report{Window: 7, Count: 3, DeciHertz: 30},
	}

	payload, err := FormatPayload(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `{"pulse":{"timestamp":"2026-02-10T08:30:00Z","window":7,"count":3,"frequency_hz":3}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", string(payload), expected)
	}
}

func TestFormatPayloadKeepsFraction(t *testing.T) {
	r := Reading{Timestamp: time.Now(), Report: logic.Report{Count: 1, DeciHertz: 5}}

	payload, _ := FormatPayload(r)

	var parsed Payload
	json.Unmarshal(payload, &parsed)
	if parsed.Pulse.FrequencyHz != 0.5 {
		t.Errorf("expected 0.5 Hz, got %v", parsed.Pulse.FrequencyHz)
	}
}

func TestFormatPayloadTimezoneConversion(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*60*60)
	r := Reading{Timestamp: time.Date(2026, 1, 3, 15, 0, 0, 0, loc)}

	payload, _ := FormatPayload(r)

	var parsed Payload
	json.Unmarshal(payload, &parsed)
	if parsed.Pulse.Timestamp != "2026-01-03T10:00:00Z" {
		t.Errorf("expected UTC timestamp, got %s", parsed.Pulse.Timestamp)
	}
}

func TestTopics(t *testing.T) {
	if Topic != "sensors/pulse/frequency" {
		t.Errorf("unexpected topic: %s", Topic)
	}
	if TopicSystem != "sensors/pulse/system" {
		t.Errorf("unexpected system topic: %s", TopicSystem)
	}
}

func TestFormatSystemPayloadExactJSON(t *testing.T) {
	event := SystemEvent{
		Timestamp: time.Date(2026, 1, 3, 22, 15, 12, 0, time.UTC),
		Event:     "SHUTDOWN",
		Reason:    "SIGTERM",
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `{"system":{"timestamp":"2026-01-03T22:15:12Z","event":"SHUTDOWN","reason":"SIGTERM"}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", string(payload), expected)
	}
}

func TestFormatSystemPayloadOmitsEmptyReason(t *testing.T) {
	payload, _ := FormatSystemPayload(SystemEvent{
		Timestamp: time.Date(2026, 1, 3, 22, 15, 12, 0, time.UTC),
		Event:     "STARTUP",
	})

	var parsed map[string]interface{}
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	system := parsed["system"].(map[string]interface{})
	if _, exists := system["reason"]; exists {
		t.Error("STARTUP should not have reason field")
	}
}

func TestFormatSystemPayloadRawPassthrough(t *testing.T) {
	raw := []byte(`{"status":{"event":"STARTUP"}}`)

	payload, err := FormatSystemPayload(SystemEvent{Event: "STARTUP", RawPayload: raw})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(payload) != string(raw) {
		t.Errorf("expected raw payload, got %s", payload)
	}
}

func TestWillEvent(t *testing.T) {
	at := time.Date(2026, 2, 10, 8, 30, 0, 0, time.UTC)
	event := WillEvent(at)

	if !event.Retained {
		t.Error("will should be retained")
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := `{"system":{"timestamp":"2026-02-10T08:30:00Z","event":"OFFLINE","reason":"MQTT_DISCONNECT"}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", string(payload), expected)
	}
}

func TestFakePublisher(t *testing.T) {
	f := NewFakePublisher()

	r := Reading{Timestamp: time.Now(), Report: logic.Report{Window: 1, Count: 2, DeciHertz: 20}}
	if err := f.Publish(r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.Readings) != 1 {
		t.Fatalf("expected 1 reading, got %d", len(f.Readings))
	}
	if f.Readings[0].Report.Count != 2 {
		t.Errorf("expected count 2, got %d", f.Readings[0].Report.Count)
	}
	if len(f.Payloads) != 1 {
		t.Fatalf("expected 1 payload, got %d", len(f.Payloads))
	}
}

func TestFakePublisherError(t *testing.T) {
	f := NewFakePublisher()
	f.PublishError = errors.New("simulated error")

	if err := f.Publish(Reading{}); err == nil {
		t.Error("expected error")
	}
	if len(f.Readings) != 0 {
		t.Error("should not record reading on error")
	}
}

func TestFakePublisherPublishSystem(t *testing.T) {
	f := NewFakePublisher()

	f.PublishSystem(SystemEvent{Timestamp: time.Now(), Event: "STARTUP", Retained: true})
	f.PublishSystem(SystemEvent{Timestamp: time.Now(), Event: "SHUTDOWN", Reason: "SIGINT"})

	if len(f.SystemEvents) != 2 {
		t.Fatalf("expected 2 system events, got %d", len(f.SystemEvents))
	}
	if !f.SystemEvents[0].Retained {
		t.Error("first event should have Retained=true")
	}
	if f.SystemEvents[1].Reason != "SIGINT" {
		t.Errorf("expected SIGINT, got %s", f.SystemEvents[1].Reason)
	}
	if len(f.SystemPayloads) != 2 {
		t.Errorf("expected 2 system payloads, got %d", len(f.SystemPayloads))
	}
}

func TestFakePublisherPublishSystemError(t *testing.T) {
	f := NewFakePublisher()
	f.PublishSystemError = errors.New("simulated error")

	if err := f.PublishSystem(SystemEvent{Event: "STARTUP"}); err == nil {
		t.Error("expected error")
	}
	if len(f.SystemEvents) != 0 {
		t.Error("should not record event on error")
	}
}

func TestFakePublisherReset(t *testing.T) {
	f := NewFakePublisher()
	f.Publish(Reading{})
	f.PublishSystem(SystemEvent{Event: "STARTUP"})
	f.Close()
	f.Connected = true

	f.Reset()

	if len(f.Readings) != 0 || len(f.Payloads) != 0 {
		t.Error("readings should be cleared")
	}
	if len(f.SystemEvents) != 0 || len(f.SystemPayloads) != 0 {
		t.Error("system events should be cleared")
	}
	if f.Closed || f.Connected {
		t.Error("flags should be cleared")
	}
}
