package events

import (
	"encoding/json"
	"testing"
	"time"
)

func TestFormatPayload(t *testing.T) {
	e := Event{
		Timestamp: time.Date(2026, 8, 30, 21, 15, 0, 0, time.UTC),
		Type:      TypeFire,
		Target:    "2-3",
		Code:      203,
	}
	data, err := FormatPayload(e)
	if err != nil {
		t.Fatalf("FormatPayload: %v", err)
	}

	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.Console.Event != TypeFire {
		t.Errorf("event = %q", p.Console.Event)
	}
	if p.Console.Target != "2-3" {
		t.Errorf("target = %q", p.Console.Target)
	}
	if p.Console.Code != 203 {
		t.Errorf("code = %d", p.Console.Code)
	}
	if p.Console.Timestamp != "2026-08-30T21:15:00Z" {
		t.Errorf("timestamp = %q", p.Console.Timestamp)
	}
}

func TestFormatPayloadOmitsEmptyFields(t *testing.T) {
	data, err := FormatPayload(Event{
		Timestamp: time.Now(),
		Type:      TypeAuthTimeout,
	})
	if err != nil {
		t.Fatal(err)
	}

	var raw map[string]map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	inner := raw["console"]
	for _, field := range []string{"target", "code", "detail"} {
		if _, ok := inner[field]; ok {
			t.Errorf("empty field %q present in payload", field)
		}
	}
}

func TestFormatSystemPayload(t *testing.T) {
	data, err := FormatSystemPayload(SystemEvent{
		Timestamp: time.Date(2026, 8, 30, 22, 0, 0, 0, time.UTC),
		Event:     "SHUTDOWN",
		Reason:    "SIGTERM",
	})
	if err != nil {
		t.Fatal(err)
	}

	var p SystemPayload
	if err := json.Unmarshal(data, &p); err != nil {
		t.Fatal(err)
	}
	if p.System.Event != "SHUTDOWN" || p.System.Reason != "SIGTERM" {
		t.Errorf("payload = %+v", p.System)
	}
}

func TestFakePublisherRecords(t *testing.T) {
	f := NewFakePublisher()
	if err := f.Publish(Event{Type: TypeArm}); err != nil {
		t.Fatal(err)
	}
	if err := f.Publish(Event{Type: TypeFire, Target: "d15", Code: 1015}); err != nil {
		t.Fatal(err)
	}
	if err := f.PublishSystem(SystemEvent{Event: "STARTUP"}); err != nil {
		t.Fatal(err)
	}

	types := f.EventTypes()
	if len(types) != 2 || types[0] != TypeArm || types[1] != TypeFire {
		t.Errorf("EventTypes() = %v", types)
	}
	if len(f.SystemEvents) != 1 {
		t.Errorf("SystemEvents = %v", f.SystemEvents)
	}
}
