package events

import (
	"context"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

func TestNew(t *testing.T) {
	e := New(Reserved, "42")
	if e.ID == uuid.Nil {
		t.Errorf("expected a generated id")
	}
	if e.Kind != Reserved || e.BikeID != "42" {
		t.Errorf("unexpected event: %+v", e)
	}
	if e.At.IsZero() {
		t.Errorf("expected a timestamp")
	}

	b, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var m map[string]any
	json.Unmarshal(b, &m)
	if m["kind"] != "reserved" || m["bikeId"] != "42" {
		t.Errorf("unexpected wire form: %s", b)
	}
}

func TestDiscard(t *testing.T) {
	var p Publisher = Discard{}
	if err := p.Publish(context.Background(), New(Cancelled, "1")); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
