// Package events announces reservation changes to interested consumers.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	Reserved  Kind = "reserved"
	Cancelled Kind = "cancelled"
)

// Event records a single ledger change.
type Event struct {
	ID     uuid.UUID `json:"id"`
	Kind   Kind      `json:"kind"`
	BikeID string    `json:"bikeId"`
	At     time.Time `json:"at"`
}

func New(kind Kind, bikeID string) Event {
	return Event{
		ID:     uuid.New(),
		Kind:   kind,
		BikeID: bikeID,
		At:     time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(context.Context, Event) error { return nil }
func (Discard) Close() error                         { return nil }
