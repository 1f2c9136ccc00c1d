// Package events carries domain notifications out of the core. Delivery
// (websocket push, brokers) is the sink's business; publishers only log
// sink failures.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

const (
	SampleAdmitted = "sample.admitted"
	SampleDeleted  = "sample.deleted"
	TripEnded      = "trip.ended"
)

type Event struct {
	Type    string          `json:"type"`
	TripID  string          `json:"trip_id"`
	At      time.Time       `json:"at"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// New marshals payload into an Event stamped with the current time.
func New(eventType, tripID string, payload any) (Event, error) {
	ev := Event{Type: eventType, TripID: tripID, At: time.Now().UTC()}
	if payload == nil {
		return ev, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	ev.Payload = raw
	return ev, nil
}

type Sink interface {
	Publish(ctx context.Context, ev Event) error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Multi publishes to every sink and joins their errors.
type Multi []Sink

func (m Multi) Publish(ctx context.Context, ev Event) error {
	var errs []error
	for _, sink := range m {
		if sink == nil {
			continue
		}
		if err := sink.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
