// Package events is the in-process publish/subscribe layer. Publishers never
// wait on side effects such as broker alerts or audit records.
package events

import (
	"context"
	"time"
)

// Event is anything that can travel on the Bus.
type Event interface {
	// EventName is the subscription key, e.g. "leads.handoff.requested".
	EventName() string
	OccurredAt() time.Time
}

// BaseEvent stamps an event with the moment it was raised.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// NewBaseEvent returns a BaseEvent stamped now.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now()}
}

// Handler reacts to one event. Errors from asynchronous delivery are logged by
// the bus.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc lets a plain function subscribe.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus delivers events to the handlers subscribed under their name.
type Bus interface {
	// Publish runs handlers in the background on a context detached from ctx.
	Publish(ctx context.Context, event Event)
	// PublishSync runs handlers inline, in subscription order, and joins their errors.
	PublishSync(ctx context.Context, event Event) error
	Subscribe(eventName string, handler Handler)
}
