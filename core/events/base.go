package events

import "time"

// Kind identifies an event type within the transcript.* namespace.
type Kind string

// Event is implemented by every event in this package via the embedded Base.
type Event interface {
	Kind() Kind
	Timestamp() time.Time
}

// Base carries the kind and creation time shared by all events.
type Base struct {
	kind      Kind
	timestamp time.Time
}

func NewBase(kind Kind) Base {
	return Base{kind: kind, timestamp: time.Now()}
}

func (b Base) Kind() Kind {
	return b.kind
}

func (b Base) Timestamp() time.Time {
	return b.timestamp
}
