package rt

import (
	"testing"

	"github.com/shunyalabs/rt-go/core/wire"
)

func TestDispatcherInvokesHandlersInRegistrationOrder(t *testing.T) {
	d := newDispatcher()

	var order []int
	d.on(wire.KindInfo, func(wire.Message) { order = append(order, 1) })
	d.on(wire.KindInfo, func(wire.Message) { order = append(order, 2) })
	d.on(wire.KindInfo, func(wire.Message) { order = append(order, 3) })

	d.emit(wire.Message{Kind: wire.KindInfo})

	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Fatalf("expected handlers in registration order, got %v", order)
	}
}

func TestDispatcherIsolatesPanickingHandlers(t *testing.T) {
	d := newDispatcher()

	var reached []string
	d.on(wire.KindWarning, func(wire.Message) { reached = append(reached, "first") })
	d.on(wire.KindWarning, func(wire.Message) { panic("handler blew up") })
	d.on(wire.KindWarning, func(wire.Message) { reached = append(reached, "third") })

	d.emit(wire.Message{Kind: wire.KindWarning, Reason: "test"})

	if len(reached) != 2 || reached[0] != "first" || reached[1] != "third" {
		t.Fatalf("expected dispatch to survive the panicking handler, got %v", reached)
	}
}

func TestDispatcherCountsListenersPerKind(t *testing.T) {
	d := newDispatcher()

	d.on(wire.KindAddTranscript, func(wire.Message) {})
	d.on(wire.KindAddTranscript, func(wire.Message) {})
	d.on(wire.KindAddPartialTranscript, func(wire.Message) {})
	d.on(wire.KindError, nil)

	if got := d.listeners(wire.KindAddTranscript); got != 2 {
		t.Fatalf("expected 2 listeners, got %d", got)
	}
	if got := d.listeners(wire.KindAddPartialTranscript); got != 1 {
		t.Fatalf("expected 1 listener, got %d", got)
	}
	if got := d.listeners(wire.KindError); got != 0 {
		t.Fatalf("expected nil handlers to be ignored, got %d", got)
	}
	if got := d.listeners(wire.KindDisconnect); got != 0 {
		t.Fatalf("expected 0 listeners for unregistered kind, got %d", got)
	}
}

func TestDispatcherOnlyMatchesTheEmittedKind(t *testing.T) {
	d := newDispatcher()

	var calls int
	d.on(wire.KindAddTranscript, func(wire.Message) { calls++ })

	d.emit(wire.Message{Kind: wire.KindAddPartialTranscript})
	d.emit(wire.Message{Kind: wire.Kind("SpeakersResult")})

	if calls != 0 {
		t.Fatalf("expected no calls for other kinds, got %d", calls)
	}
}
