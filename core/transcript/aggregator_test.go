package transcript

import (
	"sync"
	"testing"
	"time"

	"github.com/shunyalabs/rt-go/core/events"
	"github.com/shunyalabs/rt-go/core/wire"
)

type eventRecorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *eventRecorder) record(event events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *eventRecorder) snapshot() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.Event(nil), r.events...)
}

func (r *eventRecorder) kinds() []events.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]events.Kind, 0, len(r.events))
	for _, event := range r.events {
		kinds = append(kinds, event.Kind())
	}
	return kinds
}

func TestAddAppendsAndEmitsInterimSnapshots(t *testing.T) {
	recorder := &eventRecorder{}
	aggregator := NewAggregator()
	aggregator.SetEventEmitter(recorder.record)

	aggregator.Add(&wire.Segment{Start: 0, End: 0.5, Text: "hello"}, false)
	aggregator.Add(&wire.Segment{Start: 0.5, End: 1.0, Text: "world"}, false)

	recorded := recorder.snapshot()
	if len(recorded) != 2 {
		t.Fatalf("expected 2 interim events, got %d", len(recorded))
	}
	interim, ok := recorded[1].(events.TranscriptInterimUpdated)
	if !ok {
		t.Fatalf("expected TranscriptInterimUpdated, got %T", recorded[1])
	}
	if interim.Text != "hello world" {
		t.Fatalf("expected grouped text %q, got %q", "hello world", interim.Text)
	}
	if len(interim.Fragments) != 2 {
		t.Fatalf("expected 2 fragments in snapshot, got %d", len(interim.Fragments))
	}
}

func TestPartialWithinWindowRefinesInPlace(t *testing.T) {
	aggregator := NewAggregator()

	aggregator.Add(&wire.Segment{Start: 0.0, End: 0.8, Text: "hel"}, false)
	aggregator.Add(&wire.Segment{Start: 0.05, End: 1.2, Text: "hello"}, false)

	fragments := aggregator.Fragments()
	if len(fragments) != 1 {
		t.Fatalf("expected in-place refinement to keep 1 fragment, got %d", len(fragments))
	}
	if fragments[0].Text != "hello" || fragments[0].End != 1.2 {
		t.Fatalf("expected refined fragment, got %+v", fragments[0])
	}
	if fragments[0].Start != 0.0 {
		t.Fatalf("expected refinement to keep the original start time, got %f", fragments[0].Start)
	}
}

func TestPartialOutsideWindowIsAppended(t *testing.T) {
	aggregator := NewAggregator()

	aggregator.Add(&wire.Segment{Start: 0.0, End: 0.8, Text: "hello"}, false)
	aggregator.Add(&wire.Segment{Start: 0.2, End: 1.2, Text: "world"}, false)

	if fragments := aggregator.Fragments(); len(fragments) != 2 {
		t.Fatalf("expected 2 fragments, got %d: %+v", len(fragments), fragments)
	}
}

func TestFinalClearsBufferedPartials(t *testing.T) {
	aggregator := NewAggregator()

	aggregator.Add(&wire.Segment{Start: 0.0, End: 0.5, Text: "hel"}, false)
	aggregator.Add(&wire.Segment{Start: 0.5, End: 0.9, Text: "wor"}, false)
	aggregator.Add(&wire.Segment{Start: 0.0, End: 1.0, Text: "hello world", IsFinal: true}, true)

	fragments := aggregator.Fragments()
	if len(fragments) != 1 {
		t.Fatalf("expected final to drop partials, got %d fragments", len(fragments))
	}
	if !fragments[0].Final || fragments[0].Text != "hello world" {
		t.Fatalf("expected the final fragment to remain, got %+v", fragments[0])
	}
}

func TestPartialAfterFinalIsAFreshFragment(t *testing.T) {
	aggregator := NewAggregator()

	aggregator.Add(&wire.Segment{Start: 0.0, End: 1.0, Text: "hello", IsFinal: true}, true)
	aggregator.Add(&wire.Segment{Start: 0.05, End: 1.2, Text: "hello wor"}, false)

	partials := []events.Fragment{}
	for _, f := range aggregator.Fragments() {
		if !f.Final {
			partials = append(partials, f)
		}
	}
	if len(partials) != 1 {
		t.Fatalf("expected exactly one buffered partial, got %d", len(partials))
	}
	if partials[0].Text != "hello wor" || partials[0].Start != 0.05 || partials[0].End != 1.2 {
		t.Fatalf("expected the partial untouched by the earlier final, got %+v", partials[0])
	}
}

func TestIgnoresEmptyAndNilSegments(t *testing.T) {
	recorder := &eventRecorder{}
	aggregator := NewAggregator()
	aggregator.SetEventEmitter(recorder.record)

	aggregator.Add(nil, false)
	aggregator.Add(&wire.Segment{Start: 0, End: 1, Text: "   "}, false)
	aggregator.Finalize()

	if recorded := recorder.snapshot(); len(recorded) != 0 {
		t.Fatalf("expected no events, got %d", len(recorded))
	}
	if fragments := aggregator.Fragments(); len(fragments) != 0 {
		t.Fatalf("expected empty buffer, got %+v", fragments)
	}
}

func TestFinalizeFlushesOnceAndClearsBuffer(t *testing.T) {
	recorder := &eventRecorder{}
	aggregator := NewAggregator()
	aggregator.SetEventEmitter(recorder.record)

	aggregator.Add(&wire.Segment{Start: 0, End: 0.5, Text: "hello"}, false)
	aggregator.Finalize()
	aggregator.Finalize()

	finalized := 0
	for _, event := range recorder.snapshot() {
		if event.Kind() == events.KindTranscriptFinalized {
			finalized++
		}
	}
	if finalized != 1 {
		t.Fatalf("expected exactly one finalized event, got %d", finalized)
	}
	if fragments := aggregator.Fragments(); len(fragments) != 0 {
		t.Fatalf("expected buffer cleared after finalize, got %+v", fragments)
	}
}

func TestFallbackTimerFinalizesExactlyOnce(t *testing.T) {
	recorder := &eventRecorder{}
	aggregator := NewAggregator(WithSilenceTrigger(10 * time.Millisecond))
	aggregator.SetEventEmitter(recorder.record)

	aggregator.Add(&wire.Segment{Start: 0, End: 0.5, Text: "hello"}, false)

	deadline := time.Now().Add(time.Second)
	for {
		finalized := 0
		for _, kind := range recorder.kinds() {
			if kind == events.KindTranscriptFinalized {
				finalized++
			}
		}
		if finalized == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected fallback timer to finalize, got kinds %v", recorder.kinds())
		}
		time.Sleep(5 * time.Millisecond)
	}

	// A late explicit end-of-transcript finds an empty buffer.
	aggregator.Finalize()

	finalized := 0
	for _, kind := range recorder.kinds() {
		if kind == events.KindTranscriptFinalized {
			finalized++
		}
	}
	if finalized != 1 {
		t.Fatalf("expected exactly one finalized event, got %d", finalized)
	}
}

func TestVADEventsBracketTheUtterance(t *testing.T) {
	recorder := &eventRecorder{}
	aggregator := NewAggregator(WithVADEvents())
	aggregator.SetEventEmitter(recorder.record)

	aggregator.Add(&wire.Segment{Start: 0.2, End: 0.5, Text: "hel"}, false)
	aggregator.Add(&wire.Segment{Start: 0.2, End: 0.9, Text: "hello"}, false)
	aggregator.Finalize()

	expected := []events.Kind{
		events.KindTranscriptSpeechStarted,
		events.KindTranscriptInterimUpdated,
		events.KindTranscriptInterimUpdated,
		events.KindTranscriptFinalized,
		events.KindTranscriptSpeechEnded,
	}
	kinds := recorder.kinds()
	if len(kinds) != len(expected) {
		t.Fatalf("expected kinds %v, got %v", expected, kinds)
	}
	for i := range expected {
		if kinds[i] != expected[i] {
			t.Fatalf("expected kinds %v, got %v", expected, kinds)
		}
	}

	started, ok := recorder.snapshot()[0].(events.TranscriptSpeechStarted)
	if !ok || started.Start != 0.2 {
		t.Fatalf("expected speech started at 0.2, got %+v", recorder.snapshot()[0])
	}
}

func TestHandleMessageBridgesTranscriptAndTerminalMessages(t *testing.T) {
	recorder := &eventRecorder{}
	aggregator := NewAggregator()
	aggregator.SetEventEmitter(recorder.record)

	aggregator.HandleMessage(wire.Message{
		Kind:    wire.KindAddPartialTranscript,
		Segment: &wire.Segment{Start: 0, End: 0.5, Text: "hel"},
	})
	aggregator.HandleMessage(wire.Message{
		Kind:    wire.KindAddTranscript,
		Segment: &wire.Segment{Start: 0, End: 1.0, Text: "hello", IsFinal: true},
	})
	aggregator.HandleMessage(wire.Message{Kind: wire.KindAudioAdded, SeqNo: 1})
	aggregator.HandleMessage(wire.Message{Kind: wire.KindEndOfTranscript})

	kinds := recorder.kinds()
	expected := []events.Kind{
		events.KindTranscriptInterimUpdated,
		events.KindTranscriptInterimUpdated,
		events.KindTranscriptFinalized,
	}
	if len(kinds) != len(expected) {
		t.Fatalf("expected kinds %v, got %v", expected, kinds)
	}
	for i := range expected {
		if kinds[i] != expected[i] {
			t.Fatalf("expected kinds %v, got %v", expected, kinds)
		}
	}

	finalized, ok := recorder.snapshot()[2].(events.TranscriptFinalized)
	if !ok || finalized.Text != "hello" {
		t.Fatalf("expected finalized text %q, got %+v", "hello", recorder.snapshot()[2])
	}
}
