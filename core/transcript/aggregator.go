// Package transcript assembles partial and final transcript segments into
// coherent utterances and decides when an utterance is over.
//
// Finalization is dual-triggered: an explicit Finalize call (end-of-transcript
// from the server, or any receive-path teardown) and a fallback inactivity
// timer armed on every change. Whichever fires first flushes; the other
// becomes a no-op because the buffer is already empty.
package transcript

import (
	"strings"
	"sync"
	"time"

	"github.com/shunyalabs/rt-go/core/events"
	"github.com/shunyalabs/rt-go/core/wire"
)

// DefaultSilenceTrigger is the end-of-utterance silence trigger used when the
// caller does not pick one. The fallback timer fires at twice this value.
const DefaultSilenceTrigger = 500 * time.Millisecond

// refinementWindow bounds how far apart two partials' start times may be
// while still describing the same utterance window.
const refinementWindow = 0.1

type eventEmitter func(events.Event)

func noopEventEmitter(events.Event) {}

// Aggregator accumulates transcript fragments and emits grouped interim and
// finalized events. Methods are safe for concurrent use.
type Aggregator struct {
	mu        sync.Mutex
	fragments []events.Fragment
	speaking  bool
	timer     *time.Timer

	emitEvent      eventEmitter
	silenceTrigger time.Duration
	vadEvents      bool
}

// AggregatorOption configures an Aggregator.
type AggregatorOption func(*Aggregator)

// WithSilenceTrigger sets the end-of-utterance silence trigger. The fallback
// inactivity timer fires at twice this duration.
func WithSilenceTrigger(d time.Duration) AggregatorOption {
	return func(a *Aggregator) {
		if d > 0 {
			a.silenceTrigger = d
		}
	}
}

// WithVADEvents brackets utterances with speech started and speech ended
// events.
func WithVADEvents() AggregatorOption {
	return func(a *Aggregator) {
		a.vadEvents = true
	}
}

// NewAggregator creates an empty aggregator. Events go nowhere until
// SetEventEmitter is called.
func NewAggregator(opts ...AggregatorOption) *Aggregator {
	aggregator := &Aggregator{
		emitEvent:      noopEventEmitter,
		silenceTrigger: DefaultSilenceTrigger,
	}
	for _, opt := range opts {
		opt(aggregator)
	}

	return aggregator
}

// SetEventEmitter routes emitted events to emitEvent. Passing nil restores
// the discarding emitter.
func (a *Aggregator) SetEventEmitter(emitEvent func(events.Event)) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if emitEvent != nil {
		a.emitEvent = emitEvent
	} else {
		a.emitEvent = noopEventEmitter
	}
}

// HandleMessage feeds transcript messages into the aggregator and finalizes
// on end-of-transcript and disconnect. It has the shape expected by a
// client's On registration and ignores every other message kind.
func (a *Aggregator) HandleMessage(msg wire.Message) {
	switch msg.Kind {
	case wire.KindAddTranscript, wire.KindAddPartialTranscript:
		a.Add(msg.Segment, msg.Segment != nil && msg.Segment.IsFinal)
	case wire.KindEndOfTranscript, wire.KindDisconnect:
		a.Finalize()
	}
}

// Add accumulates one transcript segment. A final segment drops all buffered
// partials before being appended. A partial whose start time lands within
// the refinement window of a buffered partial updates that fragment in
// place; otherwise it is appended. Segments with empty text are ignored.
func (a *Aggregator) Add(seg *wire.Segment, isFinal bool) {
	if seg == nil {
		return
	}
	text := strings.TrimSpace(seg.Text)
	if text == "" {
		return
	}

	a.mu.Lock()

	if isFinal {
		kept := a.fragments[:0]
		for _, f := range a.fragments {
			if f.Final {
				kept = append(kept, f)
			}
		}
		a.fragments = append(kept, events.Fragment{
			Text:  text,
			Start: seg.Start,
			End:   seg.End,
			Final: true,
		})
	} else {
		refined := false
		for i := range a.fragments {
			f := &a.fragments[i]
			if !f.Final && abs(f.Start-seg.Start) < refinementWindow {
				f.Text = text
				f.End = seg.End
				refined = true
				break
			}
		}
		if !refined {
			a.fragments = append(a.fragments, events.Fragment{
				Text:  text,
				Start: seg.Start,
				End:   seg.End,
			})
		}
	}

	pending := a.snapshotLocked()
	started := a.vadEvents && !a.speaking
	if started {
		a.speaking = true
	}
	a.rearmTimerLocked()
	emitEvent := a.emitEvent
	a.mu.Unlock()

	if started {
		emitEvent(events.NewTranscriptSpeechStarted(pending[0].Start))
	}
	emitEvent(events.NewTranscriptInterimUpdated(joinFragments(pending), pending))
}

// Finalize flushes the buffered fragments as one finalized utterance and
// cancels the fallback timer. With an empty buffer it does nothing, so the
// explicit end-of-transcript path and the fallback timer can both call it
// without producing duplicate finals.
func (a *Aggregator) Finalize() {
	a.mu.Lock()

	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}

	if len(a.fragments) == 0 {
		a.mu.Unlock()
		return
	}

	flushed := a.snapshotLocked()
	a.fragments = nil
	ended := a.vadEvents && a.speaking
	a.speaking = false
	emitEvent := a.emitEvent
	a.mu.Unlock()

	logger.Debug("flushing finalized utterance", "fragments", len(flushed))

	emitEvent(events.NewTranscriptFinalized(joinFragments(flushed), flushed))
	if ended {
		emitEvent(events.NewTranscriptSpeechEnded(flushed[len(flushed)-1].End))
	}
}

// Fragments returns a copy of the buffered fragments.
func (a *Aggregator) Fragments() []events.Fragment {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.snapshotLocked()
}

func (a *Aggregator) snapshotLocked() []events.Fragment {
	snapshot := make([]events.Fragment, len(a.fragments))
	copy(snapshot, a.fragments)
	return snapshot
}

func (a *Aggregator) rearmTimerLocked() {
	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(2*a.silenceTrigger, func() {
		logger.Debug("fallback end of utterance triggered")
		a.Finalize()
	})
}

func joinFragments(fragments []events.Fragment) string {
	parts := make([]string, 0, len(fragments))
	for _, f := range fragments {
		if f.Text != "" {
			parts = append(parts, f.Text)
		}
	}
	return strings.Join(parts, " ")
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
