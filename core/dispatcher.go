package rt

import (
	"sync"

	"github.com/shunyalabs/rt-go/core/wire"
)

// Handler receives one decoded server message. Handlers run synchronously on
// the receive loop's goroutine, in registration order.
type Handler func(msg wire.Message)

type dispatcher struct {
	mu       sync.RWMutex
	handlers map[wire.Kind][]Handler
}

func newDispatcher() *dispatcher {
	return &dispatcher{handlers: map[wire.Kind][]Handler{}}
}

func (d *dispatcher) on(kind wire.Kind, handler Handler) {
	if handler == nil {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.handlers[kind] = append(d.handlers[kind], handler)
}

func (d *dispatcher) listeners(kind wire.Kind) int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return len(d.handlers[kind])
}

func (d *dispatcher) emit(msg wire.Message) {
	d.mu.RLock()
	handlers := append([]Handler(nil), d.handlers[msg.Kind]...)
	d.mu.RUnlock()

	for _, handler := range handlers {
		invokeHandler(handler, msg)
	}
}

// invokeHandler recovers handler panics; the rest of the registration list
// still runs.
func invokeHandler(handler Handler, msg wire.Message) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("event handler panicked", "kind", string(msg.Kind), "panic", r)
		}
	}()

	handler(msg)
}
