package rt

import (
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shunyalabs/rt-go/core/wire"
)

const (
	defaultServerURL = "wss://eu2.rt.shunyalabs.com/v2"

	defaultReadyTimeout = 5 * time.Second
	maxReadyTimeout     = 10 * time.Second

	// closeGrace bounds how long Close waits for the receive loop to
	// acknowledge cancellation.
	closeGrace = 2 * time.Second
)

// State is the session lifecycle state of a Client.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateAwaitingReady
	StateStreaming
	StateDraining
	StateClosed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateAwaitingReady:
		return "awaiting_ready"
	case StateStreaming:
		return "streaming"
	case StateDraining:
		return "draining"
	case StateClosed:
		return "closed"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Client is a realtime transcription client. One Client runs at most one
// session over one persistent connection.
//
// Methods are safe for concurrent use, but strictly increasing sequence
// numbering needs a single audio producer at a time.
type Client struct {
	url          string
	apiKey       string
	dialect      wire.Dialect
	readyTimeout time.Duration

	dispatcher *dispatcher
	transport  Transport

	mu          sync.Mutex
	state       State
	sessionID   string
	session     sessionOptions
	err         error
	closed      bool
	readyClosed bool
	doneClosed  bool
	finalTexts  []string
	loopDone    chan struct{}
	seqNo       int
	eosSent     bool

	readyCh chan struct{}
	doneCh  chan struct{}

	closeOnce sync.Once
	flushOnce sync.Once
}

// NewClient creates a client. The API key comes from WithAPIKey or the
// SHUNYALABS_API_KEY environment variable; without one the client fails fast
// with a ConfigurationError instead of failing on connect.
func NewClient(opts ...ClientOption) (*Client, error) {
	client := &Client{
		url:          defaultServerURL,
		dialect:      wire.DialectStandard,
		readyTimeout: defaultReadyTimeout,
		dispatcher:   newDispatcher(),
		sessionID:    uuid.NewString(),
		readyCh:      make(chan struct{}),
		doneCh:       make(chan struct{}),
	}
	if url, ok := os.LookupEnv("SHUNYALABS_RT_URL"); ok && url != "" {
		client.url = url
	}
	if apiKey, ok := os.LookupEnv("SHUNYALABS_API_KEY"); ok {
		client.apiKey = apiKey
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.apiKey == "" {
		return nil, &ConfigurationError{Reason: "missing api key (set SHUNYALABS_API_KEY or use WithAPIKey)"}
	}
	if client.readyTimeout > maxReadyTimeout {
		client.readyTimeout = maxReadyTimeout
	}

	return client, nil
}

// On registers a handler for a message kind. Registration order is dispatch
// order.
func (c *Client) On(kind wire.Kind, handler Handler) {
	c.dispatcher.on(kind, handler)
}

// Listeners returns the number of handlers registered for kind.
func (c *Client) Listeners(kind wire.Kind) int {
	return c.dispatcher.listeners(kind)
}

// State returns the current lifecycle state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// SessionID returns the session id, server-confirmed once the session is
// running.
func (c *Client) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.sessionID
}

// Err returns the error that ended the session, if any.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.err
}

// FinalTranscript returns the accumulated final-segment texts joined into
// one string.
func (c *Client) FinalTranscript() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return strings.Join(c.finalTexts, " ")
}

func (c *Client) setStateLocked(state State) {
	if c.state == state {
		return
	}
	logger.Debug("session state changed",
		"from", c.state.String(), "to", state.String(), "session_id", c.sessionID)
	c.state = state
}

func (c *Client) signalReadyLocked() {
	if !c.readyClosed {
		c.readyClosed = true
		close(c.readyCh)
	}
}

func (c *Client) signalDoneLocked() {
	if !c.doneClosed {
		c.doneClosed = true
		close(c.doneCh)
	}
}

// fail records the first session-ending error, marks the session failed and
// releases everyone waiting on session completion.
func (c *Client) fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.err == nil {
		c.err = err
	}
	if c.state != StateClosed {
		c.setStateLocked(StateFailed)
	}
	c.signalDoneLocked()
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.closed
}

// flushFinalTranscript runs exactly once per client, from whichever exit
// path gets there first, so the combined transcript survives even when the
// confirming end-of-transcript never arrives.
func (c *Client) flushFinalTranscript() {
	c.flushOnce.Do(func() {
		c.mu.Lock()
		texts := append([]string(nil), c.finalTexts...)
		sessionID := c.sessionID
		c.mu.Unlock()

		if len(texts) == 0 {
			return
		}
		logger.Info("final transcript",
			"session_id", sessionID,
			"segments", len(texts),
			"transcript", strings.Join(texts, " "))
	})
}
