package rt

import (
	"errors"
	"fmt"
	"time"
)

// ErrClientClosed is returned by send operations after the client was closed
// or after end-of-stream was sent.
var ErrClientClosed = errors.New("client is closed")

// ConfigurationError reports missing or invalid setup detected before any
// connection attempt.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Reason)
}

// ConnectionError wraps a transport-level failure.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection error: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// StartupTimeoutError reports that the server did not confirm the session
// within the ready timeout.
type StartupTimeoutError struct {
	Timeout time.Duration
}

func (e *StartupTimeoutError) Error() string {
	return fmt.Sprintf("server did not confirm session within %s", e.Timeout)
}

// ProtocolError carries an error payload reported by the server. Receiving
// one ends the session.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("server error: %s", e.Reason)
}

// TranscriptionTimeoutError reports that a caller-specified overall deadline
// for a Transcribe run was exceeded.
type TranscriptionTimeoutError struct {
	Timeout time.Duration
}

func (e *TranscriptionTimeoutError) Error() string {
	return fmt.Sprintf("transcription did not finish within %s", e.Timeout)
}
