package rt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

type transcribeOptions struct {
	timeout time.Duration
	session []SessionOption
}

type TranscribeOption func(*transcribeOptions)

// WithTimeout bounds the whole Transcribe run. Exceeding it returns a
// TranscriptionTimeoutError.
func WithTimeout(timeout time.Duration) TranscribeOption {
	return func(o *transcribeOptions) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// WithSessionOptions forwards session options to the StartSession call made
// by Transcribe.
func WithSessionOptions(opts ...SessionOption) TranscribeOption {
	return func(o *transcribeOptions) {
		o.session = append(o.session, opts...)
	}
}

// Transcribe runs one full session over the reader's audio: start, pump
// chunks of the session's chunk size, stop. Transcript handlers registered
// with On fire as usual while it runs.
func (c *Client) Transcribe(ctx context.Context, r io.Reader, opts ...TranscribeOption) error {
	options := transcribeOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	if options.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, options.timeout)
		defer cancel()
	}

	if err := c.StartSession(ctx, options.session...); err != nil {
		return c.timeoutResult(err, options.timeout)
	}

	c.mu.Lock()
	chunkSize := c.session.audioFormat.ChunkSize
	c.mu.Unlock()
	if chunkSize <= 0 {
		chunkSize = 4096
	}

	buf := make([]byte, chunkSize)
	for {
		if err := ctx.Err(); err != nil {
			_ = c.Close(ctx)
			return c.timeoutResult(err, options.timeout)
		}

		n, err := r.Read(buf)
		if n > 0 {
			if sendErr := c.SendAudio(buf[:n]); sendErr != nil {
				_ = c.Close(ctx)
				return sendErr
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			_ = c.Close(ctx)
			return fmt.Errorf("failed to read audio source: %w", err)
		}
	}

	if err := c.StopSession(ctx); err != nil {
		return c.timeoutResult(err, options.timeout)
	}
	return nil
}

// timeoutResult maps a deadline expiry onto the typed timeout error when the
// caller asked for an overall bound.
func (c *Client) timeoutResult(err error, timeout time.Duration) error {
	if timeout > 0 && errors.Is(err, context.DeadlineExceeded) {
		return &TranscriptionTimeoutError{Timeout: timeout}
	}
	return err
}
