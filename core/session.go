package rt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shunyalabs/rt-go/core/audio"
	"github.com/shunyalabs/rt-go/core/wire"
)

// StartSession connects, sends the session-opening message and waits for the
// server's ready confirmation. A server-confirmed session id overrides the
// caller-supplied one.
func (c *Client) StartSession(ctx context.Context, opts ...SessionOption) error {
	options := defaultSessionOptions()
	for _, opt := range opts {
		opt(&options)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClientClosed
	}
	if c.state != StateIdle {
		c.mu.Unlock()
		return &ConfigurationError{Reason: fmt.Sprintf("cannot start session from state %q", c.state)}
	}
	c.session = options
	c.setStateLocked(StateConnecting)
	transport := c.transport
	c.mu.Unlock()

	if transport == nil {
		wsTransport, err := newWebsocketTransport(c.url, c.apiKey)
		if err != nil {
			c.fail(err)
			return &ConfigurationError{Reason: err.Error()}
		}
		transport = wsTransport
		c.mu.Lock()
		c.transport = transport
		c.mu.Unlock()
	}

	if err := transport.Connect(ctx, options.headers); err != nil {
		connErr := &ConnectionError{Err: err}
		c.fail(connErr)
		return connErr
	}

	c.mu.Lock()
	c.loopDone = make(chan struct{})
	c.mu.Unlock()

	go c.receiveLoop(transport)

	startMsg, err := wire.EncodeStartSession(c.dialect, wire.StartSession{
		SessionID:         c.SessionID(),
		ConnectionID:      c.SessionID(),
		Transcription:     options.transcription,
		Audio:             options.audioFormat,
		Translation:       options.translation,
		Model:             options.model,
		APIKey:            c.apiKey,
		DeliverDeltasOnly: options.deliverDeltasOnly,
		InactivityTimeout: options.inactivityTimeout,
		UseVAD:            options.serverVAD,
	})
	if err != nil {
		c.fail(err)
		_ = transport.Close()
		return err
	}
	if err := transport.Send(startMsg, false); err != nil {
		connErr := &ConnectionError{Err: err}
		c.fail(connErr)
		_ = transport.Close()
		return connErr
	}

	c.mu.Lock()
	c.setStateLocked(StateAwaitingReady)
	c.mu.Unlock()

	readyTimer := time.NewTimer(c.readyTimeout)
	defer readyTimer.Stop()

	select {
	case <-c.readyCh:
		c.mu.Lock()
		c.setStateLocked(StateStreaming)
		c.mu.Unlock()
		return nil

	case <-c.doneCh:
		err := c.Err()
		if err == nil {
			err = &ConnectionError{Err: errors.New("session ended before ready confirmation")}
		}
		return err

	case <-readyTimer.C:
		timeoutErr := &StartupTimeoutError{Timeout: c.readyTimeout}
		c.fail(timeoutErr)
		_ = transport.Close()
		return timeoutErr

	case <-ctx.Done():
		c.fail(ctx.Err())
		_ = transport.Close()
		return ctx.Err()
	}
}

// SendAudio sends one audio chunk. With WithInputEncoding set on a
// gateway-dialect session, audio is normalized to pcm_f32le mono first; the
// standard dialect sends audio as-is against the declared session format.
// Returns ErrClientClosed once the session has ended, whether by Close,
// StopSession or failure.
func (c *Client) SendAudio(audioData []byte, opts ...AudioOption) error {
	options := audioOptions{channels: 1}
	for _, opt := range opts {
		opt(&options)
	}

	c.mu.Lock()
	if c.closed || c.eosSent || c.doneClosed {
		c.mu.Unlock()
		return ErrClientClosed
	}
	dialect := c.dialect
	sessionID := c.sessionID
	format := c.session.audioFormat
	transport := c.transport
	seq := c.seqNo + 1
	c.mu.Unlock()

	if transport == nil {
		return &ConfigurationError{Reason: "no active session"}
	}

	payload := audioData
	if dialect == wire.DialectGateway && needsNormalization(options) {
		encoding := options.encoding
		if encoding.Format.Name() == "" {
			encoding.Format = audio.EncodingFloat32
		}
		if encoding.SampleRate == 0 {
			encoding.SampleRate = format.SampleRate
		}
		normalized, err := audio.NormalizeTo(payload, encoding, format.SampleRate, options.channels)
		if err != nil {
			return err
		}
		payload = normalized
	}

	frame, binary, err := wire.EncodeAudioFrame(dialect, wire.AudioFrame{
		SessionID:    sessionID,
		ConnectionID: sessionID,
		Seq:          seq,
		SampleRate:   format.SampleRate,
		Audio:        payload,
	})
	if err != nil {
		return err
	}
	if err := transport.Send(frame, binary); err != nil {
		connErr := &ConnectionError{Err: err}
		c.fail(connErr)
		return connErr
	}
	c.mu.Lock()
	c.seqNo = seq
	c.mu.Unlock()

	return nil
}

// needsNormalization reports whether the input differs from the canonical
// pcm_f32le mono format. A declared channel count other than one always
// normalizes; undeclared encodings with mono audio pass through.
func needsNormalization(options audioOptions) bool {
	if options.channels != 1 {
		return true
	}
	if options.encoding.Format.Name() == "" {
		return false
	}
	return options.encoding.Format != audio.EncodingFloat32
}

// SendMessage sends a raw text frame. Escape hatch for messages the client
// does not model; the post-close guard still applies.
func (c *Client) SendMessage(msg []byte) error {
	c.mu.Lock()
	if c.closed || c.eosSent || c.doneClosed {
		c.mu.Unlock()
		return ErrClientClosed
	}
	transport := c.transport
	c.mu.Unlock()

	if transport == nil {
		return &ConfigurationError{Reason: "no active session"}
	}

	if err := transport.Send(msg, false); err != nil {
		connErr := &ConnectionError{Err: err}
		c.fail(connErr)
		return connErr
	}
	return nil
}

// ForceEndOfUtterance asks the server to finalize the current utterance
// early. Only the standard dialect has this control message.
func (c *Client) ForceEndOfUtterance() error {
	c.mu.Lock()
	if c.closed || c.eosSent || c.doneClosed {
		c.mu.Unlock()
		return ErrClientClosed
	}
	dialect := c.dialect
	transport := c.transport
	c.mu.Unlock()

	if transport == nil {
		return &ConfigurationError{Reason: "no active session"}
	}

	payload, err := wire.EncodeForceEndOfUtterance(dialect)
	if err != nil {
		return err
	}
	if err := transport.Send(payload, false); err != nil {
		connErr := &ConnectionError{Err: err}
		c.fail(connErr)
		return connErr
	}
	return nil
}

// StopSession sends end-of-stream (once, further calls are no-ops), waits
// for the server to finish or the context to expire, then closes. It
// returns the error that ended the session, if any.
func (c *Client) StopSession(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return c.Err()
	}
	if c.state == StateIdle {
		c.mu.Unlock()
		return &ConfigurationError{Reason: "no active session"}
	}
	sendEOS := !c.eosSent && !c.doneClosed
	c.eosSent = true
	if c.state == StateAwaitingReady || c.state == StateStreaming {
		c.setStateLocked(StateDraining)
	}
	dialect := c.dialect
	sessionID := c.sessionID
	lastSeq := c.seqNo
	transport := c.transport
	c.mu.Unlock()

	if sendEOS && transport != nil {
		payload, err := wire.EncodeEndOfStream(dialect, wire.EndOfStream{
			SessionID:    sessionID,
			ConnectionID: sessionID,
			LastSeqNo:    lastSeq,
		})
		if err == nil {
			if sendErr := transport.Send(payload, false); sendErr != nil {
				c.fail(&ConnectionError{Err: sendErr})
			}
		}
	}

	select {
	case <-c.doneCh:
	case <-ctx.Done():
		_ = c.Close(ctx)
		return ctx.Err()
	}

	if err := c.Close(ctx); err != nil {
		return err
	}
	return c.Err()
}

// Close tears the client down exactly once: releases waiters, flushes the
// final transcript, closes the transport and awaits the receive loop with a
// bounded grace period. Safe to call from any state.
func (c *Client) Close(ctx context.Context) error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.signalDoneLocked()
		transport := c.transport
		loopDone := c.loopDone
		c.mu.Unlock()

		c.flushFinalTranscript()

		if transport != nil {
			// Unblocks the receive loop's pending read.
			_ = transport.Close()
		}

		if loopDone != nil {
			select {
			case <-loopDone:
			case <-time.After(closeGrace):
				logger.Warn("receive loop did not stop within grace period")
			case <-ctx.Done():
			}
		}

		c.mu.Lock()
		c.setStateLocked(StateClosed)
		c.mu.Unlock()
	})

	return nil
}

// receiveLoop is the session's single background task. It blocks on the
// transport, decodes, updates lifecycle state and dispatches. On every exit
// path the final transcript is flushed exactly once.
func (c *Client) receiveLoop(transport Transport) {
	defer func() {
		c.mu.Lock()
		loopDone := c.loopDone
		c.mu.Unlock()
		if loopDone != nil {
			close(loopDone)
		}
	}()
	defer c.flushFinalTranscript()

	for {
		data, err := transport.Receive()
		if err != nil {
			if c.isClosed() {
				logger.Debug("receive loop stopped", "session_id", c.SessionID())
				return
			}
			c.fail(&ConnectionError{Err: err})
			_ = transport.Close()
			return
		}

		msgs, err := wire.DecodeServer(c.dialect, data)
		if err != nil {
			c.fail(fmt.Errorf("failed to decode server message: %w", err))
			_ = transport.Close()
			return
		}

		for _, msg := range msgs {
			c.observe(msg)
			c.dispatcher.emit(msg)

			switch msg.Kind {
			case wire.KindError:
				// A server error ends the session after handlers saw it.
				c.fail(&ProtocolError{Reason: msg.Reason})
				_ = transport.Close()
				return
			case wire.KindEndOfTranscript, wire.KindDisconnect:
				c.finishSession()
				return
			}
		}
	}
}

// observe applies lifecycle-relevant messages to the session before they
// reach caller handlers.
func (c *Client) observe(msg wire.Message) {
	switch msg.Kind {
	case wire.KindRecognitionStarted:
		c.mu.Lock()
		if msg.SessionID != "" {
			c.sessionID = msg.SessionID
		}
		sessionID := c.sessionID
		c.signalReadyLocked()
		c.mu.Unlock()
		logger.Info("recognition started", "session_id", sessionID)

	case wire.KindAddTranscript:
		if msg.Segment != nil {
			c.mu.Lock()
			c.finalTexts = append(c.finalTexts, msg.Segment.Text)
			c.mu.Unlock()
		}

	case wire.KindAudioAdded:
		// Server-side acknowledgment; the client's own counter stays
		// authoritative for sequencing.
		logger.Debug("audio acknowledged", "seq_no", msg.SeqNo)

	case wire.KindWarning:
		logger.Warn("server warning", "reason", msg.Reason)

	case wire.KindUnrecognized:
		logger.Warn("unrecognized server message", "payload", string(msg.Raw))
	}
}

func (c *Client) finishSession() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.signalDoneLocked()
	if c.state != StateFailed {
		c.setStateLocked(StateClosed)
	}
}
