package wire

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnsupportedByDialect is returned when a logical message has no
// representation in the session's dialect.
var ErrUnsupportedByDialect = errors.New("message not supported by dialect")

// StartSession carries everything needed to build the session-opening
// message in either dialect.
type StartSession struct {
	SessionID    string
	ConnectionID string

	Transcription TranscriptionConfig
	Audio         AudioFormat
	Translation   *TranslationConfig

	// Gateway-dialect fields.
	Model             string
	APIKey            string
	DeliverDeltasOnly bool
	InactivityTimeout float64
	UseVAD            bool
}

// AudioFrame carries one outbound audio chunk. Audio is expected to already
// be in the session's transmit encoding.
type AudioFrame struct {
	SessionID    string
	ConnectionID string
	Seq          int
	SampleRate   int
	Audio        []byte
}

// EndOfStream carries the end-of-stream control message parameters.
type EndOfStream struct {
	SessionID    string
	ConnectionID string
	LastSeqNo    int
}

type gatewayInitConfig struct {
	UID               string  `json:"uid"`
	Language          *string `json:"language"`
	Task              string  `json:"task"`
	Model             string  `json:"model"`
	ClientSampleRate  int     `json:"client_sample_rate"`
	DeliverDeltasOnly bool    `json:"deliver_deltas_only"`
	InactivityTimeout float64 `json:"inactivity_timeout,omitempty"`
	UseVAD            bool    `json:"use_vad"`
	APIKey            string  `json:"api_key,omitempty"`
}

// EncodeStartSession builds the session-opening message for the dialect.
func EncodeStartSession(dialect Dialect, p StartSession) ([]byte, error) {
	switch dialect {
	case DialectStandard:
		msg := map[string]any{
			"message":              "StartRecognition",
			"audio_format":         p.Audio,
			"transcription_config": p.Transcription,
		}
		if p.Translation != nil {
			msg["translation_config"] = p.Translation
		}
		return json.Marshal(msg)

	case DialectGateway:
		config := gatewayInitConfig{
			UID:               p.SessionID,
			Language:          gatewayLanguage(p.Transcription.Language),
			Task:              "transcribe",
			Model:             p.Model,
			ClientSampleRate:  p.Audio.SampleRate,
			DeliverDeltasOnly: p.DeliverDeltasOnly,
			InactivityTimeout: p.InactivityTimeout,
			UseVAD:            p.UseVAD,
			APIKey:            p.APIKey,
		}
		if config.Model == "" {
			config.Model = DefaultModel
		}
		return json.Marshal(map[string]any{
			"action":     "send",
			"type":       "init",
			"session_id": p.SessionID,
			"config":     config,
		})
	}

	return nil, fmt.Errorf("unknown dialect %q", dialect)
}

// gatewayLanguage maps "auto" and empty to null, which the gateway treats as
// server-side language detection.
func gatewayLanguage(language string) *string {
	if language == "" || language == "auto" {
		return nil
	}
	return &language
}

// EncodeAudioFrame builds one outbound audio frame. The second return value
// reports whether the payload must be sent as a binary transport frame
// (standard dialect) rather than text (gateway dialect).
func EncodeAudioFrame(dialect Dialect, p AudioFrame) ([]byte, bool, error) {
	switch dialect {
	case DialectStandard:
		return p.Audio, true, nil

	case DialectGateway:
		payload, err := json.Marshal(map[string]any{
			"type":          "frame",
			"session_id":    p.SessionID,
			"connection_id": p.ConnectionID,
			"frame_seq":     p.Seq,
			"audio": map[string]any{
				"inline_b64": base64.StdEncoding.EncodeToString(p.Audio),
				"dtype":      "float32",
				"channels":   1,
				"sr":         p.SampleRate,
			},
		})
		return payload, false, err
	}

	return nil, false, fmt.Errorf("unknown dialect %q", dialect)
}

// EncodeEndOfStream builds the end-of-stream control message.
func EncodeEndOfStream(dialect Dialect, p EndOfStream) ([]byte, error) {
	switch dialect {
	case DialectStandard:
		return json.Marshal(map[string]any{
			"message":     "EndOfStream",
			"last_seq_no": p.LastSeqNo,
		})

	case DialectGateway:
		return json.Marshal(map[string]any{
			"type":          "end",
			"session_id":    p.SessionID,
			"connection_id": p.ConnectionID,
		})
	}

	return nil, fmt.Errorf("unknown dialect %q", dialect)
}

// EncodeForceEndOfUtterance builds the control message that asks the server
// to finalize the current utterance early. The gateway dialect has no
// equivalent message.
func EncodeForceEndOfUtterance(dialect Dialect) ([]byte, error) {
	switch dialect {
	case DialectStandard:
		return json.Marshal(map[string]any{"message": "ForceEndOfUtterance"})
	case DialectGateway:
		return nil, fmt.Errorf("force end of utterance: %w", ErrUnsupportedByDialect)
	}

	return nil, fmt.Errorf("unknown dialect %q", dialect)
}
