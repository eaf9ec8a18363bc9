package wire

import (
	"encoding/json"
	"fmt"
	"strings"
)

type envelope struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Event   string `json:"event"`

	ID        string `json:"id"`
	SessionID string `json:"session_id"`
	UID       string `json:"uid"`

	Reason string `json:"reason"`
	SeqNo  int    `json:"seq_no"`

	Metadata *struct {
		Transcript string   `json:"transcript"`
		StartTime  float64  `json:"start_time"`
		EndTime    *float64 `json:"end_time"`
	} `json:"metadata"`

	Segments []struct {
		Text      string   `json:"text"`
		Start     float64  `json:"start"`
		End       *float64 `json:"end"`
		Completed bool     `json:"completed"`
	} `json:"segments"`

	Language     *string  `json:"language"`
	LanguageProb *float64 `json:"language_prob"`
}

// DecodeServer decodes one inbound text frame into zero or more logical
// messages. Gateway transcript payloads expand into one message per
// non-empty segment; gateway language-detection payloads decode to zero
// messages (informational only). Anything that matches no known shape comes
// back as a single KindUnrecognized message so it stays visible downstream.
func DecodeServer(dialect Dialect, data []byte) ([]Message, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode server message: %w", err)
	}

	if dialect == DialectGateway {
		if msgs, ok := decodeGateway(&env, data); ok {
			return msgs, nil
		}
	}

	// Disconnect and end-of-transcript arrive in both dialects; the gateway
	// variants are normalized here so handlers never branch on dialect.
	if env.Message == "DISCONNECT" || env.Type == "disconnect" {
		return []Message{{Kind: KindDisconnect, Raw: data}}, nil
	}
	if env.Message == "EndOfTranscript" || env.Event == "END_OF_TRANSCRIPTION" {
		return []Message{{Kind: KindEndOfTranscript, SessionID: env.UID, Raw: data}}, nil
	}

	if env.Message != "" {
		return []Message{decodeStandard(&env, data)}, nil
	}

	return []Message{{Kind: KindUnrecognized, Raw: data}}, nil
}

// decodeGateway handles the shapes that exist only in the gateway dialect.
// The second return value reports whether the payload was consumed.
func decodeGateway(env *envelope, data []byte) ([]Message, bool) {
	if env.Message == "SERVER_READY" {
		return []Message{{Kind: KindRecognitionStarted, SessionID: env.SessionID, Raw: data}}, true
	}

	if env.Segments != nil {
		msgs := make([]Message, 0, len(env.Segments))
		for _, seg := range env.Segments {
			text := strings.TrimSpace(seg.Text)
			if text == "" {
				continue
			}

			end := seg.Start + 1.0
			if seg.End != nil {
				end = *seg.End
			}

			kind := KindAddPartialTranscript
			if seg.Completed {
				kind = KindAddTranscript
			}
			msgs = append(msgs, Message{
				Kind:    kind,
				Segment: &Segment{Start: seg.Start, End: end, Text: text, IsFinal: seg.Completed},
				Raw:     data,
			})
		}
		return msgs, true
	}

	if env.Type == "error" {
		reason := env.Message
		if reason == "" {
			reason = "Unknown error"
		}
		return []Message{{Kind: KindError, Reason: reason, Raw: data}}, true
	}

	// Language detection results are informational and produce no event.
	if env.Language != nil && env.LanguageProb != nil {
		return nil, true
	}

	return nil, false
}

func decodeStandard(env *envelope, data []byte) Message {
	switch env.Message {
	case "RecognitionStarted":
		return Message{Kind: KindRecognitionStarted, SessionID: env.ID, Raw: data}

	case "AddTranscript", "AddPartialTranscript":
		msg := Message{Kind: Kind(env.Message), Raw: data}
		if env.Metadata != nil {
			text := strings.TrimSpace(env.Metadata.Transcript)
			if text != "" {
				end := env.Metadata.StartTime + 1.0
				if env.Metadata.EndTime != nil {
					end = *env.Metadata.EndTime
				}
				msg.Segment = &Segment{
					Start:   env.Metadata.StartTime,
					End:     end,
					Text:    text,
					IsFinal: env.Message == "AddTranscript",
				}
			}
		}
		return msg

	case "AudioAdded":
		return Message{Kind: KindAudioAdded, SeqNo: env.SeqNo, Raw: data}

	case "Error":
		return Message{Kind: KindError, Reason: env.Reason, Raw: data}

	case "Warning":
		return Message{Kind: KindWarning, Reason: env.Reason, Raw: data}

	case "Info":
		return Message{Kind: KindInfo, Raw: data}
	}

	// Unmatched standard messages keep their message name as the kind so
	// callers can subscribe to them verbatim.
	return Message{Kind: Kind(env.Message), Raw: data}
}
