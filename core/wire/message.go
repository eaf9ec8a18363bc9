package wire

import "encoding/json"

// Dialect selects which wire format a session speaks. It is negotiated once
// at session start and never changes for the lifetime of a connection.
type Dialect string

const (
	DialectStandard Dialect = "standard"
	DialectGateway  Dialect = "gateway"
)

// Kind identifies a logical server message. Values follow the standard
// dialect's message names; gateway messages are normalized onto the same set
// during decode. Standard messages with an unmatched "message" field are
// forwarded verbatim with the field's value as the kind.
type Kind string

const (
	KindRecognitionStarted   Kind = "RecognitionStarted"
	KindAddPartialTranscript Kind = "AddPartialTranscript"
	KindAddTranscript        Kind = "AddTranscript"
	KindAudioAdded           Kind = "AudioAdded"
	KindError                Kind = "Error"
	KindWarning              Kind = "Warning"
	KindInfo                 Kind = "Info"
	KindEndOfTranscript      Kind = "EndOfTranscript"
	KindDisconnect           Kind = "Disconnect"
	KindUnrecognized         Kind = "Unrecognized"
)

// Message is a decoded server message. Only the fields relevant for the
// message's Kind are set; Raw always carries the original payload for
// diagnostics and verbatim forwarding.
type Message struct {
	Kind Kind

	// SessionID is set on RecognitionStarted when the server confirms or
	// assigns a session id.
	SessionID string

	// Reason is set on Error and Warning.
	Reason string

	// SeqNo is set on AudioAdded.
	SeqNo int

	// Segment is set on AddTranscript and AddPartialTranscript.
	Segment *Segment

	Raw json.RawMessage
}

// Segment is one transcript unit with a time interval, partial or final.
type Segment struct {
	Start   float64
	End     float64
	Text    string
	IsFinal bool
}
