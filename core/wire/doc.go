// Package wire translates between the two transcription wire dialects and
// the logical message set the rest of the client operates on.
//
// The server speaks one of two dialects, selected once at session start:
//
//   - standard: JSON control messages discriminated by a "message" field,
//     interleaved with raw binary audio frames sent by the client.
//   - gateway: JSON-only framing ("type"/"event" discriminated), with audio
//     base64-inlined into frame messages.
//
// Decoding normalizes both dialects into the standard dialect's logical
// event set (Kind plus Message fields) so nothing downstream branches on
// dialect. Messages that match no known shape are classified
// KindUnrecognized and still forwarded; no inbound message is dropped
// silently.
package wire
