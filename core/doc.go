// Package rt is a client for the Shunyalabs realtime transcription service.
//
// A Client owns one websocket connection and one session at a time. The
// caller streams audio through SendAudio while a background receive loop
// decodes server messages and dispatches them to handlers registered with
// On. Transcript aggregation on top of the raw message stream lives in
// core/transcript.
//
// Two wire dialects are supported, selected once at construction: the
// standard dialect (JSON control messages interleaved with binary audio
// frames) and the gateway dialect (JSON only, audio base64-inlined). The
// codec in core/wire normalizes both onto one logical message set, so
// handlers never branch on dialect.
package rt
