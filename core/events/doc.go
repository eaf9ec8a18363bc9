// Package events defines the typed transcript event contract emitted by the
// fragment aggregator.
//
// Event kinds live under the transcript.* namespace:
//
//   - TranscriptSpeechStarted (transcript.speech_started): speech activity
//     began after an idle period.
//   - TranscriptSpeechEnded (transcript.speech_ended): the utterance that the
//     activity belonged to was finalized.
//   - TranscriptInterimUpdated (transcript.interim_updated): mutable snapshot
//     of the utterance assembled so far; replaces any previous snapshot.
//   - TranscriptFinalized (transcript.finalized): terminal immutable text for
//     the utterance; the aggregator's buffer is empty afterwards.
//
// Semantics used across the package:
//
//   - Fragment: one transcript piece with session-relative timing, partial
//     until marked final.
//   - Updated: point-in-time snapshot that later events supersede.
//   - Finalized: terminal state, emitted at most once per utterance.
package events
