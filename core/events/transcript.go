package events

const (
	// KindTranscriptSpeechStarted identifies the start of speech activity.
	KindTranscriptSpeechStarted Kind = "transcript.speech_started"
	// KindTranscriptSpeechEnded identifies the end of the current utterance's
	// speech activity.
	KindTranscriptSpeechEnded Kind = "transcript.speech_ended"
	// KindTranscriptInterimUpdated identifies mutable utterance snapshots.
	KindTranscriptInterimUpdated Kind = "transcript.interim_updated"
	// KindTranscriptFinalized identifies the terminal text of an utterance.
	KindTranscriptFinalized Kind = "transcript.finalized"
)

// Fragment is one transcript piece with session-relative timing in seconds.
type Fragment struct {
	Text  string
	Start float64
	End   float64
	Final bool
}

// TranscriptSpeechStarted marks the start of speech activity after idle.
type TranscriptSpeechStarted struct {
	Base
	// Start is the session-relative time of the first fragment, in seconds.
	Start float64
}

// NewTranscriptSpeechStarted creates a speech started event.
func NewTranscriptSpeechStarted(start float64) TranscriptSpeechStarted {
	return TranscriptSpeechStarted{Base: NewBase(KindTranscriptSpeechStarted), Start: start}
}

// TranscriptSpeechEnded marks the end of the finalized utterance's activity.
type TranscriptSpeechEnded struct {
	Base
	// End is the session-relative end time of the utterance, in seconds.
	End float64
}

// NewTranscriptSpeechEnded creates a speech ended event.
func NewTranscriptSpeechEnded(end float64) TranscriptSpeechEnded {
	return TranscriptSpeechEnded{Base: NewBase(KindTranscriptSpeechEnded), End: end}
}

// TranscriptInterimUpdated carries the mutable snapshot of the utterance
// assembled so far. Each snapshot supersedes the previous one.
type TranscriptInterimUpdated struct {
	Base
	Text      string
	Fragments []Fragment

	// Speaker is empty for single-speaker sessions.
	Speaker string

	Start float64
	End   float64
}

// NewTranscriptInterimUpdated creates an interim snapshot event. Timing is
// derived from the first and last fragment.
func NewTranscriptInterimUpdated(text string, fragments []Fragment) TranscriptInterimUpdated {
	start, end := fragmentSpan(fragments)
	return TranscriptInterimUpdated{
		Base:      NewBase(KindTranscriptInterimUpdated),
		Text:      text,
		Fragments: fragments,
		Start:     start,
		End:       end,
	}
}

// TranscriptFinalized carries the terminal text of one utterance.
type TranscriptFinalized struct {
	Base
	Text      string
	Fragments []Fragment

	// Speaker is empty for single-speaker sessions.
	Speaker string

	Start float64
	End   float64
}

// NewTranscriptFinalized creates a finalized utterance event. Timing is
// derived from the first and last fragment.
func NewTranscriptFinalized(text string, fragments []Fragment) TranscriptFinalized {
	start, end := fragmentSpan(fragments)
	return TranscriptFinalized{
		Base:      NewBase(KindTranscriptFinalized),
		Text:      text,
		Fragments: fragments,
		Start:     start,
		End:       end,
	}
}

func fragmentSpan(fragments []Fragment) (start, end float64) {
	if len(fragments) == 0 {
		return 0, 0
	}
	start = fragments[0].Start
	end = fragments[0].End
	for _, f := range fragments[1:] {
		if f.Start < start {
			start = f.Start
		}
		if f.End > end {
			end = f.End
		}
	}
	return start, end
}
