package events

import "testing"

func TestConstructorsEmitExpectedKinds(t *testing.T) {
	testCases := []struct {
		name     string
		event    Event
		expected Kind
	}{
		{name: "speech started", event: NewTranscriptSpeechStarted(0.5), expected: KindTranscriptSpeechStarted},
		{name: "speech ended", event: NewTranscriptSpeechEnded(1.5), expected: KindTranscriptSpeechEnded},
		{name: "interim updated", event: NewTranscriptInterimUpdated("text", nil), expected: KindTranscriptInterimUpdated},
		{name: "finalized", event: NewTranscriptFinalized("text", nil), expected: KindTranscriptFinalized},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if got := testCase.event.Kind(); got != testCase.expected {
				t.Fatalf("expected kind %q, got %q", testCase.expected, got)
			}
		})
	}
}

func TestSnapshotEventsDeriveTimingFromFragments(t *testing.T) {
	fragments := []Fragment{
		{Text: "hello", Start: 0.2, End: 0.9, Final: true},
		{Text: "there", Start: 0.9, End: 1.6},
	}

	interim := NewTranscriptInterimUpdated("hello there", fragments)
	if interim.Start != 0.2 || interim.End != 1.6 {
		t.Fatalf("expected span [0.2, 1.6], got [%f, %f]", interim.Start, interim.End)
	}

	finalized := NewTranscriptFinalized("hello there", fragments)
	if finalized.Start != 0.2 || finalized.End != 1.6 {
		t.Fatalf("expected span [0.2, 1.6], got [%f, %f]", finalized.Start, finalized.End)
	}
}

func TestSnapshotEventsWithoutFragmentsHaveZeroSpan(t *testing.T) {
	event := NewTranscriptFinalized("", nil)
	if event.Start != 0 || event.End != 0 {
		t.Fatalf("expected zero span, got [%f, %f]", event.Start, event.End)
	}
}
