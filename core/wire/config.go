package wire

// DefaultModel is the transcription model requested when the caller does not
// pick one.
const DefaultModel = "pingala-v1-universal"

// TranscriptionConfig configures transcription behaviour for a session.
type TranscriptionConfig struct {
	// Language is a BCP-47-ish language code, or "auto"/empty for server-side
	// detection.
	Language string `json:"language,omitempty"`

	// EnablePartials asks the server to emit partial transcript segments in
	// addition to finals.
	EnablePartials bool `json:"enable_partials"`

	// MaxDelay bounds, in seconds, how long the server may wait before
	// flushing transcribed words. Zero means server default.
	MaxDelay float64 `json:"max_delay,omitempty"`
}

// DefaultTranscriptionConfig returns the configuration used when the caller
// provides none: English with partials enabled.
func DefaultTranscriptionConfig() TranscriptionConfig {
	return TranscriptionConfig{Language: "en", EnablePartials: true}
}

// AudioFormat describes the audio the client will send.
type AudioFormat struct {
	// Encoding names the PCM encoding on the wire ("pcm_s16le", "pcm_f32le",
	// "mulaw").
	Encoding string `json:"encoding"`

	// SampleRate in Hz.
	SampleRate int `json:"sample_rate"`

	// ChunkSize is the preferred audio chunk size in bytes for streaming
	// reads; it never appears on the wire.
	ChunkSize int `json:"-"`
}

// DefaultAudioFormat returns the canonical transmit format: 32-bit float PCM
// at 16 kHz in 4096-byte chunks.
func DefaultAudioFormat() AudioFormat {
	return AudioFormat{Encoding: "pcm_f32le", SampleRate: 16000, ChunkSize: 4096}
}

// TranslationConfig asks the server for realtime translation output next to
// the transcript.
type TranslationConfig struct {
	TargetLanguages []string `json:"target_languages"`
	EnablePartials  bool     `json:"enable_partials"`
}
