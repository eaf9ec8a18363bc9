package audio

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

func f32leBytes(samples ...float32) []byte {
	out := make([]byte, 4*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(s))
	}
	return out
}

func s16leBytes(samples ...int16) []byte {
	out := make([]byte, 2*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[2*i:], uint16(s))
	}
	return out
}

func decodeF32le(t *testing.T, data []byte) []float32 {
	t.Helper()
	if len(data)%4 != 0 {
		t.Fatalf("expected float32 output, got %d bytes", len(data))
	}
	samples := make([]float32, len(data)/4)
	for i := range samples {
		samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))
	}
	return samples
}

func TestNormalizeLinear16ScalesAndPreservesSampleCount(t *testing.T) {
	in := s16leBytes(0, 16384, -16384, 32767, -32768)

	out, err := Normalize(in, EncodingInfo{SampleRate: 16000, Format: EncodingLinear16}, 1)
	if err != nil {
		t.Fatalf("expected normalization to succeed, got %v", err)
	}

	samples := decodeF32le(t, out)
	if len(samples) != 5 {
		t.Fatalf("expected 5 samples, got %d", len(samples))
	}
	if samples[0] != 0 {
		t.Fatalf("expected zero sample to stay zero, got %f", samples[0])
	}
	if samples[1] != 0.5 || samples[2] != -0.5 {
		t.Fatalf("expected half-scale samples, got %f and %f", samples[1], samples[2])
	}
	if samples[4] != -1.0 {
		t.Fatalf("expected full-scale negative sample to map to -1.0, got %f", samples[4])
	}
	for i, s := range samples {
		if s < -1.0 || s > 1.0 {
			t.Fatalf("expected sample %d within [-1, 1], got %f", i, s)
		}
	}
}

func TestNormalizeFloat32PassesThroughAndClips(t *testing.T) {
	in := f32leBytes(0.25, -0.75, 1.5, -2.0)

	out, err := Normalize(in, EncodingInfo{SampleRate: 16000, Format: EncodingFloat32}, 1)
	if err != nil {
		t.Fatalf("expected normalization to succeed, got %v", err)
	}

	samples := decodeF32le(t, out)
	if len(samples) != 4 {
		t.Fatalf("expected 4 samples, got %d", len(samples))
	}
	if samples[0] != 0.25 || samples[1] != -0.75 {
		t.Fatalf("expected in-range samples unchanged, got %f and %f", samples[0], samples[1])
	}
	if samples[2] != 1.0 || samples[3] != -1.0 {
		t.Fatalf("expected out-of-range samples clipped, got %f and %f", samples[2], samples[3])
	}
}

func TestNormalizeMulawDecodesKnownValues(t *testing.T) {
	// 0xFF is the mu-law silence byte; 0x00 is the largest negative value.
	in := []byte{0xFF, 0x00}

	out, err := Normalize(in, EncodingInfo{SampleRate: 8000, Format: EncodingMulaw}, 1)
	if err != nil {
		t.Fatalf("expected normalization to succeed, got %v", err)
	}

	samples := decodeF32le(t, out)
	if len(samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(samples))
	}
	if samples[0] != 0 {
		t.Fatalf("expected silence byte to decode to 0, got %f", samples[0])
	}
	want := float32(-6111.0 / 8159.0)
	if samples[1] != want {
		t.Fatalf("expected 0x00 to decode to %f, got %f", want, samples[1])
	}
	for i, s := range samples {
		if s < -1.0 || s > 1.0 {
			t.Fatalf("expected sample %d within [-1, 1], got %f", i, s)
		}
	}
}

func TestNormalizeStereoDownmixesByAveraging(t *testing.T) {
	in := s16leBytes(16384, -16384, 32767, 32767)

	out, err := Normalize(in, EncodingInfo{SampleRate: 16000, Format: EncodingLinear16}, 2)
	if err != nil {
		t.Fatalf("expected normalization to succeed, got %v", err)
	}

	samples := decodeF32le(t, out)
	if len(samples) != 2 {
		t.Fatalf("expected stereo input to downmix to 2 mono samples, got %d", len(samples))
	}
	if samples[0] != 0 {
		t.Fatalf("expected opposing channels to cancel, got %f", samples[0])
	}
	if samples[1] != float32(32767)/32768.0 {
		t.Fatalf("expected equal channels to keep their value, got %f", samples[1])
	}
}

func TestNormalizeEmptyInputReturnsEmptyOutput(t *testing.T) {
	out, err := Normalize(nil, EncodingInfo{SampleRate: 16000, Format: EncodingLinear16}, 1)
	if err != nil {
		t.Fatalf("expected empty input to be a no-op, got %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected empty output, got %d bytes", len(out))
	}
}

func TestNormalizeRejectsUnsupportedEncodingAndChannels(t *testing.T) {
	if _, err := Normalize([]byte{0x55}, EncodingInfo{SampleRate: 8000, Format: EncodingALaw}, 1); !errors.Is(err, ErrUnsupportedEncoding) {
		t.Fatalf("expected ErrUnsupportedEncoding for alaw, got %v", err)
	}

	in := s16leBytes(0, 0, 0)
	if _, err := Normalize(in, EncodingInfo{SampleRate: 16000, Format: EncodingLinear16}, 3); !errors.Is(err, ErrUnsupportedEncoding) {
		t.Fatalf("expected ErrUnsupportedEncoding for 3 channels, got %v", err)
	}
}

func TestNormalizeToRejectsSampleRateMismatch(t *testing.T) {
	in := s16leBytes(0, 0)
	if _, err := NormalizeTo(in, EncodingInfo{SampleRate: 16000, Format: EncodingLinear16}, 8000, 1); !errors.Is(err, ErrSampleRateMismatch) {
		t.Fatalf("expected ErrSampleRateMismatch, got %v", err)
	}
}
