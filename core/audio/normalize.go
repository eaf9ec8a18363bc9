package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

var (
	// ErrUnsupportedEncoding is returned when the input encoding or channel
	// layout cannot be normalized.
	ErrUnsupportedEncoding = errors.New("unsupported encoding")

	// ErrSampleRateMismatch is returned when normalization would require
	// resampling. Resampling is never performed implicitly because downstream
	// timing math assumes the sample rate is unchanged.
	ErrSampleRateMismatch = errors.New("sample rate mismatch")
)

// Normalize converts raw audio to the canonical transmit format: 32-bit
// little-endian float, mono, samples clipped to [-1.0, 1.0]. Stereo input is
// downmixed by averaging the interleaved channels. Empty input returns empty
// output.
func Normalize(data []byte, encoding EncodingInfo, channels int) ([]byte, error) {
	return NormalizeTo(data, encoding, encoding.SampleRate, channels)
}

// NormalizeTo is Normalize with an explicit output sample rate. The output
// rate must equal the input rate; any other combination fails with
// ErrSampleRateMismatch rather than silently resampling.
func NormalizeTo(data []byte, encoding EncodingInfo, outputSampleRate, channels int) ([]byte, error) {
	if outputSampleRate != encoding.SampleRate {
		return nil, fmt.Errorf("%w: input %d Hz, output %d Hz", ErrSampleRateMismatch, encoding.SampleRate, outputSampleRate)
	}
	if channels != 1 && channels != 2 {
		return nil, fmt.Errorf("%w: %d channels", ErrUnsupportedEncoding, channels)
	}
	if len(data) == 0 {
		return []byte{}, nil
	}

	var samples []float32
	switch encoding.Format {
	case EncodingLinear16:
		if len(data)%2 != 0 {
			return nil, fmt.Errorf("%w: odd byte count for %s", ErrUnsupportedEncoding, encoding.Format.Name())
		}
		samples = make([]float32, len(data)/2)
		for i := range samples {
			samples[i] = float32(int16(binary.LittleEndian.Uint16(data[2*i:]))) / 32768.0
		}

	case EncodingFloat32:
		if len(data)%4 != 0 {
			return nil, fmt.Errorf("%w: byte count not a multiple of 4 for %s", ErrUnsupportedEncoding, encoding.Format.Name())
		}
		samples = make([]float32, len(data)/4)
		for i := range samples {
			samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))
		}

	case EncodingMulaw:
		samples = make([]float32, len(data))
		for i, b := range data {
			samples[i] = decodeMulawSample(b)
		}

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedEncoding, encoding.Format.Name())
	}

	if channels == 2 {
		if len(samples)%2 != 0 {
			return nil, fmt.Errorf("%w: stereo input with odd sample count", ErrUnsupportedEncoding)
		}
		mono := make([]float32, len(samples)/2)
		for i := range mono {
			mono[i] = (samples[2*i] + samples[2*i+1]) * 0.5
		}
		samples = mono
	}

	out := make([]byte, 4*len(samples))
	for i, s := range samples {
		if s > 1.0 {
			s = 1.0
		} else if s < -1.0 {
			s = -1.0
		}
		binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(s))
	}
	return out, nil
}

// decodeMulawSample expands one ITU-T G.711 mu-law byte to a normalized
// float sample. The linear reconstruction spans [-8159, 8159].
func decodeMulawSample(b byte) float32 {
	b = ^b
	sign := b&0x80 != 0
	exponent := (b & 0x70) >> 4
	mantissa := int32(b & 0x0F)

	linear := ((mantissa + 33) << exponent) - 33
	if sign {
		linear = -linear
	}
	return float32(linear) / 8159.0
}
