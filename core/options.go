package rt

import (
	"net/http"
	"time"

	"github.com/shunyalabs/rt-go/core/audio"
	"github.com/shunyalabs/rt-go/core/wire"
)

type ClientOption func(*Client)

// WithURL overrides the server endpoint. Defaults to SHUNYALABS_RT_URL or
// the EU endpoint.
func WithURL(url string) ClientOption {
	return func(c *Client) {
		if url != "" {
			c.url = url
		}
	}
}

// WithAPIKey overrides the SHUNYALABS_API_KEY environment variable.
func WithAPIKey(apiKey string) ClientOption {
	return func(c *Client) {
		if apiKey != "" {
			c.apiKey = apiKey
		}
	}
}

// WithSessionID sets the caller-supplied session id. A server-confirmed id
// received during session start overrides it.
func WithSessionID(id string) ClientOption {
	return func(c *Client) {
		if id != "" {
			c.sessionID = id
		}
	}
}

// WithDialect selects the wire dialect for all of the client's sessions.
func WithDialect(dialect wire.Dialect) ClientOption {
	return func(c *Client) {
		c.dialect = dialect
	}
}

// WithGatewayFormat is shorthand for WithDialect(wire.DialectGateway).
func WithGatewayFormat() ClientOption {
	return WithDialect(wire.DialectGateway)
}

// WithReadyTimeout bounds how long StartSession waits for the server's ready
// confirmation. Values above 10s are capped.
func WithReadyTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.readyTimeout = timeout
		}
	}
}

// WithTransport substitutes the connection implementation. Intended for
// tests.
func WithTransport(transport Transport) ClientOption {
	return func(c *Client) {
		c.transport = transport
	}
}

type sessionOptions struct {
	transcription     wire.TranscriptionConfig
	audioFormat       wire.AudioFormat
	translation       *wire.TranslationConfig
	model             string
	deliverDeltasOnly bool
	inactivityTimeout float64
	serverVAD         bool
	headers           http.Header
}

func defaultSessionOptions() sessionOptions {
	return sessionOptions{
		transcription:     wire.DefaultTranscriptionConfig(),
		audioFormat:       wire.DefaultAudioFormat(),
		deliverDeltasOnly: true,
	}
}

type SessionOption func(*sessionOptions)

// WithTranscriptionConfig overrides the default transcription configuration
// (English, partials enabled).
func WithTranscriptionConfig(config wire.TranscriptionConfig) SessionOption {
	return func(o *sessionOptions) {
		o.transcription = config
	}
}

// WithAudioFormat declares the audio the caller will send. Defaults to
// pcm_f32le at 16 kHz.
func WithAudioFormat(format wire.AudioFormat) SessionOption {
	return func(o *sessionOptions) {
		o.audioFormat = format
	}
}

// WithTranslationConfig requests realtime translation next to the
// transcript.
func WithTranslationConfig(config wire.TranslationConfig) SessionOption {
	return func(o *sessionOptions) {
		o.translation = &config
	}
}

// WithModel selects the transcription model (gateway dialect).
func WithModel(model string) SessionOption {
	return func(o *sessionOptions) {
		if model != "" {
			o.model = model
		}
	}
}

// WithDeliverDeltasOnly controls whether the gateway sends only new
// transcript text per message. Enabled by default.
func WithDeliverDeltasOnly(enabled bool) SessionOption {
	return func(o *sessionOptions) {
		o.deliverDeltasOnly = enabled
	}
}

// WithInactivityTimeout asks the gateway to end the session after the given
// number of seconds without audio.
func WithInactivityTimeout(seconds float64) SessionOption {
	return func(o *sessionOptions) {
		if seconds > 0 {
			o.inactivityTimeout = seconds
		}
	}
}

// WithServerVAD enables server-side voice activity detection (gateway
// dialect).
func WithServerVAD() SessionOption {
	return func(o *sessionOptions) {
		o.serverVAD = true
	}
}

// WithHeaders adds headers to the websocket handshake.
func WithHeaders(headers http.Header) SessionOption {
	return func(o *sessionOptions) {
		o.headers = headers
	}
}

type audioOptions struct {
	encoding audio.EncodingInfo
	channels int
}

type AudioOption func(*audioOptions)

// WithInputEncoding declares the encoding of the audio passed to SendAudio.
// In the gateway dialect, anything other than the canonical pcm_f32le is
// normalized before transmission; the standard dialect sends audio as-is
// against the declared session audio format.
func WithInputEncoding(encoding audio.EncodingInfo) AudioOption {
	return func(o *audioOptions) {
		o.encoding = encoding
	}
}

// WithSampleRate overrides the sample rate of the input audio. The rate must
// match the session's; normalization never resamples.
func WithSampleRate(sampleRate int) AudioOption {
	return func(o *audioOptions) {
		if sampleRate > 0 {
			o.encoding.SampleRate = sampleRate
		}
	}
}

// WithChannels declares the channel count of the input audio. Stereo input
// is downmixed to mono during normalization.
func WithChannels(channels int) AudioOption {
	return func(o *audioOptions) {
		if channels > 0 {
			o.channels = channels
		}
	}
}
