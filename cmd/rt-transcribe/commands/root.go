package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	rt "github.com/shunyalabs/rt-go/core"
	"github.com/shunyalabs/rt-go/core/transcript"
	"github.com/shunyalabs/rt-go/core/wire"
)

var (
	flagURL        string
	flagAPIKey     string
	flagLanguage   string
	flagModel      string
	flagGateway    bool
	flagVAD        bool
	flagPartials   bool
	flagFile       string
	flagMic        string
	flagEncoding   string
	flagSampleRate int
	flagSilence    time.Duration
	flagTimeout    time.Duration
	flagTUI        bool
)

var rootCmd = &cobra.Command{
	Use:   "rt-transcribe",
	Short: "Stream audio to the Shunyalabs realtime transcription service",
	Long: `Stream audio to the Shunyalabs realtime transcription service.

Exactly one audio source is required: a local file (--file) or a live
microphone (--mic portaudio|miniaudio). File input is sent as-is against the
declared --encoding and --sample-rate; microphone input is captured as
s16le and normalized when the gateway dialect requires it.

Examples:
  rt-transcribe --file speech.raw
  rt-transcribe --file speech.raw --encoding pcm_s16le --gateway
  rt-transcribe --mic miniaudio --vad --tui
  rt-transcribe --file speech.raw --language auto --model pingala-v1-universal`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVar(&flagURL, "url", "", "server url (default $SHUNYALABS_RT_URL)")
	rootCmd.Flags().StringVar(&flagAPIKey, "api-key", "", "api key (default $SHUNYALABS_API_KEY)")
	rootCmd.Flags().StringVar(&flagLanguage, "language", "en", "transcription language, or \"auto\"")
	rootCmd.Flags().StringVar(&flagModel, "model", "", "transcription model (gateway dialect)")
	rootCmd.Flags().BoolVar(&flagGateway, "gateway", false, "use the gateway wire dialect")
	rootCmd.Flags().BoolVar(&flagVAD, "vad", false, "emit speech started/ended markers")
	rootCmd.Flags().BoolVar(&flagPartials, "partials", true, "request partial transcripts")
	rootCmd.Flags().StringVar(&flagFile, "file", "", "raw audio file to stream")
	rootCmd.Flags().StringVar(&flagMic, "mic", "", "microphone backend: portaudio or miniaudio")
	rootCmd.Flags().StringVar(&flagEncoding, "encoding", "", "file audio encoding (default pcm_f32le)")
	rootCmd.Flags().IntVar(&flagSampleRate, "sample-rate", 0, "file sample rate in Hz (default 16000)")
	rootCmd.Flags().DurationVar(&flagSilence, "silence-trigger", 0, "end-of-utterance silence trigger (default 500ms)")
	rootCmd.Flags().DurationVar(&flagTimeout, "timeout", 0, "overall transcription deadline for file input")
	rootCmd.Flags().BoolVar(&flagTUI, "tui", false, "run the live terminal UI")
}

// Execute runs the CLI. A .env file in the working directory is loaded
// before flags are parsed so env-based defaults pick it up.
func Execute() error {
	_ = godotenv.Load()
	return rootCmd.Execute()
}

func run(cmd *cobra.Command, args []string) error {
	if (flagFile == "") == (flagMic == "") {
		return fmt.Errorf("exactly one of --file or --mic is required")
	}

	clientOpts := []rt.ClientOption{}
	if flagURL != "" {
		clientOpts = append(clientOpts, rt.WithURL(flagURL))
	}
	if flagAPIKey != "" {
		clientOpts = append(clientOpts, rt.WithAPIKey(flagAPIKey))
	}
	if flagGateway {
		clientOpts = append(clientOpts, rt.WithGatewayFormat())
	}

	client, err := rt.NewClient(clientOpts...)
	if err != nil {
		return err
	}

	aggregatorOpts := []transcript.AggregatorOption{}
	if flagVAD {
		aggregatorOpts = append(aggregatorOpts, transcript.WithVADEvents())
	}
	if flagSilence > 0 {
		aggregatorOpts = append(aggregatorOpts, transcript.WithSilenceTrigger(flagSilence))
	}
	aggregator := transcript.NewAggregator(aggregatorOpts...)
	for _, kind := range []wire.Kind{
		wire.KindAddTranscript,
		wire.KindAddPartialTranscript,
		wire.KindEndOfTranscript,
		wire.KindDisconnect,
	} {
		client.On(kind, aggregator.HandleMessage)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if flagTUI {
		return runTUI(ctx, client, aggregator)
	}
	return runPlain(ctx, client, aggregator)
}

func sessionOpts(format wire.AudioFormat) []rt.SessionOption {
	transcription := wire.DefaultTranscriptionConfig()
	transcription.Language = flagLanguage
	transcription.EnablePartials = flagPartials

	opts := []rt.SessionOption{
		rt.WithTranscriptionConfig(transcription),
		rt.WithAudioFormat(format),
	}
	if flagModel != "" {
		opts = append(opts, rt.WithModel(flagModel))
	}
	if flagVAD {
		opts = append(opts, rt.WithServerVAD())
	}
	return opts
}

func fileAudioFormat() wire.AudioFormat {
	format := wire.DefaultAudioFormat()
	if flagEncoding != "" {
		format.Encoding = flagEncoding
	}
	if flagSampleRate > 0 {
		format.SampleRate = flagSampleRate
	}
	return format
}
