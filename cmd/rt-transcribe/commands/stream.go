package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	rt "github.com/shunyalabs/rt-go/core"
	"github.com/shunyalabs/rt-go/core/audio"
	"github.com/shunyalabs/rt-go/core/audio/miniaudio"
	"github.com/shunyalabs/rt-go/core/audio/portaudio"
	"github.com/shunyalabs/rt-go/core/wire"
)

const stopGrace = 10 * time.Second

type captureSource interface {
	Stream(ctx context.Context, onAudio func(audio []byte)) error
	Close()
	EncodingInfo() audio.EncodingInfo
}

func newCaptureSource() (captureSource, error) {
	switch flagMic {
	case "portaudio":
		return portaudio.NewClient(1024)
	case "miniaudio":
		return miniaudio.NewClient()
	}
	return nil, fmt.Errorf("unknown microphone backend %q (portaudio or miniaudio)", flagMic)
}

// stream runs one full session over the selected audio source and returns
// once the session is done.
func stream(ctx context.Context, client *rt.Client) error {
	if flagFile != "" {
		return streamFile(ctx, client)
	}
	return streamMicrophone(ctx, client)
}

func streamFile(ctx context.Context, client *rt.Client) error {
	f, err := os.Open(flagFile)
	if err != nil {
		return fmt.Errorf("failed to open audio file: %w", err)
	}
	defer f.Close()

	opts := []rt.TranscribeOption{
		rt.WithSessionOptions(sessionOpts(fileAudioFormat())...),
	}
	if flagTimeout > 0 {
		opts = append(opts, rt.WithTimeout(flagTimeout))
	}
	return client.Transcribe(ctx, f, opts...)
}

func streamMicrophone(ctx context.Context, client *rt.Client) error {
	capture, err := newCaptureSource()
	if err != nil {
		return err
	}
	defer capture.Close()

	encoding := capture.EncodingInfo()
	format := wire.AudioFormat{
		Encoding:   encoding.Format.Name(),
		SampleRate: encoding.SampleRate,
	}
	if err := client.StartSession(ctx, sessionOpts(format)...); err != nil {
		return err
	}

	captureDone := make(chan error, 1)
	go func() {
		captureDone <- capture.Stream(ctx, func(frame []byte) {
			sendErr := client.SendAudio(frame, rt.WithInputEncoding(encoding))
			if sendErr != nil && !errors.Is(sendErr, rt.ErrClientClosed) {
				fmt.Fprintln(os.Stderr, "failed to send audio:", sendErr)
			}
		})
	}()

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), stopGrace)
	defer cancel()
	stopErr := client.StopSession(stopCtx)

	if captureErr := <-captureDone; captureErr != nil {
		return captureErr
	}
	return stopErr
}
