// Package miniaudio captures microphone audio through miniaudio (malgo) as
// s16le mono frames, ready for SendAudio with a linear16 input encoding.
package miniaudio

import (
	"context"
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/shunyalabs/rt-go/core/audio"
)

type Client struct {
	// audioContext is only saved to be able to uninitialize it, it is an
	// ownership thing
	audioContext *malgo.AllocatedContext

	mu     sync.Mutex
	device *malgo.Device

	// onAudio has its own lock: device.Stop and device.Uninit block until
	// the in-flight data callback returns, so the callback must never wait
	// on mu.
	onAudioMu sync.Mutex
	onAudio   func(audio []byte)
}

func NewClient() (*Client, error) {
	audioCtx, err := malgo.InitContext(
		nil,
		malgo.ContextConfig{},
		func(message string) {},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize miniaudio context: %w", err)
	}

	client := &Client{audioContext: audioCtx}
	if err := client.initDevice(); err != nil {
		client.Close()
		return nil, err
	}

	return client, nil
}

func (c *Client) initDevice() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	format := malgo.FormatS16
	channels := 1
	bytesPerFrame := malgo.SampleSizeInBytes(format) * channels

	config := malgo.DefaultDeviceConfig(malgo.Capture)
	config.SampleRate = uint32(audio.DefaultSampleRate)
	config.Capture.Format = format
	config.Capture.Channels = uint32(channels)
	config.Alsa.NoMMap = 1
	config.PerformanceProfile = malgo.LowLatency
	config.PeriodSizeInFrames = 480
	config.Periods = 3

	device, err := malgo.InitDevice(c.audioContext.Context, config, malgo.DeviceCallbacks{
		Data: func(_, pInput []byte, frameCount uint32) {
			n := int(frameCount) * bytesPerFrame
			if len(pInput) < n || n == 0 {
				return
			}
			c.onAudioMu.Lock()
			onAudio := c.onAudio
			c.onAudioMu.Unlock()
			if onAudio != nil {
				onAudio(pInput[:n])
			}
		},
	})
	if err != nil {
		return fmt.Errorf("failed to initialize capture device: %w", err)
	}

	c.device = device
	return nil
}

// Stream starts the capture device and hands frames to onAudio until the
// context is cancelled.
func (c *Client) Stream(ctx context.Context, onAudio func(audio []byte)) error {
	if err := c.StartCapture(ctx, onAudio); err != nil {
		return err
	}

	<-ctx.Done()
	return c.StopCapture()
}

func (c *Client) StartCapture(_ context.Context, onAudio func(audio []byte)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.device == nil {
		return fmt.Errorf("device not initialized")
	} else if c.device.IsStarted() {
		return nil
	}

	c.setOnAudio(onAudio)
	if err := c.device.Start(); err != nil {
		c.setOnAudio(nil)
		return fmt.Errorf("failed to start capture device: %w", err)
	}
	return nil
}

func (c *Client) setOnAudio(onAudio func(audio []byte)) {
	c.onAudioMu.Lock()
	c.onAudio = onAudio
	c.onAudioMu.Unlock()
}

func (c *Client) StopCapture() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.device == nil {
		return fmt.Errorf("device not initialized")
	} else if !c.device.IsStarted() {
		return nil
	}

	if err := c.device.Stop(); err != nil {
		return fmt.Errorf("failed to stop capture device: %w", err)
	}

	c.setOnAudio(nil)
	return nil
}

func (c *Client) Close() {
	c.mu.Lock()
	if c.device != nil {
		c.device.Uninit()
		c.device = nil
	}
	c.mu.Unlock()
	c.setOnAudio(nil)

	_ = c.audioContext.Uninit()
	c.audioContext.Free()
}

func (c *Client) EncodingInfo() audio.EncodingInfo {
	return audio.EncodingInfo{
		SampleRate: audio.DefaultSampleRate,
		Format:     audio.EncodingLinear16,
	}
}
