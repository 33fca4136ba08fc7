package miniaudio

import (
	"context"
	"errors"
	"fmt"

	"github.com/dkroflic/voicedesk-core/core/audio"
	"github.com/gen2brain/malgo"
)

// Client bundles a capture and a playback device on one miniaudio context.
// Both run at the wire sample rate in native float32 so the caller never
// resamples.
type Client struct {
	// audioContext is only saved to be able to uninitialize it, it is an
	// ownership thing
	audioContext *malgo.AllocatedContext
	playbackClient
	captureClient
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

	client := Client{
		audioContext: audioCtx,
	}

	if err := client.playbackClient.Init(audioCtx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to initialize playback client: %w", err)
	}

	if err := client.playbackClient.Start(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to start playback device: %w", err)
	}

	if err := client.captureClient.Init(audioCtx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to initialize capture client: %w", err)
	}

	return &client, nil
}

func (c *Client) StartCapture(_ context.Context, onFrame func(frame []float32)) error {
	return c.captureClient.Start(onFrame)
}

func (c *Client) StopCapture() error {
	return c.captureClient.Stop()
}

func (c *Client) SendAudio(frame []float32) error {
	return c.playbackClient.SendAudio(frame)
}

func (c *Client) Mark(mark string, callback func(string)) error {
	return c.playbackClient.Mark(mark, callback)
}

func (c *Client) ClearBuffer() {
	c.playbackClient.ClearBuffer()
}

func (c *Client) Close() error {
	err := errors.Join(
		c.captureClient.Uninit(),
		c.playbackClient.Uninit(),
	)

	if c.audioContext != nil {
		err = errors.Join(err, c.audioContext.Uninit())
		c.audioContext.Free()
		c.audioContext = nil
	}
	return err
}

func (c *Client) EncodingInfo() audio.EncodingInfo {
	return audio.EncodingInfo{
		SampleRate: audio.DefaultSampleRate,
		Channels:   audio.DefaultChannels,
		Format:     audio.EncodingFloat32,
	}
}
