package portaudio

import (
	"context"
	"fmt"
	"sync"

	"github.com/dkroflic/voicedesk-core/core/audio"
	"github.com/gordonklaus/portaudio"
)

// Client is a single full-duplex PortAudio stream serving as both the
// capture device and a legacy playback device. Playback exposes only the
// blocking mark-wait protocol, which is all the blocking write API allows.
type Client struct {
	bufferSize int
	stream     *portaudio.Stream

	in  []float32
	out []float32

	leftover []float32

	captureMu   sync.Mutex
	captureStop chan struct{}
	captureDone chan struct{}
}

func NewClient(bufferSize int) (*Client, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	in := make([]float32, bufferSize)
	out := make([]float32, bufferSize)
	stream, err := portaudio.OpenDefaultStream(
		audio.DefaultChannels, audio.DefaultChannels,
		float64(audio.DefaultSampleRate), bufferSize, in, out,
	)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to open portaudio stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to start portaudio stream: %w", err)
	}

	return &Client{
		bufferSize: bufferSize,
		stream:     stream,
		in:         in,
		out:        out,
	}, nil
}

// StartCapture begins delivering microphone frames. The read loop runs on
// its own goroutine until StopCapture or context cancellation.
func (c *Client) StartCapture(ctx context.Context, onFrame func(frame []float32)) error {
	c.captureMu.Lock()
	defer c.captureMu.Unlock()

	if c.captureStop != nil {
		return nil
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	c.captureStop = stop
	c.captureDone = done

	go func() {
		defer close(done)

		for {
			select {
			case <-ctx.Done():
				return
			case <-stop:
				return
			default:
				if err := c.stream.Read(); err != nil {
					continue
				}

				frame := make([]float32, len(c.in))
				copy(frame, c.in)
				onFrame(frame)
			}
		}
	}()

	return nil
}

func (c *Client) StopCapture() error {
	c.captureMu.Lock()
	defer c.captureMu.Unlock()

	if c.captureStop == nil {
		return nil
	}

	close(c.captureStop)
	<-c.captureDone
	c.captureStop = nil
	c.captureDone = nil
	return nil
}

// SendAudio writes whole device buffers and keeps the remainder for the
// next write or the mark flush.
func (c *Client) SendAudio(frame []float32) error {
	samples := append(c.leftover, frame...)
	c.leftover = c.flush(samples)
	return nil
}

// AwaitMark renders the leftover tail, padding the final device buffer with
// silence, and returns once the stream has consumed it.
func (c *Client) AwaitMark() error {
	if len(c.leftover) == 0 {
		return nil
	}

	samples := c.leftover
	c.leftover = nil

	tail := c.flush(samples)
	if len(tail) > 0 {
		padded := make([]float32, c.bufferSize)
		copy(padded, tail)
		copy(c.out, padded)
		if err := c.stream.Write(); err != nil {
			return fmt.Errorf("failed to flush playback tail: %w", err)
		}
	}
	return nil
}

// flush writes every whole buffer in samples and returns the remainder.
func (c *Client) flush(samples []float32) []float32 {
	for len(samples) >= c.bufferSize {
		copy(c.out, samples[:c.bufferSize])
		samples = samples[c.bufferSize:]
		if err := c.stream.Write(); err != nil {
			break
		}
	}

	remainder := make([]float32, len(samples))
	copy(remainder, samples)
	return remainder
}

func (c *Client) ClearBuffer() {
	c.leftover = nil
}

func (c *Client) Close() error {
	c.StopCapture()

	err := c.stream.Close()
	if terminateErr := portaudio.Terminate(); err == nil {
		err = terminateErr
	}
	if err != nil {
		return fmt.Errorf("failed to close portaudio stream: %w", err)
	}
	return nil
}

func (c *Client) EncodingInfo() audio.EncodingInfo {
	return audio.EncodingInfo{
		SampleRate: audio.DefaultSampleRate,
		Channels:   audio.DefaultChannels,
		Format:     audio.EncodingFloat32,
	}
}
