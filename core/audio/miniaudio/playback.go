package miniaudio

import (
	"fmt"
	"sync"
	"time"

	"github.com/dkroflic/voicedesk-core/core/audio"
	"github.com/gen2brain/malgo"
)

// playbackClient renders buffered samples through the device callback and
// tracks mark positions inside the buffered stream so callers learn when
// everything written before a mark has actually left the buffer.
type playbackClient struct {
	audioContext *malgo.AllocatedContext
	device       *malgo.Device
	config       malgo.DeviceConfig

	buffered []float32
	marks    []playbackMark

	mu      sync.Mutex
	audioMu sync.Mutex
}

type playbackMark struct {
	name     string
	position int
	callback func(string)
}

func (c *playbackClient) Init(audioContext *malgo.AllocatedContext) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	sampleRate := uint32(audio.DefaultSampleRate)
	channels := audio.DefaultChannels
	format := malgo.FormatF32

	c.config = malgo.DefaultDeviceConfig(malgo.Playback)
	c.config.SampleRate = sampleRate
	c.config.Playback.Format = format
	c.config.Playback.Channels = uint32(channels)
	c.config.Alsa.NoMMap = 1
	c.config.PeriodSizeInFrames = uint32(audio.DurationSamples(100*time.Millisecond, audio.GetDefaultEncodingInfo()))
	c.config.Periods = 4

	c.audioContext = audioContext

	var err error
	if c.device, err = malgo.InitDevice(
		c.audioContext.Context,
		c.config,
		malgo.DeviceCallbacks{Data: c.processAudio(channels)},
	); err != nil {
		return err
	}

	return nil
}

func (c *playbackClient) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device == nil {
		return fmt.Errorf("device not initialized")
	}

	if err := c.device.Start(); err != nil {
		return fmt.Errorf("failed to start playback device: %w", err)
	}

	return nil
}

func (c *playbackClient) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device == nil {
		return fmt.Errorf("device not initialized")
	}

	if err := c.device.Stop(); err != nil {
		return fmt.Errorf("failed to stop playback device: %w", err)
	}

	c.ClearBuffer()
	return nil
}

func (c *playbackClient) SendAudio(frame []float32) error {
	if c.device == nil {
		return fmt.Errorf("device not initialized")
	} else if !c.device.IsStarted() {
		return fmt.Errorf("device not started")
	}

	c.audioMu.Lock()
	defer c.audioMu.Unlock()
	c.buffered = append(c.buffered, frame...)
	return nil
}

// ClearBuffer drops everything not yet rendered, marks included. Pending
// mark callbacks are abandoned, never invoked late.
func (c *playbackClient) ClearBuffer() {
	c.audioMu.Lock()
	defer c.audioMu.Unlock()
	c.buffered = nil
	c.marks = nil
}

// Mark registers a callback for the current end of the buffered stream.
func (c *playbackClient) Mark(mark string, callback func(string)) error {
	c.audioMu.Lock()
	defer c.audioMu.Unlock()
	c.marks = append(c.marks, playbackMark{
		name:     mark,
		position: len(c.buffered),
		callback: callback,
	})
	return nil
}

func (c *playbackClient) Uninit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.device == nil {
		return nil
	}

	c.device.Uninit()
	c.device = nil

	return nil
}

// processAudio is the device pull callback. It consumes buffered samples,
// fires mark callbacks that the consumed span passed over, and zero-fills
// when the buffer runs dry.
func (c *playbackClient) processAudio(channels int) malgo.DataProc {
	return func(pOutput, _ []byte, frameCount uint32) {
		need := int(frameCount) * channels

		c.audioMu.Lock()
		available := min(need, len(c.buffered))
		samplesToBytes(c.buffered[:available], pOutput)
		c.buffered = c.buffered[available:]
		passed := c.advanceMarks(available)
		c.audioMu.Unlock()

		if len(passed) > 0 {
			go func() {
				for _, mark := range passed {
					mark.callback(mark.name)
				}
			}()
		}
	}
}

// advanceMarks shifts mark positions by the consumed sample count and
// returns marks whose position has been fully rendered. Caller holds
// audioMu.
func (c *playbackClient) advanceMarks(consumed int) []playbackMark {
	passedMarks := 0
	for i, mark := range c.marks {
		if mark.position > consumed {
			c.marks[i].position -= consumed
		} else {
			passedMarks++
		}
	}
	if passedMarks == 0 {
		return nil
	}

	passed := append([]playbackMark(nil), c.marks[:passedMarks]...)
	c.marks = c.marks[passedMarks:]
	return passed
}
