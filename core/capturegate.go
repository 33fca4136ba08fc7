package turntaking

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/dkroflic/voicedesk-core/core/audio"
)

// captureGate wraps the microphone device. Frames flow only while the gate
// is enabled; while disabled they are discarded, never buffered, so the
// hardware is never back-pressured.
type captureGate struct {
	// device stores the configured capture device, nil in text-only mode.
	device AudioCapture

	// enabled reports whether produced frames are forwarded.
	enabled atomic.Bool
	// acquired reports whether the device is currently held and streaming.
	acquired atomic.Bool

	// onFrame receives every frame produced while the gate is enabled.
	onFrame func(frame []float32)
	// onFailure is told once per acquisition attempt that could not start.
	onFailure func(err error)
}

func newCaptureGate(device AudioCapture, onFrame func([]float32), onFailure func(error)) *captureGate {
	if onFrame == nil {
		onFrame = func([]float32) {}
	}
	if onFailure == nil {
		onFailure = func(error) {}
	}

	return &captureGate{device: device, onFrame: onFrame, onFailure: onFailure}
}

func (g *captureGate) Set(device AudioCapture) {
	if g == nil {
		return
	}

	g.device = device
	g.acquired.Store(false)
}

func (g *captureGate) IsConfigured() bool { return g != nil && g.device != nil }
func (g *captureGate) IsEnabled() bool    { return g != nil && g.enabled.Load() }
func (g *captureGate) IsAcquired() bool   { return g != nil && g.acquired.Load() }

// Enable opens the gate. The device keeps producing frames regardless; only
// forwarding changes.
func (g *captureGate) Enable() { g.enabled.Store(true) }

// Disable closes the gate; subsequent frames are dropped on arrival.
func (g *captureGate) Disable() { g.enabled.Store(false) }

// Acquire takes the microphone for the lifetime of voice mode and starts the
// hardware frame callback. Acquisition may suspend pending user permission,
// so it runs off the caller's goroutine; failure is reported through the
// gate's failure signal instead of a return value.
func (g *captureGate) Acquire(ctx context.Context) {
	if g == nil {
		return
	}

	if !g.IsConfigured() {
		g.onFailure(fmt.Errorf("no capture device configured"))
		return
	}

	if !g.acquired.CompareAndSwap(false, true) {
		return
	}

	worker := panicSafeNamedWorker("capture", func(ctx context.Context) error {
		return g.device.StartCapture(ctx, g.handleFrame)
	})
	go func() {
		if err := worker(ctx); err != nil {
			g.acquired.Store(false)
			g.onFailure(fmt.Errorf("failed to acquire capture device: %w", err))
		}
	}()
}

// Release stops the hardware callback and returns the microphone.
func (g *captureGate) Release() {
	if g == nil {
		return
	}

	g.enabled.Store(false)
	if !g.acquired.CompareAndSwap(true, false) {
		return
	}

	if err := g.device.StopCapture(); err != nil {
		logger.Warn("failed to stop capture device", "error", err)
	}
}

func (g *captureGate) Close() error {
	if !g.IsConfigured() {
		return nil
	}

	g.Release()
	if err := g.device.Close(); err != nil {
		return fmt.Errorf("failed to close capture device: %w", err)
	}
	return nil
}

func (g *captureGate) EncodingInfo() audio.EncodingInfo {
	if !g.IsConfigured() {
		return audio.GetDefaultEncodingInfo()
	}

	return g.device.EncodingInfo()
}

// handleFrame is the per-frame hardware callback. Fire-and-forget: dropped
// or forwarded, never queued.
func (g *captureGate) handleFrame(frame []float32) {
	if !g.enabled.Load() {
		return
	}

	g.onFrame(frame)
}
