package turntaking

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dkroflic/voicedesk-core/core/audio"
)

// fakeCaptureDevice lets the test drive hardware frame delivery by hand.
type fakeCaptureDevice struct {
	mu      sync.Mutex
	onFrame func([]float32)

	startErr error

	starts  atomic.Int32
	stops   atomic.Int32
	closes  atomic.Int32
	started chan struct{}
}

func newFakeCaptureDevice() *fakeCaptureDevice {
	return &fakeCaptureDevice{started: make(chan struct{}, 4)}
}

func (f *fakeCaptureDevice) StartCapture(_ context.Context, onFrame func([]float32)) error {
	if f.startErr != nil {
		return f.startErr
	}

	f.mu.Lock()
	f.onFrame = onFrame
	f.mu.Unlock()

	f.starts.Add(1)
	f.started <- struct{}{}
	return nil
}

func (f *fakeCaptureDevice) StopCapture() error {
	f.stops.Add(1)
	return nil
}

func (f *fakeCaptureDevice) Close() error {
	f.closes.Add(1)
	return nil
}

func (f *fakeCaptureDevice) EncodingInfo() audio.EncodingInfo {
	return audio.GetDefaultEncodingInfo()
}

func (f *fakeCaptureDevice) awaitStart(t *testing.T) {
	t.Helper()
	select {
	case <-f.started:
	case <-time.After(time.Second):
		t.Fatalf("expected capture device to start")
	}
}

func (f *fakeCaptureDevice) pushFrame(frame []float32) {
	f.mu.Lock()
	onFrame := f.onFrame
	f.mu.Unlock()

	if onFrame != nil {
		onFrame(frame)
	}
}

func TestCaptureGateForwardsFramesOnlyWhileEnabled(t *testing.T) {
	device := newFakeCaptureDevice()

	var forwarded atomic.Int32
	gate := newCaptureGate(device, func([]float32) {
		forwarded.Add(1)
	}, nil)

	gate.Acquire(context.Background())
	device.awaitStart(t)

	device.pushFrame([]float32{0.1})
	if got := forwarded.Load(); got != 0 {
		t.Fatalf("expected frames dropped while gate disabled, got %d forwarded", got)
	}

	gate.Enable()
	device.pushFrame([]float32{0.2})
	if got := forwarded.Load(); got != 1 {
		t.Fatalf("expected frame forwarded while gate enabled, got %d", got)
	}

	gate.Disable()
	device.pushFrame([]float32{0.3})
	if got := forwarded.Load(); got != 1 {
		t.Fatalf("expected frames dropped again after disable, got %d forwarded", got)
	}
}

func TestCaptureGateAcquireWithoutDeviceReportsFailure(t *testing.T) {
	failures := make(chan error, 1)
	gate := newCaptureGate(nil, nil, func(err error) {
		failures <- err
	})

	gate.Acquire(context.Background())

	select {
	case err := <-failures:
		if err == nil {
			t.Fatalf("expected a failure error")
		}
	case <-time.After(time.Second):
		t.Fatalf("expected a failure signal for missing device")
	}
}

func TestCaptureGateReportsStartFailureAndAllowsRetry(t *testing.T) {
	device := newFakeCaptureDevice()
	device.startErr = fmt.Errorf("permission denied")

	failures := make(chan error, 2)
	gate := newCaptureGate(device, nil, func(err error) {
		failures <- err
	})

	gate.Acquire(context.Background())
	select {
	case <-failures:
	case <-time.After(time.Second):
		t.Fatalf("expected a failure signal for start error")
	}
	if gate.IsAcquired() {
		t.Fatalf("expected gate released after start failure")
	}

	device.startErr = nil
	gate.Acquire(context.Background())
	device.awaitStart(t)
	if !gate.IsAcquired() {
		t.Fatalf("expected gate acquired on retry")
	}
}

func TestCaptureGateAcquireIsIdempotentWhileHeld(t *testing.T) {
	device := newFakeCaptureDevice()
	gate := newCaptureGate(device, nil, nil)

	gate.Acquire(context.Background())
	device.awaitStart(t)
	gate.Acquire(context.Background())

	time.Sleep(50 * time.Millisecond)
	if got := device.starts.Load(); got != 1 {
		t.Fatalf("expected device started once, got %d", got)
	}
}

func TestCaptureGateReleaseStopsDeviceAndDisables(t *testing.T) {
	device := newFakeCaptureDevice()

	var forwarded atomic.Int32
	gate := newCaptureGate(device, func([]float32) {
		forwarded.Add(1)
	}, nil)

	gate.Acquire(context.Background())
	device.awaitStart(t)
	gate.Enable()

	gate.Release()
	if got := device.stops.Load(); got != 1 {
		t.Fatalf("expected device stopped once, got %d", got)
	}
	if gate.IsEnabled() || gate.IsAcquired() {
		t.Fatalf("expected gate disabled and released")
	}

	device.pushFrame([]float32{0.1})
	if got := forwarded.Load(); got != 0 {
		t.Fatalf("expected no frames forwarded after release, got %d", got)
	}

	// Releasing again must not stop the device a second time.
	gate.Release()
	if got := device.stops.Load(); got != 1 {
		t.Fatalf("expected no second stop, got %d", got)
	}
}

func TestCaptureGateCloseClosesDevice(t *testing.T) {
	device := newFakeCaptureDevice()
	gate := newCaptureGate(device, nil, nil)

	gate.Acquire(context.Background())
	device.awaitStart(t)

	if err := gate.Close(); err != nil {
		t.Fatalf("expected close to succeed, got %v", err)
	}
	if got := device.closes.Load(); got != 1 {
		t.Fatalf("expected device closed once, got %d", got)
	}
}
