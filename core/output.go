package turntaking

import (
	"reflect"
)

// playbackOutput normalizes legacy (v0, blocking mark-wait) and callback-mark
// (v1) playback devices behind one facade used by the scheduler.
//
// The facade caches typed capabilities derived from base so the rendering
// path can route without repeated type assertions.
//
// NOTE: methods intentionally do best-effort forwarding and ignore device
// return errors because the scheduler treats device writes as non-fatal side
// effects; a dead device simply completes buffers immediately.
type playbackOutput struct {
	// base stores the configured playback device regardless of protocol version.
	base playbackOutputBase
	// v0 is set when the device only supports the blocking mark-wait API.
	v0 AudioPlaybackV0
	// v1 is set when the device supports callback-based mark handling.
	v1 AudioPlaybackV1
}

func newPlaybackOutput(device playbackOutputBase) *playbackOutput {
	output := playbackOutput{}
	output.Set(device)
	return &output
}

// Set replaces the configured device and recomputes version-specific
// capabilities. Nil and typed-nil devices are treated as unconfigured.
func (o *playbackOutput) Set(device playbackOutputBase) {
	if o == nil {
		return
	}

	o.base = nil
	o.v0 = nil
	o.v1 = nil

	if isNilPlaybackOutputBase(device) {
		return
	}
	o.base = device

	if v1, ok := device.(AudioPlaybackV1); ok {
		o.v1 = v1
		return
	}

	if v0, ok := device.(AudioPlaybackV0); ok {
		o.v0 = v0
	}
}

func (o *playbackOutput) isConfigured() bool {
	if o == nil {
		return false
	}

	return o.v0 != nil || o.v1 != nil
}

// SendAudio forwards a frame to the configured device. Unconfigured devices
// drop the frame.
func (o *playbackOutput) SendAudio(frame []float32) {
	if o.v1 != nil {
		o.v1.SendAudio(frame)
	} else if o.v0 != nil {
		o.v0.SendAudio(frame)
	}
}

// Mark requests a completion notification once everything written before the
// mark has rendered.
//
// For v1 devices, mark handling is delegated directly. For v0 devices,
// AwaitMark is bridged to a callback so the scheduler can stay
// callback-driven. Without a device configured, the callback is invoked
// immediately so the turn can keep progressing.
func (o *playbackOutput) Mark(mark string, callback func(string)) {
	if o.v1 != nil {
		o.v1.Mark(mark, callback)
	} else if o.v0 != nil {
		go func() {
			o.v0.AwaitMark()
			callback(mark)
		}()
	} else {
		// Asynchronous on purpose: callers may hold scheduler state while
		// arming the mark, and completion must re-enter it.
		go callback(mark)
	}
}

// Clear flushes device-side buffered audio. No-op when unconfigured.
func (o *playbackOutput) Clear() {
	if o.v1 != nil {
		o.v1.ClearBuffer()
	} else if o.v0 != nil {
		o.v0.ClearBuffer()
	}
}

// isNilPlaybackOutputBase detects nil and typed-nil interface values so Set
// does not store unusable interface wrappers as configured devices.
func isNilPlaybackOutputBase(device playbackOutputBase) bool {
	if device == nil {
		return true
	}

	v := reflect.ValueOf(device)
	switch v.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
		return v.IsNil()
	default:
		return false
	}
}
