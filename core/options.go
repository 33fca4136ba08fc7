package turntaking

import (
	"context"

	"github.com/dkroflic/voicedesk-core/core/audio"
	"github.com/dkroflic/voicedesk-core/core/events"
)

type CoordinatorOption func(*Coordinator)

// AudioCapture is a microphone device producing native float32 frames at the
// device cadence. StartCapture blocks only until streaming begins; frames are
// delivered on the device's own goroutine.
type AudioCapture interface {
	StartCapture(ctx context.Context, onFrame func(frame []float32)) error
	StopCapture() error
	Close() error
	EncodingInfo() audio.EncodingInfo
}

// WithCaptureDevice configures the microphone held by the capture gate for
// the lifetime of voice mode. Without one the coordinator runs text-only.
func WithCaptureDevice(device AudioCapture) CoordinatorOption {
	return func(c *Coordinator) { c.gate.Set(device) }
}

type playbackOutputBase interface {
	SendAudio(frame []float32) error
	ClearBuffer()
	Close() error
}

// AudioPlaybackV0 is a playback device that only supports blocking until all
// previously written audio has rendered.
type AudioPlaybackV0 interface {
	playbackOutputBase
	AwaitMark() error
}

// AudioPlaybackV1 is a playback device with callback-based mark handling:
// the callback fires once everything written before the mark has rendered.
type AudioPlaybackV1 interface {
	playbackOutputBase
	Mark(mark string, callback func(mark string)) error
}

// WithPlaybackDevice configures the speaker device the scheduler renders
// through. Accepts v0 and v1 devices.
func WithPlaybackDevice(device playbackOutputBase) CoordinatorOption {
	return func(c *Coordinator) { c.output.Set(device) }
}

// RemoteSession is the outbound half of the session transport. Calls are
// fire-and-forget from the coordinator's point of view; delivery failures
// surface through the transport's own event stream.
type RemoteSession interface {
	SendAudioInput(wire []byte) error
	SendTextInput(text string) error
	SendInterrupt() error
	SendEndSession() error
}

// WithRemoteSession configures where encoded microphone audio, interrupts,
// text messages and session teardown are sent.
func WithRemoteSession(remote RemoteSession) CoordinatorOption {
	return func(c *Coordinator) { c.remote.Set(remote) }
}

// WithQueueSize overrides the coordinator event queue capacity.
func WithQueueSize(size int) CoordinatorOption {
	return func(c *Coordinator) {
		if size > 0 {
			c.queueSize = size
		}
	}
}

// CoordinateOptions collects display-facing callbacks. The coordinator
// consumes turn-relevant events itself and forwards everything else here;
// unset callbacks are simply skipped.
type CoordinateOptions struct {
	onTurnStateChanged  func(state TurnState)
	onCaptureFailure    func(err error)
	onConnectionLost    func(err error)
	onSessionStarted    func(sessionID, message string)
	onSessionEnded      func(sessionID string)
	onTranscript        func(text, role, agent string)
	onPartialTranscript func(text, role, agent string)
	onUserTranscript    func(text string)
	onToolCall          func(tool, status string)
	onToolResult        func(tool, status, result string)
	onHandoff           func(fromAgent, toAgent, message string)
	onContextUpdated    func(context events.CustomerContext)
	onRemoteError       func(errType, message string)
}

type CoordinateOption func(*CoordinateOptions)

// WithTurnStateChangedCallback reports every turn state transition.
func WithTurnStateChangedCallback(callback func(TurnState)) CoordinateOption {
	return func(o *CoordinateOptions) { o.onTurnStateChanged = callback }
}

// WithCaptureFailureCallback reports that the microphone could not be
// acquired. Fatal to voice mode only; the session itself keeps running.
func WithCaptureFailureCallback(callback func(error)) CoordinateOption {
	return func(o *CoordinateOptions) { o.onCaptureFailure = callback }
}

// WithConnectionLostCallback reports an abnormal transport closure.
func WithConnectionLostCallback(callback func(error)) CoordinateOption {
	return func(o *CoordinateOptions) { o.onConnectionLost = callback }
}

func WithSessionStartedCallback(callback func(sessionID, message string)) CoordinateOption {
	return func(o *CoordinateOptions) { o.onSessionStarted = callback }
}

func WithSessionEndedCallback(callback func(sessionID string)) CoordinateOption {
	return func(o *CoordinateOptions) { o.onSessionEnded = callback }
}

func WithTranscriptCallback(callback func(text, role, agent string)) CoordinateOption {
	return func(o *CoordinateOptions) { o.onTranscript = callback }
}

func WithPartialTranscriptCallback(callback func(text, role, agent string)) CoordinateOption {
	return func(o *CoordinateOptions) { o.onPartialTranscript = callback }
}

func WithUserTranscriptCallback(callback func(text string)) CoordinateOption {
	return func(o *CoordinateOptions) { o.onUserTranscript = callback }
}

func WithToolCallCallback(callback func(tool, status string)) CoordinateOption {
	return func(o *CoordinateOptions) { o.onToolCall = callback }
}

func WithToolResultCallback(callback func(tool, status, result string)) CoordinateOption {
	return func(o *CoordinateOptions) { o.onToolResult = callback }
}

func WithHandoffCallback(callback func(fromAgent, toAgent, message string)) CoordinateOption {
	return func(o *CoordinateOptions) { o.onHandoff = callback }
}

func WithContextUpdatedCallback(callback func(events.CustomerContext)) CoordinateOption {
	return func(o *CoordinateOptions) { o.onContextUpdated = callback }
}

func WithRemoteErrorCallback(callback func(errType, message string)) CoordinateOption {
	return func(o *CoordinateOptions) { o.onRemoteError = callback }
}
