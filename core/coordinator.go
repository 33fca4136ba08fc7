package turntaking

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dkroflic/voicedesk-core/core/audio"
	"github.com/dkroflic/voicedesk-core/core/events"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const coordinatorEventQueueCapacity = 64 // TODO: Revisit once typical chunk cadence is measured.

// remoteFacade is the nil-safe wrapper around the configured RemoteSession.
// An unconfigured remote turns sends into reported no-ops instead of panics
// so the coordinator can run against local devices alone.
type remoteFacade struct {
	mu      sync.RWMutex
	session RemoteSession
}

func (r *remoteFacade) Set(session RemoteSession) {
	if r == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.session = session
}

func (r *remoteFacade) snapshot() RemoteSession {
	if r == nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.session
}

func (r *remoteFacade) SendAudioInput(wire []byte) error {
	session := r.snapshot()
	if session == nil {
		return fmt.Errorf("no remote session configured")
	}
	return session.SendAudioInput(wire)
}

func (r *remoteFacade) SendTextInput(text string) error {
	session := r.snapshot()
	if session == nil {
		return fmt.Errorf("no remote session configured")
	}
	return session.SendTextInput(text)
}

func (r *remoteFacade) SendInterrupt() error {
	session := r.snapshot()
	if session == nil {
		return fmt.Errorf("no remote session configured")
	}
	return session.SendInterrupt()
}

func (r *remoteFacade) SendEndSession() error {
	session := r.snapshot()
	if session == nil {
		return fmt.Errorf("no remote session configured")
	}
	return session.SendEndSession()
}

// Coordinator owns the half-duplex turn. All turn state lives on a single
// loop goroutine fed by a queue of events; everything outside the loop posts
// events and reads the atomic state mirror, never the state itself.
type Coordinator struct {
	// state is the authoritative turn value, touched only by the loop.
	state TurnState
	// stateMirror shadows state for callers outside the loop.
	stateMirror atomic.Int32

	// pendingHandover is set when the agent declared done while playback was
	// still draining; the drain signal then completes the handover.
	pendingHandover bool
	// interrupted is set on a barge-in and suppresses stale agent audio
	// until the remote confirms the cancelled turn or starts a new one.
	interrupted bool

	gate      *captureGate
	output    *playbackOutput
	scheduler *playbackScheduler
	remote    *remoteFacade

	queueSize int
	queue     chan events.Event
	closeCh   chan struct{}
	done      chan struct{}

	startOnce sync.Once
	closeOnce sync.Once
	started   atomic.Bool

	callbacks   CoordinateOptions
	baseContext context.Context
}

func NewCoordinator(opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		queueSize:   coordinatorEventQueueCapacity,
		closeCh:     make(chan struct{}),
		done:        make(chan struct{}),
		baseContext: context.Background(),
		remote:      &remoteFacade{},
	}
	c.output = newPlaybackOutput(nil)
	c.scheduler = newPlaybackScheduler(c.output, func(generation uint64) {
		c.post(events.NewPlaybackDrained(generation))
	})
	c.gate = newCaptureGate(nil,
		func(frame []float32) {
			if err := c.remote.SendAudioInput(audio.EncodePCM16(frame)); err != nil {
				logger.Warn("failed to send capture audio", "error", err)
			}
		},
		func(err error) {
			c.post(events.NewCaptureFailed(err))
		},
	)

	for _, opt := range opts {
		opt(c)
	}

	c.queue = make(chan events.Event, c.queueSize)
	return c
}

// Start launches the coordinator loop. Display callbacks are bound here, so
// every event observed after Start returns is reported consistently.
// Subsequent calls are no-ops.
func (c *Coordinator) Start(ctx context.Context, opts ...CoordinateOption) {
	if c == nil {
		return
	}

	c.startOnce.Do(func() {
		for _, opt := range opts {
			opt(&c.callbacks)
		}

		ctx, span := tracer.Start(ctx, "coordinate turns")
		c.baseContext = ctx
		c.started.Store(true)

		go func() {
			defer close(c.done)
			defer span.End()

			for {
				select {
				case <-c.closeCh:
					return
				case event := <-c.queue:
					if c.isClosed() {
						return
					}
					c.apply(event)
				}
			}
		}()
	})
}

// Close stops the loop, releases the microphone and drops queued playback.
// Safe to call multiple times and on a never-started coordinator.
func (c *Coordinator) Close() {
	if c == nil {
		return
	}

	c.closeOnce.Do(func() {
		close(c.closeCh)
		if c.started.Load() {
			<-c.done
		}

		c.scheduler.Clear()
		if err := c.gate.Close(); err != nil {
			recordedErr := fmt.Errorf("failed to close capture device: %w", err)
			span := trace.SpanFromContext(c.baseContext)
			span.RecordError(recordedErr)
			span.SetStatus(codes.Error, recordedErr.Error())
		}
	})
}

// SetRemote replaces the configured remote session. Wiring is circular (the
// transport needs the coordinator as its event sink), so the remote usually
// lands here after both sides are constructed.
func (c *Coordinator) SetRemote(remote RemoteSession) {
	if c == nil {
		return
	}

	c.remote.Set(remote)
}

// State reports the current turn state. Callers observing it race with the
// loop by construction; it is a display value, not a synchronization point.
func (c *Coordinator) State() TurnState {
	if c == nil {
		return TurnIdle
	}

	return TurnState(c.stateMirror.Load())
}

// Handle posts an event for the loop to process. It is the sink handed to
// the session transport and is safe from any goroutine. Events posted after
// Close are dropped.
func (c *Coordinator) Handle(event events.Event) bool {
	return c.post(event)
}

func (c *Coordinator) post(event events.Event) bool {
	if c == nil || c.isClosed() {
		return false
	}

	select {
	case <-c.closeCh:
		return false
	case c.queue <- event:
		return true
	}
}

func (c *Coordinator) isClosed() bool {
	if c == nil {
		return true
	}

	select {
	case <-c.closeCh:
		return true
	default:
		return false
	}
}

// StartVoice enables voice mode: the microphone is acquired and the user
// takes the turn.
func (c *Coordinator) StartVoice() { c.post(events.NewVoiceStarted()) }

// StopVoice disables voice mode and returns to idle, discarding any queued
// agent audio.
func (c *Coordinator) StopVoice() { c.post(events.NewVoiceStopped()) }

// Interrupt requests a barge-in on agent playback. Calling it when the agent
// does not hold the turn is a no-op.
func (c *Coordinator) Interrupt() { c.post(events.NewInterruptRequested()) }

// SendText forwards a typed message to the remote agent. Text input is
// independent of the audio turn and legal in every state.
func (c *Coordinator) SendText(text string) error {
	if err := c.remote.SendTextInput(text); err != nil {
		return fmt.Errorf("failed to send text input: %w", err)
	}
	return nil
}

// EndSession asks the remote to finish the session gracefully.
func (c *Coordinator) EndSession() error {
	if err := c.remote.SendEndSession(); err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}
	return nil
}

// apply runs one event against the turn table. Session pass-through events
// never touch turn state and short-circuit to their callbacks; everything
// else either matches a table row or is dropped.
func (c *Coordinator) apply(event events.Event) {
	if c.forwardSessionEvent(event) {
		return
	}

	switch event.Kind() {
	case events.KindCaptureFailed:
		c.captureFailed(event)
		return
	case events.KindConnectionLost:
		c.connectionLost(event)
		return
	}

	rows, ok := turnTransitions[transitionKey{state: c.state, kind: event.Kind()}]
	if !ok {
		logger.Debug("dropping event without transition",
			"state", c.state.String(), "event", string(event.Kind()))
		return
	}

	for _, row := range rows {
		if row.guard != nil && !row.guard(c, event) {
			continue
		}
		row.apply(c, event)
		return
	}
}

// forwardSessionEvent reports session-scoped events to the display
// callbacks. Returns false for events the turn table owns.
func (c *Coordinator) forwardSessionEvent(event events.Event) bool {
	switch e := event.(type) {
	case events.SessionStarted:
		if c.callbacks.onSessionStarted != nil {
			c.callbacks.onSessionStarted(e.SessionID, e.Message)
		}
	case events.SessionEnded:
		if c.callbacks.onSessionEnded != nil {
			c.callbacks.onSessionEnded(e.SessionID)
		}
	case events.Transcript:
		if c.callbacks.onTranscript != nil {
			c.callbacks.onTranscript(e.Text, e.Role, e.Agent)
		}
	case events.PartialTranscript:
		if c.callbacks.onPartialTranscript != nil {
			c.callbacks.onPartialTranscript(e.Text, e.Role, e.Agent)
		}
	case events.UserTranscript:
		if c.callbacks.onUserTranscript != nil {
			c.callbacks.onUserTranscript(e.Text)
		}
	case events.ToolCallStarted:
		if c.callbacks.onToolCall != nil {
			c.callbacks.onToolCall(e.Tool, e.Status)
		}
	case events.ToolCallResult:
		if c.callbacks.onToolResult != nil {
			c.callbacks.onToolResult(e.Tool, e.Status, e.Result)
		}
	case events.AgentHandoff:
		if c.callbacks.onHandoff != nil {
			c.callbacks.onHandoff(e.FromAgent, e.ToAgent, e.Message)
		}
	case events.ContextUpdated:
		if c.callbacks.onContextUpdated != nil {
			c.callbacks.onContextUpdated(e.Context)
		}
	case events.RemoteError:
		if c.callbacks.onRemoteError != nil {
			c.callbacks.onRemoteError(e.Type, e.Message)
		}
	default:
		return false
	}
	return true
}

func (c *Coordinator) setState(next TurnState) {
	if c.state == next {
		return
	}

	c.state = next
	c.stateMirror.Store(int32(next))
	if c.callbacks.onTurnStateChanged != nil {
		c.callbacks.onTurnStateChanged(next)
	}
}

// captureFailed handles a microphone acquisition failure: voice mode shuts
// down, the session itself keeps running.
func (c *Coordinator) captureFailed(event events.Event) {
	failure, ok := event.(events.CaptureFailed)
	if !ok {
		return
	}

	logger.Error("capture device failed", "error", failure.Err)
	c.gate.Release()
	if c.state != TurnIdle {
		c.scheduler.Clear()
		c.pendingHandover = false
		c.interrupted = false
		c.setState(TurnIdle)
	}
	if c.callbacks.onCaptureFailure != nil {
		c.callbacks.onCaptureFailure(failure.Err)
	}
}

// connectionLost resets the turn after an abnormal transport closure. No
// wire traffic is attempted; there is nobody left to tell.
func (c *Coordinator) connectionLost(event events.Event) {
	lost, ok := event.(events.ConnectionLost)
	if !ok {
		return
	}

	c.gate.Release()
	c.scheduler.Clear()
	c.pendingHandover = false
	c.interrupted = false
	c.setState(TurnIdle)

	if c.callbacks.onConnectionLost != nil {
		c.callbacks.onConnectionLost(lost.Err)
	}
}

func (c *Coordinator) startVoiceMode(events.Event) {
	c.pendingHandover = false
	c.interrupted = false
	c.gate.Enable()
	c.gate.Acquire(c.baseContext)

	encodingInfo := c.gate.EncodingInfo()
	logger.Info("voice mode enabled",
		"sample_rate", encodingInfo.SampleRate,
		"channels", encodingInfo.Channels,
		"format", encodingInfo.Format.Name(),
	)

	c.setState(TurnListening)
}

// agentTookTurn hands the audio turn to the agent: capture gates off before
// any of its audio renders.
func (c *Coordinator) agentTookTurn(events.Event) {
	c.gate.Disable()
	c.pendingHandover = false
	c.interrupted = false
	c.setState(TurnAgentSpeaking)
}

// agentTookTurnWithAudio covers an audio chunk arriving without a prior
// speaking signal. Chunks trailing a barge-in belong to the cancelled turn
// and are dropped instead of retaking the turn.
func (c *Coordinator) agentTookTurnWithAudio(event events.Event) {
	chunk, ok := event.(events.AgentAudioChunk)
	if !ok {
		return
	}

	if c.interrupted {
		return
	}

	c.agentTookTurn(event)
	c.scheduler.Enqueue(chunk.Frame)
}

// confirmInterrupt consumes the remote's completion of a turn that was
// barged in on, re-arming audio acceptance for the next turn.
func (c *Coordinator) confirmInterrupt(events.Event) {
	c.pendingHandover = false
	c.interrupted = false
}

// interruptTurn executes a barge-in: queued playback is dropped, the user
// retakes the turn immediately, and the remote is told exactly once. When
// the remote already declared done there is nothing left to cancel, so only
// local playback is dropped.
func (c *Coordinator) interruptTurn(events.Event) {
	if c.state != TurnAgentSpeaking {
		return
	}

	if !c.pendingHandover {
		c.interrupted = true
		if err := c.remote.SendInterrupt(); err != nil {
			logger.Warn("failed to send interrupt", "error", err)
		}
	}

	c.pendingHandover = false
	c.scheduler.Clear()
	c.gate.Enable()
	c.setState(TurnListening)
}

// stopVoiceMode leaves voice mode from any state. Agent audio still queued
// is treated like a barge-in so the remote stops producing for a listener
// that is gone.
func (c *Coordinator) stopVoiceMode(events.Event) {
	if c.state == TurnAgentSpeaking && !c.pendingHandover {
		if err := c.remote.SendInterrupt(); err != nil {
			logger.Warn("failed to send interrupt", "error", err)
		}
	}

	c.gate.Release()
	c.scheduler.Clear()
	c.pendingHandover = false
	c.interrupted = false
	c.setState(TurnIdle)
}

func (c *Coordinator) enqueueAgentAudio(event events.Event) {
	chunk, ok := event.(events.AgentAudioChunk)
	if !ok {
		return
	}

	c.scheduler.Enqueue(chunk.Frame)
}

// deferTurnHandover records that the agent finished producing while queued
// audio is still rendering; the drain signal completes the handover.
func (c *Coordinator) deferTurnHandover(events.Event) {
	c.pendingHandover = true
	c.interrupted = false
}

// resumeListening returns the turn to the user with nothing left to render.
func (c *Coordinator) resumeListening(events.Event) {
	c.pendingHandover = false
	c.interrupted = false
	c.gate.Enable()
	c.setState(TurnListening)
}

// completeTurnHandover finishes a deferred handover once playback drains.
func (c *Coordinator) completeTurnHandover(event events.Event) {
	c.resumeListening(event)
}
