package turntaking

import (
	"github.com/dkroflic/voicedesk-core/core/events"
)

// TurnState is the authoritative half-duplex turn value. Listening and
// AgentSpeaking are mutually exclusive; capture is enabled if and only if the
// state is Listening.
type TurnState int32

const (
	// TurnIdle means voice mode is off; neither party holds the audio turn.
	TurnIdle TurnState = iota
	// TurnListening means the user holds the turn and the microphone is live.
	TurnListening
	// TurnAgentSpeaking means the agent holds the turn; local capture is
	// gated off while queued agent audio renders.
	TurnAgentSpeaking
)

func (s TurnState) String() string {
	switch s {
	case TurnIdle:
		return "idle"
	case TurnListening:
		return "listening"
	case TurnAgentSpeaking:
		return "agent_speaking"
	}
	return "unknown"
}

type transitionKey struct {
	state TurnState
	kind  events.Kind
}

// transition is one row of the turn table. The guard narrows rows the key
// cannot distinguish (e.g. agent done with queued vs. drained playback);
// apply runs with the coordinator loop as the only caller, so it may touch
// turn state freely.
type transition struct {
	guard func(*Coordinator, events.Event) bool
	apply func(*Coordinator, events.Event)
}

// turnTransitions is the coordinator's decision table. Keeping it as data
// rather than nested conditionals keeps every legal (state, event) pair
// visible in one place and testable row by row.
var turnTransitions = map[transitionKey][]transition{
	{TurnIdle, events.KindVoiceStarted}: {{
		apply: (*Coordinator).startVoiceMode,
	}},

	{TurnListening, events.KindAgentSpeaking}: {{
		apply: (*Coordinator).agentTookTurn,
	}},
	{TurnListening, events.KindAgentAudioChunk}: {{
		// An audio chunk with no prior speaking signal still yields the turn.
		apply: (*Coordinator).agentTookTurnWithAudio,
	}},
	{TurnListening, events.KindAgentTurnDone}: {{
		apply: (*Coordinator).confirmInterrupt,
	}},
	{TurnListening, events.KindInterruptRequested}: {{
		apply: (*Coordinator).interruptTurn,
	}},
	{TurnListening, events.KindVoiceStopped}: {{
		apply: (*Coordinator).stopVoiceMode,
	}},

	{TurnAgentSpeaking, events.KindAgentAudioChunk}: {{
		apply: (*Coordinator).enqueueAgentAudio,
	}},
	{TurnAgentSpeaking, events.KindAgentTurnDone}: {
		{
			guard: func(c *Coordinator, _ events.Event) bool { return c.scheduler.Pending() > 0 },
			apply: (*Coordinator).deferTurnHandover,
		},
		{
			apply: (*Coordinator).resumeListening,
		},
	},
	{TurnAgentSpeaking, events.KindPlaybackDrained}: {{
		// Only a drain of the current batch may complete a handover; drains
		// from a batch a clear invalidated arrive late and carry a superseded
		// generation.
		guard: func(c *Coordinator, event events.Event) bool {
			drained, ok := event.(events.PlaybackDrained)
			return ok && c.pendingHandover && drained.Generation == c.scheduler.Generation()
		},
		apply: (*Coordinator).completeTurnHandover,
	}},
	{TurnAgentSpeaking, events.KindInterruptRequested}: {{
		apply: (*Coordinator).interruptTurn,
	}},
	{TurnAgentSpeaking, events.KindVoiceStopped}: {{
		// Queued agent audio is discarded immediately, same as a barge-in.
		apply: (*Coordinator).stopVoiceMode,
	}},
}
