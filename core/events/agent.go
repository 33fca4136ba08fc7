package events

const (
	// KindAgentSpeaking identifies the remote agent starting to speak.
	KindAgentSpeaking Kind = "agent.speaking"
	// KindAgentAudioChunk identifies one decoded agent audio frame.
	KindAgentAudioChunk Kind = "agent.audio_chunk"
	// KindAgentTurnDone identifies the remote agent declaring its turn complete.
	KindAgentTurnDone Kind = "agent.turn_done"
)

// AgentSpeaking marks the remote agent starting its speaking turn.
type AgentSpeaking struct{ Base }

// NewAgentSpeaking creates an agent speaking event.
func NewAgentSpeaking() AgentSpeaking {
	return AgentSpeaking{Base: NewBase(KindAgentSpeaking)}
}

// AgentAudioChunk carries one decoded agent audio frame. The frame is owned
// by the receiver and consumed exactly once.
type AgentAudioChunk struct {
	Base
	Frame []float32
}

// NewAgentAudioChunk creates an agent audio chunk event.
func NewAgentAudioChunk(frame []float32) AgentAudioChunk {
	return AgentAudioChunk{Base: NewBase(KindAgentAudioChunk), Frame: frame}
}

// AgentTurnDone marks the remote agent declaring its turn complete.
// Interrupted is set when the remote reports the turn ended because of a
// barge-in rather than naturally.
type AgentTurnDone struct {
	Base
	Interrupted bool
}

// NewAgentTurnDone creates an agent turn done event.
func NewAgentTurnDone(interrupted bool) AgentTurnDone {
	return AgentTurnDone{Base: NewBase(KindAgentTurnDone), Interrupted: interrupted}
}
