package events

const (
	KindSessionStarted    Kind = "session.started"
	KindSessionEnded      Kind = "session.ended"
	KindTranscript        Kind = "session.transcript"
	KindPartialTranscript Kind = "session.partial_transcript"
	KindUserTranscript    Kind = "session.user_transcript"
	KindToolCallStarted   Kind = "session.tool_call"
	KindToolCallResult    Kind = "session.tool_result"
	KindAgentHandoff      Kind = "session.handoff"
	KindContextUpdated    Kind = "session.context_updated"
	KindRemoteError       Kind = "session.error"
	KindConnectionLost    Kind = "session.connection_lost"
)

// SessionStarted carries the remote greeting for a freshly opened session.
type SessionStarted struct {
	Base
	SessionID string
	Message   string
}

func NewSessionStarted(sessionID, message string) SessionStarted {
	return SessionStarted{Base: NewBase(KindSessionStarted), SessionID: sessionID, Message: message}
}

// SessionEnded marks remote session teardown.
type SessionEnded struct {
	Base
	SessionID string
}

func NewSessionEnded(sessionID string) SessionEnded {
	return SessionEnded{Base: NewBase(KindSessionEnded), SessionID: sessionID}
}

// Transcript carries a finalized transcript line from either party.
type Transcript struct {
	Base
	Text  string
	Role  string
	Agent string
}

func NewTranscript(text, role, agent string) Transcript {
	return Transcript{Base: NewBase(KindTranscript), Text: text, Role: role, Agent: agent}
}

// PartialTranscript carries a mutable in-progress transcript snapshot.
type PartialTranscript struct {
	Base
	Text  string
	Role  string
	Agent string
}

func NewPartialTranscript(text, role, agent string) PartialTranscript {
	return PartialTranscript{Base: NewBase(KindPartialTranscript), Text: text, Role: role, Agent: agent}
}

// UserTranscript carries the remote transcription of user speech.
type UserTranscript struct {
	Base
	Text string
}

func NewUserTranscript(text string) UserTranscript {
	return UserTranscript{Base: NewBase(KindUserTranscript), Text: text}
}

// ToolCallStarted marks the remote agent starting a tool execution.
type ToolCallStarted struct {
	Base
	Tool   string
	Status string
}

func NewToolCallStarted(tool, status string) ToolCallStarted {
	return ToolCallStarted{Base: NewBase(KindToolCallStarted), Tool: tool, Status: status}
}

// ToolCallResult carries the outcome of a remote tool execution.
type ToolCallResult struct {
	Base
	Tool   string
	Status string
	Result string
}

func NewToolCallResult(tool, status, result string) ToolCallResult {
	return ToolCallResult{Base: NewBase(KindToolCallResult), Tool: tool, Status: status, Result: result}
}

// AgentHandoff marks a transfer between remote agents.
type AgentHandoff struct {
	Base
	FromAgent string
	ToAgent   string
	Message   string
}

func NewAgentHandoff(fromAgent, toAgent, message string) AgentHandoff {
	return AgentHandoff{Base: NewBase(KindAgentHandoff), FromAgent: fromAgent, ToAgent: toAgent, Message: message}
}

// CustomerContext mirrors the customer fields the remote agent collects over
// the conversation. It is display-layer data; the coordinator never reads it.
type CustomerContext struct {
	Name              string
	Email             string
	Phone             string
	ProductsDiscussed []string
	SelectedProduct   string
	InfoComplete      bool
	CurrentAgent      string
}

// ContextUpdated carries the latest customer context snapshot.
type ContextUpdated struct {
	Base
	Context CustomerContext
}

func NewContextUpdated(context CustomerContext) ContextUpdated {
	return ContextUpdated{Base: NewBase(KindContextUpdated), Context: context}
}

// RemoteError carries a remote-reported failure, guardrail trips included.
// It is passed through untouched; the coordinator does not react to it.
type RemoteError struct {
	Base
	Type    string
	Message string
}

func NewRemoteError(errType, message string) RemoteError {
	return RemoteError{Base: NewBase(KindRemoteError), Type: errType, Message: message}
}

// ConnectionLost marks an abnormal transport closure. Normal closure never
// produces this event.
type ConnectionLost struct {
	Base
	Err error
}

func NewConnectionLost(err error) ConnectionLost {
	return ConnectionLost{Base: NewBase(KindConnectionLost), Err: err}
}
