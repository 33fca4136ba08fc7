package transport

import (
	"encoding/json"
	"fmt"
	"time"
)

// Message type tags, matching the remote protocol byte for byte.
const (
	// Outbound.
	TypeAudioInput = "audio_input"
	TypeTextInput  = "text_input"
	TypeInterrupt  = "interrupt"
	TypeEndSession = "end_session"

	// Inbound, consumed by the turn coordinator.
	TypeAgentSpeaking = "agent_speaking"
	TypeAudioOutput   = "audio_output"
	TypeAgentDone     = "agent_done"

	// Inbound, passed through to display collaborators.
	TypeSessionStarted    = "session_started"
	TypeSessionEnded      = "session_ended"
	TypeTranscript        = "transcript"
	TypePartialTranscript = "partial_transcript"
	TypeUserTranscript    = "user_transcript"
	TypeToolCall          = "tool_call"
	TypeToolResult        = "tool_result"
	TypeHandoff           = "handoff"
	TypeContextUpdate     = "context_update"
	TypeError             = "error"
)

// Envelope is the only shape that crosses the wire in either direction.
// Immutable once constructed.
type Envelope struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
}

func newEnvelope(msgType string, data any) (Envelope, error) {
	envelope := Envelope{
		Type:      msgType,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}

	if data == nil {
		return envelope, nil
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to marshal %q payload: %w", msgType, err)
	}
	envelope.Data = payload

	return envelope, nil
}

type audioPayload struct {
	Audio string `json:"audio"`
}

type textPayload struct {
	Text string `json:"text"`
}

type transcriptPayload struct {
	Text  string `json:"text"`
	Role  string `json:"role"`
	Agent string `json:"agent,omitempty"`
}

type agentDonePayload struct {
	Agent       string `json:"agent,omitempty"`
	Interrupted bool   `json:"interrupted,omitempty"`
}

type toolPayload struct {
	Tool   string `json:"tool"`
	Status string `json:"status"`
	Result string `json:"result,omitempty"`
}

type handoffPayload struct {
	FromAgent string `json:"from_agent"`
	ToAgent   string `json:"to_agent"`
	Message   string `json:"message,omitempty"`
}

type sessionPayload struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message,omitempty"`
}

type contextUpdatePayload struct {
	Name              string   `json:"name"`
	Email             string   `json:"email"`
	Phone             string   `json:"phone"`
	ProductsDiscussed []string `json:"products_discussed"`
	SelectedProduct   string   `json:"selected_product"`
	InfoComplete      bool     `json:"info_complete"`
	CurrentAgent      string   `json:"current_agent"`
}

type errorPayload struct {
	Type    string `json:"type,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}
