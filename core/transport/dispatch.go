package transport

import (
	"encoding/base64"
	"encoding/json"

	"github.com/dkroflic/voicedesk-core/core/audio"
	"github.com/dkroflic/voicedesk-core/core/events"
)

// dispatch decodes one inbound envelope and forwards it as a typed event.
// A malformed envelope is dropped and logged; the connection stays open. The
// transport holds no turn-state knowledge, it only translates tags.
func (c *Client) dispatch(msg []byte) {
	var envelope Envelope
	if err := json.Unmarshal(msg, &envelope); err != nil {
		logger.Warn("dropping malformed envelope", "session_id", c.sessionID, "error", err)
		return
	}
	if envelope.Type == "" {
		logger.Warn("dropping envelope without type tag", "session_id", c.sessionID)
		return
	}

	switch envelope.Type {
	case TypeAgentSpeaking:
		c.emitEvent(events.NewAgentSpeaking())

	case TypeAudioOutput:
		var payload audioPayload
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			logger.Warn("dropping malformed audio_output payload", "session_id", c.sessionID, "error", err)
			return
		}
		wire, err := base64.StdEncoding.DecodeString(payload.Audio)
		if err != nil {
			logger.Warn("dropping undecodable audio_output chunk", "session_id", c.sessionID, "error", err)
			return
		}
		frame := audio.DecodePCM16(wire)
		if len(frame) == 0 {
			return
		}
		logger.Debug("received agent audio chunk",
			"session_id", c.sessionID,
			"samples", len(frame),
			"duration", audio.FrameDuration(len(frame), audio.GetDefaultEncodingInfo()),
		)
		c.emitEvent(events.NewAgentAudioChunk(frame))

	case TypeAgentDone:
		var payload agentDonePayload
		if len(envelope.Data) > 0 {
			if err := json.Unmarshal(envelope.Data, &payload); err != nil {
				logger.Warn("dropping malformed agent_done payload", "session_id", c.sessionID, "error", err)
				return
			}
		}
		c.emitEvent(events.NewAgentTurnDone(payload.Interrupted))

	case TypeSessionStarted:
		var payload sessionPayload
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			logger.Warn("dropping malformed session_started payload", "session_id", c.sessionID, "error", err)
			return
		}
		c.emitEvent(events.NewSessionStarted(payload.SessionID, payload.Message))

	case TypeSessionEnded:
		var payload sessionPayload
		if len(envelope.Data) > 0 {
			_ = json.Unmarshal(envelope.Data, &payload)
		}
		c.emitEvent(events.NewSessionEnded(payload.SessionID))

	case TypeTranscript:
		var payload transcriptPayload
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			logger.Warn("dropping malformed transcript payload", "session_id", c.sessionID, "error", err)
			return
		}
		c.emitEvent(events.NewTranscript(payload.Text, payload.Role, payload.Agent))

	case TypePartialTranscript:
		var payload transcriptPayload
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			logger.Warn("dropping malformed partial_transcript payload", "session_id", c.sessionID, "error", err)
			return
		}
		c.emitEvent(events.NewPartialTranscript(payload.Text, payload.Role, payload.Agent))

	case TypeUserTranscript:
		var payload transcriptPayload
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			logger.Warn("dropping malformed user_transcript payload", "session_id", c.sessionID, "error", err)
			return
		}
		c.emitEvent(events.NewUserTranscript(payload.Text))

	case TypeToolCall:
		var payload toolPayload
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			logger.Warn("dropping malformed tool_call payload", "session_id", c.sessionID, "error", err)
			return
		}
		c.emitEvent(events.NewToolCallStarted(payload.Tool, payload.Status))

	case TypeToolResult:
		var payload toolPayload
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			logger.Warn("dropping malformed tool_result payload", "session_id", c.sessionID, "error", err)
			return
		}
		c.emitEvent(events.NewToolCallResult(payload.Tool, payload.Status, payload.Result))

	case TypeHandoff:
		var payload handoffPayload
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			logger.Warn("dropping malformed handoff payload", "session_id", c.sessionID, "error", err)
			return
		}
		c.emitEvent(events.NewAgentHandoff(payload.FromAgent, payload.ToAgent, payload.Message))

	case TypeContextUpdate:
		var payload contextUpdatePayload
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			logger.Warn("dropping malformed context_update payload", "session_id", c.sessionID, "error", err)
			return
		}
		updated := events.CustomerContext{
			Name:              payload.Name,
			Email:             payload.Email,
			Phone:             payload.Phone,
			ProductsDiscussed: payload.ProductsDiscussed,
			SelectedProduct:   payload.SelectedProduct,
			InfoComplete:      payload.InfoComplete,
			CurrentAgent:      payload.CurrentAgent,
		}
		c.contextMu.Lock()
		c.lastContext = updated
		c.contextMu.Unlock()
		c.emitEvent(events.NewContextUpdated(updated))

	case TypeError:
		var payload errorPayload
		if len(envelope.Data) > 0 {
			if err := json.Unmarshal(envelope.Data, &payload); err != nil {
				logger.Warn("dropping malformed error payload", "session_id", c.sessionID, "error", err)
				return
			}
		}
		message := payload.Message
		if message == "" {
			message = payload.Error
		}
		c.emitEvent(events.NewRemoteError(payload.Type, message))

	default:
		logger.Warn("dropping envelope with unknown type tag", "session_id", c.sessionID, "type", envelope.Type)
	}
}
