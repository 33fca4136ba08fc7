package transport

import (
	"encoding/base64"
	"fmt"
	"testing"

	"github.com/dkroflic/voicedesk-core/core/audio"
	"github.com/dkroflic/voicedesk-core/core/events"
)

func newSinkClient(sink *[]events.Event) *Client {
	return NewClient("ws://localhost", WithEventSink(func(event events.Event) {
		*sink = append(*sink, event)
	}))
}

func TestDispatchMalformedEnvelopeEmitsNothing(t *testing.T) {
	received := []events.Event{}
	c := newSinkClient(&received)

	c.dispatch([]byte(`{not json`))
	c.dispatch([]byte(`{"data": {"audio": "AAA="}}`))
	c.dispatch([]byte(`{"type": "audio_output", "data": {"audio": 42}}`))

	if len(received) != 0 {
		t.Fatalf("expected malformed envelopes to be dropped, got %d events", len(received))
	}
}

func TestDispatchUnknownTagIsDropped(t *testing.T) {
	received := []events.Event{}
	c := newSinkClient(&received)

	c.dispatch([]byte(`{"type": "telemetry_blob", "data": {}}`))

	if len(received) != 0 {
		t.Fatalf("expected unknown tag to be dropped, got %d events", len(received))
	}
}

func TestDispatchAudioOutputDecodesChunk(t *testing.T) {
	received := []events.Event{}
	c := newSinkClient(&received)

	wire := audio.EncodePCM16([]float32{0, 0.5, -0.5})
	payload := base64.StdEncoding.EncodeToString(wire)
	c.dispatch([]byte(fmt.Sprintf(`{"type": "audio_output", "data": {"audio": %q}}`, payload)))

	if len(received) != 1 {
		t.Fatalf("expected exactly one event, got %d", len(received))
	}
	chunk, ok := received[0].(events.AgentAudioChunk)
	if !ok {
		t.Fatalf("expected AgentAudioChunk, got %T", received[0])
	}
	if len(chunk.Frame) != 3 {
		t.Fatalf("expected 3 decoded samples, got %d", len(chunk.Frame))
	}
	if chunk.Frame[0] != 0 {
		t.Fatalf("expected first sample to be silence, got %f", chunk.Frame[0])
	}
}

func TestDispatchEmptyAudioChunkIsDropped(t *testing.T) {
	received := []events.Event{}
	c := newSinkClient(&received)

	c.dispatch([]byte(`{"type": "audio_output", "data": {"audio": ""}}`))

	if len(received) != 0 {
		t.Fatalf("expected empty chunk to be dropped, got %d events", len(received))
	}
}

func TestDispatchAgentDoneCarriesInterruptedFlag(t *testing.T) {
	received := []events.Event{}
	c := newSinkClient(&received)

	c.dispatch([]byte(`{"type": "agent_done", "data": {"agent": "GreetingAgent", "interrupted": true}}`))
	c.dispatch([]byte(`{"type": "agent_done"}`))

	if len(received) != 2 {
		t.Fatalf("expected two events, got %d", len(received))
	}
	if done := received[0].(events.AgentTurnDone); !done.Interrupted {
		t.Fatalf("expected first done to carry the interrupted flag")
	}
	if done := received[1].(events.AgentTurnDone); done.Interrupted {
		t.Fatalf("expected payload-free done to not be interrupted")
	}
}

func TestDispatchContextUpdateRefreshesSnapshot(t *testing.T) {
	received := []events.Event{}
	c := newSinkClient(&received)

	c.dispatch([]byte(`{"type": "context_update", "data": {
		"name": "Ada", "email": "ada@example.com", "phone": "555-0100",
		"products_discussed": ["Entry Door"], "selected_product": "Entry Door",
		"info_complete": true, "current_agent": "SalesAgent"}}`))

	snapshot := c.ContextSnapshot()
	if snapshot.Name != "Ada" || !snapshot.InfoComplete {
		t.Fatalf("expected snapshot to reflect the update, got %+v", snapshot)
	}

	snapshot.ProductsDiscussed[0] = "mutated"
	if fresh := c.ContextSnapshot(); fresh.ProductsDiscussed[0] != "Entry Door" {
		t.Fatalf("expected snapshot mutation to not leak back, got %q", fresh.ProductsDiscussed[0])
	}
}

func TestDispatchPassThroughTags(t *testing.T) {
	received := []events.Event{}
	c := newSinkClient(&received)

	c.dispatch([]byte(`{"type": "transcript", "data": {"text": "hello", "role": "assistant", "agent": "GreetingAgent"}}`))
	c.dispatch([]byte(`{"type": "user_transcript", "data": {"text": "hi", "role": "user"}}`))
	c.dispatch([]byte(`{"type": "tool_call", "data": {"tool": "search_products", "status": "started"}}`))
	c.dispatch([]byte(`{"type": "handoff", "data": {"from_agent": "GreetingAgent", "to_agent": "SalesAgent"}}`))
	c.dispatch([]byte(`{"type": "error", "data": {"type": "guardrail", "message": "off topic"}}`))

	if len(received) != 5 {
		t.Fatalf("expected 5 pass-through events, got %d", len(received))
	}
	if transcript := received[0].(events.Transcript); transcript.Agent != "GreetingAgent" {
		t.Fatalf("expected transcript agent to survive dispatch, got %q", transcript.Agent)
	}
	if remoteErr := received[4].(events.RemoteError); remoteErr.Type != "guardrail" || remoteErr.Message != "off topic" {
		t.Fatalf("expected guardrail error to pass through untouched, got %+v", remoteErr)
	}
}
