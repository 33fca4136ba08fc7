package transport

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"github.com/jinzhu/copier"
	"go.opentelemetry.io/otel/codes"

	"github.com/dkroflic/voicedesk-core/core/events"
)

// State is the session lifecycle. A session is created per connection
// attempt, moves forward only, and is never reused.
type State int32

const (
	StateConnecting State = iota
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Client owns the duplex session with the remote agent. It is the sole
// writer to the underlying connection; concurrent send requests are
// serialized so wire order matches call order.
type Client struct {
	serverURL string
	sessionID string

	ws      *websocket.Conn
	writeMu sync.Mutex

	state atomic.Int32

	// emitEvent is the single sink for everything decoded off the wire,
	// coordinator-bound and display-bound alike.
	emitEvent func(events.Event)

	contextMu   sync.RWMutex
	lastContext events.CustomerContext

	closeOnce sync.Once
}

type ClientOption func(*Client)

// WithSessionID overrides the minted session identifier.
func WithSessionID(id string) ClientOption {
	return func(c *Client) {
		if id != "" {
			c.sessionID = id
		}
	}
}

// WithEventSink sets the sink receiving every decoded inbound event.
func WithEventSink(sink func(events.Event)) ClientOption {
	return func(c *Client) {
		if sink != nil {
			c.emitEvent = sink
		}
	}
}

func NewClient(serverURL string, opts ...ClientOption) *Client {
	c := &Client{
		serverURL: serverURL,
		sessionID: NewSessionID(),
		emitEvent: func(events.Event) {},
	}
	c.state.Store(int32(StateConnecting))

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Client) SessionID() string { return c.sessionID }
func (c *Client) State() State      { return State(c.state.Load()) }

// Dial opens the websocket connection and starts the inbound read loop.
// No send is accepted before Dial returns successfully.
func (c *Client) Dial(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "dial voice session")
	defer span.End()

	if c.State() != StateConnecting {
		return fmt.Errorf("session %s already %s", c.sessionID, c.State())
	}

	endpoint, err := c.sessionEndpoint()
	if err != nil {
		c.state.Store(int32(StateClosed))
		return err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		c.state.Store(int32(StateClosed))
		recordedErr := fmt.Errorf("failed to open session websocket: %w", err)
		span.RecordError(recordedErr)
		span.SetStatus(codes.Error, recordedErr.Error())
		return recordedErr
	}

	c.ws = conn
	c.state.Store(int32(StateOpen))
	go c.readLoop()

	return nil
}

func (c *Client) sessionEndpoint() (string, error) {
	parsed, err := url.Parse(c.serverURL)
	if err != nil {
		return "", fmt.Errorf("invalid server url %q: %w", c.serverURL, err)
	}

	switch parsed.Scheme {
	case "http":
		parsed.Scheme = "ws"
	case "https":
		parsed.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported server url scheme %q", parsed.Scheme)
	}

	parsed.Path, err = url.JoinPath(parsed.Path, "ws", c.sessionID)
	if err != nil {
		return "", fmt.Errorf("failed to build session path: %w", err)
	}

	return parsed.String(), nil
}

func (c *Client) readLoop() {
	for {
		_, msg, err := c.ws.ReadMessage()
		if err != nil {
			wasOpen := c.state.Swap(int32(StateClosed)) == int32(StateOpen)
			if wasOpen && !websocket.IsCloseError(err,
				websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Error("session websocket read failed", "session_id", c.sessionID, "error", err)
				c.emitEvent(events.NewConnectionLost(err))
			}
			return
		}

		c.dispatch(msg)
	}
}

// SendAudioInput forwards one encoded capture frame. Fire-and-forget: no
// acknowledgement is awaited.
func (c *Client) SendAudioInput(wire []byte) error {
	return c.send(TypeAudioInput, audioPayload{
		Audio: base64.StdEncoding.EncodeToString(wire),
	})
}

// SendTextInput forwards a typed user message, independent of voice mode.
func (c *Client) SendTextInput(text string) error {
	return c.send(TypeTextInput, textPayload{Text: text})
}

// SendInterrupt notifies the remote that the user barged in.
func (c *Client) SendInterrupt() error {
	return c.send(TypeInterrupt, nil)
}

// SendEndSession asks the remote to tear the session down.
func (c *Client) SendEndSession() error {
	return c.send(TypeEndSession, nil)
}

func (c *Client) send(msgType string, data any) error {
	envelope, err := newEnvelope(msgType, data)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.State() != StateOpen {
		return fmt.Errorf("session %s is %s, cannot send %q", c.sessionID, c.State(), msgType)
	}

	if err := c.ws.WriteJSON(envelope); err != nil {
		return fmt.Errorf("failed to write %q to session websocket: %w", msgType, err)
	}
	return nil
}

// ContextSnapshot returns a copy of the latest customer context received via
// context_update, safe to read without racing the inbound loop.
func (c *Client) ContextSnapshot() events.CustomerContext {
	c.contextMu.RLock()
	defer c.contextMu.RUnlock()

	// DeepCopy so the ProductsDiscussed slice is not shared with the copy
	// the dispatch loop keeps mutating.
	snapshot := events.CustomerContext{}
	_ = copier.CopyWithOption(&snapshot, &c.lastContext, copier.Option{DeepCopy: true})
	return snapshot
}

// Close performs a normal closure. Safe to call more than once; later calls
// are no-ops. Normal closure is silent towards the event sink.
func (c *Client) Close() error {
	var closeErr error
	c.closeOnce.Do(func() {
		c.state.Store(int32(StateClosed))
		if c.ws == nil {
			return
		}

		c.writeMu.Lock()
		err := c.ws.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		)
		c.writeMu.Unlock()

		if connErr := c.ws.Close(); connErr != nil || err != nil {
			closeErr = fmt.Errorf("failed to close session websocket: %w", errors.Join(err, connErr))
		}
	})
	return closeErr
}
