// Package gateway maintains the persistent connection to the remote
// transcription gateway: JSON control frames out, binary PCM frames out,
// and status/transcript/error events in.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// ConnState tracks the local connection lifecycle, independent of the
// server-reported status.
type ConnState int

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
)

// String returns the string representation of the state.
func (s ConnState) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int(s))
	}
}

// Errors returned by session operations.
var (
	ErrNotConnected     = errors.New("gateway session is not connected")
	ErrAlreadyStreaming = errors.New("capture is already streaming")
)

// Handler receives inbound gateway events. Events are dispatched from a
// single reader goroutine, one at a time, in wire order.
type Handler interface {
	// OnStatus is called when the server reports a status change
	// (idle, starting, streaming, stopping, ended).
	OnStatus(state string)

	// OnTranscript delivers one transcript segment.
	OnTranscript(text string, isPartial bool)

	// OnError delivers a server-side error message.
	OnError(message string)

	// OnDisconnect is called once when the connection drops, after the
	// streaming flag has been cleared. wasStreaming reports whether a
	// capture session was active at that moment; the owner must then
	// release the microphone locally, since the channel is gone.
	OnDisconnect(wasStreaming bool)
}

// controlFrame is the outbound JSON control message envelope.
type controlFrame struct {
	Event           string `json:"event"`
	LanguageCode    string `json:"languageCode,omitempty"`
	SampleRateHertz int    `json:"sampleRateHertz,omitempty"`
}

// inboundFrame is the inbound JSON event envelope.
type inboundFrame struct {
	Event     string `json:"event"`
	State     string `json:"state,omitempty"`
	Text      string `json:"text,omitempty"`
	IsPartial bool   `json:"isPartial,omitempty"`
	Message   string `json:"message,omitempty"`
}

// Session is one logical connection to the transcription gateway. It is
// created once per live page lifetime and reused across start/stop
// cycles of capture.
type Session struct {
	url     string
	handler Handler
	dialer  *websocket.Dialer

	mu     sync.Mutex // guards conn, state, serverStatus and writes
	conn   *websocket.Conn
	state  ConnState
	status string

	// Read at transmission time so audio callbacks scheduled before a
	// stop are dropped instead of sent.
	streaming atomic.Bool
}

// New creates a disconnected session that will report events to handler.
// A nil handler may be set later with SetHandler, before Connect.
func New(url string, handler Handler) *Session {
	return &Session{
		url:     url,
		handler: handler,
		dialer:  websocket.DefaultDialer,
		status:  "idle",
	}
}

// SetHandler installs the event handler. The session owner and its
// handler reference each other, so construction is two-step; must be
// called before Connect.
func (s *Session) SetHandler(handler Handler) {
	s.handler = handler
}

// Connect establishes the websocket connection and starts the reader.
// Attempted once per session lifetime; a later disconnect simply flips
// the state back, it is not retried here.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateDisconnected {
		s.mu.Unlock()
		return nil
	}
	s.state = StateConnecting
	s.mu.Unlock()

	conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		s.mu.Lock()
		s.state = StateDisconnected
		s.mu.Unlock()
		return fmt.Errorf("gateway dial %s: %w", s.url, err)
	}

	s.mu.Lock()
	s.conn = conn
	s.state = StateConnected
	s.mu.Unlock()

	log.Info().Str("url", s.url).Msg("Gateway connected")

	go s.readLoop(conn)
	return nil
}

// State returns the local connection state.
func (s *Session) State() ConnState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ServerStatus returns the last server-reported status.
func (s *Session) ServerStatus() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Streaming reports whether a capture session is currently active.
func (s *Session) Streaming() bool {
	return s.streaming.Load()
}

// StartStream sends the start control frame carrying the declared output
// sample rate. Rejected when not connected or already streaming.
func (s *Session) StartStream(languageCode string, sampleRateHertz int) error {
	if s.streaming.Load() {
		return ErrAlreadyStreaming
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateConnected {
		return ErrNotConnected
	}

	frame := controlFrame{
		Event:           "start",
		LanguageCode:    languageCode,
		SampleRateHertz: sampleRateHertz,
	}
	if err := s.writeJSON(frame); err != nil {
		return fmt.Errorf("send start frame: %w", err)
	}

	s.streaming.Store(true)
	log.Info().
		Str("languageCode", languageCode).
		Int("sampleRateHertz", sampleRateHertz).
		Msg("Gateway stream started")
	return nil
}

// SendAudio transmits one encoded chunk as a binary frame. Chunks that
// arrive after streaming stopped are dropped silently: capture callbacks
// may still fire while teardown is in flight.
func (s *Session) SendAudio(pcm []byte) error {
	if !s.streaming.Load() {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	if err := s.conn.WriteMessage(websocket.BinaryMessage, pcm); err != nil {
		return fmt.Errorf("send audio frame: %w", err)
	}
	return nil
}

// StopStream clears the streaming flag and, when notifyServer is set and
// the connection is still up, sends the stop control frame. Called with
// notifyServer=false on abnormal disconnect, where the channel is gone.
func (s *Session) StopStream(notifyServer bool) {
	if !s.streaming.Swap(false) {
		return
	}

	if !notifyServer {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateConnected {
		return
	}
	if err := s.writeJSON(controlFrame{Event: "stop"}); err != nil {
		log.Warn().Err(err).Msg("Failed to send stop frame")
	}
}

// Close tears down the connection. Safe to call multiple times.
func (s *Session) Close() error {
	s.streaming.Store(false)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	s.state = StateDisconnected
	return err
}

// writeJSON marshals and writes a control frame. Caller holds s.mu.
func (s *Session) writeJSON(frame controlFrame) error {
	if s.conn == nil {
		return ErrNotConnected
	}
	payload, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	return s.conn.WriteMessage(websocket.TextMessage, payload)
}

// readLoop receives inbound frames until the connection drops. A live
// stream must never outlive its transport: disconnect while streaming
// forces the flag down before the handler hears about it.
func (s *Session) readLoop(conn *websocket.Conn) {
	for {
		msgType, payload, err := conn.ReadMessage()
		if err != nil {
			s.mu.Lock()
			if s.conn == conn {
				s.conn = nil
			}
			s.state = StateDisconnected
			s.mu.Unlock()

			wasStreaming := s.streaming.Swap(false)
			log.Info().Err(err).Bool("wasStreaming", wasStreaming).Msg("Gateway disconnected")
			s.handler.OnDisconnect(wasStreaming)
			return
		}

		if msgType != websocket.TextMessage {
			continue
		}

		var frame inboundFrame
		if err := json.Unmarshal(payload, &frame); err != nil {
			log.Warn().Err(err).Msg("Ignoring malformed gateway frame")
			continue
		}

		switch frame.Event {
		case "status":
			s.mu.Lock()
			s.status = frame.State
			s.mu.Unlock()
			s.handler.OnStatus(frame.State)
		case "transcript":
			s.handler.OnTranscript(frame.Text, frame.IsPartial)
		case "error":
			s.handler.OnError(frame.Message)
		default:
			log.Warn().Str("event", frame.Event).Msg("Unhandled gateway event")
		}
	}
}
