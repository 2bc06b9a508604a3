package relay

import (
	"fmt"
	"log/slog"
	"time"
)

// Engine applies connection lifecycle and inbound events to the registry and
// emits the resulting outbound traffic. Calls must be serialized by the
// caller.
type Engine struct {
	log         *slog.Logger
	registry    *Registry
	broadcaster *Broadcaster
	now         func() time.Time
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock replaces the wall clock used for timestamps and connect times.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
		e.registry.now = now
		e.broadcaster.now = now
	}
}

// WithIDGenerator replaces the session id generator.
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) {
		e.registry.newID = newID
	}
}

// NewEngine creates an engine with an empty registry.
func NewEngine(log *slog.Logger, opts ...Option) *Engine {
	registry := NewRegistry()
	e := &Engine{
		log:         log,
		registry:    registry,
		broadcaster: NewBroadcaster(log, registry),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry exposes the live connection table.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Broadcaster exposes the fan-out helper bound to the registry.
func (e *Engine) Broadcaster() *Broadcaster {
	return e.broadcaster
}

// ClientCount returns the number of live connections.
func (e *Engine) ClientCount() int {
	return e.registry.Len()
}

// Connect registers a newly accepted connection, welcomes it with its session
// id and announces the new user count.
func (e *Engine) Connect(conn Conn) (*Session, error) {
	session, err := e.registry.Register(conn)
	if err != nil {
		return nil, fmt.Errorf("register connection: %w", err)
	}
	e.log.Info("Client connected", "client_id", session.ID, "total", e.registry.Len())

	e.broadcaster.Send(conn, SystemMessage{
		Type:      TypeSystem,
		Message:   welcomeText,
		ClientID:  session.ID,
		Timestamp: e.timestamp(),
	})
	e.broadcaster.BroadcastUserCount()
	return session, nil
}

// Disconnect removes conn. Participants that had joined are announced as
// leaving. Disconnecting an unknown connection does nothing and returns false.
func (e *Engine) Disconnect(conn Conn) bool {
	session, ok := e.registry.Deregister(conn)
	if !ok {
		return false
	}
	e.log.Info("Client disconnected", "client_id", session.ID, "total", e.registry.Len())

	if session.Joined() {
		e.broadcaster.Broadcast(SystemMessage{
			Type:      TypeSystem,
			Message:   fmt.Sprintf("%s left the chat", *session.Username),
			Timestamp: e.timestamp(),
		}, nil)
	}
	e.broadcaster.BroadcastUserCount()
	return true
}

// TransportError records a channel error. Cleanup waits for the close event.
func (e *Engine) TransportError(conn Conn, err error) {
	if session, ok := e.registry.Lookup(conn); ok {
		e.log.Error("WebSocket error", "client_id", session.ID, "error", err)
		return
	}
	e.log.Error("WebSocket error", "error", err)
}

// Receive parses a raw inbound frame and dispatches it. Malformed payloads
// and unknown types are logged and dropped.
func (e *Engine) Receive(conn Conn, data []byte) {
	evt, err := ParseEvent(data)
	if err != nil {
		e.log.Warn("Error parsing message", "error", err)
		return
	}
	if unknown, ok := evt.(UnknownEvent); ok {
		e.log.Info("Unknown message type", "type", unknown.Kind)
		return
	}

	session, ok := e.registry.Lookup(conn)
	if !ok {
		e.log.Debug("Ignoring event from unregistered connection", "type", evt.Type())
		return
	}
	e.log.Debug("Received event", "client_id", session.ID, "type", evt.Type())

	switch evt := evt.(type) {
	case JoinEvent:
		e.handleJoin(conn, session, evt)
	case ChatEvent:
		e.handleChat(session, evt)
	case TypingEvent:
		e.handleTyping(conn, session, evt)
	}
}

func (e *Engine) timestamp() string {
	return FormatTimestamp(e.now())
}
