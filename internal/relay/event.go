package relay

import (
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"
)

// ErrUnparseable marks an inbound payload that is not a UTF-8 JSON object.
var ErrUnparseable = errors.New("unparseable event")

// Inbound event type discriminators.
const (
	TypeJoin   = "join"
	TypeChat   = "chat"
	TypeTyping = "typing"
)

// Event is one parsed inbound payload. The set of implementations is closed:
// JoinEvent, ChatEvent, TypingEvent and UnknownEvent.
type Event interface {
	Type() string
	event()
}

// JoinEvent announces a display name. Username is empty when the field is
// missing, empty or not a string.
type JoinEvent struct {
	Username string
}

// ChatEvent carries the message field exactly as the client sent it.
// Message is nil when the field was absent.
type ChatEvent struct {
	Message json.RawMessage
}

// TypingEvent carries the isTyping field exactly as the client sent it.
type TypingEvent struct {
	IsTyping json.RawMessage
}

// UnknownEvent is any object whose type is missing or unrecognized.
type UnknownEvent struct {
	Kind string
}

func (JoinEvent) Type() string      { return TypeJoin }
func (ChatEvent) Type() string      { return TypeChat }
func (TypingEvent) Type() string    { return TypeTyping }
func (e UnknownEvent) Type() string { return e.Kind }

func (JoinEvent) event()    {}
func (ChatEvent) event()    {}
func (TypingEvent) event()  {}
func (UnknownEvent) event() {}

// ParseEvent decodes a raw text frame. Payloads that are not valid UTF-8 or
// not a JSON object yield ErrUnparseable; objects with an unrecognized type
// yield UnknownEvent.
func ParseEvent(data []byte) (Event, error) {
	// message and isTyping are relayed verbatim, so bad bytes would reach peers.
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: invalid UTF-8", ErrUnparseable)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	if fields == nil {
		return nil, fmt.Errorf("%w: null payload", ErrUnparseable)
	}

	switch kind := stringField(fields, "type"); kind {
	case TypeJoin:
		// A non-string username counts as absent and falls back to Anonymous.
		return JoinEvent{Username: stringField(fields, "username")}, nil
	case TypeChat:
		return ChatEvent{Message: fields["message"]}, nil
	case TypeTyping:
		return TypingEvent{IsTyping: fields["isTyping"]}, nil
	default:
		return UnknownEvent{Kind: kind}, nil
	}
}

// stringField returns fields[name] if it holds a JSON string, else "".
func stringField(fields map[string]json.RawMessage, name string) string {
	raw, ok := fields[name]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}
