package relay

import (
	"encoding/json"
	"time"
)

// Outbound type discriminators.
const (
	TypeSystem    = "system"
	TypeJoined    = "joined"
	TypeUserCount = "user_count"
)

// TimestampLayout renders UTC instants with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

const welcomeText = "Connected to chat server"

// SystemMessage is a server notice. ClientID is only set on the welcome.
type SystemMessage struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	ClientID  string `json:"clientId,omitempty"`
	Timestamp string `json:"timestamp"`
}

// JoinedMessage confirms a join to the joining connection.
type JoinedMessage struct {
	Type      string `json:"type"`
	Username  string `json:"username"`
	Timestamp string `json:"timestamp"`
}

// ChatMessage relays a chat line to every participant.
type ChatMessage struct {
	Type      string          `json:"type"`
	Username  string          `json:"username"`
	Message   json.RawMessage `json:"message,omitempty"`
	Timestamp string          `json:"timestamp"`
	ClientID  string          `json:"clientId"`
}

// TypingMessage relays a typing indicator. Username is null for sessions
// that never joined.
type TypingMessage struct {
	Type      string          `json:"type"`
	Username  *string         `json:"username"`
	IsTyping  json.RawMessage `json:"isTyping,omitempty"`
	Timestamp string          `json:"timestamp"`
}

// UserCountMessage announces the number of live connections.
type UserCountMessage struct {
	Type      string `json:"type"`
	Count     int    `json:"count"`
	Timestamp string `json:"timestamp"`
}

// FormatTimestamp renders t in the wire timestamp format.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
