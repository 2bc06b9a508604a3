package relay

import (
	"encoding/json"
	"log/slog"
	"time"
)

// Broadcaster fans messages out to the connections in a registry.
// Delivery is fire-and-forget: send failures are logged at debug level and
// never stop the fan-out.
type Broadcaster struct {
	log      *slog.Logger
	registry *Registry
	now      func() time.Time
}

// NewBroadcaster creates a broadcaster over registry.
func NewBroadcaster(log *slog.Logger, registry *Registry) *Broadcaster {
	return &Broadcaster{log: log, registry: registry, now: time.Now}
}

// Broadcast serializes msg once and sends it to every open connection except
// exclude. A nil exclude reaches everyone. It returns the number of
// connections the message was handed to.
func (b *Broadcaster) Broadcast(msg any, exclude Conn) int {
	payload, err := json.Marshal(msg)
	if err != nil {
		b.log.Error("Encoding broadcast failed", "error", err)
		return 0
	}

	delivered := 0
	for _, conn := range b.registry.Conns() {
		if exclude != nil && conn == exclude {
			continue
		}
		if !conn.IsOpen() {
			continue
		}
		if err := conn.Send(payload); err != nil {
			b.log.Debug("Skipping connection during broadcast", "error", err)
			continue
		}
		delivered++
	}
	return delivered
}

// Send delivers msg to a single connection if it is open.
func (b *Broadcaster) Send(conn Conn, msg any) bool {
	if conn == nil || !conn.IsOpen() {
		return false
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		b.log.Error("Encoding message failed", "error", err)
		return false
	}
	if err := conn.Send(payload); err != nil {
		b.log.Debug("Direct send skipped", "error", err)
		return false
	}
	return true
}

// BroadcastUserCount tells everyone how many connections are live.
func (b *Broadcaster) BroadcastUserCount() int {
	return b.Broadcast(UserCountMessage{
		Type:      TypeUserCount,
		Count:     b.registry.Len(),
		Timestamp: FormatTimestamp(b.now()),
	}, nil)
}
