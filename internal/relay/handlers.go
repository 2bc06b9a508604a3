package relay

import (
	"fmt"

	"github.com/samber/lo"
)

// handleJoin sets the username, tells everyone else, then confirms to the
// sender. Repeated joins overwrite the name and announce again.
func (e *Engine) handleJoin(conn Conn, session *Session, evt JoinEvent) {
	name := lo.Ternary(evt.Username != "", evt.Username, AnonymousName)
	session.setUsername(name)

	e.broadcaster.Broadcast(SystemMessage{
		Type:      TypeSystem,
		Message:   fmt.Sprintf("%s joined the chat", name),
		Timestamp: e.timestamp(),
	}, conn)

	e.broadcaster.Send(conn, JoinedMessage{
		Type:      TypeJoined,
		Username:  name,
		Timestamp: e.timestamp(),
	})
}

// handleChat echoes the message to every connection, sender included.
func (e *Engine) handleChat(session *Session, evt ChatEvent) {
	e.broadcaster.Broadcast(ChatMessage{
		Type:      TypeChat,
		Username:  session.DisplayName(),
		Message:   evt.Message,
		Timestamp: e.timestamp(),
		ClientID:  session.ID,
	}, nil)
}

// handleTyping forwards the indicator to everyone but the sender.
func (e *Engine) handleTyping(conn Conn, session *Session, evt TypingEvent) {
	e.broadcaster.Broadcast(TypingMessage{
		Type:      TypeTyping,
		Username:  session.Username,
		IsTyping:  evt.IsTyping,
		Timestamp: e.timestamp(),
	}, conn)
}
