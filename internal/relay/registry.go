package relay

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// ErrAlreadyRegistered is returned when a connection is registered twice.
var ErrAlreadyRegistered = errors.New("connection already registered")

// Registry maps every live connection to its session. A connection is a key
// exactly while its channel is open.
type Registry struct {
	sessions map[Conn]*Session
	newID    func() string
	now      func() time.Time
}

// NewRegistry creates an empty registry that issues UUID session ids.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[Conn]*Session),
		newID:    uuid.NewString,
		now:      time.Now,
	}
}

// Register creates a fresh session for conn.
func (r *Registry) Register(conn Conn) (*Session, error) {
	if _, ok := r.sessions[conn]; ok {
		return nil, ErrAlreadyRegistered
	}

	session := &Session{
		ID:          r.newID(),
		ConnectedAt: r.now(),
	}
	r.sessions[conn] = session
	return session, nil
}

// Lookup returns the session registered for conn.
func (r *Registry) Lookup(conn Conn) (*Session, bool) {
	session, ok := r.sessions[conn]
	return session, ok
}

// Deregister removes conn and returns the session it had. Removing an
// unknown connection is not an error.
func (r *Registry) Deregister(conn Conn) (*Session, bool) {
	session, ok := r.sessions[conn]
	if !ok {
		return nil, false
	}
	delete(r.sessions, conn)
	return session, true
}

// Len returns the number of live connections.
func (r *Registry) Len() int {
	return len(r.sessions)
}

// ForEach calls visit for every entry. Iteration order is unspecified.
func (r *Registry) ForEach(visit func(Conn, *Session)) {
	for conn, session := range r.sessions {
		visit(conn, session)
	}
}

// Conns returns a snapshot of the registered connections.
func (r *Registry) Conns() []Conn {
	return lo.Keys(r.sessions)
}
