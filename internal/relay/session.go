package relay

import "time"

// AnonymousName is used whenever a session has no usable display name.
const AnonymousName = "Anonymous"

// Session is the mutable per-connection state.
type Session struct {
	ID          string
	Username    *string
	ConnectedAt time.Time
}

// Joined reports whether a join event has set a username.
func (s *Session) Joined() bool {
	return s.Username != nil
}

// DisplayName returns the username, or AnonymousName before the first join.
func (s *Session) DisplayName() string {
	if s.Username == nil || *s.Username == "" {
		return AnonymousName
	}
	return *s.Username
}

func (s *Session) setUsername(name string) {
	s.Username = &name
}
