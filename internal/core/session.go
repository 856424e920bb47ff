package core

type SessionID string

// Session binds a connection identity to its transport endpoint.
// This is what the registry and the room directory store and fan out to.
type Session interface {
	ID() SessionID
	Signal() SignalConnection
}

type session struct {
	id     SessionID
	signal SignalConnection
}

func NewSession(id SessionID, signal SignalConnection) Session {
	return &session{id: id, signal: signal}
}

func (s *session) ID() SessionID            { return s.id }
func (s *session) Signal() SignalConnection { return s.signal }
