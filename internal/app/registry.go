package app

import (
	"context"

	"github.com/dkeye/Lobby/internal/core"
	"github.com/dkeye/Lobby/internal/domain"
	"github.com/rs/zerolog/log"
)

type sessionEntry struct {
	Session core.Session
	Member  *domain.Member
	// RoomID is the room affiliation: empty until approved or admin-attached.
	RoomID domain.RoomID
	Admin  bool
	Cancel context.CancelFunc
}

// Registry tracks every live connection. It is confined to the orchestrator
// loop and is not safe for concurrent use.
type Registry struct {
	sessions map[core.SessionID]*sessionEntry
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[core.SessionID]*sessionEntry),
	}
}

func (r *Registry) Len() int { return len(r.sessions) }

func (r *Registry) Bind(sess core.Session, cancel context.CancelFunc) {
	r.sessions[sess.ID()] = &sessionEntry{
		Session: sess,
		Member:  domain.NewMember(),
		Cancel:  cancel,
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sess.ID())).Int("total", len(r.sessions)).Msg("bound session")
}

// Unbind removes the session and returns its last state. The second result
// is false when the session was already gone.
func (r *Registry) Unbind(sid core.SessionID) (sessionEntry, bool) {
	e, ok := r.sessions[sid]
	if !ok {
		return sessionEntry{}, false
	}
	delete(r.sessions, sid)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Int("total", len(r.sessions)).Msg("unbind session")
	return *e, true
}

func (r *Registry) GetSession(sid core.SessionID) (core.Session, bool) {
	if e, ok := r.sessions[sid]; ok {
		return e.Session, true
	}
	return nil, false
}

func (r *Registry) Member(sid core.SessionID) (domain.Member, bool) {
	if e, ok := r.sessions[sid]; ok {
		return *e.Member, true
	}
	return domain.Member{}, false
}

// RoomOf returns the room affiliation of sid.
func (r *Registry) RoomOf(sid core.SessionID) (domain.RoomID, bool) {
	e, ok := r.sessions[sid]
	if !ok || e.RoomID == "" {
		return "", false
	}
	return e.RoomID, true
}

func (r *Registry) IsAdmin(sid core.SessionID) bool {
	e, ok := r.sessions[sid]
	return ok && e.Admin
}

// UpdateName renames an unaffiliated session. Names are fixed once joined.
func (r *Registry) UpdateName(sid core.SessionID, name string) bool {
	e, ok := r.sessions[sid]
	if !ok || e.RoomID != "" {
		return false
	}
	e.Member.Name = name
	log.Debug().Str("module", "app.registry").Str("sid", string(sid)).Str("name", name).Msg("updated name")
	return true
}

func (r *Registry) SetRole(sid core.SessionID, role domain.Role) {
	if e, ok := r.sessions[sid]; ok {
		e.Member.Role = role
	}
}

// Join affiliates sid with room as a member.
func (r *Registry) Join(sid core.SessionID, room domain.RoomID) bool {
	e, ok := r.sessions[sid]
	if !ok {
		return false
	}
	e.RoomID = room
	if !e.Admin {
		e.Member.Role = domain.RoleMember
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("room", string(room)).Msg("joined room")
	return true
}

// AttachAdmin affiliates sid with room and raises the admin flag.
func (r *Registry) AttachAdmin(sid core.SessionID, room domain.RoomID) bool {
	e, ok := r.sessions[sid]
	if !ok {
		return false
	}
	e.RoomID = room
	e.Admin = true
	e.Member.Role = domain.RoleAdmin
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("room", string(room)).Msg("attached admin")
	return true
}

// RemoveRoom drops the room affiliation and the admin flag of sid.
func (r *Registry) RemoveRoom(sid core.SessionID) {
	if e, ok := r.sessions[sid]; ok {
		e.RoomID = ""
		e.Admin = false
		e.Member.Role = domain.RoleAnonymous
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("removed room association")
}

func (r *Registry) Cancel(sid core.SessionID) bool {
	e, ok := r.sessions[sid]
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("canceled session")
	return true
}

// Sessions returns every live session.
func (r *Registry) Sessions() []core.Session {
	out := make([]core.Session, 0, len(r.sessions))
	for _, e := range r.sessions {
		out = append(out, e.Session)
	}
	return out
}
