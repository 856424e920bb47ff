package app

import (
	"sort"

	"github.com/dkeye/Lobby/internal/core"
	"github.com/dkeye/Lobby/internal/domain"
	"github.com/rs/zerolog/log"
)

type roomSets struct {
	members map[core.SessionID]core.Session
	admins  map[core.SessionID]core.Session
}

func (s *roomSets) empty() bool { return len(s.members) == 0 && len(s.admins) == 0 }

// Directory maps room id to its member and admin-control connections and
// remembers the last known enabled flag of each room. Like Registry it is
// owned by the orchestrator loop.
type Directory struct {
	rooms   map[domain.RoomID]*roomSets
	enabled map[domain.RoomID]bool
}

func NewDirectory() *Directory {
	return &Directory{
		rooms:   make(map[domain.RoomID]*roomSets),
		enabled: make(map[domain.RoomID]bool),
	}
}

func (d *Directory) getOrCreate(id domain.RoomID) *roomSets {
	if rs, ok := d.rooms[id]; ok {
		return rs
	}
	rs := &roomSets{
		members: make(map[core.SessionID]core.Session),
		admins:  make(map[core.SessionID]core.Session),
	}
	d.rooms[id] = rs
	return rs
}

func (d *Directory) prune(id domain.RoomID) {
	if rs, ok := d.rooms[id]; ok && rs.empty() {
		delete(d.rooms, id)
	}
}

func (d *Directory) AddMember(id domain.RoomID, s core.Session) {
	d.getOrCreate(id).members[s.ID()] = s
	log.Debug().Str("module", "app.directory").Str("room", string(id)).Str("sid", string(s.ID())).Msg("member added")
}

func (d *Directory) RemoveMember(id domain.RoomID, sid core.SessionID) {
	rs, ok := d.rooms[id]
	if !ok {
		return
	}
	delete(rs.members, sid)
	d.prune(id)
	log.Debug().Str("module", "app.directory").Str("room", string(id)).Str("sid", string(sid)).Msg("member removed")
}

func (d *Directory) AddAdmin(id domain.RoomID, s core.Session) {
	d.getOrCreate(id).admins[s.ID()] = s
	log.Debug().Str("module", "app.directory").Str("room", string(id)).Str("sid", string(s.ID())).Msg("admin added")
}

func (d *Directory) RemoveAdmin(id domain.RoomID, sid core.SessionID) {
	rs, ok := d.rooms[id]
	if !ok {
		return
	}
	delete(rs.admins, sid)
	d.prune(id)
	log.Debug().Str("module", "app.directory").Str("room", string(id)).Str("sid", string(sid)).Msg("admin removed")
}

func (d *Directory) IsMember(id domain.RoomID, sid core.SessionID) bool {
	rs, ok := d.rooms[id]
	if !ok {
		return false
	}
	_, ok = rs.members[sid]
	return ok
}

func (d *Directory) MembersOf(id domain.RoomID) []core.Session {
	rs, ok := d.rooms[id]
	if !ok {
		return nil
	}
	return snapshot(rs.members)
}

func (d *Directory) AdminsOf(id domain.RoomID) []core.Session {
	rs, ok := d.rooms[id]
	if !ok {
		return nil
	}
	return snapshot(rs.admins)
}

// Audience is the union of members and admins of a room, each connection once.
func (d *Directory) Audience(id domain.RoomID) []core.Session {
	rs, ok := d.rooms[id]
	if !ok {
		return nil
	}
	all := make(map[core.SessionID]core.Session, len(rs.members)+len(rs.admins))
	for sid, s := range rs.members {
		all[sid] = s
	}
	for sid, s := range rs.admins {
		all[sid] = s
	}
	return snapshot(all)
}

func (d *Directory) Counts(id domain.RoomID) (members, admins int) {
	rs, ok := d.rooms[id]
	if !ok {
		return 0, 0
	}
	return len(rs.members), len(rs.admins)
}

// SetEnabled records a lifecycle transition. It always wins over SeedEnabled.
func (d *Directory) SetEnabled(id domain.RoomID, enabled bool) {
	d.enabled[id] = enabled
	log.Info().Str("module", "app.directory").Str("room", string(id)).Bool("enabled", enabled).Msg("room status")
}

// SeedEnabled records a status read from the store unless a lifecycle
// transition already set one.
func (d *Directory) SeedEnabled(id domain.RoomID, enabled bool) {
	if _, ok := d.enabled[id]; !ok {
		d.enabled[id] = enabled
	}
}

// Enabled returns the last known status; known is false if none was recorded.
func (d *Directory) Enabled(id domain.RoomID) (enabled, known bool) {
	enabled, known = d.enabled[id]
	return enabled, known
}

func snapshot(m map[core.SessionID]core.Session) []core.Session {
	out := make([]core.Session, 0, len(m))
	for _, s := range m {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}
