package orch

import (
	"context"
	"errors"

	"github.com/dkeye/Lobby/internal/core"
	"github.com/dkeye/Lobby/internal/domain"
	"github.com/rs/zerolog/log"
)

const kickReason = "Room disabled by admin"

// CreateRoom registers a new room, enabled, with both passphrases hashed.
func (o *Orchestrator) CreateRoom(ctx context.Context, roomID, roomPassword, adminPassword string) error {
	id, err := domain.ParseRoomID(roomID)
	if err != nil {
		return err
	}
	if roomPassword == "" || adminPassword == "" {
		return domain.ErrMissingFields
	}

	if _, err := o.Store.GetRoom(ctx, id); err == nil {
		return domain.ErrRoomExists
	} else if !errors.Is(err, domain.ErrRoomNotFound) {
		return domain.Internal(err)
	}

	passHash, err := o.Creds.Hash(roomPassword)
	if err != nil {
		return domain.Internal(err)
	}
	adminHash, err := o.Creds.Hash(adminPassword)
	if err != nil {
		return domain.Internal(err)
	}
	room := &domain.Room{ID: id, PassHash: passHash, AdminHash: adminHash, Enabled: true}
	if err := o.Store.CreateRoom(ctx, room); err != nil {
		return domain.Internal(err)
	}
	log.Info().Str("module", "orch").Str("room", string(id)).Msg("room created")
	return nil
}

// RoomAction runs an admin lifecycle action after checking the admin passphrase.
func (o *Orchestrator) RoomAction(ctx context.Context, roomID, adminPassword, action string) error {
	id, err := domain.ParseRoomID(roomID)
	if err != nil {
		return err
	}
	room, err := o.Store.GetRoom(ctx, id)
	if err != nil {
		return domain.Internal(err)
	}
	if !o.Creds.Verify(adminPassword, room.AdminHash) {
		return domain.ErrWrongAdminPassword
	}
	act, err := domain.ParseAction(action)
	if err != nil {
		return err
	}

	switch act {
	case domain.ActionEnable:
		return o.enable(ctx, id)
	case domain.ActionDisable:
		return o.disable(ctx, id)
	default:
		return o.clear(ctx, id)
	}
}

// enable and disable write the store and the directory in one loop step so
// the two never disagree.
func (o *Orchestrator) enable(ctx context.Context, id domain.RoomID) error {
	return o.call(ctx, func() error {
		if err := o.Store.SetRoomEnabled(ctx, id, true); err != nil {
			return domain.Internal(err)
		}
		o.Rooms.SetEnabled(id, true)
		o.deliver(id, o.Rooms.Audience(id), roomStatusEvent{Type: EventRoomStatus, RoomID: id, Enabled: true})
		return nil
	})
}

// disable closes the room: members are kicked and outstanding requests
// refused. Admin-only connections stay attached.
func (o *Orchestrator) disable(ctx context.Context, id domain.RoomID) error {
	return o.call(ctx, func() error {
		if err := o.Store.SetRoomEnabled(ctx, id, false); err != nil {
			return domain.Internal(err)
		}
		o.Rooms.SetEnabled(id, false)
		o.deliver(id, o.Rooms.AdminsOf(id), roomStatusEvent{Type: EventRoomStatus, RoomID: id, Enabled: false})

		members := o.Rooms.MembersOf(id)
		for _, m := range members {
			o.evict(id, m)
		}

		requests := o.Pending.ForRoom(id)
		for _, req := range requests {
			o.closeRequest(req, "room disabled")
			if sess, ok := o.Registry.GetSession(core.SessionID(req.Owner)); ok {
				o.Registry.SetRole(sess.ID(), domain.RoleAnonymous)
				o.send(sess, newErrorEvent(domain.ErrRoomDisabled))
				sess.Signal().Close()
			}
		}
		log.Info().Str("module", "orch").Str("room", string(id)).Int("kicked", len(members)).Int("refused", len(requests)).Msg("room disabled")
		return nil
	})
}

func (o *Orchestrator) evict(id domain.RoomID, s core.Session) {
	o.send(s, kickedEvent{Type: EventKicked, Reason: kickReason})
	o.Rooms.RemoveMember(id, s.ID())
	o.Rooms.RemoveAdmin(id, s.ID())
	o.Registry.RemoveRoom(s.ID())
	s.Signal().Close()
}

func (o *Orchestrator) clear(ctx context.Context, id domain.RoomID) error {
	return o.call(ctx, func() error {
		if err := o.Store.DeleteMessages(ctx, id); err != nil {
			return domain.Internal(err)
		}
		o.deliver(id, o.Rooms.Audience(id), chatClearedEvent{Type: EventChatCleared, RoomID: id})
		log.Info().Str("module", "orch").Str("room", string(id)).Msg("history cleared")
		return nil
	})
}

// RoomInfo returns the public view of a room.
func (o *Orchestrator) RoomInfo(ctx context.Context, roomID string) (core.RoomInfo, error) {
	id, err := domain.ParseRoomID(roomID)
	if err != nil {
		return core.RoomInfo{}, err
	}
	room, err := o.Store.GetRoom(ctx, id)
	if err != nil {
		return core.RoomInfo{}, domain.Internal(err)
	}
	info := core.RoomInfo{ID: id, Enabled: room.Enabled}
	err = o.exec(ctx, func() {
		if enabled, known := o.Rooms.Enabled(id); known {
			info.Enabled = enabled
		}
		info.Members, info.Admins = o.Rooms.Counts(id)
		info.Pending = len(o.Pending.ForRoom(id))
	})
	return info, err
}
