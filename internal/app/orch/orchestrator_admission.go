package orch

import (
	"context"

	"github.com/dkeye/Lobby/internal/core"
	"github.com/dkeye/Lobby/internal/domain"
	"github.com/rs/zerolog/log"
)

// AttachAdmin turns sid into an admin-control connection for roomID and
// replays the outstanding requests and the history.
func (o *Orchestrator) AttachAdmin(ctx context.Context, sid core.SessionID, roomID, adminPassword, sender string) error {
	id, err := domain.ParseRoomID(roomID)
	if err != nil {
		return err
	}
	if err := o.call(ctx, func() error { return o.checkAttachable(sid, id) }); err != nil {
		return err
	}

	room, err := o.Store.GetRoom(ctx, id)
	if err != nil {
		return domain.Internal(err)
	}
	if !o.Creds.Verify(adminPassword, room.AdminHash) {
		return domain.ErrWrongAdminPassword
	}
	name := domain.NormalizeSender(sender)

	return o.call(ctx, func() error {
		if err := o.checkAttachable(sid, id); err != nil {
			return err
		}
		// read on the loop: nothing can be published between the read and AddAdmin
		history, err := o.Store.ListMessages(ctx, id, o.historyLimit)
		if err != nil {
			return domain.Internal(err)
		}
		sess, _ := o.Registry.GetSession(sid)
		for _, r := range o.Pending.OwnedBy(sid) {
			o.closeRequest(r, "owner attached as admin")
		}
		o.Rooms.SeedEnabled(id, room.Enabled)
		o.Registry.UpdateName(sid, name)
		o.Registry.AttachAdmin(sid, id)
		o.Rooms.AddAdmin(id, sess)

		m, _ := o.Registry.Member(sid)
		enabled, _ := o.Rooms.Enabled(id)
		o.send(sess, adminAttachedEvent{Type: EventAdminAttached, RoomID: id, Sender: m.Name, Enabled: enabled})
		o.send(sess, newPendingList(o.Pending.ForRoom(id)))
		o.send(sess, newHistory(history))
		log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(id)).Msg("admin attached")
		return nil
	})
}

func (o *Orchestrator) checkAttachable(sid core.SessionID, id domain.RoomID) error {
	if _, ok := o.Registry.GetSession(sid); !ok {
		return domain.ErrConnectionClosed
	}
	if room, ok := o.Registry.RoomOf(sid); ok && room != id {
		return domain.ErrAlreadyInRoom
	}
	return nil
}

// RequestJoin files a join request for roomID on behalf of sid and notifies
// the room's admins. The caller stays unaffiliated until an admin decides.
func (o *Orchestrator) RequestJoin(ctx context.Context, sid core.SessionID, roomID, roomPassword, sender string) error {
	id, err := domain.ParseRoomID(roomID)
	if err != nil {
		return err
	}
	if err := o.call(ctx, func() error { return o.checkUnaffiliated(sid) }); err != nil {
		return err
	}

	room, err := o.Store.GetRoom(ctx, id)
	if err != nil {
		return domain.Internal(err)
	}
	if !room.Enabled {
		return domain.ErrRoomDisabled
	}
	if !o.Creds.Verify(roomPassword, room.PassHash) {
		return domain.ErrWrongPasskey
	}
	name := domain.NormalizeSender(sender)

	return o.call(ctx, func() error {
		if err := o.checkUnaffiliated(sid); err != nil {
			return err
		}
		o.Rooms.SeedEnabled(id, room.Enabled)
		if enabled, _ := o.Rooms.Enabled(id); !enabled {
			return domain.ErrRoomDisabled
		}
		sess, _ := o.Registry.GetSession(sid)

		req := domain.NewJoinRequest(string(sid), id, name, o.now(), o.pendingTTL)
		o.Pending.Add(req)
		o.Registry.UpdateName(sid, name)
		o.Registry.SetRole(sid, domain.RolePending)

		o.send(sess, waitingEvent{Type: EventWaiting, RoomID: id, RequestID: req.ID})
		o.deliver(id, o.Rooms.AdminsOf(id), joinRequestEvent{Type: EventJoinRequest, PendingView: pendingView(req)})
		log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(id)).Str("request", string(req.ID)).Msg("join requested")
		return nil
	})
}

func (o *Orchestrator) checkUnaffiliated(sid core.SessionID) error {
	if _, ok := o.Registry.GetSession(sid); !ok {
		return domain.ErrConnectionClosed
	}
	if _, ok := o.Registry.RoomOf(sid); ok {
		return domain.ErrAlreadyInRoom
	}
	return nil
}

// resolvable checks that admin sid may decide on request id.
func (o *Orchestrator) resolvable(sid core.SessionID, id domain.RequestID) (*domain.JoinRequest, error) {
	if !o.Registry.IsAdmin(sid) {
		return nil, domain.ErrNotAdmin
	}
	req, ok := o.Pending.Get(id)
	if !ok {
		return nil, domain.ErrRequestNotFound
	}
	if room, _ := o.Registry.RoomOf(sid); room != req.RoomID {
		return nil, domain.ErrWrongRoom
	}
	return req, nil
}

// Approve admits the requester of id into the admin's room.
func (o *Orchestrator) Approve(ctx context.Context, sid core.SessionID, requestID string) error {
	id := domain.RequestID(requestID)
	return o.call(ctx, func() error {
		req, err := o.resolvable(sid, id)
		if err != nil {
			return err
		}
		// read on the loop: nothing can be published between the read and AddMember
		history, err := o.Store.ListMessages(ctx, req.RoomID, o.historyLimit)
		if err != nil {
			return domain.Internal(err)
		}
		o.closeRequest(req, "approved")

		owner := core.SessionID(req.Owner)
		sess, ok := o.Registry.GetSession(owner)
		if !ok {
			return nil
		}
		o.Registry.UpdateName(owner, req.Sender)
		o.Registry.Join(owner, req.RoomID)
		o.Rooms.AddMember(req.RoomID, sess)
		for _, other := range o.Pending.OwnedBy(owner) {
			o.closeRequest(other, "owner joined elsewhere")
		}

		o.send(sess, joinedEvent{Type: EventJoined, RoomID: req.RoomID, Sender: req.Sender})
		o.send(sess, newHistory(history))
		o.deliver(req.RoomID, o.Rooms.MembersOf(req.RoomID), o.system(req.Sender+" joined."))
		log.Info().Str("module", "orch").Str("sid", string(owner)).Str("room", string(req.RoomID)).Str("by", string(sid)).Msg("join approved")
		return nil
	})
}

// Deny rejects request id and drops the requester's connection.
func (o *Orchestrator) Deny(ctx context.Context, sid core.SessionID, requestID string) error {
	id := domain.RequestID(requestID)
	return o.call(ctx, func() error {
		req, err := o.resolvable(sid, id)
		if err != nil {
			return err
		}
		o.closeRequest(req, "denied")

		owner := core.SessionID(req.Owner)
		if sess, ok := o.Registry.GetSession(owner); ok {
			o.Registry.SetRole(owner, domain.RoleAnonymous)
			o.send(sess, deniedEvent{Type: EventDenied, RoomID: req.RoomID})
			sess.Signal().Close()
		}
		log.Info().Str("module", "orch").Str("sid", req.Owner).Str("room", string(req.RoomID)).Str("by", string(sid)).Msg("join denied")
		return nil
	})
}

// closeRequest removes req from the pending set and tells the room's admins.
func (o *Orchestrator) closeRequest(req *domain.JoinRequest, why string) {
	if _, ok := o.Pending.Take(req.ID); !ok {
		return
	}
	o.deliver(req.RoomID, o.Rooms.AdminsOf(req.RoomID), requestClosedEvent{Type: EventRequestClosed, RequestID: req.ID})
	log.Debug().Str("module", "orch").Str("request", string(req.ID)).Str("reason", why).Msg("request closed")
}

// expireRequests drops requests whose deadline has passed.
func (o *Orchestrator) expireRequests() {
	for _, req := range o.Pending.Expired(o.now()) {
		o.closeRequest(req, "expired")
		if sess, ok := o.Registry.GetSession(core.SessionID(req.Owner)); ok {
			o.send(sess, newErrorEvent(domain.ErrRequestExpired))
			sess.Signal().Close()
		}
	}
}
