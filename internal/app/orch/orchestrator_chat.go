package orch

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/dkeye/Lobby/internal/core"
	"github.com/dkeye/Lobby/internal/domain"
	"github.com/rs/zerolog/log"
)

// Chat stores a text message from a joined connection and broadcasts it.
// Blank text is dropped without error. The record is written on the loop so
// a concurrent disable either precedes it (rejected) or follows its broadcast.
func (o *Orchestrator) Chat(ctx context.Context, sid core.SessionID, text string) error {
	return o.call(ctx, func() error {
		room, ok := o.Registry.RoomOf(sid)
		if !ok {
			return domain.ErrNotJoined
		}
		if !o.roomOpen(room) {
			return domain.ErrRoomDisabled
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return nil
		}
		m, _ := o.Registry.Member(sid)
		msg := domain.NewTextMessage(room, m.Name, text, o.now())
		if err := o.Store.InsertMessage(ctx, msg); err != nil {
			return domain.Internal(err)
		}
		o.publish(msg)
		return nil
	})
}

// Upload is one file posted through the stateless upload path.
type Upload struct {
	RoomID       string
	RoomPassword string
	Sender       string
	FileName     string
	MediaType    string
	Body         io.Reader
}

// PostFile stores an uploaded file, records it and broadcasts it to the room.
func (o *Orchestrator) PostFile(ctx context.Context, up Upload) (*domain.Message, error) {
	id, err := domain.ParseRoomID(up.RoomID)
	if err != nil {
		return nil, err
	}
	if up.Body == nil {
		return nil, domain.ErrMissingFields
	}
	room, err := o.Store.GetRoom(ctx, id)
	if err != nil {
		return nil, domain.Internal(err)
	}
	if !room.Enabled {
		return nil, domain.ErrRoomDisabled
	}
	if !o.Creds.Verify(up.RoomPassword, room.PassHash) {
		return nil, domain.ErrWrongPasskey
	}
	if up.MediaType != "" && !domain.AllowedMediaType(up.MediaType) {
		return nil, domain.ErrUnsupportedMedia
	}

	blob, err := o.Blobs.Put(ctx, up.FileName, up.MediaType, up.Body)
	if err != nil {
		return nil, domain.Internal(err)
	}
	msg := domain.NewFileMessage(id, domain.NormalizeSender(up.Sender), blob.URL, blob.MediaType, filepath.Base(up.FileName), o.now())

	// the room may have been disabled while the blob was written
	if err := o.call(ctx, func() error {
		if !o.roomOpen(id) {
			return domain.ErrRoomDisabled
		}
		if err := o.Store.InsertMessage(ctx, msg); err != nil {
			return domain.Internal(err)
		}
		o.publish(msg)
		return nil
	}); err != nil {
		o.purge(ctx, blob.URL)
		return nil, err
	}
	return msg, nil
}

func (o *Orchestrator) purge(ctx context.Context, url string) {
	if err := o.Blobs.Delete(ctx, url); err != nil {
		log.Error().Err(err).Str("module", "orch").Str("url", url).Msg("purge blob")
	}
}

// roomOpen is false only when the room is known to be disabled.
func (o *Orchestrator) roomOpen(id domain.RoomID) bool {
	enabled, known := o.Rooms.Enabled(id)
	return !known || enabled
}

// publish fans a stored message out to the room.
func (o *Orchestrator) publish(msg *domain.Message) {
	o.deliver(msg.RoomID, o.Rooms.Audience(msg.RoomID), newMessageEvent(msg))
}
