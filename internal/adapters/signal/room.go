package signal

import (
	"context"

	"github.com/dkeye/Lobby/internal/core"
	"github.com/dkeye/Lobby/internal/domain"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handleAdminAttach(
	ctx context.Context,
	sid core.SessionID,
	conn *WsSignalConn,
	data []byte,
) {
	type attachPayload struct {
		RoomID        string `json:"roomId"`
		AdminPassword string `json:"adminPassword"`
		Sender        string `json:"sender"`
	}
	var p attachPayload
	if !decode(sid, data, &p) {
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room_id", p.RoomID).Msg("admin attach")
	ctl.reply(sid, conn, ctl.Orch.AttachAdmin(ctx, sid, p.RoomID, p.AdminPassword, p.Sender))
}

func (ctl *SignalWSController) handleRequestJoin(
	ctx context.Context,
	sid core.SessionID,
	conn *WsSignalConn,
	data []byte,
) {
	type joinPayload struct {
		RoomID       string `json:"roomId"`
		RoomPassword string `json:"roomPassword"`
		Sender       string `json:"sender"`
	}
	var p joinPayload
	if !decode(sid, data, &p) {
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room_id", p.RoomID).Msg("request join")
	ctl.reply(sid, conn, ctl.Orch.RequestJoin(ctx, sid, p.RoomID, p.RoomPassword, p.Sender))
}

// handleResolve approves or denies a pending join request.
func (ctl *SignalWSController) handleResolve(
	ctx context.Context,
	sid core.SessionID,
	conn *WsSignalConn,
	data []byte,
	approve bool,
) {
	type resolvePayload struct {
		RequestID string `json:"requestId"`
	}
	var p resolvePayload
	if !decode(sid, data, &p) {
		return
	}
	if p.RequestID == "" {
		ctl.reply(sid, conn, domain.ErrMissingFields)
		return
	}
	var err error
	if approve {
		err = ctl.Orch.Approve(ctx, sid, p.RequestID)
	} else {
		err = ctl.Orch.Deny(ctx, sid, p.RequestID)
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("request_id", p.RequestID).Bool("approve", approve).Err(err).Msg("resolve")
	ctl.reply(sid, conn, err)
}

func (ctl *SignalWSController) handleChat(
	ctx context.Context,
	sid core.SessionID,
	conn *WsSignalConn,
	data []byte,
) {
	type chatPayload struct {
		Text string `json:"text"`
	}
	var p chatPayload
	if !decode(sid, data, &p) {
		return
	}
	if !ctl.Limiter.Allow(sid) {
		ctl.reply(sid, conn, domain.ErrRateLimited)
		return
	}
	ctl.reply(sid, conn, ctl.Orch.Chat(ctx, sid, p.Text))
}
