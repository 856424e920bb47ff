package signal

import (
	"context"

	"github.com/dkeye/Lobby/internal/core"
)

func (ctl *SignalWSController) handlePing(
	conn *WsSignalConn,
) {
	resp := struct {
		Type string `json:"type"`
	}{
		Type: "pong",
	}
	ctl.sendJSON(conn, resp)
}

func (ctl *SignalWSController) handleWhoAmI(
	ctx context.Context,
	sid core.SessionID,
	conn *WsSignalConn,
) {
	ctl.reply(sid, conn, ctl.Orch.WhoAmI(ctx, sid))
}
