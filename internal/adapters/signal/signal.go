package signal

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/dkeye/Lobby/internal/app/orch"
	"github.com/dkeye/Lobby/internal/core"
	"github.com/dkeye/Lobby/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var ErrBackpressure = &domain.Error{Kind: domain.KindInternal, Msg: "backpressure"}

type Config struct {
	// ReadLimit caps a single inbound frame in bytes.
	ReadLimit  int64
	PingPeriod time.Duration
	WriteWait  time.Duration
	SendBuffer int

	ChatLimit    int
	ChatInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.ReadLimit <= 0 {
		c.ReadLimit = 32 << 10
	}
	if c.PingPeriod <= 0 {
		c.PingPeriod = 54 * time.Second
	}
	if c.WriteWait <= 0 {
		c.WriteWait = 5 * time.Second
	}
	if c.SendBuffer <= 0 {
		c.SendBuffer = 64
	}
	return c
}

// pongWait is how long a peer may stay silent before the read deadline hits.
func (c Config) pongWait() time.Duration {
	return c.PingPeriod * 10 / 9
}

type SignalWSController struct {
	Orch    *orch.Orchestrator
	Limiter *RateLimiter
	cfg     Config
}

func NewSignalWSController(o *orch.Orchestrator, cfg Config) *SignalWSController {
	cfg = cfg.withDefaults()
	return &SignalWSController{
		Orch:    o,
		Limiter: NewRateLimiter(cfg.ChatLimit, cfg.ChatInterval),
		cfg:     cfg,
	}
}

// WsSignalConn implements core.SignalConnection. Close only closes the send
// queue; the write pump flushes what is queued and then closes the socket.
type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return domain.ErrConnectionClosed
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleSignal upgrades the request and registers one anonymous session for
// the lifetime of the socket.
func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	sid := core.SessionID(uuid.NewString())
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("client", c.GetString("client_token")).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	conn := &WsSignalConn{
		conn: ws,
		send: make(chan core.Frame, ctl.cfg.SendBuffer),
	}

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)

	if err := ctl.Orch.Connect(ctx, core.NewSession(sid, conn), cancel); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("connect refused")
		conn.Close()
		cancel()
		return
	}
	go ctl.readPump(ctx, sid, conn)
}
