// Package orch is the single coordinating component of the chat server.
//
// All room state (registry, directory, pending requests) is owned by the
// goroutine running Orchestrator.Run. Public operations submit closures to
// that loop. Room lookups, credential checks and blob writes happen outside
// the loop, so every operation re-validates the state it depends on when it
// re-enters. Message records, history reads and room status writes happen on
// the loop, ordered with the fan-out that depends on them.
package orch

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dkeye/Lobby/internal/app"
	"github.com/dkeye/Lobby/internal/core"
	"github.com/dkeye/Lobby/internal/domain"
	"github.com/rs/zerolog/log"
)

// ErrStopped is returned by operations submitted after Run has returned.
var ErrStopped = &domain.Error{Kind: domain.KindInternal, Msg: "Server shutting down"}

type Options struct {
	HistoryLimit int
	// PendingTTL expires unanswered join requests; zero disables expiry.
	PendingTTL time.Duration
	SweepEvery time.Duration
	Policy     app.Policy
	Now        func() time.Time
}

type Orchestrator struct {
	Registry *app.Registry
	Rooms    *app.Directory
	Pending  *app.PendingRequests
	Policy   app.Policy

	Store core.RoomStore
	Creds core.CredentialVerifier
	Blobs core.BlobStore

	historyLimit int
	pendingTTL   time.Duration
	sweepEvery   time.Duration
	now          func() time.Time

	cmds chan func()
	done chan struct{}
}

func New(store core.RoomStore, creds core.CredentialVerifier, blobs core.BlobStore, opts Options) *Orchestrator {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 200
	}
	if opts.Policy == nil {
		opts.Policy = app.SimplePolicy{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.SweepEvery <= 0 {
		opts.SweepEvery = opts.PendingTTL / 4
		if opts.SweepEvery < time.Second {
			opts.SweepEvery = time.Second
		}
	}
	return &Orchestrator{
		Registry:     app.NewRegistry(),
		Rooms:        app.NewDirectory(),
		Pending:      app.NewPendingRequests(),
		Policy:       opts.Policy,
		Store:        store,
		Creds:        creds,
		Blobs:        blobs,
		historyLimit: opts.HistoryLimit,
		pendingTTL:   opts.PendingTTL,
		sweepEvery:   opts.SweepEvery,
		now:          opts.Now,
		cmds:         make(chan func()),
		done:         make(chan struct{}),
	}
}

// Run is the loop that owns all room state. It returns when ctx is done,
// after closing every live connection.
func (o *Orchestrator) Run(ctx context.Context) {
	defer close(o.done)

	var sweep <-chan time.Time
	if o.pendingTTL > 0 {
		t := time.NewTicker(o.sweepEvery)
		defer t.Stop()
		sweep = t.C
	}

	log.Info().Str("module", "orch").Msg("orchestrator started")
	for {
		select {
		case <-ctx.Done():
			o.closeAll()
			log.Info().Str("module", "orch").Msg("orchestrator stopped")
			return
		case fn := <-o.cmds:
			fn()
		case <-sweep:
			o.expireRequests()
		}
	}
}

// exec runs fn on the loop and waits for it to finish.
func (o *Orchestrator) exec(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	select {
	case o.cmds <- func() { defer close(done); fn() }:
	case <-o.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	<-done
	return nil
}

func (o *Orchestrator) call(ctx context.Context, fn func() error) error {
	var err error
	if xerr := o.exec(ctx, func() { err = fn() }); xerr != nil {
		return xerr
	}
	return err
}

// Connect registers a fresh anonymous session.
func (o *Orchestrator) Connect(ctx context.Context, sess core.Session, cancel context.CancelFunc) error {
	return o.exec(ctx, func() { o.Registry.Bind(sess, cancel) })
}

// Disconnect removes every trace of sid. It is safe to call more than once.
func (o *Orchestrator) Disconnect(sid core.SessionID) {
	_ = o.exec(context.Background(), func() {
		e, ok := o.Registry.Unbind(sid)
		if !ok {
			return
		}
		for _, r := range o.Pending.OwnedBy(sid) {
			o.closeRequest(r, "abandoned")
		}
		if e.RoomID != "" {
			wasMember := o.Rooms.IsMember(e.RoomID, sid)
			o.Rooms.RemoveMember(e.RoomID, sid)
			o.Rooms.RemoveAdmin(e.RoomID, sid)
			if wasMember {
				o.deliver(e.RoomID, o.Rooms.MembersOf(e.RoomID), o.system(e.Member.Name+" left."))
			}
		}
		e.Session.Signal().Close()
		if e.Cancel != nil {
			e.Cancel()
		}
		log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(e.RoomID)).Msg("disconnected")
	})
}

// WhoAmI replies with the caller's name, role and room.
func (o *Orchestrator) WhoAmI(ctx context.Context, sid core.SessionID) error {
	return o.call(ctx, func() error {
		sess, ok := o.Registry.GetSession(sid)
		if !ok {
			return domain.ErrConnectionClosed
		}
		m, _ := o.Registry.Member(sid)
		room, _ := o.Registry.RoomOf(sid)
		o.send(sess, whoamiEvent{Type: EventWhoAmI, Sender: m.Name, Role: m.Role.String(), RoomID: room})
		return nil
	})
}

func (o *Orchestrator) closeAll() {
	sessions := o.Registry.Sessions()
	for _, s := range sessions {
		s.Signal().Close()
		o.Registry.Cancel(s.ID())
	}
	log.Info().Str("module", "orch").Int("count", len(sessions)).Msg("closed connections")
}

func (o *Orchestrator) system(text string) systemEvent {
	return systemEvent{Type: EventSystem, Text: text, Timestamp: o.now().UnixMilli()}
}

func encode(v any) (core.Frame, bool) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Msg("marshal event")
		return nil, false
	}
	return b, true
}

// send delivers one event to one peer. Failures are logged and swallowed.
func (o *Orchestrator) send(s core.Session, v any) {
	f, ok := encode(v)
	if !ok {
		return
	}
	if err := s.Signal().TrySend(f); err != nil {
		log.Warn().Err(err).Str("module", "orch").Str("sid", string(s.ID())).Msg("send dropped")
	}
}

// deliver fans one event out to targets. A full or closed peer never blocks
// the others; what happens to it is up to the Policy.
func (o *Orchestrator) deliver(room domain.RoomID, targets []core.Session, v any) core.PublishResult {
	res := core.PublishResult{}
	if len(targets) == 0 {
		return res
	}
	f, ok := encode(v)
	if !ok {
		return res
	}
	for _, s := range targets {
		if err := s.Signal().TrySend(f); err != nil {
			res.Dropped = append(res.Dropped, s)
			continue
		}
		res.SendTo++
	}
	for _, slow := range res.Dropped {
		switch o.Policy.OnBackPressure(room, slow) {
		case app.KickMember:
			log.Warn().Str("module", "orch").Str("sid", string(slow.ID())).Msg("kicking slow peer")
			slow.Signal().Close()
		case app.DropFrame, app.NoAction:
		}
	}
	log.Debug().Str("module", "orch").Str("room", string(room)).Int("sent_to", res.SendTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}
