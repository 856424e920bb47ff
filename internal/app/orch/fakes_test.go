package orch

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/dkeye/Lobby/internal/core"
	"github.com/dkeye/Lobby/internal/domain"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu       sync.Mutex
	rooms    map[domain.RoomID]domain.Room
	messages []domain.Message
	failList error

	// hooks run before the matching call, outside the lock
	onInsert     func()
	onList       func()
	onSetEnabled func()
}

func runHook(h func()) {
	if h != nil {
		h()
	}
}

func newMemStore() *memStore {
	return &memStore{rooms: make(map[domain.RoomID]domain.Room)}
}

func (s *memStore) GetRoom(_ context.Context, id domain.RoomID) (*domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	return &r, nil
}

func (s *memStore) CreateRoom(_ context.Context, room *domain.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[room.ID]; ok {
		return domain.ErrRoomExists
	}
	s.rooms[room.ID] = *room
	return nil
}

func (s *memStore) SetRoomEnabled(_ context.Context, id domain.RoomID, enabled bool) error {
	runHook(s.onSetEnabled)
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	if !ok {
		return domain.ErrRoomNotFound
	}
	r.Enabled = enabled
	s.rooms[id] = r
	return nil
}

func (s *memStore) InsertMessage(_ context.Context, msg *domain.Message) error {
	runHook(s.onInsert)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, *msg)
	return nil
}

func (s *memStore) ListMessages(_ context.Context, id domain.RoomID, limit int) ([]domain.Message, error) {
	runHook(s.onList)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failList != nil {
		return nil, s.failList
	}
	var out []domain.Message
	for _, m := range s.messages {
		if m.RoomID == id {
			out = append(out, m)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (s *memStore) DeleteMessages(_ context.Context, id domain.RoomID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.messages[:0]
	for _, m := range s.messages {
		if m.RoomID != id {
			kept = append(kept, m)
		}
	}
	s.messages = kept
	return nil
}

func (s *memStore) count(id domain.RoomID) int {
	msgs, _ := s.ListMessages(context.Background(), id, 1<<20)
	return len(msgs)
}

// plainCreds "hashes" by prefixing.
type plainCreds struct{}

func (plainCreds) Hash(p string) (string, error) { return "hash:" + p, nil }
func (plainCreds) Verify(p, h string) bool      { return "hash:"+p == h }

type memBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
	onPut   func()
}

func newMemBlobs() *memBlobs { return &memBlobs{objects: make(map[string][]byte)} }

func (b *memBlobs) Put(_ context.Context, name, mediaType string, body io.Reader) (core.Blob, error) {
	runHook(b.onPut)
	if !domain.AllowedMediaType(mediaType) {
		return core.Blob{}, domain.ErrUnsupportedMedia
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return core.Blob{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	url := "/uploads/" + name
	b.objects[url] = data
	return core.Blob{URL: url, MediaType: mediaType, Size: int64(len(data))}, nil
}

func (b *memBlobs) Delete(_ context.Context, url string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, url)
	return nil
}

func (b *memBlobs) len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.objects)
}

var errFull = errors.New("full")

type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
	closed bool
	full   bool
}

func (c *fakeConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("closed")
	}
	if c.full {
		return errFull
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

type event map[string]any

func (e event) str(key string) string {
	s, _ := e[key].(string)
	return s
}

// drain returns and forgets every event received so far.
func (c *fakeConn) drain(t *testing.T) []event {
	t.Helper()
	c.mu.Lock()
	frames := c.frames
	c.frames = nil
	c.mu.Unlock()

	out := make([]event, 0, len(frames))
	for _, f := range frames {
		var ev event
		require.NoError(t, json.Unmarshal(f, &ev))
		out = append(out, ev)
	}
	return out
}

func types(evs []event) []string {
	out := make([]string, 0, len(evs))
	for _, ev := range evs {
		out = append(out, ev.str("type"))
	}
	return out
}

type fixture struct {
	o      *Orchestrator
	store  *memStore
	blobs  *memBlobs
	ctx    context.Context
	cancel context.CancelFunc
	now    time.Time
	nowMu  sync.Mutex
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	f := &fixture{store: newMemStore(), blobs: newMemBlobs(), now: time.UnixMilli(1_700_000_000_000)}
	if opts.Now == nil {
		opts.Now = f.clock
	}
	f.o = New(f.store, plainCreds{}, f.blobs, opts)
	f.ctx, f.cancel = context.WithCancel(context.Background())
	go f.o.Run(f.ctx)
	t.Cleanup(func() {
		f.cancel()
		<-f.o.done
	})
	return f
}

func (f *fixture) clock() time.Time {
	f.nowMu.Lock()
	defer f.nowMu.Unlock()
	f.now = f.now.Add(time.Millisecond)
	return f.now
}

func (f *fixture) advance(d time.Duration) {
	f.nowMu.Lock()
	defer f.nowMu.Unlock()
	f.now = f.now.Add(d)
}

func (f *fixture) room(t *testing.T, id, pass, admin string) {
	t.Helper()
	require.NoError(t, f.o.CreateRoom(f.ctx, id, pass, admin))
}

func (f *fixture) connect(t *testing.T, id string) *fakeConn {
	t.Helper()
	c := &fakeConn{}
	require.NoError(t, f.o.Connect(f.ctx, core.NewSession(core.SessionID(id), c), nil))
	return c
}

func (f *fixture) admin(t *testing.T, sid, room, pass string) *fakeConn {
	t.Helper()
	c := f.connect(t, sid)
	require.NoError(t, f.o.AttachAdmin(f.ctx, core.SessionID(sid), room, pass, "admin-"+sid))
	c.drain(t)
	return c
}

// join requests entry for sid and lets admin approve it.
func (f *fixture) join(t *testing.T, sid, name, room, pass string, admin core.SessionID, adminConn *fakeConn) *fakeConn {
	t.Helper()
	c := f.connect(t, sid)
	require.NoError(t, f.o.RequestJoin(f.ctx, core.SessionID(sid), room, pass, name))
	evs := adminConn.drain(t)
	require.NotEmpty(t, evs)
	reqID := evs[len(evs)-1].str("requestId")
	require.NoError(t, f.o.Approve(f.ctx, admin, reqID))
	c.drain(t)
	adminConn.drain(t)
	return c
}

func (f *fixture) pendingIDs(room domain.RoomID) []domain.RequestID {
	var out []domain.RequestID
	_ = f.o.exec(f.ctx, func() {
		for _, r := range f.o.Pending.ForRoom(room) {
			out = append(out, r.ID)
		}
	})
	return out
}

func (f *fixture) members(room domain.RoomID) []core.SessionID {
	var out []core.SessionID
	_ = f.o.exec(f.ctx, func() {
		for _, s := range f.o.Rooms.MembersOf(room) {
			out = append(out, s.ID())
		}
	})
	return out
}

