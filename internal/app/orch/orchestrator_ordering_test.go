package orch

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dkeye/Lobby/internal/core"
	"github.com/dkeye/Lobby/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// concurrently starts fn once, from inside a store call, and gives it time to
// reach the loop before the store call returns.
func concurrently(fn func() error) (hook func(), result <-chan error) {
	var once sync.Once
	ch := make(chan error, 1)
	return func() {
		once.Do(func() {
			go func() { ch <- fn() }()
			time.Sleep(20 * time.Millisecond)
		})
	}, ch
}

func TestChatRacingDisableIsDeliveredBeforeTheKick(t *testing.T) {
	f := newFixture(t, Options{})
	f.room(t, "r1", "p", "a")
	admin := f.admin(t, "ADM", "r1", "a")
	a := f.join(t, "A", "alice", "r1", "p", "ADM", admin)

	hook, disabled := concurrently(func() error {
		return f.o.RoomAction(f.ctx, "r1", "a", "disable")
	})
	f.store.onInsert = hook

	require.NoError(t, f.o.Chat(f.ctx, "A", "hi"))
	require.NoError(t, <-disabled)

	assert.Equal(t, 1, f.store.count("r1"))
	assert.Equal(t, []string{EventChat, EventKicked}, types(a.drain(t)))
	assert.Equal(t, []string{EventChat, EventRoomStatus}, types(admin.drain(t)))

	assert.ErrorIs(t, f.o.Chat(f.ctx, "A", "late"), domain.ErrNotJoined)
	assert.ErrorIs(t, f.o.Chat(f.ctx, "ADM", "late"), domain.ErrRoomDisabled)
	assert.Equal(t, 1, f.store.count("r1"), "nothing stored once disabled")
}

func TestPostFileRacingDisableIsRejectedAndPurged(t *testing.T) {
	f := newFixture(t, Options{})
	f.room(t, "r1", "p", "a")
	admin := f.admin(t, "ADM", "r1", "a")

	f.blobs.onPut = func() {
		require.NoError(t, f.o.RoomAction(f.ctx, "r1", "a", "disable"))
	}
	_, err := f.o.PostFile(f.ctx, Upload{
		RoomID: "r1", RoomPassword: "p", Sender: "carol",
		FileName: "cat.png", MediaType: "image/png", Body: strings.NewReader("png"),
	})
	assert.ErrorIs(t, err, domain.ErrRoomDisabled)
	assert.Equal(t, 0, f.blobs.len())
	assert.Equal(t, 0, f.store.count("r1"))
	assert.Equal(t, []string{EventRoomStatus}, types(admin.drain(t)))
}

func TestApproveRacingChatLeavesNoGap(t *testing.T) {
	f := newFixture(t, Options{})
	f.room(t, "r1", "p", "a")
	admin := f.admin(t, "ADM", "r1", "a")
	f.join(t, "A", "alice", "r1", "p", "ADM", admin)

	b := f.connect(t, "B")
	require.NoError(t, f.o.RequestJoin(f.ctx, "B", "r1", "p", "bob"))
	reqID := admin.drain(t)[0].str("requestId")
	b.drain(t)

	hook, chatted := concurrently(func() error {
		return f.o.Chat(f.ctx, "A", "meanwhile")
	})
	f.store.onList = hook

	require.NoError(t, f.o.Approve(f.ctx, "ADM", reqID))
	require.NoError(t, <-chatted)

	evs := b.drain(t)
	require.Equal(t, []string{EventJoined, EventHistory, EventSystem, EventChat}, types(evs))
	assert.Equal(t, "meanwhile", evs[3].str("text"))
	assert.Equal(t, 1, f.store.count("r1"))
}

func TestAttachAdminRacingChatLeavesNoGap(t *testing.T) {
	f := newFixture(t, Options{})
	f.room(t, "r1", "p", "a")
	admin := f.admin(t, "ADM", "r1", "a")
	f.join(t, "A", "alice", "r1", "p", "ADM", admin)

	late := f.connect(t, "LATE")
	hook, chatted := concurrently(func() error {
		return f.o.Chat(f.ctx, "A", "meanwhile")
	})
	f.store.onList = hook

	require.NoError(t, f.o.AttachAdmin(f.ctx, "LATE", "r1", "a", "boss"))
	require.NoError(t, <-chatted)

	evs := late.drain(t)
	require.Equal(t, []string{EventAdminAttached, EventPendingList, EventHistory, EventChat}, types(evs))
	assert.Equal(t, "meanwhile", evs[3].str("text"))
}

func TestConcurrentLifecycleActionsAgree(t *testing.T) {
	f := newFixture(t, Options{})
	f.room(t, "r1", "p", "a")
	admin := f.admin(t, "ADM", "r1", "a")

	hook, disabled := concurrently(func() error {
		return f.o.RoomAction(f.ctx, "r1", "a", "disable")
	})
	f.store.onSetEnabled = hook

	require.NoError(t, f.o.RoomAction(f.ctx, "r1", "a", "enable"))
	require.NoError(t, <-disabled)

	room, err := f.store.GetRoom(f.ctx, "r1")
	require.NoError(t, err)
	var enabled, known bool
	require.NoError(t, f.o.exec(f.ctx, func() { enabled, known = f.o.Rooms.Enabled("r1") }))
	require.True(t, known)
	assert.False(t, room.Enabled)
	assert.False(t, enabled)

	evs := admin.drain(t)
	require.Len(t, evs, 2)
	assert.Equal(t, true, evs[0]["enabled"])
	assert.Equal(t, false, evs[1]["enabled"])

	f.connect(t, "C")
	assert.ErrorIs(t, f.o.RequestJoin(f.ctx, "C", "r1", "p", "carol"), domain.ErrRoomDisabled)
	assert.ErrorIs(t, f.o.Chat(f.ctx, "ADM", "hello?"), domain.ErrRoomDisabled)
}

func TestShutdownCancelsSessionContexts(t *testing.T) {
	f := newFixture(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	c := &fakeConn{}
	require.NoError(t, f.o.Connect(f.ctx, core.NewSession("A", c), cancel))

	f.cancel()
	<-f.o.done

	assert.True(t, c.isClosed())
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}
