package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/dkeye/Lobby/internal/core"
	"github.com/dkeye/Lobby/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ core.RoomStore = (*Store)(nil)

// setupTestStore creates an in-memory SQLite database for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenSQLite(":memory:", false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_Rooms(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	_, err := s.GetRoom(ctx, "r1")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)

	room := &domain.Room{ID: "r1", PassHash: "ph", AdminHash: "ah", Enabled: true}
	require.NoError(t, s.CreateRoom(ctx, room))
	assert.ErrorIs(t, s.CreateRoom(ctx, room), domain.ErrRoomExists)

	got, err := s.GetRoom(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, room, got)

	require.NoError(t, s.SetRoomEnabled(ctx, "r1", false))
	got, err = s.GetRoom(ctx, "r1")
	require.NoError(t, err)
	assert.False(t, got.Enabled)

	require.NoError(t, s.SetRoomEnabled(ctx, "r1", true))
	got, _ = s.GetRoom(ctx, "r1")
	assert.True(t, got.Enabled)

	assert.ErrorIs(t, s.SetRoomEnabled(ctx, "ghost", true), domain.ErrRoomNotFound)
}

func TestStore_MessagesOldestFirstAndBounded(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	now := time.Now()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.InsertMessage(ctx, domain.NewTextMessage("r1", "alice", fmt.Sprintf("m%d", i), now)))
	}
	file := domain.NewFileMessage("r2", "bob", "/uploads/x.png", "image/png", "x.png", now)
	require.NoError(t, s.InsertMessage(ctx, file))

	msgs, err := s.ListMessages(ctx, "r1", 3)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "m2", msgs[0].Text)
	assert.Equal(t, "m4", msgs[2].Text)
	assert.Equal(t, domain.KindText, msgs[0].Kind)
	assert.Equal(t, now.UnixMilli(), msgs[0].Timestamp)

	msgs, err = s.ListMessages(ctx, "r2", 10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, *file, msgs[0])
}

func TestStore_DeleteMessagesIsScoped(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.InsertMessage(ctx, domain.NewTextMessage("r1", "a", "x", time.Now())))
	require.NoError(t, s.InsertMessage(ctx, domain.NewTextMessage("r2", "b", "y", time.Now())))

	require.NoError(t, s.DeleteMessages(ctx, "r1"))

	msgs, err := s.ListMessages(ctx, "r1", 10)
	require.NoError(t, err)
	assert.Empty(t, msgs)
	msgs, err = s.ListMessages(ctx, "r2", 10)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)

	// deleting an empty room is fine
	require.NoError(t, s.DeleteMessages(ctx, "ghost"))
}
