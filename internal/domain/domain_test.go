package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeSender(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"alice", "alice"},
		{"  bob  ", "bob"},
		{"", DefaultSender},
		{"   ", DefaultSender},
		{strings.Repeat("x", 25), strings.Repeat("x", 20)},
		{strings.Repeat("ж", 21), strings.Repeat("ж", 20)},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, NormalizeSender(tc.in), "input %q", tc.in)
	}
}

func TestAllowedMediaType(t *testing.T) {
	assert.True(t, AllowedMediaType("image/png"))
	assert.True(t, AllowedMediaType("Video/MP4"))
	assert.True(t, AllowedMediaType("audio/mpeg"))
	assert.False(t, AllowedMediaType("application/pdf"))
	assert.False(t, AllowedMediaType("text/plain"))
	assert.False(t, AllowedMediaType(""))
}

func TestParseAction(t *testing.T) {
	a, err := ParseAction(" Disable ")
	require.NoError(t, err)
	assert.Equal(t, ActionDisable, a)

	_, err = ParseAction("delete")
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestParseRoomID(t *testing.T) {
	id, err := ParseRoomID(" r1 ")
	require.NoError(t, err)
	assert.Equal(t, RoomID("r1"), id)

	_, err = ParseRoomID("")
	assert.ErrorIs(t, err, ErrMissingFields)

	_, err = ParseRoomID(strings.Repeat("a", MaxRoomIDLen+1))
	assert.ErrorIs(t, err, ErrInvalidRoomID)

	_, err = ParseRoomID("a/b")
	assert.ErrorIs(t, err, ErrInvalidRoomID)
}

func TestErrorClassification(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(ErrRoomNotFound))
	assert.Equal(t, KindConflict, KindOf(fmt.Errorf("create: %w", ErrRoomExists)))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))

	cause := errors.New("disk full")
	err := Internal(cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Internal error", MessageOf(err))
	assert.Equal(t, KindInternal, KindOf(err))

	// already classified errors pass through untouched
	assert.Same(t, ErrWrongPasskey, Internal(ErrWrongPasskey))
	assert.Nil(t, Internal(nil))
}

func TestJoinRequestDeadline(t *testing.T) {
	now := time.Now()

	req := NewJoinRequest("sid", "r1", "alice", now, 0)
	assert.NotEmpty(t, req.ID)
	assert.True(t, req.Deadline.IsZero())
	assert.False(t, req.Expired(now.Add(24*time.Hour)))

	req = NewJoinRequest("sid", "r1", "alice", now, time.Minute)
	assert.False(t, req.Expired(now.Add(30*time.Second)))
	assert.True(t, req.Expired(now.Add(time.Minute)))

	other := NewJoinRequest("sid", "r1", "alice", now, 0)
	assert.NotEqual(t, req.ID, other.ID)
}
