package domain

import (
	"time"

	"github.com/google/uuid"
)

type RequestID string

// JoinRequest is an outstanding admission attempt. Owner is the opaque
// identifier of the requesting connection.
type JoinRequest struct {
	ID        RequestID
	Owner     string
	RoomID    RoomID
	Sender    string
	CreatedAt time.Time
	// Deadline is zero when requests never expire.
	Deadline time.Time
}

func NewJoinRequest(owner string, room RoomID, sender string, now time.Time, ttl time.Duration) *JoinRequest {
	req := &JoinRequest{
		ID:        RequestID(uuid.NewString()),
		Owner:     owner,
		RoomID:    room,
		Sender:    sender,
		CreatedAt: now,
	}
	if ttl > 0 {
		req.Deadline = now.Add(ttl)
	}
	return req
}

func (r *JoinRequest) Expired(now time.Time) bool {
	return !r.Deadline.IsZero() && !now.Before(r.Deadline)
}
