package core

import (
	"context"
	"io"

	"github.com/dkeye/Lobby/internal/domain"
)

// RoomStore is the durable record store for rooms and messages.
// GetRoom and SetRoomEnabled return domain.ErrRoomNotFound for unknown rooms;
// CreateRoom returns domain.ErrRoomExists for a taken identifier.
type RoomStore interface {
	GetRoom(ctx context.Context, id domain.RoomID) (*domain.Room, error)
	CreateRoom(ctx context.Context, room *domain.Room) error
	SetRoomEnabled(ctx context.Context, id domain.RoomID, enabled bool) error
	InsertMessage(ctx context.Context, msg *domain.Message) error
	// ListMessages returns at most limit of the newest messages, oldest first.
	ListMessages(ctx context.Context, id domain.RoomID, limit int) ([]domain.Message, error)
	DeleteMessages(ctx context.Context, id domain.RoomID) error
}

// CredentialVerifier is a one-way passphrase hash.
type CredentialVerifier interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

// Blob describes a stored upload.
type Blob struct {
	URL       string
	MediaType string
	Size      int64
}

// BlobStore persists uploaded files and hands out public URLs.
// Put returns domain.ErrUnsupportedMedia (keeping nothing) for content
// that is not image, video or audio. An empty mediaType is sniffed.
type BlobStore interface {
	Put(ctx context.Context, fileName, mediaType string, body io.Reader) (Blob, error)
	Delete(ctx context.Context, url string) error
}

// PublishResult reports delivery stats/backpressure of one fan-out.
type PublishResult struct {
	SendTo  int
	Dropped []Session
}

// RoomInfo is a read-only view of a room for APIs (no secrets).
type RoomInfo struct {
	ID      domain.RoomID `json:"roomId"`
	Enabled bool          `json:"enabled"`
	Members int           `json:"members"`
	Admins  int           `json:"admins"`
	Pending int           `json:"pending"`
}

// PendingView is the admin-facing view of a join request.
type PendingView struct {
	RequestID domain.RequestID `json:"requestId"`
	Sender    string           `json:"sender"`
	CreatedAt int64            `json:"createdAt"`
}
