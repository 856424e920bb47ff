package store

import (
	"time"

	"github.com/dkeye/Lobby/internal/domain"
)

type roomRecord struct {
	ID        string `gorm:"primaryKey;size:64"`
	PassHash  string `gorm:"not null"`
	AdminHash string `gorm:"not null"`
	Enabled   bool   `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (roomRecord) TableName() string { return "rooms" }

func (r roomRecord) toDomain() *domain.Room {
	return &domain.Room{
		ID:        domain.RoomID(r.ID),
		PassHash:  r.PassHash,
		AdminHash: r.AdminHash,
		Enabled:   r.Enabled,
	}
}

// messageRecord rows are ordered by their autoincrement ID.
type messageRecord struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	RoomID    string `gorm:"size:64;not null;index"`
	Sender    string `gorm:"size:32;not null"`
	Kind      string `gorm:"size:8;not null"`
	Text      string
	URL       string
	MediaType string `gorm:"size:128"`
	FileName  string `gorm:"size:255"`
	Timestamp int64 `gorm:"not null"`
}

func (messageRecord) TableName() string { return "messages" }

func fromMessage(m *domain.Message) *messageRecord {
	return &messageRecord{
		RoomID:    string(m.RoomID),
		Sender:    m.Sender,
		Kind:      string(m.Kind),
		Text:      m.Text,
		URL:       m.URL,
		MediaType: m.MediaType,
		FileName:  m.FileName,
		Timestamp: m.Timestamp,
	}
}

func (m messageRecord) toDomain() domain.Message {
	return domain.Message{
		RoomID:    domain.RoomID(m.RoomID),
		Sender:    m.Sender,
		Kind:      domain.MessageKind(m.Kind),
		Text:      m.Text,
		URL:       m.URL,
		MediaType: m.MediaType,
		FileName:  m.FileName,
		Timestamp: m.Timestamp,
	}
}
