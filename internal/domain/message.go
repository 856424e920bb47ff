package domain

import (
	"strings"
	"time"
)

type MessageKind string

const (
	KindText MessageKind = "text"
	KindFile MessageKind = "file"
)

// Message is an append-only chat record. Timestamp is wall-clock milliseconds.
type Message struct {
	RoomID    RoomID
	Sender    string
	Kind      MessageKind
	Text      string
	URL       string
	MediaType string
	FileName  string
	Timestamp int64
}

func NewTextMessage(room RoomID, sender, text string, at time.Time) *Message {
	return &Message{
		RoomID:    room,
		Sender:    sender,
		Kind:      KindText,
		Text:      text,
		Timestamp: at.UnixMilli(),
	}
}

func NewFileMessage(room RoomID, sender, url, mediaType, fileName string, at time.Time) *Message {
	return &Message{
		RoomID:    room,
		Sender:    sender,
		Kind:      KindFile,
		URL:       url,
		MediaType: mediaType,
		FileName:  fileName,
		Timestamp: at.UnixMilli(),
	}
}

var allowedMediaPrefixes = []string{"image/", "video/", "audio/"}

// AllowedMediaType reports whether a declared media type may be posted to a room.
func AllowedMediaType(mediaType string) bool {
	mt := strings.ToLower(strings.TrimSpace(mediaType))
	for _, p := range allowedMediaPrefixes {
		if strings.HasPrefix(mt, p) {
			return true
		}
	}
	return false
}
