package orch

import (
	"github.com/dkeye/Lobby/internal/core"
	"github.com/dkeye/Lobby/internal/domain"
)

// Outbound control-channel message types.
const (
	EventError         = "error"
	EventWaiting       = "waiting"
	EventJoined        = "joined"
	EventDenied        = "denied"
	EventAdminAttached = "admin-attached"
	EventPendingList   = "pending-list"
	EventHistory       = "history"
	EventJoinRequest   = "join-request"
	EventRequestClosed = "join-request-closed"
	EventChat          = "chat"
	EventFile          = "file"
	EventSystem        = "system"
	EventRoomStatus    = "room-status"
	EventChatCleared   = "chat-cleared"
	EventKicked        = "kicked"
	EventWhoAmI        = "whoami"
)

type errorEvent struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

func newErrorEvent(err error) errorEvent {
	return errorEvent{Type: EventError, Error: domain.MessageOf(err)}
}

type waitingEvent struct {
	Type      string           `json:"type"`
	RoomID    domain.RoomID    `json:"roomId"`
	RequestID domain.RequestID `json:"requestId"`
}

type joinedEvent struct {
	Type   string        `json:"type"`
	RoomID domain.RoomID `json:"roomId"`
	Sender string        `json:"sender"`
}

type deniedEvent struct {
	Type   string        `json:"type"`
	RoomID domain.RoomID `json:"roomId"`
}

type adminAttachedEvent struct {
	Type    string        `json:"type"`
	RoomID  domain.RoomID `json:"roomId"`
	Sender  string        `json:"sender"`
	Enabled bool          `json:"enabled"`
}

type pendingListEvent struct {
	Type     string             `json:"type"`
	Requests []core.PendingView `json:"requests"`
}

func newPendingList(reqs []*domain.JoinRequest) pendingListEvent {
	ev := pendingListEvent{Type: EventPendingList, Requests: make([]core.PendingView, 0, len(reqs))}
	for _, r := range reqs {
		ev.Requests = append(ev.Requests, pendingView(r))
	}
	return ev
}

func pendingView(r *domain.JoinRequest) core.PendingView {
	return core.PendingView{RequestID: r.ID, Sender: r.Sender, CreatedAt: r.CreatedAt.UnixMilli()}
}

type joinRequestEvent struct {
	Type string `json:"type"`
	core.PendingView
}

type requestClosedEvent struct {
	Type      string           `json:"type"`
	RequestID domain.RequestID `json:"requestId"`
}

// messageEvent is both the live chat/file broadcast and a history entry.
type messageEvent struct {
	Type      string `json:"type"`
	Sender    string `json:"sender"`
	Text      string `json:"text,omitempty"`
	URL       string `json:"url,omitempty"`
	MediaType string `json:"mediaType,omitempty"`
	FileName  string `json:"fileName,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

func newMessageEvent(m *domain.Message) messageEvent {
	ev := messageEvent{
		Type:      EventChat,
		Sender:    m.Sender,
		Timestamp: m.Timestamp,
	}
	switch m.Kind {
	case domain.KindFile:
		ev.Type = EventFile
		ev.URL = m.URL
		ev.MediaType = m.MediaType
		ev.FileName = m.FileName
	default:
		ev.Text = m.Text
	}
	return ev
}

type historyEvent struct {
	Type     string         `json:"type"`
	Messages []messageEvent `json:"messages"`
}

func newHistory(msgs []domain.Message) historyEvent {
	ev := historyEvent{Type: EventHistory, Messages: make([]messageEvent, 0, len(msgs))}
	for i := range msgs {
		ev.Messages = append(ev.Messages, newMessageEvent(&msgs[i]))
	}
	return ev
}

type systemEvent struct {
	Type      string `json:"type"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

type roomStatusEvent struct {
	Type    string        `json:"type"`
	RoomID  domain.RoomID `json:"roomId"`
	Enabled bool          `json:"enabled"`
}

type chatClearedEvent struct {
	Type   string        `json:"type"`
	RoomID domain.RoomID `json:"roomId"`
}

type kickedEvent struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

type whoamiEvent struct {
	Type   string        `json:"type"`
	Sender string        `json:"sender"`
	Role   string        `json:"role"`
	RoomID domain.RoomID `json:"roomId,omitempty"`
}
