package domain

import (
	"strings"
	"unicode/utf8"
)

const MaxRoomIDLen = 64

type RoomID string

// Room is the durable room record. Hashes are opaque to the core.
type Room struct {
	ID        RoomID
	PassHash  string
	AdminHash string
	Enabled   bool
}

// Action is an administrative lifecycle operation on a room.
type Action string

const (
	ActionEnable  Action = "enable"
	ActionDisable Action = "disable"
	ActionClear   Action = "clear"
)

func ParseAction(s string) (Action, error) {
	switch a := Action(strings.ToLower(strings.TrimSpace(s))); a {
	case ActionEnable, ActionDisable, ActionClear:
		return a, nil
	default:
		return "", ErrUnknownAction
	}
}

// ParseRoomID trims and validates an externally chosen room identifier.
func ParseRoomID(s string) (RoomID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrMissingFields
	}
	if utf8.RuneCountInString(s) > MaxRoomIDLen || strings.ContainsAny(s, "/\\") {
		return "", ErrInvalidRoomID
	}
	return RoomID(s), nil
}
