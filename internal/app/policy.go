package app

import (
	"github.com/dkeye/Lobby/internal/core"
	"github.com/dkeye/Lobby/internal/domain"
)

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	KickMember
	DropFrame
)

// Policy decides what happens to a connection whose send buffer is full.
type Policy interface {
	OnBackPressure(room domain.RoomID, s core.Session) BackpressureAction
}

// SimplePolicy drops the frame for the slow peer and keeps it connected.
type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(domain.RoomID, core.Session) BackpressureAction {
	return DropFrame
}

// KickPolicy disconnects peers that cannot keep up.
type KickPolicy struct{}

func (KickPolicy) OnBackPressure(domain.RoomID, core.Session) BackpressureAction {
	return KickMember
}

// PolicyByName maps the "backpressure" config value to a Policy.
func PolicyByName(name string) Policy {
	if name == "kick" {
		return KickPolicy{}
	}
	return SimplePolicy{}
}
