package domain

import "errors"

// Kind classifies a failure for the caller (HTTP status or control-channel error).
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindForbidden
	KindValidation
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error is a classified failure with a message that is safe to show to peers.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Err }

var (
	ErrRoomNotFound       = &Error{Kind: KindNotFound, Msg: "Room not found"}
	ErrRequestNotFound    = &Error{Kind: KindNotFound, Msg: "Request not found"}
	ErrRoomDisabled       = &Error{Kind: KindForbidden, Msg: "Room disabled"}
	ErrWrongPasskey       = &Error{Kind: KindForbidden, Msg: "Wrong passkey"}
	ErrWrongAdminPassword = &Error{Kind: KindForbidden, Msg: "Wrong admin password"}
	ErrWrongRoom          = &Error{Kind: KindForbidden, Msg: "Wrong room"}
	ErrNotAdmin           = &Error{Kind: KindForbidden, Msg: "Not admin"}
	ErrNotJoined          = &Error{Kind: KindForbidden, Msg: "Not joined"}
	ErrRequestExpired     = &Error{Kind: KindForbidden, Msg: "Request expired"}
	ErrAlreadyInRoom      = &Error{Kind: KindValidation, Msg: "Already in a room"}
	ErrMissingFields      = &Error{Kind: KindValidation, Msg: "Missing fields"}
	ErrInvalidRoomID      = &Error{Kind: KindValidation, Msg: "Invalid room id"}
	ErrUnknownAction      = &Error{Kind: KindValidation, Msg: "Unknown action"}
	ErrUnsupportedMedia   = &Error{Kind: KindValidation, Msg: "Only image, video and audio files are allowed"}
	ErrRateLimited        = &Error{Kind: KindValidation, Msg: "Slow down"}
	ErrRoomExists         = &Error{Kind: KindConflict, Msg: "Room already exists"}
	ErrConnectionClosed   = &Error{Kind: KindInternal, Msg: "Connection closed"}
)

// Internal wraps a collaborator failure. Peers only ever see "Internal error".
func Internal(err error) error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		return err
	}
	return &Error{Kind: KindInternal, Msg: "Internal error", Err: err}
}

// KindOf reports the classification of err. Unclassified errors are internal.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// MessageOf returns the peer-facing text for err.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Msg
	}
	return "Internal error"
}
