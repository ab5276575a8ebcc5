package session

import "errors"

var (
	// ErrNotConnected is returned by operations that require an active
	// session when none exists.
	ErrNotConnected = errors.New("session: not connected")

	// ErrInvalidRoomCode is returned when a room identifier does not resolve
	// to a numeric room id after normalization.
	ErrInvalidRoomCode = errors.New("session: invalid room code")

	// ErrBlankNickname is returned when the local nickname is empty or
	// whitespace only.
	ErrBlankNickname = errors.New("session: nickname is blank")
)
