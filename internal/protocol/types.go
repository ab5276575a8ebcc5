// Package protocol defines the wire contract between the client and the
// debate service: REST request/response payloads, the room status enum, and
// the push-channel envelope format. All payloads are serialized as JSON.
package protocol

// ---------------------------------------------------------------------------
// Room status
// ---------------------------------------------------------------------------

// RoomStatus is the server-reported lifecycle state of a debate room.
type RoomStatus string

const (
	// StatusAlive is the normal in-progress state of a room.
	StatusAlive RoomStatus = "ALIVE"

	// StatusRequestFinish means one side has asked to end the debate.
	StatusRequestFinish RoomStatus = "REQUEST_FINISH"

	// StatusRequestAccept means the other side agreed to end the debate.
	StatusRequestAccept RoomStatus = "REQUEST_ACCEPT"

	// StatusDone means the room is closed and the verdict is retrievable.
	StatusDone RoomStatus = "DONE"
)

// ParseRoomStatus converts a server status string into a RoomStatus. Unknown
// strings fall back to StatusAlive so that a newer server cannot wedge an
// older client into an unrepresentable state.
func ParseRoomStatus(s string) RoomStatus {
	switch RoomStatus(s) {
	case StatusAlive, StatusRequestFinish, StatusRequestAccept, StatusDone:
		return RoomStatus(s)
	default:
		return StatusAlive
	}
}

// ---------------------------------------------------------------------------
// REST payloads
// ---------------------------------------------------------------------------

// Participant identifies one side of a debate room.
type Participant struct {
	ID       int64  `json:"id"`
	Nickname string `json:"nickname"`
}

// CreateRoomRequest is sent by the host to open a new room.
type CreateRoomRequest struct {
	Nickname string `json:"nickname"`
}

// JoinRoomRequest is sent by the guest to join an existing room via its
// human-shareable invite code.
type JoinRoomRequest struct {
	InviteCode string `json:"inviteCode"`
	Nickname   string `json:"nickname"`
}

// RoomResponse describes a room as returned by the create and join endpoints.
// Guest is nil until a second participant has joined; Ready flips to true
// once both participants are present.
type RoomResponse struct {
	RoomID     int64        `json:"roomId"`
	InviteCode string       `json:"inviteCode"`
	Host       Participant  `json:"host"`
	Guest      *Participant `json:"guest,omitempty"`
	Ready      bool         `json:"ready"`
}

// SendMessageRequest carries a single chat message to be appended to a room.
type SendMessageRequest struct {
	Content string `json:"content"`
}

// MessageDTO is a chat message as stored by the server. ID is a pointer
// because the server may omit it on messages that have not been assigned an
// id yet; such messages are ordered provisionally last by the client.
type MessageDTO struct {
	ID        *int64 `json:"messageId,omitempty"`
	SenderID  int64  `json:"senderId"`
	Sender    string `json:"sender"`
	Content   string `json:"content"`
	CreatedAt string `json:"createdAt"`
}

// IDOrZero returns the message id, or 0 when the server has not assigned one.
func (m MessageDTO) IDOrZero() int64 {
	if m.ID == nil {
		return 0
	}
	return *m.ID
}

// PollResponse is the result of a poll-since-cursor request. Scores maps
// participant nicknames to win-rate percentages; FinishRequester is the
// nickname of the side that asked to end the debate, if any.
type PollResponse struct {
	Messages        []MessageDTO   `json:"messages"`
	RoomStatus      string         `json:"roomStatus"`
	FinishRequester string         `json:"finishRequestUser,omitempty"`
	Scores          map[string]int `json:"winRates"`
}

// VerdictResponse is the AI-generated final judgement for a finished room.
// Logic and empathy scores are nominally 0-100 but are clamped client-side
// before use.
type VerdictResponse struct {
	Winner          string `json:"winner"`
	Loser           string `json:"loser"`
	WinnerLogic     int    `json:"winnerLogicScore"`
	WinnerEmpathy   int    `json:"winnerEmpathyScore"`
	LoserLogic      int    `json:"loserLogicScore"`
	LoserEmpathy    int    `json:"loserEmpathyScore"`
	Judgement       string `json:"judgement"`
	WinnerReasoning string `json:"winnerReasoning"`
	LoserReasoning  string `json:"loserReasoning"`
}

// ErrorResponse is the error payload the server attaches to non-2xx replies.
type ErrorResponse struct {
	Message string `json:"message"`
}
