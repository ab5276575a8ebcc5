// Package session implements the room/chat session controller: it binds a
// local client to a remote debate room and keeps local chat, score, and
// status state eventually consistent with the server through an update feed
// (polling by default, push channel as an alternative). Session state has a
// single writer — the feed goroutine and the controller call paths — while
// observers read through thread-safe state holders.
package session

import "github.com/aicourt/courtside/internal/protocol"

// Message is a chat message as surfaced to observers. Mine is derived
// client-side by comparing the sender identity to the local participant.
// Messages are immutable once admitted to the history.
type Message struct {
	ID       int64
	SenderID int64
	Sender   string
	Content  string
	SentAt   string
	Mine     bool
}

// WinRate is the derived score pair for the two participants. The values are
// percentages clamped into [0,100] and nominally sum to 100; a missing
// counterpart is inferred as the complement of the known value.
type WinRate struct {
	Mine   int
	Theirs int
}

// Verdict is the AI-generated final judgement for a finished debate. Scores
// are clamped into [0,100] at decode time.
type Verdict struct {
	Winner          string
	Loser           string
	WinnerLogic     int
	WinnerEmpathy   int
	LoserLogic      int
	LoserEmpathy    int
	Judgement       string
	WinnerReasoning string
	LoserReasoning  string
}

// verdictFrom maps the wire verdict into the domain shape, clamping scores.
func verdictFrom(v *protocol.VerdictResponse) Verdict {
	return Verdict{
		Winner:          v.Winner,
		Loser:           v.Loser,
		WinnerLogic:     clampPercent(v.WinnerLogic),
		WinnerEmpathy:   clampPercent(v.WinnerEmpathy),
		LoserLogic:      clampPercent(v.LoserLogic),
		LoserEmpathy:    clampPercent(v.LoserEmpathy),
		Judgement:       v.Judgement,
		WinnerReasoning: v.WinnerReasoning,
		LoserReasoning:  v.LoserReasoning,
	}
}

// clampPercent clamps a score into the [0,100] range.
func clampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
