package session

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/aicourt/courtside/internal/metrics"
	"github.com/aicourt/courtside/internal/protocol"
	"github.com/aicourt/courtside/internal/result"
	"github.com/aicourt/courtside/internal/state"
)

// API is the slice of the transport client the controller depends on. The
// concrete implementation is api.Client; tests substitute fakes.
type API interface {
	SendMessage(ctx context.Context, roomID int64, content string) (*protocol.MessageDTO, error)
	Poll(ctx context.Context, roomID, after int64) (*protocol.PollResponse, error)
	RequestExit(ctx context.Context, roomID int64) error
	FinalJudgement(ctx context.Context, roomID int64) (*protocol.VerdictResponse, error)
}

// Controller binds a local client to a remote debate room. It owns the
// session lifecycle, runs the update feed in a background goroutine, and
// reconciles incoming batches into the observable state surfaces. All
// session state lives on the controller instance, so independent sessions
// (and tests) can coexist.
type Controller struct {
	api  API
	feed Feed
	log  *zap.Logger

	// mu serializes Connect and Disconnect so that two overlapping feeds can
	// never run for the same controller.
	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	roomID        int64
	participantID int64
	nickname      string

	connected atomic.Bool
	cursor    atomic.Int64

	messages        *state.Value[[]Message]
	winRate         *state.Value[WinRate]
	status          *state.Value[protocol.RoomStatus]
	finishRequester *state.Value[string]
	roomReady       *state.Value[bool]
	lastErr         *state.Value[error]
	verdict         *state.Value[result.Result[Verdict]]
}

// New creates a Controller using the given transport client and feed.
func New(api API, feed Feed, log *zap.Logger) *Controller {
	return &Controller{
		api:             api,
		feed:            feed,
		log:             log,
		messages:        state.NewValue[[]Message](nil),
		winRate:         state.NewValue(WinRate{Mine: 50, Theirs: 50}),
		status:          state.NewValue(protocol.StatusAlive),
		finishRequester: state.NewValue(""),
		roomReady:       state.NewValue(false),
		lastErr:         state.NewValue[error](nil),
		verdict:         state.NewValue(result.Pending[Verdict]()),
	}
}

// Connect validates and normalizes the room identifier, resets all session
// state, and starts the background feed. Calling Connect while already
// connected replaces the prior session: the old feed is cancelled and fully
// stopped before the new one starts.
func (c *Controller) Connect(roomCode string, participantID int64, nickname string) error {
	roomID, err := NormalizeRoomCode(roomCode)
	if err != nil {
		return err
	}
	if strings.TrimSpace(nickname) == "" {
		return ErrBlankNickname
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopLocked()

	c.roomID = roomID
	c.participantID = participantID
	c.nickname = nickname
	c.cursor.Store(0)
	c.messages.Set(nil)
	c.winRate.Set(WinRate{Mine: 50, Theirs: 50})
	c.status.Set(protocol.StatusAlive)
	c.finishRequester.Set("")
	c.roomReady.Set(false)
	c.lastErr.Set(nil)
	c.verdict.Set(result.Pending[Verdict]())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	c.cancel = cancel
	c.done = done
	c.connected.Store(true)
	metrics.ActiveSessions.Inc()

	go func() {
		defer close(done)
		c.feed.Run(ctx, roomID, c.cursor.Load, c.applyUpdate)
	}()

	c.log.Info("session connected",
		zap.Int64("room_id", roomID),
		zap.String("nickname", nickname))
	return nil
}

// Disconnect stops the feed and clears session-scoped state. It blocks until
// the feed goroutine has exited, so no state mutation happens after it
// returns. Disconnect is idempotent and safe to call when never connected.
func (c *Controller) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopLocked()
	c.roomID = 0
	c.participantID = 0
	c.nickname = ""
	c.cursor.Store(0)
}

// stopLocked cancels the running feed, if any, and waits for it to exit.
// Callers must hold c.mu.
func (c *Controller) stopLocked() {
	if c.cancel == nil {
		return
	}
	c.cancel()
	<-c.done
	c.cancel = nil
	c.done = nil
	c.connected.Store(false)
	metrics.ActiveSessions.Dec()
	c.log.Info("session disconnected", zap.Int64("room_id", c.roomID))
}

// SendMessage appends a message to the room. It fails fast with
// ErrNotConnected when no session is active and validates the content before
// any network call. The message is not inserted into local state here; it
// arrives through the next feed update, which keeps the local history
// consistent with what the server actually stored.
func (c *Controller) SendMessage(ctx context.Context, text string) error {
	if !c.connected.Load() {
		return ErrNotConnected
	}
	if err := ValidateContent(text); err != nil {
		return err
	}

	c.mu.Lock()
	roomID := c.roomID
	c.mu.Unlock()

	if _, err := c.api.SendMessage(ctx, roomID, text); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// RequestExit asks the server to end the debate. The status transition is
// observed through the feed.
func (c *Controller) RequestExit(ctx context.Context) error {
	if !c.connected.Load() {
		return ErrNotConnected
	}

	c.mu.Lock()
	roomID := c.roomID
	c.mu.Unlock()

	if err := c.api.RequestExit(ctx, roomID); err != nil {
		return fmt.Errorf("request exit: %w", err)
	}
	return nil
}

// FinalJudgement fetches the AI verdict for the given room. The verdict
// observable moves through pending -> success/failure; the verdict is not
// re-fetched unless this method is called again.
func (c *Controller) FinalJudgement(ctx context.Context, roomID int64) (Verdict, error) {
	c.verdict.Set(result.Pending[Verdict]())

	resp, err := c.api.FinalJudgement(ctx, roomID)
	if err != nil {
		c.verdict.Set(result.Fail[Verdict](err.Error()))
		return Verdict{}, fmt.Errorf("final judgement: %w", err)
	}

	v := verdictFrom(resp)
	c.verdict.Set(result.Ok(v))
	return v, nil
}

// Connected reports whether a session is active.
func (c *Controller) Connected() bool {
	return c.connected.Load()
}

// Cursor returns the highest message id admitted so far.
func (c *Controller) Cursor() int64 {
	return c.cursor.Load()
}

// Messages exposes the chat history as an observable. The list is
// append-only and ordered ascending by message id.
func (c *Controller) Messages() *state.Value[[]Message] { return c.messages }

// WinRate exposes the derived score pair as an observable.
func (c *Controller) WinRate() *state.Value[WinRate] { return c.winRate }

// Status exposes the room status as an observable.
func (c *Controller) Status() *state.Value[protocol.RoomStatus] { return c.status }

// FinishRequester exposes the nickname of the side that asked to end the
// debate, or the empty string.
func (c *Controller) FinishRequester() *state.Value[string] { return c.finishRequester }

// RoomReady exposes whether both participants are present (push path only;
// the polling path infers readiness from message traffic).
func (c *Controller) RoomReady() *state.Value[bool] { return c.roomReady }

// Err exposes the most recent feed error, or nil after a successful
// iteration. Feed errors are surfaced here and never stop the feed.
func (c *Controller) Err() *state.Value[error] { return c.lastErr }

// Verdict exposes the verdict fetch outcome as an observable.
func (c *Controller) Verdict() *state.Value[result.Result[Verdict]] { return c.verdict }

// applyUpdate reconciles one feed update into the observable state. It runs
// on the feed goroutine, which is the only writer of session state while a
// session is active. A failed iteration records the error and touches
// nothing else.
func (c *Controller) applyUpdate(u Update) {
	if u.Err != nil {
		c.lastErr.Set(u.Err)
		return
	}

	cursor := c.cursor.Load()
	fresh := filterNew(u.Messages, cursor)
	if len(fresh) > 0 {
		admitted := make([]Message, len(fresh))
		for i, m := range fresh {
			admitted[i] = c.toMessage(m)
		}
		c.messages.Update(func(cur []Message) []Message {
			next := make([]Message, 0, len(cur)+len(admitted))
			next = append(next, cur...)
			return append(next, admitted...)
		})
		c.cursor.Store(maxID(fresh, cursor))
		metrics.MessagesReceived.Add(float64(len(fresh)))
	}

	if u.Status != "" {
		c.status.Set(protocol.ParseRoomStatus(u.Status))
	}
	if u.FinishRequester != "" {
		c.finishRequester.Set(u.FinishRequester)
	}
	if u.RoomReady {
		c.roomReady.Set(true)
	}
	// Session identity fields are written only before the feed starts and
	// are stable until it has fully stopped, so the feed goroutine reads
	// them without the lock. Taking c.mu here would deadlock against
	// Disconnect, which holds it while waiting for the feed to exit.
	if wr, ok := reconcileScores(u.Scores, c.nickname); ok {
		c.winRate.Set(wr)
	}

	c.lastErr.Set(nil)
}

// toMessage maps a wire message into the domain shape, deriving Mine from
// the sender identity: the numeric sender id when present, the nickname
// otherwise. Runs on the feed goroutine; see applyUpdate for why the
// identity fields are read without the lock.
func (c *Controller) toMessage(m protocol.MessageDTO) Message {
	mine := false
	if m.SenderID != 0 {
		mine = m.SenderID == c.participantID
	} else {
		mine = m.Sender == c.nickname
	}
	return Message{
		ID:       m.IDOrZero(),
		SenderID: m.SenderID,
		Sender:   m.Sender,
		Content:  m.Content,
		SentAt:   m.CreatedAt,
		Mine:     mine,
	}
}

// NormalizeRoomCode strips separator characters from a human-entered room
// code and resolves it to the numeric room id. It returns ErrInvalidRoomCode
// when the remainder is not a positive integer.
func NormalizeRoomCode(code string) (int64, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '-', ' ', '_':
			return -1
		}
		return r
	}, code)

	id, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidRoomCode
	}
	return id, nil
}
