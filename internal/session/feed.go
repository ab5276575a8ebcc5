package session

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/aicourt/courtside/internal/metrics"
	"github.com/aicourt/courtside/internal/protocol"
)

// Update is one batch of room state delivered by a feed. Zero-valued fields
// mean "no change": an empty status leaves the current status alone, a nil
// score map leaves the current win-rate alone, and so on. Err marks a failed
// iteration; failed iterations never carry state.
type Update struct {
	Messages        []protocol.MessageDTO
	Status          string
	FinishRequester string
	Scores          map[string]int
	RoomReady       bool
	Err             error
}

// Feed delivers room updates to the session controller. Run blocks until ctx
// is cancelled, invoking apply for every update. The cursor callback reports
// the highest message id already admitted, for feeds that poll since a
// cursor. Implementations must isolate failures at the iteration level: a
// failed iteration is reported through an Update with Err set, after which
// the feed keeps going.
type Feed interface {
	Run(ctx context.Context, roomID int64, cursor func() int64, apply func(Update))
}

// PollFeed is the default feed: a fixed-interval poll-since-cursor loop. On
// failure it backs off exponentially up to MaxBackoff but never stops — the
// only way to end the loop is cancelling the context. The backoff resets to
// the base interval after the next successful poll.
type PollFeed struct {
	API        API
	Interval   time.Duration // base poll interval; defaults to 1s
	MaxBackoff time.Duration // backoff cap; defaults to 30s
	Log        *zap.Logger
}

// NewPollFeed creates a PollFeed with the default 1s interval and 30s
// backoff cap.
func NewPollFeed(api API, log *zap.Logger) *PollFeed {
	return &PollFeed{
		API:        api,
		Interval:   time.Second,
		MaxBackoff: 30 * time.Second,
		Log:        log,
	}
}

// Run implements the Feed interface.
func (f *PollFeed) Run(ctx context.Context, roomID int64, cursor func() int64, apply func(Update)) {
	interval := f.Interval
	if interval <= 0 {
		interval = time.Second
	}
	maxBackoff := f.MaxBackoff
	if maxBackoff < interval {
		maxBackoff = interval
	}

	delay := interval
	timer := time.NewTimer(delay)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		start := time.Now()
		resp, err := f.API.Poll(ctx, roomID, cursor())
		metrics.PollLatency.Observe(time.Since(start).Seconds())

		if err != nil {
			if ctx.Err() != nil {
				return
			}
			metrics.PollCycles.WithLabelValues("error").Inc()
			f.Log.Warn("poll failed, retrying",
				zap.Int64("room_id", roomID),
				zap.Duration("retry_in", delay),
				zap.Error(err))
			apply(Update{Err: err})

			// Capped exponential backoff; reset on the next success.
			delay *= 2
			if delay > maxBackoff {
				delay = maxBackoff
			}
		} else {
			metrics.PollCycles.WithLabelValues("ok").Inc()
			apply(Update{
				Messages:        resp.Messages,
				Status:          resp.RoomStatus,
				FinishRequester: resp.FinishRequester,
				Scores:          resp.Scores,
			})
			delay = interval
		}

		timer.Reset(delay)
	}
}
