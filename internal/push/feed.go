// Package push implements the push-channel feed: a per-room WebSocket
// carrying typed {type, payload} envelopes for message, score, and
// room-ready events. It is the alternative to the polling feed and has an
// independent reconnect/disconnect lifecycle with a bounded replay buffer
// for message events.
package push

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"go.uber.org/zap"

	"github.com/aicourt/courtside/internal/metrics"
	"github.com/aicourt/courtside/internal/protocol"
	"github.com/aicourt/courtside/internal/session"
	"github.com/aicourt/courtside/internal/state"
)

// DefaultReplaySize is the number of recent message events retained for
// subscribers that attach mid-stream.
const DefaultReplaySize = 16

// Config holds tunable parameters for the push feed.
type Config struct {
	// URL is the WebSocket base URL, e.g. "ws://localhost:8080". The
	// per-room channel path is appended to it.
	URL string

	// ReconnectWait is the initial delay before a reconnect attempt.
	ReconnectWait time.Duration

	// MaxReconnectWait caps the exponential reconnect backoff.
	MaxReconnectWait time.Duration

	// ReplaySize bounds the message event replay buffer.
	ReplaySize int
}

// DefaultConfig returns sensible defaults for the given base URL.
func DefaultConfig(url string) Config {
	return Config{
		URL:              url,
		ReconnectWait:    time.Second,
		MaxReconnectWait: 30 * time.Second,
		ReplaySize:       DefaultReplaySize,
	}
}

// Feed is a session.Feed backed by the per-room push channel.
type Feed struct {
	cfg    Config
	log    *zap.Logger
	replay *state.Replay[protocol.MessageDTO]
}

// NewFeed creates a push feed with the given configuration.
func NewFeed(cfg Config, log *zap.Logger) *Feed {
	if cfg.ReconnectWait <= 0 {
		cfg.ReconnectWait = time.Second
	}
	if cfg.MaxReconnectWait < cfg.ReconnectWait {
		cfg.MaxReconnectWait = cfg.ReconnectWait
	}
	if cfg.ReplaySize <= 0 {
		cfg.ReplaySize = DefaultReplaySize
	}
	return &Feed{
		cfg:    cfg,
		log:    log,
		replay: state.NewReplay[protocol.MessageDTO](cfg.ReplaySize),
	}
}

// Replay returns the recent message events retained by the feed, oldest
// first. Deduplication against the session cursor happens in the controller,
// so replayed events are safe to re-apply.
func (f *Feed) Replay() []protocol.MessageDTO {
	return f.replay.Items()
}

// Run implements the session.Feed interface. It dials the per-room channel,
// reads events until the connection drops, and reconnects with capped
// exponential backoff until ctx is cancelled. Connection failures are
// surfaced as error updates; they never terminate the feed.
func (f *Feed) Run(ctx context.Context, roomID int64, cursor func() int64, apply func(session.Update)) {
	f.replay.Reset()
	wait := f.cfg.ReconnectWait

	for {
		if ctx.Err() != nil {
			return
		}

		url := fmt.Sprintf("%s/rooms/%d/channel", f.cfg.URL, roomID)
		conn, _, _, err := ws.Dial(ctx, url)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			metrics.PushReconnects.Inc()
			f.log.Warn("push channel dial failed",
				zap.Int64("room_id", roomID),
				zap.Duration("retry_in", wait),
				zap.Error(err))
			apply(session.Update{Err: fmt.Errorf("push: dial failed: %w", err)})

			if !sleep(ctx, wait) {
				return
			}
			wait *= 2
			if wait > f.cfg.MaxReconnectWait {
				wait = f.cfg.MaxReconnectWait
			}
			continue
		}

		wait = f.cfg.ReconnectWait
		f.log.Info("push channel connected", zap.Int64("room_id", roomID))

		f.readLoop(ctx, conn, apply)

		if ctx.Err() != nil {
			return
		}
		metrics.PushReconnects.Inc()
		apply(session.Update{Err: fmt.Errorf("push: connection lost")})
		if !sleep(ctx, wait) {
			return
		}
	}
}

// readLoop reads events from one connection until it fails or ctx is
// cancelled. A goroutine watches ctx and closes the connection to unblock
// the read.
func (f *Feed) readLoop(ctx context.Context, conn net.Conn, apply func(session.Update)) {
	defer conn.Close()

	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-watchDone:
		}
	}()

	for {
		data, err := wsutil.ReadServerText(conn)
		if err != nil {
			if ctx.Err() == nil {
				f.log.Debug("push channel read failed", zap.Error(err))
			}
			return
		}

		update, ok := f.eventUpdate(data)
		if !ok {
			continue
		}
		apply(update)
	}
}

// eventUpdate maps raw envelope bytes into a session update. Unknown or
// malformed events are skipped; the channel is advisory and the polling
// contract remains the source of truth for anything it cannot express.
func (f *Feed) eventUpdate(data []byte) (session.Update, bool) {
	eventType, evt, err := protocol.ParseServerEvent(data)
	if err != nil {
		f.log.Debug("push channel event skipped",
			zap.String("type", eventType),
			zap.Error(err))
		return session.Update{}, false
	}

	switch e := evt.(type) {
	case protocol.MessageDTO:
		f.replay.Add(e)
		return session.Update{Messages: []protocol.MessageDTO{e}}, true
	case protocol.ScoreEvent:
		return session.Update{Scores: e.Scores}, true
	case protocol.RoomReadyEvent:
		return session.Update{RoomReady: e.Ready}, true
	default:
		return session.Update{}, false
	}
}

// sleep waits for d or until ctx is cancelled. It reports whether the full
// duration elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
