package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/aicourt/courtside/internal/protocol"
)

// collector gathers feed updates for assertions.
type collector struct {
	mu      sync.Mutex
	updates []Update
}

func (c *collector) apply(u Update) {
	c.mu.Lock()
	c.updates = append(c.updates, u)
	c.mu.Unlock()
}

func (c *collector) snapshot() []Update {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Update(nil), c.updates...)
}

func newTestPollFeed(api API) *PollFeed {
	f := NewPollFeed(api, zap.NewNop())
	f.Interval = time.Millisecond
	f.MaxBackoff = 4 * time.Millisecond
	return f
}

func TestPollFeedSurvivesFailedIterations(t *testing.T) {
	id := int64(1)
	api := &fakeAPI{script: []pollResult{
		{err: errors.New("boom 1")},
		{err: errors.New("boom 2")},
		{resp: &protocol.PollResponse{
			Messages:   []protocol.MessageDTO{{ID: &id, Content: "made it"}},
			RoomStatus: "ALIVE",
		}},
	}}

	feed := newTestPollFeed(api)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var c collector
	done := make(chan struct{})
	go func() {
		defer close(done)
		feed.Run(ctx, 42, func() int64 { return 0 }, c.apply)
	}()

	// Two failures followed by a success: the loop must keep going through
	// the failures and deliver the eventual payload.
	waitFor(t, func() bool {
		for _, u := range c.snapshot() {
			if u.Err == nil && len(u.Messages) == 1 {
				return true
			}
		}
		return false
	})

	var errCount int
	for _, u := range c.snapshot() {
		if u.Err != nil {
			errCount++
		}
	}
	if errCount < 2 {
		t.Errorf("expected both failures surfaced as error updates, got %d", errCount)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("feed did not stop after cancellation")
	}
}

func TestPollFeedUsesCursor(t *testing.T) {
	api := &fakeAPI{}
	feed := newTestPollFeed(api)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var c collector
	done := make(chan struct{})
	go func() {
		defer close(done)
		feed.Run(ctx, 42, func() int64 { return 41 }, c.apply)
	}()

	waitFor(t, func() bool {
		_, polls, _ := api.stats()
		return polls >= 2
	})
	cancel()
	<-done

	api.mu.Lock()
	defer api.mu.Unlock()
	for i, after := range api.afters {
		if after != 41 {
			t.Errorf("poll %d: expected after=41, got %d", i, after)
		}
	}
}

func TestPollFeedStopsOnCancel(t *testing.T) {
	api := &fakeAPI{}
	feed := newTestPollFeed(api)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		feed.Run(ctx, 42, func() int64 { return 0 }, func(Update) {})
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("feed did not stop after cancellation")
	}
}

func TestPollFeedBackoffIsCapped(t *testing.T) {
	api := &fakeAPI{script: []pollResult{{err: errors.New("always down")}}}

	feed := newTestPollFeed(api)
	feed.Interval = time.Millisecond
	feed.MaxBackoff = 2 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		feed.Run(ctx, 42, func() int64 { return 0 }, func(Update) {})
	}()

	// With an uncapped doubling delay only a handful of polls would fit in
	// the window; the cap keeps them coming.
	waitFor(t, func() bool {
		_, polls, _ := api.stats()
		return polls >= 10
	})
	cancel()
	<-done
}
