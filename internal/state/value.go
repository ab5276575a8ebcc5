// Package state provides thread-safe reactive state holders. A Value holds
// the latest value of a state slot and pushes updates to subscribers; a
// Replay keeps a bounded history of recent items for late joiners.
package state

import "sync"

// subscriberBuffer is the channel capacity given to each subscriber. Slow
// subscribers are coalesced rather than blocked: when a buffer is full the
// oldest queued update is dropped in favor of the newest one.
const subscriberBuffer = 16

// Value is a thread-safe holder for the latest value of type T. Subscribers
// receive the current value immediately on subscription, then every
// subsequent update. Late subscribers see the latest value only, not
// history.
type Value[T any] struct {
	mu   sync.Mutex
	cur  T
	subs map[int]chan T
	next int
}

// NewValue creates a Value holding the given initial value.
func NewValue[T any](initial T) *Value[T] {
	return &Value[T]{
		cur:  initial,
		subs: make(map[int]chan T),
	}
}

// Get returns the current value.
func (v *Value[T]) Get() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cur
}

// Set stores a new value and pushes it to all subscribers.
func (v *Value[T]) Set(val T) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.cur = val
	for _, ch := range v.subs {
		send(ch, val)
	}
}

// Update applies fn to the current value under the lock and pushes the
// result to all subscribers. It allows read-modify-write sequences (such as
// appending to a slice) without a race between Get and Set.
func (v *Value[T]) Update(fn func(T) T) T {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.cur = fn(v.cur)
	for _, ch := range v.subs {
		send(ch, v.cur)
	}
	return v.cur
}

// Subscribe registers a new subscriber and returns its channel together with
// a cancel function. The current value is delivered on the channel before
// Subscribe returns. The cancel function removes the subscription and closes
// the channel; it is safe to call more than once.
func (v *Value[T]) Subscribe() (<-chan T, func()) {
	v.mu.Lock()
	ch := make(chan T, subscriberBuffer)
	id := v.next
	v.next++
	v.subs[id] = ch
	ch <- v.cur
	v.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			v.mu.Lock()
			if c, ok := v.subs[id]; ok {
				delete(v.subs, id)
				close(c)
			}
			v.mu.Unlock()
		})
	}
	return ch, cancel
}

// send delivers val to ch without blocking. If the buffer is full the oldest
// queued update is discarded so the subscriber always converges on the
// latest value.
func send[T any](ch chan T, val T) {
	for {
		select {
		case ch <- val:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
