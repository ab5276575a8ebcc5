package state

import "sync"

// Replay is a goroutine-safe bounded replay buffer. It retains the last N
// items added, in insertion order, and uses a ring buffer internally. It
// backs the push-channel path, where a subscriber that attaches mid-stream
// needs the recent message events it missed.
type Replay[T any] struct {
	mu    sync.RWMutex
	items []T
	pos   int
	count int
}

// NewReplay creates a Replay retaining at most size items. Size must be
// positive.
func NewReplay[T any](size int) *Replay[T] {
	if size <= 0 {
		size = 1
	}
	return &Replay[T]{items: make([]T, size)}
}

// Add appends an item. If the buffer is full, the oldest item is overwritten.
func (r *Replay[T]) Add(item T) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[r.pos] = item
	r.pos = (r.pos + 1) % len(r.items)
	if r.count < len(r.items) {
		r.count++
	}
}

// Items returns the retained items in chronological order (oldest first).
func (r *Replay[T]) Items() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]T, r.count)
	// The oldest item is at position (pos - count) mod len.
	start := (r.pos - r.count + len(r.items)) % len(r.items)
	for i := 0; i < r.count; i++ {
		result[i] = r.items[(start+i)%len(r.items)]
	}
	return result
}

// Len returns the number of retained items.
func (r *Replay[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.count
}

// Reset discards all retained items.
func (r *Replay[T]) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pos = 0
	r.count = 0
}
