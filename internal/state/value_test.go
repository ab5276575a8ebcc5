package state

import (
	"testing"
	"time"
)

func recv[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for value")
		panic("unreachable")
	}
}

func TestSubscribeDeliversCurrentValue(t *testing.T) {
	v := NewValue(41)

	ch, cancel := v.Subscribe()
	defer cancel()

	if got := recv(t, ch); got != 41 {
		t.Errorf("expected initial value 41, got %d", got)
	}
}

func TestSetPushesToSubscribers(t *testing.T) {
	v := NewValue("a")

	ch, cancel := v.Subscribe()
	defer cancel()
	recv(t, ch) // drain initial value

	v.Set("b")
	if got := recv(t, ch); got != "b" {
		t.Errorf("expected %q, got %q", "b", got)
	}
}

func TestLateSubscriberGetsLatestOnly(t *testing.T) {
	v := NewValue(1)
	v.Set(2)
	v.Set(3)

	ch, cancel := v.Subscribe()
	defer cancel()

	if got := recv(t, ch); got != 3 {
		t.Errorf("late subscriber should see latest value 3, got %d", got)
	}

	// No history replay: nothing else is queued.
	select {
	case extra := <-ch:
		t.Errorf("unexpected extra value %d", extra)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestCancelClosesChannel(t *testing.T) {
	v := NewValue(0)

	ch, cancel := v.Subscribe()
	recv(t, ch)
	cancel()
	cancel() // safe to call twice

	if _, ok := <-ch; ok {
		t.Error("expected channel to be closed after cancel")
	}

	// Further sets must not panic with the subscriber gone.
	v.Set(9)
}

func TestSlowSubscriberConvergesOnLatest(t *testing.T) {
	v := NewValue(0)

	ch, cancel := v.Subscribe()
	defer cancel()

	// Overflow the subscriber buffer without reading.
	for i := 1; i <= subscriberBuffer*3; i++ {
		v.Set(i)
	}

	var last int
	for {
		select {
		case got := <-ch:
			last = got
			continue
		default:
		}
		break
	}
	if last != subscriberBuffer*3 {
		t.Errorf("expected to converge on latest value %d, got %d", subscriberBuffer*3, last)
	}
}

func TestUpdateAppliesFunction(t *testing.T) {
	v := NewValue([]int{1})

	got := v.Update(func(cur []int) []int {
		next := make([]int, len(cur), len(cur)+1)
		copy(next, cur)
		return append(next, 2)
	})
	if len(got) != 2 || got[1] != 2 {
		t.Errorf("unexpected result: %v", got)
	}
	if cur := v.Get(); len(cur) != 2 {
		t.Errorf("expected stored value updated, got %v", cur)
	}
}
