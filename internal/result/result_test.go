package result

import "testing"

func TestZeroValueIsPending(t *testing.T) {
	var r Result[int]
	if !r.IsPending() {
		t.Error("zero value should be pending")
	}
	if _, ok := r.Value(); ok {
		t.Error("pending result should not carry a value")
	}
}

func TestOk(t *testing.T) {
	r := Ok("verdict")

	if r.State() != StateSuccess {
		t.Errorf("expected success state, got %v", r.State())
	}
	v, ok := r.Value()
	if !ok || v != "verdict" {
		t.Errorf("expected value %q, got %q (ok=%v)", "verdict", v, ok)
	}
	if r.Message() != "" {
		t.Errorf("success result should have no message, got %q", r.Message())
	}
}

func TestFail(t *testing.T) {
	r := Fail[string]("server returned 502")

	if r.State() != StateFailure {
		t.Errorf("expected failure state, got %v", r.State())
	}
	if _, ok := r.Value(); ok {
		t.Error("failed result should not carry a value")
	}
	if r.Message() != "server returned 502" {
		t.Errorf("unexpected message: %q", r.Message())
	}
}

func TestPending(t *testing.T) {
	r := Pending[int]()
	if !r.IsPending() {
		t.Error("expected pending")
	}
	if r.Message() != "" {
		t.Error("pending result should have no message")
	}
}
