package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/aicourt/courtside/internal/protocol"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL, 5*time.Second, zap.NewNop())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c, srv
}

func TestCreateRoom(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/rooms" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req protocol.CreateRoomRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Nickname != "alice" {
			t.Errorf("expected nickname alice, got %q", req.Nickname)
		}
		json.NewEncoder(w).Encode(protocol.RoomResponse{
			RoomID:     12,
			InviteCode: "483-921",
			Host:       protocol.Participant{ID: 1, Nickname: "alice"},
		})
	}))

	room, err := c.CreateRoom(context.Background(), "alice")
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	if room.RoomID != 12 || room.InviteCode != "483-921" {
		t.Errorf("unexpected room: %+v", room)
	}
	if room.Ready {
		t.Error("room should not be ready before a guest joins")
	}
}

func TestPollSendsCursor(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rooms/12/messages" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("after"); got != "41" {
			t.Errorf("expected after=41, got %q", got)
		}
		json.NewEncoder(w).Encode(protocol.PollResponse{
			RoomStatus: "ALIVE",
			Scores:     map[string]int{"alice": 60, "bob": 40},
		})
	}))

	resp, err := c.Poll(context.Background(), 12, 41)
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if resp.RoomStatus != "ALIVE" {
		t.Errorf("unexpected status: %q", resp.RoomStatus)
	}
	if resp.Scores["alice"] != 60 {
		t.Errorf("unexpected scores: %+v", resp.Scores)
	}
}

func TestSendMessageBody(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rooms/7/messages" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req protocol.SendMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Content != "I rest my case" {
			t.Errorf("unexpected content: %q", req.Content)
		}
		id := int64(99)
		json.NewEncoder(w).Encode(protocol.MessageDTO{ID: &id, Content: req.Content})
	}))

	msg, err := c.SendMessage(context.Background(), 7, "I rest my case")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if msg.IDOrZero() != 99 {
		t.Errorf("expected stored id 99, got %d", msg.IDOrZero())
	}
}

func TestServerErrorMessageSurfaced(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(protocol.ErrorResponse{Message: "room is full"})
	}))

	_, err := c.JoinRoom(context.Background(), "483921", "carol")
	if err == nil {
		t.Fatal("expected error")
	}

	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if apiErr.Status != http.StatusConflict {
		t.Errorf("expected status 409, got %d", apiErr.Status)
	}
	if apiErr.Message != "room is full" {
		t.Errorf("expected server message, got %q", apiErr.Message)
	}
}

func TestNonJSONErrorBody(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway exploded", http.StatusBadGateway)
	}))

	_, err := c.Poll(context.Background(), 1, 0)
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %T (%v)", err, err)
	}
	if apiErr.Status != http.StatusBadGateway {
		t.Errorf("expected status 502, got %d", apiErr.Status)
	}
	if apiErr.Message == "" {
		t.Error("expected a human-readable message")
	}
}

func TestMalformedSuccessPayload(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"messages": "definitely-not-a-list"`))
	}))

	_, err := c.Poll(context.Background(), 1, 0)
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %T (%v)", err, err)
	}
}

func TestRequestExitNoContent(t *testing.T) {
	var called bool
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if r.URL.Path != "/rooms/3/exit" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	if err := c.RequestExit(context.Background(), 3); err != nil {
		t.Fatalf("RequestExit: %v", err)
	}
	if !called {
		t.Error("exit endpoint was never hit")
	}
}

func TestCookiePersistsAcrossCalls(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/rooms":
			http.SetCookie(w, &http.Cookie{Name: "JSESSIONID", Value: "abc123"})
			json.NewEncoder(w).Encode(protocol.RoomResponse{RoomID: 1})
		default:
			cookie, err := r.Cookie("JSESSIONID")
			if err != nil || cookie.Value != "abc123" {
				t.Errorf("session cookie not carried: %v", err)
			}
			json.NewEncoder(w).Encode(protocol.PollResponse{RoomStatus: "ALIVE"})
		}
	}))

	if _, err := c.CreateRoom(context.Background(), "alice"); err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	if _, err := c.Poll(context.Background(), 1, 0); err != nil {
		t.Fatalf("Poll: %v", err)
	}
}
