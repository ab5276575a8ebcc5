// Package api implements the HTTP transport client for the debate service.
// It owns request construction, cookie-based session persistence, JSON
// decoding, and the mapping of every transport failure into an *Error with a
// human-readable message so that raw faults never cross the package boundary.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/aicourt/courtside/internal/protocol"
)

// Error is the uniform failure shape for all API calls. Status is the HTTP
// status code, or 0 when the request never produced a response.
type Error struct {
	Status  int
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("api: %s", e.Message)
	}
	return fmt.Sprintf("api: %s (status %d)", e.Message, e.Status)
}

// Client issues requests against the debate service REST API. The underlying
// http.Client carries a cookie jar so the server-assigned session cookie
// persists across calls. Client is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

// NewClient creates a Client for the given base URL. The timeout applies to
// every individual request in addition to any per-call context deadline.
func NewClient(baseURL string, timeout time.Duration, log *zap.Logger) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("api: failed to create cookie jar: %w", err)
	}
	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout: timeout,
			Jar:     jar,
		},
		log: log,
	}, nil
}

// CreateRoom opens a new room with the caller as host.
func (c *Client) CreateRoom(ctx context.Context, nickname string) (*protocol.RoomResponse, error) {
	var out protocol.RoomResponse
	err := c.doJSON(ctx, http.MethodPost, "/rooms", protocol.CreateRoomRequest{Nickname: nickname}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// JoinRoom joins an existing room via its invite code.
func (c *Client) JoinRoom(ctx context.Context, inviteCode, nickname string) (*protocol.RoomResponse, error) {
	var out protocol.RoomResponse
	err := c.doJSON(ctx, http.MethodPost, "/rooms/join", protocol.JoinRoomRequest{
		InviteCode: inviteCode,
		Nickname:   nickname,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// SendMessage appends a chat message to the room. The response echoes the
// stored message, but callers are expected to pick the new message up from
// the next poll rather than from this response.
func (c *Client) SendMessage(ctx context.Context, roomID int64, content string) (*protocol.MessageDTO, error) {
	var out protocol.MessageDTO
	path := "/rooms/" + strconv.FormatInt(roomID, 10) + "/messages"
	err := c.doJSON(ctx, http.MethodPost, path, protocol.SendMessageRequest{Content: content}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Poll fetches messages with id greater than after, together with the current
// room status, finish requester, and win-rate mapping.
func (c *Client) Poll(ctx context.Context, roomID, after int64) (*protocol.PollResponse, error) {
	var out protocol.PollResponse
	path := fmt.Sprintf("/rooms/%d/messages?after=%d", roomID, after)
	err := c.doJSON(ctx, http.MethodGet, path, nil, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// RequestExit asks the server to end the debate. The resulting status
// transition (REQUEST_FINISH and onwards) is observed via polling.
func (c *Client) RequestExit(ctx context.Context, roomID int64) error {
	path := "/rooms/" + strconv.FormatInt(roomID, 10) + "/exit"
	return c.doJSON(ctx, http.MethodPost, path, nil, nil)
}

// FinalJudgement retrieves the AI verdict for a finished room.
func (c *Client) FinalJudgement(ctx context.Context, roomID int64) (*protocol.VerdictResponse, error) {
	var out protocol.VerdictResponse
	path := "/rooms/" + strconv.FormatInt(roomID, 10) + "/judgement"
	err := c.doJSON(ctx, http.MethodGet, path, nil, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// doJSON performs a single JSON request/response round trip. A nil body sends
// no payload; a nil out discards the response body. All failure modes
// (network fault, non-2xx status, malformed payload) come back as *Error.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &Error{Message: fmt.Sprintf("failed to encode request: %v", err)}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &Error{Message: fmt.Sprintf("failed to build request: %v", err)}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return &Error{Message: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.errorFrom(resp)
	}

	if out == nil {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("malformed response: %v", err),
		}
	}
	return nil
}

// errorFrom builds an *Error from a non-2xx response, preferring the
// server-supplied message when the body carries one.
func (c *Client) errorFrom(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var payload protocol.ErrorResponse
	if err := json.Unmarshal(data, &payload); err == nil && payload.Message != "" {
		return &Error{Status: resp.StatusCode, Message: payload.Message}
	}
	return &Error{
		Status:  resp.StatusCode,
		Message: fmt.Sprintf("server returned %s", resp.Status),
	}
}
