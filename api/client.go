package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-Id"

	// maxResponseBytes bounds how much of a response body is read.
	maxResponseBytes = 1 << 20
)

// Client calls the word-battle RPC endpoint. Every operation is a POST of
// {funcName, data} to the same URL. There are no retries and no client-side
// timeout; callers cancel through ctx.
type Client struct {
	endpoint string
	http     *http.Client
}

// NewClient returns a client for endpoint (e.g. http://localhost:3000/dev/app).
// A nil httpClient uses a plain http.Client.
func NewClient(endpoint string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{endpoint: endpoint, http: httpClient}
}

// Endpoint returns the URL the client posts to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Call posts payload under funcName and decodes a 200 response into out.
// If out implements Validate() error, a validation failure is returned as an
// *APIError. Non-200 responses with a JSON body become *APIError; anything
// without a usable JSON body becomes *TransportError.
func (c *Client) Call(ctx context.Context, funcName FunctionName, payload, out any) error {
	body, err := json.Marshal(Envelope{FuncName: funcName, Data: payload})
	if err != nil {
		return fmt.Errorf("encode %s request: %w", funcName, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return &TransportError{FuncName: funcName, Err: err}
	}
	reqID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDHeader, reqID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		slog.Debug("call failed", "tag", "api", "func", funcName, "request_id", reqID, "err", err)
		return &TransportError{FuncName: funcName, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &TransportError{FuncName: funcName, Err: fmt.Errorf("read response: %w", err)}
	}
	slog.Debug("call done", "tag", "api", "func", funcName, "request_id", reqID,
		"status", resp.StatusCode, "elapsed", time.Since(start).Round(time.Millisecond))

	if resp.StatusCode != http.StatusOK {
		return failure(funcName, resp.StatusCode, data)
	}
	if out == nil {
		return nil
	}
	if !json.Valid(data) {
		return &TransportError{FuncName: funcName, Err: fmt.Errorf("response is not JSON")}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &APIError{FuncName: funcName, Status: resp.StatusCode, Message: fmt.Sprintf("invalid %s response: %v", funcName, err)}
	}
	if v, ok := out.(validator); ok {
		if err := v.Validate(); err != nil {
			return &APIError{FuncName: funcName, Status: resp.StatusCode, Message: fmt.Sprintf("invalid %s response: %v", funcName, err)}
		}
	}
	return nil
}

// failure classifies a non-200 response.
func failure(funcName FunctionName, status int, body []byte) error {
	if !json.Valid(body) {
		return &TransportError{FuncName: funcName, Err: fmt.Errorf("status %d with non-JSON body", status)}
	}
	var payload struct {
		Error any `json:"error"`
	}
	msg := UnknownErrorMessage
	if err := json.Unmarshal(body, &payload); err == nil {
		if s, ok := payload.Error.(string); ok && s != "" {
			msg = s
		}
	}
	return &APIError{FuncName: funcName, Status: status, Message: msg}
}

// RegisterUser creates a player and returns its record.
func (c *Client) RegisterUser(ctx context.Context, username, word string) (UserRecord, error) {
	var res UserResponse
	if err := c.Call(ctx, RegisterUserFunc, RegisterUserRequest{Username: username, Word: word}, &res); err != nil {
		return UserRecord{}, err
	}
	return *res.UserRecord, nil
}

// GetUser returns the record for id.
func (c *Client) GetUser(ctx context.Context, id string) (UserRecord, error) {
	var res UserResponse
	if err := c.Call(ctx, GetUserFunc, GetUserRequest{UUID: id}, &res); err != nil {
		return UserRecord{}, err
	}
	return *res.UserRecord, nil
}

// Battle starts a battle for id against a server-chosen opponent.
func (c *Client) Battle(ctx context.Context, id string) (BattleResult, error) {
	var res BattleResult
	if err := c.Call(ctx, BattleFunc, BattleRequest{UUID: id}, &res); err != nil {
		return BattleResult{}, err
	}
	return res, nil
}

// ListTopUsers returns the players of a leaderboard partition ("" for all).
func (c *Client) ListTopUsers(ctx context.Context, leaderboard string) ([]UserRecord, error) {
	var res ListTopUsersResponse
	if err := c.Call(ctx, ListTopUsersFunc, ListTopUsersRequest{Leaderboard: leaderboard}, &res); err != nil {
		return nil, err
	}
	return *res.UserRecords, nil
}

// GetBattle returns a past battle by pairing id and timestamp.
func (c *Client) GetBattle(ctx context.Context, id string, timestamp int64) (BattleResult, error) {
	var res BattleResult
	if err := c.Call(ctx, GetBattleFunc, GetBattleRequest{UUID: id, Timestamp: timestamp}, &res); err != nil {
		return BattleResult{}, err
	}
	return res, nil
}
