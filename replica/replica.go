// Package replica mirrors writes to a secondary database API. The channel is
// best-effort and at-most-once: a fixed timeout bounds every call, nothing is
// retried, and failures are logged but never surfaced to the caller.
package replica

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Timeout bounds each sync call. On expiry the result is discarded.
const Timeout = 5 * time.Second

// Client posts row changes to the sync endpoint. A nil client, or one built
// from an empty URL, is a no-op.
type Client struct {
	url  string
	http *http.Client
}

// New returns a sync client for the given endpoint URL. An empty URL
// disables syncing.
func New(url string) *Client {
	if url == "" {
		return nil
	}
	return &Client{url: url, http: &http.Client{Timeout: Timeout}}
}

type payload struct {
	Table      string `json:"table"`
	Action     string `json:"action"` // insert, update, delete
	Data       any    `json:"data"`
	PrimaryKey string `json:"primaryKey"`
}

// Sync mirrors one row change. It never returns an error: remote failures,
// bad statuses, and timeouts are logged and swallowed.
func (c *Client) Sync(table, action string, data any, primaryKey string) {
	if c == nil {
		return
	}
	if primaryKey == "" {
		primaryKey = "id"
	}

	body, err := json.Marshal(payload{Table: table, Action: action, Data: data, PrimaryKey: primaryKey})
	if err != nil {
		slog.Error("replica sync: marshal failed", "table", table, "action", action, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		slog.Error("replica sync: building request failed", "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		slog.Warn("replica sync failed", "table", table, "action", action, "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		slog.Warn("replica sync rejected", "table", table, "action", action,
			"status", resp.StatusCode, "body", string(msg))
		return
	}

	var result struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err == nil && result.Status == "error" {
		slog.Warn("replica sync api error", "table", table, "action", action, "message", result.Message)
	}
}

// SyncAsync fires Sync on its own goroutine so the caller never waits on the
// secondary system.
func (c *Client) SyncAsync(table, action string, data any, primaryKey string) {
	if c == nil {
		return
	}
	go c.Sync(table, action, data, primaryKey)
}
