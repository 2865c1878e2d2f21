package cm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/roombridge/internal/core"
)

var ErrNoBaseURL = errors.New("cm base url is not configured")

// APIError is a call the conferencing backend refused.
type APIError struct {
	Method string
	Status int
	Reason string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("cm %s failed (%d): %s", e.Method, e.Status, e.Reason)
}

type request struct {
	Method string `json:"method"`
	Params any    `json:"params"`
}

type reply struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type subscribeParams struct {
	Channel     string `json:"channel"`
	StreamID    string `json:"streamId"`
	Start       int64  `json:"start"`
	SessionData string `json:"data"`
}

type removeStreamParams struct {
	Channel  string `json:"channel"`
	StreamID string `json:"streamId"`
}

// Client talks to the conferencing backend's JSON RPC endpoint.
type Client struct {
	baseURL string
	http    *http.Client
}

var _ core.ChannelAPI = (*Client)(nil)

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) Subscribe(ctx context.Context, channel, streamID string, start int64, sessionData string) error {
	return c.call(ctx, "subscribe", subscribeParams{
		Channel:     channel,
		StreamID:    streamID,
		Start:       start,
		SessionData: sessionData,
	})
}

func (c *Client) RemoveStream(ctx context.Context, channel, streamID string) error {
	return c.call(ctx, "removeStream", removeStreamParams{Channel: channel, StreamID: streamID})
}

func (c *Client) call(ctx context.Context, method string, params any) error {
	if c.baseURL == "" {
		return ErrNoBaseURL
	}
	body, err := json.Marshal(request{Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("encode cm %s: %w", method, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build cm %s: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("cm %s: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read cm %s reply: %w", method, err)
	}
	log.Debug().
		Str("module", "adapters.cm").
		Str("method", method).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("cm call")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Method: method, Status: resp.StatusCode, Reason: http.StatusText(resp.StatusCode)}
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	var r reply
	if err := json.Unmarshal(raw, &r); err != nil {
		return fmt.Errorf("decode cm %s reply: %w", method, err)
	}
	if r.Error != "" {
		return &APIError{Method: method, Status: resp.StatusCode, Reason: r.Error}
	}
	return nil
}
