package botclient

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
)

// Client performs the out-of-process move-request exchange with bots.
// Failures here are never fatal to a match: callers treat them as a
// missing move and let the deadline scheduler resolve without the bot.
type Client struct {
	http *fasthttp.Client

	defaultTimeout time.Duration
	retryMax       int
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.defaultTimeout = d }
}

func WithMaxConnsPerHost(n int) Option {
	return func(c *Client) { c.http.MaxConnsPerHost = n }
}

func WithRetry(max int) Option {
	return func(c *Client) { c.retryMax = max }
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		http:           &fasthttp.Client{ReadTimeout: 5 * time.Second, WriteTimeout: 5 * time.Second, MaxConnsPerHost: 32},
		defaultTimeout: 3 * time.Second,
		retryMax:       2,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RequestMove posts the board view to the bot's /move endpoint and
// decodes its answer.
func (c *Client) RequestMove(ctx context.Context, botURL string, view *BoardView) (*MoveResponse, error) {
	botURL = strings.TrimRight(strings.TrimSpace(botURL), "/")
	if botURL == "" {
		return nil, fmt.Errorf("empty bot url")
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(fasthttp.MethodPost)
	req.SetRequestURI(botURL + "/move")
	req.Header.SetContentType("application/json")

	payload, err := json.Marshal(view)
	if err != nil {
		return nil, fmt.Errorf("marshal board view: %w", err)
	}
	req.SetBody(payload)

	timeout := c.defaultTimeout
	if dl, ok := ctx.Deadline(); ok {
		if until := time.Until(dl); until < timeout {
			timeout = until
		}
	}
	if timeout <= 0 {
		return nil, context.DeadlineExceeded
	}

	attempts := c.retryMax
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lastErr = c.http.DoTimeout(req, resp, timeout)
		if lastErr == nil {
			break
		}
	}
	if lastErr != nil {
		return nil, fmt.Errorf("bot request: %w", lastErr)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("bot responded with status %d", resp.StatusCode())
	}

	var out MoveResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("malformed bot response: %w", err)
	}
	return &out, nil
}
