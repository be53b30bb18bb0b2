package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"gradebook/internal/model"
)

const (
	DefaultTimeout = 5 * time.Second
	DefaultRetries = 2
	defaultBackoff = 200 * time.Millisecond
)

// Client talks to the records API.
type Client struct {
	baseURL string
	http    *http.Client
	retries int
	backoff time.Duration
}

type Option func(*Client)

// WithRetries sets how many times a transport failure on an idempotent
// request is retried.
func WithRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.retries = n
		}
	}
}

// WithBackoff sets the base delay between retries. Attempt n waits n*d.
func WithBackoff(d time.Duration) Option {
	return func(c *Client) { c.backoff = d }
}

// WithHTTPClient replaces the underlying http.Client. Its Timeout is kept.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		retries: DefaultRetries,
		backoff: defaultBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) List(ctx context.Context) ([]model.Record, error) {
	var res model.Result
	if err := c.call(ctx, "list", http.MethodGet, "/records", nil, &res); err != nil {
		return nil, err
	}
	if res.Data == nil {
		return []model.Record{}, nil
	}
	return res.Data, nil
}

func (c *Client) Create(ctx context.Context, draft model.Draft) (model.Record, error) {
	var res model.Result
	if err := c.call(ctx, "create", http.MethodPost, "/records", draft, &res); err != nil {
		return model.Record{}, err
	}
	if res.Record != nil {
		return *res.Record, nil
	}
	return draft.Record(res.NewID), nil
}

func (c *Client) Update(ctx context.Context, id uint, draft model.Draft) (model.Record, error) {
	var res model.Result
	if err := c.call(ctx, "update", http.MethodPut, fmt.Sprintf("/records/%d", id), draft, &res); err != nil {
		return model.Record{}, err
	}
	if res.Record != nil {
		return *res.Record, nil
	}
	return draft.Record(id), nil
}

func (c *Client) Delete(ctx context.Context, id uint) error {
	var res model.Result
	return c.call(ctx, "delete", http.MethodDelete, fmt.Sprintf("/records/%d", id), nil, &res)
}

func (c *Client) Stats(ctx context.Context) (model.Stats, error) {
	var stats model.Stats
	err := c.do(ctx, "stats", http.MethodGet, "/records/stats", nil, func(status int, body []byte) error {
		if status != http.StatusOK {
			return &TransportError{Op: "stats", Err: errors.Errorf("unexpected status %d", status)}
		}
		return decode("stats", body, &stats)
	})
	return stats, err
}

// call performs a request answered by a Result envelope and turns failure
// envelopes into *RemoteError.
func (c *Client) call(ctx context.Context, op, method, path string, in interface{}, res *model.Result) error {
	return c.do(ctx, op, method, path, in, func(status int, body []byte) error {
		if err := decode(op, body, res); err != nil {
			return err
		}
		if !res.Success {
			return &RemoteError{Status: status, Message: res.Message, Fields: res.Errors}
		}
		return nil
	})
}

func decode(op string, body []byte, out interface{}) error {
	if err := json.Unmarshal(body, out); err != nil {
		return &TransportError{Op: op, Err: errors.Wrap(err, "decoding response")}
	}
	return nil
}

// do sends the request, retrying transport failures of idempotent methods
// with a linearly growing delay, and hands any non-5xx answer to handle.
func (c *Client) do(ctx context.Context, op, method, path string, in interface{}, handle func(status int, body []byte) error) error {
	var payload []byte
	if in != nil {
		var err error
		if payload, err = json.Marshal(in); err != nil {
			return errors.Wrapf(err, "%s: encoding request", op)
		}
	}

	attempts := 1
	if idempotent(method) {
		attempts += c.retries
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return &TransportError{Op: op, Err: ctx.Err()}
			case <-time.After(time.Duration(attempt-1) * c.backoff):
			}
		}

		status, body, err := c.send(ctx, method, path, payload)
		if err != nil {
			lastErr = &TransportError{Op: op, Err: err}
			if ctx.Err() != nil {
				break
			}
			continue
		}
		return handle(status, body)
	}
	return lastErr
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, errors.Wrap(err, "reading response")
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return 0, nil, errors.Errorf("server answered %d", resp.StatusCode)
	}
	return resp.StatusCode, data, nil
}

func idempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}
