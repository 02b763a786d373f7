package agui

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const maxErrorBody = 512

// Logger matches logging.Logger's signature.
type Logger interface {
	Printf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...any) {}

// Handler receives events in stream order. A non-nil error stops the run.
type Handler func(Event) error

// Client posts runs to one agent endpoint.
type Client struct {
	url    string
	http   *http.Client
	logger Logger
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithHTTPClient swaps the transport, mostly for tests.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger records run lifecycle lines.
func WithLogger(l Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient targets the agent at url.
func NewClient(url string, opts ...ClientOption) *Client {
	c := &Client{
		url:    strings.TrimSpace(url),
		http:   &http.Client{},
		logger: nopLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// URL returns the agent endpoint.
func (c *Client) URL() string {
	return c.url
}

// Run starts a run and feeds each event to handle until the stream ends,
// the run finishes or fails, handle returns an error, or ctx is cancelled.
// A RUN_ERROR is delivered to handle and then returned as *RunError.
func (c *Client) Run(ctx context.Context, input RunAgentInput, handle Handler) error {
	if c.url == "" {
		return errors.New("agui: agent url is empty")
	}
	body, err := json.Marshal(input)
	if err != nil {
		return fmt.Errorf("agui: encode input: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("agui: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	c.logger.Printf("agui: run %s on thread %s", input.RunID, input.ThreadID)
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("agui: post run: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}
	dec := NewDecoder(resp.Body)
	for {
		evt, err := dec.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return err
		}
		if handle != nil {
			if err := handle(evt); err != nil {
				return err
			}
		}
		switch evt.Type {
		case EventRunFinished:
			c.logger.Printf("agui: run %s finished", input.RunID)
			return nil
		case EventRunError:
			c.logger.Printf("agui: run %s failed: %s", input.RunID, evt.Message)
			return &RunError{Message: evt.Message, Code: evt.Code}
		}
	}
}
