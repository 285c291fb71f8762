// Package remote talks to a content document exposed over HTTP, such as the
// /api endpoints of another pagecms server.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-pagecms/pkg/content"
	"github.com/goliatone/go-pagecms/pkg/store"
)

// DefaultTimeout bounds each request when no client is supplied.
const DefaultTimeout = 30 * time.Second

const maxBody = 10 << 20

// Option customises a Client.
type Option func(*Client)

// WithToken sends token as a bearer credential.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithHTTPClient swaps the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the timeout of the default HTTP client. A client passed
// through WithHTTPClient keeps its own timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Client is a store backed by a remote HTTP document.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	timeout    time.Duration
	logger     *zap.Logger
}

var _ store.Store = (*Client)(nil)

// FieldUpdate is the PATCH body.
type FieldUpdate struct {
	Path  string `json:"path"`
	Value string `json:"value"`
}

// New returns a client for the document at baseURL + "/content".
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("remote: base URL is required")
	}
	c := &Client{
		baseURL: baseURL,
		timeout: DefaultTimeout,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.timeout}
	}
	return c, nil
}

// Load fetches and parses the remote document.
func (c *Client) Load(ctx context.Context) (content.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/content", nil)
	if err != nil {
		return content.Document{}, fmt.Errorf("remote: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return content.Document{}, fmt.Errorf("%w: get content: %v", store.ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if err := statusError(resp, "get content"); err != nil {
		return content.Document{}, err
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return content.Document{}, fmt.Errorf("%w: read content: %v", store.ErrUnavailable, err)
	}
	doc, err := content.Parse(data)
	if err != nil {
		return content.Document{}, fmt.Errorf("remote: parse content: %w", err)
	}
	return doc, nil
}

// UpdateField sends a single field update.
func (c *Client) UpdateField(ctx context.Context, path, value string) error {
	body, err := json.Marshal(FieldUpdate{Path: path, Value: value})
	if err != nil {
		return fmt.Errorf("remote: marshal update: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.baseURL+"/content", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("remote: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: update %q: %v", store.ErrUnavailable, path, err)
	}
	defer resp.Body.Close()
	if err := statusError(resp, "update "+path); err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))
	c.logger.Debug("remote field written", zap.String("path", path))
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func statusError(resp *http.Response, op string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	detail := strings.TrimSpace(string(msg))
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s: %s", store.ErrNotFound, op, detail)
	case resp.StatusCode == http.StatusConflict:
		return fmt.Errorf("%w: %s: %s", content.ErrPathConflict, op, detail)
	case resp.StatusCode == http.StatusBadRequest:
		return fmt.Errorf("%w: %s: %s", content.ErrInvalidPath, op, detail)
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: %s: status %d: %s", store.ErrUnavailable, op, resp.StatusCode, detail)
	default:
		return fmt.Errorf("remote: %s: status %d: %s", op, resp.StatusCode, detail)
	}
}
