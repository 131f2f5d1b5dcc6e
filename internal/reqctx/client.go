package reqctx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
)

// ErrDisposed is returned by calls made after Dispose.
var ErrDisposed = errors.New("request context disposed")

type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	mu       sync.Mutex
	disposed bool
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{},
	}
}

func (c *Client) Get(ctx context.Context, url string, opts *Options) (*Response, error) {
	return c.do(ctx, http.MethodGet, url, opts)
}

func (c *Client) Post(ctx context.Context, url string, opts *Options) (*Response, error) {
	return c.do(ctx, http.MethodPost, url, opts)
}

func (c *Client) Put(ctx context.Context, url string, opts *Options) (*Response, error) {
	return c.do(ctx, http.MethodPut, url, opts)
}

func (c *Client) Patch(ctx context.Context, url string, opts *Options) (*Response, error) {
	return c.do(ctx, http.MethodPatch, url, opts)
}

func (c *Client) Delete(ctx context.Context, url string, opts *Options) (*Response, error) {
	return c.do(ctx, http.MethodDelete, url, opts)
}

func (c *Client) Head(ctx context.Context, url string, opts *Options) (*Response, error) {
	return c.do(ctx, http.MethodHead, url, opts)
}

func (c *Client) Fetch(ctx context.Context, url string, opts *Options) (*Response, error) {
	return c.do(ctx, MethodFor(opts), url, opts)
}

// Dispose closes idle connections. Further calls fail with ErrDisposed.
func (c *Client) Dispose(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return nil
	}
	c.disposed = true
	c.HTTPClient.CloseIdleConnections()
	return nil
}

func (c *Client) do(ctx context.Context, method, url string, opts *Options) (*Response, error) {
	c.mu.Lock()
	disposed := c.disposed
	c.mu.Unlock()
	if disposed {
		return nil, ErrDisposed
	}

	body, contentType, err := encodeData(opts)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.resolve(url), body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	// first occurrence of a name wins, as in generated scripts
	seen := make(map[string]struct{})
	for _, h := range NormalizeHeaders(opts) {
		key := http.CanonicalHeaderKey(h.Name)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		req.Header.Set(h.Name, h.Value)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	headers := make(map[string]string, len(resp.Header))
	for k, v := range resp.Header {
		headers[strings.ToLower(k)] = strings.Join(v, ", ")
	}

	return &Response{
		Status:  resp.StatusCode,
		Headers: headers,
		Body:    data,
	}, nil
}

func (c *Client) resolve(url string) string {
	if c.BaseURL == "" || strings.Contains(url, "://") {
		return url
	}
	return strings.TrimRight(c.BaseURL, "/") + "/" + strings.TrimLeft(url, "/")
}

func encodeData(opts *Options) (io.Reader, string, error) {
	if opts == nil || opts.Data == nil {
		return nil, "", nil
	}
	switch v := opts.Data.(type) {
	case string:
		return strings.NewReader(v), "text/plain; charset=utf-8", nil
	case []byte:
		return bytes.NewReader(v), "application/octet-stream", nil
	}
	b, err := json.Marshal(opts.Data)
	if err != nil {
		return nil, "", fmt.Errorf("encode request data: %w", err)
	}
	return bytes.NewReader(b), "application/json", nil
}
