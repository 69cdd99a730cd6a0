package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/matzehuels/carepath/pkg/buildinfo"
	"github.com/matzehuels/carepath/pkg/cache"
	"github.com/matzehuels/carepath/pkg/document"
	cperrors "github.com/matzehuels/carepath/pkg/errors"
	"github.com/matzehuels/carepath/pkg/observability"
	"github.com/matzehuels/carepath/pkg/store"
)

// DefaultTimeout bounds every request.
const DefaultTimeout = 10 * time.Second

// Client talks to the document service over HTTP. It implements
// [store.Persister].
//
// Reads are retried on transport failures and 5xx responses. Saves are sent
// exactly once; a failed save is reported to the caller, who decides whether
// to try again.
type Client struct {
	http    *http.Client
	baseURL string
	headers map[string]string
	backoff cache.Backoff
}

// Option configures a [Client].
type Option func(*Client)

// WithToken authenticates every request with a bearer token.
func WithToken(token string) Option {
	return func(c *Client) {
		if token != "" {
			c.headers["Authorization"] = "Bearer " + token
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.http = hc } }

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithBackoff enables retries of reads. Saves are never retried. Without
// this option every request is tried once.
func WithBackoff(b cache.Backoff) Option { return func(c *Client) { c.backoff = b } }

// New creates a client for the service rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if err := cperrors.ValidateURL(baseURL); err != nil {
		return nil, err
	}
	c := &Client{
		http:    &http.Client{Timeout: DefaultTimeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		headers: map[string]string{"Accept": "application/json", "User-Agent": buildinfo.UserAgent()},
		backoff: cache.Backoff{Attempts: 1},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// GetGraph fetches the graph record with the given id.
func (c *Client) GetGraph(ctx context.Context, id string) (document.Document, error) {
	var doc document.Document
	err := c.backoff.Retry(ctx, func() error {
		return c.do(ctx, http.MethodGet, "/algorithms/graph/"+url.PathEscape(id), nil, &doc)
	})
	return doc, unwrapRetry(err)
}

// GetAlgorithm fetches the algorithm header with the given id.
func (c *Client) GetAlgorithm(ctx context.Context, id string) (document.Algorithm, error) {
	var alg document.Algorithm
	err := c.backoff.Retry(ctx, func() error {
		return c.do(ctx, http.MethodGet, "/algorithms/"+url.PathEscape(id), nil, &alg)
	})
	return alg, unwrapRetry(err)
}

// PutGraph saves a graph and returns the server's update timestamp.
func (c *Client) PutGraph(ctx context.Context, id string, u document.Update) (time.Time, error) {
	var resp struct {
		UpdatedAt time.Time `json:"updated_at"`
	}
	if err := c.do(ctx, http.MethodPut, "/algorithms/graph/"+url.PathEscape(id), u, &resp); err != nil {
		return time.Time{}, unwrapRetry(err)
	}
	return resp.UpdatedAt, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, v any) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return cperrors.Wrap(cperrors.ErrCodeInternal, err, "encode request")
		}
		rd = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return cperrors.Wrap(cperrors.ErrCodeInvalidInput, err, "build request")
	}
	for k, val := range c.headers {
		req.Header.Set(k, val)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	hooks := observability.HTTP()
	host := req.URL.Host
	hooks.OnRequest(ctx, method, host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, method, host, path, err)
		code := cperrors.ErrCodeNetwork
		if ctx.Err() == context.DeadlineExceeded {
			code = cperrors.ErrCodeTimeout
		}
		return cache.Retryable(cperrors.Wrap(code, fmt.Errorf("%w: %v", cache.ErrNetwork, err), "%s %s", method, path))
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, method, host, path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp, method, path); err != nil {
		return err
	}
	if v == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return cperrors.Wrap(cperrors.ErrCodeParse, err, "decode %s %s", method, path)
	}
	return nil
}

func checkStatus(resp *http.Response, method, path string) error {
	code := resp.StatusCode
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return cperrors.New(cperrors.ErrCodeNotFound, "%s %s: not found", method, path)
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return cperrors.New(cperrors.ErrCodeUnauthorized, "%s %s: status %d", method, path, code)
	case code >= 500:
		return cache.Retryable(cperrors.Wrap(cperrors.ErrCodeNetwork, cache.ErrNetwork, "%s %s: status %d", method, path, code))
	default:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return cperrors.New(cperrors.ErrCodeInvalidInput, "%s %s: status %d: %s", method, path, code, strings.TrimSpace(string(msg)))
	}
}

// unwrapRetry strips the retry marker so callers see the coded error.
func unwrapRetry(err error) error {
	if re, ok := err.(*cache.RetryableError); ok {
		return re.Err
	}
	return err
}

var _ store.Persister = (*Client)(nil)
