package webhdfs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// WebHDFS operation names, passed as the "op" query parameter.
const (
	opGetFileStatus = "GETFILESTATUS"
	opCreate        = "CREATE"
	opDelete        = "DELETE"
	opAppend        = "APPEND"
	opOpen          = "OPEN"
)

// DefaultTimeout bounds every individual HTTP request.
const DefaultTimeout = 10 * time.Second

// maxErrorBody limits how much of an error response body is kept for messages.
const maxErrorBody = 512

// OpMetrics observes client-side remote operations. Implementations must be
// safe for concurrent use. A nil OpMetrics disables observation entirely.
type OpMetrics interface {
	// ObserveOp records one completed remote call. code is 0 when the call
	// failed below the HTTP level.
	ObserveOp(op string, code int, duration time.Duration, bytes int)
}

// Config holds client configuration.
type Config struct {
	// Address is the storage service address, host:port.
	Address string

	// User is the identity passed as the user.name query parameter.
	User string

	// Timeout bounds each HTTP request. Default: DefaultTimeout.
	Timeout time.Duration

	// RateLimit caps remote calls per second. 0 disables limiting.
	RateLimit float64

	// Burst is the limiter burst size when RateLimit is set. Default: 1.
	Burst int
}

// Client is the WebHDFS implementation of RemoteStore.
//
// The underlying http.Client follows the protocol's two-step redirect
// (namenode 307 → datanode) transparently: request bodies are built from
// bytes.Reader values, so the client can rewind and replay them.
type Client struct {
	base    string // http://addr/webhdfs/v1
	user    string
	http    *http.Client
	limiter *rate.Limiter
	metrics OpMetrics
}

// New creates a WebHDFS client. metrics may be nil.
func New(cfg Config, metrics OpMetrics) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &Client{
		base:    fmt.Sprintf("http://%s/webhdfs/v1", cfg.Address),
		user:    cfg.User,
		http:    &http.Client{Timeout: timeout},
		limiter: limiter,
		metrics: metrics,
	}
}

// endpoint builds the operation URL for a remote path.
func (c *Client) endpoint(path, op string, params url.Values) string {
	q := url.Values{}
	if c.user != "" {
		q.Set("user.name", c.user)
	}
	q.Set("op", op)
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	return c.base + path + "?" + q.Encode()
}

// do issues one request, observing the rate limit and metrics. body may be nil.
func (c *Client) do(ctx context.Context, method, rawURL string, body []byte) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/octet-stream")
	}

	return c.http.Do(req)
}

// statusResponse mirrors the WebHDFS GETFILESTATUS JSON body.
type statusResponse struct {
	FileStatus struct {
		Length int64  `json:"length"`
		Type   string `json:"type"`
	} `json:"FileStatus"`
}

// Status implements RemoteStore.
func (c *Client) Status(ctx context.Context, path string) (FileStatus, error) {
	start := time.Now()
	resp, err := c.do(ctx, http.MethodGet, c.endpoint(path, opGetFileStatus, nil), nil)
	if err != nil {
		c.observe(opGetFileStatus, 0, start, 0)
		return FileStatus{}, fmt.Errorf("status %s: %w", path, err)
	}
	defer resp.Body.Close()
	c.observe(opGetFileStatus, resp.StatusCode, start, 0)

	switch resp.StatusCode {
	case http.StatusOK:
		var body statusResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return FileStatus{}, fmt.Errorf("status %s: decoding response: %w", path, err)
		}
		return FileStatus{Path: path, Length: body.FileStatus.Length}, nil
	case http.StatusNotFound:
		return FileStatus{}, fmt.Errorf("status %s: %w", path, ErrNotFound)
	default:
		return FileStatus{}, c.statusError(opGetFileStatus, path, resp)
	}
}

// Create implements RemoteStore.
func (c *Client) Create(ctx context.Context, path string, overwrite bool) error {
	params := url.Values{"overwrite": {strconv.FormatBool(overwrite)}}
	start := time.Now()
	// Empty non-nil body so the redirect to the datanode can replay it.
	resp, err := c.do(ctx, http.MethodPut, c.endpoint(path, opCreate, params), []byte{})
	if err != nil {
		c.observe(opCreate, 0, start, 0)
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer resp.Body.Close()
	c.observe(opCreate, resp.StatusCode, start, 0)

	if !success(resp.StatusCode) {
		return c.statusError(opCreate, path, resp)
	}
	return nil
}

// Delete implements RemoteStore.
func (c *Client) Delete(ctx context.Context, path string, recursive bool) error {
	params := url.Values{"recursive": {strconv.FormatBool(recursive)}}
	start := time.Now()
	resp, err := c.do(ctx, http.MethodDelete, c.endpoint(path, opDelete, params), nil)
	if err != nil {
		c.observe(opDelete, 0, start, 0)
		return fmt.Errorf("delete %s: %w", path, err)
	}
	defer resp.Body.Close()
	c.observe(opDelete, resp.StatusCode, start, 0)

	if !success(resp.StatusCode) {
		return c.statusError(opDelete, path, resp)
	}
	return nil
}

// Append implements RemoteStore.
func (c *Client) Append(ctx context.Context, path string, data []byte) error {
	start := time.Now()
	resp, err := c.do(ctx, http.MethodPost, c.endpoint(path, opAppend, nil), data)
	if err != nil {
		c.observe(opAppend, 0, start, len(data))
		return fmt.Errorf("append %s: %w", path, err)
	}
	defer resp.Body.Close()
	c.observe(opAppend, resp.StatusCode, start, len(data))

	if !success(resp.StatusCode) {
		return c.statusError(opAppend, path, resp)
	}
	return nil
}

// Read implements RemoteStore.
func (c *Client) Read(ctx context.Context, path string, offset int64, length int) ([]byte, error) {
	params := url.Values{
		"offset": {strconv.FormatInt(offset, 10)},
		"length": {strconv.Itoa(length)},
	}
	start := time.Now()
	resp, err := c.do(ctx, http.MethodGet, c.endpoint(path, opOpen, params), nil)
	if err != nil {
		c.observe(opOpen, 0, start, 0)
		return nil, fmt.Errorf("read %s at %d: %w", path, offset, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.observe(opOpen, resp.StatusCode, start, 0)
		return nil, c.statusError(opOpen, path, resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.observe(opOpen, resp.StatusCode, start, 0)
		return nil, fmt.Errorf("read %s at %d: reading body: %w", path, offset, err)
	}
	c.observe(opOpen, resp.StatusCode, start, len(data))
	return data, nil
}

func (c *Client) observe(op string, code int, start time.Time, n int) {
	if c.metrics != nil {
		c.metrics.ObserveOp(op, code, time.Since(start), n)
	}
}

// statusError drains up to maxErrorBody bytes of the response for the message.
func (c *Client) statusError(op, path string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &StatusError{Op: op, Path: path, Code: resp.StatusCode, Body: string(bytes.TrimSpace(body))}
}

// success reports whether code is in the WebHDFS success set for mutations.
func success(code int) bool {
	return code == http.StatusOK || code == http.StatusCreated
}

// IsNotFound reports whether err is the missing-file condition.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
