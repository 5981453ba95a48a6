package webhdfs

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/mxl-space/gr-hdfs/internal/hdfstest"
)

// newTestClient wires a Client to an hdfstest server over a real HTTP listener.
func newTestClient(t *testing.T, opts ...hdfstest.Option) (*Client, *hdfstest.Server) {
	t.Helper()
	backend := hdfstest.New(opts...)
	srv := httptest.NewServer(backend.Handler())
	t.Cleanup(srv.Close)

	addr := strings.TrimPrefix(srv.URL, "http://")
	client := New(Config{Address: addr, User: "mxl"}, nil)
	return client, backend
}

func TestClient_StatusFound(t *testing.T) {
	client, backend := newTestClient(t)
	backend.Put("/data/capture.bin", []byte("0123456789"))

	status, err := client.Status(context.Background(), "/data/capture.bin")
	require.NoError(t, err)
	assert.Equal(t, int64(10), status.Length)
	assert.Equal(t, "/data/capture.bin", status.Path)
}

func TestClient_StatusNotFound(t *testing.T) {
	client, _ := newTestClient(t)

	_, err := client.Status(context.Background(), "/data/missing.bin")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestClient_CreateDeleteAppendRead(t *testing.T) {
	client, backend := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.Create(ctx, "/data/f.bin", true))
	require.NoError(t, client.Append(ctx, "/data/f.bin", []byte("hello ")))
	require.NoError(t, client.Append(ctx, "/data/f.bin", []byte("world")))

	content, ok := backend.Content("/data/f.bin")
	require.True(t, ok)
	assert.Equal(t, "hello world", string(content))

	data, err := client.Read(ctx, "/data/f.bin", 6, 5)
	require.NoError(t, err)
	assert.Equal(t, "world", string(data))

	// Read at EOF returns an empty body, not an error.
	data, err = client.Read(ctx, "/data/f.bin", 11, 5)
	require.NoError(t, err)
	assert.Empty(t, data)

	require.NoError(t, client.Delete(ctx, "/data/f.bin", true))
	_, ok = backend.Content("/data/f.bin")
	assert.False(t, ok)
}

func TestClient_ShortRead(t *testing.T) {
	client, backend := newTestClient(t)
	backend.Put("/data/f.bin", []byte("abcdef"))

	data, err := client.Read(context.Background(), "/data/f.bin", 4, 100)
	require.NoError(t, err)
	assert.Equal(t, "ef", string(data))
}

func TestClient_FollowsDatanodeRedirects(t *testing.T) {
	client, backend := newTestClient(t, hdfstest.WithRedirects())
	ctx := context.Background()

	require.NoError(t, client.Create(ctx, "/data/f.bin", true))
	require.NoError(t, client.Append(ctx, "/data/f.bin", []byte("payload")))

	content, ok := backend.Content("/data/f.bin")
	require.True(t, ok)
	assert.Equal(t, "payload", string(content),
		"the append body must survive the 307 redirect replay")
}

func TestClient_AppendToMissingFile(t *testing.T) {
	client, _ := newTestClient(t)

	err := client.Append(context.Background(), "/data/missing.bin", []byte("x"))
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.Code)
	assert.Equal(t, "APPEND", statusErr.Op)
}

func TestClient_RequestShape(t *testing.T) {
	// Capture raw requests to pin down the wire format.
	var mu sync.Mutex
	var requests []*url.URL
	var methods []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requests = append(requests, r.URL)
		methods = append(methods, r.Method)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	addr := strings.TrimPrefix(srv.URL, "http://")
	client := New(Config{Address: addr, User: "hadoop"}, nil)
	ctx := context.Background()

	client.Create(ctx, "/user/mxl/f.bin", true)
	client.Append(ctx, "/user/mxl/f.bin", []byte("x"))
	client.Delete(ctx, "/user/mxl/f.bin", true)
	_, err := client.Read(ctx, "/user/mxl/f.bin", 128, 512)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, requests, 4)

	assert.Equal(t, "PUT", methods[0])
	assert.Equal(t, "/webhdfs/v1/user/mxl/f.bin", requests[0].Path)
	assert.Equal(t, "CREATE", requests[0].Query().Get("op"))
	assert.Equal(t, "true", requests[0].Query().Get("overwrite"))
	assert.Equal(t, "hadoop", requests[0].Query().Get("user.name"))

	assert.Equal(t, "POST", methods[1])
	assert.Equal(t, "APPEND", requests[1].Query().Get("op"))

	assert.Equal(t, "DELETE", methods[2])
	assert.Equal(t, "DELETE", requests[2].Query().Get("op"))
	assert.Equal(t, "true", requests[2].Query().Get("recursive"))

	assert.Equal(t, "GET", methods[3])
	assert.Equal(t, "OPEN", requests[3].Query().Get("op"))
	assert.Equal(t, "128", requests[3].Query().Get("offset"))
	assert.Equal(t, "512", requests[3].Query().Get("length"))
}

func TestClient_TransportError(t *testing.T) {
	// Nothing listening on this address.
	client := New(Config{Address: "127.0.0.1:1", User: "mxl", Timeout: time.Second}, nil)

	_, err := client.Status(context.Background(), "/f")
	require.Error(t, err)
	assert.False(t, IsNotFound(err), "transport errors are not the missing-file condition")
}

func TestClient_RateLimit(t *testing.T) {
	client, backend := newTestClient(t)
	backend.Put("/f", []byte("x"))

	// 20 req/s: three calls must take at least ~100ms beyond the first.
	client.limiter = rate.NewLimiter(20, 1)

	start := time.Now()
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := client.Status(ctx, "/f")
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

type opRecord struct {
	op    string
	code  int
	bytes int
}

type recordingMetrics struct {
	mu  sync.Mutex
	ops []opRecord
}

func (r *recordingMetrics) ObserveOp(op string, code int, d time.Duration, bytes int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, opRecord{op, code, bytes})
}

func TestClient_MetricsObserved(t *testing.T) {
	backend := hdfstest.New()
	srv := httptest.NewServer(backend.Handler())
	t.Cleanup(srv.Close)

	rec := &recordingMetrics{}
	client := New(Config{Address: strings.TrimPrefix(srv.URL, "http://"), User: "mxl"}, rec)

	ctx := context.Background()
	require.NoError(t, client.Create(ctx, "/f", true))
	require.NoError(t, client.Append(ctx, "/f", []byte("abc")))

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.ops, 2)
	assert.Equal(t, opRecord{"CREATE", http.StatusCreated, 0}, rec.ops[0])
	assert.Equal(t, opRecord{"APPEND", http.StatusOK, 3}, rec.ops[1])
}
