package peach

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	peachhttp "github.com/wesleyorama2/peach/http"
	plog "github.com/wesleyorama2/peach/internal/log"
	"github.com/wesleyorama2/peach/pkg/cancel"
	"github.com/wesleyorama2/peach/pkg/query"
)

const baseURL = "https://some-domain.com"

type call struct {
	ctx  context.Context
	url  string
	init peachhttp.Init
}

// fakeTransport records every Fetch and answers with a canned body.
type fakeTransport struct {
	mu      sync.Mutex
	calls   []call
	body    string
	err     error
	block   bool
	started chan struct{}
	onFetch func(ctx context.Context)
}

func (f *fakeTransport) Fetch(ctx context.Context, u *url.URL, init peachhttp.Init) (*peachhttp.Response, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call{ctx: ctx, url: u.String(), init: init})
	f.mu.Unlock()

	if f.onFetch != nil {
		f.onFetch(ctx)
	}
	if f.block {
		if f.started != nil {
			close(f.started)
		}
		<-ctx.Done()
		return nil, &peachhttp.CancelledError{Method: init.Method, URL: u.String(), Cause: context.Cause(ctx)}
	}
	if f.err != nil {
		return nil, f.err
	}
	return peachhttp.NewResponse(200, []byte(f.body)), nil
}

func (f *fakeTransport) last(t *testing.T) call {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.calls, "transport was not called")
	return f.calls[len(f.calls)-1]
}

func (f *fakeTransport) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func newTestClient(body string, options ...Option) (*Client, *fakeTransport) {
	transport := &fakeTransport{body: body}
	options = append([]Option{WithBaseURL(baseURL), WithTransport(transport)}, options...)
	return New(options...), transport
}

func TestClient_Config(t *testing.T) {
	client := New(
		WithBaseURL(baseURL+"/api"),
		WithTimeout(time.Second),
		WithHeader("content-type", "application/json"),
	)

	cfg := client.Config()
	assert.Equal(t, baseURL+"/api", cfg.BaseURL)
	assert.Equal(t, time.Second, cfg.Timeout)
	assert.Equal(t, map[string]string{"content-type": "application/json"}, cfg.Headers)

	cfg.Headers["x"] = "y"
	assert.NotContains(t, client.Config().Headers, "x", "Config must return a copy")
}

func TestClient_WithConfig(t *testing.T) {
	headers := map[string]string{"X-Tenant": "acme"}
	transport := &fakeTransport{body: `{}`}

	client := New(
		WithTransport(transport),
		WithHeader("X-Dropped", "1"),
		WithConfig(Config{BaseURL: baseURL + "/v2", Timeout: time.Second, Headers: headers}),
		WithHeader("X-Extra", "2"),
	)

	cfg := client.Config()
	assert.Equal(t, baseURL+"/v2", cfg.BaseURL)
	assert.Equal(t, time.Second, cfg.Timeout)
	assert.Equal(t, map[string]string{"X-Tenant": "acme", "X-Extra": "2"}, cfg.Headers)
	assert.Equal(t, map[string]string{"X-Tenant": "acme"}, headers, "WithConfig must copy the headers")

	_, err := client.Path("v2/heros").Get(context.Background())
	require.NoError(t, err)
	got := transport.last(t)
	assert.Equal(t, baseURL+"/v2/heros", got.url)
	assert.Equal(t, "acme", got.init.Headers["X-Tenant"])
}

func TestClient_Origin(t *testing.T) {
	transport := &fakeTransport{body: `{}`}

	client := New(WithTransport(transport), WithOrigin(func() (string, error) {
		return "https://origin.example", nil
	}))
	_, err := client.Path("api").Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "https://origin.example/api", transport.last(t).url)
	assert.Equal(t, "https://origin.example", client.Config().BaseURL)

	t.Setenv(OriginEnv, "https://env.example")
	client = New(WithTransport(transport))
	_, err = client.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "https://env.example/", transport.last(t).url)

	t.Setenv(OriginEnv, "")
	client = New(WithTransport(transport))
	_, err = client.Path("api").Get(context.Background())
	assert.True(t, errors.Is(err, ErrInvalidURI), "got %v", err)
}

func TestRequest_Get(t *testing.T) {
	client, transport := newTestClient(`{"data":"test"}`)

	value, err := client.Get(context.Background())
	require.NoError(t, err)

	got := transport.last(t)
	assert.Equal(t, baseURL+"/", got.url)
	assert.Equal(t, "GET", got.init.Method)
	assert.Nil(t, got.init.Body)
	assert.Equal(t, map[string]interface{}{"data": "test"}, value)
}

func TestRequest_GetPath(t *testing.T) {
	client, transport := newTestClient(`{"data":"test"}`)

	_, err := client.Path("api/v1").Get(context.Background())
	require.NoError(t, err)

	assert.Equal(t, baseURL+"/api/v1", transport.last(t).url)
	assert.Equal(t, "GET", transport.last(t).init.Method)
}

func TestRequest_GetKey(t *testing.T) {
	client, _ := newTestClient(`{"data":{"heros":{"name":"Batman"}}}`)

	value, err := client.Path("api").Get(context.Background(), "data.heros.name")
	require.NoError(t, err)
	assert.Equal(t, "Batman", value)

	value, err = client.Path("api").Get(context.Background(), "data.villains.name")
	require.NoError(t, err)
	assert.Nil(t, value)
}

func TestRequest_GetKeyNotIndexable(t *testing.T) {
	client, _ := newTestClient(`"just text"`)

	_, err := client.Get(context.Background(), "data")
	assert.True(t, errors.Is(err, ErrNotIndexable), "got %v", err)
}

func TestRequest_Transform(t *testing.T) {
	client, _ := newTestClient(`{"data":{"heros":{"name":"Batman"}}}`)

	heros := func(v interface{}) (interface{}, error) {
		return v.(map[string]interface{})["data"].(map[string]interface{})["heros"], nil
	}

	value, err := client.Transform(heros).Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"name": "Batman"}, value)

	value, err = client.Transform(heros).Get(context.Background(), "name")
	require.NoError(t, err)
	assert.Equal(t, "Batman", value)
}

func TestRequest_TransformReset(t *testing.T) {
	client, _ := newTestClient(`{"data":1}`)
	raw := map[string]interface{}{"data": float64(1)}

	double := func(v interface{}) (interface{}, error) { return "changed", nil }

	value, err := client.Transform(double).Transform(Identity).Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, raw, value)

	value, err = client.Transform(double).Transform(nil).Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, raw, value)
}

func TestRequest_TransformError(t *testing.T) {
	client, _ := newTestClient(`{}`)
	boom := errors.New("boom")

	_, err := client.Transform(func(interface{}) (interface{}, error) { return nil, boom }).Get(context.Background())
	assert.Same(t, boom, err)
}

func TestRequest_PostPut(t *testing.T) {
	client, transport := newTestClient(`{"data":"ok"}`)
	payload := map[string]string{"name": "Bruce Wayne"}

	value, err := client.Post(context.Background(), payload)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"data": "ok"}, value)
	assert.Equal(t, baseURL+"/", transport.last(t).url)
	assert.Equal(t, "POST", transport.last(t).init.Method)
	assert.Equal(t, payload, transport.last(t).init.Body)

	_, err = client.Path("heros").Put(context.Background(), "raw body")
	require.NoError(t, err)
	assert.Equal(t, baseURL+"/heros", transport.last(t).url)
	assert.Equal(t, "PUT", transport.last(t).init.Method)
	assert.Equal(t, "raw body", transport.last(t).init.Body)
}

func TestRequest_Delete(t *testing.T) {
	client, transport := newTestClient(`{"data":"ok"}`)

	_, err := client.Path("123").Delete(context.Background())
	require.NoError(t, err)
	viaPath := transport.last(t)

	_, err = client.Delete(context.Background(), "123")
	require.NoError(t, err)
	viaID := transport.last(t)

	assert.Equal(t, baseURL+"/123", viaPath.url)
	assert.Equal(t, viaPath.url, viaID.url)
	assert.Equal(t, "DELETE", viaPath.init.Method)
	assert.Equal(t, "DELETE", viaID.init.Method)

	_, err = client.Path("users/5").Query(query.Params{"soft": true}).Delete(context.Background(), "123")
	require.NoError(t, err)
	assert.Equal(t, baseURL+"/123", transport.last(t).url, "id overrides the earlier path and query")
}

func TestRequest_Patch(t *testing.T) {
	client, transport := newTestClient(`{"data":"ok"}`)
	payload := map[string]string{"name": "Batman"}

	_, err := client.Path("123").Patch(context.Background(), payload)
	require.NoError(t, err)
	assert.Equal(t, baseURL+"/123", transport.last(t).url)
	assert.Equal(t, "PATCH", transport.last(t).init.Method)
	assert.Equal(t, payload, transport.last(t).init.Body)

	_, err = client.Patch(context.Background(), payload, "123")
	require.NoError(t, err)
	assert.Equal(t, baseURL+"/123", transport.last(t).url)
}

func TestRequest_Query(t *testing.T) {
	client, transport := newTestClient(`[{"data":"ok"}]`)

	value, err := client.Query(query.Params{"limit": 1}).Get(context.Background(), "0.data")
	require.NoError(t, err)
	assert.Equal(t, "ok", value)
	assert.Equal(t, baseURL+"/?limit=1", transport.last(t).url)

	value, err = client.Query(query.Params{"limit": 1, "fields": []string{"name", "last"}}).Get(context.Background(), "0.data")
	require.NoError(t, err)
	assert.Equal(t, "ok", value)
	assert.Equal(t, baseURL+"/?fields=name%2Clast&limit=1", transport.last(t).url)
}

func TestRequest_QueryMerge(t *testing.T) {
	client, transport := newTestClient(`{}`)

	_, err := client.Path("heros?page=2").
		Query(query.Params{"limit": 5, "sort": "name"}).
		Query(query.Params{"limit": 10, "empty": ""}).
		QueryObject(query.Object{{Key: "filter", Value: query.Object{{Key: "team", Value: "jl"}, {Key: "alive", Value: true}}}}).
		Get(context.Background())
	require.NoError(t, err)

	assert.Equal(t, baseURL+"/heros?page=2&limit=10&sort=name&filter%5Bteam%5D=jl&filter%5Balive%5D=true", transport.last(t).url)
}

func TestRequest_QueryInvalid(t *testing.T) {
	client, transport := newTestClient(`{}`)

	_, err := client.Query(query.Params{"cb": func() {}}).Path("ignored").Get(context.Background())
	assert.True(t, errors.Is(err, ErrInvalidParams), "got %v", err)
	assert.Equal(t, 0, transport.count())
}

func TestRequest_PathInvalid(t *testing.T) {
	client, transport := newTestClient(`{}`)

	_, err := client.Path("http://[::1").Get(context.Background())
	assert.True(t, errors.Is(err, ErrInvalidURI), "got %v", err)
	assert.Equal(t, 0, transport.count())
}

func TestRequest_Immutable(t *testing.T) {
	client, transport := newTestClient(`{}`)

	users := client.Path("users")
	_ = users.Query(query.Params{"limit": 1}).Header("X-A", "1")

	u, err := users.URL()
	require.NoError(t, err)
	assert.Equal(t, baseURL+"/users", u.String())

	_, err = users.Post(context.Background(), "first")
	require.NoError(t, err)
	_, err = users.Get(context.Background())
	require.NoError(t, err)

	got := transport.last(t)
	assert.Equal(t, "GET", got.init.Method)
	assert.Nil(t, got.init.Body, "body of an earlier verb must not leak")
	assert.NotContains(t, got.init.Headers, "X-A")
}

func TestRequest_Headers(t *testing.T) {
	client, transport := newTestClient(`{}`, WithHeaders(map[string]string{"Accept": "application/json", "X-Env": "prod"}))

	_, err := client.New().Header("X-Env", "staging").Header("X-Trace", "abc").Get(context.Background())
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"Accept":  "application/json",
		"X-Env":   "staging",
		"X-Trace": "abc",
	}, transport.last(t).init.Headers)
}

func TestRequest_TransportErrorPropagates(t *testing.T) {
	transportErr := &peachhttp.TransportError{Op: "send", Method: "GET", URL: baseURL, Cause: errors.New("refused")}
	client, transport := newTestClient("")
	transport.err = transportErr

	_, err := client.Get(context.Background())
	assert.Same(t, transportErr, err)
	assert.True(t, errors.Is(err, ErrTransport))
	assert.False(t, IsCancelled(err))
}

func TestRequest_MalformedBody(t *testing.T) {
	client, _ := newTestClient("<html>")

	_, err := client.Get(context.Background())
	assert.True(t, errors.Is(err, ErrTransport), "got %v", err)
}

func TestRequest_CancellableAttachesSignal(t *testing.T) {
	client, transport := newTestClient(`{"data":"x"}`)
	normalized := cancel.String("cancellableRequestTest").Normalize(baseURL + "/")

	var live, aborted bool
	transport.onFetch = func(ctx context.Context) {
		live = ctx.Err() == nil
		h, ok := client.Registry().Current(normalized)
		if !ok {
			return
		}
		h.Cancel()
		select {
		case <-ctx.Done():
			aborted = true
		case <-time.After(time.Second):
		}
	}

	value, err := client.Cancellable("cancellableRequestTest").Get(context.Background(), "data")
	require.NoError(t, err)
	assert.Equal(t, "x", value)
	assert.True(t, live, "request context was already done when sent")
	assert.True(t, aborted, "request context was not bound to the cancellation handle")
}

func TestRequest_CancellableSupersedes(t *testing.T) {
	transport := &fakeTransport{block: true, started: make(chan struct{})}
	client := New(WithBaseURL(baseURL), WithTransport(transport))

	errc := make(chan error, 1)
	go func() {
		_, err := client.Path("search").Cancellable("search").Get(context.Background())
		errc <- err
	}()
	<-transport.started

	// Arming the same key on the same URL aborts the in-flight request
	second := client.Path("search").Cancellable("search")

	select {
	case err := <-errc:
		assert.True(t, IsCancelled(err), "got %v", err)
		assert.True(t, errors.Is(err, cancel.ErrSuperseded), "got %v", err)
	case <-time.After(time.Second):
		t.Fatal("first request was not cancelled")
	}

	transport.block = false
	transport.body = `{"ok":true}`
	value, err := second.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"ok": true}, value)
}

func TestRequest_CancelledBeforeDispatch(t *testing.T) {
	client, transport := newTestClient(`{}`)

	first := client.Path("search").CancellableList("search", "page")
	second := client.Path("search").CancellableList("search", "page")

	_, err := first.Get(context.Background())
	assert.True(t, IsCancelled(err), "got %v", err)
	assert.Equal(t, 0, transport.count())

	_, err = second.Get(context.Background())
	require.NoError(t, err)

	// Different URLs keep separate entries
	other := client.Path("other").CancellableList("search", "page")
	_, err = other.Get(context.Background())
	require.NoError(t, err)
	_, err = second.Get(context.Background())
	require.NoError(t, err)
}

func TestRequest_Timeout(t *testing.T) {
	transport := &fakeTransport{block: true}
	client := New(WithBaseURL(baseURL), WithTransport(transport), WithTimeout(20*time.Millisecond))

	_, err := client.Get(context.Background())
	assert.True(t, IsCancelled(err), "got %v", err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
}

func TestRequest_CallerContext(t *testing.T) {
	client, transport := newTestClient(`{}`)

	ctx, cancelCtx := context.WithCancel(context.Background())
	cancelCtx()

	_, err := client.Cancellable("k").Get(ctx)
	assert.True(t, IsCancelled(err), "got %v", err)
	assert.Equal(t, 0, transport.count())
}

func TestRequest_ZeroValue(t *testing.T) {
	var r Request
	_, err := r.Get(context.Background())
	assert.ErrorIs(t, err, errNoClient)
	assert.ErrorIs(t, r.Path("x").Err(), errNoClient)
}

func TestRequest_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	client, transport := newTestClient(`{}`, WithMetrics(metrics))

	_, err := client.Get(context.Background())
	require.NoError(t, err)

	transport.err = errors.New("down")
	_, err = client.Post(context.Background(), nil)
	require.Error(t, err)

	client.Cancellable("k")
	client.Cancellable("k")

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.requestsTotal.WithLabelValues("GET", outcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.requestsTotal.WithLabelValues("POST", outcomeError)))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.requestsInFlight.WithLabelValues("GET")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.supersededTotal))
}

func TestRequest_Logging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	client, _ := newTestClient(`{}`, WithLogger(logger))

	_, err := client.Path("heros").Get(context.Background())
	require.NoError(t, err)

	line := buf.String()
	assert.Contains(t, line, "request completed")
	assert.Contains(t, line, plog.URLKey+"="+baseURL+"/heros")
	assert.Contains(t, line, plog.MethodKey+"=GET")
	assert.Contains(t, line, plog.StatusKey+"=200")
	assert.Contains(t, line, plog.DurationKey+"=")
	assert.Contains(t, line, plog.TimingKey+".ttfb_ms=0")

	buf.Reset()
	failing, transport := newTestClient(`not json`, WithLogger(logger))
	_, err = failing.Path("heros").Cancellable("list").Get(context.Background())
	require.Error(t, err)
	require.Equal(t, 1, transport.count())

	line = buf.String()
	assert.Contains(t, line, "request failed")
	assert.Contains(t, line, plog.CancelKey+"=list"+baseURL+"/heros")
	assert.Contains(t, line, plog.OutcomeKey+"=")
	assert.Contains(t, line, plog.ErrorKey+"=")
}
