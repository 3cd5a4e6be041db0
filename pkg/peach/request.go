package peach

import (
	"context"
	"net/http"
	"net/url"
	"time"

	peachhttp "github.com/wesleyorama2/peach/http"
	plog "github.com/wesleyorama2/peach/internal/log"
	"github.com/wesleyorama2/peach/pkg/cancel"
	"github.com/wesleyorama2/peach/pkg/jsonpath"
	"github.com/wesleyorama2/peach/pkg/query"
)

// TransformFunc post-processes a decoded response body.
type TransformFunc func(value interface{}) (interface{}, error)

// Identity returns value unchanged.
func Identity(value interface{}) (interface{}, error) {
	return value, nil
}

// Request is one step of a request chain. Every method returns a new
// Request; the receiver is never modified. The first error met along the
// chain is kept and returned by the terminal call.
type Request struct {
	client    *Client
	url       *url.URL
	headers   map[string]string
	cancelKey string
	handle    *cancel.Handle
	transform TransformFunc
	err       error
}

// clone copies the URL so the result can be changed independently.
func (r Request) clone() Request {
	if r.url != nil {
		u := *r.url
		if r.url.User != nil {
			user := *r.url.User
			u.User = &user
		}
		r.url = &u
	}
	return r
}

// Path points the request at fragment resolved against the base URL,
// discarding any earlier path and query.
func (r Request) Path(fragment string) Request {
	if r.err != nil {
		return r
	}
	if r.client == nil {
		r.err = errNoClient
		return r
	}
	u, err := Resolve(fragment, r.client.base)
	if err != nil {
		r.err = err
		return r
	}
	r.url = u
	return r
}

// Query merges params onto the current query. Keys already present are
// overwritten.
func (r Request) Query(params query.Params) Request {
	if r.err != nil {
		return r
	}
	pairs, err := query.Serialize(params)
	return r.applyQuery(pairs, err)
}

// QueryObject is Query for an ordered parameter object.
func (r Request) QueryObject(obj query.Object) Request {
	if r.err != nil {
		return r
	}
	pairs, err := query.SerializeObject(obj)
	return r.applyQuery(pairs, err)
}

func (r Request) applyQuery(pairs []query.Pair, err error) Request {
	if err != nil {
		r.err = err
		return r
	}
	if r.url == nil {
		r.err = errNoClient
		return r
	}
	r = r.clone()
	query.Apply(r.url, pairs)
	return r
}

// Cancellable arms key against the current URL. A live request already
// armed with the same key and URL is cancelled before Cancellable returns.
func (r Request) Cancellable(key string) Request {
	return r.arm(cancel.String(key))
}

// CancellableList is Cancellable with a key made of several parts.
func (r Request) CancellableList(keys ...string) Request {
	return r.arm(cancel.List(keys...))
}

func (r Request) arm(key cancel.Key) Request {
	if r.err != nil {
		return r
	}
	if r.client == nil || r.url == nil {
		r.err = errNoClient
		return r
	}
	r.handle, r.cancelKey = r.client.registry.Arm(key, r.url.String())
	return r
}

// Transform sets the response transform. Only the last one set is applied;
// nil restores the identity.
func (r Request) Transform(fn TransformFunc) Request {
	r.transform = fn
	return r
}

// Header sets a header for this request only. It overrides a client
// default of the same name.
func (r Request) Header(key, value string) Request {
	headers := make(map[string]string, len(r.headers)+1)
	for k, v := range r.headers {
		headers[k] = v
	}
	headers[key] = value
	r.headers = headers
	return r
}

// URL returns the URL the request would be sent to.
func (r Request) URL() (*url.URL, error) {
	if r.err != nil {
		return nil, r.err
	}
	if r.url == nil {
		return nil, errNoClient
	}
	return r.clone().url, nil
}

// Err returns the first error recorded along the chain.
func (r Request) Err() error {
	return r.err
}

// Get sends a GET request. When a key is given the transformed body is
// reduced to the value at that dotted path.
func (r Request) Get(ctx context.Context, key ...string) (interface{}, error) {
	value, err := r.Do(ctx, http.MethodGet, nil)
	if err != nil {
		return nil, err
	}
	if len(key) > 0 && key[0] != "" {
		return jsonpath.Get(value, key[0])
	}
	return value, nil
}

// Post sends payload as the body of a POST request.
func (r Request) Post(ctx context.Context, payload interface{}) (interface{}, error) {
	return r.Do(ctx, http.MethodPost, payload)
}

// Put sends payload as the body of a PUT request.
func (r Request) Put(ctx context.Context, payload interface{}) (interface{}, error) {
	return r.Do(ctx, http.MethodPut, payload)
}

// Patch sends payload as the body of a PATCH request. A non-empty id is
// resolved against the base URL and replaces the current path.
func (r Request) Patch(ctx context.Context, payload interface{}, id ...string) (interface{}, error) {
	if len(id) > 0 && id[0] != "" {
		r = r.Path(id[0])
	}
	return r.Do(ctx, http.MethodPatch, payload)
}

// Delete sends a DELETE request. A non-empty id is resolved against the
// base URL and replaces the current path.
func (r Request) Delete(ctx context.Context, id ...string) (interface{}, error) {
	if len(id) > 0 && id[0] != "" {
		r = r.Path(id[0])
	}
	return r.Do(ctx, http.MethodDelete, nil)
}

// Do dispatches the request with an arbitrary method and returns the
// transformed body.
func (r Request) Do(ctx context.Context, method string, body interface{}) (interface{}, error) {
	if r.err != nil {
		return nil, r.err
	}
	if r.client == nil || r.url == nil {
		return nil, errNoClient
	}
	c := r.client

	if r.handle != nil {
		var stop func()
		ctx, stop = bindHandle(ctx, r.handle)
		defer stop()
	}

	if c.config.Timeout > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, c.config.Timeout)
		defer cancelTimeout()
	}

	u := r.clone().url
	init := peachhttp.Init{
		Method:  method,
		Body:    body,
		Headers: r.mergedHeaders(),
	}

	start := time.Now()
	done := c.metrics.begin(method)

	var resp *peachhttp.Response
	err := context.Cause(ctx)
	if err != nil {
		// Superseded before it was sent
		err = &peachhttp.CancelledError{Method: method, URL: u.String(), Cause: err}
	} else {
		resp, err = c.transport.Fetch(ctx, u, init)
	}
	if err == nil {
		var value interface{}
		value, err = resp.JSON()
		if err == nil {
			done(outcomeOK, time.Since(start))
			c.logger.Debug("request completed",
				plog.MethodKey, method,
				plog.URLKey, u.String(),
				plog.StatusKey, resp.StatusCode,
				plog.DurationKey, time.Since(start).Milliseconds(),
				plog.TimingKey, resp.Timing,
			)
			return r.applyTransform(value)
		}
	}

	outcome := outcomeError
	if IsCancelled(err) {
		outcome = outcomeCancelled
	}
	done(outcome, time.Since(start))
	c.logger.Debug("request failed",
		plog.MethodKey, method,
		plog.URLKey, u.String(),
		plog.CancelKey, r.cancelKey,
		plog.OutcomeKey, outcome,
		plog.ErrorKey, err,
	)
	return nil, err
}

func (r Request) applyTransform(value interface{}) (interface{}, error) {
	if r.transform == nil {
		return value, nil
	}
	return r.transform(value)
}

func (r Request) mergedHeaders() map[string]string {
	headers := make(map[string]string, len(r.client.config.Headers)+len(r.headers))
	for key, value := range r.client.config.Headers {
		headers[key] = value
	}
	for key, value := range r.headers {
		headers[key] = value
	}
	return headers
}

// bindHandle derives a context cancelled by ctx or by the handle, carrying
// the handle's cancellation cause.
func bindHandle(ctx context.Context, h *cancel.Handle) (context.Context, func()) {
	bound, cancelBound := context.WithCancelCause(ctx)
	if h.Cancelled() {
		cancelBound(context.Cause(h.Context()))
		return bound, func() { cancelBound(nil) }
	}
	stop := context.AfterFunc(h.Context(), func() {
		cancelBound(context.Cause(h.Context()))
	})
	return bound, func() {
		stop()
		cancelBound(nil)
	}
}
