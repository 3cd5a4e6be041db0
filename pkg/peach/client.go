package peach

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"time"

	peachhttp "github.com/wesleyorama2/peach/http"
	plog "github.com/wesleyorama2/peach/internal/log"
	"github.com/wesleyorama2/peach/pkg/cancel"
	"github.com/wesleyorama2/peach/pkg/query"
)

// OriginEnv is the environment variable read by the default origin provider.
const OriginEnv = "PEACH_ORIGIN"

// Config is the immutable configuration shared by every request of a Client.
type Config struct {
	// BaseURL is the location paths are resolved against
	BaseURL string

	// Timeout bounds each dispatch through the request context; zero disables it
	Timeout time.Duration

	// Headers are sent with every request
	Headers map[string]string
}

// OriginFunc supplies the base URL when none is configured.
type OriginFunc func() (string, error)

// EnvOrigin returns an OriginFunc reading the base URL from the named
// environment variable.
func EnvOrigin(name string) OriginFunc {
	return func() (string, error) {
		origin := os.Getenv(name)
		if origin == "" {
			return "", fmt.Errorf("%w: no base URL configured and %s is not set", ErrInvalidURI, name)
		}
		return origin, nil
	}
}

// Client binds requests to a base URL and owns their cancellation registry.
// Client is safe for concurrent use by multiple goroutines.
type Client struct {
	config    Config
	base      *url.URL
	baseErr   error
	origin    OriginFunc
	transport peachhttp.Transport
	registry  *cancel.Registry
	logger    *slog.Logger
	metrics   *Metrics
}

// Option is a function that configures a Client.
type Option func(*Client)

// New creates a Client with the given options. When no base URL is set the
// origin provider is consulted; a failure there is reported by the first
// terminal call rather than by New.
//
// Example:
//
//	client := peach.New(
//	    peach.WithBaseURL("https://api.example.com"),
//	    peach.WithTimeout(30*time.Second),
//	)
func New(options ...Option) *Client {
	c := &Client{
		config:   Config{Headers: make(map[string]string)},
		origin:   EnvOrigin(OriginEnv),
		registry: cancel.NewRegistry(),
		logger:   plog.Discard(),
	}

	for _, option := range options {
		option(c)
	}

	if c.transport == nil {
		c.transport = peachhttp.NewClient()
	}

	if c.config.BaseURL == "" {
		c.config.BaseURL, c.baseErr = c.origin()
	}
	if c.baseErr == nil {
		c.base, c.baseErr = ParseBase(c.config.BaseURL)
	}

	c.registry.OnSupersede = func(normalized string) {
		c.logger.Debug("superseded in-flight request", plog.CancelKey, normalized)
		c.metrics.superseded()
	}

	return c
}

// WithBaseURL sets the URL every path is resolved against.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.config.BaseURL = baseURL
	}
}

// WithTimeout bounds every dispatch. The limit is applied through the
// request context, alongside any cancellation key.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.config.Timeout = timeout
	}
}

// WithHeader adds a header sent with every request.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.config.Headers[key] = value
	}
}

// WithHeaders adds several headers sent with every request.
func WithHeaders(headers map[string]string) Option {
	return func(c *Client) {
		for key, value := range headers {
			c.config.Headers[key] = value
		}
	}
}

// WithConfig replaces the whole configuration.
func WithConfig(cfg Config) Option {
	return func(c *Client) {
		c.config.BaseURL = cfg.BaseURL
		c.config.Timeout = cfg.Timeout
		c.config.Headers = make(map[string]string, len(cfg.Headers))
		for key, value := range cfg.Headers {
			c.config.Headers[key] = value
		}
	}
}

// WithOrigin replaces the provider consulted when no base URL is set.
func WithOrigin(origin OriginFunc) Option {
	return func(c *Client) {
		c.origin = origin
	}
}

// WithTransport replaces the network transport.
func WithTransport(transport peachhttp.Transport) Option {
	return func(c *Client) {
		c.transport = transport
	}
}

// WithLogger sets the logger used for dispatch and cancellation events.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics records request metrics into m.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// Config returns a copy of the client configuration. BaseURL holds the
// origin provider's answer when no base URL was configured.
func (c *Client) Config() Config {
	cfg := c.config
	cfg.Headers = make(map[string]string, len(c.config.Headers))
	for key, value := range c.config.Headers {
		cfg.Headers[key] = value
	}
	return cfg
}

// Registry exposes the client's cancellation registry.
func (c *Client) Registry() *cancel.Registry {
	return c.registry
}

// New starts a request chain at the base URL.
func (c *Client) New() Request {
	r := Request{client: c, err: c.baseErr}
	if c.base != nil {
		u := *c.base
		r.url = &u
	}
	return r
}

// Path starts a request chain at fragment resolved against the base URL.
func (c *Client) Path(fragment string) Request {
	return c.New().Path(fragment)
}

// Query starts a request chain at the base URL with query parameters.
func (c *Client) Query(params query.Params) Request {
	return c.New().Query(params)
}

// Cancellable starts a request chain at the base URL armed with key.
func (c *Client) Cancellable(key string) Request {
	return c.New().Cancellable(key)
}

// CancellableList starts a request chain at the base URL armed with a list key.
func (c *Client) CancellableList(keys ...string) Request {
	return c.New().CancellableList(keys...)
}

// Transform starts a request chain at the base URL with a response transform.
func (c *Client) Transform(fn TransformFunc) Request {
	return c.New().Transform(fn)
}

// Get sends a GET request to the base URL.
func (c *Client) Get(ctx context.Context, key ...string) (interface{}, error) {
	return c.New().Get(ctx, key...)
}

// Post sends payload to the base URL.
func (c *Client) Post(ctx context.Context, payload interface{}) (interface{}, error) {
	return c.New().Post(ctx, payload)
}

// Put sends payload to the base URL with PUT.
func (c *Client) Put(ctx context.Context, payload interface{}) (interface{}, error) {
	return c.New().Put(ctx, payload)
}

// Patch sends payload with PATCH, to id resolved against the base URL when given.
func (c *Client) Patch(ctx context.Context, payload interface{}, id ...string) (interface{}, error) {
	return c.New().Patch(ctx, payload, id...)
}

// Delete sends a DELETE request, to id resolved against the base URL when given.
func (c *Client) Delete(ctx context.Context, id ...string) (interface{}, error) {
	return c.New().Delete(ctx, id...)
}
