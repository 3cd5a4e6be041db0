package http

import (
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"net/http/httptrace"
	"net/url"
	"time"
)

// Transport performs a single network exchange for the request builder.
type Transport interface {
	Fetch(ctx context.Context, u *url.URL, init Init) (*Response, error)
}

// Client is a net/http backed Transport with default headers.
// Client is safe for concurrent use by multiple goroutines.
type Client struct {
	httpClient *http.Client
	headers    map[string]string
}

// ClientOption is a function that configures a Client.
type ClientOption func(*Client)

// NewClient creates a new transport client with the given options.
//
// Example:
//
//	client := http.NewClient(
//	    http.WithTimeout(30*time.Second),
//	    http.WithHeader("Accept", "application/json"),
//	)
func NewClient(options ...ClientOption) *Client {
	client := &Client{
		httpClient: &http.Client{},
		headers:    make(map[string]string),
	}

	for _, option := range options {
		option(client)
	}

	return client
}

// WithTimeout sets the timeout for all requests made by this client.
// Zero means no client-side timeout; the request context still applies.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHeader adds a default header to all requests made by this client.
// Headers set in Init override these defaults.
func WithHeader(key, value string) ClientOption {
	return func(c *Client) {
		c.headers[key] = value
	}
}

// WithHTTPClient sets a custom *http.Client for this client.
// Use this for advanced configuration like custom transports or TLS settings.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithInsecureSkipVerify disables TLS certificate verification, for
// servers with self-signed certificates. The rest of the default transport
// settings, such as proxies from the environment, are kept.
func WithInsecureSkipVerify() ClientOption {
	return func(c *Client) {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		c.httpClient.Transport = transport
	}
}

// Fetch sends one request to u and buffers the whole response body.
// A non-2xx status is not an error; callers inspect Response.StatusCode.
func (c *Client) Fetch(ctx context.Context, u *url.URL, init Init) (*Response, error) {
	httpReq, err := init.build(ctx, u)
	if err != nil {
		return nil, &TransportError{Op: "build", Method: init.method(), URL: u.String(), Cause: err}
	}

	// Client headers only fill what the request did not set
	for key, value := range c.headers {
		if httpReq.Header.Get(key) == "" {
			httpReq.Header.Set(key, value)
		}
	}

	start := time.Now()
	tracer := newPhaseTracer(start)
	httpReq = httpReq.WithContext(httptrace.WithClientTrace(httpReq.Context(), tracer.trace()))

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, classify(ctx, "send", httpReq, err)
	}
	defer httpResp.Body.Close()

	transferStart := time.Now()
	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, classify(ctx, "read", httpReq, err)
	}
	timing := tracer.finish(time.Since(transferStart))

	return &Response{
		StatusCode:   httpResp.StatusCode,
		Status:       httpResp.Status,
		Headers:      httpResp.Header,
		ResponseTime: timing.Total,
		Timing:       timing,
		Method:       httpReq.Method,
		URL:          httpReq.URL.String(),
		rawBody:      body,
	}, nil
}
