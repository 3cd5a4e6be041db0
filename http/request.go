package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Init carries the per-request settings handed to a Transport.
type Init struct {
	// Method is the HTTP method; empty means GET
	Method string

	// Body is sent as-is for string, []byte and io.Reader values.
	// Any other non-nil value is encoded as JSON.
	Body interface{}

	// Headers are request headers; they take precedence over client defaults
	Headers map[string]string
}

func (i Init) method() string {
	if i.Method == "" {
		return http.MethodGet
	}
	return i.Method
}

// build constructs an *http.Request bound to ctx.
func (i Init) build(ctx context.Context, u *url.URL) (*http.Request, error) {
	headers := make(map[string]string, len(i.Headers)+1)
	for key, value := range i.Headers {
		headers[key] = value
	}

	var bodyReader io.Reader
	if i.Body != nil {
		switch body := i.Body.(type) {
		case string:
			bodyReader = strings.NewReader(body)
		case []byte:
			bodyReader = bytes.NewReader(body)
		case io.Reader:
			bodyReader = body
		default:
			jsonBody, err := json.Marshal(body)
			if err != nil {
				return nil, err
			}
			bodyReader = bytes.NewReader(jsonBody)
			if !hasHeader(headers, "Content-Type") {
				headers["Content-Type"] = "application/json"
			}
		}
	}

	req, err := http.NewRequestWithContext(ctx, i.method(), u.String(), bodyReader)
	if err != nil {
		return nil, err
	}

	for key, value := range headers {
		req.Header.Set(key, value)
	}

	return req, nil
}

func hasHeader(headers map[string]string, name string) bool {
	for key := range headers {
		if strings.EqualFold(key, name) {
			return true
		}
	}
	return false
}
