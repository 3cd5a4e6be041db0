package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Response represents a fully buffered HTTP response.
type Response struct {
	// StatusCode is the HTTP status code (e.g., 200, 404, 500)
	StatusCode int

	// Status is the HTTP status string (e.g., "200 OK")
	Status string

	// Headers contains the response headers
	Headers http.Header

	// ResponseTime is the time from sending the request to reading the last body byte
	ResponseTime time.Duration

	// Timing breaks ResponseTime down into connection phases
	Timing TimingInfo

	// Method and URL identify the request that produced this response
	Method string
	URL    string

	rawBody []byte
}

// NewResponse builds a Response around an already read body.
// Transports other than Client use it to hand results to the builder.
func NewResponse(statusCode int, body []byte) *Response {
	return &Response{
		StatusCode: statusCode,
		Status:     fmt.Sprintf("%d %s", statusCode, http.StatusText(statusCode)),
		Headers:    make(http.Header),
		rawBody:    body,
	}
}

// JSON decodes the body into a generic value (maps, slices, float64,
// string, bool or nil). Malformed or empty bodies yield a *TransportError.
func (r *Response) JSON() (interface{}, error) {
	var value interface{}
	if err := r.GetBodyAsJSON(&value); err != nil {
		return nil, &TransportError{
			Op:         "decode",
			Method:     r.Method,
			URL:        r.URL,
			StatusCode: r.StatusCode,
			Cause:      err,
		}
	}
	return value, nil
}

// GetBodyAsJSON unmarshals the response body into the provided interface.
//
// Example:
//
//	var users []User
//	if err := resp.GetBodyAsJSON(&users); err != nil {
//	    log.Fatal(err)
//	}
func (r *Response) GetBodyAsJSON(v interface{}) error {
	return json.Unmarshal(r.rawBody, v)
}

// IsSuccess returns true if the response status code is in the 2xx range.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// IsError returns true if the response status code indicates an error (4xx or 5xx).
func (r *Response) IsError() bool {
	return r.StatusCode >= 400 && r.StatusCode < 600
}

// GetResponseTimeMillis returns the response time in milliseconds.
func (r *Response) GetResponseTimeMillis() int64 {
	return r.ResponseTime.Milliseconds()
}
