// Package transform compiles jq expressions into response transforms.
package transform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/itchyny/gojq"

	"github.com/wesleyorama2/peach/pkg/peach"
)

const (
	// DefaultTimeout bounds a single evaluation
	DefaultTimeout = 1 * time.Second

	// DefaultMaxInputSize is the largest input accepted, measured as JSON (10MB)
	DefaultMaxInputSize = 10 * 1024 * 1024
)

// ErrTimeout is returned when an evaluation runs past its timeout.
var ErrTimeout = errors.New("jq evaluation timed out")

// Program is a compiled jq expression.
type Program struct {
	expression   string
	code         *gojq.Code
	timeout      time.Duration
	maxInputSize int64
}

// Option configures a Program.
type Option func(*Program)

// WithTimeout bounds each evaluation.
func WithTimeout(timeout time.Duration) Option {
	return func(p *Program) {
		p.timeout = timeout
	}
}

// WithMaxInputSize rejects inputs larger than size bytes of JSON.
func WithMaxInputSize(size int64) Option {
	return func(p *Program) {
		p.maxInputSize = size
	}
}

// Compile parses and compiles expression.
func Compile(expression string, options ...Option) (*Program, error) {
	query, err := gojq.Parse(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid jq expression: %w", err)
	}

	code, err := gojq.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("jq compilation failed: %w", err)
	}

	p := &Program{
		expression:   expression,
		code:         code,
		timeout:      DefaultTimeout,
		maxInputSize: DefaultMaxInputSize,
	}
	for _, option := range options {
		option(p)
	}
	return p, nil
}

// String returns the source expression.
func (p *Program) String() string {
	return p.expression
}

// Run evaluates the program against data. A single result is returned as
// is, several results as a slice and no result as nil.
func (p *Program) Run(ctx context.Context, data interface{}) (interface{}, error) {
	if err := p.validateInputSize(data); err != nil {
		return nil, err
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	iter := p.code.RunWithContext(ctx, data)

	var results []interface{}
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := v.(error); isErr {
			if errors.Is(err, context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w after %v", ErrTimeout, p.timeout)
			}
			return nil, fmt.Errorf("jq %s: %w", p.expression, err)
		}
		results = append(results, v)
	}

	switch len(results) {
	case 0:
		return nil, nil
	case 1:
		return results[0], nil
	default:
		return results, nil
	}
}

// Func adapts the program to a request transform.
func (p *Program) Func(ctx context.Context) peach.TransformFunc {
	return func(value interface{}) (interface{}, error) {
		return p.Run(ctx, value)
	}
}

func (p *Program) validateInputSize(data interface{}) error {
	if p.maxInputSize <= 0 {
		return nil
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	if int64(len(jsonData)) > p.maxInputSize {
		return fmt.Errorf("data size (%d bytes) exceeds maximum (%d bytes)",
			len(jsonData), p.maxInputSize)
	}

	return nil
}
