// Package cancel keeps at most one live cancellation handle per request key.
//
// A key is scoped to the URL it is armed against: arming "search" for
// https://api/users and for https://api/heros yields two independent
// entries. Arming a key that already has a handle cancels the old handle
// before the new one is stored, so a superseded request is always aborted
// before its replacement is issued.
package cancel

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
)

// ErrSuperseded is the cancellation cause of a handle replaced by a newer
// request under the same key.
var ErrSuperseded = errors.New("superseded by a newer request with the same key")

// Key identifies a cancellable request. Build one with String or List.
type Key struct {
	parts []string
	list  bool
}

// String returns a scalar key.
func String(s string) Key {
	return Key{parts: []string{s}}
}

// List returns a key made of several parts. It never collides with a
// String key, even for a single part.
func List(parts ...string) Key {
	p := make([]string, len(parts))
	copy(p, parts)
	return Key{parts: p, list: true}
}

// Normalize combines the key with href into the registry's map key.
// Scalar keys are concatenated directly; list keys are serialized as a JSON
// array first.
func (k Key) Normalize(href string) string {
	if !k.list {
		if len(k.parts) == 0 {
			return href
		}
		return k.parts[0] + href
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// []string always encodes
	_ = enc.Encode(k.parts)
	return string(bytes.TrimRight(buf.Bytes(), "\n")) + href
}

// Handle pairs a cancellation signal with the trigger that fires it.
type Handle struct {
	ctx    context.Context
	cancel context.CancelCauseFunc
}

func newHandle() *Handle {
	ctx, cancel := context.WithCancelCause(context.Background())
	return &Handle{ctx: ctx, cancel: cancel}
}

// Context is done once the handle is cancelled.
func (h *Handle) Context() context.Context {
	return h.ctx
}

// Done is a shorthand for Context().Done().
func (h *Handle) Done() <-chan struct{} {
	return h.ctx.Done()
}

// Cancelled reports whether the handle has been cancelled.
func (h *Handle) Cancelled() bool {
	return h.ctx.Err() != nil
}

// Cancel aborts the handle with cause context.Canceled.
func (h *Handle) Cancel() {
	h.cancel(context.Canceled)
}

func (h *Handle) supersede() {
	h.cancel(ErrSuperseded)
}

// Registry maps normalized keys to their live handle.
// Registry is safe for concurrent use.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*Handle

	// OnSupersede, when set, is called after a handle is cancelled by Arm.
	OnSupersede func(normalized string)
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*Handle)}
}

// Arm installs a fresh handle for key scoped to href and returns it with the
// normalized key. A handle already stored under the same normalized key is
// cancelled before Arm returns.
func (r *Registry) Arm(key Key, href string) (*Handle, string) {
	normalized := key.Normalize(href)
	h := newHandle()

	r.mu.Lock()
	prev, exists := r.entries[normalized]
	if exists {
		prev.supersede()
	}
	r.entries[normalized] = h
	r.mu.Unlock()

	if exists && r.OnSupersede != nil {
		r.OnSupersede(normalized)
	}

	return h, normalized
}

// Current returns the handle stored under a normalized key. It is for
// inspection only: a request dispatches with the handle Arm returned to it,
// never with whatever Current reports, since a later Arm may have replaced
// the entry.
func (r *Registry) Current(normalized string) (*Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.entries[normalized]
	return h, ok
}

// Len returns the number of stored keys. Entries are only ever replaced,
// never evicted.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.entries)
}
