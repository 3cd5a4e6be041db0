package peach

import (
	"fmt"
	"net/url"
)

// Resolve resolves fragment against base following RFC 3986 reference
// resolution: an absolute fragment replaces base, a relative one is joined
// onto base's directory.
func Resolve(fragment string, base *url.URL) (*url.URL, error) {
	if base == nil || !base.IsAbs() {
		return nil, fmt.Errorf("%w: base %v is not an absolute URL", ErrInvalidURI, base)
	}

	ref, err := url.Parse(fragment)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURI, err)
	}

	u := base.ResolveReference(ref)
	normalizePath(u)
	return u, nil
}

// ParseBase parses an absolute base URL.
func ParseBase(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURI, err)
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("%w: base %q is not an absolute URL", ErrInvalidURI, raw)
	}
	normalizePath(u)
	return u, nil
}

// normalizePath gives hierarchical URLs with an empty path the root path, so
// https://host renders as https://host/.
func normalizePath(u *url.URL) {
	if u.Host != "" && u.Opaque == "" && u.Path == "" {
		u.Path = "/"
		u.RawPath = ""
	}
}
