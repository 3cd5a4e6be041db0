package peach

import (
	"errors"

	peachhttp "github.com/wesleyorama2/peach/http"
	"github.com/wesleyorama2/peach/pkg/jsonpath"
	"github.com/wesleyorama2/peach/pkg/query"
)

// Sentinel errors, one per failure kind. Match them with errors.Is.
var (
	// ErrInvalidURI is returned when a base URL or path fragment cannot be parsed
	ErrInvalidURI = errors.New("invalid URI")

	// ErrInvalidParams is returned when a query value has no query representation
	ErrInvalidParams = query.ErrInvalidParams

	// ErrNotIndexable is returned when a key is extracted from a non-structure
	ErrNotIndexable = jsonpath.ErrNotIndexable

	// ErrTransport matches network, read and decoding failures
	ErrTransport = peachhttp.ErrTransport

	// ErrCancelled matches requests aborted through their context or key
	ErrCancelled = peachhttp.ErrCancelled

	errNoClient = errors.New("request is not bound to a client")
)

// IsCancelled reports whether err was caused by a cancelled request,
// including one superseded by a newer request under the same key.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}
