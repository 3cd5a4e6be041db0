// Package jsonpath reads nested values out of decoded JSON using dotted paths
// such as "data.heros.0.name".
package jsonpath

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrNotIndexable is returned when a path is applied to a value that is not
// an object or an array.
var ErrNotIndexable = errors.New("cannot get a key from a non object value")

// Get walks value along the dot separated path and returns what it finds.
//
// An empty path returns value unchanged. Canonical numeric segments ("0",
// "12", not "01" or "+1") index arrays; arrays have no other keys, so
// "length" does not resolve either. A segment that does not resolve makes
// the whole lookup return nil without an error; only a root value that
// cannot be indexed fails.
func Get(value interface{}, path string) (interface{}, error) {
	if path == "" {
		return value, nil
	}

	if !indexable(value) {
		return nil, fmt.Errorf("%w: %T", ErrNotIndexable, value)
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotIndexable, err)
	}

	result := gjson.ParseBytes(raw)
	for _, segment := range strings.Split(path, ".") {
		if segment == "" {
			return nil, nil
		}
		if result.IsArray() && !isIndex(segment) {
			return nil, nil
		}

		result = result.Get(escape(segment))
		if !result.Exists() {
			return nil, nil
		}
	}

	return result.Value(), nil
}

// indexable reports whether value is a structure keys can be read from.
func indexable(value interface{}) bool {
	if value == nil {
		return false
	}

	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return false
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map, reflect.Slice:
		return !rv.IsNil()
	case reflect.Array, reflect.Struct:
		return true
	default:
		return false
	}
}

// isIndex reports whether segment is an array index written the way
// integers print: digits only, without leading zeros.
func isIndex(segment string) bool {
	if segment == "" || (len(segment) > 1 && segment[0] == '0') {
		return false
	}
	for i := 0; i < len(segment); i++ {
		if segment[i] < '0' || segment[i] > '9' {
			return false
		}
	}
	return true
}

// escape prefixes gjson's wildcard, modifier and multipath characters with a
// backslash.
func escape(segment string) string {
	var sb strings.Builder
	for i := 0; i < len(segment); i++ {
		switch c := segment[i]; c {
		case '\\', '*', '?', '|', '#', '@', '!', '[', '{':
			sb.WriteByte('\\')
			sb.WriteByte(c)
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}
