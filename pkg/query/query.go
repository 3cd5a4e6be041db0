// Package query renders parameter objects into canonical URL query strings.
//
// Top-level keys are emitted in lexicographic order so that the same logical
// parameters always produce the same URL, independent of how the caller
// built them. Falsy values (nil, "", false, numeric zero, empty lists) are
// dropped. Nested objects expand to bracketed keys:
//
//	query.Params{"limit": 1, "fields": []string{"name", "last"}, "filter": query.Object{{"b", 2}, {"a", 1}}}
//
// serializes to
//
//	fields=name%2Clast&filter%5Bb%5D=2&filter%5Ba%5D=1&limit=1
package query

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidParams is returned for values that have no query representation.
var ErrInvalidParams = errors.New("invalid query parameter")

// Params is a parameter object keyed by top-level query key.
type Params map[string]interface{}

// Field is one entry of an ordered Object.
type Field struct {
	Key   string
	Value interface{}
}

// Object is a nested parameter object whose sub-keys keep the caller's order.
type Object []Field

// Pair is a single rendered key=value entry.
type Pair struct {
	Key   string
	Value string
}

type kind int

const (
	scalarKind kind = iota
	listKind
	nestedKind
)

// param is the tagged form of a parameter value.
type param struct {
	kind   kind
	falsy  bool
	null   bool
	scalar string
	fields []Pair
}

// Serialize renders params in canonical order.
func Serialize(params Params) ([]Pair, error) {
	obj := make(Object, 0, len(params))
	for key, value := range params {
		obj = append(obj, Field{Key: key, Value: value})
	}
	return SerializeObject(obj)
}

// SerializeObject renders an ordered parameter object. Top-level keys are
// still sorted; only nested Object values keep their order.
func SerializeObject(obj Object) ([]Pair, error) {
	fields := make(Object, len(obj))
	copy(fields, obj)
	sort.SliceStable(fields, func(i, j int) bool {
		return fields[i].Key < fields[j].Key
	})

	var pairs []Pair
	for _, field := range fields {
		p, err := classify(field.Value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", field.Key, err)
		}
		if p.falsy {
			continue
		}

		switch p.kind {
		case nestedKind:
			for _, sub := range p.fields {
				pairs = append(pairs, Pair{Key: field.Key + "[" + sub.Key + "]", Value: sub.Value})
			}
		default:
			pairs = append(pairs, Pair{Key: field.Key, Value: p.scalar})
		}
	}

	return pairs, nil
}

// classify converts a Go value into its tagged form.
func classify(value interface{}) (param, error) {
	switch v := value.(type) {
	case nil:
		return param{falsy: true, null: true}, nil
	case Object:
		fields := make([]Pair, 0, len(v))
		for _, field := range v {
			s, err := render(field.Value)
			if err != nil {
				return param{}, fmt.Errorf("[%s]: %w", field.Key, err)
			}
			fields = append(fields, Pair{Key: field.Key, Value: s})
		}
		return param{kind: nestedKind, fields: fields}, nil
	case time.Time:
		return param{kind: scalarKind, scalar: v.Format(time.RFC3339Nano)}, nil
	case json.Number:
		f, err := v.Float64()
		return param{kind: scalarKind, scalar: v.String(), falsy: err == nil && f == 0}, nil
	}

	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return param{falsy: true, null: true}, nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.String:
		return param{kind: scalarKind, scalar: rv.String(), falsy: rv.Len() == 0}, nil
	case reflect.Bool:
		return param{kind: scalarKind, scalar: strconv.FormatBool(rv.Bool()), falsy: !rv.Bool()}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return param{kind: scalarKind, scalar: strconv.FormatInt(rv.Int(), 10), falsy: rv.Int() == 0}, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return param{kind: scalarKind, scalar: strconv.FormatUint(rv.Uint(), 10), falsy: rv.Uint() == 0}, nil
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return param{kind: scalarKind, scalar: formatFloat(f), falsy: f == 0 || math.IsNaN(f)}, nil
	case reflect.Slice, reflect.Array:
		s, err := join(rv)
		if err != nil {
			return param{}, err
		}
		return param{kind: listKind, scalar: s, falsy: rv.Len() == 0}, nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return param{}, fmt.Errorf("%w: map key type %s", ErrInvalidParams, rv.Type().Key())
		}
		if rv.IsNil() {
			return param{falsy: true, null: true}, nil
		}

		fields := make([]Pair, 0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			key := iter.Key().String()
			s, err := render(iter.Value().Interface())
			if err != nil {
				return param{}, fmt.Errorf("[%s]: %w", key, err)
			}
			fields = append(fields, Pair{Key: key, Value: s})
		}
		// Go maps carry no order of their own
		sort.Slice(fields, func(i, j int) bool {
			return fields[i].Key < fields[j].Key
		})
		return param{kind: nestedKind, fields: fields}, nil
	default:
		return param{}, fmt.Errorf("%w: unsupported type %T", ErrInvalidParams, value)
	}
}

// render stringifies a value nested under an object key. Nested values are
// never dropped: nil renders as "null" and zero values render literally.
func render(value interface{}) (string, error) {
	p, err := classify(value)
	if err != nil {
		return "", err
	}
	switch {
	case p.null:
		return "null", nil
	case p.kind == nestedKind:
		return "", fmt.Errorf("%w: objects nested more than one level", ErrInvalidParams)
	default:
		return p.scalar, nil
	}
}

// join renders a list as its comma separated elements. Nil elements render
// empty and nested lists are flattened.
func join(rv reflect.Value) (string, error) {
	parts := make([]string, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		p, err := classify(rv.Index(i).Interface())
		if err != nil {
			return "", err
		}
		if p.null {
			continue
		}
		if p.kind == nestedKind {
			return "", fmt.Errorf("%w: object inside a list", ErrInvalidParams)
		}
		parts[i] = p.scalar
	}
	return strings.Join(parts, ","), nil
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	default:
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
}
