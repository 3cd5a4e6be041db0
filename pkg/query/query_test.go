package query

import (
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encode(t *testing.T, params Params) string {
	t.Helper()
	pairs, err := Serialize(params)
	require.NoError(t, err)
	var v Values
	for _, p := range pairs {
		v.Set(p.Key, p.Value)
	}
	return v.Encode()
}

func TestSerialize_AlphabeticalOrder(t *testing.T) {
	got := encode(t, Params{"limit": 1, "fields": []string{"name", "last"}})
	assert.Equal(t, "fields=name%2Clast&limit=1", got)
}

func TestSerialize_OrderIndependent(t *testing.T) {
	a, err := SerializeObject(Object{{"zeta", "z"}, {"alpha", 1}, {"Mid", true}})
	require.NoError(t, err)
	b, err := SerializeObject(Object{{"Mid", true}, {"zeta", "z"}, {"alpha", 1}})
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, []Pair{{"Mid", "true"}, {"alpha", "1"}, {"zeta", "z"}}, a)
}

func TestSerialize_DropsFalsy(t *testing.T) {
	var nilPtr *int
	got := encode(t, Params{
		"zero":     0,
		"zeroF":    0.0,
		"empty":    "",
		"no":       false,
		"null":     nil,
		"list":     []string{},
		"nilPtr":   nilPtr,
		"kept":     "yes",
		"negative": -1,
	})
	assert.Equal(t, "kept=yes&negative=-1", got)
}

func TestSerialize_NestedObjects(t *testing.T) {
	tests := []struct {
		name   string
		params Params
		want   string
	}{
		{
			name:   "ordered object keeps caller order",
			params: Params{"filter": Object{{"name", "bat"}, {"age", 30}}},
			want:   "filter%5Bname%5D=bat&filter%5Bage%5D=30",
		},
		{
			name:   "plain map is emitted sorted",
			params: Params{"filter": map[string]interface{}{"name": "bat", "age": 30}},
			want:   "filter%5Bage%5D=30&filter%5Bname%5D=bat",
		},
		{
			name:   "sub values are not dropped",
			params: Params{"f": Object{{"a", 0}, {"b", false}, {"c", nil}, {"d", ""}}},
			want:   "f%5Ba%5D=0&f%5Bb%5D=false&f%5Bc%5D=null&f%5Bd%5D=",
		},
		{
			name:   "list inside object is comma joined",
			params: Params{"f": map[string][]string{"in": {"a", "b"}}},
			want:   "f%5Bin%5D=a%2Cb",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, encode(t, tt.params))
		})
	}
}

func TestSerialize_Scalars(t *testing.T) {
	when := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	got := encode(t, Params{
		"f":    1.5,
		"big":  uint64(18446744073709551615),
		"t":    when,
		"s":    "a b&c",
		"list": []interface{}{1, nil, "x", []int{2, 3}},
	})
	assert.Equal(t, "big=18446744073709551615&f=1.5&list=1%2C%2Cx%2C2%2C3&s=a+b%26c&t=2024-01-02T03%3A04%3A05Z", got)
}

func TestSerialize_InvalidParams(t *testing.T) {
	tests := map[string]Params{
		"func":           {"cb": func() {}},
		"struct":         {"s": struct{ A int }{1}},
		"deep nesting":   {"a": Object{{"b", Object{{"c", 1}}}}},
		"object in list": {"a": []interface{}{map[string]int{"b": 1}}},
		"int keyed map":  {"a": map[int]string{1: "x"}},
	}

	for name, params := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Serialize(params)
			assert.True(t, errors.Is(err, ErrInvalidParams), "got %v", err)
		})
	}
}

func TestValues_SetSemantics(t *testing.T) {
	v := ParseQuery("a=1&b=2&a=3&c=x+y")
	v.Set("a", "9")
	v.Set("d", "4")

	assert.Equal(t, "a=9&b=2&c=x+y&d=4", v.Encode())
	got, ok := v.Get("c")
	assert.True(t, ok)
	assert.Equal(t, "x y", got)
	assert.Equal(t, 4, v.Len())
}

func TestApply(t *testing.T) {
	u, err := url.Parse("https://some-domain.com/?page=2&limit=5")
	require.NoError(t, err)

	Apply(u, []Pair{{"limit", "1"}, {"fields", "name,last"}})
	assert.Equal(t, "https://some-domain.com/?page=2&limit=1&fields=name%2Clast", u.String())

	u, err = url.Parse("https://some-domain.com/")
	require.NoError(t, err)
	Apply(u, nil)
	assert.Equal(t, "https://some-domain.com/", u.String())
}
