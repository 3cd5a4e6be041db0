package query

import (
	"net/url"
	"strings"
)

// Values is an ordered query string with set semantics: setting an existing
// key replaces its first occurrence in place and drops later duplicates.
type Values struct {
	pairs []Pair
}

// ParseQuery reads an application/x-www-form-urlencoded query string,
// keeping the order of its entries. Undecodable escapes are kept verbatim.
func ParseQuery(raw string) Values {
	var v Values
	for _, part := range strings.Split(raw, "&") {
		if part == "" {
			continue
		}
		key, value, _ := strings.Cut(part, "=")
		v.pairs = append(v.pairs, Pair{Key: unescape(key), Value: unescape(value)})
	}
	return v
}

// Set assigns value to key.
func (v *Values) Set(key, value string) {
	found := false
	kept := v.pairs[:0]
	for _, p := range v.pairs {
		if p.Key != key {
			kept = append(kept, p)
			continue
		}
		if !found {
			kept = append(kept, Pair{Key: key, Value: value})
			found = true
		}
	}
	v.pairs = kept
	if !found {
		v.pairs = append(v.pairs, Pair{Key: key, Value: value})
	}
}

// Get returns the first value stored under key.
func (v Values) Get(key string) (string, bool) {
	for _, p := range v.pairs {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// Pairs returns a copy of the entries in order.
func (v Values) Pairs() []Pair {
	out := make([]Pair, len(v.pairs))
	copy(out, v.pairs)
	return out
}

// Len returns the number of entries.
func (v Values) Len() int {
	return len(v.pairs)
}

// Encode renders the entries as key=value joined by '&'.
func (v Values) Encode() string {
	var sb strings.Builder
	for i, p := range v.pairs {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(escape(p.Key))
		sb.WriteByte('=')
		sb.WriteString(escape(p.Value))
	}
	return sb.String()
}

// Apply merges pairs onto the query of u using set semantics.
func Apply(u *url.URL, pairs []Pair) {
	v := ParseQuery(u.RawQuery)
	for _, p := range pairs {
		v.Set(p.Key, p.Value)
	}
	u.RawQuery = v.Encode()
	u.ForceQuery = false
}

// escape applies form-urlencoding: alphanumerics and "*-._" stay literal,
// space becomes '+', every other byte is percent-encoded.
func escape(s string) string {
	const hex = "0123456789ABCDEF"
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9',
			c == '*', c == '-', c == '.', c == '_':
			sb.WriteByte(c)
		case c == ' ':
			sb.WriteByte('+')
		default:
			sb.WriteByte('%')
			sb.WriteByte(hex[c>>4])
			sb.WriteByte(hex[c&15])
		}
	}
	return sb.String()
}

func unescape(s string) string {
	out, err := url.QueryUnescape(s)
	if err != nil {
		return s
	}
	return out
}
