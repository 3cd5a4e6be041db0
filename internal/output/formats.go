package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// OutputFormat represents the available output formats
type OutputFormat string

const (
	// FormatText is pretty-printed, optionally colored JSON; top-level
	// strings are printed raw
	FormatText OutputFormat = "text"
	// FormatJSON is indented JSON
	FormatJSON OutputFormat = "json"
	// FormatYAML is a YAML document
	FormatYAML OutputFormat = "yaml"
)

// ParseFormat validates a format name. The empty string selects text.
func ParseFormat(name string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(name)) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown output format %q: must be one of text, json, yaml", name)
	}
}

// marshalJSON encodes v as indented JSON without HTML escaping.
func marshalJSON(v interface{}, indent string) (string, error) {
	return encodeJSON(v, "", indent)
}

// marshalJSONPrefix encodes v for embedding at a nesting level whose lines
// start with prefix.
func marshalJSONPrefix(v interface{}, prefix string) (string, error) {
	return encodeJSON(v, prefix, "  ")
}

func encodeJSON(v interface{}, prefix, indent string) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent(prefix, indent)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// marshalYAML encodes v as a YAML document.
func marshalYAML(v interface{}) (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
