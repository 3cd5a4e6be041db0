package output

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	peachhttp "github.com/wesleyorama2/peach/http"
)

// Formatter renders request lines and response values
type Formatter struct {
	Format  OutputFormat
	Verbose bool
	NoColor bool
	Scheme  *ColorScheme
}

// NewFormatter creates a new formatter with the given options
func NewFormatter(format OutputFormat, verbose, noColor bool) *Formatter {
	scheme := DefaultColorScheme()
	if noColor {
		scheme = NoColorScheme()
	}
	return &Formatter{
		Format:  format,
		Verbose: verbose,
		NoColor: noColor,
		Scheme:  scheme,
	}
}

// FormatRequest formats the request line, followed by headers when verbose.
// Header values must already be sanitized.
func (f *Formatter) FormatRequest(method, url string, headers map[string]string) string {
	var buf strings.Builder

	buf.WriteString(fmt.Sprintf("▶ %s %s\n", f.Scheme.Method.Sprint(method), f.Scheme.URL.Sprint(url)))

	if f.Verbose && len(headers) > 0 {
		keys := make([]string, 0, len(headers))
		for key := range headers {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		buf.WriteString("  Headers:\n")
		for _, key := range keys {
			buf.WriteString(fmt.Sprintf("    %s: %s\n", f.Scheme.HeaderKey.Sprint(key), headers[key]))
		}
	}

	return buf.String()
}

// FormatDone formats the completion line printed once a response arrives:
// its status, colored by class, and the response time. Statuses outside
// 2xx, 4xx and 5xx get a warning icon.
func (f *Formatter) FormatDone(resp *peachhttp.Response) string {
	icon, status := WarningIcon(f.NoColor), f.Scheme.Highlight.Sprint(resp.Status)
	switch {
	case resp.IsSuccess():
		icon, status = SuccessIcon(f.NoColor), f.Scheme.Success.Sprint(resp.Status)
	case resp.IsError():
		icon, status = ErrorIcon(f.NoColor), f.Scheme.Error.Sprint(resp.Status)
	}
	return fmt.Sprintf("◀ %s %s (%dms)\n", icon, status, resp.GetResponseTimeMillis())
}

// FormatError formats a failure message.
func (f *Formatter) FormatError(err error) string {
	return fmt.Sprintf("%s %s\n", ErrorIcon(f.NoColor), f.Scheme.Error.Sprint(err.Error()))
}

// FormatValue renders a response value in the formatter's format.
func (f *Formatter) FormatValue(value interface{}) (string, error) {
	switch f.Format {
	case FormatJSON:
		return marshalJSON(value, "  ")
	case FormatYAML:
		return marshalYAML(value)
	default:
		if s, ok := value.(string); ok {
			return s, nil
		}
		var buf strings.Builder
		if err := f.writeValue(&buf, value, ""); err != nil {
			return "", err
		}
		return buf.String(), nil
	}
}

// writeValue writes value as indented JSON, coloring keys and scalars.
// Map keys are sorted, as encoding/json does.
func (f *Formatter) writeValue(buf *strings.Builder, value interface{}, indent string) error {
	switch v := value.(type) {
	case map[string]interface{}:
		if len(v) == 0 {
			buf.WriteString("{}")
			return nil
		}
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		inner := indent + "  "
		buf.WriteString("{\n")
		for i, key := range keys {
			encodedKey, err := marshalJSON(key, "")
			if err != nil {
				return err
			}
			buf.WriteString(inner)
			buf.WriteString(f.Scheme.JSONKey.Sprint(encodedKey))
			buf.WriteString(": ")
			if err := f.writeValue(buf, v[key], inner); err != nil {
				return err
			}
			if i < len(keys)-1 {
				buf.WriteByte(',')
			}
			buf.WriteByte('\n')
		}
		buf.WriteString(indent)
		buf.WriteByte('}')
		return nil

	case []interface{}:
		if len(v) == 0 {
			buf.WriteString("[]")
			return nil
		}
		inner := indent + "  "
		buf.WriteString("[\n")
		for i, item := range v {
			buf.WriteString(inner)
			if err := f.writeValue(buf, item, inner); err != nil {
				return err
			}
			if i < len(v)-1 {
				buf.WriteByte(',')
			}
			buf.WriteByte('\n')
		}
		buf.WriteString(indent)
		buf.WriteByte(']')
		return nil

	case string:
		encoded, err := marshalJSON(v, "")
		if err != nil {
			return err
		}
		buf.WriteString(f.Scheme.String.Sprint(encoded))
		return nil

	case nil:
		buf.WriteString(f.Scheme.Literal.Sprint("null"))
		return nil

	case bool:
		buf.WriteString(f.Scheme.Literal.Sprint(strconv.FormatBool(v)))
		return nil

	case float64, int, int64, json.Number:
		encoded, err := marshalJSON(v, "")
		if err != nil {
			return err
		}
		buf.WriteString(f.Scheme.Number.Sprint(encoded))
		return nil

	default:
		// Values built by custom transforms, such as structs or typed maps
		encoded, err := marshalJSONPrefix(v, indent)
		if err != nil {
			return err
		}
		buf.WriteString(encoded)
		return nil
	}
}
