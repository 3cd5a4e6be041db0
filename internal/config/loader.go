package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is a profile file: named environments, saved requests and the
// JSON schemas they can be validated against.
type Config struct {
	DefaultEnvironment string                 `json:"defaultEnvironment,omitempty" yaml:"defaultEnvironment,omitempty"`
	Environments       map[string]Environment `json:"environments" yaml:"environments"`
	Requests           map[string]Request     `json:"requests,omitempty" yaml:"requests,omitempty"`
	Schemas            map[string]interface{} `json:"schemas,omitempty" yaml:"schemas,omitempty"`
}

// Environment is a base URL with the defaults sent to it
type Environment struct {
	BaseURL string            `json:"baseUrl" yaml:"baseUrl"`
	Timeout string            `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Vars    map[string]string `json:"variables,omitempty" yaml:"variables,omitempty"`
}

// Request is a saved request run by name
type Request struct {
	Method    string                 `json:"method" yaml:"method"`
	Path      string                 `json:"path,omitempty" yaml:"path,omitempty"`
	ID        string                 `json:"id,omitempty" yaml:"id,omitempty"`
	Query     map[string]interface{} `json:"query,omitempty" yaml:"query,omitempty"`
	Headers   map[string]string      `json:"headers,omitempty" yaml:"headers,omitempty"`
	Body      interface{}            `json:"body,omitempty" yaml:"body,omitempty"`
	Extract   string                 `json:"extract,omitempty" yaml:"extract,omitempty"`
	Transform string                 `json:"transform,omitempty" yaml:"transform,omitempty"`
	Schema    string                 `json:"schema,omitempty" yaml:"schema,omitempty"`
	Cancel    []string               `json:"cancel,omitempty" yaml:"cancel,omitempty"`
}

// Resolved is an environment with variables substituted and the timeout parsed
type Resolved struct {
	Name    string
	BaseURL string
	Timeout time.Duration
	Headers map[string]string
	Vars    map[string]string
}

// LoadConfig loads a profile file. Files ending in .json are parsed as
// JSON, anything else as YAML.
func LoadConfig(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	config, err := Parse(data, strings.EqualFold(filepath.Ext(path), ".json"))
	if err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if errs := ValidateConfig(config); len(errs) > 0 {
		return nil, joinValidationErrors(errs)
	}

	return config, nil
}

// Parse decodes a profile from data.
func Parse(data []byte, isJSON bool) (*Config, error) {
	var config Config
	if isJSON {
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, err
		}
	} else {
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, err
		}
	}
	return &config, nil
}

// Environment resolves the named environment. An empty name selects the
// default environment, or the only one when the file defines a single
// environment.
func (c *Config) Environment(name string) (*Resolved, error) {
	if name == "" {
		name = c.DefaultEnvironment
	}
	if name == "" && len(c.Environments) == 1 {
		for only := range c.Environments {
			name = only
		}
	}
	if name == "" {
		return nil, fmt.Errorf("no environment selected; choose one of: %s", strings.Join(c.environmentNames(), ", "))
	}
	if err := ValidateEnvironment(c, name); err != nil {
		return nil, err
	}

	env := c.Environments[name]
	resolved := &Resolved{
		Name:    name,
		BaseURL: ProcessEnvironment(env.BaseURL, env.Vars),
		Headers: ProcessEnvironmentInMap(env.Headers, env.Vars),
		Vars:    MergeEnvironments(nil, env.Vars),
	}

	if env.Timeout != "" {
		timeout, err := parseDurationString(env.Timeout)
		if err != nil {
			return nil, fmt.Errorf("environment %s: invalid timeout '%s': %w", name, env.Timeout, err)
		}
		resolved.Timeout = timeout
	}

	return resolved, nil
}

// Schema returns the named schema encoded as JSON.
func (c *Config) Schema(name string) ([]byte, error) {
	schema, ok := c.Schemas[name]
	if !ok {
		return nil, fmt.Errorf("schema not found: %s", name)
	}
	return json.Marshal(schema)
}

func (c *Config) environmentNames() []string {
	names := make([]string, 0, len(c.Environments))
	for name := range c.Environments {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// parseDurationString parses duration strings like "30s", "5m" or "1 minute".
// A bare number is read as milliseconds.
func parseDurationString(duration string) (time.Duration, error) {
	duration = strings.TrimSpace(duration)
	if duration == "" {
		return 0, fmt.Errorf("duration cannot be empty")
	}

	if d, err := time.ParseDuration(duration); err == nil {
		return d, nil
	}
	if isDigits(duration) {
		return time.ParseDuration(duration + "ms")
	}

	duration = strings.ToLower(duration)
	duration = strings.ReplaceAll(duration, " ", "")

	// Longest words first so "seconds" is not left as "s" + "s"
	replacements := []struct{ word, abbrev string }{
		{"milliseconds", "ms"},
		{"millisecond", "ms"},
		{"seconds", "s"},
		{"second", "s"},
		{"minutes", "m"},
		{"minute", "m"},
		{"hours", "h"},
		{"hour", "h"},
	}
	for _, r := range replacements {
		duration = strings.ReplaceAll(duration, r.word, r.abbrev)
	}

	return time.ParseDuration(duration)
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return s != ""
}

var envPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// ProcessEnvironment replaces {{name}} with the matching variable and
// ${NAME} with the process environment. Unset environment variables are
// left as written.
func ProcessEnvironment(input string, vars map[string]string) string {
	result := input

	for key, value := range vars {
		result = strings.ReplaceAll(result, "{{"+key+"}}", value)
	}

	return envPattern.ReplaceAllStringFunc(result, func(match string) string {
		name := envPattern.FindStringSubmatch(match)[1]
		if value, ok := os.LookupEnv(name); ok {
			return value
		}
		return match
	})
}

// ProcessEnvironmentInMap applies ProcessEnvironment to every value of input.
func ProcessEnvironmentInMap(input map[string]string, vars map[string]string) map[string]string {
	result := make(map[string]string, len(input))

	for key, value := range input {
		result[key] = ProcessEnvironment(value, vars)
	}

	return result
}

// ProcessValue applies ProcessEnvironment to every string inside a decoded
// document, such as a saved request body or its query parameters.
func ProcessValue(value interface{}, vars map[string]string) interface{} {
	switch v := value.(type) {
	case string:
		return ProcessEnvironment(v, vars)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, item := range v {
			out[key] = ProcessValue(item, vars)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = ProcessValue(item, vars)
		}
		return out
	default:
		return value
	}
}

// MergeEnvironments merges two variable sets, with the second taking precedence
func MergeEnvironments(base, override map[string]string) map[string]string {
	result := make(map[string]string, len(base)+len(override))

	for key, value := range base {
		result[key] = value
	}

	for key, value := range override {
		result[key] = value
	}

	return result
}
