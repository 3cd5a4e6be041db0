package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	peachhttp "github.com/wesleyorama2/peach/http"
	"github.com/wesleyorama2/peach/internal/config"
	plog "github.com/wesleyorama2/peach/internal/log"
	"github.com/wesleyorama2/peach/internal/output"
	"github.com/wesleyorama2/peach/internal/transform"
	"github.com/wesleyorama2/peach/pkg/jsonschema"
	"github.com/wesleyorama2/peach/pkg/peach"
	"github.com/wesleyorama2/peach/pkg/query"
)

// defaultConfigFiles are looked up in the working directory when an
// environment is selected without --config.
var defaultConfigFiles = []string{"peach.yaml", "peach.yml", "peach.json"}

// requestPlan is everything needed to issue one request.
type requestPlan struct {
	method    string
	path      string
	id        string
	query     query.Params
	headers   map[string]string
	body      interface{}
	extract   string
	transform string
	schema    string
	cancelKey []string
}

// session holds the state shared by every command: the parsed global
// flags, the loaded profile and the output streams.
type session struct {
	cmd       *cobra.Command
	profile   *config.Config
	env       *config.Resolved
	formatter *output.Formatter
	client    *peach.Client
	recorder  *recordingTransport
}

// recordingTransport keeps the last response it fetched so the completion
// line can report its status.
type recordingTransport struct {
	peachhttp.Transport

	mu   sync.Mutex
	last *peachhttp.Response
}

func (t *recordingTransport) Fetch(ctx context.Context, u *url.URL, init peachhttp.Init) (*peachhttp.Response, error) {
	resp, err := t.Transport.Fetch(ctx, u, init)
	if resp != nil {
		t.mu.Lock()
		t.last = resp
		t.mu.Unlock()
	}
	return resp, err
}

func (t *recordingTransport) response() *peachhttp.Response {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last
}

// newSession reads the global flags into a ready client. The profile is
// loaded when --config is given, or looked up when requireProfile is set or
// an environment is selected.
func newSession(cmd *cobra.Command, target string, requireProfile bool) (*session, string, error) {
	flags := cmd.Flags()
	baseURL, _ := flags.GetString("base-url")
	envName, _ := flags.GetString("env")
	configPath, _ := flags.GetString("config")
	headers, _ := flags.GetStringArray("header")
	timeout, _ := flags.GetDuration("timeout")
	format, _ := flags.GetString("output")
	noColor, _ := flags.GetBool("no-color")
	verbose, _ := flags.GetBool("verbose")
	insecure, _ := flags.GetBool("insecure")

	outputFormat, err := output.ParseFormat(format)
	if err != nil {
		return nil, "", err
	}

	s := &session{cmd: cmd}

	s.profile, err = loadProfile(configPath, requireProfile || envName != "")
	if err != nil {
		return nil, "", err
	}
	if s.profile != nil {
		s.env, err = s.profile.Environment(envName)
		if err != nil {
			return nil, "", err
		}
	}

	if !useColor(cmd.OutOrStdout(), noColor) {
		noColor = true
	}
	s.formatter = output.NewFormatter(outputFormat, verbose, noColor)

	logConfig := plog.FromEnv()
	logConfig.Output = cmd.ErrOrStderr()
	if verbose {
		logConfig.Level = "debug"
	}
	var transportOptions []peachhttp.ClientOption
	if insecure {
		transportOptions = append(transportOptions, peachhttp.WithInsecureSkipVerify())
	}
	s.recorder = &recordingTransport{Transport: peachhttp.NewClient(transportOptions...)}

	options := []peach.Option{
		peach.WithLogger(plog.New(logConfig)),
		peach.WithTransport(s.recorder),
	}

	if s.env != nil {
		options = append(options, peach.WithConfig(peach.Config{
			BaseURL: s.env.BaseURL,
			Timeout: s.env.Timeout,
			Headers: s.env.Headers,
		}))
	}

	// A full URL argument supplies its own base when none is configured
	if baseURL == "" && (s.env == nil || s.env.BaseURL == "") && isAbsoluteURL(target) {
		baseURL, target = parseURL(target)
	}
	if baseURL != "" {
		options = append(options, peach.WithBaseURL(baseURL))
	}
	if flags.Changed("timeout") || s.env == nil || s.env.Timeout == 0 {
		options = append(options, peach.WithTimeout(timeout))
	}

	flagHeaders, err := parseHeaders(headers)
	if err != nil {
		return nil, "", err
	}
	options = append(options, peach.WithHeaders(flagHeaders))

	s.client = peach.New(options...)
	return s, target, nil
}

// loadProfile reads the profile at path. Without a path the default files
// are tried, but only when required is set.
func loadProfile(path string, required bool) (*config.Config, error) {
	if path != "" {
		return config.LoadConfig(path)
	}
	if !required {
		return nil, nil
	}
	for _, candidate := range defaultConfigFiles {
		if _, err := os.Stat(candidate); err == nil {
			return config.LoadConfig(candidate)
		}
	}
	return nil, fmt.Errorf("an environment was selected but no config file was given and none of %s exists",
		strings.Join(defaultConfigFiles, ", "))
}

// execute issues the planned request and prints the result.
func (s *session) execute(ctx context.Context, plan requestPlan) error {
	req := s.client.New()
	if plan.path != "" {
		req = req.Path(plan.path)
	}
	if len(plan.query) > 0 {
		req = req.Query(plan.query)
	}
	for key, value := range plan.headers {
		req = req.Header(key, value)
	}
	if len(plan.cancelKey) > 0 {
		req = req.CancellableList(plan.cancelKey...)
	}

	if plan.transform != "" {
		program, err := transform.Compile(plan.transform)
		if err != nil {
			return err
		}
		req = req.Transform(program.Func(ctx))
	}

	schema, err := s.compileSchema(plan.schema)
	if err != nil {
		return err
	}

	target, err := req.URL()
	if err != nil {
		return err
	}
	if plan.id != "" {
		if target, err = s.client.Path(plan.id).URL(); err != nil {
			return err
		}
	}

	stderr := s.cmd.ErrOrStderr()
	if s.formatter.Verbose {
		fmt.Fprint(stderr, s.formatter.FormatRequest(plan.method, target.String(), s.sanitizedHeaders(plan.headers)))
	}

	value, err := dispatch(ctx, req, plan)
	if s.formatter.Verbose {
		if resp := s.recorder.response(); resp != nil {
			fmt.Fprint(stderr, s.formatter.FormatDone(resp))
		}
	}
	if err != nil {
		return err
	}

	if schema != nil {
		if err := schema.Validate(value); err != nil {
			return fmt.Errorf("response does not match schema: %w", err)
		}
	}

	rendered, err := s.formatter.FormatValue(value)
	if err != nil {
		return err
	}
	fmt.Fprintln(s.cmd.OutOrStdout(), rendered)
	return nil
}

func dispatch(ctx context.Context, req peach.Request, plan requestPlan) (interface{}, error) {
	switch plan.method {
	case "GET":
		if plan.extract != "" {
			return req.Get(ctx, plan.extract)
		}
		return req.Get(ctx)
	case "POST":
		return req.Post(ctx, plan.body)
	case "PUT":
		return req.Put(ctx, plan.body)
	case "PATCH":
		return req.Patch(ctx, plan.body, plan.id)
	case "DELETE":
		return req.Delete(ctx, plan.id)
	default:
		return nil, fmt.Errorf("unsupported method %s", plan.method)
	}
}

// compileSchema compiles a schema named in the profile, or else read from
// the file at ref.
func (s *session) compileSchema(ref string) (*jsonschema.Schema, error) {
	if ref == "" {
		return nil, nil
	}
	if s.profile != nil {
		if _, ok := s.profile.Schemas[ref]; ok {
			data, err := s.profile.Schema(ref)
			if err != nil {
				return nil, err
			}
			return jsonschema.Compile(data)
		}
	}
	return jsonschema.CompileFile(ref)
}

func (s *session) sanitizedHeaders(extra map[string]string) map[string]string {
	headers := s.client.Config().Headers
	for key, value := range extra {
		headers[key] = value
	}
	for key, value := range headers {
		headers[key] = plog.SanitizeHeader(key, value)
	}
	return headers
}

// parseHeaders reads "Name: value" flags.
func parseHeaders(raw []string) (map[string]string, error) {
	headers := make(map[string]string, len(raw))
	for _, header := range raw {
		parts := strings.SplitN(header, ":", 2)
		if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" {
			return nil, fmt.Errorf("invalid header %q: expected Name: value", header)
		}
		headers[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
	}
	return headers, nil
}

// parseQuery reads "key=value" flags. A repeated key keeps its last value;
// values are passed as strings, so "a,b" is not split.
func parseQuery(raw []string) (query.Params, error) {
	params := make(query.Params, len(raw))
	for _, pair := range raw {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid query parameter %q: expected key=value", pair)
		}
		params[key] = value
	}
	return params, nil
}

// parseBody reads the --data flag. "@file" reads the body from a file and
// "@-" from stdin. Valid JSON is sent as JSON, anything else as text.
func parseBody(data string, stdin io.Reader) (interface{}, error) {
	if data == "" {
		return nil, nil
	}

	if strings.HasPrefix(data, "@") {
		var raw []byte
		var err error
		if data == "@-" {
			raw, err = io.ReadAll(stdin)
		} else {
			raw, err = os.ReadFile(data[1:])
		}
		if err != nil {
			return nil, fmt.Errorf("error reading body: %w", err)
		}
		data = string(raw)
	}

	var value interface{}
	if err := json.Unmarshal([]byte(data), &value); err == nil {
		return value, nil
	}
	return data, nil
}

func isAbsoluteURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// parseURL splits a URL into base URL and path
func parseURL(fullURL string) (string, string) {
	if !isAbsoluteURL(fullURL) {
		fullURL = "http://" + fullURL
	}

	parsedURL, err := url.Parse(fullURL)
	if err != nil {
		return fullURL, "/"
	}

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)

	// Include user info in the base URL if present
	if parsedURL.User != nil {
		baseURL = fmt.Sprintf("%s://%s@%s", parsedURL.Scheme, parsedURL.User.String(), parsedURL.Host)
	}

	path := parsedURL.EscapedPath()
	if path == "" {
		path = "/"
	}

	if parsedURL.RawQuery != "" {
		path = path + "?" + parsedURL.RawQuery
	}

	return baseURL, path
}

func useColor(w io.Writer, noColor bool) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return output.UseColor(f, noColor)
}
