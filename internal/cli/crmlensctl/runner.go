package crmlensctl

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Options struct {
	BaseURL    string
	APIKey     string
	Session    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Stdout     io.Writer
	Stderr     io.Writer
}

// request is one resolved API call. GET commands carry query parameters,
// POST commands a JSON body.
type request struct {
	method string
	path   string
	query  url.Values
	body   any
}

func Run(ctx context.Context, args []string, defaults Options) int {
	stdout := defaults.Stdout
	if stdout == nil {
		stdout = io.Discard
	}
	stderr := defaults.Stderr
	if stderr == nil {
		stderr = io.Discard
	}

	fs := flag.NewFlagSet("crmlensctl", flag.ContinueOnError)
	fs.SetOutput(stderr)

	baseURL := fs.String("base-url", firstNonEmpty(defaults.BaseURL, "http://localhost:8080"), "CRM Lens API base URL")
	apiKey := fs.String("api-key", defaults.APIKey, "API key for authenticated requests")
	session := fs.String("session", defaults.Session, "session name for recorded ask turns")
	timeout := fs.Duration("timeout", durationOr(defaults.Timeout, 30*time.Second), "HTTP timeout (e.g. 30s)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		writeUsage(stderr)
		return 2
	}

	client := defaults.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: *timeout}
	}

	command := strings.TrimSpace(fs.Arg(0))
	rest := strings.TrimSpace(strings.Join(fs.Args()[1:], " "))

	var call request
	switch command {
	case "health":
		call = request{method: http.MethodGet, path: "/v1/health"}
	case "ready":
		call = request{method: http.MethodGet, path: "/v1/ready"}
	case "schema":
		call = request{method: http.MethodGet, path: "/v1/crm/schema"}
	case "tables":
		call = request{method: http.MethodGet, path: "/v1/crm/tables"}
	case "sessions":
		call = request{method: http.MethodGet, path: "/v1/sessions"}
	case "ask":
		if rest == "" {
			_, _ = fmt.Fprintln(stderr, "ask requires a question")
			return 2
		}
		body := map[string]any{"question": rest}
		if strings.TrimSpace(*session) != "" {
			body["session"] = strings.TrimSpace(*session)
		}
		call = request{method: http.MethodPost, path: "/v1/ask", body: body}
	case "intent":
		if rest == "" {
			_, _ = fmt.Fprintln(stderr, "intent requires a question")
			return 2
		}
		call = request{method: http.MethodPost, path: "/v1/intent", body: map[string]any{"question": rest}}
	case "filings":
		if rest == "" {
			_, _ = fmt.Fprintln(stderr, "filings requires a company name or ticker")
			return 2
		}
		call = request{method: http.MethodGet, path: "/v1/filings", query: url.Values{"company": {rest}}}
	case "news":
		if rest == "" {
			_, _ = fmt.Fprintln(stderr, "news requires a search query")
			return 2
		}
		call = request{method: http.MethodGet, path: "/v1/news", query: url.Values{"q": {rest}}}
	default:
		_, _ = fmt.Fprintf(stderr, "unknown command %q\n\n", command)
		writeUsage(stderr)
		return 2
	}

	endpoint := strings.TrimRight(*baseURL, "/") + call.path
	if len(call.query) > 0 {
		endpoint += "?" + call.query.Encode()
	}

	code, responseBody, err := doRequest(ctx, client, call.method, endpoint, *apiKey, call.body)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "request failed: %v\n", err)
		return 1
	}

	if code >= 400 {
		_, _ = fmt.Fprintf(stderr, "http %d: %s\n", code, strings.TrimSpace(string(responseBody)))
		return 1
	}

	if pretty, ok := prettyJSON(responseBody); ok {
		_, _ = fmt.Fprintln(stdout, pretty)
		return 0
	}
	if len(responseBody) > 0 {
		_, _ = fmt.Fprintln(stdout, string(responseBody))
	}
	return 0
}

func doRequest(ctx context.Context, client *http.Client, method, url, apiKey string, payload any) (int, []byte, error) {
	var bodyReader io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, err
		}
		bodyReader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if strings.TrimSpace(apiKey) != "" {
		req.Header.Set("X-API-Key", strings.TrimSpace(apiKey))
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, body, nil
}

func prettyJSON(raw []byte) (string, bool) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return "", false
	}
	var anyValue any
	if err := json.Unmarshal(raw, &anyValue); err != nil {
		return "", false
	}
	formatted, err := json.MarshalIndent(anyValue, "", "  ")
	if err != nil {
		return "", false
	}
	return string(formatted), true
}

func writeUsage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "usage: crmlensctl [flags] <command> [args]")
	_, _ = fmt.Fprintln(w, "")
	_, _ = fmt.Fprintln(w, "commands:")
	_, _ = fmt.Fprintln(w, "  health               GET /v1/health")
	_, _ = fmt.Fprintln(w, "  ready                GET /v1/ready")
	_, _ = fmt.Fprintln(w, "  schema               GET /v1/crm/schema")
	_, _ = fmt.Fprintln(w, "  tables               GET /v1/crm/tables")
	_, _ = fmt.Fprintln(w, "  sessions             GET /v1/sessions")
	_, _ = fmt.Fprintln(w, "  ask <question>       POST /v1/ask")
	_, _ = fmt.Fprintln(w, "  intent <question>    POST /v1/intent")
	_, _ = fmt.Fprintln(w, "  filings <company>    GET /v1/filings?company=...")
	_, _ = fmt.Fprintln(w, "  news <query>         GET /v1/news?q=...")
}

func firstNonEmpty(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return strings.TrimSpace(a)
	}
	return b
}

func durationOr(v, fallback time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return fallback
}
