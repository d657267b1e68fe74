// Package askdbctl implements the command-line client for the askdb
// HTTP API. It stays a thin wrapper: every command maps onto one
// endpoint and prints the JSON response.
package askdbctl

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Stdout     io.Writer
	Stderr     io.Writer
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

	fs := flag.NewFlagSet("askdbctl", flag.ContinueOnError)
	fs.SetOutput(stderr)

	baseURL := fs.String("base-url", firstNonEmpty(defaults.BaseURL, "http://localhost:8080"), "askdb API base URL")
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
	method := ""
	path := ""
	var body io.Reader
	contentType := ""

	switch command {
	case "health":
		method, path = http.MethodGet, "/v1/health"
	case "tables":
		method, path = http.MethodGet, "/v1/tables"
	case "schema":
		method, path = http.MethodGet, "/v1/schema"
	case "history":
		method, path = http.MethodGet, "/v1/history"
	case "history-clear":
		method, path = http.MethodDelete, "/v1/history"
	case "sample":
		if fs.NArg() < 2 {
			_, _ = fmt.Fprintln(stderr, "usage: askdbctl sample <table>")
			return 2
		}
		method = http.MethodGet
		path = "/v1/tables/" + url.PathEscape(fs.Arg(1)) + "/sample"
	case "upload":
		if fs.NArg() < 3 {
			_, _ = fmt.Fprintln(stderr, "usage: askdbctl upload <table> <file.csv>")
			return 2
		}
		file, err := os.Open(fs.Arg(2))
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "open csv: %v\n", err)
			return 1
		}
		defer func() { _ = file.Close() }()
		method = http.MethodPost
		path = "/v1/tables/" + url.PathEscape(fs.Arg(1))
		body = file
		contentType = "text/csv"
	case "ask":
		if fs.NArg() < 2 {
			_, _ = fmt.Fprintln(stderr, "usage: askdbctl ask <question>")
			return 2
		}
		payload, err := json.Marshal(map[string]string{"question": strings.Join(fs.Args()[1:], " ")})
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "encode request: %v\n", err)
			return 1
		}
		method, path = http.MethodPost, "/v1/ask"
		body = bytes.NewReader(payload)
		contentType = "application/json"
	case "query":
		if fs.NArg() < 2 {
			_, _ = fmt.Fprintln(stderr, "usage: askdbctl query <sql>")
			return 2
		}
		payload, err := json.Marshal(map[string]string{"sql": strings.Join(fs.Args()[1:], " ")})
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "encode request: %v\n", err)
			return 1
		}
		method, path = http.MethodPost, "/v1/query"
		body = bytes.NewReader(payload)
		contentType = "application/json"
	default:
		_, _ = fmt.Fprintf(stderr, "unknown command %q\n\n", command)
		writeUsage(stderr)
		return 2
	}

	endpoint := strings.TrimRight(*baseURL, "/") + path
	code, responseBody, err := doRequest(ctx, client, method, endpoint, body, contentType)
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

func doRequest(ctx context.Context, client *http.Client, method, url string, body io.Reader, contentType string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, responseBody, nil
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
	_, _ = fmt.Fprintln(w, "usage: askdbctl [flags] <command>")
	_, _ = fmt.Fprintln(w, "")
	_, _ = fmt.Fprintln(w, "commands:")
	_, _ = fmt.Fprintln(w, "  health                    GET /v1/health")
	_, _ = fmt.Fprintln(w, "  tables                    GET /v1/tables")
	_, _ = fmt.Fprintln(w, "  schema                    GET /v1/schema")
	_, _ = fmt.Fprintln(w, "  sample <table>            GET /v1/tables/{table}/sample")
	_, _ = fmt.Fprintln(w, "  upload <table> <file>     POST /v1/tables/{table}")
	_, _ = fmt.Fprintln(w, "  ask <question>            POST /v1/ask")
	_, _ = fmt.Fprintln(w, "  query <sql>               POST /v1/query")
	_, _ = fmt.Fprintln(w, "  history                   GET /v1/history")
	_, _ = fmt.Fprintln(w, "  history-clear             DELETE /v1/history")
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
