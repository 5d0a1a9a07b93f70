// Package upstream performs the single outbound call for a normalized
// provider request. The response body is always captured as raw bytes before
// any structured decoding is attempted, so malformed upstream content
// degrades into a reportable state instead of an unhandled fault.
package upstream

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
)

// upstreamHTTPTimeout bounds a single provider call, including the body
// read. There is no retry layer; one attempt per invocation.
const upstreamHTTPTimeout = 30 * time.Second

// httpClient is the shared HTTP client for provider requests.
var httpClient = &http.Client{Timeout: upstreamHTTPTimeout}

// Request is the fully-encoded provider request produced by a request
// normalizer. It is owned by the invoker for the duration of one call.
type Request struct {
	// Provider names the upstream for logging; never carries credentials.
	Provider string
	Method   string
	URL      string
	Header   http.Header
	Body     []byte
}

// Response carries the raw upstream outcome plus the result of the decode
// attempt. Decoded is false when the body was not valid JSON; RawBody is
// still populated in that case.
type Response struct {
	StatusCode int
	RawBody    []byte
	JSON       gjson.Result
	Decoded    bool
}

// Invoker performs outbound provider calls.
type Invoker struct {
	Verbose bool
	Debug   bool
	// Client overrides the shared client, for tests.
	Client *http.Client
}

// Do sends the request and reads the full response body as text before
// attempting a JSON decode. An empty or all-whitespace body is treated as an
// empty object rather than an error.
func (c *Invoker) Do(ctx context.Context, req *Request) (*Response, error) {
	var bodyReader io.Reader
	if len(req.Body) > 0 {
		bodyReader = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", req.Provider, err)
	}
	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}

	if c.Verbose {
		slog.Info("upstream.request",
			"provider", req.Provider,
			"method", req.Method,
			"url", redactURL(req.URL),
			"body_bytes", len(req.Body),
		)
	}
	if c.Debug && len(req.Body) > 0 {
		writeDebugDumpBlock("OUTBOUND REQUEST BODY "+req.Provider, req.Body)
	}

	client := c.Client
	if client == nil {
		client = httpClient
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("upstream %s request failed: %w", req.Provider, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response body: %w", req.Provider, err)
	}

	if c.Verbose {
		slog.Info("upstream.response",
			"provider", req.Provider,
			"status", resp.StatusCode,
			"body_bytes", len(raw),
		)
	}
	if c.Debug {
		writeDebugDumpBlock(fmt.Sprintf("UPSTREAM RESPONSE %s status=%d", req.Provider, resp.StatusCode), raw)
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		raw = []byte("{}")
	}

	out := &Response{StatusCode: resp.StatusCode, RawBody: raw}
	if gjson.ValidBytes(raw) {
		out.JSON = gjson.ParseBytes(raw)
		out.Decoded = true
	}
	return out, nil
}
