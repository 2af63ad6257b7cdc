// Package upstream forwards GraphQL operations to the executing server.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/tinnou/router/internal/core/domain"
	"github.com/tinnou/router/internal/core/ports"
)

// DefaultTimeout bounds a single upstream round trip.
const DefaultTimeout = 30 * time.Second

// hopHeaders are not relayed back to the client.
var hopHeaders = []string{
	"Connection",
	"Content-Length",
	"Keep-Alive",
	"Transfer-Encoding",
	"Upgrade",
}

// Proxy is the downstream ports.Handler that POSTs operations to a GraphQL
// server and relays its answer.
type Proxy struct {
	url    string
	client *http.Client
}

var _ ports.Handler = (*Proxy)(nil)

// Config configures a Proxy.
type Config struct {
	URL     string
	Timeout time.Duration
	// Transport is the base round tripper; http.DefaultTransport if nil.
	Transport http.RoundTripper
}

// New creates a proxy for cfg.URL. Outgoing requests are traced with
// otelhttp.
func New(cfg Config) (*Proxy, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse upstream url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("upstream url %q: scheme must be http or https", cfg.URL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	base := cfg.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	return &Proxy{
		url: cfg.URL,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(base),
		},
	}, nil
}

// Serve sends op upstream. Any HTTP answer, including non-2xx, is relayed
// as-is; only transport failures are returned as errors.
func (p *Proxy) Serve(ctx context.Context, op *domain.Operation) (*domain.Response, error) {
	body, err := json.Marshal(op)
	if err != nil {
		return nil, fmt.Errorf("marshal operation: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, vs := range forwardedHeaders(ctx) {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read upstream response: %w", err)
	}

	header := resp.Header.Clone()
	for _, h := range hopHeaders {
		header.Del(h)
	}

	return &domain.Response{
		StatusCode: resp.StatusCode,
		Header:     header,
		Body:       respBody,
	}, nil
}

type forwardKey struct{}

// ForwardHeaders are client request headers copied onto the upstream request.
var ForwardHeaders = []string{"Authorization", "Cookie", "X-Request-ID"}

// WithForwardedHeaders stores the subset of h listed in ForwardHeaders on ctx
// for Serve to copy upstream.
func WithForwardedHeaders(ctx context.Context, h http.Header) context.Context {
	fwd := make(http.Header)
	for _, name := range ForwardHeaders {
		if vs := h.Values(name); len(vs) > 0 {
			fwd[http.CanonicalHeaderKey(name)] = append([]string(nil), vs...)
		}
	}
	if len(fwd) == 0 {
		return ctx
	}
	return context.WithValue(ctx, forwardKey{}, fwd)
}

func forwardedHeaders(ctx context.Context) http.Header {
	h, _ := ctx.Value(forwardKey{}).(http.Header)
	return h
}
