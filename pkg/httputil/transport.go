package httputil

import (
	"net/http"
	"time"

	"github.com/matzehuels/pipebuilder/pkg/observability"
)

// NewClient returns an HTTP client with the given timeout whose requests
// are reported to the registered HTTP hooks.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: &hookTransport{next: http.DefaultTransport},
	}
}

type hookTransport struct {
	next http.RoundTripper
}

func (t *hookTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	hooks := observability.HTTP()
	ctx := req.Context()
	method, host, path := req.Method, req.URL.Host, req.URL.Path

	hooks.OnRequest(ctx, method, host, path)
	start := time.Now()
	resp, err := t.next.RoundTrip(req)
	if err != nil {
		hooks.OnError(ctx, method, host, path, err)
		return nil, err
	}
	hooks.OnResponse(ctx, method, host, path, resp.StatusCode, time.Since(start))
	return resp, nil
}
