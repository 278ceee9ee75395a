package httputil

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/pipebuilder/pkg/errors"
	"github.com/matzehuels/pipebuilder/pkg/observability"
)

var errBoom = stderrors.New("boom")

func TestRetry(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name      string
		attempts  int
		failures  int
		retryable bool
		wantCalls int
		wantErr   bool
	}{
		{"first try", 3, 0, true, 1, false},
		{"recovers", 3, 2, true, 3, false},
		{"exhausted", 3, 5, true, 3, true},
		{"not retryable", 3, 5, false, 1, true},
		{"zero attempts runs once", 0, 5, true, 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := Retry(ctx, tt.attempts, time.Millisecond, func() error {
				calls++
				if calls <= tt.failures {
					if tt.retryable {
						return Retryable(errBoom)
					}
					return errBoom
				}
				return nil
			})
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !stderrors.Is(err, errBoom) {
				t.Errorf("err = %v, want wrapping errBoom", err)
			}
		})
	}
}

func TestRetryContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Retry(ctx, 3, time.Hour, func() error { return Retryable(errBoom) })
	if err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestRetryableNil(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) != nil")
	}
	if IsRetryable(errBoom) {
		t.Error("IsRetryable(plain) = true")
	}
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)
	tests := []struct {
		value string
		want  time.Duration
	}{
		{"", 0},
		{"3", 3 * time.Second},
		{"-5", 0},
		{"soon", 0},
		{now.Add(10 * time.Second).Format(http.TimeFormat), 10 * time.Second},
		{now.Add(-time.Minute).Format(http.TimeFormat), 0},
	}
	for _, tt := range tests {
		h := http.Header{}
		if tt.value != "" {
			h.Set("Retry-After", tt.value)
		}
		if got := ParseRetryAfter(h, now); got != tt.want {
			t.Errorf("ParseRetryAfter(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestRetryHonoursRetryAfter(t *testing.T) {
	calls := 0
	start := time.Now()
	err := Retry(context.Background(), 2, time.Millisecond, func() error {
		calls++
		if calls == 1 {
			return &RetryableError{Err: errBoom, After: 50 * time.Millisecond}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Retry() = %v", err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("Retry waited %v, want at least the Retry-After hint", elapsed)
	}
}

func TestCheckResponseRetryAfter(t *testing.T) {
	resp := &http.Response{
		StatusCode: http.StatusServiceUnavailable,
		Header:     http.Header{"Retry-After": []string{"2"}},
		Body:       io.NopCloser(strings.NewReader("")),
	}
	err := CheckResponse(resp)
	var re *RetryableError
	if !stderrors.As(err, &re) {
		t.Fatalf("CheckResponse() = %#v, want RetryableError", err)
	}
	if re.After != 2*time.Second {
		t.Errorf("After = %v, want 2s", re.After)
	}
}

func TestCheckResponse(t *testing.T) {
	tests := []struct {
		status    int
		body      string
		wantErr   bool
		retryable bool
	}{
		{200, "", false, false},
		{204, "", false, false},
		{400, "bad request", true, false},
		{422, "", true, false},
		{429, "slow down", true, true},
		{500, "oops", true, true},
		{503, "", true, true},
	}
	for _, tt := range tests {
		resp := &http.Response{StatusCode: tt.status, Body: io.NopCloser(strings.NewReader(tt.body))}
		err := CheckResponse(resp)
		if (err != nil) != tt.wantErr {
			t.Errorf("CheckResponse(%d) = %v, wantErr %v", tt.status, err, tt.wantErr)
			continue
		}
		if err == nil {
			continue
		}
		if IsRetryable(err) != tt.retryable {
			t.Errorf("CheckResponse(%d) retryable = %v, want %v", tt.status, IsRetryable(err), tt.retryable)
		}
		var se *errors.StatusError
		if !stderrors.As(err, &se) || se.StatusCode != tt.status || se.Body != tt.body {
			t.Errorf("CheckResponse(%d) = %#v", tt.status, err)
		}
	}
}

type recordingHooks struct {
	observability.NoopHTTPHooks
	mu        sync.Mutex
	requests  int
	responses []int
	errs      int
}

func (h *recordingHooks) OnRequest(context.Context, string, string, string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.requests++
}

func (h *recordingHooks) OnResponse(_ context.Context, _, _, _ string, status int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.responses = append(h.responses, status)
}

func (h *recordingHooks) OnError(context.Context, string, string, string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errs++
}

func TestClientReportsHooks(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetHTTPHooks(hooks)
	defer observability.Reset()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	resp, err := NewClient(time.Second).Get(srv.URL + "/pipelines/parse")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	resp.Body.Close()

	if hooks.requests != 1 || len(hooks.responses) != 1 || hooks.responses[0] != http.StatusAccepted {
		t.Errorf("hooks = %d requests, responses %v", hooks.requests, hooks.responses)
	}

	srv.Close()
	if _, err := NewClient(time.Second).Get(srv.URL); err == nil {
		t.Fatal("Get on closed server succeeded")
	}
	if hooks.errs != 1 {
		t.Errorf("errors = %d, want 1", hooks.errs)
	}
}

func TestDecodeJSON(t *testing.T) {
	var v struct{ OK bool }
	resp := &http.Response{Body: io.NopCloser(strings.NewReader(`{"OK":true}`))}
	if err := DecodeJSON(resp, &v); err != nil || !v.OK {
		t.Errorf("DecodeJSON = %v, %+v", err, v)
	}
	resp = &http.Response{Body: io.NopCloser(strings.NewReader(`<html>`))}
	if err := DecodeJSON(resp, &v); !stderrors.Is(err, ErrInvalidBody) {
		t.Errorf("DecodeJSON(html) = %v, want ErrInvalidBody", err)
	}
}
