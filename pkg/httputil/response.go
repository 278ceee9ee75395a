package httputil

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/matzehuels/pipebuilder/pkg/errors"
)

// maxErrorBody bounds how much of an error response is kept.
const maxErrorBody = 512

// ErrInvalidBody is returned by DecodeJSON for bodies that do not decode.
var ErrInvalidBody = stderrors.New("invalid response body")

// CheckResponse returns nil for 2xx responses. Otherwise it drains the body
// into an *errors.StatusError, marked retryable for 429 and 5xx. A
// Retry-After header on those responses is kept as the retry hint.
func CheckResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	err := &errors.StatusError{
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(body)),
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return &RetryableError{Err: err, After: ParseRetryAfter(resp.Header, time.Now())}
	}
	return err
}

// DecodeJSON decodes a response body into v.
func DecodeJSON(resp *http.Response, v any) error {
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	return nil
}
