// Package httputil provides the HTTP plumbing shared by the submission
// client and its tests.
//
//   - [Retry]: retry with exponential backoff for errors marked retryable
//   - [CheckResponse]: map non-2xx responses to a structured error
//   - [NewClient]: an *http.Client whose transport reports to the
//     observability HTTP hooks
//
// Only transient failures are retried: transport errors, 429 and 5xx.
// A 4xx answer means the service understood the request and refused it,
// so retrying cannot help.
package httputil
