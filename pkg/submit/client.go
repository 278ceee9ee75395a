package submit

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/matzehuels/pipebuilder/pkg/buildinfo"
	"github.com/matzehuels/pipebuilder/pkg/errors"
	"github.com/matzehuels/pipebuilder/pkg/graph"
	"github.com/matzehuels/pipebuilder/pkg/httputil"
	"github.com/matzehuels/pipebuilder/pkg/persist"
)

// Service endpoints.
const (
	PathPing   = "/"
	PathParse  = "/pipelines/parse"
	PathDelete = "/pipelines/delete"
)

// DefaultTimeout bounds a single submission, retries included.
const DefaultTimeout = 15 * time.Second

// DeleteRequest lists locally deleted element ids.
type DeleteRequest struct {
	NodeIDs []string `json:"node_ids"`
	EdgeIDs []string `json:"edge_ids"`
}

// DeleteResponse acknowledges a DeleteRequest.
type DeleteResponse struct {
	DeletedNodes int `json:"deleted_nodes"`
	DeletedEdges int `json:"deleted_edges"`
}

// Client talks to the validation service.
type Client struct {
	BaseURL string
	HTTP    *http.Client

	// Attempts and Delay control retries of transient failures.
	Attempts int
	Delay    time.Duration
}

// NewClient returns a client for the service at baseURL.
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	if err := errors.ValidateURL(baseURL); err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		HTTP:     httputil.NewClient(timeout),
		Attempts: 3,
		Delay:    500 * time.Millisecond,
	}, nil
}

// Parse submits snap and returns the service's counts and DAG flag.
func (c *Client) Parse(ctx context.Context, snap graph.Snapshot) (persist.Response, error) {
	var resp persist.Response
	err := c.post(ctx, PathParse, snap, &resp)
	return resp, err
}

// Delete reports deleted ids. It is not retried: a lost notice is
// acceptable and a late one must not stall the caller.
func (c *Client) Delete(ctx context.Context, nodeIDs, edgeIDs []string) (DeleteResponse, error) {
	req := DeleteRequest{NodeIDs: nodeIDs, EdgeIDs: edgeIDs}
	if req.NodeIDs == nil {
		req.NodeIDs = []string{}
	}
	if req.EdgeIDs == nil {
		req.EdgeIDs = []string{}
	}
	var resp DeleteResponse
	err := classify(ctx, c.do(ctx, PathDelete, req, &resp))
	return resp, err
}

// Ping checks that the service answers.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+PathPing, nil)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "build request")
	}
	req.Header.Set("User-Agent", buildinfo.UserAgent())
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return classify(ctx, err)
	}
	defer resp.Body.Close()
	var pong struct {
		Ping string `json:"ping"`
	}
	if err := httputil.CheckResponse(resp); err != nil {
		return classify(ctx, err)
	}
	if err := httputil.DecodeJSON(resp, &pong); err != nil {
		return classify(ctx, err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	err := httputil.Retry(ctx, c.Attempts, c.Delay, func() error {
		return c.do(ctx, path, body, out)
	})
	return classify(ctx, err)
}

func (c *Client) do(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(data))
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", buildinfo.UserAgent())

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return httputil.Retryable(err)
	}
	defer resp.Body.Close()

	if err := httputil.CheckResponse(resp); err != nil {
		return err
	}
	return httputil.DecodeJSON(resp, out)
}

// classify maps a transport outcome onto the remote error codes. The
// message of a rejected request matches what the editor shows the user.
func classify(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*errors.Error); ok {
		return err
	}

	var se *errors.StatusError
	if stderrors.As(err, &se) {
		return errors.Wrap(errors.ErrCodeRemoteRejected, se, "Request failed with status %d", se.StatusCode)
	}

	var ne net.Error
	if stderrors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded ||
		(stderrors.As(err, &ne) && ne.Timeout()) {
		return errors.Wrap(errors.ErrCodeTimeout, err, "Request timed out")
	}
	if stderrors.Is(err, context.Canceled) {
		return errors.Wrap(errors.ErrCodeNetwork, err, "Request cancelled")
	}
	if stderrors.Is(err, httputil.ErrInvalidBody) {
		return errors.Wrap(errors.ErrCodeRemoteRejected, err, "Invalid response from server")
	}
	return errors.Wrap(errors.ErrCodeNetwork, err, "Failed to reach server")
}
