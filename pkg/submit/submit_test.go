package submit

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/pipebuilder/pkg/cache"
	"github.com/matzehuels/pipebuilder/pkg/errors"
	"github.com/matzehuels/pipebuilder/pkg/graph"
	"github.com/matzehuels/pipebuilder/pkg/persist"
	"github.com/matzehuels/pipebuilder/pkg/store"
)

// fakeService mimics the validation service.
type fakeService struct {
	parseCalls  atomic.Int32
	deleteCalls atomic.Int32
	status      int
	lastDelete  DeleteRequest
	mu          sync.Mutex
}

func (f *fakeService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case PathParse:
		f.parseCalls.Add(1)
		if f.status != 0 {
			w.WriteHeader(f.status)
			return
		}
		var snap graph.Snapshot
		if err := json.NewDecoder(r.Body).Decode(&snap); err != nil {
			w.WriteHeader(http.StatusUnprocessableEntity)
			return
		}
		_ = json.NewEncoder(w).Encode(persist.Response{
			NumNodes: len(snap.Nodes),
			NumEdges: len(snap.Edges),
			IsDAG:    true,
		})
	case PathDelete:
		f.deleteCalls.Add(1)
		f.mu.Lock()
		_ = json.NewDecoder(r.Body).Decode(&f.lastDelete)
		f.mu.Unlock()
		if f.status != 0 {
			w.WriteHeader(f.status)
			return
		}
		_ = json.NewEncoder(w).Encode(DeleteResponse{})
	case PathPing:
		_, _ = w.Write([]byte(`{"ping":"pong"}`))
	default:
		http.NotFound(w, r)
	}
}

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL, time.Second)
	require.NoError(t, err)
	c.Delay = time.Millisecond
	return c
}

func quietLogger() *log.Logger {
	l := log.New(io.Discard)
	l.SetLevel(log.FatalLevel)
	return l
}

func testSnapshot() graph.Snapshot {
	s := store.New(nil)
	a, _ := s.CreateNode("customInput", store.Position{})
	b, _ := s.CreateNode("llm", store.Position{X: 100})
	_, _ = s.Connect(a.ID, "value", b.ID, "system")
	return s.Snapshot()
}

func TestNewClientRejectsBadURL(t *testing.T) {
	_, err := NewClient("ftp://example.com", 0)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
}

func TestClientParse(t *testing.T) {
	c := newTestClient(t, &fakeService{})
	resp, err := c.Parse(context.Background(), testSnapshot())
	require.NoError(t, err)
	assert.Equal(t, persist.Response{NumNodes: 2, NumEdges: 1, IsDAG: true}, resp)
}

func TestClientPing(t *testing.T) {
	c := newTestClient(t, &fakeService{})
	assert.NoError(t, c.Ping(context.Background()))
}

func TestClientParseErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantCode  errors.Code
		wantMsg   string
		wantCalls int32
	}{
		{"rejected", http.StatusUnprocessableEntity, errors.ErrCodeRemoteRejected, "Request failed with status 422", 1},
		{"server error retried", http.StatusInternalServerError, errors.ErrCodeRemoteRejected, "Request failed with status 500", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeService{status: tt.status}
			c := newTestClient(t, f)
			_, err := c.Parse(context.Background(), testSnapshot())
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, errors.GetCode(err))
			assert.Equal(t, tt.wantMsg, errors.UserMessage(err))
			assert.Equal(t, tt.wantCalls, f.parseCalls.Load())
		})
	}
}

func TestClientNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := NewClient(url, time.Second)
	require.NoError(t, err)
	c.Attempts = 1
	_, err = c.Parse(context.Background(), testSnapshot())
	assert.Equal(t, errors.ErrCodeNetwork, errors.GetCode(err))
	assert.True(t, errors.IsRemote(err))
}

func TestClientTimeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(block)

	c, err := NewClient(srv.URL, 50*time.Millisecond)
	require.NoError(t, err)
	c.Attempts = 1
	_, err = c.Parse(context.Background(), testSnapshot())
	assert.Equal(t, errors.ErrCodeTimeout, errors.GetCode(err))
}

func TestClientInvalidBody(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>"))
	}))
	_, err := c.Parse(context.Background(), testSnapshot())
	assert.Equal(t, errors.ErrCodeRemoteRejected, errors.GetCode(err))
}

func TestSubmitEmptyPipeline(t *testing.T) {
	f := &fakeService{}
	r := NewRunner(newTestClient(t, f), nil, nil, quietLogger())

	out, err := r.Submit(context.Background(), graph.Snapshot{})
	assert.True(t, errors.Is(err, errors.ErrCodeEmptyPipeline))
	assert.Equal(t, Notice{Text: TextEmptyPipeline, Tone: ToneWarn}, out.Notice)
	assert.Zero(t, f.parseCalls.Load(), "no request for an empty pipeline")
}

func TestSubmitSuccessPersists(t *testing.T) {
	ctx := context.Background()
	p, err := persist.NewFileStore(t.TempDir())
	require.NoError(t, err)
	r := NewRunner(newTestClient(t, &fakeService{}), nil, p, quietLogger())

	snap := testSnapshot()
	out, err := r.Submit(ctx, snap)
	require.NoError(t, err)
	assert.Equal(t, Notice{Text: "Nodes: 2 • Edges: 1 • DAG: Yes", Tone: ToneSuccess}, out.Notice)
	assert.False(t, out.Cached)

	rec, err := p.Load(ctx, persist.DefaultKey)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, snap.NodeIDs(), rec.Snapshot().NodeIDs())
	assert.Equal(t, &out.Response, rec.Response)
}

func TestSubmitFailureNotice(t *testing.T) {
	r := NewRunner(newTestClient(t, &fakeService{status: http.StatusBadRequest}), nil, nil, quietLogger())
	out, err := r.Submit(context.Background(), testSnapshot())
	require.Error(t, err)
	assert.Equal(t, Notice{Text: "Submit failed: Request failed with status 400", Tone: ToneError}, out.Notice)
}

type failingStore struct{ persist.NullStore }

func (failingStore) Save(context.Context, string, persist.Record) error {
	return errors.New(errors.ErrCodeInternal, "disk full")
}

func TestSubmitIgnoresPersistFailure(t *testing.T) {
	r := NewRunner(newTestClient(t, &fakeService{}), nil, failingStore{}, quietLogger())
	out, err := r.Submit(context.Background(), testSnapshot())
	require.NoError(t, err)
	assert.Equal(t, ToneSuccess, out.Notice.Tone)
}

func TestSubmitUsesCache(t *testing.T) {
	ctx := context.Background()
	fc, err := cache.NewFileCache(t.TempDir())
	require.NoError(t, err)
	f := &fakeService{}
	r := NewRunner(newTestClient(t, f), fc, nil, quietLogger())

	snap := testSnapshot()
	first, err := r.Submit(ctx, snap)
	require.NoError(t, err)
	second, err := r.Submit(ctx, snap)
	require.NoError(t, err)

	assert.False(t, first.Cached)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Response, second.Response)
	assert.Equal(t, int32(1), f.parseCalls.Load())
}

func TestSubmitDoesNotTouchStore(t *testing.T) {
	s := store.New(nil)
	_, _ = s.CreateNode("llm", store.Position{})
	before := s.Snapshot()

	r := NewRunner(newTestClient(t, &fakeService{status: http.StatusBadGateway}), nil, nil, quietLogger())
	r.Client.Attempts = 1
	_, err := r.Submit(context.Background(), s.Snapshot())
	require.Error(t, err)
	assert.Equal(t, before, s.Snapshot())
}

func TestSubmitAsync(t *testing.T) {
	r := NewRunner(newTestClient(t, &fakeService{}), nil, nil, quietLogger())
	done := make(chan Outcome, 1)
	r.SubmitAsync(context.Background(), testSnapshot(), func(o Outcome, err error) {
		assert.NoError(t, err)
		done <- o
	})
	r.Wait()
	select {
	case o := <-done:
		assert.Equal(t, 2, o.Response.NumNodes)
	default:
		t.Fatal("callback not called")
	}
}

func TestNotifyDeleted(t *testing.T) {
	f := &fakeService{}
	r := NewRunner(newTestClient(t, f), nil, nil, quietLogger())

	r.NotifyDeleted(context.Background(), store.DeleteResult{})
	r.NotifyDeleted(context.Background(), store.DeleteResult{
		Nodes: 1, Edges: 1,
		NodeIDs: []string{"customInput-1"},
		EdgeIDs: []string{"customInput-1:value->llm-1:system"},
	})
	r.Wait()

	assert.Equal(t, int32(1), f.deleteCalls.Load())
	f.mu.Lock()
	defer f.mu.Unlock()
	assert.Equal(t, []string{"customInput-1"}, f.lastDelete.NodeIDs)
}

func TestNotifyDeletedFailureIsSilent(t *testing.T) {
	f := &fakeService{status: http.StatusInternalServerError}
	r := NewRunner(newTestClient(t, f), nil, nil, quietLogger())
	r.NotifyDeleted(context.Background(), store.DeleteResult{Nodes: 1, NodeIDs: []string{"llm-1"}})
	r.Wait()
	assert.Equal(t, int32(1), f.deleteCalls.Load(), "delete is not retried")
}

func TestSummarize(t *testing.T) {
	text, n := Summarize(graph.Snapshot{})
	assert.Empty(t, text)
	assert.Equal(t, Notice{Text: TextNothingToSum, Tone: ToneWarn}, n)

	text, n = Summarize(testSnapshot())
	assert.Contains(t, text, "Pipeline summary\nNodes (2)")
	assert.Equal(t, ToneInfo, n.Tone)
}

func TestSuccessText(t *testing.T) {
	assert.Equal(t, "Nodes: 3 • Edges: 2 • DAG: No", SuccessText(persist.Response{NumNodes: 3, NumEdges: 2}))
}

func TestNotifierExpires(t *testing.T) {
	var mu sync.Mutex
	var seen []Notice
	nf := NewNotifier(20*time.Millisecond, func(n Notice) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, n)
	})

	nf.Show(Notice{Text: "one", Tone: ToneInfo})
	nf.Show(Notice{Text: "two", Tone: ToneInfo})
	assert.Equal(t, "two", nf.Current().Text)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 3
	}, time.Second, 5*time.Millisecond)
	assert.True(t, nf.Current().IsZero())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 3)
	assert.Equal(t, "one", seen[0].Text)
	assert.Equal(t, "two", seen[1].Text)
	assert.True(t, seen[2].IsZero())
}

func TestNotifierDefaultDuration(t *testing.T) {
	nf := NewNotifier(0, nil)
	assert.Equal(t, DefaultNoticeDuration, nf.duration)
	nf.Show(Notice{Text: "x"})
	nf.Stop()
	assert.Equal(t, "x", nf.Current().Text)
}
