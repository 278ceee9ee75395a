package submit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pipebuilder/pkg/cache"
	"github.com/matzehuels/pipebuilder/pkg/errors"
	"github.com/matzehuels/pipebuilder/pkg/graph"
	"github.com/matzehuels/pipebuilder/pkg/observability"
	"github.com/matzehuels/pipebuilder/pkg/persist"
	"github.com/matzehuels/pipebuilder/pkg/store"
)

// User-facing notice texts.
const (
	TextEmptyPipeline = "Add at least one node before submitting."
	TextNothingToSum  = "No nodes to summarize."
	TextSummaryReady  = "Summary ready."
)

// Outcome describes a finished submission.
type Outcome struct {
	Response persist.Response
	Cached   bool
	Notice   Notice
	Duration time.Duration
}

// Runner submits snapshots with caching and persistence.
//
// Runner holds no editor state; one runner can serve many submissions
// concurrently.
type Runner struct {
	Client  *Client
	Cache   cache.Cache
	Keyer   cache.Keyer
	Persist persist.Store
	Key     string        // persistence key, persist.DefaultKey if empty
	Timeout time.Duration // per submission, DefaultTimeout if zero
	Logger  *log.Logger

	wg sync.WaitGroup
}

// NewRunner creates a runner. A nil cache disables caching, a nil store
// disables persistence and a nil logger means log.Default().
func NewRunner(client *Client, c cache.Cache, p persist.Store, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if p == nil {
		p = persist.NullStore{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Client:  client,
		Cache:   c,
		Keyer:   cache.NewDefaultKeyer(),
		Persist: p,
		Key:     persist.DefaultKey,
		Timeout: DefaultTimeout,
		Logger:  logger,
	}
}

// SuccessText formats a validation response the way the editor shows it.
func SuccessText(resp persist.Response) string {
	dag := "No"
	if resp.IsDAG {
		dag = "Yes"
	}
	return fmt.Sprintf("Nodes: %d • Edges: %d • DAG: %s", resp.NumNodes, resp.NumEdges, dag)
}

// Submit validates snap remotely. The error is nil only on success; the
// returned Outcome always carries the notice to show.
func (r *Runner) Submit(ctx context.Context, snap graph.Snapshot) (Outcome, error) {
	if snap.IsEmpty() {
		return Outcome{Notice: Notice{Text: TextEmptyPipeline, Tone: ToneWarn}},
			errors.New(errors.ErrCodeEmptyPipeline, TextEmptyPipeline)
	}
	snap = snap.Clone()

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	hooks := observability.Submit()
	hooks.OnSubmitStart(ctx, len(snap.Nodes), len(snap.Edges))
	start := time.Now()

	resp, cached, err := r.validate(ctx, snap)
	out := Outcome{Response: resp, Cached: cached, Duration: time.Since(start)}
	hooks.OnSubmitComplete(ctx, resp.IsDAG, cached, out.Duration, err)

	if err != nil {
		r.Logger.Warn("submit failed", "err", err)
		out.Notice = Notice{Text: "Submit failed: " + errors.UserMessage(err), Tone: ToneError}
		return out, err
	}

	r.Logger.Info("pipeline validated",
		"nodes", resp.NumNodes,
		"edges", resp.NumEdges,
		"dag", resp.IsDAG,
		"cached", cached,
		"duration", out.Duration)

	r.save(ctx, snap, resp)
	out.Notice = Notice{Text: SuccessText(resp), Tone: ToneSuccess}
	return out, nil
}

func (r *Runner) validate(ctx context.Context, snap graph.Snapshot) (persist.Response, bool, error) {
	key := r.Keyer.ValidationKey(r.Client.BaseURL, graph.Hash(snap))
	hooks := observability.Cache()

	if data, ok, err := r.Cache.Get(ctx, key); err != nil {
		r.Logger.Debug("cache read failed", "err", err)
	} else if ok {
		var resp persist.Response
		if err := json.Unmarshal(data, &resp); err == nil {
			hooks.OnCacheHit(ctx, "validation")
			return resp, true, nil
		}
	}
	hooks.OnCacheMiss(ctx, "validation")

	resp, err := r.Client.Parse(ctx, snap)
	if err != nil {
		return persist.Response{}, false, err
	}

	if data, err := json.Marshal(resp); err == nil {
		if err := r.Cache.Set(ctx, key, data, cache.TTLValidation); err != nil {
			r.Logger.Debug("cache write failed", "err", err)
		} else {
			hooks.OnCacheSet(ctx, "validation", len(data))
		}
	}
	return resp, false, nil
}

// save persists the submission. Failures are logged and otherwise ignored.
func (r *Runner) save(ctx context.Context, snap graph.Snapshot, resp persist.Response) {
	key := r.Key
	if key == "" {
		key = persist.DefaultKey
	}
	if err := r.Persist.Save(ctx, key, persist.NewRecord(snap, &resp)); err != nil {
		r.Logger.Debug("persist failed", "key", key, "err", err)
	}
}

// SubmitAsync runs Submit in its own goroutine and passes the result to
// done, which may be nil. It returns immediately.
func (r *Runner) SubmitAsync(ctx context.Context, snap graph.Snapshot, done func(Outcome, error)) {
	snap = snap.Clone()
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		out, err := r.Submit(ctx, snap)
		if done != nil {
			done(out, err)
		}
	}()
}

// NotifyDeleted tells the service about a local deletion without waiting
// for the answer. Failures are logged; the local deletion stands.
func (r *Runner) NotifyDeleted(ctx context.Context, res store.DeleteResult) {
	if res.IsEmpty() {
		return
	}
	nodeIDs := append([]string(nil), res.NodeIDs...)
	edgeIDs := append([]string(nil), res.EdgeIDs...)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.deleteTimeout())
		defer cancel()

		_, err := r.Client.Delete(ctx, nodeIDs, edgeIDs)
		observability.Submit().OnRemoteDelete(ctx, len(nodeIDs), len(edgeIDs), err)
		if err != nil {
			r.Logger.Debug("remote delete failed", "nodes", len(nodeIDs), "edges", len(edgeIDs), "err", err)
		}
	}()
}

func (r *Runner) deleteTimeout() time.Duration {
	if r.Timeout > 0 {
		return r.Timeout
	}
	return DefaultTimeout
}

// Wait blocks until all asynchronous work started by the runner is done.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// Summarize renders the summary text of snap and the notice that goes with
// it. An empty graph yields no text and a warning.
func Summarize(snap graph.Snapshot) (string, Notice) {
	if len(snap.Nodes) == 0 && len(snap.Edges) == 0 {
		return "", Notice{Text: TextNothingToSum, Tone: ToneWarn}
	}
	return graph.Summary(snap), Notice{Text: TextSummaryReady, Tone: ToneInfo}
}
