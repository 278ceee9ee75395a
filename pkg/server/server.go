// Package server implements the pipeline validation service.
//
// Endpoints:
//
//	GET  /                  {"ping": "pong"}
//	POST /pipelines/parse   {"num_nodes", "num_edges", "is_dag"}
//	POST /pipelines/delete  {"deleted_nodes", "deleted_edges"}
//
// is_dag is decided by Kahn's algorithm over the nodes that appear in at
// least one edge; see [dag.IsAcyclic]. Browsers are allowed in through CORS
// for the configured editor origins only.
package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/pipebuilder/pkg/cache"
	"github.com/matzehuels/pipebuilder/pkg/dag"
	"github.com/matzehuels/pipebuilder/pkg/errors"
	"github.com/matzehuels/pipebuilder/pkg/observability"
	"github.com/matzehuels/pipebuilder/pkg/persist"
	"github.com/matzehuels/pipebuilder/pkg/submit"
)

// Defaults.
const (
	DefaultAddr    = ":8000"
	DefaultMaxBody = 4 << 20
)

// DefaultAllowedOrigins are the editor's development origins.
var DefaultAllowedOrigins = []string{"http://localhost:3000", "http://127.0.0.1:3000"}

// Config configures a Server.
type Config struct {
	Addr           string
	AllowedOrigins []string
	MaxBody        int64
	Cache          cache.Cache // nil disables result caching
	Logger         *log.Logger
}

// Server is the validation service.
type Server struct {
	cfg     Config
	cache   cache.Cache
	logger  *log.Logger
	handler http.Handler
}

// New builds a server and its router.
func New(cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.AllowedOrigins == nil {
		cfg.AllowedOrigins = DefaultAllowedOrigins
	}
	if cfg.MaxBody <= 0 {
		cfg.MaxBody = DefaultMaxBody
	}
	s := &Server{cfg: cfg, cache: cfg.Cache, logger: cfg.Logger}
	if s.cache == nil {
		s.cache = cache.NewNullCache()
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	s.handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(newCORS(s.cfg.AllowedOrigins, s.logger))

	r.Get(submit.PathPing, s.handlePing)
	r.Route("/pipelines", func(p chi.Router) {
		p.Post("/parse", s.handleParse)
		p.Post("/delete", s.handleDelete)
	})
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.handler }

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("validation service listening", "addr", s.cfg.Addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Pipeline is the body of a parse request. Nodes are counted but never
// inspected.
type Pipeline struct {
	Nodes []json.RawMessage `json:"nodes"`
	Edges []PipelineEdge    `json:"edges"`
}

// PipelineEdge is one submitted edge. Only the endpoints matter.
type PipelineEdge struct {
	ID           string `json:"id,omitempty"`
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty"`
}

// Validate computes the response for p.
func Validate(p Pipeline) persist.Response {
	edges := make([]dag.Edge, len(p.Edges))
	for i, e := range p.Edges {
		edges[i] = dag.Edge{From: e.Source, To: e.Target}
	}
	return persist.Response{
		NumNodes: len(p.Nodes),
		NumEdges: len(p.Edges),
		IsDAG:    dag.IsAcyclic(edges),
	}
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"ping": "pong"})
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	var p Pipeline
	if err := s.decode(w, r, &p); err != nil {
		writeError(w, err)
		return
	}
	if p.Nodes == nil || p.Edges == nil {
		writeError(w, errors.New(errors.ErrCodeInvalidSnapshot, "nodes and edges are required"))
		return
	}

	ctx := r.Context()
	start := time.Now()
	resp, hit := s.cachedValidate(ctx, p)
	observability.Service().OnValidate(ctx, resp.NumNodes, resp.NumEdges, resp.IsDAG, time.Since(start))
	s.logger.Debug("pipeline parsed",
		"nodes", resp.NumNodes,
		"edges", resp.NumEdges,
		"dag", resp.IsDAG,
		"cached", hit)

	writeJSON(w, http.StatusOK, resp)
}

// cachedValidate looks the edge set up in the cache first. Node bodies do
// not affect the result beyond their count, so only the count is keyed.
func (s *Server) cachedValidate(ctx context.Context, p Pipeline) (persist.Response, bool) {
	keyData, _ := json.Marshal(struct {
		Nodes int            `json:"n"`
		Edges []PipelineEdge `json:"e"`
	}{len(p.Nodes), p.Edges})
	key := "parse:" + cache.Hash(keyData)

	if data, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		var resp persist.Response
		if json.Unmarshal(data, &resp) == nil {
			return resp, true
		}
	}
	resp := Validate(p)
	if data, err := json.Marshal(resp); err == nil {
		if err := s.cache.Set(ctx, key, data, cache.TTLValidation); err != nil {
			s.logger.Warn("cache write failed", "err", err)
		}
	}
	return resp, false
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	var req submit.DeleteRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	s.logger.Info("elements deleted by editor",
		"nodes", len(req.NodeIDs),
		"edges", len(req.EdgeIDs),
		"request_id", middleware.GetReqID(r.Context()))
	writeJSON(w, http.StatusOK, submit.DeleteResponse{
		DeletedNodes: len(req.NodeIDs),
		DeletedEdges: len(req.EdgeIDs),
	})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, s.cfg.MaxBody)
	err := json.NewDecoder(body).Decode(v)
	if err == nil {
		return nil
	}
	var mbe *http.MaxBytesError
	if stderrors.As(err, &mbe) {
		return errors.Wrap(errors.ErrCodeTooLarge, err, "request body too large")
	}
	return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid JSON body: %v", err)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError answers with {"detail": msg} and the status for err's code.
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, errors.HTTPStatus(err), map[string]string{"detail": errors.UserMessage(err)})
}
