package server

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"github.com/matzehuels/pipebuilder/pkg/observability"
)

// requestID takes the client's X-Request-Id or mints a UUID, stores it where
// middleware.GetReqID finds it and echoes it in the response.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(middleware.RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(middleware.RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		observability.HTTP().OnResponse(r.Context(), r.Method, r.Host, r.URL.Path, status, elapsed)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", elapsed,
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// corsMaxAge is how long browsers may cache a preflight answer, in seconds.
const corsMaxAge = 600

// newCORS admits the configured editor origins with credentials. Other
// origins get no CORS headers and are blocked by the browser.
func newCORS(origins []string, logger *log.Logger) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           corsMaxAge,
	})
	c.Log = corsLogger{logger}
	return c.Handler
}

// corsLogger routes the CORS decisions to debug logging.
type corsLogger struct{ l *log.Logger }

func (c corsLogger) Printf(format string, args ...any) {
	c.l.Debugf("cors: "+format, args...)
}
