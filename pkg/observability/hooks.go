// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers register hooks at startup to
// receive events about graph edits, submissions, validation requests, cache
// operations and outgoing HTTP calls.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// [NewOTel] returns an implementation of every hook family backed by
// OpenTelemetry tracers and meters.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    h, _ := observability.NewOTel(otel.GetTracerProvider(), otel.GetMeterProvider())
//	    observability.SetAll(h)
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Submit().OnSubmitStart(ctx, len(s.Nodes), len(s.Edges))
//	// ... call the validation service ...
//	observability.Submit().OnSubmitComplete(ctx, isDAG, cached, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Graph Hooks
// =============================================================================

// GraphHooks receives events from the graph store and auto-connect.
// Graph edits are synchronous and local, so these hooks carry no context.
type GraphHooks interface {
	OnNodeCreated(kind string)
	OnEdgeConnected(sourceKind, targetKind string)
	OnDeleted(nodes, edges int)
	OnCleared()

	// OnAutoConnect records an auto-connect attempt and whether it produced an edge.
	OnAutoConnect(connected bool)
}

// =============================================================================
// Submit Hooks
// =============================================================================

// SubmitHooks receives events from pipeline submission.
type SubmitHooks interface {
	OnSubmitStart(ctx context.Context, nodes, edges int)
	OnSubmitComplete(ctx context.Context, isDAG, cached bool, duration time.Duration, err error)

	// OnRemoteDelete records a best-effort deletion notice.
	OnRemoteDelete(ctx context.Context, nodes, edges int, err error)
}

// =============================================================================
// Service Hooks
// =============================================================================

// ServiceHooks receives events from the validation service.
type ServiceHooks interface {
	OnValidate(ctx context.Context, nodes, edges int, isDAG bool, duration time.Duration)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from HTTP client operations.
type HTTPHooks interface {
	// OnRequest records an outgoing HTTP request.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records an HTTP error (network failure, timeout).
	OnError(ctx context.Context, method, host, path string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopGraphHooks is a no-op implementation of GraphHooks.
type NoopGraphHooks struct{}

func (NoopGraphHooks) OnNodeCreated(string)           {}
func (NoopGraphHooks) OnEdgeConnected(string, string) {}
func (NoopGraphHooks) OnDeleted(int, int)             {}
func (NoopGraphHooks) OnCleared()                     {}
func (NoopGraphHooks) OnAutoConnect(bool)             {}

// NoopSubmitHooks is a no-op implementation of SubmitHooks.
type NoopSubmitHooks struct{}

func (NoopSubmitHooks) OnSubmitStart(context.Context, int, int) {}
func (NoopSubmitHooks) OnSubmitComplete(context.Context, bool, bool, time.Duration, error) {
}
func (NoopSubmitHooks) OnRemoteDelete(context.Context, int, int, error) {}

// NoopServiceHooks is a no-op implementation of ServiceHooks.
type NoopServiceHooks struct{}

func (NoopServiceHooks) OnValidate(context.Context, int, int, bool, time.Duration) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	graphHooks   GraphHooks   = NoopGraphHooks{}
	submitHooks  SubmitHooks  = NoopSubmitHooks{}
	serviceHooks ServiceHooks = NoopServiceHooks{}
	cacheHooks   CacheHooks   = NoopCacheHooks{}
	httpHooks    HTTPHooks    = NoopHTTPHooks{}
	hooksMu      sync.RWMutex
)

// SetGraphHooks registers custom graph hooks.
func SetGraphHooks(h GraphHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		graphHooks = h
	}
}

// SetSubmitHooks registers custom submission hooks.
func SetSubmitHooks(h SubmitHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		submitHooks = h
	}
}

// SetServiceHooks registers custom validation service hooks.
func SetServiceHooks(h ServiceHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		serviceHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
// This should be called once at application startup before any HTTP operations.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// AllHooks implements every hook family.
type AllHooks interface {
	GraphHooks
	SubmitHooks
	ServiceHooks
	CacheHooks
	HTTPHooks
}

// SetAll registers h for every hook family.
func SetAll(h AllHooks) {
	if h == nil {
		return
	}
	SetGraphHooks(h)
	SetSubmitHooks(h)
	SetServiceHooks(h)
	SetCacheHooks(h)
	SetHTTPHooks(h)
}

// Graph returns the registered graph hooks.
func Graph() GraphHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return graphHooks
}

// Submit returns the registered submission hooks.
func Submit() SubmitHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return submitHooks
}

// Service returns the registered validation service hooks.
func Service() ServiceHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return serviceHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	graphHooks = NoopGraphHooks{}
	submitHooks = NoopSubmitHooks{}
	serviceHooks = NoopServiceHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
