package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/matzehuels/pipebuilder"

// OTel implements every hook family on top of OpenTelemetry.
// Counters are recorded through the meter; submissions and validations also
// emit a span each.
type OTel struct {
	tracer trace.Tracer

	nodesCreated   metric.Int64Counter
	edgesConnected metric.Int64Counter
	deletions      metric.Int64Counter
	autoConnects   metric.Int64Counter
	submits        metric.Int64Counter
	submitDuration metric.Float64Histogram
	remoteDeletes  metric.Int64Counter
	validations    metric.Int64Counter
	cacheEvents    metric.Int64Counter
	httpRequests   metric.Int64Counter
	httpDuration   metric.Float64Histogram
}

// NewOTel creates the instruments from the given providers.
func NewOTel(tp trace.TracerProvider, mp metric.MeterProvider) (*OTel, error) {
	meter := mp.Meter(instrumentationName)
	o := &OTel{tracer: tp.Tracer(instrumentationName)}

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&o.nodesCreated, "pipebuilder.nodes.created", "Nodes placed on the canvas"},
		{&o.edgesConnected, "pipebuilder.edges.connected", "Edges created"},
		{&o.deletions, "pipebuilder.elements.deleted", "Nodes and edges removed by deletion"},
		{&o.autoConnects, "pipebuilder.autoconnect.attempts", "Auto-connect attempts"},
		{&o.submits, "pipebuilder.submit.count", "Pipeline submissions"},
		{&o.remoteDeletes, "pipebuilder.submit.remote_deletes", "Deletion notices sent to the service"},
		{&o.validations, "pipebuilder.service.validations", "Pipelines validated by the service"},
		{&o.cacheEvents, "pipebuilder.cache.events", "Cache hits, misses and writes"},
		{&o.httpRequests, "pipebuilder.http.requests", "Outgoing HTTP requests"},
	}
	var err error
	for _, c := range counters {
		*c.dst, err = meter.Int64Counter(c.name, metric.WithDescription(c.desc), metric.WithUnit("1"))
		if err != nil {
			return nil, fmt.Errorf("create %s counter: %w", c.name, err)
		}
	}

	o.submitDuration, err = meter.Float64Histogram("pipebuilder.submit.duration",
		metric.WithDescription("Submission round-trip time in milliseconds"), metric.WithUnit("ms"))
	if err != nil {
		return nil, fmt.Errorf("create submit duration histogram: %w", err)
	}
	o.httpDuration, err = meter.Float64Histogram("pipebuilder.http.duration",
		metric.WithDescription("HTTP response time in milliseconds"), metric.WithUnit("ms"))
	if err != nil {
		return nil, fmt.Errorf("create http duration histogram: %w", err)
	}
	return o, nil
}

// Graph hooks

func (o *OTel) OnNodeCreated(kind string) {
	o.nodesCreated.Add(context.Background(), 1, metric.WithAttributes(attribute.String("node.kind", kind)))
}

func (o *OTel) OnEdgeConnected(sourceKind, targetKind string) {
	o.edgesConnected.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("edge.source_kind", sourceKind),
		attribute.String("edge.target_kind", targetKind),
	))
}

func (o *OTel) OnDeleted(nodes, edges int) {
	ctx := context.Background()
	o.deletions.Add(ctx, int64(nodes), metric.WithAttributes(attribute.String("element", "node")))
	o.deletions.Add(ctx, int64(edges), metric.WithAttributes(attribute.String("element", "edge")))
}

func (o *OTel) OnCleared() {
	o.deletions.Add(context.Background(), 1, metric.WithAttributes(attribute.String("element", "clear")))
}

func (o *OTel) OnAutoConnect(connected bool) {
	o.autoConnects.Add(context.Background(), 1, metric.WithAttributes(attribute.Bool("connected", connected)))
}

// Submit hooks

func (o *OTel) OnSubmitStart(ctx context.Context, nodes, edges int) {
	_, span := o.tracer.Start(ctx, "pipebuilder.submit.start")
	span.SetAttributes(attribute.Int("pipeline.nodes", nodes), attribute.Int("pipeline.edges", edges))
	span.End()
}

func (o *OTel) OnSubmitComplete(ctx context.Context, isDAG, cached bool, duration time.Duration, err error) {
	_, span := o.tracer.Start(ctx, "pipebuilder.submit")
	defer span.End()
	span.SetAttributes(
		attribute.Bool("pipeline.is_dag", isDAG),
		attribute.Bool("cache.hit", cached),
		attribute.Float64("duration_ms", float64(duration.Milliseconds())),
	)
	status := "ok"
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	opts := metric.WithAttributes(attribute.String("status", status), attribute.Bool("cache.hit", cached))
	o.submits.Add(ctx, 1, opts)
	o.submitDuration.Record(ctx, float64(duration.Milliseconds()), opts)
}

func (o *OTel) OnRemoteDelete(ctx context.Context, nodes, edges int, err error) {
	o.remoteDeletes.Add(ctx, 1, metric.WithAttributes(attribute.Bool("failed", err != nil)))
}

// Service hooks

func (o *OTel) OnValidate(ctx context.Context, nodes, edges int, isDAG bool, duration time.Duration) {
	_, span := o.tracer.Start(ctx, "pipebuilder.validate")
	span.SetAttributes(
		attribute.Int("pipeline.nodes", nodes),
		attribute.Int("pipeline.edges", edges),
		attribute.Bool("pipeline.is_dag", isDAG),
	)
	span.End()
	o.validations.Add(ctx, 1, metric.WithAttributes(attribute.Bool("is_dag", isDAG)))
}

// Cache hooks

func (o *OTel) OnCacheHit(ctx context.Context, keyType string) {
	o.cacheEvents.Add(ctx, 1, metric.WithAttributes(attribute.String("key_type", keyType), attribute.String("event", "hit")))
}

func (o *OTel) OnCacheMiss(ctx context.Context, keyType string) {
	o.cacheEvents.Add(ctx, 1, metric.WithAttributes(attribute.String("key_type", keyType), attribute.String("event", "miss")))
}

func (o *OTel) OnCacheSet(ctx context.Context, keyType string, size int) {
	o.cacheEvents.Add(ctx, 1, metric.WithAttributes(attribute.String("key_type", keyType), attribute.String("event", "set")))
}

// HTTP hooks

func (o *OTel) OnRequest(ctx context.Context, method, host, path string) {
	o.httpRequests.Add(ctx, 1, metric.WithAttributes(attribute.String("http.method", method), attribute.String("http.host", host)))
}

func (o *OTel) OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration) {
	o.httpDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.host", host),
		attribute.Int("http.status_code", statusCode),
	))
}

func (o *OTel) OnError(ctx context.Context, method, host, path string, err error) {
	_, span := o.tracer.Start(ctx, "pipebuilder.http.error")
	span.SetAttributes(attribute.String("http.method", method), attribute.String("http.host", host), attribute.String("http.path", path))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

var _ AllHooks = (*OTel)(nil)
