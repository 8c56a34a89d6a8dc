// Package otel turns artgraph events into OpenTelemetry spans.
package otel

import (
	"context"
	"sync"

	"github.com/hanpama/artgraph/internal/eventbus"
	"github.com/hanpama/artgraph/internal/events"
	"github.com/hanpama/artgraph/internal/reqid"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Setup exports spans to an OTLP collector and subscribes to the global
// eventbus. An empty endpoint configures nothing.
func Setup(endpoint, service string) (func(context.Context) error, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	exp, err := otlptracegrpc.New(context.Background(),
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(service),
		)),
	)
	otel.SetTracerProvider(tp)

	unsubscribe := Subscribe(tp.Tracer("artgraph"))
	return func(ctx context.Context) error {
		unsubscribe()
		return tp.Shutdown(ctx)
	}, nil
}

// Subscribe registers span-producing handlers on the global eventbus.
func Subscribe(tracer trace.Tracer) (unsubscribe func()) {
	s := &subscriber{tracer: tracer}
	return s.register()
}

type subscriber struct {
	tracer      trace.Tracer
	refineSpans sync.Map // rid -> trace.Span
	querySpans  sync.Map // rid -> trace.Span
	httpSpans   sync.Map // rid -> trace.Span
}

// parent finds the open span of rid in maps, falling back to the spans of
// rid's ancestors so nested queries hang under the evaluation that issued them.
func (s *subscriber) parent(ctx context.Context, rid uint64, maps ...*sync.Map) context.Context {
	for _, id := range append([]uint64{rid}, reqid.Ancestors(ctx)...) {
		for _, m := range maps {
			if v, ok := m.Load(id); ok {
				return trace.ContextWithSpan(ctx, v.(trace.Span))
			}
		}
	}
	return ctx
}

func finish(m *sync.Map, rid uint64, err error, attrs ...attribute.KeyValue) {
	v, ok := m.LoadAndDelete(rid)
	if !ok {
		return
	}
	span := v.(trace.Span)
	span.SetAttributes(attrs...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (s *subscriber) register() func() {
	unsubs := []func(){
		eventbus.Subscribe(func(ctx context.Context, e events.RefineStart) {
			rid, _ := reqid.FromContext(ctx)
			_, span := s.tracer.Start(ctx, "artgraph.refine")
			span.SetAttributes(attribute.String("artgraph.op", e.Op))
			s.refineSpans.Store(rid, span)
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.RefineFinish) {
			rid, _ := reqid.FromContext(ctx)
			finish(&s.refineSpans, rid, e.Err, attribute.String("artgraph.type", e.Type))
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.QueryStart) {
			rid, _ := reqid.FromContext(ctx)
			_, span := s.tracer.Start(s.parent(ctx, rid, &s.refineSpans), "graphql.query")
			span.SetAttributes(
				attribute.String("graphql.operation.name", e.OperationName),
				attribute.Bool("artgraph.nested", e.Nested),
			)
			s.querySpans.Store(rid, span)
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.QueryFinish) {
			rid, _ := reqid.FromContext(ctx)
			finish(&s.querySpans, rid, e.Err)
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.HTTPClientStart) {
			rid, _ := reqid.FromContext(ctx)
			_, span := s.tracer.Start(s.parent(ctx, rid, &s.querySpans), "http.client")
			span.SetAttributes(
				semconv.HTTPMethodKey.String(e.Method),
				semconv.HTTPURLKey.String(e.URL),
			)
			s.httpSpans.Store(rid, span)
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.HTTPClientFinish) {
			rid, _ := reqid.FromContext(ctx)
			finish(&s.httpSpans, rid, e.Err, semconv.HTTPStatusCodeKey.Int(e.Status))
		}),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}
