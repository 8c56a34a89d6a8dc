package otel

import (
	"context"
	"errors"
	"testing"

	"github.com/hanpama/artgraph/internal/eventbus"
	"github.com/hanpama/artgraph/internal/events"
	"github.com/hanpama/artgraph/internal/reqid"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestSetupWithoutEndpoint(t *testing.T) {
	shutdown, err := Setup("", "artgraph")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestEventsBecomeNestedSpans(t *testing.T) {
	eventbus.Use(eventbus.New())
	defer eventbus.Use(nil)

	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	defer Subscribe(tp.Tracer("test"))()

	ctx, _ := reqid.NewContext(context.Background())
	eventbus.Publish(ctx, events.RefineStart{Op: "artifactVersion-metadata"})
	eventbus.Publish(ctx, events.QueryStart{OperationName: "CompiledQuery"})
	eventbus.Publish(ctx, events.HTTPClientStart{Method: "POST", URL: "http://svc/graphql"})
	eventbus.Publish(ctx, events.HTTPClientFinish{Method: "POST", URL: "http://svc/graphql", Status: 500, Err: errors.New("boom")})
	eventbus.Publish(ctx, events.QueryFinish{OperationName: "CompiledQuery"})
	eventbus.Publish(ctx, events.RefineFinish{Op: "artifactVersion-metadata", Type: "TypedDict[]"})

	spans := rec.Ended()
	require.Len(t, spans, 3)
	require.Equal(t, "http.client", spans[0].Name())
	require.Equal(t, "graphql.query", spans[1].Name())
	require.Equal(t, "artgraph.refine", spans[2].Name())

	require.Equal(t, spans[1].SpanContext().SpanID(), spans[0].Parent().SpanID())
	require.Equal(t, spans[2].SpanContext().SpanID(), spans[1].Parent().SpanID())
	require.Equal(t, codes.Error, spans[0].Status().Code)
}

func TestNestedQueryHangsUnderOuterRefine(t *testing.T) {
	eventbus.Use(eventbus.New())
	defer eventbus.Use(nil)

	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	defer Subscribe(tp.Tracer("test"))()

	outer, _ := reqid.NewContext(context.Background())
	eventbus.Publish(outer, events.RefineStart{Op: "artifactVersion-historyMetrics"})
	eventbus.Publish(outer, events.QueryStart{OperationName: "CompiledQuery"})
	eventbus.Publish(outer, events.QueryFinish{OperationName: "CompiledQuery"})

	inner, _ := reqid.NewContext(outer)
	eventbus.Publish(inner, events.QueryStart{OperationName: "CompiledQuery", Nested: true})
	eventbus.Publish(inner, events.HTTPClientStart{Method: "POST", URL: "http://svc/graphql"})
	eventbus.Publish(inner, events.HTTPClientFinish{Method: "POST", URL: "http://svc/graphql", Status: 200})
	eventbus.Publish(inner, events.QueryFinish{OperationName: "CompiledQuery", Nested: true})
	eventbus.Publish(outer, events.RefineFinish{Op: "artifactVersion-historyMetrics"})

	spans := rec.Ended()
	require.Len(t, spans, 4)
	outerQuery, httpSpan, nestedQuery, refine := spans[0], spans[1], spans[2], spans[3]
	require.Equal(t, "artgraph.refine", refine.Name())
	require.Equal(t, refine.SpanContext().SpanID(), outerQuery.Parent().SpanID())
	require.Equal(t, refine.SpanContext().SpanID(), nestedQuery.Parent().SpanID())
	require.Equal(t, nestedQuery.SpanContext().SpanID(), httpSpan.Parent().SpanID())
}

func TestFinishWithoutStartIsIgnored(t *testing.T) {
	eventbus.Use(eventbus.New())
	defer eventbus.Use(nil)

	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	defer Subscribe(tp.Tracer("test"))()

	eventbus.Publish(context.Background(), events.QueryFinish{})
	require.Empty(t, rec.Ended())
}
