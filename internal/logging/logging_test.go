package logging

import (
	"context"
	"errors"
	"testing"

	"github.com/hanpama/artgraph/internal/eventbus"
	"github.com/hanpama/artgraph/internal/events"
	"github.com/hanpama/artgraph/internal/reqid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	l, err := New("debug", "console")
	require.NoError(t, err)
	require.True(t, l.Core().Enabled(zapcore.DebugLevel))

	l, err = New("warn", "json")
	require.NoError(t, err)
	require.False(t, l.Core().Enabled(zapcore.InfoLevel))

	_, err = New("loud", "json")
	require.Error(t, err)
	_, err = New("info", "xml")
	require.Error(t, err)
}

func TestAttachLogsEvents(t *testing.T) {
	eventbus.Use(eventbus.New())
	defer eventbus.Use(nil)

	core, logs := observer.New(zapcore.DebugLevel)
	detach := Attach(zap.New(core))

	ctx, rid := reqid.NewContext(context.Background())
	eventbus.Publish(ctx, events.CompileFinish{Targets: 2, Fragments: 5, Query: "query CompiledQuery { a }"})
	eventbus.Publish(ctx, events.QueryFinish{OperationName: "CompiledQuery", Err: errors.New("boom")})
	eventbus.Publish(ctx, events.MalformedPayload{Op: "artifactVersion-metadata", Field: "metadata", Err: errors.New("bad json")})

	eventbus.Publish(ctx, events.PartialErrors{URL: "http://svc/graphql", Messages: []string{"permission denied"}, Paths: []string{"project__acme_demo"}})

	require.Equal(t, 4, logs.Len())
	compiled := logs.FilterMessage("compiled").All()
	require.Len(t, compiled, 1)
	require.Equal(t, int64(5), compiled[0].ContextMap()["fragments"])
	require.Equal(t, rid, compiled[0].ContextMap()["rid"])

	failed := logs.FilterMessage("query failed").All()
	require.Len(t, failed, 1)
	require.Equal(t, zapcore.ErrorLevel, failed[0].Level)

	warn := logs.FilterLevelExact(zapcore.WarnLevel).All()
	require.Len(t, warn, 2)
	require.Equal(t, "metadata", warn[0].ContextMap()["field"])
	require.Equal(t, []interface{}{"permission denied"}, warn[1].ContextMap()["messages"])

	detach()
	eventbus.Publish(ctx, events.RefineFinish{Op: "x"})
	require.Equal(t, 4, logs.Len())
}
