// Package logging writes artgraph events to a zap logger.
package logging

import (
	"context"
	"fmt"

	"github.com/hanpama/artgraph/internal/eventbus"
	"github.com/hanpama/artgraph/internal/events"
	"github.com/hanpama/artgraph/internal/reqid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a logger writing to stderr. format is "json" or "console".
func New(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	var cfg zap.Config
	switch format {
	case "json", "":
		cfg = zap.NewProductionConfig()
	case "console":
		cfg = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("logging: unknown format %q", format)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

func fields(ctx context.Context, fs ...zap.Field) []zap.Field {
	if rid, ok := reqid.FromContext(ctx); ok {
		fs = append(fs, zap.Uint64("rid", rid))
	}
	return fs
}

// Attach subscribes log on the global eventbus. Failures log at error level,
// everything else at debug.
func Attach(log *zap.Logger) (detach func()) {
	unsubs := []func(){
		eventbus.Subscribe(func(ctx context.Context, e events.CompileFinish) {
			if e.Err != nil {
				log.Error("compile failed", fields(ctx, zap.Int("targets", e.Targets), zap.Error(e.Err))...)
				return
			}
			log.Debug("compiled",
				fields(ctx,
					zap.Int("targets", e.Targets),
					zap.Int("fragments", e.Fragments),
					zap.Duration("duration", e.Duration),
					zap.String("query", e.Query))...)
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.QueryFinish) {
			fs := fields(ctx,
				zap.String("operation", e.OperationName),
				zap.Bool("nested", e.Nested),
				zap.Duration("duration", e.Duration))
			if e.Err != nil {
				log.Error("query failed", append(fs, zap.Error(e.Err))...)
				return
			}
			log.Debug("query", fs...)
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.HTTPClientFinish) {
			fs := fields(ctx,
				zap.String("method", e.Method),
				zap.String("url", e.URL),
				zap.Int("status", e.Status),
				zap.Duration("duration", e.Duration))
			if e.Err != nil {
				log.Warn("http request failed", append(fs, zap.Error(e.Err))...)
				return
			}
			log.Debug("http request", fs...)
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.RefineFinish) {
			fs := fields(ctx, zap.String("op", e.Op), zap.Duration("duration", e.Duration))
			if e.Err != nil {
				log.Error("refine failed", append(fs, zap.Error(e.Err))...)
				return
			}
			log.Debug("refined", append(fs, zap.String("type", e.Type))...)
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.PartialErrors) {
			log.Warn("service reported errors next to data",
				fields(ctx,
					zap.String("url", e.URL),
					zap.Strings("messages", e.Messages),
					zap.Strings("paths", e.Paths))...)
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.MalformedPayload) {
			log.Warn("malformed payload replaced by empty object",
				fields(ctx, zap.String("op", e.Op), zap.String("field", e.Field), zap.Error(e.Err))...)
		}),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}
