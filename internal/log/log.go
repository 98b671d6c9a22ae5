// Package log provides structured logging shared by every engine and the
// coordinator.
package log

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type ctxKey string

const (
	tickIDKey ctxKey = "tick_id"
)

// Config captures options for configuring the global logger.
type Config struct {
	Level   string    // "debug", "info", "warn", "error" (default "info")
	Output  io.Writer // defaults to os.Stdout
	Service string    // attached to every log entry (default "padenc")
	Version string
}

var (
	once sync.Once
	base zerolog.Logger
)

// Configure initializes the global zerolog logger exactly once; later calls
// are no-ops so that early bootstrap logging and post-config-load logging
// share one sink.
func Configure(cfg Config) {
	once.Do(func() {
		level := zerolog.InfoLevel
		if cfg.Level != "" {
			if parsed, err := zerolog.ParseLevel(cfg.Level); err == nil {
				level = parsed
			}
		}
		zerolog.SetGlobalLevel(level)
		zerolog.TimeFieldFormat = time.RFC3339

		writer := cfg.Output
		if writer == nil {
			writer = os.Stdout
		}

		service := cfg.Service
		if service == "" {
			service = "padenc"
		}

		base = zerolog.New(writer).With().
			Timestamp().
			Str("service", service).
			Str("version", cfg.Version).
			Logger()
	})
}

// L returns the base logger, configuring a sane default if Configure was
// never called (useful in tests).
func L() zerolog.Logger {
	once.Do(func() {
		base = zerolog.New(os.Stdout).With().Timestamp().Str("service", "padenc").Logger()
	})
	return base
}

// WithComponent returns a child logger tagged with the given component name,
// e.g. "slideshow", "dls", "coordinator".
func WithComponent(component string) zerolog.Logger {
	return L().With().Str("component", component).Logger()
}

// ContextWithTickID stores a tick identifier on the context for correlating
// coordinator-driven log lines across engines.
func ContextWithTickID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, tickIDKey, id)
}

// TickIDFromContext extracts the tick identifier, if any.
func TickIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(tickIDKey).(string); ok {
		return v
	}
	return ""
}

// WithComponentFromContext returns a component logger enriched with the
// tick id carried on ctx, if present.
func WithComponentFromContext(ctx context.Context, component string) zerolog.Logger {
	l := WithComponent(component)
	if id := TickIDFromContext(ctx); id != "" {
		l = l.With().Str("tick_id", id).Logger()
	}
	return l
}
