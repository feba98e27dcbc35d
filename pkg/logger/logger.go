package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
)

var def atomic.Pointer[slog.Logger]

// Init собирает логгер в stdout и делает его дефолтным для slog.
func Init(cfg Config) *slog.Logger {
	l := New(cfg, os.Stdout)
	def.Store(l)
	slog.SetDefault(l)
	return l
}

// New не трогает глобальное состояние.
func New(cfg Config, out io.Writer) *slog.Logger {
	if cfg.Env == "" {
		cfg.Env = DetectEnv()
	}
	if cfg.Service == "" {
		cfg.Service = "watch-party"
	}
	cfg.InstanceID = instanceID(cfg.InstanceID)
	if cfg.Backend == "" {
		cfg.Backend = BackendZap
		if cfg.Env == EnvDev {
			cfg.Backend = BackendStd
		}
	}

	var h slog.Handler
	switch cfg.Backend {
	case BackendZap:
		h = newZapHandler(cfg, out)
	default:
		h = newStdHandler(cfg, out)
	}
	return slog.New(traceHandler{h}.WithAttrs(serviceAttrs(cfg)))
}

// L возвращает логгер из Init, до Init — slog.Default().
func L() *slog.Logger {
	if l := def.Load(); l != nil {
		return l
	}
	return slog.Default()
}

type ctxKey struct{}

func WithContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext: логгер запроса, иначе L().
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return L()
}
