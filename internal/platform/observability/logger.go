package observability

import (
	"context"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/hanko-field/namedivider/internal/platform/requestctx"
)

// LoggerOption adjusts the zap configuration built by NewLogger.
type LoggerOption func(*zap.Config)

// WithLevel sets the minimum level; unknown names are ignored.
func WithLevel(level string) LoggerOption {
	return func(cfg *zap.Config) {
		_ = cfg.Level.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(level))))
	}
}

// WithOutput replaces the output sinks, e.g. "stderr" for commands that print results on stdout.
func WithOutput(paths ...string) LoggerOption {
	return func(cfg *zap.Config) {
		if len(paths) > 0 {
			cfg.OutputPaths = paths
		}
	}
}

// NewLogger builds a JSON logger using Cloud Logging field names. LOG_LEVEL sets the initial level.
func NewLogger(opts ...LoggerOption) (*zap.Logger, error) {
	cfg := zap.Config{
		Level:    zap.NewAtomicLevelAt(zap.InfoLevel),
		Encoding: "json",
		EncoderConfig: zapcore.EncoderConfig{
			MessageKey:    "message",
			TimeKey:       "timestamp",
			LevelKey:      "severity",
			CallerKey:     "caller",
			StacktraceKey: "stacktrace",
			EncodeTime:    zapcore.RFC3339NanoTimeEncoder,
			EncodeLevel:   zapcore.CapitalLevelEncoder,
			EncodeCaller:  zapcore.ShortCallerEncoder,
		},
		OutputPaths:       []string{"stdout"},
		ErrorOutputPaths:  []string{"stderr"},
		DisableStacktrace: true,
	}
	WithLevel(os.Getenv("LOG_LEVEL"))(&cfg)
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg.Build()
}

// WithLogger stores logger on ctx.
func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return requestctx.WithLogger(ctx, logger)
}

// FromContext returns the request logger, or a no-op logger.
func FromContext(ctx context.Context) *zap.Logger {
	return requestctx.Logger(ctx)
}
