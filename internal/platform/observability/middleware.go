package observability

import (
	"fmt"
	"net"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/hanko-field/namedivider/internal/platform/httpx"
	"github.com/hanko-field/namedivider/internal/platform/requestctx"
)

const instrumentationName = "github.com/hanko-field/namedivider/internal/platform/observability"

// HTTPObserver builds the request middleware: logger injection, Cloud Trace propagation,
// panic recovery, and completion logging with per-route request metrics.
type HTTPObserver struct {
	logger    *zap.Logger
	projectID string
	requests  metric.Int64Counter
	duration  metric.Float64Histogram
}

// NewHTTPObserver registers the HTTP instruments on meter. A nil meter uses the global provider.
func NewHTTPObserver(logger *zap.Logger, meter metric.Meter, projectID string) (*HTTPObserver, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if meter == nil {
		meter = otel.GetMeterProvider().Meter(instrumentationName)
	}
	requests, err := meter.Int64Counter(
		"namedivider.http.requests",
		metric.WithDescription("HTTP requests by route, method and status class"),
	)
	if err != nil {
		return nil, fmt.Errorf("observability: register request counter: %w", err)
	}
	duration, err := meter.Float64Histogram(
		"namedivider.http.duration",
		metric.WithUnit("ms"),
		metric.WithDescription("HTTP request latency in milliseconds"),
	)
	if err != nil {
		return nil, fmt.Errorf("observability: register duration histogram: %w", err)
	}
	return &HTTPObserver{
		logger:    logger,
		projectID: strings.TrimSpace(projectID),
		requests:  requests,
		duration:  duration,
	}, nil
}

// Middlewares returns the chain in the order it must be installed.
func (o *HTTPObserver) Middlewares() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{o.InjectLogger, o.Trace, o.Recover, o.LogRequests}
}

// InjectLogger stores the observer's logger on the request context.
func (o *HTTPObserver) InjectLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(requestctx.WithLogger(r.Context(), o.logger)))
	})
}

// Recover turns a panic into a JSON 500 and logs the stack.
func (o *HTTPObserver) Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			logger, ok := requestctx.LoggerOK(r.Context())
			if !ok {
				logger = o.logger
			}
			logger.Error("panic recovered", zap.Any("panic", rec), zap.ByteString("stack", debug.Stack()))
			httpx.WriteError(r.Context(), w, httpx.NewError(httpx.CodeInternal, "internal server error", http.StatusInternalServerError))
		}()
		next.ServeHTTP(w, r)
	})
}

// LogRequests logs each completed request at a status-dependent level, including any fields
// handlers attached with requestctx.Annotate, and records the request metrics.
func (o *HTTPObserver) LogRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx, annotations := requestctx.WithAnnotations(r.Context())
		traceInfo, _ := requestctx.Trace(ctx)

		logger := requestctx.Logger(ctx).With(
			zap.String("request_id", middleware.GetReqID(ctx)),
			zap.String("method", clip(r.Method, 10)),
			zap.String("trace_id", traceInfo.TraceID),
		)
		if traceInfo.ProjectID != "" && traceInfo.TraceID != "" {
			logger = logger.With(zap.String("logging.googleapis.com/trace",
				fmt.Sprintf("projects/%s/traces/%s", traceInfo.ProjectID, traceInfo.TraceID)))
		}
		if ip := remoteIP(r); ip != "" {
			logger = logger.With(zap.String("remote_ip", ip))
		}
		ctx = requestctx.WithLogger(ctx, logger)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		panicked := true
		defer func() {
			status := rec.status
			if panicked && status < http.StatusInternalServerError {
				status = http.StatusInternalServerError
			}
			route := routePattern(r)
			elapsed := time.Since(start)
			o.record(r, route, status, elapsed)

			fields := append([]zap.Field{
				zap.String("route", route),
				zap.Int("status", status),
				zap.Duration("latency", elapsed),
				zap.Int64("bytes", rec.bytes),
			}, annotations.Fields()...)
			switch {
			case status >= http.StatusInternalServerError:
				logger.Error("request completed", fields...)
			case status >= http.StatusBadRequest:
				logger.Warn("request completed", fields...)
			default:
				logger.Info("request completed", fields...)
			}
		}()

		next.ServeHTTP(rec, r.WithContext(ctx))
		panicked = false
	})
}

func (o *HTTPObserver) record(r *http.Request, route string, status int, elapsed time.Duration) {
	ctx := r.Context()
	attrs := metric.WithAttributes(
		semconv.HTTPRoute(route),
		semconv.HTTPRequestMethodKey.String(clip(r.Method, 10)),
		statusClass(status),
	)
	o.requests.Add(ctx, 1, attrs)
	o.duration.Record(ctx, float64(elapsed)/float64(time.Millisecond), attrs)

	span := trace.SpanFromContext(ctx)
	span.SetAttributes(semconv.HTTPRoute(route), semconv.HTTPResponseStatusCode(status))
	if status >= http.StatusInternalServerError {
		span.SetStatus(codes.Error, http.StatusText(status))
	} else {
		span.SetStatus(codes.Ok, "")
	}
}

// routePattern prefers the chi pattern so metrics are not keyed by raw paths.
func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if pattern := rc.RoutePattern(); pattern != "" {
			return clip(pattern, 180)
		}
	}
	if r.URL == nil || r.URL.Path == "" {
		return "/"
	}
	return clip(r.URL.Path, 180)
}

func remoteIP(r *http.Request) string {
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}
	return clip(addr, 64)
}

// clip drops control characters and keeps at most limit code points.
func clip(value string, limit int) string {
	var b strings.Builder
	n := 0
	for _, r := range value {
		if unicode.IsControl(r) {
			continue
		}
		if n == limit {
			break
		}
		b.WriteRune(r)
		n++
	}
	return b.String()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	n, err := r.ResponseWriter.Write(b)
	r.bytes += int64(n)
	return n, err
}

// statusClass buckets status codes to keep metric cardinality bounded.
func statusClass(status int) attribute.KeyValue {
	return attribute.String("http.status_class", strconv.Itoa(status/100)+"xx")
}
