package requestctx

import (
	"context"
	"testing"

	"go.uber.org/zap"
)

func TestLoggerFallsBackToNoop(t *testing.T) {
	if Logger(context.Background()) == nil {
		t.Fatalf("expected a logger")
	}
	if _, ok := LoggerOK(context.Background()); ok {
		t.Fatalf("expected no stored logger")
	}
	if _, ok := LoggerOK(WithLogger(context.Background(), nil)); ok {
		t.Fatalf("nil logger should count as absent")
	}

	logger := zap.NewExample()
	got, ok := LoggerOK(WithLogger(context.Background(), logger))
	if !ok || got != logger {
		t.Fatalf("expected stored logger")
	}
}

func TestTraceRoundTrip(t *testing.T) {
	if TraceID(context.Background()) != "" {
		t.Fatalf("expected empty trace id")
	}
	ctx := WithTrace(context.Background(), TraceInfo{TraceID: "abc", ProjectID: "proj"})
	info, ok := Trace(ctx)
	if !ok || info.ProjectID != "proj" || TraceID(ctx) != "abc" {
		t.Fatalf("unexpected trace info %+v", info)
	}
}

func TestAnnotations(t *testing.T) {
	Annotate(context.Background(), zap.String("ignored", "x"))

	ctx, annotations := WithAnnotations(context.Background())
	Annotate(ctx, zap.String("mode", "basic"))
	Annotate(ctx, zap.Int("names", 3))

	fields := annotations.Fields()
	if len(fields) != 2 || fields[0].Key != "mode" || fields[1].Key != "names" {
		t.Fatalf("unexpected fields %v", fields)
	}
	fields[0] = zap.String("mutated", "")
	if annotations.Fields()[0].Key != "mode" {
		t.Fatalf("Fields should return a copy")
	}
	var nilSet *Annotations
	if nilSet.Fields() != nil {
		t.Fatalf("nil set should have no fields")
	}
}
