package services

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	domain "github.com/hanko-field/namedivider/internal/domain"
)

const (
	instrumentationName = "github.com/hanko-field/namedivider/internal/services"
	defaultMaxBatch     = 1000
)

// NameDivisionServiceDeps wires the engine source and telemetry for name division.
type NameDivisionServiceDeps struct {
	Engines     EngineProvider
	DefaultMode string
	MaxBatch    int
	// Workers bounds batch parallelism; defaults to GOMAXPROCS.
	Workers int
	Tracer  trace.Tracer
	Meter   metric.Meter
	Clock   func() time.Time
}

type nameDivisionService struct {
	engines     EngineProvider
	defaultMode string
	maxBatch    int
	workers     int
	tracer      trace.Tracer
	now         func() time.Time

	divisions metric.Int64Counter
	latency   metric.Float64Histogram
}

var _ NameDivisionService = (*nameDivisionService)(nil)

// NewNameDivisionService constructs the division service.
func NewNameDivisionService(deps NameDivisionServiceDeps) (NameDivisionService, error) {
	if deps.Engines == nil {
		return nil, errors.New("name_division: engine provider is required")
	}

	mode := strings.TrimSpace(deps.DefaultMode)
	if mode == "" {
		mode = domain.ModeBasic
	}
	maxBatch := deps.MaxBatch
	if maxBatch <= 0 {
		maxBatch = defaultMaxBatch
	}
	workers := deps.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	tracer := deps.Tracer
	if tracer == nil {
		tracer = otel.Tracer(instrumentationName)
	}
	meter := deps.Meter
	if meter == nil {
		meter = otel.GetMeterProvider().Meter(instrumentationName)
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	divisions, err := meter.Int64Counter(
		"namedivider.divisions",
		metric.WithDescription("Count of divided names by mode and algorithm"),
	)
	if err != nil {
		return nil, fmt.Errorf("name_division: register divisions counter: %w", err)
	}
	latency, err := meter.Float64Histogram(
		"namedivider.division.latency",
		metric.WithUnit("ms"),
		metric.WithDescription("Latency in milliseconds of division requests"),
	)
	if err != nil {
		return nil, fmt.Errorf("name_division: register latency histogram: %w", err)
	}

	return &nameDivisionService{
		engines:     deps.Engines,
		defaultMode: mode,
		maxBatch:    maxBatch,
		workers:     workers,
		tracer:      tracer,
		now:         clock,
		divisions:   divisions,
		latency:     latency,
	}, nil
}

func (s *nameDivisionService) Divide(ctx context.Context, cmd DivideCommand) (DividedName, error) {
	if ctx == nil {
		return DividedName{}, errors.New("name_division: context is required")
	}
	start := s.now()
	mode, divider, err := s.resolve(cmd.Mode)
	if err != nil {
		return DividedName{}, err
	}

	result, err := divider.Divide(cmd.Name)
	s.recordLatency(ctx, mode, "single", start, err)
	if err != nil {
		return DividedName{}, err
	}
	s.recordDivision(ctx, mode, result.Algorithm)
	return result, nil
}

func (s *nameDivisionService) DivideBatch(ctx context.Context, cmd DivideBatchCommand) (DivideBatchResult, error) {
	if ctx == nil {
		return DivideBatchResult{}, errors.New("name_division: context is required")
	}
	if len(cmd.Names) > s.maxBatch {
		return DivideBatchResult{}, fmt.Errorf("%w: %d names exceeds limit of %d", ErrBatchTooLarge, len(cmd.Names), s.maxBatch)
	}
	start := s.now()
	mode, divider, err := s.resolve(cmd.Mode)
	if err != nil {
		return DivideBatchResult{}, err
	}

	ctx, span := s.tracer.Start(ctx, "namedivider.divide_batch", trace.WithAttributes(
		attribute.String("mode", mode),
		attribute.Int("names", len(cmd.Names)),
	))
	defer span.End()

	results := make([]DividedName, len(cmd.Names))
	errs := make([]error, len(cmd.Names))

	// Every name is attempted so the reported failure is always the lowest failing index.
	var g errgroup.Group
	g.SetLimit(s.workers)
	for i, name := range cmd.Names {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			result, err := divider.Divide(name)
			if err != nil {
				errs[i] = err
				return nil
			}
			results[i] = result
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		s.recordLatency(ctx, mode, "batch", start, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "cancelled")
		return DivideBatchResult{}, err
	}
	for i, err := range errs {
		if err != nil {
			batchErr := &BatchError{Index: i, Name: cmd.Names[i], Err: err}
			s.recordLatency(ctx, mode, "batch", start, batchErr)
			span.RecordError(batchErr)
			span.SetStatus(codes.Error, "invalid name")
			return DivideBatchResult{}, batchErr
		}
	}

	s.recordLatency(ctx, mode, "batch", start, nil)
	for _, result := range results {
		s.recordDivision(ctx, mode, result.Algorithm)
	}
	return DivideBatchResult{Mode: mode, Results: results}, nil
}

func (s *nameDivisionService) Modes() []string {
	engine := s.engines.Engine()
	if engine == nil {
		return nil
	}
	modes := make([]string, 0, len(engine.Dividers))
	for mode, divider := range engine.Dividers {
		if divider != nil {
			modes = append(modes, mode)
		}
	}
	sort.Strings(modes)
	return modes
}

func (s *nameDivisionService) DefaultMode() string { return s.defaultMode }

func (s *nameDivisionService) MaxBatch() int { return s.maxBatch }

func (s *nameDivisionService) resolve(mode string) (string, Divider, error) {
	mode = strings.ToLower(strings.TrimSpace(mode))
	if mode == "" {
		mode = s.defaultMode
	}
	engine := s.engines.Engine()
	if engine == nil {
		return mode, nil, ErrEngineUnavailable
	}
	divider, ok := engine.Divider(mode)
	if !ok {
		return mode, nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
	return mode, divider, nil
}

func (s *nameDivisionService) recordDivision(ctx context.Context, mode, algorithm string) {
	s.divisions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("mode", mode),
		attribute.String("algorithm", algorithm),
	))
}

func (s *nameDivisionService) recordLatency(ctx context.Context, mode, op string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	elapsed := s.now().Sub(start)
	s.latency.Record(ctx, float64(elapsed)/float64(time.Millisecond), metric.WithAttributes(
		attribute.String("mode", mode),
		attribute.String("op", op),
		attribute.String("outcome", outcome),
	))
}
