package di

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	gcs "cloud.google.com/go/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	domain "github.com/hanko-field/namedivider/internal/domain"
	"github.com/hanko-field/namedivider/internal/platform/config"
	"github.com/hanko-field/namedivider/internal/platform/storage"
	"github.com/hanko-field/namedivider/internal/repositories"
	"github.com/hanko-field/namedivider/internal/repositories/assets"
	"github.com/hanko-field/namedivider/internal/scoring"
	"github.com/hanko-field/namedivider/internal/services"
)

const instrumentationName = "github.com/hanko-field/namedivider/internal/di"

// Services bundles the service-layer contracts that handlers rely upon.
type Services struct {
	Divisions services.NameDivisionService
	System    services.SystemService
}

// Option customises container construction.
type Option func(*containerOptions)

type containerOptions struct {
	source      storage.Source
	logger      *zap.Logger
	meter       metric.Meter
	modelLoader scoring.Loader
	clock       func() time.Time
	build       services.BuildInfo
}

// WithSource replaces the asset source derived from config, mainly for tests.
func WithSource(src storage.Source) Option {
	return func(o *containerOptions) {
		o.source = src
	}
}

// WithLogger sets the logger used for load and reload events.
func WithLogger(logger *zap.Logger) Option {
	return func(o *containerOptions) {
		o.logger = logger
	}
}

// WithMeter sets the meter backing service instruments.
func WithMeter(meter metric.Meter) Option {
	return func(o *containerOptions) {
		o.meter = meter
	}
}

// WithModelLoader overrides the tree model loader. The default parses LightGBM text models.
func WithModelLoader(load scoring.Loader) Option {
	return func(o *containerOptions) {
		o.modelLoader = load
	}
}

// WithClock injects a custom clock.
func WithClock(clock func() time.Time) Option {
	return func(o *containerOptions) {
		o.clock = clock
	}
}

// WithBuildInfo sets the build metadata reported in readiness output.
func WithBuildInfo(info services.BuildInfo) Option {
	return func(o *containerOptions) {
		o.build = info
	}
}

// Container owns the loaded division engine and the services built on it. The engine is swapped
// atomically on reload so in-flight divisions keep the snapshot they started with.
type Container struct {
	Config   config.Config
	Services Services

	source    storage.Source
	logger    *zap.Logger
	load      scoring.Loader
	now       func() time.Time
	cacheHits metric.Int64Counter

	engine   atomic.Pointer[services.Engine]
	reloadMu sync.Mutex
	pool     *scoring.ModelPool

	watcher *storage.Watcher
	closers []func() error
}

// NewContainer loads the assets named by cfg and constructs the runtime dependencies. Asset
// failures are fatal: the container is never returned with a partially built engine.
func NewContainer(ctx context.Context, cfg config.Config, opts ...Option) (*Container, error) {
	options := containerOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	logger := options.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	meter := options.meter
	if meter == nil {
		meter = otel.GetMeterProvider().Meter(instrumentationName)
	}
	clock := options.clock
	if clock == nil {
		clock = time.Now
	}

	c := &Container{
		Config: cfg,
		logger: logger,
		load:   options.modelLoader,
		now:    clock,
		source: options.source,
	}

	if c.source == nil {
		src, closer, err := buildSource(ctx, cfg.Assets)
		if err != nil {
			return nil, err
		}
		c.source = src
		if closer != nil {
			c.closers = append(c.closers, closer)
		}
	}

	if cfg.Divider.CacheSize > 0 {
		hits, err := meter.Int64Counter(
			"namedivider.cache.hits",
			metric.WithDescription("Divisions served from the result cache"),
		)
		if err != nil {
			_ = c.closeResources()
			return nil, fmt.Errorf("di: register cache counter: %w", err)
		}
		c.cacheHits = hits
	}

	engine, err := c.buildEngine(ctx)
	if err != nil {
		_ = c.closeResources()
		return nil, err
	}
	c.engine.Store(engine)
	c.logEngine("division engine loaded", engine)

	divisions, err := services.NewNameDivisionService(services.NameDivisionServiceDeps{
		Engines:     c,
		DefaultMode: cfg.Divider.DefaultMode,
		MaxBatch:    cfg.Divider.MaxBatch,
		Workers:     cfg.Divider.Workers,
		Meter:       meter,
		Clock:       clock,
	})
	if err != nil {
		_ = c.closeResources()
		return nil, fmt.Errorf("build name division service: %w", err)
	}

	healthRepo, err := repositories.NewProbeHealthRepository(c.probes(), repositories.WithProbeClock(clock))
	if err != nil {
		_ = c.closeResources()
		return nil, fmt.Errorf("build health repository: %w", err)
	}
	build := options.build
	if build.Environment == "" {
		build.Environment = cfg.Environment
	}
	system, err := services.NewSystemService(services.SystemServiceDeps{
		HealthRepository: healthRepo,
		Engines:          c,
		Divisions:        divisions,
		Clock:            clock,
		Build:            build,
	})
	if err != nil {
		_ = c.closeResources()
		return nil, fmt.Errorf("build system service: %w", err)
	}

	c.Services = Services{Divisions: divisions, System: system}
	return c, nil
}

// Engine returns the engine currently serving requests.
func (c *Container) Engine() *services.Engine {
	if c == nil {
		return nil
	}
	return c.engine.Load()
}

// Reload rebuilds the engine from the asset source and swaps it in. Every asset is parsed before
// the swap; on failure the previous engine keeps serving and the error is returned.
func (c *Container) Reload(ctx context.Context) error {
	engine, err := c.buildEngine(ctx)
	if err != nil {
		c.logger.Error("asset reload failed; keeping previous engine", zap.Error(err))
		return err
	}
	c.engine.Store(engine)
	c.logEngine("division engine reloaded", engine)
	return nil
}

// StartWatcher reloads the engine when watched asset files change. It is a no-op unless
// Assets.Watch is set, and requires a local directory source.
func (c *Container) StartWatcher(ctx context.Context) error {
	if !c.Config.Assets.Watch {
		return nil
	}
	dirSource, ok := c.source.(*storage.FSSource)
	if !ok || dirSource.Root() == "" {
		return errors.New("di: asset watching requires a local asset directory")
	}

	watcher, err := storage.NewWatcher(dirSource.Root(), c.assetNames(), func(ctx context.Context, names []string) {
		c.logger.Info("asset change detected", zap.Strings("files", names))
		_ = c.Reload(ctx)
	}, storage.WithDebounce(c.Config.Assets.WatchDebounce))
	if err != nil {
		return err
	}
	c.watcher = watcher
	go watcher.Run(ctx, func(err error) {
		c.logger.Warn("asset watcher error", zap.Error(err))
	})
	c.logger.Info("watching asset directory", zap.String("dir", dirSource.Root()))
	return nil
}

// Close stops the watcher and releases clients.
func (c *Container) Close(context.Context) error {
	if c == nil {
		return nil
	}
	return c.closeResources()
}

func (c *Container) closeResources() error {
	var errs []error
	if c.watcher != nil {
		errs = append(errs, c.watcher.Stop())
	}
	for _, closer := range c.closers {
		errs = append(errs, closer())
	}
	c.closers = nil
	return errors.Join(errs...)
}

func buildSource(ctx context.Context, cfg config.AssetsConfig) (storage.Source, func() error, error) {
	if cfg.Bucket == "" {
		src, err := storage.NewDirSource(cfg.Dir)
		if err != nil {
			return nil, nil, err
		}
		return src, nil, nil
	}
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("di: create storage client: %w", err)
	}
	src, err := storage.NewGCSSource(client, cfg.Bucket, cfg.Prefix, cfg.Version)
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	return src, client.Close, nil
}

type modeCalculator struct {
	label string
	calc  scoring.Calculator
}

// buildEngine serialises rebuilds so concurrent reloads cannot race on the shared model pool.
func (c *Container) buildEngine(ctx context.Context) (*services.Engine, error) {
	c.reloadMu.Lock()
	defer c.reloadMu.Unlock()

	cfg := c.Config
	kanji, err := assets.LoadKanjiStatistics(ctx, c.source, cfg.Assets.KanjiFile)
	if err != nil {
		return nil, err
	}
	families, err := assets.LoadFamilyNames(ctx, c.source, cfg.Assets.FamilyFile)
	if err != nil {
		return nil, err
	}

	var modelBlob []byte
	if cfg.Divider.GBDTEnabled {
		modelBlob, err = storage.ReadAll(ctx, c.source, cfg.Assets.ModelFile)
		if err != nil {
			return nil, repositories.NewAssetError(cfg.Assets.ModelFile, fmt.Errorf("%w: %w", repositories.ErrAssetMissing, err))
		}
	}

	normalizer, err := services.NewNameNormalizer(nil)
	if err != nil {
		return nil, err
	}
	for mode, label := range c.labels() {
		if strings.TrimSpace(label) == "" {
			return nil, fmt.Errorf("di: algorithm label for mode %s is empty", mode)
		}
	}
	calculators := map[string]modeCalculator{
		domain.ModeBasic: {
			label: cfg.Divider.BasicLabel,
			calc:  scoring.NewStatsCalculator(kanji, scoring.WithOrderOnlyForFourCharacters(cfg.Divider.OrderOnlyWhen4)),
		},
		domain.ModeTwoChar: {
			label: cfg.Divider.TwoCharLabel,
			calc:  scoring.TwoCharCalculator{},
		},
	}

	// The model is only parsed once every other asset has.
	var (
		fingerprint string
		pool        *scoring.ModelPool
	)
	if cfg.Divider.GBDTEnabled {
		pool, err = c.poolFor(modelBlob)
		if err != nil {
			return nil, repositories.NewAssetError(cfg.Assets.ModelFile, err)
		}
		gbdt, err := scoring.NewGBDTCalculator(kanji, families, pool)
		if err != nil {
			return nil, err
		}
		calculators[domain.ModeGBDT] = modeCalculator{label: cfg.Divider.GBDTLabel, calc: gbdt}
		fingerprint = gbdt.Fingerprint()
	}

	dividers := make(map[string]services.Divider, len(calculators))
	for mode, entry := range calculators {
		divider, err := services.NewNameDivider(services.NameDividerDeps{
			Calculator:    entry.calc,
			Algorithm:     entry.label,
			Separator:     cfg.Divider.Separator,
			NormalizeName: cfg.Divider.NormalizeName,
			Normalizer:    normalizer,
		})
		if err != nil {
			return nil, fmt.Errorf("build %s divider: %w", mode, err)
		}
		var d services.Divider = divider
		if cfg.Divider.CacheSize > 0 {
			cached, err := services.NewCachedDivider(divider, cfg.Divider.CacheSize, mode, c.cacheHits)
			if err != nil {
				return nil, fmt.Errorf("build %s cache: %w", mode, err)
			}
			d = cached
		}
		dividers[mode] = d
	}

	c.logger.Debug("assets parsed",
		zap.Int("kanji", kanji.Len()),
		zap.Int("family_names", families.Len()),
		zap.String("source", c.source.String()),
	)

	if pool != nil {
		c.pool = pool
	}
	return &services.Engine{
		Dividers:         dividers,
		ModelFingerprint: fingerprint,
		LoadedAt:         c.now().UTC(),
	}, nil
}

// poolFor reuses the current pool when the model text is unchanged. A changed model gets a new
// pool so engines already handed out keep scoring with the model they were built with.
func (c *Container) poolFor(blob []byte) (*scoring.ModelPool, error) {
	if c.pool != nil && scoring.Fingerprint(blob) == c.pool.Fingerprint() {
		return c.pool, nil
	}
	return scoring.NewModelPool(blob, c.load)
}

func (c *Container) probes() []repositories.Probe {
	return []repositories.Probe{
		{
			Name:     "engine",
			Critical: true,
			Check: func(context.Context) error {
				if c.Engine() == nil {
					return services.ErrEngineUnavailable
				}
				return nil
			},
		},
		{
			Name: "assets",
			Check: func(ctx context.Context) error {
				rc, err := c.source.Open(ctx, c.Config.Assets.KanjiFile)
				if err != nil {
					return err
				}
				return rc.Close()
			},
		},
	}
}

func (c *Container) labels() map[string]string {
	labels := map[string]string{
		domain.ModeBasic:   c.Config.Divider.BasicLabel,
		domain.ModeTwoChar: c.Config.Divider.TwoCharLabel,
	}
	if c.Config.Divider.GBDTEnabled {
		labels[domain.ModeGBDT] = c.Config.Divider.GBDTLabel
	}
	return labels
}

func (c *Container) assetNames() []string {
	names := []string{c.Config.Assets.KanjiFile, c.Config.Assets.FamilyFile}
	if c.Config.Divider.GBDTEnabled {
		names = append(names, c.Config.Assets.ModelFile)
	}
	return names
}

func (c *Container) logEngine(msg string, engine *services.Engine) {
	modes := make([]string, 0, len(engine.Dividers))
	for mode := range engine.Dividers {
		modes = append(modes, mode)
	}
	sort.Strings(modes)
	c.logger.Info(msg,
		zap.Strings("modes", modes),
		zap.String("model_fingerprint", engine.ModelFingerprint),
		zap.String("source", c.source.String()),
		zap.Time("loaded_at", engine.LoadedAt),
	)
}
