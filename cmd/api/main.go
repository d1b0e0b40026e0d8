package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hanko-field/namedivider/internal/di"
	"github.com/hanko-field/namedivider/internal/handlers"
	"github.com/hanko-field/namedivider/internal/platform/config"
	"github.com/hanko-field/namedivider/internal/platform/observability"
	"github.com/hanko-field/namedivider/internal/services"
)

func main() {
	ctx := context.Background()
	startedAt := time.Now().UTC()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("api")
	ctx = observability.WithLogger(ctx, logger)

	cfg, err := config.Load(ctx)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	var metrics *observability.Metrics
	if cfg.Telemetry.MetricsEnabled {
		metrics, err = observability.NewMetrics("namedivider-api")
		if err != nil {
			logger.Fatal("failed to initialise metrics", zap.Error(err))
		}
	}

	buildInfo := buildInfoFromConfig(cfg, startedAt)
	container, err := di.NewContainer(ctx, cfg,
		di.WithLogger(logger.Named("engine")),
		di.WithMeter(metrics.Meter("github.com/hanko-field/namedivider")),
		di.WithBuildInfo(buildInfo),
	)
	if err != nil {
		logger.Fatal("failed to load name divider", zap.Error(err))
	}

	watchCtx, stopWatching := context.WithCancel(ctx)
	defer stopWatching()
	if err := container.StartWatcher(watchCtx); err != nil {
		logger.Fatal("failed to watch asset directory", zap.Error(err))
	}

	httpObserver, err := observability.NewHTTPObserver(logger.Named("http"),
		metrics.Meter("github.com/hanko-field/namedivider/http"), cfg.Telemetry.TraceProjectID)
	if err != nil {
		logger.Fatal("failed to initialise http observability", zap.Error(err))
	}

	healthHandlers := handlers.NewHealthHandlers(
		handlers.WithHealthBuildInfo(buildInfo),
		handlers.WithHealthSystemService(container.Services.System),
	)
	divideHandlers := handlers.NewDivideHandlers(container.Services.Divisions,
		handlers.WithDivideRateLimit(cfg.Server.RateLimit, cfg.Server.RateBurst),
	)

	opts := []handlers.Option{
		handlers.WithMiddlewares(httpObserver.Middlewares()...),
		handlers.WithHealthHandlers(healthHandlers),
		handlers.WithDivideRoutes(divideHandlers.Routes),
	}
	if handler := metrics.Handler(); handler != nil {
		opts = append(opts, handlers.WithMetricsHandler(handler))
	}

	router := handlers.NewRouter(opts...)
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("namedivider api listening",
			zap.String("default_mode", container.Services.Divisions.DefaultMode()),
			zap.Strings("modes", container.Services.Divisions.Modes()),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")
	stopWatching()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	if err := container.Close(shutdownCtx); err != nil {
		logger.Warn("container close error", zap.Error(err))
	}
	if err := metrics.Shutdown(shutdownCtx); err != nil {
		logger.Warn("metrics shutdown error", zap.Error(err))
	}
}

func buildInfoFromConfig(cfg config.Config, started time.Time) services.BuildInfo {
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "local"
	}
	return services.BuildInfo{
		Version:     cfg.Build.Version,
		CommitSHA:   cfg.Build.CommitSHA,
		Environment: environment,
		StartedAt:   started,
	}
}
