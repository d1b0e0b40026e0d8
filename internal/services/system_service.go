package services

import (
	"context"
	"errors"
	"strings"
	"time"

	domain "github.com/hanko-field/namedivider/internal/domain"
	"github.com/hanko-field/namedivider/internal/repositories"
)

// BuildInfo describes the running binary for the health endpoints.
type BuildInfo struct {
	Version     string
	CommitSHA   string
	Environment string
	StartedAt   time.Time
}

// SystemServiceDeps wires the probes and engine state behind the readiness report.
type SystemServiceDeps struct {
	HealthRepository repositories.HealthRepository
	Engines          EngineProvider
	Divisions        NameDivisionService
	Clock            func() time.Time
	Build            BuildInfo
}

type systemService struct {
	healthRepo repositories.HealthRepository
	engines    EngineProvider
	divisions  NameDivisionService
	clock      func() time.Time
	build      BuildInfo
}

var _ SystemService = (*systemService)(nil)

// NewSystemService assembles the readiness reporting service.
func NewSystemService(deps SystemServiceDeps) (SystemService, error) {
	if deps.HealthRepository == nil {
		return nil, errors.New("system service: health repository is required")
	}
	if deps.Engines == nil {
		return nil, errors.New("system service: engine provider is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	build := deps.Build
	if build.StartedAt.IsZero() {
		build.StartedAt = clock()
	}

	return &systemService{
		healthRepo: deps.HealthRepository,
		engines:    deps.Engines,
		divisions:  deps.Divisions,
		clock:      func() time.Time { return clock().UTC() },
		build:      build,
	}, nil
}

// HealthReport merges the probe results with build metadata and the state of the loaded engine.
// Without an engine the report is always in error, whatever the probes say.
func (s *systemService) HealthReport(ctx context.Context) (SystemHealthReport, error) {
	if ctx == nil {
		return SystemHealthReport{}, errors.New("system service: context is required")
	}

	report, err := s.healthRepo.Collect(ctx)
	if err != nil {
		return SystemHealthReport{}, err
	}

	now := s.clock()
	if report.GeneratedAt.IsZero() {
		report.GeneratedAt = now
	}
	if report.Checks == nil {
		report.Checks = map[string]domain.SystemHealthCheck{}
	}
	s.stampBuild(&report, now)

	engine := s.engines.Engine()
	if engine == nil {
		report.Status = domain.HealthStatusError
		return report, nil
	}
	report.ModelFingerprint = engine.ModelFingerprint
	if !engine.LoadedAt.IsZero() {
		report.AssetsLoadedAt = engine.LoadedAt.UTC()
	}
	if s.divisions != nil {
		report.Modes = s.divisions.Modes()
	}
	if strings.TrimSpace(report.Status) == "" {
		report.Status = worstStatus(report.Checks)
	}
	return report, nil
}

func (s *systemService) stampBuild(report *SystemHealthReport, now time.Time) {
	if report.Version == "" {
		report.Version = s.build.Version
	}
	if report.CommitSHA == "" {
		report.CommitSHA = s.build.CommitSHA
	}
	if report.Environment == "" {
		report.Environment = s.build.Environment
	}
	if report.Uptime <= 0 {
		report.Uptime = now.Sub(s.build.StartedAt)
	}
}

// worstStatus folds check statuses: any error wins, then any non-ok status degrades.
func worstStatus(checks map[string]domain.SystemHealthCheck) string {
	status := domain.HealthStatusOK
	for _, check := range checks {
		switch check.Status {
		case domain.HealthStatusOK, "":
		case domain.HealthStatusError:
			return domain.HealthStatusError
		default:
			status = domain.HealthStatusDegraded
		}
	}
	return status
}
