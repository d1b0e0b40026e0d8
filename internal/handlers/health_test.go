package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	domain "github.com/hanko-field/namedivider/internal/domain"
	"github.com/hanko-field/namedivider/internal/services"
)

var healthNow = time.Date(2024, 1, 1, 0, 1, 0, 0, time.UTC)

type reportFunc func(context.Context) (services.SystemHealthReport, error)

func (f reportFunc) HealthReport(ctx context.Context) (services.SystemHealthReport, error) {
	return f(ctx)
}

func fixedReport(report services.SystemHealthReport, err error) services.SystemService {
	return reportFunc(func(context.Context) (services.SystemHealthReport, error) {
		return report, err
	})
}

func getJSON(t *testing.T, h http.HandlerFunc, path string, dst any) int {
	t.Helper()
	rr := httptest.NewRecorder()
	h(rr, httptest.NewRequest(http.MethodGet, path, nil))
	if dst != nil {
		if err := json.Unmarshal(rr.Body.Bytes(), dst); err != nil {
			t.Fatalf("decode %s body %q: %v", path, rr.Body.String(), err)
		}
	}
	return rr.Code
}

func TestHealthzReportsBuildStamp(t *testing.T) {
	started := healthNow.Add(-90 * time.Second)
	h := NewHealthHandlers(
		WithHealthBuildInfo(services.BuildInfo{Version: "0.4.2", CommitSHA: "9f1c", Environment: "staging", StartedAt: started}),
		WithHealthClock(func() time.Time { return healthNow }),
	)

	var body healthzResponse
	if code := getJSON(t, h.Healthz, "/healthz", &body); code != http.StatusOK {
		t.Fatalf("healthz status = %d", code)
	}
	want := healthzResponse{
		Status:      domain.HealthStatusOK,
		Version:     "0.4.2",
		CommitSHA:   "9f1c",
		Environment: "staging",
		Uptime:      "1m30s",
		Timestamp:   "2024-01-01T00:01:00Z",
	}
	if body != want {
		t.Fatalf("healthz body = %+v, want %+v", body, want)
	}
}

func TestHealthzWithoutBuildInfo(t *testing.T) {
	h := NewHealthHandlers(WithHealthClock(func() time.Time { return healthNow }))

	var body map[string]any
	getJSON(t, h.Healthz, "/healthz", &body)
	if _, ok := body["version"]; ok {
		t.Fatalf("empty version should be omitted: %v", body)
	}
	if body["uptime"] != "0s" {
		t.Fatalf("uptime = %v, want 0s", body["uptime"])
	}
}

func TestReadyz(t *testing.T) {
	loaded := healthNow.Add(-time.Hour)
	tests := []struct {
		name        string
		system      services.SystemService
		wantCode    int
		wantStatus  string
		wantModes   []string
		wantDetails []string
		check       func(t *testing.T, body readyzResponse)
	}{
		{
			name: "engine loaded",
			system: fixedReport(services.SystemHealthReport{
				Status:           domain.HealthStatusOK,
				Modes:            []string{domain.ModeBasic, domain.ModeGBDT, domain.ModeTwoChar},
				ModelFingerprint: "c0ffee",
				AssetsLoadedAt:   loaded,
				Uptime:           2*time.Hour + 400*time.Millisecond,
				Checks: map[string]domain.SystemHealthCheck{
					"engine": {Status: domain.HealthStatusOK, Detail: "3 modes", Latency: 2 * time.Millisecond},
					"assets": {Status: domain.HealthStatusOK, Latency: 15 * time.Millisecond, CheckedAt: healthNow},
				},
			}, nil),
			wantCode:   http.StatusOK,
			wantStatus: domain.HealthStatusOK,
			wantModes:  []string{domain.ModeBasic, domain.ModeGBDT, domain.ModeTwoChar},
			check: func(t *testing.T, body readyzResponse) {
				if body.ModelFingerprint != "c0ffee" {
					t.Fatalf("fingerprint = %q", body.ModelFingerprint)
				}
				if body.AssetsLoadedAt != "2023-12-31T23:01:00Z" {
					t.Fatalf("assetsLoadedAt = %q", body.AssetsLoadedAt)
				}
				if body.Uptime != "2h0m0s" {
					t.Fatalf("uptime = %q", body.Uptime)
				}
				if body.GeneratedAt != "2024-01-01T00:01:00Z" {
					t.Fatalf("generatedAt should fall back to the clock, got %q", body.GeneratedAt)
				}
				if got := body.Checks["assets"]; got.LatencyMS != 15 || got.CheckedAt == "" {
					t.Fatalf("assets check = %+v", got)
				}
				if got := body.Checks["engine"]; got.Detail != "3 modes" || got.CheckedAt != "" {
					t.Fatalf("engine check = %+v", got)
				}
			},
		},
		{
			name: "failed checks listed in name order",
			system: fixedReport(services.SystemHealthReport{
				Status: domain.HealthStatusError,
				Checks: map[string]domain.SystemHealthCheck{
					"engine": {Status: domain.HealthStatusError, Error: "not loaded"},
					"assets": {Status: domain.HealthStatusDegraded, Error: "kanji.json: permission denied"},
				},
			}, nil),
			wantCode:    http.StatusServiceUnavailable,
			wantStatus:  domain.HealthStatusError,
			wantModes:   []string{},
			wantDetails: []string{"assets: kanji.json: permission denied", "engine: not loaded"},
		},
		{
			name:       "degraded without errors",
			system:     fixedReport(services.SystemHealthReport{Status: domain.HealthStatusDegraded, Modes: []string{domain.ModeBasic}}, nil),
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: domain.HealthStatusDegraded,
			wantModes:  []string{domain.ModeBasic},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHealthHandlers(
				WithHealthSystemService(tc.system),
				WithHealthClock(func() time.Time { return healthNow }),
			)
			var body readyzResponse
			if code := getJSON(t, h.Readyz, "/readyz", &body); code != tc.wantCode {
				t.Fatalf("readyz status = %d, want %d", code, tc.wantCode)
			}
			if body.Status != tc.wantStatus {
				t.Fatalf("status = %q, want %q", body.Status, tc.wantStatus)
			}
			if !equalStrings(body.Modes, tc.wantModes) || body.Modes == nil {
				t.Fatalf("modes = %#v, want %#v", body.Modes, tc.wantModes)
			}
			if !equalStrings(body.Details, tc.wantDetails) {
				t.Fatalf("details = %#v, want %#v", body.Details, tc.wantDetails)
			}
			if tc.check != nil {
				tc.check(t, body)
			}
		})
	}
}

func TestReadyzUnavailable(t *testing.T) {
	tests := map[string]*HealthHandlers{
		"no system service": NewHealthHandlers(),
		"report error":      NewHealthHandlers(WithHealthSystemService(fixedReport(services.SystemHealthReport{}, errors.New("assets check timed out")))),
	}
	for name, h := range tests {
		t.Run(name, func(t *testing.T) {
			var body map[string]any
			if code := getJSON(t, h.Readyz, "/readyz", &body); code != http.StatusServiceUnavailable {
				t.Fatalf("readyz status = %d, want 503", code)
			}
			if body["error"] != "service_unavailable" {
				t.Fatalf("error code = %v", body["error"])
			}
		})
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
