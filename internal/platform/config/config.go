package config

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	defaultEnvFile      = ".env"
	defaultPort         = "8080"
	defaultReadTimeout  = 15 * time.Second
	defaultWriteTimeout = 30 * time.Second
	defaultIdleTimeout  = 120 * time.Second
	defaultEnvironment  = "local"
	defaultRateBurst    = 20

	defaultAssetsDir      = "assets"
	defaultAssetsPrefix   = "namedivider"
	defaultAssetsVersion  = "v1"
	defaultKanjiFile      = "kanji.json"
	defaultFamilyFile     = "family_names.txt"
	defaultModelFile      = "gbdt_model_v1.txt"
	defaultWatchDebounce  = 500 * time.Millisecond
	defaultSeparator      = " "
	defaultBasicLabel     = "kanji_feature"
	defaultGBDTLabel      = "gbdt"
	defaultTwoCharLabel   = "two_char"
	defaultMode           = "basic"
	defaultMaxBatch       = 1000
	defaultCacheSize      = 4096
	defaultMetricsEnabled = true
)

var knownModes = map[string]struct{}{
	"basic":    {},
	"gbdt":     {},
	"two_char": {},
}

// Config captures all runtime configuration organised by concern.
type Config struct {
	Environment string
	Server      ServerConfig
	Assets      AssetsConfig
	Divider     DividerConfig
	Telemetry   TelemetryConfig
	Build       BuildConfig
}

// BuildConfig carries release metadata injected by the deploy pipeline.
type BuildConfig struct {
	Version   string
	CommitSHA string
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	// RateLimit is the sustained divide requests per second allowed per client; 0 disables limiting.
	RateLimit float64
	RateBurst int
}

// AssetsConfig locates the statistics tables and the tree model.
// A non-empty Bucket reads <Prefix>/<Version>/<file> from Cloud Storage instead of Dir.
type AssetsConfig struct {
	Dir           string
	Bucket        string
	Prefix        string
	Version       string
	KanjiFile     string
	FamilyFile    string
	ModelFile     string
	Watch         bool
	WatchDebounce time.Duration
}

// DividerConfig controls the division engine.
type DividerConfig struct {
	Separator      string
	NormalizeName  bool
	BasicLabel     string
	GBDTLabel      string
	TwoCharLabel   string
	OrderOnlyWhen4 bool
	GBDTEnabled    bool
	DefaultMode    string
	MaxBatch       int
	Workers        int
	CacheSize      int
}

// TelemetryConfig toggles metrics export and names the trace project.
type TelemetryConfig struct {
	MetricsEnabled bool
	TraceProjectID string
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map for environment lookups. Values in the map
// take precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from os.Getenv, relying only on provided maps and .env files.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load assembles the application configuration by combining defaults, .env overrides,
// and environment variables.
func Load(ctx context.Context, opts ...Option) (Config, error) {
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return Config{}, err
		}
	}

	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if dotEnvValues != nil {
			if value, ok := dotEnvValues[key]; ok {
				return value, true
			}
		}
		return "", false
	}

	cfg := Config{
		Environment: strings.ToLower(stringWithDefault(lookup, "API_ENVIRONMENT", defaultEnvironment)),
		Server: ServerConfig{
			Port:         stringWithDefault(lookup, "API_SERVER_PORT", defaultPort),
			ReadTimeout:  durationWithDefault(lookup, "API_SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout: durationWithDefault(lookup, "API_SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:  durationWithDefault(lookup, "API_SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
			RateLimit:    floatWithDefault(lookup, "API_SERVER_RATE_LIMIT", 0),
			RateBurst:    intWithDefault(lookup, "API_SERVER_RATE_BURST", defaultRateBurst),
		},
		Assets: AssetsConfig{
			Dir:           stringWithDefault(lookup, "API_ASSETS_DIR", defaultAssetsDir),
			Bucket:        strings.TrimSpace(stringWithDefault(lookup, "API_ASSETS_BUCKET", "")),
			Prefix:        stringWithDefault(lookup, "API_ASSETS_PREFIX", defaultAssetsPrefix),
			Version:       stringWithDefault(lookup, "API_ASSETS_VERSION", defaultAssetsVersion),
			KanjiFile:     stringWithDefault(lookup, "API_ASSETS_KANJI_FILE", defaultKanjiFile),
			FamilyFile:    stringWithDefault(lookup, "API_ASSETS_FAMILY_FILE", defaultFamilyFile),
			ModelFile:     stringWithDefault(lookup, "API_ASSETS_MODEL_FILE", defaultModelFile),
			Watch:         boolWithDefault(lookup, "API_ASSETS_WATCH", false),
			WatchDebounce: durationWithDefault(lookup, "API_ASSETS_WATCH_DEBOUNCE", defaultWatchDebounce),
		},
		Divider: DividerConfig{
			Separator:      rawWithDefault(lookup, "API_DIVIDER_SEPARATOR", defaultSeparator),
			NormalizeName:  boolWithDefault(lookup, "API_DIVIDER_NORMALIZE", true),
			BasicLabel:     stringWithDefault(lookup, "API_DIVIDER_BASIC_LABEL", defaultBasicLabel),
			GBDTLabel:      stringWithDefault(lookup, "API_DIVIDER_GBDT_LABEL", defaultGBDTLabel),
			TwoCharLabel:   stringWithDefault(lookup, "API_DIVIDER_TWO_CHAR_LABEL", defaultTwoCharLabel),
			OrderOnlyWhen4: boolWithDefault(lookup, "API_DIVIDER_ONLY_ORDER_WHEN_4", false),
			GBDTEnabled:    boolWithDefault(lookup, "API_DIVIDER_GBDT_ENABLED", true),
			DefaultMode:    strings.ToLower(strings.TrimSpace(stringWithDefault(lookup, "API_DIVIDER_DEFAULT_MODE", defaultMode))),
			MaxBatch:       intWithDefault(lookup, "API_DIVIDER_MAX_BATCH", defaultMaxBatch),
			Workers:        intWithDefault(lookup, "API_DIVIDER_WORKERS", runtime.GOMAXPROCS(0)),
			CacheSize:      intWithDefault(lookup, "API_DIVIDER_CACHE_SIZE", defaultCacheSize),
		},
		Telemetry: TelemetryConfig{
			MetricsEnabled: boolWithDefault(lookup, "API_METRICS_ENABLED", defaultMetricsEnabled),
			TraceProjectID: stringWithDefault(lookup, "API_TRACE_PROJECT_ID", ""),
		},
		Build: BuildConfig{
			Version:   strings.TrimSpace(stringWithDefault(lookup, "API_BUILD_VERSION", "dev")),
			CommitSHA: strings.TrimSpace(stringWithDefault(lookup, "API_BUILD_COMMIT_SHA", "unknown")),
		},
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validateConfig(cfg Config) error {
	var missing []string

	if cfg.Server.Port == "" {
		missing = append(missing, "Server.Port")
	}
	if cfg.Assets.Bucket == "" && strings.TrimSpace(cfg.Assets.Dir) == "" {
		missing = append(missing, "Assets.Dir")
	}
	if cfg.Assets.Watch && cfg.Assets.Bucket != "" {
		missing = append(missing, "Assets.Watch")
	}
	for name, value := range map[string]string{
		"Assets.KanjiFile":  cfg.Assets.KanjiFile,
		"Assets.FamilyFile": cfg.Assets.FamilyFile,
		"Assets.ModelFile":  cfg.Assets.ModelFile,
	} {
		if strings.TrimSpace(value) == "" || strings.ContainsAny(value, `/\`) {
			missing = append(missing, name)
		}
	}
	if _, ok := knownModes[cfg.Divider.DefaultMode]; !ok {
		missing = append(missing, "Divider.DefaultMode")
	} else if cfg.Divider.DefaultMode == "gbdt" && !cfg.Divider.GBDTEnabled {
		missing = append(missing, "Divider.DefaultMode")
	}
	if cfg.Server.RateLimit < 0 {
		missing = append(missing, "Server.RateLimit")
	}
	if cfg.Server.RateLimit > 0 && cfg.Server.RateBurst <= 0 {
		missing = append(missing, "Server.RateBurst")
	}
	if cfg.Divider.MaxBatch <= 0 {
		missing = append(missing, "Divider.MaxBatch")
	}
	if cfg.Divider.Workers <= 0 {
		missing = append(missing, "Divider.Workers")
	}
	if cfg.Divider.CacheSize < 0 {
		missing = append(missing, "Divider.CacheSize")
	}

	if len(missing) > 0 {
		sort.Strings(missing)
		return &ValidationError{fields: missing}
	}
	return nil
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	file, err := os.Open(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", absPath, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	values := make(map[string]string)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "export ") {
			line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		if key == "" {
			continue
		}
		value := strings.TrimSpace(parts[1])
		if unquoted, ok := unquote(value); ok {
			value = unquoted
		}
		values[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: failed parsing %s: %w", absPath, err)
	}
	return values, nil
}

// unquote strips one pair of matching quotes so values such as " " survive trimming.
func unquote(value string) (string, bool) {
	if len(value) >= 2 {
		first, last := value[0], value[len(value)-1]
		if (first == '"' || first == '\'') && first == last {
			return value[1 : len(value)-1], true
		}
	}
	return value, false
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && value != "" {
		return value
	}
	return fallback
}

// rawWithDefault keeps explicitly empty values, which matters for the separator.
func rawWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok {
		return value
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return fallback
}

func intWithDefault(lookup func(string) (string, bool), key string, fallback int) int {
	if value, ok := lookup(key); ok && value != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return parsed
		}
	}
	return fallback
}

func floatWithDefault(lookup func(string) (string, bool), key string, fallback float64) float64 {
	if value, ok := lookup(key); ok && value != "" {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func boolWithDefault(lookup func(string) (string, bool), key string, fallback bool) bool {
	if value, ok := lookup(key); ok && value != "" {
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return fallback
}
