package observability

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/smallbiznis/servicebay/internal/config"
)

const (
	defaultServiceName   = "servicebay"
	defaultSamplingRatio = 0.1
	defaultSlowQuery     = 200 * time.Millisecond
)

// Config is the observability view of the process: log shape, OTLP export
// and how eagerly SQL statements are logged.
type Config struct {
	ServiceName string
	Environment string
	Version     string

	LogLevel  string
	LogFormat string

	OtelEnabled          bool
	OtelExporterEndpoint string
	OtelExporterProtocol string
	OtelSamplingRatio    float64

	// SlowQueryThreshold marks statements logged at warn. Zero disables it.
	SlowQueryThreshold time.Duration
	LogAllQueries      bool
}

// LoadConfig starts from the application config and applies the standard
// OTEL_* variables plus the service's own overrides on top.
func LoadConfig(cfg config.Config) Config {
	out := Config{
		ServiceName:          firstNonEmpty(cfg.AppName, defaultServiceName),
		Environment:          firstNonEmpty(os.Getenv("DEPLOYMENT_ENV"), cfg.Environment),
		Version:              firstNonEmpty(os.Getenv("SERVICE_VERSION"), cfg.AppVersion),
		LogLevel:             lower(firstNonEmpty(os.Getenv("LOG_LEVEL"), "info")),
		LogFormat:            lower(firstNonEmpty(os.Getenv("LOG_FORMAT"), "json")),
		OtelEnabled:          envBool("OTEL_ENABLED", cfg.IsProduction()),
		OtelExporterEndpoint: firstNonEmpty(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"), cfg.OTLPEndpoint),
		OtelExporterProtocol: lower(firstNonEmpty(
			os.Getenv("OTEL_EXPORTER_OTLP_TRACES_PROTOCOL"),
			os.Getenv("OTEL_EXPORTER_OTLP_PROTOCOL"),
			"grpc",
		)),
		OtelSamplingRatio:  envFloat("OTEL_SAMPLING_RATIO", defaultSamplingRatio),
		SlowQueryThreshold: defaultSlowQuery,
	}

	if ms, ok := envInt("DB_SLOW_QUERY_MS"); ok && ms >= 0 {
		out.SlowQueryThreshold = time.Duration(ms) * time.Millisecond
	}
	out.LogAllQueries = envBool("DB_LOG_QUERIES", out.Debug())
	return out
}

// Debug is true for debug log level or any non-production environment.
func (c Config) Debug() bool {
	if lower(c.LogLevel) == "debug" {
		return true
	}
	switch lower(c.Environment) {
	case "dev", "development", "local", "test", "testing":
		return true
	default:
		return false
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func lower(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func envBool(key string, def bool) bool {
	switch lower(os.Getenv(key)) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func envFloat(key string, def float64) float64 {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv(key)), 64)
	if err != nil {
		return def
	}
	return parsed
}

func envInt(key string) (int, bool) {
	parsed, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return 0, false
	}
	return parsed, true
}
