package observability

import (
	"testing"
	"time"

	"github.com/smallbiznis/servicebay/internal/config"
	"github.com/stretchr/testify/assert"
	gormlogger "gorm.io/gorm/logger"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("DEPLOYMENT_ENV", "")
	t.Setenv("OTEL_ENABLED", "")
	t.Setenv("OTEL_SAMPLING_RATIO", "0.5")
	t.Setenv("DB_SLOW_QUERY_MS", "")
	t.Setenv("DB_LOG_QUERIES", "")

	cfg := LoadConfig(config.Config{AppName: "", Environment: "development", AppVersion: "1.2.3"})

	assert.Equal(t, "servicebay", cfg.ServiceName)
	assert.Equal(t, "1.2.3", cfg.Version)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.OtelEnabled)
	assert.Equal(t, 0.5, cfg.OtelSamplingRatio)
	assert.Equal(t, 200*time.Millisecond, cfg.SlowQueryThreshold)
	assert.True(t, cfg.Debug())
	assert.True(t, cfg.LogAllQueries)
}

func TestLoadConfigTracesProtocolWins(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc")
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_PROTOCOL", "HTTP")

	cfg := LoadConfig(config.Config{Environment: "production"})
	assert.Equal(t, "http", cfg.OtelExporterProtocol)
}

func TestSlowQueryOverride(t *testing.T) {
	t.Setenv("DB_SLOW_QUERY_MS", "50")
	t.Setenv("DB_LOG_QUERIES", "false")

	cfg := LoadConfig(config.Config{Environment: "development"})
	gormCfg := provideGormLoggerConfig(cfg)

	assert.Equal(t, 50*time.Millisecond, gormCfg.SlowThreshold)
	assert.Equal(t, gormlogger.Warn, gormCfg.Level)
	assert.True(t, gormCfg.IgnoreRecordNotFound)
}

func TestDebugFollowsLevelInProduction(t *testing.T) {
	assert.False(t, Config{Environment: "production", LogLevel: "info"}.Debug())
	assert.True(t, Config{Environment: "production", LogLevel: "debug"}.Debug())
}
