package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const minimalConfig = `
environment: test
ingest:
  backend: clickhouse
`

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.Environment)
	assert.Equal(t, 30, cfg.Analysis.MinObservations)
	assert.Equal(t, 20, cfg.Analysis.MinElasticityN)
	assert.Equal(t, 1.5, cfg.Analysis.DispersionCutoff)
	assert.Equal(t, 24*time.Hour, cfg.Analysis.RefitInterval)
	assert.Equal(t, 365, cfg.Analysis.WindowDays)
	assert.Equal(t, 200, cfg.RateShop.WindowSize)
	assert.Equal(t, 6*time.Hour, cfg.RateShop.MaxPointAge)
	assert.Equal(t, 30*time.Second, cfg.Quote.CacheTTL)

	p := cfg.Pricing
	assert.Equal(t, 100.0, p.FallbackBasePrice)
	assert.Equal(t, "balanced", p.Objective)
	assert.Equal(t, 1.3, p.Season.Summer)
	assert.Equal(t, 1.25, p.DayOfWeek.Saturday)
	assert.Equal(t, 0.5, p.DemandSlope)
	assert.Equal(t, 5, p.Grid.Points)
	assert.Equal(t, 0.10, p.Grid.Span)
	assert.Equal(t, 0.8, p.Bounds.LowerFactor)
	assert.Equal(t, 2.0, p.Bounds.UpperFactor)
	assert.Equal(t, 0.25, p.PickupFraction)
}

func TestLoadOverridesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
environment: prod
ingest:
  backend: kafka
analysis:
  min_observations: 60
  refit_interval: 6h
pricing:
  fallback_base_price: 150
  grid:
    points: 7
    span: 0.2
`))
	require.NoError(t, err)
	assert.Equal(t, 60, cfg.Analysis.MinObservations)
	assert.Equal(t, 6*time.Hour, cfg.Analysis.RefitInterval)
	assert.Equal(t, 150.0, cfg.Pricing.FallbackBasePrice)
	assert.Equal(t, 7, cfg.Pricing.Grid.Points)
	assert.Equal(t, 0.2, cfg.Pricing.Grid.Span)
}

func TestLoadRejectsMissingEnvironment(t *testing.T) {
	_, err := Load(writeConfig(t, `
ingest:
  backend: clickhouse
`))
	assert.ErrorContains(t, err, "environment is required")
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	_, err := Load(writeConfig(t, `
environment: test
ingest:
  backend: sqs
`))
	assert.ErrorContains(t, err, "ingest.backend must be")
}

func TestLoadRejectsEvenGrid(t *testing.T) {
	_, err := Load(writeConfig(t, `
environment: test
ingest:
  backend: clickhouse
pricing:
  grid:
    points: 4
`))
	assert.ErrorContains(t, err, "grid.points must be odd")
}

func TestLoadRejectsSinglePointGrid(t *testing.T) {
	// odd but unusable: a one-point grid has no span to center on
	_, err := Load(writeConfig(t, `
environment: test
ingest:
  backend: clickhouse
pricing:
  grid:
    points: 1
`))
	assert.ErrorContains(t, err, "grid.points must be at least 3")
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("INGEST_BACKEND", "kafka")
	t.Setenv("KAFKA_BROKERS", "a:9092,b:9092")
	t.Setenv("PROPERTIES", "p1,p2")

	cfg, err := LoadWithEnv(writeConfig(t, minimalConfig))
	require.NoError(t, err)
	assert.Equal(t, "kafka", cfg.Ingest.Backend)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, []string{"p1", "p2"}, cfg.RateShop.Properties)
}
