package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, 1000, cfg.Server.MaxBatchSize)
	assert.InDelta(t, 50.0, cfg.Server.RequestsPerSecond, 0.001)
	assert.Equal(t, 100, cfg.Server.Burst)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.True(t, cfg.Server.TrackRuns)
	assert.Equal(t, 8, cfg.Batch.MaxConcurrentLeads)
	assert.Equal(t, 50, cfg.Batch.ChunkSize)
	assert.Equal(t, 8, cfg.Generator.MaxCandidates)
	assert.Empty(t, cfg.Catalog.Path)
	assert.InDelta(t, 0.40, cfg.Scorer.PatternWeight, 0.001)
	assert.InDelta(t, 0.25, cfg.Scorer.DomainWeight, 0.001)
	assert.InDelta(t, 0.15, cfg.Scorer.NameWeight, 0.001)
	assert.InDelta(t, 0.10, cfg.Scorer.ArchetypeBonus, 0.001)
	assert.InDelta(t, 0.05, cfg.Scorer.DefaultArchetypeBonus, 0.001)
	assert.InDelta(t, 0.10, cfg.Scorer.SizeWeight, 0.001)
	assert.InDelta(t, 0.01, cfg.Scorer.MinConfidence, 0.001)
	assert.InDelta(t, 0.99, cfg.Scorer.MaxConfidence, 0.001)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/emailgen
log:
  level: debug
  format: console
server:
  port: 9090
batch:
  max_concurrent_leads: 16
generator:
  max_candidates: 3
catalog:
  path: /etc/emailgen/catalog.yaml
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/emailgen", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 16, cfg.Batch.MaxConcurrentLeads)
	assert.Equal(t, 3, cfg.Generator.MaxCandidates)
	assert.Equal(t, "/etc/emailgen/catalog.yaml", cfg.Catalog.Path)
	// Defaults still apply for unset values
	assert.Equal(t, 1000, cfg.Server.MaxBatchSize)
	assert.Equal(t, 50, cfg.Batch.ChunkSize)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: postgres
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("EMAILGEN_STORE_DRIVER", "sqlite")
	t.Setenv("EMAILGEN_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("EMAILGEN_SERVER_PORT", "3000")
	t.Setenv("EMAILGEN_GENERATOR_MAX_CANDIDATES", "4")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, 4, cfg.Generator.MaxCandidates)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server: [port"), 0644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Store.Driver = "sqlite"
	cfg.Server.Port = 8000
	cfg.Server.MaxBatchSize = 1000
	cfg.Server.RequestsPerSecond = 50
	cfg.Server.Burst = 100
	cfg.Batch.MaxConcurrentLeads = 8
	cfg.Batch.ChunkSize = 50
	cfg.Generator.MaxCandidates = 8
	return cfg
}

func TestValidate_AllModesPassWithDefaults(t *testing.T) {
	cfg := validDefaults()
	for _, mode := range []string{"serve", "enrich", "generate", "runs"} {
		assert.NoError(t, cfg.Validate(mode), mode)
	}
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateServe_BatchAndRateLimit(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.MaxBatchSize = 0
	cfg.Server.Burst = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.max_batch_size must be > 0")
	assert.Contains(t, err.Error(), "server.burst must be > 0")

	// Rate limiting disabled: burst no longer matters.
	cfg.Server.MaxBatchSize = 10
	cfg.Server.RequestsPerSecond = 0
	assert.NoError(t, cfg.Validate("serve"))
}

func TestValidateEnrich_ChunkSize(t *testing.T) {
	cfg := validDefaults()
	cfg.Batch.ChunkSize = 0

	err := cfg.Validate("enrich")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "batch.chunk_size must be > 0")
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestValidateConcurrencyBounds(t *testing.T) {
	cfg := validDefaults()

	cfg.Batch.MaxConcurrentLeads = 0
	err := cfg.Validate("generate")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "max_concurrent_leads must be between 1 and 256")

	cfg.Batch.MaxConcurrentLeads = 257
	err = cfg.Validate("generate")
	assert.Error(t, err)

	cfg.Batch.MaxConcurrentLeads = 256
	assert.NoError(t, cfg.Validate("generate"))
}

func TestValidateMaxCandidates(t *testing.T) {
	cfg := validDefaults()
	cfg.Generator.MaxCandidates = 0

	err := cfg.Validate("generate")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "generator.max_candidates must be >= 1")
}

func TestValidateStoreDriver(t *testing.T) {
	cfg := validDefaults()

	cfg.Store.Driver = "postgres"
	err := cfg.Validate("runs")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required")

	cfg.Store.DatabaseURL = "postgres://localhost/emailgen"
	assert.NoError(t, cfg.Validate("runs"))

	cfg.Store.Driver = "mysql"
	err = cfg.Validate("runs")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), `store.driver "mysql" is not supported`)
}
