package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
	Generator GeneratorConfig `yaml:"generator" mapstructure:"generator"`
	Catalog   CatalogConfig   `yaml:"catalog" mapstructure:"catalog"`
	Scorer    ScorerConfig    `yaml:"scorer" mapstructure:"scorer"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the run tracking database.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port              int      `yaml:"port" mapstructure:"port"`
	MaxBatchSize      int      `yaml:"max_batch_size" mapstructure:"max_batch_size"`
	RequestsPerSecond float64  `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int      `yaml:"burst" mapstructure:"burst"`
	CORSOrigins       []string `yaml:"cors_origins" mapstructure:"cors_origins"`
	TrackRuns         bool     `yaml:"track_runs" mapstructure:"track_runs"`
}

// BatchConfig configures batch enrichment.
type BatchConfig struct {
	MaxConcurrentLeads int `yaml:"max_concurrent_leads" mapstructure:"max_concurrent_leads"`
	ChunkSize          int `yaml:"chunk_size" mapstructure:"chunk_size"`
}

// GeneratorConfig configures candidate generation.
type GeneratorConfig struct {
	MaxCandidates int `yaml:"max_candidates" mapstructure:"max_candidates"`
}

// CatalogConfig points at an alternate pattern catalog. Empty uses the
// catalog compiled into the binary.
type CatalogConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ScorerConfig holds the confidence component weights.
type ScorerConfig struct {
	PatternWeight         float64 `yaml:"pattern_weight" mapstructure:"pattern_weight"`
	DomainWeight          float64 `yaml:"domain_weight" mapstructure:"domain_weight"`
	NameWeight            float64 `yaml:"name_weight" mapstructure:"name_weight"`
	ArchetypeBonus        float64 `yaml:"archetype_bonus" mapstructure:"archetype_bonus"`
	DefaultArchetypeBonus float64 `yaml:"default_archetype_bonus" mapstructure:"default_archetype_bonus"`
	SizeWeight            float64 `yaml:"size_weight" mapstructure:"size_weight"`
	MinConfidence         float64 `yaml:"min_confidence" mapstructure:"min_confidence"`
	MaxConfidence         float64 `yaml:"max_confidence" mapstructure:"max_confidence"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("EMAILGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.max_batch_size", 1000)
	v.SetDefault("server.requests_per_second", 50.0)
	v.SetDefault("server.burst", 100)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.track_runs", true)
	v.SetDefault("batch.max_concurrent_leads", 8)
	v.SetDefault("batch.chunk_size", 50)
	v.SetDefault("generator.max_candidates", 8)
	v.SetDefault("catalog.path", "")
	v.SetDefault("scorer.pattern_weight", 0.40)
	v.SetDefault("scorer.domain_weight", 0.25)
	v.SetDefault("scorer.name_weight", 0.15)
	v.SetDefault("scorer.archetype_bonus", 0.10)
	v.SetDefault("scorer.default_archetype_bonus", 0.05)
	v.SetDefault("scorer.size_weight", 0.10)
	v.SetDefault("scorer.min_confidence", 0.01)
	v.SetDefault("scorer.max_confidence", 0.99)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
