package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// Validate checks the fields a command mode depends on. Modes: "serve",
// "enrich", "generate", "runs".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be > 0 and <= 65535")
		}
		if c.Server.MaxBatchSize <= 0 {
			errs = append(errs, "server.max_batch_size must be > 0")
		}
		if c.Server.RequestsPerSecond < 0 {
			errs = append(errs, "server.requests_per_second must be >= 0")
		}
		if c.Server.RequestsPerSecond > 0 && c.Server.Burst <= 0 {
			errs = append(errs, "server.burst must be > 0 when rate limiting is enabled")
		}
	case "enrich":
		if c.Batch.ChunkSize <= 0 {
			errs = append(errs, "batch.chunk_size must be > 0")
		}
	case "generate", "runs":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Batch.MaxConcurrentLeads < 1 || c.Batch.MaxConcurrentLeads > 256 {
		errs = append(errs, "batch.max_concurrent_leads must be between 1 and 256")
	}
	if c.Generator.MaxCandidates < 1 {
		errs = append(errs, "generator.max_candidates must be >= 1")
	}

	switch c.Store.Driver {
	case "sqlite":
	case "postgres":
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required for the postgres driver")
		}
	default:
		errs = append(errs, fmt.Sprintf("store.driver %q is not supported (sqlite, postgres)", c.Store.Driver))
	}

	if len(errs) > 0 {
		return eris.Errorf("config: validation failed for %s: %s", mode, strings.Join(errs, "; "))
	}
	return nil
}
