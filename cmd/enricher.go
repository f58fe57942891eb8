package main

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/emailgen/internal/config"
	"github.com/sells-group/emailgen/internal/enrich"
	"github.com/sells-group/emailgen/internal/generator"
	"github.com/sells-group/emailgen/internal/pattern"
	"github.com/sells-group/emailgen/internal/scorer"
)

// buildEnricher wires catalog, scorer and generator from configuration.
func buildEnricher(c *config.Config) (*enrich.Enricher, error) {
	catalog := pattern.DefaultCatalog()
	if c.Catalog.Path != "" {
		loaded, err := pattern.LoadCatalog(c.Catalog.Path)
		if err != nil {
			return nil, eris.Wrap(err, "load pattern catalog")
		}
		catalog = loaded
		zap.L().Info("loaded pattern catalog", zap.String("path", c.Catalog.Path))
	}

	if err := scorer.ValidateConfig(c.Scorer); err != nil {
		return nil, eris.Wrap(err, "scorer config")
	}

	sc := scorer.New(catalog, c.Scorer)
	gen := generator.New(catalog, sc, c.Generator.MaxCandidates)
	return enrich.New(gen, c.Batch.MaxConcurrentLeads), nil
}
