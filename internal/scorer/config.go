// Package scorer computes the confidence of an email candidate from the
// pattern weight, domain quality, name quality, archetype and company size.
package scorer

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/emailgen/internal/config"
)

// DefaultScorerConfig returns a config.ScorerConfig with the standard
// component weights. Pattern, domain and name weights sum to 0.80; the
// archetype bonus is a flat addend and the size delta carries 0.10.
func DefaultScorerConfig() config.ScorerConfig {
	return config.ScorerConfig{
		PatternWeight:         0.40,
		DomainWeight:          0.25,
		NameWeight:            0.15,
		ArchetypeBonus:        0.10,
		DefaultArchetypeBonus: 0.05,
		SizeWeight:            0.10,
		MinConfidence:         0.01,
		MaxConfidence:         0.99,
	}
}

// ValidateConfig checks that a ScorerConfig is internally consistent.
func ValidateConfig(c config.ScorerConfig) error {
	var errs []string

	weights := []struct {
		name string
		v    float64
	}{
		{"pattern_weight", c.PatternWeight},
		{"domain_weight", c.DomainWeight},
		{"name_weight", c.NameWeight},
		{"archetype_bonus", c.ArchetypeBonus},
		{"default_archetype_bonus", c.DefaultArchetypeBonus},
		{"size_weight", c.SizeWeight},
	}
	for _, w := range weights {
		if w.v < 0 || w.v > 1 {
			errs = append(errs, fmt.Sprintf("%s must be between 0 and 1", w.name))
		}
	}

	if sum := c.PatternWeight + c.DomainWeight + c.NameWeight; sum <= 0 {
		errs = append(errs, "pattern, domain and name weights must sum to > 0")
	}

	// Confidence never reaches exactly 0 or 1.
	if c.MinConfidence <= 0 || c.MaxConfidence >= 1 {
		errs = append(errs, "confidence bounds must lie strictly inside (0, 1)")
	}
	if c.MinConfidence >= c.MaxConfidence {
		errs = append(errs, "min_confidence must be < max_confidence")
	}

	if len(errs) > 0 {
		return eris.Errorf("scorer: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
