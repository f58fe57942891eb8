package scorer

import (
	"fmt"
	"math"
	"strings"

	"github.com/sells-group/emailgen/internal/config"
	"github.com/sells-group/emailgen/internal/model"
	"github.com/sells-group/emailgen/internal/pattern"
)

var (
	businessTLDs      = []string{".com", ".org", ".net", ".io", ".co"}
	techTLDs          = []string{".io", ".co", ".tech", ".ai"}
	suspiciousDomains = []string{"temp", "test", "example", "demo"}
)

// sizeDeltas holds the raw modifier per company size bracket. Smaller
// companies lean towards informal addresses.
var sizeDeltas = map[model.CompanySize]float64{
	model.CompanySize1To10:     0.10,
	model.CompanySize11To50:    0.05,
	model.CompanySize51To200:   0.0,
	model.CompanySize201To500:  -0.05,
	model.CompanySize501To1000: -0.10,
	model.CompanySize1000Plus:  -0.15,
}

// Input is everything the scorer looks at for one candidate. Names and domain
// are expected to be normalized already.
type Input struct {
	Pattern     pattern.ID
	Archetype   pattern.Archetype
	Domain      string
	FirstName   string
	LastName    string
	CompanySize model.CompanySize
}

// Scorer combines the weighted sub-scores into one confidence value.
type Scorer struct {
	catalog *pattern.Catalog
	cfg     config.ScorerConfig
}

// New creates a Scorer. A nil catalog uses the embedded one.
func New(catalog *pattern.Catalog, cfg config.ScorerConfig) *Scorer {
	if catalog == nil {
		catalog = pattern.DefaultCatalog()
	}
	return &Scorer{catalog: catalog, cfg: cfg}
}

// Score returns the confidence of a candidate, clamped to the configured
// bounds, and a pipe-joined trace of the factors behind it.
func (s *Scorer) Score(in Input) (float64, string) {
	weight, ok := s.catalog.WeightsFor(in.Archetype).Weight(in.Pattern)
	if !ok {
		weight = pattern.DefaultWeight
	}

	domainQ := DomainQuality(in.Domain)
	nameQ := NameQuality(in.FirstName, in.LastName)

	bonus := s.cfg.DefaultArchetypeBonus
	if in.Archetype != pattern.Default {
		bonus = s.cfg.ArchetypeBonus
	}

	total := weight*s.cfg.PatternWeight +
		domainQ*s.cfg.DomainWeight +
		nameQ*s.cfg.NameWeight +
		bonus +
		SizeModifier(in.CompanySize)*s.cfg.SizeWeight

	parts := []string{
		fmt.Sprintf("Pattern: %s (%.2f)", in.Pattern, weight),
		fmt.Sprintf("Domain: %.2f", domainQ),
		fmt.Sprintf("Names: %.2f", nameQ),
		fmt.Sprintf("Industry: %s", in.Archetype),
	}
	if in.CompanySize != "" {
		parts = append(parts, fmt.Sprintf("Size: %s", in.CompanySize))
	}

	return clamp(total, s.cfg.MinConfidence, s.cfg.MaxConfidence), strings.Join(parts, " | ")
}

// DomainQuality rates how business-like a normalized domain looks, in [0, 1].
func DomainQuality(domain string) float64 {
	if domain == "" {
		return 0
	}

	score := 0.5

	switch n := len(domain); {
	case n >= 5 && n <= 15:
		score += 0.1
	case n > 20:
		score -= 0.1
	}

	if hasAnySuffix(domain, businessTLDs) {
		score += 0.15
	}
	if hasAnySuffix(domain, techTLDs) {
		score += 0.1
	}

	for _, s := range suspiciousDomains {
		if strings.Contains(domain, s) {
			score -= 0.3
			break
		}
	}

	return clamp(score, 0, 1)
}

// NameQuality rates normalized name tokens by length, in [0, 1].
func NameQuality(first, last string) float64 {
	score := 0.5

	if n := len(first); n >= 2 && n <= 15 {
		score += 0.2
	}
	if n := len(last); n >= 2 && n <= 20 {
		score += 0.2
	}

	if n := len(first); n > 0 && (n < 2 || n > 20) {
		score -= 0.1
	}
	if n := len(last); n > 0 && (n < 2 || n > 25) {
		score -= 0.1
	}

	return clamp(score, 0, 1)
}

// SizeModifier returns the raw delta for a size bracket, 0 when unrecognized.
func SizeModifier(size model.CompanySize) float64 {
	return sizeDeltas[size]
}

func hasAnySuffix(s string, suffixes []string) bool {
	for _, suf := range suffixes {
		if strings.HasSuffix(s, suf) {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
