// Package generator renders every catalog pattern for a lead, scores the
// syntax-valid results and returns them ranked.
package generator

import (
	"regexp"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/emailgen/internal/model"
	"github.com/sells-group/emailgen/internal/normalize"
	"github.com/sells-group/emailgen/internal/pattern"
	"github.com/sells-group/emailgen/internal/scorer"
)

// DefaultMaxCandidates bounds the ranked list when no limit is configured.
const DefaultMaxCandidates = 8

// Sentinel errors for leads that cannot produce any address. Callers turn
// these into no-candidate records rather than failures.
var (
	ErrMissingFirstName = eris.New("generator: missing first name")
	ErrInvalidDomain    = eris.New("generator: invalid domain")
)

var emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidEmail reports whether addr passes the syntax check applied to every
// rendered candidate.
func ValidEmail(addr string) bool {
	return emailRe.MatchString(addr)
}

// Generator produces ranked email candidates. It holds no mutable state and
// is safe for concurrent use.
type Generator struct {
	catalog       *pattern.Catalog
	scorer        *scorer.Scorer
	maxCandidates int
}

// New creates a Generator. A nil catalog uses the embedded one; a
// non-positive maxCandidates uses DefaultMaxCandidates.
func New(catalog *pattern.Catalog, sc *scorer.Scorer, maxCandidates int) *Generator {
	if catalog == nil {
		catalog = pattern.DefaultCatalog()
	}
	if sc == nil {
		sc = scorer.New(catalog, scorer.DefaultScorerConfig())
	}
	if maxCandidates <= 0 {
		maxCandidates = DefaultMaxCandidates
	}
	return &Generator{catalog: catalog, scorer: sc, maxCandidates: maxCandidates}
}

// Catalog returns the pattern catalog the generator renders from.
func (g *Generator) Catalog() *pattern.Catalog {
	return g.catalog
}

// Generate returns the lead's candidates ordered by confidence, highest
// first, unique by address. ErrMissingFirstName and ErrInvalidDomain signal
// unusable input.
func (g *Generator) Generate(lead model.Lead) ([]model.EmailCandidate, error) {
	first := normalize.Name(lead.FirstName)
	if first == "" {
		zap.L().Warn("generator: missing first name",
			zap.String("domain", lead.CompanyDomain),
		)
		return nil, ErrMissingFirstName
	}

	domain := normalize.Domain(lead.CompanyDomain)
	if domain == "" {
		zap.L().Warn("generator: invalid domain",
			zap.String("domain", lead.CompanyDomain),
		)
		return nil, ErrInvalidDomain
	}

	last := normalize.Name(lead.LastName)
	archetype := g.catalog.ResolveArchetype(lead.CompanyIndustry)
	weights := g.catalog.WeightsFor(archetype)

	candidates := make([]model.EmailCandidate, 0, len(weights))
	for _, w := range weights {
		addr := pattern.Render(first, last, domain, w.Pattern)
		if addr == "" || !ValidEmail(addr) {
			continue
		}

		confidence, reasoning := g.scorer.Score(scorer.Input{
			Pattern:     w.Pattern,
			Archetype:   archetype,
			Domain:      domain,
			FirstName:   first,
			LastName:    last,
			CompanySize: lead.CompanySize,
		})

		candidates = append(candidates, model.EmailCandidate{
			Email:      addr,
			Confidence: confidence,
			Pattern:    string(w.Pattern),
			Reasoning:  reasoning,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Confidence > candidates[j].Confidence
	})

	return truncate(dedupe(candidates), g.maxCandidates), nil
}

// dedupe keeps the first occurrence of each address.
func dedupe(candidates []model.EmailCandidate) []model.EmailCandidate {
	seen := make(map[string]struct{}, len(candidates))
	out := candidates[:0]
	for _, c := range candidates {
		if _, ok := seen[c.Email]; ok {
			continue
		}
		seen[c.Email] = struct{}{}
		out = append(out, c)
	}
	return out
}

func truncate(candidates []model.EmailCandidate, n int) []model.EmailCandidate {
	if len(candidates) > n {
		return candidates[:n]
	}
	return candidates
}
