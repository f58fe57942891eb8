// Package enrich turns open lead records into enriched records carrying the
// best generated address and the full ranked candidate list.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/emailgen/internal/generator"
	"github.com/sells-group/emailgen/internal/model"
)

// DefaultConcurrency is the per-batch fan-out used when none is configured.
const DefaultConcurrency = 8

// Enricher merges generated candidates into lead records.
type Enricher struct {
	gen         *generator.Generator
	concurrency int
}

// New creates an Enricher. A non-positive concurrency uses DefaultConcurrency.
func New(gen *generator.Generator, concurrency int) *Enricher {
	if gen == nil {
		gen = generator.New(nil, nil, 0)
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Enricher{gen: gen, concurrency: concurrency}
}

// Generator returns the underlying candidate generator.
func (e *Enricher) Generator() *generator.Generator {
	return e.gen
}

// EnrichOne enriches a single record. Unusable input yields a no-candidate
// lead and a nil error; a record that cannot be decoded returns an error.
// The enriched lead owns a copy of rec; later changes to rec do not reach it.
func (e *Enricher) EnrichOne(rec model.Record) (model.EnrichedLead, error) {
	rec = rec.Clone()
	lead, err := model.LeadFromRecord(rec)
	if err != nil {
		return model.EnrichedLead{}, err
	}

	candidates, err := e.gen.Generate(lead)
	switch {
	case errors.Is(err, generator.ErrMissingFirstName), errors.Is(err, generator.ErrInvalidDomain):
		return model.NoCandidate(rec, model.NoCandidateReasoning+": "+unusableReason(err)), nil
	case err != nil:
		return model.EnrichedLead{}, eris.Wrap(err, "enrich: generate")
	}

	if len(candidates) == 0 {
		return model.NoCandidate(rec, model.NoCandidateReasoning), nil
	}

	rounded := make([]model.EmailCandidate, len(candidates))
	for i, c := range candidates {
		c.Confidence = round3(c.Confidence)
		rounded[i] = c
	}

	top := rounded[0]
	return model.EnrichedLead{
		Source:          rec,
		GeneratedEmail:  top.Email,
		EmailConfidence: top.Confidence,
		EmailPattern:    top.Pattern,
		EmailReasoning:  top.Reasoning,
		EmailCandidates: rounded,
	}, nil
}

// EnrichMany enriches every record and returns exactly one lead per record,
// in input order. Records that fail are returned via Failed.
func (e *Enricher) EnrichMany(ctx context.Context, recs []model.Record) []model.EnrichedLead {
	results := MapIsolated(ctx, recs, e.concurrency, func(_ context.Context, rec model.Record) (model.EnrichedLead, error) {
		return e.EnrichOne(rec)
	})

	out := make([]model.EnrichedLead, len(recs))
	failed := 0
	for i, res := range results {
		if res.OK() {
			out[i] = res.Value
			continue
		}
		failed++
		zap.L().Error("enrich: lead failed",
			zap.Int("index", i),
			zap.Error(res.Err),
		)
		out[i] = Failed(recs[i], res.Err)
	}

	zap.L().Info("enrich: batch complete",
		zap.Int("leads", len(recs)),
		zap.Int("failed", failed),
	)

	return out
}

// Failed returns the no-candidate lead for a record whose processing failed.
func Failed(rec model.Record, err error) model.EnrichedLead {
	return model.NoCandidate(rec.Clone(), fmt.Sprintf("Error: %v", err))
}

// Summary counts the outcome of a batch.
type Summary struct {
	Total       int    `json:"total_processed"`
	Successful  int    `json:"successful_generations"`
	Failed      int    `json:"failed_generations"`
	SuccessRate string `json:"success_rate"`
}

// Summarize counts leads with and without a generated address.
func Summarize(leads []model.EnrichedLead) Summary {
	s := Summary{Total: len(leads)}
	for _, l := range leads {
		if l.HasEmail() {
			s.Successful++
		}
	}
	s.Failed = s.Total - s.Successful

	if s.Total == 0 {
		s.SuccessRate = "0%"
		return s
	}
	s.SuccessRate = fmt.Sprintf("%.1f%%", float64(s.Successful)/float64(s.Total)*100)
	return s
}

// Progress converts the summary into run counters.
func (s Summary) Progress() model.RunProgress {
	return model.RunProgress{Processed: s.Total, Successful: s.Successful, Failed: s.Failed}
}

func unusableReason(err error) string {
	if errors.Is(err, generator.ErrMissingFirstName) {
		return "missing first name"
	}
	return "invalid domain"
}

// round3 rounds the stored binary value to three decimals, so 0.6775 (held
// just below the half step) becomes 0.677.
func round3(v float64) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 3, 64), 64)
	if err != nil {
		return v
	}
	return r
}
