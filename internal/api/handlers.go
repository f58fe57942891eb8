package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sells-group/emailgen/internal/enrich"
	"github.com/sells-group/emailgen/internal/model"
	"github.com/sells-group/emailgen/internal/pattern"
	"github.com/sells-group/emailgen/internal/store"
)

type healthResponse struct {
	Status    string            `json:"status"`
	Message   string            `json:"message"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints,omitempty"`
}

type generateResponse struct {
	Success         bool                   `json:"success"`
	LeadData        model.EnrichedLead     `json:"lead_data"`
	GeneratedEmail  *string                `json:"generated_email"`
	ConfidenceScore float64                `json:"confidence_score"`
	PatternUsed     *string                `json:"pattern_used"`
	Reasoning       string                 `json:"reasoning"`
	AllCandidates   []model.EmailCandidate `json:"all_candidates"`
}

type batchResponse struct {
	Success bool `json:"success"`
	enrich.Summary
	EnrichedLeads []model.EnrichedLead `json:"enriched_leads"`
	RunID         string               `json:"run_id,omitempty"`
}

type statsResponse struct {
	APIName             string   `json:"api_name"`
	Version             string   `json:"version"`
	Status              string   `json:"status"`
	SupportedPatterns   []string `json:"supported_patterns"`
	SupportedIndustries []string `json:"supported_industries"`
	Archetypes          []string `json:"archetypes"`
	MaxBatchSize        int      `json:"max_batch_size"`
}

type runResponse struct {
	model.Run
	ProgressPercentage float64 `json:"progress_percentage"`
	SuccessRate        float64 `json:"success_rate"`
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "healthy",
		Message:   "Email Pattern Generator API is running",
		Timestamp: s.now().UTC(),
		Version:   Version,
		Endpoints: map[string]string{
			"health":       "/health",
			"single_email": "/generate-email",
			"bulk_emails":  "/enrich-leads-batch",
			"stats":        "/stats",
			"runs":         "/runs/{id}",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "healthy",
		Message:   "All systems operational",
		Timestamp: s.now().UTC(),
		Version:   Version,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	patterns := make([]string, len(pattern.IDs))
	for i, id := range pattern.IDs {
		patterns[i] = string(id) + "@domain.com"
	}
	archetypes := make([]string, len(pattern.Archetypes))
	for i, a := range pattern.Archetypes {
		archetypes[i] = string(a)
	}

	writeJSON(w, http.StatusOK, statsResponse{
		APIName:             "Email Pattern Generator",
		Version:             Version,
		Status:              "operational",
		SupportedPatterns:   patterns,
		SupportedIndustries: s.enricher.Generator().Catalog().Industries(),
		Archetypes:          archetypes,
		MaxBatchSize:        s.cfg.MaxBatchSize,
	})
}

func (s *Server) handleGenerateEmail(w http.ResponseWriter, r *http.Request) {
	var rec model.Record
	if !decodeBody(w, r, &rec) {
		return
	}

	zap.L().Info("api: generating email", zap.String("first_name", rec.String(model.KeyFirstName)))

	lead, err := s.enricher.EnrichOne(rec)
	if err != nil {
		zap.L().Error("api: generate email failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to generate email: %v", err))
		return
	}

	resp := generateResponse{
		Success:         true,
		LeadData:        lead,
		ConfidenceScore: lead.EmailConfidence,
		Reasoning:       lead.EmailReasoning,
		AllCandidates:   lead.EmailCandidates,
	}
	if lead.GeneratedEmail != "" {
		resp.GeneratedEmail = &lead.GeneratedEmail
	}
	if lead.EmailPattern != "" {
		resp.PatternUsed = &lead.EmailPattern
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleEnrichBatch(w http.ResponseWriter, r *http.Request) {
	var recs []model.Record
	if !decodeBody(w, r, &recs) {
		return
	}

	if len(recs) > s.cfg.MaxBatchSize {
		writeError(w, http.StatusBadRequest, fmt.Sprintf(
			"Maximum %d leads allowed per request. Split into smaller batches.", s.cfg.MaxBatchSize))
		return
	}

	ctx := r.Context()
	zap.L().Info("api: processing batch", zap.Int("leads", len(recs)))

	runID := s.startRun(ctx, len(recs))
	leads := s.enricher.EnrichMany(ctx, recs)
	summary := enrich.Summarize(leads)
	s.finishRun(ctx, runID, summary)

	writeJSON(w, http.StatusOK, batchResponse{
		Success:       true,
		Summary:       summary,
		EnrichedLeads: leads,
		RunID:         runID,
	})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotFound, "run tracking is disabled")
		return
	}

	id := chi.URLParam(r, "id")
	run, err := s.store.GetRun(r.Context(), id)
	if errors.Is(err, store.ErrRunNotFound) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("run %s not found", id))
		return
	}
	if err != nil {
		zap.L().Error("api: get run", zap.String("run_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load run")
		return
	}

	writeJSON(w, http.StatusOK, runResponse{
		Run:                *run,
		ProgressPercentage: run.ProgressPercentage(),
		SuccessRate:        run.SuccessRate(),
	})
}

// startRun records an API batch when tracking is on. Tracking failures are
// logged and never fail the request.
func (s *Server) startRun(ctx context.Context, total int) string {
	if s.store == nil || !s.cfg.TrackRuns {
		return ""
	}
	run, err := s.store.CreateRun(ctx, model.RunInput{Source: model.RunSourceAPI, TotalLeads: total})
	if err != nil {
		zap.L().Warn("api: create run", zap.Error(err))
		return ""
	}
	if err := s.store.UpdateRunStatus(ctx, run.ID, model.RunStatusProcessing); err != nil {
		zap.L().Warn("api: update run status", zap.String("run_id", run.ID), zap.Error(err))
	}
	return run.ID
}

func (s *Server) finishRun(ctx context.Context, runID string, summary enrich.Summary) {
	if runID == "" {
		return
	}
	if err := s.store.CompleteRun(ctx, runID, summary.Progress()); err != nil {
		zap.L().Warn("api: complete run", zap.String("run_id", runID), zap.Error(err))
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}
