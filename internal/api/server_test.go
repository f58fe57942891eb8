package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/emailgen/internal/config"
	"github.com/sells-group/emailgen/internal/enrich"
	"github.com/sells-group/emailgen/internal/model"
	"github.com/sells-group/emailgen/internal/store"
)

func testServerConfig() config.ServerConfig {
	return config.ServerConfig{
		Port:         8000,
		MaxBatchSize: 5,
		CORSOrigins:  []string{"*"},
		TrackRuns:    true,
	}
}

func newTestServer(t *testing.T, st store.Store, cfg config.ServerConfig) http.Handler {
	t.Helper()
	s := New(enrich.New(nil, 4), st, cfg)
	s.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return s.Handler()
}

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	h := newTestServer(t, nil, testServerConfig())

	rec := do(t, h, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	body := decode(t, rec)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "All systems operational", body["message"])
	assert.Equal(t, Version, body["version"])
	assert.Equal(t, "2024-05-01T12:00:00Z", body["timestamp"])
}

func TestRoot(t *testing.T) {
	h := newTestServer(t, nil, testServerConfig())

	body := decode(t, do(t, h, http.MethodGet, "/", ""))
	endpoints, ok := body["endpoints"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "/generate-email", endpoints["single_email"])
	assert.Equal(t, "/enrich-leads-batch", endpoints["bulk_emails"])
}

func TestStats(t *testing.T) {
	h := newTestServer(t, nil, testServerConfig())

	body := decode(t, do(t, h, http.MethodGet, "/stats", ""))
	assert.Equal(t, "Email Pattern Generator", body["api_name"])
	assert.Contains(t, body["supported_patterns"], "firstname.lastname@domain.com")
	assert.Len(t, body["supported_patterns"], 8)
	assert.Contains(t, body["supported_industries"], "financial services")
	assert.Contains(t, body["archetypes"], "traditional")
	assert.EqualValues(t, 5, body["max_batch_size"])
}

func TestGenerateEmail(t *testing.T) {
	h := newTestServer(t, nil, testServerConfig())

	rec := do(t, h, http.MethodPost, "/generate-email",
		`{"firstName":"Bernard","lastName":"Vrijburg","companyDomain":"optimassolutions.com","companyIndustry":"Technology","companySize":"51-200","jobTitle":"Solutions Manager"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "bernard.vrijburg@optimassolutions.com", body["generated_email"])
	assert.Equal(t, "firstname.lastname", body["pattern_used"])
	assert.InDelta(t, 0.738, body["confidence_score"], 0.0011)
	assert.Len(t, body["all_candidates"], 8)

	lead, ok := body["lead_data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Solutions Manager", lead["jobTitle"])
	assert.Equal(t, "bernard.vrijburg@optimassolutions.com", lead["generatedEmail"])
}

func TestGenerateEmail_LeadDataKeepsKeyOrder(t *testing.T) {
	h := newTestServer(t, nil, testServerConfig())

	rec := do(t, h, http.MethodPost, "/generate-email", `{"zeta":1,"firstName":"Ann","companyDomain":"acme.com","alpha":true}`)
	require.Equal(t, http.StatusOK, rec.Code)

	raw := rec.Body.String()
	assert.Less(t, strings.Index(raw, `"zeta"`), strings.Index(raw, `"alpha"`))
	assert.Less(t, strings.Index(raw, `"alpha"`), strings.Index(raw, `"generatedEmail"`))
}

func TestGenerateEmail_NoCandidate(t *testing.T) {
	h := newTestServer(t, nil, testServerConfig())

	rec := do(t, h, http.MethodPost, "/generate-email", `{"firstName":"","companyDomain":"acme.com"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Nil(t, body["generated_email"])
	assert.Nil(t, body["pattern_used"])
	assert.EqualValues(t, 0, body["confidence_score"])
	assert.Equal(t, []any{}, body["all_candidates"])
}

func TestGenerateEmail_DecodeFailureIs500(t *testing.T) {
	h := newTestServer(t, nil, testServerConfig())

	rec := do(t, h, http.MethodPost, "/generate-email", `{"firstName":"Ann","companyDomain":"acme.com","companySize":50}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.True(t, strings.HasPrefix(decode(t, rec)["detail"].(string), "Failed to generate email: "))
}

func TestGenerateEmail_MalformedJSON(t *testing.T) {
	h := newTestServer(t, nil, testServerConfig())

	for _, body := range []string{`{"firstName":`, `[1,2]`, `"text"`} {
		rec := do(t, h, http.MethodPost, "/generate-email", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Contains(t, decode(t, rec)["detail"], "invalid request body")
	}
}

func TestEnrichBatch(t *testing.T) {
	h := newTestServer(t, nil, testServerConfig())

	rec := do(t, h, http.MethodPost, "/enrich-leads-batch", `[
		{"firstName":"Ann","lastName":"Lee","companyDomain":"acme.com"},
		{"firstName":"Bob","companyDomain":"acme.com","companySize":7},
		{"lastName":"Nobody","companyDomain":"acme.com"}
	]`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.EqualValues(t, 3, body["total_processed"])
	assert.EqualValues(t, 1, body["successful_generations"])
	assert.EqualValues(t, 2, body["failed_generations"])
	assert.Equal(t, "33.3%", body["success_rate"])
	assert.NotContains(t, body, "run_id")

	leads, ok := body["enriched_leads"].([]any)
	require.True(t, ok)
	require.Len(t, leads, 3)
	assert.Equal(t, "ann.lee@acme.com", leads[0].(map[string]any)["generatedEmail"])
	assert.True(t, strings.HasPrefix(leads[1].(map[string]any)["emailReasoning"].(string), "Error: "))
	assert.Equal(t, model.NoCandidateReasoning+": missing first name", leads[2].(map[string]any)["emailReasoning"])
}

func TestEnrichBatch_BulkAlias(t *testing.T) {
	h := newTestServer(t, nil, testServerConfig())

	rec := do(t, h, http.MethodPost, "/generate-emails-bulk", `[{"firstName":"Ann","companyDomain":"acme.com"}]`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode(t, rec)["successful_generations"])
}

func TestEnrichBatch_Empty(t *testing.T) {
	h := newTestServer(t, nil, testServerConfig())

	body := decode(t, do(t, h, http.MethodPost, "/enrich-leads-batch", `[]`))
	assert.EqualValues(t, 0, body["total_processed"])
	assert.Equal(t, "0%", body["success_rate"])
	assert.Equal(t, []any{}, body["enriched_leads"])
}

func TestEnrichBatch_TooLarge(t *testing.T) {
	h := newTestServer(t, nil, testServerConfig())

	leads := make([]string, 6)
	for i := range leads {
		leads[i] = fmt.Sprintf(`{"firstName":"U%d","companyDomain":"acme.com"}`, i)
	}
	rec := do(t, h, http.MethodPost, "/enrich-leads-batch", "["+strings.Join(leads, ",")+"]")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Maximum 5 leads allowed per request. Split into smaller batches.", decode(t, rec)["detail"])
}

func TestEnrichBatch_NotAnArray(t *testing.T) {
	h := newTestServer(t, nil, testServerConfig())

	rec := do(t, h, http.MethodPost, "/enrich-leads-batch", `{"firstName":"Ann"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEnrichBatch_TracksRun(t *testing.T) {
	st := newTestStore(t)
	h := newTestServer(t, st, testServerConfig())

	rec := do(t, h, http.MethodPost, "/enrich-leads-batch", `[{"firstName":"Ann","companyDomain":"acme.com"},{"companyDomain":"acme.com"}]`)
	require.Equal(t, http.StatusOK, rec.Code)

	runID, ok := decode(t, rec)["run_id"].(string)
	require.True(t, ok)
	require.NotEmpty(t, runID)

	rec = do(t, h, http.MethodGet, "/runs/"+runID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, runID, body["task_id"])
	assert.Equal(t, "completed", body["status"])
	assert.Equal(t, "api", body["source"])
	assert.EqualValues(t, 2, body["total_leads"])
	assert.EqualValues(t, 1, body["successful_generations"])
	assert.EqualValues(t, 100, body["progress_percentage"])
	assert.EqualValues(t, 50, body["success_rate"])
}

func TestEnrichBatch_TrackingDisabled(t *testing.T) {
	cfg := testServerConfig()
	cfg.TrackRuns = false
	h := newTestServer(t, newTestStore(t), cfg)

	body := decode(t, do(t, h, http.MethodPost, "/enrich-leads-batch", `[{"firstName":"Ann","companyDomain":"acme.com"}]`))
	assert.NotContains(t, body, "run_id")
}

func TestGetRun_NotFound(t *testing.T) {
	h := newTestServer(t, newTestStore(t), testServerConfig())

	rec := do(t, h, http.MethodGet, "/runs/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "run missing not found", decode(t, rec)["detail"])
}

func TestGetRun_NoStore(t *testing.T) {
	h := newTestServer(t, nil, testServerConfig())

	rec := do(t, h, http.MethodGet, "/runs/anything", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRateLimit(t *testing.T) {
	cfg := testServerConfig()
	cfg.RequestsPerSecond = 0.001
	cfg.Burst = 2
	h := newTestServer(t, nil, cfg)

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", "").Code)

	rec := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate limit exceeded", decode(t, rec)["detail"])

	// A different client has its own bucket.
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "203.0.113.9:4000"
	other := httptest.NewRecorder()
	h.ServeHTTP(other, req)
	assert.Equal(t, http.StatusOK, other.Code)
}

func TestCORS(t *testing.T) {
	h := newTestServer(t, nil, testServerConfig())

	req := httptest.NewRequest(http.MethodOptions, "/enrich-leads-batch", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestID(t *testing.T) {
	h := newTestServer(t, nil, testServerConfig())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUnknownRoute(t *testing.T) {
	h := newTestServer(t, nil, testServerConfig())
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/nope", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, http.MethodGet, "/generate-email", "").Code)
}
