package http

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geolens/internal/config"
	"geolens/internal/model"
	"geolens/internal/services"
	"geolens/internal/store"
	"geolens/internal/urlutil"
)

var fixedTime = time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

type fakeService struct {
	mu         sync.Mutex
	requestIDs []string
	lastScore  int
	lastType   string
}

func (f *fakeService) record(ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requestIDs = append(f.requestIDs, services.RequestID(ctx))
}

func (f *fakeService) RunFullAnalysis(ctx context.Context, rawURL string) (*model.FullAnalysis, error) {
	f.record(ctx)
	u, err := urlutil.Normalize(rawURL)
	if err != nil {
		return nil, err
	}
	return &model.FullAnalysis{
		Analysis:        model.AnalysisResult{GeoScore: 77, Grade: "B-", BusinessType: "Technology"},
		Competitors:     []model.Competitor{},
		Recommendations: []model.Recommendation{},
		Metadata: model.Metadata{
			ID:            uuid.NewString(),
			AnalyzedAt:    fixedTime,
			NormalizedURL: u.Normalized,
			Domain:        u.Domain,
		},
	}, nil
}

func (f *fakeService) ValidateURL(rawURL string) (urlutil.NormalizedURL, error) {
	return urlutil.Normalize(rawURL)
}

func (f *fakeService) RunRecommendationsOnly(ctx context.Context, rawURL string, currentScore int) ([]model.Recommendation, error) {
	f.record(ctx)
	if _, err := urlutil.Normalize(rawURL); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.lastScore = currentScore
	f.mu.Unlock()
	return []model.Recommendation{{Title: "Add FAQ schema", Priority: "High", Category: "Technical"}}, nil
}

func (f *fakeService) FindCompetitors(ctx context.Context, rawURL, businessType string) (*model.CompetitorReport, error) {
	f.record(ctx)
	if _, err := urlutil.Normalize(rawURL); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.lastType = businessType
	f.mu.Unlock()
	return &model.CompetitorReport{
		Competitors:  []model.Competitor{{Name: "OpenTable", GeoScore: 85}},
		Total:        1,
		BusinessType: businessType,
		Industry:     "Food & Beverage",
	}, nil
}

func (f *fakeService) Wait() {}

type fakeHistory struct {
	analyses map[uuid.UUID]*model.FullAnalysis
	pingErr  error
	domain   string
	limit    int
}

func (f *fakeHistory) GetAnalysis(_ context.Context, id uuid.UUID) (*model.FullAnalysis, error) {
	fa, ok := f.analyses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return fa, nil
}

func (f *fakeHistory) ListRecentAnalyses(_ context.Context, domain string, limit int) ([]store.AnalysisSummary, error) {
	f.domain, f.limit = domain, limit
	out := []store.AnalysisSummary{}
	for id, fa := range f.analyses {
		out = append(out, store.AnalysisSummary{ID: id, Domain: fa.Metadata.Domain, GeoScore: fa.Analysis.GeoScore})
	}
	return out, nil
}

func (f *fakeHistory) Ping(context.Context) error { return f.pingErr }

func newTestServer(t *testing.T, history History) (*Server, *fakeService) {
	t.Helper()
	cfg := config.Default()
	cfg.Redis.URL = ""
	svc := &fakeService{}
	return NewServer(cfg, svc, history, true, nil), svc
}

func doJSON(t *testing.T, s *Server, method, path, body string) (*http.Response, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]interface{}
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp, out
}

func TestAnalyze_Success(t *testing.T) {
	s, _ := newTestServer(t, nil)

	resp, body := doJSON(t, s, http.MethodPost, "/v1/analyze", `{"url":"example.com"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "2026-03-04T05:06:07Z", body["analyzedAt"])

	data := body["data"].(map[string]interface{})
	analysis := data["analysis"].(map[string]interface{})
	assert.Equal(t, float64(77), analysis["geoScore"])
	meta := data["metadata"].(map[string]interface{})
	assert.Equal(t, "https://example.com", meta["normalizedUrl"])
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))
}

func TestAnalyze_PropagatesRequestID(t *testing.T) {
	s, svc := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/analyze", strings.NewReader(`{"url":"example.com"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", "req-123")
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, "req-123", resp.Header.Get("X-Request-Id"))
	assert.Equal(t, []string{"req-123"}, svc.requestIDs)
}

func TestAnalyze_InvalidURL(t *testing.T) {
	s, _ := newTestServer(t, nil)

	resp, body := doJSON(t, s, http.MethodPost, "/v1/analyze", `{"url":"not a domain!"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "INVALID_URL", body["code"])
}

func TestAnalyze_MissingURL(t *testing.T) {
	s, _ := newTestServer(t, nil)

	resp, body := doJSON(t, s, http.MethodPost, "/v1/analyze", `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "BAD_REQUEST", body["code"])

	details := body["details"].([]interface{})
	require.Len(t, details, 1)
	assert.Equal(t, "url", details[0].(map[string]interface{})["field"])
	assert.Equal(t, "required", details[0].(map[string]interface{})["rule"])
}

func TestAnalyze_MalformedJSON(t *testing.T) {
	s, _ := newTestServer(t, nil)

	resp, body := doJSON(t, s, http.MethodPost, "/v1/analyze", `{"url":`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "BAD_REQUEST_INVALID_JSON", body["code"])
}

func TestValidate(t *testing.T) {
	s, _ := newTestServer(t, nil)

	resp, body := doJSON(t, s, http.MethodPost, "/v1/validate", `{"url":"//blog.acme.example/x"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, true, data["valid"])
	assert.Equal(t, "https://blog.acme.example/x", data["normalizedUrl"])
	assert.Equal(t, "blog", data["subdomain"])

	resp, body = doJSON(t, s, http.MethodPost, "/v1/validate", `{"url":"bad domain"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_URL", body["code"])
	details := body["details"].(map[string]interface{})
	assert.Equal(t, false, details["valid"])
}

func TestRecommendations(t *testing.T) {
	s, svc := newTestServer(t, nil)

	resp, body := doJSON(t, s, http.MethodPost, "/v1/recommendations", `{"url":"example.com","currentScore":64}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["total"])
	assert.Equal(t, 64, svc.lastScore)

	resp, body = doJSON(t, s, http.MethodPost, "/v1/recommendations", `{"url":"example.com","currentScore":150}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "BAD_REQUEST", body["code"])
}

func TestRecommendations_ZeroScoreIsAccepted(t *testing.T) {
	s, svc := newTestServer(t, nil)
	svc.lastScore = -1

	resp, _ := doJSON(t, s, http.MethodPost, "/v1/recommendations", `{"url":"example.com","currentScore":0}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, svc.lastScore)

	resp, body := doJSON(t, s, http.MethodPost, "/v1/recommendations", `{"url":"example.com"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	details := body["details"].([]interface{})
	assert.Equal(t, "currentScore", details[0].(map[string]interface{})["field"])
}

func TestCompetitors(t *testing.T) {
	s, svc := newTestServer(t, nil)

	resp, body := doJSON(t, s, http.MethodPost, "/v1/competitors", `{"url":"bistro.example","businessType":"Restaurant"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["total"])
	assert.Equal(t, "Food & Beverage", data["industry"])
	assert.Equal(t, "Restaurant", svc.lastType)
}

func TestHistoryRoutes_DisabledWithoutStore(t *testing.T) {
	s, _ := newTestServer(t, nil)

	resp, _ := doJSON(t, s, http.MethodGet, "/v1/analyses", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHistoryRoutes(t *testing.T) {
	id := uuid.New()
	history := &fakeHistory{analyses: map[uuid.UUID]*model.FullAnalysis{
		id: {
			Analysis: model.AnalysisResult{GeoScore: 55},
			Metadata: model.Metadata{ID: id.String(), Domain: "acme.example", AnalyzedAt: fixedTime},
		},
	}}
	s, _ := newTestServer(t, history)

	resp, body := doJSON(t, s, http.MethodGet, "/v1/analyses/"+id.String(), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "2026-03-04T05:06:07Z", body["analyzedAt"])

	resp, body = doJSON(t, s, http.MethodGet, "/v1/analyses/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", body["code"])

	resp, body = doJSON(t, s, http.MethodGet, "/v1/analyses/nope", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "BAD_REQUEST_INVALID_ID", body["code"])

	resp, body = doJSON(t, s, http.MethodGet, "/v1/analyses?domain=acme.example&limit=5", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["data"].(map[string]interface{})["total"])
	assert.Equal(t, "acme.example", history.domain)
	assert.Equal(t, 5, history.limit)

	resp, _ = doJSON(t, s, http.MethodGet, "/v1/analyses?limit=500", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t, nil)

	resp, body := doJSON(t, s, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, true, body["llm"])

	resp, body = doJSON(t, s, http.MethodGet, "/healthz?deep=true", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "disabled", body["db"])
	assert.Equal(t, "disabled", body["redis"])
}

func TestHealthz_DeepReportsStoreFailure(t *testing.T) {
	s, _ := newTestServer(t, &fakeHistory{pingErr: errors.New("connection refused")})

	_, body := doJSON(t, s, http.MethodGet, "/healthz?deep=true", "")
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "error", body["db"])
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t, nil)
	doJSON(t, s, http.MethodGet, "/healthz", "")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "geolens_http_requests_total")
}

func TestCORSPreflight(t *testing.T) {
	s, _ := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/v1/analyze", nil)
	req.Header.Set("Origin", "https://dashboard.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
