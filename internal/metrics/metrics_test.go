package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordRequest(t *testing.T) {
	before := testutil.ToFloat64(requestsTotal.WithLabelValues("POST", "/v1/analyze", "200"))
	RecordRequest("POST", "/v1/analyze", 200, 42*time.Millisecond)
	after := testutil.ToFloat64(requestsTotal.WithLabelValues("POST", "/v1/analyze", "200"))
	if after-before != 1 {
		t.Fatalf("expected request counter to grow by 1, got %v -> %v", before, after)
	}
}

func TestRecordStageAndLLMCall(t *testing.T) {
	RecordStage("competitors", OutcomeFallback)
	if got := testutil.ToFloat64(stageTotal.WithLabelValues("competitors", OutcomeFallback)); got < 1 {
		t.Fatalf("expected competitors fallback to be counted, got %v", got)
	}

	RecordLLMCall("openai", "gpt-test", "analysis", false, time.Second)
	if got := testutil.ToFloat64(llmCalls.WithLabelValues("openai", "gpt-test", "analysis", "false")); got < 1 {
		t.Fatalf("expected failed llm call to be counted, got %v", got)
	}
}

func TestRecordRetentionIgnoresNonPositive(t *testing.T) {
	before := testutil.ToFloat64(retentionAnalysesDeleted)
	RecordRetentionAnalyses(0)
	RecordRetentionAnalyses(-3)
	RecordRetentionAnalyses(4)
	if got := testutil.ToFloat64(retentionAnalysesDeleted) - before; got != 4 {
		t.Fatalf("expected 4 deletions recorded, got %v", got)
	}
}

func TestHandlerExportsMetrics(t *testing.T) {
	RecordCrawl("rod", true, 2*time.Second)
	RecordArchive(true)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	out := string(body)

	for _, want := range []string{
		`geolens_crawls_total{engine="rod",success="true"}`,
		`geolens_archive_writes_total{success="true"}`,
		"geolens_crawl_duration_seconds_bucket",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in export, got:\n%s", want, out)
		}
	}
}
