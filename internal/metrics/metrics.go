package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Stage outcomes recorded by RecordStage.
const (
	OutcomeOK       = "ok"
	OutcomeFallback = "fallback"
	OutcomeSkipped  = "skipped"
)

var registry = prometheus.NewRegistry()

var (
	requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geolens_http_requests_total",
		Help: "HTTP requests by method, route and status.",
	}, []string{"method", "path", "status"})

	requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "geolens_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route.",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
	}, []string{"method", "path"})

	llmCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geolens_llm_calls_total",
		Help: "Completion calls by provider, model, prompt kind and success.",
	}, []string{"provider", "model", "kind", "success"})

	llmDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "geolens_llm_call_duration_seconds",
		Help:    "Completion call latency by provider and prompt kind.",
		Buckets: prometheus.ExponentialBuckets(0.25, 2, 9),
	}, []string{"provider", "kind"})

	stageTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geolens_pipeline_stage_total",
		Help: "Pipeline stage completions by stage and outcome (ok, fallback, skipped).",
	}, []string{"stage", "outcome"})

	crawlsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geolens_crawls_total",
		Help: "Page crawls by engine and success.",
	}, []string{"engine", "success"})

	crawlDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "geolens_crawl_duration_seconds",
		Help:    "Page crawl latency by engine.",
		Buckets: prometheus.ExponentialBuckets(0.25, 2, 8),
	}, []string{"engine"})

	retentionAnalysesDeleted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geolens_retention_analyses_deleted_total",
		Help: "Stored analyses deleted by TTL cleanup.",
	})

	archiveWrites = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geolens_archive_writes_total",
		Help: "Analysis archive uploads by success.",
	}, []string{"success"})
)

func init() {
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		requestsTotal,
		requestDuration,
		llmCalls,
		llmDuration,
		stageTotal,
		crawlsTotal,
		crawlDuration,
		retentionAnalysesDeleted,
		archiveWrites,
	)
}

// Registry exposes the process registry, mainly for tests.
func Registry() *prometheus.Registry {
	return registry
}

// Handler serves the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// RecordRequest increments the request counter and observes latency.
func RecordRequest(method, path string, status int, latency time.Duration) {
	requestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	requestDuration.WithLabelValues(method, path).Observe(latency.Seconds())
}

// RecordLLMCall records one completion round trip.
func RecordLLMCall(provider, model, kind string, success bool, latency time.Duration) {
	llmCalls.WithLabelValues(provider, model, kind, strconv.FormatBool(success)).Inc()
	llmDuration.WithLabelValues(provider, kind).Observe(latency.Seconds())
}

// RecordStage counts how a pipeline stage resolved.
func RecordStage(stage, outcome string) {
	stageTotal.WithLabelValues(stage, outcome).Inc()
}

// RecordCrawl records one page crawl.
func RecordCrawl(engine string, success bool, latency time.Duration) {
	crawlsTotal.WithLabelValues(engine, strconv.FormatBool(success)).Inc()
	crawlDuration.WithLabelValues(engine).Observe(latency.Seconds())
}

// RecordRetentionAnalyses adds to the count of analyses removed by TTL.
func RecordRetentionAnalyses(deleted int64) {
	if deleted <= 0 {
		return
	}
	retentionAnalysesDeleted.Add(float64(deleted))
}

// RecordArchive counts an archive upload attempt.
func RecordArchive(success bool) {
	archiveWrites.WithLabelValues(strconv.FormatBool(success)).Inc()
}
