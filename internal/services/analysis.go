package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"geolens/internal/config"
	"geolens/internal/llm"
	"geolens/internal/metrics"
	"geolens/internal/model"
	"geolens/internal/prompts"
	"geolens/internal/taxonomy"
	"geolens/internal/urlutil"
)

// Crawler produces a snapshot for a URL. Implementations never fail; a
// failed crawl is reported through CrawlSnapshot.Error.
type Crawler interface {
	Crawl(ctx context.Context, target urlutil.NormalizedURL) model.CrawlSnapshot
}

// AnalysisSink receives every completed full analysis, for history or
// archiving.
type AnalysisSink interface {
	SaveAnalysis(ctx context.Context, fa *model.FullAnalysis) error
}

// AnalysisService exposes the analysis pipeline. Only URL validation
// errors are ever returned; every later failure is absorbed into fallback
// data.
type AnalysisService interface {
	RunFullAnalysis(ctx context.Context, rawURL string) (*model.FullAnalysis, error)
	ValidateURL(rawURL string) (urlutil.NormalizedURL, error)
	RunRecommendationsOnly(ctx context.Context, rawURL string, currentScore int) ([]model.Recommendation, error)
	FindCompetitors(ctx context.Context, rawURL, businessType string) (*model.CompetitorReport, error)
	// Wait blocks until analyses handed to the sinks so far are persisted.
	Wait()
}

var (
	errNoCompetitors     = errors.New("model returned no competitors")
	errNoRecommendations = errors.New("model returned no recommendations")
	errCrawlSkipped      = errors.New("crawl skipped")
)

const sinkTimeout = 10 * time.Second

type analysisService struct {
	stages  config.LLMConfig
	crawler Crawler
	llm     llm.Client
	sinks   []AnalysisSink
	logger  *slog.Logger
	now     func() time.Time

	persisting sync.WaitGroup
}

// NewAnalysisService wires the pipeline. The client is shared by every
// request and must be safe for concurrent use.
func NewAnalysisService(cfg *config.Config, crawler Crawler, client llm.Client, logger *slog.Logger, sinks ...AnalysisSink) AnalysisService {
	if logger == nil {
		logger = slog.Default()
	}
	return &analysisService{
		stages:  cfg.LLM,
		crawler: crawler,
		llm:     client,
		sinks:   sinks,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *analysisService) ValidateURL(rawURL string) (urlutil.NormalizedURL, error) {
	return urlutil.Normalize(rawURL)
}

func (s *analysisService) RunFullAnalysis(ctx context.Context, rawURL string) (*model.FullAnalysis, error) {
	started := s.now()

	u, err := urlutil.Normalize(rawURL)
	if err != nil {
		return nil, err
	}
	logger := s.requestLogger(ctx, u)
	degraded := []string{}

	snap := s.crawler.Crawl(ctx, u)
	if snap.Failed() {
		logger.Warn("crawl failed, analyzing from url only", "stage", StageCrawl, "error", snap.Error)
		metrics.RecordStage(StageCrawl, metrics.OutcomeFallback)
		degraded = append(degraded, StageCrawl)
	} else {
		metrics.RecordStage(StageCrawl, metrics.OutcomeOK)
	}

	analysis, fellBack := s.analyze(ctx, logger, u, snap, nil)
	if fellBack {
		degraded = append(degraded, StageAnalysis)
	}

	competitors := []model.Competitor{}
	if u.IsInternal || analysis.BusinessType == "" {
		logger.Info("skipping competitor search", "stage", StageCompetitors, "internal", u.IsInternal)
		metrics.RecordStage(StageCompetitors, metrics.OutcomeSkipped)
	} else {
		competitors, fellBack = s.competitors(ctx, logger, u.Normalized, analysis.BusinessType, analysis.Industry)
		if fellBack {
			degraded = append(degraded, StageCompetitors)
		}
	}

	recs, fellBack := s.recommend(ctx, logger, u.Normalized, analysis)
	if fellBack {
		degraded = append(degraded, StageRecommendations)
	}

	finished := s.now()
	fa := &model.FullAnalysis{
		Analysis:        analysis,
		Competitors:     competitors,
		Recommendations: recs,
		Metadata: model.Metadata{
			ID:                  uuid.NewString(),
			StartedAt:           started.UTC(),
			AnalyzedAt:          finished.UTC(),
			DurationMs:          finished.Sub(started).Milliseconds(),
			OriginalURL:         u.Original,
			NormalizedURL:       u.Normalized,
			Domain:              u.Domain,
			IsInternal:          u.IsInternal,
			CrawlSucceeded:      !snap.Failed(),
			CompetitorCount:     len(competitors),
			RecommendationCount: len(recs),
			DegradedStages:      degraded,
		},
	}

	logger.Info("analysis completed",
		"analysis_id", fa.Metadata.ID,
		"geo_score", analysis.GeoScore,
		"grade", analysis.Grade,
		"degraded_stages", degraded,
		"duration_ms", fa.Metadata.DurationMs,
	)
	s.persist(ctx, logger, fa)
	return fa, nil
}

// RunRecommendationsOnly enters the pipeline at the analysis stage with no
// crawl, passing currentScore to the model as a hint.
func (s *analysisService) RunRecommendationsOnly(ctx context.Context, rawURL string, currentScore int) ([]model.Recommendation, error) {
	u, err := urlutil.Normalize(rawURL)
	if err != nil {
		return nil, err
	}
	logger := s.requestLogger(ctx, u)

	hint := clamp(currentScore, 0, 100)
	analysis, _ := s.analyze(ctx, logger, u, model.FailedSnapshot(u.Normalized, errCrawlSkipped), &hint)
	recs, _ := s.recommend(ctx, logger, u.Normalized, analysis)
	return recs, nil
}

// FindCompetitors runs the competitor stage on its own. An empty
// businessType is inferred from the hostname.
func (s *analysisService) FindCompetitors(ctx context.Context, rawURL, businessType string) (*model.CompetitorReport, error) {
	u, err := urlutil.Normalize(rawURL)
	if err != nil {
		return nil, err
	}
	logger := s.requestLogger(ctx, u)

	if businessType == "" {
		businessType = taxonomy.ClassifyDomain(u.Domain)
	}
	industry := taxonomy.IndustryFor(businessType)

	competitors := []model.Competitor{}
	if u.IsInternal {
		logger.Info("skipping competitor search", "stage", StageCompetitors, "internal", true)
		metrics.RecordStage(StageCompetitors, metrics.OutcomeSkipped)
	} else {
		competitors, _ = s.competitors(ctx, logger, u.Normalized, businessType, industry)
	}

	return &model.CompetitorReport{
		Competitors:  competitors,
		Total:        len(competitors),
		BusinessType: businessType,
		Industry:     industry,
	}, nil
}

func (s *analysisService) analyze(ctx context.Context, logger *slog.Logger, u urlutil.NormalizedURL, snap model.CrawlSnapshot, hint *int) (model.AnalysisResult, bool) {
	return attempt(ctx, logger, StageAnalysis,
		func(ctx context.Context) (model.AnalysisResult, error) {
			prompt, err := prompts.Build(prompts.KindAnalysis, prompts.AnalysisInput{URL: u, Snapshot: snap, ScoreHint: hint})
			if err != nil {
				return model.AnalysisResult{}, err
			}
			doc, err := s.completeJSON(ctx, prompts.KindAnalysis, prompt, s.stages.Analysis, llm.Object)
			if err != nil {
				return model.AnalysisResult{}, err
			}
			return validateAnalysis(doc, u, snap), nil
		},
		func(err error) model.AnalysisResult {
			var perr *llm.ParseError
			if errors.As(err, &perr) {
				return partialAnalysis(u, snap)
			}
			return domainAnalysis(u, hint)
		},
	)
}

func (s *analysisService) competitors(ctx context.Context, logger *slog.Logger, websiteURL, businessType, industry string) ([]model.Competitor, bool) {
	return attempt(ctx, logger, StageCompetitors,
		func(ctx context.Context) ([]model.Competitor, error) {
			prompt, err := prompts.Build(prompts.KindCompetitors, prompts.CompetitorsInput{
				URL:          websiteURL,
				BusinessType: businessType,
				Industry:     industry,
			})
			if err != nil {
				return nil, err
			}
			doc, err := s.completeJSON(ctx, prompts.KindCompetitors, prompt, s.stages.Competitors, llm.Array)
			if err != nil {
				return nil, err
			}
			out := validateCompetitors(doc, businessType)
			if len(out) == 0 {
				return nil, errNoCompetitors
			}
			return out, nil
		},
		func(error) []model.Competitor { return fallbackCompetitors(businessType) },
	)
}

func (s *analysisService) recommend(ctx context.Context, logger *slog.Logger, websiteURL string, analysis model.AnalysisResult) ([]model.Recommendation, bool) {
	return attempt(ctx, logger, StageRecommendations,
		func(ctx context.Context) ([]model.Recommendation, error) {
			prompt, err := prompts.Build(prompts.KindRecommendations, prompts.RecommendationsInput{URL: websiteURL, Analysis: analysis})
			if err != nil {
				return nil, err
			}
			doc, err := s.completeJSON(ctx, prompts.KindRecommendations, prompt, s.stages.Recommendations, llm.Array)
			if err != nil {
				return nil, err
			}
			out := validateRecommendations(doc)
			if len(out) == 0 {
				return nil, errNoRecommendations
			}
			return out, nil
		},
		func(error) []model.Recommendation { return fallbackRecommendations(analysis) },
	)
}

func (s *analysisService) completeJSON(ctx context.Context, kind prompts.Kind, prompt string, st config.StageConfig, want llm.Container) (gjson.Result, error) {
	raw, err := s.llm.Complete(ctx, llm.Completion{
		Kind:        string(kind),
		Messages:    []llm.Message{llm.System(prompts.SystemRole(kind)), llm.User(prompt)},
		Temperature: st.Temperature,
		MaxTokens:   st.MaxTokens,
	})
	if err != nil {
		return gjson.Result{}, err
	}
	return llm.ExtractJSON(raw, want)
}

// persist hands fa to every sink in the background so that a slow store
// does not delay the response. Failures are logged only.
func (s *analysisService) persist(ctx context.Context, logger *slog.Logger, fa *model.FullAnalysis) {
	if len(s.sinks) == 0 {
		return
	}
	ctx = context.WithoutCancel(ctx)

	s.persisting.Add(1)
	go func() {
		defer s.persisting.Done()
		ctx, cancel := context.WithTimeout(ctx, sinkTimeout)
		defer cancel()
		for _, sink := range s.sinks {
			if err := sink.SaveAnalysis(ctx, fa); err != nil {
				logger.Warn("failed to persist analysis", "analysis_id", fa.Metadata.ID, "error", err)
			}
		}
	}()
}

func (s *analysisService) Wait() {
	s.persisting.Wait()
}

func (s *analysisService) requestLogger(ctx context.Context, u urlutil.NormalizedURL) *slog.Logger {
	l := s.logger.With("url", u.Normalized)
	if id := RequestID(ctx); id != "" {
		l = l.With("request_id", id)
	}
	return l
}

type requestIDKey struct{}

// WithRequestID attaches a request id that pipeline logs will carry.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
