package model

import "time"

// ContactInfo records which contact channels a page exposes.
type ContactInfo struct {
	HasContactForm bool `json:"hasContactForm"`
	HasPhone       bool `json:"hasPhone"`
	HasEmail       bool `json:"hasEmail"`
	HasAddress     bool `json:"hasAddress"`
}

// Performance is the navigation-timing sample taken after a page load.
type Performance struct {
	LoadTimeMs         float64 `json:"loadTimeMs"`
	DOMContentLoadedMs float64 `json:"domContentLoadedMs"`
}

// CrawlSnapshot is the set of signals extracted from a single page load.
// A snapshot with Error set carries zero values in every other field.
type CrawlSnapshot struct {
	URL                  string      `json:"url"`
	Title                string      `json:"title"`
	Description          string      `json:"description"`
	Keywords             string      `json:"keywords"`
	Headings             []string    `json:"headings"`
	Paragraphs           []string    `json:"paragraphs"`
	ParagraphsText       string      `json:"paragraphsText"`
	NavLinks             []string    `json:"navLinks"`
	Images               int         `json:"images"`
	Links                int         `json:"links"`
	ContentLength        int         `json:"contentLength"`
	HasSSL               bool        `json:"hasSSL"`
	HasViewport          bool        `json:"hasViewport"`
	HasSchema            bool        `json:"hasSchema"`
	HasFooter            bool        `json:"hasFooter"`
	HasSocialLinks       bool        `json:"hasSocialLinks"`
	ContactInfo          ContactInfo `json:"contactInfo"`
	DetectedBusinessType string      `json:"detectedBusinessType"`
	Performance          Performance `json:"performance"`
	Error                string      `json:"error,omitempty"`
}

// Failed reports whether the crawl that produced s did not complete.
func (s CrawlSnapshot) Failed() bool {
	return s.Error != ""
}

// FailedSnapshot returns the all-defaults snapshot for a crawl of url that
// ended with err.
func FailedSnapshot(url string, err error) CrawlSnapshot {
	msg := "crawl failed"
	if err != nil {
		msg = err.Error()
	}
	return CrawlSnapshot{
		URL:        url,
		Headings:   []string{},
		Paragraphs: []string{},
		NavLinks:   []string{},
		Error:      msg,
	}
}

// Metric is a single named, scored facet of an analysis.
type Metric struct {
	Name        string `json:"name"`
	Score       int    `json:"score"`
	Description string `json:"description"`
}

type TechnicalFeatures struct {
	SSL      bool `json:"ssl"`
	Viewport bool `json:"viewport"`
	Schema   bool `json:"schema"`
}

// CrawlSummary is the subset of a successful crawl that travels with the
// analysis it produced.
type CrawlSummary struct {
	Title                string            `json:"title"`
	HasContent           bool              `json:"hasContent"`
	BusinessTypeDetected string            `json:"businessTypeDetected"`
	TechnicalFeatures    TechnicalFeatures `json:"technicalFeatures"`
}

// SummarizeCrawl builds the CrawlSummary for s.
func SummarizeCrawl(s CrawlSnapshot) *CrawlSummary {
	return &CrawlSummary{
		Title:                s.Title,
		HasContent:           s.ContentLength > 0,
		BusinessTypeDetected: s.DetectedBusinessType,
		TechnicalFeatures: TechnicalFeatures{
			SSL:      s.HasSSL,
			Viewport: s.HasViewport,
			Schema:   s.HasSchema,
		},
	}
}

// AnalysisResult is the scored assessment of one website. Error is set when
// the result came from a fallback path.
type AnalysisResult struct {
	GeoScore        int           `json:"geoScore"`
	Grade           string        `json:"grade"`
	BusinessType    string        `json:"businessType"`
	Industry        string        `json:"industry"`
	Metrics         []Metric      `json:"metrics"`
	Strengths       []string      `json:"strengths"`
	Weaknesses      []string      `json:"weaknesses"`
	Opportunities   []string      `json:"opportunities"`
	Threats         []string      `json:"threats"`
	Recommendations []string      `json:"recommendations"`
	Summary         string        `json:"summary"`
	CrawledData     *CrawlSummary `json:"crawledData,omitempty"`
	ProcessedURL    string        `json:"processedUrl"`
	OriginalURL     string        `json:"originalUrl"`
	IsInternalSite  bool          `json:"isInternalSite"`
	Error           string        `json:"error,omitempty"`
}

// Degraded reports whether a fallback produced a.
func (a AnalysisResult) Degraded() bool {
	return a.Error != ""
}

type Competitor struct {
	Name           string   `json:"name"`
	Website        string   `json:"website"`
	Category       string   `json:"category"`
	MarketPosition string   `json:"marketPosition"`
	Strengths      []string `json:"strengths"`
	Description    string   `json:"description"`
	GeoScore       int      `json:"geoScore"`
}

type Recommendation struct {
	Title          string   `json:"title"`
	Priority       string   `json:"priority"`
	Category       string   `json:"category"`
	Description    string   `json:"description"`
	ExpectedImpact int      `json:"expectedImpact"`
	TimeEstimate   string   `json:"timeEstimate"`
	Difficulty     string   `json:"difficulty"`
	Implementation []string `json:"implementation"`
}

// Metadata describes how a FullAnalysis was produced.
type Metadata struct {
	ID                  string    `json:"id,omitempty"`
	StartedAt           time.Time `json:"startedAt"`
	AnalyzedAt          time.Time `json:"analyzedAt"`
	DurationMs          int64     `json:"durationMs"`
	OriginalURL         string    `json:"originalUrl"`
	NormalizedURL       string    `json:"normalizedUrl"`
	Domain              string    `json:"domain"`
	IsInternal          bool      `json:"isInternal"`
	CrawlSucceeded      bool      `json:"crawlSucceeded"`
	CompetitorCount     int       `json:"competitorCount"`
	RecommendationCount int       `json:"recommendationCount"`
	DegradedStages      []string  `json:"degradedStages"`
}

// FullAnalysis is the combined output of one pipeline run.
type FullAnalysis struct {
	Analysis        AnalysisResult   `json:"analysis"`
	Competitors     []Competitor     `json:"competitors"`
	Recommendations []Recommendation `json:"recommendations"`
	Metadata        Metadata         `json:"metadata"`
}

// CompetitorReport is the result of a standalone competitor lookup.
type CompetitorReport struct {
	Competitors  []Competitor `json:"competitors"`
	Total        int          `json:"total"`
	BusinessType string       `json:"businessType"`
	Industry     string       `json:"industry"`
}
