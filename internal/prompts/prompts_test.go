package prompts

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geolens/internal/model"
	"geolens/internal/urlutil"
)

var contentLabels = []string{
	"Page Title:",
	"Meta Description:",
	"Meta Keywords:",
	"Headings:",
	"Main Content:",
	"Navigation:",
	"Images Count:",
	"Links Count:",
	"Content Length:",
	"Detected Business Type:",
}

func sampleURL(t *testing.T) urlutil.NormalizedURL {
	t.Helper()
	u, err := urlutil.Normalize("shop.acme.example")
	require.NoError(t, err)
	return u
}

func sampleSnapshot() model.CrawlSnapshot {
	return model.CrawlSnapshot{
		URL:                  "https://shop.acme.example",
		Title:                "Acme Shop",
		Description:          "Buy anvils online",
		Headings:             []string{"Anvils", "Rockets"},
		ParagraphsText:       "Free shipping on every order.",
		NavLinks:             []string{"Home", "Cart"},
		Images:               12,
		Links:                40,
		ContentLength:        2048,
		HasSSL:               true,
		DetectedBusinessType: "E-commerce",
		Performance:          model.Performance{LoadTimeMs: 812},
	}
}

func TestAnalysis_IncludesCrawlSignals(t *testing.T) {
	p := Analysis(sampleSnapshot(), sampleURL(t), nil)

	assert.Contains(t, p, "Website URL: https://shop.acme.example")
	assert.Contains(t, p, "Page Title: Acme Shop")
	assert.Contains(t, p, "- Headings: Anvils, Rockets")
	assert.Contains(t, p, "- Main Content: Free shipping on every order.")
	assert.Contains(t, p, "- Images Count: 12")
	assert.Contains(t, p, "- Has SSL: true")
	assert.Contains(t, p, "- Load Time: 812ms")
	assert.Contains(t, p, "- DOM Content Loaded: N/Ams")
	assert.Contains(t, p, `"geoScore"`)
	assert.NotContains(t, p, "Previously Measured Score")
}

func TestBuild_FailedCrawlUsesURLOnlyVariant(t *testing.T) {
	snap := model.FailedSnapshot("https://shop.acme.example", errors.New("navigation timeout"))

	p, err := Build(KindAnalysis, AnalysisInput{URL: sampleURL(t), Snapshot: snap})
	require.NoError(t, err)

	for _, label := range contentLabels {
		assert.NotContains(t, p, label)
	}
	assert.Contains(t, p, "Domain: shop.acme.example")
	assert.Contains(t, p, "Root Domain: acme.example")
	assert.Contains(t, p, "Subdomain: shop")
	assert.Contains(t, p, "Top-Level Domain: example")
	assert.Contains(t, p, "URL structure alone")
	assert.Contains(t, p, `"metrics"`)
}

func scoreHint(v int) *int { return &v }

func TestURLOnlyAnalysis_ZeroScoreHintIsKept(t *testing.T) {
	p := URLOnlyAnalysis(sampleURL(t), scoreHint(0))
	assert.Contains(t, p, "Previously Measured Score: 0")
}

func TestURLOnlyAnalysis_ScoreHint(t *testing.T) {
	p := URLOnlyAnalysis(sampleURL(t), scoreHint(67))
	assert.Contains(t, p, "Previously Measured Score: 67")
}

func TestCompetitors(t *testing.T) {
	p, err := Build(KindCompetitors, CompetitorsInput{URL: "https://acme.example", BusinessType: "E-commerce", Industry: "Retail & E-commerce"})
	require.NoError(t, err)
	assert.Contains(t, p, "Find 6-8 real competitors for this website: https://acme.example")
	assert.Contains(t, p, "Industry: Retail & E-commerce")
	assert.Contains(t, p, `"category": "E-commerce or related category"`)
	assert.Contains(t, p, "Leader/Challenger/Follower/Niche Player")
}

func TestRecommendations(t *testing.T) {
	a := model.AnalysisResult{
		GeoScore:     58,
		BusinessType: "Restaurant",
		Metrics:      []model.Metric{{Name: "Performance", Score: 40, Description: "slow"}},
		Weaknesses:   []string{"No viewport tag"},
		CrawledData: &model.CrawlSummary{
			TechnicalFeatures: model.TechnicalFeatures{SSL: true},
		},
	}
	p := Recommendations(a, "https://diner.example")
	assert.Contains(t, p, "Overall Score: 58")
	assert.Contains(t, p, "- Performance: 40/100 - slow")
	assert.Contains(t, p, "- No viewport tag")
	assert.Contains(t, p, "Crawled Data Available: Yes")
	assert.Contains(t, p, "- Viewport Meta: false")
	assert.Contains(t, p, "- Page Title: Missing")

	a.CrawledData = nil
	p = Recommendations(a, "https://diner.example")
	assert.Contains(t, p, "Crawled Data Available: No")
	assert.NotContains(t, p, "Technical Status")
}

func TestBuild_RejectsMismatchedInput(t *testing.T) {
	_, err := Build(KindCompetitors, AnalysisInput{})
	assert.Error(t, err)
	_, err = Build(Kind("summary"), nil)
	assert.Error(t, err)
}

func TestSystemRole(t *testing.T) {
	assert.Contains(t, SystemRole(KindAnalysis), "website analyst")
	assert.Contains(t, SystemRole(KindCompetitors), "competitive analysis")
	assert.Contains(t, SystemRole(KindRecommendations), "technical SEO")
}
