package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"geolens/internal/model"
	"geolens/internal/urlutil"
)

func normalized(t *testing.T, raw string) urlutil.NormalizedURL {
	t.Helper()
	u, err := urlutil.Normalize(raw)
	require.NoError(t, err)
	return u
}

func okSnapshot() model.CrawlSnapshot {
	return model.CrawlSnapshot{
		URL:                  "https://acme.example",
		Title:                "Acme",
		ContentLength:        900,
		HasSSL:               true,
		HasViewport:          true,
		DetectedBusinessType: "E-commerce",
		Headings:             []string{},
		Paragraphs:           []string{},
		NavLinks:             []string{},
	}
}

func TestValidateAnalysis_ClampsAndDerivesGrade(t *testing.T) {
	doc := gjson.Parse(`{
		"geoScore": 140,
		"metrics": [
			{"name": "Performance", "score": -20, "description": "slow"},
			{"score": "72.6"},
			{"name": "SEO", "score": "lots"}
		]
	}`)
	res := validateAnalysis(doc, normalized(t, "acme.example"), okSnapshot())

	assert.Equal(t, 100, res.GeoScore)
	assert.Equal(t, "A+", res.Grade)
	require.Len(t, res.Metrics, 3)
	assert.Equal(t, model.Metric{Name: "Performance", Score: 0, Description: "slow"}, res.Metrics[0])
	assert.Equal(t, model.Metric{Name: "Unknown Metric", Score: 73, Description: "No description available"}, res.Metrics[1])
	assert.Equal(t, 50, res.Metrics[2].Score)
}

func TestValidateAnalysis_Defaults(t *testing.T) {
	u := normalized(t, "acme.example")
	res := validateAnalysis(gjson.Parse(`{"strengths": "not a list", "weaknesses": ["thin content", 3, ""]}`), u, okSnapshot())

	assert.Equal(t, 50, res.GeoScore)
	assert.Equal(t, "F", res.Grade)
	assert.Equal(t, "E-commerce", res.BusinessType)
	assert.Equal(t, "Retail & E-commerce", res.Industry)
	assert.Equal(t, []string{}, res.Strengths)
	assert.Equal(t, []string{"thin content", "3"}, res.Weaknesses)
	assert.Equal(t, []model.Metric{}, res.Metrics)
	assert.Equal(t, "Website analysis completed based on content review", res.Summary)
	assert.Equal(t, "https://acme.example", res.ProcessedURL)
	assert.Equal(t, "acme.example", res.OriginalURL)
	require.NotNil(t, res.CrawledData)
	assert.True(t, res.CrawledData.TechnicalFeatures.SSL)
	assert.Empty(t, res.Error)
}

func TestValidateAnalysis_GradeAcceptedOnlyWhenCanonical(t *testing.T) {
	u := normalized(t, "acme.example")

	res := validateAnalysis(gjson.Parse(`{"geoScore": 82, "grade": "b+"}`), u, okSnapshot())
	assert.Equal(t, "B+", res.Grade)

	res = validateAnalysis(gjson.Parse(`{"geoScore": 82, "grade": "Excellent"}`), u, okSnapshot())
	assert.Equal(t, "B", res.Grade)
}

func TestValidateAnalysis_FailedCrawl(t *testing.T) {
	u := normalized(t, "bestshop.example")
	snap := model.FailedSnapshot(u.Normalized, errors.New("timeout"))

	res := validateAnalysis(gjson.Parse(`{"geoScore": 61}`), u, snap)
	assert.Equal(t, "E-commerce", res.BusinessType)
	assert.Nil(t, res.CrawledData)
	assert.Equal(t, errURLOnly, res.Error)
	assert.Equal(t, "D", res.Grade)
}

func TestValidateCompetitors(t *testing.T) {
	doc := gjson.Parse(`[
		{"name": "Shopify", "website": "https://shopify.com", "geoScore": 99, "marketPosition": "leader", "strengths": ["apps"]},
		{"geoScore": 12, "marketPosition": "Dominant"},
		"stray string",
		{"name": "Etsy", "geoScore": "not a number", "strengths": "handmade"}
	]`)
	out := validateCompetitors(doc, "E-commerce")
	require.Len(t, out, 3)

	assert.Equal(t, 95, out[0].GeoScore)
	assert.Equal(t, "Leader", out[0].MarketPosition)
	assert.Equal(t, []string{"apps"}, out[0].Strengths)
	assert.Equal(t, "E-commerce", out[0].Category)

	assert.Equal(t, "Unknown Company", out[1].Name)
	assert.Equal(t, "#", out[1].Website)
	assert.Equal(t, 60, out[1].GeoScore)
	assert.Equal(t, "Competitor", out[1].MarketPosition)
	assert.Equal(t, "Competitor in the same industry", out[1].Description)

	assert.Equal(t, 75, out[2].GeoScore)
	assert.Equal(t, []string{"Market presence"}, out[2].Strengths)

	for _, c := range out {
		assert.GreaterOrEqual(t, c.GeoScore, 60)
		assert.LessOrEqual(t, c.GeoScore, 95)
	}
}

func TestValidateRecommendations(t *testing.T) {
	doc := gjson.Parse(`[
		{"title": "Compress images", "priority": "HIGH", "category": "performance", "expectedImpact": 14, "difficulty": "easy", "implementation": ["Use WebP"]},
		{"priority": "Urgent", "category": "Marketing", "expectedImpact": 0}
	]`)
	out := validateRecommendations(doc)
	require.Len(t, out, 2)

	assert.Equal(t, "High", out[0].Priority)
	assert.Equal(t, "Performance", out[0].Category)
	assert.Equal(t, 10, out[0].ExpectedImpact)
	assert.Equal(t, "Easy", out[0].Difficulty)
	assert.Equal(t, []string{"Use WebP"}, out[0].Implementation)

	assert.Equal(t, model.Recommendation{
		Title:          "Website Improvement",
		Priority:       "Medium",
		Category:       "Technical",
		Description:    "Recommendation for website improvement",
		ExpectedImpact: 1,
		TimeEstimate:   "1-2 weeks",
		Difficulty:     "Medium",
		Implementation: []string{"Review and implement recommended changes"},
	}, out[1])
}

func TestNumber(t *testing.T) {
	cases := []struct {
		raw  string
		want float64
		ok   bool
	}{
		{`12.5`, 12.5, true},
		{`" 40 "`, 40, true},
		{`"NaN"`, 0, false},
		{`"Inf"`, 0, false},
		{`true`, 0, false},
		{`null`, 0, false},
	}
	for _, tc := range cases {
		got, ok := number(gjson.Parse(tc.raw))
		assert.Equal(t, tc.ok, ok, tc.raw)
		assert.Equal(t, tc.want, got, tc.raw)
	}
	assert.Equal(t, 100, clampedInt(gjson.Parse(`1e300`), 0, 100, 50))
}
