package services

import (
	"fmt"
	"strings"

	"geolens/internal/model"
	"geolens/internal/taxonomy"
	"geolens/internal/urlutil"
)

// Fallback provenance markers carried in AnalysisResult.Error.
const (
	errDomainOnly    = "Content crawling failed - analysis limited to domain-based insights"
	errURLOnly       = "Content crawling failed - analysis based on URL structure only"
	errPartial       = "Partial analysis completed"
	errAnalysisLost  = "Full analysis failed"
	upstreamFallback = 45
)

// domainAnalysis is the deterministic result used when the completion
// service could not be reached at all. It is derived from the hostname only.
func domainAnalysis(u urlutil.NormalizedURL, scoreHint *int) model.AnalysisResult {
	businessType := taxonomy.ClassifyDomain(u.Domain)
	score, grade := upstreamFallback, "C"
	if scoreHint != nil {
		score = clamp(*scoreHint, 0, 100)
		grade = model.GradeFor(score)
	}
	return model.AnalysisResult{
		GeoScore:     score,
		Grade:        grade,
		BusinessType: businessType,
		Industry:     taxonomy.IndustryFor(businessType),
		Metrics: []model.Metric{
			{Name: "Domain Analysis", Score: 50, Description: "Analysis based on domain structure and accessibility"},
			{Name: "Basic Technical Check", Score: 40, Description: "Limited technical analysis due to access restrictions"},
		},
		Strengths:     []string{"Professional domain name: " + u.Domain},
		Weaknesses:    []string{"Website content could not be analyzed", "Technical details unavailable"},
		Opportunities: []string{"Improve website accessibility", "Enable content analysis"},
		Threats:       []string{"Limited online visibility due to access restrictions"},
		Summary: fmt.Sprintf("Basic analysis of %s. Full content analysis was not possible, recommendations are based on domain structure and general best practices.",
			u.Domain),
		Recommendations: []string{
			"Ensure website is publicly accessible",
			"Implement proper meta tags and SEO elements",
			"Add structured data markup",
		},
		ProcessedURL:   u.Normalized,
		OriginalURL:    u.Original,
		IsInternalSite: u.IsInternal,
		Error:          errDomainOnly,
	}
}

// partialAnalysis is used when the model answered but its reply could not
// be read. Scores lean higher when the crawl itself succeeded.
func partialAnalysis(u urlutil.NormalizedURL, snap model.CrawlSnapshot) model.AnalysisResult {
	crawled := !snap.Failed()

	res := model.AnalysisResult{
		Weaknesses:    []string{"Detailed analysis could not be completed", "Content quality assessment limited"},
		Opportunities: []string{"Improve website accessibility for analysis tools", "Implement comprehensive SEO strategy"},
		Threats:       []string{"Limited visibility due to analysis restrictions", "Potential technical issues preventing proper crawling"},
		Recommendations: []string{
			"Ensure website is fully accessible to analysis tools",
			"Implement proper SEO meta tags",
			"Optimize website structure and content",
			"Add technical SEO elements",
		},
		ProcessedURL:   u.Normalized,
		OriginalURL:    u.Original,
		IsInternalSite: u.IsInternal,
	}

	technical := model.Metric{Name: "Technical SEO", Score: 40, Description: "Technical analysis limited"}
	if crawled && snap.HasSSL {
		technical = model.Metric{Name: "Technical SEO", Score: 70, Description: "Basic technical elements detected"}
	}

	if crawled {
		res.GeoScore, res.Grade = 60, "C+"
		res.BusinessType = snap.DetectedBusinessType
		if res.BusinessType == "" {
			res.BusinessType = taxonomy.General
		}
		res.Metrics = []model.Metric{
			{Name: "Content Analysis", Score: 65, Description: "Basic content analysis completed"},
			technical,
		}
		first, second := "Domain accessible", "Website is online"
		if snap.HasSSL {
			first = "SSL certificate installed"
		}
		if snap.Title != "" {
			second = "Page title present"
		}
		res.Strengths = []string{first, second}
		res.Summary = fmt.Sprintf("Analysis of %s website completed with limited data. Some content was accessible but full analysis was restricted.",
			strings.ToLower(res.BusinessType))
		res.CrawledData = model.SummarizeCrawl(snap)
		res.Error = errPartial
	} else {
		res.GeoScore, res.Grade = 40, "D"
		res.BusinessType = taxonomy.ClassifyDomain(u.Domain)
		res.Metrics = []model.Metric{
			{Name: "Content Analysis", Score: 30, Description: "Content analysis failed"},
			technical,
		}
		res.Strengths = []string{"Website is accessible"}
		res.Summary = "Basic analysis of website. Full content analysis was not possible due to technical restrictions."
		res.Error = errAnalysisLost
	}
	res.Industry = taxonomy.IndustryFor(res.BusinessType)
	return res
}

type fallbackCompetitor struct {
	name     string
	website  string
	score    int
	category string
	position string
}

var fallbackCompetitorTable = map[string][]fallbackCompetitor{
	taxonomy.Technology: {
		{"Microsoft", "https://microsoft.com", 95, "Technology", "Leader"},
		{"Google", "https://google.com", 98, "Technology", "Leader"},
		{"Apple", "https://apple.com", 96, "Technology", "Leader"},
		{"Amazon", "https://amazon.com", 94, "Technology", "Leader"},
	},
	taxonomy.Ecommerce: {
		{"Amazon", "https://amazon.com", 98, "E-commerce", "Leader"},
		{"eBay", "https://ebay.com", 88, "E-commerce", "Challenger"},
		{"Shopify", "https://shopify.com", 90, "E-commerce Platform", "Leader"},
		{"Etsy", "https://etsy.com", 85, "Marketplace", "Niche Player"},
	},
	taxonomy.Restaurant: {
		{"OpenTable", "https://opentable.com", 88, "Restaurant Tech", "Leader"},
		{"Yelp", "https://yelp.com", 85, "Restaurant Reviews", "Leader"},
		{"Grubhub", "https://grubhub.com", 82, "Food Delivery", "Challenger"},
		{"DoorDash", "https://doordash.com", 84, "Food Delivery", "Leader"},
	},
}

// fallbackCompetitors returns the static competitor set for businessType.
// Types without their own table use the Technology one.
func fallbackCompetitors(businessType string) []model.Competitor {
	rows, ok := fallbackCompetitorTable[businessType]
	if !ok {
		if cat, found := taxonomy.Lookup(businessType); found {
			rows, ok = fallbackCompetitorTable[cat.Name]
		}
	}
	if !ok {
		rows = fallbackCompetitorTable[taxonomy.Technology]
	}

	out := make([]model.Competitor, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.Competitor{
			Name:           r.name,
			Website:        r.website,
			Category:       r.category,
			MarketPosition: r.position,
			Strengths:      []string{"Strong market presence", "Established brand", "Good user experience"},
			Description:    fmt.Sprintf("Leading company in the %s industry", strings.ToLower(businessType)),
			GeoScore:       clamp(r.score, competitorScoreMin, competitorScoreMax),
		})
	}
	return out
}

// fallbackRecommendations returns the generic high-impact set, adding the
// viewport fix when a crawl showed the tag missing.
func fallbackRecommendations(a model.AnalysisResult) []model.Recommendation {
	recs := []model.Recommendation{
		{
			Title:          "Improve Page Loading Speed",
			Priority:       "High",
			Category:       "Performance",
			Description:    "Website loading speed directly impacts user experience and SEO rankings. Faster sites have better conversion rates.",
			ExpectedImpact: 8,
			TimeEstimate:   "1-2 weeks",
			Difficulty:     "Medium",
			Implementation: []string{
				"Run Google PageSpeed Insights to identify specific issues",
				"Optimize and compress images using tools like TinyPNG",
				"Minify CSS, JavaScript, and HTML files",
				"Enable browser caching and GZIP compression",
			},
		},
		{
			Title:          "Optimize SEO Meta Tags",
			Priority:       "High",
			Category:       "SEO",
			Description:    "Meta tags are crucial for search engine visibility and click-through rates from search results.",
			ExpectedImpact: 7,
			TimeEstimate:   "1-2 days",
			Difficulty:     "Easy",
			Implementation: []string{
				"Add unique, descriptive title tags (50-60 characters) for each page",
				"Write compelling meta descriptions (150-160 characters)",
				"Implement Open Graph tags for social media sharing",
				"Add schema markup for rich snippets",
			},
		},
		{
			Title:          "Enhance Mobile Experience",
			Priority:       "High",
			Category:       "Mobile",
			Description:    "Mobile traffic accounts for over 50% of web traffic. Mobile optimization is essential for user experience and SEO.",
			ExpectedImpact: 8,
			TimeEstimate:   "1-2 weeks",
			Difficulty:     "Medium",
			Implementation: []string{
				"Ensure responsive design works on all device sizes",
				"Increase touch target sizes to minimum 44x44 pixels",
				"Optimize mobile navigation and menu structure",
				"Test and improve form input experience on mobile devices",
			},
		},
		{
			Title:          "Implement SSL Certificate",
			Priority:       "High",
			Category:       "Security",
			Description:    "SSL certificates are essential for security and are a ranking factor for search engines.",
			ExpectedImpact: 6,
			TimeEstimate:   "1-2 hours",
			Difficulty:     "Easy",
			Implementation: []string{
				"Purchase SSL certificate from your hosting provider",
				"Install and configure SSL certificate",
				"Update all internal links to use HTTPS",
				"Set up 301 redirects from HTTP to HTTPS",
			},
		},
	}

	if a.CrawledData != nil && !a.CrawledData.TechnicalFeatures.Viewport {
		recs = append(recs, model.Recommendation{
			Title:          "Add Viewport Meta Tag",
			Priority:       "Medium",
			Category:       "Technical",
			Description:    "Viewport meta tag is essential for responsive design and mobile optimization.",
			ExpectedImpact: 5,
			TimeEstimate:   "1 hour",
			Difficulty:     "Easy",
			Implementation: []string{
				"Add <meta name='viewport' content='width=device-width, initial-scale=1'> to HTML head",
				"Test responsive design on various devices",
				"Validate proper scaling and layout",
			},
		})
	}
	return recs
}
