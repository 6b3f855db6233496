// Package prompts builds the natural-language requests sent to the
// completion service. Every prompt spells out the exact JSON shape expected
// back and asks for nothing else.
package prompts

import (
	"fmt"
	"strings"

	"geolens/internal/model"
	"geolens/internal/urlutil"
)

type Kind string

const (
	KindAnalysis        Kind = "analysis"
	KindCompetitors     Kind = "competitors"
	KindRecommendations Kind = "recommendations"
)

const (
	analystRole        = "You are a professional website analyst with expertise in SEO, UX, and digital marketing. Analyze the provided website data thoroughly and provide accurate, content-based insights. Return only valid JSON."
	competitorRole     = "You are a competitive analysis expert. Research and provide only real, existing competitors with accurate information. Return valid JSON only."
	recommendationRole = "You are a technical SEO and web optimization expert. Provide specific, actionable recommendations based on the analysis data. Return valid JSON only."
)

// SystemRole returns the fixed system message for kind.
func SystemRole(kind Kind) string {
	switch kind {
	case KindCompetitors:
		return competitorRole
	case KindRecommendations:
		return recommendationRole
	default:
		return analystRole
	}
}

// AnalysisInput feeds the analysis prompt. A failed Snapshot selects the
// URL-only variant. ScoreHint is a previously computed score, nil when
// none; zero is a real score.
type AnalysisInput struct {
	URL       urlutil.NormalizedURL
	Snapshot  model.CrawlSnapshot
	ScoreHint *int
}

type CompetitorsInput struct {
	URL          string
	BusinessType string
	Industry     string
}

type RecommendationsInput struct {
	URL      string
	Analysis model.AnalysisResult
}

// Build renders the prompt of the given kind. data must be the matching
// input struct.
func Build(kind Kind, data any) (string, error) {
	switch kind {
	case KindAnalysis:
		in, ok := data.(AnalysisInput)
		if !ok {
			return "", fmt.Errorf("prompt %s: unexpected input %T", kind, data)
		}
		if in.Snapshot.Failed() {
			return URLOnlyAnalysis(in.URL, in.ScoreHint), nil
		}
		return Analysis(in.Snapshot, in.URL, in.ScoreHint), nil
	case KindCompetitors:
		in, ok := data.(CompetitorsInput)
		if !ok {
			return "", fmt.Errorf("prompt %s: unexpected input %T", kind, data)
		}
		return Competitors(in.URL, in.BusinessType, in.Industry), nil
	case KindRecommendations:
		in, ok := data.(RecommendationsInput)
		if !ok {
			return "", fmt.Errorf("prompt %s: unexpected input %T", kind, data)
		}
		return Recommendations(in.Analysis, in.URL), nil
	default:
		return "", fmt.Errorf("unknown prompt kind %q", kind)
	}
}

const analysisSchema = `Provide a detailed analysis in JSON format:
{
  "geoScore": number (0-100, realistic based on the evidence above),
  "grade": "A+, A, B+, B, C+, C, D+, D, F",
  "businessType": "specific business category",
  "industry": "specific industry based on the business type",
  "metrics": [
    {"name": "Content Quality", "score": number (0-100), "description": "based on title, headings, content depth and structure"},
    {"name": "Technical SEO", "score": number (0-100), "description": "based on meta tags, SSL, schema markup, viewport"},
    {"name": "User Experience", "score": number (0-100), "description": "based on navigation, structure, contact info availability"},
    {"name": "Performance", "score": number (0-100), "description": "based on load times and technical metrics"},
    {"name": "Mobile Responsiveness", "score": number (0-100), "description": "based on viewport meta tag and responsive design"},
    {"name": "Business Presence", "score": number (0-100), "description": "based on contact information, social links, professional appearance"}
  ],
  "strengths": ["specific strengths"],
  "weaknesses": ["specific weaknesses"],
  "opportunities": ["specific opportunities for improvement"],
  "threats": ["potential threats or issues"],
  "summary": "comprehensive summary of the assessment",
  "recommendations": ["specific actionable recommendations"]
}
Return only this JSON object.`

// Analysis renders the content-based analysis prompt from a successful
// crawl.
func Analysis(s model.CrawlSnapshot, u urlutil.NormalizedURL, scoreHint *int) string {
	var b strings.Builder
	b.WriteString("Analyze this website comprehensively using the following data:\n\n")
	fmt.Fprintf(&b, "Website URL: %s\n", u.Normalized)
	fmt.Fprintf(&b, "Page Title: %s\n", s.Title)
	fmt.Fprintf(&b, "Meta Description: %s\n", s.Description)
	fmt.Fprintf(&b, "Meta Keywords: %s\n", s.Keywords)
	writeScoreHint(&b, scoreHint)

	b.WriteString("\nContent Analysis:\n")
	fmt.Fprintf(&b, "- Headings: %s\n", strings.Join(s.Headings, ", "))
	fmt.Fprintf(&b, "- Main Content: %s\n", s.ParagraphsText)
	fmt.Fprintf(&b, "- Navigation: %s\n", strings.Join(s.NavLinks, ", "))
	fmt.Fprintf(&b, "- Images Count: %d\n", s.Images)
	fmt.Fprintf(&b, "- Links Count: %d\n", s.Links)
	fmt.Fprintf(&b, "- Content Length: %d characters\n", s.ContentLength)

	b.WriteString("\nTechnical Details:\n")
	fmt.Fprintf(&b, "- Has SSL: %t\n", s.HasSSL)
	fmt.Fprintf(&b, "- Has Viewport Meta: %t\n", s.HasViewport)
	fmt.Fprintf(&b, "- Has Schema Markup: %t\n", s.HasSchema)
	fmt.Fprintf(&b, "- Has Footer: %t\n", s.HasFooter)
	fmt.Fprintf(&b, "- Has Social Links: %t\n", s.HasSocialLinks)

	b.WriteString("\nBusiness Indicators:\n")
	fmt.Fprintf(&b, "- Detected Business Type: %s\n", s.DetectedBusinessType)
	fmt.Fprintf(&b, "- Has Contact Form: %t\n", s.ContactInfo.HasContactForm)
	fmt.Fprintf(&b, "- Has Phone: %t\n", s.ContactInfo.HasPhone)
	fmt.Fprintf(&b, "- Has Email: %t\n", s.ContactInfo.HasEmail)
	fmt.Fprintf(&b, "- Has Address: %t\n", s.ContactInfo.HasAddress)

	b.WriteString("\nPerformance:\n")
	fmt.Fprintf(&b, "- Load Time: %sms\n", millis(s.Performance.LoadTimeMs))
	fmt.Fprintf(&b, "- DOM Content Loaded: %sms\n\n", millis(s.Performance.DOMContentLoadedMs))

	b.WriteString(analysisSchema)
	b.WriteString("\nBase your analysis on the ACTUAL content and technical details provided, not generic assumptions.\n")
	return b.String()
}

// URLOnlyAnalysis renders the analysis prompt used when the page could not
// be loaded. It carries only facts derived from the URL itself.
func URLOnlyAnalysis(u urlutil.NormalizedURL, scoreHint *int) string {
	var b strings.Builder
	b.WriteString("The content of this website could not be retrieved. Assess it using only its URL and domain structure.\n\n")
	fmt.Fprintf(&b, "Website URL: %s\n", u.Normalized)
	fmt.Fprintf(&b, "Domain: %s\n", u.Domain)
	fmt.Fprintf(&b, "Root Domain: %s\n", u.RootDomain)
	if u.Subdomain != "" {
		fmt.Fprintf(&b, "Subdomain: %s\n", u.Subdomain)
	}
	fmt.Fprintf(&b, "Top-Level Domain: %s\n", tld(u.Domain))
	fmt.Fprintf(&b, "Uses HTTPS: %t\n", strings.HasPrefix(strings.ToLower(u.Normalized), "https://"))
	fmt.Fprintf(&b, "Internal Site: %t\n", u.IsInternal)
	writeScoreHint(&b, scoreHint)
	b.WriteString("\nReason from the domain name and URL structure alone. Do not invent page content you were not given, and keep scores conservative where evidence is missing.\n\n")
	b.WriteString(analysisSchema)
	b.WriteString("\n")
	return b.String()
}

// Competitors renders the competitor discovery prompt.
func Competitors(websiteURL, businessType, industry string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Find 6-8 real competitors for this website: %s\n", websiteURL)
	fmt.Fprintf(&b, "Business Type: %s\n", businessType)
	fmt.Fprintf(&b, "Industry: %s\n\n", industry)
	b.WriteString("Focus on finding actual competitors that exist and compete in the same space.\n")
	b.WriteString("Include both direct competitors (same business model) and indirect competitors (similar target audience).\n\n")
	b.WriteString("Return a JSON array:\n[\n  {\n")
	b.WriteString(`    "name": "Actual Company Name",` + "\n")
	b.WriteString(`    "website": "https://realwebsite.com",` + "\n")
	b.WriteString(`    "geoScore": number (realistic score 60-95),` + "\n")
	fmt.Fprintf(&b, "    \"category\": \"%s or related category\",\n", businessType)
	b.WriteString(`    "marketPosition": "Leader/Challenger/Follower/Niche Player",` + "\n")
	b.WriteString(`    "strengths": ["specific strength 1", "specific strength 2", "specific strength 3"],` + "\n")
	b.WriteString(`    "description": "brief but specific company description"` + "\n")
	b.WriteString("  }\n]\n\nEnsure all companies and websites are real and currently active. Return only the JSON array.\n")
	return b.String()
}

// Recommendations renders the improvement recommendation prompt from a
// resolved analysis.
func Recommendations(a model.AnalysisResult, websiteURL string) string {
	var b strings.Builder
	b.WriteString("Generate specific, actionable technical recommendations based on this website analysis:\n\n")
	fmt.Fprintf(&b, "Website: %s\n", websiteURL)
	fmt.Fprintf(&b, "Overall Score: %d\n", a.GeoScore)
	fmt.Fprintf(&b, "Business Type: %s\n\n", a.BusinessType)

	b.WriteString("Current Metrics:\n")
	for _, m := range a.Metrics {
		fmt.Fprintf(&b, "- %s: %d/100 - %s\n", m.Name, m.Score, m.Description)
	}

	b.WriteString("\nIdentified Weaknesses:\n")
	for _, w := range a.Weaknesses {
		fmt.Fprintf(&b, "- %s\n", w)
	}

	if cd := a.CrawledData; cd != nil {
		b.WriteString("\nCrawled Data Available: Yes\n")
		b.WriteString("Technical Status:\n")
		fmt.Fprintf(&b, "- SSL: %t\n", cd.TechnicalFeatures.SSL)
		fmt.Fprintf(&b, "- Viewport Meta: %t\n", cd.TechnicalFeatures.Viewport)
		fmt.Fprintf(&b, "- Schema Markup: %t\n", cd.TechnicalFeatures.Schema)
		fmt.Fprintf(&b, "- Page Title: %s\n", presence(cd.Title != ""))
	} else {
		b.WriteString("\nCrawled Data Available: No\n")
	}

	b.WriteString(`
Generate 8-12 specific, prioritized recommendations in JSON format:
[
  {
    "title": "Specific, actionable recommendation title",
    "priority": "High/Medium/Low",
    "category": "SEO/Performance/Content/UX/Technical/Security/Mobile",
    "description": "Detailed explanation of the issue and why it matters",
    "expectedImpact": number (1-10, realistic impact rating),
    "timeEstimate": "1-2 hours/1-2 days/1-2 weeks/1+ month",
    "difficulty": "Easy/Medium/Hard",
    "implementation": [
      "Step 1: Specific, actionable step",
      "Step 2: Specific, actionable step",
      "Step 3: Specific, actionable step"
    ]
  }
]

Focus on the most impactful recommendations first. Return only the JSON array.
`)
	return b.String()
}

func writeScoreHint(b *strings.Builder, score *int) {
	if score != nil {
		fmt.Fprintf(b, "Previously Measured Score: %d\n", *score)
	}
}

func millis(v float64) string {
	if v <= 0 {
		return "N/A"
	}
	return fmt.Sprintf("%.0f", v)
}

func presence(ok bool) string {
	if ok {
		return "Present"
	}
	return "Missing"
}

func tld(host string) string {
	if i := strings.LastIndex(host, "."); i >= 0 {
		return host[i+1:]
	}
	return host
}
