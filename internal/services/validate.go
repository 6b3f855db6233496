package services

import (
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"geolens/internal/model"
	"geolens/internal/taxonomy"
	"geolens/internal/urlutil"
)

const (
	scoreMin, scoreMax                     = 0, 100
	competitorScoreMin, competitorScoreMax = 60, 95
	impactMin, impactMax                   = 1, 10

	defaultScore           = 50
	defaultCompetitorScore = 75
	defaultImpact          = 5
)

// validateAnalysis turns a parsed model reply into a schema-complete
// AnalysisResult. It never fails; every missing or malformed field gets a
// fixed default.
func validateAnalysis(doc gjson.Result, u urlutil.NormalizedURL, snap model.CrawlSnapshot) model.AnalysisResult {
	score := clampedInt(doc.Get("geoScore"), scoreMin, scoreMax, defaultScore)

	grade := model.Canonical(doc.Get("grade").String(), model.Grades)
	if grade == "" {
		grade = model.GradeFor(score)
	}

	businessType := text(doc.Get("businessType"), "")
	if businessType == "" {
		switch {
		case snap.Failed():
			businessType = taxonomy.ClassifyDomain(u.Domain)
		case snap.DetectedBusinessType != "":
			businessType = snap.DetectedBusinessType
		default:
			businessType = taxonomy.General
		}
	}

	res := model.AnalysisResult{
		GeoScore:        score,
		Grade:           grade,
		BusinessType:    businessType,
		Industry:        text(doc.Get("industry"), taxonomy.IndustryFor(businessType)),
		Metrics:         []model.Metric{},
		Strengths:       stringList(doc.Get("strengths")),
		Weaknesses:      stringList(doc.Get("weaknesses")),
		Opportunities:   stringList(doc.Get("opportunities")),
		Threats:         stringList(doc.Get("threats")),
		Recommendations: stringList(doc.Get("recommendations")),
		Summary:         text(doc.Get("summary"), "Website analysis completed based on content review"),
		ProcessedURL:    u.Normalized,
		OriginalURL:     u.Original,
		IsInternalSite:  u.IsInternal,
	}

	if metrics := doc.Get("metrics"); metrics.IsArray() {
		for _, m := range metrics.Array() {
			res.Metrics = append(res.Metrics, model.Metric{
				Name:        text(m.Get("name"), "Unknown Metric"),
				Score:       clampedInt(m.Get("score"), scoreMin, scoreMax, defaultScore),
				Description: text(m.Get("description"), "No description available"),
			})
		}
	}

	if snap.Failed() {
		res.Error = errURLOnly
	} else {
		res.CrawledData = model.SummarizeCrawl(snap)
	}
	return res
}

// validateCompetitors reads a parsed array of competitors. Entries that are
// not objects are skipped.
func validateCompetitors(doc gjson.Result, businessType string) []model.Competitor {
	out := []model.Competitor{}
	for _, c := range doc.Array() {
		if !c.IsObject() {
			continue
		}
		out = append(out, model.Competitor{
			Name:           text(c.Get("name"), "Unknown Company"),
			Website:        text(c.Get("website"), "#"),
			Category:       text(c.Get("category"), businessType),
			MarketPosition: enum(c.Get("marketPosition"), model.MarketPositions, "Competitor"),
			Strengths:      stringListOr(c.Get("strengths"), "Market presence"),
			Description:    text(c.Get("description"), "Competitor in the same industry"),
			GeoScore:       clampedInt(c.Get("geoScore"), competitorScoreMin, competitorScoreMax, defaultCompetitorScore),
		})
	}
	return out
}

// validateRecommendations reads a parsed array of recommendations. Entries
// that are not objects are skipped.
func validateRecommendations(doc gjson.Result) []model.Recommendation {
	out := []model.Recommendation{}
	for _, r := range doc.Array() {
		if !r.IsObject() {
			continue
		}
		out = append(out, model.Recommendation{
			Title:          text(r.Get("title"), "Website Improvement"),
			Priority:       enum(r.Get("priority"), model.Priorities, "Medium"),
			Category:       enum(r.Get("category"), model.RecCategories, "Technical"),
			Description:    text(r.Get("description"), "Recommendation for website improvement"),
			ExpectedImpact: clampedInt(r.Get("expectedImpact"), impactMin, impactMax, defaultImpact),
			TimeEstimate:   text(r.Get("timeEstimate"), "1-2 weeks"),
			Difficulty:     enum(r.Get("difficulty"), model.Difficulties, "Medium"),
			Implementation: stringListOr(r.Get("implementation"), "Review and implement recommended changes"),
		})
	}
	return out
}

// number coerces a JSON number or numeric string. NaN, infinities and
// anything else report false.
func number(r gjson.Result) (float64, bool) {
	var f float64
	switch r.Type {
	case gjson.Number:
		f = r.Num
	case gjson.String:
		v, err := strconv.ParseFloat(strings.TrimSpace(r.Str), 64)
		if err != nil {
			return 0, false
		}
		f = v
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func clampedInt(r gjson.Result, lo, hi, def int) int {
	f, ok := number(r)
	if !ok {
		return def
	}
	// clamp before converting so huge values cannot overflow
	f = math.Max(float64(lo), math.Min(float64(hi), f))
	return int(math.Round(f))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// text returns the trimmed string or number value of r, or def when r is
// missing, empty or of another type.
func text(r gjson.Result, def string) string {
	switch r.Type {
	case gjson.String, gjson.Number:
		if s := strings.TrimSpace(r.String()); s != "" {
			return s
		}
	}
	return def
}

func enum(r gjson.Result, allowed []string, def string) string {
	if v := model.Canonical(r.String(), allowed); v != "" && r.Type == gjson.String {
		return v
	}
	return def
}

// stringList returns the non-empty strings of a JSON array, or an empty
// list when r is not an array.
func stringList(r gjson.Result) []string {
	out := []string{}
	if !r.IsArray() {
		return out
	}
	for _, item := range r.Array() {
		if s := text(item, ""); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func stringListOr(r gjson.Result, def string) []string {
	if !r.IsArray() {
		return []string{def}
	}
	return stringList(r)
}
