// Package taxonomy holds the fixed business-type vocabulary shared by the
// crawler's content classifier and the domain-name heuristics used when no
// page content is available.
package taxonomy

import "strings"

const (
	Ecommerce        = "E-commerce"
	Restaurant       = "Restaurant"
	Healthcare       = "Healthcare"
	Technology       = "Technology"
	Education        = "Education"
	Finance          = "Finance"
	Legal            = "Legal"
	RealEstate       = "Real Estate"
	BusinessServices = "Business Services"
	General          = "General"
)

// Category is one business type with the words that signal it in page text
// and in a hostname.
type Category struct {
	Name           string
	TextKeywords   []string
	DomainKeywords []string
	Industry       string
}

// Categories is ordered; ties in ClassifyText and overlaps in
// ClassifyDomain resolve to the earlier entry.
var Categories = []Category{
	{
		Name:           Ecommerce,
		TextKeywords:   []string{"shop", "cart", "buy", "price", "product", "store", "checkout"},
		DomainKeywords: []string{"shop", "store", "buy"},
		Industry:       "Retail & E-commerce",
	},
	{
		Name:           Restaurant,
		TextKeywords:   []string{"menu", "food", "restaurant", "dining", "cuisine", "order"},
		DomainKeywords: []string{"restaurant", "food", "cafe"},
		Industry:       "Food & Beverage",
	},
	{
		Name:           Healthcare,
		TextKeywords:   []string{"doctor", "medical", "health", "patient", "treatment", "clinic"},
		DomainKeywords: []string{"health", "medical", "clinic"},
		Industry:       "Healthcare & Medical",
	},
	{
		Name:           Technology,
		TextKeywords:   []string{"software", "tech", "development", "digital", "app", "platform"},
		DomainKeywords: []string{"tech", "dev", "software"},
		Industry:       "Information Technology",
	},
	{
		Name:           Education,
		TextKeywords:   []string{"course", "learn", "education", "school", "training", "student"},
		DomainKeywords: []string{"edu", "school", "university"},
		Industry:       "Education & Training",
	},
	{
		Name:           Finance,
		TextKeywords:   []string{"bank", "loan", "finance", "investment", "money", "credit"},
		DomainKeywords: []string{"bank", "finance", "loan"},
		Industry:       "Financial Services",
	},
	{
		Name:           Legal,
		TextKeywords:   []string{"law", "lawyer", "legal", "attorney", "court", "justice"},
		DomainKeywords: []string{"law", "legal", "attorney"},
		Industry:       "Legal Services",
	},
	{
		Name:           RealEstate,
		TextKeywords:   []string{"property", "real estate", "house", "home", "rent", "mortgage"},
		DomainKeywords: []string{"realty", "property", "homes"},
		Industry:       "Real Estate & Property",
	},
}

// domainOrder is the precedence used for hostnames; it differs from
// Categories in that Technology outranks Healthcare.
var domainOrder = []string{Ecommerce, Restaurant, Technology, Healthcare, Education, Finance, Legal, RealEstate}

var extraIndustries = map[string]string{
	BusinessServices: "Professional Services",
	General:          "General Business",
}

// ClassifyText picks the category whose keyword list has the most distinct
// hits in text. Zero hits yields General.
func ClassifyText(text string) string {
	lower := strings.ToLower(text)
	best := General
	bestHits := 0
	for _, cat := range Categories {
		hits := 0
		for _, kw := range cat.TextKeywords {
			if strings.Contains(lower, kw) {
				hits++
			}
		}
		if hits > bestHits {
			best, bestHits = cat.Name, hits
		}
	}
	return best
}

// ClassifyDomain applies the same taxonomy to a hostname, returning the
// first category with a matching domain keyword or BusinessServices.
func ClassifyDomain(host string) string {
	lower := strings.ToLower(host)
	for _, name := range domainOrder {
		cat, _ := Lookup(name)
		for _, kw := range cat.DomainKeywords {
			if strings.Contains(lower, kw) {
				return cat.Name
			}
		}
	}
	return BusinessServices
}

// Lookup returns the category with the given display name.
func Lookup(name string) (Category, bool) {
	for _, cat := range Categories {
		if strings.EqualFold(cat.Name, name) {
			return cat, true
		}
	}
	return Category{}, false
}

// IndustryFor maps a business type to its industry label.
func IndustryFor(businessType string) string {
	if cat, ok := Lookup(businessType); ok {
		return cat.Industry
	}
	if ind, ok := extraIndustries[businessType]; ok {
		return ind
	}
	return "General Business"
}
