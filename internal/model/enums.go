package model

import "strings"

var (
	Grades          = []string{"A+", "A", "B+", "B", "C+", "C", "D+", "D", "F"}
	MarketPositions = []string{"Leader", "Challenger", "Follower", "Niche Player"}
	Priorities      = []string{"High", "Medium", "Low"}
	RecCategories   = []string{"SEO", "Performance", "Content", "UX", "Technical", "Security", "Mobile"}
	Difficulties    = []string{"Easy", "Medium", "Hard"}
)

var gradeTable = []struct {
	min   int
	grade string
}{
	{95, "A+"},
	{90, "A"},
	{85, "B+"},
	{80, "B"},
	{75, "C+"},
	{70, "C"},
	{65, "D+"},
	{60, "D"},
}

// GradeFor maps a 0-100 score to its letter grade.
func GradeFor(score int) string {
	for _, row := range gradeTable {
		if score >= row.min {
			return row.grade
		}
	}
	return "F"
}

// Canonical returns the member of allowed that matches v case-insensitively,
// or "" when there is none.
func Canonical(v string, allowed []string) string {
	v = strings.TrimSpace(v)
	for _, a := range allowed {
		if strings.EqualFold(a, v) {
			return a
		}
	}
	return ""
}
