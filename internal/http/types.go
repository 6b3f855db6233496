package http

import (
	"time"

	"geolens/internal/model"
	"geolens/internal/store"
)

// AnalyzeRequest is the body of POST /v1/analyze and POST /v1/validate.
type AnalyzeRequest struct {
	URL string `json:"url" validate:"required,max=2048"`
}

// RecommendationsRequest re-runs only the recommendation stage, using
// CurrentScore as the analysis hint. A score of 0 is valid, so the field is
// a pointer to tell it apart from a missing one.
type RecommendationsRequest struct {
	URL          string `json:"url" validate:"required,max=2048"`
	CurrentScore *int   `json:"currentScore" validate:"required,gte=0,lte=100"`
}

type CompetitorsRequest struct {
	URL          string `json:"url" validate:"required,max=2048"`
	BusinessType string `json:"businessType" validate:"max=64"`
}

// ErrorResponse is the error envelope shared by every endpoint.
type ErrorResponse struct {
	Success bool        `json:"success"`
	Code    string      `json:"code,omitempty"`
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

// DataResponse wraps every successful payload.
type DataResponse struct {
	Success    bool        `json:"success"`
	Data       interface{} `json:"data"`
	AnalyzedAt time.Time   `json:"analyzedAt"`
}

// ValidateResponse reports the outcome of a URL pre-flight check. Invalid
// URLs are a normal answer here, not a request failure.
type ValidateResponse struct {
	Valid         bool   `json:"valid"`
	Error         string `json:"error,omitempty"`
	OriginalURL   string `json:"originalUrl"`
	NormalizedURL string `json:"normalizedUrl,omitempty"`
	Domain        string `json:"domain,omitempty"`
	Subdomain     string `json:"subdomain,omitempty"`
	RootDomain    string `json:"rootDomain,omitempty"`
	IsInternal    bool   `json:"isInternal"`
}

type RecommendationsResponse struct {
	Recommendations []model.Recommendation `json:"recommendations"`
	Total           int                    `json:"total"`
}

type HistoryResponse struct {
	Analyses []store.AnalysisSummary `json:"analyses"`
	Total    int                     `json:"total"`
}
