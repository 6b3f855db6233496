package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"geolens/internal/services"
	"geolens/internal/urlutil"
)

// analyzeHandler runs the full pipeline. Only an invalid URL fails the
// request; degraded stages are reported inside the result.
func analyzeHandler(c *fiber.Ctx) error {
	var req AnalyzeRequest
	if ok, err := decodeRequest(c, &req); !ok {
		return err
	}

	svc := c.Locals("service").(services.AnalysisService)
	fa, err := svc.RunFullAnalysis(c.UserContext(), req.URL)
	if err != nil {
		return urlError(c, err)
	}

	return c.JSON(DataResponse{
		Success:    true,
		Data:       fa,
		AnalyzedAt: fa.Metadata.AnalyzedAt,
	})
}

func validateHandler(c *fiber.Ctx) error {
	var req AnalyzeRequest
	if ok, err := decodeRequest(c, &req); !ok {
		return err
	}

	svc := c.Locals("service").(services.AnalysisService)
	u, err := svc.ValidateURL(req.URL)
	if err != nil {
		if !isURLError(err) {
			return internalError(c, err)
		}
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Success: false,
			Code:    "INVALID_URL",
			Error:   err.Error(),
			Details: ValidateResponse{Valid: false, Error: err.Error(), OriginalURL: req.URL},
		})
	}

	return c.JSON(DataResponse{
		Success: true,
		Data: ValidateResponse{
			Valid:         true,
			OriginalURL:   u.Original,
			NormalizedURL: u.Normalized,
			Domain:        u.Domain,
			Subdomain:     u.Subdomain,
			RootDomain:    u.RootDomain,
			IsInternal:    u.IsInternal,
		},
		AnalyzedAt: time.Now().UTC(),
	})
}

func recommendationsHandler(c *fiber.Ctx) error {
	var req RecommendationsRequest
	if ok, err := decodeRequest(c, &req); !ok {
		return err
	}

	svc := c.Locals("service").(services.AnalysisService)
	recs, err := svc.RunRecommendationsOnly(c.UserContext(), req.URL, *req.CurrentScore)
	if err != nil {
		return urlError(c, err)
	}

	return c.JSON(DataResponse{
		Success:    true,
		Data:       RecommendationsResponse{Recommendations: recs, Total: len(recs)},
		AnalyzedAt: time.Now().UTC(),
	})
}

func competitorsHandler(c *fiber.Ctx) error {
	var req CompetitorsRequest
	if ok, err := decodeRequest(c, &req); !ok {
		return err
	}

	svc := c.Locals("service").(services.AnalysisService)
	report, err := svc.FindCompetitors(c.UserContext(), req.URL, req.BusinessType)
	if err != nil {
		return urlError(c, err)
	}

	return c.JSON(DataResponse{
		Success:    true,
		Data:       report,
		AnalyzedAt: time.Now().UTC(),
	})
}

func isURLError(err error) bool {
	return errors.Is(err, urlutil.ErrInvalidInput) || errors.Is(err, urlutil.ErrInvalidFormat)
}

func urlError(c *fiber.Ctx, err error) error {
	if !isURLError(err) {
		return internalError(c, err)
	}
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Success: false,
		Code:    "INVALID_URL",
		Error:   err.Error(),
	})
}

func internalError(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Success: false,
		Code:    "INTERNAL_ERROR",
		Error:   err.Error(),
	})
}
