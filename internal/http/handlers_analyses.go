package http

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// getAnalysisHandler returns a stored analysis by id.
func getAnalysisHandler(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Success: false,
			Code:    "BAD_REQUEST_INVALID_ID",
			Error:   "Invalid analysis id",
		})
	}

	history := c.Locals("history").(History)
	fa, err := history.GetAnalysis(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
				Success: false,
				Code:    "NOT_FOUND",
				Error:   fmt.Sprintf("Analysis %s not found", id),
			})
		}
		return internalError(c, err)
	}

	return c.JSON(DataResponse{
		Success:    true,
		Data:       fa,
		AnalyzedAt: fa.Metadata.AnalyzedAt,
	})
}

// listAnalysesHandler lists recent analyses, newest first. Supports
// ?domain= and ?limit= (1..100).
func listAnalysesHandler(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 100 {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Success: false,
			Code:    "BAD_REQUEST",
			Error:   "limit must be between 1 and 100",
		})
	}

	history := c.Locals("history").(History)
	rows, err := history.ListRecentAnalyses(c.UserContext(), c.Query("domain"), limit)
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(DataResponse{
		Success:    true,
		Data:       HistoryResponse{Analyses: rows, Total: len(rows)},
		AnalyzedAt: time.Now().UTC(),
	})
}
