package http

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"geolens/internal/config"
	"geolens/internal/metrics"
	"geolens/internal/services"
)

// requestMiddleware assigns a request id, propagates it to the pipeline
// through the user context and logs one line per request.
func requestMiddleware(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		reqID := c.Get("X-Request-Id")
		if reqID == "" {
			reqID = uuid.New().String()
		}
		c.Locals("request_id", reqID)
		c.Set("X-Request-Id", reqID)
		c.SetUserContext(services.WithRequestID(c.UserContext(), reqID))

		err := c.Next()
		if err != nil {
			// Let the app's error handler set the status before we record it.
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
			err = nil
		}

		latency := time.Since(start)
		status := c.Response().StatusCode()
		method := c.Method()
		path := c.Path()
		if route := c.Route(); route != nil && route.Path != "" && route.Path != "/" {
			path = route.Path
		}

		metrics.RecordRequest(method, path, status, latency)

		if logger != nil {
			logger.Info("request",
				"request_id", reqID,
				"method", method,
				"path", c.Path(),
				"status", status,
				"latency_ms", latency.Milliseconds(),
			)
		}
		return err
	}
}

// rateLimitMiddleware enforces a per-minute fixed-window limit per client
// IP using Redis.
func rateLimitMiddleware(cfg *config.Config, rdb *redis.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit := cfg.RateLimit.PerMinute
		if rdb == nil || limit <= 0 {
			return c.Next()
		}

		window := time.Now().UTC().Format("200601021504") // YYYYMMDDHHMM
		key := fmt.Sprintf("geolens:rl:%s:%s", c.IP(), window)

		ctx := c.UserContext()
		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			// Fail open when Redis is unreachable.
			if logger, ok := c.Locals("logger").(*slog.Logger); ok {
				logger.Warn("rate limit increment failed", "error", err)
			}
			return c.Next()
		}
		if count == 1 {
			_ = rdb.Expire(ctx, key, time.Minute)
		}

		if count > int64(limit) {
			c.Set("Retry-After", "60")
			return c.Status(fiber.StatusTooManyRequests).JSON(ErrorResponse{
				Success: false,
				Code:    "RATE_LIMIT_EXCEEDED",
				Error:   "Rate limit exceeded, try again later",
			})
		}
		return c.Next()
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// FieldError describes one rejected request field.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// decodeRequest parses the JSON body into dst and validates it. When ok is
// false the error response has already been written and err is the result
// of writing it.
func decodeRequest(c *fiber.Ctx, dst interface{}) (ok bool, err error) {
	if err := c.BodyParser(dst); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Success: false,
			Code:    "BAD_REQUEST_INVALID_JSON",
			Error:   "Bad request, malformed JSON",
		})
	}

	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return false, c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Success: false,
				Code:    "BAD_REQUEST",
				Error:   err.Error(),
			})
		}
		details := make([]FieldError, 0, len(verrs))
		for _, fe := range verrs {
			details = append(details, FieldError{Field: fe.Field(), Rule: fe.Tag()})
		}
		return false, c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Success: false,
			Code:    "BAD_REQUEST",
			Error:   fmt.Sprintf("Invalid field '%s'", details[0].Field),
			Details: details,
		})
	}
	return true, nil
}
