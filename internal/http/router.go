package http

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"geolens/internal/config"
	"geolens/internal/metrics"
	"geolens/internal/model"
	"geolens/internal/services"
	"geolens/internal/store"
)

// History is the read side of the analysis store.
type History interface {
	GetAnalysis(ctx context.Context, id uuid.UUID) (*model.FullAnalysis, error)
	ListRecentAnalyses(ctx context.Context, domain string, limit int) ([]store.AnalysisSummary, error)
	Ping(ctx context.Context) error
}

type Server struct {
	app     *fiber.App
	config  *config.Config
	service services.AnalysisService
	history History
	logger  *slog.Logger
}

// NewServer builds the fiber app. history may be nil, in which case the
// /v1/analyses routes are not registered.
func NewServer(cfg *config.Config, svc services.AnalysisService, history History, llmConfigured bool, logger *slog.Logger) *Server {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})

	// Inject dependencies into context for handlers
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("config", cfg)
		c.Locals("service", svc)
		if history != nil {
			c.Locals("history", history)
		}
		if logger != nil {
			c.Locals("logger", logger)
		}
		return c.Next()
	})

	app.Use(requestMiddleware(logger))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORS.AllowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, X-Request-Id",
		AllowMethods: "GET,POST,OPTIONS",
	}))

	// Redis client for rate limiting and health checks
	var rdb *redis.Client
	if cfg.Redis.URL != "" {
		if opt, err := redis.ParseURL(cfg.Redis.URL); err == nil {
			rdb = redis.NewClient(opt)
		} else if logger != nil {
			logger.Warn("invalid redis url, rate limiting disabled", "error", err)
		}
	}

	app.Get("/healthz", func(c *fiber.Ctx) error {
		if c.Query("deep") != "true" {
			return c.JSON(fiber.Map{"status": "ok", "llm": llmConfigured})
		}

		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		dbStatus := "disabled"
		if history != nil {
			dbStatus = "ok"
			if err := history.Ping(ctx); err != nil {
				dbStatus = "error"
			}
		}

		redisStatus := "disabled"
		if rdb != nil {
			if err := rdb.Ping(ctx).Err(); err != nil {
				redisStatus = "error"
			} else {
				redisStatus = "ok"
			}
		}

		status := "ok"
		if dbStatus == "error" || redisStatus == "error" {
			status = "error"
		}

		return c.JSON(fiber.Map{
			"status": status,
			"llm":    llmConfigured,
			"db":     dbStatus,
			"redis":  redisStatus,
		})
	})

	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	v1 := app.Group("/v1", rateLimitMiddleware(cfg, rdb))
	registerV1Routes(v1, history != nil)

	return &Server{
		app:     app,
		config:  cfg,
		service: svc,
		history: history,
		logger:  logger,
	}
}

func (s *Server) Listen() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	if s.logger != nil {
		s.logger.Info("listening", "addr", addr)
	}
	return s.app.Listen(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func registerV1Routes(group fiber.Router, withHistory bool) {
	group.Post("/analyze", analyzeHandler)
	group.Post("/validate", validateHandler)
	group.Post("/recommendations", recommendationsHandler)
	group.Post("/competitors", competitorsHandler)
	if withHistory {
		group.Get("/analyses", listAnalysesHandler)
		group.Get("/analyses/:id", getAnalysisHandler)
	}
}
