package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"geolens/internal/config"
	"geolens/internal/metrics"
	"geolens/internal/model"
	"geolens/internal/urlutil"
)

// Page is a loaded document owned by one crawl. Close releases every
// resource acquired to load it and must be called exactly once.
type Page interface {
	URL() string
	HTML() (string, error)
	Timing() (model.Performance, error)
	Close() error
}

// Engine loads pages. Open navigates to target and returns once the page
// has settled; ctx bounds the whole navigation.
type Engine interface {
	Name() string
	Open(ctx context.Context, target string) (Page, error)
}

// ErrDisallowed is returned when robots.txt forbids the target path.
var ErrDisallowed = errors.New("disallowed by robots.txt")

// Error describes the step at which a crawl failed.
type Error struct {
	URL   string
	Stage string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("crawl %s failed for %s: %v", e.Stage, e.URL, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Crawler turns a URL into a CrawlSnapshot using an Engine.
type Crawler struct {
	engine  Engine
	robots  *RobotsGate
	limits  Limits
	timeout time.Duration
	logger  *slog.Logger
}

// New builds a Crawler. robots may be nil to skip robots.txt checks.
func New(cfg config.CrawlerConfig, engine Engine, robots *RobotsGate, logger *slog.Logger) *Crawler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Crawler{
		engine:  engine,
		robots:  robots,
		limits:  LimitsFromConfig(cfg),
		timeout: cfg.Timeout(),
		logger:  logger,
	}
}

// NewFromConfig picks the browser engine when enabled and the static
// engine otherwise.
func NewFromConfig(cfg config.CrawlerConfig, logger *slog.Logger) *Crawler {
	var engine Engine
	if cfg.Browser.Enabled {
		engine = NewRodEngine(cfg)
	} else {
		engine = NewStaticEngine(cfg)
	}
	var robots *RobotsGate
	if cfg.RespectRobots {
		robots = NewRobotsGate(cfg.UserAgent, cfg.Timeout())
	}
	return New(cfg, engine, robots, logger)
}

// Crawl never fails: any error is folded into the returned snapshot's
// Error field with every other field zeroed.
func (c *Crawler) Crawl(ctx context.Context, target urlutil.NormalizedURL) model.CrawlSnapshot {
	start := time.Now()
	snap, err := c.crawl(ctx, target.Normalized)
	metrics.RecordCrawl(c.engine.Name(), err == nil, time.Since(start))
	if err != nil {
		c.logger.Warn("crawl failed",
			"url", target.Normalized,
			"engine", c.engine.Name(),
			"error", err,
		)
		return model.FailedSnapshot(target.Normalized, err)
	}
	c.logger.Debug("crawl completed",
		"url", target.Normalized,
		"engine", c.engine.Name(),
		"business_type", snap.DetectedBusinessType,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return snap
}

func (c *Crawler) crawl(ctx context.Context, target string) (snap model.CrawlSnapshot, err error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = &Error{URL: target, Stage: "extract", Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	if c.robots != nil {
		allowed, rerr := c.robots.Allowed(ctx, target)
		if rerr != nil {
			c.logger.Debug("robots.txt unavailable", "url", target, "error", rerr)
		} else if !allowed {
			return snap, &Error{URL: target, Stage: "robots", Err: ErrDisallowed}
		}
	}

	page, err := c.engine.Open(ctx, target)
	if err != nil {
		return snap, &Error{URL: target, Stage: "navigate", Err: err}
	}
	defer func() {
		if cerr := page.Close(); cerr != nil {
			c.logger.Debug("page close failed", "url", target, "error", cerr)
		}
	}()

	html, err := page.HTML()
	if err != nil {
		return snap, &Error{URL: target, Stage: "read", Err: err}
	}

	perf, terr := page.Timing()
	if terr != nil {
		c.logger.Debug("navigation timing unavailable", "url", target, "error", terr)
	}

	finalURL := page.URL()
	if finalURL == "" {
		finalURL = target
	}

	snap, err = Extract(html, finalURL, c.limits)
	if err != nil {
		return model.CrawlSnapshot{}, &Error{URL: target, Stage: "extract", Err: err}
	}
	snap.Performance = perf
	return snap, nil
}
