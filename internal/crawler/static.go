package crawler

import (
	"context"
	"errors"
	"time"

	"github.com/gocolly/colly/v2"

	"geolens/internal/config"
	"geolens/internal/model"
)

// StaticEngine fetches raw HTML without executing scripts. Navigation
// timing is approximated by the response round trip.
type StaticEngine struct {
	UserAgent string
	Timeout   time.Duration
}

func NewStaticEngine(cfg config.CrawlerConfig) *StaticEngine {
	return &StaticEngine{UserAgent: cfg.UserAgent, Timeout: cfg.Timeout()}
}

func (e *StaticEngine) Name() string { return "static" }

func (e *StaticEngine) Open(ctx context.Context, target string) (Page, error) {
	c := colly.NewCollector(
		colly.UserAgent(e.UserAgent),
		colly.AllowURLRevisit(),
		colly.StdlibContext(ctx),
	)
	if e.Timeout > 0 {
		c.SetRequestTimeout(e.Timeout)
	}

	page := &staticPage{url: target}
	start := time.Now()
	c.OnResponse(func(r *colly.Response) {
		page.url = r.Request.URL.String()
		page.html = string(r.Body)
		page.elapsed = time.Since(start)
	})

	if err := c.Visit(target); err != nil {
		return nil, err
	}
	if page.html == "" {
		return nil, errors.New("empty response body")
	}
	return page, nil
}

type staticPage struct {
	url     string
	html    string
	elapsed time.Duration
}

func (p *staticPage) URL() string { return p.url }

func (p *staticPage) HTML() (string, error) { return p.html, nil }

func (p *staticPage) Timing() (model.Performance, error) {
	ms := float64(p.elapsed.Milliseconds())
	return model.Performance{LoadTimeMs: ms, DOMContentLoadedMs: ms}, nil
}

func (p *staticPage) Close() error { return nil }
