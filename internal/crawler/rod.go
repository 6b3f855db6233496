package crawler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"geolens/internal/config"
	"geolens/internal/model"
)

const timingScript = `() => {
	const t = performance.timing;
	return {
		loadTime: t.loadEventEnd - t.navigationStart,
		domContentLoaded: t.domContentLoadedEventEnd - t.navigationStart
	};
}`

// streamingResources never finish, so they are ignored when waiting for
// the network to go quiet.
var streamingResources = []proto.NetworkResourceType{
	proto.NetworkResourceTypeWebSocket,
	proto.NetworkResourceTypeEventSource,
	proto.NetworkResourceTypeMedia,
}

// RodEngine renders pages in headless Chromium. Each Open gets its own
// incognito context; without a ControlURL it also launches and later kills
// its own browser process.
type RodEngine struct {
	ControlURL string
	Bin        string
	NoSandbox  bool
	UserAgent  string
	Width      int
	Height     int
	IdleWait   time.Duration
}

func NewRodEngine(cfg config.CrawlerConfig) *RodEngine {
	return &RodEngine{
		ControlURL: cfg.Browser.ControlURL,
		Bin:        cfg.Browser.Bin,
		NoSandbox:  cfg.Browser.NoSandbox,
		UserAgent:  cfg.UserAgent,
		Width:      cfg.ViewportWidth,
		Height:     cfg.ViewportHeight,
		IdleWait:   time.Duration(cfg.Browser.IdleWaitMs) * time.Millisecond,
	}
}

func (e *RodEngine) Name() string { return "rod" }

func (e *RodEngine) Open(ctx context.Context, target string) (Page, error) {
	p := &rodPage{target: target}

	controlURL := e.ControlURL
	if controlURL == "" {
		l := launcher.New().
			Context(ctx).
			Headless(true).
			Set("disable-dev-shm-usage").
			Set("disable-gpu").
			Set("no-first-run")
		if e.Bin != "" {
			l = l.Bin(e.Bin)
		}
		if e.NoSandbox {
			l = l.NoSandbox(true)
		}
		u, err := l.Launch()
		if err != nil {
			l.Cleanup()
			return nil, fmt.Errorf("failed to launch browser: %w", err)
		}
		p.launcher = l
		controlURL = u
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("failed to connect browser: %w", err)
	}
	p.browser = browser

	incognito, err := browser.Incognito()
	if err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}
	p.incognito = incognito

	page, err := incognito.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	p.page = page

	if e.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: e.UserAgent}); err != nil {
			_ = p.Close()
			return nil, fmt.Errorf("failed to set user agent: %w", err)
		}
	}
	if e.Width > 0 && e.Height > 0 {
		if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:  e.Width,
			Height: e.Height,
		}); err != nil {
			_ = p.Close()
			return nil, fmt.Errorf("failed to set viewport: %w", err)
		}
	}

	// The request watcher has to be attached before navigation so that it
	// sees the requests the page issues while loading.
	var waitNetworkIdle func()
	if e.IdleWait > 0 {
		waitNetworkIdle = page.WaitRequestIdle(e.IdleWait, nil, nil, streamingResources)
	}

	if err := page.Navigate(target); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("failed to navigate: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("page load: %w", err)
	}
	if waitNetworkIdle != nil {
		// Returns once no request has been in flight for IdleWait, or when
		// the crawl context ends.
		waitNetworkIdle()
		if err := ctx.Err(); err != nil {
			_ = p.Close()
			return nil, fmt.Errorf("network idle: %w", err)
		}
	}

	return p, nil
}

type rodPage struct {
	target    string
	launcher  *launcher.Launcher
	browser   *rod.Browser
	incognito *rod.Browser
	page      *rod.Page
}

func (p *rodPage) URL() string {
	if p.page == nil {
		return p.target
	}
	info, err := p.page.Info()
	if err != nil || info.URL == "" {
		return p.target
	}
	return info.URL
}

func (p *rodPage) HTML() (string, error) {
	return p.page.HTML()
}

func (p *rodPage) Timing() (model.Performance, error) {
	res, err := p.page.Eval(timingScript)
	if err != nil {
		return model.Performance{}, err
	}
	return model.Performance{
		LoadTimeMs:         nonNegative(res.Value.Get("loadTime").Num()),
		DOMContentLoadedMs: nonNegative(res.Value.Get("domContentLoaded").Num()),
	}, nil
}

// Close uses a fresh context so teardown still runs after the crawl
// context has expired.
func (p *rodPage) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var errs []error
	if p.page != nil {
		errs = append(errs, p.page.Context(ctx).Close())
	}
	if p.incognito != nil {
		errs = append(errs, p.incognito.Context(ctx).Close())
	}
	if p.launcher != nil {
		if p.browser != nil {
			errs = append(errs, p.browser.Context(ctx).Close())
		}
		p.launcher.Cleanup()
	}
	return errors.Join(errs...)
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
