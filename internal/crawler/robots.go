package crawler

import (
	"context"
	"net/http"
	"net/url"
	"time"

	robotstxt "github.com/temoto/robotstxt"
)

// RobotsGate checks a target path against the site's robots.txt.
type RobotsGate struct {
	client    *http.Client
	userAgent string
}

func NewRobotsGate(userAgent string, timeout time.Duration) *RobotsGate {
	return &RobotsGate{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// Allowed fetches robots.txt for target's host. A missing file allows
// everything; transport failures are returned so the caller can decide.
func (g *RobotsGate) Allowed(ctx context.Context, target string) (bool, error) {
	u, err := url.Parse(target)
	if err != nil {
		return false, err
	}
	robotsURL := &url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/robots.txt"}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL.String(), nil)
	if err != nil {
		return false, err
	}
	if g.userAgent != "" {
		req.Header.Set("User-Agent", g.userAgent)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return false, err
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return data.TestAgent(path, g.userAgent), nil
}
