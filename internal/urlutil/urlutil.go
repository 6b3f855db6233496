package urlutil

import (
	"errors"
	"fmt"
	"net/netip"
	"net/url"
	"regexp"
	"strings"
)

var (
	// ErrInvalidInput is returned when the raw input is empty.
	ErrInvalidInput = errors.New("invalid url input")
	// ErrInvalidFormat is returned when the input cannot be parsed as a
	// URL or its hostname is not a syntactically valid domain.
	ErrInvalidFormat = errors.New("invalid url format")
)

var (
	schemeRe = regexp.MustCompile(`(?i)^https?://`)
	domainRe = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(\.[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)
)

var internalSuffixes = []string{".local", ".internal", ".corp", ".intranet"}

// privatePrefixRe matches private and loopback ranges by prefix alone, so
// hostnames that are not valid addresses (10.example.com, 192.168.1.300)
// still count as internal.
var privatePrefixRe = regexp.MustCompile(`^(?:127\.|10\.|192\.168\.|172\.(?:1[6-9]|2[0-9]|3[01])\.)`)

// NormalizedURL is the canonical form of a user-supplied URL together with
// the domain facts derived from it.
type NormalizedURL struct {
	Original   string `json:"original"`
	Normalized string `json:"normalized"`
	Domain     string `json:"domain"`
	Subdomain  string `json:"subdomain"`
	RootDomain string `json:"rootDomain"`
	IsInternal bool   `json:"isInternal"`
}

// Normalize turns arbitrary user input into an absolute https-or-http URL.
// Bare domains and protocol-relative inputs get an https scheme; inputs that
// already carry an http(s) scheme are kept as typed so that normalizing an
// already normalized URL is a no-op.
func Normalize(raw string) (NormalizedURL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return NormalizedURL{}, ErrInvalidInput
	}

	normalized := withScheme(trimmed)

	u, err := url.Parse(normalized)
	if err != nil {
		return NormalizedURL{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	host := strings.ToLower(u.Hostname())
	if !domainRe.MatchString(host) {
		return NormalizedURL{}, fmt.Errorf("%w: invalid domain %q", ErrInvalidFormat, host)
	}

	return NormalizedURL{
		Original:   raw,
		Normalized: normalized,
		Domain:     host,
		Subdomain:  Subdomain(host),
		RootDomain: RootDomain(host),
		IsInternal: IsInternal(host),
	}, nil
}

func withScheme(s string) string {
	switch {
	case schemeRe.MatchString(s):
		return s
	case strings.HasPrefix(s, "//"):
		return "https:" + s
	default:
		return "https://" + s
	}
}

// Subdomain returns every label except the last two, or "" for hosts with
// two labels or fewer.
func Subdomain(host string) string {
	parts := strings.Split(host, ".")
	if len(parts) <= 2 {
		return ""
	}
	return strings.Join(parts[:len(parts)-2], ".")
}

// RootDomain returns the last two labels of host.
func RootDomain(host string) string {
	parts := strings.Split(host, ".")
	if len(parts) < 2 {
		return host
	}
	return strings.Join(parts[len(parts)-2:], ".")
}

// IsInternal reports whether host is localhost, a loopback or private IPv4
// address, starts with a private range prefix, or ends in one of the
// well-known intranet suffixes.
func IsInternal(host string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if host == "localhost" {
		return true
	}
	if addr, err := netip.ParseAddr(host); err == nil {
		return addr.Is4() && (addr.IsLoopback() || addr.IsPrivate())
	}
	if privatePrefixRe.MatchString(host) {
		return true
	}
	for _, suffix := range internalSuffixes {
		if strings.HasSuffix(host, suffix) {
			return true
		}
	}
	return false
}
