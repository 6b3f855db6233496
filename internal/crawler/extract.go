package crawler

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	htmlmd "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"

	"geolens/internal/config"
	"geolens/internal/model"
	"geolens/internal/taxonomy"
)

// Limits bounds the sequences and excerpt kept in a snapshot.
type Limits struct {
	MaxHeadings     int
	MaxParagraphs   int
	MaxNavLinks     int
	MaxContentChars int
}

func LimitsFromConfig(cfg config.CrawlerConfig) Limits {
	return Limits{
		MaxHeadings:     cfg.MaxHeadings,
		MaxParagraphs:   cfg.MaxParagraphs,
		MaxNavLinks:     cfg.MaxNavLinks,
		MaxContentChars: cfg.MaxContentChars,
	}
}

var (
	phoneRe   = regexp.MustCompile(`\b\d{3}[-.]?\d{3}[-.]?\d{4}\b`)
	emailRe   = regexp.MustCompile(`@\w+\.\w+`)
	addressRe = regexp.MustCompile(`(?i)\d+\s+\w+\s+(street|st|avenue|ave|road|rd|drive|dr|lane|ln|way|blvd)`)
)

const (
	contactFormSelector = `form[action*="contact"], input[type="email"]`
	socialLinkSelector  = `a[href*="facebook"], a[href*="twitter"], a[href*="linkedin"], a[href*="instagram"]`
)

// Extract reads every crawl signal from a rendered document. It has no
// side effects and does not touch the network.
func Extract(html, pageURL string, lim Limits) (model.CrawlSnapshot, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return model.CrawlSnapshot{}, err
	}

	bodyText := doc.Find("body").Text()
	if bodyText == "" {
		bodyText = doc.Text()
	}

	paragraphs := texts(doc.Find("p"), lim.MaxParagraphs)
	excerpt := truncate(strings.Join(paragraphs, " "), lim.MaxContentChars)
	if strings.TrimSpace(excerpt) == "" {
		excerpt = truncate(markdownExcerpt(doc, pageURL), lim.MaxContentChars)
	}

	snap := model.CrawlSnapshot{
		URL:            pageURL,
		Title:          strings.TrimSpace(doc.Find("title").First().Text()),
		Description:    strings.TrimSpace(doc.Find(`meta[name="description"]`).AttrOr("content", "")),
		Keywords:       strings.TrimSpace(doc.Find(`meta[name="keywords"]`).AttrOr("content", "")),
		Headings:       texts(doc.Find("h1, h2, h3"), lim.MaxHeadings),
		Paragraphs:     paragraphs,
		ParagraphsText: excerpt,
		NavLinks:       texts(doc.Find("nav a, header a"), lim.MaxNavLinks),
		Images:         doc.Find("img").Length(),
		Links:          doc.Find("a").Length(),
		ContentLength:  utf8.RuneCountInString(bodyText),
		HasSSL:         isHTTPS(pageURL),
		HasViewport:    doc.Find(`meta[name="viewport"]`).Length() > 0,
		HasSchema:      doc.Find(`script[type="application/ld+json"]`).Length() > 0,
		HasFooter:      doc.Find("footer").Length() > 0,
		HasSocialLinks: doc.Find(socialLinkSelector).Length() > 0,
		ContactInfo: model.ContactInfo{
			HasContactForm: doc.Find(contactFormSelector).Length() > 0,
			HasPhone:       phoneRe.MatchString(bodyText),
			HasEmail:       emailRe.MatchString(bodyText),
			HasAddress:     addressRe.MatchString(bodyText),
		},
		DetectedBusinessType: taxonomy.ClassifyText(bodyText),
	}
	return snap, nil
}

// texts returns the trimmed text of the first limit elements in sel. A
// non-positive limit keeps everything.
func texts(sel *goquery.Selection, limit int) []string {
	out := make([]string, 0)
	sel.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if limit > 0 && len(out) >= limit {
			return false
		}
		out = append(out, strings.TrimSpace(s.Text()))
		return true
	})
	return out
}

// markdownExcerpt renders the main content area as plain markdown. Used
// for pages that put their copy in divs instead of paragraphs.
func markdownExcerpt(doc *goquery.Document, pageURL string) string {
	root := doc.Find("main").First()
	if root.Length() == 0 {
		root = doc.Find("body").First()
	}
	if root.Length() == 0 {
		return ""
	}
	root = root.Clone()
	root.Find("script, style, noscript, nav, header, footer").Remove()

	host := ""
	if u, err := url.Parse(pageURL); err == nil {
		host = u.Hostname()
	}
	conv := htmlmd.NewConverter(host, true, nil)
	md := conv.Convert(root)
	return strings.Join(strings.Fields(md), " ")
}

func truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)
	return string(r[:limit])
}

func isHTTPS(pageURL string) bool {
	u, err := url.Parse(pageURL)
	return err == nil && strings.EqualFold(u.Scheme, "https")
}
