package crawler

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geolens/internal/taxonomy"
)

const shopPage = `<!doctype html>
<html>
<head>
  <title> Acme Shop </title>
  <meta name="description" content="Buy widgets online">
  <meta name="keywords" content="widgets, shop">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <script type="application/ld+json">{"@type":"Store"}</script>
</head>
<body>
  <header><a href="/">Home</a><a href="/about">About</a></header>
  <nav><a href="/products">Products</a><a href="/cart">Cart</a></nav>
  <h1>Welcome to Acme</h1>
  <h2>Best price on every product</h2>
  <p>Shop our store for great deals.</p>
  <p>Add items to your cart and checkout in seconds.</p>
  <img src="a.png"><img src="b.png">
  <form action="/contact-us"><input type="text" name="q"></form>
  <p>Call 555-123-4567 or mail sales@acme.com. Visit us at 12 Main Street.</p>
  <footer><a href="https://facebook.com/acme">Facebook</a></footer>
</body>
</html>`

func defaultLimits() Limits {
	return Limits{MaxHeadings: 20, MaxParagraphs: 10, MaxNavLinks: 15, MaxContentChars: 1000}
}

func TestExtract_Signals(t *testing.T) {
	snap, err := Extract(shopPage, "https://acme.example/", defaultLimits())
	require.NoError(t, err)

	assert.Equal(t, "Acme Shop", snap.Title)
	assert.Equal(t, "Buy widgets online", snap.Description)
	assert.Equal(t, "widgets, shop", snap.Keywords)
	assert.Equal(t, []string{"Welcome to Acme", "Best price on every product"}, snap.Headings)
	assert.Equal(t, []string{"Home", "About", "Products", "Cart"}, snap.NavLinks)
	assert.Len(t, snap.Paragraphs, 3)
	assert.True(t, strings.HasPrefix(snap.ParagraphsText, "Shop our store for great deals. Add items"))
	assert.Equal(t, 2, snap.Images)
	assert.Equal(t, 5, snap.Links)
	assert.Greater(t, snap.ContentLength, 0)

	assert.True(t, snap.HasSSL)
	assert.True(t, snap.HasViewport)
	assert.True(t, snap.HasSchema)
	assert.True(t, snap.HasFooter)
	assert.True(t, snap.HasSocialLinks)

	assert.True(t, snap.ContactInfo.HasContactForm)
	assert.True(t, snap.ContactInfo.HasPhone)
	assert.True(t, snap.ContactInfo.HasEmail)
	assert.True(t, snap.ContactInfo.HasAddress)

	assert.Equal(t, taxonomy.Ecommerce, snap.DetectedBusinessType)
	assert.Empty(t, snap.Error)
}

func TestExtract_BarePage(t *testing.T) {
	snap, err := Extract(`<html><body><div>nothing here</div></body></html>`, "http://plain.example", defaultLimits())
	require.NoError(t, err)

	assert.False(t, snap.HasSSL)
	assert.False(t, snap.HasViewport)
	assert.False(t, snap.HasSchema)
	assert.False(t, snap.HasFooter)
	assert.False(t, snap.HasSocialLinks)
	assert.Equal(t, taxonomy.General, snap.DetectedBusinessType)
	assert.NotNil(t, snap.Headings)
	assert.Empty(t, snap.Headings)
	// no <p>, so the excerpt comes from the rendered body
	assert.Equal(t, "nothing here", snap.ParagraphsText)
}

func TestExtract_Bounds(t *testing.T) {
	var b strings.Builder
	b.WriteString("<html><body><nav>")
	for i := 0; i < 30; i++ {
		fmt.Fprintf(&b, `<a href="/%d">link %d</a>`, i, i)
	}
	b.WriteString("</nav>")
	for i := 0; i < 30; i++ {
		fmt.Fprintf(&b, "<h2>heading %d</h2><p>%s</p>", i, strings.Repeat("x", 200))
	}
	b.WriteString("</body></html>")

	snap, err := Extract(b.String(), "https://big.example", defaultLimits())
	require.NoError(t, err)
	assert.Len(t, snap.Headings, 20)
	assert.Len(t, snap.NavLinks, 15)
	assert.Len(t, snap.Paragraphs, 10)
	assert.Equal(t, 1000, len([]rune(snap.ParagraphsText)))
	assert.Equal(t, 30, snap.Links)
}

func TestExtract_ContactRegexesNegative(t *testing.T) {
	snap, err := Extract(`<html><body><p>Reach us anytime at our office.</p></body></html>`, "https://x.example", defaultLimits())
	require.NoError(t, err)
	assert.False(t, snap.ContactInfo.HasPhone)
	assert.False(t, snap.ContactInfo.HasEmail)
	assert.False(t, snap.ContactInfo.HasAddress)
	assert.False(t, snap.ContactInfo.HasContactForm)
}
