package profile

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// marker is a substring that votes for a platform when seen in an
// attribute value or inline script.
type marker struct {
	platform string
	needle   string
	weight   int
}

var markers = []marker{
	{Shopify, "cdn.shopify.com", 3},
	{Shopify, "shopify.theme", 3},
	{Shopify, "shopify-section", 2},
	{Shopify, "/cart/add", 1},
	{Shopify, "myshopify.com", 2},
	{BigCommerce, "cdn11.bigcommerce.com", 3},
	{BigCommerce, "bigcommerce", 2},
	{BigCommerce, "data-stencil", 2},
	{BigCommerce, "stencilutils", 2},
	{BigCommerce, "productview", 1},
}

// minScore is the vote total a platform needs before it is reported.
const minScore = 3

// Detect scans an HTML document for platform markers and returns the best
// scoring platform. detected is false when no platform reaches minScore,
// in which case the generic platform is returned.
func Detect(r io.Reader) (platform string, detected bool) {
	scores := make(map[string]int)
	seen := make(map[string]bool)
	vote := func(s string) {
		s = strings.ToLower(s)
		for _, m := range markers {
			key := m.platform + "|" + m.needle
			if seen[key] {
				continue
			}
			if strings.Contains(s, m.needle) {
				seen[key] = true
				scores[m.platform] += m.weight
			}
		}
	}

	z := html.NewTokenizer(r)
	inScript := false
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return best(scores)
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			inScript = tok.Data == "script" && tt == html.StartTagToken
			for _, a := range tok.Attr {
				vote(a.Key)
				vote(a.Val)
			}
		case html.EndTagToken:
			inScript = false
		case html.TextToken:
			if inScript {
				vote(string(z.Text()))
			}
		}
	}
}

// DetectString is Detect over an in-memory document.
func DetectString(doc string) (string, bool) {
	return Detect(strings.NewReader(doc))
}

func best(scores map[string]int) (string, bool) {
	top, topScore := Generic, 0
	for _, p := range []string{Shopify, BigCommerce} {
		if scores[p] > topScore {
			top, topScore = p, scores[p]
		}
	}
	if topScore < minScore {
		return Generic, false
	}
	return top, true
}
