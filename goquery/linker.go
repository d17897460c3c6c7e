package goquery

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/carlot"
)

// Ensure Linker implements carlot.PageLinker at compile time.
var _ carlot.PageLinker = (*Linker)(nil)

// DefaultNextSelectors locate "next page" links, most explicit first.
var DefaultNextSelectors = []string{
	`link[rel~="next"]`,
	`a[rel~="next"]`,
	`.pagination a.next, .pager a.next, a.next-page, li.next a`,
	`a.pageNumbersNext, a.saveSlink.next`,
}

// DefaultNextLabels are anchor texts that mean "next page".
var DefaultNextLabels = []string{
	"next", "next page", "следваща", "следваща страница", "напред",
	"weiter", "nächste", "suivant", "»", "›", ">",
}

// Linker finds pagination links on listing pages.
type Linker struct {
	selectors []string
	labels    map[string]bool
}

// NewLinker creates a Linker with the default selectors and labels.
func NewLinker() *Linker {
	labels := make(map[string]bool, len(DefaultNextLabels))
	for _, l := range DefaultNextLabels {
		labels[l] = true
	}
	return &Linker{
		selectors: DefaultNextSelectors,
		labels:    labels,
	}
}

// NextPage returns the next results page on the same host, or "" when the
// page has none.
func (l *Linker) NextPage(html string, pageURL string) (string, error) {
	base, err := url.Parse(pageURL)
	if err != nil || !base.IsAbs() {
		return "", carlot.Errorf(carlot.EINVALID, "invalid page URL: %q", pageURL)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", carlot.Errorf(carlot.EINVALID, "failed to parse HTML: %v", err)
	}

	accept := func(sel *goquery.Selection) string {
		href, exists := sel.Attr("href")
		if !exists || href == "" || isNonHTTPLink(href) {
			return ""
		}
		resolved := resolveURL(base, href)
		if resolved == "" || !isSameHost(base, resolved) {
			return ""
		}
		return resolved
	}

	for _, selector := range l.selectors {
		var next string
		doc.Find(selector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			next = accept(sel)
			return next == ""
		})
		if next != "" {
			return next, nil
		}
	}

	var next string
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		label := strings.ToLower(strings.Join(strings.Fields(sel.Text()), " "))
		if !l.labels[label] {
			return true
		}
		next = accept(sel)
		return next == ""
	})
	return next, nil
}

// resolveURL resolves a relative URL against a base URL.
// Returns empty string if the href cannot be parsed or if the resolved URL
// is the base URL itself. Fragments are stripped.
func resolveURL(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(ref)
	resolved.Fragment = ""

	result := resolved.String()
	baseNoFragment := *base
	baseNoFragment.Fragment = ""
	if result == baseNoFragment.String() {
		return ""
	}
	return result
}

// isSameHost checks if the resolved URL has the same host as the base URL.
// This uses exact host matching - subdomains are considered different hosts.
func isSameHost(base *url.URL, resolved string) bool {
	u, err := url.Parse(resolved)
	if err != nil {
		return false
	}
	return u.Host == base.Host
}

// isNonHTTPLink checks if a href is a non-HTTP link that should be skipped.
func isNonHTTPLink(href string) bool {
	href = strings.ToLower(strings.TrimSpace(href))
	return strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:")
}
