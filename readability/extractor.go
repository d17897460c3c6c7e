// Package readability isolates the main content of listing detail pages
// with go-readability.
package readability

import (
	"net/url"
	"strings"

	"github.com/fwojciec/carlot"
	"github.com/go-shiori/go-readability"
)

// Ensure Extractor implements carlot.ContentExtractor at compile time.
var _ carlot.ContentExtractor = (*Extractor)(nil)

// Extractor wraps go-readability to extract main content from HTML.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract processes raw HTML and returns the main content.
func (e *Extractor) Extract(rawHTML string, pageURL string) (*carlot.ExtractResult, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, carlot.Errorf(carlot.EINVALID, "empty HTML input")
	}

	var base *url.URL
	if pageURL != "" {
		u, err := url.Parse(pageURL)
		if err != nil || !u.IsAbs() {
			return nil, carlot.Errorf(carlot.EINVALID, "invalid page URL: %q", pageURL)
		}
		base = u
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), base)
	if err != nil {
		return nil, err
	}

	return &carlot.ExtractResult{
		Title:       article.Title,
		ContentHTML: article.Content,
		Text:        strings.Join(strings.Fields(article.TextContent), " "),
		LeadImage:   resolve(base, article.Image),
	}, nil
}

// resolve makes ref absolute against base. Unparseable references are
// dropped.
func resolve(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if base == nil {
		return u.String()
	}
	return base.ResolveReference(u).String()
}
