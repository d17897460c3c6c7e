package mock

import "github.com/fwojciec/carlot"

var _ carlot.ContentExtractor = (*ContentExtractor)(nil)

// ContentExtractor is a mock implementation of carlot.ContentExtractor.
type ContentExtractor struct {
	ExtractFn func(html string, pageURL string) (*carlot.ExtractResult, error)
}

func (e *ContentExtractor) Extract(html string, pageURL string) (*carlot.ExtractResult, error) {
	return e.ExtractFn(html, pageURL)
}
