package mock

import (
	"context"

	"github.com/fwojciec/carlot"
)

var _ carlot.SitemapService = (*SitemapService)(nil)

// SitemapService is a mock implementation of carlot.SitemapService.
type SitemapService struct {
	DiscoverURLsFn func(ctx context.Context, baseURL string, filter *carlot.URLFilter) ([]string, error)
}

func (s *SitemapService) DiscoverURLs(ctx context.Context, baseURL string, filter *carlot.URLFilter) ([]string, error) {
	return s.DiscoverURLsFn(ctx, baseURL, filter)
}
