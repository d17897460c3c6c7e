package slog

import (
	"context"
	"log/slog"
	"regexp"
	"time"

	"github.com/fwojciec/carlot"
)

// Ensure LoggingSitemapService implements carlot.SitemapService.
var _ carlot.SitemapService = (*LoggingSitemapService)(nil)

// LoggingSitemapService records every sitemap discovery: the site, the URL
// filter applied, how many result pages survived it and how long it took.
type LoggingSitemapService struct {
	next   carlot.SitemapService
	logger *slog.Logger
}

// NewLoggingSitemapService creates a new LoggingSitemapService.
func NewLoggingSitemapService(next carlot.SitemapService, logger *slog.Logger) *LoggingSitemapService {
	return &LoggingSitemapService{next: next, logger: logger}
}

// DiscoverURLs delegates to the wrapped service and logs the result pages
// found.
func (s *LoggingSitemapService) DiscoverURLs(ctx context.Context, baseURL string, filter *carlot.URLFilter) (urls []string, err error) {
	defer func(begin time.Time) {
		attrs := []any{
			"site", carlot.SiteFromURL(baseURL),
			"url", baseURL,
			"pages", len(urls),
			"duration", time.Since(begin),
		}
		if filter != nil {
			attrs = append(attrs, slog.Group("filter",
				"include", patterns(filter.Include),
				"exclude", patterns(filter.Exclude),
			))
		}
		if err != nil {
			s.logger.Error("sitemap discovery", append(attrs, "err", err)...)
			return
		}
		s.logger.Info("sitemap discovery", attrs...)
	}(time.Now())
	return s.next.DiscoverURLs(ctx, baseURL, filter)
}

func patterns(res []*regexp.Regexp) []string {
	out := make([]string, 0, len(res))
	for _, re := range res {
		out = append(out, re.String())
	}
	return out
}
