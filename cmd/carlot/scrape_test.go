package main_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/fwojciec/carlot"
	main "github.com/fwojciec/carlot/cmd/carlot"
	"github.com/fwojciec/carlot/crawl"
	"github.com/fwojciec/carlot/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestScraper returns a scraper whose pages each hold one listing named
// after the page path.
func newTestScraper(saved *[]*carlot.Listing) *crawl.Scraper {
	return &crawl.Scraper{
		Fetcher: &mock.Fetcher{
			FetchFn: func(_ context.Context, url string) (string, error) {
				if strings.Contains(url, "broken") {
					return "", errors.New("HTTP 500 for " + url)
				}
				return url, nil
			},
		},
		Parser: &mock.Parser{
			ParseFn: func(html string, pageURL string) (*carlot.Document, error) {
				return &carlot.Document{Root: mock.El("html", html), URL: pageURL}, nil
			},
		},
		Finder: &mock.ContainerFinder{
			FindListingContainersFn: func(doc *carlot.Document) []carlot.ContainerCandidate {
				return []carlot.ContainerCandidate{{Node: mock.El("div", doc.URL)}}
			},
		},
		Assembler: &mock.ListingAssembler{
			AssembleListingFn: func(c carlot.ContainerCandidate, src *carlot.SourceConfig, pageURL string) (*carlot.Listing, error) {
				return &carlot.Listing{
					SourceSite: src.Site,
					SourceID:   pageURL[strings.LastIndex(pageURL, "/")+1:],
					SourceURL:  pageURL,
					Make:       src.DefaultMake,
				}, nil
			},
			AssembleDetailFn: func(_ carlot.FieldMap, _ string, src *carlot.SourceConfig, pageURL string) (*carlot.Listing, error) {
				return &carlot.Listing{SourceSite: src.Site, SourceID: "778", SourceURL: pageURL}, nil
			},
		},
		Content: &mock.ContentExtractor{
			ExtractFn: func(html string, _ string) (*carlot.ExtractResult, error) {
				return &carlot.ExtractResult{Title: "Audi A4 Avant", ContentHTML: html, Text: html}, nil
			},
		},
		Fields: &mock.FieldExtractor{
			ExtractFromElementFn: func(carlot.Node, string) carlot.FieldMap { return carlot.FieldMap{} },
		},
		Sitemaps: &mock.SitemapService{
			DiscoverURLsFn: func(_ context.Context, baseURL string, filter *carlot.URLFilter) ([]string, error) {
				var urls []string
				for _, u := range []string{baseURL + "/obiavi/bmw", baseURL + "/obiavi/audi", baseURL + "/news/1"} {
					if filter.Match(u) {
						urls = append(urls, u)
					}
				}
				return urls, nil
			},
		},
		Listings: &mock.ListingService{
			UpsertListingFn: func(_ context.Context, l *carlot.Listing) (bool, error) {
				*saved = append(*saved, l)
				return true, nil
			},
		},
		Concurrency: 1,
		RetryDelays: []time.Duration{},
	}
}

func TestScrapeCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("scrapes result pages and prints summary", func(t *testing.T) {
		t.Parallel()

		var saved []*carlot.Listing
		stdout := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:     context.Background(),
			Stdout:  stdout,
			Stderr:  &bytes.Buffer{},
			Scraper: newTestScraper(&saved),
		}

		cmd := &main.ScrapeCmd{
			SourceFlags: main.SourceFlags{Make: "BMW"},
			URLs:        []string{"https://www.mobile.bg/p1", "https://www.mobile.bg/p2"},
		}
		err := cmd.Run(deps)

		require.NoError(t, err)
		require.Len(t, saved, 2)
		assert.Equal(t, "mobile.bg", saved[0].SourceSite)
		assert.Equal(t, "BMW", saved[0].Make)
		assert.Contains(t, stdout.String(), "Scraped 2 pages (0 failed): 2 listings (2 new, 0 updated, 0 duplicates)")
	})

	t.Run("reports failed pages on stderr", func(t *testing.T) {
		t.Parallel()

		var saved []*carlot.Listing
		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:     context.Background(),
			Stdout:  stdout,
			Stderr:  stderr,
			Scraper: newTestScraper(&saved),
		}

		cmd := &main.ScrapeCmd{URLs: []string{"https://cars.bg/broken"}}
		err := cmd.Run(deps)

		require.NoError(t, err)
		assert.Contains(t, stderr.String(), "skip https://cars.bg/broken")
		assert.Contains(t, stdout.String(), "(1 failed)")
	})

	t.Run("uses explicit site", func(t *testing.T) {
		t.Parallel()

		var saved []*carlot.Listing
		deps := &main.Dependencies{
			Ctx:     context.Background(),
			Stdout:  &bytes.Buffer{},
			Stderr:  &bytes.Buffer{},
			Scraper: newTestScraper(&saved),
		}

		cmd := &main.ScrapeCmd{
			SourceFlags: main.SourceFlags{Site: "mobile"},
			URLs:        []string{"https://www.mobile.bg/p1"},
		}
		require.NoError(t, cmd.Run(deps))

		require.Len(t, saved, 1)
		assert.Equal(t, "mobile", saved[0].SourceSite)
	})

	t.Run("discovers pages from sitemap with filter", func(t *testing.T) {
		t.Parallel()

		var saved []*carlot.Listing
		stdout := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:     context.Background(),
			Stdout:  stdout,
			Stderr:  &bytes.Buffer{},
			Scraper: newTestScraper(&saved),
		}

		cmd := &main.ScrapeCmd{
			URLs:    []string{"https://www.mobile.bg"},
			Sitemap: true,
			Filter:  []string{`/obiavi/`},
		}
		err := cmd.Run(deps)

		require.NoError(t, err)
		assert.Contains(t, stdout.String(), "Found 2 pages on https://www.mobile.bg")
		assert.Len(t, saved, 2)
	})

	t.Run("filters given URLs without sitemap", func(t *testing.T) {
		t.Parallel()

		var saved []*carlot.Listing
		stdout := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:     context.Background(),
			Stdout:  stdout,
			Stderr:  &bytes.Buffer{},
			Scraper: newTestScraper(&saved),
		}

		cmd := &main.ScrapeCmd{
			URLs:   []string{"https://cars.bg/news/1"},
			Filter: []string{`/offers/`},
		}
		err := cmd.Run(deps)

		require.NoError(t, err)
		assert.Contains(t, stdout.String(), "No pages to scrape")
		assert.Empty(t, saved)
	})

	t.Run("rejects invalid filter", func(t *testing.T) {
		t.Parallel()

		var saved []*carlot.Listing
		stderr := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:     context.Background(),
			Stdout:  &bytes.Buffer{},
			Stderr:  stderr,
			Scraper: newTestScraper(&saved),
		}

		cmd := &main.ScrapeCmd{URLs: []string{"https://cars.bg"}, Filter: []string{"[invalid"}}
		err := cmd.Run(deps)

		require.Error(t, err)
		assert.Contains(t, stderr.String(), "invalid filter pattern")
	})

	t.Run("rejects invalid ID pattern", func(t *testing.T) {
		t.Parallel()

		var saved []*carlot.Listing
		deps := &main.Dependencies{
			Ctx:     context.Background(),
			Stdout:  &bytes.Buffer{},
			Stderr:  &bytes.Buffer{},
			Scraper: newTestScraper(&saved),
		}

		cmd := &main.ScrapeCmd{
			SourceFlags: main.SourceFlags{IDPattern: `obiava-\d+`},
			URLs:        []string{"https://www.mobile.bg/p1"},
		}
		err := cmd.Run(deps)

		assert.Equal(t, carlot.EINVALID, carlot.ErrorCode(err))
		assert.Empty(t, saved)
	})

	t.Run("scrapes detail pages", func(t *testing.T) {
		t.Parallel()

		var saved []*carlot.Listing
		stdout := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:     context.Background(),
			Stdout:  stdout,
			Stderr:  &bytes.Buffer{},
			Scraper: newTestScraper(&saved),
		}

		cmd := &main.ScrapeCmd{URLs: []string{"https://cars.bg/offer/778"}, Detail: true}
		err := cmd.Run(deps)

		require.NoError(t, err)
		require.Len(t, saved, 1)
		assert.Equal(t, "Audi A4 Avant", saved[0].Title)
		assert.Contains(t, stdout.String(), "778  Audi A4 Avant")
		assert.Contains(t, stdout.String(), "Scraped 1 listings (0 failed)")
	})

	t.Run("commits export after scraping", func(t *testing.T) {
		t.Parallel()

		var saved []*carlot.Listing
		var exported []string
		var committed bool
		exporter := &mock.ListingExporter{
			SaveFn: func(_ context.Context, l *carlot.Listing) error {
				exported = append(exported, l.SourceID)
				return nil
			},
			CommitFn: func() error {
				committed = true
				return nil
			},
			AbortFn: func() error { return nil },
		}
		scraper := newTestScraper(&saved)
		scraper.Exporter = exporter
		deps := &main.Dependencies{
			Ctx:      context.Background(),
			Stdout:   &bytes.Buffer{},
			Stderr:   &bytes.Buffer{},
			Scraper:  scraper,
			Exporter: exporter,
		}

		cmd := &main.ScrapeCmd{URLs: []string{"https://cars.bg/offers"}}
		err := cmd.Run(deps)

		require.NoError(t, err)
		assert.True(t, committed)
		assert.Equal(t, []string{"offers"}, exported)
	})

	t.Run("aborts export when scraping is canceled", func(t *testing.T) {
		t.Parallel()

		var saved []*carlot.Listing
		var aborted, committed bool
		exporter := &mock.ListingExporter{
			SaveFn:   func(context.Context, *carlot.Listing) error { return nil },
			CommitFn: func() error { committed = true; return nil },
			AbortFn:  func() error { aborted = true; return nil },
		}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		deps := &main.Dependencies{
			Ctx:      ctx,
			Stdout:   &bytes.Buffer{},
			Stderr:   &bytes.Buffer{},
			Scraper:  newTestScraper(&saved),
			Exporter: exporter,
		}

		cmd := &main.ScrapeCmd{URLs: []string{"https://cars.bg/offers"}}
		err := cmd.Run(deps)

		require.ErrorIs(t, err, context.Canceled)
		assert.True(t, aborted)
		assert.False(t, committed)
	})
}
