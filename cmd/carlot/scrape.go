package main

import (
	"fmt"
	"regexp"

	"github.com/fwojciec/carlot"
	"github.com/fwojciec/carlot/crawl"
)

// Run executes the scrape command.
func (c *ScrapeCmd) Run(deps *Dependencies) error {
	if deps.Scraper == nil {
		return carlot.Errorf(carlot.EINTERNAL, "scraper not configured")
	}

	src, err := c.Source(c.URLs[0])
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", carlot.ErrorMessage(err))
		return err
	}

	// Compile filters to URLFilter (validates regex patterns early)
	var urlFilter *carlot.URLFilter
	if len(c.Filter) > 0 {
		urlFilter = &carlot.URLFilter{}
		for _, pattern := range c.Filter {
			re, err := regexp.Compile(pattern)
			if err != nil {
				fmt.Fprintf(deps.Stderr, "error: invalid filter pattern %q: %v\n", pattern, err)
				return err
			}
			urlFilter.Include = append(urlFilter.Include, re)
		}
	}

	urls, err := c.pageURLs(deps, urlFilter)
	if err != nil {
		return err
	}
	if len(urls) == 0 {
		fmt.Fprintln(deps.Stdout, "No pages to scrape.")
		return nil
	}

	if c.Detail {
		err = c.scrapeDetails(deps, src, urls)
	} else {
		err = c.scrapePages(deps, src, urls)
	}

	if deps.Exporter != nil {
		if err != nil {
			_ = deps.Exporter.Abort()
			return err
		}
		if err := deps.Exporter.Commit(); err != nil {
			fmt.Fprintf(deps.Stderr, "error: failed to write export: %v\n", err)
			return err
		}
	}
	return err
}

// pageURLs returns the pages to scrape: the given URLs, or the pages listed
// in their sitemaps with --sitemap.
func (c *ScrapeCmd) pageURLs(deps *Dependencies, filter *carlot.URLFilter) ([]string, error) {
	if !c.Sitemap {
		var urls []string
		for _, u := range c.URLs {
			if filter.Match(u) {
				urls = append(urls, u)
			}
		}
		return urls, nil
	}

	var urls []string
	for _, base := range c.URLs {
		found, err := deps.Scraper.DiscoverPages(deps.Ctx, base, filter)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s: %v\n", base, err)
			return nil, err
		}
		fmt.Fprintf(deps.Stdout, "  Found %d pages on %s\n", len(found), base)
		urls = append(urls, found...)
	}
	return urls, nil
}

func (c *ScrapeCmd) scrapePages(deps *Dependencies, src *carlot.SourceConfig, urls []string) error {
	if c.Concurrency > 0 {
		deps.Scraper.Concurrency = c.Concurrency
	}

	progress := func(p carlot.ScrapeProgress) {
		if p.Error != nil {
			fmt.Fprintf(deps.Stderr, "  skip %s: %v\n", p.URL, p.Error)
			return
		}
		fmt.Fprintf(deps.Stdout, "  [%d/%d] %s: %d listings\n",
			p.Completed, p.Total, crawl.DisplayURL(p.URL, 60), p.Listings)
	}

	result, err := deps.Scraper.ScrapePages(deps.Ctx, src, urls, progress)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error scraping: %v\n", err)
		return err
	}

	fmt.Fprintf(deps.Stdout, "Scraped %d pages (%d failed): %d listings (%d new, %d updated, %d duplicates)\n",
		result.Pages, result.Failed, result.Listings, result.Created, result.Updated, result.Duplicates)
	if result.Images > 0 {
		fmt.Fprintf(deps.Stdout, "  Saved %d photos (%s)\n", result.Images, crawl.FormatBytes(result.ImageBytes))
	}
	return nil
}

func (c *ScrapeCmd) scrapeDetails(deps *Dependencies, src *carlot.SourceConfig, urls []string) error {
	var saved, failed int
	for _, u := range urls {
		l, err := deps.Scraper.ScrapeDetail(deps.Ctx, src, u)
		if err != nil {
			if deps.Ctx.Err() != nil {
				return deps.Ctx.Err()
			}
			fmt.Fprintf(deps.Stderr, "  skip %s: %v\n", u, err)
			failed++
			continue
		}
		fmt.Fprintf(deps.Stdout, "  %s  %s\n", l.SourceID, l.Title)
		saved++
	}
	fmt.Fprintf(deps.Stdout, "Scraped %d listings (%d failed)\n", saved, failed)
	return nil
}
