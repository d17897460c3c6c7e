// Package crawl orchestrates scraping of classified-ad result pages.
// It coordinates fetching, container discovery, listing assembly, photo
// download and storage of listings.
package crawl

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"sync"
	"time"

	"github.com/fwojciec/carlot"
	"github.com/fwojciec/carlot/bloom"
	"golang.org/x/sync/errgroup"
)

// Deduplication filter sizing.
const (
	dedupeExpectedListings = 100000
	dedupeFalsePositive    = 0.001
)

// Scraper orchestrates scraping of listing pages.
//
// Fetcher, Parser, Finder and Assembler are required for ScrapePages.
// ScrapeDetail additionally needs Content and Fields. Every other
// collaborator is optional: without a Linker pagination is not followed,
// without Images or ImageFetcher photos are not downloaded, and without
// Listings nothing is persisted.
type Scraper struct {
	Fetcher      carlot.Fetcher
	Parser       carlot.Parser
	Finder       carlot.ContainerFinder
	Assembler    carlot.ListingAssembler
	Linker       carlot.PageLinker
	Fields       carlot.FieldExtractor
	Content      carlot.ContentExtractor
	Converter    carlot.Converter
	Sitemaps     carlot.SitemapService
	Listings     carlot.ListingService
	Exporter     carlot.ListingExporter
	ImageFetcher carlot.ImageFetcher
	Images       carlot.ImageStore
	RateLimiter  carlot.DomainLimiter

	// Concurrency is the number of pagination chains processed at once.
	Concurrency int

	// MaxPages caps the pages visited per start URL, the start page
	// included. Values below 2 disable pagination.
	MaxPages int

	// MaxImages caps the photos downloaded per listing.
	MaxImages int

	RetryDelays []time.Duration

	// Log receives retry notices. Optional.
	Log LogFunc
}

// Result holds the outcome of a scrape run.
type Result struct {
	Pages      int
	Failed     int
	Listings   int
	Created    int
	Updated    int
	Duplicates int
	Images     int
	ImageBytes int
}

// run holds the state shared by the workers of one ScrapePages call.
type run struct {
	src      *carlot.SourceConfig
	progress carlot.ScrapeProgressFunc
	seen     *bloom.Filter

	mu      sync.Mutex
	visited map[string]bool
	total   int
	result  Result
}

// ScrapePages scrapes the result pages at urls and the pages they paginate
// to. Each start URL is followed sequentially while separate start URLs are
// processed concurrently. A page that cannot be fetched or parsed is
// reported through progress and counted as failed without stopping the run.
// The returned error is non-nil only for invalid input or cancellation.
func (s *Scraper) ScrapePages(ctx context.Context, src *carlot.SourceConfig, urls []string, progress carlot.ScrapeProgressFunc) (*Result, error) {
	if src == nil {
		return nil, carlot.Errorf(carlot.EINVALID, "source config required")
	}
	if err := src.Validate(); err != nil {
		return nil, err
	}

	r := &run{
		src:      src,
		progress: progress,
		seen:     bloom.NewFilter(dedupeExpectedListings, dedupeFalsePositive),
		visited:  make(map[string]bool),
	}

	var starts []string
	for _, u := range urls {
		if !r.visited[u] {
			r.visited[u] = true
			starts = append(starts, u)
		}
	}
	r.total = len(starts)

	concurrency := s.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, start := range starts {
		g.Go(func() error {
			s.followChain(gctx, r, start)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return &r.result, err
	}
	return &r.result, nil
}

// followChain processes pageURL and then each next page the linker finds,
// up to MaxPages.
func (s *Scraper) followChain(ctx context.Context, r *run, pageURL string) {
	maxPages := max(s.MaxPages, 1)
	for page := 1; pageURL != "" && page <= maxPages; page++ {
		if ctx.Err() != nil {
			return
		}

		listings, next, err := s.scrapePage(ctx, r.src, pageURL)
		count := 0
		if err == nil {
			count, err = s.store(ctx, r, listings)
		}
		r.pageDone(pageURL, count, err)
		if err != nil {
			return
		}

		if page == maxPages || !r.claim(next) {
			return
		}
		pageURL = next
	}
}

// scrapePage fetches one result page and assembles its listings. The next
// page URL is "" when there is none or no linker is configured.
func (s *Scraper) scrapePage(ctx context.Context, src *carlot.SourceConfig, pageURL string) ([]*carlot.Listing, string, error) {
	html, err := s.fetch(ctx, pageURL)
	if err != nil {
		return nil, "", err
	}

	doc, err := s.Parser.Parse(html, pageURL)
	if err != nil {
		return nil, "", fmt.Errorf("parse %s: %w", pageURL, err)
	}

	var listings []*carlot.Listing
	for _, c := range SelectListings(s.Finder.FindListingContainers(doc)) {
		l, err := s.Assembler.AssembleListing(c, src, pageURL)
		if err != nil {
			continue
		}
		listings = append(listings, l)
	}

	var next string
	if s.Linker != nil {
		// A broken pagination block never fails the page itself.
		next, _ = s.Linker.NextPage(html, pageURL)
	}
	return listings, next, nil
}

// store deduplicates, downloads photos for and persists the listings of one
// page. It returns how many new-to-this-run listings were stored.
func (s *Scraper) store(ctx context.Context, r *run, listings []*carlot.Listing) (int, error) {
	stored := 0
	for _, l := range listings {
		if r.seen.Seen(l.Key()) {
			r.mu.Lock()
			r.result.Duplicates++
			r.mu.Unlock()
			continue
		}

		images, size := s.downloadImages(ctx, l)

		created, err := s.save(ctx, l)
		if err != nil {
			return stored, err
		}
		stored++

		r.mu.Lock()
		r.result.Listings++
		r.result.Images += images
		r.result.ImageBytes += size
		if created {
			r.result.Created++
		} else if s.Listings != nil {
			r.result.Updated++
		}
		r.mu.Unlock()
	}
	return stored, nil
}

// pageDone records a processed page and reports progress.
func (r *run) pageDone(pageURL string, listings int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.result.Pages++
	if err != nil {
		r.result.Failed++
	}
	if r.progress != nil {
		r.progress(carlot.ScrapeProgress{
			URL:       pageURL,
			Completed: r.result.Pages,
			Total:     r.total,
			Listings:  listings,
			Error:     err,
		})
	}
}

// claim marks pageURL as visited. It reports false when the URL is empty or
// was already claimed by any chain of this run.
func (r *run) claim(pageURL string) bool {
	if pageURL == "" {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.visited[pageURL] {
		return false
	}
	r.visited[pageURL] = true
	r.total++
	return true
}

// ScrapeDetail scrapes a single-listing page. The main content is isolated
// first so that navigation, related ads and footers do not contribute
// fields. The page title names the listing and the content, converted to
// Markdown, becomes its description.
func (s *Scraper) ScrapeDetail(ctx context.Context, src *carlot.SourceConfig, pageURL string) (*carlot.Listing, error) {
	if src == nil {
		return nil, carlot.Errorf(carlot.EINVALID, "source config required")
	}
	if err := src.Validate(); err != nil {
		return nil, err
	}

	html, err := s.fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	content, err := s.Content.Extract(html, pageURL)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", pageURL, err)
	}

	doc, err := s.Parser.Parse(content.ContentHTML, pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", pageURL, err)
	}
	fields := s.Fields.ExtractFromElement(doc.Root, pageURL)

	l, err := s.Assembler.AssembleDetail(fields, content.Text, src, pageURL)
	if err != nil {
		return nil, err
	}
	if content.Title != "" {
		l.Title = content.Title
	}
	if content.LeadImage != "" && !slices.Contains(l.ImageURLs, content.LeadImage) {
		l.ImageURLs = append([]string{content.LeadImage}, l.ImageURLs...)
	}
	if s.Converter != nil {
		md, err := s.Converter.Convert(content.ContentHTML)
		if err != nil {
			return nil, fmt.Errorf("convert %s: %w", pageURL, err)
		}
		l.Description = md
	}

	s.downloadImages(ctx, l)
	if _, err := s.save(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

// DiscoverPages lists result pages of a site from its sitemaps.
func (s *Scraper) DiscoverPages(ctx context.Context, baseURL string, filter *carlot.URLFilter) ([]string, error) {
	if s.Sitemaps == nil {
		return nil, carlot.Errorf(carlot.EINVALID, "sitemap discovery not configured")
	}
	urls, err := s.Sitemaps.DiscoverURLs(ctx, baseURL, filter)
	if err != nil {
		return nil, fmt.Errorf("sitemap discovery: %w", err)
	}
	return urls, nil
}

// fetch waits for the host's rate limit and fetches rawURL with retries.
func (s *Scraper) fetch(ctx context.Context, rawURL string) (string, error) {
	if err := s.wait(ctx, rawURL); err != nil {
		return "", err
	}
	delays := s.RetryDelays
	if delays == nil {
		delays = DefaultRetryDelays()
	}
	return FetchWithRetryDelays(ctx, rawURL, s.Fetcher.Fetch, s.Log, delays)
}

func (s *Scraper) wait(ctx context.Context, rawURL string) error {
	if s.RateLimiter == nil {
		return nil
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return carlot.Errorf(carlot.EINVALID, "invalid URL: %q", rawURL)
	}
	return s.RateLimiter.Wait(ctx, u.Hostname())
}

// downloadImages fetches up to MaxImages photos of l into the image store
// and records their local paths. Photos that fail to download or decode are
// skipped. It returns the number of stored photos and their total size.
func (s *Scraper) downloadImages(ctx context.Context, l *carlot.Listing) (int, int) {
	if s.ImageFetcher == nil || s.Images == nil || s.MaxImages <= 0 {
		return 0, 0
	}

	count, size := 0, 0
	for _, imageURL := range l.ImageURLs {
		if count >= s.MaxImages || ctx.Err() != nil {
			break
		}
		if err := s.wait(ctx, imageURL); err != nil {
			continue
		}
		img, err := s.ImageFetcher.FetchImage(ctx, imageURL)
		if err != nil {
			continue
		}
		path, err := s.Images.SaveImage(ctx, img)
		if err != nil {
			continue
		}
		l.LocalImagePaths = append(l.LocalImagePaths, path)
		count++
		size += len(img.Data)
	}
	return count, size
}

// save upserts and exports l. It reports whether a new row was created.
func (s *Scraper) save(ctx context.Context, l *carlot.Listing) (bool, error) {
	var created bool
	if s.Listings != nil {
		var err error
		if created, err = s.Listings.UpsertListing(ctx, l); err != nil {
			return false, fmt.Errorf("save listing %s: %w", l.Key(), err)
		}
	}
	if s.Exporter != nil {
		if err := s.Exporter.Save(ctx, l); err != nil {
			return created, fmt.Errorf("export listing %s: %w", l.Key(), err)
		}
	}
	return created, nil
}
