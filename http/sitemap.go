package http

import (
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/fwojciec/carlot"
)

// Ensure SitemapService implements carlot.SitemapService.
var _ carlot.SitemapService = (*SitemapService)(nil)

// DefaultMaxSitemapURLs bounds how many listing URLs one discovery returns.
const DefaultMaxSitemapURLs = 50000

// SitemapService discovers listing page URLs from website sitemaps via HTTP.
// Gzip-compressed sitemaps are supported. URLs are returned most recently
// modified first; entries without <lastmod> keep document order after them.
type SitemapService struct {
	client    *http.Client
	userAgent string
	maxURLs   int
}

// SitemapOption configures a SitemapService.
type SitemapOption func(*SitemapService)

// WithSitemapUserAgent sets the User-Agent header.
func WithSitemapUserAgent(ua string) SitemapOption {
	return func(s *SitemapService) {
		if ua != "" {
			s.userAgent = ua
		}
	}
}

// WithMaxURLs caps the number of returned URLs.
func WithMaxURLs(n int) SitemapOption {
	return func(s *SitemapService) {
		s.maxURLs = n
	}
}

// NewSitemapService creates a new SitemapService with the given HTTP client.
// If client is nil, http.DefaultClient is used.
func NewSitemapService(client *http.Client, opts ...SitemapOption) *SitemapService {
	if client == nil {
		client = http.DefaultClient
	}
	s := &SitemapService{
		client:    client,
		userAgent: DefaultUserAgent,
		maxURLs:   DefaultMaxSitemapURLs,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type sitemapEntry struct {
	loc     string
	lastmod time.Time
}

// DiscoverURLs finds listing URLs from a site's sitemaps.
// Returns an empty slice (not nil) if no sitemaps are found.
//
// When baseURL has a non-root path (e.g., https://cars.bg/obiavi/), only
// URLs with paths under that prefix are returned.
func (s *SitemapService) DiscoverURLs(ctx context.Context, baseURL string, filter *carlot.URLFilter) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	base, err := url.Parse(baseURL)
	if err != nil || !base.IsAbs() {
		return nil, carlot.Errorf(carlot.EINVALID, "invalid base URL: %q", baseURL)
	}

	pathPrefix := strings.TrimSuffix(base.Path, "/")

	root := *base
	root.Path, root.RawQuery, root.Fragment = "", "", ""

	sitemapURLs, err := s.findSitemapURLs(ctx, &root)
	if err != nil {
		return nil, err
	}

	var entries []sitemapEntry
	seenSitemaps := make(map[string]bool)
	seenURLs := make(map[string]bool)
	for _, sitemapURL := range sitemapURLs {
		found, err := s.processSitemap(ctx, sitemapURL, seenSitemaps)
		if err != nil {
			return nil, err
		}
		for _, e := range found {
			if seenURLs[e.loc] {
				continue
			}
			seenURLs[e.loc] = true
			if pathPrefix != "" && !matchesPathPrefix(e.loc, pathPrefix) {
				continue
			}
			if !filter.Match(e.loc) {
				continue
			}
			entries = append(entries, e)
		}
	}

	slices.SortStableFunc(entries, func(a, b sitemapEntry) int {
		return b.lastmod.Compare(a.lastmod)
	})

	urls := make([]string, 0, len(entries))
	for _, e := range entries {
		if s.maxURLs > 0 && len(urls) == s.maxURLs {
			break
		}
		urls = append(urls, e.loc)
	}
	return urls, nil
}

// matchesPathPrefix reports whether the URL path is prefix itself or lies
// under it; /obiavi matches /obiavi/bmw but not /obiavi-archive.
func matchesPathPrefix(rawURL, prefix string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	path := strings.TrimSuffix(parsed.Path, "/")
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// findSitemapURLs reads Sitemap: directives from robots.txt and falls back
// to /sitemap.xml.
func (s *SitemapService) findSitemapURLs(ctx context.Context, root *url.URL) ([]string, error) {
	robotsURL := root.ResolveReference(&url.URL{Path: "/robots.txt"})
	sitemaps, err := s.parseSitemapsFromRobots(ctx, robotsURL.String())
	if err == nil && len(sitemaps) > 0 {
		return sitemaps, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	sitemapURL := root.ResolveReference(&url.URL{Path: "/sitemap.xml"})
	exists, err := s.urlExists(ctx, sitemapURL.String())
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, nil
	}
	if exists {
		return []string{sitemapURL.String()}, nil
	}
	return nil, nil
}

func (s *SitemapService) parseSitemapsFromRobots(ctx context.Context, robotsURL string) ([]string, error) {
	body, err := s.open(ctx, robotsURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var sitemaps []string
	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		name, value, ok := strings.Cut(line, ":")
		if !ok || !strings.EqualFold(strings.TrimSpace(name), "sitemap") {
			continue
		}
		if value = strings.TrimSpace(value); value != "" {
			sitemaps = append(sitemaps, value)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading robots.txt: %w", err)
	}
	return sitemaps, nil
}

// processSitemap fetches and parses a sitemap, following sitemap indexes.
func (s *SitemapService) processSitemap(ctx context.Context, sitemapURL string, seen map[string]bool) ([]sitemapEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if seen[sitemapURL] {
		return nil, nil
	}
	seen[sitemapURL] = true

	body, err := s.open(ctx, sitemapURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(body); err != nil {
		return nil, fmt.Errorf("parsing sitemap XML %s: %w", sitemapURL, err)
	}

	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("empty sitemap XML: %s", sitemapURL)
	}

	if root.Tag != "sitemapindex" {
		return parseEntries(root, "url"), nil
	}

	var all []sitemapEntry
	for _, child := range parseEntries(root, "sitemap") {
		found, err := s.processSitemap(ctx, child.loc, seen)
		if err != nil {
			return nil, err
		}
		all = append(all, found...)
	}
	return all, nil
}

// parseEntries reads <loc> and <lastmod> from every child element named tag.
func parseEntries(root *etree.Element, tag string) []sitemapEntry {
	var entries []sitemapEntry
	for _, el := range root.SelectElements(tag) {
		loc := el.SelectElement("loc")
		if loc == nil {
			continue
		}
		e := sitemapEntry{loc: strings.TrimSpace(loc.Text())}
		if e.loc == "" {
			continue
		}
		if lm := el.SelectElement("lastmod"); lm != nil {
			e.lastmod = parseLastmod(strings.TrimSpace(lm.Text()))
		}
		entries = append(entries, e)
	}
	return entries
}

// parseLastmod accepts the W3C datetime forms used by sitemaps. Unparseable
// values sort last.
func parseLastmod(v string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04Z07:00", time.DateOnly} {
		if t, err := time.Parse(layout, v); err == nil {
			return t
		}
	}
	return time.Time{}
}

// open fetches targetURL and transparently gunzips compressed sitemaps.
func (s *SitemapService) open(ctx context.Context, targetURL string) (io.ReadCloser, error) {
	header := http.Header{}
	header.Set("User-Agent", s.userAgent)

	resp, err := get(ctx, s.client, targetURL, header)
	if err != nil {
		return nil, err
	}

	br := bufio.NewReader(resp.Body)
	magic, _ := br.Peek(2)
	if len(magic) < 2 || magic[0] != 0x1f || magic[1] != 0x8b {
		return readCloser{Reader: br, Closer: resp.Body}, nil
	}

	zr, err := gzip.NewReader(br)
	if err != nil {
		resp.Body.Close()
		return nil, fmt.Errorf("opening gzip sitemap %s: %w", targetURL, err)
	}
	return readCloser{Reader: zr, Closer: resp.Body}, nil
}

type readCloser struct {
	io.Reader
	io.Closer
}

// urlExists checks if a URL returns 200 OK.
func (s *SitemapService) urlExists(ctx context.Context, targetURL string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, targetURL, nil)
	if err != nil {
		return false, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return false, err
	}
	resp.Body.Close()

	return resp.StatusCode == http.StatusOK, nil
}
