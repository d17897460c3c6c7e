package carlot

import "context"

// ScrapeProgress reports progress while listing pages are processed.
type ScrapeProgress struct {
	URL       string
	Completed int
	Total     int
	Listings  int
	Error     error
}

// ScrapeProgressFunc is called as pages are processed.
type ScrapeProgressFunc func(ScrapeProgress)

// PageLinker finds pagination links on a listing page.
type PageLinker interface {
	// NextPage returns the absolute URL of the next results page, or ""
	// when the page has none.
	NextPage(html string, pageURL string) (string, error)
}

// ListingExporter writes listings to storage with atomic semantics.
// Save writes to a temporary location; Commit makes changes permanent;
// Abort discards pending changes.
type ListingExporter interface {
	Save(ctx context.Context, listing *Listing) error
	Commit() error
	Abort() error
}
