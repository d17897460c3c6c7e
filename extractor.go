package carlot

// FieldExtractor recognizes structured fields in free text and DOM subtrees.
type FieldExtractor interface {
	// ExtractFields returns the best-scoring valid value per field found
	// in text. Fields without a valid candidate are absent.
	ExtractFields(text string) FieldMap

	// ExtractFromElement combines a whole-element pass with per-child
	// passes, child results taking precedence, and attaches harvested
	// image URLs under FieldImageURLs.
	ExtractFromElement(el Node, pageURL string) FieldMap
}

// ContainerCandidate is a DOM subtree hypothesized to hold one listing.
type ContainerCandidate struct {
	Node   Node
	Fields FieldMap

	// Score measures information density. Higher is more listing-like.
	Score float64

	// PageOrder is the position of the node among all enumerated
	// container elements in document order.
	PageOrder int
}

// ContainerFinder discovers listing containers on a page.
type ContainerFinder interface {
	// FindListingContainers returns candidates ranked by score descending
	// with earlier page position breaking ties. An empty page yields an
	// empty result.
	FindListingContainers(doc *Document) []ContainerCandidate
}

// ListingAssembler turns extraction results into canonical Listings.
type ListingAssembler interface {
	// AssembleListing builds a listing from one container on a results
	// page.
	AssembleListing(c ContainerCandidate, src *SourceConfig, pageURL string) (*Listing, error)

	// AssembleDetail builds a listing from the fields and text of a
	// single-listing page located at pageURL.
	AssembleDetail(fields FieldMap, text string, src *SourceConfig, pageURL string) (*Listing, error)
}

// ExtractResult holds the main content isolated from a detail page.
type ExtractResult struct {
	// Title is the page title extracted from metadata.
	Title string

	// ContentHTML is the main content as clean HTML.
	// Boilerplate (nav, footer, sidebar, ads) has been removed.
	ContentHTML string

	// Text is the whitespace-collapsed plain text of the main content.
	Text string

	// LeadImage is the absolute URL of the page's representative photo,
	// usually from og:image. Empty when the page declares none.
	LeadImage string
}

// ContentExtractor isolates the main content of a single-listing page.
type ContentExtractor interface {
	// Extract processes raw HTML and returns the main content. Relative
	// URLs are resolved against pageURL.
	Extract(html string, pageURL string) (*ExtractResult, error)
}
