package carlot

import "context"

// Fetcher retrieves listing page HTML.
// Implementations may use a plain HTTP client or a headless browser for
// sites that render results with JavaScript.
type Fetcher interface {
	// Fetch returns the HTML of the page at url.
	// The context controls timeout and cancellation.
	Fetch(ctx context.Context, url string) (html string, err error)

	// Close releases transport resources.
	Close() error
}

// Image is a downloaded and validated photo.
type Image struct {
	URL         string
	ContentType string
	Format      string
	Width       int
	Height      int
	Data        []byte
}

// ImageFetcher downloads listing photos.
type ImageFetcher interface {
	// FetchImage downloads the URL and verifies it decodes as an image.
	// Returns EINVALID when the response is not a usable image.
	FetchImage(ctx context.Context, url string) (*Image, error)
}

// ImageStore persists images under content-derived names.
type ImageStore interface {
	// SaveImage stores the image and returns its local path. Saving the
	// same bytes twice returns the same path.
	SaveImage(ctx context.Context, img *Image) (path string, err error)
}
