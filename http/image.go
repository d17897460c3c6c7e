package http

import (
	"bytes"
	"context"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/fwojciec/carlot"
	_ "golang.org/x/image/webp"
)

// DefaultMaxImageBytes caps the size of a downloaded photo.
const DefaultMaxImageBytes = 10 << 20

// DefaultMinImageSide rejects thumbnails, icons and tracking pixels.
const DefaultMinImageSide = 120

// Ensure ImageFetcher implements carlot.ImageFetcher at compile time.
var _ carlot.ImageFetcher = (*ImageFetcher)(nil)

// ImageFetcher downloads listing photos and checks that they decode.
// JPEG, PNG, GIF and WebP are recognized.
type ImageFetcher struct {
	client    *http.Client
	userAgent string
	maxBytes  int64
	minSide   int
}

// ImageOption configures an ImageFetcher.
type ImageOption func(*ImageFetcher)

// WithImageClient sets the HTTP client.
func WithImageClient(c *http.Client) ImageOption {
	return func(f *ImageFetcher) {
		f.client = c
	}
}

// WithImageUserAgent sets the User-Agent header.
func WithImageUserAgent(ua string) ImageOption {
	return func(f *ImageFetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithMaxImageBytes caps the accepted image size.
func WithMaxImageBytes(n int64) ImageOption {
	return func(f *ImageFetcher) {
		f.maxBytes = n
	}
}

// WithMinImageSide sets the smallest accepted width and height.
func WithMinImageSide(px int) ImageOption {
	return func(f *ImageFetcher) {
		f.minSide = px
	}
}

// NewImageFetcher creates an ImageFetcher.
func NewImageFetcher(opts ...ImageOption) *ImageFetcher {
	f := &ImageFetcher{
		client:    &http.Client{Timeout: 30 * time.Second},
		userAgent: DefaultUserAgent,
		maxBytes:  DefaultMaxImageBytes,
		minSide:   DefaultMinImageSide,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchImage downloads url and verifies it is a decodable image of at least
// the minimum size.
func (f *ImageFetcher) FetchImage(ctx context.Context, url string) (*carlot.Image, error) {
	header := http.Header{}
	header.Set("User-Agent", f.userAgent)
	header.Set("Accept", "image/webp,image/*;q=0.9")

	resp, err := get(ctx, f.client, url, header)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil && !strings.HasPrefix(mediaType, "image/") {
		return nil, carlot.Errorf(carlot.EINVALID, "not an image: %s (%s)", url, mediaType)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > f.maxBytes {
		return nil, carlot.Errorf(carlot.EINVALID, "image too large: %s", url)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, carlot.Errorf(carlot.EINVALID, "undecodable image %s: %v", url, err)
	}
	if cfg.Width < f.minSide || cfg.Height < f.minSide {
		return nil, carlot.Errorf(carlot.EINVALID, "image too small: %s (%dx%d)", url, cfg.Width, cfg.Height)
	}

	if contentType == "" {
		contentType = "image/" + format
	}
	return &carlot.Image{
		URL:         url,
		ContentType: contentType,
		Format:      format,
		Width:       cfg.Width,
		Height:      cfg.Height,
		Data:        data,
	}, nil
}
