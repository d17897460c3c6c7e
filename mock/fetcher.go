package mock

import (
	"context"

	"github.com/fwojciec/carlot"
)

var _ carlot.Fetcher = (*Fetcher)(nil)

// Fetcher is a mock implementation of carlot.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, url string) (string, error)
	CloseFn func() error
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	return f.FetchFn(ctx, url)
}

func (f *Fetcher) Close() error {
	return f.CloseFn()
}

var _ carlot.ImageFetcher = (*ImageFetcher)(nil)

// ImageFetcher is a mock implementation of carlot.ImageFetcher.
type ImageFetcher struct {
	FetchImageFn func(ctx context.Context, url string) (*carlot.Image, error)
}

func (f *ImageFetcher) FetchImage(ctx context.Context, url string) (*carlot.Image, error) {
	return f.FetchImageFn(ctx, url)
}

var _ carlot.ImageStore = (*ImageStore)(nil)

// ImageStore is a mock implementation of carlot.ImageStore.
type ImageStore struct {
	SaveImageFn func(ctx context.Context, img *carlot.Image) (string, error)
}

func (s *ImageStore) SaveImage(ctx context.Context, img *carlot.Image) (string, error) {
	return s.SaveImageFn(ctx, img)
}

var _ carlot.DomainLimiter = (*DomainLimiter)(nil)

// DomainLimiter is a mock implementation of carlot.DomainLimiter.
type DomainLimiter struct {
	WaitFn func(ctx context.Context, domain string) error
}

func (l *DomainLimiter) Wait(ctx context.Context, domain string) error {
	return l.WaitFn(ctx, domain)
}
