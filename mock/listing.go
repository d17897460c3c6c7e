package mock

import (
	"context"

	"github.com/fwojciec/carlot"
)

var _ carlot.ListingService = (*ListingService)(nil)

// ListingService is a mock implementation of carlot.ListingService.
type ListingService struct {
	UpsertListingFn        func(ctx context.Context, listing *carlot.Listing) (bool, error)
	FindListingByIDFn      func(ctx context.Context, id string) (*carlot.Listing, error)
	FindListingsFn         func(ctx context.Context, filter carlot.ListingFilter) ([]*carlot.Listing, error)
	DeleteListingFn        func(ctx context.Context, id string) error
	DeleteListingsBySiteFn func(ctx context.Context, site string) (int, error)
}

func (s *ListingService) UpsertListing(ctx context.Context, listing *carlot.Listing) (bool, error) {
	return s.UpsertListingFn(ctx, listing)
}

func (s *ListingService) FindListingByID(ctx context.Context, id string) (*carlot.Listing, error) {
	return s.FindListingByIDFn(ctx, id)
}

func (s *ListingService) FindListings(ctx context.Context, filter carlot.ListingFilter) ([]*carlot.Listing, error) {
	return s.FindListingsFn(ctx, filter)
}

func (s *ListingService) DeleteListing(ctx context.Context, id string) error {
	return s.DeleteListingFn(ctx, id)
}

func (s *ListingService) DeleteListingsBySite(ctx context.Context, site string) (int, error) {
	return s.DeleteListingsBySiteFn(ctx, site)
}

var _ carlot.ListingExporter = (*ListingExporter)(nil)

// ListingExporter is a mock implementation of carlot.ListingExporter.
type ListingExporter struct {
	SaveFn   func(ctx context.Context, listing *carlot.Listing) error
	CommitFn func() error
	AbortFn  func() error
}

func (e *ListingExporter) Save(ctx context.Context, listing *carlot.Listing) error {
	return e.SaveFn(ctx, listing)
}

func (e *ListingExporter) Commit() error {
	return e.CommitFn()
}

func (e *ListingExporter) Abort() error {
	return e.AbortFn()
}
