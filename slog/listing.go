package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/carlot"
)

// Ensure LoggingListingService implements carlot.ListingService.
var _ carlot.ListingService = (*LoggingListingService)(nil)

// LoggingListingService wraps a ListingService with debug logging of
// writes. Reads are delegated silently.
type LoggingListingService struct {
	next   carlot.ListingService
	logger *slog.Logger
}

// NewLoggingListingService creates a new LoggingListingService.
func NewLoggingListingService(next carlot.ListingService, logger *slog.Logger) *LoggingListingService {
	return &LoggingListingService{next: next, logger: logger}
}

func (s *LoggingListingService) UpsertListing(ctx context.Context, listing *carlot.Listing) (created bool, err error) {
	defer func(begin time.Time) {
		s.logger.Info("upsert listing",
			"site", listing.SourceSite,
			"source_id", listing.SourceID,
			"created", created,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.UpsertListing(ctx, listing)
}

func (s *LoggingListingService) FindListingByID(ctx context.Context, id string) (*carlot.Listing, error) {
	return s.next.FindListingByID(ctx, id)
}

func (s *LoggingListingService) FindListings(ctx context.Context, filter carlot.ListingFilter) ([]*carlot.Listing, error) {
	return s.next.FindListings(ctx, filter)
}

func (s *LoggingListingService) DeleteListing(ctx context.Context, id string) (err error) {
	defer func(begin time.Time) {
		s.logger.Info("delete listing",
			"id", id,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.DeleteListing(ctx, id)
}

func (s *LoggingListingService) DeleteListingsBySite(ctx context.Context, site string) (n int, err error) {
	defer func(begin time.Time) {
		s.logger.Info("delete listings",
			"site", site,
			"count", n,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.DeleteListingsBySite(ctx, site)
}
