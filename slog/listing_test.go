package slog_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/fwojciec/carlot"
	"github.com/fwojciec/carlot/mock"
	carslog "github.com/fwojciec/carlot/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingListingService_UpsertListing(t *testing.T) {
	t.Parallel()

	t.Run("logs identity and created flag", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.ListingService{
			UpsertListingFn: func(ctx context.Context, listing *carlot.Listing) (bool, error) {
				return true, nil
			},
		}

		created, err := carslog.NewLoggingListingService(inner, logger).UpsertListing(context.Background(),
			&carlot.Listing{SourceSite: "mobile.bg", SourceID: "11736"})

		require.NoError(t, err)
		assert.True(t, created)
		output := buf.String()
		assert.Contains(t, output, "upsert listing")
		assert.Contains(t, output, "site=mobile.bg")
		assert.Contains(t, output, "source_id=11736")
		assert.Contains(t, output, "created=true")
	})

	t.Run("logs error on failure", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.ListingService{
			UpsertListingFn: func(ctx context.Context, listing *carlot.Listing) (bool, error) {
				return false, errors.New("disk full")
			},
		}

		_, err := carslog.NewLoggingListingService(inner, logger).UpsertListing(context.Background(),
			&carlot.Listing{SourceSite: "mobile.bg", SourceID: "1"})

		require.Error(t, err)
		assert.Contains(t, buf.String(), "err=\"disk full\"")
	})
}

func TestLoggingListingService_Reads(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	inner := &mock.ListingService{
		FindListingByIDFn: func(ctx context.Context, id string) (*carlot.Listing, error) {
			return &carlot.Listing{ID: id}, nil
		},
		FindListingsFn: func(ctx context.Context, filter carlot.ListingFilter) ([]*carlot.Listing, error) {
			return []*carlot.Listing{{ID: "a"}}, nil
		},
	}
	svc := carslog.NewLoggingListingService(inner, logger)

	l, err := svc.FindListingByID(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", l.ID)

	ls, err := svc.FindListings(context.Background(), carlot.ListingFilter{})
	require.NoError(t, err)
	assert.Len(t, ls, 1)

	assert.Empty(t, buf.String())
}

func TestLoggingListingService_Deletes(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	inner := &mock.ListingService{
		DeleteListingFn: func(ctx context.Context, id string) error {
			return nil
		},
		DeleteListingsBySiteFn: func(ctx context.Context, site string) (int, error) {
			return 3, nil
		},
	}
	svc := carslog.NewLoggingListingService(inner, logger)

	require.NoError(t, svc.DeleteListing(context.Background(), "abc"))
	n, err := svc.DeleteListingsBySite(context.Background(), "cars.bg")
	require.NoError(t, err)

	assert.Equal(t, 3, n)
	output := buf.String()
	assert.Contains(t, output, "delete listing")
	assert.Contains(t, output, "id=abc")
	assert.Contains(t, output, "site=cars.bg")
	assert.Contains(t, output, "count=3")
}
