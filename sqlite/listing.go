package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fwojciec/carlot"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ carlot.ListingService = (*ListingService)(nil)

const listingColumns = `id, source_site, source_id, source_url, title, price, currency, year,
	make, model, mileage, location, fuel_type, transmission, body_type, color,
	engine_power, engine_displacement, image_urls, local_image_paths, description,
	raw_text, score, scraped_at, created_at, updated_at`

// ListingService implements carlot.ListingService using SQLite.
type ListingService struct {
	db *DB
}

// NewListingService creates a new ListingService.
func NewListingService(db *DB) *ListingService {
	return &ListingService{db: db}
}

// UpsertListing inserts the listing or updates the row with the same source
// site and source ID. Stored local image paths survive an update that carries
// none.
func (s *ListingService) UpsertListing(ctx context.Context, listing *carlot.Listing) (bool, error) {
	if err := listing.Validate(); err != nil {
		return false, err
	}

	imageURLs, err := encodeStrings(listing.ImageURLs)
	if err != nil {
		return false, err
	}
	localPaths, err := encodeStrings(listing.LocalImagePaths)
	if err != nil {
		return false, err
	}

	newID := uuid.New().String()
	now := time.Now().UTC()
	scrapedAt := listing.ScrapedAt
	if scrapedAt.IsZero() {
		scrapedAt = now
	}

	var id, createdAt string
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO listings (`+listingColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (source_site, source_id) DO UPDATE SET
			source_url = excluded.source_url,
			title = excluded.title,
			price = excluded.price,
			currency = excluded.currency,
			year = excluded.year,
			make = excluded.make,
			model = excluded.model,
			mileage = excluded.mileage,
			location = excluded.location,
			fuel_type = excluded.fuel_type,
			transmission = excluded.transmission,
			body_type = excluded.body_type,
			color = excluded.color,
			engine_power = excluded.engine_power,
			engine_displacement = excluded.engine_displacement,
			image_urls = excluded.image_urls,
			local_image_paths = CASE
				WHEN excluded.local_image_paths = '[]' THEN listings.local_image_paths
				ELSE excluded.local_image_paths
			END,
			description = excluded.description,
			raw_text = excluded.raw_text,
			score = excluded.score,
			scraped_at = excluded.scraped_at,
			updated_at = excluded.updated_at
		RETURNING id, created_at
	`, newID, listing.SourceSite, listing.SourceID, listing.SourceURL, listing.Title,
		nullFloat(listing.Price), listing.Currency, nullInt(listing.Year),
		listing.Make, listing.Model, nullInt(listing.Mileage), listing.Location,
		listing.FuelType, listing.Transmission, listing.BodyType, listing.Color,
		nullInt(listing.EnginePower), nullFloat(listing.EngineDisplacement),
		imageURLs, localPaths, listing.Description, listing.RawText, listing.Score,
		scrapedAt.UTC().Format(time.RFC3339), now.Format(time.RFC3339), now.Format(time.RFC3339),
	).Scan(&id, &createdAt)
	if err != nil {
		return false, err
	}

	listing.ID = id
	listing.ScrapedAt = scrapedAt
	listing.UpdatedAt = now
	if listing.CreatedAt, err = parseRFC3339(createdAt, "created_at"); err != nil {
		return false, err
	}
	return id == newID, nil
}

// FindListingByID retrieves a listing by ID.
func (s *ListingService) FindListingByID(ctx context.Context, id string) (*carlot.Listing, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+listingColumns+` FROM listings WHERE id = ?`, id)

	listing, err := scanListing(row)
	if err == sql.ErrNoRows {
		return nil, carlot.Errorf(carlot.ENOTFOUND, "listing not found")
	}
	if err != nil {
		return nil, err
	}
	return listing, nil
}

// FindListings retrieves listings matching the filter, most recently scraped
// first.
func (s *ListingService) FindListings(ctx context.Context, filter carlot.ListingFilter) ([]*carlot.Listing, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT " + listingColumns + " FROM listings WHERE 1=1")

	if filter.ID != nil {
		query.WriteString(" AND id = ?")
		args = append(args, *filter.ID)
	}
	if filter.SourceSite != nil {
		query.WriteString(" AND source_site = ?")
		args = append(args, *filter.SourceSite)
	}
	if filter.Make != nil {
		query.WriteString(" AND make = ? COLLATE NOCASE")
		args = append(args, *filter.Make)
	}
	if filter.Model != nil {
		query.WriteString(" AND model = ? COLLATE NOCASE")
		args = append(args, *filter.Model)
	}
	if filter.MinYear != nil {
		query.WriteString(" AND year >= ?")
		args = append(args, *filter.MinYear)
	}
	if filter.MaxYear != nil {
		query.WriteString(" AND year <= ?")
		args = append(args, *filter.MaxYear)
	}

	query.WriteString(" ORDER BY scraped_at DESC, source_site, source_id")

	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var listings []*carlot.Listing
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, listing)
	}
	return listings, rows.Err()
}

// DeleteListing permanently removes a listing.
func (s *ListingService) DeleteListing(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM listings WHERE id = ?", id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return carlot.Errorf(carlot.ENOTFOUND, "listing not found")
	}
	return nil
}

// DeleteListingsBySite removes all listings of a site.
func (s *ListingService) DeleteListingsBySite(ctx context.Context, site string) (int, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM listings WHERE source_site = ?", site)
	if err != nil {
		return 0, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(rows), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanListing(row scanner) (*carlot.Listing, error) {
	var l carlot.Listing
	var price, displacement sql.NullFloat64
	var year, mileage, power sql.NullInt64
	var imageURLs, localPaths string
	var scrapedAt, createdAt, updatedAt string

	if err := row.Scan(&l.ID, &l.SourceSite, &l.SourceID, &l.SourceURL, &l.Title,
		&price, &l.Currency, &year, &l.Make, &l.Model, &mileage, &l.Location,
		&l.FuelType, &l.Transmission, &l.BodyType, &l.Color, &power, &displacement,
		&imageURLs, &localPaths, &l.Description, &l.RawText, &l.Score,
		&scrapedAt, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	l.Price = floatPtr(price)
	l.EngineDisplacement = floatPtr(displacement)
	l.Year = intPtr(year)
	l.Mileage = intPtr(mileage)
	l.EnginePower = intPtr(power)

	var err error
	if l.ImageURLs, err = decodeStrings(imageURLs, "image_urls"); err != nil {
		return nil, err
	}
	if l.LocalImagePaths, err = decodeStrings(localPaths, "local_image_paths"); err != nil {
		return nil, err
	}
	if l.ScrapedAt, err = parseRFC3339(scrapedAt, "scraped_at"); err != nil {
		return nil, err
	}
	if l.CreatedAt, err = parseRFC3339(createdAt, "created_at"); err != nil {
		return nil, err
	}
	if l.UpdatedAt, err = parseRFC3339(updatedAt, "updated_at"); err != nil {
		return nil, err
	}
	return &l, nil
}

func encodeStrings(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	b, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("failed to encode list: %w", err)
	}
	return string(b), nil
}

func decodeStrings(value, fieldName string) ([]string, error) {
	out := []string{}
	if err := json.Unmarshal([]byte(value), &out); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", fieldName, err)
	}
	return out, nil
}
