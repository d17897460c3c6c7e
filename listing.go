package carlot

import (
	"context"
	"time"
)

// Listing is the canonical record of one classified ad.
// Optional numeric fields are nil when the page did not yield them.
type Listing struct {
	ID                 string    `json:"id"`
	SourceSite         string    `json:"sourceSite"`
	SourceID           string    `json:"sourceId"`
	SourceURL          string    `json:"sourceUrl"`
	Title              string    `json:"title"`
	Price              *float64  `json:"price,omitempty"`
	Currency           string    `json:"currency,omitempty"`
	Year               *int      `json:"year,omitempty"`
	Make               string    `json:"make,omitempty"`
	Model              string    `json:"model,omitempty"`
	Mileage            *int      `json:"mileage,omitempty"`
	Location           string    `json:"location,omitempty"`
	FuelType           string    `json:"fuelType,omitempty"`
	Transmission       string    `json:"transmission,omitempty"`
	BodyType           string    `json:"bodyType,omitempty"`
	Color              string    `json:"color,omitempty"`
	EnginePower        *int      `json:"enginePower,omitempty"`
	EngineDisplacement *float64  `json:"engineDisplacement,omitempty"`
	ImageURLs          []string  `json:"imageUrls"`
	LocalImagePaths    []string  `json:"localImagePaths,omitempty"`
	Description        string    `json:"description,omitempty"`
	RawText            string    `json:"rawText,omitempty"`
	Score              float64   `json:"score"`
	ScrapedAt          time.Time `json:"scrapedAt"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// Validate returns an error if the listing contains invalid fields.
func (l *Listing) Validate() error {
	if l.SourceSite == "" {
		return Errorf(EINVALID, "listing source site required")
	}
	if l.SourceID == "" {
		return Errorf(EINVALID, "listing source ID required")
	}
	if l.SourceURL == "" {
		return Errorf(EINVALID, "listing source URL required")
	}
	return nil
}

// Key returns the identity a listing is upserted under.
func (l *Listing) Key() string {
	return l.SourceSite + "/" + l.SourceID
}

// ListingService represents a service for managing listings.
type ListingService interface {
	// UpsertListing inserts the listing or updates the existing row with
	// the same source site and source ID. On return ID, CreatedAt and
	// UpdatedAt are populated. Reports whether a new row was created.
	UpsertListing(ctx context.Context, listing *Listing) (created bool, err error)

	// FindListingByID retrieves a listing by ID.
	// Returns ENOTFOUND if listing does not exist.
	FindListingByID(ctx context.Context, id string) (*Listing, error)

	// FindListings retrieves listings matching the filter, newest first.
	FindListings(ctx context.Context, filter ListingFilter) ([]*Listing, error)

	// DeleteListing permanently removes a listing.
	// Returns ENOTFOUND if listing does not exist.
	DeleteListing(ctx context.Context, id string) error

	// DeleteListingsBySite removes all listings scraped from a site and
	// returns how many were removed.
	DeleteListingsBySite(ctx context.Context, site string) (int, error)
}

// ListingFilter represents a filter for FindListings.
type ListingFilter struct {
	ID         *string `json:"id"`
	SourceSite *string `json:"sourceSite"`
	Make       *string `json:"make"`
	Model      *string `json:"model"`
	MinYear    *int    `json:"minYear"`
	MaxYear    *int    `json:"maxYear"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}
