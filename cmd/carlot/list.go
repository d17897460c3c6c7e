package main

import (
	"fmt"
	"strconv"

	"github.com/fwojciec/carlot"
)

// Run executes the list command.
func (c *ListCmd) Run(deps *Dependencies) error {
	filter := carlot.ListingFilter{Limit: c.Limit}
	if c.Site != "" {
		filter.SourceSite = &c.Site
	}
	if c.Make != "" {
		filter.Make = &c.Make
	}
	if c.Model != "" {
		filter.Model = &c.Model
	}
	if c.MinYear > 0 {
		filter.MinYear = &c.MinYear
	}
	if c.MaxYear > 0 {
		filter.MaxYear = &c.MaxYear
	}

	listings, err := deps.Listings.FindListings(deps.Ctx, filter)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", carlot.ErrorMessage(err))
		return err
	}

	if c.JSON {
		if listings == nil {
			listings = []*carlot.Listing{}
		}
		return writeJSON(deps.Stdout, listings)
	}

	if len(listings) == 0 {
		fmt.Fprintln(deps.Stdout, "No listings found. Use 'carlot scrape' to collect some.")
		return nil
	}

	for _, l := range listings {
		fmt.Fprintf(deps.Stdout, "%s  %s  %s  %s\n", l.ID, l.SourceSite, l.Title, formatPrice(l))
	}

	return nil
}

// formatPrice renders the price with its currency, or "-" when unknown.
func formatPrice(l *carlot.Listing) string {
	if l.Price == nil {
		return "-"
	}
	p := strconv.FormatFloat(*l.Price, 'f', -1, 64)
	if l.Currency == "" {
		return p
	}
	return p + " " + l.Currency
}
