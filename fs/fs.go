// Package fs provides file-based storage for listings and their photos.
package fs

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fwojciec/carlot"
)

// ListingPath returns the relative path of a listing file:
// <site>/<sourceID><ext>. Characters unsafe in file names are replaced.
// Example: mobile.bg, 11736?x=1 → mobile.bg/11736_x_1.json
func ListingPath(l *carlot.Listing, ext string) string {
	return filepath.Join(sanitize(l.SourceSite), sanitize(l.SourceID)+ext)
}

func sanitize(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-', r == '_':
			return r
		}
		return '_'
	}, s)
	s = strings.Trim(s, ".")
	if s == "" {
		return "_"
	}
	return s
}

// FormatListing renders a listing as Markdown with YAML frontmatter.
func FormatListing(l *carlot.Listing) string {
	var b strings.Builder
	b.WriteString("---\n")
	writeFront(&b, "source", l.SourceURL)
	writeFront(&b, "site", l.SourceSite)
	writeFront(&b, "id", l.SourceID)
	if l.Price != nil {
		writeFront(&b, "price", strconv.FormatFloat(*l.Price, 'f', -1, 64)+" "+l.Currency)
	}
	if l.Year != nil {
		writeFront(&b, "year", strconv.Itoa(*l.Year))
	}
	if l.Mileage != nil {
		writeFront(&b, "mileage", strconv.Itoa(*l.Mileage))
	}
	writeFront(&b, "scraped", l.ScrapedAt.Format("2006-01-02"))
	b.WriteString("---\n\n")

	fmt.Fprintf(&b, "# %s\n", l.Title)

	specs := []struct{ label, value string }{
		{"Make", l.Make},
		{"Model", l.Model},
		{"Fuel", l.FuelType},
		{"Transmission", l.Transmission},
		{"Body", l.BodyType},
		{"Color", l.Color},
		{"Location", l.Location},
	}
	if l.EnginePower != nil {
		specs = append(specs, struct{ label, value string }{"Power", strconv.Itoa(*l.EnginePower) + " hp"})
	}
	if l.EngineDisplacement != nil {
		specs = append(specs, struct{ label, value string }{"Engine", strconv.FormatFloat(*l.EngineDisplacement, 'f', -1, 64) + " L"})
	}
	first := true
	for _, s := range specs {
		if s.value == "" {
			continue
		}
		if first {
			b.WriteString("\n")
			first = false
		}
		fmt.Fprintf(&b, "- %s: %s\n", s.label, s.value)
	}

	if l.Description != "" {
		b.WriteString("\n")
		b.WriteString(l.Description)
		b.WriteString("\n")
	}

	for _, p := range l.LocalImagePaths {
		fmt.Fprintf(&b, "\n![](%s)\n", filepath.ToSlash(p))
	}
	return b.String()
}

func writeFront(b *strings.Builder, key, value string) {
	if value == "" {
		return
	}
	b.WriteString(key)
	b.WriteString(": ")
	b.WriteString(value)
	b.WriteString("\n")
}
