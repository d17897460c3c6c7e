package carlot

import (
	"net/url"
	"regexp"
	"strings"
)

// SourceConfig carries per-site settings supplied by the caller when
// listings are assembled. The extraction engine itself knows nothing about
// makes, models or sites.
type SourceConfig struct {
	// Site identifies the source, e.g. "mobile.bg".
	Site string `json:"site"`

	// DefaultMake and DefaultModel fill Listing.Make and Listing.Model.
	DefaultMake  string `json:"defaultMake"`
	DefaultModel string `json:"defaultModel"`

	// DefaultCurrency is the ISO 4217 code used when no currency token
	// appears in the container text.
	DefaultCurrency string `json:"defaultCurrency"`

	// ContentDomains lists hosts whose images are accepted even without an
	// allowlisted keyword in the URL.
	ContentDomains []string `json:"contentDomains"`

	// IDPattern optionally extracts the source ID from the listing URL.
	// The first capture group is used.
	IDPattern string `json:"idPattern"`
}

// Validate returns an error if the configuration is unusable.
func (c *SourceConfig) Validate() error {
	if c.Site == "" {
		return Errorf(EINVALID, "source site required")
	}
	if c.IDPattern != "" {
		re, err := regexp.Compile(c.IDPattern)
		if err != nil {
			return Errorf(EINVALID, "invalid ID pattern: %v", err)
		}
		if re.NumSubexp() < 1 {
			return Errorf(EINVALID, "ID pattern must have a capture group")
		}
	}
	return nil
}

// SiteFromURL derives a site identifier from a page URL by dropping the
// scheme and any leading "www.".
func SiteFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
