package extract

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/carlot"
)

// Ensure Assembler implements carlot.ListingAssembler at compile time.
var _ carlot.ListingAssembler = (*Assembler)(nil)

// Assembler builds canonical listings from container candidates. Make,
// model and fallback currency come from the SourceConfig, never from the
// page.
type Assembler struct {
	// Now returns the scrape timestamp. Defaults to time.Now.
	Now func() time.Time
}

// NewAssembler creates a new Assembler.
func NewAssembler() *Assembler {
	return &Assembler{Now: time.Now}
}

// AssembleListing converts c into a Listing. The source URL is the first
// link inside the container, or pageURL when it has none.
func (a *Assembler) AssembleListing(c carlot.ContainerCandidate, src *carlot.SourceConfig, pageURL string) (*carlot.Listing, error) {
	if err := validSource(src); err != nil {
		return nil, err
	}

	var text string
	if c.Node != nil {
		text = c.Node.Text()
	}

	link := firstLink(c.Node, pageURL)
	l, err := a.assemble(c.Fields, text, src, link, pageURL)
	if err != nil {
		return nil, err
	}
	l.Score = c.Score
	if l.Title == "" {
		l.Title = heading(c.Node)
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return l, nil
}

// AssembleDetail converts the fields of a single-listing page into a
// Listing identified by pageURL itself.
func (a *Assembler) AssembleDetail(fields carlot.FieldMap, text string, src *carlot.SourceConfig, pageURL string) (*carlot.Listing, error) {
	if err := validSource(src); err != nil {
		return nil, err
	}

	link := pageURL
	if u, err := url.Parse(pageURL); err == nil && u.IsAbs() {
		u.Fragment = ""
		link = u.String()
	}

	l, err := a.assemble(fields, text, src, link, pageURL)
	if err != nil {
		return nil, err
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return l, nil
}

func validSource(src *carlot.SourceConfig) error {
	if src == nil {
		return carlot.Errorf(carlot.EINVALID, "source config required")
	}
	return src.Validate()
}

func (a *Assembler) assemble(fields carlot.FieldMap, text string, src *carlot.SourceConfig, link, pageURL string) (*carlot.Listing, error) {
	l := &carlot.Listing{
		SourceSite: src.Site,
		SourceURL:  link,
		Make:       src.DefaultMake,
		Model:      src.DefaultModel,
		ImageURLs:  fields.URLs(carlot.FieldImageURLs),
		RawText:    text,
		ScrapedAt:  a.now(),
	}
	if l.ImageURLs == nil {
		l.ImageURLs = []string{}
	}
	ApplyFields(l, fields)

	l.Currency = PriceCurrency(text, l.Price)
	if l.Currency == "" {
		l.Currency = src.DefaultCurrency
	}

	if l.SourceURL == "" {
		l.SourceURL = pageURL
	}

	id, err := sourceID(src, link, text)
	if err != nil {
		return nil, err
	}
	l.SourceID = id
	l.Title = Title(l)
	return l, nil
}

func (a *Assembler) now() time.Time {
	if a.Now == nil {
		return time.Now()
	}
	return a.Now()
}

// ApplyFields copies recognized field values onto l.
func ApplyFields(l *carlot.Listing, fields carlot.FieldMap) {
	if v, ok := fields.Float(carlot.FieldPrice); ok {
		l.Price = &v
	}
	if v, ok := fields.Int(carlot.FieldYear); ok {
		l.Year = &v
	}
	if v, ok := fields.Int(carlot.FieldMileage); ok {
		l.Mileage = &v
	}
	if v, ok := fields.Int(carlot.FieldEnginePower); ok {
		l.EnginePower = &v
	}
	if v, ok := fields.Float(carlot.FieldEngineDisplacement); ok {
		l.EngineDisplacement = &v
	}
	l.FuelType, _ = fields.Str(carlot.FieldFuelType)
	l.Transmission, _ = fields.Str(carlot.FieldTransmission)
	l.BodyType, _ = fields.Str(carlot.FieldBodyType)
	l.Color, _ = fields.Str(carlot.FieldColor)
	l.Location, _ = fields.Str(carlot.FieldLocation)
}

// Title synthesizes "<make> <model> <year> <price> <currency>", leaving out
// the parts that are unknown.
func Title(l *carlot.Listing) string {
	var parts []string
	if l.Make != "" {
		parts = append(parts, l.Make)
	}
	if l.Model != "" {
		parts = append(parts, l.Model)
	}
	if l.Year != nil {
		parts = append(parts, strconv.Itoa(*l.Year))
	}
	if l.Price != nil {
		price := strconv.FormatFloat(*l.Price, 'f', -1, 64)
		if l.Currency != "" {
			price += " " + l.Currency
		}
		parts = append(parts, price)
	}
	return strings.Join(parts, " ")
}

func sourceID(src *carlot.SourceConfig, link, text string) (string, error) {
	if src.IDPattern != "" && link != "" {
		re, err := regexp.Compile(src.IDPattern)
		if err != nil {
			return "", carlot.Errorf(carlot.EINVALID, "invalid ID pattern: %v", err)
		}
		if m := re.FindStringSubmatch(link); len(m) > 1 && m[1] != "" {
			return m[1], nil
		}
	}
	key := link
	if key == "" {
		key = text
	}
	return fmt.Sprintf("%s_%016x", src.Site, xxhash.Sum64String(key)), nil
}

func firstLink(n carlot.Node, pageURL string) string {
	if n == nil {
		return ""
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}

	var link string
	carlot.Walk(n, func(el carlot.Node) bool {
		if link != "" {
			return false
		}
		if el.Tag() != "a" {
			return true
		}
		href, ok := el.Attr("href")
		href = strings.TrimSpace(href)
		if !ok || href == "" || strings.HasPrefix(href, "#") || isNonHTTPLink(href) {
			return true
		}
		ref, err := url.Parse(href)
		if err != nil {
			return true
		}
		u := base.ResolveReference(ref)
		if u.Scheme != "http" && u.Scheme != "https" {
			return true
		}
		u.Fragment = ""
		link = u.String()
		return false
	})
	return link
}

func heading(n carlot.Node) string {
	var title string
	carlot.Walk(n, func(el carlot.Node) bool {
		if title != "" {
			return false
		}
		switch el.Tag() {
		case "h1", "h2", "h3", "h4":
			title = strings.TrimSpace(el.Text())
			return false
		}
		return true
	})
	return title
}

func isNonHTTPLink(href string) bool {
	href = strings.ToLower(href)
	return strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:")
}
