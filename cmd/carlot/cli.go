package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/carlot"
	"github.com/fwojciec/carlot/crawl"
	"github.com/fwojciec/carlot/sqlite"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx      context.Context
	Stdout   io.Writer
	Stderr   io.Writer
	DB       *sqlite.DB
	Listings carlot.ListingService
	Scraper  *crawl.Scraper
	Exporter carlot.ListingExporter

	// Logger is set when --debug is given.
	Logger *slog.Logger
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Config kong.ConfigFlag `help:"Load flag defaults from a JSON file"`
	Debug  bool            `help:"Log fetches, container discovery and storage to stderr"`

	Scrape  ScrapeCmd  `cmd:"" help:"Scrape listing result pages into the database"`
	Extract ExtractCmd `cmd:"" help:"Extract listings from a saved HTML file"`
	List    ListCmd    `cmd:"" help:"List stored listings"`
	Delete  DeleteCmd  `cmd:"" help:"Delete a listing or all listings of a site"`
}

// SourceFlags configure how listings of one site are assembled.
type SourceFlags struct {
	Site          string   `help:"Site identifier (default: host of the first URL without www.)"`
	Make          string   `help:"Make assigned to every listing"`
	Model         string   `help:"Model assigned to every listing"`
	Currency      string   `help:"Currency used when a price carries none"`
	ContentDomain []string `name:"content-domain" help:"Host whose images are always accepted (repeatable)"`
	IDPattern     string   `name:"id-pattern" help:"Regex whose first group extracts the listing ID from its URL"`
}

// Source builds the source configuration. The site defaults to the host of
// pageURL.
func (f *SourceFlags) Source(pageURL string) (*carlot.SourceConfig, error) {
	src := &carlot.SourceConfig{
		Site:            f.Site,
		DefaultMake:     f.Make,
		DefaultModel:    f.Model,
		DefaultCurrency: f.Currency,
		ContentDomains:  f.ContentDomain,
		IDPattern:       f.IDPattern,
	}
	if src.Site == "" {
		src.Site = carlot.SiteFromURL(pageURL)
	}
	if err := src.Validate(); err != nil {
		return nil, err
	}
	return src, nil
}

// ScrapeCmd is the "scrape" subcommand.
type ScrapeCmd struct {
	SourceFlags `embed:""`

	URLs         []string      `arg:"" name:"url" help:"Result page URLs, or site roots with --sitemap"`
	Concurrency  int           `short:"c" default:"4" help:"Start URLs processed concurrently"`
	Pages        int           `default:"1" help:"Pages followed per start URL, the first included"`
	Images       int           `default:"0" help:"Photos downloaded per listing"`
	ImageDir     string        `name:"image-dir" help:"Photo directory (default: $CARLOT_IMAGE_DIR or ~/.carlot/images)"`
	Browser      bool          `help:"Render pages with headless Chrome"`
	WaitSelector string        `name:"wait-selector" help:"CSS selector to wait for when rendering with --browser"`
	Scroll       bool          `help:"Scroll rendered pages to load lazy photos"`
	ShowBrowser  bool          `name:"show-browser" help:"Open a visible Chrome window with --browser"`
	Proxy        string        `help:"Proxy server for --browser (e.g. socks5://127.0.0.1:1080)"`
	RecycleAfter int64         `name:"recycle-after" default:"75" help:"Pages rendered before Chrome is restarted"`
	Sitemap      bool          `help:"Discover result pages from the sitemaps of the given sites"`
	Filter       []string      `short:"F" name:"filter" help:"Only scrape URLs matching regex (repeatable)"`
	Detail       bool          `help:"Treat URLs as single-listing pages"`
	Content      string        `enum:"trafilatura,readability" default:"trafilatura" help:"Main-content extractor for --detail (trafilatura, readability)"`
	Export       string        `help:"Also write listings as JSON and Markdown into this directory"`
	Rate         float64       `default:"1" help:"Requests per second per host"`
	Timeout      time.Duration `short:"t" default:"30s" help:"Fetch timeout per page"`
	UserAgent    string        `name:"user-agent" env:"CARLOT_USER_AGENT" help:"User-Agent sent with requests"`
}

// ExtractCmd is the "extract" subcommand.
type ExtractCmd struct {
	SourceFlags `embed:""`

	File    string `arg:"" type:"existingfile" help:"Saved HTML page"`
	URL     string `default:"http://localhost/" help:"Address the page was saved from"`
	Detail  bool   `help:"Treat the file as a single-listing page"`
	Explain bool   `help:"Print per-field candidates instead of listings"`
	Scope   string `help:"XPath expression limiting extraction to a page region"`
	Content string `enum:"trafilatura,readability" default:"trafilatura" help:"Main-content extractor for --detail (trafilatura, readability)"`
}

// ListCmd is the "list" subcommand.
type ListCmd struct {
	Site    string `help:"Only listings of this site"`
	Make    string `help:"Only listings of this make"`
	Model   string `help:"Only listings of this model"`
	MinYear int    `name:"min-year" help:"Oldest model year"`
	MaxYear int    `name:"max-year" help:"Newest model year"`
	Limit   int    `default:"50" help:"Maximum listings shown"`
	JSON    bool   `name:"json" help:"Print listings as JSON"`
}

// DeleteCmd is the "delete" subcommand.
type DeleteCmd struct {
	ID    string `arg:"" optional:"" help:"Listing ID"`
	Site  string `help:"Delete every listing of this site"`
	Force bool   `help:"Confirm deletion"`
}
