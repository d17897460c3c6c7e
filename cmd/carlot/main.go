package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/carlot"
	"github.com/fwojciec/carlot/crawl"
	"github.com/fwojciec/carlot/extract"
	"github.com/fwojciec/carlot/fs"
	"github.com/fwojciec/carlot/goquery"
	"github.com/fwojciec/carlot/htmltomarkdown"
	carhttp "github.com/fwojciec/carlot/http"
	"github.com/fwojciec/carlot/readability"
	"github.com/fwojciec/carlot/rod"
	carslog "github.com/fwojciec/carlot/slog"
	"github.com/fwojciec/carlot/sqlite"
	"github.com/fwojciec/carlot/trafilatura"
)

func main() {
	ctx := context.Background()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Database path. Set before calling Run().
	DBPath string

	// Directory downloaded photos are stored in. Set before calling Run().
	ImageDir string

	// SQLite database used by SQLite service implementations.
	DB *sqlite.DB

	// Services for end-to-end testing.
	ListingService carlot.ListingService
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		DBPath:   defaultDBPath(),
		ImageDir: defaultImageDir(),
	}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	// Initialize dependencies struct for Kong binding
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	// Create Kong parser with dependency binding
	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("carlot"),
		kong.Description("Scrape classified car ads into a local listing database"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
		kong.Configuration(kong.JSON),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	// Handle help flags using Kong
	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'carlot --help' to see available commands")
	}

	if args[0] == "help" || args[0] == "--help" || args[0] == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	// Parse arguments first to know which command and its flags
	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	cmd, _, _ := strings.Cut(kongCtx.Command(), " ")

	if cli.Debug {
		deps.Logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	// Offline extraction needs no database
	if cmd == "extract" {
		return kongCtx.Run(deps)
	}

	// Open database
	m.DB = sqlite.NewDB(m.DBPath)
	if err := m.DB.Open(); err != nil {
		fmt.Fprintf(stderr, "Hint: Set CARLOT_DB to use a different database path\n")
		return fmt.Errorf("failed to open database at %q: %w", m.DBPath, err)
	}
	defer m.Close()

	// Wire core services into dependencies
	m.ListingService = sqlite.NewListingService(m.DB)
	deps.DB = m.DB
	deps.Listings = m.ListingService
	if deps.Logger != nil {
		deps.Listings = carslog.NewLoggingListingService(m.ListingService, deps.Logger)
	}

	// Wire command-specific dependencies based on command
	if cmd == "scrape" {
		imageDir := cli.Scrape.ImageDir
		if imageDir == "" {
			imageDir = m.ImageDir
		}

		scraper, err := newScraper(&cli.Scrape, deps.Listings, imageDir, deps.Logger)
		if err != nil {
			if cli.Scrape.Browser {
				fmt.Fprintln(stderr, "Hint: Chrome or Chromium must be installed")
			}
			return err
		}
		defer scraper.Fetcher.Close()

		if cli.Scrape.Export != "" {
			dir, err := filepath.Abs(cli.Scrape.Export)
			if err != nil {
				return fmt.Errorf("invalid export path: %w", err)
			}
			deps.Exporter = fs.NewExporter(filepath.Dir(dir), filepath.Base(dir))
			scraper.Exporter = deps.Exporter
		}
		deps.Scraper = scraper
	}

	return kongCtx.Run(deps)
}

// newScraper wires the scraping pipeline for the scrape command.
func newScraper(c *ScrapeCmd, listings carlot.ListingService, imageDir string, logger *slog.Logger) (*crawl.Scraper, error) {
	var fetcher carlot.Fetcher
	if c.Browser {
		f, err := rod.NewFetcher(
			rod.WithFetchTimeout(c.Timeout),
			rod.WithUserAgent(c.UserAgent),
			rod.WithWaitSelector(c.WaitSelector),
			rod.WithScroll(c.Scroll),
			rod.WithShowBrowser(c.ShowBrowser),
			rod.WithBrowserProxy(c.Proxy),
			rod.WithRecycleAfter(c.RecycleAfter),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to start browser: %w", err)
		}
		fetcher = f
	} else {
		fetcher = carhttp.NewFetcher(
			carhttp.WithTimeout(c.Timeout),
			carhttp.WithUserAgent(c.UserAgent),
		)
	}

	extractor := newExtractor(c.ContentDomain)

	var (
		finder       carlot.ContainerFinder = extract.NewAnalyzer(extractor)
		imageFetcher carlot.ImageFetcher    = carhttp.NewImageFetcher(carhttp.WithImageUserAgent(c.UserAgent))
		sitemaps     carlot.SitemapService  = carhttp.NewSitemapService(nil, carhttp.WithSitemapUserAgent(c.UserAgent))
	)
	if logger != nil {
		fetcher = carslog.NewLoggingFetcher(fetcher, logger)
		finder = carslog.NewLoggingContainerFinder(finder, logger)
		imageFetcher = carslog.NewLoggingImageFetcher(imageFetcher, logger)
		sitemaps = carslog.NewLoggingSitemapService(sitemaps, logger)
	}

	var content carlot.ContentExtractor = trafilatura.NewExtractor()
	if c.Content == "readability" {
		content = readability.NewExtractor()
	}

	s := &crawl.Scraper{
		Fetcher:      fetcher,
		Parser:       goquery.NewParser(),
		Finder:       finder,
		Assembler:    extract.NewAssembler(),
		Linker:       goquery.NewLinker(),
		Fields:       extractor,
		Content:      content,
		Converter:    htmltomarkdown.NewConverter(),
		Sitemaps:     sitemaps,
		Listings:     listings,
		ImageFetcher: imageFetcher,
		Images:       fs.NewImageStore(imageDir),
		RateLimiter:  crawl.NewDomainLimiter(c.Rate),
		Concurrency:  c.Concurrency,
		MaxPages:     c.Pages,
		MaxImages:    c.Images,
	}
	if logger != nil {
		s.Log = func(format string, args ...any) {
			logger.Debug(fmt.Sprintf(strings.TrimSpace(format), args...))
		}
	}
	return s, nil
}

// newExtractor creates the field extractor, trusting images served from
// the given hosts.
func newExtractor(contentDomains []string) *extract.Extractor {
	return extract.NewExtractor(
		extract.WithHarvester(extract.NewImageHarvester(extract.WithContentDomains(contentDomains...))),
	)
}

func defaultDBPath() string {
	if path := os.Getenv("CARLOT_DB"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "carlot.db"
	}
	dir := filepath.Join(home, ".carlot")
	_ = os.MkdirAll(dir, 0755)
	return filepath.Join(dir, "carlot.db")
}

func defaultImageDir() string {
	if dir := os.Getenv("CARLOT_IMAGE_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "images"
	}
	return filepath.Join(home, ".carlot", "images")
}
