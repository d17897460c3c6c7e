package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/fwojciec/carlot"
	"github.com/fwojciec/carlot/crawl"
	"github.com/fwojciec/carlot/extract"
	"github.com/fwojciec/carlot/goquery"
	"github.com/fwojciec/carlot/htmlquery"
	"github.com/fwojciec/carlot/htmltomarkdown"
	"github.com/fwojciec/carlot/readability"
	carslog "github.com/fwojciec/carlot/slog"
	"github.com/fwojciec/carlot/trafilatura"
)

// Run executes the extract command.
func (c *ExtractCmd) Run(deps *Dependencies) error {
	data, err := os.ReadFile(c.File)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %v\n", err)
		return err
	}
	html := string(data)

	src, err := c.Source(c.URL)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", carlot.ErrorMessage(err))
		return err
	}

	extractor := newExtractor(c.ContentDomain)
	var parser carlot.Parser = goquery.NewParser()
	if c.Scope != "" {
		parser = htmlquery.NewParser(htmlquery.WithScope(c.Scope))
	}

	if c.Detail {
		return c.runDetail(deps, src, html, parser, extractor)
	}

	doc, err := parser.Parse(html, c.URL)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", carlot.ErrorMessage(err))
		return err
	}

	var finder carlot.ContainerFinder = extract.NewAnalyzer(extractor)
	if deps.Logger != nil {
		finder = carslog.NewLoggingContainerFinder(finder, deps.Logger)
	}
	candidates := crawl.SelectListings(finder.FindListingContainers(doc))

	if c.Explain {
		for i, cand := range candidates {
			fmt.Fprintf(deps.Stdout, "#%d <%s> score %.2f\n", i+1, cand.Node.Tag(), cand.Score)
			explain(deps.Stdout, extractor.Candidates(cand.Node.Text()))
		}
		return nil
	}

	assembler := extract.NewAssembler()
	listings := []*carlot.Listing{}
	for _, cand := range candidates {
		l, err := assembler.AssembleListing(cand, src, c.URL)
		if err != nil {
			continue
		}
		listings = append(listings, l)
	}
	return writeJSON(deps.Stdout, listings)
}

func (c *ExtractCmd) runDetail(deps *Dependencies, src *carlot.SourceConfig, html string, parser carlot.Parser, extractor *extract.Extractor) error {
	var content carlot.ContentExtractor = trafilatura.NewExtractor()
	if c.Content == "readability" {
		content = readability.NewExtractor()
	}

	if c.Explain {
		result, err := content.Extract(html, c.URL)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", carlot.ErrorMessage(err))
			return err
		}
		fmt.Fprintf(deps.Stdout, "%s\n", result.Title)
		explain(deps.Stdout, extractor.Candidates(result.Text))
		return nil
	}

	scraper := &crawl.Scraper{
		Fetcher:     staticFetcher(html),
		Parser:      parser,
		Assembler:   extract.NewAssembler(),
		Fields:      extractor,
		Content:     content,
		Converter:   htmltomarkdown.NewConverter(),
		RetryDelays: []time.Duration{},
	}
	l, err := scraper.ScrapeDetail(deps.Ctx, src, c.URL)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", carlot.ErrorMessage(err))
		return err
	}
	return writeJSON(deps.Stdout, l)
}

// explain prints one line per candidate: field, decoded value, matched text
// and score.
func explain(w io.Writer, candidates []extract.Candidate) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, c := range candidates {
		value := c.Value.String()
		if c.Currency != "" {
			value += " " + c.Currency
		}
		fmt.Fprintf(tw, "  %s\t%s\t%q\t%.2f\n", c.Field, value, c.Raw, c.Score)
	}
	_ = tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// staticFetcher serves a page that is already in memory.
type staticFetcher string

func (f staticFetcher) Fetch(ctx context.Context, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return string(f), nil
}

func (staticFetcher) Close() error {
	return nil
}
