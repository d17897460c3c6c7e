package fs

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/fwojciec/carlot"
)

// Ensure Exporter implements carlot.ListingExporter at compile time.
var _ carlot.ListingExporter = (*Exporter)(nil)

// Exporter implements carlot.ListingExporter with atomic update semantics.
// Listings are saved to a temporary directory, then moved atomically on
// Commit. Each listing is written as JSON and as a Markdown card.
type Exporter struct {
	baseDir string
	name    string
}

// NewExporter creates a new Exporter.
// baseDir is the parent directory, name is the output directory name.
// Files are saved to baseDir/name.tmp and moved to baseDir/name on Commit.
func NewExporter(baseDir, name string) *Exporter {
	return &Exporter{
		baseDir: baseDir,
		name:    name,
	}
}

func (e *Exporter) tempDir() string {
	return filepath.Join(e.baseDir, e.name+".tmp")
}

func (e *Exporter) finalDir() string {
	return filepath.Join(e.baseDir, e.name)
}

func (e *Exporter) Save(ctx context.Context, listing *carlot.Listing) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := listing.Validate(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(listing, "", "  ")
	if err != nil {
		return err
	}

	jsonPath := filepath.Join(e.tempDir(), ListingPath(listing, ".json"))
	if err := os.MkdirAll(filepath.Dir(jsonPath), 0755); err != nil {
		return err
	}
	if err := os.WriteFile(jsonPath, append(data, '\n'), 0644); err != nil {
		return err
	}

	mdPath := filepath.Join(e.tempDir(), ListingPath(listing, ".md"))
	return os.WriteFile(mdPath, []byte(FormatListing(listing)), 0644)
}

func (e *Exporter) Commit() error {
	if err := os.RemoveAll(e.finalDir()); err != nil {
		return err
	}
	return os.Rename(e.tempDir(), e.finalDir())
}

func (e *Exporter) Abort() error {
	return os.RemoveAll(e.tempDir())
}
