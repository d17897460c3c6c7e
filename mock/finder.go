package mock

import "github.com/fwojciec/carlot"

// Compile-time interface verification.
var (
	_ carlot.FieldExtractor   = (*FieldExtractor)(nil)
	_ carlot.ContainerFinder  = (*ContainerFinder)(nil)
	_ carlot.ListingAssembler = (*ListingAssembler)(nil)
	_ carlot.Parser           = (*Parser)(nil)
	_ carlot.PageLinker       = (*PageLinker)(nil)
)

// FieldExtractor is a mock implementation of carlot.FieldExtractor.
type FieldExtractor struct {
	ExtractFieldsFn      func(text string) carlot.FieldMap
	ExtractFromElementFn func(el carlot.Node, pageURL string) carlot.FieldMap
}

func (e *FieldExtractor) ExtractFields(text string) carlot.FieldMap {
	return e.ExtractFieldsFn(text)
}

func (e *FieldExtractor) ExtractFromElement(el carlot.Node, pageURL string) carlot.FieldMap {
	return e.ExtractFromElementFn(el, pageURL)
}

// ContainerFinder is a mock implementation of carlot.ContainerFinder.
type ContainerFinder struct {
	FindListingContainersFn func(doc *carlot.Document) []carlot.ContainerCandidate
}

func (f *ContainerFinder) FindListingContainers(doc *carlot.Document) []carlot.ContainerCandidate {
	return f.FindListingContainersFn(doc)
}

// ListingAssembler is a mock implementation of carlot.ListingAssembler.
type ListingAssembler struct {
	AssembleListingFn func(c carlot.ContainerCandidate, src *carlot.SourceConfig, pageURL string) (*carlot.Listing, error)
	AssembleDetailFn  func(fields carlot.FieldMap, text string, src *carlot.SourceConfig, pageURL string) (*carlot.Listing, error)
}

func (a *ListingAssembler) AssembleListing(c carlot.ContainerCandidate, src *carlot.SourceConfig, pageURL string) (*carlot.Listing, error) {
	return a.AssembleListingFn(c, src, pageURL)
}

func (a *ListingAssembler) AssembleDetail(fields carlot.FieldMap, text string, src *carlot.SourceConfig, pageURL string) (*carlot.Listing, error) {
	return a.AssembleDetailFn(fields, text, src, pageURL)
}

// Parser is a mock implementation of carlot.Parser.
type Parser struct {
	ParseFn func(html string, pageURL string) (*carlot.Document, error)
}

func (p *Parser) Parse(html string, pageURL string) (*carlot.Document, error) {
	return p.ParseFn(html, pageURL)
}

// PageLinker is a mock implementation of carlot.PageLinker.
type PageLinker struct {
	NextPageFn func(html string, pageURL string) (string, error)
}

func (l *PageLinker) NextPage(html string, pageURL string) (string, error) {
	return l.NextPageFn(html, pageURL)
}
