package extract

import (
	"cmp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/fwojciec/carlot"
)

// Ensure Analyzer implements carlot.ContainerFinder at compile time.
var _ carlot.ContainerFinder = (*Analyzer)(nil)

// Analyzer defaults.
const (
	DefaultMinFields     = 2
	DefaultMaxCandidates = 20
)

// DefaultContainerTags are the elements considered as listing containers.
var DefaultContainerTags = []string{"div", "article", "section", "li"}

// Scorer rates how listing-like a field set is. Higher is better.
type Scorer func(fields carlot.FieldMap) float64

// DensityScore is the mean rendered length, in runes, of the field values.
func DensityScore(fields carlot.FieldMap) float64 {
	if len(fields) == 0 {
		return 0
	}
	total := 0
	for _, v := range fields {
		total += utf8.RuneCountInString(v.String())
	}
	return float64(total) / float64(len(fields))
}

// Analyzer discovers listing containers by scanning every container element
// of a page and ranking those that yield enough fields.
type Analyzer struct {
	extractor     *Extractor
	minFields     int
	maxCandidates int
	scorer        Scorer
	tags          map[string]bool
}

// AnalyzerOption configures an Analyzer.
type AnalyzerOption func(*Analyzer)

// WithMinFields sets how many fields a node must yield to qualify.
func WithMinFields(n int) AnalyzerOption {
	return func(a *Analyzer) {
		a.minFields = n
	}
}

// WithMaxCandidates caps the number of returned candidates.
func WithMaxCandidates(n int) AnalyzerOption {
	return func(a *Analyzer) {
		a.maxCandidates = n
	}
}

// WithScorer replaces DensityScore.
func WithScorer(s Scorer) AnalyzerOption {
	return func(a *Analyzer) {
		a.scorer = s
	}
}

// WithContainerTags sets which elements are enumerated.
func WithContainerTags(tags ...string) AnalyzerOption {
	return func(a *Analyzer) {
		a.tags = tagSet(tags)
	}
}

// NewAnalyzer creates an Analyzer that extracts fields with e. A nil e uses
// NewExtractor().
func NewAnalyzer(e *Extractor, opts ...AnalyzerOption) *Analyzer {
	if e == nil {
		e = NewExtractor()
	}
	a := &Analyzer{
		extractor:     e,
		minFields:     DefaultMinFields,
		maxCandidates: DefaultMaxCandidates,
		scorer:        DensityScore,
		tags:          tagSet(DefaultContainerTags),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// FindListingContainers returns up to the configured maximum of candidates,
// ordered by score descending and then by page order ascending. The result
// depends only on the document.
func (a *Analyzer) FindListingContainers(doc *carlot.Document) []carlot.ContainerCandidate {
	if doc == nil || doc.Root == nil {
		return nil
	}

	memo := textMemo{}
	var candidates []carlot.ContainerCandidate
	order := 0
	walkTolerant(doc.Root, func(n carlot.Node) {
		if !a.tags[n.Tag()] {
			return
		}
		pageOrder := order
		order++

		if c, ok := a.evaluate(n, doc.URL, memo); ok {
			c.PageOrder = pageOrder
			candidates = append(candidates, c)
		}
	})

	slices.SortStableFunc(candidates, func(x, y carlot.ContainerCandidate) int {
		if c := cmp.Compare(y.Score, x.Score); c != 0 {
			return c
		}
		return cmp.Compare(x.PageOrder, y.PageOrder)
	})

	if a.maxCandidates > 0 && len(candidates) > a.maxCandidates {
		candidates = candidates[:a.maxCandidates]
	}
	return candidates
}

// evaluate scores one node. A node that panics while being read is skipped.
func (a *Analyzer) evaluate(n carlot.Node, pageURL string, memo textMemo) (c carlot.ContainerCandidate, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()

	if strings.TrimSpace(n.Text()) == "" {
		return carlot.ContainerCandidate{}, false
	}
	fields := a.extractor.extractFromElement(n, pageURL, memo)
	if len(fields) < a.minFields {
		return carlot.ContainerCandidate{}, false
	}
	return carlot.ContainerCandidate{
		Node:   n,
		Fields: fields,
		Score:  a.scorer(fields),
	}, true
}

// walkTolerant visits nodes in document order. A node whose tag or children
// cannot be read is skipped along with its subtree.
func walkTolerant(n carlot.Node, fn func(carlot.Node)) {
	children, ok := func() (children []carlot.Node, ok bool) {
		defer func() {
			if r := recover(); r != nil {
				ok = false
			}
		}()
		_ = n.Tag()
		return n.Children(), true
	}()
	if !ok {
		return
	}
	fn(n)
	for _, c := range children {
		walkTolerant(c, fn)
	}
}
