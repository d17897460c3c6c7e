package extract

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/fwojciec/carlot"
)

// Ensure Extractor implements carlot.FieldExtractor at compile time.
var _ carlot.FieldExtractor = (*Extractor)(nil)

// DefaultFineTags are the descendants re-examined individually by
// ExtractFromElement.
var DefaultFineTags = []string{"span", "div", "p"}

// Candidate is one surviving match of a field pattern.
type Candidate struct {
	Field carlot.Field
	Raw   string
	Value carlot.Value
	Score float64

	// Currency is the ISO 4217 code written next to a price, if any.
	Currency string
}

// Extractor applies a pattern registry to text and DOM subtrees.
type Extractor struct {
	registry  *Registry
	harvester *ImageHarvester
	fineTags  map[string]bool
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithRegistry replaces the default pattern registry.
func WithRegistry(r *Registry) Option {
	return func(e *Extractor) {
		e.registry = r
	}
}

// WithHarvester sets the image harvester used by ExtractFromElement.
func WithHarvester(h *ImageHarvester) Option {
	return func(e *Extractor) {
		e.harvester = h
	}
}

// WithFineTags sets which descendant tags get their own extraction pass.
func WithFineTags(tags ...string) Option {
	return func(e *Extractor) {
		e.fineTags = tagSet(tags)
	}
}

// NewExtractor creates an Extractor backed by DefaultRegistry.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		registry:  DefaultRegistry(),
		harvester: NewImageHarvester(),
		fineTags:  tagSet(DefaultFineTags),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExtractFields returns the best-scoring candidate per field. Among equal
// scores the first candidate found wins.
func (e *Extractor) ExtractFields(text string) carlot.FieldMap {
	best := make(map[carlot.Field]Candidate)
	for _, c := range e.Candidates(text) {
		if cur, ok := best[c.Field]; ok && c.Score <= cur.Score {
			continue
		}
		best[c.Field] = c
	}

	fields := make(carlot.FieldMap, len(best))
	for f, c := range best {
		fields[f] = c.Value
	}
	return fields
}

// Candidates returns every match that decoded and validated, in registry
// and surface-form order.
func (e *Extractor) Candidates(text string) []Candidate {
	if text == "" {
		return nil
	}
	var out []Candidate
	for _, p := range e.registry.Patterns() {
		for _, form := range p.Forms {
			out = scan(out, p, form, text)
		}
	}
	return out
}

// scan appends the non-overlapping matches of one surface form.
func scan(out []Candidate, p FieldPattern, form SurfaceForm, text string) []Candidate {
	for pos := 0; pos < len(text); {
		loc := form.Expr.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			break
		}
		base := pos
		start, end := base+loc[0], base+loc[1]

		// A number glued to a preceding digit is the tail of a longer
		// number, and a word glued to letters is part of another word.
		// Retry one rune later so a valid match inside the span survives.
		if start == end ||
			(p.Kind != carlot.KindString && precededByDigit(text, start)) ||
			(form.WholeWord && !isWordBounded(text, start, end)) ||
			(form.Currency > 0 && !currencyAt(text, base, loc, form.Currency)) {
			pos = nextRune(text, start)
			continue
		}
		pos = end

		raw := text[start:end]
		v, ok := decode(p, form, submatch(text[base:], loc, form.Group))
		if !ok {
			continue
		}
		c := Candidate{
			Field: p.Field,
			Raw:   raw,
			Value: v,
			Score: p.BaseScore + 0.01*float64(utf8.RuneCountInString(raw)),
		}
		if form.Currency > 0 {
			c.Currency = CurrencyCode(submatch(text[base:], loc, form.Currency))
		}
		out = append(out, c)
	}
	return out
}

func submatch(s string, loc []int, g int) string {
	if g < 0 || 2*g+1 >= len(loc) || loc[2*g] < 0 {
		return ""
	}
	return s[loc[2*g]:loc[2*g+1]]
}

func precededByDigit(text string, i int) bool {
	if i == 0 {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return unicode.IsDigit(r)
}

func isWordBounded(text string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:start])
		if unicode.IsLetter(r) {
			return false
		}
	}
	if end < len(text) {
		r, _ := utf8.DecodeRuneInString(text[end:])
		if unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

func nextRune(text string, i int) int {
	if i >= len(text) {
		return len(text) + 1
	}
	_, size := utf8.DecodeRuneInString(text[i:])
	return i + size
}

var currencyCodes = map[string]string{
	"лв": "BGN", "лв.": "BGN", "лева": "BGN", "bgn": "BGN",
	"€": "EUR", "eur": "EUR", "euro": "EUR", "евро": "EUR",
	"$": "USD", "usd": "USD", "долара": "USD",
}

// CurrencyCode normalizes a currency token such as "лв", "€" or "долара" to
// its ISO 4217 code. Unknown tokens yield "".
func CurrencyCode(token string) string {
	return currencyCodes[strings.ToLower(strings.TrimSpace(token))]
}

var (
	currencyExpr = regexp.MustCompile(`(?i)(лева|лв\.?|BGN|€|euro|EUR|евро|\$|USD|долара)`)

	// emissionExpr matches the class digit of labels like "Евро 6" or
	// "EURO 5". groupedExpr tells "EUR 5 500" apart from "Euro 5 2019".
	emissionExpr = regexp.MustCompile(`^\s*[1-6]`)
	groupedExpr  = regexp.MustCompile(`^(?:\d|[.,]\d|[ \x{00A0}\x{202F}']\d{3}(?:\D|$))`)
)

// isCurrencyToken reports whether text[start:end] is a currency rather than
// part of a word or an emission standard label.
func isCurrencyToken(text string, start, end int) bool {
	tok := text[start:end]
	r, _ := utf8.DecodeRuneInString(tok)
	if !unicode.IsLetter(r) {
		return true
	}
	if !isWordBounded(text, start, end) {
		return false
	}
	return CurrencyCode(tok) != "EUR" || !isEmissionLabel(text[end:])
}

// currencyAt reports whether submatch g of a match at base is a currency.
// A form whose currency group did not participate passes.
func currencyAt(text string, base int, loc []int, g int) bool {
	if 2*g+1 >= len(loc) || loc[2*g] < 0 {
		return true
	}
	return isCurrencyToken(text, base+loc[2*g], base+loc[2*g+1])
}

func isEmissionLabel(rest string) bool {
	loc := emissionExpr.FindStringIndex(rest)
	return loc != nil && !groupedExpr.MatchString(rest[loc[1]:])
}

// DetectCurrency returns the ISO 4217 code of the currency written next to
// the best-scoring price in text. Without a priced match it falls back to the
// first standalone currency token, and to "" when none appears.
func DetectCurrency(text string) string {
	return PriceCurrency(text, nil)
}

// PriceCurrency is DetectCurrency for a known price: the currency of a match
// decoding to *price wins over better-scoring matches of other prices.
func PriceCurrency(text string, price *float64) string {
	if p, ok := DefaultRegistry().PatternFor(carlot.FieldPrice); ok {
		var priced []Candidate
		for _, form := range p.Forms {
			priced = scan(priced, p, form, text)
		}
		var best Candidate
		for _, c := range priced {
			if c.Currency == "" {
				continue
			}
			if n, ok := c.Value.Number(); ok && price != nil && n == *price {
				return c.Currency
			}
			if c.Score > best.Score {
				best = c
			}
		}
		if best.Currency != "" {
			return best.Currency
		}
	}

	for _, loc := range currencyExpr.FindAllStringIndex(text, -1) {
		if isCurrencyToken(text, loc[0], loc[1]) {
			return CurrencyCode(text[loc[0]:loc[1]])
		}
	}
	return ""
}

func tagSet(tags []string) map[string]bool {
	m := make(map[string]bool, len(tags))
	for _, t := range tags {
		m[t] = true
	}
	return m
}
