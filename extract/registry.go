// Package extract implements the pattern-based field extraction engine and
// the unsupervised listing-container analyzer. It performs no I/O and holds
// no mutable state, so a single Extractor or Analyzer may serve any number
// of goroutines.
package extract

import (
	"regexp"
	"sync"
	"time"

	"github.com/fwojciec/carlot"
)

// SurfaceForm is one textual notation of a field value, such as a price
// followed by "лв" or a mileage followed by "km".
type SurfaceForm struct {
	Expr *regexp.Regexp

	// Group is the submatch holding the value. Zero means the whole match.
	Group int

	// Divisor converts the decoded number into the field's unit.
	// Zero or one leaves the value unchanged.
	Divisor float64

	// Decimal treats a lone "." or "," as a decimal point even when three
	// digits follow it.
	Decimal bool

	// WholeWord rejects matches glued to a letter on either side.
	WholeWord bool

	// Currency is the submatch holding the currency token written next to
	// a price. Zero means the form carries none.
	Currency int
}

// FieldPattern describes how one field is recognized. Patterns are immutable
// once built.
type FieldPattern struct {
	Field carlot.Field

	// Forms are probed in order. Every match of every form competes on
	// score; order never grants priority.
	Forms []SurfaceForm

	// BaseScore is the reliability weight of the field, between 0 and 1.
	BaseScore float64

	Kind carlot.Kind

	// Validate reports whether a decoded numeric value is plausible.
	// Nil accepts every value.
	Validate func(float64) bool
}

// Registry is an ordered, read-only set of field patterns.
type Registry struct {
	patterns []FieldPattern
	index    map[carlot.Field]int
}

// NewRegistry builds a registry. A later pattern for the same field
// replaces an earlier one.
func NewRegistry(patterns ...FieldPattern) *Registry {
	r := &Registry{index: make(map[carlot.Field]int, len(patterns))}
	for _, p := range patterns {
		if i, ok := r.index[p.Field]; ok {
			r.patterns[i] = p
			continue
		}
		r.index[p.Field] = len(r.patterns)
		r.patterns = append(r.patterns, p)
	}
	return r
}

// PatternFor returns the pattern registered for f.
func (r *Registry) PatternFor(f carlot.Field) (FieldPattern, bool) {
	i, ok := r.index[f]
	if !ok {
		return FieldPattern{}, false
	}
	return r.patterns[i], true
}

// Patterns returns all patterns in registration order.
func (r *Registry) Patterns() []FieldPattern {
	out := make([]FieldPattern, len(r.patterns))
	copy(out, r.patterns)
	return out
}

var defaultRegistry = sync.OnceValue(func() *Registry {
	return NewRegistry(DefaultPatterns(time.Now().Year())...)
})

// DefaultRegistry returns the shared registry of Bulgarian, English, German
// and French notations.
func DefaultRegistry() *Registry {
	return defaultRegistry()
}

// number matches a decimal number with optional thousands grouping by space,
// no-break space, apostrophe, dot or comma.
const number = `(\d{1,3}(?:[ \x{00A0}\x{202F}.,']\d{3})+(?:[.,]\d{1,2})?|\d+(?:[.,]\d{1,2})?)`

// DefaultPatterns returns the built-in patterns. The year validator accepts
// models up to five years past currentYear and never less than 2030.
func DefaultPatterns(currentYear int) []FieldPattern {
	maxYear := max(currentYear+5, 2030)

	return []FieldPattern{
		{
			Field:     carlot.FieldPrice,
			BaseScore: 0.9,
			Kind:      carlot.KindFloat,
			Validate:  between(1_000, 1_000_000),
			Forms: []SurfaceForm{
				{Expr: ci(number + `\s*(лева|лв\.?|BGN|€|euro|EUR|евро|\$|USD|долара)`), Group: 1, Currency: 2},
				{Expr: ci(`(€|\$|EUR|USD|BGN)\s*` + number), Group: 2, Currency: 1},
			},
		},
		{
			Field:     carlot.FieldYear,
			BaseScore: 0.95,
			Kind:      carlot.KindInteger,
			Validate:  between(1990, float64(maxYear)),
			Forms: []SurfaceForm{
				numeric(`\b(20\d{2})\b`),
				numeric(`\b(19\d{2})\b`),
				numeric(`\b(\d{4})\s*г\.`),
				numeric(`\b(\d{4})\s*год`),
			},
		},
		{
			Field:     carlot.FieldMileage,
			BaseScore: 0.9,
			Kind:      carlot.KindInteger,
			Validate:  between(0, 1_000_000),
			Forms: []SurfaceForm{
				numeric(number + `\s*км`),
				word(numeric(number + `\s*(?:km|miles?|mi)`)),
			},
		},
		{
			Field:     carlot.FieldEnginePower,
			BaseScore: 0.85,
			Kind:      carlot.KindInteger,
			Validate:  between(50, 2_000),
			Forms: []SurfaceForm{
				numeric(`(\d+)\s*к\.\s?с\.?`),
				word(numeric(`(\d+)\s*(?:hp|bhp|PS|ch|horsepower)`)),
			},
		},
		{
			Field:     carlot.FieldEngineDisplacement,
			BaseScore: 0.8,
			Kind:      carlot.KindFloat,
			Validate:  between(0.5, 10),
			Forms: []SurfaceForm{
				{Expr: ci(number + `\s*(?:куб\.?\s?см|cc|cm³|ccm)`), Group: 1, Divisor: 1000},
				decimal(word(numeric(`(\d{1,2}(?:[.,]\d{1,2})?)\s*(?:liters?|litres?|L|л)`))),
			},
		},
		{
			Field:     carlot.FieldFuelType,
			BaseScore: 0.7,
			Kind:      carlot.KindString,
			Forms: []SurfaceForm{
				word(text(`Бензинов|Бензин|Дизелов|Дизел|Хибриден|Хибрид|Електрически|Газ/Бензин|Газ`)),
				word(text(`Gasoline|Petrol|Diesel|Hybrid|Electric|LPG`)),
				word(text(`Benzin|Diesel|Hybrid|Elektro`)),
				word(text(`Essence|Diesel|Hybride|Électrique`)),
			},
		},
		{
			Field:     carlot.FieldTransmission,
			BaseScore: 0.7,
			Kind:      carlot.KindString,
			Forms: []SurfaceForm{
				word(text(`Автоматична|Ръчна|Полуавтоматична`)),
				word(text(`Automatic|Manual|Semi-automatic`)),
				word(text(`Automatik|Schaltgetriebe`)),
				word(text(`Automatique|Manuelle`)),
			},
		},
		{
			Field:     carlot.FieldBodyType,
			BaseScore: 0.6,
			Kind:      carlot.KindString,
			Forms: []SurfaceForm{
				word(text(`Седан|Купе|Кабрио|Хечбек|Комби|Джип|СУВ|Пикап|Ван`)),
				word(text(`Sedan|Coupe|Convertible|Hatchback|Estate|Wagon|SUV|Pickup`)),
				word(text(`Limousine|Coupé|Cabrio|Kombi`)),
				word(text(`Berline|Break|Monospace`)),
			},
		},
		{
			Field:     carlot.FieldColor,
			BaseScore: 0.5,
			Kind:      carlot.KindString,
			Forms: []SurfaceForm{
				word(text(`Черен|Бял|Син|Червен|Сребърен|Сив|Зелен|Жълт|Кафяв|Бежов|Оранжев`)),
				word(text(`Black|White|Blue|Red|Silver|Gr[ae]y|Green|Yellow|Brown|Beige|Orange`)),
				word(text(`Schwarz|Weiß|Weiss|Blau|Rot|Silber|Grau|Grün|Gelb`)),
				word(text(`Noir|Blanc|Bleu|Rouge|Argent|Gris|Vert|Jaune`)),
			},
		},
		{
			Field:     carlot.FieldLocation,
			BaseScore: 0.6,
			Kind:      carlot.KindString,
			Forms: []SurfaceForm{
				{Expr: regexp.MustCompile(`(?:гр|Гр|ГР)\.\s*(\p{Lu}\p{Ll}+(?:[ -]\p{Lu}\p{Ll}+)?)`), Group: 1},
				word(text(`София|Пловдив|Варна|Бургас|Русе|Стара Загора|Плевен|Велико Търново|Благоевград|Шумен`)),
				word(text(`Sofia|Plovdiv|Varna|Burgas|Ruse|Stara Zagora|Pleven`)),
			},
		},
	}
}

func ci(expr string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + expr)
}

func numeric(expr string) SurfaceForm {
	return SurfaceForm{Expr: ci(expr), Group: 1}
}

func text(alternatives string) SurfaceForm {
	return SurfaceForm{Expr: ci(`(?:` + alternatives + `)`)}
}

func word(f SurfaceForm) SurfaceForm {
	f.WholeWord = true
	return f
}

func decimal(f SurfaceForm) SurfaceForm {
	f.Decimal = true
	return f
}

func between(lo, hi float64) func(float64) bool {
	return func(v float64) bool { return v >= lo && v <= hi }
}
