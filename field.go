package carlot

import (
	"strconv"
	"strings"
)

// Field identifies one structured attribute of a classified ad.
type Field string

// Recognized fields. FieldImageURLs is reserved for harvested photo URLs and
// is never produced by a text pattern.
const (
	FieldPrice              Field = "price"
	FieldYear               Field = "year"
	FieldMileage            Field = "mileage"
	FieldEnginePower        Field = "enginePower"
	FieldEngineDisplacement Field = "engineDisplacement"
	FieldFuelType           Field = "fuelType"
	FieldTransmission       Field = "transmission"
	FieldBodyType           Field = "bodyType"
	FieldColor              Field = "color"
	FieldLocation           Field = "location"
	FieldImageURLs          Field = "imageUrls"
)

// Kind is the decoded type of a field value.
type Kind int

const (
	KindInteger Kind = iota + 1
	KindFloat
	KindString
	KindURLs
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindURLs:
		return "urls"
	default:
		return "unknown"
	}
}

// Value is a decoded field value. Only the member matching Kind is set.
type Value struct {
	Kind  Kind
	Int   int64
	Float float64
	Str   string
	URLs  []string
}

// IntValue returns an integer Value.
func IntValue(n int64) Value { return Value{Kind: KindInteger, Int: n} }

// FloatValue returns a float Value.
func FloatValue(f float64) Value { return Value{Kind: KindFloat, Float: f} }

// StringValue returns a string Value.
func StringValue(s string) Value { return Value{Kind: KindString, Str: s} }

// URLsValue returns a URL list Value.
func URLsValue(urls []string) Value { return Value{Kind: KindURLs, URLs: urls} }

// Number returns the numeric value for integer and float kinds.
func (v Value) Number() (float64, bool) {
	switch v.Kind {
	case KindInteger:
		return float64(v.Int), true
	case KindFloat:
		return v.Float, true
	default:
		return 0, false
	}
}

// String renders the value as text. The rendering length is what container
// scoring measures, so URL lists render comma-joined.
func (v Value) String() string {
	switch v.Kind {
	case KindInteger:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'f', -1, 64)
	case KindString:
		return v.Str
	case KindURLs:
		return strings.Join(v.URLs, ",")
	default:
		return ""
	}
}

// FieldMap maps each recognized field to its decoded value.
// A field appears at most once.
type FieldMap map[Field]Value

// Int returns the integer value of f.
func (m FieldMap) Int(f Field) (int, bool) {
	v, ok := m[f]
	if !ok || v.Kind != KindInteger {
		return 0, false
	}
	return int(v.Int), true
}

// Float returns the numeric value of f as a float. Integer values convert.
func (m FieldMap) Float(f Field) (float64, bool) {
	v, ok := m[f]
	if !ok {
		return 0, false
	}
	return v.Number()
}

// Str returns the string value of f.
func (m FieldMap) Str(f Field) (string, bool) {
	v, ok := m[f]
	if !ok || v.Kind != KindString {
		return "", false
	}
	return v.Str, true
}

// URLs returns the URL list stored under f.
func (m FieldMap) URLs(f Field) []string {
	v, ok := m[f]
	if !ok || v.Kind != KindURLs {
		return nil
	}
	return v.URLs
}

// Merge returns a new map holding the entries of m overridden by other.
func (m FieldMap) Merge(other FieldMap) FieldMap {
	out := make(FieldMap, len(m)+len(other))
	for k, v := range m {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}
