package extract

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/fwojciec/carlot"
)

// parseNumber decodes a number written with optional grouping separators.
// When both "." and "," appear the rightmost one is the decimal point. A
// separator that repeats is grouping. A single separator followed by exactly
// three digits is grouping unless decimal is set.
func parseNumber(raw string, decimal bool) (float64, bool) {
	s := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '\'' {
			return -1
		}
		return r
	}, raw)
	if s == "" {
		return 0, false
	}

	lastDot := strings.LastIndexByte(s, '.')
	lastComma := strings.LastIndexByte(s, ',')

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastDot > lastComma {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		}
	case lastDot >= 0 || lastComma >= 0:
		sep := "."
		at := lastDot
		if lastComma >= 0 {
			sep, at = ",", lastComma
		}
		grouping := strings.Count(s, sep) > 1 || (len(s)-at-1 == 3 && !decimal)
		if grouping {
			s = strings.ReplaceAll(s, sep, "")
		} else {
			s = strings.Replace(s, sep, ".", 1)
		}
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// decode converts the raw span of one match into a field value. It reports
// false when the span cannot be parsed or the value fails validation.
func decode(p FieldPattern, f SurfaceForm, raw string) (carlot.Value, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return carlot.Value{}, false
	}

	if p.Kind == carlot.KindString {
		return carlot.StringValue(raw), true
	}

	n, ok := parseNumber(raw, f.Decimal)
	if !ok {
		return carlot.Value{}, false
	}
	if f.Divisor != 0 && f.Divisor != 1 {
		n /= f.Divisor
	}
	if p.Validate != nil && !p.Validate(n) {
		return carlot.Value{}, false
	}

	if p.Kind == carlot.KindInteger {
		return carlot.IntValue(int64(math.Round(n))), true
	}
	return carlot.FloatValue(n), true
}
