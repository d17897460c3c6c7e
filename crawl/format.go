package crawl

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"
)

// DisplayURL renders a result page URL for progress output: no scheme, no
// "www.", percent-encoded Cyrillic decoded. URLs longer than maxRunes keep
// their tail, where the make, model and page number live.
func DisplayURL(rawURL string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}

	s := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		s = strings.TrimPrefix(u.Host, "www.") + u.EscapedPath()
		if p, err := url.PathUnescape(u.EscapedPath()); err == nil {
			s = strings.TrimPrefix(u.Host, "www.") + p
		}
		if u.RawQuery != "" {
			s += "?" + u.RawQuery
		}
	}

	n := utf8.RuneCountInString(s)
	if n <= maxRunes {
		return s
	}
	runes := []rune(s)
	if maxRunes == 1 {
		return string(runes[:1])
	}
	return "…" + string(runes[n-maxRunes+1:])
}

// FormatBytes renders a photo volume such as "512 B", "1.5 KB" or "2.0 MB".
func FormatBytes(n int) string {
	units := []string{"KB", "MB", "GB"}
	if n < 1024 {
		return fmt.Sprintf("%d B", n)
	}
	v := float64(n) / 1024
	i := 0
	for v >= 1024 && i < len(units)-1 {
		v /= 1024
		i++
	}
	return fmt.Sprintf("%.1f %s", v, units[i])
}
