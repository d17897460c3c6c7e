package extract

import (
	"net/url"
	"regexp"
	"slices"
	"strings"

	"github.com/fwojciec/carlot"
)

// DefaultImageDenylist holds URL fragments that mark site chrome, ads and
// trackers rather than listing photos.
var DefaultImageDenylist = []string{
	"logo", "icon", "nophoto", "placeholder", "banner", "advertisement",
	"social", "facebook", "twitter", "instagram", "youtube", "google",
	"analytics", "tracking", "pixel", "beacon", "sprite", "spacer", "1x1",
}

// DefaultImageAllowlist holds URL fragments that mark listing photos.
var DefaultImageAllowlist = []string{
	"photo", "image", "img", "pic", "car", "auto", "vehicle", "gallery",
}

var backgroundExpr = regexp.MustCompile(`(?i)background(?:-image)?\s*:[^;]*?url\(\s*['"]?([^'")]+?)['"]?\s*\)`)

// ImageHarvester collects listing photo URLs from a DOM subtree.
type ImageHarvester struct {
	deny           []string
	allow          []string
	contentDomains []string
}

// HarvesterOption configures an ImageHarvester.
type HarvesterOption func(*ImageHarvester)

// WithContentDomains accepts any image served from one of the hosts or
// their subdomains. Without content domains the page host is trusted.
func WithContentDomains(domains ...string) HarvesterOption {
	return func(h *ImageHarvester) {
		for _, d := range domains {
			if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
				h.contentDomains = append(h.contentDomains, d)
			}
		}
	}
}

// WithDenylist replaces the denylist.
func WithDenylist(words ...string) HarvesterOption {
	return func(h *ImageHarvester) {
		h.deny = lower(words)
	}
}

// WithAllowlist replaces the allowlist.
func WithAllowlist(words ...string) HarvesterOption {
	return func(h *ImageHarvester) {
		h.allow = lower(words)
	}
}

// NewImageHarvester creates a harvester with the default keyword lists.
func NewImageHarvester(opts ...HarvesterOption) *ImageHarvester {
	h := &ImageHarvester{
		deny:  DefaultImageDenylist,
		allow: DefaultImageAllowlist,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HarvestImages returns the deduplicated, sorted photo URLs referenced in the
// subtree rooted at n. Relative references resolve against pageURL.
func (h *ImageHarvester) HarvestImages(n carlot.Node, pageURL string) []string {
	base, _ := url.Parse(pageURL)

	seen := make(map[string]bool)
	carlot.Walk(n, func(el carlot.Node) bool {
		for _, ref := range references(el) {
			u := normalizeImageURL(base, ref)
			if u == "" || seen[u] || !h.accept(u, base) {
				continue
			}
			seen[u] = true
		}
		return true
	})

	urls := make([]string, 0, len(seen))
	for u := range seen {
		urls = append(urls, u)
	}
	slices.Sort(urls)
	return urls
}

// references lists the raw image references carried by one element.
func references(el carlot.Node) []string {
	var refs []string
	switch el.Tag() {
	case "img":
		for _, name := range []string{"src", "data-src", "data-lazy-src", "data-original"} {
			if v, ok := el.Attr(name); ok {
				refs = append(refs, v)
			}
		}
		fallthrough
	case "source":
		for _, name := range []string{"srcset", "data-srcset"} {
			if v, ok := el.Attr(name); ok {
				refs = append(refs, firstSrcset(v))
			}
		}
	}
	if style, ok := el.Attr("style"); ok {
		for _, m := range backgroundExpr.FindAllStringSubmatch(style, -1) {
			refs = append(refs, m[1])
		}
	}
	return refs
}

func firstSrcset(v string) string {
	first, _, _ := strings.Cut(v, ",")
	if f := strings.Fields(first); len(f) > 0 {
		return f[0]
	}
	return ""
}

// normalizeImageURL makes ref absolute. Protocol-relative references get
// https. Non-HTTP references resolve to "".
func normalizeImageURL(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(strings.ToLower(ref), "data:") {
		return ""
	}
	if strings.HasPrefix(ref, "//") {
		ref = "https:" + ref
	}

	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if !u.IsAbs() {
		if base == nil || !base.IsAbs() {
			return ""
		}
		u = base.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	u.Fragment = ""
	return u.String()
}

func (h *ImageHarvester) accept(rawURL string, base *url.URL) bool {
	lowered := strings.ToLower(rawURL)
	for _, w := range h.deny {
		if strings.Contains(lowered, w) {
			return false
		}
	}
	for _, w := range h.allow {
		if strings.Contains(lowered, w) {
			return true
		}
	}

	u, err := url.Parse(lowered)
	if err != nil {
		return false
	}
	domains := h.contentDomains
	if len(domains) == 0 && base != nil && base.Host != "" {
		domains = []string{strings.ToLower(base.Hostname())}
	}
	host := u.Hostname()
	for _, d := range domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

func lower(words []string) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = strings.ToLower(w)
	}
	return out
}
