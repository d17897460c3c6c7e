// Package http provides net/http implementations of the carlot fetching
// interfaces: listing pages, listing photos and sitemaps.
package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// DefaultUserAgent identifies the scraper to classified sites.
const DefaultUserAgent = "Mozilla/5.0 (compatible; carlot/1.0)"

// DefaultAcceptLanguage prefers Bulgarian content, then English.
const DefaultAcceptLanguage = "bg,en;q=0.8"

// get issues a GET request and returns the response when it is 200 OK.
// The caller closes the body.
func get(ctx context.Context, client *http.Client, targetURL string, header http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, targetURL)
	}
	return resp, nil
}
