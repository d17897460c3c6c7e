// Package rod provides a headless-Chrome implementation of carlot.Fetcher
// for classified sites that render results with JavaScript.
package rod

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/fwojciec/carlot"
	"github.com/go-rod/rod/lib/proto"
)

// DefaultFetchTimeout bounds one page load including waits.
const DefaultFetchTimeout = 10 * time.Second

// Ensure Fetcher implements carlot.Fetcher at compile time.
var _ carlot.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves rendered HTML using Chrome browser automation.
// Fetcher is safe for concurrent use by multiple goroutines.
type Fetcher struct {
	manager      *BrowserManager
	timeout      time.Duration
	userAgent    string
	waitSelector string
	scroll       bool
	maxPages     int64
	proxy        string
	showBrowser  bool
	closed       atomic.Bool
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithFetchTimeout sets the per-page timeout.
func WithFetchTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithUserAgent overrides the browser User-Agent.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithWaitSelector waits for a CSS selector (e.g. the results list) to
// appear before the HTML is captured.
func WithWaitSelector(selector string) Option {
	return func(f *Fetcher) {
		f.waitSelector = selector
	}
}

// WithScroll scrolls to the bottom of the page before capturing it so that
// lazily loaded photos receive their real src attributes.
func WithScroll(enabled bool) Option {
	return func(f *Fetcher) {
		f.scroll = enabled
	}
}

// WithRecycleAfter sets how many pages the browser serves before it is
// restarted.
func WithRecycleAfter(n int64) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxPages = n
		}
	}
}

// WithBrowserProxy routes page loads through a proxy server.
func WithBrowserProxy(addr string) Option {
	return func(f *Fetcher) {
		f.proxy = addr
	}
}

// WithShowBrowser opens a visible Chrome window, which helps when tuning
// wait selectors.
func WithShowBrowser(show bool) Option {
	return func(f *Fetcher) {
		f.showBrowser = show
	}
}

// NewFetcher launches a headless Chrome browser.
// Close must be called when the Fetcher is no longer needed.
//
// Returns an error if Chrome/Chromium cannot be found or launched.
func NewFetcher(opts ...Option) (*Fetcher, error) {
	f := &Fetcher{
		timeout:  DefaultFetchTimeout,
		maxPages: DefaultMaxPages,
	}
	for _, opt := range opts {
		opt(f)
	}

	manager, err := NewBrowserManager(
		WithMaxPages(f.maxPages),
		WithProxy(f.proxy),
		WithHeadless(!f.showBrowser),
	)
	if err != nil {
		return nil, err
	}
	f.manager = manager
	return f, nil
}

// Fetch navigates to the URL and returns the rendered HTML.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	if f.closed.Load() {
		return "", carlot.Errorf(carlot.EINVALID, "fetcher is closed")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	page, err := f.manager.Browser().Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", err
	}
	defer page.Close()

	page = page.Context(ctx)

	if f.userAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: f.userAgent}); err != nil {
			return "", err
		}
	}

	if err := page.Navigate(url); err != nil {
		return "", contextErr(ctx, err)
	}
	if err := page.WaitLoad(); err != nil {
		return "", contextErr(ctx, err)
	}

	if f.waitSelector != "" {
		if _, err := page.Element(f.waitSelector); err != nil {
			return "", contextErr(ctx, err)
		}
	}

	if f.scroll {
		if _, err := page.Eval(`() => window.scrollTo(0, document.body.scrollHeight)`); err != nil {
			return "", contextErr(ctx, err)
		}
		if err := page.WaitDOMStable(300*time.Millisecond, 0); err != nil {
			return "", contextErr(ctx, err)
		}
	}

	html, err := page.HTML()
	if err != nil {
		return "", contextErr(ctx, err)
	}

	f.manager.IncrementPageCount()
	return html, nil
}

// contextErr prefers the context error so callers can match
// context.DeadlineExceeded regardless of how rod wrapped it.
func contextErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

// Close releases browser resources. Close is safe to call multiple times.
func (f *Fetcher) Close() error {
	if !f.closed.CompareAndSwap(false, true) {
		return nil
	}
	return f.manager.Close()
}

// LauncherPID returns the process ID of the browser launcher.
func (f *Fetcher) LauncherPID() int {
	return f.manager.LauncherPID()
}
