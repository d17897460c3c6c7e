// Package htmlquery provides a carlot.Parser backed by antchfx/htmlquery.
// Unlike the goquery parser it can narrow the analyzed document to an XPath
// scope, which keeps navigation and footers out of container discovery on
// sites whose result list lives under a known element.
package htmlquery

import (
	"strings"
	"sync"

	"github.com/antchfx/htmlquery"
	"github.com/fwojciec/carlot"
	"golang.org/x/net/html"
)

// Ensure Parser implements carlot.Parser at compile time.
var _ carlot.Parser = (*Parser)(nil)

// textExpr selects rendered text beneath a node.
const textExpr = `.//text()[not(ancestor::script) and not(ancestor::style) and not(ancestor::noscript) and not(ancestor::template)]`

// Parser parses HTML with htmlquery.
type Parser struct {
	scope string
}

// Option configures a Parser.
type Option func(*Parser)

// WithScope roots parsed documents at the first element matching the XPath
// expression instead of <html>.
func WithScope(expr string) Option {
	return func(p *Parser) {
		p.scope = expr
	}
}

// NewParser creates a new Parser.
func NewParser(opts ...Option) *Parser {
	p := &Parser{scope: "//html"}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse parses html and returns the scoped document. Returns ENOTFOUND when
// the scope matches nothing.
func (p *Parser) Parse(rawHTML string, pageURL string) (*carlot.Document, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, carlot.Errorf(carlot.EINVALID, "empty HTML input")
	}

	top, err := htmlquery.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, carlot.Errorf(carlot.EINVALID, "failed to parse HTML: %v", err)
	}

	root, err := htmlquery.Query(top, p.scope)
	if err != nil {
		return nil, carlot.Errorf(carlot.EINVALID, "invalid scope %q: %v", p.scope, err)
	}
	if root == nil || root.Type != html.ElementNode {
		return nil, carlot.Errorf(carlot.ENOTFOUND, "scope %q matched no element", p.scope)
	}

	return &carlot.Document{Root: newNode(root), URL: pageURL}, nil
}

type node struct {
	n *html.Node

	once     sync.Once
	children []carlot.Node
	text     string
}

func newNode(n *html.Node) *node {
	return &node{n: n}
}

func (n *node) load() {
	n.once.Do(func() {
		for _, c := range htmlquery.Find(n.n, "./*") {
			n.children = append(n.children, newNode(c))
		}
		var parts []string
		for _, t := range htmlquery.Find(n.n, textExpr) {
			if f := strings.Fields(t.Data); len(f) > 0 {
				parts = append(parts, strings.Join(f, " "))
			}
		}
		n.text = strings.Join(parts, " ")
	})
}

func (n *node) Tag() string {
	return n.n.Data
}

func (n *node) Text() string {
	n.load()
	return n.text
}

func (n *node) Children() []carlot.Node {
	n.load()
	return n.children
}

func (n *node) Attr(name string) (string, bool) {
	for _, a := range n.n.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}
