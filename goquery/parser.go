package goquery

import (
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/carlot"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Ensure Parser implements carlot.Parser at compile time.
var _ carlot.Parser = (*Parser)(nil)

// Parser parses HTML with goquery and exposes it through carlot.Node.
type Parser struct{}

// NewParser creates a new Parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse parses html. The root of the returned document is the <html>
// element.
func (p *Parser) Parse(rawHTML string, pageURL string) (*carlot.Document, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, carlot.Errorf(carlot.EINVALID, "empty HTML input")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, carlot.Errorf(carlot.EINVALID, "failed to parse HTML: %v", err)
	}

	root := doc.Find("html").First()
	if root.Length() == 0 {
		return nil, carlot.Errorf(carlot.EINVALID, "document has no root element")
	}

	return &carlot.Document{
		Root: NewNode(root.Get(0)),
		URL:  pageURL,
	}, nil
}

// Node adapts an *html.Node element to carlot.Node. Children and text are
// computed once and cached.
type Node struct {
	n *html.Node

	childrenOnce sync.Once
	children     []carlot.Node

	textOnce sync.Once
	text     string
}

// NewNode wraps an element node.
func NewNode(n *html.Node) *Node {
	return &Node{n: n}
}

// HTMLNode returns the underlying node.
func (n *Node) HTMLNode() *html.Node {
	return n.n
}

func (n *Node) Tag() string {
	return n.n.Data
}

func (n *Node) Text() string {
	n.textOnce.Do(func() {
		var parts []string
		collectText(n.n, &parts)
		n.text = strings.Join(parts, " ")
	})
	return n.text
}

func (n *Node) Children() []carlot.Node {
	n.childrenOnce.Do(func() {
		for c := n.n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode {
				n.children = append(n.children, NewNode(c))
			}
		}
	})
	return n.children
}

func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.n.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// collectText appends the whitespace-collapsed words of every text node under
// n, skipping content that is never rendered as text.
func collectText(n *html.Node, parts *[]string) {
	switch n.Type {
	case html.TextNode:
		if f := strings.Fields(n.Data); len(f) > 0 {
			*parts = append(*parts, strings.Join(f, " "))
		}
		return
	case html.CommentNode:
		return
	case html.ElementNode:
		switch n.DataAtom {
		case atom.Script, atom.Style, atom.Noscript, atom.Template:
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, parts)
	}
}
