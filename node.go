package carlot

// Node is a read-only view of one DOM element. The extraction engine depends
// only on this interface so any HTML parser, or a hand-built test tree, can
// feed it.
type Node interface {
	// Tag returns the lower-case element name.
	Tag() string

	// Text returns the flattened text of the subtree. Text nodes are joined
	// with single spaces and runs of whitespace are collapsed. Script and
	// style content is excluded.
	Text() string

	// Children returns the element children in document order.
	Children() []Node

	// Attr returns the value of the named attribute.
	Attr(name string) (string, bool)
}

// Document is a parsed page.
type Document struct {
	// Root is the top element, usually <html>.
	Root Node

	// URL is the page address. Relative image and link references
	// resolve against it.
	URL string
}

// Parser turns raw HTML into a Document.
type Parser interface {
	Parse(html string, pageURL string) (*Document, error)
}

// Walk visits n and every element beneath it in document order.
// Returning false from fn skips the node's subtree.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.Children() {
		Walk(c, fn)
	}
}
