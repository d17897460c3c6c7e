package mock

import (
	"strings"

	"github.com/fwojciec/carlot"
)

var _ carlot.Node = (*Node)(nil)

// Node is an in-memory carlot.Node for building DOM fixtures.
// Content is the element's own text and precedes the text of its children.
// The Fn fields, when set, override the data fields.
type Node struct {
	Name     string
	Content  string
	Attrs    map[string]string
	Elements []*Node

	TextFn     func() string
	ChildrenFn func() []carlot.Node
}

// El builds a Node with the given tag, own text and children.
func El(tag, content string, children ...*Node) *Node {
	return &Node{Name: tag, Content: content, Elements: children}
}

// With sets an attribute and returns the node.
func (n *Node) With(name, value string) *Node {
	if n.Attrs == nil {
		n.Attrs = make(map[string]string)
	}
	n.Attrs[name] = value
	return n
}

func (n *Node) Tag() string {
	return n.Name
}

func (n *Node) Text() string {
	if n.TextFn != nil {
		return n.TextFn()
	}
	parts := []string{n.Content}
	for _, c := range n.Children() {
		parts = append(parts, c.Text())
	}
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

func (n *Node) Children() []carlot.Node {
	if n.ChildrenFn != nil {
		return n.ChildrenFn()
	}
	out := make([]carlot.Node, len(n.Elements))
	for i, c := range n.Elements {
		out[i] = c
	}
	return out
}

func (n *Node) Attr(name string) (string, bool) {
	v, ok := n.Attrs[name]
	return v, ok
}
