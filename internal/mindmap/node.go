package mindmap

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Node is one mind-map label with its children.
// The JSON shape is the data format the markmap renderer consumes.
type Node struct {
	Content  string  `json:"content"` // Sanitized HTML
	Children []*Node `json:"children,omitempty"`
}

// Count returns the number of nodes in the subtree rooted at n.
func (n *Node) Count() int {
	if n == nil {
		return 0
	}
	total := 1
	for _, c := range n.Children {
		total += c.Count()
	}
	return total
}

// Depth returns the number of levels in the subtree rooted at n.
func (n *Node) Depth() int {
	if n == nil {
		return 0
	}
	deepest := 0
	for _, c := range n.Children {
		deepest = max(deepest, c.Depth())
	}
	return deepest + 1
}

// Text returns the label without markup, with entities decoded.
func (n *Node) Text() string {
	if n == nil {
		return ""
	}
	return plainText(n.Content)
}

// textPolicy strips every tag.
var textPolicy = bluemonday.StrictPolicy()

func plainText(s string) string {
	return strings.Join(strings.Fields(html.UnescapeString(textPolicy.Sanitize(s))), " ")
}

// labelPolicy keeps the inline formatting an outline can carry and the
// inline styles emitted by the code highlighter.
func labelPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("style").OnElements("pre", "code", "span")
	p.AllowStyles("color", "background-color", "font-weight", "font-style", "text-decoration", "display").
		OnElements("pre", "code", "span")
	return p
}
