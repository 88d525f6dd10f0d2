package mindmap

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/renderer"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"

	"github.com/alnah/go-mindmap2pdf/internal/yamlutil"
)

// Input limits.
var (
	MaxInputSize = 1 << 20 // 1 MiB of markdown
	MaxNodes     = 5000
)

// CodeStyle is the Chroma style used for fenced code blocks.
const CodeStyle = "github"

// Document is a parsed outline.
type Document struct {
	Title    string // Front matter title, empty when absent
	Lang     string // Front matter lang, empty when absent
	MaxWidth int    // Front matter markmap.maxWidth, 0 when absent
	Root     *Node
}

// frontMatter is the YAML block accepted at the top of an outline.
type frontMatter struct {
	Title   string `yaml:"title"`
	Lang    string `yaml:"lang"`
	Markmap struct {
		MaxWidth int `yaml:"maxWidth"`
	} `yaml:"markmap"`
}

// Parser converts markdown outlines into node trees.
// A Parser is safe for concurrent use.
type Parser struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

// NewParser creates a Parser with GFM extensions and inline-styled code highlighting.
func NewParser() *Parser {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle(CodeStyle),
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(false), // The document ships no stylesheet for code
				),
			),
		),
		goldmark.WithRendererOptions(
			gmhtml.WithUnsafe(), // Raw HTML is sanitized per label afterwards
		),
	)
	return &Parser{md: md, policy: labelPolicy()}
}

// Parse builds the node tree of src.
// Goldmark has no context support, so parsing runs in a goroutine and the
// caller is released as soon as ctx is done.
func (p *Parser) Parse(ctx context.Context, src []byte) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(src) > MaxInputSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrOutlineTooLarge, len(src), MaxInputSize)
	}

	type result struct {
		doc *Document
		err error
	}

	done := make(chan result, 1)

	go func() {
		doc, err := p.parse(src)
		done <- result{doc: doc, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		return r.doc, r.err
	}
}

func (p *Parser) parse(src []byte) (*Document, error) {
	var front frontMatter
	raw, body, ok := yamlutil.SplitFrontMatter(src)
	if ok && len(bytes.TrimSpace(raw)) > 0 {
		if err := yamlutil.Unmarshal(raw, &front); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFrontMatter, err)
		}
	}

	t := &treeBuilder{
		source:   body,
		renderer: p.md.Renderer(),
		policy:   p.policy,
		root:     &Node{},
	}
	tree := p.md.Parser().Parse(text.NewReader(body))
	if err := t.document(tree); err != nil {
		return nil, err
	}

	var root *Node
	switch top := t.root.Children; len(top) {
	case 0:
		return nil, ErrEmptyOutline
	case 1:
		root = top[0]
	default:
		root = &Node{Content: html.EscapeString(front.Title), Children: top}
	}

	return &Document{
		Title:    strings.TrimSpace(front.Title),
		Lang:     strings.TrimSpace(front.Lang),
		MaxWidth: front.Markmap.MaxWidth,
		Root:     root,
	}, nil
}

// headingFrame is an open heading that later blocks attach to.
type headingFrame struct {
	level int
	node  *Node
}

// treeBuilder walks one Goldmark AST. It is not reused across documents.
type treeBuilder struct {
	source   []byte
	renderer renderer.Renderer
	policy   *bluemonday.Policy
	root     *Node
	open     []headingFrame
	count    int
}

func (t *treeBuilder) document(doc ast.Node) error {
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		heading, ok := n.(*ast.Heading)
		if !ok {
			if err := t.block(t.current(), n); err != nil {
				return err
			}
			continue
		}

		label, err := t.inline(heading)
		if err != nil {
			return err
		}
		for len(t.open) > 0 && t.open[len(t.open)-1].level >= heading.Level {
			t.open = t.open[:len(t.open)-1]
		}
		node, err := t.add(t.current(), label)
		if err != nil {
			return err
		}
		t.open = append(t.open, headingFrame{level: heading.Level, node: node})
	}
	return nil
}

// current returns the innermost open heading, or the root.
func (t *treeBuilder) current() *Node {
	if len(t.open) == 0 {
		return t.root
	}
	return t.open[len(t.open)-1].node
}

func (t *treeBuilder) block(parent *Node, n ast.Node) error {
	switch n := n.(type) {
	case *ast.List:
		for item := n.FirstChild(); item != nil; item = item.NextSibling() {
			if err := t.item(parent, item); err != nil {
				return err
			}
		}
		return nil
	case *ast.Paragraph, *ast.TextBlock:
		label, err := t.inline(n)
		if err != nil {
			return err
		}
		return t.leaf(parent, label)
	case *ast.ThematicBreak:
		return nil
	default:
		// Code, quotes, tables and raw HTML keep their block markup
		label, err := t.render(n)
		if err != nil {
			return err
		}
		return t.leaf(parent, label)
	}
}

// item adds a list item. Its first paragraph is the label; everything after
// it (nested lists, code, further paragraphs) becomes its children.
func (t *treeBuilder) item(parent *Node, item ast.Node) error {
	var node *Node
	for c := item.FirstChild(); c != nil; c = c.NextSibling() {
		if node == nil {
			label := ""
			switch c.(type) {
			case *ast.Paragraph, *ast.TextBlock:
				var err error
				if label, err = t.inline(c); err != nil {
					return err
				}
			}
			var err error
			if node, err = t.add(parent, label); err != nil {
				return err
			}
			if label != "" {
				continue
			}
		}
		if err := t.block(node, c); err != nil {
			return err
		}
	}
	if node == nil {
		_, err := t.add(parent, "")
		return err
	}
	return nil
}

func (t *treeBuilder) leaf(parent *Node, label string) error {
	if label == "" {
		return nil
	}
	_, err := t.add(parent, label)
	return err
}

func (t *treeBuilder) add(parent *Node, label string) (*Node, error) {
	t.count++
	if t.count > MaxNodes {
		return nil, fmt.Errorf("%w: max %d", ErrTooManyNodes, MaxNodes)
	}
	node := &Node{Content: label}
	parent.Children = append(parent.Children, node)
	return node, nil
}

// inline renders the inline children of a heading or paragraph.
func (t *treeBuilder) inline(n ast.Node) (string, error) {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if box, ok := c.(*east.TaskCheckBox); ok {
			if box.IsChecked {
				buf.WriteString("☑ ")
			} else {
				buf.WriteString("☐ ")
			}
			continue
		}
		if err := t.renderer.Render(&buf, t.source, c); err != nil {
			return "", fmt.Errorf("%w: %v", ErrParse, err)
		}
	}
	return t.sanitize(buf.String()), nil
}

// render renders a whole block with its markup.
func (t *treeBuilder) render(n ast.Node) (string, error) {
	var buf bytes.Buffer
	if err := t.renderer.Render(&buf, t.source, n); err != nil {
		return "", fmt.Errorf("%w: %v", ErrParse, err)
	}
	return t.sanitize(buf.String()), nil
}

func (t *treeBuilder) sanitize(s string) string {
	return strings.TrimSpace(t.policy.Sanitize(s))
}
