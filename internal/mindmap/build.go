package mindmap

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/alnah/go-mindmap2pdf/internal/fileutil"
)

// Document defaults.
const (
	DefaultTemplate = "mindmap"
	DefaultLang     = "en"
	DefaultTitle    = "Mind map"
	DefaultD3URL    = "https://cdn.jsdelivr.net/npm/d3@7"
	DefaultViewURL  = "https://cdn.jsdelivr.net/npm/markmap-view@0.18"
)

// TemplateLoader loads HTML templates by name.
type TemplateLoader interface {
	LoadTemplate(name string) (string, error)
}

// Options configure the generated document.
// Front matter in the outline overrides Title, Lang and MaxWidth.
type Options struct {
	Template string // Template name, default "mindmap"
	Title    string // Used when the outline has no front matter title
	Lang     string
	D3URL    string
	ViewURL  string
	Duration int // Animation duration in ms, 0 = static
	MaxWidth int // Label wrap width in px, 0 = none
}

func (o Options) withDefaults() Options {
	if o.Template == "" {
		o.Template = DefaultTemplate
	}
	if o.Lang == "" {
		o.Lang = DefaultLang
	}
	if o.D3URL == "" {
		o.D3URL = DefaultD3URL
	}
	if o.ViewURL == "" {
		o.ViewURL = DefaultViewURL
	}
	return o
}

// templateData is the value the document template executes with.
type templateData struct {
	Lang     string
	Title    string
	D3URL    string
	ViewURL  string
	Root     *Node // JSON-encoded by html/template inside <script>
	Duration int
	MaxWidth int
}

// Builder renders outlines into mind-map HTML documents.
// A Builder is safe for concurrent use.
type Builder struct {
	parser *Parser
	tmpl   *template.Template
	opts   Options
}

// NewBuilder loads and compiles the document template.
func NewBuilder(loader TemplateLoader, opts Options) (*Builder, error) {
	opts = opts.withDefaults()

	source, err := loader.LoadTemplate(opts.Template)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTemplate, err)
	}
	tmpl, err := template.New(opts.Template).Parse(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTemplate, err)
	}
	return &Builder{parser: NewParser(), tmpl: tmpl, opts: opts}, nil
}

// Build parses the outline and renders the HTML document.
// A non-empty title overrides both front matter and Options.Title.
func (b *Builder) Build(ctx context.Context, outline []byte, title string) ([]byte, *Document, error) {
	doc, err := b.parser.Parse(ctx, outline)
	if err != nil {
		return nil, nil, err
	}

	data := templateData{
		Lang:     b.opts.Lang,
		Title:    b.title(doc, title),
		D3URL:    b.opts.D3URL,
		ViewURL:  b.opts.ViewURL,
		Root:     doc.Root,
		Duration: b.opts.Duration,
		MaxWidth: b.opts.MaxWidth,
	}
	if doc.Lang != "" {
		data.Lang = doc.Lang
	}
	if doc.MaxWidth > 0 {
		data.MaxWidth = doc.MaxWidth
	}
	doc.Title = data.Title // The title the document was written with

	var buf bytes.Buffer
	if err := b.tmpl.Execute(&buf, data); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrTemplate, err)
	}
	return buf.Bytes(), doc, nil
}

// title picks the explicit title, then front matter, then the configured
// default, then the root label.
func (b *Builder) title(doc *Document, explicit string) string {
	for _, t := range []string{explicit, doc.Title, b.opts.Title, doc.Root.Text()} {
		if t != "" {
			return t
		}
	}
	return DefaultTitle
}

// BuildFile renders the outline and writes the document to output atomically.
func (b *Builder) BuildFile(ctx context.Context, outline []byte, output, title string) (*Document, error) {
	page, doc, err := b.Build(ctx, outline, title)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := fileutil.WriteFileAtomic(output, page); err != nil {
		return nil, err
	}
	return doc, nil
}
