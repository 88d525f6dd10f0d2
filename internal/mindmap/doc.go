// Package mindmap turns a markdown outline into a self-contained mind-map
// HTML document that the exporter can load.
//
// The outline is parsed with Goldmark into a tree of nodes:
//   - Headings nest by level
//   - List items nest under the heading or item that contains them
//   - Paragraphs, quotes and HTML blocks become leaves
//   - Fenced code blocks become leaves highlighted with Chroma
//
// Node labels are rendered to HTML and sanitized with bluemonday, so raw
// HTML in the outline cannot inject scripts into the generated document.
// The document itself comes from an HTML template loaded through the
// assets package ("mindmap" by default) and is rendered with html/template.
package mindmap
