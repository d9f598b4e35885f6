package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/aluiziolira/go-scrape-orders/models"
	"golang.org/x/net/html"
)

// coarseTags is the element set searched for labels and values.
const coarseTags = "div, span, p, dt, dd, td, th, li, label, strong, b, h2, h3"

// Node is one element of a rendered page.
type Node interface {
	// Text returns the trimmed inner text with whitespace collapsed.
	Text() string
	// NextSibling returns the next element sibling, or nil.
	NextSibling() Node
	// Parent returns the enclosing element, or nil at the document root.
	Parent() Node
}

// Corpus is the rendered content of a single order detail page.
type Corpus interface {
	// Text returns the full visible text of the page.
	Text() string
	// Elements returns the coarse-tag elements that directly own text, in
	// document order. Wrappers whose text comes only from child elements are
	// left out so a label is matched once, at its innermost element; label
	// lookups reach those wrappers through Parent.
	Elements() []Node
	// ItemTitle returns the sold item's title, or "N/A".
	ItemTitle() string
}

// Document implements Corpus over a parsed HTML tree.
type Document struct {
	doc      *goquery.Document
	text     string
	elements []Node
}

// NewDocument parses rendered HTML.
func NewDocument(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return &Document{doc: doc}, nil
}

// NewDocumentFromString parses an HTML string.
func NewDocumentFromString(s string) (*Document, error) {
	return NewDocument(strings.NewReader(s))
}

// Find exposes the underlying tree for structural queries such as link harvesting.
func (d *Document) Find(selector string) *goquery.Selection {
	return d.doc.Find(selector)
}

// Text returns the visible text of the body, one line per block element.
func (d *Document) Text() string {
	if d.text != "" {
		return d.text
	}
	root := d.doc.Find("body")
	if root.Length() == 0 {
		root = d.doc.Selection
	}
	d.text = visibleText(root.Nodes...)
	return d.text
}

// Elements returns the text-owning coarse elements in document order.
func (d *Document) Elements() []Node {
	if d.elements != nil {
		return d.elements
	}
	sel := d.doc.Find(coarseTags)
	d.elements = make([]Node, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		if ownsText(s.Nodes[0]) {
			d.elements = append(d.elements, &element{sel: s})
		}
	})
	return d.elements
}

// ItemTitle prefers the listing link, then the first heading, then the page title.
func (d *Document) ItemTitle() string {
	title := ""
	d.doc.Find(`a[href*="/itm/"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		title = collapse(visibleText(s.Nodes...))
		return title == ""
	})
	if title != "" {
		return title
	}
	if h := collapse(visibleText(d.doc.Find("h1").First().Nodes...)); h != "" {
		return h
	}
	if t := strings.TrimSpace(d.doc.Find("title").First().Text()); t != "" {
		t = strings.TrimSuffix(t, "| eBay")
		return strings.TrimSpace(t)
	}
	return models.NotAvailable
}

type element struct {
	sel  *goquery.Selection
	text *string
}

func (e *element) Text() string {
	if e.text == nil {
		t := collapse(visibleText(e.sel.Nodes...))
		e.text = &t
	}
	return *e.text
}

func (e *element) NextSibling() Node {
	next := e.sel.Next()
	if next.Length() == 0 {
		return nil
	}
	return &element{sel: next}
}

func (e *element) Parent() Node {
	parent := e.sel.Parent()
	if parent.Length() == 0 || parent.Nodes[0].Type != html.ElementNode {
		return nil
	}
	return &element{sel: parent}
}

// inlineTags carry text on behalf of their parent element.
var inlineTags = map[string]bool{
	"a": true, "abbr": true, "bdi": true, "em": true, "font": true,
	"i": true, "small": true, "sub": true, "sup": true, "u": true,
}

func ownsText(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch {
		case c.Type == html.TextNode && strings.TrimSpace(c.Data) != "":
			return true
		case c.Type == html.ElementNode && inlineTags[c.Data] && collapse(visibleText(c)) != "":
			return true
		}
	}
	return false
}

var hiddenTags = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"head":     true,
}

var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "br": true, "dd": true,
	"div": true, "dl": true, "dt": true, "footer": true, "form": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hr": true, "li": true, "main": true, "nav": true,
	"ol": true, "p": true, "section": true, "table": true, "tr": true, "ul": true,
}

// visibleText approximates innerText: block elements break lines, cells are
// space separated, hidden elements are dropped.
func visibleText(nodes ...*html.Node) string {
	var b strings.Builder
	for _, n := range nodes {
		writeText(n, &b)
	}

	lines := strings.Split(b.String(), "\n")
	out := lines[:0]
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

func writeText(n *html.Node, b *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.CommentNode:
		return
	case html.ElementNode:
		if hiddenTags[n.Data] {
			return
		}
	}

	block := n.Type == html.ElementNode && blockTags[n.Data]
	cell := n.Type == html.ElementNode && (n.Data == "td" || n.Data == "th")
	if block {
		b.WriteByte('\n')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(c, b)
	}
	if block {
		b.WriteByte('\n')
	}
	if cell {
		b.WriteByte(' ')
	}
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
