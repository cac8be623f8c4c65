// Package goquery provides an HTML implementation of finstmt.DocumentParser
// built on goquery. It handles plain HTML and inline XBRL filings, decoding
// legacy charsets declared by the document.
package goquery

import (
	"errors"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/finstmt"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// headingSelector matches the heading levels used to label tables.
const headingSelector = "h1, h2, h3, h4, h5"

// Ensure Parser implements finstmt.DocumentParser at compile time.
var _ finstmt.DocumentParser = (*Parser)(nil)

// Parser finds every table in an HTML document.
type Parser struct {
	contentType string
}

// Option configures a Parser.
type Option func(*Parser)

// WithContentType sets the Content-Type used to pick the document charset.
// Without it, the charset is sniffed from the document itself.
func WithContentType(contentType string) Option {
	return func(p *Parser) {
		p.contentType = contentType
	}
}

// NewParser creates a new Parser.
func NewParser(opts ...Option) *Parser {
	p := &Parser{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse reads an HTML document and returns its tables in document order.
func (p *Parser) Parse(r io.Reader) ([]finstmt.Fragment, error) {
	decoded, err := charset.NewReader(r, p.contentType)
	if errors.Is(err, io.EOF) {
		// Empty document.
		return nil, nil
	}
	if err != nil {
		return nil, finstmt.Errorf(finstmt.EINVALID, "failed to read HTML: %v", err)
	}

	doc, err := goquery.NewDocumentFromReader(decoded)
	if err != nil {
		return nil, finstmt.Errorf(finstmt.EINVALID, "failed to parse HTML: %v", err)
	}

	return Fragments(doc), nil
}

// Fragments returns a fragment for every table in doc, nested tables
// included, in document order.
func Fragments(doc *goquery.Document) []finstmt.Fragment {
	var fragments []finstmt.Fragment

	// Selection results are in document order, so the last heading seen
	// before a table is its nearest preceding heading.
	var preceding string
	var hasPreceding bool

	doc.Find(headingSelector + ", table").Each(func(_ int, s *goquery.Selection) {
		if goquery.NodeName(s) != "table" {
			preceding = strings.TrimSpace(s.Text())
			hasPreceding = true
			return
		}
		f := newFragment(s)
		f.preceding = preceding
		f.hasPreceding = hasPreceding && preceding != ""
		fragments = append(fragments, f)
	})

	return fragments
}

// Ensure fragment implements finstmt.Fragment at compile time.
var _ finstmt.Fragment = (*fragment)(nil)

// fragment holds everything read from one table element. All markup is
// read up front so the fragment never touches the document again.
type fragment struct {
	caption    string
	hasCaption bool

	heading    string
	hasHeading bool

	preceding    string
	hasPreceding bool

	head    []finstmt.Row
	hasHead bool

	body    []finstmt.Row
	hasBody bool

	rows []finstmt.Row
}

func newFragment(table *goquery.Selection) *fragment {
	node := table.Get(0)
	f := &fragment{}

	if caption := ownElements(table, node, "caption").First(); caption.Length() > 0 {
		f.caption = strings.TrimSpace(caption.Text())
		f.hasCaption = f.caption != ""
	}

	heading := table.Find(headingSelector).FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.TrimSpace(s.Text()) != ""
	}).First()
	if heading.Length() > 0 {
		f.heading = strings.TrimSpace(heading.Text())
		f.hasHeading = true
	}

	f.hasHead = ownElements(table, node, "thead").Length() > 0
	f.hasBody = ownElements(table, node, "tbody").Length() > 0

	ownElements(table, node, "tr").Each(func(i int, tr *goquery.Selection) {
		row := finstmt.Row{
			Position: i,
			Cells: tr.ChildrenFiltered("td, th").Map(func(_ int, cell *goquery.Selection) string {
				return strings.TrimSpace(cell.Text())
			}),
		}
		f.rows = append(f.rows, row)

		switch parentName(tr) {
		case "thead":
			f.head = append(f.head, row)
		case "tbody":
			f.body = append(f.body, row)
		}
	})

	return f
}

// ownElements returns descendants of table matching selector that do not
// belong to a nested table.
func ownElements(table *goquery.Selection, node *html.Node, selector string) *goquery.Selection {
	return table.Find(selector).FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.Closest("table").Get(0) == node
	})
}

// parentName returns the element name of the selection's parent node.
func parentName(s *goquery.Selection) string {
	n := s.Get(0)
	if n.Parent == nil || n.Parent.Type != html.ElementNode {
		return ""
	}
	return n.Parent.Data
}

func (f *fragment) Caption() (string, bool) {
	return f.caption, f.hasCaption
}

func (f *fragment) InnerHeading() (string, bool) {
	return f.heading, f.hasHeading
}

func (f *fragment) PrecedingHeading() (string, bool) {
	return f.preceding, f.hasPreceding
}

// HeaderSection returns rows of <thead> elements.
func (f *fragment) HeaderSection() ([]finstmt.Row, bool) {
	return f.head, f.hasHead
}

// BodySection returns rows of <tbody> elements. The HTML parser inserts
// <tbody> around bare rows, so the body section usually exists and may
// include the first row of the table.
func (f *fragment) BodySection() ([]finstmt.Row, bool) {
	return f.body, f.hasBody
}

func (f *fragment) Rows() []finstmt.Row {
	return f.rows
}
