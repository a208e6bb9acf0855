// Package htmldoc extracts tables from broker-exported HTML reports. MT5 and
// cTrader statements are just styled <table> soup; this wraps x/net/html's
// node tree in something the parsers can iterate.
package htmldoc

import (
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/username/tradevault/backend/src/security/validation"
)

// Cell is one <td>/<th> with its flattened text and class attribute.
type Cell struct {
	Text  string
	Class string
}

// Row is the cells of one <tr>.
type Row struct {
	Cells []Cell
}

// Table is one <table> element with its class attribute and all rows,
// including rows nested in thead/tbody sections.
type Table struct {
	Class string
	Rows  []Row
}

// Texts returns the trimmed cell texts of a row.
func (r Row) Texts() []string {
	out := make([]string, len(r.Cells))
	for i, c := range r.Cells {
		out[i] = c.Text
	}
	return out
}

// Text concatenates every cell of every row; used for locating tables by
// their content.
func (t Table) Text() string {
	var b strings.Builder
	for _, r := range t.Rows {
		for _, c := range r.Cells {
			b.WriteString(c.Text)
			b.WriteByte(' ')
		}
	}
	return b.String()
}

// Parse reads an HTML document and returns every table in document order.
func Parse(r io.Reader) ([]Table, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	var tables []Table
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "table" {
			tables = append(tables, extractTable(n))
			// Broker reports do not nest tables; no need to descend.
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return tables, nil
}

func extractTable(table *html.Node) Table {
	t := Table{Class: attr(table, "class")}

	var walkRows func(n *html.Node)
	walkRows = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			t.Rows = append(t.Rows, extractRow(n))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walkRows(c)
		}
	}
	walkRows(table)
	return t
}

func extractRow(tr *html.Node) Row {
	var row Row
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (c.Data == "td" || c.Data == "th") {
			row.Cells = append(row.Cells, Cell{
				Text:  strings.TrimSpace(validation.StripUnprintable(nodeText(c))),
				Class: attr(c, "class"),
			})
		}
	}
	return row
}

func nodeText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(nodeText(c))
	}
	return b.String()
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}
