// Package htmldoc turns report HTML into a flat, ordered stream of
// headings, anchors and tables. It knows nothing about Oracle; it only
// answers structural questions (does this table have a header row, is it
// a key-value table) so the extractors can stay version-agnostic.
package htmldoc

import (
	"strings"

	"golang.org/x/net/html"
)

// Item is one element of the document stream, in document order. Exactly
// one field is set.
type Item struct {
	Heading *Heading
	Anchor  string
	Table   *Table
}

// Heading is an h1..h4 element with its collapsed text.
type Heading struct {
	Level int
	Text  string
}

// Table is one <table> with its cell text. Nested tables become separate
// items; a row's cells never include nested-table content.
type Table struct {
	Rows [][]string

	firstRowTH int
	firstRowTD int
}

// Document is the parsed stream.
type Document struct {
	Items []Item
}

// Parse builds the document stream. The tokenizer is tolerant, so this
// only fails on truly broken input.
func Parse(text string) (*Document, error) {
	root, err := html.Parse(strings.NewReader(text))
	if err != nil {
		return nil, err
	}
	doc := &Document{}
	doc.walk(root)
	return doc, nil
}

// Tables returns just the table items, still in document order.
func (d *Document) Tables() []*Table {
	var tables []*Table
	for _, it := range d.Items {
		if it.Table != nil {
			tables = append(tables, it.Table)
		}
	}
	return tables
}

func (d *Document) walk(n *html.Node) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "h1", "h2", "h3", "h4":
			if id := attr(n, "id"); id != "" {
				d.Items = append(d.Items, Item{Anchor: id})
			}
			d.Items = append(d.Items, Item{Heading: &Heading{
				Level: int(n.Data[1] - '0'),
				Text:  collapse(innerText(n)),
			}})
			return
		case "a":
			if name := attr(n, "name"); name != "" {
				d.Items = append(d.Items, Item{Anchor: name})
			}
			if id := attr(n, "id"); id != "" {
				d.Items = append(d.Items, Item{Anchor: id})
			}
		case "table":
			d.Items = append(d.Items, Item{Table: extractTable(n)})
			// nested tables still get their own items
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				d.walkNested(c)
			}
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		d.walk(c)
	}
}

// walkNested looks for tables below an already-extracted table, skipping
// everything else.
func (d *Document) walkNested(n *html.Node) {
	if n.Type == html.ElementNode && n.Data == "table" {
		d.walk(n)
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		d.walkNested(c)
	}
}

func extractTable(table *html.Node) *Table {
	t := &Table{}
	first := true
	forEach(table, "tr", func(tr *html.Node) {
		var cells []string
		th, td := 0, 0
		for c := tr.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.Data {
			case "th":
				th++
				cells = append(cells, collapse(innerText(c)))
			case "td":
				td++
				cells = append(cells, collapse(innerText(c)))
			}
		}
		if len(cells) == 0 {
			return
		}
		if first {
			t.firstRowTH, t.firstRowTD = th, td
			first = false
		}
		t.Rows = append(t.Rows, cells)
	})
	return t
}

// forEach visits descendant elements with the given tag, without crossing
// into nested tables.
func forEach(n *html.Node, tag string, fn func(*html.Node)) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			if c.Data == "table" {
				continue
			}
			if c.Data == tag {
				fn(c)
				continue
			}
		}
		forEach(c, tag, fn)
	}
}

// HasHeader reports whether the first row is a header: more th than td
// cells, or, for th-less tables, a textual first row followed by a row
// with numeric cells.
func (t *Table) HasHeader() bool {
	if len(t.Rows) == 0 {
		return false
	}
	if t.firstRowTH > t.firstRowTD {
		return true
	}
	if t.firstRowTH > 0 {
		return false
	}
	if len(t.Rows) < 2 {
		return false
	}
	return !rowLooksNumeric(t.Rows[0]) && rowLooksNumeric(t.Rows[1])
}

// Header returns the header cells, or nil when the table has none.
func (t *Table) Header() []string {
	if !t.HasHeader() {
		return nil
	}
	return t.Rows[0]
}

// Body returns the data rows, excluding the header row if present.
func (t *Table) Body() [][]string {
	if t.HasHeader() {
		return t.Rows[1:]
	}
	return t.Rows
}

// IsKeyValue reports whether at least 70% of rows have exactly two cells,
// the shape Oracle uses for label/value summary tables.
func (t *Table) IsKeyValue() bool {
	if len(t.Rows) == 0 {
		return false
	}
	pairs := 0
	for _, row := range t.Rows {
		if len(row) == 2 {
			pairs++
		}
	}
	return float64(pairs)/float64(len(t.Rows)) > 0.7
}

// KeyValues flattens a key-value table into a map. Keys lose any trailing
// colon; rows with other than two cells are skipped.
func (t *Table) KeyValues() map[string]string {
	kv := make(map[string]string, len(t.Rows))
	for _, row := range t.Rows {
		if len(row) != 2 {
			continue
		}
		key := strings.TrimSuffix(strings.TrimSpace(row[0]), ":")
		if key != "" {
			kv[key] = strings.TrimSpace(row[1])
		}
	}
	return kv
}

// rowLooksNumeric reports whether more than half of a row's non-empty
// cells parse as numbers after separator cleanup.
func rowLooksNumeric(row []string) bool {
	nonEmpty, numeric := 0, 0
	for _, cell := range row {
		cell = strings.TrimSpace(cell)
		if cell == "" {
			continue
		}
		nonEmpty++
		if looksNumeric(cell) {
			numeric++
		}
	}
	if nonEmpty == 0 {
		return false
	}
	return float64(numeric)/float64(nonEmpty) > 0.5
}

func looksNumeric(s string) bool {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "%")
	digits := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.' || r == ',' || r == '-' || r == '+' || r == ' ':
		default:
			return false
		}
	}
	return digits > 0
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

func innerText(n *html.Node) string {
	var sb strings.Builder
	var rec func(*html.Node)
	rec = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		if n.Type == html.ElementNode && n.Data == "table" {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			rec(c)
		}
	}
	rec(n)
	return sb.String()
}

// collapse trims and collapses runs of whitespace, including the
// non-breaking spaces AWR pads cells with.
func collapse(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	return strings.Join(strings.Fields(s), " ")
}
