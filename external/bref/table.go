package bref

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const idColumn = "player_id"

// htmlTable is a stats table flattened to data-stat keyed rows.
type htmlTable struct {
	header []string
	rows   [][]string
}

// findTable locates the table with the given id. The site ships most
// secondary tables inside HTML comments, so comments mentioning the id are
// parsed as fragments when the table is not in the live document.
func findTable(doc *html.Node, id string) *html.Node {
	if n := findByID(doc, id); n != nil {
		return n
	}
	var found *html.Node
	walk(doc, func(n *html.Node) bool {
		if n.Type != html.CommentNode || !strings.Contains(n.Data, `id="`+id+`"`) {
			return true
		}
		fragment, err := html.Parse(strings.NewReader(n.Data))
		if err != nil {
			return true
		}
		found = findByID(fragment, id)
		return found == nil
	})
	return found
}

func findByID(root *html.Node, id string) *html.Node {
	var found *html.Node
	walk(root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.DataAtom == atom.Table && attr(n, "id") == id {
			found = n
			return false
		}
		return true
	})
	return found
}

// flatten reads the header from the last thead row and every tbody row that
// is not a repeated header or a per-team split of a traded player.
func flatten(table *html.Node) htmlTable {
	var out htmlTable
	index := map[string]int{}

	walk(table, func(n *html.Node) bool {
		if n.Type != html.ElementNode || n.DataAtom != atom.Thead {
			return true
		}
		var last *html.Node
		for tr := n.FirstChild; tr != nil; tr = tr.NextSibling {
			if tr.Type == html.ElementNode && tr.DataAtom == atom.Tr {
				last = tr
			}
		}
		if last != nil {
			for cell := range cells(last) {
				if stat := attr(cell, "data-stat"); stat != "" {
					index[stat] = len(out.header)
					out.header = append(out.header, stat)
				}
			}
		}
		return false
	})
	index[idColumn] = len(out.header)
	out.header = append(out.header, idColumn)

	walk(table, func(n *html.Node) bool {
		if n.Type != html.ElementNode || n.DataAtom != atom.Tbody {
			return true
		}
		for tr := n.FirstChild; tr != nil; tr = tr.NextSibling {
			if tr.Type != html.ElementNode || tr.DataAtom != atom.Tr {
				continue
			}
			class := attr(tr, "class")
			if strings.Contains(class, "thead") || strings.Contains(class, "partial_table") {
				continue
			}
			row := make([]string, len(out.header))
			for cell := range cells(tr) {
				if id := attr(cell, "data-append-csv"); id != "" {
					row[index[idColumn]] = id
				}
				if i, ok := index[attr(cell, "data-stat")]; ok {
					row[i] = text(cell)
				}
			}
			out.rows = append(out.rows, row)
		}
		return false
	})
	return out
}

func cells(tr *html.Node) func(func(*html.Node) bool) {
	return func(yield func(*html.Node) bool) {
		for c := tr.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && (c.DataAtom == atom.Td || c.DataAtom == atom.Th) {
				if !yield(c) {
					return
				}
			}
		}
	}
}

// walk visits nodes depth first until fn returns false.
func walk(n *html.Node, fn func(*html.Node) bool) bool {
	if !fn(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, fn) {
			return false
		}
	}
	return true
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func text(n *html.Node) string {
	var buf bytes.Buffer
	walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			buf.WriteString(c.Data)
		}
		return true
	})
	return strings.TrimSpace(buf.String())
}
