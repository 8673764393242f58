package richtext

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// FromHTML parses an HTML fragment into attributed text. Bold, italic,
// underline and links are kept; all other markup is flattened.
func FromHTML(markup string) (*Text, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	t := &Text{}
	walk(doc.Find("body"), Run{}, t)
	trimEdges(t)
	return t, nil
}

func walk(sel *goquery.Selection, style Run, t *Text) {
	sel.Contents().Each(func(_ int, c *goquery.Selection) {
		n := c.Get(0)
		switch n.Type {
		case html.TextNode:
			r := style
			r.Text = collapseSpace(n.Data)
			t.Append(r)
		case html.ElementNode:
			next := style
			switch n.DataAtom {
			case atom.B, atom.Strong:
				next.Bold = true
			case atom.I, atom.Em:
				next.Italic = true
			case atom.U:
				next.Underline = true
			case atom.A:
				next.Link, _ = c.Attr("href")
			case atom.Br:
				t.Append(Run{Text: "\n"})
				return
			case atom.Script, atom.Style:
				return
			}
			block := isBlock(n.DataAtom)
			if block {
				breakLine(t)
			}
			walk(c, next, t)
			if block {
				breakLine(t)
			}
		}
	})
}

func isBlock(a atom.Atom) bool {
	switch a {
	case atom.P, atom.Div, atom.Li, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6, atom.Blockquote, atom.Pre:
		return true
	}
	return false
}

// breakLine ends the current line unless the text is empty or already ends
// with a newline.
func breakLine(t *Text) {
	s := t.String()
	if s == "" || strings.HasSuffix(s, "\n") {
		return
	}
	t.Append(Run{Text: "\n"})
}

// collapseSpace folds whitespace runs into single spaces, as a browser would.
func collapseSpace(s string) string {
	var sb strings.Builder
	space := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\f' {
			if !space {
				sb.WriteByte(' ')
			}
			space = true
			continue
		}
		space = false
		sb.WriteRune(r)
	}
	return sb.String()
}

func trimEdges(t *Text) {
	for len(t.Runs) > 0 {
		first := &t.Runs[0]
		first.Text = strings.TrimLeft(first.Text, " \n")
		if first.Text != "" {
			break
		}
		t.Runs = t.Runs[1:]
	}
	for len(t.Runs) > 0 {
		last := &t.Runs[len(t.Runs)-1]
		last.Text = strings.TrimRight(last.Text, " \n")
		if last.Text != "" {
			break
		}
		t.Runs = t.Runs[:len(t.Runs)-1]
	}
}
