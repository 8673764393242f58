// Package richtext models attributed text attached to a share-target (its
// title and content body) and converts it to plain text and HTML.
package richtext

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Run is a span of text sharing one set of attributes.
type Run struct {
	Text      string
	Bold      bool
	Italic    bool
	Underline bool
	Link      string
}

func (r Run) sameStyle(o Run) bool {
	return r.Bold == o.Bold && r.Italic == o.Italic && r.Underline == o.Underline && r.Link == o.Link
}

// Text is an attributed string.
type Text struct {
	Runs []Run
}

// Plain returns unattributed text.
func Plain(s string) *Text {
	t := &Text{}
	t.Append(Run{Text: s})
	return t
}

// Append adds r, merging it into the last run when the attributes match.
func (t *Text) Append(r Run) {
	if r.Text == "" {
		return
	}
	if n := len(t.Runs); n > 0 && t.Runs[n-1].sameStyle(r) {
		t.Runs[n-1].Text += r.Text
		return
	}
	t.Runs = append(t.Runs, r)
}

// String returns the text without attributes.
func (t *Text) String() string {
	if t == nil {
		return ""
	}
	var sb strings.Builder
	for _, r := range t.Runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

// Empty reports whether t carries no characters. A nil Text is empty.
func (t *Text) Empty() bool {
	return t.String() == ""
}

// ErrUnsafeLink is returned by HTML for links that cannot be rendered.
var ErrUnsafeLink = errors.New("unsafe link")

// HTML renders t as an HTML fragment wrapped in a single paragraph.
func (t *Text) HTML() (string, error) {
	if t == nil {
		return "", errors.New("render html: nil text")
	}

	p := &html.Node{Type: html.ElementNode, Data: "p", DataAtom: atom.P}
	for _, r := range t.Runs {
		nodes, err := runNodes(r)
		if err != nil {
			return "", err
		}
		for _, n := range nodes {
			p.AppendChild(n)
		}
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, p); err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	return buf.String(), nil
}

// runNodes builds the nodes for one run, nested as <a><u><i><b>text</b></i></u></a>
// with only the wrappers whose attribute is set. Newlines become <br>.
func runNodes(r Run) ([]*html.Node, error) {
	var nodes []*html.Node
	for i, line := range strings.Split(r.Text, "\n") {
		if i > 0 {
			nodes = append(nodes, &html.Node{Type: html.ElementNode, Data: "br", DataAtom: atom.Br})
		}
		if line != "" {
			nodes = append(nodes, &html.Node{Type: html.TextNode, Data: line})
		}
	}

	wrap := func(a atom.Atom, attrs ...html.Attribute) {
		el := &html.Node{Type: html.ElementNode, Data: a.String(), DataAtom: a, Attr: attrs}
		for _, n := range nodes {
			el.AppendChild(n)
		}
		nodes = []*html.Node{el}
	}

	if r.Bold {
		wrap(atom.B)
	}
	if r.Italic {
		wrap(atom.I)
	}
	if r.Underline {
		wrap(atom.U)
	}
	if r.Link != "" {
		u, err := url.Parse(r.Link)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrUnsafeLink, r.Link, err)
		}
		if strings.EqualFold(u.Scheme, "javascript") {
			return nil, fmt.Errorf("%w: %q", ErrUnsafeLink, r.Link)
		}
		wrap(atom.A, html.Attribute{Key: "href", Val: u.String()})
	}
	return nodes, nil
}
