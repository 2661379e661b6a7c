// Package extract turns a fetched official page into the plain text shown to
// the user.
package extract

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// maxDepth bounds recursion on pathological markup.
const maxDepth = 512

// Text returns the readable text of an HTML document. The <main> element is
// preferred, falling back to <body>. Non-content elements are skipped and
// whitespace runs collapse to a single space. Adjacent text nodes are
// separated by a space so that block elements do not run words together.
func Text(document string) (string, error) {
	doc, err := html.Parse(strings.NewReader(document))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	root := find(doc, atom.Main, 0)
	if root == nil {
		root = find(doc, atom.Body, 0)
	}
	if root == nil {
		return "", nil
	}

	var sb strings.Builder
	collect(root, &sb, 0)
	return Collapse(sb.String()), nil
}

// Collapse replaces every run of whitespace with one space and trims the ends.
func Collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func find(n *html.Node, a atom.Atom, depth int) *html.Node {
	if depth > maxDepth {
		return nil
	}
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := find(c, a, depth+1); found != nil {
			return found
		}
	}
	return nil
}

func collect(n *html.Node, sb *strings.Builder, depth int) {
	if depth > maxDepth {
		return
	}

	switch n.Type {
	case html.TextNode:
		sb.WriteString(n.Data)
		sb.WriteByte(' ')
		return
	case html.ElementNode:
		if skipped(n) {
			return
		}
	case html.CommentNode:
		return
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collect(c, sb, depth+1)
	}
}

func skipped(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Script, atom.Style, atom.Noscript, atom.Template:
		return true
	}
	return false
}
