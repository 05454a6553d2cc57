package render

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var multiNewline = regexp.MustCompile(`\n{3,}`)

// blockAtoms are elements that terminate a line in the text rendition.
var blockAtoms = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Table: true, atom.Tr: true,
	atom.Li: true, atom.Ul: true, atom.Ol: true, atom.Blockquote: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true,
	atom.H5: true, atom.H6: true, atom.Hr: true,
}

// ExtractPlaintext derives a text rendition from an HTML document. Block
// elements become line breaks and anchors surface their href as a trailing
// parenthetical, so the text part carries the same information as the HTML
// part. Hidden elements (preheaders) and non-content tags are skipped.
func ExtractPlaintext(doc string) string {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		// html.Parse is error-tolerant by design; a failure here means the
		// reader itself broke, which cannot happen with strings.Reader.
		return ""
	}

	var b strings.Builder
	walkText(root, &b)

	text := b.String()
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text = strings.Join(lines, "\n")
	text = multiNewline.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

func walkText(n *html.Node, b *strings.Builder) {
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.Script, atom.Style, atom.Head, atom.Title:
			return
		case atom.Br:
			b.WriteByte('\n')
			return
		}
		if hidden(n) {
			return
		}
		if n.DataAtom == atom.A {
			writeAnchor(n, b)
			return
		}
	}

	if n.Type == html.TextNode {
		b.WriteString(collapseSpace(n.Data))
		return
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkText(c, b)
	}

	if n.Type == html.ElementNode && blockAtoms[n.DataAtom] {
		b.WriteByte('\n')
	}
}

// writeAnchor emits the link text followed by the target in parentheses.
// Anchors whose text already is the URL are not doubled.
func writeAnchor(n *html.Node, b *strings.Builder) {
	var inner strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkText(c, &inner)
	}
	text := strings.TrimSpace(inner.String())
	href := attrValue(n, "href")

	b.WriteString(text)
	if href != "" && href != text {
		if text != "" {
			b.WriteByte(' ')
		}
		b.WriteString("(" + href + ")")
	}
}

func hidden(n *html.Node) bool {
	style := attrValue(n, "style")
	return strings.Contains(strings.ReplaceAll(style, " ", ""), "display:none")
}

func attrValue(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

// collapseSpace squeezes runs of whitespace while keeping word boundaries
// between adjacent text nodes intact.
func collapseSpace(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		if s == "" {
			return ""
		}
		return " "
	}

	out := strings.Join(fields, " ")
	if unicode.IsSpace(rune(s[0])) {
		out = " " + out
	}
	if unicode.IsSpace(rune(s[len(s)-1])) {
		out += " "
	}
	return out
}
