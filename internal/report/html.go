package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/net/html"
)

// Heading is a table-of-contents entry extracted from rendered HTML.
type Heading struct {
	Level int
	Text  string
}

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// HTMLPage renders a Markdown report into a standalone HTML page with a
// generated table of contents after the first heading.
func HTMLPage(title string, markdown []byte) ([]byte, error) {
	var body bytes.Buffer
	if err := md.Convert(markdown, &body); err != nil {
		return nil, err
	}

	toc, err := TableOfContents(body.Bytes())
	if err != nil {
		return nil, err
	}

	var page bytes.Buffer
	page.WriteString("<!DOCTYPE html>\n<html>\n<head>\n")
	fmt.Fprintf(&page, "<meta charset=\"utf-8\">\n<title>%s</title>\n", html.EscapeString(title))
	page.WriteString("<style>body{font-family:sans-serif;max-width:60em;margin:2em auto}table{border-collapse:collapse}td,th{border:1px solid #ccc;padding:.25em .75em}</style>\n")
	page.WriteString("</head>\n<body>\n")

	if len(toc) > 1 {
		page.WriteString("<nav><ul>\n")
		for _, h := range toc {
			if h.Level != 2 {
				continue
			}
			fmt.Fprintf(&page, "<li>%s</li>\n", html.EscapeString(h.Text))
		}
		page.WriteString("</ul></nav>\n")
	}

	page.Write(body.Bytes())
	page.WriteString("</body>\n</html>\n")
	return page.Bytes(), nil
}

// TableOfContents extracts h1..h3 headings from an HTML fragment in document
// order.
func TableOfContents(fragment []byte) ([]Heading, error) {
	doc, err := html.Parse(bytes.NewReader(fragment))
	if err != nil {
		return nil, err
	}

	var toc []Heading
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "h1", "h2", "h3":
				toc = append(toc, Heading{
					Level: int(n.Data[1] - '0'),
					Text:  nodeText(n),
				})
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return toc, nil
}

// nodeText concatenates the text content of a node's subtree.
func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(b.String())
}
