package directory

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// stateSelectors are tried in order to find the state dropdown.
var stateSelectors = []func(*html.Node) bool{
	func(n *html.Node) bool { return attr(n, "name") == "state_code" },
	func(n *html.Node) bool { return attr(n, "name") == "state" },
	func(n *html.Node) bool { return strings.Contains(attr(n, "id"), "state") },
}

// parseStateOptions returns the options of the page's state dropdown.
func parseStateOptions(r io.Reader) ([]Entry, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	selects := findAll(doc, atom.Select)
	for _, match := range stateSelectors {
		for _, sel := range selects {
			if match(sel) {
				return options(sel), nil
			}
		}
	}
	return nil, fmt.Errorf("state dropdown not found")
}

// parseOptions returns every usable option in an HTML fragment.
func parseOptions(r io.Reader) ([]Entry, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse options: %w", err)
	}
	return options(doc), nil
}

func options(root *html.Node) []Entry {
	var out []Entry
	for _, opt := range findAll(root, atom.Option) {
		e := Entry{
			Name:  strings.Join(strings.Fields(text(opt)), " "),
			Value: strings.TrimSpace(attr(opt, "value")),
		}
		if usable(e) {
			out = append(out, e)
		}
	}
	return out
}

func findAll(root *html.Node, a atom.Atom) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == a {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return out
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
	return b.String()
}
