// Package xml inspects rendered HTML fragments as XML: well-formedness
// checks and XPath queries over anchors, footnotes and highlights.
//
// The renderer emits XHTML-style markup, so a fragment wrapped in a synthetic
// root element is a well-formed XML document whenever every block it opened
// was closed. Named HTML entities are mapped to numeric references first,
// because the XML parser only knows the five predefined ones.
package xml

import (
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
)

// Document represents a parsed fragment.
type Document struct {
	root *xmlquery.Node
}

// Node represents an element of a parsed fragment.
type Node struct {
	node *xmlquery.Node
}

var entityReplacer = strings.NewReplacer(
	"&nbsp;", "&#160;",
	"&hellip;", "&#8230;",
	"&mdash;", "&#8212;",
	"&ndash;", "&#8211;",
)

// ParseFragment parses an HTML fragment produced by the renderer or the
// highlighter.
func ParseFragment(html string) (*Document, error) {
	src := "<fragment>" + entityReplacer.Replace(html) + "</fragment>"
	root, err := xmlquery.Parse(strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("parsing fragment: %w", err)
	}
	return &Document{root: root}, nil
}

// CheckFragment returns an error when the fragment is not well formed,
// typically because an element was opened and never closed.
func CheckFragment(html string) error {
	_, err := ParseFragment(html)
	return err
}

// XPath executes an XPath query and returns matching nodes.
func (d *Document) XPath(expr string) ([]*Node, error) {
	// Compile the expression to check for errors
	if _, err := xpath.Compile(expr); err != nil {
		return nil, fmt.Errorf("invalid xpath: %w", err)
	}

	nodes, err := xmlquery.QueryAll(d.root, expr)
	if err != nil {
		return nil, fmt.Errorf("xpath query failed: %w", err)
	}

	result := make([]*Node, len(nodes))
	for i, n := range nodes {
		result[i] = &Node{node: n}
	}
	return result, nil
}

// IDs returns the id attribute of every element, in document order.
func (d *Document) IDs() []string {
	nodes, err := d.XPath("//*[@id]")
	if err != nil {
		return nil
	}
	ids := make([]string, 0, len(nodes))
	for _, n := range nodes {
		ids = append(ids, n.Attr("id"))
	}
	return ids
}

// FootnoteKeys returns the ids of the footnote entries, in document order.
func (d *Document) FootnoteKeys() []string {
	nodes, err := d.XPath(`//div[@class="footnotes"]/div[@class="footnote"]`)
	if err != nil {
		return nil
	}
	keys := make([]string, 0, len(nodes))
	for _, n := range nodes {
		keys = append(keys, n.Attr("id"))
	}
	return keys
}

// Highlights returns the highlight elements, in document order.
func (d *Document) Highlights() []*Node {
	nodes, err := d.XPath(`//*[contains(concat(" ", @class, " "), " highlight ")]`)
	if err != nil {
		return nil
	}
	return nodes
}

// Name returns the element name.
func (n *Node) Name() string {
	if n.node == nil {
		return ""
	}
	return n.node.Data
}

// Text returns all text content of the node and its descendants.
func (n *Node) Text() string {
	if n.node == nil {
		return ""
	}
	return n.node.InnerText()
}

// Attr returns the value of a specific attribute.
func (n *Node) Attr(name string) string {
	if n.node == nil {
		return ""
	}
	return n.node.SelectAttr(name)
}

// Classes returns the space-separated class list of the node.
func (n *Node) Classes() []string {
	return strings.Fields(n.Attr("class"))
}
