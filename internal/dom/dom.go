// Package dom queries rendered HTML the way browser tests do: by the
// data-testid attribute.
package dom

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// TestIDAttr is the attribute elements are addressed by.
const TestIDAttr = "data-testid"

// Document is a parsed HTML document or fragment.
type Document struct {
	root *html.Node
}

// Element is one element node of a Document.
type Element struct {
	node *html.Node
}

// Parse reads an HTML document or fragment.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Document{root: root}, nil
}

// ParseString is Parse over a string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Find returns every element matching fn in document order.
func (d *Document) Find(fn func(*Element) bool) []*Element {
	var out []*Element
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			el := &Element{node: n}
			if fn(el) {
				out = append(out, el)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(d.root)
	return out
}

// GetAllByTestID returns the elements carrying the given test id.
func (d *Document) GetAllByTestID(id string) []*Element {
	return d.Find(func(el *Element) bool {
		v, ok := el.lookup(TestIDAttr)
		return ok && v == id
	})
}

// GetByTestID returns the first element carrying the given test id, or nil.
func (d *Document) GetByTestID(id string) *Element {
	all := d.GetAllByTestID(id)
	if len(all) == 0 {
		return nil
	}
	return all[0]
}

// GetByID returns the element with the given id attribute, or nil.
func (d *Document) GetByID(id string) *Element {
	all := d.Find(func(el *Element) bool {
		v, ok := el.lookup("id")
		return ok && v == id
	})
	if len(all) == 0 {
		return nil
	}
	return all[0]
}

// GetAllByTag returns the elements with the given tag name.
func (d *Document) GetAllByTag(tag string) []*Element {
	return d.Find(func(el *Element) bool { return el.node.Data == tag })
}

// Tag returns the element name.
func (e *Element) Tag() string {
	return e.node.Data
}

// Attr returns the value of an attribute, empty when absent.
func (e *Element) Attr(name string) string {
	v, _ := e.lookup(name)
	return v
}

// HasAttr reports whether the attribute is present.
func (e *Element) HasAttr(name string) bool {
	_, ok := e.lookup(name)
	return ok
}

func (e *Element) lookup(name string) (string, bool) {
	for _, a := range e.node.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// HasClass reports whether class is one of the element classes.
func (e *Element) HasClass(class string) bool {
	for _, c := range strings.Fields(e.Attr("class")) {
		if c == class {
			return true
		}
	}
	return false
}

// Text returns the element text with whitespace runs collapsed.
func (e *Element) Text() string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(e.node)
	return strings.Join(strings.Fields(b.String()), " ")
}

// CheckValidity mirrors the constraint validation of form controls: a
// control flagged aria-invalid="true" is invalid.
func (e *Element) CheckValidity() bool {
	return e.Attr("aria-invalid") != "true"
}

// Children returns the element children of e.
func (e *Element) Children() []*Element {
	var out []*Element
	for c := e.node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, &Element{node: c})
		}
	}
	return out
}

// Render serialises the element back to HTML.
func (e *Element) Render() (string, error) {
	var b strings.Builder
	if err := html.Render(&b, e.node); err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	return b.String(), nil
}
