package dash

import (
	"encoding/xml"
	"fmt"
	"strings"
)

const xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="no"?>`

type attr struct {
	name  string
	value string
}

// Node is one element of a manifest document. Attributes keep insertion
// order.
type Node struct {
	Name     string
	Text     string
	Children []*Node
	attrs    []attr
}

// NewNode returns an element named name.
func NewNode(name string) *Node {
	return &Node{Name: name}
}

// Set sets attribute name to value, replacing an earlier value in place.
func (n *Node) Set(name, value string) *Node {
	for i := range n.attrs {
		if n.attrs[i].name == name {
			n.attrs[i].value = value
			return n
		}
	}
	n.attrs = append(n.attrs, attr{name: name, value: value})
	return n
}

// SetInt sets an integer attribute.
func (n *Node) SetInt(name string, value int64) *Node {
	return n.Set(name, fmt.Sprintf("%d", value))
}

// Attr returns the value of attribute name.
func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.attrs {
		if a.name == name {
			return a.value, true
		}
	}
	return "", false
}

// Append adds children and returns the last one, or n when none is given.
func (n *Node) Append(children ...*Node) *Node {
	n.Children = append(n.Children, children...)
	if len(children) == 0 {
		return n
	}
	return children[len(children)-1]
}

// Child returns the first child named name.
func (n *Node) Child(name string) *Node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Document serializes n as a standalone XML document.
func (n *Node) Document() string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	n.write(&b)
	return b.String()
}

func (n *Node) write(b *strings.Builder) {
	b.WriteByte('<')
	b.WriteString(n.Name)
	for _, a := range n.attrs {
		b.WriteByte(' ')
		b.WriteString(a.name)
		b.WriteString(`="`)
		escape(b, a.value)
		b.WriteByte('"')
	}
	if n.Text == "" && len(n.Children) == 0 {
		b.WriteString("/>")
		return
	}
	b.WriteByte('>')
	escape(b, n.Text)
	for _, c := range n.Children {
		c.write(b)
	}
	b.WriteString("</")
	b.WriteString(n.Name)
	b.WriteByte('>')
}

func escape(b *strings.Builder, s string) {
	// strings.Builder never fails to write
	_ = xml.EscapeText(b, []byte(s))
}
