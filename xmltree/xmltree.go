// Package xmltree provides the generic XML intermediate tree that sits
// between OOXML package-part bytes and the document node model. Element
// and attribute names keep their literal prefixes (w:p, w:val) — OOXML
// prefix bindings are fixed per part, so prefix-literal matching is both
// simpler and faithful to the source bytes.
package xmltree

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/antchfx/xmlquery"
)

// Attr is a single XML attribute. Attribute order is preserved because
// some OOXML consumers are order-sensitive.
type Attr struct {
	Name  string
	Value string
}

// Node is one element, or a text node when Name is empty and Text is set.
type Node struct {
	Name       string
	Attributes []Attr
	Elements   []*Node
	Text       string
}

// NewElement returns an element node with no attributes or children.
func NewElement(name string) *Node {
	return &Node{Name: name}
}

// NewText returns a text node.
func NewText(text string) *Node {
	return &Node{Text: text}
}

// IsText reports whether n is a text node.
func (n *Node) IsText() bool { return n.Name == "" }

// Attr returns the value of the named attribute and whether it is present.
func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.Attributes {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// AttrDefault returns the named attribute's value or def when absent.
func (n *Node) AttrDefault(name, def string) string {
	if v, ok := n.Attr(name); ok {
		return v
	}
	return def
}

// SetAttr sets or replaces the named attribute, preserving position on
// replace and appending otherwise.
func (n *Node) SetAttr(name, value string) {
	for i, a := range n.Attributes {
		if a.Name == name {
			n.Attributes[i].Value = value
			return
		}
	}
	n.Attributes = append(n.Attributes, Attr{Name: name, Value: value})
}

// Child returns the first child element with the given name, or nil.
func (n *Node) Child(name string) *Node {
	for _, c := range n.Elements {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Children returns all child elements with the given name.
func (n *Node) Children(name string) []*Node {
	var out []*Node
	for _, c := range n.Elements {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// AppendChild appends children to n and returns n for chaining.
func (n *Node) AppendChild(children ...*Node) *Node {
	n.Elements = append(n.Elements, children...)
	return n
}

// InnerText concatenates the text of n and all descendants in order.
func (n *Node) InnerText() string {
	var b strings.Builder
	n.innerText(&b)
	return b.String()
}

func (n *Node) innerText(b *strings.Builder) {
	if n.IsText() {
		b.WriteString(n.Text)
		return
	}
	for _, c := range n.Elements {
		c.innerText(b)
	}
}

// Clone returns a deep copy of n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	out := &Node{Name: n.Name, Text: n.Text}
	if len(n.Attributes) > 0 {
		out.Attributes = make([]Attr, len(n.Attributes))
		copy(out.Attributes, n.Attributes)
	}
	for _, c := range n.Elements {
		out.Elements = append(out.Elements, c.Clone())
	}
	return out
}

// Equal reports deep structural equality: names, attribute sets in order,
// text content and children.
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Name != b.Name || a.Text != b.Text || len(a.Attributes) != len(b.Attributes) || len(a.Elements) != len(b.Elements) {
		return false
	}
	for i := range a.Attributes {
		if a.Attributes[i] != b.Attributes[i] {
			return false
		}
	}
	for i := range a.Elements {
		if !Equal(a.Elements[i], b.Elements[i]) {
			return false
		}
	}
	return true
}

// Parse parses an XML part into an intermediate tree rooted at the
// document element. Whitespace-only text between elements is dropped
// unless the enclosing element declares xml:space="preserve".
func Parse(data []byte) (*Node, error) {
	doc, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing XML part: %w", err)
	}
	for c := doc.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode {
			return fromQueryNode(c, false), nil
		}
	}
	return nil, fmt.Errorf("XML part has no document element")
}

func fromQueryNode(q *xmlquery.Node, preserveSpace bool) *Node {
	n := &Node{Name: qualifiedName(q)}
	for _, a := range q.Attr {
		name := a.Name.Local
		if a.Name.Space != "" {
			name = a.Name.Space + ":" + a.Name.Local
		}
		n.Attributes = append(n.Attributes, Attr{Name: name, Value: a.Value})
		if name == "xml:space" && a.Value == "preserve" {
			preserveSpace = true
		}
	}
	for c := q.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case xmlquery.ElementNode:
			n.Elements = append(n.Elements, fromQueryNode(c, preserveSpace))
		case xmlquery.TextNode, xmlquery.CharDataNode:
			if preserveSpace || strings.TrimSpace(c.Data) != "" {
				n.Elements = append(n.Elements, NewText(c.Data))
			}
		}
	}
	return n
}

func qualifiedName(q *xmlquery.Node) string {
	if q.Prefix != "" {
		return q.Prefix + ":" + q.Data
	}
	return q.Data
}

// Serialize renders the tree as a standalone UTF-8 XML part.
func Serialize(root *Node) []byte {
	var b bytes.Buffer
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	writeNode(&b, root)
	return b.Bytes()
}

// SerializeFragment renders a subtree without the XML declaration, for
// embedding and for verbatim passthrough storage.
func SerializeFragment(n *Node) string {
	var b bytes.Buffer
	writeNode(&b, n)
	return b.String()
}

// ParseFragment parses a fragment produced by SerializeFragment back
// into a node. Fragments carry no xmlns declarations of their own, so
// the parse happens inside a wrapper element that binds every prefix
// the fragment uses; the bindings are discarded with the wrapper.
func ParseFragment(s string) (*Node, error) {
	var b bytes.Buffer
	b.WriteString("<fragment")
	for _, p := range fragmentPrefixes(s) {
		b.WriteString(" xmlns:")
		b.WriteString(p)
		b.WriteString(`="urn:fragment:`)
		b.WriteString(p)
		b.WriteString(`"`)
	}
	b.WriteString(">")
	b.WriteString(s)
	b.WriteString("</fragment>")
	doc, err := xmlquery.Parse(bytes.NewReader(b.Bytes()))
	if err != nil {
		return nil, fmt.Errorf("parsing XML fragment: %w", err)
	}
	for c := doc.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != xmlquery.ElementNode {
			continue
		}
		wrapper := fromQueryNode(c, false)
		for _, el := range wrapper.Elements {
			if !el.IsText() {
				return el, nil
			}
		}
	}
	return nil, fmt.Errorf("XML fragment has no element")
}

// fragmentPrefixes scans tag and attribute names for namespace
// prefixes, skipping attribute values and text content.
func fragmentPrefixes(s string) []string {
	seen := map[string]bool{}
	var out []string
	inTag := false
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '<':
			inTag = true
		case '>':
			inTag = false
		case '"', '\'':
			if inTag {
				quote = c
			}
		}
		if !inTag {
			continue
		}
		if c != '<' && c != ' ' && c != '\t' && c != '\n' && c != '\r' {
			continue
		}
		j := i + 1
		if j < len(s) && s[j] == '/' {
			j++
		}
		k := j
		for k < len(s) && isNameByte(s[k]) {
			k++
		}
		if k > j && k < len(s) && s[k] == ':' {
			p := s[j:k]
			if p != "xml" && p != "xmlns" && !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	sort.Strings(out)
	return out
}

func isNameByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' ||
		c >= '0' && c <= '9' || c == '_' || c == '-' || c == '.'
}

func writeNode(b *bytes.Buffer, n *Node) {
	if n.IsText() {
		escapeText(b, n.Text)
		return
	}
	b.WriteByte('<')
	b.WriteString(n.Name)
	for _, a := range n.Attributes {
		b.WriteByte(' ')
		b.WriteString(a.Name)
		b.WriteString(`="`)
		escapeAttr(b, a.Value)
		b.WriteByte('"')
	}
	if len(n.Elements) == 0 {
		b.WriteString("/>")
		return
	}
	b.WriteByte('>')
	for _, c := range n.Elements {
		writeNode(b, c)
	}
	b.WriteString("</")
	b.WriteString(n.Name)
	b.WriteByte('>')
}

func escapeText(b *bytes.Buffer, s string) {
	for _, r := range s {
		switch r {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		default:
			b.WriteRune(r)
		}
	}
}

func escapeAttr(b *bytes.Buffer, s string) {
	for _, r := range s {
		switch r {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			b.WriteString("&quot;")
		case '\n':
			b.WriteString("&#10;")
		case '\t':
			b.WriteString("&#9;")
		default:
			b.WriteRune(r)
		}
	}
}
