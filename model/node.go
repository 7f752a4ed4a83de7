// Package model defines the in-memory document node tree: an ordered,
// typed tree of nodes with attributes and inline marks, a data-driven
// schema describing the closed registry of node and mark types, and
// atomic transactions with position mapping.
package model

import "unicode/utf8"

// Attrs maps attribute names to values. Semantics are defined per node
// or mark type by the schema.
type Attrs map[string]any

// Clone returns a shallow copy of a (values are treated as immutable).
func (a Attrs) Clone() Attrs {
	if a == nil {
		return nil
	}
	out := make(Attrs, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Mark is an inline annotation (bold, link, trackInsert, ...) attached
// to a text node. Marks are unique by type per node.
type Mark struct {
	Type  string
	Attrs Attrs
}

// Node is one node of the document tree. Text nodes have Type == "text",
// non-empty Text and no Content; all other nodes have Content per their
// type's content model.
type Node struct {
	Type    string
	Attrs   Attrs
	Content []*Node
	Marks   []Mark
	Text    string
}

// TextType is the type name of text nodes.
const TextType = "text"

// NewNode returns a node of the given type.
func NewNode(typ string, attrs Attrs, content ...*Node) *Node {
	return &Node{Type: typ, Attrs: attrs, Content: content}
}

// NewText returns a text node carrying the given marks.
func NewText(text string, marks ...Mark) *Node {
	return &Node{Type: TextType, Text: text, Marks: marks}
}

// IsText reports whether n is a text node.
func (n *Node) IsText() bool { return n.Type == TextType }

// Size returns the node's token size: text nodes count one token per
// rune, leaf nodes count one, and parent nodes count an open and close
// token around their content.
func (n *Node) Size() int {
	if n.IsText() {
		return utf8.RuneCountInString(n.Text)
	}
	if len(n.Content) == 0 {
		return 1
	}
	return 2 + n.contentSize()
}

func (n *Node) contentSize() int {
	sum := 0
	for _, c := range n.Content {
		sum += c.Size()
	}
	return sum
}

// ContentSize returns the token size of n's content.
func (n *Node) ContentSize() int { return n.contentSize() }

// Attr returns the named attribute value, or nil when absent.
func (n *Node) Attr(name string) any {
	if n.Attrs == nil {
		return nil
	}
	return n.Attrs[name]
}

// StringAttr returns the named attribute as a string, or "" when absent
// or not a string.
func (n *Node) StringAttr(name string) string {
	s, _ := n.Attr(name).(string)
	return s
}

// IntAttr returns the named attribute as an int, accepting int and
// float64 values; ok is false otherwise.
func (n *Node) IntAttr(name string) (int, bool) {
	switch v := n.Attr(name).(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	}
	return 0, false
}

// BoolAttr returns the named attribute as a bool, false when absent.
func (n *Node) BoolAttr(name string) bool {
	b, _ := n.Attr(name).(bool)
	return b
}

// Mark returns the mark of the given type, or nil.
func (n *Node) Mark(typ string) *Mark {
	for i := range n.Marks {
		if n.Marks[i].Type == typ {
			return &n.Marks[i]
		}
	}
	return nil
}

// HasMark reports whether n carries a mark of the given type.
func (n *Node) HasMark(typ string) bool { return n.Mark(typ) != nil }

// AddMark returns a copy of n with the mark set, replacing any existing
// mark of the same type.
func (n *Node) AddMark(m Mark) *Node {
	out := n.Clone()
	for i := range out.Marks {
		if out.Marks[i].Type == m.Type {
			out.Marks[i] = m
			return out
		}
	}
	out.Marks = append(out.Marks, m)
	return out
}

// RemoveMark returns a copy of n without any mark of the given type.
func (n *Node) RemoveMark(typ string) *Node {
	out := n.Clone()
	marks := out.Marks[:0:0]
	for _, m := range out.Marks {
		if m.Type != typ {
			marks = append(marks, m)
		}
	}
	out.Marks = marks
	return out
}

// Clone returns a copy of n sharing children (copy-on-write spine copies
// happen in transaction application).
func (n *Node) Clone() *Node {
	out := *n
	out.Attrs = n.Attrs.Clone()
	if len(n.Marks) > 0 {
		out.Marks = make([]Mark, len(n.Marks))
		copy(out.Marks, n.Marks)
	}
	if len(n.Content) > 0 {
		out.Content = make([]*Node, len(n.Content))
		copy(out.Content, n.Content)
	}
	return &out
}

// DeepClone returns a fully independent copy of the subtree.
func (n *Node) DeepClone() *Node {
	out := n.Clone()
	for i, c := range out.Content {
		out.Content[i] = c.DeepClone()
	}
	return out
}

// TextContent concatenates all descendant text in document order.
func (n *Node) TextContent() string {
	if n.IsText() {
		return n.Text
	}
	var s string
	for _, c := range n.Content {
		s += c.TextContent()
	}
	return s
}

// Eq reports structural equality of two nodes: type, attrs, marks, text
// and content, ignoring attribute map ordering.
func Eq(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Type != b.Type || a.Text != b.Text || len(a.Content) != len(b.Content) || len(a.Marks) != len(b.Marks) {
		return false
	}
	if !attrsEq(a.Attrs, b.Attrs) {
		return false
	}
	for i := range a.Marks {
		if a.Marks[i].Type != b.Marks[i].Type || !attrsEq(a.Marks[i].Attrs, b.Marks[i].Attrs) {
			return false
		}
	}
	for i := range a.Content {
		if !Eq(a.Content[i], b.Content[i]) {
			return false
		}
	}
	return true
}

func attrsEq(a, b Attrs) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok {
			return false
		}
		if an, aok := numeric(av); aok {
			bn, bok := numeric(bv)
			if !bok || an != bn {
				return false
			}
			continue
		}
		if av != bv {
			return false
		}
	}
	return true
}

func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
