package model

import (
	"errors"
	"fmt"
)

// ErrNoNodeAtPos is returned by steps addressing a position where no
// node starts.
var ErrNoNodeAtPos = errors.New("no node starts at position")

// Transaction collects position-mapped steps against a document and
// applies them one at a time. The document held by the transaction is
// always the result of the steps added so far; Doc() never exposes a
// partially-applied state because each step application is itself
// atomic (copy-on-write along the touched spine).
type Transaction struct {
	doc     *Node
	mapping Mapping
	steps   int
	changed bool
}

// NewTransaction starts a transaction over doc.
func NewTransaction(doc *Node) *Transaction {
	return &Transaction{doc: doc}
}

// Doc returns the current document.
func (tr *Transaction) Doc() *Node { return tr.doc }

// Mapping returns the composed position mapping of all applied steps.
// Positions cached before the transaction must be remapped through it.
func (tr *Transaction) Mapping() Mapping { return tr.mapping }

// Changed reports whether any step modified the document.
func (tr *Transaction) Changed() bool { return tr.changed }

// Steps returns the number of steps applied.
func (tr *Transaction) Steps() int { return tr.steps }

func (tr *Transaction) record(doc *Node, m StepMap, changed bool) {
	tr.doc = doc
	tr.mapping = append(tr.mapping, m)
	tr.steps++
	if changed {
		tr.changed = true
	}
}

// ReplaceNode replaces the node starting at pos with the given nodes
// (none deletes it).
func (tr *Transaction) ReplaceNode(pos int, with ...*Node) error {
	var oldSize, newSize int
	doc, ok := rebuildAt(tr.doc, 0, pos, func(old *Node) []*Node {
		oldSize = old.Size()
		for _, n := range with {
			newSize += n.Size()
		}
		return with
	})
	if !ok {
		return fmt.Errorf("replace at %d: %w", pos, ErrNoNodeAtPos)
	}
	tr.record(doc, StepMap{Start: pos, OldSize: oldSize, NewSize: newSize}, true)
	return nil
}

// Delete removes the node starting at pos.
func (tr *Transaction) Delete(pos int) error {
	return tr.ReplaceNode(pos)
}

// InsertBefore inserts nodes immediately before the node starting at pos.
func (tr *Transaction) InsertBefore(pos int, nodes ...*Node) error {
	size := 0
	doc, ok := rebuildAt(tr.doc, 0, pos, func(old *Node) []*Node {
		out := make([]*Node, 0, len(nodes)+1)
		out = append(out, nodes...)
		out = append(out, old)
		for _, n := range nodes {
			size += n.Size()
		}
		return out
	})
	if !ok {
		return fmt.Errorf("insert at %d: %w", pos, ErrNoNodeAtPos)
	}
	tr.record(doc, StepMap{Start: pos, OldSize: 0, NewSize: size}, true)
	return nil
}

// SetNodeAttrs replaces the attrs of the node starting at pos. A no-op
// when the attrs are already equal.
func (tr *Transaction) SetNodeAttrs(pos int, attrs Attrs) error {
	changed := false
	doc, ok := rebuildAt(tr.doc, 0, pos, func(old *Node) []*Node {
		if attrsEq(old.Attrs, attrs) {
			return []*Node{old}
		}
		changed = true
		nn := old.Clone()
		nn.Attrs = attrs
		return []*Node{nn}
	})
	if !ok {
		return fmt.Errorf("set attrs at %d: %w", pos, ErrNoNodeAtPos)
	}
	size := NodeAt(doc, pos).Size()
	tr.record(doc, StepMap{Start: pos, OldSize: size, NewSize: size}, changed)
	return nil
}

// AddMark applies a mark to the text content covered by [from, to),
// splitting text nodes at the range edges.
func (tr *Transaction) AddMark(from, to int, m Mark) {
	changed := false
	doc := mapTextRange(tr.doc, from, to, func(n *Node) *Node {
		if existing := n.Mark(m.Type); existing != nil && attrsEq(existing.Attrs, m.Attrs) {
			return n
		}
		changed = true
		return n.AddMark(m)
	})
	tr.record(doc, StepMap{Start: from, OldSize: to - from, NewSize: to - from}, changed)
}

// RemoveMark removes marks of the given type from text in [from, to).
func (tr *Transaction) RemoveMark(from, to int, typ string) {
	changed := false
	doc := mapTextRange(tr.doc, from, to, func(n *Node) *Node {
		if !n.HasMark(typ) {
			return n
		}
		changed = true
		return n.RemoveMark(typ)
	})
	tr.record(doc, StepMap{Start: from, OldSize: to - from, NewSize: to - from}, changed)
}

// rebuildAt rebuilds the spine above the node starting at pos, invoking
// fn on it and splicing the result into its parent's content.
func rebuildAt(parent *Node, base, pos int, fn func(old *Node) []*Node) (*Node, bool) {
	cur := base
	for i, c := range parent.Content {
		if cur == pos {
			out := parent.Clone()
			repl := fn(c)
			content := make([]*Node, 0, len(parent.Content)-1+len(repl))
			content = append(content, parent.Content[:i]...)
			content = append(content, repl...)
			content = append(content, parent.Content[i+1:]...)
			out.Content = content
			return out, true
		}
		end := cur + c.Size()
		if pos > cur && pos < end && !c.IsText() {
			child, ok := rebuildAt(c, cur+1, pos, fn)
			if !ok {
				return nil, false
			}
			out := parent.Clone()
			out.Content[i] = child
			return out, true
		}
		cur = end
	}
	return nil, false
}

// mapTextRange rewrites text nodes overlapping [from, to), splitting at
// the edges so fn only sees fully-covered text.
func mapTextRange(parent *Node, from, to int, fn func(*Node) *Node) *Node {
	return mapTextRangeAt(parent, 0, from, to, fn)
}

func mapTextRangeAt(parent *Node, base, from, to int, fn func(*Node) *Node) *Node {
	content := make([]*Node, 0, len(parent.Content))
	changed := false
	cur := base
	for _, c := range parent.Content {
		end := cur + c.Size()
		switch {
		case end <= from || cur >= to:
			content = append(content, c)
		case c.IsText():
			repl := splitApply(c, cur, from, to, fn)
			if len(repl) != 1 || repl[0] != c {
				changed = true
			}
			content = append(content, repl...)
		case len(c.Content) > 0:
			nc := mapTextRangeAt(c, cur+1, from, to, fn)
			if nc != c {
				changed = true
			}
			content = append(content, nc)
		default:
			content = append(content, c)
		}
		cur = end
	}
	if !changed {
		return parent
	}
	out := parent.Clone()
	out.Content = content
	return out
}

func splitApply(text *Node, start, from, to int, fn func(*Node) *Node) []*Node {
	runes := []rune(text.Text)
	lo := from - start
	if lo < 0 {
		lo = 0
	}
	hi := to - start
	if hi > len(runes) {
		hi = len(runes)
	}
	if lo >= hi {
		return []*Node{text}
	}
	mid := NewText(string(runes[lo:hi]), text.Marks...)
	mapped := fn(mid)
	if mapped == mid {
		// fn left the covered slice untouched; keep the node whole
		return []*Node{text}
	}
	if lo == 0 && hi == len(runes) {
		return []*Node{mapped}
	}
	var out []*Node
	if lo > 0 {
		out = append(out, NewText(string(runes[:lo]), text.Marks...))
	}
	out = append(out, mapped)
	if hi < len(runes) {
		out = append(out, NewText(string(runes[hi:]), text.Marks...))
	}
	return out
}
