package model

// Positions use token counting: entering or leaving a non-text node
// costs one token each, and each rune of a text node costs one. The
// document node itself contributes no tokens; its content starts at
// position 0.

// Walk visits every node below doc in document order, passing each
// node's start position. Returning false from fn stops the walk.
func Walk(doc *Node, fn func(n *Node, pos int) bool) {
	walk(doc, 0, fn)
}

func walk(parent *Node, base int, fn func(n *Node, pos int) bool) bool {
	pos := base
	for _, c := range parent.Content {
		if !fn(c, pos) {
			return false
		}
		if !c.IsText() && len(c.Content) > 0 {
			if !walk(c, pos+1, fn) {
				return false
			}
		}
		pos += c.Size()
	}
	return true
}

// NodeAt returns the node starting exactly at pos, or nil.
func NodeAt(doc *Node, pos int) *Node {
	var found *Node
	Walk(doc, func(n *Node, p int) bool {
		if p == pos {
			found = n
			return false
		}
		return p < pos
	})
	return found
}

// StepMap records one range replacement for mapping stale positions
// across an applied step.
type StepMap struct {
	Start   int
	OldSize int
	NewSize int
}

// Map adjusts a position recorded before the step. Positions inside the
// replaced range collapse to its start; positions after shift by the
// size delta.
func (m StepMap) Map(pos int) int {
	if pos <= m.Start {
		return pos
	}
	if pos >= m.Start+m.OldSize {
		return pos + m.NewSize - m.OldSize
	}
	return m.Start
}

// Mapping composes the step maps of an applied transaction.
type Mapping []StepMap

// Map applies each step map in order.
func (ms Mapping) Map(pos int) int {
	for _, m := range ms {
		pos = m.Map(pos)
	}
	return pos
}
