package model

import (
	"fmt"
	"strings"
)

// NodeSpec declares one node type of the closed registry: its content
// model expression, group membership and attribute defaults. Node types
// are registered as data, not subclasses.
type NodeSpec struct {
	Name string
	// Content is a whitespace-separated sequence of items, each a node
	// type name or group name with an optional cardinality suffix
	// (* + ?), e.g. "block+", "tableRow+", "inline*".
	Content string
	// Group lists space-separated group names this type belongs to.
	Group string
	// Inline marks the type as inline content.
	Inline bool
	// Atom nodes have no content even when non-leaf semantics exist in
	// the source format (e.g. image).
	Atom bool
	// Attrs maps attribute names to their default values; a nil default
	// means the attribute is optional with no default.
	Attrs map[string]any
}

// MarkSpec declares one mark type.
type MarkSpec struct {
	Name  string
	Attrs map[string]any
}

// Schema is the closed registry of node and mark types plus their
// content models. Construct once with NewSchema and share read-only.
type Schema struct {
	nodes  map[string]*NodeSpec
	marks  map[string]*MarkSpec
	groups map[string]map[string]bool // group name -> member type names
}

// NewSchema builds a schema from specs. Every referenced group must have
// at least one member; content expressions are parsed lazily at
// validation time.
func NewSchema(nodes []NodeSpec, marks []MarkSpec) (*Schema, error) {
	s := &Schema{
		nodes:  make(map[string]*NodeSpec, len(nodes)+1),
		marks:  make(map[string]*MarkSpec, len(marks)),
		groups: make(map[string]map[string]bool),
	}
	for i := range nodes {
		spec := nodes[i]
		if spec.Name == "" {
			return nil, fmt.Errorf("node spec %d has no name", i)
		}
		if _, dup := s.nodes[spec.Name]; dup {
			return nil, fmt.Errorf("duplicate node type %q", spec.Name)
		}
		s.nodes[spec.Name] = &spec
		for _, g := range strings.Fields(spec.Group) {
			if s.groups[g] == nil {
				s.groups[g] = make(map[string]bool)
			}
			s.groups[g][spec.Name] = true
		}
	}
	if _, ok := s.nodes[TextType]; !ok {
		s.nodes[TextType] = &NodeSpec{Name: TextType, Inline: true, Group: "inline"}
		if s.groups["inline"] == nil {
			s.groups["inline"] = make(map[string]bool)
		}
		s.groups["inline"][TextType] = true
	}
	for i := range marks {
		spec := marks[i]
		if _, dup := s.marks[spec.Name]; dup {
			return nil, fmt.Errorf("duplicate mark type %q", spec.Name)
		}
		s.marks[spec.Name] = &spec
	}
	return s, nil
}

// NodeSpec returns the spec for a node type, or nil if unregistered.
func (s *Schema) NodeSpec(name string) *NodeSpec { return s.nodes[name] }

// MarkSpec returns the spec for a mark type, or nil if unregistered.
func (s *Schema) MarkSpec(name string) *MarkSpec { return s.marks[name] }

// NodeTypes returns the registered node type names (unordered).
func (s *Schema) NodeTypes() []string {
	out := make([]string, 0, len(s.nodes))
	for name := range s.nodes {
		out = append(out, name)
	}
	return out
}

// FillDefaults returns attrs with the spec's defaults applied for any
// missing keys.
func (s *Schema) FillDefaults(typ string, attrs Attrs) Attrs {
	spec := s.nodes[typ]
	if spec == nil || len(spec.Attrs) == 0 {
		return attrs
	}
	for name, def := range spec.Attrs {
		if def == nil {
			continue
		}
		if _, ok := attrs[name]; !ok {
			if attrs == nil {
				attrs = Attrs{}
			}
			attrs[name] = def
		}
	}
	return attrs
}

type contentItem struct {
	name     string
	min, max int // max < 0 means unbounded
}

func parseContent(expr string) []contentItem {
	var items []contentItem
	for _, tok := range strings.Fields(expr) {
		it := contentItem{min: 1, max: 1}
		switch {
		case strings.HasSuffix(tok, "*"):
			it.min, it.max = 0, -1
			tok = tok[:len(tok)-1]
		case strings.HasSuffix(tok, "+"):
			it.min, it.max = 1, -1
			tok = tok[:len(tok)-1]
		case strings.HasSuffix(tok, "?"):
			it.min, it.max = 0, 1
			tok = tok[:len(tok)-1]
		}
		it.name = tok
		items = append(items, it)
	}
	return items
}

func (s *Schema) matches(item contentItem, typ string) bool {
	if item.name == typ {
		return true
	}
	if members, ok := s.groups[item.name]; ok {
		return members[typ]
	}
	return false
}

// Validate checks n and its subtree against the schema: registered
// types, content model satisfaction, and mark uniqueness/registration.
// The first violation is returned as an error; nil means valid.
func (s *Schema) Validate(n *Node) error {
	spec := s.nodes[n.Type]
	if spec == nil {
		return fmt.Errorf("unregistered node type %q", n.Type)
	}
	seen := map[string]bool{}
	for _, m := range n.Marks {
		if s.marks[m.Type] == nil {
			return fmt.Errorf("unregistered mark type %q on %s", m.Type, n.Type)
		}
		if seen[m.Type] {
			return fmt.Errorf("duplicate mark %q on %s node", m.Type, n.Type)
		}
		seen[m.Type] = true
	}
	if n.IsText() {
		if n.Text == "" {
			return fmt.Errorf("empty text node")
		}
		return nil
	}
	if err := s.validateContent(spec, n); err != nil {
		return err
	}
	for _, c := range n.Content {
		if err := s.Validate(c); err != nil {
			return err
		}
	}
	return nil
}

func (s *Schema) validateContent(spec *NodeSpec, n *Node) error {
	items := parseContent(spec.Content)
	if len(items) == 0 {
		if len(n.Content) > 0 && (spec.Atom || spec.Content == "") {
			return fmt.Errorf("%s node must not have content", n.Type)
		}
		return nil
	}
	ci := 0
	count := 0
	for _, child := range n.Content {
		for {
			if ci >= len(items) {
				return fmt.Errorf("%s node: child %q not allowed by content model %q", n.Type, child.Type, spec.Content)
			}
			it := items[ci]
			if s.matches(it, child.Type) && (it.max < 0 || count < it.max) {
				count++
				break
			}
			if count < it.min {
				return fmt.Errorf("%s node: child %q not allowed by content model %q", n.Type, child.Type, spec.Content)
			}
			ci++
			count = 0
		}
	}
	for ; ci < len(items); ci++ {
		if count < items[ci].min {
			return fmt.Errorf("%s node: content model %q not satisfied", n.Type, spec.Content)
		}
		count = 0
	}
	return nil
}
