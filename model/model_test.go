package model

import "testing"

func doc(content ...*Node) *Node { return NewNode(DocType, nil, content...) }

func para(text string) *Node {
	return NewNode(ParagraphType, nil, NewText(text))
}

func TestNodeSize(t *testing.T) {
	p := para("hi")
	if got := p.Size(); got != 4 {
		t.Errorf("paragraph size = %d, want 4 (open + 2 runes + close)", got)
	}
	if got := NewNode(TabType, nil).Size(); got != 1 {
		t.Errorf("atom size = %d, want 1", got)
	}
	if got := NewText("héllo").Size(); got != 5 {
		t.Errorf("text size counts runes: got %d, want 5", got)
	}
}

func TestWalkPositions(t *testing.T) {
	d := doc(para("ab"), para("cd"))
	var types []string
	var positions []int
	Walk(d, func(n *Node, pos int) bool {
		types = append(types, n.Type)
		positions = append(positions, pos)
		return true
	})
	wantTypes := []string{ParagraphType, TextType, ParagraphType, TextType}
	wantPos := []int{0, 1, 4, 5}
	for i := range wantTypes {
		if types[i] != wantTypes[i] || positions[i] != wantPos[i] {
			t.Fatalf("walk[%d] = %s@%d, want %s@%d", i, types[i], positions[i], wantTypes[i], wantPos[i])
		}
	}
	if n := NodeAt(d, 4); n == nil || n.Type != ParagraphType {
		t.Errorf("NodeAt(4) = %v", n)
	}
}

func TestSchemaValidate(t *testing.T) {
	s := MustDocSchema()

	valid := doc(
		para("hello"),
		NewNode(TableType, nil,
			NewNode(TableRowType, nil,
				NewNode(TableCellType, nil, para("cell")))),
	)
	if err := s.Validate(valid); err != nil {
		t.Fatalf("valid doc rejected: %v", err)
	}

	// A table's children must all be rows.
	bad := doc(NewNode(TableType, nil, para("not a row")))
	if err := s.Validate(bad); err == nil {
		t.Fatal("table containing a paragraph directly must be rejected")
	}

	dup := doc(NewNode(ParagraphType, nil,
		NewText("x", Mark{Type: BoldMark}, Mark{Type: BoldMark})))
	if err := s.Validate(dup); err == nil {
		t.Fatal("duplicate mark types on one text run must be rejected")
	}
}

func TestSchemaFillDefaults(t *testing.T) {
	s := MustDocSchema()
	attrs := s.FillDefaults(TableCellType, Attrs{})
	if attrs["colspan"] != 1 {
		t.Errorf("colspan default = %v, want 1", attrs["colspan"])
	}
}

func TestTransactionAddMarkSplitsText(t *testing.T) {
	d := doc(para("abcdef"))
	tr := NewTransaction(d)
	// Mark "cd": paragraph opens at 0, text starts at 1.
	tr.AddMark(3, 5, Mark{Type: BoldMark})
	if !tr.Changed() {
		t.Fatal("AddMark over unmarked text must report changed")
	}
	p := tr.Doc().Content[0]
	if len(p.Content) != 3 {
		t.Fatalf("text not split: %d children", len(p.Content))
	}
	if p.Content[0].Text != "ab" || p.Content[1].Text != "cd" || p.Content[2].Text != "ef" {
		t.Fatalf("split texts = %q %q %q", p.Content[0].Text, p.Content[1].Text, p.Content[2].Text)
	}
	if !p.Content[1].HasMark(BoldMark) || p.Content[0].HasMark(BoldMark) {
		t.Fatal("mark applied to wrong slice")
	}
	// Original document untouched.
	if len(d.Content[0].Content) != 1 {
		t.Fatal("transaction mutated the input document")
	}
}

func TestTransactionIdempotentMarkNotChanged(t *testing.T) {
	d := doc(NewNode(ParagraphType, nil, NewText("abc", Mark{Type: BoldMark})))
	tr := NewTransaction(d)
	tr.AddMark(1, 4, Mark{Type: BoldMark})
	if tr.Changed() {
		t.Fatal("re-adding an identical mark must not report changed")
	}
}

func TestTransactionSetNodeAttrs(t *testing.T) {
	d := doc(para("x"))
	tr := NewTransaction(d)
	if err := tr.SetNodeAttrs(0, Attrs{"styleId": "Heading1"}); err != nil {
		t.Fatal(err)
	}
	if !tr.Changed() {
		t.Fatal("attr change must report changed")
	}
	if got := tr.Doc().Content[0].StringAttr("styleId"); got != "Heading1" {
		t.Errorf("styleId = %q", got)
	}

	tr2 := NewTransaction(tr.Doc())
	if err := tr2.SetNodeAttrs(0, Attrs{"styleId": "Heading1"}); err != nil {
		t.Fatal(err)
	}
	if tr2.Changed() {
		t.Fatal("setting equal attrs must not report changed")
	}
}

func TestTransactionReplaceAndMapping(t *testing.T) {
	d := doc(para("ab"), para("cd"))
	tr := NewTransaction(d)
	if err := tr.ReplaceNode(0, para("X")); err != nil {
		t.Fatal(err)
	}
	// Second paragraph was at 4; "ab" (size 4) became "X" (size 3).
	if got := tr.Mapping().Map(4); got != 3 {
		t.Errorf("mapped position = %d, want 3", got)
	}
	if n := NodeAt(tr.Doc(), 3); n == nil || n.TextContent() != "cd" {
		t.Errorf("second paragraph not found at mapped position")
	}
}

func TestEqIgnoresAttrOrderAndNumericKind(t *testing.T) {
	a := NewNode(ParagraphType, Attrs{"a": 1, "b": "x"})
	b := NewNode(ParagraphType, Attrs{"b": "x", "a": float64(1)})
	if !Eq(a, b) {
		t.Error("Eq must ignore key order and int/float64 distinction")
	}
}
