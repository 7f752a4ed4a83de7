package translate

import (
	"strings"
	"testing"

	"github.com/docmill/docmill/model"
	"github.com/docmill/docmill/relationships"
	"github.com/docmill/docmill/xmltree"
)

func mustFragment(t *testing.T, s string) *xmltree.Node {
	t.Helper()
	el, err := xmltree.ParseFragment(s)
	if err != nil {
		t.Fatalf("parse fragment: %v", err)
	}
	return el
}

func encCtx() *EncodeContext {
	return &EncodeContext{}
}

func decCtx() *DecodeContext {
	return &DecodeContext{TrackChanges: TrackChangesKeep}
}

func TestRunBooleanConvention(t *testing.T) {
	h := NewListHandler(NewDocRegistry())
	cases := []struct {
		rPr  string
		bold bool
	}{
		{"", false},
		{"<w:rPr><w:b/></w:rPr>", true},
		{`<w:rPr><w:b w:val="1"/></w:rPr>`, true},
		{`<w:rPr><w:b w:val="true"/></w:rPr>`, true},
		{`<w:rPr><w:b w:val="banana"/></w:rPr>`, true},
		{`<w:rPr><w:b w:val="0"/></w:rPr>`, false},
		{`<w:rPr><w:b w:val="false"/></w:rPr>`, false},
		{`<w:rPr><w:b w:val="off"/></w:rPr>`, false},
	}
	for _, tc := range cases {
		run := mustFragment(t, "<w:r>"+tc.rPr+"<w:t>x</w:t></w:r>")
		nodes := h.EncodeInline([]*xmltree.Node{run}, encCtx())
		if len(nodes) != 1 {
			t.Fatalf("%s: got %d nodes", tc.rPr, len(nodes))
		}
		if got := nodes[0].HasMark(model.BoldMark); got != tc.bold {
			t.Errorf("%s: bold=%v, want %v", tc.rPr, got, tc.bold)
		}
	}
}

func TestParagraphRoundTrip(t *testing.T) {
	h := NewListHandler(NewDocRegistry())
	src := mustFragment(t, `<w:p><w:pPr><w:pStyle w:val="Heading1"/><w:spacing w:before="240" w:after="120"/><w:jc w:val="center"/></w:pPr><w:r><w:rPr><w:b/><w:i/></w:rPr><w:t>Title</w:t></w:r></w:p>`)

	nodes := h.EncodeBlocks([]*xmltree.Node{src}, encCtx())
	if len(nodes) != 1 || nodes[0].Type != model.ParagraphType {
		t.Fatalf("encode: got %+v", nodes)
	}
	p := nodes[0]
	if got := p.StringAttr("styleId"); got != "Heading1" {
		t.Errorf("styleId = %q", got)
	}
	if got, _ := p.IntAttr("spacingBefore"); got != 240 {
		t.Errorf("spacingBefore = %d", got)
	}
	if got := p.StringAttr("align"); got != "center" {
		t.Errorf("align = %q", got)
	}
	if len(p.Content) != 1 || !p.Content[0].HasMark(model.BoldMark) || !p.Content[0].HasMark(model.ItalicMark) {
		t.Fatalf("content marks: %+v", p.Content)
	}

	out := h.DecodeBlocks(nodes, decCtx())
	if len(out) != 1 {
		t.Fatalf("decode: got %d elements", len(out))
	}
	if !xmltree.Equal(src, out[0]) {
		t.Errorf("round trip mismatch:\n in: %s\nout: %s",
			xmltree.SerializeFragment(src), xmltree.SerializeFragment(out[0]))
	}
}

func TestTextSpacePreserve(t *testing.T) {
	h := NewListHandler(NewDocRegistry())
	n := model.NewText("trailing ")
	els := h.decodeInlineOne(n, decCtx(), false)
	if len(els) != 1 {
		t.Fatalf("got %d elements", len(els))
	}
	wt := els[0].Child("w:t")
	if wt == nil {
		t.Fatal("no w:t")
	}
	if v, _ := wt.Attr("xml:space"); v != "preserve" {
		t.Errorf("xml:space = %q, want preserve", v)
	}
}

func TestComplexFieldConsumed(t *testing.T) {
	h := NewListHandler(NewDocRegistry())
	src := mustFragment(t, `<w:p>`+
		`<w:r><w:fldChar w:fldCharType="begin"/></w:r>`+
		`<w:r><w:instrText> PAGE </w:instrText></w:r>`+
		`<w:r><w:fldChar w:fldCharType="separate"/></w:r>`+
		`<w:r><w:t>7</w:t></w:r>`+
		`<w:r><w:fldChar w:fldCharType="end"/></w:r>`+
		`<w:r><w:t>after</w:t></w:r>`+
		`</w:p>`)

	nodes := h.EncodeBlocks([]*xmltree.Node{src}, encCtx())
	if len(nodes) != 1 {
		t.Fatalf("got %d blocks", len(nodes))
	}
	content := nodes[0].Content
	if len(content) != 2 {
		t.Fatalf("paragraph content = %d nodes, want field + text", len(content))
	}
	fld := content[0]
	if fld.Type != model.FieldCodeType {
		t.Fatalf("first node type = %q", fld.Type)
	}
	if got := fld.StringAttr("instruction"); got != "PAGE" {
		t.Errorf("instruction = %q", got)
	}
	if got := fld.TextContent(); got != "7" {
		t.Errorf("cached result = %q", got)
	}
	if content[1].Text != "after" {
		t.Errorf("trailing run = %q", content[1].Text)
	}

	out := h.DecodeInline(content, decCtx())
	if len(out) == 0 || out[0].Name != "w:fldSimple" {
		t.Fatalf("decode: got %+v", out)
	}
	if v, _ := out[0].Attr("w:instr"); v != "PAGE" {
		t.Errorf("w:instr = %q", v)
	}
}

func TestUnterminatedFieldFallsThrough(t *testing.T) {
	h := NewListHandler(NewDocRegistry())
	src := mustFragment(t, `<w:p>`+
		`<w:r><w:fldChar w:fldCharType="begin"/></w:r>`+
		`<w:r><w:instrText> PAGE </w:instrText></w:r>`+
		`</w:p>`)
	nodes := h.EncodeBlocks([]*xmltree.Node{src}, encCtx())
	if len(nodes) != 1 {
		t.Fatalf("got %d blocks", len(nodes))
	}
	// No end marker: the runs fall through to the plain run translator
	// instead of vanishing.
	for _, n := range nodes[0].Content {
		if n.Type == model.FieldCodeType {
			t.Fatal("unterminated field produced a field node")
		}
	}
}

func TestPassthroughRoundTrip(t *testing.T) {
	h := NewListHandler(NewDocRegistry())
	src := mustFragment(t, `<w:customXml w:uri="urn:x"><w:p><w:r><w:t>kept</w:t></w:r></w:p></w:customXml>`)
	nodes := h.EncodeBlocks([]*xmltree.Node{src}, encCtx())
	if len(nodes) != 1 || nodes[0].Type != model.PassthroughType {
		t.Fatalf("got %+v", nodes)
	}
	out := h.DecodeBlocks(nodes, decCtx())
	if len(out) != 1 || !xmltree.Equal(src, out[0]) {
		t.Errorf("passthrough altered the element: %s", xmltree.SerializeFragment(out[0]))
	}
}

func TestAlternateContentFallback(t *testing.T) {
	h := NewListHandler(NewDocRegistry())
	src := mustFragment(t, `<mc:AlternateContent>`+
		`<mc:Choice Requires="wps"><w:r><w:t>shape</w:t></w:r></mc:Choice>`+
		`<mc:Fallback><w:r><w:t>plain</w:t></w:r></mc:Fallback>`+
		`</mc:AlternateContent>`)
	nodes := h.EncodeInline([]*xmltree.Node{src}, encCtx())
	if len(nodes) != 1 || nodes[0].Text != "plain" {
		t.Fatalf("fallback not chosen: %+v", nodes)
	}

	supported := mustFragment(t, `<mc:AlternateContent>`+
		`<mc:Choice Requires="w14"><w:r><w:t>rich</w:t></w:r></mc:Choice>`+
		`<mc:Fallback><w:r><w:t>plain</w:t></w:r></mc:Fallback>`+
		`</mc:AlternateContent>`)
	nodes = h.EncodeInline([]*xmltree.Node{supported}, encCtx())
	if len(nodes) != 1 || nodes[0].Text != "rich" {
		t.Fatalf("supported choice not chosen: %+v", nodes)
	}
}

func TestTrackChangesExportModes(t *testing.T) {
	h := NewListHandler(NewDocRegistry())
	ins := model.Mark{Type: model.TrackInsertMark, Attrs: model.Attrs{"id": "1", "author": "ada", "date": "2024-01-02T03:04:05Z"}}
	del := model.Mark{Type: model.TrackDeleteMark, Attrs: model.Attrs{"id": "2", "author": "ada", "date": "2024-01-02T03:04:05Z"}}
	nodes := []*model.Node{
		model.NewText("added", ins),
		model.NewText("removed", del),
	}

	keep := h.DecodeInline(nodes, &DecodeContext{TrackChanges: TrackChangesKeep})
	if len(keep) != 2 || keep[0].Name != "w:ins" || keep[1].Name != "w:del" {
		t.Fatalf("keep: got %+v", names(keep))
	}
	if keep[1].Child("w:r").Child("w:delText") == nil {
		t.Error("keep: deletion text not emitted as w:delText")
	}
	if author, _ := keep[0].Attr("w:author"); author != "ada" {
		t.Errorf("keep: author = %q", author)
	}

	accept := h.DecodeInline(nodes, &DecodeContext{TrackChanges: TrackChangesAccept})
	if len(accept) != 1 || accept[0].Name != "w:r" {
		t.Fatalf("accept: got %+v", names(accept))
	}
	if got := accept[0].InnerText(); got != "added" {
		t.Errorf("accept: text = %q", got)
	}

	reject := h.DecodeInline(nodes, &DecodeContext{TrackChanges: TrackChangesReject})
	if len(reject) != 1 || reject[0].InnerText() != "removed" {
		t.Fatalf("reject: got %+v", names(reject))
	}
	if reject[0].Child("w:delText") != nil {
		t.Error("reject: restored text still marked as w:delText")
	}
}

func TestTrackedIngestRoundTrip(t *testing.T) {
	h := NewListHandler(NewDocRegistry())
	src := mustFragment(t, `<w:p><w:ins w:id="5" w:author="ada" w:date="2024-06-01T00:00:00Z"><w:r><w:t>new</w:t></w:r></w:ins></w:p>`)
	nodes := h.EncodeBlocks([]*xmltree.Node{src}, encCtx())
	if len(nodes) != 1 {
		t.Fatalf("got %d blocks", len(nodes))
	}
	inner := nodes[0].Content
	if len(inner) != 1 || !inner[0].HasMark(model.TrackInsertMark) {
		t.Fatalf("insert mark missing: %+v", inner)
	}
	out := h.DecodeBlocks(nodes, decCtx())
	if len(out) != 1 || !xmltree.Equal(src, out[0]) {
		t.Errorf("round trip mismatch: %s", xmltree.SerializeFragment(out[0]))
	}
}

func TestCommentsExportFiltering(t *testing.T) {
	h := NewListHandler(NewDocRegistry())
	nodes := []*model.Node{
		model.NewNode(model.CommentRangeStart, model.Attrs{"id": "9"}),
		model.NewText("text"),
		model.NewNode(model.CommentRangeEnd, model.Attrs{"id": "9"}),
		model.NewNode(model.CommentReference, model.Attrs{"id": "9"}),
	}

	clean := h.DecodeInline(nodes, &DecodeContext{CommentsExportType: CommentsClean})
	for _, el := range clean {
		if strings.HasPrefix(el.Name, "w:comment") {
			t.Fatalf("clean export kept anchor %s", el.Name)
		}
	}

	external := &DecodeContext{
		CommentsExportType: CommentsExternal,
		Comments:           map[string]Comment{"9": {ID: "9", Internal: true}},
	}
	out := h.DecodeInline(nodes, external)
	for _, el := range out {
		if strings.HasPrefix(el.Name, "w:comment") {
			t.Fatalf("internal thread survived external export: %s", el.Name)
		}
	}

	all := &DecodeContext{CommentsExportType: CommentsAll}
	out = h.DecodeInline(nodes, all)
	if len(out) != 4 {
		t.Fatalf("all export: got %d elements", len(out))
	}
	if !all.ExportedCommentDefs["9"] {
		t.Error("exported comment id not recorded")
	}
}

func TestHyperlinkRelationship(t *testing.T) {
	h := NewListHandler(NewDocRegistry())
	link := model.Mark{Type: model.LinkMark, Attrs: model.Attrs{"href": "https://example.com/"}}
	rels := relationships.NewCache(nil)
	out := h.DecodeInline([]*model.Node{model.NewText("site", link)}, &DecodeContext{Rels: rels})
	if len(out) != 1 || out[0].Name != "w:hyperlink" {
		t.Fatalf("got %+v", names(out))
	}
	id, _ := out[0].Attr("r:id")
	if id == "" {
		t.Fatal("no r:id assigned")
	}
	if got := rels.Target(id); got != "https://example.com/" {
		t.Errorf("relationship target = %q", got)
	}
}

func TestDocumentSectionBreakPlacement(t *testing.T) {
	reg := NewDocRegistry()
	src := mustFragment(t, `<w:document><w:body>`+
		`<w:p><w:r><w:t>hello</w:t></w:r></w:p>`+
		`<w:sectPr><w:pgSz w:w="12240" w:h="15840"/><w:pgMar w:top="1440" w:right="1440" w:bottom="1440" w:left="1440"/></w:sectPr>`+
		`</w:body></w:document>`)

	doc, err := EncodeDocument(reg, src, encCtx())
	if err != nil {
		t.Fatalf("EncodeDocument: %v", err)
	}
	if len(doc.Content) != 2 {
		t.Fatalf("doc content = %d nodes", len(doc.Content))
	}
	first := doc.Content[0]
	if first.Type != model.SectionBreakType || !first.BoolAttr("isFirstSection") {
		t.Fatalf("first node = %q isFirstSection=%v", first.Type, first.BoolAttr("isFirstSection"))
	}
	if doc.Content[1].Type != model.ParagraphType {
		t.Fatalf("second node = %q", doc.Content[1].Type)
	}

	out := DecodeDocument(reg, doc, decCtx())
	body := out.Child("w:body")
	if body == nil {
		t.Fatal("no w:body")
	}
	last := body.Elements[len(body.Elements)-1]
	if last.Name != "w:sectPr" {
		t.Fatalf("trailing element = %s", last.Name)
	}
	pgSz := last.Child("w:pgSz")
	if pgSz == nil {
		t.Fatal("sectPr lost w:pgSz")
	}
	if w, _ := pgSz.Attr("w:w"); w != "12240" {
		t.Errorf("page width = %q", w)
	}
}

func TestMidDocumentSectionBreakFoldsIntoParagraph(t *testing.T) {
	reg := NewDocRegistry()
	src := mustFragment(t, `<w:document><w:body>`+
		`<w:p><w:pPr><w:sectPr><w:type w:val="continuous"/></w:sectPr></w:pPr><w:r><w:t>first part</w:t></w:r></w:p>`+
		`<w:p><w:r><w:t>second part</w:t></w:r></w:p>`+
		`<w:sectPr><w:pgSz w:w="12240" w:h="15840"/></w:sectPr>`+
		`</w:body></w:document>`)

	doc, err := EncodeDocument(reg, src, encCtx())
	if err != nil {
		t.Fatalf("EncodeDocument: %v", err)
	}
	// first section break, paragraph, mid-doc break, paragraph
	var types []string
	for _, n := range doc.Content {
		types = append(types, n.Type)
	}
	want := []string{model.SectionBreakType, model.ParagraphType, model.SectionBreakType, model.ParagraphType}
	if len(types) != len(want) {
		t.Fatalf("content types = %v", types)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Fatalf("content types = %v, want %v", types, want)
		}
	}
	if got := doc.Content[2].StringAttr("type"); got != "continuous" {
		t.Errorf("mid-doc break type = %q", got)
	}

	out := DecodeDocument(reg, doc, decCtx())
	body := out.Child("w:body")
	paras := body.Children("w:p")
	if len(paras) != 2 {
		t.Fatalf("exported %d paragraphs", len(paras))
	}
	pPr := paras[0].Child("w:pPr")
	if pPr == nil || pPr.Child("w:sectPr") == nil {
		t.Error("mid-document sectPr not folded into preceding paragraph")
	}
	if paras[1].Child("w:pPr") != nil && paras[1].Child("w:pPr").Child("w:sectPr") != nil {
		t.Error("sectPr leaked into following paragraph")
	}
}

func TestUnknownInlineOmittedOnExport(t *testing.T) {
	h := NewListHandler(NewDocRegistry())
	out := h.DecodeInline([]*model.Node{model.NewNode("mysteryWidget", nil)}, decCtx())
	if len(out) != 0 {
		t.Fatalf("unknown node emitted %v", names(out))
	}
}

func names(els []*xmltree.Node) []string {
	out := make([]string, len(els))
	for i, el := range els {
		out[i] = el.Name
	}
	return out
}
