package xmltree

import (
	"strings"
	"testing"
)

func TestParsePreservesPrefixesAndOrder(t *testing.T) {
	data := []byte(`<?xml version="1.0"?>
	<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
		<w:body>
			<w:p>
				<w:r><w:t xml:space="preserve">  hello  </w:t></w:r>
			</w:p>
		</w:body>
	</w:document>`)

	root, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if root.Name != "w:document" {
		t.Fatalf("root name = %q, want w:document", root.Name)
	}
	body := root.Child("w:body")
	if body == nil {
		t.Fatal("missing w:body")
	}
	p := body.Child("w:p")
	if p == nil {
		t.Fatal("missing w:p")
	}
	tEl := p.Child("w:r").Child("w:t")
	if tEl == nil {
		t.Fatal("missing w:t")
	}
	if got := tEl.InnerText(); got != "  hello  " {
		t.Errorf("xml:space=preserve text = %q, want %q", got, "  hello  ")
	}
}

func TestParseDropsIgnorableWhitespace(t *testing.T) {
	root, err := Parse([]byte("<a>\n  <b/>\n  <c/>\n</a>"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(root.Elements) != 2 {
		t.Fatalf("got %d children, want 2 (whitespace dropped)", len(root.Elements))
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	root := NewElement("w:p")
	root.SetAttr("w:rsidR", "00AB12CD")
	r := NewElement("w:r")
	wt := NewElement("w:t")
	wt.AppendChild(NewText(`a<b & "c"`))
	r.AppendChild(wt)
	root.AppendChild(r)

	out := Serialize(root)
	again, err := ParseFragment(string(out))
	if err != nil {
		t.Fatalf("re-parse failed: %v", err)
	}
	if !Equal(root, again) {
		t.Errorf("round trip not equal:\n%s", out)
	}
	if !strings.Contains(string(out), "&amp;") {
		t.Errorf("text not escaped: %s", out)
	}
}

func TestParseFragmentBindsUndeclaredPrefixes(t *testing.T) {
	frag := `<w:customXml w:uri="urn:x"><w:p><w:r><w:t>kept</w:t></w:r></w:p><mc:AlternateContent mc:Ignorable="w14"/></w:customXml>`
	el, err := ParseFragment(frag)
	if err != nil {
		t.Fatalf("ParseFragment failed: %v", err)
	}
	if el.Name != "w:customXml" {
		t.Fatalf("root name = %q, want w:customXml", el.Name)
	}
	if got := el.AttrDefault("w:uri", ""); got != "urn:x" {
		t.Errorf("w:uri = %q", got)
	}
	if el.Child("w:p") == nil || el.Child("mc:AlternateContent") == nil {
		t.Fatal("children lost in fragment parse")
	}
	if got := SerializeFragment(el); got != frag {
		t.Errorf("fragment changed:\n got %s\nwant %s", got, frag)
	}
}

func TestParseFragmentIgnoresColonsInValuesAndText(t *testing.T) {
	el, err := ParseFragment(`<w:hyperlink w:tgt="http://example.com">see http://example.com</w:hyperlink>`)
	if err != nil {
		t.Fatalf("ParseFragment failed: %v", err)
	}
	if el.InnerText() != "see http://example.com" {
		t.Errorf("text = %q", el.InnerText())
	}
}

func TestSerializeSelfCloses(t *testing.T) {
	out := string(Serialize(NewElement("w:br")))
	if !strings.Contains(out, "<w:br/>") {
		t.Errorf("empty element should self-close, got %s", out)
	}
}

func TestCloneIsDeep(t *testing.T) {
	orig := NewElement("w:p")
	orig.AppendChild(NewElement("w:r"))
	cp := orig.Clone()
	cp.Elements[0].Name = "w:t"
	if orig.Elements[0].Name != "w:r" {
		t.Error("Clone shares child nodes with original")
	}
}

func TestAttrHelpers(t *testing.T) {
	n := NewElement("w:ind")
	n.SetAttr("w:left", "720")
	if v, ok := n.Attr("w:left"); !ok || v != "720" {
		t.Errorf("Attr = %q,%v", v, ok)
	}
	if _, ok := n.Attr("w:right"); ok {
		t.Error("absent attribute reported present")
	}
	n.SetAttr("w:left", "360")
	if len(n.Attributes) != 1 {
		t.Errorf("SetAttr duplicated attribute: %v", n.Attributes)
	}
	if n.AttrDefault("w:right", "0") != "0" {
		t.Error("AttrDefault miss")
	}
}
