package translate

import (
	"github.com/docmill/docmill/model"
	"github.com/docmill/docmill/xmltree"
)

// sdtTranslator handles w:sdt, which maps to either structuredContent
// (inline) or structuredContentBlock depending on what the sdtContent
// holds. Unrecognized sdtPr children are preserved verbatim so content
// controls round-trip without interpretation.
func sdtTranslator() *Translator {
	return &Translator{
		XMLName:   "w:sdt",
		NodeNames: []string{model.StructuredContent, model.StructuredBlock},
		Encode:    encodeSDT,
		Decode:    decodeSDTBlockOrInline,
	}
}

var blockLevelNames = map[string]bool{
	"w:p": true, "w:tbl": true, "w:sdt": true, "w:sectPr": true,
}

func encodeSDT(p EncodeParams) Result {
	sdtPr := p.Node.Child("w:sdtPr")
	sdtContent := p.Node.Child("w:sdtContent")
	if sdtContent == nil {
		return NotHandled()
	}
	attrs := model.Attrs{}
	if sdtPr != nil {
		if alias := sdtPr.Child("w:alias"); alias != nil {
			attrs["alias"] = alias.AttrDefault("w:val", "")
		}
		if tag := sdtPr.Child("w:tag"); tag != nil {
			attrs["tag"] = tag.AttrDefault("w:val", "")
		}
		if obj := sdtPr.Child("w:docPartObj"); obj != nil {
			if gallery := obj.Child("w:docPartGallery"); gallery != nil {
				attrs["gallery"] = gallery.AttrDefault("w:val", "")
			}
		}
		attrs["sdtPr"] = xmltree.SerializeFragment(sdtPr)
	}

	block := false
	for _, c := range sdtContent.Elements {
		if blockLevelNames[c.Name] {
			block = true
			break
		}
	}
	if block {
		content := p.List.EncodeBlocks(sdtContent.Elements, p.Ctx)
		if len(content) == 0 {
			content = []*model.Node{model.NewNode(model.ParagraphType, nil)}
		}
		return Handled(model.NewNode(model.StructuredBlock, attrs, content...))
	}
	content := p.List.EncodeInline(sdtContent.Elements, p.Ctx)
	return Handled(model.NewNode(model.StructuredContent, attrs, content...))
}

// decodeSDTBlockOrInline rebuilds w:sdt with sdtPr strictly preceding
// sdtContent, as the schema requires.
func decodeSDTBlockOrInline(p DecodeParams) []*xmltree.Node {
	n := p.Node
	el := xmltree.NewElement("w:sdt")
	el.AppendChild(decodeSDTPr(n))
	content := xmltree.NewElement("w:sdtContent")
	if n.Type == model.StructuredBlock {
		content.AppendChild(p.List.DecodeBlocks(n.Content, p.Ctx)...)
	} else {
		content.AppendChild(p.List.DecodeInline(n.Content, p.Ctx)...)
	}
	el.AppendChild(content)
	return []*xmltree.Node{el}
}

func decodeSDTInline(n *model.Node, h *ListHandler, ctx *DecodeContext) []*xmltree.Node {
	return decodeSDTBlockOrInline(DecodeParams{Node: n, List: h, Ctx: ctx})
}

// decodeSDTPr restores the preserved sdtPr when present, else rebuilds
// a minimal one from the alias/tag attrs.
func decodeSDTPr(n *model.Node) *xmltree.Node {
	if raw := n.StringAttr("sdtPr"); raw != "" {
		if el, err := xmltree.ParseFragment(raw); err == nil {
			return el
		}
	}
	sdtPr := xmltree.NewElement("w:sdtPr")
	if alias := n.StringAttr("alias"); alias != "" {
		a := xmltree.NewElement("w:alias")
		a.SetAttr("w:val", alias)
		sdtPr.AppendChild(a)
	}
	if tag := n.StringAttr("tag"); tag != "" {
		t := xmltree.NewElement("w:tag")
		t.SetAttr("w:val", tag)
		sdtPr.AppendChild(t)
	}
	if gallery := n.StringAttr("gallery"); gallery != "" {
		obj := xmltree.NewElement("w:docPartObj")
		g := xmltree.NewElement("w:docPartGallery")
		g.SetAttr("w:val", gallery)
		obj.AppendChild(g, xmltree.NewElement("w:docPartUnique"))
		sdtPr.AppendChild(obj)
	}
	return sdtPr
}
