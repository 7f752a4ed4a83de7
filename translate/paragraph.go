package translate

import (
	"strconv"

	"github.com/docmill/docmill/model"
	"github.com/docmill/docmill/xmltree"
)

// paragraphAttrHandlers map w:pPr children carrying plain values.
var paragraphSpacingAttrs = []AttrHandler{
	IntAttr("w:before", "spacingBefore"),
	IntAttr("w:after", "spacingAfter"),
	IntAttr("w:line", "lineHeight"),
}

func paragraphTranslator() *Translator {
	return &Translator{
		XMLName:   "w:p",
		NodeNames: []string{model.ParagraphType},
		Encode:    encodeParagraph,
		Decode:    decodeParagraph,
	}
}

func encodeParagraph(p EncodeParams) Result {
	el := p.Node
	attrs := model.Attrs{}
	if rsid, ok := el.Attr("w:rsidR"); ok {
		attrs["rsid"] = rsid
	}
	var sectionBreak *model.Node
	var inline []*xmltree.Node
	for _, child := range el.Elements {
		if child.Name == "w:pPr" {
			encodeParagraphProps(child, attrs, p.Ctx)
			if sectPr := child.Child("w:sectPr"); sectPr != nil {
				sectionBreak = encodeSectionProps(sectPr, p.Ctx, false)
			}
			continue
		}
		inline = append(inline, child)
	}
	if len(attrs) == 0 {
		attrs = nil
	}
	para := model.NewNode(model.ParagraphType, attrs, p.List.EncodeInline(inline, p.Ctx)...)
	if sectionBreak != nil {
		return Handled(para, sectionBreak)
	}
	return Handled(para)
}

func encodeParagraphProps(pPr *xmltree.Node, attrs model.Attrs, ctx *EncodeContext) {
	if st := pPr.Child("w:pStyle"); st != nil {
		if v, ok := st.Attr("w:val"); ok {
			attrs["styleId"] = v
		}
	}
	if numPr := pPr.Child("w:numPr"); numPr != nil {
		if id := numPr.Child("w:numId"); id != nil {
			if v, ok := id.Attr("w:val"); ok {
				attrs["numId"] = v
			}
		}
		if lvl := numPr.Child("w:ilvl"); lvl != nil {
			if v, ok := lvl.Attr("w:val"); ok {
				if n, numOK := Int(v); numOK {
					attrs["ilvl"] = n
				}
			}
		}
	}
	if sp := pPr.Child("w:spacing"); sp != nil {
		for k, v := range EncodeAttrs(paragraphSpacingAttrs, sp) {
			attrs[k] = v
		}
	}
	if ind := pPr.Child("w:ind"); ind != nil {
		if v, ok := ind.Attr("w:left"); ok {
			if n, numOK := Int(v); numOK {
				attrs["indent"] = n
			}
		}
	}
	if jc := pPr.Child("w:jc"); jc != nil {
		attrs["align"] = jc.AttrDefault("w:val", "left")
	}
	if pPr.Child("w:keepNext") != nil {
		attrs["keepNext"] = true
	}
	if pPr.Child("w:pageBreakBefore") != nil {
		attrs["pageBreakBefore"] = true
	}
}

// decodeParagraph rebuilds w:p with pPr in first position per the
// schema-required child ordering.
func decodeParagraph(p DecodeParams) []*xmltree.Node {
	return []*xmltree.Node{decodeParagraphWithSect(p.Node, nil, p.List, p.Ctx)}
}

func decodeParagraphWithSect(n *model.Node, sectPr *xmltree.Node, h *ListHandler, ctx *DecodeContext) *xmltree.Node {
	el := xmltree.NewElement("w:p")
	if rsid := n.StringAttr("rsid"); rsid != "" {
		el.SetAttr("w:rsidR", rsid)
	}
	if pPr := decodeParagraphProps(n, sectPr); pPr != nil {
		el.AppendChild(pPr)
	}
	el.AppendChild(h.DecodeInline(n.Content, ctx)...)
	return el
}

func decodeParagraphProps(n *model.Node, sectPr *xmltree.Node) *xmltree.Node {
	pPr := xmltree.NewElement("w:pPr")
	if v := n.StringAttr("styleId"); v != "" {
		st := xmltree.NewElement("w:pStyle")
		st.SetAttr("w:val", v)
		pPr.AppendChild(st)
	}
	if pageBreak := n.BoolAttr("pageBreakBefore"); pageBreak {
		pPr.AppendChild(xmltree.NewElement("w:pageBreakBefore"))
	}
	if keep := n.BoolAttr("keepNext"); keep {
		pPr.AppendChild(xmltree.NewElement("w:keepNext"))
	}
	if numID := n.StringAttr("numId"); numID != "" {
		numPr := xmltree.NewElement("w:numPr")
		if ilvl, ok := n.IntAttr("ilvl"); ok {
			lvl := xmltree.NewElement("w:ilvl")
			lvl.SetAttr("w:val", strconv.Itoa(ilvl))
			numPr.AppendChild(lvl)
		}
		id := xmltree.NewElement("w:numId")
		id.SetAttr("w:val", numID)
		numPr.AppendChild(id)
		pPr.AppendChild(numPr)
	}
	sp := xmltree.NewElement("w:spacing")
	DecodeAttrs(paragraphSpacingAttrs, n.Attrs, sp)
	if len(sp.Attributes) > 0 {
		pPr.AppendChild(sp)
	}
	if indent, ok := n.IntAttr("indent"); ok {
		ind := xmltree.NewElement("w:ind")
		ind.SetAttr("w:left", strconv.Itoa(indent))
		pPr.AppendChild(ind)
	}
	if align := n.StringAttr("align"); align != "" {
		jc := xmltree.NewElement("w:jc")
		jc.SetAttr("w:val", align)
		pPr.AppendChild(jc)
	}
	if sectPr != nil {
		pPr.AppendChild(sectPr)
	}
	if len(pPr.Elements) == 0 {
		return nil
	}
	return pPr
}
