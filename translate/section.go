package translate

import (
	"strconv"

	"github.com/docmill/docmill/model"
	"github.com/docmill/docmill/xmltree"
)

// encodeSectionProps turns a w:sectPr into a sectionBreak node. The
// body's trailing sectPr becomes the first section of the document and
// is flagged accordingly.
func encodeSectionProps(sectPr *xmltree.Node, ctx *EncodeContext, isFirst bool) *model.Node {
	attrs := model.Attrs{
		"type":           "nextPage",
		"isFirstSection": isFirst,
	}
	if t := sectPr.Child("w:type"); t != nil {
		attrs["type"] = t.AttrDefault("w:val", "nextPage")
	}
	if sz := sectPr.Child("w:pgSz"); sz != nil {
		if w, ok := Int(sz.AttrDefault("w:w", "")); ok {
			attrs["pageWidth"] = w
		}
		if h, ok := Int(sz.AttrDefault("w:h", "")); ok {
			attrs["pageHeight"] = h
		}
		if o, ok := sz.Attr("w:orient"); ok {
			attrs["orientation"] = o
		}
	}
	if mar := sectPr.Child("w:pgMar"); mar != nil {
		margins := model.Attrs{}
		for _, side := range []string{"top", "right", "bottom", "left"} {
			if v, ok := Int(mar.AttrDefault("w:"+side, "")); ok {
				margins[side] = v
			}
		}
		if len(margins) > 0 {
			attrs["margins"] = margins
		}
		if v, ok := Int(mar.AttrDefault("w:header", "")); ok {
			attrs["headerDistance"] = v
		}
		if v, ok := Int(mar.AttrDefault("w:footer", "")); ok {
			attrs["footerDistance"] = v
		}
	}
	if cols := sectPr.Child("w:cols"); cols != nil {
		if n, ok := Int(cols.AttrDefault("w:num", "")); ok {
			attrs["columnCount"] = n
		}
		if g, ok := Int(cols.AttrDefault("w:space", "")); ok {
			attrs["columnGap"] = g
		}
	}
	attrs["headerRefs"] = encodeHdrFtrRefs(sectPr.Children("w:headerReference"))
	attrs["footerRefs"] = encodeHdrFtrRefs(sectPr.Children("w:footerReference"))
	return model.NewNode(model.SectionBreakType, attrs)
}

func encodeHdrFtrRefs(refs []*xmltree.Node) []any {
	var out []any
	for _, ref := range refs {
		out = append(out, model.Attrs{
			"type": ref.AttrDefault("w:type", "default"),
			"rId":  ref.AttrDefault("r:id", ""),
		})
	}
	return out
}

// decodeSectionProps rebuilds w:sectPr. Child order follows the schema:
// header/footer references, type, pgSz, pgMar, cols.
func decodeSectionProps(n *model.Node) *xmltree.Node {
	sectPr := xmltree.NewElement("w:sectPr")
	decodeHdrFtrRefs(sectPr, "w:headerReference", n.Attr("headerRefs"))
	decodeHdrFtrRefs(sectPr, "w:footerReference", n.Attr("footerRefs"))
	if t := n.StringAttr("type"); t != "" && t != "nextPage" {
		typ := xmltree.NewElement("w:type")
		typ.SetAttr("w:val", t)
		sectPr.AppendChild(typ)
	}
	sz := xmltree.NewElement("w:pgSz")
	if w, ok := n.IntAttr("pageWidth"); ok {
		sz.SetAttr("w:w", strconv.Itoa(w))
	}
	if h, ok := n.IntAttr("pageHeight"); ok {
		sz.SetAttr("w:h", strconv.Itoa(h))
	}
	if o := n.StringAttr("orientation"); o != "" {
		sz.SetAttr("w:orient", o)
	}
	if len(sz.Attributes) > 0 {
		sectPr.AppendChild(sz)
	}
	mar := xmltree.NewElement("w:pgMar")
	if margins, ok := n.Attr("margins").(model.Attrs); ok {
		for _, side := range []string{"top", "right", "bottom", "left"} {
			if v, vok := margins[side]; vok {
				mar.SetAttr("w:"+side, itoaAny(v))
			}
		}
	}
	if v, ok := n.IntAttr("headerDistance"); ok {
		mar.SetAttr("w:header", strconv.Itoa(v))
	}
	if v, ok := n.IntAttr("footerDistance"); ok {
		mar.SetAttr("w:footer", strconv.Itoa(v))
	}
	if len(mar.Attributes) > 0 {
		sectPr.AppendChild(mar)
	}
	cols := xmltree.NewElement("w:cols")
	if c, ok := n.IntAttr("columnCount"); ok {
		cols.SetAttr("w:num", strconv.Itoa(c))
	}
	if g, ok := n.IntAttr("columnGap"); ok {
		cols.SetAttr("w:space", strconv.Itoa(g))
	}
	if len(cols.Attributes) > 0 {
		sectPr.AppendChild(cols)
	}
	return sectPr
}

func decodeHdrFtrRefs(sectPr *xmltree.Node, name string, refs any) {
	list, ok := refs.([]any)
	if !ok {
		return
	}
	for _, entry := range list {
		attrs, ok := entry.(model.Attrs)
		if !ok {
			continue
		}
		ref := xmltree.NewElement(name)
		if t, _ := attrs["type"].(string); t != "" {
			ref.SetAttr("w:type", t)
		}
		if id, _ := attrs["rId"].(string); id != "" {
			ref.SetAttr("r:id", id)
		}
		sectPr.AppendChild(ref)
	}
}

func itoaAny(v any) string {
	switch n := v.(type) {
	case int:
		return strconv.Itoa(n)
	case float64:
		return strconv.Itoa(int(n))
	case string:
		return n
	}
	return ""
}
