package translate

import (
	"strconv"

	"github.com/docmill/docmill/model"
	"github.com/docmill/docmill/xmltree"
)

// markHandler binds one w:rPr child element to one mark type. Handlers
// are applied in rPr schema order on decode so the emitted property
// list is always validly ordered.
type markHandler struct {
	xmlName  string
	markType string
	encode   func(el *xmltree.Node) (model.Mark, bool)
	decode   func(m model.Mark) *xmltree.Node
}

func flagMark(xmlName, markType string) markHandler {
	return markHandler{
		xmlName:  xmlName,
		markType: markType,
		encode: func(el *xmltree.Node) (model.Mark, bool) {
			if !OnOffElement(el) {
				return model.Mark{}, false
			}
			return model.Mark{Type: markType}, true
		},
		decode: func(model.Mark) *xmltree.Node {
			return xmltree.NewElement(xmlName)
		},
	}
}

func valMark(xmlName, markType, key string) markHandler {
	return markHandler{
		xmlName:  xmlName,
		markType: markType,
		encode: func(el *xmltree.Node) (model.Mark, bool) {
			v, ok := el.Attr("w:val")
			if !ok {
				return model.Mark{}, false
			}
			return model.Mark{Type: markType, Attrs: model.Attrs{key: v}}, true
		},
		decode: func(m model.Mark) *xmltree.Node {
			el := xmltree.NewElement(xmlName)
			if s, _ := m.Attrs[key].(string); s != "" {
				el.SetAttr("w:val", s)
			}
			return el
		},
	}
}

func intValMark(xmlName, markType, key string) markHandler {
	return markHandler{
		xmlName:  xmlName,
		markType: markType,
		encode: func(el *xmltree.Node) (model.Mark, bool) {
			v, ok := el.Attr("w:val")
			if !ok {
				return model.Mark{}, false
			}
			n, ok := Int(v)
			if !ok {
				return model.Mark{}, false
			}
			return model.Mark{Type: markType, Attrs: model.Attrs{key: n}}, true
		},
		decode: func(m model.Mark) *xmltree.Node {
			el := xmltree.NewElement(xmlName)
			switch n := m.Attrs[key].(type) {
			case int:
				el.SetAttr("w:val", strconv.Itoa(n))
			case float64:
				el.SetAttr("w:val", strconv.Itoa(int(n)))
			}
			return el
		},
	}
}

// runMarkHandlers returns the rPr handlers in schema child order.
func runMarkHandlers() []markHandler {
	fonts := markHandler{
		xmlName:  "w:rFonts",
		markType: model.FontFamilyMark,
		encode: func(el *xmltree.Node) (model.Mark, bool) {
			v, ok := el.Attr("w:ascii")
			if !ok {
				return model.Mark{}, false
			}
			return model.Mark{Type: model.FontFamilyMark, Attrs: model.Attrs{"name": v}}, true
		},
		decode: func(m model.Mark) *xmltree.Node {
			el := xmltree.NewElement("w:rFonts")
			if name, _ := m.Attrs["name"].(string); name != "" {
				el.SetAttr("w:ascii", name)
				el.SetAttr("w:hAnsi", name)
			}
			return el
		},
	}
	underline := markHandler{
		xmlName:  "w:u",
		markType: model.UnderlineMark,
		encode: func(el *xmltree.Node) (model.Mark, bool) {
			style := el.AttrDefault("w:val", "single")
			if style == "none" {
				return model.Mark{}, false
			}
			return model.Mark{Type: model.UnderlineMark, Attrs: model.Attrs{"style": style}}, true
		},
		decode: func(m model.Mark) *xmltree.Node {
			el := xmltree.NewElement("w:u")
			style, _ := m.Attrs["style"].(string)
			if style == "" {
				style = "single"
			}
			el.SetAttr("w:val", style)
			return el
		},
	}
	return []markHandler{
		fonts,
		flagMark("w:b", model.BoldMark),
		flagMark("w:i", model.ItalicMark),
		flagMark("w:strike", model.StrikeMark),
		valMark("w:color", model.ColorMark, "color"),
		intValMark("w:spacing", model.LetterSpacingMark, "twips"),
		intValMark("w:sz", model.FontSizeMark, "halfPoints"),
		valMark("w:highlight", model.HighlightMark, "color"),
		underline,
	}
}

// encodeRunProps reads a w:rPr element into marks.
func (h *ListHandler) encodeRunProps(rPr *xmltree.Node) []model.Mark {
	if rPr == nil {
		return nil
	}
	var marks []model.Mark
	for _, mh := range h.reg.marks {
		el := rPr.Child(mh.xmlName)
		if el == nil {
			continue
		}
		if m, ok := mh.encode(el); ok {
			marks = append(marks, m)
		}
	}
	return marks
}

// decodeRunProps builds a w:rPr from marks, nil when no mark maps.
func (h *ListHandler) decodeRunProps(marks []model.Mark) *xmltree.Node {
	var rPr *xmltree.Node
	for _, mh := range h.reg.marks {
		for _, m := range marks {
			if m.Type != mh.markType {
				continue
			}
			if rPr == nil {
				rPr = xmltree.NewElement("w:rPr")
			}
			rPr.AppendChild(mh.decode(m))
		}
	}
	return rPr
}

// runTranslator handles w:r on import. On export runs are reassembled
// from text and atom nodes by DecodeInline, so this translator has no
// decode direction.
func runTranslator() *Translator {
	return &Translator{
		XMLName: "w:r",
		Encode: func(p EncodeParams) Result {
			marks := p.List.encodeRunProps(p.Node.Child("w:rPr"))
			var out []*model.Node
			for _, child := range p.Node.Elements {
				switch child.Name {
				case "w:rPr":
				case "w:t", "w:delText":
					if text := child.InnerText(); text != "" {
						out = append(out, model.NewText(text, marks...))
					}
				case "w:tab":
					out = append(out, model.NewNode(model.TabType, nil))
				case "w:br":
					attrs := model.Attrs{"breakType": child.AttrDefault("w:type", "textWrapping")}
					out = append(out, model.NewNode(model.HardBreakType, attrs))
				case "w:drawing":
					if img := encodeDrawing(child, p.Ctx); img != nil {
						out = append(out, img)
					}
				case "w:commentReference":
					out = append(out, model.NewNode(model.CommentReference,
						model.Attrs{"id": child.AttrDefault("w:id", "")}))
				default:
					out = append(out, passthroughNode(child, true))
				}
			}
			return Handled(out...)
		},
	}
}

// DecodeInline reconstructs the ordered w:r / w:hyperlink / anchor
// element sequence for paragraph content. Consecutive nodes sharing a
// track-change mark are wrapped in one w:ins/w:del; within that,
// consecutive link-marked nodes share one w:hyperlink.
func (h *ListHandler) DecodeInline(nodes []*model.Node, ctx *DecodeContext) []*xmltree.Node {
	var out []*xmltree.Node
	for i := 0; i < len(nodes); {
		n := nodes[i]
		if ins := n.Mark(model.TrackInsertMark); ins != nil {
			j := i
			for j < len(nodes) && sameMark(nodes[j].Mark(model.TrackInsertMark), ins) {
				j++
			}
			out = append(out, h.decodeTracked(nodes[i:j], *ins, true, ctx)...)
			i = j
			continue
		}
		if del := n.Mark(model.TrackDeleteMark); del != nil {
			j := i
			for j < len(nodes) && sameMark(nodes[j].Mark(model.TrackDeleteMark), del) {
				j++
			}
			out = append(out, h.decodeTracked(nodes[i:j], *del, false, ctx)...)
			i = j
			continue
		}
		if link := n.Mark(model.LinkMark); link != nil {
			j := i
			for j < len(nodes) && sameMark(nodes[j].Mark(model.LinkMark), link) {
				j++
			}
			out = append(out, h.decodeHyperlink(nodes[i:j], *link, ctx))
			i = j
			continue
		}
		out = append(out, h.decodeInlineOne(n, ctx, false)...)
		i++
	}
	return out
}

func sameMark(m *model.Mark, want *model.Mark) bool {
	if m == nil {
		return false
	}
	return m.Attrs["id"] == want.Attrs["id"]
}

// decodeTracked wraps decoded children in w:ins or w:del carrying the
// revision metadata, honoring the accept/reject export modes.
func (h *ListHandler) decodeTracked(nodes []*model.Node, m model.Mark, insert bool, ctx *DecodeContext) []*xmltree.Node {
	stripped := make([]*model.Node, len(nodes))
	typ := model.TrackInsertMark
	if !insert {
		typ = model.TrackDeleteMark
	}
	for i, n := range nodes {
		stripped[i] = n.RemoveMark(typ)
	}
	switch ctx.TrackChanges {
	case TrackChangesAccept:
		if insert {
			return h.DecodeInline(stripped, ctx)
		}
		return nil
	case TrackChangesReject:
		if insert {
			return nil
		}
		return h.DecodeInline(stripped, ctx)
	}
	name := "w:ins"
	if !insert {
		name = "w:del"
	}
	wrap := xmltree.NewElement(name)
	if id, _ := m.Attrs["id"].(string); id != "" {
		wrap.SetAttr("w:id", id)
	}
	if author, _ := m.Attrs["author"].(string); author != "" {
		wrap.SetAttr("w:author", author)
	}
	if date, _ := m.Attrs["date"].(string); date != "" {
		wrap.SetAttr("w:date", date)
	}
	for _, n := range stripped {
		els := h.decodeInlineOne(n, ctx, !insert)
		wrap.AppendChild(els...)
	}
	return []*xmltree.Node{wrap}
}

func (h *ListHandler) decodeHyperlink(nodes []*model.Node, link model.Mark, ctx *DecodeContext) *xmltree.Node {
	el := xmltree.NewElement("w:hyperlink")
	if href, _ := link.Attrs["href"].(string); href != "" && ctx.Rels != nil {
		if id := ctx.Rels.GetOrCreate(href, "hyperlink"); id != "" {
			el.SetAttr("r:id", id)
		}
	}
	if anchor, _ := link.Attrs["anchor"].(string); anchor != "" {
		el.SetAttr("w:anchor", anchor)
	}
	for _, n := range nodes {
		el.AppendChild(h.decodeInlineOne(n.RemoveMark(model.LinkMark), ctx, false)...)
	}
	return el
}

// decodeInlineOne emits the element(s) for one inline node. del selects
// w:delText for text inside w:del wrappers.
func (h *ListHandler) decodeInlineOne(n *model.Node, ctx *DecodeContext, del bool) []*xmltree.Node {
	switch n.Type {
	case model.TextType:
		return []*xmltree.Node{h.decodeTextRun(n, del)}
	case model.TabType:
		return []*xmltree.Node{runWith(nil, xmltree.NewElement("w:tab"))}
	case model.HardBreakType:
		br := xmltree.NewElement("w:br")
		if bt := n.StringAttr("breakType"); bt != "" && bt != "textWrapping" {
			br.SetAttr("w:type", bt)
		}
		return []*xmltree.Node{runWith(nil, br)}
	case model.ImageType:
		if el := decodeDrawing(n, ctx); el != nil {
			return []*xmltree.Node{runWith(nil, el)}
		}
		return nil
	case model.CommentRangeStart, model.CommentRangeEnd, model.CommentReference:
		return decodeCommentAnchor(n, ctx)
	case model.BookmarkStartType:
		el := xmltree.NewElement("w:bookmarkStart")
		el.SetAttr("w:id", n.StringAttr("id"))
		el.SetAttr("w:name", n.StringAttr("name"))
		return []*xmltree.Node{el}
	case model.BookmarkEndType:
		el := xmltree.NewElement("w:bookmarkEnd")
		el.SetAttr("w:id", n.StringAttr("id"))
		return []*xmltree.Node{el}
	case model.FieldCodeType:
		return decodeFieldCode(n, h, ctx)
	case model.StructuredContent:
		return decodeSDTInline(n, h, ctx)
	case model.PassthroughInline:
		if el := passthroughXML(n); el != nil {
			return []*xmltree.Node{el}
		}
		return nil
	}
	if tr := h.reg.byNode[n.Type]; tr != nil && tr.Decode != nil {
		return tr.Decode(DecodeParams{Node: n, List: h, Ctx: ctx})
	}
	return nil
}

func (h *ListHandler) decodeTextRun(n *model.Node, del bool) *xmltree.Node {
	rPr := h.decodeRunProps(n.Marks)
	name := "w:t"
	if del {
		name = "w:delText"
	}
	t := xmltree.NewElement(name)
	if needsSpacePreserve(n.Text) {
		t.SetAttr("xml:space", "preserve")
	}
	t.AppendChild(xmltree.NewText(n.Text))
	return runWith(rPr, t)
}

func runWith(rPr *xmltree.Node, children ...*xmltree.Node) *xmltree.Node {
	r := xmltree.NewElement("w:r")
	if rPr != nil {
		r.AppendChild(rPr)
	}
	r.AppendChild(children...)
	return r
}

func needsSpacePreserve(s string) bool {
	if s == "" {
		return false
	}
	return s[0] == ' ' || s[len(s)-1] == ' '
}
