package translate

import (
	"strconv"

	"github.com/docmill/docmill/model"
	"github.com/docmill/docmill/relationships"
	"github.com/docmill/docmill/xmltree"
)

// emuPerPixel converts between OOXML EMUs and CSS pixels at 96dpi.
const emuPerPixel = 9525

func drawingTranslator() *Translator {
	return &Translator{
		XMLName:   "w:drawing",
		NodeNames: []string{model.ImageType},
		Encode: func(p EncodeParams) Result {
			if img := encodeDrawing(p.Node, p.Ctx); img != nil {
				return Handled(img)
			}
			return NotHandled()
		},
		Decode: func(p DecodeParams) []*xmltree.Node {
			if el := decodeDrawing(p.Node, p.Ctx); el != nil {
				return []*xmltree.Node{runWith(nil, el)}
			}
			return nil
		},
	}
}

// encodeDrawing extracts the inline picture of a w:drawing: extent in
// EMUs and the a:blip relationship id, resolved to its media target.
func encodeDrawing(drawing *xmltree.Node, ctx *EncodeContext) *model.Node {
	inline := drawing.Child("wp:inline")
	if inline == nil {
		inline = drawing.Child("wp:anchor")
	}
	if inline == nil {
		return nil
	}
	attrs := model.Attrs{}
	if extent := inline.Child("wp:extent"); extent != nil {
		if cx, ok := Int(extent.AttrDefault("cx", "")); ok {
			attrs["width"] = cx / emuPerPixel
		}
		if cy, ok := Int(extent.AttrDefault("cy", "")); ok {
			attrs["height"] = cy / emuPerPixel
		}
	}
	if docPr := inline.Child("wp:docPr"); docPr != nil {
		if alt, ok := docPr.Attr("descr"); ok {
			attrs["alt"] = alt
		}
	}
	blip := findDescendant(inline, "a:blip")
	if blip == nil {
		return nil
	}
	rID := blip.AttrDefault("r:embed", "")
	if rID == "" {
		return nil
	}
	attrs["rId"] = rID
	if ctx != nil && ctx.Rels != nil {
		if target := ctx.Rels.Target(rID); target != "" {
			attrs["src"] = target
		}
	}
	return model.NewNode(model.ImageType, attrs)
}

// decodeDrawing rebuilds the wp:inline/a:graphic structure around the
// image's media relationship, creating the relationship on demand.
func decodeDrawing(n *model.Node, ctx *DecodeContext) *xmltree.Node {
	rID := n.StringAttr("rId")
	if src := n.StringAttr("src"); src != "" && ctx != nil && ctx.Rels != nil {
		rID = ctx.Rels.GetOrCreate(src, relationships.TypeImage)
	}
	if rID == "" {
		return nil
	}
	widthPx, _ := n.IntAttr("width")
	heightPx, _ := n.IntAttr("height")

	drawing := xmltree.NewElement("w:drawing")
	inline := xmltree.NewElement("wp:inline")
	drawing.AppendChild(inline)

	extent := xmltree.NewElement("wp:extent")
	extent.SetAttr("cx", strconv.Itoa(widthPx*emuPerPixel))
	extent.SetAttr("cy", strconv.Itoa(heightPx*emuPerPixel))
	inline.AppendChild(extent)

	docPr := xmltree.NewElement("wp:docPr")
	docPr.SetAttr("id", "1")
	docPr.SetAttr("name", "Picture")
	if alt := n.StringAttr("alt"); alt != "" {
		docPr.SetAttr("descr", alt)
	}
	inline.AppendChild(docPr)

	graphic := xmltree.NewElement("a:graphic")
	graphicData := xmltree.NewElement("a:graphicData")
	graphicData.SetAttr("uri", "http://schemas.openxmlformats.org/drawingml/2006/picture")
	graphic.AppendChild(graphicData)
	inline.AppendChild(graphic)

	pic := xmltree.NewElement("pic:pic")
	graphicData.AppendChild(pic)

	nvPicPr := xmltree.NewElement("pic:nvPicPr")
	cNvPr := xmltree.NewElement("pic:cNvPr")
	cNvPr.SetAttr("id", "0")
	cNvPr.SetAttr("name", "Picture")
	nvPicPr.AppendChild(cNvPr, xmltree.NewElement("pic:cNvPicPr"))
	pic.AppendChild(nvPicPr)

	blipFill := xmltree.NewElement("pic:blipFill")
	blip := xmltree.NewElement("a:blip")
	blip.SetAttr("r:embed", rID)
	stretch := xmltree.NewElement("a:stretch")
	stretch.AppendChild(xmltree.NewElement("a:fillRect"))
	blipFill.AppendChild(blip, stretch)
	pic.AppendChild(blipFill)

	spPr := xmltree.NewElement("pic:spPr")
	xfrm := xmltree.NewElement("a:xfrm")
	off := xmltree.NewElement("a:off")
	off.SetAttr("x", "0")
	off.SetAttr("y", "0")
	ext := xmltree.NewElement("a:ext")
	ext.SetAttr("cx", strconv.Itoa(widthPx*emuPerPixel))
	ext.SetAttr("cy", strconv.Itoa(heightPx*emuPerPixel))
	xfrm.AppendChild(off, ext)
	prstGeom := xmltree.NewElement("a:prstGeom")
	prstGeom.SetAttr("prst", "rect")
	spPr.AppendChild(xfrm, prstGeom)
	pic.AppendChild(spPr)

	return drawing
}

func findDescendant(n *xmltree.Node, name string) *xmltree.Node {
	for _, c := range n.Elements {
		if c.Name == name {
			return c
		}
		if found := findDescendant(c, name); found != nil {
			return found
		}
	}
	return nil
}
