package translate

import (
	"github.com/docmill/docmill/model"
	"github.com/docmill/docmill/xmltree"
)

// Comment anchors: w:commentRangeStart, w:commentRangeEnd and the
// trailing run carrying w:commentReference. The range-start translator
// does not consume the reference run; each anchor maps one-to-one.

func commentAnchorTranslators() []*Translator {
	anchor := func(xmlName, nodeType string) *Translator {
		return &Translator{
			XMLName:   xmlName,
			NodeNames: []string{nodeType},
			Encode: func(p EncodeParams) Result {
				id := p.Node.AttrDefault("w:id", "")
				return Handled(model.NewNode(nodeType, model.Attrs{"id": id}))
			},
		}
	}
	return []*Translator{
		anchor("w:commentRangeStart", model.CommentRangeStart),
		anchor("w:commentRangeEnd", model.CommentRangeEnd),
	}
}

// decodeCommentAnchor emits the anchor element for a comment node, or
// nothing when the export mode filters the thread out.
func decodeCommentAnchor(n *model.Node, ctx *DecodeContext) []*xmltree.Node {
	id := n.StringAttr("id")
	if ctx != nil && !ctx.commentVisible(id) {
		return nil
	}
	var el *xmltree.Node
	switch n.Type {
	case model.CommentRangeStart:
		el = xmltree.NewElement("w:commentRangeStart")
	case model.CommentRangeEnd:
		el = xmltree.NewElement("w:commentRangeEnd")
	case model.CommentReference:
		if ctx != nil {
			ctx.markCommentExported(id)
		}
		ref := xmltree.NewElement("w:commentReference")
		ref.SetAttr("w:id", id)
		return []*xmltree.Node{runWith(nil, ref)}
	default:
		return nil
	}
	el.SetAttr("w:id", id)
	return []*xmltree.Node{el}
}

// trackChangeTranslators handle w:ins and w:del on import: decoded
// child content is wrapped in a synthetic mark carrying the revision
// author/date/id. The decode direction is reassembled by DecodeInline
// from consecutive marked nodes.
func trackChangeTranslators() []*Translator {
	wrap := func(xmlName, markType string) *Translator {
		return &Translator{
			XMLName: xmlName,
			Encode: func(p EncodeParams) Result {
				mark := model.Mark{Type: markType, Attrs: model.Attrs{
					"id":     p.Node.AttrDefault("w:id", ""),
					"author": p.Node.AttrDefault("w:author", ""),
					"date":   p.Node.AttrDefault("w:date", ""),
				}}
				children := p.List.EncodeInline(p.Node.Elements, p.Ctx)
				marked := make([]*model.Node, 0, len(children))
				for _, c := range children {
					marked = append(marked, c.AddMark(mark))
				}
				return Handled(marked...)
			},
		}
	}
	return []*Translator{
		wrap("w:ins", model.TrackInsertMark),
		wrap("w:del", model.TrackDeleteMark),
	}
}

// hyperlinkTranslator handles w:hyperlink on import: children carry a
// link mark holding the resolved target (or anchor). Export grouping
// lives in DecodeInline.
func hyperlinkTranslator() *Translator {
	return &Translator{
		XMLName: "w:hyperlink",
		Encode: func(p EncodeParams) Result {
			attrs := model.Attrs{}
			if rID, ok := p.Node.Attr("r:id"); ok {
				attrs["rId"] = rID
				if p.Ctx != nil && p.Ctx.Rels != nil {
					if target := p.Ctx.Rels.Target(rID); target != "" {
						attrs["href"] = target
					}
				}
			}
			if anchor, ok := p.Node.Attr("w:anchor"); ok {
				attrs["anchor"] = anchor
			}
			mark := model.Mark{Type: model.LinkMark, Attrs: attrs}
			children := p.List.EncodeInline(p.Node.Elements, p.Ctx)
			marked := make([]*model.Node, 0, len(children))
			for _, c := range children {
				marked = append(marked, c.AddMark(mark))
			}
			return Handled(marked...)
		},
	}
}

// bookmarkTranslators map w:bookmarkStart/w:bookmarkEnd.
func bookmarkTranslators() []*Translator {
	return []*Translator{
		{
			XMLName:   "w:bookmarkStart",
			NodeNames: []string{model.BookmarkStartType},
			Encode: func(p EncodeParams) Result {
				return Handled(model.NewNode(model.BookmarkStartType, model.Attrs{
					"id":   p.Node.AttrDefault("w:id", ""),
					"name": p.Node.AttrDefault("w:name", ""),
				}))
			},
		},
		{
			XMLName:   "w:bookmarkEnd",
			NodeNames: []string{model.BookmarkEndType},
			Encode: func(p EncodeParams) Result {
				return Handled(model.NewNode(model.BookmarkEndType, model.Attrs{
					"id": p.Node.AttrDefault("w:id", ""),
				}))
			},
		},
	}
}

// ParseCommentsPart reads the comments part into the context map keyed
// by comment id. Extended properties (resolved/internal) come from the
// w15 extensible attributes when present.
func ParseCommentsPart(root *xmltree.Node) map[string]Comment {
	out := map[string]Comment{}
	if root == nil {
		return out
	}
	for _, c := range root.Children("w:comment") {
		cm := Comment{
			ID:     c.AttrDefault("w:id", ""),
			Author: c.AttrDefault("w:author", ""),
			Date:   c.AttrDefault("w:date", ""),
		}
		cm.Resolved = OnOff(c.AttrDefault("w15:done", ""), c.AttrDefault("w15:done", "") != "")
		cm.Internal = OnOff(c.AttrDefault("sd:internal", ""), c.AttrDefault("sd:internal", "") != "")
		out[cm.ID] = cm
	}
	return out
}
