package translate

import (
	"fmt"

	"github.com/docmill/docmill/model"
	"github.com/docmill/docmill/xmltree"
)

// EncodeDocument imports a w:document part into a document node tree.
// The body's trailing sectPr describes the first section's geometry, so
// it becomes a sectionBreak node at the head of the document flagged
// isFirstSection; mid-document section breaks (from pPr/sectPr) stay in
// place after their paragraph.
func EncodeDocument(reg *Registry, root *xmltree.Node, ctx *EncodeContext) (*model.Node, error) {
	if root == nil || root.Name != "w:document" {
		return nil, fmt.Errorf("expected w:document root, got %q", rootName(root))
	}
	body := root.Child("w:body")
	if body == nil {
		return nil, fmt.Errorf("w:document has no w:body")
	}
	h := NewListHandler(reg)

	var blocks []*xmltree.Node
	var trailingSect *xmltree.Node
	for _, child := range body.Elements {
		if child.Name == "w:sectPr" {
			trailingSect = child
			continue
		}
		blocks = append(blocks, child)
	}

	var content []*model.Node
	if trailingSect != nil {
		content = append(content, encodeSectionProps(trailingSect, ctx, true))
	}
	content = append(content, h.EncodeBlocks(blocks, ctx)...)
	if len(content) == 0 {
		content = []*model.Node{model.NewNode(model.ParagraphType, nil)}
	}
	return model.NewNode(model.DocType, nil, content...), nil
}

// DecodeDocument exports a document node tree back to a w:document
// part. The isFirstSection break returns to its place as the body's
// trailing sectPr; every other sectionBreak folds into the pPr of the
// preceding paragraph, or an empty paragraph when none precedes it.
func DecodeDocument(reg *Registry, doc *model.Node, ctx *DecodeContext) *xmltree.Node {
	h := NewListHandler(reg)
	body := xmltree.NewElement("w:body")

	var trailingSect *xmltree.Node
	blocks := doc.Content
	for i := 0; i < len(blocks); i++ {
		n := blocks[i]
		if n.Type == model.SectionBreakType && n.BoolAttr("isFirstSection") {
			trailingSect = decodeSectionProps(n)
			continue
		}
		if n.Type == model.ParagraphType && i+1 < len(blocks) &&
			blocks[i+1].Type == model.SectionBreakType &&
			!blocks[i+1].BoolAttr("isFirstSection") {
			sectPr := decodeSectionProps(blocks[i+1])
			body.AppendChild(decodeParagraphWithSect(n, sectPr, h, ctx))
			i++
			continue
		}
		if n.Type == model.SectionBreakType {
			// Section break with no preceding paragraph: Word anchors it
			// in an otherwise empty paragraph.
			empty := xmltree.NewElement("w:p")
			pPr := xmltree.NewElement("w:pPr")
			pPr.AppendChild(decodeSectionProps(n))
			empty.AppendChild(pPr)
			body.AppendChild(empty)
			continue
		}
		body.AppendChild(h.DecodeBlocks([]*model.Node{n}, ctx)...)
	}
	if trailingSect != nil {
		body.AppendChild(trailingSect)
	}

	root := xmltree.NewElement("w:document")
	for _, ns := range documentNamespaces {
		root.SetAttr(ns.Name, ns.Value)
	}
	root.AppendChild(body)
	return root
}

var documentNamespaces = []xmltree.Attr{
	{Name: "xmlns:w", Value: "http://schemas.openxmlformats.org/wordprocessingml/2006/main"},
	{Name: "xmlns:r", Value: "http://schemas.openxmlformats.org/officeDocument/2006/relationships"},
	{Name: "xmlns:wp", Value: "http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing"},
	{Name: "xmlns:a", Value: "http://schemas.openxmlformats.org/drawingml/2006/main"},
	{Name: "xmlns:pic", Value: "http://schemas.openxmlformats.org/drawingml/2006/picture"},
	{Name: "xmlns:mc", Value: "http://schemas.openxmlformats.org/markup-compatibility/2006"},
	{Name: "xmlns:w14", Value: "http://schemas.microsoft.com/office/word/2010/wordml"},
	{Name: "xmlns:w15", Value: "http://schemas.microsoft.com/office/word/2012/wordml"},
}

func rootName(n *xmltree.Node) string {
	if n == nil {
		return ""
	}
	return n.Name
}
