package engine

import (
	"github.com/docmill/docmill/measure"
	"github.com/docmill/docmill/model"
	"github.com/docmill/docmill/numbering"
	"github.com/docmill/docmill/paginate"
	"github.com/docmill/docmill/translate"
)

// OOXML lengths arrive in twips; layout works in CSS pixels.
// 20 twips per point, 96 px per 72 pt.
const twipsPerPx = 15.0

func twipsToPx(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n) / twipsPerPx, true
	case int64:
		return float64(n) / twipsPerPx, true
	case float64:
		return n / twipsPerPx, true
	}
	return 0, false
}

func halfPointsToPx(half int) float64 { return float64(half) * 2.0 / 3.0 }

// markerWidth measures the item's rendered marker plus one trailing
// space at the paragraph's base size. Items whose numbering cannot be
// resolved get a bullet marker.
func markerWidth(n *model.Node, arts *ImportArtifacts, counters *numbering.Counters, m measure.Measurer, sizePx float64) float64 {
	marker := "•"
	if arts != nil && arts.Numbering != nil {
		numID := n.StringAttr("numId")
		ilvl, _ := n.IntAttr("ilvl")
		path := counters.Advance(arts.Numbering, numID, ilvl)
		marker = arts.Numbering.MarkerText(numID, ilvl, path)
	}
	w := 0.0
	for _, adv := range m.RuneWidths(marker+" ", sizePx) {
		w += adv
	}
	return w
}

// measureBlocks converts the document tree into measured layout blocks.
// Consecutive numbered paragraphs collapse into one list block so the
// engine can indent them as a unit. Numbering counters advance in
// document order across the whole pass.
func (p *Pipeline) measureBlocks(doc *model.Node, defaults paginate.Geometry, m measure.Measurer, arts *ImportArtifacts) []paginate.Block {
	return p.measureBlocksCounted(doc, defaults, m, arts, numbering.NewCounters())
}

func (p *Pipeline) measureBlocksCounted(doc *model.Node, defaults paginate.Geometry, m measure.Measurer, arts *ImportArtifacts, counters *numbering.Counters) []paginate.Block {
	width := defaults.PageWidth - defaults.Margins.Left - defaults.Margins.Right
	var blocks []paginate.Block
	var list *paginate.Block

	flushList := func() {
		if list != nil {
			blocks = append(blocks, *list)
			list = nil
		}
	}

	for i, child := range doc.Content {
		switch child.Type {
		case model.SectionBreakType:
			flushList()
			props := sectionProps(child)
			if h, ok := p.partHeight(child.Attr("headerRefs"), width, m, arts); ok {
				props.HeaderHeight = &h
			}
			if h, ok := p.partHeight(child.Attr("footerRefs"), width, m, arts); ok {
				props.FooterHeight = &h
			}
			blocks = append(blocks, paginate.Block{
				Kind:    paginate.BlockSection,
				Index:   i,
				Section: props,
			})
		case model.ParagraphType:
			st := p.paragraphStyle(child, arts)
			if p.isListItem(child, arts) {
				mw := markerWidth(child, arts, counters, m, st.defaultSizePx)
				mb := measureParagraph(child, width-mw, m, st)
				mb.MarkerWidth = mw
				if list == nil {
					list = &paginate.Block{Kind: paginate.BlockList, Index: i, SpacingBefore: st.spacingBefore}
				}
				list.Items = append(list.Items, paginate.ListItem{Measure: mb, SpacingBefore: st.spacingBefore})
				list.SpacingAfter = st.spacingAfter
				continue
			}
			flushList()
			blocks = append(blocks, paginate.Block{
				Kind:            paginate.BlockParagraph,
				Index:           i,
				Measure:         measureParagraph(child, width, m, st),
				SpacingBefore:   st.spacingBefore,
				SpacingAfter:    st.spacingAfter,
				PageBreakBefore: st.pageBreakBefore,
			})
		case model.TableType:
			flushList()
			blocks = append(blocks, paginate.Block{
				Kind:  paginate.BlockTable,
				Index: i,
				Rows:  p.measureTable(child, width, m, arts),
			})
		case model.StructuredBlock:
			flushList()
			inner := p.measureBlocksCounted(child, defaults, m, arts, counters)
			for j := range inner {
				inner[j].Index = i
			}
			blocks = append(blocks, inner...)
		}
		// passthrough blocks carry opaque markup and take no space
	}
	flushList()
	return blocks
}

// partHeight measures the tallest header or footer part among refs so
// the section reservation can clear it. Returns false when no ref
// resolves to a part.
func (p *Pipeline) partHeight(refs any, width float64, m measure.Measurer, arts *ImportArtifacts) (float64, bool) {
	list, ok := refs.([]any)
	if !ok || arts == nil || arts.Rels == nil || arts.Package == nil {
		return 0, false
	}
	h := translate.NewListHandler(p.registry)
	ectx := &translate.EncodeContext{
		Numbering: arts.Numbering,
		Styles:    arts.Styles,
		Rels:      arts.Rels,
		Logger:    p.logger,
	}
	best := 0.0
	found := false
	for _, ref := range list {
		attrs, ok := ref.(model.Attrs)
		if !ok {
			continue
		}
		rid, _ := attrs["rId"].(string)
		target := arts.Rels.Target(rid)
		if target == "" {
			continue
		}
		tree := arts.Package.Parts["word/"+target]
		if tree == nil {
			continue
		}
		total := 0.0
		for _, bn := range h.EncodeBlocks(tree.Elements, ectx) {
			if bn.Type != model.ParagraphType {
				continue
			}
			st := p.paragraphStyle(bn, arts)
			mb := measureParagraph(bn, width, m, st)
			for _, line := range mb.Lines {
				total += line.Height
			}
			total += st.spacingBefore + st.spacingAfter
		}
		if total > best {
			best = total
			found = true
		}
	}
	return best, found
}

// isListItem reports whether the paragraph belongs to a numbering
// definition that actually exists.
func (p *Pipeline) isListItem(n *model.Node, arts *ImportArtifacts) bool {
	numID := n.StringAttr("numId")
	if numID == "" {
		return false
	}
	if arts != nil && arts.Numbering != nil && !arts.Numbering.HasNum(numID) {
		return false
	}
	return true
}

// sectionProps maps a sectionBreak node onto layout geometry,
// converting twips to pixels. Absent attrs stay nil and inherit.
func sectionProps(n *model.Node) *paginate.SectionProps {
	props := &paginate.SectionProps{
		Type:                n.StringAttr("type"),
		IsFirstSection:      n.BoolAttr("isFirstSection"),
		RequirePageBoundary: n.BoolAttr("requirePageBoundary"),
	}
	if props.Type == "" {
		props.Type = "nextPage"
	}
	if v, ok := twipsToPx(n.Attr("pageWidth")); ok {
		props.PageWidth = &v
	}
	if v, ok := twipsToPx(n.Attr("pageHeight")); ok {
		props.PageHeight = &v
	}
	if o := n.StringAttr("orientation"); o != "" {
		props.Orientation = &o
	}
	if margins, ok := n.Attr("margins").(model.Attrs); ok {
		m := marginsFromAttrs(margins)
		props.Margins = &m
	}
	if v, ok := twipsToPx(n.Attr("headerDistance")); ok {
		props.HeaderDistance = &v
	}
	if v, ok := twipsToPx(n.Attr("footerDistance")); ok {
		props.FooterDistance = &v
	}
	count, hasCount := n.IntAttr("columnCount")
	gap, hasGap := twipsToPx(n.Attr("columnGap"))
	if hasCount || hasGap {
		cols := paginate.Columns{Count: count, Gap: gap}
		if cols.Count < 1 {
			cols.Count = 1
		}
		props.Columns = &cols
	}
	return props
}

func marginsFromAttrs(attrs model.Attrs) paginate.Margins {
	var m paginate.Margins
	if v, ok := twipsToPx(attrs["top"]); ok {
		m.Top = v
	}
	if v, ok := twipsToPx(attrs["right"]); ok {
		m.Right = v
	}
	if v, ok := twipsToPx(attrs["bottom"]); ok {
		m.Bottom = v
	}
	if v, ok := twipsToPx(attrs["left"]); ok {
		m.Left = v
	}
	return m
}

// paraStyle is the layout-relevant result of style resolution: direct
// paragraph attrs win over the style chain.
type paraStyle struct {
	spacingBefore   float64
	spacingAfter    float64
	lineFactor      float64
	defaultSizePx   float64
	pageBreakBefore bool
}

func (p *Pipeline) paragraphStyle(n *model.Node, arts *ImportArtifacts) paraStyle {
	st := paraStyle{lineFactor: 1, defaultSizePx: halfPointsToPx(22)}
	if arts != nil && arts.Styles != nil {
		pp := arts.Styles.ResolveParagraph(n.StringAttr("styleId"))
		rp := arts.Styles.ResolveRun(n.StringAttr("styleId"))
		st.spacingBefore = float64(pp.SpacingBefore) / twipsPerPx
		st.spacingAfter = float64(pp.SpacingAfter) / twipsPerPx
		if pp.Line > 0 {
			st.lineFactor = float64(pp.Line) / 240
		}
		if rp.SizeHalf > 0 {
			st.defaultSizePx = halfPointsToPx(rp.SizeHalf)
		}
	}
	if v, ok := twipsToPx(n.Attr("spacingBefore")); ok {
		st.spacingBefore = v
	}
	if v, ok := twipsToPx(n.Attr("spacingAfter")); ok {
		st.spacingAfter = v
	}
	if line, ok := n.IntAttr("lineHeight"); ok && line > 0 {
		st.lineFactor = float64(line) / 240
	}
	st.pageBreakBefore = n.BoolAttr("pageBreakBefore")
	return st
}
