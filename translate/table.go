package translate

import (
	"strconv"

	"github.com/docmill/docmill/model"
	"github.com/docmill/docmill/xmltree"
)

func tableTranslator() *Translator {
	return &Translator{
		XMLName:   "w:tbl",
		NodeNames: []string{model.TableType},
		Encode:    encodeTable,
		Decode:    decodeTable,
	}
}

func encodeTable(p EncodeParams) Result {
	el := p.Node
	attrs := model.Attrs{}
	if tblPr := el.Child("w:tblPr"); tblPr != nil {
		if st := tblPr.Child("w:tblStyle"); st != nil {
			attrs["styleId"] = st.AttrDefault("w:val", "")
		}
		if w := tblPr.Child("w:tblW"); w != nil {
			if n, ok := Int(w.AttrDefault("w:w", "")); ok {
				attrs["width"] = n
			}
		}
		if borders := tblPr.Child("w:tblBorders"); borders != nil {
			attrs["borders"] = xmltree.SerializeFragment(borders)
		}
	}
	if grid := el.Child("w:tblGrid"); grid != nil {
		var cols []any
		for _, gc := range grid.Children("w:gridCol") {
			if n, ok := Int(gc.AttrDefault("w:w", "")); ok {
				cols = append(cols, n)
			}
		}
		if len(cols) > 0 {
			attrs["gridCols"] = cols
		}
	}
	var rows []*model.Node
	for _, tr := range el.Children("w:tr") {
		rows = append(rows, encodeTableRow(tr, p))
	}
	if len(rows) == 0 {
		// A table without rows cannot satisfy the content model; keep
		// the original markup instead.
		return NotHandled()
	}
	return Handled(model.NewNode(model.TableType, attrs, rows...))
}

func encodeTableRow(tr *xmltree.Node, p EncodeParams) *model.Node {
	attrs := model.Attrs{}
	if trPr := tr.Child("w:trPr"); trPr != nil {
		if h := trPr.Child("w:trHeight"); h != nil {
			if n, ok := Int(h.AttrDefault("w:val", "")); ok {
				attrs["height"] = n
			}
		}
		if trPr.Child("w:cantSplit") != nil {
			attrs["cantSplit"] = true
		}
		if trPr.Child("w:tblHeader") != nil {
			attrs["isHeader"] = true
		}
	}
	var cells []*model.Node
	for _, tc := range tr.Children("w:tc") {
		cells = append(cells, encodeTableCell(tc, p))
	}
	if len(attrs) == 0 {
		attrs = nil
	}
	return model.NewNode(model.TableRowType, attrs, cells...)
}

func encodeTableCell(tc *xmltree.Node, p EncodeParams) *model.Node {
	attrs := model.Attrs{}
	var blocks []*xmltree.Node
	for _, child := range tc.Elements {
		if child.Name == "w:tcPr" {
			if span := child.Child("w:gridSpan"); span != nil {
				if n, ok := Int(span.AttrDefault("w:val", "")); ok {
					attrs["colspan"] = n
				}
			}
			if vm := child.Child("w:vMerge"); vm != nil {
				attrs["vMerge"] = vm.AttrDefault("w:val", "continue")
			}
			if w := child.Child("w:tcW"); w != nil {
				if n, ok := Int(w.AttrDefault("w:w", "")); ok {
					attrs["width"] = n
				}
			}
			if shd := child.Child("w:shd"); shd != nil {
				attrs["shading"] = shd.AttrDefault("w:fill", "")
			}
			continue
		}
		blocks = append(blocks, child)
	}
	content := p.List.EncodeBlocks(blocks, p.Ctx)
	if len(content) == 0 {
		// Word requires at least one paragraph per cell.
		content = []*model.Node{model.NewNode(model.ParagraphType, nil)}
	}
	if len(attrs) == 0 {
		attrs = nil
	}
	return model.NewNode(model.TableCellType, attrs, content...)
}

// decodeTable rebuilds w:tbl with tblPr and tblGrid before the rows.
func decodeTable(p DecodeParams) []*xmltree.Node {
	n := p.Node
	el := xmltree.NewElement("w:tbl")

	tblPr := xmltree.NewElement("w:tblPr")
	if st := n.StringAttr("styleId"); st != "" {
		style := xmltree.NewElement("w:tblStyle")
		style.SetAttr("w:val", st)
		tblPr.AppendChild(style)
	}
	if w, ok := n.IntAttr("width"); ok {
		tw := xmltree.NewElement("w:tblW")
		tw.SetAttr("w:w", strconv.Itoa(w))
		tw.SetAttr("w:type", "dxa")
		tblPr.AppendChild(tw)
	}
	if raw := n.StringAttr("borders"); raw != "" {
		if borders, err := xmltree.ParseFragment(raw); err == nil {
			tblPr.AppendChild(borders)
		}
	}
	el.AppendChild(tblPr)

	if cols, ok := n.Attr("gridCols").([]any); ok && len(cols) > 0 {
		grid := xmltree.NewElement("w:tblGrid")
		for _, c := range cols {
			gc := xmltree.NewElement("w:gridCol")
			gc.SetAttr("w:w", itoaAny(c))
			grid.AppendChild(gc)
		}
		el.AppendChild(grid)
	}

	for _, row := range n.Content {
		el.AppendChild(decodeTableRow(row, p))
	}
	return []*xmltree.Node{el}
}

func decodeTableRow(row *model.Node, p DecodeParams) *xmltree.Node {
	tr := xmltree.NewElement("w:tr")
	trPr := xmltree.NewElement("w:trPr")
	if h, ok := row.IntAttr("height"); ok {
		th := xmltree.NewElement("w:trHeight")
		th.SetAttr("w:val", strconv.Itoa(h))
		trPr.AppendChild(th)
	}
	if row.BoolAttr("cantSplit") {
		trPr.AppendChild(xmltree.NewElement("w:cantSplit"))
	}
	if row.BoolAttr("isHeader") {
		trPr.AppendChild(xmltree.NewElement("w:tblHeader"))
	}
	if len(trPr.Elements) > 0 {
		tr.AppendChild(trPr)
	}
	for _, cell := range row.Content {
		tr.AppendChild(decodeTableCell(cell, p))
	}
	return tr
}

func decodeTableCell(cell *model.Node, p DecodeParams) *xmltree.Node {
	tc := xmltree.NewElement("w:tc")
	tcPr := xmltree.NewElement("w:tcPr")
	if w, ok := cell.IntAttr("width"); ok {
		tw := xmltree.NewElement("w:tcW")
		tw.SetAttr("w:w", strconv.Itoa(w))
		tw.SetAttr("w:type", "dxa")
		tcPr.AppendChild(tw)
	}
	if span, ok := cell.IntAttr("colspan"); ok && span > 1 {
		gs := xmltree.NewElement("w:gridSpan")
		gs.SetAttr("w:val", strconv.Itoa(span))
		tcPr.AppendChild(gs)
	}
	if vm := cell.StringAttr("vMerge"); vm != "" {
		el := xmltree.NewElement("w:vMerge")
		if vm == "restart" {
			el.SetAttr("w:val", "restart")
		}
		tcPr.AppendChild(el)
	}
	if fill := cell.StringAttr("shading"); fill != "" {
		shd := xmltree.NewElement("w:shd")
		shd.SetAttr("w:val", "clear")
		shd.SetAttr("w:fill", fill)
		tcPr.AppendChild(shd)
	}
	if len(tcPr.Elements) > 0 {
		tc.AppendChild(tcPr)
	}
	tc.AppendChild(p.List.DecodeBlocks(cell.Content, p.Ctx)...)
	return tc
}
