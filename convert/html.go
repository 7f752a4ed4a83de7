package convert

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/docmill/docmill/model"
)

// FromHTML parses HTML into a document node. Unknown elements
// contribute their text content; script and style are dropped.
func FromHTML(source string) (*model.Node, error) {
	root, err := html.Parse(strings.NewReader(source))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	var blocks []*model.Node
	walkHTMLBlocks(root, 0, "", &blocks)
	if len(blocks) == 0 {
		blocks = []*model.Node{model.NewNode(model.ParagraphType, nil)}
	}
	return model.NewNode(model.DocType, nil, blocks...), nil
}

func walkHTMLBlocks(n *html.Node, listDepth int, listNumID string, out *[]*model.Node) {
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.Script, atom.Style, atom.Head:
			return
		case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
			level := int(n.Data[1] - '0')
			attrs := model.Attrs{"styleId": fmt.Sprintf("Heading%d", level)}
			*out = append(*out, model.NewNode(model.ParagraphType, attrs, htmlInline(n, nil)...))
			return
		case atom.P:
			*out = append(*out, model.NewNode(model.ParagraphType, nil, htmlInline(n, nil)...))
			return
		case atom.Ul:
			walkHTMLList(n, listDepth, BulletNumID, out)
			return
		case atom.Ol:
			walkHTMLList(n, listDepth, OrderedNumID, out)
			return
		case atom.Table:
			if tbl := htmlTable(n); tbl != nil {
				*out = append(*out, tbl)
			}
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkHTMLBlocks(c, listDepth, listNumID, out)
	}
}

func walkHTMLList(list *html.Node, depth int, numID string, out *[]*model.Node) {
	for li := list.FirstChild; li != nil; li = li.NextSibling {
		if li.Type != html.ElementNode || li.DataAtom != atom.Li {
			continue
		}
		attrs := model.Attrs{"numId": numID, "ilvl": depth}
		var inline []*model.Node
		for c := li.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && (c.DataAtom == atom.Ul || c.DataAtom == atom.Ol) {
				if len(inline) > 0 {
					*out = append(*out, model.NewNode(model.ParagraphType, attrs, inline...))
					inline = nil
				}
				nested := BulletNumID
				if c.DataAtom == atom.Ol {
					nested = OrderedNumID
				}
				walkHTMLList(c, depth+1, nested, out)
				continue
			}
			inline = append(inline, htmlInlineOne(c, nil)...)
		}
		if len(inline) > 0 {
			*out = append(*out, model.NewNode(model.ParagraphType, attrs, inline...))
		}
	}
}

func htmlTable(tbl *html.Node) *model.Node {
	var rows []*model.Node
	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Tr {
			if row := htmlTableRow(n); row != nil {
				rows = append(rows, row)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(tbl)
	if len(rows) == 0 {
		return nil
	}
	return model.NewNode(model.TableType, nil, rows...)
}

func htmlTableRow(tr *html.Node) *model.Node {
	var cells []*model.Node
	header := false
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if c.DataAtom != atom.Td && c.DataAtom != atom.Th {
			continue
		}
		if c.DataAtom == atom.Th {
			header = true
		}
		para := model.NewNode(model.ParagraphType, nil, htmlInline(c, nil)...)
		cells = append(cells, model.NewNode(model.TableCellType, nil, para))
	}
	if len(cells) == 0 {
		return nil
	}
	var attrs model.Attrs
	if header {
		attrs = model.Attrs{"isHeader": true}
	}
	return model.NewNode(model.TableRowType, attrs, cells...)
}

func htmlInline(n *html.Node, marks []model.Mark) []*model.Node {
	var out []*model.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, htmlInlineOne(c, marks)...)
	}
	return out
}

func htmlInlineOne(n *html.Node, marks []model.Mark) []*model.Node {
	switch n.Type {
	case html.TextNode:
		s := collapseSpace(n.Data)
		if s == "" {
			return nil
		}
		return []*model.Node{model.NewText(s, marks...)}
	case html.ElementNode:
	default:
		return nil
	}
	with := func(m model.Mark) []*model.Node {
		return htmlInline(n, append(marks[:len(marks):len(marks)], m))
	}
	switch n.DataAtom {
	case atom.B, atom.Strong:
		return with(model.Mark{Type: model.BoldMark})
	case atom.I, atom.Em:
		return with(model.Mark{Type: model.ItalicMark})
	case atom.U:
		return with(model.Mark{Type: model.UnderlineMark, Attrs: model.Attrs{"style": "single"}})
	case atom.S, atom.Del, atom.Strike:
		return with(model.Mark{Type: model.StrikeMark})
	case atom.A:
		href := htmlAttr(n, "href")
		if href == "" {
			return htmlInline(n, marks)
		}
		return with(model.Mark{Type: model.LinkMark, Attrs: model.Attrs{"href": href}})
	case atom.Br:
		return []*model.Node{model.NewNode(model.HardBreakType, nil)}
	case atom.Img:
		attrs := model.Attrs{"src": htmlAttr(n, "src")}
		if alt := htmlAttr(n, "alt"); alt != "" {
			attrs["alt"] = alt
		}
		return []*model.Node{model.NewNode(model.ImageType, attrs)}
	case atom.Script, atom.Style:
		return nil
	}
	return htmlInline(n, marks)
}

func htmlAttr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

// collapseSpace squashes whitespace runs to single spaces, keeping one
// edge space so words separated by markup stay separated.
func collapseSpace(s string) string {
	collapsed := strings.Join(strings.Fields(s), " ")
	if collapsed == "" {
		if s == "" {
			return ""
		}
		return " "
	}
	if s[0] == ' ' || s[0] == '\n' || s[0] == '\t' {
		collapsed = " " + collapsed
	}
	last := s[len(s)-1]
	if last == ' ' || last == '\n' || last == '\t' {
		collapsed += " "
	}
	return collapsed
}

// ToHTML renders a document node as an HTML fragment.
func ToHTML(doc *model.Node) string {
	var b strings.Builder
	blocks := doc.Content
	for i := 0; i < len(blocks); i++ {
		n := blocks[i]
		if n.Type == model.ParagraphType && n.StringAttr("numId") != "" {
			i = writeHTMLList(&b, blocks, i) - 1
			continue
		}
		writeHTMLBlock(&b, n)
	}
	return b.String()
}

// writeHTMLList groups consecutive list paragraphs into one ul/ol and
// returns the index past the group.
func writeHTMLList(b *strings.Builder, blocks []*model.Node, start int) int {
	numID := blocks[start].StringAttr("numId")
	tag := "ul"
	if numID == OrderedNumID {
		tag = "ol"
	}
	fmt.Fprintf(b, "<%s>", tag)
	i := start
	for i < len(blocks) && blocks[i].Type == model.ParagraphType && blocks[i].StringAttr("numId") == numID {
		b.WriteString("<li>")
		writeHTMLInline(b, blocks[i].Content)
		b.WriteString("</li>")
		i++
	}
	fmt.Fprintf(b, "</%s>", tag)
	return i
}

func writeHTMLBlock(b *strings.Builder, n *model.Node) {
	switch n.Type {
	case model.ParagraphType:
		tag := "p"
		if level := headingLevel(n.StringAttr("styleId")); level > 0 {
			tag = fmt.Sprintf("h%d", level)
		}
		fmt.Fprintf(b, "<%s>", tag)
		writeHTMLInline(b, n.Content)
		fmt.Fprintf(b, "</%s>", tag)
	case model.TableType:
		b.WriteString("<table>")
		for _, row := range n.Content {
			b.WriteString("<tr>")
			cellTag := "td"
			if row.BoolAttr("isHeader") {
				cellTag = "th"
			}
			for _, cell := range row.Content {
				fmt.Fprintf(b, "<%s>", cellTag)
				for _, para := range cell.Content {
					writeHTMLInline(b, para.Content)
				}
				fmt.Fprintf(b, "</%s>", cellTag)
			}
			b.WriteString("</tr>")
		}
		b.WriteString("</table>")
	}
}

func writeHTMLInline(b *strings.Builder, nodes []*model.Node) {
	for _, n := range nodes {
		switch n.Type {
		case model.TextType:
			writeHTMLText(b, n)
		case model.HardBreakType:
			b.WriteString("<br/>")
		case model.TabType:
			b.WriteString("\t")
		case model.ImageType:
			fmt.Fprintf(b, `<img src=%q alt=%q/>`, n.StringAttr("src"), n.StringAttr("alt"))
		default:
			writeHTMLInline(b, n.Content)
		}
	}
}

func writeHTMLText(b *strings.Builder, n *model.Node) {
	var openTags, closeTags []string
	push := func(open, close string) {
		openTags = append(openTags, open)
		closeTags = append([]string{close}, closeTags...)
	}
	if link := n.Mark(model.LinkMark); link != nil {
		href, _ := link.Attrs["href"].(string)
		push(fmt.Sprintf(`<a href=%q>`, href), "</a>")
	}
	if n.HasMark(model.BoldMark) {
		push("<strong>", "</strong>")
	}
	if n.HasMark(model.ItalicMark) {
		push("<em>", "</em>")
	}
	if n.HasMark(model.UnderlineMark) {
		push("<u>", "</u>")
	}
	if n.HasMark(model.StrikeMark) {
		push("<s>", "</s>")
	}
	for _, t := range openTags {
		b.WriteString(t)
	}
	b.WriteString(html.EscapeString(n.Text))
	for _, t := range closeTags {
		b.WriteString(t)
	}
}
