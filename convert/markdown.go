// Package convert translates between the document model and external
// text formats: Markdown and HTML in both directions. Conversions are
// lossy by nature; they map what both sides can express and drop the
// rest.
package convert

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/docmill/docmill/model"
)

// Bullet and ordered lists imported from markdown reference these
// numbering definitions; the exporter's numbering part carries both.
const (
	BulletNumID  = "1"
	OrderedNumID = "2"
)

// FromMarkdown parses markdown into a document node.
func FromMarkdown(source string) (*model.Node, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.Table, extension.Strikethrough))
	src := []byte(source)
	root := md.Parser().Parse(text.NewReader(src))

	var blocks []*model.Node
	if err := walkMarkdownBlocks(root, src, 0, &blocks); err != nil {
		return nil, err
	}
	if len(blocks) == 0 {
		blocks = []*model.Node{model.NewNode(model.ParagraphType, nil)}
	}
	return model.NewNode(model.DocType, nil, blocks...), nil
}

func walkMarkdownBlocks(node ast.Node, src []byte, listDepth int, out *[]*model.Node) error {
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		switch n := child.(type) {
		case *ast.Heading:
			attrs := model.Attrs{"styleId": fmt.Sprintf("Heading%d", n.Level)}
			*out = append(*out, model.NewNode(model.ParagraphType, attrs, markdownInline(n, src, nil)...))
		case *ast.Paragraph:
			*out = append(*out, model.NewNode(model.ParagraphType, nil, markdownInline(n, src, nil)...))
		case *ast.List:
			if err := walkMarkdownList(n, src, listDepth, out); err != nil {
				return err
			}
		case *east.Table:
			tbl, err := markdownTable(n, src)
			if err != nil {
				return err
			}
			*out = append(*out, tbl)
		case *ast.Blockquote, *ast.FencedCodeBlock, *ast.CodeBlock:
			para := model.NewNode(model.ParagraphType, nil, markdownInline(n, src, nil)...)
			*out = append(*out, para)
		case *ast.ThematicBreak:
			// No document equivalent worth keeping.
		}
	}
	return nil
}

func walkMarkdownList(list *ast.List, src []byte, depth int, out *[]*model.Node) error {
	numID := BulletNumID
	if list.IsOrdered() {
		numID = OrderedNumID
	}
	for item := list.FirstChild(); item != nil; item = item.NextSibling() {
		attrs := model.Attrs{"numId": numID, "ilvl": depth}
		var inline []*model.Node
		for block := item.FirstChild(); block != nil; block = block.NextSibling() {
			switch b := block.(type) {
			case *ast.List:
				if len(inline) > 0 {
					*out = append(*out, model.NewNode(model.ParagraphType, attrs, inline...))
					inline = nil
					attrs = nil
				}
				if err := walkMarkdownList(b, src, depth+1, out); err != nil {
					return err
				}
			default:
				inline = append(inline, markdownInline(block, src, nil)...)
			}
		}
		if len(inline) > 0 {
			*out = append(*out, model.NewNode(model.ParagraphType, attrs, inline...))
		}
	}
	return nil
}

func markdownTable(tbl *east.Table, src []byte) (*model.Node, error) {
	var rows []*model.Node
	for r := tbl.FirstChild(); r != nil; r = r.NextSibling() {
		_, header := r.(*east.TableHeader)
		var cells []*model.Node
		for c := r.FirstChild(); c != nil; c = c.NextSibling() {
			para := model.NewNode(model.ParagraphType, nil, markdownInline(c, src, nil)...)
			cells = append(cells, model.NewNode(model.TableCellType, nil, para))
		}
		if len(cells) == 0 {
			continue
		}
		var attrs model.Attrs
		if header {
			attrs = model.Attrs{"isHeader": true}
		}
		rows = append(rows, model.NewNode(model.TableRowType, attrs, cells...))
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("markdown table has no rows")
	}
	return model.NewNode(model.TableType, nil, rows...), nil
}

// markdownInline flattens an inline subtree into text nodes carrying
// marks.
func markdownInline(node ast.Node, src []byte, marks []model.Mark) []*model.Node {
	var out []*model.Node
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		switch n := child.(type) {
		case *ast.Text:
			if s := string(n.Segment.Value(src)); s != "" {
				out = append(out, model.NewText(s, marks...))
			}
			if n.HardLineBreak() {
				out = append(out, model.NewNode(model.HardBreakType, nil))
			}
		case *ast.String:
			if len(n.Value) > 0 {
				out = append(out, model.NewText(string(n.Value), marks...))
			}
		case *ast.Emphasis:
			m := model.Mark{Type: model.ItalicMark}
			if n.Level >= 2 {
				m = model.Mark{Type: model.BoldMark}
			}
			out = append(out, markdownInline(n, src, append(marks[:len(marks):len(marks)], m))...)
		case *east.Strikethrough:
			m := model.Mark{Type: model.StrikeMark}
			out = append(out, markdownInline(n, src, append(marks[:len(marks):len(marks)], m))...)
		case *ast.Link:
			m := model.Mark{Type: model.LinkMark, Attrs: model.Attrs{"href": string(n.Destination)}}
			out = append(out, markdownInline(n, src, append(marks[:len(marks):len(marks)], m))...)
		case *ast.AutoLink:
			url := string(n.URL(src))
			m := model.Mark{Type: model.LinkMark, Attrs: model.Attrs{"href": url}}
			out = append(out, model.NewText(url, append(marks[:len(marks):len(marks)], m)...))
		case *ast.Image:
			out = append(out, model.NewNode(model.ImageType, model.Attrs{
				"src": string(n.Destination),
				"alt": string(n.Text(src)),
			}))
		case *ast.CodeSpan:
			m := model.Mark{Type: model.FontFamilyMark, Attrs: model.Attrs{"name": "Courier New"}}
			if s := string(n.Text(src)); s != "" {
				out = append(out, model.NewText(s, append(marks[:len(marks):len(marks)], m)...))
			}
		default:
			out = append(out, markdownInline(child, src, marks)...)
		}
	}
	return out
}

// ToMarkdown renders a document node as markdown text.
func ToMarkdown(doc *model.Node) string {
	var b strings.Builder
	for i, block := range doc.Content {
		if i > 0 {
			b.WriteString("\n")
		}
		writeMarkdownBlock(&b, block)
	}
	return b.String()
}

func writeMarkdownBlock(b *strings.Builder, n *model.Node) {
	switch n.Type {
	case model.ParagraphType:
		if level := headingLevel(n.StringAttr("styleId")); level > 0 {
			b.WriteString(strings.Repeat("#", level))
			b.WriteString(" ")
		} else if numID := n.StringAttr("numId"); numID != "" {
			depth, _ := n.IntAttr("ilvl")
			b.WriteString(strings.Repeat("  ", depth))
			if numID == OrderedNumID {
				b.WriteString("1. ")
			} else {
				b.WriteString("- ")
			}
		}
		writeMarkdownInline(b, n.Content)
		b.WriteString("\n")
	case model.TableType:
		writeMarkdownTable(b, n)
	}
}

func writeMarkdownTable(b *strings.Builder, tbl *model.Node) {
	for ri, row := range tbl.Content {
		b.WriteString("|")
		for _, cell := range row.Content {
			b.WriteString(" ")
			for _, para := range cell.Content {
				writeMarkdownInline(b, para.Content)
			}
			b.WriteString(" |")
		}
		b.WriteString("\n")
		if ri == 0 {
			b.WriteString("|")
			for range row.Content {
				b.WriteString(" --- |")
			}
			b.WriteString("\n")
		}
	}
}

func writeMarkdownInline(b *strings.Builder, nodes []*model.Node) {
	for _, n := range nodes {
		switch n.Type {
		case model.TextType:
			open, close := markdownDelimiters(n)
			b.WriteString(open)
			b.WriteString(n.Text)
			b.WriteString(close)
		case model.HardBreakType:
			b.WriteString("  \n")
		case model.TabType:
			b.WriteString("\t")
		case model.ImageType:
			fmt.Fprintf(b, "![%s](%s)", n.StringAttr("alt"), n.StringAttr("src"))
		default:
			writeMarkdownInline(b, n.Content)
		}
	}
}

func markdownDelimiters(n *model.Node) (string, string) {
	var open, close string
	if n.HasMark(model.BoldMark) {
		open += "**"
		close = "**" + close
	}
	if n.HasMark(model.ItalicMark) {
		open += "*"
		close = "*" + close
	}
	if n.HasMark(model.StrikeMark) {
		open += "~~"
		close = "~~" + close
	}
	if link := n.Mark(model.LinkMark); link != nil {
		href, _ := link.Attrs["href"].(string)
		return open + "[", fmt.Sprintf("](%s)%s", href, close)
	}
	return open, close
}

func headingLevel(styleID string) int {
	if !strings.HasPrefix(styleID, "Heading") {
		return 0
	}
	switch styleID[len("Heading"):] {
	case "1":
		return 1
	case "2":
		return 2
	case "3":
		return 3
	case "4":
		return 4
	case "5":
		return 5
	case "6":
		return 6
	}
	return 0
}
