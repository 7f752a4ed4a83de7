package engine

import (
	"unicode"

	"github.com/docmill/docmill/measure"
	"github.com/docmill/docmill/model"
	"github.com/docmill/docmill/paginate"
)

// runInfo carries the per-run data wrapping needs beyond RunMetrics.
type runInfo struct {
	sizePx     float64
	breakAfter bool // hardBreak forces a line break here
	spaces     []bool
}

// runAccum collects the measured runs of one paragraph. charPos maps
// every character slot of every run to its document token position.
type runAccum struct {
	runs    []measure.RunMetrics
	infos   []runInfo
	charPos []int
	m       measure.Measurer
	defSize float64
}

func (a *runAccum) push(r measure.RunMetrics, info runInfo, positions []int) {
	a.runs = append(a.runs, r)
	a.infos = append(a.infos, info)
	a.charPos = append(a.charPos, positions...)
}

// collect walks inline content. pos is the token position of the node's
// first character; the returned pos is past the node.
func (a *runAccum) collect(n *model.Node, pos int) int {
	switch {
	case n.IsText():
		runes := []rune(n.Text)
		size := a.defSize
		if m := n.Mark(model.FontSizeMark); m != nil {
			if half, ok := intAttr(m.Attrs, "halfPoints"); ok && half > 0 {
				size = halfPointsToPx(half)
			}
		}
		spacing := 0.0
		if m := n.Mark(model.LetterSpacingMark); m != nil {
			if tw, ok := intAttr(m.Attrs, "twips"); ok {
				spacing = float64(tw) / twipsPerPx
			}
		}
		widths := a.m.RuneWidths(n.Text, size)
		positions := make([]int, len(runes))
		spaces := make([]bool, len(runes))
		for i, r := range runes {
			positions[i] = pos + i
			spaces[i] = unicode.IsSpace(r)
		}
		a.push(measure.TextRun(widths, spacing), runInfo{sizePx: size, spaces: spaces}, positions)
		return pos + len(runes)
	case n.Type == model.TabType:
		// width resolved during wrapping, once x is known
		a.push(measure.TabRun(0), runInfo{sizePx: a.defSize}, []int{pos})
		return pos + 1
	case n.Type == model.HardBreakType:
		a.push(measure.TextRun([]float64{0}, 0), runInfo{sizePx: a.defSize, breakAfter: true, spaces: []bool{false}}, []int{pos})
		return pos + 1
	case n.Type == model.ImageType:
		w := 0.0
		if px, ok := n.IntAttr("width"); ok {
			w = float64(px)
		}
		a.push(measure.TextRun([]float64{w}, 0), runInfo{sizePx: imageAscent(n)}, []int{pos})
		return pos + 1
	case n.Type == model.FieldCodeType || n.Type == model.StructuredContent:
		inner := pos + 1
		for _, c := range n.Content {
			inner = a.collect(c, inner)
		}
		return inner + 1
	default:
		// zero-width anchors: bookmarks, comment ranges
		return pos + 1
	}
}

func imageAscent(n *model.Node) float64 {
	if px, ok := n.IntAttr("height"); ok {
		return float64(px)
	}
	return 0
}

func intAttr(attrs model.Attrs, name string) (int, bool) {
	switch v := attrs[name].(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	}
	return 0, false
}

// measureParagraph measures and wraps one paragraph to the given width.
func measureParagraph(n *model.Node, width float64, m measure.Measurer, st paraStyle) *measure.Block {
	mb, _ := measureParagraphAt(n, 0, width, m, st)
	return mb
}

// measureParagraphAt additionally returns the run accumulator so cell
// measurement can map line character ranges back to token positions.
// basePos is the token position of the paragraph's opening.
func measureParagraphAt(n *model.Node, basePos int, width float64, m measure.Measurer, st paraStyle) (*measure.Block, *runAccum) {
	acc := &runAccum{m: m, defSize: st.defaultSizePx}
	pos := basePos + 1
	for _, c := range n.Content {
		pos = acc.collect(c, pos)
	}
	block := &measure.Block{Runs: acc.runs}
	block.Lines = wrap(acc, width, st)
	return block, acc
}

// cursor addresses one character slot across the run sequence.
type cursor struct {
	run, char int
}

func (c cursor) before(o cursor) bool {
	return c.run < o.run || (c.run == o.run && c.char < o.char)
}

// wrap breaks the runs greedily into lines. Breaks prefer the position
// after the last space; a line that cannot fit a single character
// takes one anyway. Tab widths resolve against the x the tab lands on.
func wrap(acc *runAccum, width float64, st paraStyle) []measure.Line {
	if len(acc.runs) == 0 {
		h := st.defaultSizePx * 1.2 * st.lineFactor
		return []measure.Line{{Height: h, Ascent: st.defaultSizePx}}
	}

	var lines []measure.Line
	start := cursor{0, 0}
	cur := cursor{0, 0}
	x := 0.0
	maxSize := 0.0
	afterSpace := cursor{-1, -1}

	endLine := func(end cursor, next cursor) {
		size := maxSize
		if size == 0 {
			size = st.defaultSizePx
		}
		ln := measure.Line{
			FromRun:  start.run,
			FromChar: start.char,
			ToRun:    end.run,
			ToChar:   end.char,
			Height:   size * 1.2 * st.lineFactor,
			Ascent:   size,
		}
		// an end at char 0 of a run means the previous run closed the line
		if ln.ToChar == 0 && ln.ToRun > ln.FromRun {
			ln.ToRun--
			ln.ToChar = acc.runs[ln.ToRun].CharCount()
		}
		lines = append(lines, ln)
		start = next
		x = 0
		maxSize = 0
		afterSpace = cursor{-1, -1}
	}

	for cur.run < len(acc.runs) {
		run := &acc.runs[cur.run]
		info := acc.infos[cur.run]
		if cur.char >= run.CharCount() {
			cur = cursor{cur.run + 1, 0}
			continue
		}

		var w float64
		if run.Kind == measure.RunTab {
			stop := measure.NextTabStop(x, nil, acc.m.TabInterval())
			w = stop - x
			run.Width = w
		} else {
			w = run.CharWidths[cur.char] + run.LetterSpacing
		}

		if x+w > width && start.before(cur) {
			if afterSpace.run >= 0 && start.before(afterSpace) {
				brk := afterSpace
				endLine(brk, brk)
				cur = brk
			} else {
				endLine(cur, cur)
			}
			continue
		}

		x += w
		if info.sizePx > maxSize {
			maxSize = info.sizePx
		}
		if run.Kind == measure.RunText && info.spaces != nil && info.spaces[cur.char] {
			afterSpace = advance(acc, cursor{cur.run, cur.char + 1})
		}
		next := advance(acc, cursor{cur.run, cur.char + 1})
		if info.breakAfter && cur.char == run.CharCount()-1 {
			endLine(cursor{cur.run, cur.char + 1}, next)
			cur = next
			continue
		}
		cur = next
	}
	// final line, including trailing content after the last break
	if start.run < len(acc.runs) {
		endLine(cursor{len(acc.runs) - 1, acc.runs[len(acc.runs)-1].CharCount()}, cur)
	}
	return lines
}

// advance normalizes a cursor past run boundaries.
func advance(acc *runAccum, c cursor) cursor {
	for c.run < len(acc.runs) && c.char >= acc.runs[c.run].CharCount() {
		c = cursor{c.run + 1, 0}
	}
	return c
}

// measureTable measures every row of a table. Column widths come from
// the grid attr when present, else the width splits evenly.
func (p *Pipeline) measureTable(tbl *model.Node, width float64, m measure.Measurer, arts *ImportArtifacts) []paginate.TableRow {
	rows := make([]paginate.TableRow, 0, len(tbl.Content))
	pos := 1 // table open token
	for _, rowNode := range tbl.Content {
		if rowNode.Type != model.TableRowType {
			pos += rowNode.Size()
			continue
		}
		row := paginate.TableRow{
			CantSplit: rowNode.BoolAttr("cantSplit"),
			IsHeader:  rowNode.BoolAttr("isHeader"),
		}
		cellCount := len(rowNode.Content)
		if cellCount == 0 {
			cellCount = 1
		}
		cellWidth := width / float64(cellCount)
		cellPos := pos + 1
		maxBottom := 0.0
		for _, cellNode := range rowNode.Content {
			cm := p.measureCell(cellNode, cellPos, cellWidth, m, arts)
			if len(cm.Lines) > 0 {
				if b := cm.Lines[len(cm.Lines)-1].Bottom; b > maxBottom {
					maxBottom = b
				}
			}
			row.Cells = append(row.Cells, cm)
			cellPos += cellNode.Size()
		}
		row.Height = maxBottom
		if tw, ok := twipsToPx(rowNode.Attr("height")); ok && tw > row.Height {
			row.Height = tw
		}
		rows = append(rows, row)
		pos += rowNode.Size()
	}
	return rows
}

// measureCell stacks the cell's paragraphs and records one LineBox per
// wrapped line, tops relative to the row.
func (p *Pipeline) measureCell(cell *model.Node, basePos int, width float64, m measure.Measurer, arts *ImportArtifacts) paginate.CellMeasure {
	cm := paginate.CellMeasure{FromPos: basePos, ToPos: basePos + cell.Size()}
	y := 0.0
	pos := basePos + 1
	for _, block := range cell.Content {
		if block.Type != model.ParagraphType {
			pos += block.Size()
			continue
		}
		st := p.paragraphStyle(block, arts)
		mb, acc := measureParagraphAt(block, pos, width, m, st)
		charIdx := 0
		for _, ln := range mb.Lines {
			count := lineCharCount(mb, ln)
			from, to := pos+1, pos+1
			if count > 0 && charIdx < len(acc.charPos) {
				from = acc.charPos[charIdx]
				last := charIdx + count - 1
				if last >= len(acc.charPos) {
					last = len(acc.charPos) - 1
				}
				to = acc.charPos[last] + 1
			}
			cm.Lines = append(cm.Lines, paginate.LineBox{
				FromPos: from,
				ToPos:   to,
				Top:     y,
				Bottom:  y + ln.Height,
			})
			y += ln.Height
			charIdx += count
		}
		pos += block.Size()
	}
	return cm
}

func lineCharCount(b *measure.Block, ln measure.Line) int {
	n := 0
	for ri := ln.FromRun; ri <= ln.ToRun && ri < len(b.Runs); ri++ {
		lo, hi := 0, b.Runs[ri].CharCount()
		if ri == ln.FromRun {
			lo = ln.FromChar
		}
		if ri == ln.ToRun && ln.ToChar > 0 {
			hi = ln.ToChar
		}
		if hi > b.Runs[ri].CharCount() {
			hi = b.Runs[ri].CharCount()
		}
		if hi > lo {
			n += hi - lo
		}
	}
	return n
}
